// Package sqlite opens gorm over SQLite, the default storage for
// single-host deployments and tests.
package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a gorm handle for the database file at path. Pass ":memory:"
// for a throwaway database. gorm's own SQL logging stays off; the server
// logs through zap.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
