package model

import "time"

// Account is a login account. Characters link back to it through
// CharacterRecord.AccountID; one account may own several.
type Account struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string    `gorm:"size:60;not null" json:"-"` // bcrypt
	Email        string    `gorm:"size:128" json:"email"`
	// Status 0 means banned, 1 normal.
	Status      int        `gorm:"default:1" json:"status"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `gorm:"size:45" json:"last_login_ip"`
}
