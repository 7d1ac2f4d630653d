package model

import (
	"time"

	"gorm.io/datatypes"
)

// CharacterRecord is the persisted form of a live character. Data holds the
// character's full storage set (body layout, worn placements, vars, aux
// data, triggers) as produced by the entity layer.
type CharacterRecord struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UID       uint64         `gorm:"uniqueIndex:idx_char_uid;not null" json:"uid"`
	AccountID *int64         `gorm:"index:idx_char_account" json:"account_id"`
	Name      string         `gorm:"index:idx_char_name;size:64;not null" json:"name"`
	Race      string         `gorm:"size:32" json:"race"`
	RoomUID   uint64         `json:"room_uid"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// ObjectRecord is the persisted form of a live object. Location is stored
// inside Data; the columns exist for lookup and inspection.
type ObjectRecord struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UID       uint64         `gorm:"uniqueIndex:idx_obj_uid;not null" json:"uid"`
	Name      string         `gorm:"index:idx_obj_name;size:64;not null" json:"name"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// RoomRecord is the persisted form of a room, exits inlined in Data.
type RoomRecord struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UID       uint64         `gorm:"uniqueIndex:idx_room_uid;not null" json:"uid"`
	Name      string         `gorm:"index:idx_room_name;size:64;not null" json:"name"`
	Data      datatypes.JSON `json:"data"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
