package model

import (
	"time"

	"gorm.io/datatypes"
)

// ScriptLog records every trigger script invocation and every admin action
// that touches the world, for after-the-fact debugging of content.
type ScriptLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_script_trace;size:36" json:"trace_id"`
	ScriptKey  string         `gorm:"index:idx_script_key;size:64;not null" json:"script_key"`
	TrigType   string         `gorm:"size:32" json:"trig_type"`
	OwnerUID   uint64         `gorm:"index:idx_script_owner" json:"owner_uid"`
	Context    datatypes.JSON `json:"context"`
	Error      string         `gorm:"type:text" json:"error"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_script_created;autoCreateTime:milli" json:"created_at"`
}
