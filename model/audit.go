package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records catalog edits and file operations.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36" json:"trace_id"`
	Editor     string         `gorm:"index:idx_audit_editor;size:64" json:"editor"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	RewardID   *int           `gorm:"index:idx_audit_reward" json:"reward_id"`
	Request    datatypes.JSON `json:"request"`
	Error      string         `gorm:"type:text" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
