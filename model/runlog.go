package model

import (
	"time"

	"gorm.io/datatypes"
)

// RunLog records the outcome of one level run.
type RunLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID     string         `gorm:"index:idx_run_room;size:36;not null" json:"room_id"`
	LevelID    string         `gorm:"index:idx_run_level;size:64;not null" json:"level_id"`
	AccountID  *int64         `gorm:"index:idx_run_account" json:"account_id"`
	Outcome    string         `gorm:"size:32;not null" json:"outcome"` // killed / final_contact / abandoned
	DurationMs int            `json:"duration_ms"`
	Detail     datatypes.JSON `json:"detail"`
	CreatedAt  time.Time      `gorm:"index:idx_run_created;autoCreateTime:milli" json:"created_at"`
}
