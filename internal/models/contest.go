package models

import (
	"time"

	"gorm.io/datatypes"
)

// Contest is a scored event in either the competitive or the exam format.
type Contest struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	Key                string            `gorm:"size:32;uniqueIndex;not null" json:"key"`
	Name               string            `gorm:"size:128;not null" json:"name"`
	FormatName         string            `gorm:"size:32;not null;default:codeforces" json:"format_name"`
	FormatConfig       datatypes.JSONMap `gorm:"type:json" json:"format_config"`
	StartTime          time.Time         `json:"start_time"`
	EndTime            time.Time         `json:"end_time"`
	FreezeAfterSeconds *int64            `json:"freeze_after_seconds"`
	PointsPrecision    int               `gorm:"not null;default:2" json:"points_precision"`
	ScoreboardVisible  bool              `gorm:"not null;default:true" json:"scoreboard_visible"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// FreezeAfter returns the freeze window offset, or nil when the scoreboard
// never freezes.
func (c Contest) FreezeAfter() *time.Duration {
	if c.FreezeAfterSeconds == nil || *c.FreezeAfterSeconds <= 0 {
		return nil
	}

	d := time.Duration(*c.FreezeAfterSeconds) * time.Second
	return &d
}

// FreezeTime returns the wall-clock moment the scoreboard freezes, or nil.
func (c Contest) FreezeTime() *time.Time {
	freeze := c.FreezeAfter()
	if freeze == nil {
		return nil
	}

	t := c.StartTime.Add(*freeze)
	return &t
}

// Duration is the scheduled contest length.
func (c Contest) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}

// ConfigMap returns the stored format configuration as a plain map.
func (c Contest) ConfigMap() map[string]interface{} {
	if c.FormatConfig == nil {
		return nil
	}

	return map[string]interface{}(c.FormatConfig)
}
