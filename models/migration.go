package models

import (
	"gorm.io/gorm"
	"time"
)

// Migration marks a run-once schema step. Name is unique per dialect.
type Migration struct {
	gorm.Model
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"uniqueIndex:migration_name_dialect_idx; size:191"`
	Dialect    string `gorm:"uniqueIndex:migration_name_dialect_idx; size:32"`
	ExecutedAt time.Time
}
