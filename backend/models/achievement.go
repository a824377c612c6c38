package models

import "gorm.io/gorm"

// Achievement rows are immutable once created. The unique index on
// (user_id, type) is what makes awarding at-most-once: a concurrent
// double-award loses the race at the constraint and is ignored.
type Achievement struct {
	gorm.Model
	UserID uint   `gorm:"uniqueIndex:idx_achievement_user_type"`
	Type   string `gorm:"uniqueIndex:idx_achievement_user_type;size:32"`
	Title  string
	Points int
}
