package models

import "gorm.io/gorm"

// GamificationState holds one row per user, created lazily with zero values
// on the first qualifying activity. TotalPoints and ExperiencePoints only
// ever grow; CurrentLevel is recomputed from ExperiencePoints on every write.
type GamificationState struct {
	gorm.Model
	UserID           uint `gorm:"uniqueIndex"`
	TotalPoints      int  `gorm:"default:0"`
	ExperiencePoints int  `gorm:"default:0"`
	CurrentLevel     int  `gorm:"default:1"`
	CurrentStreak    int  `gorm:"default:0"`
	LongestStreak    int  `gorm:"default:0"`
	// Calendar date of the last qualifying activity, "2006-01-02" in the
	// configured app timezone. Empty until the first activity.
	LastActivityDate string `gorm:"size:10"`
}
