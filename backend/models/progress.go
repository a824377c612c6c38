package models

import (
	"time"

	"gorm.io/gorm"
)

// MasteryLevel is the canonical five-step mastery vocabulary. Older clients
// used "proficient" and "developing" for two of the steps; ParseMasteryLevel
// maps those onto the canonical names.
type MasteryLevel string

const (
	MasteryNotStarted   MasteryLevel = "not_started"
	MasteryBeginner     MasteryLevel = "beginner"
	MasteryIntermediate MasteryLevel = "intermediate"
	MasteryAdvanced     MasteryLevel = "advanced"
	MasteryMastered     MasteryLevel = "mastered"
)

// Rank returns the position of the level in the mastery order,
// 0 for not_started up to 4 for mastered. Unknown levels rank lowest.
func (m MasteryLevel) Rank() int {
	switch m {
	case MasteryBeginner:
		return 1
	case MasteryIntermediate:
		return 2
	case MasteryAdvanced:
		return 3
	case MasteryMastered:
		return 4
	default:
		return 0
	}
}

func (m MasteryLevel) String() string {
	return string(m)
}

// ParseMasteryLevel normalizes a stored or client-supplied label, accepting
// the legacy aliases.
func ParseMasteryLevel(s string) MasteryLevel {
	switch s {
	case "mastered":
		return MasteryMastered
	case "advanced", "proficient":
		return MasteryAdvanced
	case "intermediate", "developing":
		return MasteryIntermediate
	case "beginner":
		return MasteryBeginner
	default:
		return MasteryNotStarted
	}
}

// ProgressRecord holds one row per (user, topic). BestScore never decreases
// and MasteryLevel is always the classification of BestScore.
type ProgressRecord struct {
	gorm.Model
	UserID       uint `gorm:"uniqueIndex:idx_progress_user_topic"`
	TopicID      uint `gorm:"uniqueIndex:idx_progress_user_topic"`
	BestScore    int
	MasteryLevel MasteryLevel `gorm:"size:16;default:not_started"`
	LastReviewed time.Time
}
