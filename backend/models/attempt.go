package models

import "gorm.io/gorm"

// QuizAttempt is append-only: one row per submitted quiz, never mutated.
// The idempotency key deduplicates retries per user, so the unique index
// is composite: two users may reuse the same key without colliding.
type QuizAttempt struct {
	gorm.Model
	UserID          uint   `gorm:"uniqueIndex:idx_attempt_user_key"`
	TopicID         uint   `gorm:"index"`
	IdempotencyKey  string `gorm:"uniqueIndex:idx_attempt_user_key;size:64"`
	Score           int    // 0-100
	CorrectCount    int
	IncorrectCount  int
	DurationSeconds int
	PointsEarned    int
	StreakAfter     int
	MasteryAfter    string
	Answers         []AttemptAnswer
}

type AttemptAnswer struct {
	gorm.Model
	QuizAttemptID uint `gorm:"index"`
	QuestionID    uint
	Submitted     string
	Correct       bool
	Similarity    float64
}
