package models

import "gorm.io/gorm"

type Topic struct {
	gorm.Model
	Title       string `gorm:"not null"`
	ShortDesc   string
	Description string
	Category    string
	AuthorID    uint
	Questions   []Question
}

type Question struct {
	gorm.Model
	TopicID         uint   `gorm:"index"`
	Prompt          string `gorm:"not null"`
	Difficulty      string `gorm:"default:easy"` // easy, medium, hard
	CanonicalAnswer string
	SequenceOrder   int
}
