package models

import "gorm.io/gorm"

type Notification struct {
	gorm.Model
	UserID   uint   `gorm:"index"`
	Title    string
	Message  string
	Category string `gorm:"default:general"` // general, achievement
	Read     bool   `gorm:"default:false"`
}
