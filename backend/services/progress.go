package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"quizcraft/backend/models"
	"quizcraft/backend/scoring"
)

// upsertProgress records an attempt score against the per-(user, topic)
// progress row. BestScore is the running max, so replaying attempts in any
// order converges to the same record, and the mastery level is always
// reclassified from the best score. Runs inside the submission transaction.
func upsertProgress(tx *gorm.DB, userID, topicID uint, score int, now time.Time) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	err := tx.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		record = models.ProgressRecord{
			UserID:  userID,
			TopicID: topicID,
		}
	}

	if score > record.BestScore {
		record.BestScore = score
	}
	record.MasteryLevel = scoring.Classify(record.BestScore)
	record.LastReviewed = now

	if err := tx.Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
