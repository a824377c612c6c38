package utils

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"quizcraft/backend/config"
	"quizcraft/backend/models"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey, which the achievement and idempotency
	// handling depends on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.LoginHistory{},
		&models.Topic{},
		&models.Question{},
		&models.QuizAttempt{},
		&models.AttemptAnswer{},
		&models.ProgressRecord{},
		&models.GamificationState{},
		&models.Achievement{},
		&models.Notification{},
	)
}
