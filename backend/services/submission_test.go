package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"quizcraft/backend/cache"
	"quizcraft/backend/config"
	"quizcraft/backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

func newTestService(t *testing.T) (*SubmissionService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	cfg := &config.Config{
		Timezone:       "UTC",
		StreakMinScore: 50,
		TxTimeout:      5 * time.Second,
	}

	svc := NewSubmissionService(db, cfg, cache.NewTopicCache(nil, db, 0))
	svc.Now = func() time.Time {
		return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc, db
}

// seedTopic creates a topic with easy questions answered correctly by the
// canonical string itself.
func seedTopic(t *testing.T, db *gorm.DB, title string, canonicals ...string) (*models.Topic, []models.Question) {
	t.Helper()

	topic := &models.Topic{Title: title}
	require.NoError(t, db.Create(topic).Error)

	questions := make([]models.Question, 0, len(canonicals))
	for i, answer := range canonicals {
		q := models.Question{
			TopicID:         topic.ID,
			Prompt:          fmt.Sprintf("question %d", i+1),
			Difficulty:      "easy",
			CanonicalAnswer: answer,
			SequenceOrder:   i + 1,
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}
	return topic, questions
}

func answersFor(questions []models.Question, submitted ...string) []AnswerInput {
	answers := make([]AnswerInput, 0, len(submitted))
	for i, s := range submitted {
		answers = append(answers, AnswerInput{QuestionID: questions[i].ID, Answer: s})
	}
	return answers
}

func TestSubmitAttemptFullPipeline(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "Biology", "osmosis", "diffusion", "mitosis", "meiosis")

	summary, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers:         answersFor(questions, "osmosis", "diffusion", "mitosis", "wrong wrong"),
		DurationSeconds: 90,
		IdempotencyKey:  "attempt-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 75, summary.Score)
	assert.Equal(t, models.MasteryAdvanced, summary.MasteryLevel)
	assert.Equal(t, AttemptPoints(75), summary.PointsEarned)
	assert.Equal(t, 1, summary.NewStreak)
	assert.False(t, summary.Replayed)
	require.Len(t, summary.NewAchievements, 1)
	assert.Equal(t, AchievementFirstQuiz, summary.NewAchievements[0].Type)

	// Attempt history row with per-question answers.
	var attempt models.QuizAttempt
	require.NoError(t, db.Preload("Answers").First(&attempt, summary.AttemptID).Error)
	assert.Equal(t, 75, attempt.Score)
	assert.Equal(t, 3, attempt.CorrectCount)
	assert.Equal(t, 1, attempt.IncorrectCount)
	assert.Equal(t, 90, attempt.DurationSeconds)
	assert.Len(t, attempt.Answers, 4)

	// Progress record classified from the best score.
	var record models.ProgressRecord
	require.NoError(t, db.Where("user_id = ? AND topic_id = ?", 1, topic.ID).First(&record).Error)
	assert.Equal(t, 75, record.BestScore)
	assert.Equal(t, models.MasteryAdvanced, record.MasteryLevel)

	// Ledger: attempt points plus the first_quiz bonus, one path.
	var state models.GamificationState
	require.NoError(t, db.Where("user_id = ?", 1).First(&state).Error)
	assert.Equal(t, AttemptPoints(75)+25, state.TotalPoints)
	assert.Equal(t, state.TotalPoints, state.ExperiencePoints)
	assert.Equal(t, LevelForXP(state.ExperiencePoints), state.CurrentLevel)
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, "2024-03-10", state.LastActivityDate)
}

func TestBestScoreIsMonotonicAndCommutative(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "Chemistry", "proton", "neutron")

	// High score first, then a worse attempt.
	_, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "proton", "neutron"), IdempotencyKey: "a1",
	})
	require.NoError(t, err)
	_, err = svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "proton", "xxxxxx"), IdempotencyKey: "a2",
	})
	require.NoError(t, err)

	var record models.ProgressRecord
	require.NoError(t, db.Where("user_id = ? AND topic_id = ?", 1, topic.ID).First(&record).Error)
	assert.Equal(t, 100, record.BestScore)
	assert.Equal(t, models.MasteryMastered, record.MasteryLevel)

	// Reverse order for a second user converges to the same record.
	_, err = svc.SubmitAttempt(context.Background(), 2, topic.ID, AttemptInput{
		Answers: answersFor(questions, "proton", "xxxxxx"), IdempotencyKey: "b1",
	})
	require.NoError(t, err)
	_, err = svc.SubmitAttempt(context.Background(), 2, topic.ID, AttemptInput{
		Answers: answersFor(questions, "proton", "neutron"), IdempotencyKey: "b2",
	})
	require.NoError(t, err)

	record = models.ProgressRecord{}
	require.NoError(t, db.Where("user_id = ? AND topic_id = ?", 2, topic.ID).First(&record).Error)
	assert.Equal(t, 100, record.BestScore)
	assert.Equal(t, models.MasteryMastered, record.MasteryLevel)
}

func TestSubmitAttemptReplayIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "Physics", "quark")

	first, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "quark"), IdempotencyKey: "retry-me",
	})
	require.NoError(t, err)

	second, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "quark"), IdempotencyKey: "retry-me",
	})
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.AttemptID, second.AttemptID)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.PointsEarned, second.PointsEarned)
	assert.Equal(t, first.NewStreak, second.NewStreak)

	var attempts int64
	db.Model(&models.QuizAttempt{}).Where("user_id = ?", 1).Count(&attempts)
	assert.EqualValues(t, 1, attempts)

	var state models.GamificationState
	require.NoError(t, db.Where("user_id = ?", 1).First(&state).Error)
	assert.Equal(t, first.PointsEarned+25, state.TotalPoints, "replay must not double-credit points")
	assert.Equal(t, 1, state.CurrentStreak)
}

func TestIdempotencyKeyIsScopedPerUser(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "Astronomy", "saturn")

	// Two users reusing the same key must not collide: the key only
	// deduplicates one user's own retries.
	first, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "saturn"), IdempotencyKey: "shared-key",
	})
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := svc.SubmitAttempt(context.Background(), 2, topic.ID, AttemptInput{
		Answers: answersFor(questions, "saturn"), IdempotencyKey: "shared-key",
	})
	require.NoError(t, err)
	assert.False(t, second.Replayed)
	assert.NotEqual(t, first.AttemptID, second.AttemptID)

	var attempts int64
	db.Model(&models.QuizAttempt{}).Where("idempotency_key = ?", "shared-key").Count(&attempts)
	assert.EqualValues(t, 2, attempts)

	// Each user's own retry still replays.
	replay, err := svc.SubmitAttempt(context.Background(), 2, topic.ID, AttemptInput{
		Answers: answersFor(questions, "saturn"), IdempotencyKey: "shared-key",
	})
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, second.AttemptID, replay.AttemptID)
}

func TestSameDayActivityDoesNotDoubleIncrementStreak(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "History", "1492")

	for i := 0; i < 3; i++ {
		_, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
			Answers: answersFor(questions, "1492"), IdempotencyKey: fmt.Sprintf("same-day-%d", i),
		})
		require.NoError(t, err)
	}

	var state models.GamificationState
	require.NoError(t, db.Where("user_id = ?", 1).First(&state).Error)
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, 1, state.LongestStreak)
}

func TestStreakContinuationAndReset(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "Geography", "danube")

	submitOn := func(day int, key string) {
		svc.Now = func() time.Time {
			return time.Date(2024, 3, day, 8, 0, 0, 0, time.UTC)
		}
		_, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
			Answers: answersFor(questions, "danube"), IdempotencyKey: key,
		})
		require.NoError(t, err)
	}

	submitOn(10, "d10")
	submitOn(11, "d11")

	var state models.GamificationState
	require.NoError(t, db.Where("user_id = ?", 1).First(&state).Error)
	assert.Equal(t, 2, state.CurrentStreak)

	// Two-day gap resets, longest survives.
	submitOn(14, "d14")
	require.NoError(t, db.Where("user_id = ?", 1).First(&state).Error)
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, 2, state.LongestStreak)
}

func TestLowScoreEarnsPointsButNotStreak(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "Latin", "carpe diem")

	summary, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "zzzzz"), IdempotencyKey: "low",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Score)
	assert.Equal(t, BasePoints, summary.PointsEarned)
	assert.Equal(t, 0, summary.NewStreak)

	var state models.GamificationState
	require.NoError(t, db.Where("user_id = ?", 1).First(&state).Error)
	assert.Equal(t, 0, state.CurrentStreak)
	assert.Equal(t, "", state.LastActivityDate)
	assert.Greater(t, state.TotalPoints, 0)
}

func TestPointCollectorAwardedInSameTransaction(t *testing.T) {
	svc, db := newTestService(t)
	topic, questions := seedTopic(t, db, "Economics", "supply")

	// Excluded from first_quiz noise: give the user prior attempts too.
	require.NoError(t, db.Create(&models.GamificationState{
		UserID: 1, TotalPoints: 990, ExperiencePoints: 990, CurrentLevel: LevelForXP(990),
	}).Error)
	require.NoError(t, db.Create(&models.Achievement{
		UserID: 1, Type: AchievementFirstQuiz, Title: "First Steps", Points: 25,
	}).Error)

	summary, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "supply"), IdempotencyKey: "collector",
	})
	require.NoError(t, err)

	require.Len(t, summary.NewAchievements, 1)
	assert.Equal(t, AchievementPointCollector, summary.NewAchievements[0].Type)

	var state models.GamificationState
	require.NoError(t, db.Where("user_id = ?", 1).First(&state).Error)
	assert.Equal(t, 990+AttemptPoints(100)+100, state.TotalPoints)

	// Re-running the pipeline never awards it a second time.
	_, err = svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers: answersFor(questions, "supply"), IdempotencyKey: "collector-2",
	})
	require.NoError(t, err)

	var rows int64
	db.Model(&models.Achievement{}).
		Where("user_id = ? AND type = ?", 1, AchievementPointCollector).
		Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestUnknownQuestionRejectedBeforeAnyWrite(t *testing.T) {
	svc, db := newTestService(t)
	topic, _ := seedTopic(t, db, "Music", "allegro")

	_, err := svc.SubmitAttempt(context.Background(), 1, topic.ID, AttemptInput{
		Answers:        []AnswerInput{{QuestionID: 99999, Answer: "x"}},
		IdempotencyKey: "bad",
	})
	require.ErrorIs(t, err, ErrUnknownQuestion)

	var attempts int64
	db.Model(&models.QuizAttempt{}).Count(&attempts)
	assert.EqualValues(t, 0, attempts)

	var states int64
	db.Model(&models.GamificationState{}).Count(&states)
	assert.EqualValues(t, 0, states)
}

func TestSubmitAttemptTopicNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SubmitAttempt(context.Background(), 1, 424242, AttemptInput{})
	require.ErrorIs(t, err, cache.ErrTopicNotFound)
}

func TestRecordDailyLogin(t *testing.T) {
	svc, db := newTestService(t)

	streak, err := svc.RecordDailyLogin(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	// Same day again: counted once.
	streak, err = svc.RecordDailyLogin(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	svc.Now = func() time.Time {
		return time.Date(2024, 3, 11, 7, 30, 0, 0, time.UTC)
	}
	streak, err = svc.RecordDailyLogin(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	var logins int64
	db.Model(&models.LoginHistory{}).Where("user_id = ?", 7).Count(&logins)
	assert.EqualValues(t, 3, logins)
}

func TestRecordDailyLoginWrapsTransactionFailure(t *testing.T) {
	svc, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.RecordDailyLogin(ctx, 7)
	require.ErrorIs(t, err, ErrActivityNotRecorded)
}

func TestWeekStreakAchievementFromLogins(t *testing.T) {
	svc, db := newTestService(t)

	for day := 10; day < 17; day++ {
		d := day
		svc.Now = func() time.Time {
			return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC)
		}
		_, err := svc.RecordDailyLogin(context.Background(), 3)
		require.NoError(t, err)
	}

	var achievement models.Achievement
	require.NoError(t, db.Where("user_id = ? AND type = ?", 3, AchievementWeekStreak).
		First(&achievement).Error)
	assert.Equal(t, 50, achievement.Points)
}
