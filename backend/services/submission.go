package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quizcraft/backend/config"
	"quizcraft/backend/models"
	"quizcraft/backend/scoring"
)

var (
	// ErrAttemptNotRecorded means the whole attempt-processing transaction
	// rolled back. Nothing was written; the caller should retry the
	// submission as-is.
	ErrAttemptNotRecorded = errors.New("attempt could not be recorded, please retry")

	// ErrActivityNotRecorded is the login counterpart of
	// ErrAttemptNotRecorded: the login-activity transaction rolled back
	// and no counters moved.
	ErrActivityNotRecorded = errors.New("login activity could not be recorded, please retry")

	// ErrUnknownQuestion is a validation error: an answer references a
	// question that does not belong to the topic.
	ErrUnknownQuestion = errors.New("answer references an unknown question")
)

// QuestionSource resolves the question set of a topic. Implemented by
// cache.TopicCache; the canonical answers never leave the server.
type QuestionSource interface {
	Questions(ctx context.Context, topicID uint) ([]models.Question, error)
}

type AnswerInput struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
}

type AttemptInput struct {
	Answers         []AnswerInput
	DurationSeconds int
	// IdempotencyKey deduplicates retried submissions. A replay with the
	// same key returns the stored result without touching any counters.
	// Generated server-side when the client sends none.
	IdempotencyKey string
}

// AttemptSummary is what submitAttempt reports back to the client.
type AttemptSummary struct {
	AttemptID       uint
	Score           int
	MasteryLevel    models.MasteryLevel
	PointsEarned    int
	NewStreak       int
	NewAchievements []models.Achievement
	// Replayed is set when the idempotency key matched an attempt that was
	// already recorded.
	Replayed bool
}

// SubmissionService runs the full attempt pipeline: grade, then in one
// per-user transaction append history, update progress, advance the streak,
// credit the ledger and evaluate achievements. Concurrent submissions for
// the same user serialize on the gamification row lock; different users
// never contend.
type SubmissionService struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Questions QuestionSource
	Scoring   scoring.Config

	// Now is the clock; swapped out in tests that cross day boundaries.
	Now func() time.Time
}

func NewSubmissionService(db *gorm.DB, cfg *config.Config, questions QuestionSource) *SubmissionService {
	return &SubmissionService{
		DB:        db,
		Cfg:       cfg,
		Questions: questions,
		Scoring:   scoring.DefaultConfig(),
		Now:       time.Now,
	}
}

func (s *SubmissionService) today() string {
	return s.Now().In(s.Cfg.Location()).Format(DateLayout)
}

// SubmitAttempt grades the answers and records the attempt. All validation
// happens before the transaction opens; once inside, any failure rolls the
// whole unit back and surfaces as ErrAttemptNotRecorded.
func (s *SubmissionService) SubmitAttempt(ctx context.Context, userID, topicID uint, input AttemptInput) (*AttemptSummary, error) {
	questions, err := s.Questions.Questions(ctx, topicID)
	if err != nil {
		return nil, err
	}

	answered, err := matchAnswers(questions, input.Answers)
	if err != nil {
		return nil, err
	}
	graded, err := scoring.Grade(s.Scoring, answered)
	if err != nil {
		return nil, err
	}

	key := input.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	now := s.Now()
	today := s.today()

	ctx, cancel := context.WithTimeout(ctx, s.Cfg.TxTimeout)
	defer cancel()

	var summary *AttemptSummary
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := lockState(tx, userID)
		if err != nil {
			return err
		}

		// A retried request replays the stored result instead of
		// re-running the pipeline.
		var prior models.QuizAttempt
		err = tx.Where("user_id = ? AND idempotency_key = ?", userID, key).First(&prior).Error
		if err == nil {
			summary = replaySummary(&prior)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if graded.Score >= s.Cfg.StreakMinScore {
			state.CurrentStreak, state.LongestStreak = AdvanceStreak(
				state.CurrentStreak, state.LongestStreak, state.LastActivityDate, today)
			state.LastActivityDate = today
		}

		points := AttemptPoints(graded.Score)
		state.TotalPoints += points
		state.ExperiencePoints += points
		state.CurrentLevel = LevelForXP(state.ExperiencePoints)

		record, err := upsertProgress(tx, userID, topicID, graded.Score, now)
		if err != nil {
			return err
		}

		attempt := models.QuizAttempt{
			UserID:          userID,
			TopicID:         topicID,
			IdempotencyKey:  key,
			Score:           graded.Score,
			CorrectCount:    graded.CorrectCount,
			IncorrectCount:  graded.IncorrectCount,
			DurationSeconds: input.DurationSeconds,
			PointsEarned:    points,
			StreakAfter:     state.CurrentStreak,
			MasteryAfter:    record.MasteryLevel.String(),
			Answers:         answerRows(graded, input.Answers),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		awarded, err := evaluateAchievements(tx, state)
		if err != nil {
			return err
		}

		if err := tx.Save(state).Error; err != nil {
			return err
		}

		summary = &AttemptSummary{
			AttemptID:       attempt.ID,
			Score:           graded.Score,
			MasteryLevel:    record.MasteryLevel,
			PointsEarned:    points,
			NewStreak:       state.CurrentStreak,
			NewAchievements: awarded,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttemptNotRecorded, err)
	}
	return summary, nil
}

// RecordDailyLogin registers a login as streak-qualifying activity and
// re-evaluates achievements (a login can complete a week_streak).
func (s *SubmissionService) RecordDailyLogin(ctx context.Context, userID uint) (int, error) {
	now := s.Now()
	today := s.today()

	ctx, cancel := context.WithTimeout(ctx, s.Cfg.TxTimeout)
	defer cancel()

	var streak int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := lockState(tx, userID)
		if err != nil {
			return err
		}

		state.CurrentStreak, state.LongestStreak = AdvanceStreak(
			state.CurrentStreak, state.LongestStreak, state.LastActivityDate, today)
		state.LastActivityDate = today

		if err := tx.Create(&models.LoginHistory{UserID: userID, LoginTime: now}).Error; err != nil {
			return err
		}
		if _, err := evaluateAchievements(tx, state); err != nil {
			return err
		}
		if err := tx.Save(state).Error; err != nil {
			return err
		}

		streak = state.CurrentStreak
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrActivityNotRecorded, err)
	}
	return streak, nil
}

// lockState loads the user's gamification row under a FOR UPDATE lock,
// creating it lazily with zero counters on first activity. The row lock is
// what serializes all mutation for one user; sqlite (used in tests) has no
// row locks and serializes writes on its own.
func lockState(tx *gorm.DB, userID uint) (*models.GamificationState, error) {
	locked := tx
	if tx.Dialector.Name() == "postgres" {
		locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var state models.GamificationState
	err := locked.Where("user_id = ?", userID).First(&state).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	state = models.GamificationState{UserID: userID, CurrentLevel: 1}
	if err := tx.Create(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race; lock the winner's row.
			if err := locked.Where("user_id = ?", userID).First(&state).Error; err != nil {
				return nil, err
			}
			return &state, nil
		}
		return nil, err
	}
	return &state, nil
}

// matchAnswers pairs submitted answers with the topic's questions. Unanswered
// questions are graded against an empty submission; an answer for a question
// outside the topic is a validation error, rejected before any write.
func matchAnswers(questions []models.Question, answers []AnswerInput) ([]scoring.AnsweredQuestion, error) {
	known := make(map[uint]string, len(questions))
	for _, q := range questions {
		known[q.ID] = ""
	}
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownQuestion, a.QuestionID)
		}
		known[a.QuestionID] = a.Answer
	}

	answered := make([]scoring.AnsweredQuestion, 0, len(questions))
	for _, q := range questions {
		answered = append(answered, scoring.AnsweredQuestion{
			QuestionID: q.ID,
			Difficulty: q.Difficulty,
			Submitted:  known[q.ID],
			Canonical:  q.CanonicalAnswer,
		})
	}
	return answered, nil
}

func answerRows(graded scoring.Result, answers []AnswerInput) []models.AttemptAnswer {
	submitted := make(map[uint]string, len(answers))
	for _, a := range answers {
		submitted[a.QuestionID] = a.Answer
	}

	rows := make([]models.AttemptAnswer, 0, len(graded.Questions))
	for _, q := range graded.Questions {
		rows = append(rows, models.AttemptAnswer{
			QuestionID: q.QuestionID,
			Submitted:  submitted[q.QuestionID],
			Correct:    q.Correct,
			Similarity: q.Similarity,
		})
	}
	return rows
}

func replaySummary(attempt *models.QuizAttempt) *AttemptSummary {
	return &AttemptSummary{
		AttemptID:    attempt.ID,
		Score:        attempt.Score,
		MasteryLevel: models.ParseMasteryLevel(attempt.MasteryAfter),
		PointsEarned: attempt.PointsEarned,
		NewStreak:    attempt.StreakAfter,
		Replayed:     true,
	}
}
