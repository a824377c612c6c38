package services

import (
	"errors"

	"gorm.io/gorm"

	"quizcraft/backend/models"
)

// Achievement types in the catalog.
const (
	AchievementFirstQuiz      = "first_quiz"
	AchievementWeekStreak     = "week_streak"
	AchievementMonthStreak    = "month_streak"
	AchievementPerfectionist  = "perfectionist"
	AchievementTopicMaster    = "topic_master"
	AchievementPointCollector = "point_collector"
)

// UserStats are the aggregates achievement predicates are evaluated against.
type UserStats struct {
	AttemptCount   int64
	AverageScore   float64
	CurrentStreak  int
	TotalPoints    int
	MasteredTopics int64
}

// AchievementDef declares one achievement: its condition and its reward.
// Every awarding site goes through this catalog; there are no ad hoc
// achievement checks anywhere else.
type AchievementDef struct {
	Type    string
	Title   string
	Message string
	Points  int
	Earned  func(s UserStats) bool
}

// Catalog is evaluated in order, and stats are refreshed after each award,
// so a bonus granted mid-scan can satisfy a later entry in the same pass.
// point_collector is last for exactly that reason.
var Catalog = []AchievementDef{
	{
		Type:    AchievementFirstQuiz,
		Title:   "First Steps",
		Message: "You completed your first quiz. Keep going!",
		Points:  25,
		Earned:  func(s UserStats) bool { return s.AttemptCount >= 1 },
	},
	{
		Type:    AchievementWeekStreak,
		Title:   "Week Warrior",
		Message: "Seven days of studying in a row.",
		Points:  50,
		Earned:  func(s UserStats) bool { return s.CurrentStreak >= 7 },
	},
	{
		Type:    AchievementMonthStreak,
		Title:   "Monthly Master",
		Message: "A full month of daily studying.",
		Points:  200,
		Earned:  func(s UserStats) bool { return s.CurrentStreak >= 30 },
	},
	{
		Type:    AchievementPerfectionist,
		Title:   "Perfectionist",
		Message: "Average score of 90 or higher across five quizzes.",
		Points:  100,
		Earned:  func(s UserStats) bool { return s.AttemptCount >= 5 && s.AverageScore >= 90 },
	},
	{
		Type:    AchievementTopicMaster,
		Title:   "Topic Master",
		Message: "Five topics mastered.",
		Points:  150,
		Earned:  func(s UserStats) bool { return s.MasteredTopics >= 5 },
	},
	{
		Type:    AchievementPointCollector,
		Title:   "Point Collector",
		Message: "You collected 1000 points.",
		Points:  100,
		Earned:  func(s UserStats) bool { return s.TotalPoints >= 1000 },
	},
}

// evaluateAchievements awards every unearned catalog entry whose predicate
// holds. It must run inside the submission transaction while the user's
// gamification row is locked: the unique (user_id, type) index is the
// backstop, and a duplicate-key loss against a concurrent evaluation is
// treated as already awarded, not as an error. Bonus points are applied to
// the in-memory state; the caller persists it.
func evaluateAchievements(tx *gorm.DB, state *models.GamificationState) ([]models.Achievement, error) {
	stats, err := collectStats(tx, state)
	if err != nil {
		return nil, err
	}

	var earnedTypes []string
	if err := tx.Model(&models.Achievement{}).
		Where("user_id = ?", state.UserID).
		Pluck("type", &earnedTypes).Error; err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(earnedTypes))
	for _, t := range earnedTypes {
		have[t] = true
	}

	var awarded []models.Achievement
	for _, def := range Catalog {
		if have[def.Type] || !def.Earned(stats) {
			continue
		}

		achievement := models.Achievement{
			UserID: state.UserID,
			Type:   def.Type,
			Title:  def.Title,
			Points: def.Points,
		}
		if err := tx.Create(&achievement).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return nil, err
		}

		state.TotalPoints += def.Points
		state.ExperiencePoints += def.Points
		state.CurrentLevel = LevelForXP(state.ExperiencePoints)
		stats.TotalPoints = state.TotalPoints

		notification := models.Notification{
			UserID:   state.UserID,
			Title:    "Achievement unlocked: " + def.Title,
			Message:  def.Message,
			Category: "achievement",
		}
		if err := tx.Create(&notification).Error; err != nil {
			return nil, err
		}

		awarded = append(awarded, achievement)
	}

	return awarded, nil
}

func collectStats(tx *gorm.DB, state *models.GamificationState) (UserStats, error) {
	stats := UserStats{
		CurrentStreak: state.CurrentStreak,
		TotalPoints:   state.TotalPoints,
	}

	if err := tx.Model(&models.QuizAttempt{}).
		Where("user_id = ?", state.UserID).
		Count(&stats.AttemptCount).Error; err != nil {
		return stats, err
	}
	if stats.AttemptCount > 0 {
		if err := tx.Model(&models.QuizAttempt{}).
			Where("user_id = ?", state.UserID).
			Select("AVG(score)").
			Scan(&stats.AverageScore).Error; err != nil {
			return stats, err
		}
	}
	if err := tx.Model(&models.ProgressRecord{}).
		Where("user_id = ? AND mastery_level = ?", state.UserID, models.MasteryMastered).
		Count(&stats.MasteredTopics).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
