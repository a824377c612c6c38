package controllers

import (
	"errors"
	"strconv"

	"quizcraft/backend/cache"
	"quizcraft/backend/config"
	"quizcraft/backend/models"
	"quizcraft/backend/services"
	"quizcraft/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AttemptsController struct {
	DB  *gorm.DB
	Cfg *config.Config
	Svc *services.SubmissionService
}

func NewAttemptsController(db *gorm.DB, cfg *config.Config, svc *services.SubmissionService) *AttemptsController {
	return &AttemptsController{DB: db, Cfg: cfg, Svc: svc}
}

// SubmitAttempt godoc
// @Summary Submit a completed quiz attempt
// @Description Grades the answers and records progress, streak, points and achievements in one unit
// @Tags attempts
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client retry deduplication key"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /topics/{id}/attempts [post]
func (ac *AttemptsController) SubmitAttempt(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	topicID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid topic ID",
		})
	}

	var input struct {
		Answers         []services.AnswerInput `json:"answers"`
		DurationSeconds int                    `json:"duration_seconds"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	summary, err := ac.Svc.SubmitAttempt(c.Context(), userID, uint(topicID), services.AttemptInput{
		Answers:         input.Answers,
		DurationSeconds: input.DurationSeconds,
		IdempotencyKey:  c.Get("Idempotency-Key"),
	})
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrTopicNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Topic not found",
			})
		case errors.Is(err, services.ErrUnknownQuestion):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Answer references an unknown question",
			})
		case errors.Is(err, services.ErrAttemptNotRecorded):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Your result could not be saved, please retry",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not process attempt",
			})
		}
	}

	achievements := make([]fiber.Map, 0, len(summary.NewAchievements))
	for _, a := range summary.NewAchievements {
		achievements = append(achievements, fiber.Map{
			"type":   a.Type,
			"title":  a.Title,
			"points": a.Points,
		})
	}

	return c.JSON(fiber.Map{
		"attempt_id":       summary.AttemptID,
		"score":            summary.Score,
		"mastery_level":    summary.MasteryLevel,
		"points_earned":    summary.PointsEarned,
		"new_streak":       summary.NewStreak,
		"new_achievements": achievements,
		"replayed":         summary.Replayed,
	})
}

func (ac *AttemptsController) GetAttempts(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	var attempts []models.QuizAttempt
	if err := ac.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var result []fiber.Map
	for _, a := range attempts {
		result = append(result, fiber.Map{
			"id":               a.ID,
			"topic_id":         a.TopicID,
			"score":            a.Score,
			"correct":          a.CorrectCount,
			"incorrect":        a.IncorrectCount,
			"duration_seconds": a.DurationSeconds,
			"points_earned":    a.PointsEarned,
			"submitted_at":     a.CreatedAt,
		})
	}

	return c.JSON(result)
}
