package controllers

import (
	"errors"
	"time"

	"quizcraft/backend/config"
	"quizcraft/backend/models"
	"quizcraft/backend/services"
	"quizcraft/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GamificationController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewGamificationController(db *gorm.DB, cfg *config.Config) *GamificationController {
	return &GamificationController{DB: db, Cfg: cfg}
}

// GetState godoc
// @Summary Get gamification state
// @Description Returns points, experience, level and streak counters
// @Tags gamification
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /gamification [get]
func (gc *GamificationController) GetState(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var state models.GamificationState
	if err := gc.DB.Where("user_id = ?", userID).First(&state).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Error(c, fiber.StatusInternalServerError, err)
		}
		// No activity yet: report the lazy zero state.
		state = models.GamificationState{UserID: userID, CurrentLevel: 1}
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"total_points":       state.TotalPoints,
		"experience_points":  state.ExperiencePoints,
		"current_level":      state.CurrentLevel,
		"current_streak":     state.CurrentStreak,
		"longest_streak":     state.LongestStreak,
		"last_activity_date": state.LastActivityDate,
	})
}

// GetRecentAchievements godoc
// @Summary List recently unlocked achievements
// @Description Returns achievements awarded since the given time (default: last 7 days)
// @Tags gamification
// @Produce json
// @Param since query string false "RFC3339 lower bound"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /achievements [get]
func (gc *GamificationController) GetRecentAchievements(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	since := time.Now().AddDate(0, 0, -7)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid since parameter, expected RFC3339",
			})
		}
		since = parsed
	}

	var achievements []models.Achievement
	if err := gc.DB.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&achievements).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}

	result := make([]fiber.Map, 0, len(achievements))
	for _, a := range achievements {
		result = append(result, fiber.Map{
			"type":       a.Type,
			"title":      a.Title,
			"points":     a.Points,
			"awarded_at": a.CreatedAt,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

// GetNotifications godoc
// @Summary List unread notifications
// @Tags gamification
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /notifications [get]
func (gc *GamificationController) GetNotifications(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, gc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var notifications []models.Notification
	if err := gc.DB.Where("user_id = ? AND read = ?", userID, false).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}

	return utils.Success(c, fiber.StatusOK, notifications)
}

// GetAchievementCatalog godoc
// @Summary List every achievement that can be earned
// @Tags gamification
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /achievements/catalog [get]
func (gc *GamificationController) GetAchievementCatalog(c *fiber.Ctx) error {
	result := make([]fiber.Map, 0, len(services.Catalog))
	for _, def := range services.Catalog {
		result = append(result, fiber.Map{
			"type":    def.Type,
			"title":   def.Title,
			"message": def.Message,
			"points":  def.Points,
		})
	}
	return utils.Success(c, fiber.StatusOK, result)
}
