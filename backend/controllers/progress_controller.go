package controllers

import (
	"quizcraft/backend/config"
	"quizcraft/backend/models"
	"quizcraft/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// GetProgressSummary godoc
// @Summary Get per-topic progress
// @Description Returns the user's progress record for every attempted topic
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgressSummary(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var records []models.ProgressRecord
	if err := pc.DB.Where("user_id = ?", userID).
		Order("last_reviewed DESC").
		Find(&records).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}

	summary := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		summary = append(summary, fiber.Map{
			"topic_id":      r.TopicID,
			"best_score":    r.BestScore,
			"mastery_level": r.MasteryLevel,
			"last_reviewed": r.LastReviewed,
		})
	}

	return utils.Success(c, fiber.StatusOK, summary)
}
