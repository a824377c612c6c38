package controllers

import (
	"errors"
	"strconv"

	"quizcraft/backend/cache"
	"quizcraft/backend/config"
	"quizcraft/backend/models"
	"quizcraft/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TopicsController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Topics *cache.TopicCache
}

func NewTopicsController(db *gorm.DB, cfg *config.Config, topics *cache.TopicCache) *TopicsController {
	return &TopicsController{DB: db, Cfg: cfg, Topics: topics}
}

func (tc *TopicsController) GetAvailableTopics(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, tc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	category := c.Query("category")

	query := tc.DB.Model(&models.Topic{})
	if category != "" {
		query = query.Where("category LIKE ?", "%"+category+"%")
	}

	var topics []models.Topic
	if err := query.Find(&topics).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var result []fiber.Map
	for _, topic := range topics {
		var progress models.ProgressRecord
		tc.DB.Where("user_id = ? AND topic_id = ?", userID, topic.ID).First(&progress)

		result = append(result, fiber.Map{
			"id":          topic.ID,
			"title":       topic.Title,
			"description": topic.ShortDesc,
			"category":    topic.Category,
			"best_score":  progress.BestScore,
			"mastery":     models.ParseMasteryLevel(string(progress.MasteryLevel)),
		})
	}

	return c.JSON(result)
}

func (tc *TopicsController) GetTopicDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, tc.Cfg)
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

	var topic models.Topic
	if err := tc.DB.First(&topic, topicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Topic not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	questions, err := tc.Topics.Questions(c.Context(), uint(topicID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load questions",
		})
	}

	// Canonical answers stay on the server.
	var questionList []fiber.Map
	for _, q := range questions {
		questionList = append(questionList, fiber.Map{
			"id":         q.ID,
			"prompt":     q.Prompt,
			"difficulty": q.Difficulty,
			"order":      q.SequenceOrder,
		})
	}

	var progress models.ProgressRecord
	tc.DB.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&progress)

	return c.JSON(fiber.Map{
		"topic": fiber.Map{
			"id":          topic.ID,
			"title":       topic.Title,
			"description": topic.Description,
			"short_desc":  topic.ShortDesc,
			"category":    topic.Category,
			"questions":   questionList,
		},
		"progress": progress,
	})
}

func (tc *TopicsController) CreateTopic(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, tc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var topic models.Topic
	if err := c.BodyParser(&topic); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	topic.AuthorID = userID
	if err := tc.DB.Create(&topic).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create topic",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Topic created",
		"topic":   topic,
	})
}

func (tc *TopicsController) AddQuestion(c *fiber.Ctx) error {
	topicID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid topic ID",
		})
	}

	var input struct {
		Prompt          string `json:"prompt"`
		Difficulty      string `json:"difficulty"`
		CanonicalAnswer string `json:"canonical_answer"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var topic models.Topic
	if err := tc.DB.First(&topic, topicID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Topic not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Get current question count to set sequence order
	var questionCount int64
	tc.DB.Model(&models.Question{}).Where("topic_id = ?", topicID).Count(&questionCount)

	question := models.Question{
		TopicID:         uint(topicID),
		Prompt:          input.Prompt,
		Difficulty:      input.Difficulty,
		CanonicalAnswer: input.CanonicalAnswer,
		SequenceOrder:   int(questionCount) + 1,
	}

	if err := tc.DB.Create(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create question",
		})
	}

	tc.Topics.Invalidate(c.Context(), uint(topicID))

	return c.JSON(fiber.Map{
		"message":  "Question added",
		"question": question,
	})
}
