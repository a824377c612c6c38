package routes

import (
	"quizcraft/backend/cache"
	"quizcraft/backend/config"
	"quizcraft/backend/controllers"
	"quizcraft/backend/middleware"
	"quizcraft/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, svc *services.SubmissionService, topics *cache.TopicCache) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg, svc)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// Topic routes
	topicsController := controllers.NewTopicsController(db, cfg, topics)
	topicRoutes := app.Group("/api/topics", authMiddleware)
	topicRoutes.Get("/", topicsController.GetAvailableTopics)
	topicRoutes.Get("/:id", topicsController.GetTopicDetails)

	// Attempt routes
	attemptsController := controllers.NewAttemptsController(db, cfg, svc)
	topicRoutes.Post("/:id/attempts", attemptsController.SubmitAttempt)
	app.Get("/api/attempts", authMiddleware, attemptsController.GetAttempts)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress", authMiddleware, progressController.GetProgressSummary)

	// Gamification routes
	gamificationController := controllers.NewGamificationController(db, cfg)
	app.Get("/api/gamification", authMiddleware, gamificationController.GetState)
	app.Get("/api/achievements", authMiddleware, gamificationController.GetRecentAchievements)
	app.Get("/api/achievements/catalog", authMiddleware, gamificationController.GetAchievementCatalog)
	app.Get("/api/notifications", authMiddleware, gamificationController.GetNotifications)

	// Admin routes for topics
	adminTopics := app.Group("/api/admin/topics", authMiddleware, adminMiddleware)
	adminTopics.Post("/", topicsController.CreateTopic)
	adminTopics.Post("/:id/questions", topicsController.AddQuestion)
}
