package main

import (
	"context"
	"log"
	"time"

	"quizcraft/backend/cache"
	"quizcraft/backend/config"
	"quizcraft/backend/middleware"
	"quizcraft/backend/routes"
	"quizcraft/backend/services"
	"quizcraft/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// Redis is optional: without it question reads go straight to the DB.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Printf("Redis unavailable, question cache disabled: %v", err)
		rdb = nil
	}

	topics := cache.NewTopicCache(rdb, db, cfg.CacheTTL)
	svc := services.NewSubmissionService(db, cfg, topics)

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, svc, topics)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
