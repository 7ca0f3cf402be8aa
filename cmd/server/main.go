package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matcharena/internal/api/handlers"
	"matcharena/internal/api/middleware"
	"matcharena/internal/config"
	"matcharena/internal/jobs"
	"matcharena/internal/rating"
	"matcharena/internal/repository"
	"matcharena/internal/service"
	"matcharena/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize PostgreSQL with connection pooling
	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	// Initialize Redis
	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Connected to Redis")

	// Initialize repositories
	postgresRepo := repository.NewPostgresRepository(db)
	redisRepo := repository.NewRedisRepository(redisClient)

	// Run migrations
	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations completed")

	// Rebuild the leaderboard view from the system of record
	if err := syncLeaderboardView(postgresRepo, redisRepo); err != nil {
		log.Printf("Failed to rebuild leaderboard view: %v", err)
	}

	// Worker pool mirrors rating updates into the Redis view
	mirrorPool := worker.NewPool(10, 1000, redisRepo)
	mirrorPool.Start()

	// Initialize services
	calc := rating.NewCalculator(cfg.Rating)
	leaderboardService := service.NewLeaderboardService(postgresRepo, redisRepo, mirrorPool, calc)
	matchmakingService := service.NewMatchmakingService(postgresRepo, cfg.Match)
	lifecycleService := service.NewLifecycleService(postgresRepo, leaderboardService, calc, cfg.Match)

	// Background sweep for expired waiting matches
	sweeper := jobs.NewSweeper(postgresRepo, cfg.Match)
	if err := sweeper.Start(); err != nil {
		log.Printf("Failed to start waiting-match sweeper: %v", err)
	}

	// Initialize handlers
	matchmakingHandler := handlers.NewMatchmakingHandler(matchmakingService)
	matchHandler := handlers.NewMatchHandler(lifecycleService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, postgresRepo, redisRepo)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MatchArena",
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Player-ID",
	}))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", leaderboardHandler.HealthCheck)
	api.Get("/leaderboard", leaderboardHandler.Get)
	api.Get("/leaderboard/search/:player", leaderboardHandler.Search)

	// Everything below acts on behalf of an authenticated player
	authed := api.Group("", middleware.PlayerIdentity())

	authed.Post("/matchmaking", matchmakingHandler.Request)
	authed.Get("/matchmaking/status", matchmakingHandler.Status)
	authed.Post("/matchmaking/cancel", matchmakingHandler.Cancel)

	authed.Post("/match/move", matchHandler.Move)
	authed.Post("/match/finish", matchHandler.Finish)
	authed.Post("/match/timeout", matchHandler.Timeout)
	authed.Get("/match/state", matchHandler.State)

	authed.Post("/leaderboard/match", leaderboardHandler.ReportMatch)
	authed.Post("/leaderboard/ai-match", leaderboardHandler.ReportAIMatch)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		sweeper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}

		if err := mirrorPool.Shutdown(30 * time.Second); err != nil {
			log.Printf("Mirror pool shutdown error: %v", err)
		}

		if err := postgresRepo.Close(); err != nil {
			log.Printf("Error closing PostgreSQL: %v", err)
		}
		if err := redisRepo.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}

		log.Println("✓ Server shutdown complete")
	}()

	// Start server
	port := cfg.Server.Port
	log.Printf("Server starting on port %d...", port)
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// syncLeaderboardView loads every rating record into the Redis view so
// ranks survive a cold cache.
func syncLeaderboardView(postgresRepo *repository.PostgresRepository, redisRepo *repository.RedisRepository) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := postgresRepo.AllRatings(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	ratings := make(map[string]int, len(records))
	for _, record := range records {
		ratings[record.Player] = record.Rating
	}

	if err := redisRepo.BulkLoad(ctx, ratings); err != nil {
		return err
	}

	log.Printf("✓ Leaderboard view rebuilt with %d players", len(records))
	return nil
}

// initPostgres initializes PostgreSQL connection with connection pooling
func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// initRedis initializes Redis connection with connection pooling
func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   "Request failed",
		"message": err.Error(),
	})
}
