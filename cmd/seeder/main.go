package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"matcharena/internal/config"
	"matcharena/internal/models"
	"matcharena/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	TotalPlayers = 5000
	BatchSize    = 500
	PlayerPrefix = "player_"
	RatingSpread = 600
)

func main() {
	log.Println("Starting MatchArena seeder...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("✓ Connected to PostgreSQL")

	redisClient, err := initRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("✓ Connected to Redis")

	postgresRepo := repository.NewPostgresRepository(db)
	redisRepo := repository.NewRedisRepository(redisClient)

	if err := postgresRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("✓ Database migrations completed")

	ctx := context.Background()

	log.Printf("Generating %d rating records...", TotalPlayers)
	records := generateRecords(cfg.Rating.BaseRating, TotalPlayers)

	log.Println("Inserting rating records into PostgreSQL...")
	if err := postgresRepo.BulkInsertRatings(ctx, records, BatchSize); err != nil {
		log.Fatalf("Failed to seed PostgreSQL: %v", err)
	}

	log.Println("Populating Redis leaderboard view...")
	ratings := make(map[string]int, len(records))
	for _, record := range records {
		ratings[record.Player] = record.Rating
	}
	if err := redisRepo.BulkLoad(ctx, ratings); err != nil {
		log.Fatalf("Failed to seed Redis: %v", err)
	}

	total, err := redisRepo.TotalPlayers(ctx)
	if err != nil {
		log.Fatalf("Failed to verify Redis: %v", err)
	}

	log.Printf("✓ Seeding complete: %d players ranked", total)
}

// generateRecords builds players with ratings spread around the base and
// plausible win/loss history.
func generateRecords(base, count int) []models.RatingRecord {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	records := make([]models.RatingRecord, 0, count)

	for i := 1; i <= count; i++ {
		value := base + rng.Intn(2*RatingSpread) - RatingSpread
		if value < 0 {
			value = 0
		}
		records = append(records, models.RatingRecord{
			Player: fmt.Sprintf("%s%05d", PlayerPrefix, i),
			Rating: value,
			Wins:   rng.Intn(50),
			Losses: rng.Intn(50),
			Draws:  rng.Intn(10),
		})
	}

	return records
}

func initPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}
