package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"matcharena/internal/rating"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Match    MatchConfig
	Rating   rating.Config
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int
}

// MatchConfig holds the timing policy for matchmaking and match play.
type MatchConfig struct {
	// MoveTimeout is how long a turn may stay unanswered before a
	// participant can claim a forfeit.
	MoveTimeout time.Duration
	// WaitingTimeout is how long a waiting match stays eligible for
	// activation before it is swept.
	WaitingTimeout time.Duration
	// SweepInterval is how often the background sweep for expired
	// waiting matches runs.
	SweepInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ratingCfg := rating.DefaultConfig()
	ratingCfg.BaseRating = getEnvAsInt("RATING_BASE", ratingCfg.BaseRating)
	ratingCfg.HumanKFactor = getEnvAsInt("RATING_K_FACTOR", ratingCfg.HumanKFactor)

	cfg := &Config{
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "matcharena"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8000),
		},
		Match: MatchConfig{
			MoveTimeout:    getEnvAsDuration("MATCH_MOVE_TIMEOUT", 30*time.Second),
			WaitingTimeout: getEnvAsDuration("MATCH_WAITING_TIMEOUT", 5*time.Minute),
			SweepInterval:  getEnvAsDuration("MATCH_SWEEP_INTERVAL", time.Minute),
		},
		Rating: ratingCfg,
	}

	return cfg, nil
}

// GetDSN returns the PostgreSQL DSN
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
