package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	// RankingKey is the Redis sorted set holding player ratings.
	RankingKey = "leaderboard:ratings"

	// RatingHashKey is the Redis hash holding the display rating per player.
	RatingHashKey = "leaderboard:display"

	// VersionKey tracks the leaderboard version so pollers can detect change cheaply.
	VersionKey = "leaderboard:version"
)

// RedisRepository serves the leaderboard read view. Postgres stays the
// system of record; this view is refreshed asynchronously after each rating
// update.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{
		client: client,
	}
}

// UpdateRating writes a player's rating into the sorted set and hash and
// bumps the view version, all in one pipeline.
func (r *RedisRepository) UpdateRating(ctx context.Context, player string, ratingValue int) error {
	pipe := r.client.Pipeline()

	pipe.ZAdd(ctx, RankingKey, redis.Z{
		Score:  float64(ratingValue),
		Member: player,
	})
	pipe.HSet(ctx, RatingHashKey, player, ratingValue)
	pipe.Incr(ctx, VersionKey)

	_, err := pipe.Exec(ctx)
	return err
}

// PlayerRating retrieves a player's rating from the view hash.
func (r *RedisRepository) PlayerRating(ctx context.Context, player string) (int, error) {
	ratingStr, err := r.client.HGet(ctx, RatingHashKey, player).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("player not found")
		}
		return 0, err
	}

	value, err := strconv.Atoi(ratingStr)
	if err != nil {
		return 0, fmt.Errorf("invalid rating format: %w", err)
	}

	return value, nil
}

// PlayerRank returns the player's 1-indexed rank, higher ratings first.
func (r *RedisRepository) PlayerRank(ctx context.Context, player string) (int, error) {
	rank, err := r.client.ZRevRank(ctx, RankingKey, player).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("player not found")
		}
		return 0, err
	}
	return int(rank) + 1, nil
}

// TopPlayers returns a page of the leaderboard ordered by rating descending.
func (r *RedisRepository) TopPlayers(ctx context.Context, offset, limit int) ([]redis.Z, error) {
	start := int64(offset)
	stop := int64(offset + limit - 1)
	return r.client.ZRevRangeWithScores(ctx, RankingKey, start, stop).Result()
}

// TotalPlayers returns the number of ranked players.
func (r *RedisRepository) TotalPlayers(ctx context.Context) (int64, error) {
	return r.client.ZCard(ctx, RankingKey).Result()
}

// Version returns the current leaderboard view version.
func (r *RedisRepository) Version(ctx context.Context) (int64, error) {
	version, err := r.client.Get(ctx, VersionKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// BulkLoad replaces ratings for many players in one pipeline (seeding and
// recovery from Postgres).
func (r *RedisRepository) BulkLoad(ctx context.Context, ratings map[string]int) error {
	pipe := r.client.Pipeline()

	for player, value := range ratings {
		pipe.ZAdd(ctx, RankingKey, redis.Z{
			Score:  float64(value),
			Member: player,
		})
		pipe.HSet(ctx, RatingHashKey, player, value)
	}
	pipe.Incr(ctx, VersionKey)

	_, err := pipe.Exec(ctx)
	return err
}

// Ping checks if Redis is reachable
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
