package service

import (
	"context"
	"fmt"
	"strings"

	"matcharena/internal/models"
	"matcharena/internal/rating"
	"matcharena/internal/repository"
	"matcharena/internal/worker"
)

// LeaderboardService applies rating results to durable records and serves
// the ranked view. The Postgres upsert is the source of truth; the Redis
// view is refreshed through the mirror pool.
type LeaderboardService struct {
	ratings RatingStore
	view    *repository.RedisRepository
	pool    *worker.Pool
	calc    *rating.Calculator
}

// NewLeaderboardService creates a leaderboard service. view and pool may be
// nil, in which case results are only written to the durable store.
func NewLeaderboardService(ratings RatingStore, view *repository.RedisRepository, pool *worker.Pool, calc *rating.Calculator) *LeaderboardService {
	return &LeaderboardService{
		ratings: ratings,
		view:    view,
		pool:    pool,
		calc:    calc,
	}
}

// CurrentRating returns the player's rating, or the base rating when the
// player has no record yet.
func (s *LeaderboardService) CurrentRating(ctx context.Context, player string) (int, error) {
	record, err := s.ratings.GetRating(ctx, player)
	if err != nil {
		return 0, fmt.Errorf("looking up rating for %s: %w", player, err)
	}
	if record == nil {
		return s.calc.BaseRating(), nil
	}
	return record.Rating, nil
}

// ApplyResult upserts the player's record with the new rating and bumps the
// matching outcome counter, then schedules the view refresh.
func (s *LeaderboardService) ApplyResult(ctx context.Context, player string, newRating int, outcome rating.Outcome) (*models.RatingRecord, error) {
	record, err := s.ratings.ApplyResult(ctx, player, newRating, outcome)
	if err != nil {
		return nil, fmt.Errorf("applying result for %s: %w", player, err)
	}

	if s.pool != nil {
		// View refresh is best-effort; a dropped task only delays ranks.
		_ = s.pool.Submit(worker.MirrorTask{Player: player, Rating: newRating})
	}

	return record, nil
}

// ReportResult records an already-played result for one player against a
// named opponent or an AI tier. Only the reporting player's record changes;
// the opponent's current rating (or the base rating) is the reference.
func (s *LeaderboardService) ReportResult(ctx context.Context, player, opponent, result, difficulty string) (*models.RatingRecord, error) {
	outcome := rating.Outcome(strings.ToLower(result))
	if !outcome.Valid() {
		return nil, fmt.Errorf("%w: result must be win, loss or draw", ErrValidation)
	}

	current, err := s.CurrentRating(ctx, player)
	if err != nil {
		return nil, err
	}

	reference := s.calc.BaseRating()
	if opponent != "" {
		reference, err = s.CurrentRating(ctx, opponent)
		if err != nil {
			return nil, err
		}
	}

	next, err := s.calc.Compute(current, reference, outcome, difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.ApplyResult(ctx, player, next, outcome)
}

// Leaderboard returns a ranked page of players from the view.
func (s *LeaderboardService) Leaderboard(ctx context.Context, offset, limit int) (*models.LeaderboardResponse, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	players, err := s.view.TopPlayers(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard view: %w", err)
	}

	total, err := s.view.TotalPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting ranked players: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, models.LeaderboardEntry{
			Rank:   offset + i + 1,
			Player: p.Member.(string),
			Rating: int(p.Score),
		})
	}

	return &models.LeaderboardResponse{
		Data:   entries,
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}, nil
}

// Search returns a single player's rank and rating from the view.
func (s *LeaderboardService) Search(ctx context.Context, player string) (*models.SearchResponse, error) {
	rank, err := s.view.PlayerRank(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, player)
	}

	value, err := s.view.PlayerRating(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, player)
	}

	return &models.SearchResponse{
		GlobalRank: rank,
		Player:     player,
		Rating:     value,
	}, nil
}
