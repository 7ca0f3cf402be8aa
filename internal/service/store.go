package service

import (
	"context"
	"time"

	"matcharena/internal/models"
	"matcharena/internal/rating"
)

// MatchStore is the narrow persistence surface the orchestrator needs.
// Implemented by repository.PostgresRepository; every mutating operation is
// expected to be a single atomic conditional update against the latest
// state. "Returns (nil, nil)" lookups signal absence without an error.
type MatchStore interface {
	FindMatch(ctx context.Context, id string) (*models.Match, error)
	CreateMatch(ctx context.Context, match *models.Match) error
	OldestWaiting(ctx context.Context, excludePlayer string) (*models.Match, error)
	ActivateMatch(ctx context.Context, id, responder string, now time.Time) (bool, error)
	AppendMove(ctx context.Context, id string, moves models.MoveList, priorMoves int, now time.Time) (bool, error)
	FinalizeMatch(ctx context.Context, id string, status models.MatchStatus, winner *string) (bool, error)
	DeleteExpiredWaiting(ctx context.Context, cutoff time.Time) (int64, error)
	AbandonActiveFor(ctx context.Context, player string) (int64, error)
	DeleteOtherWaiting(ctx context.Context, initiator, keepID string) error
	DeleteWaitingFor(ctx context.Context, initiator string) (bool, error)
	FindOpenFor(ctx context.Context, player string) (*models.Match, error)
}

// RatingStore is the persistence surface for rating records. ApplyResult
// must upsert and increment atomically per record.
type RatingStore interface {
	ApplyResult(ctx context.Context, player string, newRating int, outcome rating.Outcome) (*models.RatingRecord, error)
	GetRating(ctx context.Context, player string) (*models.RatingRecord, error)
}
