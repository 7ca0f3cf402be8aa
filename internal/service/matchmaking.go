package service

import (
	"context"
	"fmt"
	"time"

	"matcharena/internal/config"
	"matcharena/internal/models"

	"github.com/google/uuid"
)

// PresenceState describes a player's matchmaking presence.
type PresenceState string

const (
	PresenceActive  PresenceState = "active"
	PresenceWaiting PresenceState = "waiting"
	PresenceIdle    PresenceState = "idle"
)

// MatchmakingResult is the outcome of a queue entry: either an activated
// match or a new waiting entry.
type MatchmakingResult struct {
	Activated bool
	MatchID   string
	Opponent  string
}

// StatusResult is a player's current matchmaking presence.
type StatusResult struct {
	State    PresenceState
	MatchID  string
	Opponent string
}

// MatchmakingService pairs players. It only ever creates waiting matches or
// activates them; all later transitions belong to the lifecycle service.
type MatchmakingService struct {
	matches MatchStore
	cfg     config.MatchConfig
	now     func() time.Time
}

// NewMatchmakingService creates a matchmaking service.
func NewMatchmakingService(matches MatchStore, cfg config.MatchConfig) *MatchmakingService {
	return &MatchmakingService{
		matches: matches,
		cfg:     cfg,
		now:     time.Now,
	}
}

// RequestMatch enters the player into matchmaking. It sweeps expired waiting
// matches, abandons the player's active matches, then claims the oldest
// waiting match from another player or creates a fresh waiting entry.
func (s *MatchmakingService) RequestMatch(ctx context.Context, player string) (*MatchmakingResult, error) {
	if player == "" {
		return nil, fmt.Errorf("%w: player identifier required", ErrValidation)
	}

	now := s.now()

	if _, err := s.matches.DeleteExpiredWaiting(ctx, now.Add(-s.cfg.WaitingTimeout)); err != nil {
		return nil, fmt.Errorf("sweeping expired waiting matches: %w", err)
	}

	if err := s.abandonActiveMatches(ctx, player); err != nil {
		return nil, err
	}

	pending, err := s.matches.OldestWaiting(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("searching waiting matches: %w", err)
	}

	if pending != nil {
		claimed, err := s.matches.ActivateMatch(ctx, pending.ID, player, now)
		if err != nil {
			return nil, fmt.Errorf("activating match %s: %w", pending.ID, err)
		}
		if claimed {
			return &MatchmakingResult{
				Activated: true,
				MatchID:   pending.ID,
				Opponent:  pending.Initiator,
			}, nil
		}
		// Another player claimed the entry first; fall through and queue.
	}

	match := &models.Match{
		ID:        uuid.NewString(),
		Initiator: player,
		Status:    models.StatusWaiting,
		Moves:     models.MoveList{},
		CreatedAt: now,
	}
	if err := s.matches.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("creating waiting match: %w", err)
	}

	// Keep exactly the newest queue entry per player.
	if err := s.matches.DeleteOtherWaiting(ctx, player, match.ID); err != nil {
		return nil, fmt.Errorf("pruning duplicate waiting matches: %w", err)
	}

	return &MatchmakingResult{Activated: false}, nil
}

// abandonActiveMatches force-abandons every active match the player is part
// of. Entering the queue therefore always cancels prior games, even live
// ones; the product treats re-queuing as walking away. Kept as one function
// so the policy has a single call site.
func (s *MatchmakingService) abandonActiveMatches(ctx context.Context, player string) error {
	if _, err := s.matches.AbandonActiveFor(ctx, player); err != nil {
		return fmt.Errorf("abandoning active matches: %w", err)
	}
	return nil
}

// Cancel removes the player's waiting match. Fails with ErrNotFound when the
// player has no open queue entry.
func (s *MatchmakingService) Cancel(ctx context.Context, player string) error {
	if player == "" {
		return fmt.Errorf("%w: player identifier required", ErrValidation)
	}

	removed, err := s.matches.DeleteWaitingFor(ctx, player)
	if err != nil {
		return fmt.Errorf("canceling matchmaking: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: no matchmaking in progress", ErrNotFound)
	}
	return nil
}

// Status reports whether the player is in an active match, still waiting,
// or idle.
func (s *MatchmakingService) Status(ctx context.Context, player string) (*StatusResult, error) {
	if player == "" {
		return nil, fmt.Errorf("%w: player identifier required", ErrValidation)
	}

	match, err := s.matches.FindOpenFor(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("checking matchmaking status: %w", err)
	}

	switch {
	case match == nil:
		return &StatusResult{State: PresenceIdle}, nil
	case match.Status == models.StatusActive:
		return &StatusResult{
			State:    PresenceActive,
			MatchID:  match.ID,
			Opponent: match.Opponent(player),
		}, nil
	default:
		return &StatusResult{State: PresenceWaiting}, nil
	}
}
