package service

import (
	"context"
	"fmt"
	"time"

	"matcharena/internal/config"
	"matcharena/internal/models"
	"matcharena/internal/rating"
)

// TimeoutResult reports the outcome of a timeout check.
type TimeoutResult struct {
	TimedOut bool
	Winner   string
	Loser    string
	Elapsed  time.Duration
}

// BoardState is a read-only projection of a match.
type BoardState struct {
	MatchID       string             `json:"match_id"`
	Moves         models.MoveList    `json:"moves"`
	CurrentPlayer string             `json:"current_player"`
	Status        models.MatchStatus `json:"status"`
	Winner        *string            `json:"winner"`
}

// LifecycleService owns every transition of an active match: move
// application, explicit finish, and request-triggered timeout forfeiture.
// Terminal transitions are claimed with a conditional update before any
// rating side effect runs, so they apply at most once per match.
type LifecycleService struct {
	matches     MatchStore
	leaderboard *LeaderboardService
	calc        *rating.Calculator
	cfg         config.MatchConfig
	now         func() time.Time
}

// NewLifecycleService creates a lifecycle service.
func NewLifecycleService(matches MatchStore, leaderboard *LeaderboardService, calc *rating.Calculator, cfg config.MatchConfig) *LifecycleService {
	return &LifecycleService{
		matches:     matches,
		leaderboard: leaderboard,
		calc:        calc,
		cfg:         cfg,
		now:         time.Now,
	}
}

// ApplyMove validates and appends one move, returning the updated move log.
// Turn order is not enforced; only cell occupancy is. The append lands only
// if the move log is unchanged since the read, so two concurrent
// submissions for the same cell have exactly one winner.
func (s *LifecycleService) ApplyMove(ctx context.Context, matchID, player string, cell models.Cell) (models.MoveList, error) {
	match, err := s.activeMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(player) {
		return nil, fmt.Errorf("%w: %s is not in this match", ErrValidation, player)
	}
	if match.HasCell(cell) {
		return nil, fmt.Errorf("%w: cell already taken", ErrConflict)
	}

	moves := append(append(models.MoveList{}, match.Moves...), models.Move{Player: player, Cell: cell})
	applied, err := s.matches.AppendMove(ctx, match.ID, moves, len(match.Moves), s.now())
	if err != nil {
		return nil, fmt.Errorf("appending move: %w", err)
	}
	if !applied {
		return nil, fmt.Errorf("%w: match changed, resubmit the move", ErrConflict)
	}

	return moves, nil
}

// Finish resolves an active match with an explicit winner and recomputes
// both ratings from the pre-update snapshot.
func (s *LifecycleService) Finish(ctx context.Context, matchID, winner string) (*models.Match, error) {
	match, err := s.activeMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(winner) {
		return nil, fmt.Errorf("%w: winner %s is not in this match", ErrValidation, winner)
	}

	loser := match.Opponent(winner)
	if err := s.resolve(ctx, match, winner, loser); err != nil {
		return nil, err
	}

	match.Status = models.StatusComplete
	match.Winner = &winner
	return match, nil
}

// CheckTimeout resolves the match against the requesting player when the
// time since the last activity exceeds the move timeout. The caller is the
// forfeiting side on purpose: clients invoke this endpoint to concede their
// own silence, and the server takes them at their word.
func (s *LifecycleService) CheckTimeout(ctx context.Context, matchID, player string) (*TimeoutResult, error) {
	match, err := s.activeMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(player) {
		return nil, fmt.Errorf("%w: %s is not in this match", ErrValidation, player)
	}

	elapsed := s.now().Sub(match.ActivityTime())
	if elapsed <= s.cfg.MoveTimeout {
		return &TimeoutResult{TimedOut: false, Elapsed: elapsed}, nil
	}

	winner := match.Opponent(player)
	if err := s.resolve(ctx, match, winner, player); err != nil {
		return nil, err
	}

	return &TimeoutResult{
		TimedOut: true,
		Winner:   winner,
		Loser:    player,
		Elapsed:  elapsed,
	}, nil
}

// BoardState returns the read-only projection of a match, deriving the
// player to move from the move log.
func (s *LifecycleService) BoardState(ctx context.Context, matchID string) (*BoardState, error) {
	match, err := s.matches.FindMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading match %s: %w", matchID, err)
	}
	if match == nil {
		return nil, fmt.Errorf("%w: match %s", ErrInvalidState, matchID)
	}

	return &BoardState{
		MatchID:       match.ID,
		Moves:         match.Moves,
		CurrentPlayer: match.CurrentTurn(),
		Status:        match.Status,
		Winner:        match.Winner,
	}, nil
}

// resolve claims the active -> complete transition and, if this call won it,
// applies human-vs-human rating updates for both sides. Both new ratings
// come from the same pre-update snapshot, not chained.
func (s *LifecycleService) resolve(ctx context.Context, match *models.Match, winner, loser string) error {
	winnerRating, err := s.leaderboard.CurrentRating(ctx, winner)
	if err != nil {
		return err
	}
	loserRating, err := s.leaderboard.CurrentRating(ctx, loser)
	if err != nil {
		return err
	}

	finalized, err := s.matches.FinalizeMatch(ctx, match.ID, models.StatusComplete, &winner)
	if err != nil {
		return fmt.Errorf("finalizing match %s: %w", match.ID, err)
	}
	if !finalized {
		return fmt.Errorf("%w: match %s already resolved", ErrInvalidState, match.ID)
	}

	newWinner, err := s.calc.Compute(winnerRating, loserRating, rating.OutcomeWin, rating.OpponentHuman)
	if err != nil {
		return err
	}
	newLoser, err := s.calc.Compute(loserRating, winnerRating, rating.OutcomeLoss, rating.OpponentHuman)
	if err != nil {
		return err
	}

	if _, err := s.leaderboard.ApplyResult(ctx, winner, newWinner, rating.OutcomeWin); err != nil {
		return err
	}
	if _, err := s.leaderboard.ApplyResult(ctx, loser, newLoser, rating.OutcomeLoss); err != nil {
		return err
	}

	return nil
}

func (s *LifecycleService) activeMatch(ctx context.Context, matchID string) (*models.Match, error) {
	if matchID == "" {
		return nil, fmt.Errorf("%w: match id required", ErrValidation)
	}

	match, err := s.matches.FindMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading match %s: %w", matchID, err)
	}
	if match == nil || match.Status != models.StatusActive {
		return nil, fmt.Errorf("%w: match %s", ErrInvalidState, matchID)
	}
	return match, nil
}
