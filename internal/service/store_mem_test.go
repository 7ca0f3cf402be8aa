package service

import (
	"context"
	"sync"
	"time"

	"matcharena/internal/models"
	"matcharena/internal/rating"
)

// memMatchStore is an in-memory MatchStore with the same conditional-update
// semantics as the Postgres implementation.
type memMatchStore struct {
	mu      sync.Mutex
	matches map[string]*models.Match
}

func newMemMatchStore() *memMatchStore {
	return &memMatchStore{matches: make(map[string]*models.Match)}
}

func cloneMatch(m *models.Match) *models.Match {
	cp := *m
	cp.Moves = append(models.MoveList{}, m.Moves...)
	return &cp
}

func (s *memMatchStore) FindMatch(_ context.Context, id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	return cloneMatch(m), nil
}

func (s *memMatchStore) CreateMatch(_ context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (s *memMatchStore) OldestWaiting(_ context.Context, excludePlayer string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *models.Match
	for _, m := range s.matches {
		if m.Status != models.StatusWaiting || m.Responder != nil || m.Initiator == excludePlayer {
			continue
		}
		if oldest == nil || m.CreatedAt.Before(oldest.CreatedAt) {
			oldest = m
		}
	}
	if oldest == nil {
		return nil, nil
	}
	return cloneMatch(oldest), nil
}

func (s *memMatchStore) ActivateMatch(_ context.Context, id, responder string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != models.StatusWaiting || m.Responder != nil {
		return false, nil
	}
	m.Responder = &responder
	m.Status = models.StatusActive
	m.LastMoveTime = &now
	return true, nil
}

func (s *memMatchStore) AppendMove(_ context.Context, id string, moves models.MoveList, priorMoves int, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != models.StatusActive || len(m.Moves) != priorMoves {
		return false, nil
	}
	m.Moves = append(models.MoveList{}, moves...)
	m.LastMoveTime = &now
	return true, nil
}

func (s *memMatchStore) FinalizeMatch(_ context.Context, id string, status models.MatchStatus, winner *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != models.StatusActive {
		return false, nil
	}
	m.Status = status
	m.Winner = winner
	return true, nil
}

func (s *memMatchStore) DeleteExpiredWaiting(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, m := range s.matches {
		if m.Status == models.StatusWaiting && m.CreatedAt.Before(cutoff) {
			delete(s.matches, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memMatchStore) AbandonActiveFor(_ context.Context, player string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, m := range s.matches {
		if m.Status == models.StatusActive && m.IsParticipant(player) {
			m.Status = models.StatusAbandoned
			changed++
		}
	}
	return changed, nil
}

func (s *memMatchStore) DeleteOtherWaiting(_ context.Context, initiator, keepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.matches {
		if id != keepID && m.Initiator == initiator && m.Status == models.StatusWaiting {
			delete(s.matches, id)
		}
	}
	return nil
}

func (s *memMatchStore) DeleteWaitingFor(_ context.Context, initiator string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for id, m := range s.matches {
		if m.Initiator == initiator && m.Responder == nil && m.Status == models.StatusWaiting {
			delete(s.matches, id)
			removed = true
		}
	}
	return removed, nil
}

func (s *memMatchStore) FindOpenFor(_ context.Context, player string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if (m.Status == models.StatusWaiting || m.Status == models.StatusActive) && m.IsParticipant(player) {
			return cloneMatch(m), nil
		}
	}
	return nil, nil
}

// count returns how many stored matches satisfy pred.
func (s *memMatchStore) count(pred func(*models.Match) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if pred(m) {
			n++
		}
	}
	return n
}

// memRatingStore is an in-memory RatingStore with upsert-and-increment
// semantics.
type memRatingStore struct {
	mu      sync.Mutex
	records map[string]*models.RatingRecord
}

func newMemRatingStore() *memRatingStore {
	return &memRatingStore{records: make(map[string]*models.RatingRecord)}
}

func (s *memRatingStore) ApplyResult(_ context.Context, player string, newRating int, outcome rating.Outcome) (*models.RatingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[player]
	if !ok {
		record = &models.RatingRecord{Player: player}
		s.records[player] = record
	}
	record.Rating = newRating
	switch outcome {
	case rating.OutcomeWin:
		record.Wins++
	case rating.OutcomeLoss:
		record.Losses++
	case rating.OutcomeDraw:
		record.Draws++
	}
	cp := *record
	return &cp, nil
}

func (s *memRatingStore) GetRating(_ context.Context, player string) (*models.RatingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[player]
	if !ok {
		return nil, nil
	}
	cp := *record
	return &cp, nil
}

// seed installs a record directly, bypassing outcome counting.
func (s *memRatingStore) seed(player string, ratingValue int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[player] = &models.RatingRecord{Player: player, Rating: ratingValue}
}
