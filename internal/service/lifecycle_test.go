package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"matcharena/internal/models"
	"matcharena/internal/rating"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lifecycleFixture struct {
	matches *memMatchStore
	ratings *memRatingStore
	board   *LeaderboardService
	svc     *LifecycleService
}

func newLifecycleFixture() *lifecycleFixture {
	matches := newMemMatchStore()
	ratings := newMemRatingStore()
	calc := rating.NewCalculator(rating.DefaultConfig())
	board := NewLeaderboardService(ratings, nil, nil, calc)
	svc := NewLifecycleService(matches, board, calc, testMatchConfig())
	return &lifecycleFixture{matches: matches, ratings: ratings, board: board, svc: svc}
}

// activeMatch installs an active ada-vs-bob match and returns its id.
func (f *lifecycleFixture) activeMatch(t *testing.T, createdAt time.Time) string {
	t.Helper()
	responder := "bob"
	m := &models.Match{
		ID:           uuid.NewString(),
		Initiator:    "ada",
		Responder:    &responder,
		Status:       models.StatusActive,
		Moves:        models.MoveList{},
		CreatedAt:    createdAt,
		LastMoveTime: &createdAt,
	}
	require.NoError(t, f.matches.CreateMatch(context.Background(), m))
	return m.ID
}

func TestApplyMoveAppendsAndAlternatesTurn(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())

	state, err := f.svc.BoardState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada", state.CurrentPlayer)

	moves, err := f.svc.ApplyMove(ctx, id, "ada", models.Cell{Row: 1, Column: 1})
	require.NoError(t, err)
	assert.Len(t, moves, 1)

	state, err = f.svc.BoardState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bob", state.CurrentPlayer)

	_, err = f.svc.ApplyMove(ctx, id, "bob", models.Cell{Row: 0, Column: 0})
	require.NoError(t, err)

	state, err = f.svc.BoardState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ada", state.CurrentPlayer)
	assert.Len(t, state.Moves, 2)
}

func TestApplyMoveRejectsTakenCell(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())

	_, err := f.svc.ApplyMove(ctx, id, "ada", models.Cell{Row: 1, Column: 1})
	require.NoError(t, err)

	_, err = f.svc.ApplyMove(ctx, id, "bob", models.Cell{Row: 1, Column: 1})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApplyMoveRejectsOutsiders(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())

	_, err := f.svc.ApplyMove(ctx, id, "mallory", models.Cell{Row: 0, Column: 0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyMoveRequiresActiveMatch(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	_, err := f.svc.ApplyMove(ctx, uuid.NewString(), "ada", models.Cell{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApplyMoveConcurrentSameCellHasOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())
	cell := models.Cell{Row: 2, Column: 2}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, player := range []string{"ada", "bob"} {
		wg.Add(1)
		go func(i int, player string) {
			defer wg.Done()
			_, errs[i] = f.svc.ApplyMove(ctx, id, player, cell)
		}(i, player)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrConflict)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one submission lands")

	match, err := f.matches.FindMatch(ctx, id)
	require.NoError(t, err)
	assert.Len(t, match.Moves, 1)
}

func TestApplyMoveNeverDuplicatesCells(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())

	cells := []models.Cell{
		{Row: 0, Column: 0}, {Row: 0, Column: 1}, {Row: 0, Column: 2},
		{Row: 1, Column: 0}, {Row: 1, Column: 1},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			player := "ada"
			if i%2 == 1 {
				player = "bob"
			}
			// Conflicts are expected; the invariant is on the stored log.
			_, _ = f.svc.ApplyMove(ctx, id, player, cells[i%len(cells)])
		}(i)
	}
	wg.Wait()

	match, err := f.matches.FindMatch(ctx, id)
	require.NoError(t, err)

	seen := make(map[models.Cell]bool)
	for _, mv := range match.Moves {
		assert.False(t, seen[mv.Cell], "cell %v recorded twice", mv.Cell)
		seen[mv.Cell] = true
	}
}

func TestFinishRatesBothSidesFromSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())
	f.ratings.seed("ada", 1300)
	f.ratings.seed("bob", 1100)

	match, err := f.svc.Finish(ctx, id, "ada")
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, match.Status)
	require.NotNil(t, match.Winner)
	assert.Equal(t, "ada", *match.Winner)

	ada, err := f.ratings.GetRating(ctx, "ada")
	require.NoError(t, err)
	bob, err := f.ratings.GetRating(ctx, "bob")
	require.NoError(t, err)

	// Both sides are computed against the other's pre-update rating.
	assert.Equal(t, 1353, ada.Rating)
	assert.Equal(t, 1047, bob.Rating)
	assert.Equal(t, 1, ada.Wins)
	assert.Equal(t, 1, bob.Losses)
}

func TestFinishCreatesRecordsLazily(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())

	_, err := f.svc.Finish(ctx, id, "bob")
	require.NoError(t, err)

	bob, err := f.ratings.GetRating(ctx, "bob")
	require.NoError(t, err)
	ada, err := f.ratings.GetRating(ctx, "ada")
	require.NoError(t, err)

	// Evenly matched at the base rating, K=220.
	assert.Equal(t, 1310, bob.Rating)
	assert.Equal(t, 1090, ada.Rating)
}

func TestFinishTwiceAppliesRatingsOnce(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())

	_, err := f.svc.Finish(ctx, id, "ada")
	require.NoError(t, err)

	_, err = f.svc.Finish(ctx, id, "ada")
	assert.ErrorIs(t, err, ErrInvalidState)

	ada, err := f.ratings.GetRating(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 1310, ada.Rating)
	assert.Equal(t, 1, ada.Wins)
}

func TestFinishRejectsNonParticipantWinner(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()
	id := f.activeMatch(t, time.Now())

	_, err := f.svc.Finish(ctx, id, "mallory")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckTimeoutForfeitsTheCaller(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	now := time.Now()
	id := f.activeMatch(t, now.Add(-31*time.Second))
	f.svc.now = func() time.Time { return now }

	result, err := f.svc.CheckTimeout(ctx, id, "bob")
	require.NoError(t, err)
	require.True(t, result.TimedOut)
	assert.Equal(t, "ada", result.Winner)
	assert.Equal(t, "bob", result.Loser)
	assert.Equal(t, 31*time.Second, result.Elapsed)

	match, err := f.matches.FindMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusComplete, match.Status)
	require.NotNil(t, match.Winner)
	assert.Equal(t, "ada", *match.Winner)

	ada, err := f.ratings.GetRating(ctx, "ada")
	require.NoError(t, err)
	bob, err := f.ratings.GetRating(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1310, ada.Rating)
	assert.Equal(t, 1090, bob.Rating)
}

func TestCheckTimeoutBelowThresholdIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	now := time.Now()
	id := f.activeMatch(t, now.Add(-29*time.Second))
	f.svc.now = func() time.Time { return now }

	result, err := f.svc.CheckTimeout(ctx, id, "bob")
	require.NoError(t, err)
	assert.False(t, result.TimedOut)
	assert.Equal(t, 29*time.Second, result.Elapsed)

	match, err := f.matches.FindMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, match.Status)

	bob, err := f.ratings.GetRating(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, bob)
}

func TestCheckTimeoutExactThresholdIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	now := time.Now()
	id := f.activeMatch(t, now.Add(-30*time.Second))
	f.svc.now = func() time.Time { return now }

	result, err := f.svc.CheckTimeout(ctx, id, "ada")
	require.NoError(t, err)
	assert.False(t, result.TimedOut)
}

func TestCheckTimeoutMeasuresFromLastMove(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	now := time.Now()
	id := f.activeMatch(t, now.Add(-5*time.Minute))
	f.svc.now = func() time.Time { return now.Add(-40 * time.Second) }

	_, err := f.svc.ApplyMove(ctx, id, "ada", models.Cell{Row: 1, Column: 1})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return now }
	result, err := f.svc.CheckTimeout(ctx, id, "bob")
	require.NoError(t, err)
	require.True(t, result.TimedOut)
	assert.Equal(t, 40*time.Second, result.Elapsed)
}

func TestCheckTimeoutAfterCompletionFails(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture()

	now := time.Now()
	id := f.activeMatch(t, now.Add(-31*time.Second))
	f.svc.now = func() time.Time { return now }

	_, err := f.svc.CheckTimeout(ctx, id, "bob")
	require.NoError(t, err)

	_, err = f.svc.CheckTimeout(ctx, id, "bob")
	assert.ErrorIs(t, err, ErrInvalidState)

	bob, err := f.ratings.GetRating(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bob.Losses)
}

func TestBoardStateMissingMatch(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.svc.BoardState(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrInvalidState)
}
