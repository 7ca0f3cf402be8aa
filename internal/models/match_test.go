package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestCurrentTurnAlternates(t *testing.T) {
	m := &Match{
		Initiator: "ada",
		Responder: strptr("bob"),
		Status:    StatusActive,
	}

	// Initiator opens, then turns alternate with every accepted move.
	turns := []string{"ada", "bob", "ada", "bob"}
	for i, want := range turns {
		assert.Equal(t, want, m.CurrentTurn(), "after %d moves", i)
		m.Moves = append(m.Moves, Move{Player: want, Cell: Cell{Row: i / 3, Column: i % 3}})
	}
}

func TestCurrentTurnWithoutResponder(t *testing.T) {
	m := &Match{Initiator: "ada", Status: StatusWaiting}
	assert.Equal(t, "ada", m.CurrentTurn())
}

func TestHasCell(t *testing.T) {
	m := &Match{
		Initiator: "ada",
		Responder: strptr("bob"),
		Moves: MoveList{
			{Player: "ada", Cell: Cell{Row: 1, Column: 1}},
			{Player: "bob", Cell: Cell{Row: 0, Column: 2}},
		},
	}

	assert.True(t, m.HasCell(Cell{Row: 1, Column: 1}))
	assert.True(t, m.HasCell(Cell{Row: 0, Column: 2}))
	assert.False(t, m.HasCell(Cell{Row: 2, Column: 0}))
}

func TestOpponent(t *testing.T) {
	m := &Match{Initiator: "ada", Responder: strptr("bob")}

	assert.Equal(t, "bob", m.Opponent("ada"))
	assert.Equal(t, "ada", m.Opponent("bob"))
	assert.Equal(t, "", m.Opponent("carol"))

	waiting := &Match{Initiator: "ada"}
	assert.Equal(t, "", waiting.Opponent("ada"))
}

func TestActivityTime(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	moved := created.Add(45 * time.Second)

	m := &Match{CreatedAt: created}
	assert.Equal(t, created, m.ActivityTime())

	m.LastMoveTime = &moved
	assert.Equal(t, moved, m.ActivityTime())
}
