package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MatchStatus is the lifecycle state of a match. The only legal forward
// transitions are waiting -> active and active -> complete|abandoned.
type MatchStatus string

const (
	StatusWaiting   MatchStatus = "waiting"
	StatusActive    MatchStatus = "active"
	StatusComplete  MatchStatus = "complete"
	StatusAbandoned MatchStatus = "abandoned"
)

// Cell is a board coordinate.
type Cell struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Move is one accepted move within a match.
type Move struct {
	Player string `json:"player"`
	Cell   Cell   `json:"move"`
}

// MoveList is the append-only move log, stored as a JSONB column.
type MoveList []Move

// Value implements driver.Valuer for JSONB storage.
func (m MoveList) Value() (driver.Value, error) {
	if m == nil {
		m = MoveList{}
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage.
func (m *MoveList) Scan(value interface{}) error {
	if value == nil {
		*m = MoveList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported move list column type %T", value)
	}
}

// Match represents one two-party match from queue entry to resolution.
type Match struct {
	ID           string      `gorm:"primaryKey;type:uuid" json:"id"`
	Initiator    string      `gorm:"index;not null" json:"initiator"`
	Responder    *string     `gorm:"index" json:"responder,omitempty"`
	Status       MatchStatus `gorm:"type:varchar(16);index;not null;default:'waiting'" json:"status"`
	Moves        MoveList    `gorm:"type:jsonb;not null;default:'[]'" json:"moves"`
	Winner       *string     `json:"winner,omitempty"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
	LastMoveTime *time.Time  `json:"last_move_time,omitempty"`
}

// TableName specifies the table name for GORM
func (Match) TableName() string {
	return "matches"
}

// IsParticipant reports whether player is the initiator or the responder.
func (m *Match) IsParticipant(player string) bool {
	if m.Initiator == player {
		return true
	}
	return m.Responder != nil && *m.Responder == player
}

// Opponent returns the other participant, or "" if the match has no
// responder yet or player is not a participant.
func (m *Match) Opponent(player string) string {
	if m.Responder == nil {
		return ""
	}
	switch player {
	case m.Initiator:
		return *m.Responder
	case *m.Responder:
		return m.Initiator
	}
	return ""
}

// CurrentTurn derives the player to move from the move log: the initiator
// moves first, and after that turns strictly alternate. The result is always
// recomputed from Moves so concurrent readers see a consistent answer.
func (m *Match) CurrentTurn() string {
	if len(m.Moves) == 0 || m.Moves[len(m.Moves)-1].Player != m.Initiator {
		return m.Initiator
	}
	if m.Responder != nil {
		return *m.Responder
	}
	return ""
}

// HasCell reports whether cell already appears in the move log.
func (m *Match) HasCell(cell Cell) bool {
	for _, mv := range m.Moves {
		if mv.Cell == cell {
			return true
		}
	}
	return false
}

// ActivityTime is the reference instant for timeout computation: the last
// accepted move or activation, falling back to creation.
func (m *Match) ActivityTime() time.Time {
	if m.LastMoveTime != nil && m.LastMoveTime.After(m.CreatedAt) {
		return *m.LastMoveTime
	}
	return m.CreatedAt
}
