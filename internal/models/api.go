package models

// MoveRequest is the payload for submitting a move.
type MoveRequest struct {
	MatchID string `json:"match_id" validate:"required,uuid4"`
	Row     int    `json:"row" validate:"min=0,max=2"`
	Column  int    `json:"column" validate:"min=0,max=2"`
}

// FinishRequest is the payload for resolving a match with an explicit winner.
type FinishRequest struct {
	MatchID string `json:"match_id" validate:"required,uuid4"`
	Winner  string `json:"winner" validate:"required"`
}

// TimeoutRequest is the payload for a request-triggered timeout check.
type TimeoutRequest struct {
	MatchID string `json:"match_id" validate:"required,uuid4"`
}

// ReportMatchRequest is the payload for recording an already-played result
// against a named opponent or an AI tier.
type ReportMatchRequest struct {
	Opponent   string `json:"opponent,omitempty"`
	Result     string `json:"result" validate:"required,oneof=win loss draw"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard impossible"`
}

// LeaderboardEntry is a single row of the ranked leaderboard view.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Rating int    `json:"rating"`
}

// LeaderboardResponse is the paginated leaderboard payload.
type LeaderboardResponse struct {
	Data   []LeaderboardEntry `json:"data"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
	Total  int64              `json:"total"`
}

// SearchResponse is the payload for a single player rank lookup.
type SearchResponse struct {
	GlobalRank int    `json:"global_rank"`
	Player     string `json:"player"`
	Rating     int    `json:"rating"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
