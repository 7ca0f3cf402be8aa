package handlers

import (
	"matcharena/internal/api/middleware"
	"matcharena/internal/models"
	"matcharena/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MatchHandler handles HTTP requests for live matches
type MatchHandler struct {
	lifecycle *service.LifecycleService
	validator *validator.Validate
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(lifecycle *service.LifecycleService) *MatchHandler {
	return &MatchHandler{
		lifecycle: lifecycle,
		validator: validator.New(),
	}
}

// Move handles POST /api/v1/match/move
func (h *MatchHandler) Move(c *fiber.Ctx) error {
	var req models.MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
	}

	player := middleware.Player(c)
	cell := models.Cell{Row: req.Row, Column: req.Column}

	moves, err := h.lifecycle.ApplyMove(c.Context(), req.MatchID, player, cell)
	if err != nil {
		return serviceError(c, err, "Failed to sync move")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Move synchronized",
		"moves":   moves,
	})
}

// Finish handles POST /api/v1/match/finish
func (h *MatchHandler) Finish(c *fiber.Ctx) error {
	var req models.FinishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
	}

	match, err := h.lifecycle.Finish(c.Context(), req.MatchID, req.Winner)
	if err != nil {
		return serviceError(c, err, "Failed to finish match")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Match finished successfully",
		"match":   match,
	})
}

// Timeout handles POST /api/v1/match/timeout. The requesting player is the
// forfeiting side when the threshold is exceeded; clients call this to
// concede their own inactivity.
func (h *MatchHandler) Timeout(c *fiber.Ctx) error {
	var req models.TimeoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
	}

	player := middleware.Player(c)

	result, err := h.lifecycle.CheckTimeout(c.Context(), req.MatchID, player)
	if err != nil {
		return serviceError(c, err, "Failed to check timeout")
	}

	if result.TimedOut {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":    "Timeout! Match completed.",
			"winner":     result.Winner,
			"loser":      result.Loser,
			"elapsed_ms": result.Elapsed.Milliseconds(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    "No timeout detected",
		"elapsed_ms": result.Elapsed.Milliseconds(),
	})
}

// State handles GET /api/v1/match/state
func (h *MatchHandler) State(c *fiber.Ctx) error {
	matchID := c.Query("match_id")
	if matchID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Match ID is required",
		})
	}

	state, err := h.lifecycle.BoardState(c.Context(), matchID)
	if err != nil {
		return serviceError(c, err, "Failed to retrieve match state")
	}

	return c.Status(fiber.StatusOK).JSON(state)
}
