package handlers

import (
	"errors"

	"matcharena/internal/api/middleware"
	"matcharena/internal/models"
	"matcharena/internal/service"

	"github.com/gofiber/fiber/v2"
)

// MatchmakingHandler handles HTTP requests for the matchmaking queue
type MatchmakingHandler struct {
	matchmaking *service.MatchmakingService
}

// NewMatchmakingHandler creates a new matchmaking handler
func NewMatchmakingHandler(matchmaking *service.MatchmakingService) *MatchmakingHandler {
	return &MatchmakingHandler{
		matchmaking: matchmaking,
	}
}

// Request handles POST /api/v1/matchmaking.
// 200 with match details when an opponent was found, 202 while searching.
func (h *MatchmakingHandler) Request(c *fiber.Ctx) error {
	player := middleware.Player(c)

	result, err := h.matchmaking.RequestMatch(c.Context(), player)
	if err != nil {
		return serviceError(c, err, "Failed to initiate matchmaking")
	}

	if result.Activated {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":  "Opponent found!",
			"match_id": result.MatchID,
			"opponent": result.Opponent,
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Searching for an opponent...",
	})
}

// Status handles GET /api/v1/matchmaking/status
func (h *MatchmakingHandler) Status(c *fiber.Ctx) error {
	player := middleware.Player(c)

	status, err := h.matchmaking.Status(c.Context(), player)
	if err != nil {
		return serviceError(c, err, "Failed to check matchmaking status")
	}

	switch status.State {
	case service.PresenceActive:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message":  "Match found",
			"match_id": status.MatchID,
			"opponent": status.Opponent,
		})
	case service.PresenceWaiting:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Still searching for an opponent...",
		})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "No matchmaking in progress",
		})
	}
}

// Cancel handles POST /api/v1/matchmaking/cancel
func (h *MatchmakingHandler) Cancel(c *fiber.Ctx) error {
	player := middleware.Player(c)

	if err := h.matchmaking.Cancel(c.Context(), player); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: "No matchmaking in progress to cancel",
			})
		}
		return serviceError(c, err, "Failed to cancel matchmaking")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Matchmaking canceled successfully",
	})
}

// serviceError maps the service error taxonomy onto HTTP statuses:
// validation, state and conflict errors are the caller's problem (400),
// anything else is a store failure (500).
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   fallback,
			Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   fallback,
			Message: err.Error(),
		})
	}
}
