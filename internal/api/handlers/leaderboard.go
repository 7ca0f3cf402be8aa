package handlers

import (
	"context"
	"strconv"
	"strings"

	"matcharena/internal/api/middleware"
	"matcharena/internal/models"
	"matcharena/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LeaderboardHandler handles HTTP requests for the leaderboard
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
	validator   *validator.Validate
	postgres    Pinger
	redis       Pinger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboard *service.LeaderboardService, postgres, redis Pinger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		validator:   validator.New(),
		postgres:    postgres,
		redis:       redis,
	}
}

// Get handles GET /api/v1/leaderboard
func (h *LeaderboardHandler) Get(c *fiber.Ctx) error {
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	page, err := h.leaderboard.Leaderboard(c.Context(), offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:   "Failed to fetch leaderboard",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

// Search handles GET /api/v1/leaderboard/search/:player
func (h *LeaderboardHandler) Search(c *fiber.Ctx) error {
	player := c.Params("player")
	if player == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Player name is required",
		})
	}

	result, err := h.leaderboard.Search(c.Context(), player)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "Player not found",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// ReportMatch handles POST /api/v1/leaderboard/match: record a result
// against a named opponent, rating the reporter only.
func (h *LeaderboardHandler) ReportMatch(c *fiber.Ctx) error {
	return h.report(c, true)
}

// ReportAIMatch handles POST /api/v1/leaderboard/ai-match: record a result
// against an AI tier, rated against the base reference.
func (h *LeaderboardHandler) ReportAIMatch(c *fiber.Ctx) error {
	return h.report(c, false)
}

func (h *LeaderboardHandler) report(c *fiber.Ctx, withOpponent bool) error {
	var req models.ReportMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
	}

	req.Result = strings.ToLower(req.Result)
	req.Difficulty = strings.ToLower(req.Difficulty)
	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid data",
			Message: err.Error(),
		})
	}

	opponent := ""
	if withOpponent {
		opponent = req.Opponent
	}

	player := middleware.Player(c)
	record, err := h.leaderboard.ReportResult(c.Context(), player, opponent, req.Result, req.Difficulty)
	if err != nil {
		return serviceError(c, err, "Failed to save match result")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Match result recorded successfully",
		"player":  record,
	})
}

// HealthCheck handles GET /api/v1/health
func (h *LeaderboardHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.postgres.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: err.Error(),
		})
	}
	if err := h.redis.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	})
}
