package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// PlayerIDKey is the locals key holding the authenticated player identifier.
const PlayerIDKey = "player_id"

// PlayerIdentity extracts the player identifier the identity provider
// attached at the gateway. The core treats it as an opaque string; requests
// without it never reach a handler.
func PlayerIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		player := c.Get("X-Player-ID")
		if player == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Player-ID header: requests must carry gateway auth context",
			})
		}

		c.Locals(PlayerIDKey, player)
		return c.Next()
	}
}

// Player returns the authenticated player identifier from the request.
func Player(c *fiber.Ctx) string {
	player, _ := c.Locals(PlayerIDKey).(string)
	return player
}
