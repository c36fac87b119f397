package middleware

import (
	"slices"
	"strings"

	"apexify/internal/logging"
	"apexify/internal/models"
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const actorKey = "actor"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(parts[1])
		if err == nil {
			var actor models.Actor
			if actor, err = services.ActorFromClaims(claims); err == nil {
				c.Locals(actorKey, actor)
				c.Locals("username", claims["username"])

				log := logging.FromContext(c.UserContext()).With(zap.String("user_id", actor.ID))
				c.SetUserContext(logging.ContextWithLogger(c.UserContext(), log))
				return c.Next()
			}
		}

		logging.FromContext(c.UserContext()).Debug("jwt_rejected", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid or expired token",
			"error":   err.Error(),
		})
	}
}

// RequireRoles rejects callers whose role is not listed. It must run after AuthRequired.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		if !slices.Contains(roles, actor.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Not authorized to access this route",
				"error":   "role " + string(actor.Role) + " is not allowed",
			})
		}
		return c.Next()
	}
}

// ActorFrom returns the authenticated caller stored by AuthRequired.
func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(actorKey).(models.Actor)
	return actor, ok
}
