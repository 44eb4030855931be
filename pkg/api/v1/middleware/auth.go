package middleware

import (
	"strings"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/types"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

const actorKey = "actor"

// TokenVerifier turns a bearer token into the actor it was issued to
type TokenVerifier interface {
	Verify(token string) (workflow.Actor, error)
}

// Auth rejects requests without a valid bearer token and stores the actor for the handlers
func Auth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return unauthorized(c)
		}

		actor, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			return unauthorized(c)
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// RequireRole only lets actors holding one of roles through. It must run after Auth.
func RequireRole(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := Actor(c)
		if !ok {
			return unauthorized(c)
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(types.ErrorResponse{
			Error: "Not allowed to perform this action",
		})
	}
}

// Actor returns the authenticated actor of the request
func Actor(c *fiber.Ctx) (workflow.Actor, bool) {
	actor, ok := c.Locals(actorKey).(workflow.Actor)
	return actor, ok
}

func unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(types.ErrorResponse{
		Error: "Missing or invalid session token",
	})
}
