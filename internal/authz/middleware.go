package authz

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/shelfwise/shelfwise/internal/db/models"
)

// LocalsUserKey is the fiber locals key the authentication middleware uses
// to hand the resolved user to the enforcement point.
const LocalsUserKey = "currentUser"

// CurrentUser returns the authenticated user stored in the request context.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(LocalsUserKey).(*models.User)
	if !ok || user == nil {
		return nil, false
	}

	return user, true
}

// RequirePermission is the enforcement point: fiber middleware that declares
// a protected route's required (action, resource) pair at registration time.
// A denial short-circuits the request with a 403 before the handler runs; an
// unauthenticated or unresolvable caller gets a 401.
func RequirePermission(service *Service, action Action, resource Resource) fiber.Handler {
	permission := PermissionName(action, resource)

	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated",
			})
		}

		allowed, err := service.Authorize(user.ID, action, resource)
		if errors.Is(err, ErrUserNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated",
			})
		}

		if err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Str("permission", permission).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal Server Error",
			})
		}

		if !allowed {
			log.Warn().Uint64("user_id", user.ID).Str("permission", permission).
				Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Unauthorized. Required permission: " + permission,
			})
		}

		return c.Next()
	}
}

// Requirement is one declared (action, resource) pair.
type Requirement struct {
	Action   Action
	Resource Resource
}

// RequireAnyPermission is RequirePermission for routes reachable through
// more than one capability: holding any listed pair is sufficient.
func RequireAnyPermission(service *Service, requirements ...Requirement) fiber.Handler {
	permissions := make([]string, 0, len(requirements))
	for _, req := range requirements {
		permissions = append(permissions, PermissionName(req.Action, req.Resource))
	}

	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated",
			})
		}

		allowed, err := service.HasAnyPermission(user.ID, permissions)
		if errors.Is(err, ErrUserNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthenticated",
			})
		}

		if err != nil {
			log.Error().Err(err).Uint64("user_id", user.ID).Strs("permissions", permissions).
				Msg("Failed to check permissions")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal Server Error",
			})
		}

		if !allowed {
			log.Warn().Uint64("user_id", user.ID).Strs("permissions", permissions).
				Msg("User lacks required permissions")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Unauthorized. Required permission: " + strings.Join(permissions, " or "),
			})
		}

		return c.Next()
	}
}
