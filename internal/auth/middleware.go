package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/shelfwise/shelfwise/internal/authz"
)

// LocalsTokenKey is the fiber locals key holding the raw bearer token the
// request was authenticated with, so logout can revoke it.
const LocalsTokenKey = "authToken"

// Middleware returns fiber middleware that authenticates requests carrying an
// "Authorization: Bearer" header. The resolved user is stored in the request
// locals for the authorization layer; requests without a valid token pass
// through unauthenticated and are rejected at the enforcement point.
func Middleware(provider *Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		user, err := provider.ResolveToken(token)
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrUserAccountDisabled) {
			return c.Next()
		}

		if err != nil {
			log.Error().Err(err).Msg("Failed to resolve bearer token")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal Server Error",
			})
		}

		c.Locals(authz.LocalsUserKey, user)
		c.Locals(LocalsTokenKey, token)

		return c.Next()
	}
}

// bearerToken extracts the token from the Authorization header. Returns an
// empty string when the header is missing or not a bearer scheme.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
