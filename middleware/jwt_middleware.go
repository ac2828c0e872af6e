package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"momentum/models"
	"momentum/utils"
)

const principalKey = "principal"

// PrincipalResolver loads the caller named by verified access-token claims.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, claims *utils.Claims) (models.Principal, error)
}

// Protected authenticates the request from a Bearer header or the
// access_token cookie and stores the principal in c.Locals.
func Protected(resolver PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Try to get token from Authorization header first
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Fields(authHeader)
			if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
				return utils.Fail(c, utils.ErrUnauthorized("Invalid authorization format"))
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies("access_token")
			if token == "" {
				return utils.Fail(c, utils.ErrUnauthorized("Authorization required"))
			}
		}

		claims, err := utils.ParseJWTToken(token, utils.TokenTypeAccess)
		if err != nil {
			return utils.Fail(c, utils.ErrUnauthorized("Invalid or expired token"))
		}

		principal, err := resolver.ResolvePrincipal(c.UserContext(), claims)
		if err != nil {
			return utils.Fail(c, err)
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// CurrentPrincipal returns the principal set by Protected, or nil.
func CurrentPrincipal(c *fiber.Ctx) models.Principal {
	p, _ := c.Locals(principalKey).(models.Principal)
	return p
}

// SetPrincipal is used by handlers mounted without Protected, mostly in tests.
func SetPrincipal(c *fiber.Ctx, p models.Principal) {
	c.Locals(principalKey, p)
}
