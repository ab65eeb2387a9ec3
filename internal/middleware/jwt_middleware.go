package middleware

import (
	"strings"

	"usersapi/internal/models"
	"usersapi/internal/response"
	"usersapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ClaimsKey is the Fiber locals key holding the requester's claims.
const ClaimsKey = "requester"

// AccessTokenHeader is the custom header a token may be sent in.
const AccessTokenHeader = "x-access-token"

// AuthRequired is a Fiber middleware that admits only requests carrying a
// valid access token. The token is read from the "token" query parameter,
// then the x-access-token header, then an "Authorization: Bearer" header.
func AuthRequired(verifier services.TokenVerifier, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := extractToken(c)
		if tokenString == "" {
			return response.Error(c, services.NewError(services.KindNoTokenProvided,
				"No token provided. Please refer to docs to how to send your token."))
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			logger.Debug("JWT validation failed", zap.String("path", c.Path()), zap.Error(err))
			return response.Error(c, services.NewError(services.KindInvalidToken, "Failed to authenticate token."))
		}
		if claims.IsRefresh() {
			logger.Debug("Refresh token presented as access token", zap.String("user_id", claims.ID))
			return response.Error(c, services.NewError(services.KindInvalidToken, "Failed to authenticate token."))
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(ClaimsKey, claims)

		return c.Next()
	}
}

// Requester returns the claims attached by AuthRequired, or nil.
func Requester(c *fiber.Ctx) *models.Claims {
	claims, _ := c.Locals(ClaimsKey).(*models.Claims)
	return claims
}

func extractToken(c *fiber.Ctx) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	if token := c.Get(AccessTokenHeader); token != "" {
		return token
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
