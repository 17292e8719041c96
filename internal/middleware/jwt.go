package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/fcs-go-api/internal/utils"
)

// Locals keys populated by the token middleware.
const (
	LocalOperatorID   = "operator_id"
	LocalOperatorName = "operator_name"
	LocalOperatorRole = "operator_role"
)

// JWTProtected returns a middleware that validates the operator bearer token
// minted at login.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		if sub := stringClaim(claims, "sub"); sub != "" {
			c.Locals(LocalOperatorID, sub)
		}
		if name := stringClaim(claims, "name"); name != "" {
			c.Locals(LocalOperatorName, name)
		}
		if role := stringClaim(claims, "role"); role != "" {
			c.Locals(LocalOperatorRole, strings.ToLower(role))
		}

		return c.Next()
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key]; ok {
		if str, ok := value.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}
