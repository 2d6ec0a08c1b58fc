package middlewares

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// Claims is our JWT payload: subject=userID plus the companies the user may access.
// An empty Companies list grants access to every company.
type Claims struct {
	Companies []uint `json:"companies,omitempty"`
	jwt.RegisteredClaims
}

// IsAuthenticatedHeader validates a Bearer token, enforces HS256, and populates c.Locals("userID","claims").
func IsAuthenticatedHeader(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return fiber.NewError(fiber.StatusUnauthorized, "missing/invalid Authorization header")
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid bearer token")
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims Claims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if strings.TrimSpace(claims.Subject) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token missing subject")
		}

		c.Locals("userID", claims.Subject)
		c.Locals("claims", &claims)
		return c.Next()
	}
}

// RequireCompanyAccess rejects requests for a :companyId outside the token's company list.
// Without auth (no claims in locals) every company is reachable.
func RequireCompanyAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*Claims)
		if !ok || claims == nil || len(claims.Companies) == 0 {
			return c.Next()
		}
		id, err := strconv.ParseUint(c.Params("companyId"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "company not found")
		}
		for _, allowed := range claims.Companies {
			if uint64(allowed) == id {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "no access to this company")
	}
}
