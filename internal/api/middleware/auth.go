package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
)

// ContextKeyAuth is the echo context key under which the authenticated
// actor's AuthContext is stored.
const ContextKeyAuth = "auth"

// Auth validates the bearer token and injects the actor's AuthContext.
// A structurally valid token belonging to an unvalidated partner is rejected
// here: such tokens can outlive an invalidation.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			sub, _ := claims["sub"].(string)
			role, _ := claims["role"].(string)
			isValid, _ := claims["is_valid"].(bool)
			if sub == "" || !domain.Role(role).Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			if domain.Role(role) == domain.RolePartner && !isValid {
				return echo.NewHTTPError(http.StatusForbidden, "partner account pending validation")
			}

			c.Set(ContextKeyAuth, domain.AuthContext{
				ActorID:      sub,
				ActorRole:    domain.Role(role),
				PartnerValid: isValid,
			})

			return next(c)
		}
	}
}
