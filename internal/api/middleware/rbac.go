package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
)

// RBAC gates a route to the given roles. It only covers the coarse
// role-per-route checks on read endpoints; mutating operations run the full
// permission matrix in the lifecycle engine.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := c.Get(ContextKeyAuth).(domain.AuthContext)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			if _, ok := allowed[actor.ActorRole]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
