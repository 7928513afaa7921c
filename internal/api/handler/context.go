package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wassali-delivery/accounts-api/internal/api/middleware"
	"github.com/wassali-delivery/accounts-api/internal/core/domain"
)

// ctxActor extracts the AuthContext injected by the Auth middleware. Its
// presence proves the middleware ran; handlers on authenticated routes
// fast-fail with 401 rather than passing a zero actor into the engine.
func ctxActor(c echo.Context) (domain.AuthContext, error) {
	actor, ok := c.Get(middleware.ContextKeyAuth).(domain.AuthContext)
	if !ok || actor.ActorID == "" {
		return domain.AuthContext{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}
