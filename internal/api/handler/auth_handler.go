package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wassali-delivery/accounts-api/internal/api/metrics"
	"github.com/wassali-delivery/accounts-api/internal/core/domain"
	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token   string          `json:"token,omitempty"`
	Account *domain.Account `json:"account,omitempty"`
}

type validateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type validateTokenResponse struct {
	IsValid bool            `json:"is_valid"`
	Account *domain.Account `json:"account,omitempty"`
}

// Login authenticates an account and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, acc, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPartnerNotValidated):
			metrics.LoginsTotal.WithLabelValues("pending_validation").Inc()
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: token, Account: acc})
}

// ValidateToken verifies a session token and returns the resolved account.
//
// @Summary      Validate a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      validateTokenRequest  true  "Token to verify"
// @Success      200   {object}  validateTokenResponse
// @Router       /auth/validate-token [post]
func (h *AuthHandler) ValidateToken(c echo.Context) error {
	var req validateTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	acc, err := h.authService.ValidateToken(c.Request().Context(), req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return c.JSON(http.StatusOK, validateTokenResponse{IsValid: false})
		}
		return err
	}

	return c.JSON(http.StatusOK, validateTokenResponse{IsValid: true, Account: acc})
}
