package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wassali-delivery/accounts-api/internal/api/metrics"
	"github.com/wassali-delivery/accounts-api/internal/core/domain"
	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// createAccountRequest is shared by all creation endpoints. The role field
// is accepted but ignored: the endpoint determines the target role. The
// password is optional only for client creation, where the server forces the
// onboarding default.
type createAccountRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"omitempty,min=3"`
	Role        string `json:"role,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Image       string `json:"image,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	GPSPosition string `json:"gps_position,omitempty"`
	Zone        string `json:"zone_of_responsibility,omitempty"`
}

func (r createAccountRequest) toInput() ports.CreateAccountInput {
	return ports.CreateAccountInput{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		Role:        domain.Role(r.Role),
		Phone:       r.Phone,
		Address:     r.Address,
		Image:       r.Image,
		CompanyName: r.CompanyName,
		GPSPosition: r.GPSPosition,
		Zone:        domain.Region(r.Zone),
	}
}

func (h *AccountHandler) bindCreate(c echo.Context) (createAccountRequest, error) {
	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return req, nil
}

// CreateAdmin creates an ADMIN account (SUPER_ADMIN only).
func (h *AccountHandler) CreateAdmin(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	req, err := h.bindCreate(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.CreateAdmin(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return err
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(domain.RoleAdmin)).Inc()
	return c.JSON(http.StatusCreated, acc)
}

// CreateAdminAssistant creates an ADMIN_ASSISTANT in the acting admin's zone.
func (h *AccountHandler) CreateAdminAssistant(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	req, err := h.bindCreate(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.CreateAdminAssistant(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return err
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(domain.RoleAdminAssistant)).Inc()
	return c.JSON(http.StatusCreated, acc)
}

// CreatePartner is the public self-service partner signup.
//
// @Summary      Partner signup
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      createAccountRequest  true  "Partner details"
// @Success      201   {object}  domain.Account
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /partners [post]
func (h *AccountHandler) CreatePartner(c echo.Context) error {
	req, err := h.bindCreate(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.CreatePartner(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(domain.RolePartner)).Inc()
	return c.JSON(http.StatusCreated, acc)
}

// CreateClient creates a CLIENT owned by the acting partner.
func (h *AccountHandler) CreateClient(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	req, err := h.bindCreate(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.CreateClient(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return err
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(domain.RoleClient)).Inc()
	return c.JSON(http.StatusCreated, acc)
}

// CreateDriver creates a DRIVER in the creator's zone.
func (h *AccountHandler) CreateDriver(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	req, err := h.bindCreate(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.CreateDriver(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return err
	}

	metrics.AccountsCreatedTotal.WithLabelValues(string(domain.RoleDriver)).Inc()
	return c.JSON(http.StatusCreated, acc)
}

type updateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	Image       *string `json:"image,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	GPSPosition *string `json:"gps_position,omitempty"`
}

// Update applies a partial update to the target account; the permission
// matrix decides who may touch whom.
//
// @Summary      Update an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Account id"
// @Param        body  body      updateAccountRequest  true  "Fields to update"
// @Success      200   {object}  domain.Account
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /accounts/{id} [put]
func (h *AccountHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	acc, err := h.accounts.Update(c.Request().Context(), actor, c.Param("id"), ports.AccountPatch{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Image:       req.Image,
		CompanyName: req.CompanyName,
		GPSPosition: req.GPSPosition,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, acc)
}

// Delete soft-deletes the target account.
//
// @Summary      Soft-delete an account
// @Tags         accounts
// @Produce      json
// @Param        id  path  string  true  "Account id"
// @Success      200  {object}  domain.Account
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.SoftDelete(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.AccountsDeletedTotal.Inc()
	return c.JSON(http.StatusOK, acc)
}

// ValidatePartner opens the validation gate for a partner account.
func (h *AccountHandler) ValidatePartner(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.ValidatePartner(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.PartnerValidationsTotal.WithLabelValues("validate").Inc()
	return c.JSON(http.StatusOK, acc)
}

// InvalidatePartner closes the validation gate for a partner account.
func (h *AccountHandler) InvalidatePartner(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	acc, err := h.accounts.InvalidatePartner(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.PartnerValidationsTotal.WithLabelValues("invalidate").Inc()
	return c.JSON(http.StatusOK, acc)
}

// GetByID returns a single account.
func (h *AccountHandler) GetByID(c echo.Context) error {
	acc, err := h.accounts.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

// GetByEmail returns a single account by email.
func (h *AccountHandler) GetByEmail(c echo.Context) error {
	acc, err := h.accounts.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acc)
}

// ListAll returns every non-deleted account.
func (h *AccountHandler) ListAll(c echo.Context) error {
	accs, err := h.accounts.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accs)
}

// ListByRole returns all accounts with the given role.
func (h *AccountHandler) ListByRole(c echo.Context) error {
	accs, err := h.accounts.ListByRole(c.Request().Context(), domain.Role(c.Param("role")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accs)
}

// ListMyClients returns the clients created by the acting partner.
func (h *AccountHandler) ListMyClients(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	accs, err := h.accounts.ListClientsOf(c.Request().Context(), actor.ActorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accs)
}

// ListByZone returns accounts of the given role inside the actor's zone.
func (h *AccountHandler) ListByZone(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	accs, err := h.accounts.ListByZoneAndRole(c.Request().Context(), actor, domain.Role(c.Param("role")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accs)
}

// RoleCounts returns the driver/assistant dashboard counters.
func (h *AccountHandler) RoleCounts(c echo.Context) error {
	counts, err := h.accounts.RoleCounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

// PartnerCounts returns the partner validation breakdown.
func (h *AccountHandler) PartnerCounts(c echo.Context) error {
	counts, err := h.accounts.PartnerCounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}
