package ports

import (
	"context"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
)

// CreateAccountInput carries the caller-supplied fields of a creation
// request. Role is accepted for wire compatibility but always overwritten by
// the operation-specific target role; callers cannot self-assign a role.
type CreateAccountInput struct {
	Name        string
	Email       string
	Password    string
	Role        domain.Role
	Phone       string
	Address     string
	Image       string
	CompanyName string
	GPSPosition string
	Zone        domain.Region
}

// RoleCounts are the dashboard counters for operational staff.
type RoleCounts struct {
	Drivers         int64 `json:"drivers"`
	AdminAssistants int64 `json:"admin_assistants"`
}

// PartnerCounts break down partner accounts by validation state.
type PartnerCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// AccountService is the account lifecycle engine.
type AccountService interface {
	CreateAdmin(ctx context.Context, actor domain.AuthContext, in CreateAccountInput) (*domain.Account, error)
	CreateAdminAssistant(ctx context.Context, actor domain.AuthContext, in CreateAccountInput) (*domain.Account, error)
	CreatePartner(ctx context.Context, in CreateAccountInput) (*domain.Account, error)
	CreateClient(ctx context.Context, actor domain.AuthContext, in CreateAccountInput) (*domain.Account, error)
	CreateDriver(ctx context.Context, actor domain.AuthContext, in CreateAccountInput) (*domain.Account, error)

	Update(ctx context.Context, actor domain.AuthContext, targetID string, patch AccountPatch) (*domain.Account, error)
	ValidatePartner(ctx context.Context, actor domain.AuthContext, partnerID string) (*domain.Account, error)
	InvalidatePartner(ctx context.Context, actor domain.AuthContext, partnerID string) (*domain.Account, error)
	SoftDelete(ctx context.Context, actor domain.AuthContext, targetID string) (*domain.Account, error)

	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ListAll(ctx context.Context) ([]*domain.Account, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.Account, error)
	ListClientsOf(ctx context.Context, partnerID string) ([]*domain.Account, error)
	ListByZoneAndRole(ctx context.Context, actor domain.AuthContext, role domain.Role) ([]*domain.Account, error)

	RoleCounts(ctx context.Context) (*RoleCounts, error)
	PartnerCounts(ctx context.Context) (*PartnerCounts, error)

	// EnsureSuperAdmin creates the configured SUPER_ADMIN account if absent.
	// Idempotent; never overwrites an existing account.
	EnsureSuperAdmin(ctx context.Context) error
}
