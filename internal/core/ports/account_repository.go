package ports

import (
	"context"
	"time"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
)

// AccountFilter carries the query parameters for listing and counting
// accounts. Soft-deleted accounts are always excluded at the store level.
type AccountFilter struct {
	Role      domain.Role   // optional: filter by role
	Zone      domain.Region // optional: filter by zone of responsibility
	CreatedBy string        // optional: filter by creating account id
	OnlyValid bool          // restrict to isValid=true (partner stats)
}

// AccountPatch is a partial update. Nil fields are left untouched. Role,
// password, validity, and zone are deliberately absent: they change only
// through their dedicated lifecycle operations.
type AccountPatch struct {
	Name        *string
	Email       *string
	Phone       *string
	Address     *string
	Image       *string
	CompanyName *string
	GPSPosition *string
}

// AccountRepository defines persistence operations for accounts. Every read
// is implicitly scoped to deletedAt == null; writes on existing records are
// conditional on the same predicate so a concurrent soft-delete loses with
// ErrAccountNotFound rather than resurrecting the record.
type AccountRepository interface {
	Insert(ctx context.Context, acc *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, error)
	Count(ctx context.Context, filter AccountFilter) (int64, error)
	Update(ctx context.Context, id string, patch AccountPatch) (*domain.Account, error)
	SetValidity(ctx context.Context, id string, valid bool) (*domain.Account, error)
	SoftDelete(ctx context.Context, id string, at time.Time) (*domain.Account, error)
}
