package ports

import (
	"context"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
)

// AuthService implements login and token verification.
type AuthService interface {
	// Login verifies the credentials and returns a signed session token plus
	// the account. Unknown email and wrong password both surface
	// ErrInvalidCredentials; an unvalidated partner surfaces
	// ErrPartnerNotValidated.
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)

	// ValidateToken decodes and verifies a session token and resolves the
	// subject to a live account.
	ValidateToken(ctx context.Context, token string) (*domain.Account, error)
}
