package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

// AuthService verifies credentials and mints session tokens.
type AuthService struct {
	repo      ports.AccountRepository
	notifier  ports.Notifier
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.AccountRepository, notifier ports.Notifier, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

type loginPayload struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsValid   bool        `json:"is_valid"`
	Timestamp time.Time   `json:"timestamp"`
}

// Login locates the account by email among active accounts and verifies the
// password. An unknown email and a wrong password are indistinguishable to
// the caller; a correct login against an unvalidated partner surfaces the
// pending-validation reason instead.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if acc.Role == domain.RolePartner && !acc.IsValid {
		return "", nil, domain.ErrPartnerNotValidated
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.mintToken(acc)
	if err != nil {
		return "", nil, err
	}

	s.notifier.Publish(domain.EventUserLoggedIn, loginPayload{
		UserID:    acc.ID,
		Email:     acc.Email,
		Role:      acc.Role,
		IsValid:   acc.Active(),
		Timestamp: time.Now().UTC(),
	})

	s.log.Info().Str("id", acc.ID).Str("role", string(acc.Role)).Msg("login succeeded")
	return token, acc, nil
}

// ValidateToken verifies the token signature and expiry, then resolves the
// subject to a live (non-deleted) account.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := DecodeClaims(token, s.jwtSecret)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	acc, err := s.repo.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return acc, nil
}

func (s *AuthService) mintToken(acc *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"sub":      acc.ID,
		"role":     string(acc.Role),
		"is_valid": acc.Active(),
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// Claims are the decoded session token claims the core consumes.
type Claims struct {
	SubjectID    string
	Role         domain.Role
	PartnerValid bool
}

// DecodeClaims parses and verifies a session token. Only HS256 is accepted.
func DecodeClaims(token, secret string) (*Claims, error) {
	mc := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidCredentials
	}

	sub, _ := mc["sub"].(string)
	role, _ := mc["role"].(string)
	valid, _ := mc["is_valid"].(bool)
	if sub == "" || !domain.Role(role).Valid() {
		return nil, domain.ErrInvalidCredentials
	}

	return &Claims{
		SubjectID:    sub,
		Role:         domain.Role(role),
		PartnerValid: valid,
	}, nil
}
