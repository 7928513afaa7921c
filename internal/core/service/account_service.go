package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

const bootstrapAdminName = "Super_Admin"

// AccountService is the account lifecycle engine. It authorizes every
// mutation through the permission matrix, enforces the lifecycle state
// machine, and emits one domain event per successful mutation.
type AccountService struct {
	repo          ports.AccountRepository
	notifier      ports.Notifier
	stats         ports.StatsCache
	adminEmail    string
	adminPassword string
	log           zerolog.Logger
}

func NewAccountService(
	repo ports.AccountRepository,
	notifier ports.Notifier,
	stats ports.StatsCache,
	adminEmail, adminPassword string,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		repo:          repo,
		notifier:      notifier,
		stats:         stats,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		log:           log,
	}
}

// create performs the role-independent part of account creation: field
// validation, active-email uniqueness, password hashing, and the forced
// target role. The caller-supplied role in the input is always discarded.
func (s *AccountService) create(ctx context.Context, role domain.Role, in ports.CreateAccountInput, createdBy string, zone domain.Region) (*domain.Account, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	// Uniqueness only among non-deleted accounts: FindByEmail filters out
	// soft-deleted rows, so a retired account frees its email.
	existing, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	acc := &domain.Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        in.Phone,
		Address:      in.Address,
		Image:        in.Image,
		CompanyName:  in.CompanyName,
		GPSPosition:  in.GPSPosition,
		Zone:         zone,
		IsValid:      role != domain.RolePartner,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Insert(ctx, acc)
	if err != nil {
		s.log.Error().Err(err).Str("email", in.Email).Str("role", string(role)).Msg("account insert failed")
		return nil, err
	}

	s.log.Info().Str("id", created.ID).Str("role", string(role)).Msg("account created")
	return created, nil
}

// loadActor resolves the acting account. Creation of zone-scoped roles needs
// the creator's zone and email, which the token claims do not carry.
func (s *AccountService) loadActor(ctx context.Context, actor domain.AuthContext) (*domain.Account, error) {
	acc, err := s.repo.FindByID(ctx, actor.ActorID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return acc, nil
}

// CreateAdmin creates an ADMIN account. Only SUPER_ADMIN may do so.
func (s *AccountService) CreateAdmin(ctx context.Context, actor domain.AuthContext, in ports.CreateAccountInput) (*domain.Account, error) {
	if err := domain.Authorize(actor, domain.ActionCreate, domain.Target{Role: domain.RoleAdmin}); err != nil {
		return nil, err
	}

	created, err := s.create(ctx, domain.RoleAdmin, in, "", in.Zone)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.EventAdminCreated, created)
	return created, nil
}

type assistantCreatedPayload struct {
	AssistantID     string `json:"assistant_id"`
	AssistantEmail  string `json:"assistant_email"`
	AssistantName   string `json:"assistant_name"`
	CreatorID       string `json:"creator_id"`
	CreatorEmail    string `json:"creator_email"`
	InitialPassword string `json:"initial_password"`
}

// CreateAdminAssistant creates an ADMIN_ASSISTANT scoped to the creating
// admin's zone of responsibility.
func (s *AccountService) CreateAdminAssistant(ctx context.Context, actor domain.AuthContext, in ports.CreateAccountInput) (*domain.Account, error) {
	if err := domain.Authorize(actor, domain.ActionCreate, domain.Target{Role: domain.RoleAdminAssistant}); err != nil {
		return nil, err
	}

	creator, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if creator.Zone == "" {
		return nil, domain.ErrMissingZone
	}

	created, err := s.create(ctx, domain.RoleAdminAssistant, in, creator.ID, creator.Zone)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.EventAdminAssistantCreated, assistantCreatedPayload{
		AssistantID:     created.ID,
		AssistantEmail:  created.Email,
		AssistantName:   created.Name,
		CreatorID:       creator.ID,
		CreatorEmail:    creator.Email,
		InitialPassword: in.Password,
	})
	return created, nil
}

type partnerCreatedPayload struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	Phone     string      `json:"phone,omitempty"`
	Company   string      `json:"company,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreatePartner is the self-service partner signup. The new account starts
// unvalidated and cannot authenticate until an administrator validates it.
func (s *AccountService) CreatePartner(ctx context.Context, in ports.CreateAccountInput) (*domain.Account, error) {
	created, err := s.create(ctx, domain.RolePartner, in, "", "")
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.EventPartnerCreated, partnerCreatedPayload{
		UserID:    created.ID,
		Email:     created.Email,
		Name:      created.Name,
		Role:      domain.RolePartner,
		Phone:     created.Phone,
		Company:   created.CompanyName,
		CreatedAt: created.CreatedAt,
	})
	return created, nil
}

// CreateClient creates a CLIENT on behalf of the acting PARTNER. The client
// is stamped with the partner as creator, which grants the partner update
// and delete rights over it, and receives the fixed onboarding password
// regardless of the request.
func (s *AccountService) CreateClient(ctx context.Context, actor domain.AuthContext, in ports.CreateAccountInput) (*domain.Account, error) {
	if err := domain.Authorize(actor, domain.ActionCreate, domain.Target{Role: domain.RoleClient}); err != nil {
		return nil, err
	}

	in.Password = domain.ClientOnboardingPassword
	return s.create(ctx, domain.RoleClient, in, actor.ActorID, "")
}

type driverCreatedPayload struct {
	DriverID        string    `json:"driver_id"`
	DriverEmail     string    `json:"driver_email"`
	DriverName      string    `json:"driver_name"`
	CreatorID       string    `json:"creator_id"`
	CreatorEmail    string    `json:"creator_email"`
	InitialPassword string    `json:"initial_password"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateDriver creates a DRIVER scoped to the creator's zone.
func (s *AccountService) CreateDriver(ctx context.Context, actor domain.AuthContext, in ports.CreateAccountInput) (*domain.Account, error) {
	if err := domain.Authorize(actor, domain.ActionCreate, domain.Target{Role: domain.RoleDriver}); err != nil {
		return nil, err
	}

	creator, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if creator.Zone == "" {
		return nil, domain.ErrMissingZone
	}

	created, err := s.create(ctx, domain.RoleDriver, in, creator.ID, creator.Zone)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.EventDriverCreated, driverCreatedPayload{
		DriverID:        created.ID,
		DriverEmail:     created.Email,
		DriverName:      created.Name,
		CreatorID:       creator.ID,
		CreatorEmail:    creator.Email,
		InitialPassword: in.Password,
		CreatedAt:       created.CreatedAt,
	})
	return created, nil
}

// Update applies a partial update to the target account. The target is
// located first, so an unresolvable id is NotFound rather than Forbidden;
// the patch can never change the role, and an email change re-checks
// active-email uniqueness.
func (s *AccountService) Update(ctx context.Context, actor domain.AuthContext, targetID string, patch ports.AccountPatch) (*domain.Account, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := domain.Authorize(actor, domain.ActionUpdate, domain.Target{ID: target.ID, Role: target.Role, CreatedBy: target.CreatedBy}); err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != target.Email {
		existing, err := s.repo.FindByEmail(ctx, *patch.Email)
		if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrEmailTaken
		}
	}

	updated, err := s.repo.Update(ctx, targetID, patch)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(domain.EventUserUpdated, updated)

	s.log.Info().Str("id", targetID).Str("actor", actor.ActorID).Msg("account updated")
	return updated, nil
}

func (s *AccountService) setPartnerValidity(ctx context.Context, actor domain.AuthContext, partnerID string, valid bool, event domain.EventType) (*domain.Account, error) {
	partner, err := s.repo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	if err := domain.Authorize(actor, domain.ActionValidate, domain.Target{ID: partner.ID, Role: partner.Role}); err != nil {
		return nil, err
	}

	updated, err := s.repo.SetValidity(ctx, partnerID, valid)
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(event, updated)

	s.log.Info().Str("id", partnerID).Bool("valid", valid).Msg("partner validity changed")
	return updated, nil
}

// ValidatePartner opens the validation gate for a PARTNER account, allowing
// it to authenticate.
func (s *AccountService) ValidatePartner(ctx context.Context, actor domain.AuthContext, partnerID string) (*domain.Account, error) {
	return s.setPartnerValidity(ctx, actor, partnerID, true, domain.EventPartnerValidated)
}

// InvalidatePartner closes the validation gate again.
func (s *AccountService) InvalidatePartner(ctx context.Context, actor domain.AuthContext, partnerID string) (*domain.Account, error) {
	return s.setPartnerValidity(ctx, actor, partnerID, false, domain.EventPartnerInvalidated)
}

type deletionFailedPayload struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type criticalErrorPayload struct {
	Action    string    `json:"action"`
	UserID    string    `json:"user_id"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// SoftDelete retires the target account by setting deletedAt. Deleting an
// already-deleted account is NotFound, never a second success: the store
// write is conditional on deletedAt == null, so of two concurrent deletes
// exactly one wins.
func (s *AccountService) SoftDelete(ctx context.Context, actor domain.AuthContext, targetID string) (*domain.Account, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.notifier.Publish(domain.EventUserDeletionFailed, deletionFailedPayload{
				UserID:    targetID,
				Timestamp: time.Now().UTC(),
			})
		}
		return nil, err
	}

	if err := domain.Authorize(actor, domain.ActionDelete, domain.Target{ID: target.ID, Role: target.Role, CreatedBy: target.CreatedBy}); err != nil {
		return nil, err
	}

	deleted, err := s.repo.SoftDelete(ctx, targetID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Lost the race against a concurrent delete.
			s.notifier.Publish(domain.EventUserDeletionFailed, deletionFailedPayload{
				UserID:    targetID,
				Timestamp: time.Now().UTC(),
			})
			return nil, err
		}
		s.notifier.Publish(domain.EventCriticalError, criticalErrorPayload{
			Action:    "ACCOUNT_SOFT_DELETE",
			UserID:    targetID,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		s.log.Error().Err(err).Str("id", targetID).Msg("soft delete failed")
		return nil, err
	}

	s.notifier.Publish(domain.EventUserDeleted, deleted)

	s.log.Info().Str("id", targetID).Str("actor", actor.ActorID).Msg("account soft-deleted")
	return deleted, nil
}

// GetByID returns a single non-deleted account.
func (s *AccountService) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByEmail returns a single non-deleted account by email.
func (s *AccountService) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

// ListAll returns every non-deleted account.
func (s *AccountService) ListAll(ctx context.Context) ([]*domain.Account, error) {
	return s.repo.List(ctx, ports.AccountFilter{})
}

// ListByRole returns all non-deleted accounts with the given role.
func (s *AccountService) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Account, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.List(ctx, ports.AccountFilter{Role: role})
}

// ListClientsOf returns the CLIENT accounts created by the given partner.
func (s *AccountService) ListClientsOf(ctx context.Context, partnerID string) ([]*domain.Account, error) {
	return s.repo.List(ctx, ports.AccountFilter{Role: domain.RoleClient, CreatedBy: partnerID})
}

// ListByZoneAndRole returns accounts of the given role inside the actor's
// own zone of responsibility. A caller without a zone is an input error, not
// an empty result.
func (s *AccountService) ListByZoneAndRole(ctx context.Context, actor domain.AuthContext, role domain.Role) ([]*domain.Account, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidInput
	}

	caller, err := s.loadActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if caller.Zone == "" {
		return nil, domain.ErrMissingZone
	}

	return s.repo.List(ctx, ports.AccountFilter{Role: role, Zone: caller.Zone})
}

// RoleCounts returns the driver/assistant dashboard counters, served from
// the cache when fresh.
func (s *AccountService) RoleCounts(ctx context.Context) (*ports.RoleCounts, error) {
	if cached, err := s.stats.GetRoleCounts(ctx); err != nil {
		s.log.Warn().Err(err).Msg("stats cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	drivers, err := s.repo.Count(ctx, ports.AccountFilter{Role: domain.RoleDriver})
	if err != nil {
		return nil, err
	}
	assistants, err := s.repo.Count(ctx, ports.AccountFilter{Role: domain.RoleAdminAssistant})
	if err != nil {
		return nil, err
	}

	counts := &ports.RoleCounts{Drivers: drivers, AdminAssistants: assistants}
	if err := s.stats.SetRoleCounts(ctx, counts); err != nil {
		s.log.Warn().Err(err).Msg("stats cache write failed")
	}
	return counts, nil
}

// PartnerCounts returns the partner validation breakdown, served from the
// cache when fresh.
func (s *AccountService) PartnerCounts(ctx context.Context) (*ports.PartnerCounts, error) {
	if cached, err := s.stats.GetPartnerCounts(ctx); err != nil {
		s.log.Warn().Err(err).Msg("stats cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	total, err := s.repo.Count(ctx, ports.AccountFilter{Role: domain.RolePartner})
	if err != nil {
		return nil, err
	}
	active, err := s.repo.Count(ctx, ports.AccountFilter{Role: domain.RolePartner, OnlyValid: true})
	if err != nil {
		return nil, err
	}

	counts := &ports.PartnerCounts{Total: total, Active: active, Inactive: total - active}
	if err := s.stats.SetPartnerCounts(ctx, counts); err != nil {
		s.log.Warn().Err(err).Msg("stats cache write failed")
	}
	return counts, nil
}

// EnsureSuperAdmin creates the configured SUPER_ADMIN account on process
// start if it does not exist yet. An existing account is never overwritten.
func (s *AccountService) EnsureSuperAdmin(ctx context.Context) error {
	if s.adminEmail == "" {
		return errors.New("bootstrap admin email is not configured")
	}

	_, err := s.repo.FindByEmail(ctx, s.adminEmail)
	if err == nil {
		s.log.Info().Str("email", s.adminEmail).Msg("super admin already exists")
		return nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	created, err := s.repo.Insert(ctx, &domain.Account{
		Name:         bootstrapAdminName,
		Email:        s.adminEmail,
		PasswordHash: string(hash),
		Role:         domain.RoleSuperAdmin,
		IsValid:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(domain.EventAdminCreated, created)

	s.log.Info().Str("id", created.ID).Str("email", s.adminEmail).Msg("super admin created")
	return nil
}
