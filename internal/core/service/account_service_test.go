package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wassali-delivery/accounts-api/internal/core/domain"
	"github.com/wassali-delivery/accounts-api/internal/core/ports"
)

// stubRepo is an in-memory AccountRepository. Reads skip soft-deleted rows
// and writes on existing rows fail with ErrAccountNotFound once the row is
// deleted, matching the store contract.
type stubRepo struct {
	accounts map[string]*domain.Account
	seq      int

	insertErr     error
	softDeleteErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{accounts: map[string]*domain.Account{}}
}

func cloneAccount(acc *domain.Account) *domain.Account {
	cp := *acc
	if acc.DeletedAt != nil {
		at := *acc.DeletedAt
		cp.DeletedAt = &at
	}
	return &cp
}

func (r *stubRepo) seed(acc *domain.Account) *domain.Account {
	if acc.ID == "" {
		r.seq++
		acc.ID = fmt.Sprintf("acc_%d", r.seq)
	}
	r.accounts[acc.ID] = cloneAccount(acc)
	return acc
}

func (r *stubRepo) Insert(_ context.Context, acc *domain.Account) (*domain.Account, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	return cloneAccount(r.seed(acc)), nil
}

func (r *stubRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	acc, ok := r.accounts[id]
	if !ok || acc.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(acc), nil
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, acc := range r.accounts {
		if acc.Email == email && acc.DeletedAt == nil {
			return cloneAccount(acc), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubRepo) matches(acc *domain.Account, f ports.AccountFilter) bool {
	if acc.DeletedAt != nil {
		return false
	}
	if f.Role != "" && acc.Role != f.Role {
		return false
	}
	if f.Zone != "" && acc.Zone != f.Zone {
		return false
	}
	if f.CreatedBy != "" && acc.CreatedBy != f.CreatedBy {
		return false
	}
	if f.OnlyValid && !acc.IsValid {
		return false
	}
	return true
}

func (r *stubRepo) List(_ context.Context, f ports.AccountFilter) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, acc := range r.accounts {
		if r.matches(acc, f) {
			out = append(out, cloneAccount(acc))
		}
	}
	return out, nil
}

func (r *stubRepo) Count(ctx context.Context, f ports.AccountFilter) (int64, error) {
	accs, err := r.List(ctx, f)
	if err != nil {
		return 0, err
	}
	return int64(len(accs)), nil
}

func (r *stubRepo) Update(_ context.Context, id string, patch ports.AccountPatch) (*domain.Account, error) {
	acc, ok := r.accounts[id]
	if !ok || acc.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}
	if patch.Name != nil {
		acc.Name = *patch.Name
	}
	if patch.Email != nil {
		acc.Email = *patch.Email
	}
	if patch.Phone != nil {
		acc.Phone = *patch.Phone
	}
	if patch.Address != nil {
		acc.Address = *patch.Address
	}
	if patch.Image != nil {
		acc.Image = *patch.Image
	}
	if patch.CompanyName != nil {
		acc.CompanyName = *patch.CompanyName
	}
	if patch.GPSPosition != nil {
		acc.GPSPosition = *patch.GPSPosition
	}
	acc.UpdatedAt = time.Now().UTC()
	return cloneAccount(acc), nil
}

func (r *stubRepo) SetValidity(_ context.Context, id string, valid bool) (*domain.Account, error) {
	acc, ok := r.accounts[id]
	if !ok || acc.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}
	acc.IsValid = valid
	acc.UpdatedAt = time.Now().UTC()
	return cloneAccount(acc), nil
}

func (r *stubRepo) SoftDelete(_ context.Context, id string, at time.Time) (*domain.Account, error) {
	if r.softDeleteErr != nil {
		return nil, r.softDeleteErr
	}
	acc, ok := r.accounts[id]
	if !ok || acc.DeletedAt != nil {
		return nil, domain.ErrAccountNotFound
	}
	acc.DeletedAt = &at
	acc.UpdatedAt = at
	return cloneAccount(acc), nil
}

// stubNotifier records published events synchronously.
type stubNotifier struct {
	events []publishedEvent
}

type publishedEvent struct {
	typ     domain.EventType
	payload any
}

func (n *stubNotifier) Publish(eventType domain.EventType, payload any) {
	n.events = append(n.events, publishedEvent{typ: eventType, payload: payload})
}

func (n *stubNotifier) types() []domain.EventType {
	var out []domain.EventType
	for _, ev := range n.events {
		out = append(out, ev.typ)
	}
	return out
}

// stubStats starts empty and remembers what was written to it.
type stubStats struct {
	roleCounts    *ports.RoleCounts
	partnerCounts *ports.PartnerCounts
}

func (s *stubStats) GetRoleCounts(context.Context) (*ports.RoleCounts, error) {
	return s.roleCounts, nil
}

func (s *stubStats) SetRoleCounts(_ context.Context, counts *ports.RoleCounts) error {
	s.roleCounts = counts
	return nil
}

func (s *stubStats) GetPartnerCounts(context.Context) (*ports.PartnerCounts, error) {
	return s.partnerCounts, nil
}

func (s *stubStats) SetPartnerCounts(_ context.Context, counts *ports.PartnerCounts) error {
	s.partnerCounts = counts
	return nil
}

func newTestService(repo *stubRepo) (*AccountService, *stubNotifier, *stubStats) {
	notifier := &stubNotifier{}
	stats := &stubStats{}
	svc := NewAccountService(repo, notifier, stats, "root@wassali.tn", "superAdmin123", zerolog.Nop())
	return svc, notifier, stats
}

func seedActor(repo *stubRepo, role domain.Role, zone domain.Region) (*domain.Account, domain.AuthContext) {
	acc := repo.seed(&domain.Account{
		Name:    string(role) + "_actor",
		Email:   string(role) + "@wassali.tn",
		Role:    role,
		Zone:    zone,
		IsValid: true,
	})
	return acc, domain.AuthContext{ActorID: acc.ID, ActorRole: role, PartnerValid: true}
}

func TestAccountService_CreateAdmin_Success(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleSuperAdmin, "")

	created, err := svc.CreateAdmin(context.Background(), actor, ports.CreateAccountInput{
		Name:     "Amal",
		Email:    "amal@wassali.tn",
		Password: "s3cret",
		Role:     domain.RoleDriver, // must be ignored
		Zone:     domain.RegionTunis,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want %s", created.Role, domain.RoleAdmin)
	}
	if !created.IsValid {
		t.Errorf("admin should be valid on creation")
	}
	if created.Zone != domain.RegionTunis {
		t.Errorf("zone = %s, want %s", created.Zone, domain.RegionTunis)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("s3cret")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventAdminCreated {
		t.Fatalf("events = %v, want [ADMIN_CREATED]", notifier.types())
	}
}

func TestAccountService_CreateAdmin_ForbiddenForAdmin(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionTunis)

	_, err := svc.CreateAdmin(context.Background(), actor, ports.CreateAccountInput{
		Name: "X", Email: "x@wassali.tn", Password: "pw",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("no event expected on a denied creation, got %v", notifier.types())
	}
}

func TestAccountService_Create_MissingFields(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleSuperAdmin, "")

	_, err := svc.CreateAdmin(context.Background(), actor, ports.CreateAccountInput{
		Name: "NoEmail", Password: "pw",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAccountService_CreateAdminAssistant_InheritsZone(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	admin, actor := seedActor(repo, domain.RoleAdmin, domain.RegionSfax)

	created, err := svc.CreateAdminAssistant(context.Background(), actor, ports.CreateAccountInput{
		Name:     "Nour",
		Email:    "nour@wassali.tn",
		Password: "first-pass",
		Zone:     domain.RegionTunis, // ignored: the creator's zone wins
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Zone != domain.RegionSfax {
		t.Errorf("zone = %s, want creator zone %s", created.Zone, domain.RegionSfax)
	}
	if created.CreatedBy != admin.ID {
		t.Errorf("createdBy = %s, want %s", created.CreatedBy, admin.ID)
	}

	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventAdminAssistantCreated {
		t.Fatalf("events = %v, want [ADMIN_ASSISTANT_CREATED]", notifier.types())
	}
	payload, ok := notifier.events[0].payload.(assistantCreatedPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", notifier.events[0].payload)
	}
	if payload.InitialPassword != "first-pass" {
		t.Errorf("payload password = %q, want the cleartext initial password", payload.InitialPassword)
	}
	if payload.CreatorEmail != admin.Email {
		t.Errorf("payload creator email = %q, want %q", payload.CreatorEmail, admin.Email)
	}
}

func TestAccountService_CreateAdminAssistant_CreatorWithoutZone(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, "")

	_, err := svc.CreateAdminAssistant(context.Background(), actor, ports.CreateAccountInput{
		Name: "Nour", Email: "nour@wassali.tn", Password: "pw",
	})
	if !errors.Is(err, domain.ErrMissingZone) {
		t.Fatalf("expected ErrMissingZone, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("no event expected, got %v", notifier.types())
	}
}

func TestAccountService_CreatePartner_StartsUnvalidated(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)

	created, err := svc.CreatePartner(context.Background(), ports.CreateAccountInput{
		Name:        "FastShip",
		Email:       "contact@fastship.tn",
		Password:    "pw",
		CompanyName: "FastShip SARL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.IsValid {
		t.Errorf("a new partner must start unvalidated")
	}
	if created.Role != domain.RolePartner {
		t.Errorf("role = %s, want %s", created.Role, domain.RolePartner)
	}

	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventPartnerCreated {
		t.Fatalf("events = %v, want [PARTNER_CREATED]", notifier.types())
	}
	payload := notifier.events[0].payload.(partnerCreatedPayload)
	if payload.Company != "FastShip SARL" {
		t.Errorf("payload company = %q", payload.Company)
	}
}

func TestAccountService_CreateClient_OnboardingDefaults(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	partner, actor := seedActor(repo, domain.RolePartner, "")

	created, err := svc.CreateClient(context.Background(), actor, ports.CreateAccountInput{
		Name:     "Client One",
		Email:    "client1@wassali.tn",
		Password: "whatever-they-sent",
		Role:     domain.RoleSuperAdmin, // must be ignored
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Role != domain.RoleClient {
		t.Errorf("role = %s, want %s", created.Role, domain.RoleClient)
	}
	if created.CreatedBy != partner.ID {
		t.Errorf("createdBy = %s, want the creating partner %s", created.CreatedBy, partner.ID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(domain.ClientOnboardingPassword)); err != nil {
		t.Errorf("client must receive the fixed onboarding password: %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("client creation publishes no event, got %v", notifier.types())
	}
}

func TestAccountService_Create_EmailTakenThenFreedByDelete(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleSuperAdmin, "")

	first, err := svc.CreateAdmin(context.Background(), actor, ports.CreateAccountInput{
		Name: "A", Email: "dup@wassali.tn", Password: "pw",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.CreateAdmin(context.Background(), actor, ports.CreateAccountInput{
		Name: "B", Email: "dup@wassali.tn", Password: "pw",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := svc.SoftDelete(context.Background(), actor, first.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	// Retiring the account frees its email for reuse.
	if _, err := svc.CreateAdmin(context.Background(), actor, ports.CreateAccountInput{
		Name: "C", Email: "dup@wassali.tn", Password: "pw",
	}); err != nil {
		t.Fatalf("email should be reusable after soft delete, got %v", err)
	}
}

func TestAccountService_CreateDriver_CreatorWithoutZone(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdminAssistant, "")

	_, err := svc.CreateDriver(context.Background(), actor, ports.CreateAccountInput{
		Name: "D", Email: "d@wassali.tn", Password: "pw",
	})
	if !errors.Is(err, domain.ErrMissingZone) {
		t.Fatalf("expected ErrMissingZone, got %v", err)
	}
}

func TestAccountService_CreateDriver_Success(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	admin, actor := seedActor(repo, domain.RoleAdmin, domain.RegionSousse)

	created, err := svc.CreateDriver(context.Background(), actor, ports.CreateAccountInput{
		Name: "Karim", Email: "karim@wassali.tn", Password: "drv-pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Zone != domain.RegionSousse {
		t.Errorf("zone = %s, want %s", created.Zone, domain.RegionSousse)
	}

	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventDriverCreated {
		t.Fatalf("events = %v, want [DRIVER_CREATED]", notifier.types())
	}
	payload := notifier.events[0].payload.(driverCreatedPayload)
	if payload.CreatorID != admin.ID || payload.InitialPassword != "drv-pass" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestAccountService_Update_Success(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionTunis)
	driver := repo.seed(&domain.Account{
		Name: "Old", Email: "old@wassali.tn", Role: domain.RoleDriver, IsValid: true,
	})

	name := "New Name"
	phone := "+216 20 123 456"
	updated, err := svc.Update(context.Background(), actor, driver.ID, ports.AccountPatch{
		Name: &name, Phone: &phone,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != name || updated.Phone != phone {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Role != domain.RoleDriver {
		t.Errorf("role changed on update")
	}
	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventUserUpdated {
		t.Fatalf("events = %v, want [USER_UPDATED]", notifier.types())
	}
}

func TestAccountService_Update_EmailConflict(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionTunis)
	repo.seed(&domain.Account{Name: "Other", Email: "taken@wassali.tn", Role: domain.RoleDriver})
	driver := repo.seed(&domain.Account{Name: "D", Email: "d@wassali.tn", Role: domain.RoleDriver})

	email := "taken@wassali.tn"
	_, err := svc.Update(context.Background(), actor, driver.ID, ports.AccountPatch{Email: &email})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("no event expected, got %v", notifier.types())
	}
}

func TestAccountService_Update_Forbidden(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleDriver, "")
	admin := repo.seed(&domain.Account{Name: "A", Email: "a@wassali.tn", Role: domain.RoleAdmin})

	name := "Hacked"
	_, err := svc.Update(context.Background(), actor, admin.ID, ports.AccountPatch{Name: &name})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAccountService_Update_UnknownTarget(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionTunis)

	name := "X"
	_, err := svc.Update(context.Background(), actor, "missing", ports.AccountPatch{Name: &name})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_ValidatePartner_FlipsAndNotifies(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionTunis)
	partner := repo.seed(&domain.Account{Name: "P", Email: "p@wassali.tn", Role: domain.RolePartner})

	validated, err := svc.ValidatePartner(context.Background(), actor, partner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !validated.IsValid {
		t.Errorf("partner should be valid after validation")
	}

	invalidated, err := svc.InvalidatePartner(context.Background(), actor, partner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invalidated.IsValid {
		t.Errorf("partner should be invalid after invalidation")
	}

	want := []domain.EventType{domain.EventPartnerValidated, domain.EventPartnerInvalidated}
	got := notifier.types()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestAccountService_ValidatePartner_NonPartnerTarget(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionTunis)
	driver := repo.seed(&domain.Account{Name: "D", Email: "d@wassali.tn", Role: domain.RoleDriver})

	_, err := svc.ValidatePartner(context.Background(), actor, driver.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAccountService_SoftDelete_Success(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleSuperAdmin, "")
	partner := repo.seed(&domain.Account{Name: "P", Email: "p@wassali.tn", Role: domain.RolePartner})

	deleted, err := svc.SoftDelete(context.Background(), actor, partner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.DeletedAt == nil {
		t.Fatalf("deletedAt not set")
	}
	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventUserDeleted {
		t.Fatalf("events = %v, want [USER_DELETED]", notifier.types())
	}

	// The account no longer resolves through reads.
	if _, err := svc.GetByID(context.Background(), partner.ID); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("deleted account should be invisible, got %v", err)
	}
}

func TestAccountService_SoftDelete_AlreadyDeleted(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleSuperAdmin, "")
	partner := repo.seed(&domain.Account{Name: "P", Email: "p@wassali.tn", Role: domain.RolePartner})

	if _, err := svc.SoftDelete(context.Background(), actor, partner.ID); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}

	_, err := svc.SoftDelete(context.Background(), actor, partner.ID)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("second delete must be NotFound, got %v", err)
	}

	want := []domain.EventType{domain.EventUserDeleted, domain.EventUserDeletionFailed}
	got := notifier.types()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestAccountService_SoftDelete_UnknownID(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleSuperAdmin, "")

	_, err := svc.SoftDelete(context.Background(), actor, "ghost")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventUserDeletionFailed {
		t.Fatalf("events = %v, want [USER_DELETION_FAILED]", notifier.types())
	}
}

func TestAccountService_SoftDelete_Forbidden(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionTunis)
	other := repo.seed(&domain.Account{Name: "A2", Email: "a2@wassali.tn", Role: domain.RoleAdmin})

	_, err := svc.SoftDelete(context.Background(), actor, other.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("no event expected on a denied delete, got %v", notifier.types())
	}
}

func TestAccountService_SoftDelete_StoreFailure(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleSuperAdmin, "")
	partner := repo.seed(&domain.Account{Name: "P", Email: "p@wassali.tn", Role: domain.RolePartner})

	storeErr := errors.New("connection reset")
	repo.softDeleteErr = storeErr

	_, err := svc.SoftDelete(context.Background(), actor, partner.ID)
	if !errors.Is(err, storeErr) {
		t.Fatalf("store error must propagate, got %v", err)
	}

	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventCriticalError {
		t.Fatalf("events = %v, want [CRITICAL_ERROR]", notifier.types())
	}
	payload := notifier.events[0].payload.(criticalErrorPayload)
	if payload.Action != "ACCOUNT_SOFT_DELETE" || payload.UserID != partner.ID {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestAccountService_ListClientsOf(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	partner, _ := seedActor(repo, domain.RolePartner, "")
	repo.seed(&domain.Account{Name: "C1", Email: "c1@x.tn", Role: domain.RoleClient, CreatedBy: partner.ID})
	repo.seed(&domain.Account{Name: "C2", Email: "c2@x.tn", Role: domain.RoleClient, CreatedBy: partner.ID})
	repo.seed(&domain.Account{Name: "C3", Email: "c3@x.tn", Role: domain.RoleClient, CreatedBy: "someone_else"})

	clients, err := svc.ListClientsOf(context.Background(), partner.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("got %d clients, want 2", len(clients))
	}
}

func TestAccountService_ListByRole_InvalidRole(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)

	_, err := svc.ListByRole(context.Background(), domain.Role("MANAGER"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAccountService_ListByZoneAndRole(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, domain.RegionSfax)
	repo.seed(&domain.Account{Name: "D1", Email: "d1@x.tn", Role: domain.RoleDriver, Zone: domain.RegionSfax})
	repo.seed(&domain.Account{Name: "D2", Email: "d2@x.tn", Role: domain.RoleDriver, Zone: domain.RegionTunis})

	drivers, err := svc.ListByZoneAndRole(context.Background(), actor, domain.RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drivers) != 1 || drivers[0].Zone != domain.RegionSfax {
		t.Fatalf("expected only the caller-zone driver, got %+v", drivers)
	}
}

func TestAccountService_ListByZoneAndRole_CallerWithoutZone(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	_, actor := seedActor(repo, domain.RoleAdmin, "")

	_, err := svc.ListByZoneAndRole(context.Background(), actor, domain.RoleDriver)
	if !errors.Is(err, domain.ErrMissingZone) {
		t.Fatalf("expected ErrMissingZone, got %v", err)
	}
}

func TestAccountService_RoleCounts_ComputesAndCaches(t *testing.T) {
	repo := newStubRepo()
	svc, _, stats := newTestService(repo)
	repo.seed(&domain.Account{Name: "D1", Email: "d1@x.tn", Role: domain.RoleDriver})
	repo.seed(&domain.Account{Name: "D2", Email: "d2@x.tn", Role: domain.RoleDriver})
	repo.seed(&domain.Account{Name: "AS", Email: "as@x.tn", Role: domain.RoleAdminAssistant})

	counts, err := svc.RoleCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Drivers != 2 || counts.AdminAssistants != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if stats.roleCounts == nil {
		t.Fatalf("counts not written to the cache")
	}

	// A warm cache short-circuits the store.
	stats.roleCounts = &ports.RoleCounts{Drivers: 99, AdminAssistants: 7}
	counts, err = svc.RoleCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Drivers != 99 {
		t.Fatalf("cached counts not served: %+v", counts)
	}
}

func TestAccountService_PartnerCounts(t *testing.T) {
	repo := newStubRepo()
	svc, _, _ := newTestService(repo)
	repo.seed(&domain.Account{Name: "P1", Email: "p1@x.tn", Role: domain.RolePartner, IsValid: true})
	repo.seed(&domain.Account{Name: "P2", Email: "p2@x.tn", Role: domain.RolePartner})
	repo.seed(&domain.Account{Name: "P3", Email: "p3@x.tn", Role: domain.RolePartner})

	counts, err := svc.PartnerCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Total != 3 || counts.Active != 1 || counts.Inactive != 2 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestAccountService_EnsureSuperAdmin_Idempotent(t *testing.T) {
	repo := newStubRepo()
	svc, notifier, _ := newTestService(repo)

	if err := svc.EnsureSuperAdmin(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc, err := repo.FindByEmail(context.Background(), "root@wassali.tn")
	if err != nil {
		t.Fatalf("bootstrap account not created: %v", err)
	}
	if acc.Role != domain.RoleSuperAdmin || !acc.IsValid {
		t.Fatalf("unexpected bootstrap account: %+v", acc)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte("superAdmin123")); err != nil {
		t.Errorf("bootstrap password mismatch: %v", err)
	}

	// Second run must not touch the existing account or publish again.
	if err := svc.EnsureSuperAdmin(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if n, _ := repo.Count(context.Background(), ports.AccountFilter{Role: domain.RoleSuperAdmin}); n != 1 {
		t.Fatalf("got %d super admins, want 1", n)
	}
	if len(notifier.events) != 1 || notifier.events[0].typ != domain.EventAdminCreated {
		t.Fatalf("events = %v, want a single ADMIN_CREATED", notifier.types())
	}
}
