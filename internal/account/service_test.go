// AngelaMos | 2026
// service_test.go

package account

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/auth"
	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/notify"
)

type memoryRepo struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[string]*Account)}
}

func (m *memoryRepo) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get account by email: %w", core.ErrNotFound)
}

func (m *memoryRepo) Update(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.accounts[a.ID]
	if !ok {
		return fmt.Errorf("update account: %w", core.ErrNotFound)
	}
	cp := *a
	cp.TokenVersion = stored.TokenVersion
	cp.PasswordHash = stored.PasswordHash
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memoryRepo) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}
	a.PasswordHash = hash
	return nil
}

func (m *memoryRepo) IncrementTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("increment token version: %w", core.ErrNotFound)
	}
	a.TokenVersion++
	return nil
}

func (m *memoryRepo) List(_ context.Context, params ListParams) ([]Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if params.Role != "" && a.Role != params.Role {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

type revokerStub struct {
	revoked []string
}

func (r *revokerStub) RevokeAllForAccount(_ context.Context, accountID string) error {
	r.revoked = append(r.revoked, accountID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, ev)
	return nil
}

type fixture struct {
	svc     *Service
	repo    *memoryRepo
	revoker *revokerStub
	pub     *recordingPublisher
}

func newFixture() fixture {
	repo := newMemoryRepo()
	revoker := &revokerStub{}
	pub := &recordingPublisher{}
	clock := core.ClockFunc(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return fixture{
		svc:     NewService(repo, revoker, pub, clock, logger),
		repo:    repo,
		revoker: revoker,
		pub:     pub,
	}
}

func (f fixture) seed(t *testing.T, id, role string) {
	t.Helper()
	require.NoError(t, f.repo.Create(context.Background(), &Account{
		ID:     id,
		Email:  id + "@example.com",
		Role:   role,
		Status: authz.StatusActive,
	}))
}

var superAdmin = authz.Actor{ID: "root", Role: authz.RoleSuperAdmin}

func TestCreateDefaultsAndNormalizes(t *testing.T) {
	f := newFixture()

	info, err := f.svc.Create(context.Background(), auth.Registration{
		Email:            "  Alice@Example.COM ",
		PasswordHash:     "hash",
		Name:             " Alice ",
		Phone:            "066000000",
		SecurityQuestion: "Pet name?",
		SecurityAnswer:   "  Fluffy ",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", info.Email)
	assert.Equal(t, "Alice", info.Name)
	assert.Equal(t, authz.RoleUser, info.Role)
	assert.Equal(t, authz.StatusActive, info.Status)
	assert.True(t, core.CompareAnswer("fluffy", info.SecurityAnswer))
	assert.NotEqual(t, "fluffy", info.SecurityAnswer)

	_, err = f.svc.Create(context.Background(), auth.Registration{
		Email:          "alice@example.com",
		SecurityAnswer: "other",
	})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestUpdateMeLeavesRoleAlone(t *testing.T) {
	f := newFixture()
	f.seed(t, "u1", authz.RoleUser)

	name := "New Name"
	answer := " Blue "
	updated, err := f.svc.UpdateMe(context.Background(), "u1", UpdateMeRequest{
		FullName:       &name,
		SecurityAnswer: &answer,
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.FullName)
	assert.True(t, core.CompareAnswer("BLUE", updated.SecurityAnswer))
	assert.Equal(t, authz.RoleUser, updated.Role)

	_, err = f.svc.UpdateMe(context.Background(), "", UpdateMeRequest{})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestUpdateRole(t *testing.T) {
	f := newFixture()
	f.seed(t, "u1", authz.RoleUser)
	f.seed(t, "boss", authz.RoleSuperAdmin)

	ctx := context.Background()

	updated, err := f.svc.UpdateRole(ctx, superAdmin, "u1", authz.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, updated.Role)

	_, err = f.svc.UpdateRole(ctx, authz.Actor{ID: "a", Role: authz.RoleAdmin}, "u1", authz.RoleUser)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.UpdateRole(ctx, superAdmin, "boss", authz.RoleUser)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.UpdateRole(ctx, superAdmin, "u1", authz.RoleSuperAdmin)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.UpdateRole(ctx, superAdmin, "missing", authz.RoleAdmin)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRoleChangeTerminatesSessions(t *testing.T) {
	f := newFixture()
	f.seed(t, "a1", authz.RoleAdmin)
	ctx := context.Background()

	_, err := f.svc.UpdateRole(ctx, superAdmin, "a1", authz.RoleUser)
	require.NoError(t, err)

	stored, err := f.repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleUser, stored.Role)
	assert.Equal(t, 1, stored.TokenVersion)
	assert.Equal(t, []string{"a1"}, f.revoker.revoked)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, notify.SessionTopic("a1"), f.pub.topics[0])
	assert.Equal(t, notify.TypeSessionTerminated, f.pub.events[0].Type)

	_, err = f.svc.UpdateRole(ctx, superAdmin, "a1", authz.RoleUser)
	require.NoError(t, err)

	stored, err = f.repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TokenVersion, "same role keeps sessions")
	assert.Len(t, f.pub.events, 1)
}

func TestPauseTerminatesSessions(t *testing.T) {
	f := newFixture()
	f.seed(t, "u1", authz.RoleAdmin)

	updated, err := f.svc.UpdateStatus(context.Background(), superAdmin, "u1", authz.StatusPaused)
	require.NoError(t, err)

	assert.Equal(t, authz.StatusPaused, updated.Status)
	assert.Equal(t, authz.RoleAdmin, updated.Role)
	assert.Equal(t, []string{"u1"}, f.revoker.revoked)

	stored, err := f.repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TokenVersion)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, notify.SessionTopic("u1"), f.pub.topics[0])
	assert.Equal(t, notify.TypeSessionTerminated, f.pub.events[0].Type)
}

func TestDeleteMarksRoleDeletedAndIsFinal(t *testing.T) {
	f := newFixture()
	f.seed(t, "u1", authz.RoleUser)
	ctx := context.Background()

	updated, err := f.svc.UpdateStatus(ctx, superAdmin, "u1", authz.StatusDeleted)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleDeleted, updated.Role)

	_, err = f.svc.UpdateStatus(ctx, superAdmin, "u1", authz.StatusActive)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestReactivateDoesNotTerminate(t *testing.T) {
	f := newFixture()
	f.seed(t, "u1", authz.RoleUser)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, superAdmin, "u1", authz.StatusPaused)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, superAdmin, "u1", authz.StatusActive)
	require.NoError(t, err)

	assert.Len(t, f.revoker.revoked, 1)
	assert.Len(t, f.pub.events, 1)
}

func TestListAccountsNeedsAdmin(t *testing.T) {
	f := newFixture()
	f.seed(t, "u1", authz.RoleUser)

	_, _, err := f.svc.ListAccounts(context.Background(), authz.Actor{ID: "u1", Role: authz.RoleUser}, ListParams{})
	assert.ErrorIs(t, err, core.ErrForbidden)

	accounts, total, err := f.svc.ListAccounts(context.Background(), superAdmin, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, accounts, 1)
}
