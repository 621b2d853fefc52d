package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/repository"
)

const testPassword = "correct-horse"

type memoryRevocations struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (m *memoryRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok, nil
}

type fixture struct {
	store      *repository.MemoryStore
	directory  *directory.Directory
	tokens     *auth.TokenManager
	revoked    *memoryRevocations
	guard      *auth.AuthorityGuard
	dispatcher events.Dispatcher
	published  []events.Event
	authority  *AuthorityService
	dashboard  *DashboardService
	citizen    *CitizenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      repository.NewMemoryStore(),
		directory:  directory.New(),
		tokens:     auth.NewTokenManager("service-test-secret", 8*time.Hour, 24*time.Hour, 24*time.Hour),
		revoked:    &memoryRevocations{ids: map[string]time.Time{}},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	record := func(_ context.Context, event events.Event) error {
		f.published = append(f.published, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventComplaintSubmitted,
		events.EventComplaintStatusChanged,
		events.EventComplaintPriorityChanged,
		events.EventComplaintAssigned,
	} {
		f.dispatcher.Subscribe(eventType, record)
	}

	f.guard = auth.NewAuthorityGuard(auth.GuardDependencies{
		Tokens:     f.tokens,
		Accounts:   f.store.Accounts(),
		Revocation: f.revoked,
		Directory:  f.directory,
	})
	f.authority = NewAuthorityService(AuthorityDependencies{
		AccountRepo: f.store.Accounts(),
		Tokens:      f.tokens,
		Guard:       f.guard,
		Revocation:  f.revoked,
		Directory:   f.directory,
	})
	f.dashboard = NewDashboardService(DashboardDependencies{
		ComplaintRepo: f.store.Complaints(),
		HistoryRepo:   f.store.History(),
		Directory:     f.directory,
		Dispatcher:    f.dispatcher,
	})
	f.citizen = NewCitizenService(config.AuthConfig{BcryptCost: 4}, CitizenDependencies{
		AccountRepo:   f.store.Accounts(),
		ComplaintRepo: f.store.Complaints(),
		Tokens:        f.tokens,
		Dispatcher:    f.dispatcher,
	})
	return f
}

func (f *fixture) account(t *testing.T, username string, staff bool, dept domain.Department) *domain.Account {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)
	account := &domain.Account{
		Username:     username,
		Name:         username + " name",
		PasswordHash: hash,
		IsStaff:      staff,
		IsActive:     true,
		Department:   dept,
	}
	require.NoError(t, f.store.Accounts().Create(context.Background(), account))
	return account
}

func principalFor(account *domain.Account) *auth.AuthorityPrincipal {
	return &auth.AuthorityPrincipal{Account: account, Department: account.Department}
}

func (f *fixture) complaint(t *testing.T, owner *domain.Account, dept domain.Department, status domain.ComplaintStatus, priority domain.ComplaintPriority, title string) *domain.Complaint {
	t.Helper()
	complaint := &domain.Complaint{
		OwnerID:            owner.ID,
		Category:           domain.ComplaintCategoryOthers,
		Title:              title,
		Description:        title + " description",
		Location:           "Ward 4",
		Priority:           priority,
		AssignedDepartment: dept,
		Status:             status,
	}
	require.NoError(t, f.store.Complaints().Create(context.Background(), complaint))
	return complaint
}
