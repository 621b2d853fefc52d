package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civic-desk/complaint-service/internal/domain"
)

// MemoryStore keeps accounts, complaints and history in process memory.
// It is used when no Postgres DSN is configured and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	accounts   map[int64]domain.Account
	complaints map[int64]domain.Complaint
	history    map[int64][]domain.ComplaintHistory
	nextID     int64
	now        func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[int64]domain.Account),
		complaints: make(map[int64]domain.Complaint),
		history:    make(map[int64][]domain.ComplaintHistory),
		now:        time.Now,
	}
}

// Accounts exposes the store as an AccountRepository.
func (s *MemoryStore) Accounts() AccountRepository { return memoryAccounts{s} }

// Complaints exposes the store as a ComplaintRepository.
func (s *MemoryStore) Complaints() ComplaintRepository { return memoryComplaints{s} }

// History exposes the store as a ComplaintHistoryRepository.
func (s *MemoryStore) History() ComplaintHistoryRepository { return memoryHistory{s} }

func (s *MemoryStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

type memoryAccounts struct{ s *MemoryStore }

func (m memoryAccounts) Create(_ context.Context, account *domain.Account) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.accounts {
		if existing.Username == account.Username {
			return ErrUsernameTaken
		}
	}
	now := m.s.now()
	account.ID = m.s.allocID()
	account.CreatedAt = now
	account.UpdatedAt = now
	m.s.accounts[account.ID] = ownedAccount(*account)
	return nil
}

func (m memoryAccounts) Update(_ context.Context, account *domain.Account) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.accounts[account.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	account.Username = existing.Username
	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = m.s.now()
	m.s.accounts[account.ID] = ownedAccount(*account)
	return nil
}

func (m memoryAccounts) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	account, ok := m.s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &account, nil
}

func (m memoryAccounts) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, account := range m.s.accounts {
		if account.Username == username {
			found := account
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryComplaints struct{ s *MemoryStore }

func (m memoryComplaints) Create(_ context.Context, complaint *domain.Complaint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.accounts[complaint.OwnerID]; !ok {
		return pgx.ErrNoRows
	}
	now := m.s.now()
	complaint.ID = m.s.allocID()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	stored := ownedComplaint(*complaint)
	stored.OwnerName, stored.OwnerUsername = "", ""
	m.s.complaints[complaint.ID] = stored
	*complaint = m.s.withOwner(stored)
	return nil
}

func (m memoryComplaints) Update(_ context.Context, complaint *domain.Complaint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.updateComplaint(complaint)
}

func (m memoryComplaints) UpdateWithHistory(_ context.Context, complaint *domain.Complaint, entries []*domain.ComplaintHistory) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.updateComplaint(complaint); err != nil {
		return err
	}
	for _, entry := range entries {
		entry.ComplaintID = complaint.ID
		m.s.appendHistory(entry)
	}
	return nil
}

func (s *MemoryStore) updateComplaint(complaint *domain.Complaint) error {
	existing, ok := s.complaints[complaint.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Status = complaint.Status
	existing.Priority = complaint.Priority
	existing.AssignedDepartment = complaint.AssignedDepartment
	existing.UpdatedAt = s.now()
	s.complaints[complaint.ID] = existing
	complaint.UpdatedAt = existing.UpdatedAt
	return nil
}

func (m memoryComplaints) GetByID(_ context.Context, id int64) (*domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	complaint, ok := m.s.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	found := m.s.withOwner(complaint)
	return &found, nil
}

func (m memoryComplaints) ListByOwner(_ context.Context, ownerID int64) ([]domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []domain.Complaint
	for _, complaint := range m.s.sortedComplaints() {
		if complaint.OwnerID == ownerID {
			result = append(result, complaint)
		}
	}
	return result, nil
}

func (m memoryComplaints) List(_ context.Context, query domain.ComplaintQuery) ([]domain.Complaint, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var matched []domain.Complaint
	for _, complaint := range m.s.sortedComplaints() {
		if query.Matches(&complaint) {
			matched = append(matched, complaint)
		}
	}
	limit, offset := pageBounds(query)
	total := len(matched)
	if offset >= total {
		return []domain.Complaint{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m memoryComplaints) Stats(_ context.Context, query domain.ComplaintQuery) (domain.ComplaintStats, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	scope := query.Unfiltered()
	var stats domain.ComplaintStats
	for _, complaint := range m.s.complaints {
		if scope.Visible(&complaint) {
			stats.Add(&complaint)
		}
	}
	return stats, nil
}

// sortedComplaints returns complaints newest first with owner fields filled.
func (s *MemoryStore) sortedComplaints() []domain.Complaint {
	out := make([]domain.Complaint, 0, len(s.complaints))
	for _, complaint := range s.complaints {
		out = append(out, s.withOwner(complaint))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ownedAccount detaches the stored copy from buffers the caller may reuse,
// such as request bodies.
func ownedAccount(a domain.Account) domain.Account {
	a.Username = strings.Clone(a.Username)
	a.Name = strings.Clone(a.Name)
	a.Contact = strings.Clone(a.Contact)
	a.Address = strings.Clone(a.Address)
	a.PasswordHash = strings.Clone(a.PasswordHash)
	return a
}

func ownedComplaint(c domain.Complaint) domain.Complaint {
	c.Category = domain.ComplaintCategory(strings.Clone(string(c.Category)))
	c.Title = strings.Clone(c.Title)
	c.Description = strings.Clone(c.Description)
	c.Location = strings.Clone(c.Location)
	c.PhotoPath = strings.Clone(c.PhotoPath)
	return c
}

func (s *MemoryStore) withOwner(complaint domain.Complaint) domain.Complaint {
	if owner, ok := s.accounts[complaint.OwnerID]; ok {
		complaint.OwnerUsername = owner.Username
		complaint.OwnerName = owner.Name
	}
	return complaint
}

type memoryHistory struct{ s *MemoryStore }

func (m memoryHistory) Create(_ context.Context, history *domain.ComplaintHistory) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.appendHistory(history)
	return nil
}

func (s *MemoryStore) appendHistory(history *domain.ComplaintHistory) {
	history.ID = uuid.NewString()
	history.CreatedAt = s.now()
	stored := *history
	stored.OldValue = strings.Clone(history.OldValue)
	stored.NewValue = strings.Clone(history.NewValue)
	s.history[history.ComplaintID] = append(s.history[history.ComplaintID], stored)
}

func (m memoryHistory) ListByComplaint(_ context.Context, complaintID int64) ([]domain.ComplaintHistory, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	entries := m.s.history[complaintID]
	out := make([]domain.ComplaintHistory, len(entries))
	copy(out, entries)
	return out, nil
}
