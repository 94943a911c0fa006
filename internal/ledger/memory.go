package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and the local dev profile.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	users   []User
	ops     []Operation
	budgets []BudgetEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// FindUser returns the first user registered for chatID.
func (m *MemoryStore) FindUser(_ context.Context, chatID int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ChatID == chatID {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// InsertUser appends a user row.
func (m *MemoryStore) InsertUser(_ context.Context, name string, chatID int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := User{ID: m.id(), Name: name, ChatID: chatID}
	m.users = append(m.users, u)
	return u, nil
}

// InsertOperation appends an operation row.
func (m *MemoryStore) InsertOperation(_ context.Context, date time.Time, amount float64, chatID int64, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, Operation{ID: m.id(), Date: date, Amount: amount, ChatID: chatID, Kind: kind})
	return nil
}

// ListOperations returns the operations of chatID ordered by date, then insertion.
func (m *MemoryStore) ListOperations(_ context.Context, chatID int64) ([]Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Operation
	for _, op := range m.ops {
		if op.ChatID == chatID {
			out = append(out, op)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// InsertBudget appends a budget row.
func (m *MemoryStore) InsertBudget(_ context.Context, month int, amount float64, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets = append(m.budgets, BudgetEntry{ID: m.id(), Month: month, Amount: amount, ChatID: chatID})
	return nil
}

// FindBudget returns the most recently inserted budget row of chatID for month.
func (m *MemoryStore) FindBudget(_ context.Context, chatID int64, month int) (BudgetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.budgets) - 1; i >= 0; i-- {
		if b := m.budgets[i]; b.ChatID == chatID && b.Month == month {
			return b, nil
		}
	}
	return BudgetEntry{}, ErrNotFound
}

// Users returns a copy of all user rows.
func (m *MemoryStore) Users() []User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]User(nil), m.users...)
}

// Operations returns a copy of all operation rows.
func (m *MemoryStore) Operations() []Operation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Operation(nil), m.ops...)
}

// Budgets returns a copy of all budget rows.
func (m *MemoryStore) Budgets() []BudgetEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]BudgetEntry(nil), m.budgets...)
}
