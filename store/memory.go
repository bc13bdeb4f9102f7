package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	papertrade "github.com/etnz/papertrade"
)

// Memory keeps everything in process memory. It is meant for tests and
// throwaway servers.
type Memory struct {
	mu      sync.RWMutex
	ledgers map[string][]byte
	users   map[string]User
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		ledgers: make(map[string][]byte),
		users:   make(map[string]User),
	}
}

func (m *Memory) CreateLedger(_ context.Context, l *papertrade.Ledger) error {
	data, err := encode(l)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.ledgers[l.ID()]; exists {
		return fmt.Errorf("portfolio %s: %w", l.ID(), ErrPortfolioExists)
	}
	m.ledgers[l.ID()] = data
	return nil
}

func (m *Memory) LoadLedger(_ context.Context, id string) (*papertrade.Ledger, error) {
	m.mu.RLock()
	data, ok := m.ledgers[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return decode(id, data)
}

func (m *Memory) SaveLedger(_ context.Context, l *papertrade.Ledger) error {
	data, err := encode(l)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.ledgers[l.ID()]; !exists {
		return notFound(l.ID())
	}
	m.ledgers[l.ID()] = data
	return nil
}

func (m *Memory) DeleteLedger(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.ledgers[id]; !exists {
		return notFound(id)
	}
	delete(m.ledgers, id)
	return nil
}

func (m *Memory) ListLedgers(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.ledgers)), nil
}

func (m *Memory) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Name]; exists {
		return fmt.Errorf("user %q: %w", u.Name, ErrUserExists)
	}
	m.users[u.Name] = u
	return nil
}

func (m *Memory) User(_ context.Context, name string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[name]
	if !ok {
		return User{}, fmt.Errorf("user %q: %w", name, ErrUserNotFound)
	}
	return u, nil
}

func (m *Memory) Close() error { return nil }
