package session

import (
	"context"
	"errors"
	"sync"

	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/google/uuid"
)

var ErrNoSession = errors.New("session not found")

// State is what a visitor's widget remembers between lookups.
type State struct {
	City  string           `json:"city"`
	Units model.UnitSystem `json:"units"`
}

// Store keeps session state and a per-session lookup generation. A lookup
// takes a new generation before fetching and only renders if it still holds
// the latest one when the response arrives.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, st State) error
	NextGeneration(ctx context.Context, id string) (int64, error)
	Generation(ctx context.Context, id string) (int64, error)
}

func NewID() string {
	return uuid.NewString()
}

// MemoryStore is a process-local Store used by the terminal client and tests.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
	gens   map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]State),
		gens:   make(map[string]int64),
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return State{}, ErrNoSession
	}
	return st, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = st
	return nil
}

func (m *MemoryStore) NextGeneration(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[id]++
	return m.gens[id], nil
}

func (m *MemoryStore) Generation(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[id], nil
}
