package store

import (
	"context"
	"sync"

	"github.com/investcalc/calc-engine/internal/model"
)

// MemoryStore implements QuoteStore with a mutex-guarded value. Its
// lifetime is the process: nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	quote model.Quote
	set   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (model.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return model.Quote{}, ErrNotFound
	}
	return s.quote, nil
}

func (s *MemoryStore) Save(_ context.Context, q model.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quote = q
	s.set = true
	return nil
}
