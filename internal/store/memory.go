package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/coopnet/internal/network"
	"github.com/nvandessel/coopnet/internal/sweep"
)

// InMemoryStore implements ResultStore for testing and for runs that are
// not persisted.
type InMemoryStore struct {
	mu     sync.RWMutex
	sweeps map[string]*StoredSweep
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sweeps: make(map[string]*StoredSweep)}
}

// SaveSweep stores a sweep under a fresh UUID.
func (s *InMemoryStore) SaveSweep(ctx context.Context, net *network.Network, report *sweep.Report, meta Meta) (string, error) {
	if net == nil || report == nil {
		return "", fmt.Errorf("network and report are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	createdAt := report.StartedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.sweeps[id] = &StoredSweep{
		SweepSummary: summarize(id, createdAt, report, meta),
		Network:      net,
		Report:       report,
	}
	return id, nil
}

// ListSweeps returns all sweeps, newest first.
func (s *InMemoryStore) ListSweeps(ctx context.Context) ([]SweepSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SweepSummary, 0, len(s.sweeps))
	for _, sw := range s.sweeps {
		out = append(out, sw.SweepSummary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// LoadSweep returns a sweep by ID or unique prefix.
func (s *InMemoryStore) LoadSweep(ctx context.Context, idOrPrefix string) (*StoredSweep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := resolveID(idOrPrefix, s.ids())
	if err != nil {
		return nil, err
	}
	return s.sweeps[id], nil
}

// DeleteSweep removes a sweep by ID or unique prefix.
func (s *InMemoryStore) DeleteSweep(ctx context.Context, idOrPrefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := resolveID(idOrPrefix, s.ids())
	if err != nil {
		return err
	}
	delete(s.sweeps, id)
	return nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) ids() []string {
	ids := make([]string, 0, len(s.sweeps))
	for id := range s.sweeps {
		ids = append(ids, id)
	}
	return ids
}
