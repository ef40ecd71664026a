package planning

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/pkg/errors"
)

// memoryRepository keeps the most recent runs in process.  It backs
// GetRun/ListRuns when no database is configured.
type memoryRepository struct {
	mu       sync.RWMutex
	capacity int
	runs     map[uuid.UUID]*run.Run
	order    []uuid.UUID
}

func newMemoryRepository(capacity int) *memoryRepository {
	if capacity < 1 {
		capacity = run.MaxListLimit
	}
	return &memoryRepository{capacity: capacity, runs: make(map[uuid.UUID]*run.Run)}
}

func (m *memoryRepository) Save(_ context.Context, r *run.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	if _, ok := m.runs[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	m.runs[r.ID] = &cp
	for len(m.order) > m.capacity {
		delete(m.runs, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*run.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeRunNotFound, "planning run not found").WithDetail("id=" + id.String())
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepository) ListRecent(_ context.Context, limit int) ([]*run.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*run.Run, 0, len(m.runs))
	for _, r := range m.runs {
		cp := *r
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit = run.NormalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
