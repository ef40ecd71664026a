package planning

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/syclop/internal/domain/run"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) Save(ctx context.Context, r *run.Run) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*run.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	args := m.Called(ctx, limit)
	if r := args.Get(0); r != nil {
		return r.([]*run.Run), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishRunCompleted(ctx context.Context, evt *run.CompletedEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type MockQueue struct{ mock.Mock }

func (m *MockQueue) Enqueue(ctx context.Context, req *run.Request) error {
	return m.Called(ctx, req).Error(0)
}

type MockArchive struct{ mock.Mock }

func (m *MockArchive) StoreReport(ctx context.Context, report *run.Report) (string, error) {
	args := m.Called(ctx, report)
	return args.String(0), args.Error(1)
}

type MockExporter struct{ mock.Mock }

func (m *MockExporter) ExportGraph(ctx context.Context, snapshot *run.GraphSnapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

// mapCache is an in-memory run.EstimateCache that counts lookups, stores and
// invalidations.
type mapCache struct {
	mu            sync.Mutex
	data          map[string][]float64
	gets          int
	sets          int
	invalidations int
	getErr        error
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]float64)} }

func (c *mapCache) GetOrCompute(_ context.Context, fp string, compute func() ([]float64, error)) ([]float64, bool, error) {
	c.mu.Lock()
	c.gets++
	if c.getErr != nil {
		c.mu.Unlock()
		return nil, false, c.getErr
	}
	v, ok := c.data[fp]
	c.mu.Unlock()
	if ok {
		return append([]float64(nil), v...), true, nil
	}

	fractions, err := compute()
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[fp] = append([]float64(nil), fractions...)
	return fractions, false, nil
}

func (c *mapCache) Invalidate(_ context.Context, fp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	delete(c.data, fp)
	return nil
}

// corrupt replaces every entry with a single-region estimate.
func (c *mapCache) corrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		c.data[k] = []float64{0.5}
	}
}
