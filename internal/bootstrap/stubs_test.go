package bootstrap

import (
	"context"

	"github.com/turtacn/syclop/internal/domain/run"
)

type stubCache struct{}

func (stubCache) GetOrCompute(_ context.Context, _ string, compute func() ([]float64, error)) ([]float64, bool, error) {
	fractions, err := compute()
	return fractions, false, err
}

func (stubCache) Invalidate(context.Context, string) error { return nil }

type stubQueue struct{}

func (stubQueue) Enqueue(context.Context, *run.Request) error { return nil }
