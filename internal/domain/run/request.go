package run

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/syclop/internal/config"
)

// Request is a scenario queued for asynchronous planning.
type Request struct {
	ID          uuid.UUID             `json:"id"`
	Scenario    config.ScenarioConfig `json:"scenario"`
	SubmittedAt time.Time             `json:"submitted_at"`
}

// NewRequest wraps sc in a request with a fresh id.
func NewRequest(sc config.ScenarioConfig) *Request {
	return &Request{
		ID:          uuid.New(),
		Scenario:    sc,
		SubmittedAt: time.Now().UTC(),
	}
}

// RequestQueue hands requests to the planning workers.
type RequestQueue interface {
	Enqueue(ctx context.Context, req *Request) error
}
