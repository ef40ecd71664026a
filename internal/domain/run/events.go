package run

import (
	"time"

	"github.com/google/uuid"
)

// CompletedEvent is published once a run reaches a terminal status.
type CompletedEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	RunID      string    `json:"run_id"`
	Scenario   string    `json:"scenario"`
	Seed       int64     `json:"seed"`
	Status     Status    `json:"status"`
	Iterations int       `json:"iterations"`
	TreeSize   int       `json:"tree_size"`
	LeadLength int       `json:"lead_length"`
	ElapsedMS  int64     `json:"elapsed_ms"`
	Error      string    `json:"error,omitempty"`
}

// NewCompletedEvent builds the completion event for r.
func NewCompletedEvent(r *Run) *CompletedEvent {
	return &CompletedEvent{
		EventID:    uuid.New().String(),
		OccurredAt: time.Now().UTC(),
		RunID:      r.ID.String(),
		Scenario:   r.Scenario,
		Seed:       r.Seed,
		Status:     r.Status,
		Iterations: r.Stats.Iterations,
		TreeSize:   r.TreeSize,
		LeadLength: r.LeadLength(),
		ElapsedMS:  r.Elapsed.Milliseconds(),
		Error:      r.Error,
	}
}
