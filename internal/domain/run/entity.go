// Package run holds the planning-run aggregate and the ports through which the
// application layer persists, publishes and archives finished runs.
package run

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/syclop/pkg/errors"
)

// Status is the lifecycle state of a planning run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusExhausted Status = "exhausted"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusExhausted || s == StatusFailed
}

var allowedTransitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusFailed},
	StatusRunning: {StatusSuccess, StatusExhausted, StatusFailed},
}

// Stats mirrors the planner counters that are worth keeping per run.
type Stats struct {
	Iterations        int `json:"iterations"`
	ShortestPathLeads int `json:"shortest_path_leads"`
	RandomLeads       int `json:"random_leads"`
	Explorations      int `json:"explorations"`
	EarlyAbandons     int `json:"early_abandons"`
	ExtendCalls       int `json:"extend_calls"`
	MotionsAdded      int `json:"motions_added"`
	EmptyAvailable    int `json:"empty_available"`
}

// Run is one execution of the planner against a scenario.
type Run struct {
	ID          uuid.UUID     `json:"id"`
	Scenario    string        `json:"scenario"`
	Seed        int64         `json:"seed"`
	Status      Status        `json:"status"`
	Stats       Stats         `json:"stats"`
	TreeSize    int           `json:"tree_size"`
	Lead        []int         `json:"lead,omitempty"`
	Path        [][]float64   `json:"path,omitempty"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewRun creates a pending run for the named scenario.
func NewRun(scenario string, seed int64) (*Run, error) {
	if scenario == "" {
		return nil, errors.InvalidParam("run scenario name is required")
	}
	return &Run{
		ID:        uuid.New(),
		Scenario:  scenario,
		Seed:      seed,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// LeadLength is the number of regions in the last lead the planner followed.
func (r *Run) LeadLength() int { return len(r.Lead) }

// Start moves the run into StatusRunning.
func (r *Run) Start() error {
	return r.transition(StatusRunning)
}

// Complete records the outcome of a finished Solve call.  status must be
// StatusSuccess or StatusExhausted.
func (r *Run) Complete(status Status, stats Stats, treeSize int, lead []int, path [][]float64, elapsed time.Duration) error {
	if status != StatusSuccess && status != StatusExhausted {
		return errors.InvalidParam(fmt.Sprintf("run cannot complete with status %q", status))
	}
	if err := r.transition(status); err != nil {
		return err
	}
	r.Stats = stats
	r.TreeSize = treeSize
	r.Lead = append([]int(nil), lead...)
	r.Path = path
	r.Elapsed = elapsed
	r.finish()
	return nil
}

// Fail marks the run as failed with cause.
func (r *Run) Fail(cause error, elapsed time.Duration) error {
	if err := r.transition(StatusFailed); err != nil {
		return err
	}
	if cause != nil {
		r.Error = cause.Error()
	}
	r.Elapsed = elapsed
	r.finish()
	return nil
}

func (r *Run) transition(next Status) error {
	for _, s := range allowedTransitions[r.Status] {
		if s == next {
			r.Status = next
			return nil
		}
	}
	return errors.New(errors.CodeInvalidParam,
		fmt.Sprintf("illegal run status transition %q → %q", r.Status, next)).
		WithDetail("run_id=" + r.ID.String())
}

func (r *Run) finish() {
	now := time.Now().UTC()
	r.CompletedAt = &now
}
