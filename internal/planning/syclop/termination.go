package syclop

import (
	"context"
	"time"
)

// TerminationCondition is polled once per outer iteration of Solve.
// Implementations must be cheap.
type TerminationCondition interface {
	ShouldTerminate() bool
}

// TerminationFunc adapts a function to TerminationCondition.
type TerminationFunc func() bool

// ShouldTerminate implements TerminationCondition.
func (f TerminationFunc) ShouldTerminate() bool { return f() }

// Timeout terminates once d has elapsed since the call to Timeout.
func Timeout(d time.Duration) TerminationCondition {
	deadline := time.Now().Add(d)
	return TerminationFunc(func() bool { return !time.Now().Before(deadline) })
}

// ContextDone terminates once ctx is cancelled or its deadline passes.
func ContextDone(ctx context.Context) TerminationCondition {
	return TerminationFunc(func() bool { return ctx.Err() != nil })
}

// MaxIterations terminates after n polls have returned false.  The returned
// condition is stateful and must not be shared between Solve calls.
func MaxIterations(n int) TerminationCondition {
	polls := 0
	return TerminationFunc(func() bool {
		if polls >= n {
			return true
		}
		polls++
		return false
	})
}

// Any terminates as soon as one of conds does.  Nil entries are skipped.
func Any(conds ...TerminationCondition) TerminationCondition {
	return TerminationFunc(func() bool {
		for _, c := range conds {
			if c != nil && c.ShouldTerminate() {
				return true
			}
		}
		return false
	})
}
