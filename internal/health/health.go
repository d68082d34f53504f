// Package health runs readiness checks against the collaborators a trainer
// depends on: the sample store, the phonemizers and the speech recognizer.
//
// A [Report] is a JSON object with a top-level "status" field ("ok" or
// "fail") and a "checks" map containing the result of each named checker.
package health

import (
	"context"
	"time"
)

// DefaultTimeout is the maximum time a single check may take before its
// context is cancelled.
const DefaultTimeout = 5 * time.Second

// Status values reported in [Report.Status].
const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// Checker is a named readiness check. Check should return nil when the
// dependency is usable and a non-nil error describing the failure otherwise.
type Checker struct {
	// Name is a short label for this check (e.g. "samples/en", "stt"). It
	// appears as a key in the report.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// Report is the outcome of [Runner.Run].
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// OK reports whether every check passed.
func (r Report) OK() bool { return r.Status == StatusOK }

// Runner evaluates a fixed list of checkers. It is safe for concurrent use.
type Runner struct {
	checkers []Checker
	timeout  time.Duration
}

// New creates a [Runner] for the given checkers. They are evaluated
// sequentially in the order provided.
func New(checkers ...Checker) *Runner {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Runner{checkers: c, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of r whose checks are bounded by d.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	return &Runner{checkers: r.checkers, timeout: d}
}

// Run evaluates every checker, each with a context deadline of the runner's
// timeout derived from ctx. A failing check does not stop the remaining
// ones.
func (r *Runner) Run(ctx context.Context) Report {
	checks := make(map[string]string, len(r.checkers))
	allOK := true

	for _, c := range r.checkers {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := c.Check(cctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = StatusOK
		}
	}

	rep := Report{Status: StatusOK, Checks: checks}
	if !allOK {
		rep.Status = StatusFail
	}
	return rep
}
