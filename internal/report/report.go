// Package report aggregates the per-node outcomes of one dispatch session
// into the user-facing result: every test is exactly one of pass, fail,
// blocked or skipped, and the three failure shapes ("build failed, tests
// blocked" vs "built, test failed" vs never-ran) stay distinguishable.
package report

import (
	"fmt"
	"io"
)

// Outcome is the final state of one test case.
type Outcome string

const (
	OutcomePass    Outcome = "pass"
	OutcomeFail    Outcome = "fail"
	OutcomeBlocked Outcome = "blocked"
	OutcomeSkipped Outcome = "skipped"
)

// BuildResult is the outcome of one build unit.
type BuildResult struct {
	ID          string
	Fingerprint string
	// Skipped means the build never ran because the session was canceled.
	Skipped bool
	// Err is nil when the build succeeded or never ran.
	Err error
}

// TestResult is the outcome of one test case.
type TestResult struct {
	ID      string
	Name    string
	BuildID string
	Outcome Outcome
	// Reason explains fail/blocked/skipped outcomes.
	Reason string
}

// Results is the aggregated outcome of one dispatch session. Plan order is
// preserved.
type Results struct {
	Builds []BuildResult
	Tests  []TestResult
}

// Counts tallies the tests per outcome.
func (r *Results) Counts() (pass, fail, blocked, skipped int) {
	for _, t := range r.Tests {
		switch t.Outcome {
		case OutcomePass:
			pass++
		case OutcomeFail:
			fail++
		case OutcomeBlocked:
			blocked++
		case OutcomeSkipped:
			skipped++
		}
	}
	return
}

// ExitStatus derives the process exit status: any failed or blocked test
// makes the run nonzero.
func (r *Results) ExitStatus() int {
	_, fail, blocked, _ := r.Counts()
	if fail > 0 || blocked > 0 {
		return 1
	}
	return 0
}

// WriteSummary renders a human-readable summary of the session.
func (r *Results) WriteSummary(w io.Writer) error {
	for _, b := range r.Builds {
		var line string
		switch {
		case b.Skipped:
			line = fmt.Sprintf("BUILD %s (%s): skipped", b.ID, shortFingerprint(b.Fingerprint))
		case b.Err != nil:
			line = fmt.Sprintf("BUILD %s (%s): FAILED: %v", b.ID, shortFingerprint(b.Fingerprint), b.Err)
		default:
			line = fmt.Sprintf("BUILD %s (%s): ok", b.ID, shortFingerprint(b.Fingerprint))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	for _, t := range r.Tests {
		line := fmt.Sprintf("TEST %s: %s", t.Name, t.Outcome)
		if t.Reason != "" {
			line += " (" + t.Reason + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	pass, fail, blocked, skipped := r.Counts()
	_, err := fmt.Fprintf(w, "%d passed, %d failed, %d blocked, %d skipped\n",
		pass, fail, blocked, skipped)
	return err
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
