// Package backend declares the interface boundary to the external build
// and test collaborators. The core never compiles firmware and never
// executes test binaries itself; it hands plan records across this
// boundary and consumes the results. Retry and timeout policy live behind
// these interfaces, not in the core.
package backend

import (
	"context"

	"github.com/firmware-grid/fwplan/internal/plan"
)

// Builder turns one build-unit definition into a build artifact. Builds
// are mutually independent, so implementations may be called from many
// goroutines at once.
type Builder interface {
	// Build compiles the firmware described by the record and returns a
	// handle to the produced artifact.
	Build(ctx context.Context, rec *plan.BuildRecord) (artifact string, err error)
}

// Tester executes one test case against a completed build artifact. A
// returned error means the test failed; it never aborts sibling tests.
type Tester interface {
	RunTest(ctx context.Context, rec *plan.TestRecord, artifact string) error
}
