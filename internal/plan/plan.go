package plan

import (
	"fmt"

	"github.com/firmware-grid/fwplan/internal/config"
)

// BuildRecord is one build-unit definition in the emitted plan, consumed
// by the build backend.
type BuildRecord struct {
	// ID is the stable plan-local identifier ("build-1", "build-2", ...)
	// assigned in fingerprint order.
	ID          string              `json:"id"`
	Fingerprint string              `json:"fingerprint"`
	Sketch      string              `json:"sketch"`
	Modules     []config.ModuleSpec `json:"modules,omitempty"`
	Options     map[string]string   `json:"options,omitempty"`
}

// Origins names the directories the test's inherited attributes were found
// in. The build backend ignores them; they exist for reporting.
type Origins struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Driver      string `json:"driver,omitempty"`
	Build       string `json:"build,omitempty"`
}

// TestRecord is one test-case definition in the emitted plan, consumed by
// the test backend once its owning build unit's artifact exists. The
// driver payload is opaque to the core.
type TestRecord struct {
	// ID is the stable plan-local identifier ("test-1", "test-2", ...)
	// assigned in tree order.
	ID string `json:"id"`
	// Name is the global dotted name, unique across the whole plan.
	Name        string  `json:"name"`
	BuildID     string  `json:"buildId"`
	Driver      string  `json:"driver"`
	Description string  `json:"description"`
	Origins     Origins `json:"origins"`
}

// Plan is the ordered output of resolution: every build-unit definition
// first, then every test case referencing its owning build unit. Once
// emitted a plan is read-only.
type Plan struct {
	Builds []*BuildRecord `json:"builds"`
	Tests  []*TestRecord  `json:"tests"`
}

// BuildByID returns the build record with the given identifier.
func (p *Plan) BuildByID(id string) (*BuildRecord, bool) {
	for _, b := range p.Builds {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// NamingCollisionError reports two distinct test targets producing the
// same global name. The plan would be ambiguous, so this is fatal.
type NamingCollisionError struct {
	Name string
	Dirs [2]string
}

// Error implements the error interface.
func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("tests in %q and %q share the name %q; give every test an individual name",
		e.Dirs[0], e.Dirs[1], e.Name)
}
