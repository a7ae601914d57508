package resolve

import (
	"fmt"
	"strings"
)

// IncompleteError reports a test target whose merged configuration is
// missing a mandatory key. It is fatal: the owning build unit could never
// be built.
type IncompleteError struct {
	// Dir is the test target's directory, relative to the tree root.
	Dir     string
	Missing []string
}

// Error implements the error interface.
func (e *IncompleteError) Error() string {
	return fmt.Sprintf("test target %q: incomplete configuration, missing %s",
		e.Dir, strings.Join(e.Missing, ", "))
}

// OverlayError reports an overlay that attempts something other than
// adding or overriding a value. Unsetting inherited configuration is not
// permitted.
type OverlayError struct {
	Dir    string
	Reason string
}

// Error implements the error interface.
func (e *OverlayError) Error() string {
	return fmt.Sprintf("overlay in %q: %s", e.Dir, e.Reason)
}
