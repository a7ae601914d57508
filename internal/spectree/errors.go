package spectree

import "fmt"

// ParseError reports a structurally malformed spec tree. It is fatal: no
// plan is emitted when the tree itself cannot be trusted.
type ParseError struct {
	// Dir is the offending directory, relative to the tree root.
	Dir    string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spec tree node %q: %s: %v", e.Dir, e.Reason, e.Err)
	}
	return fmt.Sprintf("spec tree node %q: %s", e.Dir, e.Reason)
}

// Unwrap exposes the underlying cause, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}
