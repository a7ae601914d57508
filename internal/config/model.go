package config

// NodeSpec is the unified, format-agnostic representation of one node's
// specification file, regardless of whether it was written in YAML or HCL.
// All fields are overlays: an empty value means "inherit from the parent".
type NodeSpec struct {
	// Name overrides the node name derived from the directory basename.
	Name string
	// Description is the human-readable purpose of this subtree's tests.
	Description string
	// Modules lists firmware modules added or overridden at this level.
	Modules []*ModuleSpec
	// Options holds free-form configuration key/value pairs understood by
	// the build backend. Keys override identically-named ancestor keys.
	Options map[string]string
}

// ModuleSpec describes one firmware module (a core module or a plugin),
// identified by its source URL and an optional pinned commit. If no commit
// is given the default branch head is used. A module that carries a Name
// replaces an inherited module with the same name.
type ModuleSpec struct {
	URL    string
	Commit string
	Name   string
}
