package config

import "context"

// Loader is the interface for a format-specific specification loader. A
// loader inspects one directory and, if it owns a specification file there,
// translates it into the format-agnostic NodeSpec.
type Loader interface {
	// SpecFile returns the path of this loader's specification file inside
	// dir, or ok=false when the directory has none in this format.
	SpecFile(dir string) (path string, ok bool)

	// Load parses the specification file inside dir into the
	// format-agnostic model.
	Load(ctx context.Context, dir string) (*NodeSpec, error)
}
