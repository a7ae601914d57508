// Package schema defines the HCL block structure of a specification.hcl
// file. These structs are decoded by gohcl and then translated into the
// format-agnostic config model by the hclspec package.
package schema

import "github.com/hashicorp/hcl/v2"

// OptionsBlock holds the free-form `options` block. Its attributes are
// extracted generically, so the body is kept raw.
type OptionsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Module represents a `module` block declaring one firmware module overlay.
// All attributes are optional at the schema level; semantic requirements
// (a URL for additions, a name for overrides) are enforced by the resolver.
type Module struct {
	URL    string `hcl:"url,optional"`
	Commit string `hcl:"commit,optional"`
	Name   string `hcl:"name,optional"`
}

// Spec represents the top-level structure of a specification.hcl file.
type Spec struct {
	Name        string        `hcl:"name,optional"`
	Description string        `hcl:"description,optional"`
	Options     *OptionsBlock `hcl:"options,block"`
	Modules     []*Module     `hcl:"module,block"`
}
