// Package resolve merges the chain of configuration overlays from the tree
// root down to every test target into one effective build configuration.
// Resolution is a pure, single-pass, depth-first transformation; nothing in
// the input tree is mutated.
package resolve

import (
	"context"

	"github.com/firmware-grid/fwplan/internal/config"
	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/spectree"
)

// Seed is the configuration surface passed in from the CLI layer. It forms
// the resolver's initial accumulator, before the root node's own overlay.
type Seed struct {
	// ModuleURL is the source location of the tested module.
	ModuleURL string
	// ModuleBranch is the branch or commit of the tested module.
	ModuleBranch string
	// AutoAddModule folds the tested module itself into every build's
	// module set.
	AutoAddModule bool
}

// Origins records the directory each inherited attribute was found in,
// relative to the tree root. Carried through to the plan for reporting.
type Origins struct {
	Name        string
	Description string
	Driver      string
	Build       string
}

// Resolved pairs one test target with its effective build configuration
// and the per-test attributes that ride along with it.
type Resolved struct {
	Node        *spectree.Node
	Config      *BuildConfig
	Driver      string
	Description string
	Origins     Origins
}

// accumulator is the state threaded through the depth-first traversal.
// Build identity (config) and per-test attributes (driver, description)
// inherit independently, mirroring how they live in separate files.
type accumulator struct {
	config      *BuildConfig
	driver      string
	description string
	origins     Origins
}

func (a accumulator) fork() accumulator {
	a.config = a.config.clone()
	return a
}

// Resolve walks the tree and produces, in tree order, one Resolved entry
// per test target. The returned slice covers every test target exactly
// once or the walk fails with *IncompleteError or *OverlayError.
func Resolve(ctx context.Context, root *spectree.Node, seed Seed) ([]*Resolved, error) {
	logger := ctxlog.FromContext(ctx)

	acc := accumulator{config: &BuildConfig{}}
	if seed.AutoAddModule && seed.ModuleURL != "" {
		acc.config.setModule(config.ModuleSpec{
			URL:    seed.ModuleURL,
			Commit: seed.ModuleBranch,
			Name:   moduleNameFromURL(seed.ModuleURL),
		})
		acc.origins.Build = "."
		logger.Debug("Seeded tested module into build set.", "url", seed.ModuleURL)
	}

	var resolved []*Resolved
	if err := walk(ctx, root, acc, &resolved); err != nil {
		return nil, err
	}
	logger.Debug("Resolution complete.", "test_targets", len(resolved))
	return resolved, nil
}

func walk(ctx context.Context, node *spectree.Node, acc accumulator, out *[]*Resolved) error {
	acc = acc.fork()
	if err := apply(node, &acc); err != nil {
		return err
	}

	if node.TestTarget {
		entry, err := snapshot(node, acc)
		if err != nil {
			return err
		}
		*out = append(*out, entry)
	}

	for _, child := range node.Children {
		if err := walk(ctx, child, acc, out); err != nil {
			return err
		}
	}
	return nil
}

// apply merges one node's local overlay onto the accumulator with
// rightmost-wins override semantics per key. Redundant re-declarations of
// an inherited value are a no-op, not an error.
func apply(node *spectree.Node, acc *accumulator) error {
	if node.Sketch != "" {
		acc.config.Sketch = node.Sketch
		acc.origins.Build = node.Rel
	}
	if node.Driver != "" {
		acc.driver = node.Driver
		acc.origins.Driver = node.Rel
	}

	acc.origins.Name = node.Rel
	if node.Overlay == nil {
		return nil
	}
	spec := node.Overlay

	if spec.Description != "" {
		acc.description = spec.Description
		acc.origins.Description = node.Rel
	}
	for _, m := range spec.Modules {
		if m.URL == "" {
			// A named module without a URL is the legacy removal idiom.
			// Overlays may only add or override, never unset.
			return &OverlayError{
				Dir:    node.Rel,
				Reason: "module " + quoteModule(m) + " has no url; removing inherited modules is not supported",
			}
		}
		acc.config.setModule(*m)
		acc.origins.Build = node.Rel
	}
	for key, value := range spec.Options {
		acc.config.setOption(key, value)
		acc.origins.Build = node.Rel
	}
	return nil
}

// snapshot freezes the accumulator into the test target's Resolved entry,
// enforcing that every mandatory key is present.
func snapshot(node *spectree.Node, acc accumulator) (*Resolved, error) {
	var missing []string
	if acc.config.Sketch == "" {
		missing = append(missing, spectree.SketchBasename)
	}
	if acc.driver == "" {
		missing = append(missing, spectree.DriverBasename)
	}
	if acc.description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, &IncompleteError{Dir: node.Rel, Missing: missing}
	}

	return &Resolved{
		Node:        node,
		Config:      acc.config.clone(),
		Driver:      acc.driver,
		Description: acc.description,
		Origins:     acc.origins,
	}, nil
}

func quoteModule(m *config.ModuleSpec) string {
	if m.Name != "" {
		return "\"" + m.Name + "\""
	}
	return "(unnamed)"
}
