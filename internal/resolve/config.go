package resolve

import (
	"path"
	"strings"

	"github.com/firmware-grid/fwplan/internal/config"
)

// BuildConfig is the fully merged build configuration for one test target.
// Two BuildConfigs describe the same physical firmware build iff every
// field compares equal per key, independent of the order the overlays were
// declared in.
type BuildConfig struct {
	// Sketch is the firmware sketch path, relative to the tree root.
	Sketch string
	// Modules is the effective module set. Order follows first declaration
	// root-to-leaf, with named overrides replacing in place; order carries
	// no identity (the fingerprint canonicalizes it).
	Modules []config.ModuleSpec
	// Options are the merged free-form configuration pairs.
	Options map[string]string
}

// clone returns a deep copy so a child overlay never mutates the
// accumulator its siblings inherit.
func (c *BuildConfig) clone() *BuildConfig {
	dup := &BuildConfig{Sketch: c.Sketch}
	dup.Modules = append(dup.Modules, c.Modules...)
	if c.Options != nil {
		dup.Options = make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			dup.Options[k] = v
		}
	}
	return dup
}

// moduleKey is the identity a module overrides by: its explicit name when
// present, otherwise its URL.
func moduleKey(m config.ModuleSpec) string {
	if m.Name != "" {
		return m.Name
	}
	return m.URL
}

// setModule adds the module to the set, replacing an existing module with
// the same key. Re-declaring an identical module is a no-op.
func (c *BuildConfig) setModule(m config.ModuleSpec) {
	key := moduleKey(m)
	for i, existing := range c.Modules {
		if moduleKey(existing) == key {
			c.Modules[i] = m
			return
		}
	}
	c.Modules = append(c.Modules, m)
}

// setOption applies one overlay pair with override semantics.
func (c *BuildConfig) setOption(key, value string) {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
}

// moduleNameFromURL derives a module name from its repository URL, used
// when the tested module itself is folded into the build set.
func moduleNameFromURL(url string) string {
	base := path.Base(strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git"))
	if base == "." || base == "/" || base == "" {
		return url
	}
	return base
}
