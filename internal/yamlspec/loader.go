// Package yamlspec is the YAML implementation of the config.Loader
// interface, reading specification.yaml files.
package yamlspec

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/firmware-grid/fwplan/internal/config"
	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/fsutil"
)

// Basename is the file name a node uses to declare its overlay in YAML.
const Basename = "specification.yaml"

// specFile mirrors the YAML document structure of a specification file.
type specFile struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Options     map[string]string `yaml:"options"`
	Modules     []moduleEntry     `yaml:"modules"`
}

type moduleEntry struct {
	URL    string `yaml:"url"`
	Commit string `yaml:"commit"`
	Name   string `yaml:"name"`
}

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML specification loader.
func NewLoader() *Loader {
	return &Loader{}
}

// SpecFile implements config.Loader.
func (l *Loader) SpecFile(dir string) (string, bool) {
	return fsutil.FileInDir(dir, Basename)
}

// Load parses the specification.yaml file inside dir and translates it
// into the format-agnostic model.
func (l *Loader) Load(ctx context.Context, dir string) (*config.NodeSpec, error) {
	logger := ctxlog.FromContext(ctx)

	path, ok := l.SpecFile(dir)
	if !ok {
		return nil, fmt.Errorf("no %s in %s", Basename, dir)
	}
	logger.Debug("Parsing YAML specification.", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var spec specFile
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	node := &config.NodeSpec{
		Name:        spec.Name,
		Description: spec.Description,
		Options:     spec.Options,
	}
	for _, m := range spec.Modules {
		node.Modules = append(node.Modules, &config.ModuleSpec{
			URL:    m.URL,
			Commit: m.Commit,
			Name:   m.Name,
		})
	}
	return node, nil
}
