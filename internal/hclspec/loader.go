// Package hclspec is the HCL implementation of the config.Loader interface,
// reading specification.hcl files.
package hclspec

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/firmware-grid/fwplan/internal/config"
	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/fsutil"
	"github.com/firmware-grid/fwplan/internal/schema"
)

// Basename is the file name a node uses to declare its overlay in HCL.
const Basename = "specification.hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL specification loader.
func NewLoader() *Loader {
	return &Loader{}
}

// SpecFile implements config.Loader.
func (l *Loader) SpecFile(dir string) (string, bool) {
	return fsutil.FileInDir(dir, Basename)
}

// Load parses the specification.hcl file inside dir and translates it into
// the format-agnostic model.
func (l *Loader) Load(ctx context.Context, dir string) (*config.NodeSpec, error) {
	logger := ctxlog.FromContext(ctx)

	path, ok := l.SpecFile(dir)
	if !ok {
		return nil, fmt.Errorf("no %s in %s", Basename, dir)
	}
	logger.Debug("Parsing HCL specification.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var spec schema.Spec
	if diags := gohcl.DecodeBody(file.Body, nil, &spec); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	return l.translate(&spec, path)
}
