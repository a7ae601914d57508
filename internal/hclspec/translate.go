package hclspec

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/firmware-grid/fwplan/internal/config"
	"github.com/firmware-grid/fwplan/internal/schema"
)

// translate converts the HCL-specific schema into the agnostic model.
func (l *Loader) translate(s *schema.Spec, path string) (*config.NodeSpec, error) {
	node := &config.NodeSpec{
		Name:        s.Name,
		Description: s.Description,
	}

	for _, m := range s.Modules {
		node.Modules = append(node.Modules, &config.ModuleSpec{
			URL:    m.URL,
			Commit: m.Commit,
			Name:   m.Name,
		})
	}

	opts, err := l.extractOptions(s.Options, path)
	if err != nil {
		return nil, err
	}
	node.Options = opts

	return node, nil
}

// extractOptions evaluates every attribute of the options block and
// converts it to a string. Backends consume options as plain key/value
// pairs, so all scalar HCL types are accepted and stringified.
func (l *Loader) extractOptions(block *schema.OptionsBlock, path string) (map[string]string, error) {
	if block == nil || block.Body == nil {
		return nil, nil
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid options block in %s: %w", path, diags)
	}
	if len(attrs) == 0 {
		return nil, nil
	}

	opts := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid option %q in %s: %w", name, path, diags)
		}
		strVal, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("option %q in %s is not a scalar value: %w", name, path, err)
		}
		if strVal.IsNull() {
			return nil, fmt.Errorf("option %q in %s is null", name, path)
		}
		opts[name] = strVal.AsString()
	}
	return opts, nil
}
