// Package spectree walks a firmware test specification directory hierarchy
// and turns it into an in-memory tree of nodes carrying configuration
// overlays. Parsing is recursive descent over the directory structure;
// sibling order is the sorted directory order and is preserved because it
// determines reporting order downstream.
package spectree

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/firmware-grid/fwplan/internal/config"
	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/fsutil"
)

// Loader builds a spec tree from disk. The configured format loaders are
// probed per directory; a directory may use at most one format.
type Loader struct {
	formats []config.Loader
}

// New creates a tree loader backed by the given format loaders.
func New(formats ...config.Loader) *Loader {
	if len(formats) == 0 {
		panic("spectree: at least one format loader is required")
	}
	return &Loader{formats: formats}
}

// Load parses the spec tree rooted at rootDir and returns its root node.
// All failures are reported as *ParseError.
func (l *Loader) Load(ctx context.Context, rootDir string) (*Node, error) {
	logger := ctxlog.FromContext(ctx)

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, &ParseError{Dir: ".", Reason: "cannot resolve tree root", Err: err}
	}
	logger.Debug("Loading spec tree.", "root", absRoot)

	root, err := l.loadDir(ctx, absRoot, absRoot, nil)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, &ParseError{Dir: ".", Reason: "spec tree root is empty"}
	}
	logger.Debug("Spec tree loaded.", "test_targets", len(root.TestTargets()))
	return root, nil
}

// loadDir builds the node for one directory, recursing into its children.
// Empty directories produce no node and are silently skipped.
func (l *Loader) loadDir(ctx context.Context, rootDir, dir string, parent *Node) (*Node, error) {
	logger := ctxlog.FromContext(ctx)

	rel, err := filepath.Rel(rootDir, dir)
	if err != nil {
		return nil, &ParseError{Dir: dir, Reason: "cannot relativize directory", Err: err}
	}

	empty, err := fsutil.IsEmptyDir(dir)
	if err != nil {
		return nil, &ParseError{Dir: rel, Reason: "cannot read directory", Err: err}
	}
	if empty {
		logger.Debug("Skipping empty directory.", "dir", rel)
		return nil, nil
	}

	node := &Node{
		Name:   filepath.Base(dir),
		Dir:    dir,
		Rel:    rel,
		Parent: parent,
	}

	// The source directory is where specification, sketch and driver are
	// searched. Usually the node directory itself, unless an external
	// redirect is present.
	sourceDir, err := l.resolveSourceDir(node)
	if err != nil {
		return nil, err
	}

	if err := l.loadSpec(ctx, node, sourceDir, rootDir); err != nil {
		return nil, err
	}

	if path, ok := fsutil.FileInDir(sourceDir, SketchBasename); ok {
		node.Sketch = mustRel(rootDir, path)
	}
	if path, ok := fsutil.FileInDir(sourceDir, DriverBasename); ok {
		node.Driver = mustRel(rootDir, path)
	}

	// The trigger file is always looked up in the node directory itself,
	// never behind the external redirect.
	_, trigger := fsutil.FileInDir(node.Dir, TestTriggerBasename)

	subdirs, err := fsutil.Subdirs(node.Dir)
	if err != nil {
		return nil, &ParseError{Dir: rel, Reason: "cannot list subdirectories", Err: err}
	}
	for _, name := range subdirs {
		if name == ExternalBasename {
			continue
		}
		child, err := l.loadDir(ctx, rootDir, filepath.Join(node.Dir, name), node)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}

	if err := checkSiblingNames(node); err != nil {
		return nil, err
	}

	node.TestTarget = trigger || node.IsLeaf()
	return node, nil
}

// resolveSourceDir handles the external-redirect convention: when a node
// contains an external subdirectory, all its content must live there, and
// the node directory may hold nothing else besides the trigger file.
func (l *Loader) resolveSourceDir(node *Node) (string, error) {
	external, ok := fsutil.DirInDir(node.Dir, ExternalBasename)
	if !ok {
		if _, isFile := fsutil.FileInDir(node.Dir, ExternalBasename); isFile {
			return "", &ParseError{
				Dir:    node.Rel,
				Reason: fmt.Sprintf("%s must be a directory", ExternalBasename),
			}
		}
		return node.Dir, nil
	}

	entries, err := fsutil.Entries(node.Dir)
	if err != nil {
		return "", &ParseError{Dir: node.Rel, Reason: "cannot read directory", Err: err}
	}
	for _, entry := range entries {
		if entry == ExternalBasename || entry == TestTriggerBasename {
			continue
		}
		return "", &ParseError{
			Dir: node.Rel,
			Reason: fmt.Sprintf("directory mixes an %s redirect with other content (%q); keep either the redirect or the content",
				ExternalBasename, entry),
		}
	}
	return external, nil
}

// loadSpec probes every configured format for a specification file and
// decodes the single one found, applying its name override.
func (l *Loader) loadSpec(ctx context.Context, node *Node, sourceDir, rootDir string) error {
	var owner config.Loader
	var specPath string
	for _, format := range l.formats {
		path, ok := format.SpecFile(sourceDir)
		if !ok {
			continue
		}
		if owner != nil {
			return &ParseError{
				Dir:    node.Rel,
				Reason: fmt.Sprintf("multiple specification files (%q and %q); declare the node in one format only", mustRel(rootDir, specPath), mustRel(rootDir, path)),
			}
		}
		owner = format
		specPath = path
	}
	if owner == nil {
		return nil
	}

	spec, err := owner.Load(ctx, sourceDir)
	if err != nil {
		return &ParseError{Dir: node.Rel, Reason: "malformed specification", Err: err}
	}
	node.Overlay = spec
	if spec.Name != "" {
		node.Name = spec.Name
	}
	return nil
}

// checkSiblingNames rejects children of one node sharing a name. Names must
// be unique among siblings because they become path segments of the global
// test names.
func checkSiblingNames(node *Node) error {
	seen := make(map[string]*Node, len(node.Children))
	for _, child := range node.Children {
		if prev, ok := seen[child.Name]; ok {
			return &ParseError{
				Dir: node.Rel,
				Reason: fmt.Sprintf("sibling nodes %q and %q share the name %q",
					prev.Rel, child.Rel, child.Name),
			}
		}
		seen[child.Name] = child
	}
	return nil
}

// mustRel is filepath.Rel for paths known to share a common root.
func mustRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		panic(fmt.Sprintf("spectree: path %q not under root %q", path, root))
	}
	return rel
}
