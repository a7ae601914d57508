package spectree

import "github.com/firmware-grid/fwplan/internal/config"

// Well-known entries inside a spec tree directory.
const (
	// TestTriggerBasename marks an interior node as a test target.
	TestTriggerBasename = "__test__"
	// ExternalBasename names a subdirectory (e.g. a git submodule) that
	// holds the node's specification in place of the node directory itself.
	ExternalBasename = "__external__"
	// SketchBasename is the firmware sketch source file.
	SketchBasename = "sketch.ino"
	// DriverBasename is the test driver executed against the built firmware.
	DriverBasename = "driver.py"
)

// Node is one directory of the spec tree. Configuration attached to a node
// applies to the node and its whole subtree; inheritance is strictly
// downward.
type Node struct {
	// Name is the node's path segment: the spec file's name override when
	// present, otherwise the directory basename. Unique among siblings.
	Name string
	// Dir is the absolute directory of the node.
	Dir string
	// Rel is the directory relative to the tree root ("." for the root).
	Rel string
	// Overlay is the node's partial configuration, nil when the directory
	// has no specification file.
	Overlay *config.NodeSpec
	// Sketch is the firmware sketch found at this level, relative to the
	// tree root. Empty means inherit.
	Sketch string
	// Driver is the test driver found at this level, relative to the tree
	// root. Empty means inherit.
	Driver string
	// TestTarget reports whether tests are generated at this node: every
	// leaf is a test target, and interior nodes opt in with the trigger
	// file.
	TestTarget bool

	Parent   *Node
	Children []*Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits the subtree rooted at n in depth-first preorder, preserving
// sibling order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// TestTargets returns every test-target node of the subtree in tree order.
func (n *Node) TestTargets() []*Node {
	var targets []*Node
	n.Walk(func(node *Node) {
		if node.TestTarget {
			targets = append(targets, node)
		}
	})
	return targets
}
