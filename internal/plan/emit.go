// Package plan converts deduplicated build units and their member test
// targets into a dependency-ordered plan: build-unit definitions first,
// then test-case definitions bound to them. Build records are emitted in
// fingerprint order and test records in tree order, keeping the output
// reproducible for diffing.
package plan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/dedup"
	"github.com/firmware-grid/fwplan/internal/resolve"
	"github.com/firmware-grid/fwplan/internal/spectree"
)

// Emit builds the ordered plan from the deduplicated units. It fails with
// *NamingCollisionError when two test targets produce the same global name.
func Emit(ctx context.Context, units []*dedup.BuildUnit) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	p := &Plan{}
	buildIDs := make(map[*dedup.BuildUnit]string, len(units))
	for i, unit := range units {
		id := fmt.Sprintf("build-%d", i+1)
		buildIDs[unit] = id
		p.Builds = append(p.Builds, &BuildRecord{
			ID:          id,
			Fingerprint: unit.Fingerprint,
			Sketch:      unit.Config.Sketch,
			Modules:     unit.Config.Modules,
			Options:     unit.Config.Options,
		})
	}

	// Tests are reported in tree order, regardless of which unit owns them.
	type member struct {
		entry *resolve.Resolved
		unit  *dedup.BuildUnit
	}
	var members []member
	for _, unit := range units {
		for _, entry := range unit.Members {
			members = append(members, member{entry: entry, unit: unit})
		}
	}
	position := treePositions(units)
	sort.SliceStable(members, func(i, j int) bool {
		return position[members[i].entry.Node] < position[members[j].entry.Node]
	})

	namesSeen := make(map[string]string)
	for i, m := range members {
		name := GlobalName(m.entry.Node)
		if prevDir, ok := namesSeen[name]; ok {
			return nil, &NamingCollisionError{Name: name, Dirs: [2]string{prevDir, m.entry.Node.Rel}}
		}
		namesSeen[name] = m.entry.Node.Rel

		p.Tests = append(p.Tests, &TestRecord{
			ID:          fmt.Sprintf("test-%d", i+1),
			Name:        name,
			BuildID:     buildIDs[m.unit],
			Driver:      m.entry.Driver,
			Description: m.entry.Description,
			Origins: Origins{
				Name:        m.entry.Origins.Name,
				Description: m.entry.Origins.Description,
				Driver:      m.entry.Origins.Driver,
				Build:       m.entry.Origins.Build,
			},
		})
	}

	logger.Debug("Plan emitted.", "builds", len(p.Builds), "tests", len(p.Tests))
	return p, nil
}

// GlobalName derives the test target's plan-wide name by joining the path
// segments from the root down with dots. A segment identical to its
// parent's is skipped; repeating it would add noise without information.
func GlobalName(node *spectree.Node) string {
	var segments []string
	for n := node; n != nil; n = n.Parent {
		segments = append(segments, n.Name)
	}
	// Reverse into root-first order.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	var kept []string
	for _, segment := range segments {
		if len(kept) > 0 && kept[len(kept)-1] == segment {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, ".")
}

// treePositions maps every node of the tree to its depth-first preorder
// index. Sibling order was fixed at load time, so the index is the tree
// order the spec files were declared in.
func treePositions(units []*dedup.BuildUnit) map[*spectree.Node]int {
	position := make(map[*spectree.Node]int)
	if len(units) == 0 || len(units[0].Members) == 0 {
		return position
	}

	root := units[0].Members[0].Node
	for root.Parent != nil {
		root = root.Parent
	}

	i := 0
	root.Walk(func(n *spectree.Node) {
		position[n] = i
		i++
	})
	return position
}
