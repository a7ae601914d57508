// Package graph provides a small concurrency-safe dependency graph used to
// model the emitted plan: build units as producer nodes, test cases as
// consumer nodes depending on them. The dispatcher reads it to drive
// execution order; after construction the graph is never mutated.
package graph

import (
	"fmt"
	"sort"
	"sync"
)

// Graph is a set of nodes and directed dependency edges. All operations
// are safe for concurrent use.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
}

type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// New creates an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode adds a node with the given ID. Adding an existing ID is a no-op.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge records that toID depends on fromID. It fails when either node
// is unknown or the edge would be self-referential.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s", fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	to, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	to.deps[fromID] = from
	from.dependents[toID] = to
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// NodeIDs returns all node IDs, sorted.
func (g *Graph) NodeIDs() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dependencies returns the sorted IDs the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.deps), nil
}

// Dependents returns the sorted IDs that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.dependents), nil
}

// Roots returns the sorted IDs of all nodes without dependencies.
func (g *Graph) Roots() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var roots []string
	for id, n := range g.nodes {
		if len(n.deps) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// DetectCycles returns a non-nil error when the graph contains a cycle,
// naming one node involved in it. Depth-first search with the classic
// permanent/temporary marking.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node %q", n.id)
		}
		temporary[n.id] = true
		for _, dependent := range n.dependents {
			if err := visit(dependent); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, n := range g.nodes {
		if !permanent[n.id] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedIDs(m map[string]*node) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
