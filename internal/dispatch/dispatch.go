// Package dispatch executes an emitted plan against the build and test
// backends. Build units are mutually independent and run in parallel on a
// bounded worker pool; each test case waits only on its owning build unit.
// A failed build marks its tests blocked without disturbing sibling units;
// this is a one-producer/many-consumers dependency, not a general DAG.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/firmware-grid/fwplan/internal/backend"
	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/graph"
	"github.com/firmware-grid/fwplan/internal/plan"
	"github.com/firmware-grid/fwplan/internal/report"
	"github.com/firmware-grid/fwplan/internal/runstore"
)

type nodeKind int

const (
	buildNode nodeKind = iota
	testNode
)

// node is one schedulable unit of the session: a build or a test. Its
// dependency structure lives in the executor's graph; the node itself only
// carries the plan record and its scheduling counters.
type node struct {
	id       string
	kind     nodeKind
	build    *plan.BuildRecord
	test     *plan.TestRecord
	depCount atomic.Int32
	// markOnce guards terminal states set outside the worker loop
	// (blocked, skipped), so a node is finalized exactly once.
	markOnce sync.Once
}

// Executor runs one dispatch session over an immutable plan.
type Executor struct {
	plan       *plan.Plan
	builder    backend.Builder
	tester     backend.Tester
	store      *runstore.Store
	graph      *graph.Graph
	nodes      map[string]*node
	numWorkers int
	wg         sync.WaitGroup
}

// New validates the plan's dependency structure and prepares an executor.
func New(p *plan.Plan, builder backend.Builder, tester backend.Tester, workers int) (*Executor, error) {
	if workers < 1 {
		workers = 1
	}

	e := &Executor{
		plan:       p,
		builder:    builder,
		tester:     tester,
		store:      runstore.New(),
		graph:      graph.New(),
		nodes:      make(map[string]*node, len(p.Builds)+len(p.Tests)),
		numWorkers: workers,
	}

	// Mirror the plan into the graph: every test must reference a known
	// build, and the result must be acyclic.
	for _, rec := range p.Builds {
		e.nodes[rec.ID] = &node{id: rec.ID, kind: buildNode, build: rec}
		e.graph.AddNode(rec.ID)
	}
	for _, rec := range p.Tests {
		if _, ok := e.nodes[rec.BuildID]; !ok {
			return nil, fmt.Errorf("test %q references unknown build unit %q", rec.Name, rec.BuildID)
		}
		e.nodes[rec.ID] = &node{id: rec.ID, kind: testNode, test: rec}
		e.graph.AddNode(rec.ID)
		if err := e.graph.AddEdge(rec.BuildID, rec.ID); err != nil {
			return nil, err
		}
	}
	if err := e.graph.DetectCycles(); err != nil {
		return nil, err
	}

	for id, n := range e.nodes {
		deps, err := e.graph.Dependencies(id)
		if err != nil {
			return nil, err
		}
		n.depCount.Store(int32(len(deps)))
	}
	return e, nil
}

// Run executes the whole session and returns the aggregated results. It
// always returns results; execution-time failures are recorded per node,
// never propagated as an error.
func (e *Executor) Run(ctx context.Context) *report.Results {
	logger := ctxlog.FromContext(ctx)

	for _, id := range e.graph.NodeIDs() {
		e.store.SetStatus(id, runstore.StatusPending)
	}

	readyChan := make(chan *node, e.graph.Len())
	roots := e.graph.Roots()
	for _, id := range roots {
		readyChan <- e.nodes[id]
	}
	logger.Debug("Dispatch starting.",
		"nodes", e.graph.Len(), "roots", len(roots), "workers", e.numWorkers)

	e.wg.Add(e.graph.Len())
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(ctx, readyChan, i)
	}
	e.wg.Wait()
	close(readyChan)

	logger.Debug("Dispatch finished.")
	return e.collect()
}

// worker is the processing loop of one concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *node, workerID int) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)

	for n := range readyChan {
		if ctx.Err() != nil {
			e.skip(ctx, n, ctx.Err())
			continue
		}

		logger.Debug("Worker picked up node.", "nodeID", n.id)
		e.store.SetStatus(n.id, runstore.StatusRunning)

		var err error
		switch n.kind {
		case buildNode:
			err = e.runBuild(ctx, n)
		case testNode:
			err = e.runTest(ctx, n)
		}

		if err != nil {
			logger.Warn("Node failed.", "nodeID", n.id, "error", err)
			e.store.SetStatus(n.id, runstore.StatusFailed)
			e.store.SetError(n.id, err)
			if n.kind == buildNode {
				// A failed build blocks only its own tests; sibling
				// units keep running.
				e.blockDependents(ctx, n, fmt.Errorf("build unit %s failed: %w", n.id, err))
			}
			e.wg.Done()
			continue
		}

		e.store.SetStatus(n.id, runstore.StatusDone)
		for _, dependent := range e.dependents(n) {
			if dependent.depCount.Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
}

func (e *Executor) runBuild(ctx context.Context, n *node) error {
	artifact, err := e.builder.Build(ctx, n.build)
	if err != nil {
		return err
	}
	// The single artifact write of the unit's lifecycle.
	e.store.SetArtifact(n.id, artifact)
	return nil
}

func (e *Executor) runTest(ctx context.Context, n *node) error {
	artifact := e.store.Artifact(n.test.BuildID)
	return e.tester.RunTest(ctx, n.test, artifact)
}

// dependents resolves the node's downstream nodes from the graph. The IDs
// come from the graph itself, so lookups cannot miss.
func (e *Executor) dependents(n *node) []*node {
	ids, err := e.graph.Dependents(n.id)
	if err != nil {
		return nil
	}
	nodes := make([]*node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, e.nodes[id])
	}
	return nodes
}

// blockDependents marks every downstream node blocked. Recursion keeps it
// correct even if deeper dependency shapes are ever emitted.
func (e *Executor) blockDependents(ctx context.Context, n *node, cause error) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range e.dependents(n) {
		dependent.markOnce.Do(func() {
			logger.Warn("Blocking dependent node.", "nodeID", dependent.id, "cause", cause)
			e.store.SetStatus(dependent.id, runstore.StatusBlocked)
			e.store.SetError(dependent.id, cause)
			e.wg.Done()
			e.blockDependents(ctx, dependent, cause)
		})
	}
}

// skip finalizes a node that will never run because the session was
// canceled, cascading to its dependents.
func (e *Executor) skip(ctx context.Context, n *node, cause error) {
	n.markOnce.Do(func() {
		e.store.SetStatus(n.id, runstore.StatusSkipped)
		e.store.SetError(n.id, cause)
		e.wg.Done()
		for _, dependent := range e.dependents(n) {
			e.skip(ctx, dependent, cause)
		}
	})
}

// collect assembles the report in plan order from the session store.
func (e *Executor) collect() *report.Results {
	results := &report.Results{}

	for _, rec := range e.plan.Builds {
		results.Builds = append(results.Builds, report.BuildResult{
			ID:          rec.ID,
			Fingerprint: rec.Fingerprint,
			Skipped:     e.store.Status(rec.ID) == runstore.StatusSkipped,
			Err:         e.store.Error(rec.ID),
		})
	}

	for _, rec := range e.plan.Tests {
		outcome := report.OutcomePass
		reason := ""
		switch e.store.Status(rec.ID) {
		case runstore.StatusDone:
			outcome = report.OutcomePass
		case runstore.StatusFailed:
			outcome = report.OutcomeFail
		case runstore.StatusBlocked:
			outcome = report.OutcomeBlocked
		default:
			outcome = report.OutcomeSkipped
		}
		if err := e.store.Error(rec.ID); err != nil {
			reason = err.Error()
		}
		results.Tests = append(results.Tests, report.TestResult{
			ID:      rec.ID,
			Name:    rec.Name,
			BuildID: rec.BuildID,
			Outcome: outcome,
			Reason:  reason,
		})
	}
	return results
}
