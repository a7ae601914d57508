package dispatch_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmware-grid/fwplan/internal/backend"
	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/dispatch"
	"github.com/firmware-grid/fwplan/internal/plan"
	"github.com/firmware-grid/fwplan/internal/report"
	"github.com/firmware-grid/fwplan/internal/testutil"
)

func testCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// twoUnitPlan is the canonical shape: two build units, unit 1 owning two
// tests and unit 2 owning one.
func twoUnitPlan() *plan.Plan {
	return &plan.Plan{
		Builds: []*plan.BuildRecord{
			{ID: "build-1", Fingerprint: "aaaa", Sketch: "sketch.ino"},
			{ID: "build-2", Fingerprint: "bbbb", Sketch: "sketch.ino"},
		},
		Tests: []*plan.TestRecord{
			{ID: "test-1", Name: "suite.alpha", BuildID: "build-1", Driver: "driver.py"},
			{ID: "test-2", Name: "suite.beta", BuildID: "build-1", Driver: "driver.py"},
			{ID: "test-3", Name: "suite.gamma", BuildID: "build-2", Driver: "driver.py"},
		},
	}
}

func outcomes(r *report.Results) map[string]report.Outcome {
	m := make(map[string]report.Outcome, len(r.Tests))
	for _, t := range r.Tests {
		m[t.Name] = t.Outcome
	}
	return m
}

func TestRun_AllPass(t *testing.T) {
	t.Parallel()

	builder := &testutil.FakeBuilder{}
	tester := &testutil.FakeTester{}
	exec, err := dispatch.New(twoUnitPlan(), builder, tester, 4)
	require.NoError(t, err)

	results := exec.Run(testCtx())

	assert.ElementsMatch(t, []string{"build-1", "build-2"}, builder.Calls())
	assert.ElementsMatch(t, []string{"suite.alpha", "suite.beta", "suite.gamma"}, tester.Calls())
	assert.Equal(t, map[string]report.Outcome{
		"suite.alpha": report.OutcomePass,
		"suite.beta":  report.OutcomePass,
		"suite.gamma": report.OutcomePass,
	}, outcomes(results))
	assert.Equal(t, 0, results.ExitStatus())
}

func TestRun_TestsReceiveOwningArtifact(t *testing.T) {
	t.Parallel()

	builder := &testutil.FakeBuilder{}
	tester := &testutil.FakeTester{}
	exec, err := dispatch.New(twoUnitPlan(), builder, tester, 2)
	require.NoError(t, err)
	exec.Run(testCtx())

	assert.Equal(t, "artifact://build-1", tester.Artifact("suite.alpha"))
	assert.Equal(t, "artifact://build-1", tester.Artifact("suite.beta"))
	assert.Equal(t, "artifact://build-2", tester.Artifact("suite.gamma"))
}

func TestRun_BuildFailureBlocksOnlyItsTests(t *testing.T) {
	t.Parallel()

	builder := &testutil.FakeBuilder{FailIDs: map[string]bool{"build-1": true}}
	tester := &testutil.FakeTester{}
	exec, err := dispatch.New(twoUnitPlan(), builder, tester, 4)
	require.NoError(t, err)

	results := exec.Run(testCtx())

	assert.Equal(t, map[string]report.Outcome{
		"suite.alpha": report.OutcomeBlocked,
		"suite.beta":  report.OutcomeBlocked,
		"suite.gamma": report.OutcomePass,
	}, outcomes(results))
	assert.ElementsMatch(t, []string{"suite.gamma"}, tester.Calls(),
		"blocked tests never reach the backend")

	require.Error(t, results.Builds[0].Err)
	assert.NoError(t, results.Builds[1].Err)
	for _, tr := range results.Tests {
		if tr.Outcome == report.OutcomeBlocked {
			assert.Contains(t, tr.Reason, "build unit build-1 failed")
		}
	}
	assert.Equal(t, 1, results.ExitStatus())
}

func TestRun_TestFailureLeavesSiblingsAlone(t *testing.T) {
	t.Parallel()

	builder := &testutil.FakeBuilder{}
	tester := &testutil.FakeTester{FailNames: map[string]bool{"suite.beta": true}}
	exec, err := dispatch.New(twoUnitPlan(), builder, tester, 4)
	require.NoError(t, err)

	results := exec.Run(testCtx())

	assert.Equal(t, map[string]report.Outcome{
		"suite.alpha": report.OutcomePass,
		"suite.beta":  report.OutcomeFail,
		"suite.gamma": report.OutcomePass,
	}, outcomes(results))
	assert.Equal(t, 1, results.ExitStatus())
}

func TestRun_CanceledContextSkips(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(testCtx())
	cancel()

	builder := &testutil.FakeBuilder{}
	tester := &testutil.FakeTester{}
	exec, err := dispatch.New(twoUnitPlan(), builder, tester, 2)
	require.NoError(t, err)

	results := exec.Run(ctx)

	assert.Empty(t, builder.Calls())
	assert.Empty(t, tester.Calls())
	for _, tr := range results.Tests {
		assert.Equal(t, report.OutcomeSkipped, tr.Outcome)
	}
	for _, br := range results.Builds {
		assert.True(t, br.Skipped, "a never-run build is skipped, not failed")
	}
	assert.Equal(t, 0, results.ExitStatus(), "a canceled session is not a test failure")

	var summary bytes.Buffer
	require.NoError(t, results.WriteSummary(&summary))
	assert.Contains(t, summary.String(), "BUILD build-1 (aaaa): skipped")
	assert.NotContains(t, summary.String(), "FAILED")
}

func TestRun_SingleWorkerStillCompletes(t *testing.T) {
	t.Parallel()

	builder := &testutil.FakeBuilder{}
	tester := &testutil.FakeTester{}
	exec, err := dispatch.New(twoUnitPlan(), builder, tester, 1)
	require.NoError(t, err)

	results := exec.Run(testCtx())
	pass, _, _, _ := results.Counts()
	assert.Equal(t, 3, pass)
}

// slowBuilder blocks every build until released, to observe concurrency.
type slowBuilder struct {
	release chan struct{}

	mu     sync.Mutex
	active int
	peak   int
}

func (b *slowBuilder) Build(ctx context.Context, rec *plan.BuildRecord) (string, error) {
	b.mu.Lock()
	b.active++
	if b.active > b.peak {
		b.peak = b.active
	}
	b.mu.Unlock()

	select {
	case <-b.release:
	case <-time.After(5 * time.Second):
	}

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
	return "artifact://" + rec.ID, nil
}

var _ backend.Builder = (*slowBuilder)(nil)

func TestRun_BuildsRunConcurrently(t *testing.T) {
	t.Parallel()

	builder := &slowBuilder{release: make(chan struct{})}
	tester := &testutil.FakeTester{}
	exec, err := dispatch.New(twoUnitPlan(), builder, tester, 4)
	require.NoError(t, err)

	done := make(chan *report.Results, 1)
	go func() { done <- exec.Run(testCtx()) }()

	// Both independent builds should be in flight before either finishes.
	require.Eventually(t, func() bool {
		builder.mu.Lock()
		defer builder.mu.Unlock()
		return builder.peak >= 2
	}, 2*time.Second, 10*time.Millisecond)

	close(builder.release)
	results := <-done
	pass, _, _, _ := results.Counts()
	assert.Equal(t, 3, pass)
}

func TestNew_RejectsUnknownBuildReference(t *testing.T) {
	t.Parallel()

	p := &plan.Plan{
		Tests: []*plan.TestRecord{{ID: "test-1", Name: "orphan", BuildID: "build-404"}},
	}
	_, err := dispatch.New(p, &testutil.FakeBuilder{}, &testutil.FakeTester{}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build-404")
}

func TestRun_EmptyPlan(t *testing.T) {
	t.Parallel()

	exec, err := dispatch.New(&plan.Plan{}, &testutil.FakeBuilder{}, &testutil.FakeTester{}, 2)
	require.NoError(t, err)

	results := exec.Run(testCtx())
	assert.Empty(t, results.Builds)
	assert.Empty(t, results.Tests)
	assert.Equal(t, 0, results.ExitStatus())
}
