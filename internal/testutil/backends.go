package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/firmware-grid/fwplan/internal/plan"
)

// FakeBuilder is a scripted backend.Builder recording every call. Builds
// listed in FailIDs return an error.
type FakeBuilder struct {
	FailIDs map[string]bool

	mu    sync.Mutex
	calls []string
}

// Build implements backend.Builder.
func (b *FakeBuilder) Build(ctx context.Context, rec *plan.BuildRecord) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, rec.ID)
	b.mu.Unlock()

	if b.FailIDs[rec.ID] {
		return "", fmt.Errorf("scripted build failure for %s", rec.ID)
	}
	return "artifact://" + rec.ID, nil
}

// Calls returns the build IDs seen so far.
func (b *FakeBuilder) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// FakeTester is a scripted backend.Tester recording every call. Tests
// listed in FailNames return an error.
type FakeTester struct {
	FailNames map[string]bool

	mu        sync.Mutex
	calls     []string
	artifacts map[string]string
}

// RunTest implements backend.Tester.
func (t *FakeTester) RunTest(ctx context.Context, rec *plan.TestRecord, artifact string) error {
	t.mu.Lock()
	t.calls = append(t.calls, rec.Name)
	if t.artifacts == nil {
		t.artifacts = make(map[string]string)
	}
	t.artifacts[rec.Name] = artifact
	t.mu.Unlock()

	if t.FailNames[rec.Name] {
		return fmt.Errorf("scripted test failure for %s", rec.Name)
	}
	return nil
}

// Calls returns the test names seen so far.
func (t *FakeTester) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// Artifact returns the artifact handle the named test was given.
func (t *FakeTester) Artifact(name string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.artifacts[name]
}
