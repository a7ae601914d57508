package plan

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/dedup"
	"github.com/firmware-grid/fwplan/internal/resolve"
	"github.com/firmware-grid/fwplan/internal/spectree"
)

func testCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// fixture builds a linked three-target tree and two deduplicated units:
// root/alpha and root/beta share one unit, root/gamma owns the other.
func fixture() (units []*dedup.BuildUnit, nodes map[string]*spectree.Node) {
	root := &spectree.Node{Name: "kaleidoscope", Rel: "."}
	alpha := &spectree.Node{Name: "alpha", Rel: "alpha", TestTarget: true, Parent: root}
	beta := &spectree.Node{Name: "beta", Rel: "beta", TestTarget: true, Parent: root}
	gamma := &spectree.Node{Name: "gamma", Rel: "gamma", TestTarget: true, Parent: root}
	root.Children = []*spectree.Node{alpha, beta, gamma}

	shared := &resolve.BuildConfig{Sketch: "sketch.ino"}
	distinct := &resolve.BuildConfig{Sketch: "sketch.ino", Options: map[string]string{"x": "1"}}

	entry := func(n *spectree.Node, cfg *resolve.BuildConfig) *resolve.Resolved {
		return &resolve.Resolved{
			Node:        n,
			Config:      cfg,
			Driver:      "driver.py",
			Description: "desc " + n.Name,
			Origins:     resolve.Origins{Name: n.Rel, Build: "."},
		}
	}

	units = []*dedup.BuildUnit{
		{
			Fingerprint: "aaaa",
			Config:      shared,
			Members:     []*resolve.Resolved{entry(beta, shared), entry(alpha, shared)},
		},
		{
			Fingerprint: "bbbb",
			Config:      distinct,
			Members:     []*resolve.Resolved{entry(gamma, distinct)},
		},
	}
	nodes = map[string]*spectree.Node{"root": root, "alpha": alpha, "beta": beta, "gamma": gamma}
	return units, nodes
}

func TestEmit_BuildIDsFollowUnitOrder(t *testing.T) {
	t.Parallel()

	units, _ := fixture()
	p, err := Emit(testCtx(), units)
	require.NoError(t, err)

	require.Len(t, p.Builds, 2)
	assert.Equal(t, "build-1", p.Builds[0].ID)
	assert.Equal(t, "aaaa", p.Builds[0].Fingerprint)
	assert.Equal(t, "build-2", p.Builds[1].ID)
	assert.Equal(t, "bbbb", p.Builds[1].Fingerprint)
}

func TestEmit_TestsInTreeOrder(t *testing.T) {
	t.Parallel()

	// Unit membership order is arbitrary; the emitted tests must follow
	// the tree, interleaving units as needed.
	units, _ := fixture()
	p, err := Emit(testCtx(), units)
	require.NoError(t, err)

	require.Len(t, p.Tests, 3)
	assert.Equal(t, []string{"test-1", "test-2", "test-3"},
		[]string{p.Tests[0].ID, p.Tests[1].ID, p.Tests[2].ID})
	assert.Equal(t, "kaleidoscope.alpha", p.Tests[0].Name)
	assert.Equal(t, "kaleidoscope.beta", p.Tests[1].Name)
	assert.Equal(t, "kaleidoscope.gamma", p.Tests[2].Name)
}

func TestEmit_TestsReferenceOwningBuild(t *testing.T) {
	t.Parallel()

	units, _ := fixture()
	p, err := Emit(testCtx(), units)
	require.NoError(t, err)

	assert.Equal(t, "build-1", p.Tests[0].BuildID)
	assert.Equal(t, "build-1", p.Tests[1].BuildID)
	assert.Equal(t, "build-2", p.Tests[2].BuildID)

	rec, ok := p.BuildByID("build-2")
	require.True(t, ok)
	assert.Equal(t, "bbbb", rec.Fingerprint)

	_, ok = p.BuildByID("build-99")
	assert.False(t, ok)
}

func TestEmit_NamingCollision(t *testing.T) {
	t.Parallel()

	root := &spectree.Node{Name: "root", Rel: "."}
	// Distinct directories, same declared name.
	a := &spectree.Node{Name: "dup", Rel: "a", TestTarget: true, Parent: root}
	b := &spectree.Node{Name: "dup", Rel: "b", TestTarget: true, Parent: root}
	root.Children = []*spectree.Node{a, b}

	cfg := &resolve.BuildConfig{Sketch: "sketch.ino"}
	units := []*dedup.BuildUnit{{
		Fingerprint: "ffff",
		Config:      cfg,
		Members: []*resolve.Resolved{
			{Node: a, Config: cfg, Driver: "d", Description: "x"},
			{Node: b, Config: cfg, Driver: "d", Description: "x"},
		},
	}}

	_, err := Emit(testCtx(), units)
	var collision *NamingCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "root.dup", collision.Name)
	assert.Equal(t, [2]string{"a", "b"}, collision.Dirs)
}

func TestEmit_Empty(t *testing.T) {
	t.Parallel()

	p, err := Emit(testCtx(), nil)
	require.NoError(t, err)
	assert.Empty(t, p.Builds)
	assert.Empty(t, p.Tests)
}

func TestGlobalName(t *testing.T) {
	t.Parallel()

	root := &spectree.Node{Name: "kaleidoscope"}
	mid := &spectree.Node{Name: "hid", Parent: root}
	repeat := &spectree.Node{Name: "hid", Parent: mid}
	leaf := &spectree.Node{Name: "keyboard", Parent: repeat}

	t.Run("joins segments with dots", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "kaleidoscope.hid", GlobalName(mid))
	})

	t.Run("skips repeated segment", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "kaleidoscope.hid.keyboard", GlobalName(leaf))
	})

	t.Run("root alone", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "kaleidoscope", GlobalName(root))
	})
}
