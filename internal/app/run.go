package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/firmware-grid/fwplan/internal/backend/execbackend"
	"github.com/firmware-grid/fwplan/internal/ctxlog"
	"github.com/firmware-grid/fwplan/internal/dedup"
	"github.com/firmware-grid/fwplan/internal/dispatch"
	"github.com/firmware-grid/fwplan/internal/export"
	"github.com/firmware-grid/fwplan/internal/hclspec"
	"github.com/firmware-grid/fwplan/internal/plan"
	"github.com/firmware-grid/fwplan/internal/resolve"
	"github.com/firmware-grid/fwplan/internal/spectree"
	"github.com/firmware-grid/fwplan/internal/yamlspec"
)

// ErrRunFailed is returned by Run when the dispatched session finished
// with failed or blocked tests. The resolution itself was sound; the
// nonzero exit is a pass-through of the backend outcomes.
var ErrRunFailed = errors.New("test run finished with failures")

// ResolvePlan performs the pure resolution pass: load the spec tree, merge
// overlays, deduplicate build configurations, and emit the ordered plan.
// Structural errors abort before any plan is produced.
func (a *App) ResolvePlan(ctx context.Context) (*plan.Plan, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger

	logger.Info("Configuring testing tree.", "root", a.config.TreeRoot)

	loader := spectree.New(yamlspec.NewLoader(), hclspec.NewLoader())
	root, err := loader.Load(ctx, a.config.TreeRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec tree: %w", err)
	}

	resolved, err := resolve.Resolve(ctx, root, resolve.Seed{
		ModuleURL:     a.config.ModuleURL,
		ModuleBranch:  a.config.ModuleBranch,
		AutoAddModule: a.config.AutoAddModule,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configurations: %w", err)
	}

	units := dedup.Dedupe(ctx, resolved)

	p, err := plan.Emit(ctx, units)
	if err != nil {
		return nil, fmt.Errorf("failed to emit plan: %w", err)
	}

	logger.Info("Plan resolved.", "build_units", len(p.Builds), "test_cases", len(p.Tests))
	return p, nil
}

// Run executes the main application logic: resolve the plan, write the
// requested exports, and optionally dispatch the plan to the backends.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	p, err := a.ResolvePlan(ctx)
	if err != nil {
		return err
	}

	if err := a.writeExports(p); err != nil {
		return err
	}

	if !a.config.Run {
		return nil
	}
	return a.dispatchPlan(ctx, p)
}

// writeExports renders the plan into every requested output file. With no
// output file configured the CMake rendering goes to the output writer.
func (a *App) writeExports(p *plan.Plan) error {
	if a.config.CMakeOut == "" && a.config.JSONOut == "" {
		return export.WriteCMake(a.outW, p)
	}

	if a.config.CMakeOut != "" {
		if err := a.writeFile(a.config.CMakeOut, p, export.WriteCMake); err != nil {
			return err
		}
		a.logger.Info("CMake plan written.", "path", a.config.CMakeOut)
	}
	if a.config.JSONOut != "" {
		if err := a.writeFile(a.config.JSONOut, p, export.WriteJSON); err != nil {
			return err
		}
		a.logger.Info("JSON plan written.", "path", a.config.JSONOut)
	}
	return nil
}

func (a *App) writeFile(path string, p *plan.Plan, write func(w io.Writer, p *plan.Plan) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plan file %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f, p); err != nil {
		return fmt.Errorf("failed to write plan file %s: %w", path, err)
	}
	return f.Close()
}

// dispatchPlan hands the plan to the backends and reports the outcome.
func (a *App) dispatchPlan(ctx context.Context, p *plan.Plan) error {
	artifactDir := a.config.ArtifactDir
	if artifactDir == "" {
		artifactDir = filepath.Join(a.config.TreeRoot, ".fwplan", "artifacts")
	}
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	builder := a.Builder
	if builder == nil {
		builder = &execbackend.Builder{
			Command:     a.config.BuildCommand,
			TreeRoot:    a.config.TreeRoot,
			ArtifactDir: artifactDir,
		}
	}
	tester := a.Tester
	if tester == nil {
		tester = &execbackend.Tester{
			Command:  a.config.TestCommand,
			TreeRoot: a.config.TreeRoot,
		}
	}

	exec, err := dispatch.New(p, builder, tester, a.config.WorkerCount)
	if err != nil {
		return fmt.Errorf("failed to prepare dispatch: %w", err)
	}

	a.logger.Info("Dispatching plan.", "workers", a.config.WorkerCount)
	results := exec.Run(ctx)
	if err := results.WriteSummary(a.outW); err != nil {
		return err
	}
	if results.ExitStatus() != 0 {
		return ErrRunFailed
	}
	return nil
}
