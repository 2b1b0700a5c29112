// Package site turns a validated content tree into a static HTML site.
//
// Generation runs as an ordered list of stages over a shared BuildState.
// Stage failures are classified: fatal errors abort the build, warnings are
// recorded on the report and the run continues, cancellation stops the
// pipeline at the next stage boundary.
package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
	"github.com/ardlang/ardoc/internal/gitmeta"
	"github.com/ardlang/ardoc/internal/lint"
	"github.com/ardlang/ardoc/internal/metrics"
	"github.com/ardlang/ardoc/internal/nav"
)

// Generator builds the documentation site described by a config.
type Generator struct {
	cfg        *config.Config
	outputDir  string
	recorder   metrics.Recorder
	gitMeta    *gitmeta.Resolver
	livereload bool
}

// NewGenerator creates a site generator for the given configuration.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{
		cfg:       cfg,
		outputDir: filepath.Clean(cfg.Output.Directory),
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder. Returns the generator for chaining.
func (g *Generator) SetRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		g.recorder = metrics.NoopRecorder{}
		return g
	}
	g.recorder = r
	return g
}

// WithLiveReload toggles injection of the preview reload script into rendered
// pages. Only the preview server enables this.
func (g *Generator) WithLiveReload(enabled bool) *Generator {
	g.livereload = enabled
	return g
}

// OutputDir returns the directory the generator writes into.
func (g *Generator) OutputDir() string { return g.outputDir }

// Build runs the full stage pipeline and returns the report. The report is
// always non-nil, also on failure, so callers can inspect partial progress.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport(uuid.NewString())
	bs := newBuildState(g, report)
	slog.Info("starting site build", "build_id", report.BuildID, "output", g.outputDir)

	err := runStages(ctx, bs, []namedStage{
		{stagePrepareOutput, stagePrepareOutputFn},
		{stageDiscover, stageDiscoverFn},
		{stageResolveNav, stageResolveNavFn},
		{stageLint, stageLintFn},
		{stageGitMetadata, stageGitMetadataFn},
		{stageRenderPages, stageRenderPagesFn},
		{stageCopyAssets, stageCopyAssetsFn},
		{stageSearchIndex, stageSearchIndexFn},
	})

	report.finish()
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(string(report.Outcome))
	g.recorder.SetPagesRendered(report.RenderedPages)

	if persistErr := report.Persist(g.outputDir); persistErr != nil {
		slog.Warn("could not persist build report", "error", persistErr)
	}
	slog.Info("site build finished", "build_id", report.BuildID, "summary", report.Summary())
	return report, err
}

func stagePrepareOutputFn(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	if g.cfg.Output.Clean {
		if err := os.RemoveAll(g.outputDir); err != nil {
			return newFatalStageError(stagePrepareOutput, fmt.Errorf("clean output dir: %w", err))
		}
	}
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return newFatalStageError(stagePrepareOutput, fmt.Errorf("create output dir: %w", err))
	}
	return nil
}

func stageDiscoverFn(_ context.Context, bs *BuildState) error {
	set, err := content.Discover(bs.Generator.cfg.Content.Dir)
	if err != nil {
		return newFatalStageError(stageDiscover, err)
	}
	if !set.Clean() {
		return newFatalStageError(stageDiscover, fmt.Errorf(
			"content tree has problems: %d duplicate slugs, %d malformed pages (run `ardoc lint` for details)",
			len(set.Duplicates), len(set.Malformed)))
	}
	bs.Set = set
	bs.Report.Pages = len(set.Pages)
	bs.Report.Assets = len(set.Assets)
	bs.Report.ContentHash = content.SetHash(set)
	return nil
}

func stageResolveNavFn(_ context.Context, bs *BuildState) error {
	sidebar, err := nav.Resolve(bs.Generator.cfg.Sidebar, bs.Set)
	if err != nil {
		return newFatalStageError(stageResolveNav, err)
	}
	bs.Sidebar = sidebar
	return nil
}

func stageLintFn(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	linter := lint.NewLinter(&lint.Config{RequireUID: g.cfg.Lint.RequireUID})
	result, err := linter.LintSet(bs.Set, g.cfg)
	if err != nil {
		return newFatalStageError(stageLint, err)
	}
	if result.HasErrors() {
		return newFatalStageError(stageLint, fmt.Errorf(
			"%d lint error(s); run `ardoc lint` for details", result.ErrorCount()))
	}
	if n := result.WarningCount(); n > 0 {
		return newWarnStageError(stageLint, fmt.Errorf("%d lint warning(s)", n))
	}
	return nil
}

func stageGitMetadataFn(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	if g.gitMeta == nil {
		g.gitMeta = gitmeta.NewResolver(g.cfg.Content.Dir)
	}
	for _, page := range bs.Set.Pages {
		select {
		case <-ctx.Done():
			return newCanceledStageError(stageGitMetadata, ctx.Err())
		default:
		}
		meta, err := g.gitMeta.Lookup(page.Path)
		if err != nil {
			slog.Debug("no change metadata for page", "slug", page.Slug, "error", err)
			continue
		}
		bs.PageMeta[page.Slug] = meta
	}
	return nil
}

func stageRenderPagesFn(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	for _, page := range bs.Set.Pages {
		select {
		case <-ctx.Done():
			return newCanceledStageError(stageRenderPages, ctx.Err())
		default:
		}
		if err := g.renderPage(bs, page); err != nil {
			return newFatalStageError(stageRenderPages, fmt.Errorf("render %s: %w", page.Slug, err))
		}
		bs.Report.RenderedPages++
	}
	return nil
}

func stageCopyAssetsFn(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	for _, asset := range bs.Set.Assets {
		select {
		case <-ctx.Done():
			return newCanceledStageError(stageCopyAssets, ctx.Err())
		default:
		}
		dst := filepath.Join(g.outputDir, filepath.FromSlash(asset.RelativePath))
		if err := copyFile(asset.Path, dst); err != nil {
			return newFatalStageError(stageCopyAssets, fmt.Errorf("copy %s: %w", asset.RelativePath, err))
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
