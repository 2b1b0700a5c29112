package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/content"
	"github.com/ardlang/ardoc/internal/history"
	"github.com/ardlang/ardoc/internal/linkcheck"
	"github.com/ardlang/ardoc/internal/lint"
	"github.com/ardlang/ardoc/internal/serve"
	"github.com/ardlang/ardoc/internal/site"
)

func runBuild() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Build.Output != "" {
		cfg.Output.Directory = CLI.Build.Output
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, buildErr := site.NewGenerator(cfg).Build(ctx)
	recordHistory(ctx, cfg, report)
	if buildErr != nil {
		return buildErr
	}
	fmt.Println(report.Summary())
	return nil
}

// recordHistory persists the build outcome; failures are logged, not fatal.
func recordHistory(ctx context.Context, cfg *config.Config, report *site.BuildReport) {
	if report == nil || cfg.History.Path == "" {
		return
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		slog.Warn("could not open build history", "path", cfg.History.Path, "error", err)
		return
	}
	defer store.Close()

	rec, err := history.FromReport(report)
	if err != nil {
		slog.Warn("could not serialize build record", "error", err)
		return
	}
	if err := store.RecordBuild(ctx, rec); err != nil {
		slog.Warn("could not record build history", "error", err)
	}
}

func runLint() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if CLI.Lint.Fix {
		if err := fixUIDs(cfg); err != nil {
			return err
		}
	}

	linter := lint.NewLinter(&lint.Config{
		Quiet:      CLI.Lint.Quiet,
		Format:     CLI.Lint.Format,
		RequireUID: cfg.Lint.RequireUID,
	})
	result, err := linter.Lint(cfg)
	if err != nil {
		return err
	}

	formatter := lint.NewFormatter(CLI.Lint.Format)
	if err := formatter.Format(os.Stdout, result, cfg.Content.Dir); err != nil {
		return err
	}
	if result.HasErrors() {
		return fmt.Errorf("%d lint error(s) found", result.ErrorCount())
	}
	return nil
}

func fixUIDs(cfg *config.Config) error {
	set, err := content.Discover(cfg.Content.Dir)
	if err != nil {
		return err
	}
	fixed, err := lint.FixUIDs(set, CLI.Lint.DryRun)
	if err != nil {
		return err
	}
	for _, path := range fixed.Fixed {
		if CLI.Lint.DryRun {
			fmt.Printf("would assign uid: %s\n", path)
		} else {
			fmt.Printf("assigned uid: %s\n", path)
		}
	}
	return nil
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Serve.Port != 0 {
		cfg.Serve.Port = CLI.Serve.Port
	}

	ctx, cancel := signalContext()
	defer cancel()
	return serve.New(cfg, CLI.Config).Run(ctx)
}

func runCheckLinks() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.CheckLinks.Output != "" {
		cfg.Output.Directory = CLI.CheckLinks.Output
	}
	// Explicit invocation overrides the config toggle.
	cfg.LinkCheck.Enabled = true

	ctx, cancel := signalContext()
	defer cancel()

	set, err := content.Discover(cfg.Content.Dir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Output.Directory); err != nil {
		return fmt.Errorf("rendered site not found at %s, run `ardoc build` first: %w", cfg.Output.Directory, err)
	}

	svc, err := linkcheck.NewService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.CheckSite(ctx, set, cfg.Output.Directory)
	if err != nil {
		return err
	}

	fmt.Printf("checked %d link(s) across %d page(s), %d from cache\n",
		result.LinksChecked, result.PagesScanned, result.CacheHits)
	for _, broken := range result.Broken {
		fmt.Printf("BROKEN %s (status %d) on %s: %s\n", broken.URL, broken.Status, broken.SourceSlug, broken.Error)
	}
	if len(result.Broken) > 0 {
		return fmt.Errorf("%d broken link(s) found", len(result.Broken))
	}
	fmt.Println("all external links ok")
	return nil
}

func runHistory() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if CLI.History.Build != "" {
		rec, err := store.ByBuildID(ctx, CLI.History.Build)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				return fmt.Errorf("no build with id %s", CLI.History.Build)
			}
			return err
		}
		printRecord(rec)
		fmt.Printf("  stages: %s\n", rec.Report)
		return nil
	}

	records, err := store.Recent(ctx, CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no builds recorded yet")
		return nil
	}
	for _, rec := range records {
		printRecord(rec)
	}
	return nil
}

func printRecord(rec *history.Record) {
	fmt.Printf("%s  %-8s  pages=%d rendered=%d assets=%d errors=%d warnings=%d duration=%s  %s\n",
		rec.Start.Format("2006-01-02 15:04:05"), rec.Outcome,
		rec.Pages, rec.RenderedPages, rec.Assets, rec.Errors, rec.Warnings,
		rec.Duration().Truncate(time.Millisecond), rec.BuildID)
}

func runInit() error {
	if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
		return err
	}
	fmt.Printf("created %s and starter content, run `ardoc serve` to preview\n", CLI.Config)
	return nil
}
