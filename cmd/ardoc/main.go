package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/version"
)

var CLI struct {
	Config  string           `short:"c" help:"Site configuration file path" default:"site.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Build struct {
		Output string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Build the documentation site"`

	Lint struct {
		Format string `help:"Output format" default:"text" enum:"text,json"`
		Quiet  bool   `short:"q" help:"Only report errors"`
		Fix    bool   `help:"Assign uids to pages that are missing one"`
		DryRun bool   `help:"With --fix, report what would change without writing files"`
	} `cmd:"" help:"Check content and navigation for problems"`

	Serve struct {
		Port int `short:"p" help:"Port to listen on (overrides config)"`
	} `cmd:"" help:"Build the site and serve it locally with live reload"`

	CheckLinks struct {
		Output string `short:"o" help:"Rendered site directory (overrides config)"`
	} `cmd:"" name:"check-links" help:"Verify external links of the rendered site"`

	History struct {
		Limit int    `short:"n" help:"Number of builds to show" default:"20"`
		Build string `help:"Show a single build by id"`
	} `cmd:"" help:"Show recent build history"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Create a starter site.yaml and content tree"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ardoc"),
		kong.Description("Build, validate and preview Ard language documentation."),
		kong.Vars{"version": version.Version},
	)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild()
	case "lint":
		err = runLint()
	case "serve":
		err = runServe()
	case "check-links":
		err = runCheckLinks()
	case "history":
		err = runHistory()
	case "init":
		err = runInit()
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	if err != nil {
		slog.Error("command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
