package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/nikhilbhutani/audiobrief/internal/app"
	"github.com/nikhilbhutani/audiobrief/internal/cli"
	"github.com/nikhilbhutani/audiobrief/internal/config"
	"github.com/nikhilbhutani/audiobrief/internal/logging"
)

func main() {
	build := func(ctx context.Context) (cli.Runner, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		// Logs go to stderr so stdout carries only the summary.
		logger, _ := logging.New(cfg.Log, os.Stderr)
		slog.SetDefault(logger)

		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		built, err := app.BuildPipeline(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return built.Pipeline, nil
	}

	if err := cli.NewRootCommand(afero.NewOsFs(), build).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
