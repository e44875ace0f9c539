// CSV subsampling job entry point
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/atmosense/aqetl/internal/config"
	"github.com/atmosense/aqetl/internal/logging"
	"github.com/atmosense/aqetl/internal/sample"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logger
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting CSV subsample",
		"input", cfg.Sample.Input,
		"n", cfg.Sample.N,
		"seed", cfg.Sample.Seed,
	)

	table, err := sample.ReadFile(cfg.Sample.Input)
	if err != nil {
		return err
	}
	logger.Info("read input table", "rows", len(table.Rows))

	// Draw before touching the output path: an oversized request must not
	// leave a partial file behind
	sampled, err := table.Draw(cfg.Sample.N, cfg.Sample.Seed)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Sample.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out := sample.OutputPath(cfg.Sample.OutDir, cfg.Sample.Prefix, time.Now())
	if err := sampled.WriteFile(out); err != nil {
		return err
	}

	logger.Info("wrote sampled table", "path", out, "rows", len(sampled.Rows))

	return nil
}
