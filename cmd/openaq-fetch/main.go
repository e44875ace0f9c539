// OpenAQ measurement fetch job entry point
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atmosense/aqetl/internal/config"
	"github.com/atmosense/aqetl/internal/logging"
	"github.com/atmosense/aqetl/internal/openaq"
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

	// A missing credential aborts before any network work
	if err := cfg.OpenAQ.RequireAPIKey(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	point := cfg.Fetch.Point()
	logger.Info("starting measurement fetch",
		"coordinates", point.Coordinates(),
		"parameters", strings.Join(cfg.Fetch.Parameters, ","),
		"date_from", cfg.Fetch.DateFrom.Format(time.RFC3339),
		"date_to", cfg.Fetch.DateTo.Format(time.RFC3339),
		"output", cfg.Fetch.Output,
	)

	client := openaq.NewClient(cfg.OpenAQ.BaseURL, cfg.OpenAQ.APIKey, cfg.OpenAQ.Timeout).WithLogger(logger)

	fetcher := openaq.NewFetcher(client, openaq.Params{
		Point:         point,
		Parameters:    cfg.Fetch.Parameters,
		RadiiKm:       cfg.Fetch.RadiiKm,
		DateFrom:      cfg.Fetch.DateFrom,
		DateTo:        cfg.Fetch.DateTo,
		LocationLimit: cfg.Fetch.LocationLimit,
		PageLimit:     cfg.Fetch.PageLimit,
	}, logger)

	series, attempts, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, att := range attempts {
		if att.Status == openaq.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		logger.Warn("some probes failed", "failed", failed, "attempts", len(attempts))
	}

	if len(series) == 0 {
		logger.Info("no measurement data available for this region and window")
		return nil
	}

	table := openaq.Merge(point, cfg.Fetch.Parameters, series)

	f, err := os.Create(cfg.Fetch.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := table.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	logger.Info("wrote measurement table", "path", cfg.Fetch.Output, "rows", len(table.Rows))

	return nil
}
