// TEMPO NO2 pixel extraction job entry point
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atmosense/aqetl/internal/cmr"
	"github.com/atmosense/aqetl/internal/config"
	"github.com/atmosense/aqetl/internal/earthdata"
	"github.com/atmosense/aqetl/internal/logging"
	"github.com/atmosense/aqetl/internal/tempo"
)

// summaryBands is the number of latitude bins in the post-run coverage
// histogram.
const summaryBands = 10

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
	if err := cfg.Earthdata.RequireToken(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	box := cfg.Extract.BBox()
	logger.Info("starting TEMPO extraction",
		"short_name", cfg.Extract.ShortName,
		"version", cfg.Extract.Version,
		"bounding_box", box.String(),
		"target", cfg.Extract.Target.Format(time.RFC3339),
		"window", cfg.Extract.Window.String(),
		"output", cfg.Extract.Output,
	)

	downloader, err := earthdata.NewClient(cfg.Earthdata.Token, cfg.Earthdata.URSBaseURL, cfg.Earthdata.DownloadTimeout)
	if err != nil {
		return fmt.Errorf("failed to create earthdata client: %w", err)
	}
	downloader = downloader.WithLogger(logger)

	// Verify the token up front so a bad credential fails the run before
	// any granule work starts
	if err := downloader.Verify(ctx); err != nil {
		return fmt.Errorf("earthdata login failed: %w", err)
	}
	logger.Info("earthdata token accepted")

	searcher := cmr.NewClient(cfg.CMR.BaseURL, cfg.CMR.Provider, cfg.CMR.Timeout).WithLogger(logger)

	extractor := tempo.NewExtractor(searcher, downloader, tempo.Params{
		ShortName: cfg.Extract.ShortName,
		Version:   cfg.Extract.Version,
		Box:       box,
		Target:    cfg.Extract.Target,
		Window:    cfg.Extract.Window,
	}, logger)

	pixels, reports, err := extractor.Run(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, r := range reports {
		if r.Status == tempo.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		logger.Warn("some granules failed", "failed", failed, "total", len(reports))
	}

	if len(pixels) == 0 {
		logger.Info("no valid pixels extracted, nothing to write")
		return nil
	}

	f, err := os.Create(cfg.Extract.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := tempo.WriteCSV(f, pixels); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	logger.Info("wrote pixel table", "path", cfg.Extract.Output, "rows", len(pixels))

	sum := tempo.Summarize(pixels, summaryBands)
	logger.Info("data summary",
		"pixels", sum.Count,
		"lat_min", sum.LatMin,
		"lat_max", sum.LatMax,
		"lon_min", sum.LonMin,
		"lon_max", sum.LonMax,
		"no2_min", sum.NO2Min,
		"no2_max", sum.NO2Max,
		"no2_mean", sum.NO2Mean,
		"no2_median", sum.NO2Median,
	)
	for _, band := range sum.Bands {
		logger.Info("latitude band",
			"low", fmt.Sprintf("%.2f", band.Low),
			"high", fmt.Sprintf("%.2f", band.High),
			"pixels", band.Count,
		)
	}

	return nil
}
