package tempo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atmosense/aqetl/internal/cmr"
	"github.com/atmosense/aqetl/internal/geo"
)

// Status classifies the outcome of processing one granule.
type Status int

const (
	// StatusExtracted means the granule contributed pixels.
	StatusExtracted Status = iota

	// StatusSkipped means the granule was read but held no usable pixels
	// for the requested region.
	StatusSkipped

	// StatusFailed means the granule could not be downloaded or decoded.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusExtracted:
		return "extracted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Report is the outcome of processing one granule. Failures never abort the
// batch; callers inspect reports to tell "no data there" apart from "broken
// granule".
type Report struct {
	GranuleUR string
	Status    Status
	Reason    string // set for StatusSkipped
	Err       error  // set for StatusFailed
	Pixels    int    // set for StatusExtracted
}

// Searcher finds candidate granules. *cmr.Client satisfies it.
type Searcher interface {
	SearchAll(ctx context.Context, params *cmr.SearchParams) ([]cmr.UMMGranule, error)
}

// Downloader fetches one granule file to local disk, returning its path and
// a cleanup function that removes the file.
type Downloader interface {
	Download(ctx context.Context, url string) (string, func(), error)
}

// Params configures one extraction run.
type Params struct {
	ShortName string
	Version   string
	Box       geo.BBox
	Target    time.Time
	Window    time.Duration
}

// Extractor runs the TEMPO extraction batch: discover granules around the
// target instant, decode each one, clip to the bounding box, and aggregate
// the surviving pixels.
type Extractor struct {
	searcher Searcher
	download Downloader
	read     func(path string) (*Grid, error)
	params   Params
	logger   *slog.Logger
}

// NewExtractor creates an extractor over the given search and download
// clients.
func NewExtractor(searcher Searcher, download Downloader, params Params, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		searcher: searcher,
		download: download,
		read:     ReadGranule,
		params:   params,
		logger:   logger,
	}
}

// Run executes the batch and returns the deduplicated, sorted pixel table
// plus one report per discovered granule. Only the granule search itself is
// fatal; per-granule problems are reported and the batch moves on.
func (e *Extractor) Run(ctx context.Context) ([]Pixel, []Report, error) {
	start := e.params.Target.Add(-e.params.Window)
	end := e.params.Target.Add(e.params.Window)

	searchParams := &cmr.SearchParams{
		ShortName:   e.params.ShortName,
		Version:     e.params.Version,
		BoundingBox: e.params.Box.String(),
		Temporal:    cmr.Temporal(start, end),
	}

	e.logger.InfoContext(ctx, "searching for granules",
		slog.String("short_name", e.params.ShortName),
		slog.String("version", e.params.Version),
		slog.String("bounding_box", searchParams.BoundingBox),
		slog.String("temporal", searchParams.Temporal),
	)

	granules, err := e.searcher.SearchAll(ctx, searchParams)
	if err != nil {
		return nil, nil, fmt.Errorf("granule search failed: %w", err)
	}

	if len(granules) == 0 {
		e.logger.InfoContext(ctx, "no granules found in search window")
		return nil, nil, nil
	}

	e.logger.InfoContext(ctx, "found granules", slog.Int("count", len(granules)))

	var pixels []Pixel
	reports := make([]Report, 0, len(granules))
	for i := range granules {
		g := &granules[i]

		e.logger.InfoContext(ctx, "processing granule",
			slog.Int("index", i+1),
			slog.Int("total", len(granules)),
			slog.String("granule_ur", g.GranuleUR),
			slog.Float64("size_mb", g.SizeMB()),
		)

		report, px := e.processGranule(ctx, g)
		reports = append(reports, report)

		switch report.Status {
		case StatusExtracted:
			pixels = append(pixels, px...)
			e.logger.InfoContext(ctx, "extracted pixels",
				slog.String("granule_ur", g.GranuleUR),
				slog.Int("pixels", report.Pixels),
			)
		case StatusSkipped:
			e.logger.InfoContext(ctx, "granule skipped",
				slog.String("granule_ur", g.GranuleUR),
				slog.String("reason", report.Reason),
			)
		case StatusFailed:
			e.logger.WarnContext(ctx, "granule failed",
				slog.String("granule_ur", g.GranuleUR),
				slog.String("error", report.Err.Error()),
			)
		}
	}

	before := len(pixels)
	pixels = Dedupe(pixels)
	if removed := before - len(pixels); removed > 0 {
		e.logger.InfoContext(ctx, "removed duplicate pixels", slog.Int("count", removed))
	}
	SortPixels(pixels)

	return pixels, reports, nil
}

// processGranule downloads and decodes one granule. The downloaded file is
// removed before returning, whatever the outcome.
func (e *Extractor) processGranule(ctx context.Context, g *cmr.UMMGranule) (Report, []Pixel) {
	report := Report{GranuleUR: g.GranuleUR}

	url := g.DataURL()
	if url == "" {
		report.Status = StatusFailed
		report.Err = errors.New("granule has no https download url")
		return report, nil
	}

	path, cleanup, err := e.download.Download(ctx, url)
	if err != nil {
		report.Status = StatusFailed
		report.Err = fmt.Errorf("download: %w", err)
		return report, nil
	}
	defer cleanup()

	grid, err := e.read(path)
	if err != nil {
		report.Status = StatusFailed
		report.Err = err
		return report, nil
	}

	px, covered := grid.Clip(e.params.Box)
	if !covered {
		report.Status = StatusSkipped
		report.Reason = "granule does not overlap bounding box"
		return report, nil
	}
	if len(px) == 0 {
		report.Status = StatusSkipped
		report.Reason = "no valid pixels in bounding box"
		return report, nil
	}

	report.Status = StatusExtracted
	report.Pixels = len(px)
	return report, px
}
