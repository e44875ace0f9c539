package openaq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atmosense/aqetl/internal/geo"
)

// Status classifies the outcome of probing one pollutant/radius pair.
type Status int

const (
	// StatusFetched means a sensor was resolved and returned records.
	StatusFetched Status = iota

	// StatusNoSensor means no location within the radius carries a sensor
	// for the pollutant.
	StatusNoSensor

	// StatusNoData means a sensor was resolved but its series was empty
	// for the requested window.
	StatusNoData

	// StatusFailed means a lookup or fetch request failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFetched:
		return "fetched"
	case StatusNoSensor:
		return "no sensor"
	case StatusNoData:
		return "no data"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Attempt is the outcome of one pollutant/radius probe. Failed attempts
// never abort the run; the next radius is tried. Callers inspect attempts
// to tell "no sensor there" apart from "request broke".
type Attempt struct {
	Parameter string
	RadiusKm  int
	Status    Status
	Location  string // set once a sensor was resolved
	SensorID  int    // set once a sensor was resolved
	Records   int    // set for StatusFetched
	Err       error  // set for StatusFailed
}

// Series is one pollutant's resolved hourly series.
type Series struct {
	Parameter string
	Location  string
	SensorID  int
	RadiusKm  int
	Records   []Record
}

// API is the client surface the fetcher needs. *Client satisfies it.
type API interface {
	Locations(ctx context.Context, point geo.Point, radiusMeters int, parameter string, limit int) ([]Location, error)
	HourlyMeasurements(ctx context.Context, sensorID int, from, to time.Time, limit int) ([]Record, error)
}

// Params configures one measurement-fetch run.
type Params struct {
	Point         geo.Point
	Parameters    []string
	RadiiKm       []int
	DateFrom      time.Time
	DateTo        time.Time
	LocationLimit int
	PageLimit     int
}

// Fetcher retrieves hourly measurements for each configured pollutant,
// expanding the search radius until a sensor with data is found. The query
// window is fixed per run.
type Fetcher struct {
	api    API
	params Params
	logger *slog.Logger
}

// NewFetcher creates a fetcher over the given client.
func NewFetcher(api API, params Params, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{api: api, params: params, logger: logger}
}

// Fetch runs the batch: each pollutant is probed across the configured
// radii, first success wins. Returns the series found (possibly none) plus
// one attempt record per probe. Pollutants that exhaust every radius are
// absent from the series slice; only context cancellation is fatal.
func (f *Fetcher) Fetch(ctx context.Context) ([]Series, []Attempt, error) {
	var (
		series   []Series
		attempts []Attempt
	)

	for _, parameter := range f.params.Parameters {
		s, tried, err := f.fetchParameter(ctx, parameter)
		attempts = append(attempts, tried...)
		if err != nil {
			return nil, attempts, err
		}
		if s == nil {
			f.logger.WarnContext(ctx, "no data found after expanding radius",
				slog.String("parameter", parameter),
			)
			continue
		}
		series = append(series, *s)
	}

	f.logger.InfoContext(ctx, "measurement fetch complete",
		slog.Int("series", len(series)),
		slog.Int("pollutants", len(f.params.Parameters)),
	)

	return series, attempts, nil
}

// fetchParameter probes expanding radii for one pollutant, stopping at the
// first radius that yields records.
func (f *Fetcher) fetchParameter(ctx context.Context, parameter string) (*Series, []Attempt, error) {
	attempts := make([]Attempt, 0, len(f.params.RadiiKm))

	for _, radiusKm := range f.params.RadiiKm {
		att, s := f.probe(ctx, parameter, radiusKm)
		attempts = append(attempts, att)

		switch att.Status {
		case StatusFetched:
			f.logger.InfoContext(ctx, "found measurements",
				slog.String("parameter", parameter),
				slog.String("location", att.Location),
				slog.Int("radius_km", radiusKm),
				slog.Int("records", att.Records),
			)
			return s, attempts, nil
		case StatusNoSensor:
			f.logger.DebugContext(ctx, "no sensor within radius",
				slog.String("parameter", parameter),
				slog.Int("radius_km", radiusKm),
			)
		case StatusNoData:
			f.logger.InfoContext(ctx, "sensor returned no data",
				slog.String("parameter", parameter),
				slog.String("location", att.Location),
				slog.Int("radius_km", radiusKm),
			)
		case StatusFailed:
			f.logger.WarnContext(ctx, "measurement probe failed",
				slog.String("parameter", parameter),
				slog.Int("radius_km", radiusKm),
				slog.String("error", att.Err.Error()),
			)
			// A failed probe is retried at the next radius unless the
			// whole run was cancelled
			if ctx.Err() != nil {
				return nil, attempts, ctx.Err()
			}
		}
	}

	return nil, attempts, nil
}

// probe resolves a sensor for the pollutant within one radius and fetches
// its series.
func (f *Fetcher) probe(ctx context.Context, parameter string, radiusKm int) (Attempt, *Series) {
	att := Attempt{Parameter: parameter, RadiusKm: radiusKm}

	locations, err := f.api.Locations(ctx, f.params.Point, radiusKm*1000, parameter, f.params.LocationLimit)
	if err != nil {
		att.Status = StatusFailed
		att.Err = fmt.Errorf("locations lookup: %w", err)
		return att, nil
	}

	sensorID, locationName, ok := FindSensor(locations, parameter)
	if !ok {
		att.Status = StatusNoSensor
		return att, nil
	}
	att.SensorID = sensorID
	att.Location = locationName

	records, err := f.api.HourlyMeasurements(ctx, sensorID, f.params.DateFrom, f.params.DateTo, f.params.PageLimit)
	if err != nil {
		att.Status = StatusFailed
		att.Err = fmt.Errorf("measurements fetch: %w", err)
		return att, nil
	}
	if len(records) == 0 {
		att.Status = StatusNoData
		return att, nil
	}

	att.Status = StatusFetched
	att.Records = len(records)
	return att, &Series{
		Parameter: parameter,
		Location:  locationName,
		SensorID:  sensorID,
		RadiusKm:  radiusKm,
		Records:   records,
	}
}

// FindSensor scans locations in API order and returns the first sensor
// whose parameter name matches the requested pollutant. Locations can list
// sensors for other parameters alongside the queried one, so every sensor
// is checked individually.
func FindSensor(locations []Location, parameter string) (sensorID int, locationName string, ok bool) {
	for _, loc := range locations {
		for _, sensor := range loc.Sensors {
			if strings.EqualFold(sensor.Parameter.Name, parameter) {
				return sensor.ID, loc.Name, true
			}
		}
	}
	return 0, "", false
}
