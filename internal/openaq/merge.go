package openaq

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/atmosense/aqetl/internal/geo"
)

// Table is the merged wide table: one row per distinct timestamp across all
// series, one column per configured pollutant in configuration order.
type Table struct {
	Lat        float64
	Lon        float64
	Parameters []string
	Rows       []Row
}

// Row holds the merged readings at one instant. Values align with the
// table's Parameters; nil marks a pollutant with no reading at that
// instant.
type Row struct {
	Time   time.Time
	Values []*float64
}

// Merge outer-joins the series on their timestamps. Every configured
// parameter becomes a column even when no series was found for it, keeping
// the output schema stable run to run. Duplicate timestamps within one
// series keep the last reading. Rows come back sorted by time ascending.
func Merge(point geo.Point, parameters []string, series []Series) *Table {
	t := &Table{Lat: point.Lat, Lon: point.Lon, Parameters: parameters}

	col := make(map[string]int, len(parameters))
	for i, p := range parameters {
		col[p] = i
	}

	byTime := make(map[int64]*Row)
	for _, s := range series {
		idx, ok := col[s.Parameter]
		if !ok {
			continue
		}
		for _, r := range s.Records {
			key := r.Time.UnixNano()
			row, ok := byTime[key]
			if !ok {
				row = &Row{Time: r.Time.UTC(), Values: make([]*float64, len(parameters))}
				byTime[key] = row
			}
			v := r.Value
			row.Values[idx] = &v
		}
	}

	t.Rows = make([]Row, 0, len(byTime))
	for _, row := range byTime {
		t.Rows = append(t.Rows, *row)
	}
	slices.SortFunc(t.Rows, func(a, b Row) int {
		return a.Time.Compare(b.Time)
	})

	return t
}

// WriteCSV serializes the table with the fixed leading columns
// latitude,longitude,time followed by one column per pollutant. Missing
// readings are left empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 3+len(t.Parameters))
	header = append(header, "latitude", "longitude", "time")
	header = append(header, t.Parameters...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	lat := formatFloat(t.Lat)
	lon := formatFloat(t.Lon)
	for _, row := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, lat, lon, row.Time.UTC().Format(time.RFC3339))
		for _, v := range row.Values {
			if v == nil {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, formatFloat(*v))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// formatFloat renders a float with the shortest representation that
// round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
