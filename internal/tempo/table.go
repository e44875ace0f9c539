package tempo

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Pixel is one validated measurement cell flattened from a granule grid.
type Pixel struct {
	Lat float64
	Lon float64
	NO2 float64 // tropospheric vertical column, molecules/cm^2
}

// csvHeader is the fixed output column order.
var csvHeader = []string{"latitude", "longitude", "NO2_molec_cm2"}

// Dedupe removes pixels sharing an exact (lat, lon) pair, keeping the first
// occurrence. Scan-to-scan overlap makes neighboring granules report the
// same physical cell more than once. The operation is idempotent.
func Dedupe(pixels []Pixel) []Pixel {
	type key struct{ lat, lon float64 }

	seen := make(map[key]struct{}, len(pixels))
	out := make([]Pixel, 0, len(pixels))
	for _, p := range pixels {
		k := key{p.Lat, p.Lon}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SortPixels orders pixels ascending by latitude, then longitude.
func SortPixels(pixels []Pixel) {
	slices.SortFunc(pixels, func(a, b Pixel) int {
		if c := cmp.Compare(a.Lat, b.Lat); c != 0 {
			return c
		}
		return cmp.Compare(a.Lon, b.Lon)
	})
}

// WriteCSV serializes pixels in the fixed column order
// latitude,longitude,NO2_molec_cm2.
func WriteCSV(w io.Writer, pixels []Pixel) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, p := range pixels {
		rec := []string{
			formatFloat(p.Lat),
			formatFloat(p.Lon),
			formatFloat(p.NO2),
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
