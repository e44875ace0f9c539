package tempo

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes an extracted pixel set.
type Summary struct {
	Count int

	LatMin, LatMax float64
	LonMin, LonMax float64

	NO2Min    float64
	NO2Max    float64
	NO2Mean   float64
	NO2Median float64

	// Bands counts pixels per latitude band, south to north.
	Bands []Band
}

// Band is one latitude bin of the coverage histogram.
type Band struct {
	Low   float64
	High  float64
	Count int
}

// Summarize computes descriptive statistics over the pixel set, including a
// latitude histogram with the given number of bands. A nil or empty set
// yields a zero summary.
func Summarize(pixels []Pixel, bands int) *Summary {
	s := &Summary{Count: len(pixels)}
	if len(pixels) == 0 {
		return s
	}

	lats := make([]float64, len(pixels))
	lons := make([]float64, len(pixels))
	vals := make([]float64, len(pixels))
	for i, p := range pixels {
		lats[i] = p.Lat
		lons[i] = p.Lon
		vals[i] = p.NO2
	}

	s.LatMin, s.LatMax = floats.Min(lats), floats.Max(lats)
	s.LonMin, s.LonMax = floats.Min(lons), floats.Max(lons)
	s.NO2Min, s.NO2Max = floats.Min(vals), floats.Max(vals)
	s.NO2Mean = stat.Mean(vals, nil)

	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	s.NO2Median = median(sorted)

	if bands > 0 {
		s.Bands = latitudeBands(lats, s.LatMin, s.LatMax, bands)
	}

	return s
}

// median returns the middle value of a sorted slice, averaging the two
// central values for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// latitudeBands bins latitudes into equal-width bands over [min, max].
func latitudeBands(lats []float64, min, max float64, bands int) []Band {
	// All pixels on one parallel: a single band holds everything
	if min == max {
		return []Band{{Low: min, High: max, Count: len(lats)}}
	}

	dividers := make([]float64, bands+1)
	floats.Span(dividers, min, max)
	// stat.Histogram requires every sample strictly below the last divider
	dividers[len(dividers)-1] = math.Nextafter(max, math.Inf(1))

	sorted := slices.Clone(lats)
	slices.Sort(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Band, bands)
	for i := range out {
		high := dividers[i+1]
		if i == len(out)-1 {
			high = max
		}
		out[i] = Band{Low: dividers[i], High: high, Count: int(counts[i])}
	}
	return out
}
