// Package tempo extracts validated NO2 pixels from TEMPO level-3 granules.
package tempo

import (
	"errors"
	"fmt"
	"math"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/atmosense/aqetl/internal/geo"
)

const (
	// productGroup is the NetCDF subgroup holding the science variables in
	// TEMPO L3 files. Coordinate axes live in the root group.
	productGroup = "product"

	scienceVar = "vertical_column_troposphere"
	qualityVar = "main_data_quality_flag"
	latVar     = "latitude"
	lonVar     = "longitude"
)

var (
	// ErrNoCoordinates indicates a granule file without usable latitude or
	// longitude arrays.
	ErrNoCoordinates = errors.New("coordinate arrays not found")

	// ErrMissingVariable indicates a granule file without the science
	// variable.
	ErrMissingVariable = errors.New("science variable not found")

	// ErrShapeMismatch indicates coordinate axes whose lengths disagree
	// with the science grid.
	ErrShapeMismatch = errors.New("grid shape mismatch")
)

// Grid holds one granule's decoded arrays: the 1-D coordinate axes and the
// co-indexed 2-D science and quality matrices for the granule's single time
// step. Data is indexed [lat][lon].
type Grid struct {
	Lat  []float64
	Lon  []float64
	Data [][]float64
	Flag [][]float64
}

// ReadGranule opens the NetCDF file at path and decodes the arrays the
// extractor needs. Science variables are looked up in the product subgroup
// first and fall back to the root group; a missing quality variable marks
// every cell as good.
func ReadGranule(path string) (*Grid, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open granule file: %w", err)
	}
	defer nc.Close()

	lat, err := axisValues(nc, latVar)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCoordinates, err)
	}
	lon, err := axisValues(nc, lonVar)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCoordinates, err)
	}

	vars := nc
	if product, err := nc.GetGroup(productGroup); err == nil {
		defer product.Close()
		vars = product
	}

	data, err := matrixValues(vars, scienceVar)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingVariable, err)
	}

	flag, err := matrixValues(vars, qualityVar)
	if err != nil {
		// No quality variable: treat every cell as good
		flag = zeroMatrix(len(lat), len(lon))
	}

	g := &Grid{Lat: lat, Lon: lon, Data: data, Flag: flag}
	if err := g.validateShape(); err != nil {
		return nil, err
	}
	return g, nil
}

// validateShape checks that the science and quality matrices line up with
// the coordinate axes.
func (g *Grid) validateShape() error {
	if len(g.Data) != len(g.Lat) {
		return fmt.Errorf("%w: %d data rows for %d latitudes", ErrShapeMismatch, len(g.Data), len(g.Lat))
	}
	if len(g.Flag) != len(g.Lat) {
		return fmt.Errorf("%w: %d flag rows for %d latitudes", ErrShapeMismatch, len(g.Flag), len(g.Lat))
	}
	for i := range g.Data {
		if len(g.Data[i]) != len(g.Lon) {
			return fmt.Errorf("%w: data row %d has %d columns for %d longitudes", ErrShapeMismatch, i, len(g.Data[i]), len(g.Lon))
		}
		if len(g.Flag[i]) != len(g.Lon) {
			return fmt.Errorf("%w: flag row %d has %d columns for %d longitudes", ErrShapeMismatch, i, len(g.Flag[i]), len(g.Lon))
		}
	}
	return nil
}

// Clip applies the bounding-box and validity masks and flattens surviving
// cells to pixels, rows (latitude) outer and columns (longitude) inner. A
// cell survives when its quality flag is 0 and its value is finite and
// strictly positive. The second return reports whether the box overlapped
// the grid axes at all.
func (g *Grid) Clip(box geo.BBox) ([]Pixel, bool) {
	rows := make([]int, 0, len(g.Lat))
	for i, lat := range g.Lat {
		if box.ContainsLat(lat) {
			rows = append(rows, i)
		}
	}
	cols := make([]int, 0, len(g.Lon))
	for j, lon := range g.Lon {
		if box.ContainsLon(lon) {
			cols = append(cols, j)
		}
	}
	if len(rows) == 0 || len(cols) == 0 {
		return nil, false
	}

	var pixels []Pixel
	for _, i := range rows {
		for _, j := range cols {
			if g.Flag[i][j] != 0 {
				continue
			}
			v := g.Data[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				continue
			}
			pixels = append(pixels, Pixel{Lat: g.Lat[i], Lon: g.Lon[j], NO2: v})
		}
	}
	return pixels, true
}

// axisValues reads a 1-D coordinate variable as float64.
func axisValues(g api.Group, name string) ([]float64, error) {
	vg, err := g.GetVarGetter(name)
	if err != nil {
		return nil, err
	}
	v, err := vg.Values()
	if err != nil {
		return nil, err
	}
	return toFloat1D(v)
}

// matrixValues reads the named variable's single time step as a 2-D float64
// matrix. Three-dimensional variables (time, lat, lon) are sliced on the
// leading axis; plain 2-D variables are read whole.
func matrixValues(g api.Group, name string) ([][]float64, error) {
	vg, err := g.GetVarGetter(name)
	if err != nil {
		return nil, err
	}

	switch dims := len(vg.Dimensions()); dims {
	case 3:
		v, err := vg.GetSlice(0, 1)
		if err != nil {
			return nil, err
		}
		cube, err := toFloat3D(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		if len(cube) == 0 {
			return nil, fmt.Errorf("variable %s has an empty leading dimension", name)
		}
		return cube[0], nil
	case 2:
		v, err := vg.Values()
		if err != nil {
			return nil, err
		}
		m, err := toFloat2D(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("variable %s has %d dimensions, want 2 or 3", name, dims)
	}
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
