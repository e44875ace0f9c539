// Package geo provides the geographic primitives shared by the ETL jobs.
package geo

import "fmt"

// BBox is a rectangular region in degrees: [west, south, east, north].
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Validate checks coordinate ranges and ordering on both axes.
func (b BBox) Validate() error {
	// Validate longitude bounds
	if b.West < -180 || b.West > 180 {
		return fmt.Errorf("west longitude must be between -180 and 180, got %f", b.West)
	}
	if b.East < -180 || b.East > 180 {
		return fmt.Errorf("east longitude must be between -180 and 180, got %f", b.East)
	}

	// Validate latitude bounds
	if b.South < -90 || b.South > 90 {
		return fmt.Errorf("south latitude must be between -90 and 90, got %f", b.South)
	}
	if b.North < -90 || b.North > 90 {
		return fmt.Errorf("north latitude must be between -90 and 90, got %f", b.North)
	}

	// Validate spatial relationships
	if b.West > b.East {
		return fmt.Errorf("west longitude (%f) must be less than or equal to east longitude (%f)", b.West, b.East)
	}
	if b.South > b.North {
		return fmt.Errorf("south latitude (%f) must be less than or equal to north latitude (%f)", b.South, b.North)
	}

	return nil
}

// ContainsLat reports whether lat falls inside the box's latitude band,
// boundaries included.
func (b BBox) ContainsLat(lat float64) bool {
	return lat >= b.South && lat <= b.North
}

// ContainsLon reports whether lon falls inside the box's longitude band,
// boundaries included.
func (b BBox) ContainsLon(lon float64) bool {
	return lon >= b.West && lon <= b.East
}

// Contains reports whether the point (lat, lon) falls inside the box.
func (b BBox) Contains(lat, lon float64) bool {
	return b.ContainsLat(lat) && b.ContainsLon(lon)
}

// String renders the box as "west,south,east,north", the order CMR's
// bounding_box parameter expects.
func (b BBox) String() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.West, b.South, b.East, b.North)
}

// Point is a WGS-84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Validate checks that the point's coordinates are in range.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", p.Lon)
	}
	return nil
}

// Coordinates renders the point as "lat,lon", the order OpenAQ's
// coordinates parameter expects.
func (p Point) Coordinates() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lon)
}
