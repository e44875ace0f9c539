package tempo

import (
	"bytes"
	"strings"
	"testing"
)

func TestDedupe(t *testing.T) {
	pixels := []Pixel{
		{Lat: 10, Lon: -120, NO2: 1},
		{Lat: 20, Lon: -110, NO2: 2},
		{Lat: 10, Lon: -120, NO2: 99}, // duplicate cell from an overlapping granule
		{Lat: 10, Lon: -110, NO2: 3},
	}

	got := Dedupe(pixels)
	if len(got) != 3 {
		t.Fatalf("Dedupe() returned %d pixels, want 3: %v", len(got), got)
	}

	// First occurrence wins
	if got[0].NO2 != 1 {
		t.Errorf("Dedupe() kept NO2 = %g for duplicated cell, want 1", got[0].NO2)
	}

	// Idempotent
	again := Dedupe(got)
	if len(again) != len(got) {
		t.Errorf("Dedupe() not idempotent: %d then %d pixels", len(got), len(again))
	}
}

func TestSortPixels(t *testing.T) {
	pixels := []Pixel{
		{Lat: 20, Lon: -110},
		{Lat: 10, Lon: -100},
		{Lat: 10, Lon: -120},
		{Lat: 20, Lon: -120},
	}

	SortPixels(pixels)

	want := []Pixel{
		{Lat: 10, Lon: -120},
		{Lat: 10, Lon: -100},
		{Lat: 20, Lon: -120},
		{Lat: 20, Lon: -110},
	}
	for i := range want {
		if pixels[i] != want[i] {
			t.Errorf("pixel[%d] = %v, want %v", i, pixels[i], want[i])
		}
	}
}

func TestWriteCSV(t *testing.T) {
	pixels := []Pixel{
		{Lat: 10.5, Lon: -120.25, NO2: 1.25e15},
		{Lat: 20, Lon: -110, NO2: 3e14},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, pixels); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "latitude,longitude,NO2_molec_cm2\n" +
		"10.5,-120.25,1.25e+15\n" +
		"20,-110,3e+14\n"
	if buf.String() != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_EmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "latitude,longitude,NO2_molec_cm2" {
		t.Errorf("WriteCSV() = %q, want header only", got)
	}
}
