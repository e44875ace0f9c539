package openaq

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams() Params {
	return Params{
		Point:         vancouver,
		Parameters:    []string{"no2"},
		RadiiKm:       []int{25, 50, 100},
		DateFrom:      time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC),
		DateTo:        time.Date(2025, 7, 12, 23, 59, 59, 0, time.UTC),
		LocationLimit: 5,
		PageLimit:     1000,
	}
}

func TestFetcher_RadiusExpansion(t *testing.T) {
	var locationCalls []string

	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		radius := r.URL.Query().Get("radius")
		locationCalls = append(locationCalls, radius)

		// Nothing within 25 km; a sensor appears at 50 km
		if radius == "25000" {
			w.Write([]byte(`{"results": []}`))
			return
		}
		w.Write([]byte(`{
			"results": [
				{"id": 1, "name": "Burnaby South", "sensors": [
					{"id": 673, "parameter": {"id": 7, "name": "no2"}}
				]}
			]
		}`))
	})
	mux.HandleFunc("/sensors/673/measurements/hourly", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [
			{"datetime": "2025-07-11T00:00:00Z", "value": 10.5},
			{"datetime": "2025-07-11T01:00:00Z", "value": 11.0}
		]}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "test-key", 30*time.Second)
	fetcher := NewFetcher(client, testParams(), discardLogger())

	series, attempts, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(series) != 1 {
		t.Fatalf("Fetch() returned %d series, want 1", len(series))
	}
	s := series[0]
	if s.Parameter != "no2" || s.RadiusKm != 50 || s.SensorID != 673 || s.Location != "Burnaby South" {
		t.Errorf("unexpected series: %+v", s)
	}
	if len(s.Records) != 2 {
		t.Errorf("series has %d records, want 2", len(s.Records))
	}

	// First success wins: 100 km must never be probed
	if len(locationCalls) != 2 || locationCalls[0] != "25000" || locationCalls[1] != "50000" {
		t.Errorf("locations probed at radii %v, want [25000 50000]", locationCalls)
	}

	if len(attempts) != 2 {
		t.Fatalf("Fetch() recorded %d attempts, want 2", len(attempts))
	}
	if attempts[0].Status != StatusNoSensor || attempts[0].RadiusKm != 25 {
		t.Errorf("attempt[0] = %+v, want no sensor at 25 km", attempts[0])
	}
	if attempts[1].Status != StatusFetched || attempts[1].Records != 2 {
		t.Errorf("attempt[1] = %+v, want fetched with 2 records", attempts[1])
	}
}

func TestFetcher_ProbeFailureTriesNextRadius(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("radius") == "25000" {
			http.Error(w, "upstream broke", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{
			"results": [
				{"id": 1, "name": "Burnaby South", "sensors": [
					{"id": 673, "parameter": {"id": 7, "name": "no2"}}
				]}
			]
		}`))
	})
	mux.HandleFunc("/sensors/673/measurements/hourly", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"datetime": "2025-07-11T00:00:00Z", "value": 10.5}]}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "test-key", 30*time.Second)
	fetcher := NewFetcher(client, testParams(), discardLogger())

	series, attempts, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(series) != 1 {
		t.Fatalf("Fetch() returned %d series, want 1", len(series))
	}

	if attempts[0].Status != StatusFailed {
		t.Errorf("attempt[0].Status = %s, want failed", attempts[0].Status)
	}
	if attempts[0].Err == nil {
		t.Error("attempt[0].Err = nil, want the probe error")
	}
	if attempts[1].Status != StatusFetched {
		t.Errorf("attempt[1].Status = %s, want fetched", attempts[1].Status)
	}
}

func TestFetcher_EmptySeriesTriesNextRadius(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		// A different sensor resolves at each radius
		if r.URL.Query().Get("radius") == "25000" {
			w.Write([]byte(`{"results": [{"id": 1, "name": "Quiet Station", "sensors": [
				{"id": 100, "parameter": {"name": "no2"}}
			]}]}`))
			return
		}
		w.Write([]byte(`{"results": [{"id": 2, "name": "Busy Station", "sensors": [
			{"id": 200, "parameter": {"name": "no2"}}
		]}]}`))
	})
	mux.HandleFunc("/sensors/100/measurements/hourly", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	})
	mux.HandleFunc("/sensors/200/measurements/hourly", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"datetime": "2025-07-11T00:00:00Z", "value": 3.5}]}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "test-key", 30*time.Second)
	fetcher := NewFetcher(client, testParams(), discardLogger())

	series, attempts, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(series) != 1 || series[0].SensorID != 200 {
		t.Fatalf("Fetch() series = %+v, want one series from sensor 200", series)
	}

	if attempts[0].Status != StatusNoData {
		t.Errorf("attempt[0].Status = %s, want no data", attempts[0].Status)
	}
	if attempts[0].Location != "Quiet Station" {
		t.Errorf("attempt[0].Location = %q, want Quiet Station", attempts[0].Location)
	}
}

func TestFetcher_ExhaustedRadiiYieldsNoSeries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "test-key", 30*time.Second)

	params := testParams()
	params.Parameters = []string{"no2", "o3"}
	fetcher := NewFetcher(client, params, discardLogger())

	series, attempts, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// Not an error: the run simply found nothing
	if len(series) != 0 {
		t.Errorf("Fetch() returned %d series, want 0", len(series))
	}

	// Every pollutant probed every radius
	if len(attempts) != 6 {
		t.Errorf("Fetch() recorded %d attempts, want 6", len(attempts))
	}
	for _, att := range attempts {
		if att.Status != StatusNoSensor {
			t.Errorf("attempt %+v, want no sensor", att)
		}
	}
}

func TestFindSensor(t *testing.T) {
	locations := []Location{
		{
			ID:   1,
			Name: "North Station",
			Sensors: []Sensor{
				{ID: 10, Parameter: Parameter{Name: "pm25"}},
				{ID: 11, Parameter: Parameter{Name: "o3"}},
			},
		},
		{
			ID:   2,
			Name: "South Station",
			Sensors: []Sensor{
				{ID: 20, Parameter: Parameter{Name: "no2"}},
			},
		},
	}

	tests := []struct {
		name         string
		parameter    string
		wantSensor   int
		wantLocation string
		wantOK       bool
	}{
		{"matches across locations", "no2", 20, "South Station", true},
		{"matches first location", "o3", 11, "North Station", true},
		{"case-insensitive", "NO2", 20, "South Station", true},
		{"no match", "so2", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sensorID, locationName, ok := FindSensor(locations, tt.parameter)
			if ok != tt.wantOK {
				t.Fatalf("FindSensor() ok = %v, want %v", ok, tt.wantOK)
			}
			if sensorID != tt.wantSensor {
				t.Errorf("FindSensor() sensorID = %d, want %d", sensorID, tt.wantSensor)
			}
			if locationName != tt.wantLocation {
				t.Errorf("FindSensor() location = %q, want %q", locationName, tt.wantLocation)
			}
		})
	}
}
