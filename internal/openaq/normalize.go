package openaq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// The v3 API has shipped measurement records under several field layouts.
// Each candidate list is tried in priority order; the first present,
// non-null match wins.
var (
	timeFields       = []string{"datetime", "timestamp", "date", "datetimeUtc"}
	nestedTimeFields = []string{"utc", "local", "utc_datetime"}
	valueFields      = []string{"value", "measurement"}
)

// measurementTimeFormats covers the timestamp renderings observed from the
// API: RFC 3339 with and without offsets, plus bare date-time strings.
var measurementTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	errNoTimestamp = errors.New("no recognized timestamp field")
	errNoValue     = errors.New("no recognized value field")
)

// Record is one normalized hourly measurement.
type Record struct {
	Time  time.Time
	Value float64
}

// decodeRecords normalizes raw measurement records, dropping those without
// a usable timestamp or value.
func decodeRecords(raws []json.RawMessage) ([]Record, int) {
	records := make([]Record, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		rec, err := normalizeRecord(raw)
		if err != nil {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

// normalizeRecord extracts the timestamp and value from one raw measurement
// record. A zero reading is a legitimate value and is kept.
func normalizeRecord(raw json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, fmt.Errorf("measurement record is not an object: %w", err)
	}

	ts, err := timestampField(fields)
	if err != nil {
		return Record{}, err
	}
	t, err := parseMeasurementTime(ts)
	if err != nil {
		return Record{}, err
	}

	value, err := valueField(fields)
	if err != nil {
		return Record{}, err
	}

	return Record{Time: t, Value: value}, nil
}

// timestampField returns the first present, non-null timestamp candidate.
// A candidate may be a flat string or a nested object, which is searched by
// its own candidate key list.
func timestampField(fields map[string]json.RawMessage) (string, error) {
	for _, name := range timeFields {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			continue
		}

		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, nil
		}

		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil {
			continue
		}
		for _, sub := range nestedTimeFields {
			subRaw, ok := nested[sub]
			if !ok || isNull(subRaw) {
				continue
			}
			if err := json.Unmarshal(subRaw, &s); err == nil {
				return s, nil
			}
		}
	}
	return "", errNoTimestamp
}

// valueField returns the first present, non-null numeric candidate.
func valueField(fields map[string]json.RawMessage) (float64, error) {
	for _, name := range valueFields {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}
	return 0, errNoValue
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// parseMeasurementTime parses a measurement timestamp, trying each known
// layout. Returns time in UTC.
func parseMeasurementTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}

	var lastErr error
	for _, format := range measurementTimeFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse measurement time %q: %w", s, lastErr)
}
