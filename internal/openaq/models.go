package openaq

import "encoding/json"

// locationsResponse is the envelope of the locations endpoint.
type locationsResponse struct {
	Results []Location `json:"results"`
}

// Location is one monitoring site returned by the locations endpoint.
type Location struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Sensors []Sensor `json:"sensors"`
}

// Sensor is one instrument at a location.
type Sensor struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Parameter Parameter `json:"parameter"`
}

// Parameter identifies the pollutant a sensor measures.
type Parameter struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Units       string `json:"units"`
	DisplayName string `json:"displayName"`
}

// measurementsResponse is the envelope of the hourly measurements endpoint.
// Records are kept raw: their field names vary and are normalized one by
// one (see normalizeRecord).
type measurementsResponse struct {
	Results []json.RawMessage `json:"results"`
}
