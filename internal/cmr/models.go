package cmr

import (
	"fmt"
	"strings"
	"time"
)

// UMMSearchResponse represents a CMR UMM-G search response.
type UMMSearchResponse struct {
	Hits  int             `json:"hits"`
	Took  int             `json:"took"`
	Items []UMMResultItem `json:"items"`
}

// UMMResultItem wraps a UMM granule with metadata.
type UMMResultItem struct {
	Meta UMMMeta    `json:"meta"`
	UMM  UMMGranule `json:"umm"`
}

// UMMMeta contains metadata about a CMR result item.
type UMMMeta struct {
	ConceptID  string `json:"concept-id"`
	ProviderID string `json:"provider-id"`
}

// UMMGranule is the subset of a UMM-G (Unified Metadata Model for Granules)
// record the extraction pipeline consumes.
type UMMGranule struct {
	GranuleUR           string              `json:"GranuleUR"`
	CollectionReference CollectionReference `json:"CollectionReference"`
	RelatedUrls         []RelatedURL        `json:"RelatedUrls,omitempty"`
	DataGranule         *DataGranule        `json:"DataGranule,omitempty"`
	TemporalExtent      *TemporalExtent     `json:"TemporalExtent,omitempty"`
}

// CollectionReference identifies the parent collection.
type CollectionReference struct {
	ShortName string `json:"ShortName"`
	Version   string `json:"Version"`
}

// RelatedURL represents a URL related to the granule.
type RelatedURL struct {
	URL         string `json:"URL"`
	Type        string `json:"Type"` // e.g., "GET DATA"
	Subtype     string `json:"Subtype,omitempty"`
	Description string `json:"Description,omitempty"`
	MimeType    string `json:"MimeType,omitempty"`
}

// DataGranule contains data granule information.
type DataGranule struct {
	DayNightFlag                      string            `json:"DayNightFlag,omitempty"`
	ProductionDateTime                string            `json:"ProductionDateTime,omitempty"`
	ArchiveAndDistributionInformation []ArchiveDistInfo `json:"ArchiveAndDistributionInformation,omitempty"`
}

// ArchiveDistInfo contains archive and distribution information.
type ArchiveDistInfo struct {
	Name     string   `json:"Name"`
	Size     *float64 `json:"Size,omitempty"`
	SizeUnit string   `json:"SizeUnit,omitempty"`
	Format   string   `json:"Format,omitempty"`
}

// TemporalExtent contains temporal information.
type TemporalExtent struct {
	RangeDateTime  *RangeDateTime `json:"RangeDateTime,omitempty"`
	SingleDateTime string         `json:"SingleDateTime,omitempty"`
}

// RangeDateTime represents a time range.
type RangeDateTime struct {
	BeginningDateTime string `json:"BeginningDateTime"`
	EndingDateTime    string `json:"EndingDateTime"`
}

// StartTime returns the start time of the granule.
func (g *UMMGranule) StartTime() (time.Time, error) {
	if g.TemporalExtent == nil {
		return time.Time{}, nil
	}

	if g.TemporalExtent.RangeDateTime != nil && g.TemporalExtent.RangeDateTime.BeginningDateTime != "" {
		return parseTime(g.TemporalExtent.RangeDateTime.BeginningDateTime)
	}

	if g.TemporalExtent.SingleDateTime != "" {
		return parseTime(g.TemporalExtent.SingleDateTime)
	}

	return time.Time{}, nil
}

// EndTime returns the end time of the granule.
func (g *UMMGranule) EndTime() (time.Time, error) {
	if g.TemporalExtent == nil {
		return time.Time{}, nil
	}

	if g.TemporalExtent.RangeDateTime != nil && g.TemporalExtent.RangeDateTime.EndingDateTime != "" {
		return parseTime(g.TemporalExtent.RangeDateTime.EndingDateTime)
	}

	if g.TemporalExtent.SingleDateTime != "" {
		return parseTime(g.TemporalExtent.SingleDateTime)
	}

	return time.Time{}, nil
}

// DataURL returns the granule's HTTPS download URL, or "" when the granule
// carries none. S3 direct-access links are skipped: downloads go through
// the Earthdata HTTPS distribution endpoints.
func (g *UMMGranule) DataURL() string {
	for _, u := range g.RelatedUrls {
		if u.Type == "GET DATA" && strings.HasPrefix(u.URL, "https://") {
			return u.URL
		}
	}
	return ""
}

// SizeMB returns the granule's archive size in megabytes, or 0 when the
// metadata does not carry one.
func (g *UMMGranule) SizeMB() float64 {
	if g.DataGranule == nil {
		return 0
	}
	for _, info := range g.DataGranule.ArchiveAndDistributionInformation {
		if info.Size == nil {
			continue
		}
		switch strings.ToUpper(info.SizeUnit) {
		case "MB", "":
			return *info.Size
		case "GB":
			return *info.Size * 1024
		case "KB":
			return *info.Size / 1024
		}
	}
	return 0
}

// parseTime parses a CMR timestamp string.
func parseTime(s string) (time.Time, error) {
	// CMR uses ISO 8601 format
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05.000Z",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time: %s", s)
}
