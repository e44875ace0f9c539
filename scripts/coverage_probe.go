// Script to probe hourly TEMPO coverage for a given day via CMR
package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const cmrBaseURL = "https://cmr.earthdata.nasa.gov/search/granules.umm_json"

const (
	shortName = "TEMPO_NO2_L3"
	version   = "V03"
	provider  = "LARC_CLOUD"
)

// North America bounding box (west, south, east, north)
var naBBox = []float64{-160.0, 10.0, -40.0, 60.0}

func main() {
	day := time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC)
	if len(os.Args) > 1 {
		parsed, err := time.Parse("2006-01-02", os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad day %q: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		day = parsed
	}

	fmt.Printf("=== %s %s coverage on %s ===\n", shortName, version, day.Format("2006-01-02"))
	fmt.Printf("Bounding box: %v\n\n", naBBox)

	best := -1
	bestHits := 0
	total := 0
	for hour := 0; hour < 24; hour++ {
		start := day.Add(time.Duration(hour) * time.Hour)
		end := start.Add(time.Hour)

		hits, err := queryCMR(start, end)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hour %02d query failed: %v\n", hour, err)
			continue
		}

		fmt.Printf("  %02d:00-%02d:00 UTC  %d granules\n", hour, hour+1, hits)

		total += hits
		if hits > bestHits {
			best, bestHits = hour, hits
		}
	}

	fmt.Printf("\nTotal: %d granules\n", total)
	if best >= 0 {
		fmt.Printf("Densest hour: %02d:00 UTC (%d granules)\n", best, bestHits)
		fmt.Println("Point EXTRACT_TARGET_TIME at the middle of that hour.")
	} else {
		fmt.Println("No coverage found. TEMPO only observes in daylight; try another day.")
	}
}

func queryCMR(start, end time.Time) (int, error) {
	// CMR uses bounding_box format: west,south,east,north
	bbox := fmt.Sprintf("%f,%f,%f,%f", naBBox[0], naBBox[1], naBBox[2], naBBox[3])

	// Temporal format: start,end
	temporal := fmt.Sprintf("%s,%s",
		start.Format("2006-01-02T15:04:05Z"),
		end.Format("2006-01-02T15:04:05Z"),
	)

	params := url.Values{}
	params.Set("provider", provider)
	params.Set("short_name", shortName)
	params.Set("version", version)
	params.Set("bounding_box", bbox)
	params.Set("temporal", temporal)
	params.Set("page_size", "0") // Just get count

	resp, err := http.Get(cmrBaseURL + "?" + params.Encode())
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	// Get count from CMR-Hits header
	hitsHeader := resp.Header.Get("CMR-Hits")
	var hits int
	fmt.Sscanf(hitsHeader, "%d", &hits)

	return hits, nil
}
