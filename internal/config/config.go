// Package config provides configuration management for the aqetl batch jobs.
package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/atmosense/aqetl/internal/geo"
)

const (
	// EnvFileVar names the variable that overrides the credential file path.
	EnvFileVar = "AQETL_ENV_FILE"

	// DefaultEnvFile is the credential file loaded when EnvFileVar is unset.
	DefaultEnvFile = ".env"
)

// Config holds the complete application configuration loaded from environment
// variables. Credentials usually arrive via a .env file (see Load); every
// other field carries a default so the jobs run out of the box.
type Config struct {
	OpenAQ    OpenAQConfig    `envPrefix:"OPENAQ_"`
	CMR       CMRConfig       `envPrefix:"CMR_"`
	Earthdata EarthdataConfig `envPrefix:"EARTHDATA_"`
	Extract   ExtractConfig   `envPrefix:"EXTRACT_"`
	Fetch     FetchConfig     `envPrefix:"FETCH_"`
	Sample    SampleConfig    `envPrefix:"SAMPLE_"`
	Logging   LoggingConfig   `envPrefix:"LOG_"`
}

// OpenAQConfig contains OpenAQ API client configuration.
type OpenAQConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.openaq.org/v3"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// CMRConfig contains CMR granule-search client configuration.
type CMRConfig struct {
	BaseURL  string        `env:"BASE_URL" envDefault:"https://cmr.earthdata.nasa.gov/search"`
	Provider string        `env:"PROVIDER" envDefault:"LARC_CLOUD"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// EarthdataConfig contains NASA Earthdata Login credentials and endpoints
// used to download protected granule files.
type EarthdataConfig struct {
	Token           string        `env:"TOKEN"`
	URSBaseURL      string        `env:"URS_BASE_URL" envDefault:"https://urs.earthdata.nasa.gov"`
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"10m"`
}

// ExtractConfig drives the TEMPO pixel-extraction job: which product to
// query, the spatial window, and the instant the granule search centers on.
type ExtractConfig struct {
	ShortName string        `env:"SHORT_NAME" envDefault:"TEMPO_NO2_L3"`
	Version   string        `env:"VERSION" envDefault:"V03"`
	West      float64       `env:"WEST" envDefault:"-160"`
	South     float64       `env:"SOUTH" envDefault:"10"`
	East      float64       `env:"EAST" envDefault:"-40"`
	North     float64       `env:"NORTH" envDefault:"60"`
	Target    time.Time     `env:"TARGET" envDefault:"2025-07-11T19:00:00Z"`
	Window    time.Duration `env:"WINDOW" envDefault:"3h"`
	Output    string        `env:"OUTPUT" envDefault:"tempo_no2_north_america.csv"`
}

// FetchConfig drives the OpenAQ measurement-fetch job.
type FetchConfig struct {
	Lat           float64   `env:"LAT" envDefault:"49.2827"`
	Lon           float64   `env:"LON" envDefault:"-123.1207"`
	Parameters    []string  `env:"PARAMETERS" envDefault:"no2,o3,pm25"`
	RadiiKm       []int     `env:"RADII_KM" envDefault:"25,50,100"`
	DateFrom      time.Time `env:"DATE_FROM" envDefault:"2025-07-11T00:00:00Z"`
	DateTo        time.Time `env:"DATE_TO" envDefault:"2025-07-12T23:59:59Z"`
	LocationLimit int       `env:"LOCATION_LIMIT" envDefault:"5"`
	PageLimit     int       `env:"PAGE_LIMIT" envDefault:"1000"`
	Output        string    `env:"OUTPUT" envDefault:"measurements_vancouver.csv"`
}

// SampleConfig drives the CSV subsampling job.
type SampleConfig struct {
	Input  string `env:"INPUT" envDefault:"tempo_no2_north_america.csv"`
	N      int    `env:"N" envDefault:"500000"`
	Seed   int64  `env:"SEED" envDefault:"42"`
	OutDir string `env:"OUT_DIR" envDefault:"output"`
	Prefix string `env:"PREFIX" envDefault:"tempo_no2_sampled"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load parses configuration from environment variables, after merging in the
// .env credential file when one exists. Variables already set in the process
// environment win over the file.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{}

	opts := env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Time{}): parseTimeValue,
		},
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadEnvFile merges the credential file into the environment. A missing
// file is not an error: credentials may come from the environment directly.
func loadEnvFile() {
	path := os.Getenv(EnvFileVar)
	if path == "" {
		path = DefaultEnvFile
	}
	_ = godotenv.Load(path)
}

// parseTimeValue accepts RFC 3339 timestamps and the space-separated form
// ("2006-01-02 15:04:05", interpreted as UTC).
func parseTimeValue(v string) (interface{}, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return t.UTC(), nil
	}
	return nil, fmt.Errorf("unable to parse time %q, expected RFC 3339", v)
}

// Validate checks that the configuration is valid. Credentials are not
// checked here: each job requires only the credentials it uses (see
// OpenAQConfig.RequireAPIKey and EarthdataConfig.RequireToken).
func (c *Config) Validate() error {
	// Validate OpenAQ config
	if c.OpenAQ.BaseURL == "" {
		return fmt.Errorf("OpenAQ base URL is required")
	}
	if c.OpenAQ.Timeout <= 0 {
		return fmt.Errorf("OpenAQ timeout must be positive, got %s", c.OpenAQ.Timeout)
	}

	// Validate CMR config
	if c.CMR.BaseURL == "" {
		return fmt.Errorf("CMR base URL is required")
	}
	if c.CMR.Timeout <= 0 {
		return fmt.Errorf("CMR timeout must be positive, got %s", c.CMR.Timeout)
	}

	// Validate Earthdata config
	if c.Earthdata.URSBaseURL == "" {
		return fmt.Errorf("URS base URL is required")
	}
	if c.Earthdata.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive, got %s", c.Earthdata.DownloadTimeout)
	}

	// Validate extract config
	if c.Extract.ShortName == "" {
		return fmt.Errorf("extract short name is required")
	}
	if err := c.Extract.BBox().Validate(); err != nil {
		return fmt.Errorf("invalid extract bounding box: %w", err)
	}
	if c.Extract.Target.IsZero() {
		return fmt.Errorf("extract target time is required")
	}
	if c.Extract.Window <= 0 {
		return fmt.Errorf("extract window must be positive, got %s", c.Extract.Window)
	}
	if c.Extract.Output == "" {
		return fmt.Errorf("extract output path is required")
	}

	// Validate fetch config
	if err := c.Fetch.Point().Validate(); err != nil {
		return fmt.Errorf("invalid fetch point: %w", err)
	}
	if len(c.Fetch.Parameters) == 0 {
		return fmt.Errorf("fetch parameters must not be empty")
	}
	if len(c.Fetch.RadiiKm) == 0 {
		return fmt.Errorf("fetch radii must not be empty")
	}
	for _, r := range c.Fetch.RadiiKm {
		if r <= 0 {
			return fmt.Errorf("fetch radii must be positive, got %d", r)
		}
	}
	if !c.Fetch.DateFrom.Before(c.Fetch.DateTo) {
		return fmt.Errorf("fetch date_from (%s) must be before date_to (%s)",
			c.Fetch.DateFrom.Format(time.RFC3339), c.Fetch.DateTo.Format(time.RFC3339))
	}
	if c.Fetch.LocationLimit < 1 {
		return fmt.Errorf("fetch location limit must be at least 1, got %d", c.Fetch.LocationLimit)
	}
	if c.Fetch.PageLimit < 1 {
		return fmt.Errorf("fetch page limit must be at least 1, got %d", c.Fetch.PageLimit)
	}
	if c.Fetch.Output == "" {
		return fmt.Errorf("fetch output path is required")
	}

	// Validate sample config
	if c.Sample.Input == "" {
		return fmt.Errorf("sample input path is required")
	}
	if c.Sample.N < 1 {
		return fmt.Errorf("sample size must be at least 1, got %d", c.Sample.N)
	}
	if c.Sample.OutDir == "" {
		return fmt.Errorf("sample output directory is required")
	}
	if c.Sample.Prefix == "" {
		return fmt.Errorf("sample output prefix is required")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// RequireAPIKey fails with setup guidance when no OpenAQ key is configured.
func (c *OpenAQConfig) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing OPENAQ_API_KEY: set it in the environment or in the %s file", DefaultEnvFile)
	}
	return nil
}

// RequireToken fails with setup guidance when no Earthdata token is configured.
func (c *EarthdataConfig) RequireToken() error {
	if c.Token == "" {
		return fmt.Errorf("missing EARTHDATA_TOKEN: set it in the environment or in the %s file", DefaultEnvFile)
	}
	return nil
}

// BBox returns the extraction region.
func (c *ExtractConfig) BBox() geo.BBox {
	return geo.BBox{West: c.West, South: c.South, East: c.East, North: c.North}
}

// Point returns the measurement site coordinates.
func (c *FetchConfig) Point() geo.Point {
	return geo.Point{Lat: c.Lat, Lon: c.Lon}
}
