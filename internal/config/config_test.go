package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// pointEnvFileAway keeps tests hermetic: Load must not pick up a developer's
// real .env from the working directory.
func pointEnvFileAway(t *testing.T) {
	t.Helper()
	os.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))
	t.Cleanup(func() { os.Unsetenv(EnvFileVar) })
}

func TestLoadDefaults(t *testing.T) {
	pointEnvFileAway(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAQ.BaseURL != "https://api.openaq.org/v3" {
		t.Errorf("expected default OpenAQ base URL, got %s", cfg.OpenAQ.BaseURL)
	}

	if cfg.CMR.BaseURL != "https://cmr.earthdata.nasa.gov/search" {
		t.Errorf("expected default CMR base URL, got %s", cfg.CMR.BaseURL)
	}

	if cfg.CMR.Provider != "LARC_CLOUD" {
		t.Errorf("expected default provider LARC_CLOUD, got %s", cfg.CMR.Provider)
	}

	if cfg.Extract.ShortName != "TEMPO_NO2_L3" {
		t.Errorf("expected default short name TEMPO_NO2_L3, got %s", cfg.Extract.ShortName)
	}

	if cfg.Extract.Version != "V03" {
		t.Errorf("expected default version V03, got %s", cfg.Extract.Version)
	}

	wantBox := "-160.000000,10.000000,-40.000000,60.000000"
	if got := cfg.Extract.BBox().String(); got != wantBox {
		t.Errorf("expected default bbox %s, got %s", wantBox, got)
	}

	wantTarget := time.Date(2025, 7, 11, 19, 0, 0, 0, time.UTC)
	if !cfg.Extract.Target.Equal(wantTarget) {
		t.Errorf("expected default target %s, got %s", wantTarget, cfg.Extract.Target)
	}

	if cfg.Extract.Window != 3*time.Hour {
		t.Errorf("expected default window 3h, got %s", cfg.Extract.Window)
	}

	if got := cfg.Fetch.Parameters; len(got) != 3 || got[0] != "no2" || got[1] != "o3" || got[2] != "pm25" {
		t.Errorf("expected default parameters [no2 o3 pm25], got %v", got)
	}

	if got := cfg.Fetch.RadiiKm; len(got) != 3 || got[0] != 25 || got[1] != 50 || got[2] != 100 {
		t.Errorf("expected default radii [25 50 100], got %v", got)
	}

	if cfg.Sample.N != 500000 {
		t.Errorf("expected default sample size 500000, got %d", cfg.Sample.N)
	}

	if cfg.Sample.Seed != 42 {
		t.Errorf("expected default seed 42, got %d", cfg.Sample.Seed)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	pointEnvFileAway(t)

	os.Setenv("EXTRACT_SHORT_NAME", "TEMPO_O3TOT_L3")
	os.Setenv("EXTRACT_VERSION", "V04")
	os.Setenv("EXTRACT_TARGET", "2025-08-01 12:00:00")
	os.Setenv("EXTRACT_WINDOW", "90m")
	os.Setenv("FETCH_RADII_KM", "10,20")
	os.Setenv("FETCH_PARAMETERS", "pm25")
	os.Setenv("SAMPLE_N", "1000")
	os.Setenv("SAMPLE_SEED", "7")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")

	defer func() {
		os.Unsetenv("EXTRACT_SHORT_NAME")
		os.Unsetenv("EXTRACT_VERSION")
		os.Unsetenv("EXTRACT_TARGET")
		os.Unsetenv("EXTRACT_WINDOW")
		os.Unsetenv("FETCH_RADII_KM")
		os.Unsetenv("FETCH_PARAMETERS")
		os.Unsetenv("SAMPLE_N")
		os.Unsetenv("SAMPLE_SEED")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("LOG_FORMAT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Extract.ShortName != "TEMPO_O3TOT_L3" {
		t.Errorf("expected short name TEMPO_O3TOT_L3, got %s", cfg.Extract.ShortName)
	}

	if cfg.Extract.Version != "V04" {
		t.Errorf("expected version V04, got %s", cfg.Extract.Version)
	}

	wantTarget := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	if !cfg.Extract.Target.Equal(wantTarget) {
		t.Errorf("expected target %s, got %s", wantTarget, cfg.Extract.Target)
	}

	if cfg.Extract.Window != 90*time.Minute {
		t.Errorf("expected window 90m, got %s", cfg.Extract.Window)
	}

	if got := cfg.Fetch.RadiiKm; len(got) != 2 || got[0] != 10 || got[1] != 20 {
		t.Errorf("expected radii [10 20], got %v", got)
	}

	if got := cfg.Fetch.Parameters; len(got) != 1 || got[0] != "pm25" {
		t.Errorf("expected parameters [pm25], got %v", got)
	}

	if cfg.Sample.N != 1000 {
		t.Errorf("expected sample size 1000, got %d", cfg.Sample.N)
	}

	if cfg.Sample.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Sample.Seed)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format json, got %s", cfg.Logging.Format)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "creds.env")
	content := "OPENAQ_API_KEY=from-file\nEARTHDATA_TOKEN=token-from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	os.Setenv(EnvFileVar, envFile)
	defer func() {
		os.Unsetenv(EnvFileVar)
		// godotenv merges the file into the process environment
		os.Unsetenv("OPENAQ_API_KEY")
		os.Unsetenv("EARTHDATA_TOKEN")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAQ.APIKey != "from-file" {
		t.Errorf("expected API key from env file, got %q", cfg.OpenAQ.APIKey)
	}

	if cfg.Earthdata.Token != "token-from-file" {
		t.Errorf("expected token from env file, got %q", cfg.Earthdata.Token)
	}
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "creds.env")
	if err := os.WriteFile(envFile, []byte("OPENAQ_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	os.Setenv(EnvFileVar, envFile)
	os.Setenv("OPENAQ_API_KEY", "from-env")
	defer func() {
		os.Unsetenv(EnvFileVar)
		os.Unsetenv("OPENAQ_API_KEY")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAQ.APIKey != "from-env" {
		t.Errorf("process environment should win over env file, got %q", cfg.OpenAQ.APIKey)
	}
}

func validConfig() *Config {
	return &Config{
		OpenAQ: OpenAQConfig{
			BaseURL: "https://api.openaq.org/v3",
			Timeout: 30 * time.Second,
		},
		CMR: CMRConfig{
			BaseURL:  "https://cmr.earthdata.nasa.gov/search",
			Provider: "LARC_CLOUD",
			Timeout:  30 * time.Second,
		},
		Earthdata: EarthdataConfig{
			URSBaseURL:      "https://urs.earthdata.nasa.gov",
			DownloadTimeout: 10 * time.Minute,
		},
		Extract: ExtractConfig{
			ShortName: "TEMPO_NO2_L3",
			Version:   "V03",
			West:      -160,
			South:     10,
			East:      -40,
			North:     60,
			Target:    time.Date(2025, 7, 11, 19, 0, 0, 0, time.UTC),
			Window:    3 * time.Hour,
			Output:    "tempo_no2_north_america.csv",
		},
		Fetch: FetchConfig{
			Lat:           49.2827,
			Lon:           -123.1207,
			Parameters:    []string{"no2", "o3", "pm25"},
			RadiiKm:       []int{25, 50, 100},
			DateFrom:      time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC),
			DateTo:        time.Date(2025, 7, 12, 23, 59, 59, 0, time.UTC),
			LocationLimit: 5,
			PageLimit:     1000,
			Output:        "measurements_vancouver.csv",
		},
		Sample: SampleConfig{
			Input:  "tempo_no2_north_america.csv",
			N:      500000,
			Seed:   42,
			OutDir: "output",
			Prefix: "tempo_no2_sampled",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "missing OpenAQ base URL",
			mutate:    func(c *Config) { c.OpenAQ.BaseURL = "" },
			wantError: true,
		},
		{
			name:      "non-positive CMR timeout",
			mutate:    func(c *Config) { c.CMR.Timeout = 0 },
			wantError: true,
		},
		{
			name:      "invalid bounding box ordering",
			mutate:    func(c *Config) { c.Extract.West, c.Extract.East = -40, -160 },
			wantError: true,
		},
		{
			name:      "bounding box out of range",
			mutate:    func(c *Config) { c.Extract.North = 95 },
			wantError: true,
		},
		{
			name:      "zero target time",
			mutate:    func(c *Config) { c.Extract.Target = time.Time{} },
			wantError: true,
		},
		{
			name:      "non-positive window",
			mutate:    func(c *Config) { c.Extract.Window = 0 },
			wantError: true,
		},
		{
			name:      "fetch point out of range",
			mutate:    func(c *Config) { c.Fetch.Lat = 120 },
			wantError: true,
		},
		{
			name:      "empty fetch parameters",
			mutate:    func(c *Config) { c.Fetch.Parameters = nil },
			wantError: true,
		},
		{
			name:      "non-positive radius",
			mutate:    func(c *Config) { c.Fetch.RadiiKm = []int{25, 0} },
			wantError: true,
		},
		{
			name:      "date_from after date_to",
			mutate:    func(c *Config) { c.Fetch.DateFrom, c.Fetch.DateTo = c.Fetch.DateTo, c.Fetch.DateFrom },
			wantError: true,
		},
		{
			name:      "non-positive sample size",
			mutate:    func(c *Config) { c.Sample.N = 0 },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantError: true,
		},
		{
			name:      "invalid log format",
			mutate:    func(c *Config) { c.Logging.Format = "xml" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	cfg := OpenAQConfig{}
	err := cfg.RequireAPIKey()
	if err == nil {
		t.Fatal("RequireAPIKey() expected error for empty key, got nil")
	}
	if !strings.Contains(err.Error(), "OPENAQ_API_KEY") {
		t.Errorf("error should name the missing variable, got %v", err)
	}

	cfg.APIKey = "k"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey() unexpected error: %v", err)
	}
}

func TestRequireToken(t *testing.T) {
	cfg := EarthdataConfig{}
	err := cfg.RequireToken()
	if err == nil {
		t.Fatal("RequireToken() expected error for empty token, got nil")
	}
	if !strings.Contains(err.Error(), "EARTHDATA_TOKEN") {
		t.Errorf("error should name the missing variable, got %v", err)
	}

	cfg.Token = "tok"
	if err := cfg.RequireToken(); err != nil {
		t.Errorf("RequireToken() unexpected error: %v", err)
	}
}
