// Package config assembles the converter's settings from command-line flags
// and environment variables. Flags select what to convert; the environment
// configures how the process runs.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/gridcast/internal/domain"
)

// clock supplies the default run date. Tests swap it for a fake.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock overrides the package clock. Intended for tests.
func SetClock(c clockwork.Clock) { clock = c }

// Config holds everything the converter needs for one run.
type Config struct {
	Date         time.Time
	Cycle        int
	ForecastHour int
	OutputPath   string
	H3Resolution int

	// Alternate local sources; mutually exclusive with each other and with
	// the remote fetch.
	GRIBFile   string
	NetCDFFile string

	LogLevel  string
	LogFormat string

	// MetricsAddr enables the health/metrics listener when non-empty.
	MetricsAddr string

	// Kafka publishing is enabled when both brokers and topic are set.
	KafkaBrokers []string
	KafkaTopic   string

	// GFSMode selects the remote fetch strategy: "range" reads the .idx
	// sidecar from the archive mirror and byte-range fetches each record;
	// "filter" asks the NOMADS filter endpoint for a server-side subset.
	GFSMode      string
	GFSBaseURL   string
	GFSFilterURL string
	FetchTimeout time.Duration
	FetchRPS     float64
}

// Load parses flags and environment. args is the command line without the
// program name.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("gridcast", flag.ContinueOnError)

	var (
		dateStr      = fs.String("date", "", "forecast run date, YYYY-MM-DD (default: today UTC)")
		cycle        = fs.Int("cycle", 0, "model run cycle hour: 0, 6, 12, or 18")
		forecastHour = fs.Int("forecast-hour", 0, "forecast lead time in hours, 0-384")
		output       = fs.String("output", "weather.parquet", "output parquet path")
		resolution   = fs.Int("h3-resolution", 5, "H3 cell resolution, 0-15")
		gribFile     = fs.String("grib-file", "", "read this local GRIB2 file instead of fetching")
		netcdfFile   = fs.String("netcdf-file", "", "read this local NetCDF file instead of fetching")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	date := clock.Now().UTC().Truncate(24 * time.Hour)
	if *dateStr != "" {
		parsed, err := parseDate(*dateStr)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	fetchTimeout, err := parseTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Date:         date,
		Cycle:        *cycle,
		ForecastHour: *forecastHour,
		OutputPath:   *output,
		H3Resolution: *resolution,
		GRIBFile:     *gribFile,
		NetCDFFile:   *netcdfFile,

		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   os.Getenv("KAFKA_TOPIC"),

		GFSMode:      envOrDefault("GFS_MODE", "range"),
		GFSBaseURL:   os.Getenv("GFS_BASE_URL"),
		GFSFilterURL: os.Getenv("GFS_FILTER_URL"),
		FetchTimeout: fetchTimeout,
		FetchRPS:     parseRPS(),
	}

	if cfg.GRIBFile != "" && cfg.NetCDFFile != "" {
		return nil, errors.New("--grib-file and --netcdf-file are mutually exclusive")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("--output is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is not")
	}
	if cfg.GFSMode != "range" && cfg.GFSMode != "filter" {
		return nil, fmt.Errorf("GFS_MODE must be \"range\" or \"filter\", got %q", cfg.GFSMode)
	}
	if err := cfg.Request().Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Request builds the conversion request the pipeline runs.
func (c *Config) Request() domain.Request {
	return domain.Request{
		Date:         c.Date,
		Cycle:        c.Cycle,
		ForecastHour: c.ForecastHour,
		H3Resolution: c.H3Resolution,
	}
}

// dateFormats are the accepted --date layouts, tried in order.
var dateFormats = []string{"2006-01-02", "20060102"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", s)
}

func parseTimeout() (time.Duration, error) {
	s := envOrDefault("FETCH_TIMEOUT", "120s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid FETCH_TIMEOUT")
	}
	return d, nil
}

func parseRPS() float64 {
	if s := os.Getenv("GFS_RPS"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			return f
		}
	}
	return 10
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
