package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"darkzone_service/internal/regression"
)

// EnvPrefix is the prefix of environment overrides. Nested keys use a double
// underscore, e.g. DARKZONES_SERVER__PORT=9090.
const EnvPrefix = "DARKZONES_"

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port              int           `yaml:"port"`
	CorsOrigins       []string      `yaml:"cors_origins"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	// MaxBodyBytes caps inline observation uploads.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PipelineConfig holds the training and feature settings.
type PipelineConfig struct {
	Aggregation  string            `yaml:"aggregation"`
	TestFraction float64           `yaml:"test_fraction"`
	Seed         int64             `yaml:"seed"`
	POIWorkers   int               `yaml:"poi_workers"`
	Regression   regression.Config `yaml:"regression"`
}

// FeedsConfig locates the four external feature feeds.
type FeedsConfig struct {
	Holidays HolidaysConfig `yaml:"holidays"`
	Edges    EdgesConfig    `yaml:"edges"`
	Weather  WeatherConfig  `yaml:"weather"`
	Overpass OverpassConfig `yaml:"overpass"`
}

type HolidaysConfig struct {
	BaseURL string `yaml:"base_url"`
	// Region is a country code ("CH") or a subdivision code ("CH-BS").
	Region  string        `yaml:"region"`
	Years   []int         `yaml:"years"`
	Timeout time.Duration `yaml:"timeout"`
}

type EdgesConfig struct {
	Path string `yaml:"path"`
}

type WeatherConfig struct {
	Path         string `yaml:"path"`
	MetadataRows int    `yaml:"metadata_rows"`
}

type OverpassConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Place       string `yaml:"place"`
	MaxParallel int    `yaml:"max_parallel"`
}

// MongoConfig points at the raw observation collection. An empty URI
// disables the Mongo source and only inline observations are accepted.
type MongoConfig struct {
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// StorageConfig enables the Postgres run recorder when DSN is set.
type StorageConfig struct {
	PostgresDSN     string `yaml:"postgres_dsn"`
	SavePredictions bool   `yaml:"save_predictions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			CorsOrigins:       []string{"*"},
			ReadHeaderTimeout: 5 * time.Second,
			MaxBodyBytes:      64 << 20,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Pipeline: PipelineConfig{
			Aggregation:  "sum",
			TestFraction: 0.1,
			Seed:         42,
			POIWorkers:   1,
			Regression:   regression.DefaultConfig(),
		},
		Feeds: FeedsConfig{
			Holidays: HolidaysConfig{
				BaseURL: "https://date.nager.at",
				Region:  "CH-BS",
				Timeout: 10 * time.Second,
			},
			Edges:   EdgesConfig{Path: "data/edges.geojson"},
			Weather: WeatherConfig{Path: "data/weather.csv", MetadataRows: 9},
			Overpass: OverpassConfig{
				Endpoint:    "https://overpass-api.de/api/interpreter",
				Place:       "Basel",
				MaxParallel: 1,
			},
		},
		Mongo: MongoConfig{
			Database:   "darkzones",
			Collection: "observations",
			Timeout:    30 * time.Second,
		},
	}
}

// defaults flattens Default() into koanf keys.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"server.port":                  d.Server.Port,
		"server.cors_origins":          d.Server.CorsOrigins,
		"server.read_header_timeout":   d.Server.ReadHeaderTimeout.String(),
		"server.max_body_bytes":        d.Server.MaxBodyBytes,
		"log.level":                    d.Log.Level,
		"log.format":                   d.Log.Format,
		"pipeline.aggregation":         d.Pipeline.Aggregation,
		"pipeline.test_fraction":       d.Pipeline.TestFraction,
		"pipeline.seed":                d.Pipeline.Seed,
		"pipeline.poi_workers":         d.Pipeline.POIWorkers,
		"pipeline.regression.alpha":    d.Pipeline.Regression.Alpha,
		"pipeline.regression.max_iter": d.Pipeline.Regression.MaxIter,
		"pipeline.regression.tol":      d.Pipeline.Regression.Tol,
		"feeds.holidays.base_url":      d.Feeds.Holidays.BaseURL,
		"feeds.holidays.region":        d.Feeds.Holidays.Region,
		"feeds.holidays.timeout":       d.Feeds.Holidays.Timeout.String(),
		"feeds.edges.path":             d.Feeds.Edges.Path,
		"feeds.weather.path":           d.Feeds.Weather.Path,
		"feeds.weather.metadata_rows":  d.Feeds.Weather.MetadataRows,
		"feeds.overpass.endpoint":      d.Feeds.Overpass.Endpoint,
		"feeds.overpass.place":         d.Feeds.Overpass.Place,
		"feeds.overpass.max_parallel":  d.Feeds.Overpass.MaxParallel,
		"mongo.database":               d.Mongo.Database,
		"mongo.collection":             d.Mongo.Collection,
		"mongo.timeout":                d.Mongo.Timeout.String(),
	}
}

// Load layers the defaults, an optional YAML file and DARKZONES_ environment
// variables, in that order.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Pipeline.TestFraction < 0 || c.Pipeline.TestFraction >= 1 {
		return fmt.Errorf("config: pipeline.test_fraction must be in [0,1), got %v", c.Pipeline.TestFraction)
	}
	if c.Pipeline.POIWorkers < 1 {
		return fmt.Errorf("config: pipeline.poi_workers must be positive, got %d", c.Pipeline.POIWorkers)
	}
	if c.Pipeline.Regression.Alpha < 0 {
		return fmt.Errorf("config: pipeline.regression.alpha must not be negative")
	}
	if c.Pipeline.Regression.MaxIter <= 0 {
		return fmt.Errorf("config: pipeline.regression.max_iter must be positive")
	}
	return nil
}
