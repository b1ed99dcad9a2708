package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"epidash/internal/dashboard"
	"epidash/internal/model"
	"epidash/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the dashboard server and importer.
// Durations are strings such as "300ms" so the YAML stays readable.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
	Playback PlaybackConfig `yaml:"playback"`
	Scale    ScaleConfig    `yaml:"scale"`
	Rank     RankConfig     `yaml:"rank"`
	Logging  LoggingConfig  `yaml:"logging"`
	Import   ImportConfig   `yaml:"import"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	CORSOrigins     []string `yaml:"cors_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DataConfig points at the source files. Observation and facility files are
// imported into the database when it is empty.
type DataConfig struct {
	Observations string `yaml:"observations"`
	FacilityLoad string `yaml:"facility_load"`
	Facilities   string `yaml:"facilities"`
	Regions      string `yaml:"regions"`
	Votes        string `yaml:"votes"`
}

type PlaybackConfig struct {
	Interval   string `yaml:"interval"`
	Step       int    `yaml:"step"`
	AllowReset bool   `yaml:"allow_reset"`
}

type ScaleConfig struct {
	MinSpan      float64  `yaml:"min_span"`
	LogThreshold float64  `yaml:"log_threshold"`
	Palette      []string `yaml:"palette"`
}

type RankConfig struct {
	Epsilon float64 `yaml:"epsilon"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ImportConfig struct {
	Workers      model.Workers `yaml:"workers"`
	BatchSize    int           `yaml:"batch_size"`
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay string        `yaml:"initial_delay"`
	MaxDelay     string        `yaml:"max_delay"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{Path: "epidash.db"},
		Data: DataConfig{
			Observations: "data/observations.csv",
			FacilityLoad: "data/facility_load.csv",
			Facilities:   "data/facilities.csv",
			Regions:      "data/corop.geojson",
			Votes:        "data/votes.csv",
		},
		Playback: PlaybackConfig{Interval: "300ms", Step: 2},
		Scale: ScaleConfig{
			MinSpan:      8,
			LogThreshold: 250,
		},
		Rank:    RankConfig{Epsilon: dashboard.DefaultEpsilon},
		Logging: LoggingConfig{Level: "info"},
		Import: ImportConfig{
			Workers:      model.Workers{}.WithDefaults(),
			BatchSize:    500,
			MaxRetries:   3,
			InitialDelay: "500ms",
			MaxDelay:     "5s",
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. EPIDASH_ADDR and EPIDASH_DB override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := strings.TrimSpace(os.Getenv("EPIDASH_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("EPIDASH_DB")); v != "" {
		cfg.Database.Path = v
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Playback.Step <= 0 {
		errs = append(errs, fmt.Errorf("playback.step must be positive, got %d", c.Playback.Step))
	}
	for name, d := range map[string]string{
		"playback.interval":       c.Playback.Interval,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"import.initial_delay":    c.Import.InitialDelay,
		"import.max_delay":        c.Import.MaxDelay,
	} {
		if d == "" {
			continue
		}
		if v, err := time.ParseDuration(d); err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, d))
		}
	}
	if c.Scale.MinSpan < 0 || c.Scale.LogThreshold < 0 {
		errs = append(errs, errors.New("scale.min_span and scale.log_threshold must not be negative"))
	}
	for _, hex := range c.Scale.Palette {
		if len(hex) != 7 || hex[0] != '#' {
			errs = append(errs, fmt.Errorf("scale.palette: %q is not a #rrggbb colour", hex))
		}
	}
	if c.Rank.Epsilon <= 0 {
		errs = append(errs, errors.New("rank.epsilon must be positive"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses logging.level.
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

// PlaybackOptions converts the playback section for the session manager.
func (c Config) PlaybackOptions() dashboard.PlaybackOptions {
	return dashboard.PlaybackOptions{
		Interval:   utils.ParseDuration(c.Playback.Interval, 300*time.Millisecond),
		Step:       c.Playback.Step,
		AllowReset: c.Playback.AllowReset,
	}
}

// EngineOptions converts the scale and rank sections for the engine.
func (c Config) EngineOptions() dashboard.EngineOptions {
	opts := dashboard.DefaultScaleOptions()
	opts.MinSpan = c.Scale.MinSpan
	opts.LogThreshold = c.Scale.LogThreshold
	if len(c.Scale.Palette) > 0 {
		opts.Palette = c.Scale.Palette
	}
	return dashboard.EngineOptions{Scale: opts, Epsilon: c.Rank.Epsilon}
}

// ShutdownTimeout returns server.shutdown_timeout as a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return utils.ParseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// ImportSpec builds the import run for the configured data files. Files
// left empty are skipped.
func (c Config) ImportSpec() model.ImportSpec {
	spec := model.ImportSpec{
		Workers:   c.Import.Workers.WithDefaults(),
		BatchSize: c.Import.BatchSize,
		Retry: model.RetryConfig{
			MaxRetries:    c.Import.MaxRetries,
			InitialDelay:  utils.ParseDuration(c.Import.InitialDelay, 500*time.Millisecond),
			MaxDelay:      utils.ParseDuration(c.Import.MaxDelay, 5*time.Second),
			BackoffFactor: 2,
		},
	}
	add := func(kind model.SourceKind, url string, rules *model.ValidationRules) {
		if url != "" {
			spec.Sources = append(spec.Sources, model.Source{Kind: kind, URL: url, Validation: rules})
		}
	}
	observationRules := &model.ValidationRules{
		RequiredFields: []string{"Time", "AGEGROUP"},
		NumericFields:  []string{"Time"},
		MinValues:      map[string]float64{"Time": 0},
	}
	add(model.SourceRegions, c.Data.Observations, observationRules)
	add(model.SourceFacilityLoad, c.Data.FacilityLoad, observationRules)
	add(model.SourceFacilities, c.Data.Facilities, &model.ValidationRules{
		RequiredFields: []string{"HOSPITAL", "CAPACITY"},
		NumericFields:  []string{"CAPACITY"},
		MinValues:      map[string]float64{"CAPACITY": 0},
	})
	return spec
}
