// Package config loads RadioPipe configuration from layered sources:
// built-in defaults, an optional YAML file, then environment variables.
// A .env file in the working directory is read into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "RADIOPIPE_CONFIG"

// DefaultPaths are searched in order when no path is given.
var DefaultPaths = []string{
	"radiopipe.yaml",
	"radiopipe.yml",
	"/etc/radiopipe/config.yaml",
}

// Config is the complete runtime configuration.
type Config struct {
	Upstream UpstreamConfig `koanf:"upstream"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Roster   RosterConfig   `koanf:"roster"`
	Markup   MarkupConfig   `koanf:"markup"`
	Store    StoreConfig    `koanf:"store"`
	Ledger   LedgerConfig   `koanf:"ledger"`
	Redis    RedisConfig    `koanf:"redis"`
	Output   OutputConfig   `koanf:"output"`
	Watch    WatchConfig    `koanf:"watch"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// UpstreamConfig describes the schedule and music endpoints and how hard to hit them.
type UpstreamConfig struct {
	StationListURL      string        `koanf:"station_list_url" validate:"required,url"`
	ScheduleURLTemplate string        `koanf:"schedule_url_template" validate:"required"`
	MusicAPIBase        string        `koanf:"music_api_base" validate:"required,url"`
	UserAgent           string        `koanf:"user_agent" validate:"required"`
	Timeout             time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerSecond       float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst               int           `koanf:"burst" validate:"gte=1"`
	MaxConcurrency      int           `koanf:"max_concurrency" validate:"gte=1,lte=64"`
	BreakerFailures     uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerCooldown     time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// ScheduleConfig selects which days and stations a cycle covers.
type ScheduleConfig struct {
	DaysBack   int           `koanf:"days_back" validate:"gte=0,lte=7"`
	Days       int           `koanf:"days" validate:"gte=1,lte=14"`
	StaleAfter time.Duration `koanf:"stale_after" validate:"gte=0"`
	Stations   []string      `koanf:"stations"`
	Enrich     bool          `koanf:"enrich"`
}

// RosterConfig points at the artist roster file.
type RosterConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// MarkupConfig selects the fragment converter.
type MarkupConfig struct {
	Converter string `koanf:"converter" validate:"oneof=strict commonmark"`
}

// StoreConfig configures the SQLite document store.
type StoreConfig struct {
	Path       string `koanf:"path" validate:"required"`
	Collection string `koanf:"collection" validate:"required"`
}

// LedgerConfig configures the trigger ledger.
type LedgerConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// RedisConfig configures the optional match stream.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr" validate:"required_if=Enabled true"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Stream   string `koanf:"stream"`
	MaxLen   int64  `koanf:"maxlen" validate:"gte=0"`
}

// OutputConfig configures rendered program sheets. An empty Dir disables them.
type OutputConfig struct {
	Dir      string `koanf:"dir"`
	Format   string `koanf:"format" validate:"oneof=markdown json pdf"`
	FontPath string `koanf:"font_path"`
}

// WatchConfig configures daemon mode.
type WatchConfig struct {
	Interval time.Duration `koanf:"interval" validate:"gte=1m"`
	Listen   string        `koanf:"listen" validate:"required,hostname_port"`
	LockFile string        `koanf:"lock_file" validate:"required"`
}

// MetricsConfig configures the node_exporter textfile written after batch runs.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=auto json console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			StationListURL:      "https://radiko.jp/v3/station/region/full.xml",
			ScheduleURLTemplate: "https://radiko.jp/v3/program/station/date/%s/%s.xml",
			MusicAPIBase:        "https://api.radiko.jp/music/api/v1",
			UserAgent:           "radiopipe/1.0",
			Timeout:             30 * time.Second,
			RatePerSecond:       5,
			Burst:               5,
			MaxConcurrency:      8,
			BreakerFailures:     5,
			BreakerCooldown:     30 * time.Second,
		},
		Schedule: ScheduleConfig{
			DaysBack:   1,
			Days:       8,
			StaleAfter: 4 * time.Hour,
			Enrich:     true,
		},
		Roster: RosterConfig{Path: "roster.yaml"},
		Markup: MarkupConfig{Converter: "strict"},
		Store: StoreConfig{
			Path:       "radiopipe.db",
			Collection: "hello-radiko-data/programs",
		},
		Ledger: LedgerConfig{Dir: "ledger"},
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			Stream: "radiopipe:matches",
			MaxLen: 10000,
		},
		Output: OutputConfig{Format: "markdown"},
		Watch: WatchConfig{
			Interval: time.Hour,
			Listen:   "127.0.0.1:9310",
			LockFile: "radiopipe.lock",
		},
		Logging: LoggingConfig{Level: "info", Format: "auto"},
	}
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"radiopipe_station_list_url":      "upstream.station_list_url",
	"radiopipe_schedule_url_template": "upstream.schedule_url_template",
	"radiopipe_music_api_base":        "upstream.music_api_base",
	"radiopipe_user_agent":            "upstream.user_agent",
	"radiopipe_http_timeout":          "upstream.timeout",
	"radiopipe_rate_per_second":       "upstream.rate_per_second",
	"radiopipe_burst":                 "upstream.burst",
	"radiopipe_max_concurrency":       "upstream.max_concurrency",
	"radiopipe_days_back":             "schedule.days_back",
	"radiopipe_days":                  "schedule.days",
	"radiopipe_stale_after":           "schedule.stale_after",
	"radiopipe_stations":              "schedule.stations",
	"radiopipe_enrich":                "schedule.enrich",
	"radiopipe_roster_path":           "roster.path",
	"radiopipe_converter":             "markup.converter",
	"radiopipe_store_path":            "store.path",
	"radiopipe_store_collection":      "store.collection",
	"radiopipe_ledger_dir":            "ledger.dir",
	"radiopipe_redis_enabled":         "redis.enabled",
	"radiopipe_redis_addr":            "redis.addr",
	"radiopipe_redis_password":        "redis.password",
	"radiopipe_redis_db":              "redis.db",
	"radiopipe_redis_stream":          "redis.stream",
	"radiopipe_output_dir":            "output.dir",
	"radiopipe_output_format":         "output.format",
	"radiopipe_font_path":             "output.font_path",
	"radiopipe_watch_interval":        "watch.interval",
	"radiopipe_listen":                "watch.listen",
	"radiopipe_lock_file":             "watch.lock_file",
	"radiopipe_metrics_textfile":      "metrics.textfile",
	"radiopipe_log_level":             "logging.level",
	"radiopipe_log_format":            "logging.format",
}

func envKey(key string) string {
	return envMappings[strings.ToLower(key)]
}

// sliceKeys hold comma-separated lists when they come from the environment.
var sliceKeys = []string{"schedule.stations"}

// Load builds the configuration. path may be empty, in which case
// RADIOPIPE_CONFIG and then DefaultPaths are consulted; a missing file is
// not an error unless path was given explicitly.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("RADIOPIPE_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and returns one error naming every
// offending key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
