// Package config loads the application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig          `yaml:"server" mapstructure:"server"`
	Log        LogConfig             `yaml:"log" mapstructure:"log"`
	Data       DataConfig            `yaml:"data" mapstructure:"data"`
	Grid       GridConfig            `yaml:"grid" mapstructure:"grid"`
	Categories CategoriesConfig      `yaml:"categories" mapstructure:"categories"`
	Overpass   OverpassConfig        `yaml:"overpass" mapstructure:"overpass"`
	Routing    RoutingConfig         `yaml:"routing" mapstructure:"routing"`
	Modes      map[string]ModeConfig `yaml:"modes" mapstructure:"modes"`
	API        APIConfig             `yaml:"api" mapstructure:"api"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DataConfig points at the static reference data.
type DataConfig struct {
	GridSource      string `yaml:"grid_source" mapstructure:"grid_source"` // "csv" or "sqlite"
	GridCSV         string `yaml:"grid_csv" mapstructure:"grid_csv"`
	GridSQLite      string `yaml:"grid_sqlite" mapstructure:"grid_sqlite"`
	DistrictsShp    string `yaml:"districts_shp" mapstructure:"districts_shp"`
	DistrictIDField string `yaml:"district_id_field" mapstructure:"district_id_field"`
}

// GridConfig configures the population grid geometry.
type GridConfig struct {
	CellSizeM float64 `yaml:"cell_size_m" mapstructure:"cell_size_m"`
}

// CategoriesConfig points at an optional category rule file; the built-in
// rule set is used when empty.
type CategoriesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// OverpassConfig configures the POI source.
type OverpassConfig struct {
	URL          string      `yaml:"url" mapstructure:"url"`
	BBox         []float64   `yaml:"bbox" mapstructure:"bbox"` // south, west, north, east
	TimeoutSecs  int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CooldownSecs int         `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
	Retry        RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig is the warmup retry schedule. MaxAttempts 0 retries forever;
// a positive ceiling marks an exhausted category as degraded instead of
// blocking startup.
type RetryConfig struct {
	ShortAttempts  int `yaml:"short_attempts" mapstructure:"short_attempts"`
	ShortDelaySecs int `yaml:"short_delay_secs" mapstructure:"short_delay_secs"`
	LongDelaySecs  int `yaml:"long_delay_secs" mapstructure:"long_delay_secs"`
	MaxAttempts    int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// RoutingConfig configures the external routing engine.
type RoutingConfig struct {
	URL         string `yaml:"url" mapstructure:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Departure   string `yaml:"departure" mapstructure:"departure"` // RFC3339, no zone = UTC
}

// ModeConfig maps a requested travel mode onto an engine profile and the
// speed used for ROI buffering. The default bike mode rides the walk profile
// with an inflated speed; swap in the native bike profile here once the
// engine's cycling results are trustworthy.
type ModeConfig struct {
	Profile  string  `yaml:"profile" mapstructure:"profile"`
	SpeedKmh float64 `yaml:"speed_kmh" mapstructure:"speed_kmh"`
}

// APIConfig holds request-level limits.
type APIConfig struct {
	GridLimitDefault int `yaml:"grid_limit_default" mapstructure:"grid_limit_default"`
	GridLimitMax     int `yaml:"grid_limit_max" mapstructure:"grid_limit_max"`
}

// DepartureTime parses the configured departure time.
func (r RoutingConfig) DepartureTime() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, r.Departure)
	if err != nil {
		// Accept the zoneless form too.
		ts, err = time.ParseInLocation("2006-01-02T15:04:05", r.Departure, time.UTC)
	}
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "config: parse routing departure %q", r.Departure)
	}
	return ts, nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("XMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("data.grid_source", "csv")
	v.SetDefault("data.grid_csv", "data/census_100m_with_district.csv")
	v.SetDefault("data.grid_sqlite", "data/grid.db")
	v.SetDefault("data.districts_shp", "data/districts.shp")
	v.SetDefault("data.district_id_field", "id")
	v.SetDefault("grid.cell_size_m", 100.0)
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.bbox", []float64{51.0679, 6.9357, 51.3221, 7.4343})
	v.SetDefault("overpass.timeout_secs", 120)
	v.SetDefault("overpass.cooldown_secs", 5)
	v.SetDefault("overpass.retry.short_attempts", 3)
	v.SetDefault("overpass.retry.short_delay_secs", 10)
	v.SetDefault("overpass.retry.long_delay_secs", 30)
	v.SetDefault("overpass.retry.max_attempts", 0)
	v.SetDefault("routing.url", "http://localhost:8090")
	v.SetDefault("routing.timeout_secs", 60)
	v.SetDefault("routing.departure", "2026-01-01T08:00:00")
	v.SetDefault("modes.walk.profile", "walk")
	v.SetDefault("modes.walk.speed_kmh", 5.0)
	v.SetDefault("modes.bike.profile", "walk")
	v.SetDefault("modes.bike.speed_kmh", 16.0)
	v.SetDefault("api.grid_limit_default", 20000)
	v.SetDefault("api.grid_limit_max", 200000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if len(cfg.Overpass.BBox) != 4 {
		return nil, eris.Errorf("config: overpass.bbox must have 4 entries, got %d", len(cfg.Overpass.BBox))
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
