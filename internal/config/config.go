package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Strategy selects how a cluster of points is turned into polygons
type Strategy string

const (
	// StrategyCircles unions one circular buffer per point
	StrategyCircles Strategy = "circles"
	// StrategyRoute buffers the cluster as an ordered path
	StrategyRoute Strategy = "route"
)

// AreaProfile is one named set of clustering and buffering parameters
type AreaProfile struct {
	Name            string   `yaml:"-"`
	ClusterDistance float64  `yaml:"cluster_distance"` // meters
	BufferRadius    float64  `yaml:"buffer_radius"`    // meters, half-width for routes
	Resolution      int      `yaml:"resolution"`       // segments per quarter circle
	Strategy        Strategy `yaml:"strategy"`
}

// AreaConfig holds the profile used by every visited-area operation
type AreaConfig struct {
	Rebuild       AreaProfile `yaml:"rebuild"`
	RebuildDetail AreaProfile `yaml:"rebuild_detail"`
	Extend        AreaProfile `yaml:"extend"`
	ExtendRoute   AreaProfile `yaml:"extend_route"`
	Preview       AreaProfile `yaml:"preview"`
}

// Config 应用配置
type Config struct {
	Port           string        `yaml:"port"`
	DBPath         string        `yaml:"db_path"`
	DBMaxOpenConns int           `yaml:"db_max_open_conns"`
	DBBusyTimeout  time.Duration `yaml:"db_busy_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"` // json or console
	RateLimit      int           `yaml:"rate_limit"` // requests per window and client ip, 0 disables
	RateWindow     time.Duration `yaml:"rate_window"`
	ZoneRadius     float64       `yaml:"zone_radius"` // meters
	Area           AreaConfig    `yaml:"area"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:           ":8080",
		DBPath:         "./data/mapmates.db",
		DBMaxOpenConns: 1,
		DBBusyTimeout:  5 * time.Second,
		LogLevel:       "info",
		LogFormat:      "json",
		RateLimit:      120,
		RateWindow:     time.Minute,
		ZoneRadius:     5.0,
		Area: AreaConfig{
			Rebuild:       AreaProfile{Name: "rebuild", ClusterDistance: 50, BufferRadius: 30, Resolution: 8, Strategy: StrategyCircles},
			RebuildDetail: AreaProfile{Name: "rebuild_detail", ClusterDistance: 20, BufferRadius: 15, Resolution: 16, Strategy: StrategyCircles},
			Extend:        AreaProfile{Name: "extend", ClusterDistance: 50, BufferRadius: 30, Resolution: 16, Strategy: StrategyCircles},
			ExtendRoute:   AreaProfile{Name: "extend_route", ClusterDistance: 100, BufferRadius: 10, Resolution: 16, Strategy: StrategyRoute},
			Preview:       AreaProfile{Name: "preview", ClusterDistance: 50, BufferRadius: 30, Resolution: 8, Strategy: StrategyCircles},
		},
	}
}

// Load 加载配置
// Order: defaults, then the YAML file named by CONFIG_FILE, then environment variables.
// A .env file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded, using process environment")
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DBMaxOpenConns = getIntEnv("DB_MAX_OPEN_CONNS", c.DBMaxOpenConns)
	c.DBBusyTimeout = getDurationEnv("DB_BUSY_TIMEOUT", c.DBBusyTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.RateLimit = getIntEnv("RATE_LIMIT", c.RateLimit)
	c.RateWindow = getDurationEnv("RATE_WINDOW", c.RateWindow)
	c.ZoneRadius = getFloatEnv("ZONE_RADIUS", c.ZoneRadius)

	applyProfileEnv("AREA_REBUILD", &c.Area.Rebuild)
	applyProfileEnv("AREA_REBUILD_DETAIL", &c.Area.RebuildDetail)
	applyProfileEnv("AREA_EXTEND", &c.Area.Extend)
	applyProfileEnv("AREA_EXTEND_ROUTE", &c.Area.ExtendRoute)
	applyProfileEnv("AREA_PREVIEW", &c.Area.Preview)
}

func applyProfileEnv(prefix string, p *AreaProfile) {
	p.ClusterDistance = getFloatEnv(prefix+"_CLUSTER_DISTANCE", p.ClusterDistance)
	p.BufferRadius = getFloatEnv(prefix+"_BUFFER_RADIUS", p.BufferRadius)
	p.Resolution = getIntEnv(prefix+"_RESOLUTION", p.Resolution)
}

// Validate checks that geometry parameters are usable
func (c *Config) Validate() error {
	if c.ZoneRadius <= 0 {
		return fmt.Errorf("ZONE_RADIUS must be positive, got %v", c.ZoneRadius)
	}
	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", c.DBMaxOpenConns)
	}

	profiles := []struct {
		name    string
		profile *AreaProfile
		want    Strategy
	}{
		{"rebuild", &c.Area.Rebuild, StrategyCircles},
		{"rebuild_detail", &c.Area.RebuildDetail, StrategyCircles},
		{"extend", &c.Area.Extend, StrategyCircles},
		{"extend_route", &c.Area.ExtendRoute, StrategyRoute},
		{"preview", &c.Area.Preview, StrategyCircles},
	}
	for _, p := range profiles {
		p.profile.Name = p.name
		if p.profile.Strategy == "" {
			p.profile.Strategy = p.want
		}
		if p.profile.Strategy != p.want {
			return fmt.Errorf("area profile %s: strategy must be %q, got %q", p.name, p.want, p.profile.Strategy)
		}
		if err := p.profile.Validate(); err != nil {
			return fmt.Errorf("area profile %s: %w", p.name, err)
		}
	}
	return nil
}

// Validate checks a single profile
func (p AreaProfile) Validate() error {
	if p.ClusterDistance <= 0 {
		return fmt.Errorf("cluster distance must be positive, got %v", p.ClusterDistance)
	}
	if p.BufferRadius <= 0 {
		return fmt.Errorf("buffer radius must be positive, got %v", p.BufferRadius)
	}
	if p.Resolution < 1 {
		return fmt.Errorf("resolution must be at least 1, got %d", p.Resolution)
	}
	switch p.Strategy {
	case StrategyCircles, StrategyRoute:
	default:
		return fmt.Errorf("unknown strategy %q", p.Strategy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return intValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Float64("default", defaultValue).Msg("invalid float value, using default")
		return defaultValue
	}
	return floatValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return duration
}
