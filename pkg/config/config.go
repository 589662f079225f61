package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"

	"github.com/unklstewy/skyradar/pkg/adsb"
	"github.com/unklstewy/skyradar/pkg/geo"
	"github.com/unklstewy/skyradar/pkg/radar"
	"github.com/unklstewy/skyradar/pkg/theme"
)

// EnvPrefix prefixes every environment override, e.g. SKYRADAR_RADAR_MAX_RANGE_KM.
const EnvPrefix = "SKYRADAR"

// Bounds applied when loading or changing settings.
const (
	MinRefreshSeconds     = 10
	DefaultRefreshSeconds = 30
	MinRangeKm            = 1.0
	MaxRangeKm            = 100.0
	DefaultRangeKm        = 8.0
	MinTrailLength        = 1
	MaxTrailLength        = 50
	DefaultTrailLength    = 10
)

// ErrInvalidLocation is returned for latitudes or longitudes out of range.
var ErrInvalidLocation = errors.New("invalid location")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config represents the complete application configuration.
type Config struct {
	Location geo.Location   `json:"location" mapstructure:"location"`
	Radar    RadarConfig    `json:"radar" mapstructure:"radar"`
	Refresh  RefreshConfig  `json:"refresh" mapstructure:"refresh"`
	Source   SourceConfig   `json:"source" mapstructure:"source"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Metrics  MetricsConfig  `json:"metrics" mapstructure:"metrics"`
}

// RadarConfig contains display settings.
type RadarConfig struct {
	// MaxRangeKm is the distance represented by the radar edge (1-100, default: 8)
	MaxRangeKm float64 `json:"max_range_km" mapstructure:"max_range_km"`

	// ShowTrails draws recent positions behind each aircraft
	ShowTrails bool `json:"show_trails" mapstructure:"show_trails"`

	// TrailLength is the number of positions kept per aircraft (1-50, default: 10)
	TrailLength int `json:"trail_length" mapstructure:"trail_length"`

	// Theme is "dark", "light" or "auto"
	Theme string `json:"theme" mapstructure:"theme"`

	// Units is the ring label unit: "km", "mi" or "nm"
	Units string `json:"units" mapstructure:"units"`

	// Scale is the initial zoom multiplier (0.1-5.0)
	Scale float64 `json:"scale" mapstructure:"scale"`
}

// RefreshConfig controls how often the data source is polled.
type RefreshConfig struct {
	// IntervalSeconds between automatic refreshes (minimum 10, default: 30)
	IntervalSeconds int `json:"interval_seconds" mapstructure:"interval_seconds"`

	// AutoRefresh enables periodic polling
	AutoRefresh bool `json:"auto_refresh" mapstructure:"auto_refresh"`
}

// SourceConfig selects and configures the aircraft data source.
type SourceConfig struct {
	// Type is "opensky", "airplanes.live", "mock" or "database"
	Type string `json:"type" mapstructure:"type"`

	// BaseURL overrides the provider's API root
	BaseURL string `json:"base_url,omitempty" mapstructure:"base_url"`

	// Username and Password are optional API credentials (OpenSky basic auth)
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" mapstructure:"password"`

	// TimeoutSeconds bounds each API request
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`

	// RequestsPerSecond caps API calls; 0 uses the provider default
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver is the database driver (postgres)
	Driver string `json:"driver" mapstructure:"driver"`

	// Host is the database server hostname
	Host string `json:"host" mapstructure:"host"`

	// Port is the database server port
	Port int `json:"port" mapstructure:"port"`

	// Database is the database name
	Database string `json:"database" mapstructure:"database"`

	// Username for database authentication
	Username string `json:"username" mapstructure:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password,omitempty" mapstructure:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" mapstructure:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" mapstructure:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" mapstructure:"max_idle_conns"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Address to serve /metrics on, e.g. ":9602"; empty disables it
	Address string `json:"address" mapstructure:"address"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Location: geo.SanFrancisco,
		Radar: RadarConfig{
			MaxRangeKm:  DefaultRangeKm,
			ShowTrails:  true,
			TrailLength: DefaultTrailLength,
			Theme:       theme.Dark.String(),
			Units:       radar.Kilometers.String(),
			Scale:       1.0,
		},
		Refresh: RefreshConfig{
			IntervalSeconds: DefaultRefreshSeconds,
			AutoRefresh:     true,
		},
		Source: SourceConfig{
			Type:           adsb.SourceOpenSky,
			TimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "skyradar",
			Username:     "skyradar",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "skyradar", "config.json")
}

// Load reads configuration from a JSON file, then applies SKYRADAR_*
// environment overrides (including those from a .env file in the working
// directory). If the file doesn't exist, defaults are used. Out-of-range
// values are replaced by their defaults, see Normalize.
func Load(path string) (*Config, error) {
	// a missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so that environment overrides apply to
// keys absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("location.latitude", d.Location.Latitude)
	v.SetDefault("location.longitude", d.Location.Longitude)
	v.SetDefault("location.name", d.Location.Name)

	v.SetDefault("radar.max_range_km", d.Radar.MaxRangeKm)
	v.SetDefault("radar.show_trails", d.Radar.ShowTrails)
	v.SetDefault("radar.trail_length", d.Radar.TrailLength)
	v.SetDefault("radar.theme", d.Radar.Theme)
	v.SetDefault("radar.units", d.Radar.Units)
	v.SetDefault("radar.scale", d.Radar.Scale)

	v.SetDefault("refresh.interval_seconds", d.Refresh.IntervalSeconds)
	v.SetDefault("refresh.auto_refresh", d.Refresh.AutoRefresh)

	v.SetDefault("source.type", d.Source.Type)
	v.SetDefault("source.base_url", d.Source.BaseURL)
	v.SetDefault("source.username", d.Source.Username)
	v.SetDefault("source.password", d.Source.Password)
	v.SetDefault("source.timeout_seconds", d.Source.TimeoutSeconds)
	v.SetDefault("source.requests_per_second", d.Source.RequestsPerSecond)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.username", d.Database.Username)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)

	v.SetDefault("metrics.address", d.Metrics.Address)
}

// Normalize replaces out-of-range settings with defaults. Only an invalid
// location is reported as an error.
func (c *Config) Normalize() error {
	if !c.Location.Position().Valid() {
		return fmt.Errorf("%w: %f, %f", ErrInvalidLocation, c.Location.Latitude, c.Location.Longitude)
	}

	if c.Refresh.IntervalSeconds < MinRefreshSeconds {
		c.Refresh.IntervalSeconds = DefaultRefreshSeconds
	}
	if c.Radar.MaxRangeKm < MinRangeKm || c.Radar.MaxRangeKm > MaxRangeKm || math.IsNaN(c.Radar.MaxRangeKm) {
		c.Radar.MaxRangeKm = DefaultRangeKm
	}
	if c.Radar.TrailLength < MinTrailLength || c.Radar.TrailLength > MaxTrailLength {
		c.Radar.TrailLength = DefaultTrailLength
	}
	if c.Radar.Scale == 0 {
		c.Radar.Scale = 1
	}
	c.Radar.Scale = radar.ClampScale(c.Radar.Scale)

	if t, err := theme.ParseTheme(c.Radar.Theme); err != nil {
		c.Radar.Theme = theme.Dark.String()
	} else {
		c.Radar.Theme = t.String()
	}
	if u, err := radar.ParseUnits(c.Radar.Units); err != nil {
		c.Radar.Units = radar.Kilometers.String()
	} else {
		c.Radar.Units = u.String()
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = 10
	}

	return nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// credentials may be present
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SetLocation changes the reference location.
func (c *Config) SetLocation(loc geo.Location) error {
	if !loc.Position().Valid() {
		return fmt.Errorf("%w: %f, %f", ErrInvalidLocation, loc.Latitude, loc.Longitude)
	}
	c.Location = loc
	return nil
}

// SetRefreshInterval sets the polling interval, raised to at least 10 seconds.
func (c *Config) SetRefreshInterval(seconds int) {
	if seconds < MinRefreshSeconds {
		seconds = MinRefreshSeconds
	}
	c.Refresh.IntervalSeconds = seconds
}

// SetRadarRange sets the radar range, clamped to [1, 100] km.
func (c *Config) SetRadarRange(km float64) {
	c.Radar.MaxRangeKm = math.Max(MinRangeKm, math.Min(MaxRangeKm, km))
}

// SetTrailLength sets the trail bound, clamped to [1, 50].
func (c *Config) SetTrailLength(n int) {
	switch {
	case n < MinTrailLength:
		n = MinTrailLength
	case n > MaxTrailLength:
		n = MaxTrailLength
	}
	c.Radar.TrailLength = n
}

// SetTheme changes the colour theme.
func (c *Config) SetTheme(t theme.Theme) {
	c.Radar.Theme = t.String()
}

// ToggleTrails flips trail drawing and returns the new state.
func (c *Config) ToggleTrails() bool {
	c.Radar.ShowTrails = !c.Radar.ShowTrails
	return c.Radar.ShowTrails
}

// ToggleAutoRefresh flips periodic polling and returns the new state.
func (c *Config) ToggleAutoRefresh() bool {
	c.Refresh.AutoRefresh = !c.Refresh.AutoRefresh
	return c.Refresh.AutoRefresh
}

// SetCredentials stores API credentials.
func (c *Config) SetCredentials(username, password string) {
	c.Source.Username = username
	c.Source.Password = password
}

// ClearCredentials removes API credentials.
func (c *Config) ClearCredentials() {
	c.Source.Username = ""
	c.Source.Password = ""
}

// HasCredentials reports whether both username and password are set.
func (c *Config) HasCredentials() bool {
	return c.Source.Username != "" && c.Source.Password != ""
}

// ThemeValue returns the parsed theme.
func (r RadarConfig) ThemeValue() theme.Theme {
	t, _ := theme.ParseTheme(r.Theme)
	return t
}

// UnitsValue returns the parsed distance unit.
func (r RadarConfig) UnitsValue() radar.Units {
	u, _ := radar.ParseUnits(r.Units)
	return u
}

// Interval returns the refresh interval as a duration.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// ClientConfig converts the source settings for the adsb clients.
func (s SourceConfig) ClientConfig() adsb.ClientConfig {
	return adsb.ClientConfig{
		BaseURL:           s.BaseURL,
		Username:          s.Username,
		Password:          s.Password,
		Timeout:           time.Duration(s.TimeoutSeconds) * time.Second,
		RequestsPerSecond: s.RequestsPerSecond,
	}
}
