package skysync

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so cadences can be written as "15m" or
// "24h" in the config file.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// SpaceTrackConfig configures the authenticated orbital feed.
type SpaceTrackConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// USGSConfig configures the seismic feed.
type USGSConfig struct {
	BaseURL      string   `yaml:"base_url"`
	MinMagnitude float64  `yaml:"min_magnitude"`
	Window       Duration `yaml:"window"`
}

// SyncConfig holds the cadences and limits of the reconciliation engine.
type SyncConfig struct {
	SatelliteInterval   Duration `yaml:"satellite_interval"`
	EarthquakeInterval  Duration `yaml:"earthquake_interval"`
	MaintenanceInterval Duration `yaml:"maintenance_interval"`
	RetentionWindow     Duration `yaml:"retention_window"`
	FetchTimeout        Duration `yaml:"fetch_timeout"`
	Workers             int      `yaml:"workers"`
}

// Config configures the skysync daemon.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string `yaml:"db_path"`

	// APIAddr is the listen address of the read-only HTTP API.
	// Empty disables the API.
	APIAddr string `yaml:"api_addr"`

	SpaceTrack SpaceTrackConfig `yaml:"spacetrack"`
	USGS       USGSConfig       `yaml:"usgs"`
	Sync       SyncConfig       `yaml:"sync"`
}

// DefaultConfig returns a Config with sensible defaults. Credentials have
// no default and must come from the config file or environment.
func DefaultConfig() Config {
	return Config{
		DBPath:  "./data/skysync.db",
		APIAddr: ":8080",
		SpaceTrack: SpaceTrackConfig{
			BaseURL: "https://www.space-track.org",
		},
		USGS: USGSConfig{
			BaseURL:      "https://earthquake.usgs.gov/fdsnws/event/1",
			MinMagnitude: 2.5,
			Window:       Duration(24 * time.Hour),
		},
		Sync: SyncConfig{
			SatelliteInterval:   Duration(time.Hour),
			EarthquakeInterval:  Duration(15 * time.Minute),
			MaintenanceInterval: Duration(24 * time.Hour),
			RetentionWindow:     Duration(30 * 24 * time.Hour),
			FetchTimeout:        Duration(30 * time.Second),
			Workers:             8,
		},
	}
}

// LoadConfig reads a YAML config file and overlays environment variables.
// A missing file is not an error; defaults plus environment apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg.WithDefaults(), nil
}

// applyEnv overlays environment variables on the loaded file.
//
//	SKYSYNC_DB_PATH       → DBPath
//	SKYSYNC_API_ADDR      → APIAddr
//	SPACETRACK_BASE_URL   → SpaceTrack.BaseURL
//	SPACETRACK_USERNAME   → SpaceTrack.Username
//	SPACETRACK_PASSWORD   → SpaceTrack.Password
//	USGS_BASE_URL         → USGS.BaseURL
//	USGS_MIN_MAGNITUDE    → USGS.MinMagnitude
func (c *Config) applyEnv() {
	if v := os.Getenv("SKYSYNC_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SKYSYNC_API_ADDR"); v != "" {
		c.APIAddr = v
	}
	if v := os.Getenv("SPACETRACK_BASE_URL"); v != "" {
		c.SpaceTrack.BaseURL = v
	}
	if v := os.Getenv("SPACETRACK_USERNAME"); v != "" {
		c.SpaceTrack.Username = v
	}
	if v := os.Getenv("SPACETRACK_PASSWORD"); v != "" {
		c.SpaceTrack.Password = v
	}
	if v := os.Getenv("USGS_BASE_URL"); v != "" {
		c.USGS.BaseURL = v
	}
	if v := os.Getenv("USGS_MIN_MAGNITUDE"); v != "" {
		if mag, err := strconv.ParseFloat(v, 64); err == nil {
			c.USGS.MinMagnitude = mag
		}
	}
}

// WithDefaults fills in default values for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.DBPath == "" {
		c.DBPath = defaults.DBPath
	}
	if c.SpaceTrack.BaseURL == "" {
		c.SpaceTrack.BaseURL = defaults.SpaceTrack.BaseURL
	}
	if c.USGS.BaseURL == "" {
		c.USGS.BaseURL = defaults.USGS.BaseURL
	}
	if c.USGS.MinMagnitude == 0 {
		c.USGS.MinMagnitude = defaults.USGS.MinMagnitude
	}
	if c.USGS.Window == 0 {
		c.USGS.Window = defaults.USGS.Window
	}
	if c.Sync.SatelliteInterval == 0 {
		c.Sync.SatelliteInterval = defaults.Sync.SatelliteInterval
	}
	if c.Sync.EarthquakeInterval == 0 {
		c.Sync.EarthquakeInterval = defaults.Sync.EarthquakeInterval
	}
	if c.Sync.MaintenanceInterval == 0 {
		c.Sync.MaintenanceInterval = defaults.Sync.MaintenanceInterval
	}
	if c.Sync.RetentionWindow == 0 {
		c.Sync.RetentionWindow = defaults.Sync.RetentionWindow
	}
	if c.Sync.FetchTimeout == 0 {
		c.Sync.FetchTimeout = defaults.Sync.FetchTimeout
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = defaults.Sync.Workers
	}

	return c
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return &ValidationError{Field: "DBPath", Message: "required: path to SQLite database"}
	}
	if c.SpaceTrack.Username == "" && c.SpaceTrack.Password != "" {
		return &ValidationError{Field: "SpaceTrack.Username", Message: "required when password is set"}
	}
	if c.SpaceTrack.Username != "" && c.SpaceTrack.Password == "" {
		return &ValidationError{Field: "SpaceTrack.Password", Message: "required when username is set"}
	}
	if c.USGS.MinMagnitude < 0 {
		return &ValidationError{Field: "USGS.MinMagnitude", Message: "must be non-negative"}
	}
	if c.Sync.Workers < 1 {
		return &ValidationError{Field: "Sync.Workers", Message: "must be at least 1"}
	}
	for field, d := range map[string]Duration{
		"Sync.SatelliteInterval":   c.Sync.SatelliteInterval,
		"Sync.EarthquakeInterval":  c.Sync.EarthquakeInterval,
		"Sync.MaintenanceInterval": c.Sync.MaintenanceInterval,
		"Sync.RetentionWindow":     c.Sync.RetentionWindow,
		"Sync.FetchTimeout":        c.Sync.FetchTimeout,
	} {
		if d <= 0 {
			return &ValidationError{Field: field, Message: "must be positive"}
		}
	}
	return nil
}

// HasSpaceTrack reports whether orbital-feed credentials are configured.
// Without them the satellite sync action is disabled.
func (c *Config) HasSpaceTrack() bool {
	return c.SpaceTrack.Username != "" && c.SpaceTrack.Password != ""
}
