// Package config loads routenest settings from config.yaml, a .env file,
// ROUTENEST_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harrysoftwarecorp/route-nest/internal/paths"
)

// Routing engines.
const (
	EngineStraight = "straight"
	EngineOSRM     = "osrm"
)

// Config keys.
const (
	KeyAPIBaseURL     = "api.base_url"
	KeyAPITimeout     = "api.timeout"
	KeyRoutingEngine  = "routing.engine"
	KeyRoutingURL     = "routing.url"
	KeyRoutingProfile = "routing.profile"
	KeyPlacesURL      = "places.url"
	KeyPlacesLimit    = "places.limit"
	KeyNarrowWidth    = "ui.narrow_width"
	KeyDefaultZoom    = "ui.default_zoom"
	KeyLogLevel       = "log.level"
	KeyLogFile        = "log.file"
	KeyMockAddr       = "mock.addr"
	KeyMockDataDir    = "mock.data_dir"
	KeyMockRateLimit  = "mock.rate_limit"
	KeyMockBurst      = "mock.burst"
	KeyMockSeed       = "mock.seed"
	KeyMockPublicURL  = "mock.public_url"
)

// Environment variables read for the API base URL, first set wins.
const (
	EnvAPIURL     = "ROUTENEST_API_URL"
	EnvViteAPIURL = "VITE_API_SERVER_URL"
)

// Validation errors.
var (
	ErrInvalidBaseURL     = errors.New("api.base_url must be an absolute http(s) URL")
	ErrInvalidTimeout     = errors.New("api.timeout must be positive")
	ErrInvalidEngine      = errors.New("routing.engine must be straight or osrm")
	ErrInvalidRoutingURL  = errors.New("routing.url must be an absolute http(s) URL")
	ErrInvalidPlacesURL   = errors.New("places.url must be an absolute http(s) URL")
	ErrInvalidPlacesLimit = errors.New("places.limit must be between 1 and 50")
	ErrInvalidZoom        = errors.New("ui.default_zoom must be between 1 and 19")
	ErrInvalidNarrowWidth = errors.New("ui.narrow_width must not be negative")
	ErrInvalidRateLimit   = errors.New("mock.rate_limit must not be negative")
)

// API configures the REST client.
type API struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Routing selects how lines between stops are drawn.
type Routing struct {
	Engine  string `mapstructure:"engine" yaml:"engine"`
	URL     string `mapstructure:"url" yaml:"url"`
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// Places configures the Nominatim place search.
type Places struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Limit int    `mapstructure:"limit" yaml:"limit"`
}

// UI configures the terminal interface.
type UI struct {
	NarrowWidth int `mapstructure:"narrow_width" yaml:"narrow_width"`
	DefaultZoom int `mapstructure:"default_zoom" yaml:"default_zoom"`
}

// Log configures logging.
type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// Mock configures the development API server.
type Mock struct {
	Addr      string  `mapstructure:"addr" yaml:"addr"`
	DataDir   string  `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
	Seed      bool    `mapstructure:"seed" yaml:"seed"`
	PublicURL string  `mapstructure:"public_url" yaml:"public_url,omitempty"`
}

// Config is the merged routenest configuration.
type Config struct {
	API     API     `mapstructure:"api" yaml:"api"`
	Routing Routing `mapstructure:"routing" yaml:"routing"`
	Places  Places  `mapstructure:"places" yaml:"places"`
	UI      UI      `mapstructure:"ui" yaml:"ui"`
	Log     Log     `mapstructure:"log" yaml:"log"`
	Mock    Mock    `mapstructure:"mock" yaml:"mock"`

	// ConfigDir is the directory the configuration was read from.
	ConfigDir string `mapstructure:"-" yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API:     API{BaseURL: "http://localhost:8000", Timeout: 15 * time.Second},
		Routing: Routing{Engine: EngineStraight, URL: "https://router.project-osrm.org", Profile: "driving"},
		Places:  Places{URL: "https://nominatim.openstreetmap.org", Limit: 5},
		UI:      UI{NarrowWidth: 100, DefaultZoom: 13},
		Log:     Log{Level: "info"},
		Mock:    Mock{Addr: "localhost:8000", RateLimit: 20, Burst: 40, Seed: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyAPIBaseURL, d.API.BaseURL)
	v.SetDefault(KeyAPITimeout, d.API.Timeout)
	v.SetDefault(KeyRoutingEngine, d.Routing.Engine)
	v.SetDefault(KeyRoutingURL, d.Routing.URL)
	v.SetDefault(KeyRoutingProfile, d.Routing.Profile)
	v.SetDefault(KeyPlacesURL, d.Places.URL)
	v.SetDefault(KeyPlacesLimit, d.Places.Limit)
	v.SetDefault(KeyNarrowWidth, d.UI.NarrowWidth)
	v.SetDefault(KeyDefaultZoom, d.UI.DefaultZoom)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyMockAddr, d.Mock.Addr)
	v.SetDefault(KeyMockDataDir, "")
	v.SetDefault(KeyMockRateLimit, d.Mock.RateLimit)
	v.SetDefault(KeyMockBurst, d.Mock.Burst)
	v.SetDefault(KeyMockSeed, d.Mock.Seed)
	v.SetDefault(KeyMockPublicURL, "")
}

// FlagBindings maps config keys onto the names of command-line flags that
// override them.
type FlagBindings map[string]string

// Load reads the configuration rooted at configDir. A missing config.yaml or
// .env is not an error. Flags named in bindings override every other source
// when they were set on the command line.
func Load(configDir string, flags *pflag.FlagSet, bindings FlagBindings) (*Config, error) {
	if err := loadDotEnv(filepath.Join(configDir, paths.EnvFileName), paths.EnvFileName); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(strings.TrimSuffix(paths.ConfigFileName, filepath.Ext(paths.ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("ROUTENEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyAPIBaseURL, EnvAPIURL, EnvViteAPIURL); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	for key, name := range bindings {
		if flags == nil {
			break
		}
		f := flags.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("bind flag %s: no such flag", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigDir = configDir
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	return &cfg, nil
}

// loadDotEnv loads each existing file into the process environment. Values
// already present in the environment are kept.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if !isHTTPURL(c.API.BaseURL) {
		return ErrInvalidBaseURL
	}
	if c.API.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	switch c.Routing.Engine {
	case EngineStraight:
	case EngineOSRM:
		if !isHTTPURL(c.Routing.URL) {
			return ErrInvalidRoutingURL
		}
	default:
		return ErrInvalidEngine
	}
	if !isHTTPURL(c.Places.URL) {
		return ErrInvalidPlacesURL
	}
	if c.Places.Limit < 1 || c.Places.Limit > 50 {
		return ErrInvalidPlacesLimit
	}
	if c.UI.DefaultZoom < 1 || c.UI.DefaultZoom > 19 {
		return ErrInvalidZoom
	}
	if c.UI.NarrowWidth < 0 {
		return ErrInvalidNarrowWidth
	}
	if c.Mock.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// LogFile returns the configured log file, defaulting to the config
// directory.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.ConfigDir, paths.LogFileName)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// WriteDefault writes the built-in configuration to path unless the file
// already exists. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	d := Default()
	data, err := yaml.Marshal(&d)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# routenest configuration\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
