package config

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config represents the application configuration
type Config struct {
	StoreRoot    string        `toml:"store_root"    env:"BUILDERBOT_STORE_ROOT"`
	CacheDir     string        `toml:"cache_dir"     env:"BUILDERBOT_CACHE_DIR"`
	OutputDir    string        `toml:"output_dir"    env:"BUILDERBOT_OUTPUT_DIR"`
	BuildsPrefix string        `toml:"builds_prefix" env:"BUILDERBOT_BUILDS_PREFIX"`
	RedisURL     string        `toml:"redis_url"     env:"BUILDERBOT_REDIS_URL"`
	LeaseTTL     time.Duration `toml:"lease_ttl"     env:"BUILDERBOT_LEASE_TTL"`
	PollInterval time.Duration `toml:"poll_interval" env:"BUILDERBOT_POLL_INTERVAL"`
	Debug        bool          `toml:"debug"         env:"BUILDERBOT_DEBUG"`

	Layout Layout `toml:"layout"`
}

// Layout fixes where and how card text is drawn
type Layout struct {
	Font    string `toml:"font"    env:"BUILDERBOT_FONT"`    // Asset in the graphics namespace
	Overlay string `toml:"overlay" env:"BUILDERBOT_OVERLAY"` // Asset in the graphics namespace

	TitleSize  float64 `toml:"title_size"`
	RulesSize  float64 `toml:"rules_size"`
	FlavorSize float64 `toml:"flavor_size"`

	TitleOrigin  Point `toml:"title_origin"`
	RulesOrigin  Point `toml:"rules_origin"`
	FlavorOrigin Point `toml:"flavor_origin"`

	Leading   int    `toml:"leading"`
	TextColor string `toml:"text_color"`
	Matte     string `toml:"matte"`

	JPEGQuality int     `toml:"jpeg_quality" env:"BUILDERBOT_JPEG_QUALITY"`
	DPI         float64 `toml:"dpi"          env:"BUILDERBOT_DPI"`
}

// Point is a pixel position on the card
type Point struct {
	X int `toml:"x"`
	Y int `toml:"y"`
}

// Image converts p to an image.Point
func (p Point) Image() image.Point {
	return image.Pt(p.X, p.Y)
}

// Default returns the configuration used when no file overrides it
func Default() Config {
	return Config{
		StoreRoot:    filepath.Join(GetXDGDataHome(), "builderbot", "store"),
		CacheDir:     filepath.Join(GetCacheDir(), "builderbot"),
		OutputDir:    filepath.Join(GetXDGDataHome(), "builderbot", "output"),
		BuildsPrefix: "/builds",
		LeaseTTL:     time.Minute,
		PollInterval: time.Minute,
		Layout:       DefaultLayout(),
	}
}

// DefaultLayout matches the stock card template
func DefaultLayout() Layout {
	return Layout{
		Font:         "font.ttf",
		Overlay:      "text_boxes.png",
		TitleSize:    56,
		RulesSize:    40,
		FlavorSize:   30,
		TitleOrigin:  Point{X: 89, Y: 79},
		RulesOrigin:  Point{X: 89, Y: 590},
		FlavorOrigin: Point{X: 89, Y: 950},
		Leading:      10,
		TextColor:    "#000000",
		Matte:        "#ffffff",
		JPEGQuality:  90,
		DPI:          300,
	}
}

// Validate rejects values the renderer cannot use
func (c Config) Validate() error {
	var errs []error
	if c.StoreRoot == "" {
		errs = append(errs, errors.New("store_root is required"))
	}
	if c.CacheDir == "" {
		errs = append(errs, errors.New("cache_dir is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is required"))
	}
	if q := c.Layout.JPEGQuality; q < 1 || q > 100 {
		errs = append(errs, fmt.Errorf("layout.jpeg_quality must be within 1..100, got %d", q))
	}
	if c.Layout.DPI <= 0 {
		errs = append(errs, fmt.Errorf("layout.dpi must be positive, got %v", c.Layout.DPI))
	}
	if c.Layout.TitleSize <= 0 || c.Layout.RulesSize <= 0 || c.Layout.FlavorSize <= 0 {
		errs = append(errs, errors.New("layout font sizes must be positive"))
	}
	return errors.Join(errs...)
}

// MarkerPath is the store object holding the fingerprint of the last build
func (c Config) MarkerPath() string {
	return c.BuildsPrefix + "/last_build.json"
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetCacheDir returns XDG_CACHE_HOME or default path
func GetCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "builderbot", "config.toml")
}

// LoadConfig loads the default config file, creating it on first run
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	// Create default config if it doesn't exist
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := createDefaultConfig(configPath); err != nil {
			return nil, err
		}
	}
	return LoadFile(configPath)
}

// LoadFile decodes a config file over the defaults and applies
// BUILDERBOT_* environment overrides
func LoadFile(configPath string) (*Config, error) {
	config := Default()
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	return finish(config)
}

// FromEnv builds a config from the defaults and the environment only
func FromEnv() (*Config, error) {
	return finish(Default())
}

func finish(config Config) (*Config, error) {
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// createDefaultConfig writes the default config file
func createDefaultConfig(configPath string) error {
	configDir := filepath.Dir(configPath)

	// Ensure the config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %v", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %v", err)
	}
	defer file.Close()

	// Encode the config to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(Default()); err != nil {
		return fmt.Errorf("error encoding config: %v", err)
	}

	return nil
}
