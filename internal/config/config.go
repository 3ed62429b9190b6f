// Package config provides configuration management for the palette tools.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/bbernstein/lacylights-palette/internal/palette"
)

// Config holds all configuration values.
type Config struct {
	// Server configuration
	Port string
	Env  string

	// Database configuration (favorites and settings)
	DatabaseURL string

	// CORS configuration
	CORSOrigin string

	// Logging
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
	LogConsole   bool

	// Palette generation
	Steps      string  // comma separated DMX step values
	WhiteScale float64 // share of the white channel added to R, G and B
	AmberScale float64 // share of the amber channel added along the amber tint

	// FixtureProfile is an optional YAML file overriding the palette settings
	// and classifier thresholds for a specific fixture.
	FixtureProfile string
}

// Load loads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		// Server
		Port: getEnv("PORT", "4000"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "file:./palette.db"),

		// CORS
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),

		// Logging
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		LogMaxSizeMB: getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogConsole:   getEnvBool("LOG_CONSOLE", true),

		// Palette
		Steps:      getEnv("DMX_STEPS", "0,85,170,255"),
		WhiteScale: getEnvFloat("WHITE_SCALE", palette.DefaultWhiteScale),
		AmberScale: getEnvFloat("AMBER_SCALE", palette.DefaultAmberScale),

		FixtureProfile: getEnv("FIXTURE_PROFILE", ""),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Palette resolves the generation options: environment values first, then
// the fixture profile (if any) on top. The result is validated, so an error
// here means nothing should be generated.
func (c *Config) Palette() (palette.Options, error) {
	steps, err := palette.ParseSteps(c.Steps)
	if err != nil {
		return palette.Options{}, err
	}

	opts := palette.DefaultOptions()
	opts.Steps = steps
	opts.WhiteScale = c.WhiteScale
	opts.AmberScale = c.AmberScale

	if c.FixtureProfile != "" {
		profile, err := LoadProfile(c.FixtureProfile)
		if err != nil {
			return palette.Options{}, err
		}
		profile.Apply(&opts)
	}

	if err := opts.Validate(); err != nil {
		return palette.Options{}, err
	}
	return opts, nil
}

// Profile describes a fixture whose emitters need different mixing or
// classification than the defaults. Zero-valued fields leave the current
// option untouched.
type Profile struct {
	Name       string         `yaml:"name"`
	Steps      []int          `yaml:"steps"`
	StepLabels map[int]string `yaml:"step_labels"`
	WhiteScale *float64       `yaml:"white_scale"`
	AmberScale *float64       `yaml:"amber_scale"`

	WhiteSaturation  *float64                              `yaml:"white_saturation"`
	PastelSaturation *float64                              `yaml:"pastel_saturation"`
	HueBuckets       []palette.HueBucket                   `yaml:"hue_buckets"`
	Categories       map[palette.HueGroup]palette.Category `yaml:"categories"`
	Temperature      *palette.TemperatureRule              `yaml:"temperature"`
}

// LoadProfile reads a YAML fixture profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML fixture profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: fixture profile: %v", palette.ErrInvalidConfiguration, err)
	}
	return &p, nil
}

// Apply overlays the profile onto opts.
func (p *Profile) Apply(opts *palette.Options) {
	if len(p.Steps) > 0 {
		opts.Steps = p.Steps
	}
	if len(p.StepLabels) > 0 {
		opts.StepLabels = p.StepLabels
	}
	if p.WhiteScale != nil {
		opts.WhiteScale = *p.WhiteScale
	}
	if p.AmberScale != nil {
		opts.AmberScale = *p.AmberScale
	}
	if p.WhiteSaturation != nil {
		opts.Thresholds.WhiteSaturation = *p.WhiteSaturation
	}
	if p.PastelSaturation != nil {
		opts.Thresholds.PastelSaturation = *p.PastelSaturation
	}
	if len(p.HueBuckets) > 0 {
		opts.Thresholds.HueBuckets = p.HueBuckets
	}
	for group, category := range p.Categories {
		opts.Thresholds.Categories[group] = category
	}
	if p.Temperature != nil {
		opts.Thresholds.Temperature = *p.Temperature
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the float value of an environment variable or a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
