package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bbernstein/lacylights-palette/internal/palette"
)

func TestLoad_CustomEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "file:./prod.db")
	t.Setenv("CORS_ORIGIN", "http://example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", "/tmp/palette.log")
	t.Setenv("LOG_MAX_SIZE_MB", "10")
	t.Setenv("LOG_CONSOLE", "false")
	t.Setenv("DMX_STEPS", "0,128,255")
	t.Setenv("WHITE_SCALE", "0.25")
	t.Setenv("AMBER_SCALE", "0.75")
	t.Setenv("FIXTURE_PROFILE", "fixture.yaml")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected Port to be '8080', got '%s'", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
	if cfg.DatabaseURL != "file:./prod.db" {
		t.Errorf("Expected DatabaseURL to be 'file:./prod.db', got '%s'", cfg.DatabaseURL)
	}
	if cfg.CORSOrigin != "http://example.com" {
		t.Errorf("Expected CORSOrigin to be 'http://example.com', got '%s'", cfg.CORSOrigin)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.LogFile != "/tmp/palette.log" {
		t.Errorf("Expected LogFile to be '/tmp/palette.log', got '%s'", cfg.LogFile)
	}
	if cfg.LogMaxSizeMB != 10 {
		t.Errorf("Expected LogMaxSizeMB to be 10, got %d", cfg.LogMaxSizeMB)
	}
	if cfg.LogConsole {
		t.Error("Expected LogConsole to be false")
	}
	if cfg.Steps != "0,128,255" {
		t.Errorf("Expected Steps to be '0,128,255', got '%s'", cfg.Steps)
	}
	if cfg.WhiteScale != 0.25 {
		t.Errorf("Expected WhiteScale to be 0.25, got %v", cfg.WhiteScale)
	}
	if cfg.AmberScale != 0.75 {
		t.Errorf("Expected AmberScale to be 0.75, got %v", cfg.AmberScale)
	}
	if cfg.FixtureProfile != "fixture.yaml" {
		t.Errorf("Expected FixtureProfile to be 'fixture.yaml', got '%s'", cfg.FixtureProfile)
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env      string
		expected bool
	}{
		{"production", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := &Config{Env: tt.env}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v for env '%s'", got, tt.expected, tt.env)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV", "custom_value")

	if result := getEnv("TEST_GET_ENV", "default"); result != "custom_value" {
		t.Errorf("Expected 'custom_value', got '%s'", result)
	}
	if result := getEnv("NON_EXISTING_VAR_12345_UNIQUE", "default_value"); result != "default_value" {
		t.Errorf("Expected 'default_value', got '%s'", result)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "42")
	if result := getEnvInt("TEST_INT_VAR", 10); result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}

	t.Setenv("TEST_INVALID_INT", "not_a_number")
	if result := getEnvInt("TEST_INVALID_INT", 10); result != 10 {
		t.Errorf("Expected default 10 for invalid int, got %d", result)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
		setEnv       bool
	}{
		{"true_string", "true", false, true, true},
		{"false_string", "false", true, false, true},
		{"1_string", "1", false, true, true},
		{"invalid_string_returns_default", "invalid", true, true, true},
		{"non_existing_returns_default_false", "", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envKey := "TEST_BOOL_VAR_" + tt.name + "_UNIQUE"
			if tt.setEnv {
				t.Setenv(envKey, tt.envValue)
			}
			if result := getEnvBool(envKey, tt.defaultValue); result != tt.expected {
				t.Errorf("getEnvBool(%s, %v) = %v, want %v", envKey, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT_VAR", "0.125")
	if result := getEnvFloat("TEST_FLOAT_VAR", 1); result != 0.125 {
		t.Errorf("Expected 0.125, got %v", result)
	}

	t.Setenv("TEST_INVALID_FLOAT", "half")
	if result := getEnvFloat("TEST_INVALID_FLOAT", 0.5); result != 0.5 {
		t.Errorf("Expected default 0.5 for invalid float, got %v", result)
	}
}

func TestPalette_Defaults(t *testing.T) {
	cfg := &Config{Steps: "0,85,170,255", WhiteScale: 0.5, AmberScale: 0.5}

	opts, err := cfg.Palette()
	if err != nil {
		t.Fatalf("Palette() failed: %v", err)
	}
	if len(opts.Steps) != 4 || opts.Steps[3] != 255 {
		t.Errorf("Unexpected steps %v", opts.Steps)
	}
	if opts.WhiteScale != 0.5 || opts.AmberScale != 0.5 {
		t.Errorf("Unexpected scales %v/%v", opts.WhiteScale, opts.AmberScale)
	}
}

func TestPalette_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty steps", Config{Steps: "", WhiteScale: 0.5, AmberScale: 0.5}},
		{"non numeric step", Config{Steps: "0,x", WhiteScale: 0.5, AmberScale: 0.5}},
		{"step above 255", Config{Steps: "0,256", WhiteScale: 0.5, AmberScale: 0.5}},
		{"negative scale", Config{Steps: "0,255", WhiteScale: -1, AmberScale: 0.5}},
		{"missing profile", Config{Steps: "0,255", WhiteScale: 0.5, AmberScale: 0.5, FixtureProfile: "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Palette(); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestPalette_WithProfile(t *testing.T) {
	profile := `
name: Warm Wash
steps: [0, 128, 255]
step_labels:
  128: Half
white_scale: 0.4
amber_scale: 0.9
pastel_saturation: 0.4
categories:
  magenta: warm
temperature:
  dark_floor: 0.05
  warm_ratio: 1.2
  very_warm_ratio: 2.5
  green_dominance: 1.5
  balance_tolerance: 0.1
`
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	cfg := &Config{Steps: "0,85,170,255", WhiteScale: 0.5, AmberScale: 0.5, FixtureProfile: path}
	opts, err := cfg.Palette()
	if err != nil {
		t.Fatalf("Palette() failed: %v", err)
	}

	if len(opts.Steps) != 3 || opts.Steps[1] != 128 {
		t.Errorf("Expected profile steps, got %v", opts.Steps)
	}
	if opts.StepLabels[128] != "Half" {
		t.Errorf("Expected label 'Half', got %q", opts.StepLabels[128])
	}
	if opts.WhiteScale != 0.4 || opts.AmberScale != 0.9 {
		t.Errorf("Expected profile scales, got %v/%v", opts.WhiteScale, opts.AmberScale)
	}
	if opts.Thresholds.PastelSaturation != 0.4 {
		t.Errorf("Expected pastel saturation 0.4, got %v", opts.Thresholds.PastelSaturation)
	}
	if opts.Thresholds.WhiteSaturation != palette.DefaultThresholds().WhiteSaturation {
		t.Error("Unset profile fields must keep defaults")
	}
	if opts.Thresholds.Categories[palette.HueMagenta] != palette.CategoryWarm {
		t.Error("Expected magenta to be remapped to warm")
	}
	if opts.Thresholds.Categories[palette.HueBlue] != palette.CategoryCool {
		t.Error("Expected blue to keep its default category")
	}
	if opts.Thresholds.Temperature.WarmRatio != 1.2 {
		t.Errorf("Expected warm ratio 1.2, got %v", opts.Thresholds.Temperature.WarmRatio)
	}
}

func TestParseProfile_Invalid(t *testing.T) {
	_, err := ParseProfile([]byte("steps: [0, 85\n"))
	if !errors.Is(err, palette.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestPalette_ProfileRejectedByValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: [0, 0]\n"), 0o644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	cfg := &Config{Steps: "0,255", WhiteScale: 0.5, AmberScale: 0.5, FixtureProfile: path}
	if _, err := cfg.Palette(); !errors.Is(err, palette.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestPalette_ProfileHueBucketsAreFilterable(t *testing.T) {
	profile := `
hue_buckets:
  - {name: red, upper: 120}
  - {name: teal, upper: 240}
  - {name: red, upper: 360}
categories:
  teal: cool
`
	path := filepath.Join(t.TempDir(), "teal.yaml")
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	cfg := &Config{Steps: "0,85,170,255", WhiteScale: 0.5, AmberScale: 0.5, FixtureProfile: path}
	opts, err := cfg.Palette()
	if err != nil {
		t.Fatalf("Palette() failed: %v", err)
	}
	store, err := palette.Build(opts)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	seq, err := store.Query(palette.FilterSpec{HueGroups: []palette.HueGroup{"teal"}}, nil)
	if err != nil {
		t.Fatalf("Query(teal) failed: %v", err)
	}
	n := 0
	for r := range seq {
		n++
		if r.Classification.HueGroup != "teal" || r.Classification.Category != palette.CategoryCool {
			t.Errorf("Record %d classified %s/%s", r.Index, r.Classification.HueGroup, r.Classification.Category)
		}
	}
	if n == 0 {
		t.Error("Expected records in the teal bucket")
	}
	if got := palette.Summarize(store.All()).HueGroups["teal"]; got != n {
		t.Errorf("Expected summary teal count %d, got %d", n, got)
	}

	if _, err := store.Query(palette.FilterSpec{HueGroups: []palette.HueGroup{palette.HueMagenta}}, nil); !errors.Is(err, palette.ErrInvalidFilterSpec) {
		t.Errorf("Expected magenta to be unknown to this profile, got %v", err)
	}
}

func TestPalette_ProfileRejectsNonFiniteThresholds(t *testing.T) {
	for _, line := range []string{"white_saturation: .nan", "pastel_saturation: .inf"} {
		path := filepath.Join(t.TempDir(), "nan.yaml")
		if err := os.WriteFile(path, []byte(line+"\n"), 0o644); err != nil {
			t.Fatalf("Failed to write profile: %v", err)
		}
		cfg := &Config{Steps: "0,255", WhiteScale: 0.5, AmberScale: 0.5, FixtureProfile: path}
		if _, err := cfg.Palette(); !errors.Is(err, palette.ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", line, err)
		}
	}
}
