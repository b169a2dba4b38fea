package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/nativeimage-mcp/internal/admission"
	"github.com/ironsheep/nativeimage-mcp/internal/telemetry"
)

// Config is the root configuration document.
type Config struct {
	Admission Admission `yaml:"admission"`
	Telemetry Telemetry `yaml:"telemetry"`
	Engine    Engine    `yaml:"engine"`
	Log       Log       `yaml:"log"`
}

// Admission configures the admission controller.
type Admission struct {
	Tiers              []admission.Tier `yaml:"tiers"`
	FallbackTotalBytes int64            `yaml:"fallback_total_bytes"`
	Strict             bool             `yaml:"strict"`
}

// Telemetry selects the memory telemetry source.
type Telemetry struct {
	Source          string   `yaml:"source"`
	RefreshInterval Duration `yaml:"refresh_interval"`
	MeminfoPath     string   `yaml:"meminfo_path"`
	StaticTotal     int64    `yaml:"static_total_bytes"`
	StaticFree      int64    `yaml:"static_free_bytes"`
}

// Engine bounds the in-process engine.
type Engine struct {
	MaxBytes   int64 `yaml:"max_bytes"`
	MaxObjects int   `yaml:"max_objects"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalYAML accepts a duration string or a plain integer of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	if v, err := time.ParseDuration(s); err == nil {
		*d = Duration(v)
		return nil
	}
	var secs int64
	if err := node.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Admission: Admission{
			Tiers:              admission.DefaultTiers(),
			FallbackTotalBytes: admission.DefaultFallbackTotal,
			Strict:             true,
		},
		Telemetry: Telemetry{
			MeminfoPath: telemetry.DefaultMeminfoPath,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if err := admission.ValidateTiers(c.Admission.Tiers); err != nil {
		errs = append(errs, fmt.Errorf("admission.tiers: %w", err))
	}
	if c.Admission.FallbackTotalBytes <= 0 {
		errs = append(errs, fmt.Errorf("admission.fallback_total_bytes must be positive, got %d", c.Admission.FallbackTotalBytes))
	}

	switch strings.ToLower(c.Telemetry.Source) {
	case "", telemetry.KindSysinfo, telemetry.KindMeminfo:
	case telemetry.KindStatic:
		if c.Telemetry.StaticTotal <= 0 {
			errs = append(errs, errors.New("telemetry.static_total_bytes must be positive for the static source"))
		}
	default:
		errs = append(errs, fmt.Errorf("telemetry.source %q is not one of sysinfo, meminfo, static", c.Telemetry.Source))
	}
	if c.Telemetry.RefreshInterval < 0 {
		errs = append(errs, errors.New("telemetry.refresh_interval must not be negative"))
	}
	if c.Telemetry.StaticFree > c.Telemetry.StaticTotal {
		errs = append(errs, errors.New("telemetry.static_free_bytes exceeds static_total_bytes"))
	}

	if c.Engine.MaxBytes < 0 || c.Engine.MaxObjects < 0 {
		errs = append(errs, errors.New("engine limits must not be negative"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of console, json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// TelemetryOptions converts the telemetry section for telemetry.New.
func (c *Config) TelemetryOptions() telemetry.Options {
	return telemetry.Options{
		Kind:        c.Telemetry.Source,
		MeminfoPath: c.Telemetry.MeminfoPath,
		Static: telemetry.Snapshot{
			TotalBytes: c.Telemetry.StaticTotal,
			FreeBytes:  c.Telemetry.StaticFree,
		},
	}
}

// AdmissionOptions converts the admission section for admission.NewController.
func (c *Config) AdmissionOptions() []admission.Option {
	return []admission.Option{
		admission.WithTiers(c.Admission.Tiers),
		admission.WithFallbackTotal(c.Admission.FallbackTotalBytes),
		admission.WithStrict(c.Admission.Strict),
	}
}
