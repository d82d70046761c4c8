package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/lexrope/internal/config/loader"
	"github.com/dshills/lexrope/internal/logging"
	"github.com/dshills/lexrope/internal/syntax/tokenrope"
)

// Output formats.
const (
	FormatSummary = "summary"
	FormatPretty  = "pretty"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Color modes.
const (
	ColorAuto = "auto"
	ColorOn   = "on"
	ColorOff  = "off"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatSummary, FormatPretty, FormatJSON, FormatMsgpack}

// Config is the complete lexrope configuration.
type Config struct {
	Rope   RopeConfig   `toml:"rope"`
	Lexer  LexerConfig  `toml:"lexer"`
	Log    LogConfig    `toml:"log"`
	Watch  WatchConfig  `toml:"watch"`
	Output OutputConfig `toml:"output"`
}

// RopeConfig sizes the token rope.
type RopeConfig struct {
	LeafTokens int `toml:"leaf_tokens"`
	Fanout     int `toml:"fanout"`
}

// LexerConfig locates user language definitions.
type LexerConfig struct {
	// Dir holds *.lua language definitions loaded at startup.
	Dir string `toml:"dir"`
	// Timeout bounds the evaluation of one definition.
	Timeout Duration `toml:"timeout"`
	// Default names the language used when none matches the file.
	Default string `toml:"default"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
	// File receives log output instead of stderr when set.
	File string `toml:"file"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
	// Verify checks each incremental relex against a full one.
	Verify bool `toml:"verify"`
}

// OutputConfig configures rendering.
type OutputConfig struct {
	Format    string   `toml:"format"`
	Color     string   `toml:"color"`
	Theme     string   `toml:"theme"`
	TextWidth int      `toml:"text_width"`
	Indent    bool     `toml:"indent"`
	Kinds     []string `toml:"kinds"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	shape := tokenrope.DefaultShape()
	return &Config{
		Rope: RopeConfig{
			LeafTokens: shape.LeafTokens,
			Fanout:     shape.Fanout,
		},
		Lexer: LexerConfig{
			Timeout: Duration{2 * time.Second},
			Default: "go",
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: Duration{100 * time.Millisecond},
		},
		Output: OutputConfig{
			Format:    FormatSummary,
			Color:     ColorAuto,
			Theme:     "monokai",
			TextWidth: 48,
		},
	}
}

// DefaultPath returns the default config file location, or "" when the
// user config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lexrope", "config.toml")
}

// Load reads the file at path (skipped when empty or missing), overlays
// LEXROPE_* environment variables on the defaults and validates the result.
func Load(path string) (*Config, error) {
	var sources []loader.Loader
	if path != "" {
		sources = append(sources, loader.NewTOMLLoader(path))
	}
	sources = append(sources, loader.NewEnvLoader(loader.DefaultEnvPrefix))
	return LoadFrom(sources...)
}

// LoadFrom merges sources in order over the defaults.
func LoadFrom(sources ...loader.Loader) (*Config, error) {
	merged := make(map[string]any)
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg := Default()
	if err := cfg.apply(merged); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply decodes layered settings over c.
func (c *Config) apply(settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrDecode, strict.String())
		}
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrValidationFailed}, args...)...))
	}

	if c.Rope.LeafTokens < 2 {
		fail("rope.leaf_tokens must be at least 2, got %d", c.Rope.LeafTokens)
	}
	if c.Rope.Fanout < 2 {
		fail("rope.fanout must be at least 2, got %d", c.Rope.Fanout)
	}
	if c.Lexer.Timeout.Duration <= 0 {
		fail("lexer.timeout must be positive, got %s", c.Lexer.Timeout)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		fail("log.level: %v", err)
	}
	if c.Watch.Debounce.Duration < 0 {
		fail("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	if !slices.Contains(Formats, c.Output.Format) {
		fail("output.format must be one of %v, got %q", Formats, c.Output.Format)
	}
	switch c.Output.Color {
	case ColorAuto, ColorOn, ColorOff:
	default:
		fail("output.color must be auto, on or off, got %q", c.Output.Color)
	}
	if c.Output.TextWidth < 0 {
		fail("output.text_width must not be negative, got %d", c.Output.TextWidth)
	}

	return errors.Join(errs...)
}

// Shape returns the configured rope shape.
func (c *Config) Shape() tokenrope.Shape {
	return tokenrope.Shape{LeafTokens: c.Rope.LeafTokens, Fanout: c.Rope.Fanout}
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}
