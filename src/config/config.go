package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultAutosaveKey is the fixed key the current document is stored under.
const DefaultAutosaveKey = "richdoc-editor-content"

// Config is the editor configuration read from a TOML file.
type Config struct {
	Autosave   AutosaveConfig   `toml:"autosave"`
	Export     ExportConfig     `toml:"export"`
	Log        LogConfig        `toml:"log"`
	SpellCheck SpellCheckConfig `toml:"spellcheck"`
}

// AutosaveConfig controls local autosave.
type AutosaveConfig struct {
	Enabled  bool   `toml:"enabled"`
	Key      string `toml:"key"`
	DelayMS  int    `toml:"delay_ms"`
	Database string `toml:"database"`
}

// Delay returns the debounce interval.
func (a AutosaveConfig) Delay() time.Duration {
	return time.Duration(a.DelayMS) * time.Millisecond
}

// ExportConfig controls the text and HTML exporters.
type ExportConfig struct {
	WrapWidth int  `toml:"wrap_width"`
	PageLines int  `toml:"page_lines"`
	Compress  bool `toml:"compress"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SpellCheckConfig selects the spell checker.
type SpellCheckConfig struct {
	Checker string `toml:"checker"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Autosave: AutosaveConfig{
			Enabled:  true,
			Key:      DefaultAutosaveKey,
			DelayMS:  500,
			Database: ".richdoc/autosave.db",
		},
		Export: ExportConfig{
			WrapWidth: 80,
			PageLines: 38,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		SpellCheck: SpellCheckConfig{
			Checker: "simple",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the editor cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Autosave.Enabled {
		if strings.TrimSpace(c.Autosave.Key) == "" {
			errs = append(errs, errors.New("autosave.key must not be empty"))
		}
		if c.Autosave.DelayMS < 0 {
			errs = append(errs, fmt.Errorf("autosave.delay_ms must not be negative: %d", c.Autosave.DelayMS))
		}
		if strings.TrimSpace(c.Autosave.Database) == "" {
			errs = append(errs, errors.New("autosave.database must not be empty"))
		}
	}
	if c.Export.WrapWidth < 10 {
		errs = append(errs, fmt.Errorf("export.wrap_width too small: %d", c.Export.WrapWidth))
	}
	if c.Export.PageLines < 1 {
		errs = append(errs, fmt.Errorf("export.page_lines must be positive: %d", c.Export.PageLines))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json: %s", c.Log.Format))
	}
	switch strings.ToLower(c.SpellCheck.Checker) {
	case "simple", "fuzzy", "languagetool":
	default:
		errs = append(errs, fmt.Errorf("spellcheck.checker unknown: %s", c.SpellCheck.Checker))
	}
	return errors.Join(errs...)
}
