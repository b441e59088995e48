package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// WindowConfig holds per-window geometry bounds and restore policy.
type WindowConfig struct {
	// MinWidth/MinHeight are hard lower bounds for the window size.
	MinWidth  int `yaml:"min_width"`
	MinHeight int `yaml:"min_height"`
	// MaxWidth/MaxHeight cap the window size. 0 = unlimited.
	MaxWidth  int `yaml:"max_width,omitempty"`
	MaxHeight int `yaml:"max_height,omitempty"`
	// DefaultWidth/DefaultHeight size a window that has no saved state.
	DefaultWidth  int `yaml:"default_width"`
	DefaultHeight int `yaml:"default_height"`
	// RememberPosition restores the saved position on launch. When
	// disabled the window-creation collaborator centers the window
	// itself. Default: true.
	RememberPosition *bool `yaml:"remember_position"`
	// AlwaysOnTop keeps the window above others (floating windows).
	AlwaysOnTop bool `yaml:"always_on_top,omitempty"`
	// StartVisible shows the window after creation (floating windows).
	StartVisible *bool `yaml:"start_visible,omitempty"`
}

// GetRememberPosition returns the effective value, defaulting to true.
func (w *WindowConfig) GetRememberPosition() bool {
	if w == nil || w.RememberPosition == nil {
		return true
	}
	return *w.RememberPosition
}

// GetStartVisible returns the effective value, defaulting to true.
func (w *WindowConfig) GetStartVisible() bool {
	if w == nil || w.StartVisible == nil {
		return true
	}
	return *w.StartVisible
}

// Config is the effective winkeep configuration.
type Config struct {
	// Windows maps logical window names (main, floating) to their
	// geometry bounds.
	Windows map[string]WindowConfig `yaml:"windows"`
	// DebounceMS is the quiet period before coalesced geometry changes
	// are flushed to disk. Default: 500.
	DebounceMS int `yaml:"debounce_ms,omitempty"`
	// StateFile overrides the persisted state document location.
	StateFile string `yaml:"state_file,omitempty"`
	// SnapMargin is subtracted from the work area when an oversized
	// window is shrunk to fit a display.
	SnapMargin int `yaml:"snap_margin,omitempty"`
}

// Debounce returns the effective debounce interval.
func (c *Config) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Window returns the configuration for a logical window name, falling
// back to built-in defaults for known names without a config section.
func (c *Config) Window(name string) (WindowConfig, bool) {
	if wc, ok := c.Windows[name]; ok {
		return wc, true
	}
	wc, ok := defaultWindows[name]
	return wc, ok
}

var defaultWindows = map[string]WindowConfig{
	"main": {
		MinWidth:      400,
		MinHeight:     300,
		DefaultWidth:  1024,
		DefaultHeight: 768,
	},
	"floating": {
		MinWidth:      200,
		MinHeight:     150,
		MaxWidth:      800,
		MaxHeight:     1200,
		DefaultWidth:  320,
		DefaultHeight: 480,
	},
}

// Default returns the built-in configuration used when no config file
// exists.
func Default() *Config {
	windows := make(map[string]WindowConfig, len(defaultWindows))
	for name, wc := range defaultWindows {
		windows[name] = wc
	}
	return &Config{
		Windows:    windows,
		DebounceMS: 500,
	}
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winkeep", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing
// file yields the built-in defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates a config file. Unknown fields are
// rejected so typos surface at load time instead of silently becoming
// defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes config bytes, applies per-window defaults and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	for name, wc := range cfg.Windows {
		cfg.Windows[name] = applyWindowDefaults(name, wc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyWindowDefaults fills zero fields from the built-in config for
// the same window name, so a partial section only overrides what it
// names.
func applyWindowDefaults(name string, wc WindowConfig) WindowConfig {
	base, ok := defaultWindows[name]
	if !ok {
		base = WindowConfig{
			MinWidth:      100,
			MinHeight:     100,
			DefaultWidth:  800,
			DefaultHeight: 600,
		}
	}
	if wc.MinWidth == 0 {
		wc.MinWidth = base.MinWidth
	}
	if wc.MinHeight == 0 {
		wc.MinHeight = base.MinHeight
	}
	if wc.DefaultWidth == 0 {
		wc.DefaultWidth = base.DefaultWidth
	}
	if wc.DefaultHeight == 0 {
		wc.DefaultHeight = base.DefaultHeight
	}
	return wc
}

// Validate checks bound consistency for every window section.
func (c *Config) Validate() error {
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms: must be >= 0, got %d", c.DebounceMS)
	}
	if c.SnapMargin < 0 {
		return fmt.Errorf("snap_margin: must be >= 0, got %d", c.SnapMargin)
	}

	for name, wc := range c.Windows {
		if wc.MinWidth <= 0 || wc.MinHeight <= 0 {
			return fmt.Errorf("windows.%s: min size must be positive, got %dx%d", name, wc.MinWidth, wc.MinHeight)
		}
		if wc.MaxWidth != 0 && wc.MaxWidth < wc.MinWidth {
			return fmt.Errorf("windows.%s: max_width %d is below min_width %d", name, wc.MaxWidth, wc.MinWidth)
		}
		if wc.MaxHeight != 0 && wc.MaxHeight < wc.MinHeight {
			return fmt.Errorf("windows.%s: max_height %d is below min_height %d", name, wc.MaxHeight, wc.MinHeight)
		}
		if wc.DefaultWidth < wc.MinWidth || (wc.MaxWidth != 0 && wc.DefaultWidth > wc.MaxWidth) {
			return fmt.Errorf("windows.%s: default_width %d is outside [%d, %d]", name, wc.DefaultWidth, wc.MinWidth, wc.MaxWidth)
		}
		if wc.DefaultHeight < wc.MinHeight || (wc.MaxHeight != 0 && wc.DefaultHeight > wc.MaxHeight) {
			return fmt.Errorf("windows.%s: default_height %d is outside [%d, %d]", name, wc.DefaultHeight, wc.MinHeight, wc.MaxHeight)
		}
	}
	return nil
}

// Print writes the effective config as YAML.
func (c *Config) Print(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}
