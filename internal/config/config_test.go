package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	main, ok := cfg.Window("main")
	if !ok {
		t.Fatal("expected built-in main window config")
	}
	if main.DefaultWidth != 1024 || main.DefaultHeight != 768 {
		t.Fatalf("main default size = %dx%d, want 1024x768", main.DefaultWidth, main.DefaultHeight)
	}
	if !main.GetRememberPosition() {
		t.Fatal("remember_position should default to true")
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Fatalf("debounce = %v, want 500ms", cfg.Debounce())
	}
}

func TestParse_PartialSectionKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
windows:
  main:
    max_width: 2000
debounce_ms: 250
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	main, _ := cfg.Window("main")
	if main.MaxWidth != 2000 {
		t.Fatalf("max_width = %d, want 2000", main.MaxWidth)
	}
	if main.MinWidth != 400 || main.DefaultWidth != 1024 {
		t.Fatalf("unset fields not defaulted: %+v", main)
	}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Fatalf("debounce = %v, want 250ms", cfg.Debounce())
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("windows:\n  main:\n    widht: 100\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParse_RejectsInvalidBounds(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"max below min",
			"windows:\n  main:\n    min_width: 500\n    max_width: 100\n    default_width: 500\n",
			"max_width",
		},
		{
			"default outside bounds",
			"windows:\n  floating:\n    min_width: 300\n    default_width: 200\n",
			"default_width",
		},
		{
			"negative debounce",
			"debounce_ms: -1\n",
			"debounce_ms",
		},
	}

	for _, tt := range tests {
		_, err := Parse([]byte(tt.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.want)
		}
	}
}

func TestParse_RememberPositionFalse(t *testing.T) {
	cfg, err := Parse([]byte("windows:\n  floating:\n    remember_position: false\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	floating, _ := cfg.Window("floating")
	if floating.GetRememberPosition() {
		t.Fatal("remember_position should be false")
	}
}

func TestLoadFromPath_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("snap_margin: 32\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SnapMargin != 32 {
		t.Fatalf("snap_margin = %d, want 32", cfg.SnapMargin)
	}
}
