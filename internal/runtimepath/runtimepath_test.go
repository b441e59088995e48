package runtimepath

import (
	"path/filepath"
	"testing"
)

func TestSocketPath_UsesXDGRuntimeDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)

	path, err := SocketPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "winkeep.sock") {
		t.Fatalf("socket path = %q, want under %q", path, dir)
	}
}

func TestStatePath_UsesXDGDataHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	path, err := StatePath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "winkeep", "window-state.json") {
		t.Fatalf("state path = %q, want under %q", path, dir)
	}
}

func TestStatePath_FallsBackToHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := StatePath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(home, ".local", "share", "winkeep", "window-state.json") {
		t.Fatalf("state path = %q, want under %q", path, home)
	}
}
