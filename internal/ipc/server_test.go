package ipc

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
	"github.com/winkeep/winkeep/internal/state"
	"github.com/winkeep/winkeep/internal/windows"
)

type fakeProvider struct {
	displays []platform.Display
}

func (f *fakeProvider) Displays() ([]platform.Display, error) {
	return f.displays, nil
}

func (f *fakeProvider) Primary() (platform.Display, error) {
	return f.displays[0], nil
}

func testDisplays() []platform.Display {
	return []platform.Display{
		{
			ID:       1,
			Name:     "DP-1",
			Bounds:   geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
			WorkArea: geometry.Rect{X: 0, Y: 30, Width: 1920, Height: 1050},
			Primary:  true,
		},
		{
			ID:       2,
			Name:     "HDMI-1",
			Bounds:   geometry.Rect{X: 1920, Y: 0, Width: 1080, Height: 1920},
			WorkArea: geometry.Rect{X: 1920, Y: 0, Width: 1080, Height: 1920},
		},
	}
}

// startServer brings up a real server on a socket under a temp runtime
// dir and returns a client talking to it.
func startServer(t *testing.T) *Client {
	t.Helper()
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Default()
	provider := &fakeProvider{displays: testDisplays()}

	store := state.NewStore(filepath.Join(runtimeDir, "window-state.json"), cfg, provider, logger)
	store.Load()
	manager := windows.NewManager(store, cfg, provider, nil, logger)

	srv, err := NewServer(manager, store, make(chan *config.Config, 1))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Stop)

	return NewClient()
}

func TestServer_GetState(t *testing.T) {
	client := startServer(t)

	st, err := client.GetState("main")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if st.Window != "main" {
		t.Fatalf("window = %q, want main", st.Window)
	}
	if st.Width != 1024 || st.Height != 768 {
		t.Fatalf("size = %dx%d, want defaults 1024x768", st.Width, st.Height)
	}
}

func TestServer_SetStateRoundTrip(t *testing.T) {
	client := startServer(t)

	w, h := 800, 640
	st, err := client.SetState("main", StatePatch{Width: &w, Height: &h})
	if err != nil {
		t.Fatalf("set state: %v", err)
	}
	if st.Width != 800 || st.Height != 640 {
		t.Fatalf("size = %dx%d, want 800x640", st.Width, st.Height)
	}

	st, err = client.GetState("main")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if st.Width != 800 {
		t.Fatalf("width = %d, want persisted 800", st.Width)
	}
}

func TestServer_Snap(t *testing.T) {
	client := startServer(t)

	st, err := client.Snap("main", "left")
	if err != nil {
		t.Fatalf("snap: %v", err)
	}
	if st.X != 0 || st.Y != 30 || st.Width != 960 || st.Height != 1050 {
		t.Fatalf("snapped to %d,%d %dx%d, want left half of work area", st.X, st.Y, st.Width, st.Height)
	}

	if _, err := client.Snap("main", "sideways"); err == nil {
		t.Fatal("expected error for unknown edge")
	}
}

func TestServer_MoveToDisplay(t *testing.T) {
	client := startServer(t)

	st, err := client.MoveToDisplay("main", 2)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if st.DisplayID != 2 {
		t.Fatalf("display id = %d, want 2", st.DisplayID)
	}

	if _, err := client.MoveToDisplay("main", 42); err == nil {
		t.Fatal("expected error for unknown display")
	}
}

func TestServer_GetDisplays(t *testing.T) {
	client := startServer(t)

	data, err := client.GetDisplays()
	if err != nil {
		t.Fatalf("get displays: %v", err)
	}
	if len(data.Displays) != 2 {
		t.Fatalf("displays = %d, want 2", len(data.Displays))
	}
	if !data.Displays[0].Primary || data.Displays[0].Name != "DP-1" {
		t.Fatalf("unexpected first display: %+v", data.Displays[0])
	}
	if data.Displays[0].WorkY != 30 {
		t.Fatalf("work_y = %d, want 30", data.Displays[0].WorkY)
	}
}

func TestServer_GetStats(t *testing.T) {
	client := startServer(t)

	stats, err := client.GetStats()
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if !stats.DaemonRunning {
		t.Fatal("daemon_running should be true")
	}
	if stats.Displays != 2 {
		t.Fatalf("displays = %d, want 2", stats.Displays)
	}
	if stats.Records != len(state.Kinds()) {
		t.Fatalf("records = %d, want %d", stats.Records, len(state.Kinds()))
	}
}

func TestServer_UnknownWindowAndCommand(t *testing.T) {
	client := startServer(t)

	if _, err := client.GetState("popup"); err == nil {
		t.Fatal("expected error for unknown window")
	}

	if _, err := client.sendRequest(&Request{Command: CommandType("BOGUS")}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
