package windows

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
	"github.com/winkeep/winkeep/internal/state"
)

type fakeProvider struct {
	displays []platform.Display
}

func (f *fakeProvider) Displays() ([]platform.Display, error) {
	return f.displays, nil
}

func (f *fakeProvider) Primary() (platform.Display, error) {
	for _, d := range f.displays {
		if d.Primary {
			return d, nil
		}
	}
	return platform.Display{}, fmt.Errorf("no primary display")
}

type fakeHandle struct {
	ops []string
}

func (h *fakeHandle) SetBounds(b geometry.Rect) error {
	h.ops = append(h.ops, fmt.Sprintf("bounds %d,%d %dx%d", b.X, b.Y, b.Width, b.Height))
	return nil
}

func (h *fakeHandle) SetMaximized(v bool) error {
	h.ops = append(h.ops, fmt.Sprintf("maximized=%t", v))
	return nil
}

func (h *fakeHandle) SetFullScreen(v bool) error {
	h.ops = append(h.ops, fmt.Sprintf("fullscreen=%t", v))
	return nil
}

func (h *fakeHandle) SetAlwaysOnTop(v bool) error {
	h.ops = append(h.ops, fmt.Sprintf("ontop=%t", v))
	return nil
}

func (h *fakeHandle) Show() error     { h.ops = append(h.ops, "show"); return nil }
func (h *fakeHandle) Minimize() error { h.ops = append(h.ops, "minimize"); return nil }

type fakeWM struct {
	handles map[string]*fakeHandle
}

func (f *fakeWM) LiveHandle(kind string) (platform.WindowHandle, bool) {
	h, ok := f.handles[kind]
	return h, ok
}

// fakeScheduler holds scheduled callbacks until fired.
type fakeScheduler struct {
	pending []func()
}

func (f *fakeScheduler) Schedule(_ time.Duration, fn func()) func() bool {
	idx := len(f.pending)
	f.pending = append(f.pending, fn)
	return func() bool {
		if f.pending[idx] == nil {
			return false
		}
		f.pending[idx] = nil
		return true
	}
}

func (f *fakeScheduler) fire() {
	if len(f.pending) == 0 {
		return
	}
	fn := f.pending[len(f.pending)-1]
	if fn != nil {
		f.pending[len(f.pending)-1] = nil
		fn()
	}
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

type fixture struct {
	manager *Manager
	store   *state.Store
	wm      *fakeWM
	sched   *fakeScheduler
	path    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "window-state.json")
	cfg := config.Default()
	provider := &fakeProvider{displays: testDisplays()}
	sched := &fakeScheduler{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	store := state.NewStore(path, cfg, provider, logger, state.WithScheduler(sched))
	store.Load()

	wm := &fakeWM{handles: map[string]*fakeHandle{
		"main":     {},
		"floating": {},
	}}
	return &fixture{
		manager: NewManager(store, cfg, provider, wm, logger),
		store:   store,
		wm:      wm,
		sched:   sched,
		path:    path,
	}
}

func TestBuildCreationOptions_RemembersPosition(t *testing.T) {
	f := newFixture(t)
	x, y := 500, 300
	if err := f.store.Apply(state.KindMain, state.Patch{X: &x, Y: &y}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	opts, err := f.manager.BuildCreationOptions(state.KindMain)
	if err != nil {
		t.Fatalf("build options: %v", err)
	}
	if opts.Width != 1024 || opts.Height != 768 {
		t.Fatalf("size = %dx%d, want 1024x768", opts.Width, opts.Height)
	}
	if opts.X == nil || opts.Y == nil || *opts.X != 500 || *opts.Y != 300 {
		t.Fatalf("position = %v,%v, want 500,300", opts.X, opts.Y)
	}
	if opts.MinWidth != 400 || opts.MinHeight != 300 {
		t.Fatalf("min size = %dx%d, want 400x300", opts.MinWidth, opts.MinHeight)
	}
	if opts.Show {
		t.Fatal("windows are created hidden")
	}
}

func TestBuildCreationOptions_PositionNotRemembered(t *testing.T) {
	f := newFixture(t)
	remember := false
	wc, _ := f.manager.cfg.Window("main")
	wc.RememberPosition = &remember
	f.manager.cfg.Windows["main"] = wc

	opts, err := f.manager.BuildCreationOptions(state.KindMain)
	if err != nil {
		t.Fatalf("build options: %v", err)
	}
	if opts.X != nil || opts.Y != nil {
		t.Fatalf("position = %v,%v, want nil (host centers)", opts.X, opts.Y)
	}
}

func TestApplyPostCreationState(t *testing.T) {
	f := newFixture(t)
	maximized := true
	if err := f.store.Apply(state.KindMain, state.Patch{Maximized: &maximized}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	handle := &fakeHandle{}
	if err := f.manager.ApplyPostCreationState(state.KindMain, handle); err != nil {
		t.Fatalf("apply post-creation state: %v", err)
	}

	want := []string{"maximized=true", "show"}
	if len(handle.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", handle.ops, want)
	}
	for i := range want {
		if handle.ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", handle.ops, want)
		}
	}
}

func TestApplyPostCreationState_MinimizedWinsOverShow(t *testing.T) {
	f := newFixture(t)
	minimized := true
	if err := f.store.Apply(state.KindMain, state.Patch{Minimized: &minimized}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	handle := &fakeHandle{}
	if err := f.manager.ApplyPostCreationState(state.KindMain, handle); err != nil {
		t.Fatalf("apply post-creation state: %v", err)
	}
	if len(handle.ops) != 1 || handle.ops[0] != "minimize" {
		t.Fatalf("ops = %v, want [minimize]", handle.ops)
	}
}

func TestMoveToDisplay_CentersOnTarget(t *testing.T) {
	f := newFixture(t)
	w, h := 300, 400
	if err := f.store.Apply(state.KindMain, state.Patch{Width: &w, Height: &h}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rec, err := f.manager.MoveToDisplay(state.KindMain, 2)
	if err != nil {
		t.Fatalf("move to display: %v", err)
	}

	// Display 2's work area is 1080x1920 at (1920, 0); a 300x400 window
	// centers at (2310, 760).
	if rec.X != 2310 || rec.Y != 760 {
		t.Fatalf("position = (%d, %d), want (2310, 760)", rec.X, rec.Y)
	}
	if rec.DisplayID != 2 {
		t.Fatalf("display id = %d, want 2", rec.DisplayID)
	}
	if rec.WorkArea != testDisplays()[1].WorkArea {
		t.Fatalf("work area = %+v, want display 2's", rec.WorkArea)
	}

	if ops := f.wm.handles["main"].ops; len(ops) != 1 || ops[0] != "bounds 2310,760 300x400" {
		t.Fatalf("live window ops = %v", ops)
	}
	if _, err := os.Stat(f.path); err != nil {
		t.Fatalf("move should flush: %v", err)
	}
}

func TestMoveToDisplay_UnknownDisplay(t *testing.T) {
	f := newFixture(t)
	if _, err := f.manager.MoveToDisplay(state.KindMain, 42); err == nil {
		t.Fatal("expected error for unknown display id")
	}
}

func TestSnapToEdge_LeftHalf(t *testing.T) {
	f := newFixture(t)
	rec, err := f.manager.SnapToEdge(state.KindMain, geometry.EdgeLeft)
	if err != nil {
		t.Fatalf("snap: %v", err)
	}

	want := geometry.Rect{X: 0, Y: 30, Width: 960, Height: 1050}
	if rec.Bounds() != want {
		t.Fatalf("bounds = %+v, want %+v", rec.Bounds(), want)
	}
	if rec.Maximized {
		t.Fatal("half snap must not mark the record maximized")
	}
}

func TestSnapToEdge_Maximize(t *testing.T) {
	f := newFixture(t)
	rec, err := f.manager.SnapToEdge(state.KindMain, geometry.EdgeMaximize)
	if err != nil {
		t.Fatalf("snap: %v", err)
	}
	if rec.Bounds() != testDisplays()[0].WorkArea {
		t.Fatalf("bounds = %+v, want full work area", rec.Bounds())
	}
	if !rec.Maximized {
		t.Fatal("maximize snap should mark the record maximized")
	}
}

func TestSnapToEdge_DetachedDisplayFallsBackToPrimary(t *testing.T) {
	f := newFixture(t)
	id := platform.DisplayID(7)
	if err := f.store.Apply(state.KindMain, state.Patch{DisplayID: &id}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rec, err := f.manager.SnapToEdge(state.KindMain, geometry.EdgeRight)
	if err != nil {
		t.Fatalf("snap: %v", err)
	}
	want := geometry.Rect{X: 960, Y: 30, Width: 960, Height: 1050}
	if rec.Bounds() != want {
		t.Fatalf("bounds = %+v, want right half of primary %+v", rec.Bounds(), want)
	}
}

func TestSnapToEdge_UnknownEdge(t *testing.T) {
	f := newFixture(t)
	if _, err := f.manager.SnapToEdge(state.KindMain, geometry.Edge("diagonal")); err == nil {
		t.Fatal("expected error for unknown edge")
	}
}

func TestHandleGeometryChange_DebouncedAndTracksDisplay(t *testing.T) {
	f := newFixture(t)

	// Drag onto display 2.
	bounds := geometry.Rect{X: 2200, Y: 500, Width: 600, Height: 400}
	if err := f.manager.HandleGeometryChange(state.KindMain, bounds); err != nil {
		t.Fatalf("handle geometry change: %v", err)
	}

	if _, err := os.Stat(f.path); !os.IsNotExist(err) {
		t.Fatal("geometry changes must not flush before the quiet period")
	}

	rec, _ := f.store.Get(state.KindMain)
	if rec.Bounds() != bounds {
		t.Fatalf("bounds = %+v, want %+v", rec.Bounds(), bounds)
	}
	if rec.DisplayID != 2 {
		t.Fatalf("display id = %d, want 2 (center is on display 2)", rec.DisplayID)
	}
	if rec.WorkArea != testDisplays()[1].WorkArea {
		t.Fatalf("work area = %+v, want display 2's", rec.WorkArea)
	}

	f.sched.fire()
	if _, err := os.Stat(f.path); err != nil {
		t.Fatalf("expected flush after quiet period: %v", err)
	}
}

func TestHandleGeometryChange_IgnoredWhileMaximized(t *testing.T) {
	f := newFixture(t)
	maximized := true
	if err := f.store.Apply(state.KindMain, state.Patch{Maximized: &maximized}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	before, _ := f.store.Get(state.KindMain)

	err := f.manager.HandleGeometryChange(state.KindMain, geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080})
	if err != nil {
		t.Fatalf("handle geometry change: %v", err)
	}

	after, _ := f.store.Get(state.KindMain)
	if after.Bounds() != before.Bounds() {
		t.Fatal("maximized geometry must not overwrite the restore bounds")
	}
}

func TestSetState_MergesAndAppliesToLiveWindow(t *testing.T) {
	f := newFixture(t)
	w, h := 800, 640
	rec, err := f.manager.SetState(state.KindMain, state.Patch{Width: &w, Height: &h})
	if err != nil {
		t.Fatalf("set state: %v", err)
	}
	if rec.Width != 800 || rec.Height != 640 {
		t.Fatalf("size = %dx%d, want 800x640", rec.Width, rec.Height)
	}
	if len(f.wm.handles["main"].ops) == 0 {
		t.Fatal("set state should drive the live window")
	}
	if _, err := os.Stat(f.path); err != nil {
		t.Fatalf("set state should flush: %v", err)
	}
}

func TestSetState_RevalidatesAgainstConfig(t *testing.T) {
	f := newFixture(t)
	w := 50 // below main's min_width of 400
	rec, err := f.manager.SetState(state.KindMain, state.Patch{Width: &w})
	if err != nil {
		t.Fatalf("set state: %v", err)
	}
	if rec.Width != 400 {
		t.Fatalf("width = %d, want clamped 400", rec.Width)
	}
}

func TestResetState(t *testing.T) {
	f := newFixture(t)
	w := 800
	if _, err := f.manager.SetState(state.KindMain, state.Patch{Width: &w}); err != nil {
		t.Fatalf("set state: %v", err)
	}

	rec, err := f.manager.ResetState(state.KindMain)
	if err != nil {
		t.Fatalf("reset state: %v", err)
	}
	if rec.Width != 1024 || rec.Height != 768 {
		t.Fatalf("size = %dx%d, want defaults 1024x768", rec.Width, rec.Height)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	st := f.manager.Stats()
	if st.Displays != 2 {
		t.Fatalf("displays = %d, want 2", st.Displays)
	}
	if st.State.Records != len(state.Kinds()) {
		t.Fatalf("records = %d, want %d", st.State.Records, len(state.Kinds()))
	}
}
