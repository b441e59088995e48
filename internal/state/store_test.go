package state

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/platform"
)

type fakeProvider struct {
	displays []platform.Display
	err      error
}

func (f *fakeProvider) Displays() ([]platform.Display, error) {
	return f.displays, f.err
}

func (f *fakeProvider) Primary() (platform.Display, error) {
	if f.err != nil {
		return platform.Display{}, f.err
	}
	return primaryDisplay(f.displays), nil
}

// fakeScheduler captures scheduled callbacks so tests control time.
type fakeScheduler struct {
	pending   []func()
	cancelled int
}

func (f *fakeScheduler) Schedule(_ time.Duration, fn func()) func() bool {
	idx := len(f.pending)
	f.pending = append(f.pending, fn)
	fired := false
	return func() bool {
		if fired || f.pending[idx] == nil {
			return false
		}
		f.pending[idx] = nil
		f.cancelled++
		return true
	}
}

// fire runs the most recently scheduled callback if still pending.
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

func (f *fakeScheduler) scheduled() int { return len(f.pending) }

func newTestStore(t *testing.T, sched *fakeScheduler) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "window-state.json")
	provider := &fakeProvider{displays: testDisplays()}
	opts := []Option{}
	if sched != nil {
		opts = append(opts, WithScheduler(sched))
	}
	store := NewStore(path, config.Default(), provider, slog.New(slog.NewTextHandler(os.Stderr, nil)), opts...)
	store.Load()
	return store, path
}

func flushCount(t *testing.T, path string) int {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0
	}
	return 1
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	store, _ := newTestStore(t, nil)

	rec, err := store.Get(KindMain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Width != 1024 || rec.Height != 768 {
		t.Fatalf("size = %dx%d, want defaults 1024x768", rec.Width, rec.Height)
	}
	if rec.DisplayID != 1 {
		t.Fatalf("display id = %d, want primary 1", rec.DisplayID)
	}
}

func TestLoad_CorruptDocumentUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	provider := &fakeProvider{displays: testDisplays()}
	store := NewStore(path, config.Default(), provider, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	store.Load()

	rec, err := store.Get(KindMain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Width != 1024 {
		t.Fatalf("width = %d, want default 1024", rec.Width)
	}
}

func TestLoad_StaleDisplayIDScenario(t *testing.T) {
	// Persisted record points at display 7; only display 1 remains.
	path := filepath.Join(t.TempDir(), "window-state.json")
	doc := `{"main": {"width": 800, "height": 600, "x": 7000, "y": 100, "display_id": 7}}`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("write state: %v", err)
	}

	only := testDisplays()[:1]
	provider := &fakeProvider{displays: only}
	store := NewStore(path, config.Default(), provider, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	store.Load()

	rec, err := store.Get(KindMain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.DisplayID != 1 {
		t.Fatalf("display id = %d, want 1", rec.DisplayID)
	}
	wantX := only[0].WorkArea.X + (only[0].WorkArea.Width-800)/2
	wantY := only[0].WorkArea.Y + (only[0].WorkArea.Height-600)/2
	if rec.X != wantX || rec.Y != wantY {
		t.Fatalf("position = (%d, %d), want centered (%d, %d)", rec.X, rec.Y, wantX, wantY)
	}
}

func TestLoad_UnknownEntriesIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window-state.json")
	doc := `{"main": {"width": 900, "height": 700}, "legacy_popup": {"width": 10}}`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("write state: %v", err)
	}

	provider := &fakeProvider{displays: testDisplays()}
	store := NewStore(path, config.Default(), provider, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	store.Load()

	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("parse flushed document: %v", err)
	}
	if _, ok := out["legacy_popup"]; ok {
		t.Fatal("legacy entry should not be preserved on write")
	}
	if len(out) != len(Kinds()) {
		t.Fatalf("document has %d entries, want %d", len(out), len(Kinds()))
	}
}

func TestUpdate_DebounceCoalesces(t *testing.T) {
	sched := &fakeScheduler{}
	store, path := newTestStore(t, sched)

	for i := 0; i < 5; i++ {
		w := 800 + i
		if err := store.Update(KindMain, Patch{Width: &w}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	if sched.scheduled() != 5 {
		t.Fatalf("scheduled %d timers, want 5", sched.scheduled())
	}
	if sched.cancelled != 4 {
		t.Fatalf("cancelled %d timers, want 4", sched.cancelled)
	}
	if flushCount(t, path) != 0 {
		t.Fatal("no flush should happen before the quiet period elapses")
	}

	sched.fire()
	if flushCount(t, path) != 1 {
		t.Fatal("expected exactly one flush after quiet period")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var doc map[string]Record
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse state: %v", err)
	}
	if doc["main"].Width != 804 {
		t.Fatalf("flushed width = %d, want last update 804", doc["main"].Width)
	}
}

func TestUpdate_SpacedUpdatesFlushEach(t *testing.T) {
	sched := &fakeScheduler{}
	store, path := newTestStore(t, sched)

	for i := 0; i < 3; i++ {
		w := 900 + i
		if err := store.Update(KindMain, Patch{Width: &w}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		sched.fire()
		if flushCount(t, path) != 1 {
			t.Fatalf("update %d: expected a flush after each quiet period", i)
		}
	}
	if sched.cancelled != 0 {
		t.Fatalf("cancelled %d timers, want 0 for spaced updates", sched.cancelled)
	}
}

func TestFlush_CancelsPendingDebounce(t *testing.T) {
	sched := &fakeScheduler{}
	store, _ := newTestStore(t, sched)

	w := 777
	if err := store.Update(KindMain, Patch{Width: &w}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if sched.cancelled != 1 {
		t.Fatalf("cancelled %d timers, want 1", sched.cancelled)
	}
	// Firing the stale timer must be a no-op.
	sched.fire()
}

func TestFlush_AtomicLeavesNoTempFiles(t *testing.T) {
	store, path := newTestStore(t, nil)
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "window-state.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("unexpected directory contents: %v", names)
	}
}

func TestFlush_RoundTripThroughLoad(t *testing.T) {
	store, path := newTestStore(t, &fakeScheduler{})

	w, h, x, y := 800, 640, 2000, 200
	maximized := true
	id := platform.DisplayID(2)
	if err := store.Apply(KindMain, Patch{Width: &w, Height: &h, X: &x, Y: &y, Maximized: &maximized, DisplayID: &id}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded := NewStore(path, config.Default(), &fakeProvider{displays: testDisplays()}, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	reloaded.Load()

	rec, err := reloaded.Get(KindMain)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Width != 800 || rec.Height != 640 || rec.X != 2000 || rec.Y != 200 {
		t.Fatalf("reloaded geometry = %+v", rec.Bounds())
	}
	if !rec.Maximized {
		t.Fatal("maximized flag lost")
	}
	if rec.DisplayID != 2 {
		t.Fatalf("display id = %d, want 2", rec.DisplayID)
	}
}

func TestReset_RestoresDefaultsAndFlushes(t *testing.T) {
	store, path := newTestStore(t, &fakeScheduler{})

	w := 999
	if err := store.Apply(KindMain, Patch{Width: &w}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := store.Reset(KindMain); err != nil {
		t.Fatalf("reset: %v", err)
	}

	rec, _ := store.Get(KindMain)
	if rec.Width != 1024 {
		t.Fatalf("width = %d, want default 1024", rec.Width)
	}
	if flushCount(t, path) != 1 {
		t.Fatal("reset should flush immediately")
	}
}

func TestApply_LastSavedMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "window-state.json")
	store := NewStore(path, config.Default(), &fakeProvider{displays: testDisplays()},
		slog.New(slog.NewTextHandler(os.Stderr, nil)),
		WithClock(func() time.Time { return now }))
	store.Load()

	w := 800
	if err := store.Apply(KindMain, Patch{Width: &w}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	first, _ := store.Get(KindMain)

	// Clock goes backwards; LastSaved must not.
	now = now.Add(-time.Hour)
	if err := store.Apply(KindMain, Patch{Width: &w}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	second, _ := store.Get(KindMain)

	if second.LastSaved.Before(first.LastSaved) {
		t.Fatalf("LastSaved went backwards: %v -> %v", first.LastSaved, second.LastSaved)
	}
}

func TestGet_UnknownKind(t *testing.T) {
	store, _ := newTestStore(t, nil)
	if _, err := store.Get(Kind("popup")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if err := store.Update(Kind("popup"), Patch{}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestStats(t *testing.T) {
	store, _ := newTestStore(t, nil)
	st := store.Stats()
	if st.Records != len(Kinds()) {
		t.Fatalf("records = %d, want %d", st.Records, len(Kinds()))
	}
	if _, ok := st.LastSaved[KindMain]; !ok {
		t.Fatal("missing last-saved entry for main")
	}
}
