// Package windows is the operations surface of the daemon: it builds
// creation options for new windows, restores their persisted
// presentation state, and executes the explicit state commands (get,
// set, reset, snap, move-to-display) against both the store and the
// live windows.
package windows

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
	"github.com/winkeep/winkeep/internal/state"
)

// CreationOptions is everything the windowing host needs to create a
// window in its restored place. X/Y are nil when the position is not
// remembered, in which case the host centers the window itself.
type CreationOptions struct {
	Width  int
	Height int
	X      *int
	Y      *int

	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int

	// Show is false so the window can be positioned and have its
	// maximize/fullscreen state applied before first paint.
	Show        bool
	AlwaysOnTop bool
}

// Manager executes window state operations.
type Manager struct {
	store    *state.Store
	displays platform.DisplayProvider
	wm       platform.WindowManager
	logger   *slog.Logger

	cfgMu sync.RWMutex
	cfg   *config.Config
}

// NewManager creates a manager. wm may be nil when there are no live
// windows to drive (state-only mode).
func NewManager(store *state.Store, cfg *config.Config, displays platform.DisplayProvider, wm platform.WindowManager, logger *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		cfg:      cfg,
		displays: displays,
		wm:       wm,
		logger:   logger,
	}
}

// BuildCreationOptions assembles the window-creation parameters for a
// kind from its validated record and configured bounds.
func (m *Manager) BuildCreationOptions(kind state.Kind) (CreationOptions, error) {
	rec, err := m.store.Get(kind)
	if err != nil {
		return CreationOptions{}, err
	}
	wc, ok := m.windowConfig(kind.String())
	if !ok {
		return CreationOptions{}, fmt.Errorf("no configuration for window kind %q", kind)
	}

	opts := CreationOptions{
		Width:       rec.Width,
		Height:      rec.Height,
		MinWidth:    wc.MinWidth,
		MinHeight:   wc.MinHeight,
		MaxWidth:    wc.MaxWidth,
		MaxHeight:   wc.MaxHeight,
		AlwaysOnTop: rec.AlwaysOnTop,
	}
	if wc.GetRememberPosition() {
		x, y := rec.X, rec.Y
		opts.X, opts.Y = &x, &y
	}
	return opts, nil
}

// ApplyPostCreationState restores the presentation flags that cannot
// be part of the creation options: maximize, fullscreen, minimize and
// visibility. Called exactly once, after the window exists.
func (m *Manager) ApplyPostCreationState(kind state.Kind, handle platform.WindowHandle) error {
	rec, err := m.store.Get(kind)
	if err != nil {
		return err
	}

	if rec.Maximized {
		if err := handle.SetMaximized(true); err != nil {
			return fmt.Errorf("failed to restore maximized state: %w", err)
		}
	}
	if rec.FullScreen {
		if err := handle.SetFullScreen(true); err != nil {
			return fmt.Errorf("failed to restore fullscreen state: %w", err)
		}
	}
	if rec.AlwaysOnTop {
		if err := handle.SetAlwaysOnTop(true); err != nil {
			return fmt.Errorf("failed to restore always-on-top state: %w", err)
		}
	}
	switch {
	case rec.Minimized:
		return handle.Minimize()
	case rec.Visible:
		return handle.Show()
	}
	return nil
}

// GetState returns the validated record for a kind.
func (m *Manager) GetState(kind state.Kind) (state.Record, error) {
	return m.store.Get(kind)
}

// SetState merges patch into the kind's record, revalidates everything
// against the live topology, pushes the result to the live window and
// flushes.
func (m *Manager) SetState(kind state.Kind, patch state.Patch) (state.Record, error) {
	if patch.IsZero() {
		return m.store.Get(kind)
	}
	if err := m.store.Apply(kind, patch); err != nil {
		return state.Record{}, err
	}
	m.store.Revalidate()

	rec, err := m.store.Get(kind)
	if err != nil {
		return state.Record{}, err
	}
	m.pushToLiveWindow(kind, rec)
	return rec, m.store.Flush()
}

// ResetState restores the kind's defaults and pushes them to the live
// window. Reset flushes on its own.
func (m *Manager) ResetState(kind state.Kind) (state.Record, error) {
	if err := m.store.Reset(kind); err != nil {
		return state.Record{}, err
	}
	rec, err := m.store.Get(kind)
	if err != nil {
		return state.Record{}, err
	}
	m.pushToLiveWindow(kind, rec)
	return rec, nil
}

// MoveToDisplay centers the kind's window on the given display, keeping
// its current size. Unknown display ids are an error, not a fallback.
func (m *Manager) MoveToDisplay(kind state.Kind, id platform.DisplayID) (state.Record, error) {
	displays, err := m.displays.Displays()
	if err != nil {
		return state.Record{}, fmt.Errorf("failed to list displays: %w", err)
	}
	target, ok := state.DisplayByID(displays, id)
	if !ok {
		return state.Record{}, fmt.Errorf("no display with id %d", id)
	}

	rec, err := m.store.Get(kind)
	if err != nil {
		return state.Record{}, err
	}

	x, y := geometry.CenterIn(rec.Width, rec.Height, target.WorkArea)
	bounds := geometry.ClampToArea(
		geometry.Rect{X: x, Y: y, Width: rec.Width, Height: rec.Height},
		target.WorkArea, m.snapMargin())

	area := target.WorkArea
	err = m.store.Apply(kind, state.Patch{
		X: &bounds.X, Y: &bounds.Y,
		Width: &bounds.Width, Height: &bounds.Height,
		DisplayID: &target.ID, WorkArea: &area,
	})
	if err != nil {
		return state.Record{}, err
	}

	rec, err = m.store.Get(kind)
	if err != nil {
		return state.Record{}, err
	}
	m.pushBounds(kind, rec.Bounds())
	return rec, m.store.Flush()
}

// SnapToEdge resizes the kind's window to the half/quarter partition of
// its current display's work area. The maximize edge fills the work
// area and marks the record maximized.
func (m *Manager) SnapToEdge(kind state.Kind, edge geometry.Edge) (state.Record, error) {
	rec, err := m.store.Get(kind)
	if err != nil {
		return state.Record{}, err
	}

	area, err := m.workAreaFor(rec)
	if err != nil {
		return state.Record{}, err
	}
	target, err := geometry.Snap(area, edge)
	if err != nil {
		return state.Record{}, err
	}

	maximized := edge == geometry.EdgeMaximize
	err = m.store.Apply(kind, state.Patch{
		X: &target.X, Y: &target.Y,
		Width: &target.Width, Height: &target.Height,
		Maximized: &maximized,
	})
	if err != nil {
		return state.Record{}, err
	}

	rec, err = m.store.Get(kind)
	if err != nil {
		return state.Record{}, err
	}
	m.pushBounds(kind, rec.Bounds())
	return rec, m.store.Flush()
}

// ListDisplays returns the live topology.
func (m *Manager) ListDisplays() ([]platform.Display, error) {
	return m.displays.Displays()
}

// Stats summarizes the subsystem for diagnostics.
type Stats struct {
	State    state.Stats
	Displays int
}

func (m *Manager) Stats() Stats {
	st := Stats{State: m.store.Stats()}
	if displays, err := m.displays.Displays(); err == nil {
		st.Displays = len(displays)
	}
	return st
}

// HandleGeometryChange records a move/resize reported by the windowing
// host. Writes are debounced; this is the high-frequency path. Bounds
// reported while the window is maximized or fullscreen are ignored so
// the restore geometry survives.
func (m *Manager) HandleGeometryChange(kind state.Kind, bounds geometry.Rect) error {
	rec, err := m.store.Get(kind)
	if err != nil {
		return err
	}
	if rec.Maximized || rec.FullScreen {
		return nil
	}

	patch := state.Patch{
		X: &bounds.X, Y: &bounds.Y,
		Width: &bounds.Width, Height: &bounds.Height,
	}

	// Track which display the window lives on by its center point, so
	// topology reconciliation knows where it belongs.
	if displays, err := m.displays.Displays(); err == nil {
		if d, ok := displayForBounds(displays, bounds); ok {
			area := d.WorkArea
			patch.DisplayID = &d.ID
			patch.WorkArea = &area
		}
	}
	return m.store.Update(kind, patch)
}

// HandleFlagsChange records a presentation flag change (maximize,
// minimize, fullscreen, visibility) reported by the windowing host.
func (m *Manager) HandleFlagsChange(kind state.Kind, patch state.Patch) error {
	if patch.IsZero() {
		return nil
	}
	return m.store.Update(kind, patch)
}

// SetConfig swaps the active configuration after a reload.
func (m *Manager) SetConfig(cfg *config.Config) {
	m.cfgMu.Lock()
	defer m.cfgMu.Unlock()
	m.cfg = cfg
}

func (m *Manager) windowConfig(name string) (config.WindowConfig, bool) {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg.Window(name)
}

func (m *Manager) snapMargin() int {
	m.cfgMu.RLock()
	defer m.cfgMu.RUnlock()
	return m.cfg.SnapMargin
}

// workAreaFor resolves the record's display, falling back to the
// primary when the recorded display is gone.
func (m *Manager) workAreaFor(rec state.Record) (geometry.Rect, error) {
	displays, err := m.displays.Displays()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("failed to list displays: %w", err)
	}
	if d, ok := state.DisplayByID(displays, rec.DisplayID); ok {
		return d.WorkArea, nil
	}
	primary, err := m.displays.Primary()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("failed to resolve primary display: %w", err)
	}
	return primary.WorkArea, nil
}

func (m *Manager) pushToLiveWindow(kind state.Kind, rec state.Record) {
	if m.wm == nil {
		return
	}
	handle, ok := m.wm.LiveHandle(kind.String())
	if !ok {
		return
	}
	if err := handle.SetBounds(rec.Bounds()); err != nil {
		m.logger.Error("failed to apply bounds to live window", "window", kind, "error", err)
	}
	if err := handle.SetMaximized(rec.Maximized); err != nil {
		m.logger.Error("failed to apply maximized state", "window", kind, "error", err)
	}
	if err := handle.SetFullScreen(rec.FullScreen); err != nil {
		m.logger.Error("failed to apply fullscreen state", "window", kind, "error", err)
	}
	if err := handle.SetAlwaysOnTop(rec.AlwaysOnTop); err != nil {
		m.logger.Error("failed to apply always-on-top state", "window", kind, "error", err)
	}
}

func (m *Manager) pushBounds(kind state.Kind, bounds geometry.Rect) {
	if m.wm == nil {
		return
	}
	handle, ok := m.wm.LiveHandle(kind.String())
	if !ok {
		return
	}
	if err := handle.SetBounds(bounds); err != nil {
		m.logger.Error("failed to move live window", "window", kind, "error", err)
	}
}

// displayForBounds returns the display containing the rectangle's
// center point.
func displayForBounds(displays []platform.Display, bounds geometry.Rect) (platform.Display, bool) {
	cx := bounds.X + bounds.Width/2
	cy := bounds.Y + bounds.Height/2
	for _, d := range displays {
		b := d.Bounds
		if cx >= b.X && cx < b.X+b.Width && cy >= b.Y && cy < b.Y+b.Height {
			return d, true
		}
	}
	return platform.Display{}, false
}
