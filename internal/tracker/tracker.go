// Package tracker reconciles persisted window state with the live
// display topology. It runs as a daemon service: on every topology
// notification (display added, removed, or metrics changed) it walks
// all window records, repairs any that reference detached displays or
// overflow shrunken work areas, moves the corresponding live windows,
// and flushes the repaired state.
package tracker

import (
	"context"
	"log/slog"

	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
	"github.com/winkeep/winkeep/internal/state"
)

// Tracker repairs window records after display topology changes.
type Tracker struct {
	store    *state.Store
	displays platform.DisplayProvider
	notifier platform.TopologyNotifier
	wm       platform.WindowManager
	logger   *slog.Logger
}

// New creates a tracker. wm may be nil when no live windows exist to
// move (state-only reconciliation, e.g. in the CLI).
func New(store *state.Store, displays platform.DisplayProvider, notifier platform.TopologyNotifier, wm platform.WindowManager, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:    store,
		displays: displays,
		notifier: notifier,
		wm:       wm,
		logger:   logger,
	}
}

// Reconcile walks every window record and repairs the ones invalidated
// by the current topology. It returns the number of windows that were
// moved or resized. Reconcile is idempotent: a second call against an
// unchanged topology corrects nothing.
func (t *Tracker) Reconcile() int {
	displays, err := t.displays.Displays()
	if err != nil {
		t.logger.Warn("cannot reconcile, display query failed", "error", err)
		return 0
	}
	if len(displays) == 0 {
		t.logger.Warn("cannot reconcile, no displays attached")
		return 0
	}

	corrected := 0
	dirty := false
	for _, kind := range state.Kinds() {
		rec, err := t.store.Get(kind)
		if err != nil {
			continue
		}

		moved, changed := t.reconcileRecord(kind, &rec, displays)
		if moved {
			corrected++
			t.moveLiveWindow(kind, rec.Bounds())
		}
		if changed {
			dirty = true
			if err := t.store.Replace(kind, rec); err != nil {
				t.logger.Error("failed to store reconciled record", "window", kind, "error", err)
			}
		}
	}

	if dirty {
		if err := t.store.Flush(); err != nil {
			t.logger.Error("failed to flush reconciled state", "error", err)
		}
	}
	return corrected
}

// reconcileRecord repairs rec in place. moved reports that the window
// geometry changed and the live window should follow; changed reports
// that the record differs from its stored form in any way.
func (t *Tracker) reconcileRecord(kind state.Kind, rec *state.Record, displays []platform.Display) (moved, changed bool) {
	d, attached := state.DisplayByID(displays, rec.DisplayID)

	if !attached {
		// The record's display is gone. Keep the window size and
		// recenter it on the primary display.
		primary := primaryOf(displays)
		x, y := geometry.CenterIn(rec.Width, rec.Height, primary.WorkArea)
		bounds := geometry.ClampToArea(geometry.Rect{X: x, Y: y, Width: rec.Width, Height: rec.Height}, primary.WorkArea, 0)

		t.logger.Info("display detached, moving window to primary",
			"window", kind, "old_display", rec.DisplayID, "new_display", primary.ID)

		rec.X, rec.Y = bounds.X, bounds.Y
		rec.Width, rec.Height = bounds.Width, bounds.Height
		rec.DisplayID = primary.ID
		rec.WorkArea = primary.WorkArea
		return true, true
	}

	bounds := rec.Bounds()
	if rec.WorkArea != d.WorkArea {
		// Same display, different work area: resolution change or a
		// panel appeared. Only move the window when it no longer fits.
		if !fits(bounds, d.WorkArea) {
			bounds = geometry.ClampToArea(bounds, d.WorkArea, 0)
			t.logger.Info("work area changed, clamping window",
				"window", kind, "display", d.ID, "work_area", d.WorkArea)
			rec.X, rec.Y = bounds.X, bounds.Y
			rec.Width, rec.Height = bounds.Width, bounds.Height
			rec.WorkArea = d.WorkArea
			return true, true
		}
		rec.WorkArea = d.WorkArea
		return false, true
	}

	// Topology unchanged for this display, but guard against records
	// that somehow ended up fully off-screen.
	if !geometry.IntersectsAny(bounds, state.WorkAreas(displays)) {
		bounds = geometry.ClampToArea(bounds, d.WorkArea, 0)
		rec.X, rec.Y = bounds.X, bounds.Y
		rec.Width, rec.Height = bounds.Width, bounds.Height
		return true, true
	}
	return false, false
}

func (t *Tracker) moveLiveWindow(kind state.Kind, bounds geometry.Rect) {
	if t.wm == nil {
		return
	}
	handle, ok := t.wm.LiveHandle(kind.String())
	if !ok {
		return
	}
	if err := handle.SetBounds(bounds); err != nil {
		t.logger.Error("failed to move live window", "window", kind, "error", err)
	}
}

// Serve subscribes to topology notifications and reconciles on each
// one, until ctx is cancelled. It satisfies suture.Service.
func (t *Tracker) Serve(ctx context.Context) error {
	// Catch up with whatever changed while we were not running.
	t.Reconcile()

	sub, err := t.notifier.Subscribe(func(ev platform.TopologyEvent) {
		t.logger.Info("display topology changed", "change", ev.Change)
		if n := t.Reconcile(); n > 0 {
			t.logger.Info("reconciled windows", "corrected", n)
		}
	})
	if err != nil {
		return err
	}
	defer sub.Close()

	<-ctx.Done()
	return ctx.Err()
}

func (t *Tracker) String() string {
	return "topology-tracker"
}

// fits reports whether r lies entirely within area.
func fits(r, area geometry.Rect) bool {
	return r.X >= area.X && r.Y >= area.Y &&
		r.X+r.Width <= area.X+area.Width &&
		r.Y+r.Height <= area.Y+area.Height
}

func primaryOf(displays []platform.Display) platform.Display {
	for _, d := range displays {
		if d.Primary {
			return d
		}
	}
	return displays[0]
}
