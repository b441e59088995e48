package state

import (
	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
)

// fallbackWorkArea stands in when no display can be queried at all, so
// default records still carry a sane on-screen position once a display
// reappears.
var fallbackWorkArea = geometry.Rect{X: 0, Y: 0, Width: 1280, Height: 1024}

// DefaultRecord builds the record used when a kind has no saved state:
// the configured default size centered on the primary display.
func DefaultRecord(kind Kind, wc config.WindowConfig, displays []platform.Display) Record {
	primary := primaryDisplay(displays)
	x, y := geometry.CenterIn(wc.DefaultWidth, wc.DefaultHeight, primary.WorkArea)

	rec := Record{
		Width:     wc.DefaultWidth,
		Height:    wc.DefaultHeight,
		X:         x,
		Y:         y,
		Visible:   true,
		DisplayID: primary.ID,
		WorkArea:  primary.WorkArea,
	}
	if kind.Floating() {
		rec.Visible = wc.GetStartVisible()
		rec.AlwaysOnTop = wc.AlwaysOnTop
	}
	return rec
}

// validateRecord reconciles a candidate against the kind's configured
// bounds and the live topology, producing a fully-populated record that
// satisfies every geometry invariant. It never fails: malformed input
// degrades to the nearest reasonable default.
func validateRecord(kind Kind, cand candidate, wc config.WindowConfig, displays []platform.Display) Record {
	rec := DefaultRecord(kind, wc, displays)

	if cand.Width != nil {
		rec.Width = clampSize(*cand.Width, wc.MinWidth, wc.MaxWidth)
	}
	if cand.Height != nil {
		rec.Height = clampSize(*cand.Height, wc.MinHeight, wc.MaxHeight)
	}

	// Saved positions are honored only when the kind remembers them
	// and the resulting rectangle is still visible somewhere. A stale
	// off-screen position is never kept.
	if wc.GetRememberPosition() && cand.X != nil && cand.Y != nil {
		r := geometry.Rect{X: *cand.X, Y: *cand.Y, Width: rec.Width, Height: rec.Height}
		if geometry.IntersectsAny(r, WorkAreas(displays)) {
			rec.X, rec.Y = *cand.X, *cand.Y
		} else {
			rec.X, rec.Y = geometry.CenterIn(rec.Width, rec.Height, primaryDisplay(displays).WorkArea)
		}
	}

	if cand.Maximized != nil {
		rec.Maximized = *cand.Maximized
	}
	if cand.Minimized != nil {
		rec.Minimized = *cand.Minimized
	}
	if cand.FullScreen != nil {
		rec.FullScreen = *cand.FullScreen
	}
	if kind.Floating() {
		if cand.Visible != nil {
			rec.Visible = *cand.Visible
		}
		if cand.AlwaysOnTop != nil {
			rec.AlwaysOnTop = *cand.AlwaysOnTop
		}
	}

	// A display id is kept only while that display is attached;
	// otherwise the default (primary + its work area) stands.
	if cand.DisplayID != nil {
		if d, ok := DisplayByID(displays, platform.DisplayID(*cand.DisplayID)); ok {
			rec.DisplayID = d.ID
			rec.WorkArea = d.WorkArea
		}
	}

	if cand.LastSaved != nil {
		rec.LastSaved = *cand.LastSaved
	}
	return rec
}

func clampSize(v, min, max int) int {
	if v < min {
		v = min
	}
	if max > 0 && v > max {
		v = max
	}
	return v
}

// WorkAreas extracts the usable rectangles of all displays.
func WorkAreas(displays []platform.Display) []geometry.Rect {
	areas := make([]geometry.Rect, len(displays))
	for i, d := range displays {
		areas[i] = d.WorkArea
	}
	return areas
}

// DisplayByID finds a display in the topology.
func DisplayByID(displays []platform.Display, id platform.DisplayID) (platform.Display, bool) {
	for _, d := range displays {
		if d.ID == id {
			return d, true
		}
	}
	return platform.Display{}, false
}

func primaryDisplay(displays []platform.Display) platform.Display {
	for _, d := range displays {
		if d.Primary {
			return d
		}
	}
	if len(displays) > 0 {
		return displays[0]
	}
	return platform.Display{WorkArea: fallbackWorkArea, Primary: true}
}
