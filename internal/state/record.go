package state

import (
	"encoding/json"
	"time"

	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
)

// Record is the persisted geometry and presentation state of one
// logical window. The maximize/minimize/fullscreen flags are advisory;
// the windowing host resolves conflicts between them.
type Record struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// X/Y are the top-left position in virtual-desktop coordinates and
	// may be negative on multi-display setups.
	X int `json:"x"`
	Y int `json:"y"`

	Maximized  bool `json:"maximized"`
	Minimized  bool `json:"minimized"`
	FullScreen bool `json:"fullscreen"`

	// Visible and AlwaysOnTop are meaningful for floating windows only.
	Visible     bool `json:"visible"`
	AlwaysOnTop bool `json:"always_on_top"`

	// DisplayID names the display this window was last associated
	// with; after validation it always refers to an attached display.
	DisplayID platform.DisplayID `json:"display_id"`
	// WorkArea caches that display's usable bounds at last save so
	// revalidation can detect shrinkage without re-querying the host.
	WorkArea geometry.Rect `json:"work_area"`

	// LastSaved is monotonically non-decreasing per record. Diagnostics
	// only; never used for conflict resolution.
	LastSaved time.Time `json:"last_saved"`
}

// Bounds returns the record's rectangle.
func (r Record) Bounds() geometry.Rect {
	return geometry.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Patch is a partial record update. Nil fields are left unchanged.
type Patch struct {
	Width       *int
	Height      *int
	X           *int
	Y           *int
	Maximized   *bool
	Minimized   *bool
	FullScreen  *bool
	Visible     *bool
	AlwaysOnTop *bool
	DisplayID   *platform.DisplayID
	WorkArea    *geometry.Rect
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p == Patch{}
}

// candidate is a partially-populated record decoded from a persisted
// document. Every field is optional; fields with the wrong JSON type
// are treated as absent rather than failing the whole record.
type candidate struct {
	Width       *int
	Height      *int
	X           *int
	Y           *int
	Maximized   *bool
	Minimized   *bool
	FullScreen  *bool
	Visible     *bool
	AlwaysOnTop *bool
	DisplayID   *int
	LastSaved   *time.Time
}

// decodeCandidate tolerantly decodes one record entry. A non-object
// entry yields an empty candidate (everything defaults).
func decodeCandidate(raw json.RawMessage) candidate {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return candidate{}
	}

	var c candidate
	c.Width = intField(fields, "width")
	c.Height = intField(fields, "height")
	c.X = intField(fields, "x")
	c.Y = intField(fields, "y")
	c.Maximized = boolField(fields, "maximized")
	c.Minimized = boolField(fields, "minimized")
	c.FullScreen = boolField(fields, "fullscreen")
	c.Visible = boolField(fields, "visible")
	c.AlwaysOnTop = boolField(fields, "always_on_top")
	c.DisplayID = intField(fields, "display_id")
	c.LastSaved = timeField(fields, "last_saved")
	return c
}

func intField(fields map[string]json.RawMessage, key string) *int {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func boolField(fields map[string]json.RawMessage, key string) *bool {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func timeField(fields map[string]json.RawMessage, key string) *time.Time {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v time.Time
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}
