package geometry

import "fmt"

// Rect represents a window position and size in virtual-desktop
// coordinates. X and Y may be negative on multi-display setups.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersects reports whether r overlaps other using open-interval
// comparison: touching edges do not count as overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.Width && r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height && r.Y+r.Height > other.Y
}

// IntersectsAny reports whether r overlaps at least one of the given
// areas. An empty area list always yields false.
func IntersectsAny(r Rect, areas []Rect) bool {
	for _, area := range areas {
		if r.Intersects(area) {
			return true
		}
	}
	return false
}

// CenterIn returns the top-left position that centers a width×height
// rectangle within area. Integer division truncates toward zero, so a
// window larger than the area ends up slightly up-left of center rather
// than drifting per call.
func CenterIn(width, height int, area Rect) (x, y int) {
	x = area.X + (area.Width-width)/2
	y = area.Y + (area.Height-height)/2
	return x, y
}

// ClampToArea fits r inside area. If r exceeds the area in either
// dimension it is shrunk to the area size minus margin; the rectangle
// is then translated so all edges lie within the area.
func ClampToArea(r Rect, area Rect, margin int) Rect {
	out := r

	if out.Width > area.Width {
		out.Width = area.Width - margin
	}
	if out.Height > area.Height {
		out.Height = area.Height - margin
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}

	if out.X+out.Width > area.X+area.Width {
		out.X = area.X + area.Width - out.Width
	}
	if out.Y+out.Height > area.Y+area.Height {
		out.Y = area.Y + area.Height - out.Height
	}
	if out.X < area.X {
		out.X = area.X
	}
	if out.Y < area.Y {
		out.Y = area.Y
	}

	return out
}

// Edge names a snap target on a display's work area.
type Edge string

const (
	EdgeLeft        Edge = "left"
	EdgeRight       Edge = "right"
	EdgeTop         Edge = "top"
	EdgeBottom      Edge = "bottom"
	EdgeTopLeft     Edge = "top-left"
	EdgeTopRight    Edge = "top-right"
	EdgeBottomLeft  Edge = "bottom-left"
	EdgeBottomRight Edge = "bottom-right"
	EdgeMaximize    Edge = "maximize"
)

// ParseEdge converts a string to an Edge, rejecting unknown values.
func ParseEdge(s string) (Edge, error) {
	switch Edge(s) {
	case EdgeLeft, EdgeRight, EdgeTop, EdgeBottom,
		EdgeTopLeft, EdgeTopRight, EdgeBottomLeft, EdgeBottomRight,
		EdgeMaximize:
		return Edge(s), nil
	}
	return "", fmt.Errorf("unknown snap edge: %q", s)
}

// Snap returns the deterministic half/quarter/full partition of area
// for the given edge. Unknown edges return an error rather than being
// silently ignored.
func Snap(area Rect, edge Edge) (Rect, error) {
	halfW := area.Width / 2
	halfH := area.Height / 2

	switch edge {
	case EdgeLeft:
		return Rect{X: area.X, Y: area.Y, Width: halfW, Height: area.Height}, nil
	case EdgeRight:
		return Rect{X: area.X + halfW, Y: area.Y, Width: area.Width - halfW, Height: area.Height}, nil
	case EdgeTop:
		return Rect{X: area.X, Y: area.Y, Width: area.Width, Height: halfH}, nil
	case EdgeBottom:
		return Rect{X: area.X, Y: area.Y + halfH, Width: area.Width, Height: area.Height - halfH}, nil
	case EdgeTopLeft:
		return Rect{X: area.X, Y: area.Y, Width: halfW, Height: halfH}, nil
	case EdgeTopRight:
		return Rect{X: area.X + halfW, Y: area.Y, Width: area.Width - halfW, Height: halfH}, nil
	case EdgeBottomLeft:
		return Rect{X: area.X, Y: area.Y + halfH, Width: halfW, Height: area.Height - halfH}, nil
	case EdgeBottomRight:
		return Rect{X: area.X + halfW, Y: area.Y + halfH, Width: area.Width - halfW, Height: area.Height - halfH}, nil
	case EdgeMaximize:
		return area, nil
	default:
		return Rect{}, fmt.Errorf("unknown snap edge: %q", edge)
	}
}
