package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
)

// Displays queries RandR for all active CRTCs and computes each one's
// work area from dock struts. Implements platform.DisplayProvider.
func (c *Conn) Displays() ([]platform.Display, error) {
	resources, err := randr.GetScreenResources(c.xu.Conn(), c.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if reply, err := randr.GetOutputPrimary(c.xu.Conn(), c.root).Reply(); err == nil {
		primaryOutput = reply.Output
	}

	var displays []platform.Display
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs.
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Display%d", i)
		primary := false
		for _, output := range crtcInfo.Outputs {
			if output == primaryOutput && primaryOutput != 0 {
				primary = true
			}
		}
		if outputInfo, err := randr.GetOutputInfo(c.xu.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outputInfo.Name)
		}

		bounds := geometry.Rect{
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		displays = append(displays, platform.Display{
			ID:          platform.DisplayID(i),
			Name:        name,
			Bounds:      bounds,
			WorkArea:    c.workAreaFor(bounds),
			ScaleFactor: 1.0,
			Primary:     primary,
		})
	}

	// No primary output configured: treat the first display as primary.
	if len(displays) > 0 {
		hasPrimary := false
		for _, d := range displays {
			if d.Primary {
				hasPrimary = true
				break
			}
		}
		if !hasPrimary {
			displays[0].Primary = true
		}
	}

	return displays, nil
}

// Primary returns the primary display.
func (c *Conn) Primary() (platform.Display, error) {
	displays, err := c.Displays()
	if err != nil {
		return platform.Display{}, err
	}
	for _, d := range displays {
		if d.Primary {
			return d, nil
		}
	}
	return platform.Display{}, fmt.Errorf("no displays found")
}

// workAreaFor subtracts dock struts from a display's bounds. When no
// dock publishes struts it falls back to intersecting the EWMH work
// area of the current desktop.
func (c *Conn) workAreaFor(bounds geometry.Rect) geometry.Rect {
	if area, ok := c.strutWorkArea(bounds); ok {
		return area
	}
	return c.ewmhWorkArea(bounds)
}

func (c *Conn) strutWorkArea(bounds geometry.Rect) (geometry.Rect, bool) {
	rootGeom, err := xproto.GetGeometry(c.xu.Conn(), xproto.Drawable(c.root)).Reply()
	if err != nil {
		return geometry.Rect{}, false
	}
	rootWidth := int(rootGeom.Width)
	rootHeight := int(rootGeom.Height)

	clients, err := ewmh.ClientListGet(c.xu)
	if err != nil {
		return geometry.Rect{}, false
	}

	var left, right, top, bottom int
	for _, windowID := range clients {
		if !isDock(c, windowID) {
			continue
		}

		sp, err := ewmh.WmStrutPartialGet(c.xu, windowID)
		if err != nil {
			// Some docks only set _NET_WM_STRUT (no partial ranges).
			s, err := ewmh.WmStrutGet(c.xu, windowID)
			if err != nil {
				continue
			}
			sp = &ewmh.WmStrutPartial{
				Left:         s.Left,
				Right:        s.Right,
				Top:          s.Top,
				Bottom:       s.Bottom,
				LeftStartY:   0,
				LeftEndY:     uint(rootHeight - 1),
				RightStartY:  0,
				RightEndY:    uint(rootHeight - 1),
				TopStartX:    0,
				TopEndX:      uint(rootWidth - 1),
				BottomStartX: 0,
				BottomEndX:   uint(rootWidth - 1),
			}
		}

		// Struts are expressed in root coordinates; only the part that
		// overlaps this display narrows its work area.
		if sp.Top > 0 {
			strut := geometry.Rect{X: int(sp.TopStartX), Y: 0, Width: int(sp.TopEndX) - int(sp.TopStartX) + 1, Height: int(sp.Top)}
			if h := overlap(bounds, strut).Height; h > top {
				top = h
			}
		}
		if sp.Bottom > 0 {
			strut := geometry.Rect{X: int(sp.BottomStartX), Y: rootHeight - int(sp.Bottom), Width: int(sp.BottomEndX) - int(sp.BottomStartX) + 1, Height: int(sp.Bottom)}
			if h := overlap(bounds, strut).Height; h > bottom {
				bottom = h
			}
		}
		if sp.Left > 0 {
			strut := geometry.Rect{X: 0, Y: int(sp.LeftStartY), Width: int(sp.Left), Height: int(sp.LeftEndY) - int(sp.LeftStartY) + 1}
			if w := overlap(bounds, strut).Width; w > left {
				left = w
			}
		}
		if sp.Right > 0 {
			strut := geometry.Rect{X: rootWidth - int(sp.Right), Y: int(sp.RightStartY), Width: int(sp.Right), Height: int(sp.RightEndY) - int(sp.RightStartY) + 1}
			if w := overlap(bounds, strut).Width; w > right {
				right = w
			}
		}
	}

	if left == 0 && right == 0 && top == 0 && bottom == 0 {
		return geometry.Rect{}, false
	}

	area := geometry.Rect{
		X:      bounds.X + left,
		Y:      bounds.Y + top,
		Width:  bounds.Width - left - right,
		Height: bounds.Height - top - bottom,
	}
	if area.Width < 1 {
		area.Width = 1
	}
	if area.Height < 1 {
		area.Height = 1
	}
	return area, true
}

func (c *Conn) ewmhWorkArea(bounds geometry.Rect) geometry.Rect {
	workArea, err := ewmh.WorkareaGet(c.xu)
	if err != nil || len(workArea) == 0 {
		return bounds
	}

	desktopIndex := 0
	if currentDesktop, err := ewmh.CurrentDesktopGet(c.xu); err == nil {
		if int(currentDesktop) >= 0 && int(currentDesktop) < len(workArea) {
			desktopIndex = int(currentDesktop)
		}
	}
	wa := workArea[desktopIndex]

	isect := overlap(bounds, geometry.Rect{
		X:      int(wa.X),
		Y:      int(wa.Y),
		Width:  int(wa.Width),
		Height: int(wa.Height),
	})
	if isect.Empty() {
		return bounds
	}
	return isect
}

func isDock(c *Conn, windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.xu, windowID)
	if err != nil {
		return false
	}
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DOCK" {
			return true
		}
	}
	return false
}

// overlap returns the intersection rectangle of a and b, empty when
// they do not intersect.
func overlap(a, b geometry.Rect) geometry.Rect {
	x1 := maxInt(a.X, b.X)
	y1 := maxInt(a.Y, b.Y)
	x2 := minInt(a.X+a.Width, b.X+b.Width)
	y2 := minInt(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return geometry.Rect{}
	}
	return geometry.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
