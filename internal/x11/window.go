package x11

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
)

// Handle drives one X11 window through EWMH client messages.
// Implements platform.WindowHandle.
type Handle struct {
	conn *Conn
	win  xproto.Window
}

// SetBounds moves and resizes the window. A maximized window is
// unmaximized first, otherwise most window managers ignore the request.
func (h *Handle) SetBounds(b geometry.Rect) error {
	h.unmaximize()

	if err := ewmh.MoveresizeWindow(h.conn.xu, h.win, b.X, b.Y, b.Width, b.Height); err != nil {
		// Fallback to direct window manipulation.
		xwindow.New(h.conn.xu, h.win).MoveResize(b.X, b.Y, b.Width, b.Height)
	}
	return nil
}

func (h *Handle) SetMaximized(maximized bool) error {
	action := ewmh.StateRemove
	if maximized {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReqExtra(h.conn.xu, h.win, action,
		"_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT", 1)
}

func (h *Handle) SetFullScreen(fullscreen bool) error {
	action := ewmh.StateRemove
	if fullscreen {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(h.conn.xu, h.win, action, "_NET_WM_STATE_FULLSCREEN")
}

func (h *Handle) SetAlwaysOnTop(onTop bool) error {
	action := ewmh.StateRemove
	if onTop {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(h.conn.xu, h.win, action, "_NET_WM_STATE_ABOVE")
}

func (h *Handle) Show() error {
	xwindow.New(h.conn.xu, h.win).Map()
	return nil
}

func (h *Handle) Minimize() error {
	return ewmh.ClientEvent(h.conn.xu, h.win, "WM_CHANGE_STATE", icccm.StateIconic)
}

func (h *Handle) unmaximize() {
	states, err := ewmh.WmStateGet(h.conn.xu, h.win)
	if err != nil {
		return
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReqExtra(h.conn.xu, h.win, ewmh.StateRemove,
				"_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT", 1)
			return
		}
	}
}

// Registry maps logical window names to live X11 windows. Windows are
// found by WM_CLASS instance (winkeep-main, winkeep-floating) or
// registered explicitly. Implements platform.WindowManager.
type Registry struct {
	conn *Conn

	mu      sync.Mutex
	windows map[string]xproto.Window
}

// NewRegistry creates an empty registry.
func NewRegistry(conn *Conn) *Registry {
	return &Registry{
		conn:    conn,
		windows: make(map[string]xproto.Window),
	}
}

// instancePrefix is matched against WM_CLASS instance names during
// discovery: a window with instance "winkeep-main" is the main window.
const instancePrefix = "winkeep-"

// Discover scans the client list for windows whose WM_CLASS instance
// carries the winkeep prefix and registers them. Returns how many
// windows are registered afterwards.
func (r *Registry) Discover() (int, error) {
	clients, err := ewmh.ClientListGet(r.conn.xu)
	if err != nil {
		return 0, fmt.Errorf("failed to list clients: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, windowID := range clients {
		hints, err := icccm.WmClassGet(r.conn.xu, windowID)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(hints.Instance, instancePrefix) {
			continue
		}
		kind := strings.TrimPrefix(hints.Instance, instancePrefix)
		r.windows[kind] = windowID
	}
	return len(r.windows), nil
}

// Register associates a logical window name with an X11 window.
func (r *Registry) Register(kind string, win xproto.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[kind] = win
}

// Unregister drops a window, e.g. after it is destroyed.
func (r *Registry) Unregister(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.windows, kind)
}

// LiveHandle returns a handle for the registered window of that kind.
func (r *Registry) LiveHandle(kind string) (platform.WindowHandle, bool) {
	r.mu.Lock()
	win, ok := r.windows[kind]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return &Handle{conn: r.conn, win: win}, true
}

// WatchGeometry subscribes fn to ConfigureNotify events for the kind's
// registered window, feeding the debounced persistence path.
func (r *Registry) WatchGeometry(kind string, fn func(geometry.Rect)) error {
	r.mu.Lock()
	win, ok := r.windows[kind]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("no live window for kind %q", kind)
	}

	if err := xwindow.New(r.conn.xu, win).Listen(xproto.EventMaskStructureNotify); err != nil {
		return fmt.Errorf("failed to listen for geometry events: %w", err)
	}

	r.conn.mu.Lock()
	r.conn.geomSubs[win] = fn
	r.conn.mu.Unlock()

	r.conn.startPump()
	return nil
}
