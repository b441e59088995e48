package platform

import "github.com/winkeep/winkeep/internal/geometry"

// DisplayID identifies a physical display within the current topology.
// IDs are stable for the lifetime of a topology but may be reused after
// a display is detached.
type DisplayID int

// Display describes a physical display and its usable work area
// (bounds minus panels, docks and other OS-reserved regions).
type Display struct {
	ID          DisplayID
	Name        string
	Bounds      geometry.Rect
	WorkArea    geometry.Rect
	ScaleFactor float64
	Primary     bool
}

// DisplayProvider reads the live display topology from the host.
type DisplayProvider interface {
	Displays() ([]Display, error)
	Primary() (Display, error)
}

// TopologyChange classifies a display topology notification.
type TopologyChange string

const (
	DisplayAdded          TopologyChange = "added"
	DisplayRemoved        TopologyChange = "removed"
	DisplayMetricsChanged TopologyChange = "metrics-changed"
)

// TopologyEvent is delivered for every display topology change.
type TopologyEvent struct {
	Change TopologyChange
}

// Subscription is a disposable registration handle for topology events.
type Subscription interface {
	Close()
}

// TopologyNotifier delivers display-added, display-removed and
// display-metrics-changed notifications to registered listeners.
type TopologyNotifier interface {
	Subscribe(fn func(TopologyEvent)) (Subscription, error)
}

// WindowHandle is a live window owned by the window-manager
// collaborator. All operations are best-effort requests to the host.
type WindowHandle interface {
	SetBounds(bounds geometry.Rect) error
	SetMaximized(maximized bool) error
	SetFullScreen(fullscreen bool) error
	SetAlwaysOnTop(onTop bool) error
	Show() error
	Minimize() error
}

// WindowManager exposes live window handles by logical window name.
// A window that has not been created yet (or was closed) has no handle.
type WindowManager interface {
	LiveHandle(kind string) (WindowHandle, bool)
}
