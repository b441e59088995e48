package mcp

import "time"

// GetWindowStateInput is the input for the get_window_state tool.
type GetWindowStateInput struct {
	Window string `json:"window" jsonschema:"required,Logical window name: main or floating"`
}

// WindowStateOutput is the output of every tool that returns a window
// state record.
type WindowStateOutput struct {
	Window      string    `json:"window"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Maximized   bool      `json:"maximized"`
	Minimized   bool      `json:"minimized"`
	FullScreen  bool      `json:"fullscreen"`
	Visible     bool      `json:"visible"`
	AlwaysOnTop bool      `json:"always_on_top"`
	DisplayID   int       `json:"display_id"`
	LastSaved   time.Time `json:"last_saved"`
}

// SetWindowStateInput is the input for the set_window_state tool.
// Omitted fields are left unchanged.
type SetWindowStateInput struct {
	Window      string `json:"window" jsonschema:"required,Logical window name: main or floating"`
	Width       *int   `json:"width,omitempty" jsonschema:"New width in pixels"`
	Height      *int   `json:"height,omitempty" jsonschema:"New height in pixels"`
	X           *int   `json:"x,omitempty" jsonschema:"New x position in virtual-desktop coordinates"`
	Y           *int   `json:"y,omitempty" jsonschema:"New y position in virtual-desktop coordinates"`
	Maximized   *bool  `json:"maximized,omitempty" jsonschema:"Maximize or unmaximize the window"`
	Minimized   *bool  `json:"minimized,omitempty" jsonschema:"Minimize or restore the window"`
	FullScreen  *bool  `json:"fullscreen,omitempty" jsonschema:"Enter or leave fullscreen"`
	Visible     *bool  `json:"visible,omitempty" jsonschema:"Show or hide the window (floating windows)"`
	AlwaysOnTop *bool  `json:"always_on_top,omitempty" jsonschema:"Keep the window above others (floating windows)"`
}

// ResetWindowStateInput is the input for the reset_window_state tool.
type ResetWindowStateInput struct {
	Window string `json:"window" jsonschema:"required,Logical window name: main or floating"`
}

// SnapWindowInput is the input for the snap_window tool.
type SnapWindowInput struct {
	Window string `json:"window" jsonschema:"required,Logical window name: main or floating"`
	Edge   string `json:"edge" jsonschema:"required,Snap target: left, right, top, bottom, top-left, top-right, bottom-left, bottom-right, maximize"`
}

// MoveWindowToDisplayInput is the input for move_window_to_display.
type MoveWindowToDisplayInput struct {
	Window    string `json:"window" jsonschema:"required,Logical window name: main or floating"`
	DisplayID int    `json:"display_id" jsonschema:"required,Target display id from list_displays"`
}

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// DisplayInfo describes one attached display.
type DisplayInfo struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	WorkX      int    `json:"work_x"`
	WorkY      int    `json:"work_y"`
	WorkWidth  int    `json:"work_width"`
	WorkHeight int    `json:"work_height"`
	Primary    bool   `json:"primary"`
}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []DisplayInfo `json:"displays"`
}

// GetStatsInput is the input for the get_stats tool.
type GetStatsInput struct{}

// GetStatsOutput is the output for the get_stats tool.
type GetStatsOutput struct {
	Records       int                  `json:"records"`
	Displays      int                  `json:"displays"`
	LastSaved     map[string]time.Time `json:"last_saved"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	DaemonRunning bool                 `json:"daemon_running"`
}
