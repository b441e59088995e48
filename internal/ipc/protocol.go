package ipc

import (
	"encoding/json"
	"fmt"
	"time"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetState      CommandType = "GET_STATE"
	CommandSetState      CommandType = "SET_STATE"
	CommandResetState    CommandType = "RESET_STATE"
	CommandSnap          CommandType = "SNAP"
	CommandMoveToDisplay CommandType = "MOVE_TO_DISPLAY"
	CommandGetDisplays   CommandType = "GET_DISPLAYS"
	CommandGetStats      CommandType = "GET_STATS"
	CommandFlush         CommandType = "FLUSH"
	CommandReload        CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// WindowPayload addresses a command at one logical window.
type WindowPayload struct {
	Window string `json:"window"`
}

// StatePatch is the wire form of a partial state update. Absent fields
// are left unchanged.
type StatePatch struct {
	Width       *int  `json:"width,omitempty"`
	Height      *int  `json:"height,omitempty"`
	X           *int  `json:"x,omitempty"`
	Y           *int  `json:"y,omitempty"`
	Maximized   *bool `json:"maximized,omitempty"`
	Minimized   *bool `json:"minimized,omitempty"`
	FullScreen  *bool `json:"fullscreen,omitempty"`
	Visible     *bool `json:"visible,omitempty"`
	AlwaysOnTop *bool `json:"always_on_top,omitempty"`
}

// SetStatePayload carries a partial update for one window.
type SetStatePayload struct {
	Window string     `json:"window"`
	State  StatePatch `json:"state"`
}

// SnapPayload carries a snap request.
type SnapPayload struct {
	Window string `json:"window"`
	Edge   string `json:"edge"`
}

// MoveToDisplayPayload carries a move request.
type MoveToDisplayPayload struct {
	Window    string `json:"window"`
	DisplayID int    `json:"display_id"`
}

// WindowStateData is the wire form of one window's state record.
type WindowStateData struct {
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

// DisplayInfo describes one display.
type DisplayInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	WorkX    int    `json:"work_x"`
	WorkY    int    `json:"work_y"`
	WorkW    int    `json:"work_width"`
	WorkH    int    `json:"work_height"`
	Primary  bool   `json:"primary"`
}

// DisplaysData is the data returned by GET_DISPLAYS.
type DisplaysData struct {
	Displays []DisplayInfo `json:"displays"`
}

// StatsData is the data returned by GET_STATS.
type StatsData struct {
	Records       int                  `json:"records"`
	Displays      int                  `json:"displays"`
	LastSaved     map[string]time.Time `json:"last_saved"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	DaemonRunning bool                 `json:"daemon_running"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
