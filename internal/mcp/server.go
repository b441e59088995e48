// Package mcp exposes the window state subsystem as MCP tools over
// stdio. The server is a thin bridge: every tool call is forwarded to
// the running daemon through the IPC socket.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/winkeep/winkeep/internal/ipc"
)

const (
	ServerName    = "winkeep"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for window state control.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
}

// NewServer creates a new MCP server talking to the daemon socket.
func NewServer() *Server {
	s := &Server{
		client: ipc.NewClient(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window_state",
		Description: "Get the persisted state of a logical window (geometry, display, maximize/fullscreen flags). Windows are named 'main' or 'floating'.",
	}, s.handleGetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_window_state",
		Description: "Merge a partial update into a window's state. Only the provided fields change; the result is validated against configured size bounds and the live display topology, and the live window follows.",
	}, s.handleSetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reset_window_state",
		Description: "Reset a window to its configured defaults: default size, centered on the primary display.",
	}, s.handleResetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snap_window",
		Description: "Snap a window to an edge of its display's work area. Edges: left, right, top, bottom, top-left, top-right, bottom-left, bottom-right, maximize.",
	}, s.handleSnapWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window_to_display",
		Description: "Center a window on a specific display, keeping its size. Display ids come from list_displays.",
	}, s.handleMoveWindowToDisplay)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List all attached displays with their bounds, usable work areas and which one is primary.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_stats",
		Description: "Get daemon statistics: tracked window records, attached display count, last-saved timestamps and uptime.",
	}, s.handleGetStats)
}
