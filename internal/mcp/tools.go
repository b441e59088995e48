package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/winkeep/winkeep/internal/ipc"
)

func (s *Server) handleGetWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args GetWindowStateInput) (*mcpsdk.CallToolResult, WindowStateOutput, error) {
	st, err := s.client.GetState(args.Window)
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleSetWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args SetWindowStateInput) (*mcpsdk.CallToolResult, WindowStateOutput, error) {
	patch := ipc.StatePatch{
		Width:       args.Width,
		Height:      args.Height,
		X:           args.X,
		Y:           args.Y,
		Maximized:   args.Maximized,
		Minimized:   args.Minimized,
		FullScreen:  args.FullScreen,
		Visible:     args.Visible,
		AlwaysOnTop: args.AlwaysOnTop,
	}

	st, err := s.client.SetState(args.Window, patch)
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleResetWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args ResetWindowStateInput) (*mcpsdk.CallToolResult, WindowStateOutput, error) {
	st, err := s.client.ResetState(args.Window)
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleSnapWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapWindowInput) (*mcpsdk.CallToolResult, WindowStateOutput, error) {
	st, err := s.client.Snap(args.Window, args.Edge)
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleMoveWindowToDisplay(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowToDisplayInput) (*mcpsdk.CallToolResult, WindowStateOutput, error) {
	st, err := s.client.MoveToDisplay(args.Window, args.DisplayID)
	if err != nil {
		return nil, WindowStateOutput{}, err
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	data, err := s.client.GetDisplays()
	if err != nil {
		return nil, ListDisplaysOutput{}, err
	}

	out := ListDisplaysOutput{Displays: make([]DisplayInfo, len(data.Displays))}
	for i, d := range data.Displays {
		out.Displays[i] = DisplayInfo{
			ID:         d.ID,
			Name:       d.Name,
			X:          d.X,
			Y:          d.Y,
			Width:      d.Width,
			Height:     d.Height,
			WorkX:      d.WorkX,
			WorkY:      d.WorkY,
			WorkWidth:  d.WorkW,
			WorkHeight: d.WorkH,
			Primary:    d.Primary,
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatsInput) (*mcpsdk.CallToolResult, GetStatsOutput, error) {
	stats, err := s.client.GetStats()
	if err != nil {
		return nil, GetStatsOutput{}, err
	}
	return nil, GetStatsOutput{
		Records:       stats.Records,
		Displays:      stats.Displays,
		LastSaved:     stats.LastSaved,
		UptimeSeconds: stats.UptimeSeconds,
		DaemonRunning: stats.DaemonRunning,
	}, nil
}

func stateOutput(st *ipc.WindowStateData) WindowStateOutput {
	return WindowStateOutput{
		Window:      st.Window,
		Width:       st.Width,
		Height:      st.Height,
		X:           st.X,
		Y:           st.Y,
		Maximized:   st.Maximized,
		Minimized:   st.Minimized,
		FullScreen:  st.FullScreen,
		Visible:     st.Visible,
		AlwaysOnTop: st.AlwaysOnTop,
		DisplayID:   st.DisplayID,
		LastSaved:   st.LastSaved,
	}
}
