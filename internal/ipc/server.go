package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
	"github.com/winkeep/winkeep/internal/runtimepath"
	"github.com/winkeep/winkeep/internal/state"
	"github.com/winkeep/winkeep/internal/windows"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	manager      *windows.Manager
	store        *state.Store
	startTime    time.Time
	reloadChan   chan *config.Config
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. reloadChan receives the freshly
// loaded config after a RELOAD command, so the daemon can rewire
// dependents.
func NewServer(manager *windows.Manager, store *state.Store, reloadChan chan *config.Config) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		manager:    manager,
		store:      store,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// Serve runs the server until ctx is cancelled. It satisfies
// suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

func (s *Server) String() string {
	return "ipc-server"
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetState:
		return s.handleGetState(req.Payload)
	case CommandSetState:
		return s.handleSetState(req.Payload)
	case CommandResetState:
		return s.handleResetState(req.Payload)
	case CommandSnap:
		return s.handleSnap(req.Payload)
	case CommandMoveToDisplay:
		return s.handleMoveToDisplay(req.Payload)
	case CommandGetDisplays:
		return s.handleGetDisplays()
	case CommandGetStats:
		return s.handleGetStats()
	case CommandFlush:
		return s.handleFlush()
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetState(payload json.RawMessage) *Response {
	kind, resp := parseWindowPayload(payload)
	if resp != nil {
		return resp
	}

	rec, err := s.manager.GetState(kind)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return stateResponse(kind, rec)
}

func (s *Server) handleSetState(payload json.RawMessage) *Response {
	var p SetStatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid set-state payload: %v", err))
	}
	kind, err := state.ParseKind(p.Window)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	rec, err := s.manager.SetState(kind, p.State.toPatch())
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set state: %v", err))
	}
	return stateResponse(kind, rec)
}

func (s *Server) handleResetState(payload json.RawMessage) *Response {
	kind, resp := parseWindowPayload(payload)
	if resp != nil {
		return resp
	}

	rec, err := s.manager.ResetState(kind)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reset state: %v", err))
	}
	return stateResponse(kind, rec)
}

func (s *Server) handleSnap(payload json.RawMessage) *Response {
	var p SnapPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid snap payload: %v", err))
	}
	kind, err := state.ParseKind(p.Window)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	edge, err := geometry.ParseEdge(p.Edge)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	rec, err := s.manager.SnapToEdge(kind, edge)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to snap: %v", err))
	}
	return stateResponse(kind, rec)
}

func (s *Server) handleMoveToDisplay(payload json.RawMessage) *Response {
	var p MoveToDisplayPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	kind, err := state.ParseKind(p.Window)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	rec, err := s.manager.MoveToDisplay(kind, platform.DisplayID(p.DisplayID))
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to move window: %v", err))
	}
	return stateResponse(kind, rec)
}

func (s *Server) handleGetDisplays() *Response {
	displays, err := s.manager.ListDisplays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get displays: %v", err))
	}

	infos := make([]DisplayInfo, len(displays))
	for i, d := range displays {
		infos[i] = DisplayInfo{
			ID:      int(d.ID),
			Name:    d.Name,
			X:       d.Bounds.X,
			Y:       d.Bounds.Y,
			Width:   d.Bounds.Width,
			Height:  d.Bounds.Height,
			WorkX:   d.WorkArea.X,
			WorkY:   d.WorkArea.Y,
			WorkW:   d.WorkArea.Width,
			WorkH:   d.WorkArea.Height,
			Primary: d.Primary,
		}
	}

	resp, _ := NewOKResponse(DisplaysData{Displays: infos})
	return resp
}

func (s *Server) handleGetStats() *Response {
	stats := s.manager.Stats()

	lastSaved := make(map[string]time.Time, len(stats.State.LastSaved))
	for kind, ts := range stats.State.LastSaved {
		lastSaved[kind.String()] = ts
	}

	data := StatsData{
		Records:       stats.State.Records,
		Displays:      stats.Displays,
		LastSaved:     lastSaved,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleFlush() *Response {
	if err := s.store.Flush(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to flush state: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// handleReload reloads the configuration, revalidates all records
// against it and hands the new config to the daemon.
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.store.SetConfig(newCfg)
	s.store.Revalidate()

	// Notify the daemon (non-blocking).
	select {
	case s.reloadChan <- newCfg:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

func parseWindowPayload(payload json.RawMessage) (state.Kind, *Response) {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	kind, err := state.ParseKind(p.Window)
	if err != nil {
		return "", NewErrorResponse(err.Error())
	}
	return kind, nil
}

func stateResponse(kind state.Kind, rec state.Record) *Response {
	resp, err := NewOKResponse(recordToWire(kind, rec))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func recordToWire(kind state.Kind, rec state.Record) WindowStateData {
	return WindowStateData{
		Window:      kind.String(),
		Width:       rec.Width,
		Height:      rec.Height,
		X:           rec.X,
		Y:           rec.Y,
		Maximized:   rec.Maximized,
		Minimized:   rec.Minimized,
		FullScreen:  rec.FullScreen,
		Visible:     rec.Visible,
		AlwaysOnTop: rec.AlwaysOnTop,
		DisplayID:   int(rec.DisplayID),
		LastSaved:   rec.LastSaved,
	}
}

// toPatch converts the wire patch to the store's patch type.
func (p StatePatch) toPatch() state.Patch {
	return state.Patch{
		Width:       p.Width,
		Height:      p.Height,
		X:           p.X,
		Y:           p.Y,
		Maximized:   p.Maximized,
		Minimized:   p.Minimized,
		FullScreen:  p.FullScreen,
		Visible:     p.Visible,
		AlwaysOnTop: p.AlwaysOnTop,
	}
}
