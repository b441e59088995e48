package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/winkeep/winkeep/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) requestState(command CommandType, payload interface{}) (*WindowStateData, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: command, Payload: data})
	if err != nil {
		return nil, err
	}

	var st WindowStateData
	if err := json.Unmarshal(resp.Data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state data: %w", err)
	}
	return &st, nil
}

// GetState retrieves the state record for a window.
func (c *Client) GetState(window string) (*WindowStateData, error) {
	return c.requestState(CommandGetState, WindowPayload{Window: window})
}

// SetState merges a partial update into a window's record.
func (c *Client) SetState(window string, patch StatePatch) (*WindowStateData, error) {
	return c.requestState(CommandSetState, SetStatePayload{Window: window, State: patch})
}

// ResetState restores a window's defaults.
func (c *Client) ResetState(window string) (*WindowStateData, error) {
	return c.requestState(CommandResetState, WindowPayload{Window: window})
}

// Snap resizes a window to a half/quarter/full partition of its
// display's work area.
func (c *Client) Snap(window, edge string) (*WindowStateData, error) {
	return c.requestState(CommandSnap, SnapPayload{Window: window, Edge: edge})
}

// MoveToDisplay centers a window on the given display.
func (c *Client) MoveToDisplay(window string, displayID int) (*WindowStateData, error) {
	return c.requestState(CommandMoveToDisplay, MoveToDisplayPayload{Window: window, DisplayID: displayID})
}

// GetDisplays retrieves the live display topology.
func (c *Client) GetDisplays() (*DisplaysData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetDisplays})
	if err != nil {
		return nil, err
	}

	var data DisplaysData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse displays data: %w", err)
	}
	return &data, nil
}

// GetStats retrieves daemon statistics.
func (c *Client) GetStats() (*StatsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStats})
	if err != nil {
		return nil, err
	}

	var data StatsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse stats data: %w", err)
	}
	return &data, nil
}

// Flush forces an immediate state write.
func (c *Client) Flush() error {
	_, err := c.sendRequest(&Request{Command: CommandFlush})
	return err
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStats()
	return err
}
