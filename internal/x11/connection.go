// Package x11 implements the platform interfaces against an X11
// server: display topology via RandR, work areas via EWMH dock struts,
// and window control via EWMH client messages.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/winkeep/winkeep/internal/geometry"
	"github.com/winkeep/winkeep/internal/platform"
)

// Conn manages the X11 connection and dispatches the events winkeep
// cares about: RandR screen changes and ConfigureNotify on watched
// windows.
type Conn struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	mu        sync.Mutex
	topoSubs  map[int]func(platform.TopologyEvent)
	nextSubID int
	geomSubs  map[xproto.Window]func(geometry.Rect)
	lastTopo  []platform.Display

	pumpOnce sync.Once
	closed   chan struct{}
}

// Connect establishes the X11 connection and initializes RandR.
func Connect() (*Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	return &Conn{
		xu:       xu,
		root:     xu.RootWin(),
		topoSubs: make(map[int]func(platform.TopologyEvent)),
		geomSubs: make(map[xproto.Window]func(geometry.Rect)),
		closed:   make(chan struct{}),
	}, nil
}

// Close disconnects from the X server and stops the event pump.
func (c *Conn) Close() {
	close(c.closed)
	c.xu.Conn().Close()
}

// startPump begins reading X events on a background goroutine. Started
// lazily by the first subscription.
func (c *Conn) startPump() {
	c.pumpOnce.Do(func() {
		go c.pump()
	})
}

func (c *Conn) pump() {
	for {
		select {
		case <-c.closed:
			return
		default:
		}

		ev, err := c.xu.Conn().WaitForEvent()
		if ev == nil && err == nil {
			return // connection closed
		}
		if err != nil {
			continue
		}

		switch e := ev.(type) {
		case randr.ScreenChangeNotifyEvent:
			c.dispatchTopologyChange()
		case xproto.ConfigureNotifyEvent:
			c.dispatchConfigure(e)
		}
	}
}

func (c *Conn) dispatchConfigure(e xproto.ConfigureNotifyEvent) {
	c.mu.Lock()
	fn := c.geomSubs[e.Window]
	c.mu.Unlock()
	if fn == nil {
		return
	}
	fn(geometry.Rect{
		X:      int(e.X),
		Y:      int(e.Y),
		Width:  int(e.Width),
		Height: int(e.Height),
	})
}
