package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"

	"github.com/winkeep/winkeep/internal/platform"
)

// Subscribe registers fn for display topology notifications. The first
// subscription enables RandR screen-change events and starts the event
// pump. Implements platform.TopologyNotifier.
func (c *Conn) Subscribe(fn func(platform.TopologyEvent)) (platform.Subscription, error) {
	err := randr.SelectInputChecked(c.xu.Conn(), c.root,
		randr.NotifyMaskScreenChange|randr.NotifyMaskCrtcChange|randr.NotifyMaskOutputChange).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to select randr events: %w", err)
	}

	c.mu.Lock()
	if c.lastTopo == nil {
		if displays, err := c.Displays(); err == nil {
			c.lastTopo = displays
		}
	}
	id := c.nextSubID
	c.nextSubID++
	c.topoSubs[id] = fn
	c.mu.Unlock()

	c.startPump()
	return &topoSubscription{conn: c, id: id}, nil
}

type topoSubscription struct {
	conn *Conn
	id   int
}

func (s *topoSubscription) Close() {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	delete(s.conn.topoSubs, s.id)
}

// dispatchTopologyChange re-reads the topology, classifies the change
// against the previous snapshot and notifies all subscribers.
func (c *Conn) dispatchTopologyChange() {
	displays, err := c.Displays()
	if err != nil {
		return
	}

	c.mu.Lock()
	change := classifyChange(c.lastTopo, displays)
	c.lastTopo = displays
	subs := make([]func(platform.TopologyEvent), 0, len(c.topoSubs))
	for _, fn := range c.topoSubs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	ev := platform.TopologyEvent{Change: change}
	for _, fn := range subs {
		fn(ev)
	}
}

func classifyChange(before, after []platform.Display) platform.TopologyChange {
	switch {
	case len(after) > len(before):
		return platform.DisplayAdded
	case len(after) < len(before):
		return platform.DisplayRemoved
	default:
		return platform.DisplayMetricsChanged
	}
}
