package ifttt

import "sync/atomic"

// Drop reasons passed to MetricsRecorder.RecordDrop.
const (
	DropNoKey        = "no_key"
	DropUnrecognized = "unrecognized"
	DropMalformed    = "malformed"
)

// Stats is a snapshot of the bridge counters.
type Stats struct {
	MessagesReceived    uint64 `json:"messages_received"`
	ControlMessages     uint64 `json:"control_messages"`
	EventsTriggered     uint64 `json:"events_triggered"`
	DroppedNoKey        uint64 `json:"dropped_no_key"`
	DroppedUnrecognized uint64 `json:"dropped_unrecognized"`
	DroppedMalformed    uint64 `json:"dropped_malformed"`
}

// counters holds the live values behind Stats.
type counters struct {
	received     atomic.Uint64
	control      atomic.Uint64
	triggered    atomic.Uint64
	noKey        atomic.Uint64
	unrecognized atomic.Uint64
	malformed    atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		MessagesReceived:    c.received.Load(),
		ControlMessages:     c.control.Load(),
		EventsTriggered:     c.triggered.Load(),
		DroppedNoKey:        c.noKey.Load(),
		DroppedUnrecognized: c.unrecognized.Load(),
		DroppedMalformed:    c.malformed.Load(),
	}
}

func (c *counters) drop(reason string) {
	switch reason {
	case DropNoKey:
		c.noKey.Add(1)
	case DropUnrecognized:
		c.unrecognized.Add(1)
	case DropMalformed:
		c.malformed.Add(1)
	}
}
