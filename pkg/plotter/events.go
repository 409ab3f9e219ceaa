// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package plotter

// EventKind discriminates session events.
type EventKind int

// Session events, in rough lifecycle order.
const (
	EventConnected EventKind = iota
	EventReady
	EventData
	EventError
	EventAborted
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventReady:
		return "ready"
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventAborted:
		return "aborted"
	case EventDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Event is one observable session side effect. Data carries the raw
// device response for EventData; Err carries the fault for EventError.
type Event struct {
	Kind EventKind
	Data string
	Err  error
}

// Subscribe registers a listener and returns its receive channel. The
// channel is buffered; events are dropped for a listener that falls
// behind rather than blocking the session.
func (p *Plotter) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	p.subMu.Lock()
	p.subs = append(p.subs, ch)
	p.subMu.Unlock()
	return ch
}

// publish delivers an event to every listener.
func (p *Plotter) publish(ev Event) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
