package naive

import "strings"

// Event is one named occurrence on the per-engine event bus.
type Event struct {
	Name    string
	Payload map[string]any
}

// EventBus buffers emitted events for one frame and flushes them to every
// registered Lua listener at step 13 of the frame loop, and separately
// answers the command socket's query_events.
type EventBus struct {
	pending []Event
	history []Event
}

func NewEventBus() *EventBus { return &EventBus{} }

func (b *EventBus) Emit(name string, payload map[string]any) {
	ev := Event{Name: name, Payload: payload}
	b.pending = append(b.pending, ev)
	b.history = append(b.history, ev)
	if len(b.history) > 1000 {
		b.history = b.history[len(b.history)-1000:]
	}
}

// Flush returns and clears this frame's pending events.
func (b *EventBus) Flush() []Event {
	out := b.pending
	b.pending = nil
	return out
}

// Query implements query_events: filter is a case-sensitive substring match
// against event names, limit bounds the result count (0 = unbounded).
func (b *EventBus) Query(filter string, limit int) []Event {
	var out []Event
	for _, ev := range b.history {
		if filter != "" && !strings.Contains(ev.Name, filter) {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
