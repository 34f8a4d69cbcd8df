package orchestrator

import (
	"sync"
	"time"
)

// EventKind classifies an Event for filtering.
type EventKind string

const (
	EventError            EventKind = "error"
	EventComponentFailure EventKind = "component_failure"
	EventSchedulerMiss    EventKind = "scheduler_deadline_miss"
	EventStageComplete    EventKind = "stage_complete"
	EventStateChange      EventKind = "state_change"
	EventActuatorCommand  EventKind = "actuator_command"
	EventThreshold        EventKind = "threshold"
	EventCustom           EventKind = "custom"
	EventInfo             EventKind = "info"
)

// Event is one published occurrence, carrying enough context for a
// subscriber filtering by layer, kind, or source to decide relevance
// without re-deriving it.
type Event struct {
	Kind      EventKind
	Source    string
	Stage     Stage
	Layer     int // -1 if not layer-scoped
	Message   string
	Err       error
	Timestamp time.Time
}

// Filter decides whether an Event should be delivered to a subscriber.
type Filter func(Event) bool

// All delivers every event.
func All() Filter { return func(Event) bool { return true } }

// Kind delivers only events of kind k.
func Kind(k EventKind) Filter {
	return func(e Event) bool { return e.Kind == k }
}

// Source delivers only events published by id.
func Source(id string) Filter {
	return func(e Event) bool { return e.Source == id }
}

// Layer delivers only events scoped to layer i.
func Layer(i int) Filter {
	return func(e Event) bool { return e.Layer == i }
}

// LayerRange delivers only events scoped to a layer in [a,b].
func LayerRange(a, b int) Filter {
	return func(e Event) bool { return e.Layer >= a && e.Layer <= b }
}

// subscription pairs a subscriber's channel with its filter.
type subscription struct {
	ch     chan Event
	filter Filter
}

// EventBus delivers events synchronously within a stage and retains a
// fixed-capacity circular history for later inspection: a filtered
// multi-subscriber fan-out over a single publish path.
type EventBus struct {
	mu      sync.Mutex
	subs    []*subscription
	history []Event
	histCap int
	histPos int
	full    bool

	// deliverTimeout bounds how long Publish blocks trying to push to a
	// full subscriber channel before dropping the event for that
	// subscriber: handlers must not block longer than 1ms.
	deliverTimeout time.Duration
}

// NewEventBus returns an EventBus with a history ring of the given
// capacity and the default 1ms per-subscriber delivery timeout.
func NewEventBus(historyCapacity int) *EventBus {
	return &EventBus{
		history:        make([]Event, historyCapacity),
		histCap:        historyCapacity,
		deliverTimeout: time.Millisecond,
	}
}

// Subscribe returns a buffered channel receiving every future event
// matching filter. The channel has capacity 64; once it is full, Publish
// waits up to the delivery timeout and then drops the event for this
// subscriber. The subscription stays registered.
func (b *EventBus) Subscribe(filter Filter) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &subscription{ch: make(chan Event, 64), filter: filter}
	b.subs = append(b.subs, sub)
	return sub.ch
}

// Publish records ev in history and delivers it to every matching
// subscriber with a timeout-guarded send: it blocks up to deliverTimeout
// (1ms by default) per subscriber whose channel is full, then drops the
// event for that subscriber.
func (b *EventBus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.mu.Lock()
	if b.histCap > 0 {
		b.history[b.histPos] = ev
		b.histPos = (b.histPos + 1) % b.histCap
		if b.histPos == 0 {
			b.full = true
		}
	}
	subs := append([]*subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		if !s.filter(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		case <-time.After(b.deliverTimeout):
			// subscriber too slow; drop for this delivery rather than
			// stall the publishing stage.
		}
	}
}

// History returns a copy of the retained events in chronological order.
func (b *EventBus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		return append([]Event(nil), b.history[:b.histPos]...)
	}
	out := make([]Event, 0, b.histCap)
	out = append(out, b.history[b.histPos:]...)
	out = append(out, b.history[:b.histPos]...)
	return out
}
