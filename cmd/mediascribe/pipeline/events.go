package pipeline

import (
	"sync"
	"time"

	"github.com/mediascribe/mediascribe/cmd/mediascribe/transcribe"
)

// EventType classifies the notifications emitted during a run.
type EventType string

const (
	EventTypeStart    EventType = "start"
	EventTypeLoading  EventType = "loading"
	EventTypeResult   EventType = "result"
	EventTypeProgress EventType = "progress"
	EventTypeEnd      EventType = "end"
	EventTypeCancel   EventType = "cancel"
	EventTypeError    EventType = "error"
)

// Event is a sequenced payload consumed by observers that don't use the
// direct callback/return surface. start and exactly one of end/cancel/error
// are published once per run.
type Event struct {
	Seq       int64
	Timestamp time.Time
	RunID     string
	Type      EventType

	// loading
	File    string
	Percent float64

	// result
	Text    string
	IsFinal bool

	// progress
	Progress *Progress

	// end
	Result *transcribe.Result

	// error
	Err string
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
