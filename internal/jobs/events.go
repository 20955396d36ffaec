package jobs

import (
	"sort"
	"sync"
	"time"

	"mpeg-transcriber/internal/domain"
)

// EventType classifies messages pushed to the window.
type EventType string

const (
	EventTypeState  EventType = "state"
	EventTypeBusy   EventType = "busy"
	EventTypeNotice EventType = "notice"
)

// Event is one view update or dialog, numbered so a reloaded window can
// catch up with Since.
type Event struct {
	Seq       int64             `json:"seq"`
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	View      *domain.ViewModel `json:"view,omitempty"`
	Title     string            `json:"title,omitempty"`
	Message   string            `json:"message,omitempty"`
	IsError   bool              `json:"isError,omitempty"`
}

// EventBus keeps the most recent events in a fixed-size ring.
type EventBus struct {
	mu    sync.RWMutex
	ring  []Event
	start int
	size  int
	seq   int64
}

// NewEventBus returns a bus retaining up to capacity events (100 if capacity <= 0).
func NewEventBus(capacity int) *EventBus {
	if capacity <= 0 {
		capacity = 100
	}
	return &EventBus{ring: make([]Event, capacity)}
}

// Publish numbers and timestamps event, stores it and returns the stored copy.
// The oldest event is dropped once the ring is full.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	event.Seq = b.seq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if b.size < len(b.ring) {
		b.ring[(b.start+b.size)%len(b.ring)] = event
		b.size++
	} else {
		b.ring[b.start] = event
		b.start = (b.start + 1) % len(b.ring)
	}
	return event
}

// Since returns retained events numbered after seq, oldest first.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	first := sort.Search(b.size, func(i int) bool {
		return b.at(i).Seq > seq
	})
	if first == b.size {
		return nil
	}

	out := make([]Event, 0, b.size-first)
	for i := first; i < b.size; i++ {
		out = append(out, b.at(i))
	}
	return out
}

// at returns the i-th oldest retained event.
func (b *EventBus) at(i int) Event {
	return b.ring[(b.start+i)%len(b.ring)]
}
