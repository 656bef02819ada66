package server

import (
	"context"
	"sync"
	"time"

	"escpos-print/internal/printer"
)

// DefaultEventBuffer is how many recent events an EventLog keeps
const DefaultEventBuffer = 256

// Entry is a recorded event with its sequence number
type Entry struct {
	Seq uint64 `json:"seq"`
	printer.Event
}

// EventLog keeps the most recent printer events for long-polling clients
type EventLog struct {
	mu     sync.Mutex
	size   int
	events []Entry
	seq    uint64
	notify chan struct{}
}

func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventBuffer
	}
	return &EventLog{size: size, notify: make(chan struct{})}
}

// Record appends ev and wakes up waiting readers. It satisfies
// printer.EventHandler.
func (l *EventLog) Record(ev printer.Event) {
	l.mu.Lock()
	l.seq++
	l.events = append(l.events, Entry{Seq: l.seq, Event: ev})
	if len(l.events) > l.size {
		l.events = l.events[len(l.events)-l.size:]
	}
	close(l.notify)
	l.notify = make(chan struct{})
	l.mu.Unlock()
}

// Since returns the events after seq. With nothing to return it waits up
// to wait for the next event.
func (l *EventLog) Since(ctx context.Context, seq uint64, wait time.Duration) []Entry {
	var timeout <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timeout = t.C
	}

	for {
		l.mu.Lock()
		out := l.after(seq)
		ch := l.notify
		l.mu.Unlock()

		if len(out) > 0 || timeout == nil {
			return out
		}
		select {
		case <-ch:
		case <-timeout:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (l *EventLog) after(seq uint64) []Entry {
	var out []Entry
	for _, e := range l.events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}
