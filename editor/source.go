package editor

import (
	"context"
	"errors"
	"sync"
)

// ErrSourceClosed is returned when submitting to a closed source
var ErrSourceClosed = errors.New("event source closed")

// Envelope carries one event to the machine. If Reply is non-nil the
// resulting snapshot is delivered on it; it must have room for one value.
type Envelope struct {
	Event Event
	Reply chan Snapshot
}

// EventSource is anything that yields events for a machine
type EventSource interface {
	Events() <-chan Envelope
}

// ChanSource is a channel-backed EventSource safe for concurrent producers
type ChanSource struct {
	ch     chan Envelope
	mu     sync.RWMutex
	closed bool
}

// NewChanSource creates a source with the given buffer size
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan Envelope, buffer)}
}

// Events implements EventSource
func (s *ChanSource) Events() <-chan Envelope {
	return s.ch
}

// Send enqueues an event without waiting for its outcome
func (s *ChanSource) Send(ctx context.Context, ev Event) error {
	return s.push(ctx, Envelope{Event: ev})
}

// Submit enqueues an event and waits for the snapshot taken right after it
// was handled
func (s *ChanSource) Submit(ctx context.Context, ev Event) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := s.push(ctx, Envelope{Event: ev, Reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Close stops accepting events. Run returns once the buffer is drained.
func (s *ChanSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *ChanSource) push(ctx context.Context, env Envelope) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSourceClosed
	}
	select {
	case s.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Observer is called with every snapshot that follows an event
type Observer func(Snapshot)

// Run handles events from src one at a time until the source is exhausted
// or ctx is cancelled. It is the only goroutine that touches the graph.
// The observer sees each snapshot before the submitter's reply does.
func (m *Machine) Run(ctx context.Context, src EventSource, observe Observer) error {
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-events:
			if !ok {
				return nil
			}
			notices := m.Handle(ctx, env.Event)
			snap := m.Snapshot(notices)
			if observe != nil {
				observe(snap)
			}
			if env.Reply != nil {
				env.Reply <- snap
			}
		}
	}
}
