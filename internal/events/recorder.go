package events

import (
	"context"
	"sync"
)

// Recorder is an EventHandler and EventEmitter that keeps every event it
// sees, in order.
type Recorder struct {
	mu     sync.Mutex
	events []*TaskEvent
	Err    error
}

// HandleEvent implements EventHandler.
func (r *Recorder) HandleEvent(_ context.Context, event *TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// EmitEvent implements EventEmitter.
func (r *Recorder) EmitEvent(ctx context.Context, event *TaskEvent) error {
	return r.HandleEvent(ctx, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*TaskEvent(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
