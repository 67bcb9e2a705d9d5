// Package memory contains an in-memory notification sink for tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

// Sink stores delivered notifications for inspection.
type Sink struct {
	mu       sync.RWMutex
	messages []Delivered
}

// Delivered captures one Notify call.
type Delivered struct {
	Topic        string
	Notification watch.Notification
}

// New returns a memory Sink.
func New() *Sink {
	return &Sink{}
}

// Notify records the notification.
func (s *Sink) Notify(_ context.Context, topic string, n watch.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Delivered{Topic: topic, Notification: n})
}

// Messages returns the recorded deliveries.
func (s *Sink) Messages() []Delivered {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Delivered, len(s.messages))
	copy(out, s.messages)
	return out
}
