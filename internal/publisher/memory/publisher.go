// Package memory contains an in-memory event publisher for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu       sync.RWMutex
	events   []PublishedEvent
	failWith error
}

// PublishedEvent captures one publish call.
type PublishedEvent struct {
	Topic string
	Event watch.Event
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every subsequent publish return err.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

// Publish records the event and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, evt watch.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return "", p.failWith
	}
	p.events = append(p.events, PublishedEvent{Topic: topic, Event: evt})
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns the recorded publishes.
func (p *Publisher) Events() []PublishedEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}
