package watch

import (
	"context"
	"time"
)

// Fetcher resolves a product page URL into its current record. The returned
// canonical URL is the tracking key: query-stripped and rewritten with the
// normalized variant codes.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (ProductRecord, string, error)
}

// Notifier delivers one message to the relay. Implementations are
// best-effort: a delivery failure is logged by the implementation and never
// surfaced as an error to the caller.
type Notifier interface {
	Notify(ctx context.Context, topic string, n Notification)
}

// EventPublisher mirrors state-change events to a pub/sub system for
// downstream consumers (or similar).
type EventPublisher interface {
	Publish(ctx context.Context, topic string, evt Event) (string, error)
}

// HistoryRecorder persists observed snapshots for later analysis.
type HistoryRecorder interface {
	Record(ctx context.Context, obs Observation) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
