// Package poller drives the initialize-then-loop monitoring cycle.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/stockwatch/internal/metrics"
	"github.com/JakeFAU/stockwatch/internal/store"
	"github.com/JakeFAU/stockwatch/internal/watch"
)

// Config controls Poller behavior.
type Config struct {
	Interval time.Duration
	Topic    string
	// EventTopic is the pub/sub topic for the optional event mirror.
	EventTopic string
	// CarryOn suppresses the "added" notifications for products already on
	// the watch-list at startup.
	CarryOn bool
}

// Poller initializes the snapshot store from the watch-list, then re-fetches
// every tracked product each interval, diffing against the stored snapshot
// and notifying on every detected transition.
type Poller struct {
	cfg       Config
	fetcher   watch.Fetcher
	watchlist *store.Watchlist
	snapshots *store.SnapshotStore
	notifier  watch.Notifier
	publisher watch.EventPublisher
	history   watch.HistoryRecorder
	clock     watch.Clock
	logger    *zap.Logger
}

// New constructs a Poller. publisher and history are optional; pass nil to
// disable the event mirror or the price history recorder.
func New(
	cfg Config,
	fetcher watch.Fetcher,
	watchlist *store.Watchlist,
	snapshots *store.SnapshotStore,
	notifier watch.Notifier,
	publisher watch.EventPublisher,
	history watch.HistoryRecorder,
	clock watch.Clock,
	logger *zap.Logger,
) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		cfg:       cfg,
		fetcher:   fetcher,
		watchlist: watchlist,
		snapshots: snapshots,
		notifier:  notifier,
		publisher: publisher,
		history:   history,
		clock:     clock,
		logger:    logger,
	}
}

// Run blocks: it seeds the snapshot store, then polls until the context
// finishes. There is no graceful drain; the process runs until killed.
func (p *Poller) Run(ctx context.Context) {
	p.Initialize(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		p.Cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Initialize seeds the snapshot store from the watch-list. A product that
// cannot be fetched is logged and left out; the next listener add or restart
// can pick it up again.
func (p *Poller) Initialize(ctx context.Context) {
	for _, entry := range p.watchlist.Entries() {
		rec, url, err := p.fetcher.Fetch(ctx, entry.URL)
		if err != nil {
			p.logger.Error("unable to retrieve price", zap.String("url", entry.URL), zap.Error(err))
			metrics.ObserveFetch("error")
			continue
		}
		metrics.ObserveFetch("success")
		rec.Nickname = entry.Nickname
		p.snapshots.Put(url, rec)
		p.record(ctx, rec)
	}
	metrics.SetTrackedProducts(p.snapshots.Len())

	if p.cfg.CarryOn {
		return
	}
	for _, rec := range p.snapshots.Records() {
		n := watch.Added(rec)
		p.notifier.Notify(ctx, p.cfg.Topic, n)
		p.mirror(ctx, n)
	}
}

// Cycle performs one poll pass over every tracked product. The snapshot
// store lock is held for the whole pass, so listener mutations land between
// cycles rather than in the middle of one.
func (p *Poller) Cycle(ctx context.Context) {
	start := p.clock.Now()
	var rows []reportRow

	p.snapshots.Range(func(url string, old watch.ProductRecord) (watch.ProductRecord, bool) {
		cur, _, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			p.logger.Error("unable to retrieve updated info", zap.String("url", url), zap.Error(err))
			metrics.ObserveFetch("error")
			rows = append(rows, reportRow{rec: old})
			return old, false
		}
		metrics.ObserveFetch("success")
		cur.Nickname = old.Nickname
		cur.URL = url

		for _, n := range watch.Diff(old, cur) {
			p.notifier.Notify(ctx, p.cfg.Topic, n)
			p.mirror(ctx, n)
		}
		p.record(ctx, cur)

		rows = append(rows, reportRow{
			rec:            cur,
			quantityChange: changeMarker(old.Quantity, cur.Quantity),
			priceChange:    priceMarker(old.Price, cur.Price),
		})
		return cur, true
	})

	p.logger.Info("poll cycle complete\n" + renderReport(rows))
	metrics.ObservePollCycle(p.clock.Now().Sub(start))
	metrics.SetTrackedProducts(p.snapshots.Len())
}

// mirror forwards a notification to the optional event publisher.
func (p *Poller) mirror(ctx context.Context, n watch.Notification) {
	if p.publisher == nil {
		return
	}
	evt := watch.Event{
		Kind:       n.Kind,
		URL:        n.Product.URL,
		Nickname:   n.Product.Nickname,
		Price:      n.Product.Price.String(),
		StatusCode: n.Product.StatusCode,
		Quantity:   n.Product.Quantity,
		ObservedAt: p.clock.Now(),
	}
	if _, err := p.publisher.Publish(ctx, p.cfg.EventTopic, evt); err != nil {
		p.logger.Warn("event mirror publish failed", zap.String("kind", n.Kind), zap.Error(err))
	}
}

// record forwards an observation to the optional history store.
func (p *Poller) record(ctx context.Context, rec watch.ProductRecord) {
	if p.history == nil {
		return
	}
	obs := watch.Observation{
		URL:        rec.URL,
		Price:      rec.Price,
		StatusCode: rec.StatusCode,
		Quantity:   rec.Quantity,
		ObservedAt: p.clock.Now(),
	}
	if err := p.history.Record(ctx, obs); err != nil {
		p.logger.Warn("history write failed", zap.String("url", rec.URL), zap.Error(err))
		metrics.ObserveHistoryWriteFailure()
	}
}
