// Package listener subscribes to the control topic and applies watch-list
// mutations pushed by users.
package listener

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/stockwatch/internal/metrics"
	"github.com/JakeFAU/stockwatch/internal/store"
	"github.com/JakeFAU/stockwatch/internal/watch"
)

// Command markers recognized on the control stream. Matching is exact
// substring, case-sensitive; remove wins when a line carries both.
const (
	removeMarker = "remove:"
	nameMarker   = "name:"
)

// Config controls Listener behavior.
type Config struct {
	Server         string
	Topic          string
	NotifyTopic    string
	ReconnectDelay time.Duration
}

// Listener consumes the line-delimited control stream forever, restarting
// the subscription after any network error. It is the system's only inbound
// control surface and is deliberately unauthenticated, matching the relay's
// open-topic model.
type Listener struct {
	cfg       Config
	resolver  *watch.Resolver
	fetcher   watch.Fetcher
	watchlist *store.Watchlist
	snapshots *store.SnapshotStore
	notifier  watch.Notifier
	// The stream client carries no timeout; the subscription is expected to
	// stay open indefinitely and is torn down via context instead.
	http   *http.Client
	logger *zap.Logger
}

// New constructs a Listener.
func New(
	cfg Config,
	resolver *watch.Resolver,
	fetcher watch.Fetcher,
	watchlist *store.Watchlist,
	snapshots *store.SnapshotStore,
	notifier watch.Notifier,
	logger *zap.Logger,
) *Listener {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		cfg:       cfg,
		resolver:  resolver,
		fetcher:   fetcher,
		watchlist: watchlist,
		snapshots: snapshots,
		notifier:  notifier,
		http:      &http.Client{},
		logger:    logger,
	}
}

// Run blocks, consuming the control stream until the context finishes. Any
// stream error is retried after a fixed delay, forever.
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.subscribe(ctx)
		if ctx.Err() != nil {
			return
		}
		l.logger.Error("control stream terminated, reconnecting",
			zap.String("topic", l.cfg.Topic),
			zap.Duration("delay", l.cfg.ReconnectDelay),
			zap.Error(err),
		)
		metrics.ObserveListenerReconnect()
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.ReconnectDelay):
		}
	}
}

func (l *Listener) subscribe(ctx context.Context) error {
	streamURL := strings.TrimSuffix(l.cfg.Server, "/") + "/" + l.cfg.Topic + "/raw"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream status %d", resp.StatusCode)
	}

	l.logger.Info("listening for watch-list commands", zap.String("topic", l.cfg.Topic))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		l.handleLine(ctx, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}

func (l *Listener) handleLine(ctx context.Context, line string) {
	if line == "" || !strings.Contains(line, l.resolver.Host()) {
		return
	}
	switch {
	case strings.Contains(line, removeMarker):
		l.handleRemove(ctx, line)
	case strings.Contains(line, nameMarker):
		l.handleAdd(ctx, line)
	}
}

func (l *Listener) handleRemove(ctx context.Context, line string) {
	raw := strings.TrimSpace(strings.Replace(line, removeMarker, "", 1))
	pageURL, err := l.resolver.Rehost(raw)
	if err != nil {
		l.logger.Warn("remove command without a product url", zap.String("line", line), zap.Error(err))
		metrics.ObserveListenerCommand("remove", "invalid")
		return
	}

	// Best effort canonicalization: the fetch rewrites the URL into the
	// tracking key. When the product is already gone from the storefront we
	// fall back to the raw URL so stale entries can still be dropped.
	url := pageURL
	if _, canonical, err := l.fetcher.Fetch(ctx, pageURL); err == nil {
		url = canonical
	}

	removed, err := l.watchlist.Delete(url)
	if err != nil {
		l.logger.Error("persist watchlist after remove", zap.String("url", url), zap.Error(err))
	}
	if l.snapshots.Delete(url) {
		removed = true
	}

	if removed {
		l.logger.Info("removed product", zap.String("url", url))
		metrics.ObserveListenerCommand("remove", "applied")
	} else {
		l.logger.Info("product not found", zap.String("url", url))
		metrics.ObserveListenerCommand("remove", "missing")
	}
}

func (l *Listener) handleAdd(ctx context.Context, line string) {
	rawURL, nickname, _ := strings.Cut(line, nameMarker)
	nickname = strings.TrimSpace(nickname)

	pageURL, err := l.resolver.Rehost(strings.TrimSpace(rawURL))
	if err != nil {
		l.logger.Warn("add command without a product url", zap.String("line", line), zap.Error(err))
		metrics.ObserveListenerCommand("add", "invalid")
		return
	}

	rec, url, err := l.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		l.logger.Error("unable to retrieve product info; the url may be wrong or the api unavailable",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		metrics.ObserveListenerCommand("add", "fetch_failed")
		return
	}

	if l.watchlist.Contains(url) {
		l.logger.Info("product already exists", zap.String("url", url))
		metrics.ObserveListenerCommand("add", "duplicate")
		return
	}
	if _, tracked := l.snapshots.Get(url); tracked {
		l.logger.Info("product already exists", zap.String("url", url))
		metrics.ObserveListenerCommand("add", "duplicate")
		return
	}

	rec.Nickname = nickname
	if err := l.watchlist.Put(url, nickname); err != nil {
		l.logger.Error("persist watchlist after add", zap.String("url", url), zap.Error(err))
	}
	l.snapshots.Put(url, rec)
	l.notifier.Notify(ctx, l.cfg.NotifyTopic, watch.Added(rec))

	l.logger.Info("added product", zap.String("url", url), zap.String("nickname", nickname))
	metrics.ObserveListenerCommand("add", "applied")
}
