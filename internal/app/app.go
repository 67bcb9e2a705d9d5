// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/JakeFAU/stockwatch/internal/api"
	"github.com/JakeFAU/stockwatch/internal/clock/system"
	"github.com/JakeFAU/stockwatch/internal/config"
	"github.com/JakeFAU/stockwatch/internal/history"
	"github.com/JakeFAU/stockwatch/internal/listener"
	"github.com/JakeFAU/stockwatch/internal/metrics"
	"github.com/JakeFAU/stockwatch/internal/notify"
	"github.com/JakeFAU/stockwatch/internal/poller"
	pubsubpub "github.com/JakeFAU/stockwatch/internal/publisher/pubsub"
	"github.com/JakeFAU/stockwatch/internal/retailer"
	"github.com/JakeFAU/stockwatch/internal/store"
	"github.com/JakeFAU/stockwatch/internal/watch"
)

// App holds all the shared, long-lived services for the watcher. It is
// initialized once at startup and torn down with Close.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	watchlist *store.Watchlist
	snapshots *store.SnapshotStore
	listener  *listener.Listener
	poller    *poller.Poller
	apiServer *http.Server

	pubsubClient *pubsub.Client
	pubsubTopic  *pubsub.Topic
	historyStore *history.Store
}

// New wires up every service from configuration. It fails fast if any
// critical dependency cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	watchlist, err := store.LoadWatchlist(cfg.Watcher.WatchlistPath)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	for _, seed := range cfg.Watcher.Seed {
		if seed.URL == "" || watchlist.Contains(seed.URL) {
			continue
		}
		if err := watchlist.Put(seed.URL, seed.Nickname); err != nil {
			return nil, fmt.Errorf("seed watchlist: %w", err)
		}
	}
	snapshots := store.NewSnapshotStore()

	resolver := watch.NewResolver(cfg.Retailer.Host, cfg.Retailer.APIBase, cfg.Retailer.Region, cfg.Retailer.Language)
	client := retailer.New(resolver, retailer.Config{
		UserAgent:  cfg.Retailer.UserAgent,
		Timeout:    cfg.HTTPTimeout(),
		MaxRetries: cfg.HTTP.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
	}, logger)
	relay := notify.NewRelay(cfg.Relay.Server, cfg.RelayTimeout(), logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		watchlist: watchlist,
		snapshots: snapshots,
	}

	var publisher watch.EventPublisher
	if cfg.PubSub.Enabled {
		psClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		topic := psClient.Topic(cfg.PubSub.TopicName)
		a.pubsubClient = psClient
		a.pubsubTopic = topic
		publisher = pubsubpub.New(topic)
		logger.Info("event mirror enabled",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName))
	}

	var recorder watch.HistoryRecorder
	if cfg.DB.Enabled {
		hs, err := history.NewStore(ctx, history.StoreConfig{DSN: cfg.DB.DSN})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect history store: %w", err)
		}
		a.historyStore = hs
		recorder = hs
		logger.Info("price history enabled")
	}

	a.listener = listener.New(listener.Config{
		Server:         cfg.Relay.Server,
		Topic:          cfg.Watcher.ControlTopic,
		NotifyTopic:    cfg.Watcher.Topic,
		ReconnectDelay: cfg.ReconnectDelay(),
	}, resolver, client, watchlist, snapshots, relay, logger)

	a.poller = poller.New(poller.Config{
		Interval:   cfg.Interval(),
		Topic:      cfg.Watcher.Topic,
		EventTopic: cfg.Watcher.EventTopic,
		CarryOn:    cfg.Watcher.CarryOn,
	}, client, watchlist, snapshots, relay, publisher, recorder, system.New(), logger)

	a.apiServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(snapshots, watchlist, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

// Run starts the status API and the control stream listener, then blocks in
// the poll loop until the context finishes.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting watcher",
		zap.String("relay", a.cfg.Relay.Server),
		zap.String("topic", a.cfg.Watcher.Topic),
		zap.String("control_topic", a.cfg.Watcher.ControlTopic),
		zap.Int("tracked", a.watchlist.Len()))

	go func() {
		a.logger.Info("status API listening", zap.String("addr", a.apiServer.Addr))
		if err := a.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("status API failed", zap.Error(err))
		}
	}()
	go a.listener.Run(ctx)

	a.poller.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown status API: %w", err)
	}
	return nil
}

// Close releases external connections and flushes the logger.
func (a *App) Close() {
	if a.pubsubTopic != nil {
		a.pubsubTopic.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("error closing pubsub client", zap.Error(err))
		}
	}
	if a.historyStore != nil {
		a.historyStore.Close()
	}
	_ = a.logger.Sync()
}
