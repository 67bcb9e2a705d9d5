// Package notify delivers messages to an ntfy-style pub/sub relay.
package notify

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/stockwatch/internal/metrics"
	"github.com/JakeFAU/stockwatch/internal/watch"
)

// Relay posts notifications to a relay server. Delivery is strictly
// best-effort: a failed POST is logged and dropped, never retried.
type Relay struct {
	server string
	http   *http.Client
	logger *zap.Logger
}

// NewRelay constructs a Relay for the given server base URL.
func NewRelay(server string, timeout time.Duration, logger *zap.Logger) *Relay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		server: strings.TrimSuffix(server, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify publishes one message to the topic. The product record supplies the
// click-through URL and, when requested, the image attachment.
func (r *Relay) Notify(ctx context.Context, topic string, n watch.Notification) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.server+"/"+topic,
		strings.NewReader(n.Message),
	)
	if err != nil {
		r.logger.Error("build notification request", zap.String("topic", topic), zap.Error(err))
		metrics.ObserveNotification(topic, "error")
		return
	}

	req.Header.Set("Title", n.Title)
	req.Header.Set("Priority", strconv.Itoa(n.Priority))
	if tags := watch.NormalizeTags(n.Tags); len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if n.Product.URL != "" {
		req.Header.Set("Click", n.Product.URL)
	}
	if n.ShowImage && n.Product.ImageURL != "" {
		req.Header.Set("Attach", n.Product.ImageURL)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Error("send notification", zap.String("topic", topic), zap.String("title", n.Title), zap.Error(err))
		metrics.ObserveNotification(topic, "error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		r.logger.Error("notification rejected",
			zap.String("topic", topic),
			zap.String("title", n.Title),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		metrics.ObserveNotification(topic, "rejected")
		return
	}
	metrics.ObserveNotification(topic, "sent")
}
