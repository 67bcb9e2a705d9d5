// Package retailer implements the product info fetcher against the
// storefront's commerce API.
package retailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

// ErrNoVariant is returned when no entry in the variant list matches the
// requested color/size selection.
var ErrNoVariant = errors.New("no matching variant")

// Config controls client behavior.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client fetches product records from the commerce API. Transport failures
// (network errors and non-2xx responses) are retried a bounded number of
// times with a fixed delay; a malformed body or a missing variant fails
// immediately since retrying a stable response cannot change the outcome.
type Client struct {
	resolver *watch.Resolver
	http     *http.Client
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Client.
func New(resolver *watch.Resolver, cfg Config, logger *zap.Logger) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		resolver: resolver,
		http:     &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
		logger:   logger,
	}
}

// Fetch resolves pageURL, calls the API, selects the matching variant, and
// returns the normalized record plus the canonical tracking URL.
func (c *Client) Fetch(ctx context.Context, pageURL string) (watch.ProductRecord, string, error) {
	apiURL, err := c.resolver.APIURL(pageURL)
	if err != nil {
		return watch.ProductRecord{}, "", fmt.Errorf("resolve url: %w", err)
	}
	sel := c.resolver.Selector(pageURL)

	body, err := c.get(ctx, apiURL)
	if err != nil {
		return watch.ProductRecord{}, "", err
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return watch.ProductRecord{}, "", fmt.Errorf("decode api response: %w", err)
	}
	if len(payload.Result.Items) == 0 {
		return watch.ProductRecord{}, "", errors.New("api response has no items")
	}
	item := payload.Result.Items[0]

	rec, err := selectVariant(item, sel)
	if err != nil {
		return watch.ProductRecord{}, "", err
	}

	canonical := watch.CanonicalURL(pageURL, sel, colorPrefix(item, sel), sizePrefix(item, sel))
	rec.URL = canonical
	return rec, canonical, nil
}

func (c *Client) get(ctx context.Context, apiURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		body, err := c.getOnce(ctx, apiURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if attempt == c.cfg.MaxRetries {
			break
		}
		c.logger.Warn("api fetch failed, retrying",
			zap.String("api_url", apiURL),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-time.After(c.cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("get %s: %w", apiURL, lastErr)
}

func (c *Client) getOnce(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// selectVariant linearly scans the variant list for the first entry whose
// color and size display codes match the selector; empty selector fields
// match anything, so an unset selector picks the first variant.
func selectVariant(item apiItem, sel watch.VariantSelector) (watch.ProductRecord, error) {
	for _, v := range item.L2s {
		if sel.ColorCode != "" && v.Color.DisplayCode != sel.ColorCode {
			continue
		}
		if sel.SizeCode != "" && v.Size.DisplayCode != sel.SizeCode {
			continue
		}
		return buildRecord(item, v, sel)
	}
	return watch.ProductRecord{}, ErrNoVariant
}

func buildRecord(item apiItem, v apiL2, sel watch.VariantSelector) (watch.ProductRecord, error) {
	rec := watch.ProductRecord{
		Name:            item.Name,
		StatusCode:      watch.StockStatus(v.Stock.StatusCode),
		StatusLocalized: v.Stock.StatusLocalized,
		Quantity:        v.Stock.Quantity,
		IsPromo:         v.Prices.Promo != nil,
	}
	switch {
	case v.Prices.Promo != nil:
		rec.Price = v.Prices.Promo.Value
	case v.Prices.Base != nil:
		rec.Price = v.Prices.Base.Value
	default:
		return watch.ProductRecord{}, errors.New("variant has no price")
	}
	if sel.ColorCode != "" {
		rec.ColorName = v.Color.Name
		for _, img := range item.Images.Main {
			if img.ColorCode == sel.ColorCode {
				rec.ImageURL = img.URL
				break
			}
		}
	}
	if sel.SizeCode != "" {
		rec.SizeName = v.Size.Name
	}
	return rec, nil
}

func colorPrefix(item apiItem, sel watch.VariantSelector) string {
	if sel.ColorCode == "" || len(item.Colors) == 0 {
		return ""
	}
	return watch.CodePrefix(item.Colors[0].Code)
}

func sizePrefix(item apiItem, sel watch.VariantSelector) string {
	if sel.SizeCode == "" || len(item.Sizes) == 0 {
		return ""
	}
	return watch.CodePrefix(item.Sizes[0].Code)
}
