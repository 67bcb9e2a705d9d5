// Package watch defines core types shared across subsystems.
package watch

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus represents the retailer's coarse availability state.
type StockStatus string

// Stock status values returned by the retailer API.
const (
	StockStatusIn  StockStatus = "IN_STOCK"
	StockStatusLow StockStatus = "LOW_STOCK"
	StockStatusOut StockStatus = "STOCK_OUT"
)

// LowQuantityThreshold is the quantity at or below which low-stock
// notifications escalate to the maximum priority.
const LowQuantityThreshold = 3

// ProductRecord is the flat snapshot of one tracked product variant. It is
// created whole on a successful fetch and replaced whole on every poll;
// nothing mutates it in place.
type ProductRecord struct {
	URL             string          `json:"url"`
	Nickname        string          `json:"nickname"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	StatusCode      StockStatus     `json:"status_code"`
	StatusLocalized string          `json:"status_localized"`
	Quantity        int             `json:"quantity"`
	IsPromo         bool            `json:"is_promo"`
	ColorName       string          `json:"color_name"`
	SizeName        string          `json:"size_name"`
	ImageURL        string          `json:"image_url,omitempty"`
}

// FullName renders the display name used in notification titles.
func (r ProductRecord) FullName() string {
	name := r.Name
	if r.ColorName != "" {
		name += " (" + r.ColorName + ")"
	}
	if r.Nickname != "" {
		name += " - " + r.Nickname
	}
	return name
}

// PriceString renders the price with a sale marker when promotional.
func (r ProductRecord) PriceString() string {
	s := r.Price.String()
	if r.IsPromo {
		s += " (Sale)"
	}
	return s
}

// WatchEntry pairs a canonical product URL with its user-supplied nickname.
type WatchEntry struct {
	URL      string `json:"url"`
	Nickname string `json:"nickname"`
}

// VariantSelector picks one color/size variant out of the API's variant
// list. Empty fields match any variant. The codes are display codes, the
// numeric human-facing form.
type VariantSelector struct {
	ColorCode string
	SizeCode  string
}

// IsZero reports whether the selector matches every variant.
func (s VariantSelector) IsZero() bool {
	return s.ColorCode == "" && s.SizeCode == ""
}

// Notification kinds, used for the event mirror and metrics labels.
const (
	KindAdded        = "added"
	KindPriceChange  = "price_change"
	KindStockStatus  = "stock_status"
	KindQuantityMove = "quantity_move"
)

// Notification is one outbound message for the relay.
type Notification struct {
	Kind      string
	Title     string
	Message   string
	Priority  int
	Tags      []string
	ShowImage bool
	// Product carries the record that triggered the notification; the sink
	// uses it for the click target and optional image attachment.
	Product ProductRecord
}

// Event is the structured state-change record mirrored to the optional
// event publisher alongside each notification.
type Event struct {
	Kind       string      `json:"kind"`
	URL        string      `json:"url"`
	Nickname   string      `json:"nickname"`
	Price      string      `json:"price"`
	StatusCode StockStatus `json:"status_code"`
	Quantity   int         `json:"quantity"`
	ObservedAt time.Time   `json:"observed_at"`
}

// Observation is one row recorded by the optional history store.
type Observation struct {
	URL        string
	Price      decimal.Decimal
	StatusCode StockStatus
	Quantity   int
	ObservedAt time.Time
}
