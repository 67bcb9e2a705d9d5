package watch

import (
	"fmt"
	"strings"
)

// Relay priorities (1-5, 5 is maximum).
const (
	PriorityDefault = 3
	PriorityHigh    = 4
	PriorityMax     = 5
)

// Diff compares the previous snapshot of a product against a freshly
// fetched one and returns the notifications to send, in order: price change,
// stock-status transition, quantity movement. The checks are independent;
// several can fire in the same cycle and none suppresses another. Neither
// record is mutated.
func Diff(old, cur ProductRecord) []Notification {
	var out []Notification
	if n, ok := priceChange(old, cur); ok {
		out = append(out, n)
	}
	if n, ok := statusChange(old, cur); ok {
		out = append(out, n)
	}
	if n, ok := quantityChange(old, cur); ok {
		out = append(out, n)
	}
	return out
}

func priceChange(old, cur ProductRecord) (Notification, bool) {
	if cur.Price.Equal(old.Price) {
		return Notification{}, false
	}
	diff := cur.Price.Sub(old.Price)
	msg := fmt.Sprintf("\nOld price: %s\nNew price: %s\nPrice difference: %s", old.Price, cur.Price, diff)
	return Notification{
		Kind:     KindPriceChange,
		Title:    fmt.Sprintf("Price change for %s", cur.FullName()),
		Message:  msg,
		Priority: PriorityHigh,
		Tags:     []string{"tada"},
		Product:  cur,
	}, true
}

func statusChange(old, cur ProductRecord) (Notification, bool) {
	if cur.StatusCode == old.StatusCode {
		return Notification{}, false
	}
	switch cur.StatusCode {
	case StockStatusLow:
		tags := []string{"warning"}
		if old.StatusCode != StockStatusIn {
			// Skipped straight past IN_STOCK, e.g. a restock landing low.
			tags = []string{"up", "tada"}
		}
		return Notification{
			Kind:      KindStockStatus,
			Title:     fmt.Sprintf("%s is LOW on stock", cur.FullName()),
			Message:   stockSummary(cur),
			Priority:  PriorityHigh,
			Tags:      tags,
			ShowImage: true,
			Product:   cur,
		}, true
	case StockStatusOut:
		return Notification{
			Kind:     KindStockStatus,
			Title:    fmt.Sprintf("%s is OUT OF STOCK", cur.FullName()),
			Message:  " ",
			Priority: PriorityHigh,
			Tags:     []string{"skull"},
			Product:  cur,
		}, true
	default:
		return Notification{}, false
	}
}

func quantityChange(old, cur ProductRecord) (Notification, bool) {
	// Only meaningful while the product sits in LOW_STOCK; a transition in
	// this cycle is already covered by the status notification.
	if cur.StatusCode != StockStatusLow || old.StatusCode != StockStatusLow {
		return Notification{}, false
	}
	switch {
	case cur.Quantity < old.Quantity:
		n := Notification{
			Kind:     KindQuantityMove,
			Title:    fmt.Sprintf("%s - Quantity change", cur.FullName()),
			Message:  fmt.Sprintf("Quantity is down from %d to %d at Price: %s", old.Quantity, cur.Quantity, cur.PriceString()),
			Priority: PriorityDefault,
			Tags:     []string{"small_red_triangle_down"},
			Product:  cur,
		}
		if cur.Quantity <= LowQuantityThreshold {
			n.Title = fmt.Sprintf("%s - ALMOST OUT OF STOCK", cur.FullName())
			n.Priority = PriorityMax
			n.Tags = []string{"rotating_light"}
		}
		return n, true
	case cur.Quantity > old.Quantity:
		return Notification{
			Kind:     KindQuantityMove,
			Title:    fmt.Sprintf("%s - Quantity change", cur.FullName()),
			Message:  fmt.Sprintf("Quantity is up from %d to %d at Price: %s", old.Quantity, cur.Quantity, cur.PriceString()),
			Priority: PriorityDefault,
			Tags:     []string{"up"},
			Product:  cur,
		}, true
	default:
		return Notification{}, false
	}
}

// Added builds the notification announcing a newly tracked product. The
// title and urgency escalate with the product's current availability.
func Added(rec ProductRecord) Notification {
	n := Notification{
		Kind:      KindAdded,
		Title:     fmt.Sprintf("%s Added", rec.FullName()),
		Message:   stockSummary(rec),
		Priority:  PriorityDefault,
		ShowImage: true,
		Product:   rec,
	}
	switch rec.StatusCode {
	case StockStatusLow:
		n.Title = fmt.Sprintf("%s is LOW on stock", rec.FullName())
		n.Priority = PriorityHigh
		n.Tags = []string{"warning"}
		if rec.Quantity <= LowQuantityThreshold {
			n.Title = fmt.Sprintf("%s is ALMOST OUT of stock", rec.FullName())
			n.Priority = PriorityMax
			n.Tags = []string{"rotating_light"}
		}
	case StockStatusOut:
		n.Title = fmt.Sprintf("%s is OUT OF STOCK", rec.FullName())
		n.Priority = PriorityHigh
		n.Tags = []string{"skull"}
	}
	return n
}

func stockSummary(rec ProductRecord) string {
	return fmt.Sprintf("Price: %s, Quantity: %d, %s, %s", rec.PriceString(), rec.Quantity, rec.ColorName, rec.SizeName)
}

// NormalizeTags trims whitespace from each tag and drops empty entries. An
// early revision of the relay payload shipped a tag with a trailing tab;
// normalizing here keeps that class of defect out of the wire format.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
