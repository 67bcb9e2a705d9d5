package watch

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func record(price string, status StockStatus, qty int) ProductRecord {
	return ProductRecord{
		URL:        "https://www.uniqlo.com/ca/en/products/E463985-000?colorCode=COL08",
		Nickname:   "puffer",
		Name:       "Ultra Light Down Jacket",
		Price:      decimal.RequireFromString(price),
		StatusCode: status,
		Quantity:   qty,
		ColorName:  "08 DARK GRAY",
		SizeName:   "M",
	}
}

func TestDiffIdenticalRecordsEmitNothing(t *testing.T) {
	t.Parallel()

	rec := record("19.99", StockStatusIn, 10)
	require.Empty(t, Diff(rec, rec))
}

func TestDiffPriceChange(t *testing.T) {
	t.Parallel()

	old := record("19.99", StockStatusIn, 10)

	drop := Diff(old, record("14.99", StockStatusIn, 10))
	require.Len(t, drop, 1)
	require.Equal(t, PriorityHigh, drop[0].Priority)
	require.Equal(t, []string{"tada"}, drop[0].Tags)
	require.Contains(t, drop[0].Message, "Price difference: -5")

	rise := Diff(old, record("24.99", StockStatusIn, 10))
	require.Len(t, rise, 1)
	require.Contains(t, rise[0].Message, "Price difference: 5")
}

func TestDiffStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		old      ProductRecord
		cur      ProductRecord
		wantTags []string
		wantIn   string
	}{
		{
			name:     "in stock to low stock",
			old:      record("19.99", StockStatusIn, 10),
			cur:      record("19.99", StockStatusLow, 4),
			wantTags: []string{"warning"},
			wantIn:   "LOW on stock",
		},
		{
			name:     "out of stock straight to low",
			old:      record("19.99", StockStatusOut, 0),
			cur:      record("19.99", StockStatusLow, 2),
			wantTags: []string{"up", "tada"},
			wantIn:   "LOW on stock",
		},
		{
			name:     "sold out",
			old:      record("19.99", StockStatusLow, 2),
			cur:      record("19.99", StockStatusOut, 0),
			wantTags: []string{"skull"},
			wantIn:   "OUT OF STOCK",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Diff(tt.old, tt.cur)
			require.Len(t, got, 1)
			require.Equal(t, PriorityHigh, got[0].Priority)
			require.Equal(t, tt.wantTags, got[0].Tags)
			require.Contains(t, got[0].Title, tt.wantIn)
		})
	}
}

func TestDiffQuantityOnlyWhileLowStock(t *testing.T) {
	t.Parallel()

	// Same delta while IN_STOCK fires nothing from the quantity rule.
	got := Diff(record("19.99", StockStatusIn, 10), record("19.99", StockStatusIn, 5))
	require.Empty(t, got)

	got = Diff(record("19.99", StockStatusLow, 5), record("19.99", StockStatusLow, 4))
	require.Len(t, got, 1)
	require.Equal(t, PriorityDefault, got[0].Priority)
	require.Equal(t, []string{"small_red_triangle_down"}, got[0].Tags)
	require.Contains(t, got[0].Message, "down from 5 to 4")
}

func TestDiffQuantityEscalatesNearZero(t *testing.T) {
	t.Parallel()

	got := Diff(record("19.99", StockStatusLow, 5), record("19.99", StockStatusLow, 3))
	require.Len(t, got, 1)
	require.Equal(t, PriorityMax, got[0].Priority)
	require.Equal(t, []string{"rotating_light"}, got[0].Tags)
	require.Contains(t, got[0].Title, "ALMOST OUT OF STOCK")
}

func TestDiffQuantityUp(t *testing.T) {
	t.Parallel()

	got := Diff(record("19.99", StockStatusLow, 2), record("19.99", StockStatusLow, 6))
	require.Len(t, got, 1)
	require.Equal(t, PriorityDefault, got[0].Priority)
	require.Equal(t, []string{"up"}, got[0].Tags)
	require.Contains(t, got[0].Message, "up from 2 to 6")
}

func TestDiffCombinedCycle(t *testing.T) {
	t.Parallel()

	// Price drop plus a fresh transition into LOW_STOCK: the quantity rule
	// stays quiet because the status just changed this cycle.
	old := record("19.99", StockStatusIn, 10)
	cur := record("14.99", StockStatusLow, 2)

	got := Diff(old, cur)
	require.Len(t, got, 2)
	require.Contains(t, got[0].Title, "Price change")
	require.Contains(t, got[0].Message, "Price difference: -5")
	require.Contains(t, got[1].Title, "LOW on stock")
	require.Equal(t, []string{"warning"}, got[1].Tags)
}

func TestAddedEscalation(t *testing.T) {
	t.Parallel()

	plain := Added(record("19.99", StockStatusIn, 10))
	require.Contains(t, plain.Title, "Added")
	require.Equal(t, PriorityDefault, plain.Priority)
	require.True(t, plain.ShowImage)

	low := Added(record("19.99", StockStatusLow, 4))
	require.Equal(t, PriorityHigh, low.Priority)
	require.Equal(t, []string{"warning"}, low.Tags)

	nearly := Added(record("19.99", StockStatusLow, 2))
	require.Equal(t, PriorityMax, nearly.Priority)
	require.Equal(t, []string{"rotating_light"}, nearly.Tags)

	gone := Added(record("19.99", StockStatusOut, 0))
	require.Equal(t, PriorityHigh, gone.Priority)
	require.Equal(t, []string{"skull"}, gone.Tags)
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	got := NormalizeTags([]string{"small_red_triangle_down\t", " up ", "", "tada"})
	require.Equal(t, []string{"small_red_triangle_down", "up", "tada"}, got)
}
