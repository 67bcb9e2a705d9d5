package poller

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

func TestChangeMarker(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", changeMarker(5, 5))
	require.Equal(t, "5 -> 3", changeMarker(5, 3))
	require.Equal(t, "3 -> 8", changeMarker(3, 8))
}

func TestPriceMarker(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", priceMarker(decimal.RequireFromString("19.99"), decimal.RequireFromString("19.99")))
	require.Equal(t, "19.99 -> 14.99", priceMarker(decimal.RequireFromString("19.99"), decimal.RequireFromString("14.99")))
}

func TestRenderReportSortsByScarcity(t *testing.T) {
	t.Parallel()

	rows := []reportRow{
		{rec: watch.ProductRecord{
			Nickname: "parka", Name: "Parka", Quantity: 12,
			Price: decimal.RequireFromString("99.90"),
		}},
		{rec: watch.ProductRecord{
			Nickname: "puffer", Name: "Jacket", Quantity: 2, IsPromo: true,
			Price: decimal.RequireFromString("49.90"),
		}, quantityChange: "5 -> 2"},
	}

	out := renderReport(rows)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Nickname")
	require.Contains(t, lines[0], "Sale")

	// Scarcest product first, with the quantity movement in the Stock column.
	require.Contains(t, lines[1], "puffer")
	require.Contains(t, lines[1], "5 -> 2")
	require.Contains(t, lines[1], "Yes")
	require.Contains(t, lines[2], "parka")
	require.Contains(t, lines[2], "12")
}

func TestRenderReportEmpty(t *testing.T) {
	t.Parallel()

	out := renderReport(nil)
	require.Contains(t, out, "Nickname")
	require.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 1)
}
