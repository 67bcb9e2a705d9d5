package poller

import (
	"bytes"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/JakeFAU/stockwatch/internal/watch"
)

// reportRow is one line of the per-cycle status table. The change markers
// show this cycle's movement ("5 -> 3") in place of the plain value.
type reportRow struct {
	rec            watch.ProductRecord
	quantityChange string
	priceChange    string
}

func changeMarker(oldQty, newQty int) string {
	if oldQty == newQty {
		return ""
	}
	return fmt.Sprintf("%d -> %d", oldQty, newQty)
}

func priceMarker(oldPrice, newPrice decimal.Decimal) string {
	if oldPrice.Equal(newPrice) {
		return ""
	}
	return fmt.Sprintf("%s -> %s", oldPrice, newPrice)
}

// renderReport renders the snapshot table sorted by quantity, scarcest
// products first.
func renderReport(rows []reportRow) string {
	sorted := make([]reportRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].rec.Quantity < sorted[j].rec.Quantity
	})

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Nickname\tName\tStock\tPrice\tSale\tColor\tSize\tURL")
	for _, row := range sorted {
		stock := row.quantityChange
		if stock == "" {
			stock = fmt.Sprintf("%d", row.rec.Quantity)
		}
		price := row.priceChange
		if price == "" {
			price = row.rec.Price.String()
		}
		sale := ""
		if row.rec.IsPromo {
			sale = "Yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.rec.Nickname,
			row.rec.Name,
			stock,
			price,
			sale,
			row.rec.ColorName,
			row.rec.SizeName,
			row.rec.URL,
		)
	}
	w.Flush()
	return buf.String()
}
