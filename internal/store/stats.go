package store

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
)

const latestInvoices = 5

// Stats are the dashboard figures, folded from the loaded collections.
type Stats struct {
	Revenue           decimal.Decimal
	Orders            int
	OpenOpportunities int
	Purchases         decimal.Decimal
	Counts            map[registry.Key]int
	LatestInvoices    []records.Record
}

// ComputeStats derives Stats from c. Missing amounts count as zero.
func ComputeStats(c registry.Collections) Stats {
	st := Stats{Counts: make(map[registry.Key]int, len(c))}
	for _, key := range registry.Keys() {
		st.Counts[key] = len(c[key])
	}
	for _, inv := range c[registry.InvoicesSales] {
		st.Revenue = st.Revenue.Add(inv.Decimal("total_amount"))
	}
	for _, inv := range c[registry.InvoicesPurchase] {
		st.Purchases = st.Purchases.Add(inv.Decimal("total_amount"))
	}
	st.Orders = len(c[registry.OrdersSales])
	for _, o := range c[registry.Opportunities] {
		switch o.String("stage") {
		case "WON", "LOST":
		default:
			st.OpenOpportunities++
		}
	}

	invoices := append([]records.Record(nil), c[registry.InvoicesSales]...)
	sort.SliceStable(invoices, func(i, j int) bool {
		di, dj := invoices[i].String("date"), invoices[j].String("date")
		if di != dj {
			return di > dj
		}
		return invoices[i].String("number") > invoices[j].String("number")
	})
	if len(invoices) > latestInvoices {
		invoices = invoices[:latestInvoices]
	}
	st.LatestInvoices = invoices
	return st
}
