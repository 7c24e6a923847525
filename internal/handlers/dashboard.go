package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"

	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/internal/store"
	"github.com/diewo77/nexus-crm/view"
)

// Dashboard shows the figures folded from the cached collections.
func (h *CRMHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	lang := view.Lang(r)
	st := h.shell.State(registry.Dashboard, false).Snapshot.Stats
	h.page(w, r, http.StatusOK, registry.Dashboard, i18n.T(lang, "dashboard"), dashboardContent(lang, st), nil)
}

func dashboardContent(lang string, st store.Stats) gomponents.Node {
	return html.Div(
		html.Class("dashboard"),
		html.Div(
			html.Class("widgets"),
			widget("revenue", i18n.T(lang, "revenue"), euro(st.Revenue)),
			widget("orders", i18n.T(lang, "orders"), strconv.Itoa(st.Orders)),
			widget("open-opportunities", i18n.T(lang, "open_opportunities"), strconv.Itoa(st.OpenOpportunities)),
			widget("purchases", i18n.T(lang, "purchases"), euro(st.Purchases)),
		),
		html.Section(
			html.Class("card"),
			html.H2(gomponents.Text(i18n.T(lang, "records_count"))),
			countList(st.Counts),
		),
		html.Section(
			html.Class("card"),
			html.H2(gomponents.Text(i18n.T(lang, "latest_invoices"))),
			latestInvoices(lang, st.LatestInvoices),
		),
	)
}

func widget(id, label, value string) gomponents.Node {
	return html.Div(
		html.Class("card widget"),
		html.ID("stat-"+id),
		html.Span(html.Class("widget-label"), gomponents.Text(label)),
		html.Strong(html.Class("widget-value"), gomponents.Text(value)),
	)
}

func euro(d decimal.Decimal) string { return "€ " + records.Money(d) }

func countList(counts map[registry.Key]int) gomponents.Node {
	items := make([]gomponents.Node, 0, len(counts))
	for _, key := range registry.Keys() {
		def, _ := registry.Lookup(key)
		items = append(items, html.Li(
			html.A(html.Href(view.NavURL(key)), gomponents.Text(def.Label)),
			html.Span(html.Class("count"), gomponents.Text(strconv.Itoa(counts[key]))),
		))
	}
	return html.Ul(html.Class("counts"), gomponents.Group(items))
}

func latestInvoices(lang string, invoices []records.Record) gomponents.Node {
	if len(invoices) == 0 {
		return html.P(html.Class("empty"), gomponents.Text(i18n.T(lang, "empty_table")))
	}
	columns, _ := registry.ColumnsFor(registry.InvoicesSales)
	head := make([]gomponents.Node, 0, len(columns))
	for _, c := range columns {
		head = append(head, html.Th(gomponents.Attr("scope", "col"), gomponents.Text(c.Header)))
	}
	rows := make([]gomponents.Node, 0, len(invoices))
	for _, inv := range invoices {
		cells := make([]gomponents.Node, 0, len(columns))
		for i, c := range columns {
			text := gomponents.Text(c.Value(inv))
			if i == 0 {
				text = html.A(html.Href(recordURL(registry.InvoicesSales, inv.ID())), text)
			}
			cells = append(cells, html.Td(text))
		}
		rows = append(rows, html.Tr(gomponents.Group(cells)))
	}
	return html.Table(
		html.Class("table"),
		html.THead(html.Tr(gomponents.Group(head))),
		html.TBody(gomponents.Group(rows)),
	)
}
