package form

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"

	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
)

// Line item sub-field names. Inputs are named "<field>.<column>", one value
// per row, in row order.
const (
	colProduct     = "product"
	colDescription = "description"
	colQuantity    = "quantity"
	colUnitPrice   = "unit_price"
	colTaxRate     = "tax_rate"
)

// Line editor operations posted to the lines endpoint.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpRecalc = "recalc"
)

// LinesProps configures the line item editor.
type LinesProps struct {
	Lang     string
	Field    registry.Field
	Lines    []records.LineItem
	Present  bool
	LinesURL string
}

// LinesID is the element id of the editor of field, the htmx swap target.
func LinesID(field string) string { return "lines-" + field }

// RenderLines returns the editable rows of a line item field with live
// Subtotale / IVA / Totale.
func RenderLines(p LinesProps) gomponents.Node {
	name := p.Field.Name
	rows := make([]gomponents.Node, 0, len(p.Lines))
	for i, l := range p.Lines {
		rows = append(rows, lineRow(p, i, l))
	}
	if len(rows) == 0 {
		rows = append(rows, html.Tr(html.Td(html.ColSpan("7"), html.Class("empty"), gomponents.Text(i18n.T(p.Lang, "no_lines")))))
	}
	totals := records.ComputeTotals(p.Lines)
	present := ""
	if p.Present || len(p.Lines) > 0 {
		present = "1"
	}
	return html.Div(
		html.ID(LinesID(name)),
		html.Class("lines"),
		gomponents.If(p.LinesURL != "", gomponents.Group{
			hx.Post(p.LinesURL),
			hx.Trigger("change"),
			hx.Target("this"),
			hx.Swap("outerHTML"),
			hx.Include("closest form"),
			vals(name, OpRecalc, -1),
		}),
		html.Input(html.Type("hidden"), html.Name(name+wasSuffix), html.Value(present)),
		html.Table(
			html.Class("table lines-table"),
			html.THead(html.Tr(
				html.Th(gomponents.Text(i18n.T(p.Lang, "product"))),
				html.Th(gomponents.Text(i18n.T(p.Lang, "description"))),
				html.Th(gomponents.Text(i18n.T(p.Lang, "quantity"))),
				html.Th(gomponents.Text(i18n.T(p.Lang, "unit_price"))),
				html.Th(gomponents.Text(i18n.T(p.Lang, "tax_rate"))),
				html.Th(gomponents.Text(i18n.T(p.Lang, "subtotal"))),
				html.Th(),
			)),
			html.TBody(gomponents.Group(rows)),
		),
		html.Button(
			html.Type("button"),
			html.Class("btn"),
			gomponents.If(p.LinesURL != "", gomponents.Group{
				hx.Post(p.LinesURL),
				hx.Target("#" + LinesID(name)),
				hx.Swap("outerHTML"),
				hx.Include("closest form"),
				vals(name, OpAdd, -1),
			}),
			gomponents.Text("+ "+i18n.T(p.Lang, "add_line")),
		),
		html.Dl(
			html.Class("totals"),
			html.Dt(gomponents.Text(i18n.T(p.Lang, "subtotal"))), html.Dd(gomponents.Text(money(totals.Subtotal))),
			html.Dt(gomponents.Text(i18n.T(p.Lang, "tax"))), html.Dd(gomponents.Text(money(totals.Tax))),
			html.Dt(gomponents.Text(i18n.T(p.Lang, "total"))), html.Dd(html.Strong(gomponents.Text(money(totals.Total)))),
		),
	)
}

func lineRow(p LinesProps, i int, l records.LineItem) gomponents.Node {
	name := p.Field.Name
	input := func(col, typ, value string) gomponents.Node {
		return html.Td(html.Input(
			html.Type(typ),
			html.Name(name+"."+col),
			html.Value(value),
			gomponents.If(typ == "number", html.Step("any")),
		))
	}
	return html.Tr(
		input(colProduct, "text", l.Product),
		input(colDescription, "text", l.Description),
		input(colQuantity, "number", l.Quantity.String()),
		input(colUnitPrice, "number", l.UnitPrice.String()),
		input(colTaxRate, "number", l.TaxRate.String()),
		html.Td(html.Class("num"), gomponents.Text(money(l.Subtotal()))),
		html.Td(html.Button(
			html.Type("button"),
			html.Class("btn-icon danger"),
			gomponents.If(p.LinesURL != "", gomponents.Group{
				hx.Post(p.LinesURL),
				hx.Target("#" + LinesID(name)),
				hx.Swap("outerHTML"),
				hx.Include("closest form"),
				vals(name, OpRemove, i),
			}),
			gomponents.Text(i18n.T(p.Lang, "remove_line")),
		)),
	)
}

func vals(field, op string, index int) gomponents.Node {
	v := map[string]string{"field": field, "op": op}
	if index >= 0 {
		v["index"] = strconv.Itoa(index)
	}
	b, _ := json.Marshal(v)
	return gomponents.Attr("hx-vals", string(b))
}

func money(d decimal.Decimal) string { return "€ " + records.Money(d) }

// ApplyLinesOp returns the lines after op. Unknown ops and out of range
// indexes leave the lines unchanged. The input slice is never modified.
func ApplyLinesOp(lines []records.LineItem, op string, index int) []records.LineItem {
	out := make([]records.LineItem, 0, len(lines)+1)
	out = append(out, lines...)
	switch op {
	case OpAdd:
		out = append(out, records.NewLineItem())
	case OpRemove:
		if index >= 0 && index < len(out) {
			out = append(out[:index], out[index+1:]...)
		}
	}
	return out
}

// decodeLines rebuilds the line items of field from submitted form values.
// It reports whether any numeric cell failed to parse; such cells count as
// zero.
func decodeLines(form url.Values, field string) ([]records.LineItem, bool) {
	col := func(c string) []string { return form[field+"."+c] }
	products, descriptions := col(colProduct), col(colDescription)
	quantities, prices, rates := col(colQuantity), col(colUnitPrice), col(colTaxRate)

	n := max(len(products), len(descriptions), len(quantities), len(prices), len(rates))
	lines := make([]records.LineItem, 0, n)
	invalid := false
	at := func(vals []string, i int) string {
		if i < len(vals) {
			return vals[i]
		}
		return ""
	}
	num := func(vals []string, i int) decimal.Decimal {
		s := at(vals, i)
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			invalid = true
			return decimal.Zero
		}
		return d
	}
	for i := 0; i < n; i++ {
		lines = append(lines, records.LineItem{
			Product:     at(products, i),
			Description: at(descriptions, i),
			Quantity:    num(quantities, i),
			UnitPrice:   num(prices, i),
			TaxRate:     num(rates, i),
		})
	}
	return lines, invalid
}
