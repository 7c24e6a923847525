// Package detail renders a read-only view of one record.
package detail

import (
	"path"

	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"

	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/view"
)

const placeholder = "-"

// Entry is one labelled value. Value may be any record value; a records.Link
// renders as a hyperlink and []records.LineItem as a small table.
type Entry struct {
	Label string
	Value any
}

// EntriesFor lists the values of r in form field order, framed by id and the
// audit timestamps. Relations show their label, choices their option label,
// files a link resolved against apiBase.
func EntriesFor(lang string, key registry.Key, r records.Record, apiBase string) ([]Entry, error) {
	fields, err := registry.FieldsFor(key, nil, r)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(fields)+3)
	entries = append(entries, Entry{Label: i18n.T(lang, "field_id"), Value: r.Get("id")})
	for _, f := range fields {
		entries = append(entries, Entry{Label: f.Label, Value: value(lang, f, r, apiBase)})
	}
	entries = append(entries,
		Entry{Label: i18n.T(lang, "field_created_at"), Value: r.Get("created_at")},
		Entry{Label: i18n.T(lang, "field_updated_at"), Value: r.Get("updated_at")},
	)
	return entries, nil
}

func value(lang string, f registry.Field, r records.Record, apiBase string) any {
	if !r.Has(f.Name) {
		return nil
	}
	switch f.Kind {
	case registry.KindFile:
		raw := r.String(f.Name)
		return records.Link{URL: records.ResolveURL(apiBase, raw), Label: path.Base(raw)}
	case registry.KindCheckbox:
		if b, ok := r.Get(f.Name).(bool); ok {
			if b {
				return i18n.T(lang, "yes")
			}
			return i18n.T(lang, "no")
		}
	case registry.KindItems:
		return records.LineItemsFrom(r.Get(f.Name))
	case registry.KindSelect:
		return f.DisplayValue(r)
	}
	return r.Get(f.Name)
}

// Render returns the detail dialog. Missing values show "-".
func Render(lang, title string, entries []Entry, closeURL string) gomponents.Node {
	rows := make([]gomponents.Node, 0, 2*len(entries))
	for _, e := range entries {
		rows = append(rows,
			html.Dt(gomponents.Text(e.Label)),
			html.Dd(renderValue(lang, e.Value)),
		)
	}
	return view.Modal(title, closeURL, i18n.T(lang, "close"),
		html.Dl(html.Class("detail"), gomponents.Group(rows)),
		html.Div(html.Class("form-actions"),
			html.A(html.Href(closeURL), html.Class("btn"), gomponents.Text(i18n.T(lang, "close"))),
		),
	)
}

func renderValue(lang string, v any) gomponents.Node {
	switch val := v.(type) {
	case records.Link:
		if val.URL == "" {
			return gomponents.Text(placeholder)
		}
		label := val.Label
		if label == "" {
			label = val.URL
		}
		return html.A(html.Href(val.URL), html.Target("_blank"), html.Rel("noopener"), gomponents.Text(label))
	case []records.LineItem:
		if len(val) == 0 {
			return gomponents.Text(i18n.T(lang, "no_lines"))
		}
		return lineTable(lang, val)
	}
	if records.IsEmpty(v) {
		return gomponents.Text(placeholder)
	}
	return gomponents.Text(records.Stringify(v))
}

func lineTable(lang string, lines []records.LineItem) gomponents.Node {
	rows := make([]gomponents.Node, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, html.Tr(
			html.Td(gomponents.Text(l.Product)),
			html.Td(gomponents.Text(l.Description)),
			html.Td(html.Class("num"), gomponents.Text(l.Quantity.String())),
			html.Td(html.Class("num"), gomponents.Text(records.Money(l.UnitPrice))),
			html.Td(html.Class("num"), gomponents.Text(l.TaxRate.String()+"%")),
			html.Td(html.Class("num"), gomponents.Text(records.Money(l.Subtotal()))),
		))
	}
	totals := records.ComputeTotals(lines)
	return html.Table(
		html.Class("table lines-table"),
		html.THead(html.Tr(
			html.Th(gomponents.Text(i18n.T(lang, "product"))),
			html.Th(gomponents.Text(i18n.T(lang, "description"))),
			html.Th(gomponents.Text(i18n.T(lang, "quantity"))),
			html.Th(gomponents.Text(i18n.T(lang, "unit_price"))),
			html.Th(gomponents.Text(i18n.T(lang, "tax_rate"))),
			html.Th(gomponents.Text(i18n.T(lang, "subtotal"))),
		)),
		html.TBody(gomponents.Group(rows)),
		html.TFoot(html.Tr(
			html.Td(html.ColSpan("5"), gomponents.Text(i18n.T(lang, "total"))),
			html.Td(html.Class("num"), gomponents.Text("€ "+records.Money(totals.Total))),
		)),
	)
}
