// Package table renders a searchable list of records for any resource.
package table

import (
	"net/url"
	"strconv"
	"strings"

	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"

	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
)

// Filter keeps the records where any field value, in string form, contains
// search case-insensitively. All fields are searched, not only the displayed
// columns. An empty search returns rows unchanged.
func Filter(rows []records.Record, search string) []records.Record {
	if search == "" {
		return rows
	}
	needle := strings.ToLower(search)
	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		if matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r records.Record, needle string) bool {
	for _, v := range r {
		if strings.Contains(strings.ToLower(records.Stringify(v)), needle) {
			return true
		}
	}
	return false
}

// Props configures one table. The URL funcs are optional: a nil func hides
// the matching row action.
type Props struct {
	ID        string
	Lang      string
	Title     string
	Columns   []registry.Column
	Records   []records.Record
	Search    string
	AddURL    string
	RowsURL   string
	ExportURL string
	ViewURL   func(records.Record) string
	EditURL   func(records.Record) string
	DeleteURL func(records.Record) string
}

func (p Props) bodyID() string {
	if p.ID == "" {
		return "rows"
	}
	return p.ID + "-rows"
}

// Render returns the titled table with its search box and toolbar.
func Render(p Props) gomponents.Node {
	headers := make([]gomponents.Node, 0, len(p.Columns)+1)
	for _, c := range p.Columns {
		headers = append(headers, html.Th(gomponents.Attr("scope", "col"), gomponents.Text(c.Header)))
	}
	headers = append(headers, html.Th(gomponents.Attr("scope", "col"), html.Class("actions"), gomponents.Text(i18n.T(p.Lang, "actions"))))

	return html.Section(
		html.Class("card table-card"),
		gomponents.If(p.ID != "", html.ID(p.ID)),
		html.Div(
			html.Class("toolbar"),
			html.H2(gomponents.Text(p.Title)),
			html.Form(
				html.Class("search"),
				html.Method("get"),
				html.Role("search"),
				html.Input(
					html.Type("search"),
					html.Name("q"),
					html.Value(p.Search),
					html.Placeholder(i18n.T(p.Lang, "search")),
					html.AutoComplete("off"),
					gomponents.If(p.RowsURL != "", gomponents.Group{
						hx.Get(p.RowsURL),
						hx.Trigger("input changed delay:200ms, search"),
						hx.Target("#" + p.bodyID()),
						hx.Swap("innerHTML"),
					}),
				),
			),
			gomponents.If(p.ExportURL != "", html.A(html.Class("btn"), html.Href(exportHref(p.ExportURL, p.Search)), gomponents.Text(i18n.T(p.Lang, "export")))),
			gomponents.If(p.AddURL != "", html.A(html.Class("btn btn-primary"), html.Href(p.AddURL), gomponents.Text("+ "+i18n.T(p.Lang, "new")))),
		),
		html.Table(
			html.Class("table"),
			html.THead(html.Tr(gomponents.Group(headers))),
			html.TBody(html.ID(p.bodyID()), Rows(p)),
		),
	)
}

// Rows renders the table body content for the filtered records. The search
// box swaps this fragment on every keystroke.
func Rows(p Props) gomponents.Node {
	rows := Filter(p.Records, p.Search)
	if len(rows) == 0 {
		return html.Tr(html.Td(
			html.ColSpan(strconv.Itoa(len(p.Columns)+1)),
			html.Class("empty"),
			gomponents.Text(i18n.T(p.Lang, "empty_table")),
		))
	}
	out := make(gomponents.Group, 0, len(rows))
	for _, r := range rows {
		out = append(out, row(p, r))
	}
	return out
}

func row(p Props, r records.Record) gomponents.Node {
	cells := make([]gomponents.Node, 0, len(p.Columns)+1)
	for _, c := range p.Columns {
		cells = append(cells, cell(c, r))
	}
	var actions []gomponents.Node
	if p.ViewURL != nil {
		actions = append(actions, html.A(html.Href(p.ViewURL(r)), html.Class("btn-icon"), gomponents.Text(i18n.T(p.Lang, "view"))))
	}
	if p.EditURL != nil {
		actions = append(actions, html.A(html.Href(p.EditURL(r)), html.Class("btn-icon"), gomponents.Text(i18n.T(p.Lang, "edit"))))
	}
	if p.DeleteURL != nil {
		actions = append(actions, html.A(html.Href(p.DeleteURL(r)), html.Class("btn-icon danger"), gomponents.Text(i18n.T(p.Lang, "delete"))))
	}
	cells = append(cells, html.Td(html.Class("actions"), gomponents.Group(actions)))
	return html.Tr(html.Data("id", r.ID()), gomponents.Group(cells))
}

func cell(c registry.Column, r records.Record) gomponents.Node {
	v := c.Value(r)
	switch c.Style {
	case registry.StyleBadge:
		if v == "" {
			return html.Td()
		}
		return html.Td(html.Span(html.Class("badge badge-"+strings.ToLower(r.String(c.Accessor))), gomponents.Text(v)))
	case registry.StyleMoney:
		return html.Td(html.Class("num"), gomponents.Text(v))
	}
	return html.Td(gomponents.Text(v))
}

func exportHref(base, search string) string {
	if search == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "q=" + url.QueryEscape(search)
}
