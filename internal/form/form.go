// Package form renders and decodes the create/edit form of any resource.
package form

import (
	"strings"

	"maragu.dev/gomponents"
	"maragu.dev/gomponents/components"
	"maragu.dev/gomponents/html"

	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/validation"
)

// wasSuffix names the hidden input that remembers whether a checkbox or line
// item list had a value when the form was opened.
const wasSuffix = "__was"

// Props configures one form.
type Props struct {
	Lang       string
	Title      string
	Fields     []registry.Field
	Values     records.Values
	ActionURL  string
	CancelURL  string
	LinesURL   string
	APIBase    string
	Error      string
	Violations validation.Violations
}

// Render returns the form element. Fields are laid out in declaration order.
func Render(p Props) gomponents.Node {
	fields := make([]gomponents.Node, 0, len(p.Fields))
	for _, f := range p.Fields {
		fields = append(fields, fieldRow(p, f))
	}
	return html.Form(
		html.ID("record-form"),
		html.Class("record-form"),
		html.Method("post"),
		html.Action(p.ActionURL),
		html.EncType("multipart/form-data"),
		gomponents.If(p.Error != "", html.Div(html.Class("banner error"), html.Role("alert"), gomponents.Text(p.Error))),
		gomponents.Group(fields),
		html.Div(
			html.Class("form-actions"),
			html.A(html.Href(p.CancelURL), html.Class("btn"), gomponents.Text(i18n.T(p.Lang, "cancel"))),
			html.Button(html.Type("submit"), html.Class("btn btn-primary"), gomponents.Text(i18n.T(p.Lang, "save"))),
		),
	)
}

func fieldID(name string) string { return "f-" + name }

func fieldRow(p Props, f registry.Field) gomponents.Node {
	v := p.Values[f.Name]
	violation := p.Violations[f.Name]
	return html.Div(
		components.Classes{"field": true, "field-" + string(f.Kind): true, "invalid": violation != ""},
		gomponents.If(f.Kind != registry.KindCheckbox, html.Label(html.For(fieldID(f.Name)), gomponents.Text(f.Label))),
		control(p, f, v),
		gomponents.If(f.Hint != "", html.Small(html.Class("hint"), gomponents.Text(f.Hint))),
		gomponents.If(violation != "", html.Span(html.Class("violation"), gomponents.Text(i18n.T(p.Lang, violation)))),
	)
}

func control(p Props, f registry.Field, v any) gomponents.Node {
	id := fieldID(f.Name)
	switch f.Kind {
	case registry.KindText, registry.KindEmail, registry.KindDate:
		return html.Input(html.Type(string(f.Kind)), html.ID(id), html.Name(f.Name), html.Value(records.Stringify(v)))
	case registry.KindNumber:
		return html.Input(html.Type("number"), html.Step("any"), html.ID(id), html.Name(f.Name), html.Value(records.Stringify(v)))
	case registry.KindTextarea:
		text := records.Stringify(v)
		// HTML parsers drop one newline right after the start tag.
		if strings.HasPrefix(text, "\n") {
			text = "\n" + text
		}
		return html.Textarea(html.ID(id), html.Name(f.Name), html.Rows("3"), gomponents.Text(text))
	case registry.KindCheckbox:
		checked, _ := v.(bool)
		return html.Label(
			html.Class("toggle"),
			html.Input(html.Type("checkbox"), html.ID(id), html.Name(f.Name), html.Value("true"), gomponents.If(checked, html.Checked())),
			marker(f.Name, v),
			gomponents.Text(f.Label),
		)
	case registry.KindSelect:
		return selectControl(p.Lang, f, records.Stringify(v))
	case registry.KindFile:
		return html.Div(
			html.Class("file"),
			html.Input(html.Type("file"), html.ID(id), html.Name(f.Name), gomponents.If(f.Accept != "", html.Accept(f.Accept))),
			gomponents.If(f.ExistingURL != "", html.A(
				html.Href(records.ResolveURL(p.APIBase, f.ExistingURL)),
				html.Target("_blank"),
				html.Rel("noopener"),
				gomponents.Text(i18n.T(p.Lang, "current_attachment")),
			)),
		)
	case registry.KindItems:
		return RenderLines(LinesProps{
			Lang:     p.Lang,
			Field:    f,
			Lines:    records.LineItemsFrom(v),
			Present:  !records.IsEmpty(v),
			LinesURL: p.LinesURL,
		})
	}
	return html.Input(html.Type("text"), html.ID(id), html.Name(f.Name), html.Value(records.Stringify(v)))
}

func selectControl(lang string, f registry.Field, current string) gomponents.Node {
	options := make([]gomponents.Node, 0, len(f.Options)+1)
	options = append(options, html.Option(html.Value(""), gomponents.Text(i18n.T(lang, "select_placeholder"))))
	for _, o := range f.Options {
		options = append(options, html.Option(html.Value(o.Value), gomponents.If(o.Value == current, html.Selected()), gomponents.Text(o.Label)))
	}
	return html.Select(html.ID(fieldID(f.Name)), html.Name(f.Name), gomponents.Group(options))
}

// marker records whether v was filled in when the form was rendered.
func marker(name string, v any) gomponents.Node {
	present := ""
	if !records.IsEmpty(v) {
		present = "1"
	}
	return html.Input(html.Type("hidden"), html.Name(name+wasSuffix), html.Value(present))
}
