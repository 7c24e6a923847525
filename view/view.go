// Package view renders the page chrome shared by every screen: sidebar
// navigation, header, error banner and modal overlays.
package view

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/components"
	"maragu.dev/gomponents/html"

	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/registry"
)

const htmxScript = "https://unpkg.com/htmx.org@2.0.4"

// ResponseRule is one entry of htmx's responseHandling list. Code is a
// regular expression matched against the status code; the first match wins.
type ResponseRule struct {
	Code  string `json:"code"`
	Swap  bool   `json:"swap"`
	Error bool   `json:"error,omitempty"`
}

// ResponseHandling swaps the 422 form dialogs and the 404 page that the
// handlers render, on top of the htmx defaults.
var ResponseHandling = []ResponseRule{
	{Code: "204", Swap: false},
	{Code: "[23]..", Swap: true},
	{Code: "422", Swap: true},
	{Code: "404", Swap: true},
	{Code: "[45]..", Swap: false, Error: true},
	{Code: "...", Swap: false},
}

func htmxConfig() string {
	b, _ := json.Marshal(map[string]any{"responseHandling": ResponseHandling})
	return string(b)
}

var langResolver = func(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return strings.ToLower(l)
	}
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}

// SetLangResolver overrides how the UI language is picked for a request.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// Lang returns the UI language of r.
func Lang(r *http.Request) string { return langResolver(r) }

// Page is everything the layout needs besides the main content.
type Page struct {
	Lang       string
	Title      string
	Active     registry.Key
	NavOpen    bool
	Loading    bool
	Banner     string
	LastUpdate time.Time
	Content    gomponents.Node
	Overlay    gomponents.Node
}

// Layout returns the full HTML document for p.
func Layout(p Page) gomponents.Node {
	title := i18n.T(p.Lang, "app_name")
	if p.Title != "" {
		title = p.Title + " - " + title
	}
	return gomponents.Group{
		html.Doctype(html.HTML(
			html.Lang(p.Lang),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				html.TitleEl(gomponents.Text(title)),
				html.Meta(html.Name("htmx-config"), html.Content(htmxConfig())),
				html.Script(html.Src(htmxScript)),
			),
			html.Body(
				hx.Boost("true"),
				html.Div(
					html.Class("app"),
					sidebar(p),
					html.Main(
						html.Class("main"),
						header(p),
						gomponents.If(p.Banner != "", Banner(p.Banner)),
						gomponents.If(p.Loading, html.P(html.Class("loading"), html.Role("status"), gomponents.Text(i18n.T(p.Lang, "loading")))),
						p.Content,
					),
				),
				p.Overlay,
			),
		)),
	}
}

func sidebar(p Page) gomponents.Node {
	var groups []gomponents.Node
	for _, g := range registry.Navigation() {
		var items []gomponents.Node
		for _, item := range g.Items {
			items = append(items, html.Li(html.A(
				html.Href(NavURL(item.Key)),
				components.Classes{"nav-link": true, "active": item.Key == p.Active},
				gomponents.If(item.Key == p.Active, html.Aria("current", "page")),
				gomponents.Text(item.Label),
			)))
		}
		groups = append(groups, html.Div(
			html.Class("nav-group"),
			html.H3(gomponents.Text(g.Title)),
			html.Ul(gomponents.Group(items)),
		))
	}
	return html.Nav(
		html.ID("sidebar"),
		components.Classes{"sidebar": true, "open": p.NavOpen},
		html.Div(html.Class("brand"), gomponents.Text(i18n.T(p.Lang, "app_name"))),
		gomponents.If(p.NavOpen, html.A(html.Href(NavURL(p.Active)), html.Class("nav-close"), gomponents.Text(i18n.T(p.Lang, "close")))),
		gomponents.Group(groups),
	)
}

func header(p Page) gomponents.Node {
	updated := i18n.T(p.Lang, "never")
	if !p.LastUpdate.IsZero() {
		updated = p.LastUpdate.Format("02/01/2006 15:04:05")
	}
	return html.Header(
		html.Class("topbar"),
		html.A(html.Href(NavURL(p.Active)+"?nav=1"), html.Class("nav-toggle"), html.Aria("label", i18n.T(p.Lang, "menu")), gomponents.Text("☰")),
		html.H1(gomponents.Text(p.Title)),
		html.Span(html.Class("last-update"), gomponents.Text(i18n.T(p.Lang, "last_update")+": "+updated)),
		html.Form(
			html.Method("post"), html.Action("/refresh"),
			html.Input(html.Type("hidden"), html.Name("back"), html.Value(NavURL(p.Active))),
			html.Button(html.Type("submit"), html.Class("btn"), gomponents.Text(i18n.T(p.Lang, "refresh"))),
		),
	)
}

// NavURL is the address of a navigation entry.
func NavURL(key registry.Key) string {
	if key == registry.Dashboard || key == "" {
		return "/"
	}
	return "/r/" + string(key)
}

// Banner is the dismissable-by-refresh error strip.
func Banner(msg string) gomponents.Node {
	return html.Div(html.Class("banner error"), html.Role("alert"), gomponents.Text(msg))
}

// Modal wraps body in a dialog overlay with a close link to closeURL.
func Modal(title, closeURL, closeLabel string, body ...gomponents.Node) gomponents.Node {
	return html.Div(
		html.Class("modal-backdrop"),
		html.Div(
			html.Class("modal"),
			html.Role("dialog"),
			html.Aria("modal", "true"),
			html.Aria("labelledby", "modal-title"),
			html.Div(
				html.Class("modal-header"),
				html.H2(html.ID("modal-title"), gomponents.Text(title)),
				html.A(html.Href(closeURL), html.Class("modal-close"), html.Aria("label", closeLabel), gomponents.Text("×")),
			),
			html.Div(html.Class("modal-body"), gomponents.Group(body)),
		),
	)
}

// Render writes n as an HTML response with the given status.
func Render(w http.ResponseWriter, status int, n gomponents.Node, log *zerolog.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := n.Render(w); err != nil && log != nil {
		log.Error().Err(err).Msg("render failed")
	}
}
