package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"maragu.dev/gomponents"

	"github.com/diewo77/nexus-crm/httpx"
	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/internal/shell"
	"github.com/diewo77/nexus-crm/internal/table"
	"github.com/diewo77/nexus-crm/view"
)

// CRMHandler serves the dashboard, the resource tables and every dialog
// opened from them.
type CRMHandler struct {
	shell   *shell.Shell
	apiBase string
	log     zerolog.Logger
}

func NewCRMHandler(sh *shell.Shell, apiBase string, log zerolog.Logger) *CRMHandler {
	return &CRMHandler{shell: sh, apiBase: apiBase, log: log}
}

func listURL(key registry.Key) string { return view.NavURL(key) }

func recordURL(key registry.Key, id string) string {
	return "/r/" + string(key) + "/" + id
}

// page renders content inside the layout. The banner shows the last load
// error, if any.
func (h *CRMHandler) page(w http.ResponseWriter, r *http.Request, status int, active registry.Key, title string, content, overlay gomponents.Node) {
	lang := view.Lang(r)
	st := h.shell.State(active, r.URL.Query().Get("nav") == "1")
	banner := ""
	if st.LoadError != nil {
		banner = i18n.T(lang, "load_error") + ": " + st.LoadError.Error()
	}
	view.Render(w, status, view.Layout(view.Page{
		Lang:       lang,
		Title:      title,
		Active:     active,
		NavOpen:    st.NavOpen,
		Loading:    st.Loading,
		Banner:     banner,
		LastUpdate: st.Snapshot.LoadedAt,
		Content:    content,
		Overlay:    overlay,
	}), &h.log)
}

// fail renders the 404 page for a missing resource or record, anything
// else as a 500.
func (h *CRMHandler) fail(w http.ResponseWriter, r *http.Request, active registry.Key, err error) {
	lang := view.Lang(r)
	status, code := http.StatusInternalServerError, "load_error"
	switch {
	case errors.Is(err, shell.ErrUnknownResource):
		status, code = http.StatusNotFound, "unknown_resource"
	case errors.Is(err, shell.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	msg := i18n.T(lang, code)
	h.page(w, r, status, active, msg, view.Banner(msg), nil)
}

// tableProps describes the table of def filtered by search.
func (h *CRMHandler) tableProps(r *http.Request, def *registry.Definition, search string) table.Props {
	base := listURL(def.Key)
	return table.Props{
		ID:        string(def.Key),
		Lang:      view.Lang(r),
		Title:     def.Title,
		Columns:   def.Columns,
		Records:   h.shell.State(def.Key, false).Snapshot.Records(def.Key),
		Search:    search,
		AddURL:    base + "/new",
		RowsURL:   base + "/rows",
		ExportURL: base + "/export.xlsx",
		ViewURL:   func(rec records.Record) string { return recordURL(def.Key, rec.ID()) },
		EditURL:   func(rec records.Record) string { return recordURL(def.Key, rec.ID()) + "/edit" },
		DeleteURL: func(rec records.Record) string { return recordURL(def.Key, rec.ID()) + "/delete" },
	}
}

// listPage renders the table of def with an optional dialog on top.
func (h *CRMHandler) listPage(w http.ResponseWriter, r *http.Request, status int, def *registry.Definition, overlay gomponents.Node) {
	search := r.URL.Query().Get("q")
	h.page(w, r, status, def.Key, def.Title, table.Render(h.tableProps(r, def, search)), overlay)
}

// List serves GET /r/{key}.
func (h *CRMHandler) List(w http.ResponseWriter, r *http.Request) {
	def, err := h.shell.Definition(r.PathValue("key"))
	if err != nil {
		h.fail(w, r, "", err)
		return
	}
	h.listPage(w, r, http.StatusOK, def, nil)
}

// Rows serves the table body fragment the search box swaps in.
func (h *CRMHandler) Rows(w http.ResponseWriter, r *http.Request) {
	def, err := h.shell.Definition(r.PathValue("key"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	search := r.URL.Query().Get("q")
	view.Render(w, http.StatusOK, table.Rows(h.tableProps(r, def, search)), &h.log)
}

// Export streams the filtered table as an XLSX workbook.
func (h *CRMHandler) Export(w http.ResponseWriter, r *http.Request) {
	def, err := h.shell.Definition(r.PathValue("key"))
	if err != nil {
		h.fail(w, r, "", err)
		return
	}
	rows := table.Filter(h.shell.State(def.Key, false).Snapshot.Records(def.Key), r.URL.Query().Get("q"))
	w.Header().Set("Content-Type", table.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(def.Key)+`.xlsx"`)
	if err := table.ExportXLSX(w, def.Title, def.Columns, rows); err != nil {
		h.log.Error().Err(err).Str("resource", string(def.Key)).Msg("export failed")
	}
}

// Refresh reloads every collection and goes back to the page it came from.
// A failed load shows up in the banner.
func (h *CRMHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	_ = h.shell.Refresh(r.Context())
	back := r.FormValue("back")
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = "/"
	}
	httpx.Redirect(w, r, back)
}

// Healthz reports whether the server is up and has loaded data once.
func (h *CRMHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	st := h.shell.State("", false)
	resp := map[string]any{
		"status": "ok",
		"loaded": !st.Snapshot.LoadedAt.IsZero(),
	}
	if st.LoadError != nil {
		resp["error"] = st.LoadError.Error()
	}
	httpx.JSON(w, http.StatusOK, resp)
}
