package handlers

import (
	"net/http"
	"strings"

	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"

	"github.com/diewo77/nexus-crm/httpx"
	"github.com/diewo77/nexus-crm/i18n"
	"github.com/diewo77/nexus-crm/internal/detail"
	"github.com/diewo77/nexus-crm/internal/form"
	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/view"
)

// formDialog renders props as a modal over the table of def.
func (h *CRMHandler) formDialog(w http.ResponseWriter, r *http.Request, status int, def *registry.Definition, props form.Props) {
	lang := view.Lang(r)
	props.Lang = lang
	props.CancelURL = listURL(def.Key)
	props.LinesURL = listURL(def.Key) + "/lines"
	props.APIBase = h.apiBase
	overlay := view.Modal(props.Title, props.CancelURL, i18n.T(lang, "close"), form.Render(props))
	h.listPage(w, r, status, def, overlay)
}

// New opens the create form with declared defaults.
func (h *CRMHandler) New(w http.ResponseWriter, r *http.Request) {
	def, err := h.shell.Definition(r.PathValue("key"))
	if err != nil {
		h.fail(w, r, "", err)
		return
	}
	fields, err := registry.FieldsFor(def.Key, h.shell.Related(), nil)
	if err != nil {
		h.fail(w, r, def.Key, err)
		return
	}
	h.formDialog(w, r, http.StatusOK, def, form.Props{
		Title:     i18n.Tf(view.Lang(r), "new_title", def.Singular),
		Fields:    fields,
		Values:    registry.InitialValues(fields, nil),
		ActionURL: listURL(def.Key),
	})
}

// Create submits the create form. Invalid input or a backend failure keeps
// the form open with the entered values.
func (h *CRMHandler) Create(w http.ResponseWriter, r *http.Request) {
	def, err := h.shell.Definition(r.PathValue("key"))
	if err != nil {
		h.fail(w, r, "", err)
		return
	}
	fields, err := registry.FieldsFor(def.Key, h.shell.Related(), nil)
	if err != nil {
		h.fail(w, r, def.Key, err)
		return
	}
	props := form.Props{
		Title:     i18n.Tf(view.Lang(r), "new_title", def.Singular),
		Fields:    fields,
		ActionURL: listURL(def.Key),
	}
	h.submit(w, r, def, props, func(values records.Values) error {
		_, err := h.shell.Create(r.Context(), def, values)
		return err
	})
}

// Edit opens the edit form filled with the cached record.
func (h *CRMHandler) Edit(w http.ResponseWriter, r *http.Request) {
	def, rec, err := h.shell.Find(r.PathValue("key"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, keyOf(def), err)
		return
	}
	fields, err := registry.FieldsFor(def.Key, h.shell.Related(), rec)
	if err != nil {
		h.fail(w, r, def.Key, err)
		return
	}
	h.formDialog(w, r, http.StatusOK, def, form.Props{
		Title:     i18n.Tf(view.Lang(r), "edit_title", def.Singular),
		Fields:    fields,
		Values:    registry.InitialValues(fields, rec),
		ActionURL: recordURL(def.Key, rec.ID()),
	})
}

// Update submits the edit form.
func (h *CRMHandler) Update(w http.ResponseWriter, r *http.Request) {
	def, rec, err := h.shell.Find(r.PathValue("key"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, keyOf(def), err)
		return
	}
	fields, err := registry.FieldsFor(def.Key, h.shell.Related(), rec)
	if err != nil {
		h.fail(w, r, def.Key, err)
		return
	}
	props := form.Props{
		Title:     i18n.Tf(view.Lang(r), "edit_title", def.Singular),
		Fields:    fields,
		ActionURL: recordURL(def.Key, rec.ID()),
	}
	id := rec.ID()
	h.submit(w, r, def, props, func(values records.Values) error {
		_, err := h.shell.Update(r.Context(), def, id, values)
		return err
	})
}

// submit decodes the posted form and hands the values to save. On success
// the client goes back to the table.
func (h *CRMHandler) submit(w http.ResponseWriter, r *http.Request, def *registry.Definition, props form.Props, save func(records.Values) error) {
	values, violations, err := form.Decode(r, props.Fields)
	if err != nil {
		h.log.Warn().Err(err).Str("resource", string(def.Key)).Msg("bad form submission")
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	props.Values = values
	if !violations.Empty() {
		props.Violations = violations
		h.formDialog(w, r, http.StatusUnprocessableEntity, def, props)
		return
	}
	if err := save(values); err != nil {
		h.log.Warn().Err(err).Str("resource", string(def.Key)).Msg("save failed")
		props.Error = i18n.T(view.Lang(r), "save_error") + ": " + err.Error()
		h.formDialog(w, r, http.StatusUnprocessableEntity, def, props)
		return
	}
	httpx.Redirect(w, r, listURL(def.Key))
}

// View opens the read-only detail dialog.
func (h *CRMHandler) View(w http.ResponseWriter, r *http.Request) {
	def, rec, err := h.shell.Find(r.PathValue("key"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, keyOf(def), err)
		return
	}
	lang := view.Lang(r)
	entries, err := detail.EntriesFor(lang, def.Key, rec, h.apiBase)
	if err != nil {
		h.fail(w, r, def.Key, err)
		return
	}
	overlay := detail.Render(lang, i18n.Tf(lang, "detail_title", def.Singular), entries, listURL(def.Key))
	h.listPage(w, r, http.StatusOK, def, overlay)
}

// ConfirmDelete asks before deleting. Nothing is sent to the backend.
func (h *CRMHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	def, rec, err := h.shell.Find(r.PathValue("key"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, keyOf(def), err)
		return
	}
	h.listPage(w, r, http.StatusOK, def, h.confirmDialog(r, def, rec, ""))
}

// Delete removes the record only when the dialog was answered with
// confirm=yes. Any other answer closes the dialog without a backend call.
func (h *CRMHandler) Delete(w http.ResponseWriter, r *http.Request) {
	def, rec, err := h.shell.Find(r.PathValue("key"), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, keyOf(def), err)
		return
	}
	if r.FormValue("confirm") != "yes" {
		httpx.Redirect(w, r, listURL(def.Key))
		return
	}
	if err := h.shell.Delete(r.Context(), def, rec.ID()); err != nil {
		h.log.Warn().Err(err).Str("resource", string(def.Key)).Str("id", rec.ID()).Msg("delete failed")
		msg := i18n.T(view.Lang(r), "delete_error") + ": " + err.Error()
		h.listPage(w, r, http.StatusUnprocessableEntity, def, h.confirmDialog(r, def, rec, msg))
		return
	}
	httpx.Redirect(w, r, listURL(def.Key))
}

func (h *CRMHandler) confirmDialog(r *http.Request, def *registry.Definition, rec records.Record, errMsg string) gomponents.Node {
	lang := view.Lang(r)
	cancel := listURL(def.Key)
	return view.Modal(i18n.T(lang, "confirm_delete_title"), cancel, i18n.T(lang, "close"),
		gomponents.If(errMsg != "", view.Banner(errMsg)),
		html.P(gomponents.Text(i18n.Tf(lang, "confirm_delete", def.Singular+" "+displayName(rec)))),
		html.Form(
			html.Method("post"),
			html.Action(recordURL(def.Key, rec.ID())+"/delete"),
			html.Class("form-actions"),
			html.A(html.Href(cancel), html.Class("btn"), gomponents.Text(i18n.T(lang, "cancel"))),
			html.Button(
				html.Type("submit"), html.Name("confirm"), html.Value("yes"),
				html.Class("btn btn-danger"),
				gomponents.Text(i18n.T(lang, "confirm_yes")),
			),
		),
	)
}

// Lines re-renders a line item editor after add, remove or recalc. Nothing
// is persisted.
func (h *CRMHandler) Lines(w http.ResponseWriter, r *http.Request) {
	def, err := h.shell.Definition(r.PathValue("key"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	name, op, index, lines, err := form.DecodeLines(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_lines", err.Error())
		return
	}
	fields, err := registry.FieldsFor(def.Key, nil, nil)
	if err != nil {
		h.fail(w, r, def.Key, err)
		return
	}
	for _, f := range fields {
		if f.Name != name || f.Kind != registry.KindItems {
			continue
		}
		view.Render(w, http.StatusOK, form.RenderLines(form.LinesProps{
			Lang:     view.Lang(r),
			Field:    f,
			Lines:    form.ApplyLinesOp(lines, op, index),
			Present:  r.PostForm.Get(name+"__was") != "",
			LinesURL: listURL(def.Key) + "/lines",
		}), &h.log)
		return
	}
	httpx.JSONError(w, http.StatusBadRequest, "invalid_lines", "no line item field "+name)
}

func keyOf(def *registry.Definition) registry.Key {
	if def == nil {
		return ""
	}
	return def.Key
}

// displayName picks the most recognisable text of rec for prompts.
func displayName(rec records.Record) string {
	for _, f := range []string{"name", "number", "title"} {
		if v := rec.String(f); v != "" {
			return v
		}
	}
	if first, last := rec.String("first_name"), rec.String("last_name"); first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	return rec.ID()
}
