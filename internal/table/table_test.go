package table

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
)

var sample = []records.Record{
	{"id": "1", "name": "Acme Spa", "email": "info@acme.it", "notes": "cliente storico"},
	{"id": "2", "name": "Beta Srl", "email": "beta@example.com", "total_amount": json.Number("150.00")},
	{"id": "3", "name": "Gamma", "active": true, "city": nil},
}

func ids(rows []records.Record) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func TestFilter(t *testing.T) {
	cases := []struct {
		search string
		want   []string
	}{
		{"", []string{"1", "2", "3"}},
		{"ACME", []string{"1"}},
		{"storico", []string{"1"}},
		{"150", []string{"2"}},
		{"true", []string{"3"}},
		{"srl", []string{"2"}},
		{"null", []string{}},
		{"zzz", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.search, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Filter(sample, tc.search)))
		})
	}
}

func TestFilterMonotonic(t *testing.T) {
	for _, word := range []string{"acme spa", "beta@example.com", "gamma", "150.00"} {
		prev := len(sample) + 1
		for i := 0; i <= len(word); i++ {
			n := len(Filter(sample, word[:i]))
			assert.LessOrEqual(t, n, prev, "prefix %q", word[:i])
			prev = n
		}
	}
}

func TestFilterDoesNotMutate(t *testing.T) {
	in := append([]records.Record(nil), sample...)
	_ = Filter(in, "beta")
	assert.Equal(t, sample, in)
}

func render(t *testing.T, p Props) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(p).Render(&buf))
	return buf.String()
}

func TestRenderEmpty(t *testing.T) {
	cols, err := registry.ColumnsFor(registry.Clients)
	require.NoError(t, err)
	out := render(t, Props{Lang: "it", Title: "Gestione Clienti", Columns: cols})
	assert.Contains(t, out, "Gestione Clienti")
	assert.Contains(t, out, `colspan="6"`)
	assert.Contains(t, out, "Nessun dato trovato")
	assert.Contains(t, out, `placeholder="Cerca..."`)
}

func TestRenderActionsOptional(t *testing.T) {
	cols, err := registry.ColumnsFor(registry.Clients)
	require.NoError(t, err)
	p := Props{Lang: "it", Columns: cols, Records: sample[:1]}
	out := render(t, p)
	assert.Contains(t, out, "Acme Spa")
	assert.NotContains(t, out, "Modifica")
	assert.NotContains(t, out, "Elimina")

	p.EditURL = func(r records.Record) string { return "/r/clients/" + r.ID() + "/edit" }
	p.DeleteURL = func(r records.Record) string { return "/r/clients/" + r.ID() + "/delete" }
	out = render(t, p)
	assert.Contains(t, out, `href="/r/clients/1/edit"`)
	assert.Contains(t, out, `href="/r/clients/1/delete"`)
}

func TestRenderLiveSearch(t *testing.T) {
	out := render(t, Props{ID: "clients", Lang: "it", RowsURL: "/r/clients/rows", Search: "ac", Records: sample})
	assert.Contains(t, out, `hx-get="/r/clients/rows"`)
	assert.Contains(t, out, `hx-target="#clients-rows"`)
	assert.Contains(t, out, `value="ac"`)
	assert.Equal(t, 1, strings.Count(out, "data-id="))
}

func TestRowsBadge(t *testing.T) {
	cols, err := registry.ColumnsFor(registry.Clients)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Rows(Props{Columns: cols, Records: []records.Record{{"id": "1", "status": "BAD_DEBT"}}}).Render(&buf))
	assert.Contains(t, buf.String(), `class="badge badge-bad_debt"`)
	assert.Contains(t, buf.String(), "Cattivo Pagatore")
}

func TestExportXLSX(t *testing.T) {
	cols, err := registry.ColumnsFor(registry.OrdersPurchase)
	require.NoError(t, err)
	rows := []records.Record{
		{"id": "1", "number": "PO-2024-001", "supplier_name": "Forniture Srl", "total_amount": json.Number("99.90")},
	}
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, "Ordini di Acquisto", cols, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows("Ordini di Acquisto")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Numero", got[0][0])
	assert.Equal(t, "PO-2024-001", got[1][0])
	assert.Equal(t, "Forniture Srl", got[1][1])
	assert.Equal(t, "99.9", got[1][4])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", sheetName(" "))
	assert.Equal(t, "a b", sheetName("a/b"))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
