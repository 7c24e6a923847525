package form

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhtml "golang.org/x/net/html"

	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/validation"
)

func renderString(t *testing.T, p Props) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(p).Render(&buf))
	return buf.String()
}

// submitted returns what a browser would post for the rendered form when the
// user changes nothing.
func submitted(t *testing.T, page string) url.Values {
	t.Helper()
	doc, err := xhtml.Parse(strings.NewReader(page))
	require.NoError(t, err)
	out := url.Values{}
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode {
			attr := func(key string) (string, bool) {
				for _, a := range n.Attr {
					if a.Key == key {
						return a.Val, true
					}
				}
				return "", false
			}
			name, named := attr("name")
			switch {
			case !named:
			case n.Data == "input":
				typ, _ := attr("type")
				value, _ := attr("value")
				switch typ {
				case "file":
				case "checkbox":
					if _, on := attr("checked"); on {
						out.Add(name, value)
					}
				default:
					out.Add(name, value)
				}
			case n.Data == "textarea":
				text := ""
				if n.FirstChild != nil {
					text = n.FirstChild.Data
				}
				out.Add(name, text)
			case n.Data == "select":
				first, chosen := "", ""
				seen, picked := false, false
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type != xhtml.ElementNode || c.Data != "option" {
						continue
					}
					var v string
					var sel bool
					for _, a := range c.Attr {
						if a.Key == "value" {
							v = a.Val
						}
						if a.Key == "selected" {
							sel = true
						}
					}
					if !seen {
						first, seen = v, true
					}
					if sel && !picked {
						chosen, picked = v, true
					}
				}
				if !picked {
					chosen = first
				}
				out.Add(name, chosen)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func post(t *testing.T, form url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/r/x", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestRenderEveryKind(t *testing.T) {
	var fields []registry.Field
	for _, k := range registry.Kinds() {
		f := registry.Field{Name: "f_" + string(k), Label: "L " + string(k), Kind: k}
		if k == registry.KindSelect {
			f.Options = []registry.Option{{Value: "A", Label: "Alpha"}}
		}
		fields = append(fields, f)
	}
	out := renderString(t, Props{Lang: "it", Fields: fields, Values: registry.InitialValues(fields, nil), ActionURL: "/r/x"})

	assert.Contains(t, out, `type="text" id="f-f_text"`)
	assert.Contains(t, out, `type="email" id="f-f_email"`)
	assert.Contains(t, out, `type="number" step="any" id="f-f_number"`)
	assert.Contains(t, out, `type="date" id="f-f_date"`)
	assert.Contains(t, out, `type="checkbox" id="f-f_checkbox"`)
	assert.Contains(t, out, `<select id="f-f_select"`)
	assert.Contains(t, out, `<option value="">Seleziona...</option>`)
	assert.Contains(t, out, `type="file" id="f-f_file"`)
	assert.Contains(t, out, `id="lines-f_items"`)
	assert.Contains(t, out, `<textarea id="f-f_textarea"`)
	for _, k := range registry.Kinds() {
		assert.Contains(t, out, "L "+string(k))
	}
	assert.Contains(t, out, "Salva")
	assert.Contains(t, out, "Annulla")
}

func TestRenderErrorAndViolations(t *testing.T) {
	fields := []registry.Field{{Name: "total_amount", Label: "Totale", Kind: registry.KindNumber}}
	out := renderString(t, Props{
		Lang:       "it",
		Fields:     fields,
		Values:     records.Values{"total_amount": "12,5"},
		Error:      "POST /purchases/orders/ failed: 400",
		Violations: validation.Violations{"total_amount": "invalid_number"},
	})
	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "failed: 400")
	assert.Contains(t, out, "Numero non valido")
	assert.Contains(t, out, `value="12,5"`)
}

func TestRenderExistingAttachment(t *testing.T) {
	fields := []registry.Field{{Name: "attachment", Label: "Allegato", Kind: registry.KindFile, ExistingURL: "/media/a.pdf"}}
	out := renderString(t, Props{Lang: "it", Fields: fields, Values: records.Values{}, APIBase: "http://backend:8000/api"})
	assert.Contains(t, out, `href="http://backend:8000/media/a.pdf"`)
	assert.Contains(t, out, "Visualizza allegato corrente")
}

func TestSelectMarksCurrent(t *testing.T) {
	f := registry.Field{Name: "status", Kind: registry.KindSelect, Options: []registry.Option{{Value: "A", Label: "a"}, {Value: "B", Label: "b"}}}
	out := renderString(t, Props{Fields: []registry.Field{f}, Values: records.Values{"status": "B"}})
	assert.Contains(t, out, `<option value="B" selected>b</option>`)
	assert.Equal(t, "B", submitted(t, out).Get("status"))
}

func TestDecodeKinds(t *testing.T) {
	fields := []registry.Field{
		{Name: "name", Kind: registry.KindText},
		{Name: "amount", Kind: registry.KindNumber},
		{Name: "bad", Kind: registry.KindNumber},
		{Name: "day", Kind: registry.KindDate},
		{Name: "on", Kind: registry.KindCheckbox},
		{Name: "off", Kind: registry.KindCheckbox},
		{Name: "never", Kind: registry.KindCheckbox},
		{Name: "missing", Kind: registry.KindText},
		{Name: "items", Kind: registry.KindItems},
	}
	form := url.Values{
		"name":             {"Acme"},
		"amount":           {" 12.50 "},
		"bad":              {"abc"},
		"day":              {"2024-03-01"},
		"on":               {"true"},
		"on__was":          {"1"},
		"off__was":         {"1"},
		"never__was":       {""},
		"items__was":       {"1"},
		"items.product":    {"P1", "P2"},
		"items.quantity":   {"2", "1"},
		"items.unit_price": {"10", "5.5"},
		"items.tax_rate":   {"22", ""},
	}
	values, violations, err := Decode(post(t, form), fields)
	require.NoError(t, err)

	assert.Equal(t, "Acme", values["name"])
	assert.Equal(t, json.Number("12.50"), values["amount"])
	assert.Equal(t, "abc", values["bad"])
	assert.Equal(t, "2024-03-01", values["day"])
	assert.Equal(t, true, values["on"])
	assert.Equal(t, false, values["off"])
	assert.Equal(t, "", values["never"])
	assert.Equal(t, "", values["missing"])
	assert.Equal(t, validation.Violations{"bad": "invalid_number"}, violations)

	lines, ok := values["items"].([]records.LineItem)
	require.True(t, ok)
	require.Len(t, lines, 2)
	assert.Equal(t, "P2", lines[1].Product)
	assert.True(t, lines[1].UnitPrice.Equal(decimal.RequireFromString("5.5")))
	assert.True(t, lines[1].TaxRate.IsZero())
	assert.Equal(t, "25.50", records.Money(records.ComputeTotals(lines).Subtotal))
}

func TestDecodeMultipartFile(t *testing.T) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("name", "Deal"))
	part, err := w.CreateFormFile("attachment", "offer.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/r/opportunities", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	fields := []registry.Field{
		{Name: "name", Kind: registry.KindText},
		{Name: "attachment", Kind: registry.KindFile},
		{Name: "other", Kind: registry.KindFile},
	}
	values, _, err := Decode(r, fields)
	require.NoError(t, err)
	assert.Equal(t, "Deal", values["name"])
	file, ok := values["attachment"].(*records.File)
	require.True(t, ok)
	assert.Equal(t, "offer.pdf", file.Name)
	assert.Equal(t, []byte("%PDF-1.4"), file.Data)
	assert.Nil(t, values["other"])
}

func TestPayloadStripsEmpty(t *testing.T) {
	in := records.Values{"a": "", "b": nil, "c": false, "d": "x", "e": []records.LineItem{}, "f": (*records.File)(nil)}
	assert.Equal(t, records.Values{"c": false, "d": "x", "e": []records.LineItem{}}, Payload(in))
}

// Opening an edit form and submitting it unchanged sends exactly the record's
// non-empty form fields.
func TestEditUnchangedIsIdempotent(t *testing.T) {
	cases := []struct {
		key    registry.Key
		record records.Record
		want   records.Values
	}{
		{
			key: registry.Contacts,
			record: records.Record{
				"id": "c1", "client": "k1", "client_name": "Acme",
				"first_name": "Anna", "last_name": "Rossi", "role": "", "email": nil, "is_primary": false,
			},
			want: records.Values{"client": "k1", "first_name": "Anna", "last_name": "Rossi", "is_primary": false},
		},
		{
			key:    registry.Contacts,
			record: records.Record{"id": "c2", "first_name": "Luca"},
			want:   records.Values{"first_name": "Luca"},
		},
		{
			key: registry.OrdersPurchase,
			record: records.Record{
				"id": "p1", "supplier": "s1", "number": "PO-2024-001", "date": "2024-05-02",
				"status": "SENT", "total_amount": json.Number("1500.00"), "notes": "urgente\nentro venerdì",
			},
			want: records.Values{
				"supplier": "s1", "number": "PO-2024-001", "date": "2024-05-02",
				"status": "SENT", "total_amount": json.Number("1500.00"), "notes": "urgente\nentro venerdì",
			},
		},
		{
			key:    registry.OrdersPurchase,
			record: records.Record{"id": "p2", "supplier": "s1", "number": "PO-2024-002", "status": "DRAFT", "notes": "\nriga dopo una vuota"},
			want:   records.Values{"supplier": "s1", "number": "PO-2024-002", "status": "DRAFT", "notes": "\nriga dopo una vuota"},
		},
		{
			key:    registry.Offers,
			record: records.Record{"id": "o1", "number": "OFF-2024-001", "status": "DRAFT"},
			want:   records.Values{"number": "OFF-2024-001", "status": "DRAFT"},
		},
	}
	related := registry.Collections{
		registry.Clients:   {{"id": "k1", "name": "Acme"}},
		registry.Suppliers: {{"id": "s1", "name": "Forniture Srl"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.key)+"/"+tc.record.ID(), func(t *testing.T) {
			fields, err := registry.FieldsFor(tc.key, related, tc.record)
			require.NoError(t, err)
			page := renderString(t, Props{Lang: "it", Fields: fields, Values: registry.InitialValues(fields, tc.record)})

			values, violations, err := Decode(post(t, submitted(t, page)), fields)
			require.NoError(t, err)
			assert.True(t, violations.Empty())
			assert.Equal(t, tc.want, Payload(values))
		})
	}
}

// A create form submitted unchanged sends only the declared defaults.
func TestCreateUnchangedSendsDefaults(t *testing.T) {
	cases := map[registry.Key]records.Values{
		registry.Clients:       {"status": "LEAD"},
		registry.Contacts:      {"is_primary": false},
		registry.Offers:        {"status": "DRAFT"},
		registry.OrdersSales:   {"status": "PENDING"},
		registry.InvoicesSales: {"status": "DRAFT"},
	}
	for key, want := range cases {
		t.Run(string(key), func(t *testing.T) {
			fields, err := registry.FieldsFor(key, registry.Collections{}, nil)
			require.NoError(t, err)
			page := renderString(t, Props{Lang: "it", Fields: fields, Values: registry.InitialValues(fields, nil)})
			values, _, err := Decode(post(t, submitted(t, page)), fields)
			require.NoError(t, err)
			assert.Equal(t, want, Payload(values))
		})
	}
}

func TestApplyLinesOp(t *testing.T) {
	one := []records.LineItem{{Product: "A"}, {Product: "B"}}

	added := ApplyLinesOp(one, OpAdd, -1)
	require.Len(t, added, 3)
	assert.True(t, added[2].Quantity.Equal(decimal.NewFromInt(1)))

	removed := ApplyLinesOp(one, OpRemove, 0)
	require.Len(t, removed, 1)
	assert.Equal(t, "B", removed[0].Product)
	assert.Equal(t, "A", one[0].Product)

	assert.Len(t, ApplyLinesOp(one, OpRemove, 5), 2)
	assert.Len(t, ApplyLinesOp(one, OpRecalc, -1), 2)
}

func TestRenderLinesTotals(t *testing.T) {
	lines := []records.LineItem{
		{Product: "A", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), TaxRate: decimal.NewFromInt(22)},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderLines(LinesProps{Lang: "it", Field: registry.Field{Name: "items"}, Lines: lines, LinesURL: "/r/offers/lines"}).Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "€ 100.00")
	assert.Contains(t, out, "€ 22.00")
	assert.Contains(t, out, "€ 122.00")
	assert.Contains(t, out, `hx-post="/r/offers/lines"`)
	assert.Contains(t, out, `name="items.product" value="A"`)
}

func TestDecodeLinesRequest(t *testing.T) {
	form := url.Values{
		"field":          {"items"},
		"op":             {"remove"},
		"index":          {"1"},
		"items.product":  {"A", "B"},
		"items.quantity": {"1", "2"},
	}
	field, op, index, lines, err := DecodeLines(post(t, form))
	require.NoError(t, err)
	assert.Equal(t, "items", field)
	assert.Equal(t, OpRemove, op)
	assert.Equal(t, 1, index)
	assert.Len(t, lines, 2)

	form.Set("index", "x")
	_, _, _, _, err = DecodeLines(post(t, form))
	assert.Error(t, err)
}
