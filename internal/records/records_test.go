package records

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Rossi S.r.l.", "Rossi S.r.l."},
		{"json number", json.Number("100.50"), "100.50"},
		{"float", 12.5, "12.5"},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"decimal", decimal.RequireFromString("3.10"), "3.1"},
		{"nested", map[string]any{"a": "b"}, `{"a":"b"}`},
		{"file", &File{Name: "offer.pdf"}, "offer.pdf"},
		{"nil file", (*File)(nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}

func TestRecordLabel(t *testing.T) {
	r := Record{"client": "c1", "client_name": "Rossi S.r.l.", "order": "o1", "order_number": "ORD-2025-050", "supplier": "s1"}
	assert.Equal(t, "Rossi S.r.l.", r.Label("client"))
	assert.Equal(t, "ORD-2025-050", r.Label("order"))
	assert.Equal(t, "s1", r.Label("supplier"))
	assert.Equal(t, "", r.Label("missing"))
}

func TestRecordMissingFields(t *testing.T) {
	var r Record
	assert.Nil(t, r.Get("name"))
	assert.Equal(t, "", r.String("name"))
	assert.False(t, r.Has("name"))
	assert.True(t, r.Decimal("total_amount").IsZero())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty((*File)(nil)))
	assert.False(t, IsEmpty(false))
	assert.False(t, IsEmpty("0"))
	assert.False(t, IsEmpty(&File{Name: "a"}))
}

func TestLineItemAmounts(t *testing.T) {
	item := LineItem{
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: decimal.RequireFromString("50"),
		TaxRate:   decimal.NewFromInt(22),
	}
	assert.Equal(t, "100.00", Money(item.Subtotal()))
	assert.Equal(t, "22.00", Money(item.Tax()))
}

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(22)},
		{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("10.5"), TaxRate: decimal.Zero},
	}
	totals := ComputeTotals(items)
	assert.Equal(t, "131.50", Money(totals.Subtotal))
	assert.Equal(t, "22.00", Money(totals.Tax))
	assert.Equal(t, "153.50", Money(totals.Total))

	empty := ComputeTotals(nil)
	assert.Equal(t, "0.00", Money(empty.Total))
}

func TestLineItemsFromBackendJSON(t *testing.T) {
	var raw []any
	err := json.Unmarshal([]byte(`[{"product_code":"MAT-001","description":"Laptop","quantity":2,"unit_price":"1200.00","tax_rate":22}]`), &raw)
	assert.NoError(t, err)

	items := LineItemsFrom(raw)
	if assert.Len(t, items, 1) {
		assert.Equal(t, "MAT-001", items[0].Product)
		assert.Equal(t, "Laptop", items[0].Description)
		assert.Equal(t, "2400.00", Money(items[0].Subtotal()))
	}
	assert.Nil(t, LineItemsFrom("not a list"))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, raw, want string
	}{
		{"http://localhost:8000/api", "https://files.test/opp.pdf", "https://files.test/opp.pdf"},
		{"http://localhost:8000/api", "/media/contracts/c.pdf", "http://localhost:8000/media/contracts/c.pdf"},
		{"http://localhost:8000/api/", "media/x.pdf", "http://localhost:8000/media/x.pdf"},
		{"https://crm.example.com", "/media/x.pdf", "https://crm.example.com/media/x.pdf"},
		{"http://localhost:8000/api", "", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveURL(tt.base, tt.raw), tt.raw)
	}
}
