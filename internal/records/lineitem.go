package records

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem is one row of an offer, order or invoice form. Line items are only
// sent to the backend as part of their parent document.
type LineItem struct {
	Product     string          `json:"product"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// NewLineItem returns the row appended by "add line": quantity 1, no price, no tax.
func NewLineItem() LineItem {
	return LineItem{Quantity: decimal.NewFromInt(1)}
}

// Subtotal is quantity × unit price.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Tax is subtotal × rate / 100.
func (l LineItem) Tax() decimal.Decimal {
	return l.Subtotal().Mul(l.TaxRate).Div(hundred)
}

// Totals are the amounts shown under a line-item editor.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums subtotal and tax over items. Total includes tax.
func ComputeTotals(items []LineItem) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal = t.Subtotal.Add(item.Subtotal())
		t.Tax = t.Tax.Add(item.Tax())
	}
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

// LineItemsFrom converts a record or form value into line items. It accepts
// the typed slice produced by form decoding and the []any of objects decoded
// from backend JSON, where the product may be named product or product_code.
func LineItemsFrom(v any) []LineItem {
	switch val := v.(type) {
	case []LineItem:
		return val
	case []any:
		items := make([]LineItem, 0, len(val))
		for _, raw := range val {
			obj, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			row := Record(obj)
			product := row.String("product")
			if product == "" {
				product = row.String("product_code")
			}
			items = append(items, LineItem{
				Product:     product,
				Description: row.String("description"),
				Quantity:    row.Decimal("quantity"),
				UnitPrice:   row.Decimal("unit_price"),
				TaxRate:     row.Decimal("tax_rate"),
			})
		}
		return items
	}
	return nil
}

// Money formats an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
