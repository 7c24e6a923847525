// Package records holds the front end's view of backend data: opaque records,
// relation labels, attachments and the line items edited inside document forms.
package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one backend entity as decoded from JSON. The dashboard never owns
// records; it only caches what the backend returned.
type Record map[string]any

// Values is the state of an open form, keyed by field name.
type Values map[string]any

// File is a binary value picked in a form. A payload holding one is sent as
// multipart form data.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Link is a value rendered as a hyperlink instead of plain text.
type Link struct {
	URL   string
	Label string
}

// Get returns the raw value of field or nil when absent.
func (r Record) Get(field string) any {
	if r == nil {
		return nil
	}
	return r[field]
}

// Has reports whether field is present with a non-empty value.
func (r Record) Has(field string) bool {
	return !IsEmpty(r.Get(field))
}

// ID returns the record identifier as a string.
func (r Record) ID() string {
	return Stringify(r.Get("id"))
}

// String returns the string form of field, "" when absent.
func (r Record) String(field string) string {
	return Stringify(r.Get(field))
}

// Label returns the display label of a relation field. The backend ships a
// denormalised label next to the foreign id (client -> client_name,
// order -> order_number); without one the raw id is returned.
func (r Record) Label(field string) string {
	for _, suffix := range []string{"_name", "_number"} {
		if v := r.String(field + suffix); v != "" {
			return v
		}
	}
	return r.String(field)
}

// Decimal returns field parsed as a decimal, zero when absent or invalid.
func (r Record) Decimal(field string) decimal.Decimal {
	return ToDecimal(r.Get(field))
}

// IsEmpty reports whether v counts as "not filled in": nil, an empty string or
// a nil file.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case *File:
		return val == nil
	}
	return false
}

// Stringify renders any record value as text. nil renders as "".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case decimal.Decimal:
		return val.String()
	case *File:
		if val == nil {
			return ""
		}
		return val.Name
	case Link:
		return val.URL
	case fmt.Stringer:
		return val.String()
	case []any, map[string]any, []LineItem:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

// ToDecimal converts a JSON scalar to a decimal. Invalid input yields zero.
func ToDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}
