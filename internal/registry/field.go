package registry

import (
	"github.com/diewo77/nexus-crm/internal/records"
)

// Kind discriminates form fields. Renderers switch over every Kind listed in
// Kinds.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindCheckbox Kind = "checkbox"
	KindSelect   Kind = "select"
	KindFile     Kind = "file"
	KindItems    Kind = "items"
	KindTextarea Kind = "textarea"
)

// Kinds lists every field kind.
func Kinds() []Kind {
	return []Kind{KindText, KindEmail, KindNumber, KindDate, KindCheckbox, KindSelect, KindFile, KindItems, KindTextarea}
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one form input.
type Field struct {
	Name  string
	Label string
	Kind  Kind
	Hint  string

	// select
	Options   []Option
	Default   string
	Relation  Key    // set when Options come from another resource's records
	LabelFrom string // record field holding the relation's display label

	// file
	Accept      string
	ExistingURL string
}

// OptionLabel returns the label of the option whose value is v, or v itself.
func (f Field) OptionLabel(v string) string {
	for _, o := range f.Options {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

// DisplayValue returns the human readable value of the field in r: the
// denormalised label of a relation, the option label of a choice, the raw
// string otherwise.
func (f Field) DisplayValue(r records.Record) string {
	if f.Relation != "" {
		if f.LabelFrom != "" {
			if v := r.String(f.LabelFrom); v != "" {
				return v
			}
		}
		return r.Label(f.Name)
	}
	v := r.String(f.Name)
	if f.Kind == KindSelect && v != "" {
		return f.OptionLabel(v)
	}
	return v
}

// CellStyle selects how a table cell is drawn.
type CellStyle int

const (
	StylePlain CellStyle = iota
	StyleBadge
	StyleMoney
	StyleBool
)

// Column is one table column. Format, when set, replaces the plain accessor
// lookup.
type Column struct {
	Header   string
	Accessor string
	Format   func(records.Record) string
	Style    CellStyle
}

// Value returns the display text of the column for r. It never panics on a
// missing field; absent values render as "".
func (c Column) Value(r records.Record) string {
	if c.Format != nil {
		return c.Format(r)
	}
	return r.String(c.Accessor)
}
