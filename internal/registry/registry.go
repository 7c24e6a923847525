// Package registry holds the static per-resource configuration of the
// dashboard: REST endpoint, table columns and form fields.
package registry

import (
	"fmt"

	"github.com/diewo77/nexus-crm/internal/apiclient"
	"github.com/diewo77/nexus-crm/internal/records"
)

// Key names a resource type. The set is fixed at compile time.
type Key string

// Collections holds the currently loaded records of every resource type.
type Collections map[Key][]records.Record

// Definition is the static configuration of one resource type.
type Definition struct {
	Key      Key
	Label    string // navigation label
	Title    string // table title
	Singular string // used in form titles
	Resource apiclient.Resource
	Columns  []Column

	fields func(related Collections, existing records.Record) []Field
}

var definitions = map[Key]*Definition{}

func register(d *Definition) {
	definitions[d.Key] = d
}

// Lookup returns the definition for key.
func Lookup(key Key) (*Definition, bool) {
	d, ok := definitions[key]
	return d, ok
}

// Keys returns every resource key in navigation order.
func Keys() []Key {
	var keys []Key
	for _, g := range Navigation() {
		for _, item := range g.Items {
			if item.Key != Dashboard {
				keys = append(keys, item.Key)
			}
		}
	}
	return keys
}

// FieldsFor returns the ordered form fields of key. Relation selects are built
// from the records in related at call time; a missing or empty collection
// yields an empty option list. existing is the record being edited, or nil.
func FieldsFor(key Key, related Collections, existing records.Record) ([]Field, error) {
	d, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("registry: unknown resource %q", key)
	}
	return d.fields(related, existing), nil
}

// ColumnsFor returns the table columns of key.
func ColumnsFor(key Key) ([]Column, error) {
	d, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("registry: unknown resource %q", key)
	}
	return d.Columns, nil
}

// InitialValues computes the starting state of a form.
//
// Editing (existing != nil): each field takes the record's value, with nil or
// absent coerced to "". File inputs always start empty; the current attachment
// is reached through Field.ExistingURL.
//
// Creating: a declared default wins, otherwise the kind's empty value (false
// for checkboxes, nil for files, "" for the rest, line items included).
func InitialValues(fields []Field, existing records.Record) records.Values {
	values := make(records.Values, len(fields))
	for _, f := range fields {
		if f.Kind == KindFile {
			values[f.Name] = nil
			continue
		}
		if existing != nil {
			v := existing.Get(f.Name)
			switch {
			case v == nil:
				values[f.Name] = ""
			case f.Kind == KindItems:
				values[f.Name] = records.LineItemsFrom(v)
			default:
				values[f.Name] = v
			}
			continue
		}
		if f.Default != "" {
			values[f.Name] = f.Default
			continue
		}
		if f.Kind == KindCheckbox {
			values[f.Name] = false
		} else {
			values[f.Name] = ""
		}
	}
	return values
}

// Validate checks the static configuration once at startup: every navigation
// entry has a definition with columns and fields, field names are unique, kinds
// are known, selects have options or a relation, and relations point at
// registered resources.
func Validate() error {
	for _, g := range Navigation() {
		for _, item := range g.Items {
			if item.Key == Dashboard {
				continue
			}
			d, ok := Lookup(item.Key)
			if !ok {
				return fmt.Errorf("registry: navigation entry %q has no definition", item.Key)
			}
			if err := validateDefinition(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateDefinition(d *Definition) error {
	if d.Resource.Group == "" || d.Resource.Name == "" {
		return fmt.Errorf("registry: %s has no REST endpoint", d.Key)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("registry: %s has no columns", d.Key)
	}
	fields := d.fields(Collections{}, nil)
	if len(fields) == 0 {
		return fmt.Errorf("registry: %s has no fields", d.Key)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return fmt.Errorf("registry: %s declares field %q twice", d.Key, f.Name)
		}
		seen[f.Name] = true
		if !f.Kind.Valid() {
			return fmt.Errorf("registry: %s.%s has unknown kind %q", d.Key, f.Name, f.Kind)
		}
		if f.Relation != "" {
			if _, ok := Lookup(f.Relation); !ok {
				return fmt.Errorf("registry: %s.%s relates to unknown resource %q", d.Key, f.Name, f.Relation)
			}
		} else if f.Kind == KindSelect && len(f.Options) == 0 {
			return fmt.Errorf("registry: %s.%s is a select without options", d.Key, f.Name)
		}
	}
	return nil
}
