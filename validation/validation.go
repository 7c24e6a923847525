// Package validation collects per-field input problems as message codes.
package validation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Violations maps a field name to an i18n message code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless a violation is already present.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Number checks that a non-empty value parses as a decimal number.
func Number(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, err := decimal.NewFromString(value); err != nil {
		v.Add(field, "invalid_number")
	}
}

// Date checks that a non-empty value is an ISO date (YYYY-MM-DD).
func Date(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		v.Add(field, "invalid_date")
	}
}
