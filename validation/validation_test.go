package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	v := Violations{}
	Number("a", "12.50", v)
	Number("b", "", v)
	Number("c", " -3 ", v)
	assert.True(t, v.Empty())

	Number("d", "12,50", v)
	Number("e", "abc", v)
	assert.Equal(t, Violations{"d": "invalid_number", "e": "invalid_number"}, v)
}

func TestDate(t *testing.T) {
	v := Violations{}
	Date("a", "2024-02-29", v)
	Date("b", "", v)
	assert.True(t, v.Empty())

	Date("c", "29/02/2024", v)
	assert.Equal(t, "invalid_date", v["c"])
}

func TestAddKeepsFirst(t *testing.T) {
	v := Violations{}
	v.Add("x", "invalid_number")
	v.Add("x", "invalid_date")
	assert.Equal(t, "invalid_number", v["x"])
}
