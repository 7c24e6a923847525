package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/nexus-crm/internal/records"
	"github.com/diewo77/nexus-crm/internal/registry"
	"github.com/diewo77/nexus-crm/validation"
)

// MaxUploadSize bounds the in-memory part of a multipart submission.
const MaxUploadSize = 32 << 20

// Parse reads the form body of r, multipart or urlencoded.
func Parse(r *http.Request) error {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// Decode turns a submitted form back into values keyed by field name.
//
// Fields missing from the request decode as "" (or nil for files), so the
// caller's empty-value stripping drops them. A checkbox or line item list
// that was empty when the form was opened and is still empty decodes as ""
// for the same reason. Unparsable numbers and dates are reported as
// violations and keep their raw text so the form can show them again.
func Decode(r *http.Request, fields []registry.Field) (records.Values, validation.Violations, error) {
	if err := Parse(r); err != nil {
		return nil, nil, err
	}
	values := make(records.Values, len(fields))
	violations := validation.Violations{}
	form := r.PostForm

	for _, f := range fields {
		raw := form.Get(f.Name)
		switch f.Kind {
		case registry.KindNumber:
			raw = strings.TrimSpace(raw)
			validation.Number(f.Name, raw, violations)
			if raw == "" || violations[f.Name] != "" {
				values[f.Name] = raw
			} else {
				values[f.Name] = json.Number(raw)
			}
		case registry.KindDate:
			raw = strings.TrimSpace(raw)
			validation.Date(f.Name, raw, violations)
			values[f.Name] = raw
		case registry.KindCheckbox:
			switch {
			case isTruthy(raw):
				values[f.Name] = true
			case form.Get(f.Name+wasSuffix) != "":
				values[f.Name] = false
			default:
				values[f.Name] = ""
			}
		case registry.KindFile:
			file, err := readFile(r, f.Name)
			if err != nil {
				return nil, nil, err
			}
			if file == nil {
				values[f.Name] = nil
			} else {
				values[f.Name] = file
			}
		case registry.KindItems:
			lines, invalid := decodeLines(form, f.Name)
			if invalid {
				violations.Add(f.Name, "invalid_number")
			}
			if len(lines) == 0 && form.Get(f.Name+wasSuffix) == "" {
				values[f.Name] = ""
			} else {
				values[f.Name] = lines
			}
		default:
			values[f.Name] = raw
		}
	}
	return values, violations, nil
}

// DecodeLines reads the line items of field and the requested editor
// operation from a lines endpoint request.
func DecodeLines(r *http.Request) (field, op string, index int, lines []records.LineItem, err error) {
	if err = Parse(r); err != nil {
		return "", "", 0, nil, err
	}
	field = r.PostForm.Get("field")
	op = r.PostForm.Get("op")
	index = -1
	if s := r.PostForm.Get("index"); s != "" {
		if index, err = strconv.Atoi(s); err != nil {
			return "", "", 0, nil, fmt.Errorf("line index %q: %w", s, err)
		}
	}
	lines, _ = decodeLines(r.PostForm, field)
	return field, op, index, lines, nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func readFile(r *http.Request, name string) (*records.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", name, err)
	}
	defer f.Close()
	if hdr.Filename == "" {
		return nil, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", name, err)
	}
	return &records.File{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Data: data}, nil
}

// Payload drops the values that count as not filled in ("" and nil) and
// returns what is sent to the backend.
func Payload(values records.Values) records.Values {
	out := make(records.Values, len(values))
	for k, v := range values {
		if records.IsEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}
