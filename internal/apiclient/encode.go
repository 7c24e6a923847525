package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"github.com/diewo77/nexus-crm/internal/records"
)

const jsonContentType = "application/json"

// hasFile reports whether any payload value is a picked file.
func hasFile(payload records.Values) bool {
	for _, v := range payload {
		if f, ok := v.(*records.File); ok && f != nil {
			return true
		}
	}
	return false
}

// encode serialises payload. A payload holding a file is sent as multipart
// form data; anything else as JSON.
func encode(payload records.Values) (io.Reader, string, error) {
	if !hasFile(payload) {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), jsonContentType, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writePart(w, k, payload[k]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writePart(w *multipart.Writer, name string, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case *records.File:
		if val == nil {
			return nil
		}
		ctype := val.ContentType
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(name), quoteEscaper.Replace(val.Name)))
		h.Set("Content-Type", ctype)
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		_, err = part.Write(val.Data)
		return err
	}
	// nested maps and slices are JSON strings, scalars their text
	return w.WriteField(name, records.Stringify(v))
}
