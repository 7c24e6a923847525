package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, method, url, ctype string, body io.Reader) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestCreateNumbersDocuments(t *testing.T) {
	srv := New(t)
	srv.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	for _, want := range []string{"INV-2024-001", "INV-2024-002"} {
		resp, rec := do(t, http.MethodPost, srv.APIURL()+"/sales/invoices/", "application/json", strings.NewReader(`{"date":"2024-03-01"}`))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, want, rec["number"])
		assert.NotEmpty(t, rec["id"])
	}
	assert.Equal(t, 2, srv.Count("sales/invoices"))
}

func TestCreateRequiredFields(t *testing.T) {
	srv := New(t)
	resp, body := do(t, http.MethodPost, srv.APIURL()+"/purchases/orders/", "application/json", strings.NewReader(`{"date":"2024-01-01"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "number")
	assert.Contains(t, body, "supplier")
	assert.Equal(t, 0, srv.Count("purchases/orders"))
}

func TestRelationLabelsAreDenormalised(t *testing.T) {
	srv := New(t)
	acme := srv.Seed("sales/clients", map[string]any{"name": "Acme"})
	c := srv.Seed("sales/contacts", map[string]any{"first_name": "Ada", "last_name": "Rossi", "client": acme["id"]})
	assert.Equal(t, "Acme", c["client_name"])
}

func TestPatchMergesAndDeleteRemoves(t *testing.T) {
	srv := New(t)
	c := srv.Seed("sales/clients", map[string]any{"name": "Acme", "city": "Roma"})
	id := c["id"].(string)

	resp, rec := do(t, http.MethodPatch, srv.APIURL()+"/sales/clients/"+id+"/", "application/json", strings.NewReader(`{"city":"Milano"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Acme", rec["name"])
	assert.Equal(t, "Milano", rec["city"])

	resp, _ = do(t, http.MethodDelete, srv.APIURL()+"/sales/clients/"+id+"/", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := srv.Record("sales/clients", id)
	assert.False(t, ok)

	resp, _ = do(t, http.MethodDelete, srv.APIURL()+"/sales/clients/"+id+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMultipartStoresFile(t *testing.T) {
	srv := New(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Contratto quadro"))
	require.NoError(t, mw.WriteField("items", `[{"qty":2}]`))
	fw, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	resp, rec := do(t, http.MethodPost, srv.APIURL()+"/sales/contracts/", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	path, _ := rec["file"].(string)
	require.True(t, strings.HasPrefix(path, "/media/sales/contracts/"))
	assert.True(t, strings.HasSuffix(path, "/contract.pdf"))
	assert.IsType(t, []any{}, rec["items"])

	logged := srv.Mutations()
	require.Len(t, logged, 1)
	assert.Equal(t, map[string]string{"file": "contract.pdf"}, logged[0].Files)

	get, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer get.Body.Close()
	data, _ := io.ReadAll(get.Body)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestFailInjection(t *testing.T) {
	srv := New(t)
	srv.Fail(http.MethodGet, "/sales/clients/", http.StatusServiceUnavailable, "down")
	resp, _ := do(t, http.MethodGet, srv.APIURL()+"/sales/clients/", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	srv.Heal(http.MethodGet, "/sales/clients/")
	resp, _ = do(t, http.MethodGet, srv.APIURL()+"/sales/clients/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, srv.Requests(), 2)
}

func TestUnknownResource(t *testing.T) {
	srv := New(t)
	resp, _ := do(t, http.MethodGet, srv.APIURL()+"/sales/nope/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
