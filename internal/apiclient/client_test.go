package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/nexus-crm/internal/records"
)

var clients = Resource{Group: "sales", Name: "clients"}

func TestListDecodesNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sales/clients/", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":"1","name":"Acme","total":12345678901234567890.10}]`)
	}))
	defer srv.Close()

	rows, err := New(srv.URL + "/api/").List(context.Background(), clients)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].String("name"))
	assert.Equal(t, json.Number("12345678901234567890.10"), rows[0]["total"])
}

func TestListUnwrapsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":1,"results":[{"id":"7"}]}`)
	}))
	defer srv.Close()

	rows, err := New(srv.URL).List(context.Background(), clients)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].ID())
}

func TestCreateSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"42","name":"Acme"}`)
	}))
	defer srv.Close()

	rec, err := New(srv.URL).Create(context.Background(), clients, records.Values{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID())
}

func TestUpdateWithFileSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/sales/opportunities/9/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Deal", r.FormValue("name"))
		assert.Equal(t, "true", r.FormValue("flag"))
		assert.JSONEq(t, `{"a":1}`, r.FormValue("meta"))
		_, skipped := r.MultipartForm.Value["empty"]
		assert.False(t, skipped)

		f, hdr, err := r.FormFile("attachment")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "offer.pdf", hdr.Filename)
		assert.Equal(t, "%PDF", string(data))
		_, _ = io.WriteString(w, `{"id":"9"}`)
	}))
	defer srv.Close()

	payload := records.Values{
		"name":       "Deal",
		"flag":       true,
		"meta":       map[string]any{"a": 1},
		"empty":      nil,
		"attachment": &records.File{Name: "offer.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
	}
	_, err := New(srv.URL).Update(context.Background(), Resource{"sales", "opportunities"}, "9", payload)
	require.NoError(t, err)
}

func TestDeleteAcceptsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/sales/clients/5/", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).Delete(context.Background(), clients, "5"))
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"number":["already exists"]}`+"\n")
	}))
	defer srv.Close()

	_, err := New(srv.URL).Create(context.Background(), clients, records.Values{"number": "X"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "/sales/clients/", apiErr.Path)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, `{"number":["already exists"]}`, apiErr.Body)
	assert.Contains(t, err.Error(), "400")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background(), clients)
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, http.MethodGet, tErr.Method)
	assert.NotNil(t, errors.Unwrap(tErr))
}

func TestInvalidRequestMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.List(ctx, Resource{Group: "sales"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = c.Update(ctx, clients, "", records.Values{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, c.Delete(ctx, clients, ""), ErrInvalidRequest)
	assert.Zero(t, calls.Load())
}

func TestListAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sales/clients/":
			_, _ = io.WriteString(w, `[{"id":"1"},{"id":"2"}]`)
		case "/purchases/suppliers/":
			_, _ = io.WriteString(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(srv.URL)
	suppliers := Resource{"purchases", "suppliers"}

	all, err := c.ListAll(context.Background(), []Resource{clients, suppliers})
	require.NoError(t, err)
	assert.Len(t, all[clients], 2)
	assert.Empty(t, all[suppliers])

	_, err = c.ListAll(context.Background(), []Resource{clients, {"sales", "missing"}})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
