// Package apitest runs an in-memory stand-in for the CRM REST backend, for
// tests. Records are kept in SQLite through gorm; every request is logged so
// tests can assert on exactly what the dashboard sent.
package apitest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Request is one logged API call.
type Request struct {
	Method      string
	Path        string // relative to the API base, e.g. /sales/clients/
	ContentType string
	Payload     map[string]any
	Files       map[string]string // field -> uploaded file name
}

type failure struct {
	status int
	body   string
}

// Server is a fake backend listening on a local port.
type Server struct {
	*httptest.Server

	db  *gorm.DB
	now func() time.Time

	mu       sync.Mutex
	requests []Request
	failures map[string]failure
}

var nameCleaner = strings.NewReplacer("/", "_", " ", "_", "#", "_", "?", "_")

// New starts a server with an empty database. It is closed on test cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	dsn := "file:api_" + nameCleaner.Replace(t.Name()) + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	dbi, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := dbi.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// one connection keeps the in-memory database alive and serialises access
	sqlDB.SetMaxOpenConns(1)
	if err := dbi.AutoMigrate(&row{}, &attachment{}, &counter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s := &Server{db: dbi, now: time.Now, failures: map[string]failure{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{group}/{name}/{$}", s.list)
	mux.HandleFunc("POST /api/{group}/{name}/{$}", s.create)
	mux.HandleFunc("PATCH /api/{group}/{name}/{id}/{$}", s.update)
	mux.HandleFunc("DELETE /api/{group}/{name}/{id}/{$}", s.delete)
	mux.HandleFunc("GET /media/{path...}", s.media)
	s.Server = httptest.NewServer(mux)

	t.Cleanup(func() {
		s.Server.Close()
		_ = sqlDB.Close()
	})
	return s
}

// APIURL is the base URL the dashboard should be configured with.
func (s *Server) APIURL() string { return s.URL + "/api" }

// Requests returns a copy of the request log.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Mutations returns the logged non-GET requests.
func (s *Server) Mutations() []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

// ClearRequests empties the request log.
func (s *Server) ClearRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Fail makes every method call on path (relative to the API base) answer
// status with body until Heal is called.
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Heal removes a failure installed by Fail.
func (s *Server) Heal(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Seed stores data under resource (e.g. "sales/clients") without logging a
// request and returns the record as the API would show it.
func (s *Server) Seed(resource string, data map[string]any) map[string]any {
	if _, ok := schemas[resource]; !ok {
		panic("apitest: unknown resource " + resource)
	}
	rec, err := s.insert(resource, data)
	if err != nil {
		panic(err)
	}
	return rec
}

// Record returns the stored record id of resource as the API would show it.
func (s *Server) Record(resource, id string) (map[string]any, bool) {
	var rw row
	if err := s.db.Where("resource = ? AND uid = ?", resource, id).First(&rw).Error; err != nil {
		return nil, false
	}
	rec, err := s.present(rw)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// Count returns the number of stored records of resource.
func (s *Server) Count(resource string) int {
	var n int64
	s.db.Model(&row{}).Where("resource = ?", resource).Count(&n)
	return int(n)
}

func (s *Server) logRequest(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func (s *Server) injected(method, path string) (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[method+" "+path]
	return f, ok
}

func resourceOf(r *http.Request) string {
	return r.PathValue("group") + "/" + r.PathValue("name")
}

func relPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api")
}

// begin logs the request and reports whether the handler should go on.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, req Request) bool {
	req.Method = r.Method
	req.Path = relPath(r)
	req.ContentType = r.Header.Get("Content-Type")
	s.logRequest(req)
	if f, ok := s.injected(r.Method, req.Path); ok {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return false
	}
	if _, ok := schemas[resourceOf(r)]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return false
	}
	return true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, r, Request{}) {
		return
	}
	var rows []row
	if err := s.db.Where("resource = ?", resourceOf(r)).Order("id").Find(&rows).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, rw := range rows {
		rec, err := s.present(rw)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
			return
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	payload, files, err := readPayload(r)
	if !s.begin(w, r, Request{Payload: payload, Files: fileNames(files)}) {
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	res := resourceOf(r)
	if missing := missingRequired(schemas[res], payload); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, missing)
		return
	}
	if err := s.storeFiles(res, payload, files); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	rec, err := s.insert(res, payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	payload, files, err := readPayload(r)
	if !s.begin(w, r, Request{Payload: payload, Files: fileNames(files)}) {
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	res := resourceOf(r)
	var rw row
	if err := s.db.Where("resource = ? AND uid = ?", res, r.PathValue("id")).First(&rw).Error; err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	if err := s.storeFiles(res, payload, files); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	data, err := decodeObject([]byte(rw.Data))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	for k, v := range payload {
		data[k] = v
	}
	if missing := missingRequired(schemas[res], data); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, missing)
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	rw.Data = string(b)
	rw.UpdatedAt = s.now()
	if err := s.db.Save(&rw).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	rec, err := s.present(rw)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, r, Request{}) {
		return
	}
	tx := s.db.Where("resource = ? AND uid = ?", resourceOf(r), r.PathValue("id")).Delete(&row{})
	if tx.Error != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": tx.Error.Error()})
		return
	}
	if tx.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) media(w http.ResponseWriter, r *http.Request) {
	var a attachment
	if err := s.db.Where("path = ?", "/media/"+r.PathValue("path")).First(&a).Error; err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	_, _ = w.Write(a.Data)
}

func (s *Server) insert(res string, payload map[string]any) (map[string]any, error) {
	data := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		data[k] = v
	}
	if prefix := schemas[res].numbering; prefix != "" && isBlank(data["number"]) {
		number, err := s.nextNumber(res, prefix)
		if err != nil {
			return nil, err
		}
		data["number"] = number
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rw := row{UID: uuid.NewString(), Resource: res, Data: string(b), CreatedAt: now, UpdatedAt: now}
	if err := s.db.Create(&rw).Error; err != nil {
		return nil, err
	}
	return s.present(rw)
}

// nextNumber returns PREFIX-YYYY-NNN, counting per resource and year.
func (s *Server) nextNumber(res, prefix string) (string, error) {
	year := s.now().Year()
	var c counter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("resource = ? AND year = ?", res, year).First(&c).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c = counter{Resource: res, Year: year}
		} else if err != nil {
			return err
		}
		c.Last++
		return tx.Save(&c).Error
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, year, c.Last), nil
}

func (s *Server) storeFiles(res string, payload map[string]any, files map[string]*multipart.FileHeader) error {
	for field, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		path := "/media/" + res + "/" + uuid.NewString() + "/" + fh.Filename
		a := attachment{Path: path, ContentType: fh.Header.Get("Content-Type"), Data: data}
		if err := s.db.Create(&a).Error; err != nil {
			return err
		}
		payload[field] = path
	}
	return nil
}

// present returns the API view of rw: stored fields plus id, timestamps and
// denormalised relation labels.
func (s *Server) present(rw row) (map[string]any, error) {
	data, err := decodeObject([]byte(rw.Data))
	if err != nil {
		return nil, err
	}
	data["id"] = rw.UID
	data["created_at"] = rw.CreatedAt.UTC().Format(time.RFC3339)
	data["updated_at"] = rw.UpdatedAt.UTC().Format(time.RFC3339)
	for field, rel := range schemas[rw.Resource].relations {
		id, _ := data[field].(string)
		if id == "" {
			continue
		}
		var target row
		if err := s.db.Where("resource = ? AND uid = ?", rel.target, id).First(&target).Error; err != nil {
			continue
		}
		tdata, err := decodeObject([]byte(target.Data))
		if err != nil {
			continue
		}
		data[rel.outKey] = tdata[rel.labelField]
	}
	return data, nil
}

// readPayload decodes a JSON or multipart body. Multipart values that look
// like JSON objects or arrays are decoded, the rest stay strings.
func readPayload(r *http.Request) (map[string]any, map[string]*multipart.FileHeader, error) {
	ctype := r.Header.Get("Content-Type")
	if strings.HasPrefix(ctype, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return map[string]any{}, nil, err
		}
		payload := make(map[string]any, len(r.MultipartForm.Value))
		for k, vs := range r.MultipartForm.Value {
			if len(vs) == 0 {
				continue
			}
			v := vs[0]
			if strings.HasPrefix(v, "[") || strings.HasPrefix(v, "{") {
				if decoded, err := decodeAny([]byte(v)); err == nil {
					payload[k] = decoded
					continue
				}
			}
			payload[k] = v
		}
		files := make(map[string]*multipart.FileHeader, len(r.MultipartForm.File))
		for k, fhs := range r.MultipartForm.File {
			if len(fhs) > 0 {
				files[k] = fhs[0]
			}
		}
		return payload, files, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return map[string]any{}, nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil, nil
	}
	payload, err := decodeObject(body)
	if err != nil {
		return map[string]any{}, nil, err
	}
	return payload, nil, nil
}

func fileNames(files map[string]*multipart.FileHeader) map[string]string {
	if len(files) == 0 {
		return nil
	}
	out := make(map[string]string, len(files))
	for k, fh := range files {
		out[k] = fh.Filename
	}
	return out
}

func missingRequired(sch schema, data map[string]any) map[string][]string {
	missing := map[string][]string{}
	for _, f := range sch.required {
		if isBlank(data[f]) {
			missing[f] = []string{"This field is required."}
		}
	}
	return missing
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

func decodeAny(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeObject(b []byte) (map[string]any, error) {
	v, err := decodeAny(b)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("expected a JSON object")
	}
	return obj, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
