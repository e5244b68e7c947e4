package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
)

// fakeDocstore is an in-memory document store behind the real wire
// protocol, so services are tested through the actual client.
type fakeDocstore struct {
	mu    sync.Mutex
	seq   int
	colls map[string]map[string]map[string]any

	srv *httptest.Server
}

func newFakeDocstore(t *testing.T) (*fakeDocstore, *api.Docstore) {
	t.Helper()
	f := &fakeDocstore{colls: map[string]map[string]map[string]any{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f, api.NewDocstore(f.srv.URL, "test-token")
}

func (f *fakeDocstore) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// v1/collections/{coll}/documents[/{id}]
	if len(parts) < 4 || parts[0] != "v1" || parts[1] != "collections" || parts[3] != "documents" {
		http.NotFound(w, r)
		return
	}
	coll := parts[2]
	var id string
	if len(parts) == 5 {
		id = parts[4]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	docs := f.colls[coll]
	if docs == nil {
		docs = map[string]map[string]any{}
		f.colls[coll] = docs
	}

	switch {
	case r.Method == http.MethodPost && id == "":
		fields := decodeFields(r)
		f.seq++
		newID := fmt.Sprintf("doc-%d", f.seq)
		docs[newID] = fields
		writeJSON(w, map[string]any{"id": newID, "fields": fields})
	case r.Method == http.MethodGet && id == "":
		f.list(w, r, docs)
	case r.Method == http.MethodGet:
		fields, ok := docs[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"id": id, "fields": fields})
	case r.Method == http.MethodPatch:
		existing, ok := docs[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		for k, v := range decodeFields(r) {
			existing[k] = v
		}
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPut:
		docs[id] = decodeFields(r)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodDelete:
		if _, ok := docs[id]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(docs, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
	}
}

func (f *fakeDocstore) list(w http.ResponseWriter, r *http.Request, docs map[string]map[string]any) {
	type doc struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	}
	out := []doc{}
	whereField, whereValue := "", ""
	if where := r.URL.Query().Get("where"); where != "" {
		whereField, whereValue, _ = strings.Cut(where, "==")
	}
	for id, fields := range docs {
		if whereField != "" {
			if v, ok := fields[whereField].(string); !ok || v != whereValue {
				continue
			}
		}
		out = append(out, doc{ID: id, Fields: fields})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if orderBy := r.URL.Query().Get("orderBy"); orderBy != "" {
		desc := r.URL.Query().Get("desc") == "true"
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := out[i].Fields[orderBy].(string)
			b, _ := out[j].Fields[orderBy].(string)
			if desc {
				return a > b
			}
			return a < b
		})
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit < len(out) {
			out = out[:limit]
		}
	}
	writeJSON(w, map[string]any{"documents": out})
}

// count reports how many documents a collection holds.
func (f *fakeDocstore) count(coll string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.colls[coll])
}

func decodeFields(r *http.Request) map[string]any {
	var body struct {
		Fields map[string]any `json:"fields"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Fields == nil {
		body.Fields = map[string]any{}
	}
	return body.Fields
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newFakeGenAI serves a fixed text answer for every model call.
func newFakeGenAI(t *testing.T, text string) *api.GenAI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return api.NewGenAI(srv.URL, "test-key")
}

// memBlob is an in-memory object store.
type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlob() *memBlob { return &memBlob{objects: map[string][]byte{}} }

func (m *memBlob) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = append([]byte(nil), data...)
	return "blob://" + name, nil
}

func (m *memBlob) Fetch(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", name, api.ErrNotFound)
	}
	return data, nil
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
