package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

func TestDocstoreCreateAndList(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/collections/leads/documents":
			var body struct {
				Fields map[string]any `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Somchai", body.Fields["name"])
			json.NewEncoder(w).Encode(Document{ID: "lead-1", Fields: body.Fields})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/collections/leads/documents":
			assert.Equal(t, "phone==0812345678", r.URL.Query().Get("where"))
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			json.NewEncoder(w).Encode(map[string]any{
				"documents": []Document{{ID: "lead-1", Fields: map[string]any{"name": "Somchai", "phone": "0812345678", "status": "new"}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := NewDocstore(srv.URL, "secret-token")

	created, err := store.Create(context.Background(), "leads", map[string]any{"name": "Somchai"})
	require.NoError(t, err)
	assert.Equal(t, "lead-1", created.ID)
	assert.Equal(t, "Bearer secret-token", gotAuth)

	doc, err := store.First(context.Background(), "leads", Query{WhereField: "phone", WhereValue: "0812345678"})
	require.NoError(t, err)

	var lead models.Lead
	require.NoError(t, doc.Decode(&lead))
	assert.Equal(t, "lead-1", lead.ID)
	assert.Equal(t, models.LeadNew, lead.Status)
}

func TestDocstoreFirstNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"documents": []Document{}})
	}))
	defer srv.Close()

	store := NewDocstore(srv.URL, "t")
	_, err := store.First(context.Background(), "leads", Query{WhereField: "phone", WhereValue: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocstoreStatusMapping(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	store := NewDocstore(srv.URL, "t")
	ctx := context.Background()

	_, err := store.Get(ctx, "leads", "x")
	assert.ErrorIs(t, err, ErrCredentialInvalid)

	status = http.StatusTooManyRequests
	_, err = store.Get(ctx, "leads", "x")
	assert.ErrorIs(t, err, ErrRateLimited)

	status = http.StatusNotFound
	_, err = store.Get(ctx, "leads", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocstoreNetworkUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	store := NewDocstore(srv.URL, "t")
	_, err := store.Get(context.Background(), "leads", "x")
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
}

func TestFieldsOfDropsID(t *testing.T) {
	lead := models.Lead{ID: "lead-9", Name: "N", Phone: "0812345678", Status: models.LeadNew}
	fields, err := FieldsOf(lead)
	require.NoError(t, err)
	assert.NotContains(t, fields, "id")
	assert.Equal(t, "N", fields["name"])
}
