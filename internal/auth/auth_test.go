package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

func newTestService(t *testing.T, admins map[string]models.AdminUser) *Service {
	t.Helper()

	idpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct-password" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "INVALID_PASSWORD"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"localId": "uid-" + body["email"].(string), "email": body["email"]})
	}))
	t.Cleanup(idpSrv.Close)

	storeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		where := r.URL.Query().Get("where")
		for uid, admin := range admins {
			if where == "uid=="+uid {
				fields, _ := api.FieldsOf(admin)
				json.NewEncoder(w).Encode(map[string]any{
					"documents": []api.Document{{ID: admin.ID, Fields: fields}},
				})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"documents": []api.Document{}})
	}))
	t.Cleanup(storeSrv.Close)

	return New(
		api.NewIdentityClient(idpSrv.URL, "k"),
		api.NewDocstore(storeSrv.URL, "t"),
		[]byte("0123456789abcdef0123456789abcdef"),
		time.Hour,
		zerolog.Nop(),
	)
}

func TestSignInIssuesVerifiableSession(t *testing.T) {
	svc := newTestService(t, map[string]models.AdminUser{
		"uid-admin@firm.co.th": {ID: "a1", UID: "uid-admin@firm.co.th", Email: "admin@firm.co.th", Role: "attorney"},
	})

	token, admin, err := svc.SignIn(context.Background(), "admin@firm.co.th", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, "attorney", admin.Role)
	require.NotEmpty(t, token)

	verified, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@firm.co.th", verified.Email)
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	svc := newTestService(t, map[string]models.AdminUser{
		"uid-admin@firm.co.th": {UID: "uid-admin@firm.co.th", Email: "admin@firm.co.th", Role: "admin"},
	})

	_, _, err := svc.SignIn(context.Background(), "admin@firm.co.th", "wrong")
	assert.ErrorIs(t, err, api.ErrCredentialInvalid)
}

func TestSignInRejectsNonAdminSubject(t *testing.T) {
	svc := newTestService(t, nil)

	_, _, err := svc.SignIn(context.Background(), "intruder@example.com", "correct-password")
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestSignOutRevokesSession(t *testing.T) {
	svc := newTestService(t, map[string]models.AdminUser{
		"uid-admin@firm.co.th": {UID: "uid-admin@firm.co.th", Email: "admin@firm.co.th", Role: "admin"},
	})

	token, _, err := svc.SignIn(context.Background(), "admin@firm.co.th", "correct-password")
	require.NoError(t, err)

	svc.SignOut(token)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, api.ErrCredentialInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, api.ErrCredentialInvalid)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	store.Issue("jti-1", models.AdminUser{Email: "a@b.c"})
	_, ok := store.Active("jti-1")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = store.Active("jti-1")
	assert.False(t, ok, "expired sessions are dead")

	store.Issue("jti-2", models.AdminUser{})
	now = now.Add(2 * time.Minute)
	store.Sweep()
	assert.Empty(t, store.sessions)
}
