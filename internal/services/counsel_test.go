package services

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/ratelimit"
)

func TestCounselThrottlesPerAdmin(t *testing.T) {
	svc := NewCounsel(newFakeGenAI(t, "คำตอบ"), ratelimit.New(2, time.Hour), testLogger())
	ctx := context.Background()

	_, err := svc.Draft(ctx, "admin-1", "สัญญาเช่า", "รายละเอียด")
	require.NoError(t, err)
	_, err = svc.Draft(ctx, "admin-1", "สัญญาเช่า", "รายละเอียด")
	require.NoError(t, err)
	_, err = svc.Draft(ctx, "admin-1", "สัญญาเช่า", "รายละเอียด")
	require.ErrorIs(t, err, ErrThrottled)

	// Another admin has their own quota.
	_, err = svc.Draft(ctx, "admin-2", "สัญญาเช่า", "รายละเอียด")
	require.NoError(t, err)
}

func TestResearchFallsBackWhenSearchThrottled(t *testing.T) {
	// First call (web search) is refused upstream; the retry without
	// search succeeds.
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "quota", http.StatusTooManyRequests)
			return
		}
		writeJSON(w, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "สรุปจากฐานความรู้"}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	svc := NewCounsel(api.NewGenAI(srv.URL, "k"), ratelimit.New(5, time.Hour), testLogger())
	res, err := svc.Research(context.Background(), "admin-1", "อายุความคดีแพ่ง")
	require.NoError(t, err)
	require.Equal(t, "สรุปจากฐานความรู้", res.Text)
	require.Equal(t, 2, calls)
	require.Empty(t, res.Sources)
}

func TestAuditDocumentRejectsPlainText(t *testing.T) {
	svc := NewCounsel(newFakeGenAI(t, "บทวิเคราะห์"), ratelimit.New(5, time.Hour), testLogger())

	_, err := svc.AuditDocument(context.Background(), "admin-1", "not a data url")
	require.ErrorIs(t, err, ErrInvalidInput)

	img := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	text, err := svc.AuditDocument(context.Background(), "admin-1", img)
	require.NoError(t, err)
	require.Equal(t, "บทวิเคราะห์", text)
}
