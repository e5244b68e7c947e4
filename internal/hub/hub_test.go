package hub

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestLeadBroadcastReachesSubscriber(t *testing.T) {
	h := New(zerolog.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return h.Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	h.LeadReceived(models.Lead{ID: "lead-1", Name: "สมชาย", Phone: "0812345678"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	require.Equal(t, "lead_received", ev.Type)
	require.NotNil(t, ev.Lead)
	require.Equal(t, "lead-1", ev.Lead.ID)
}

func TestDisconnectRemovesSubscriber(t *testing.T) {
	h := New(zerolog.Nop())
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return h.Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return h.Subscribers() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestBroadcastWithNoSubscribersIsSafe(t *testing.T) {
	h := New(zerolog.Nop())
	h.Broadcast(Event{Type: "lead_received"})
}
