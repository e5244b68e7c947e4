// Package hub streams back-office events to connected admin dashboards
// over websockets, so a new enquiry shows up without a refresh.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

// Event is one dashboard push. New enquiries carry the full lead; update
// and delete events only carry the ID and let the dashboard refetch.
type Event struct {
	Type   string       `json:"type"`
	Lead   *models.Lead `json:"lead,omitempty"`
	LeadID string       `json:"leadId,omitempty"`
}

// Hub fans events out to every connected dashboard. A subscriber that
// cannot keep up is dropped rather than allowed to stall the rest.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	log  zerolog.Logger
}

// New creates an empty hub.
func New(log zerolog.Logger) *Hub {
	return &Hub{subs: map[chan Event]struct{}{}, log: log}
}

// LeadReceived broadcasts a new enquiry. Satisfies the lead service's
// notifier contract.
func (h *Hub) LeadReceived(lead models.Lead) {
	h.Broadcast(Event{Type: "lead_received", Lead: &lead})
}

// LeadUpdated tells dashboards a lead's record changed.
func (h *Hub) LeadUpdated(id string) {
	h.Broadcast(Event{Type: "lead_updated", LeadID: id})
}

// LeadDeleted tells dashboards a lead is gone.
func (h *Hub) LeadDeleted(id string) {
	h.Broadcast(Event{Type: "lead_deleted", LeadID: id})
}

// Broadcast delivers ev to every subscriber without blocking.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, ch)
			close(ch)
			h.log.Warn().Msg("dropping slow dashboard subscriber")
		}
	}
}

func (h *Hub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Subscribers reports how many dashboards are connected.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request and streams events until the dashboard
// disconnects. Authentication happens in middleware before this runs.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := h.subscribe()
	defer h.unsubscribe(ch)
	h.log.Info().Int("subscribers", h.Subscribers()).Msg("dashboard connected")

	// Dashboards never send payloads; the read loop only notices the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error().Err(err).Msg("encode event")
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				h.log.Info().Err(err).Msg("dashboard disconnected")
				return
			}
		}
	}
}
