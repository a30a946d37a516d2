package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xtrntr/p2pdesk/internal/events"
	"github.com/xtrntr/p2pdesk/internal/metrics"
	"github.com/xtrntr/p2pdesk/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// visible reports whether userID may see ev. Orders and KYC requests are
// private to their participants; everything else is public.
func visible(ev events.Event, userID string) bool {
	switch p := ev.Payload.(type) {
	case *models.Order:
		return p.Participant(userID)
	case models.KYCRequest:
		return p.UserID == userID
	case models.Merchant:
		return p.UserID != "" && p.UserID == userID
	}
	return true
}

// PushChannel streams hub events to an authenticated websocket client. The
// token comes from the Authorization header or the token query parameter,
// since browsers cannot set headers on websocket upgrades.
func (h *Handler) PushChannel(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	userID, err := h.Auth.GetUserFromToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}
	defer conn.Close()

	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)
	metrics.PushClients.Inc()
	defer metrics.PushClients.Dec()

	h.log.Debug().Str("user_id", userID).Str("subscription", sub.ID).Msg("push client connected")

	// Reader: only pongs and close frames are expected.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			h.log.Debug().Str("user_id", userID).Uint64("dropped", sub.Dropped()).Msg("push client disconnected")
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if !visible(ev, userID) {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Warn().Err(err).Str("user_id", userID).Msg("failed to send event")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
