package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
)

// AlertHub fans a fired alert out to every connected dashboard over
// websocket, implementing internal/alerts.Notifier as one concrete
// delivery channel alongside whatever email/push glue spec.md leaves out
// of scope.
type AlertHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewAlertHub builds an empty hub. Origin checking is left permissive (the
// API has no session cookies to leak, and the bearer token already gates
// the upgrade request).
func NewAlertHub() *AlertHub {
	return &AlertHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades GET /api/v1/ws/alerts to a websocket connection and
// registers it for broadcast.
func (h *AlertHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("alert websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	log.Info().Int("clients", len(h.clients)).Msg("alert websocket client connected")

	// Drain and discard anything the client sends; this is a push-only
	// channel. Reading keeps the connection's control frames (ping/close)
	// flowing until the client disconnects.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *AlertHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// alertPushMessage is the wire shape pushed to every connected client.
type alertPushMessage struct {
	AlertID   int64     `json:"alert_id"`
	Ticker    string    `json:"ticker,omitempty"`
	AlertType string    `json:"alert_type"`
	Message   string    `json:"message"`
	FiredAt   time.Time `json:"fired_at"`
}

// Notify implements alerts.Notifier: it broadcasts the fired alert to every
// connected websocket client and never returns an error, since a client
// being slow or gone is not a reason to fail the evaluator's tick.
func (h *AlertHub) Notify(ctx context.Context, a domain.Alert, score domain.SurvivalScore, message string) error {
	payload, err := json.Marshal(alertPushMessage{
		AlertID:   a.ID,
		AlertType: string(a.AlertType),
		Message:   message,
		FiredAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Debug().Err(err).Msg("alert push failed, dropping client")
			go h.remove(conn)
		}
	}
	return nil
}
