package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/broseidonlordofthebrocean/hedge/internal/domain"
)

func TestAlertHub_NotifyWithNoClientsIsANoop(t *testing.T) {
	hub := NewAlertHub()
	err := hub.Notify(context.Background(), domain.Alert{ID: 1, AlertType: domain.AlertType("score_drop")}, domain.SurvivalScore{}, "dropped below threshold")
	require.NoError(t, err)
}

func TestAlertHub_BroadcastsToConnectedClient(t *testing.T) {
	hub := NewAlertHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give ServeHTTP's registration goroutine time to add the client.
	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	err = hub.Notify(context.Background(), domain.Alert{ID: 42, AlertType: domain.AlertType("score_drop")}, domain.SurvivalScore{}, "dropped below threshold")
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var pushed alertPushMessage
	require.NoError(t, json.Unmarshal(msg, &pushed))
	require.Equal(t, int64(42), pushed.AlertID)
	require.Equal(t, "score_drop", pushed.AlertType)
	require.Equal(t, "dropped below threshold", pushed.Message)
}

func TestAlertHub_RemoveDropsClient(t *testing.T) {
	hub := NewAlertHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n == 0 || time.Now().After(deadline) {
			require.Equal(t, 0, n)
			break
		}
		time.Sleep(time.Millisecond)
	}
}
