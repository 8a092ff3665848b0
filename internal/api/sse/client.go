package sse

import (
	"context"
	"net/http"
	"time"

	"github.com/mcoot/triviastake/internal/model"
)

const (
	pingPeriod     = 30 * time.Second
	sendBufferSize = 64
)

// Client is one connected event stream
type Client struct {
	handle      string
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a Client. handle is informational and may be empty.
func NewClient(handle string) *Client {
	return &Client{
		handle:      handle,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams a session's events until the request ends or the hub
// closes
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, gameID model.SessionID, handle string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient(handle)
	hub := subscribe(r.Context(), manager, gameID, client)
	if hub == nil {
		return
	}
	defer hub.Unregister(client)

	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// subscribe registers client, retrying if the hub was cleaned up between
// lookup and registration
func subscribe(ctx context.Context, manager *HubManager, gameID model.SessionID, client *Client) *Hub {
	for ctx.Err() == nil {
		hub := manager.GetOrCreateHub(gameID)
		if hub.Register(client) {
			return hub
		}
	}
	return nil
}
