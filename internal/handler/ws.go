// internal/handler/ws.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"photodrop-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Session tokens are the only access control in this design, so any
	// origin may open a viewer connection.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveFeed upgrades the connection and relays room notifications to it. The
// client joins at most one room; a join with an empty room is silently
// ignored and malformed frames never kill the connection. Disconnect, however
// it happens, unsubscribes the connection from its room.
func (h *Handler) LiveFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var (
		joined models.SessionToken
		cancel func()
	)
	defer func() {
		if cancel != nil {
			cancel()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req models.JoinRequest
		if err := json.Unmarshal(data, &req); err != nil {
			slog.Warn("malformed websocket frame", "error", err)
			continue
		}
		if req.Event != models.EventJoin || req.Room == "" {
			continue
		}

		token := models.SessionToken(req.Room)
		if joined != "" {
			if joined != token {
				slog.Warn("connection already joined a room", "joined", joined, "requested", token)
			}
			continue
		}

		events, unsubscribe := h.Hub.Subscribe(token)
		joined, cancel = token, unsubscribe
		go writePump(conn, events)
	}
}

// writePump drains room events into the socket. It exits when the
// subscription is cancelled (channel closed) or the peer stops accepting
// writes, in which case closing the connection unblocks the read loop too.
func writePump(conn *websocket.Conn, events <-chan models.NewImageEvent) {
	for e := range events {
		if err := conn.WriteJSON(e); err != nil {
			slog.Warn("viewer delivery failed", "error", err)
			conn.Close()
			return
		}
	}
}
