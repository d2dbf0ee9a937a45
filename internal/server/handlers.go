// Package server exposes the WebSocket upgrade and health check handlers.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades HTTP requests on the chat endpoint and hands
// the connection to the hub, which launches its read/write pumps. The
// upgrade itself never blocks on hub work beyond the registration handoff.
func WebSocketHandler(hub *Hub, origins *OriginChecker) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.Check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("websocket upgrade failed")
			return
		}

		select {
		case hub.register <- NewClient(conn, hub, r.RemoteAddr):
		case <-hub.ctx.Done():
			_ = conn.Close()
		}
	}
}

// HealthHandler reports server liveness.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "ok")
}
