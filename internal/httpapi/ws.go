package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/turnstile-labs/turnstile/internal/turnstile/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Gate dashboards are served from whatever origin the venue uses.
	CheckOrigin: func(*http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// wsFrame is what live subscribers receive per counter delta.
type wsFrame struct {
	Type string `json:"type"`
	broadcast.CountUpdate
}

// handleWS upgrades the connection and streams counter updates from the
// hub.  The connection is write-only; inbound frames are read solely to
// notice the peer going away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.hub.Subscribe(16)
	defer cancel()

	// Drain the read side: a read error is how we learn the client left.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for u := range updates {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(wsFrame{Type: "inside_incr", CountUpdate: u}); err != nil {
			return
		}
	}
}
