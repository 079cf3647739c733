package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// upgrader allows cross-origin subscribers (the bubbletea TUI client
// connects from outside the server's own origin).
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// handleStreamWS mirrors handleStream's SSE frames over a websocket
// connection, for clients (the TUI) that prefer a bidirectional
// transport; the payload is the same ProgressEvent JSON either way.
func (s *Server) handleStreamWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed for session %s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	sub := s.hub.Subscribe(sessionID)
	defer sub.Close()

	for {
		select {
		case event, open := <-sub.Events():
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}
