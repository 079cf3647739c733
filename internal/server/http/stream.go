package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pantry/internal/progressstream"
)

// handleStream serves the SSE transport of the Progress Stream Hub
// (C8), per spec §4.8/§6: `text/event-stream`, frames `data:
// <json>\n\n`.
func (s *Server) handleStream(c *gin.Context) {
	sessionID := c.Param("session_id")
	sub := s.hub.Subscribe(sessionID)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)

	for {
		select {
		case event, open := <-sub.Events():
			if !open {
				return
			}
			if err := progressstream.WriteSSE(c.Writer, event); err != nil {
				return
			}
			if ok {
				flusher.Flush()
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}
