package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleSessionStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	sess, ok := s.store.Get(userID)
	if !ok {
		c.JSON(http.StatusOK, SessionStatusResponse{UserID: userID})
		return
	}
	c.JSON(http.StatusOK, SessionStatusResponse{
		UserID:            userID,
		SessionID:         sess.ID,
		HistoryEntries:    len(sess.OperationHistory),
		InventoryCount:    len(sess.Snapshot()),
		HasPendingConfirm: sess.PendingConfirmation != nil,
	})
}

func (s *Server) handleSessionClear(c *gin.Context) {
	userID := c.GetString("user_id")
	s.store.Clear(userID, "user requested")
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) handleSessionClearHistory(c *gin.Context) {
	userID := c.GetString("user_id")
	s.store.ClearHistory(userID)
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (s *Server) handleSessionAll(c *gin.Context) {
	sessions := s.store.All()
	out := make([]SessionSummaryDTO, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionSummaryDTO{
			SessionID:      sess.ID,
			InventoryCount: len(sess.Snapshot()),
			HistoryEntries: len(sess.OperationHistory),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (s *Server) handleSessionClearAll(c *gin.Context) {
	s.store.ClearAll()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
