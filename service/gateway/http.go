package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHealth is the liveness read: current connection and user counts.
func (s *Server) HandleHealth(c *gin.Context) {
	conns, users, _ := s.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"connections": conns,
		"users":       users,
		"timestamp":   NowISO(),
	})
}

// HandleMetrics reports connection/user/room counts and process uptime.
func (s *Server) HandleMetrics(c *gin.Context) {
	conns, users, rooms := s.Counts()
	c.JSON(http.StatusOK, gin.H{
		"node":        s.nodeID,
		"connections": conns,
		"users":       users,
		"rooms":       rooms,
		"uptime":      s.Uptime().Seconds(),
		"timestamp":   NowISO(),
	})
}
