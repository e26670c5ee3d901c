package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GameLimits exposes the stake bounds so clients can validate before
// opening a socket.
func (h *Handler) GameLimits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"min_bet": h.Config.MinBet,
		"max_bet": h.Config.MaxBet,
	})
}
