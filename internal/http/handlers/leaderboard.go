package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// TopPlayers returns the richest accounts.
func (h *Handler) TopPlayers(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	players, err := h.PlayerRepo.GetTopByBalance(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"players": players})
}
