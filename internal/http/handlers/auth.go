package handlers

import (
	"net/http"

	"mines_arena/internal/domain"
	"mines_arena/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
}

// Auth issues a token for an existing account, or registers a new one
// when no player_id is supplied.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()

	var player *domain.Player
	if req.PlayerID != 0 {
		p, err := h.PlayerRepo.GetByID(ctx, req.PlayerID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown player"})
			return
		}
		player = p
	} else {
		if req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
			return
		}
		player = &domain.Player{Name: req.Name}
		if err := h.PlayerRepo.Create(ctx, player); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create player"})
			return
		}
	}

	token, err := service.GenerateJWT(player.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"player": gin.H{
			"id":   player.ID,
			"name": player.Name,
			"gems": player.WalletBalance,
		},
	})
}
