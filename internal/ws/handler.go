package ws

import (
	"log"
	"net/http"
	"os"

	"mines_arena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades the connection and starts the client pumps. A token
// query parameter is optional: when present it pins the connection to the
// authenticated account, otherwise the first Play/Join binds the identity.
func HandleWS(hub *Hub) gin.HandlerFunc {
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		var playerID int64
		if token := c.Query("token"); token != "" {
			id, err := service.ParseJWT(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			playerID = id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("ws upgrade error:", err)
			return
		}

		client := NewClient(conn, hub)
		if playerID != 0 {
			client.PlayerID = playerID
			client.Pinned = true
		}
		go client.Run()
	}
}
