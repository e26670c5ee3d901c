package http

import (
	"os"
	"strconv"
	"time"

	"mines_arena/internal/config"
	"mines_arena/internal/http/handlers"
	"mines_arena/internal/http/middleware"
	"mines_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires the REST surface and the game WebSocket endpoint.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, hub *ws.Hub, version string, cfg *config.Config) {
	h := handlers.NewHandler(db, handlers.HandlerConfig{
		MinBet: cfg.MinBet,
		MaxBet: cfg.MaxBet,
	})
	healthHandler := handlers.NewHealthHandler(db, version)

	// read limits from env, with safe defaults
	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth gets an extra, stricter per-IP limiter on top of the group one
	v1.POST("/auth", middleware.SimpleRateLimit(authRateLimit, time.Minute), h.Auth)

	// Player profile and history
	playerRL := middleware.PlayerRateLimit(cfg.PlayerRateLimit, time.Duration(cfg.PlayerRateWindow)*time.Second)
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.GET("/me/games", middleware.JWT(), playerRL, h.MyGames)
	v1.GET("/me/transactions", middleware.JWT(), playerRL, h.MyTransactions)

	// Public game data
	v1.GET("/games/:game_id", h.GetGame)
	v1.GET("/top", h.TopPlayers)
	v1.GET("/game/limits", h.GameLimits)

	// WebSocket for the game protocol
	r.GET("/ws", ws.HandleWS(hub))
}
