package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mines_arena/internal/config"
	"mines_arena/internal/db"
	httpServer "mines_arena/internal/http"
	"mines_arena/internal/http/middleware"
	"mines_arena/internal/logger"
	"mines_arena/internal/notary"
	"mines_arena/internal/repository"
	"mines_arena/internal/service"
	"mines_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	cfg := config.Load()
	service.InitJWT()

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	r := gin.Default()

	// CORS for production (frontend on a different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Redis-backed game ownership registry; without redis the instance
	// runs standalone and never redirects
	var registry *ws.Registry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, running without game registry", "error", err)
		} else {
			registry = ws.NewRegistry(rdb, cfg.MachineID)
		}
		cancel()
	}

	balances := service.NewBalanceService(dbPool)
	settlements := service.NewSettlementService(dbPool, balances)
	gameRepo := repository.NewGameRepository(dbPool)

	hub := ws.NewHub(ws.HubOptions{
		MachineID: cfg.MachineID,
		Timeouts: ws.Timeouts{
			Move: time.Duration(cfg.MoveTimeoutSeconds) * time.Second,
			Lock: time.Duration(cfg.LockTimeoutSeconds) * time.Second,
			Wait: time.Duration(cfg.WaitTimeoutSeconds) * time.Second,
		},
		MinBet:   cfg.MinBet,
		MaxBet:   cfg.MaxBet,
		Wallets:  balances,
		Settler:  settlements,
		Games:    gameRepo,
		Registry: registry,
	})

	// On-chain notarization worker, feeding confirmations back into
	// connected clients
	if cfg.NotaryURL != "" {
		worker := notary.NewWorker(notary.NewClient(cfg.NotaryURL, cfg.NotaryKey), 256, hub.OnNotaryConfirm)
		worker.Start()
		defer worker.Stop()
		hub.SetNotary(worker)
	}

	httpServer.RegisterRoutes(r, dbPool, hub, version, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Println("server started on port", cfg.AppPort, "machine", cfg.MachineID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown:", err)
	}

	log.Println("server exited")
}
