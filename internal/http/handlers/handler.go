package handlers

import (
	"mines_arena/internal/repository"
	"mines_arena/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HandlerConfig holds configuration for handler
type HandlerConfig struct {
	MinBet int64
	MaxBet int64
}

type Handler struct {
	DB              *pgxpool.Pool
	PlayerRepo      *repository.PlayerRepository
	GameRepo        *repository.GameRepository
	BalanceService  *service.BalanceService
	TransactionRepo *repository.TransactionRepository
	Config          HandlerConfig
}

func NewHandler(db *pgxpool.Pool, cfg HandlerConfig) *Handler {
	return &Handler{
		DB:              db,
		PlayerRepo:      repository.NewPlayerRepository(db),
		GameRepo:        repository.NewGameRepository(db),
		BalanceService:  service.NewBalanceService(db),
		TransactionRepo: repository.NewTransactionRepository(db),
		Config:          cfg,
	}
}

// getPlayerID pulls the authenticated player id out of the gin context
func getPlayerID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	val, ok := c.Get("player_id")
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
