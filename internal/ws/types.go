package ws

import (
	"context"
	"time"

	"mines_arena/internal/domain"
)

// Wallets is the read side of player accounts the hub needs for seating
// and rematch checks.
type Wallets interface {
	GetBalance(ctx context.Context, playerID int64) (int64, error)
}

// Settler moves the pot when a game finishes with a loser.
type Settler interface {
	Settle(ctx context.Context, gameID string, players []domain.Player, loserIdx int, singleBetSize int64) error
}

// GameStore persists finished and aborted games.
type GameStore interface {
	SaveGame(ctx context.Context, rec *domain.GameRecord) error
}

// Notary records game events on the external notarization service. Record
// must not block; confirmations come back through the hub callback.
type Notary interface {
	Record(gameID string, updateType domain.BlockchainUpdateType, detail map[string]any)
}

// Timeouts are the three clocks a session runs on.
type Timeouts struct {
	Move time.Duration // turn clock
	Lock time.Duration // lock sub-phase clock
	Wait time.Duration // matchmaking clock for WAITING rooms
}

func walletCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Move: 30 * time.Second,
		Lock: 5 * time.Second,
		Wait: 50 * time.Second,
	}
}
