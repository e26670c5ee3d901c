package service

import (
	"context"
	"log"

	"mines_arena/internal/domain"
	"mines_arena/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettlementService moves the pot when a game ends. The loser pays their
// stake once; it is split across the winners. Everything happens in a
// single database transaction so a crash can never leave a half-settled
// game.
type SettlementService struct {
	db              *pgxpool.Pool
	balances        *BalanceService
	transactionRepo *repository.TransactionRepository
}

func NewSettlementService(db *pgxpool.Pool, balances *BalanceService) *SettlementService {
	return &SettlementService{
		db:              db,
		balances:        balances,
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// ComputeDeltas returns the signed balance change per player id. The
// loser loses singleBetSize; each winner gets an equal share, and the
// integer remainder goes one unit at a time to the earliest-seated
// winners so the deltas always sum to zero.
func ComputeDeltas(players []domain.Player, loserIdx int, singleBetSize int64) map[int64]int64 {
	deltas := make(map[int64]int64, len(players))
	winners := int64(len(players) - 1)
	if winners <= 0 {
		return deltas
	}

	share := singleBetSize / winners
	remainder := singleBetSize % winners

	for i, p := range players {
		if i == loserIdx {
			deltas[p.ID] = -singleBetSize
			continue
		}
		d := share
		if remainder > 0 {
			d++
			remainder--
		}
		deltas[p.ID] = d
	}
	return deltas
}

// Settle applies the pot movement for one finished game.
func (s *SettlementService) Settle(ctx context.Context, gameID string, players []domain.Player, loserIdx int, singleBetSize int64) error {
	if loserIdx < 0 || loserIdx >= len(players) || len(players) < 2 {
		return ErrInvalidAmount
	}

	deltas := ComputeDeltas(players, loserIdx, singleBetSize)
	loser := players[loserIdx]

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// debit the loser first so an empty wallet aborts before any credit
	if _, err := s.balances.DebitWithTx(ctx, tx, loser.ID, singleBetSize); err != nil {
		return err
	}
	if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		PlayerID: loser.ID,
		Type:     "game_loss",
		Amount:   -singleBetSize,
		Meta:     map[string]interface{}{"game_id": gameID},
	}); err != nil {
		return err
	}

	for _, p := range players {
		d := deltas[p.ID]
		if d <= 0 {
			continue
		}
		if _, err := s.balances.CreditWithTx(ctx, tx, p.ID, d); err != nil {
			return err
		}
		if err := s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
			PlayerID: p.ID,
			Type:     "game_win",
			Amount:   d,
			Meta:     map[string]interface{}{"game_id": gameID},
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("SettlementService.Settle: game=%s loser=%d pot=%d settled", gameID, loser.ID, singleBetSize)
	return nil
}
