package service

import (
	"context"
	"errors"

	"mines_arena/internal/domain"
	"mines_arena/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// BalanceService handles all wallet operations
type BalanceService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
}

func NewBalanceService(db *pgxpool.Pool) *BalanceService {
	return &BalanceService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// GetBalance returns the player's current balance
func (s *BalanceService) GetBalance(ctx context.Context, playerID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT gems FROM players WHERE id = $1`, playerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, err
	}
	return balance, nil
}

// Debit deducts amount from the player's balance (stakes, penalties)
func (s *BalanceService) Debit(ctx context.Context, playerID int64, amount int64, txType string, meta map[string]interface{}) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock and check balance
	var balance int64
	err = tx.QueryRow(ctx, `SELECT gems FROM players WHERE id = $1 FOR UPDATE`, playerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, err
	}

	if balance < amount {
		return 0, ErrInsufficientFunds
	}

	err = tx.QueryRow(ctx, `UPDATE players SET gems = gems - $1 WHERE id = $2 RETURNING gems`, amount, playerID).Scan(&newBalance)
	if err != nil {
		return 0, err
	}

	transaction := &domain.Transaction{
		PlayerID: playerID,
		Type:     txType,
		Amount:   -amount,
		Meta:     meta,
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, transaction); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// Credit adds amount to the player's balance (winnings, deposits)
func (s *BalanceService) Credit(ctx context.Context, playerID int64, amount int64, txType string, meta map[string]interface{}) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `UPDATE players SET gems = gems + $1 WHERE id = $2 RETURNING gems`, amount, playerID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, err
	}

	transaction := &domain.Transaction{
		PlayerID: playerID,
		Type:     txType,
		Amount:   amount,
		Meta:     meta,
	}
	if err = s.transactionRepo.CreateWithTx(ctx, tx, transaction); err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// DebitWithTx deducts amount within an existing transaction
func (s *BalanceService) DebitWithTx(ctx context.Context, tx pgx.Tx, playerID int64, amount int64) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE players SET gems = gems - $1 WHERE id = $2 AND gems >= $1 RETURNING gems`,
		amount, playerID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Could be not found or insufficient funds, check which
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)`, playerID).Scan(&exists)
			if !exists {
				return 0, ErrPlayerNotFound
			}
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}

	return newBalance, nil
}

// CreditWithTx adds amount within an existing transaction
func (s *BalanceService) CreditWithTx(ctx context.Context, tx pgx.Tx, playerID int64, amount int64) (newBalance int64, err error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	err = tx.QueryRow(ctx,
		`UPDATE players SET gems = gems + $1 WHERE id = $2 RETURNING gems`,
		amount, playerID,
	).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, err
	}

	return newBalance, nil
}

// GetTransactionHistory returns the player's transaction history
func (s *BalanceService) GetTransactionHistory(ctx context.Context, playerID int64, limit int) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetByPlayerID(ctx, playerID, limit)
}
