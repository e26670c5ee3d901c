package repository

import (
	"context"
	"errors"

	"mines_arena/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, COALESCE(name, ''), gems
		 FROM players
		 WHERE id = $1`,
		id,
	)

	var p domain.Player
	if err := row.Scan(&p.ID, &p.Name, &p.WalletBalance); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	// starting balance for new accounts
	const initialGems = 10000

	if p.WalletBalance == 0 {
		p.WalletBalance = initialGems
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO players (name, gems)
		 VALUES ($1, $2)
		 RETURNING id`,
		p.Name, p.WalletBalance,
	).Scan(&p.ID)
}

// UpdateGems applies a signed delta, refusing to drive the balance
// negative.
func (r *PlayerRepository) UpdateGems(ctx context.Context, playerID int64, delta int64) (int64, error) {
	var newBalance int64
	err := r.db.QueryRow(ctx,
		`UPDATE players SET gems = gems + $1 WHERE id = $2 AND gems + $1 >= 0 RETURNING gems`,
		delta, playerID,
	).Scan(&newBalance)
	return newBalance, err
}

func (r *PlayerRepository) GetGems(ctx context.Context, playerID int64) (int64, error) {
	var gems int64
	err := r.db.QueryRow(ctx, `SELECT gems FROM players WHERE id = $1`, playerID).Scan(&gems)
	return gems, err
}

// GetTopByBalance returns the richest accounts for the leaderboard.
func (r *PlayerRepository) GetTopByBalance(ctx context.Context, limit int) ([]*domain.Player, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, COALESCE(name, ''), gems
		 FROM players
		 ORDER BY gems DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.WalletBalance); err != nil {
			return nil, err
		}
		res = append(res, &p)
	}
	return res, rows.Err()
}
