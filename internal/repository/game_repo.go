package repository

import (
	"context"
	"encoding/json"

	"mines_arena/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// SaveGame stores one finished or aborted game. Players go in as jsonb so
// any table size works without schema churn.
func (r *GameRepository) SaveGame(ctx context.Context, rec *domain.GameRecord) error {
	playersJSON, err := json.Marshal(rec.Players)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO games (game_id, players, loser_idx, single_bet_size, grid_size, bombs, outcome)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		rec.GameID, playersJSON, rec.LoserIdx, rec.SingleBetSize,
		rec.GridSize, rec.Bombs, string(rec.Outcome),
	).Scan(&rec.ID, &rec.CreatedAt)
}

// GetByPlayer returns the player's recent games, newest first.
func (r *GameRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, game_id, players, loser_idx, single_bet_size, grid_size, bombs, outcome, created_at
		 FROM games
		 WHERE players @> $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		playerJSONFilter(playerID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.GameRecord
	for rows.Next() {
		var (
			rec         domain.GameRecord
			playersJSON []byte
			outcome     string
		)
		if err := rows.Scan(&rec.ID, &rec.GameID, &playersJSON, &rec.LoserIdx,
			&rec.SingleBetSize, &rec.GridSize, &rec.Bombs, &outcome, &rec.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(playersJSON, &rec.Players)
		rec.Outcome = domain.GameOutcome(outcome)
		res = append(res, &rec)
	}
	return res, rows.Err()
}

// GetByGameID looks up the latest game played under a public id. Rematches
// reuse the id, so one id can map to several rows.
func (r *GameRepository) GetByGameID(ctx context.Context, gameID string) (*domain.GameRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, game_id, players, loser_idx, single_bet_size, grid_size, bombs, outcome, created_at
		 FROM games
		 WHERE game_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		gameID,
	)

	var (
		rec         domain.GameRecord
		playersJSON []byte
		outcome     string
	)
	if err := row.Scan(&rec.ID, &rec.GameID, &playersJSON, &rec.LoserIdx,
		&rec.SingleBetSize, &rec.GridSize, &rec.Bombs, &outcome, &rec.CreatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(playersJSON, &rec.Players)
	rec.Outcome = domain.GameOutcome(outcome)
	return &rec, nil
}

// playerJSONFilter builds the jsonb containment argument for players @>.
func playerJSONFilter(playerID int64) []byte {
	b, _ := json.Marshal([]map[string]int64{{"id": playerID}})
	return b
}
