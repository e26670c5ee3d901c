package domain

import "time"

// GameOutcome describes why a session ended.
type GameOutcome string

const (
	OutcomeMineHit    GameOutcome = "mine_hit"
	OutcomeForfeiture GameOutcome = "forfeiture"
	OutcomeAborted    GameOutcome = "aborted"
)

// GameRecord is the persisted row for a finished or aborted session.
type GameRecord struct {
	ID            int64       `db:"id"`
	GameID        string      `db:"game_id"`
	Players       []Player    `db:"players"`
	LoserIdx      *int        `db:"loser_idx"` // nil for aborted games
	SingleBetSize int64       `db:"single_bet_size"`
	GridSize      int         `db:"grid_size"`
	Bombs         int         `db:"bombs"`
	Outcome       GameOutcome `db:"outcome"`
	CreatedAt     time.Time   `db:"created_at"`
}
