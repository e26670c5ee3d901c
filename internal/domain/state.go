package domain

import "encoding/json"

// GameState is the externally-tagged session snapshot sent inside every
// GameUpdate. Exactly one variant is active at a time; clients re-render
// entirely from whichever key is present, so each variant carries a full,
// self-consistent view.
type GameState interface {
	StateKey() string
}

type WaitingState struct {
	GameID        string `json:"game_id"`
	Creator       Player `json:"creator"`
	Board         *Board `json:"board"`
	SingleBetSize int64  `json:"single_bet_size"`
}

func (WaitingState) StateKey() string { return "WAITING" }

type RunningState struct {
	GameID        string   `json:"game_id"`
	Players       []Player `json:"players"`
	Board         *Board   `json:"board"`
	TurnIdx       int      `json:"turn_idx"`
	SingleBetSize int64    `json:"single_bet_size"`
	Locks         [][2]int `json:"locks"`
}

func (RunningState) StateKey() string { return "RUNNING" }

type FinishedState struct {
	GameID        string   `json:"game_id"`
	LoserIdx      int      `json:"loser_idx"`
	Board         *Board   `json:"board"`
	Players       []Player `json:"players"`
	SingleBetSize int64    `json:"single_bet_size"`
}

func (FinishedState) StateKey() string { return "FINISHED" }

type RematchState struct {
	GameID        string   `json:"game_id"`
	Players       []Player `json:"players"`
	Board         *Board   `json:"board"`
	SingleBetSize int64    `json:"single_bet_size"`
	Accepted      []int    `json:"accepted"`
}

func (RematchState) StateKey() string { return "REMATCH" }

type AbortedState struct {
	GameID string `json:"game_id"`
}

func (AbortedState) StateKey() string { return "ABORTED" }

// RematchRejectedState tells clients a rematch offer was declined and they
// should return to the lobby. Distinct from ABORTED, which clients render
// as a dead game.
type RematchRejectedState struct {
	GameID string `json:"game_id"`
}

func (RematchRejectedState) StateKey() string { return "RematchRejected" }

// EncodeState wraps a variant into its single-key envelope,
// e.g. {"RUNNING":{...}}.
func EncodeState(s GameState) (json.RawMessage, error) {
	return json.Marshal(map[string]GameState{s.StateKey(): s})
}
