package game

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid game configuration")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidCell      = errors.New("invalid cell")
	ErrNoLocksRemaining = errors.New("no locks remaining")
	ErrNotInLockPhase   = errors.New("not in lock phase")
	ErrInLockPhase      = errors.New("finish your lock phase first")
	ErrSessionTerminal  = errors.New("session already ended")
	ErrNotRunning       = errors.New("game is not running")
	ErrGameFull         = errors.New("game is full")
	ErrGameStarted      = errors.New("game already started")
	ErrNotInGame        = errors.New("you are not a player in this game")
	ErrNoRematchPending = errors.New("no pending rematch request")
	ErrRematchPending   = errors.New("rematch already requested")
)
