package game

import (
	"mines_arena/internal/domain"
)

// Phase is the coarse lifecycle stage of a session. The wire-facing
// tagged union lives in domain.GameState; Snapshot derives it.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseRunning
	PhaseFinished
	PhaseRematch
	PhaseAborted
)

// Config fixes the rules of a session at creation time.
type Config struct {
	GameID        string
	Grid          int
	Bombs         int
	MinPlayers    int
	MaxPlayers    int
	SingleBetSize int64
}

// Session is the per-game state machine. It has no internal locking:
// callers must serialize all mutating calls (one owner goroutine per
// session).
type Session struct {
	cfg   Config
	phase Phase

	players []domain.Player
	board   *domain.Board
	turnIdx int
	locks   [][2]int

	inLockPhase bool
	lockQuota   int // remaining in the current lock phase
	lockBudget  int // remaining for the whole game

	loserIdx  int
	movesMade int

	rematchRequester int64
	accepted         []int
}

// MoveResult reports what a successful MakeMove did.
type MoveResult struct {
	MineHit      bool
	LockPhase    bool // actor entered their lock sub-phase
	Quota        int
	TurnAdvanced bool // quota was zero, turn passed immediately
}

// LockResult reports what a successful LockCell did.
type LockResult struct {
	PhaseComplete bool
	Remaining     int
}

// RematchOutcome reports how a rematch response resolved.
type RematchOutcome struct {
	Declined    bool
	AllAccepted bool
}

// NewSession creates a WAITING session owned by creator.
func NewSession(cfg Config, creator domain.Player, board *domain.Board) (*Session, error) {
	if cfg.GameID == "" || cfg.SingleBetSize <= 0 || cfg.MinPlayers < 2 {
		return nil, ErrInvalidConfig
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = cfg.MinPlayers
	}
	if cfg.MaxPlayers < cfg.MinPlayers {
		return nil, ErrInvalidConfig
	}
	if board == nil || board.N != cfg.Grid {
		return nil, ErrInvalidConfig
	}

	return &Session{
		cfg:     cfg,
		phase:   PhaseWaiting,
		players: []domain.Player{creator},
		board:   board,
	}, nil
}

func (s *Session) Phase() Phase             { return s.phase }
func (s *Session) Config() Config           { return s.cfg }
func (s *Session) Players() []domain.Player { return s.players }
func (s *Session) TurnIdx() int             { return s.turnIdx }
func (s *Session) InLockPhase() bool        { return s.inLockPhase }
func (s *Session) LockQuota() int           { return s.lockQuota }
func (s *Session) LoserIdx() int            { return s.loserIdx }

// HasProgress reports whether any cell was revealed in the current game.
// A move timeout before any progress aborts instead of forfeiting.
func (s *Session) HasProgress() bool { return s.movesMade > 0 }

// Seated reports whether the account already holds a seat.
func (s *Session) Seated(playerID int64) bool {
	return s.playerIdx(playerID) >= 0
}

func (s *Session) playerIdx(playerID int64) int {
	for i, p := range s.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is.
func (s *Session) CurrentPlayer() domain.Player {
	return s.players[s.turnIdx]
}

// Join seats a player in a WAITING session. Returns started=true when the
// quorum was reached and the session moved to RUNNING. Joining again with
// an already-seated id is a no-op in any phase (reconnect resume).
func (s *Session) Join(p domain.Player) (started bool, err error) {
	if s.Seated(p.ID) {
		return false, nil
	}

	switch s.phase {
	case PhaseWaiting:
		if len(s.players) >= s.cfg.MaxPlayers {
			return false, ErrGameFull
		}
		s.players = append(s.players, p)
		if len(s.players) >= s.cfg.MinPlayers {
			s.start()
			return true, nil
		}
		return false, nil
	case PhaseRunning:
		return false, ErrGameStarted
	default:
		return false, ErrSessionTerminal
	}
}

func (s *Session) start() {
	s.phase = PhaseRunning
	s.turnIdx = 0
	s.locks = nil
	s.inLockPhase = false
	s.lockQuota = 0
	s.movesMade = 0
	// total lock allotment for the whole game
	s.lockBudget = s.cfg.Grid * (s.cfg.Grid + 1) / 2
}

func (s *Session) isLocked(x, y int) bool {
	for _, l := range s.locks {
		if l[0] == x && l[1] == y {
			return true
		}
	}
	return false
}

// unopened counts cells that are still available for a reveal: hidden and
// not claimed by a lock.
func (s *Session) unopened() int {
	return s.board.HiddenCount() - len(s.locks)
}

// MakeMove reveals (x, y) for the acting player. A mine ends the session
// immediately; a safe reveal opens the actor's lock sub-phase when any
// quota is available, otherwise the turn passes.
func (s *Session) MakeMove(actorID int64, x, y int) (MoveResult, error) {
	if s.phase != PhaseRunning {
		return MoveResult{}, ErrNotRunning
	}
	if s.players[s.turnIdx].ID != actorID {
		return MoveResult{}, ErrNotYourTurn
	}
	if s.inLockPhase {
		return MoveResult{}, ErrInLockPhase
	}
	if !s.board.InBounds(x, y) || s.board.Grid[y][x] != domain.CellHidden || s.isLocked(x, y) {
		return MoveResult{}, ErrInvalidCell
	}

	if s.board.IsBomb(x, y) {
		s.board.Grid[y][x] = domain.CellMined
		s.phase = PhaseFinished
		s.loserIdx = s.turnIdx
		return MoveResult{MineHit: true}, nil
	}

	s.board.Grid[y][x] = domain.CellRevealed
	s.movesMade++

	quota := s.computeLockQuota()
	if quota == 0 {
		s.advanceTurn()
		return MoveResult{TurnAdvanced: true}, nil
	}

	s.inLockPhase = true
	s.lockQuota = quota
	return MoveResult{LockPhase: true, Quota: quota}, nil
}

// computeLockQuota clamps the per-phase allotment so the next player is
// always left at least one free cell plus a buffer.
func (s *Session) computeLockQuota() int {
	unopened := s.unopened()
	if unopened > s.lockBudget+1 {
		return s.lockBudget
	}
	if unopened <= 2 {
		return 0
	}
	return unopened - 2
}

// LockCell claims (x, y) for the acting player during their lock phase.
// Exhausting the quota completes the phase.
func (s *Session) LockCell(actorID int64, x, y int) (LockResult, error) {
	if s.phase != PhaseRunning {
		return LockResult{}, ErrNotRunning
	}
	if s.players[s.turnIdx].ID != actorID {
		return LockResult{}, ErrNotYourTurn
	}
	if !s.inLockPhase {
		return LockResult{}, ErrNotInLockPhase
	}
	if s.lockQuota <= 0 {
		return LockResult{}, ErrNoLocksRemaining
	}
	if !s.board.InBounds(x, y) || s.board.Grid[y][x] != domain.CellHidden || s.isLocked(x, y) {
		return LockResult{}, ErrInvalidCell
	}

	s.locks = append(s.locks, [2]int{x, y})
	s.lockBudget--
	s.lockQuota--

	if s.lockQuota == 0 {
		s.completeLockPhase()
		return LockResult{PhaseComplete: true}, nil
	}
	return LockResult{Remaining: s.lockQuota}, nil
}

// LockComplete ends the actor's lock phase early.
func (s *Session) LockComplete(actorID int64) error {
	if s.phase != PhaseRunning {
		return ErrNotRunning
	}
	if s.players[s.turnIdx].ID != actorID {
		return ErrNotYourTurn
	}
	if !s.inLockPhase {
		return ErrNotInLockPhase
	}
	s.completeLockPhase()
	return nil
}

// ForceLockComplete is the timer-driven variant of LockComplete. It is a
// no-op outside a lock phase so a stale timer cannot corrupt state.
func (s *Session) ForceLockComplete() bool {
	if s.phase != PhaseRunning || !s.inLockPhase {
		return false
	}
	s.completeLockPhase()
	return true
}

func (s *Session) completeLockPhase() {
	s.inLockPhase = false
	s.lockQuota = 0
	s.advanceTurn()
}

func (s *Session) advanceTurn() {
	s.turnIdx = (s.turnIdx + 1) % len(s.players)
}

// Forfeit ends a RUNNING session with the named player as loser, e.g.
// when they quit mid-game.
func (s *Session) Forfeit(playerID int64) error {
	idx := s.playerIdx(playerID)
	if idx < 0 {
		return ErrNotInGame
	}
	if s.phase != PhaseRunning {
		return ErrNotRunning
	}
	s.phase = PhaseFinished
	s.loserIdx = idx
	s.inLockPhase = false
	return nil
}

// Stop force-ends the session. abort=true tears it down with no loser and
// no settlement; abort=false forfeits the current player.
func (s *Session) Stop(abort bool) error {
	switch s.phase {
	case PhaseWaiting:
		s.phase = PhaseAborted
		return nil
	case PhaseRunning:
		if abort {
			s.phase = PhaseAborted
			return nil
		}
		s.phase = PhaseFinished
		s.loserIdx = s.turnIdx
		s.inLockPhase = false
		return nil
	default:
		return ErrSessionTerminal
	}
}

// RequestRematch registers a rematch request on a FINISHED session. The
// session stays FINISHED until responses start arriving.
func (s *Session) RequestRematch(requesterID int64) error {
	if s.phase != PhaseFinished {
		return ErrSessionTerminal
	}
	if !s.Seated(requesterID) {
		return ErrNotInGame
	}
	if s.rematchRequester != 0 {
		return ErrRematchPending
	}
	s.rematchRequester = requesterID
	return nil
}

// RematchRequester returns the pending requester id, 0 when none.
func (s *Session) RematchRequester() int64 { return s.rematchRequester }

// RespondRematch records one player's answer. The first acceptance moves
// the session to REMATCH with the requester counted in; any decline, from
// anyone, cancels the whole request. All-accepted is reported so the
// caller can start the new game.
func (s *Session) RespondRematch(playerID int64, want bool) (RematchOutcome, error) {
	idx := s.playerIdx(playerID)
	if idx < 0 {
		return RematchOutcome{}, ErrNotInGame
	}
	if s.rematchRequester == 0 {
		return RematchOutcome{}, ErrNoRematchPending
	}
	if s.phase != PhaseFinished && s.phase != PhaseRematch {
		return RematchOutcome{}, ErrSessionTerminal
	}

	if !want {
		// unanimity required: a single decline cancels for everyone
		s.rematchRequester = 0
		s.accepted = nil
		s.phase = PhaseAborted
		return RematchOutcome{Declined: true}, nil
	}

	if s.phase == PhaseFinished {
		s.phase = PhaseRematch
		s.accepted = make([]int, len(s.players))
		if ri := s.playerIdx(s.rematchRequester); ri >= 0 {
			s.accepted[ri] = 1
		}
	}
	s.accepted[idx] = 1

	for _, a := range s.accepted {
		if a == 0 {
			return RematchOutcome{}, nil
		}
	}
	return RematchOutcome{AllAccepted: true}, nil
}

// StartRematch promotes an all-accepted REMATCH to a fresh RUNNING game on
// a brand-new board with the same configuration.
func (s *Session) StartRematch(board *domain.Board) error {
	if s.phase != PhaseRematch {
		return ErrSessionTerminal
	}
	if board == nil || board.N != s.cfg.Grid {
		return ErrInvalidConfig
	}
	s.board = board
	s.rematchRequester = 0
	s.accepted = nil
	s.start()
	return nil
}

// Snapshot derives the wire-facing tagged state for a GameUpdate.
func (s *Session) Snapshot() domain.GameState {
	switch s.phase {
	case PhaseWaiting:
		return domain.WaitingState{
			GameID:        s.cfg.GameID,
			Creator:       s.players[0],
			Board:         s.board,
			SingleBetSize: s.cfg.SingleBetSize,
		}
	case PhaseRunning:
		locks := s.locks
		if locks == nil {
			locks = [][2]int{}
		}
		return domain.RunningState{
			GameID:        s.cfg.GameID,
			Players:       s.players,
			Board:         s.board,
			TurnIdx:       s.turnIdx,
			SingleBetSize: s.cfg.SingleBetSize,
			Locks:         locks,
		}
	case PhaseFinished:
		return domain.FinishedState{
			GameID:        s.cfg.GameID,
			LoserIdx:      s.loserIdx,
			Board:         s.board,
			Players:       s.players,
			SingleBetSize: s.cfg.SingleBetSize,
		}
	case PhaseRematch:
		return domain.RematchState{
			GameID:        s.cfg.GameID,
			Players:       s.players,
			Board:         s.board,
			SingleBetSize: s.cfg.SingleBetSize,
			Accepted:      s.accepted,
		}
	default:
		return domain.AbortedState{GameID: s.cfg.GameID}
	}
}
