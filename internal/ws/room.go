package ws

import (
	"context"
	"log"
	"time"

	"mines_arena/internal/domain"
	"mines_arena/internal/game"
)

// Room owns one session. A single goroutine (Run) executes every command
// posted to cmds, so the session and all room state are touched without
// locks.
type Room struct {
	ID        string
	hub       *Hub
	creatorID int64

	session *game.Session
	clients map[int64]*Client

	cmds chan func(*Room)
	done chan struct{}

	timer    *time.Timer
	timerGen uint64

	createdAt      time.Time
	settling       bool
	pendingRematch bool
	closed         bool
}

func newRoom(id string, s *game.Session, hub *Hub) *Room {
	return &Room{
		ID:        id,
		hub:       hub,
		creatorID: s.Players()[0].ID,
		session:   s,
		clients:   make(map[int64]*Client),
		cmds:      make(chan func(*Room), 64),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
}

func (r *Room) Run() {
	log.Printf("Room.Run: room=%s started", r.ID)
	r.armTimer(r.hub.timeouts.Wait, (*Room).waitTimerFired)

	for {
		select {
		case cmd := <-r.cmds:
			cmd(r)
		case <-r.done:
			return
		}
		if r.closed {
			r.cleanup()
			return
		}
	}
}

// post hands a command to the room goroutine. It reports false when the
// room already shut down.
func (r *Room) post(cmd func(*Room)) bool {
	select {
	case r.cmds <- cmd:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) cleanup() {
	if r.timer != nil {
		r.timer.Stop()
	}
	ActiveGames.Dec()
	r.hub.removeRoom(r)
	close(r.done)
	log.Printf("Room.Run: room=%s closed", r.ID)
}

// armTimer replaces the single room clock. The generation counter makes a
// timer that fires after being superseded a no-op.
func (r *Room) armTimer(d time.Duration, fire func(*Room)) {
	r.timerGen++
	gen := r.timerGen
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(d, func() {
		r.post(func(r *Room) {
			if r.timerGen != gen {
				return
			}
			fire(r)
		})
	})
}

func (r *Room) stopTimer() {
	r.timerGen++
	if r.timer != nil {
		r.timer.Stop()
	}
}

// seat admits a player, either a fresh join or a reconnect resume.
// balance was read by the hub before posting.
func (r *Room) seat(c *Client, balance int64) {
	if r.session.Seated(c.PlayerID) {
		// reconnect: rebind the connection and replay the current state
		r.clients[c.PlayerID] = c
		r.hub.bindPlayer(c.PlayerID, r.ID)
		r.sendSnapshot(c)
		log.Printf("Room.seat: room=%s player=%d resumed", r.ID, c.PlayerID)
		return
	}

	cfg := r.session.Config()
	if balance < cfg.SingleBetSize {
		c.Enqueue(domain.EncodeError("Insufficient funds"))
		return
	}

	started, err := r.session.Join(domain.Player{
		ID:            c.PlayerID,
		Name:          c.Name,
		WalletBalance: balance,
	})
	if err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}

	r.clients[c.PlayerID] = c
	r.hub.bindPlayer(c.PlayerID, r.ID)
	log.Printf("Room.seat: room=%s player=%d seated (players=%d)", r.ID, c.PlayerID, len(r.session.Players()))

	if started {
		r.hub.leaveWaiting(r)
		r.broadcastSnapshot()
		r.notarize(domain.UpdateGameStarted, map[string]any{
			"players": len(r.session.Players()),
			"bet":     cfg.SingleBetSize,
		})
		r.armTimer(r.hub.timeouts.Move, (*Room).moveTimerFired)
		return
	}
	r.broadcastSnapshot()
}

func (r *Room) move(c *Client, x, y int) {
	res, err := r.session.MakeMove(c.PlayerID, x, y)
	if err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}

	MovesTotal.Inc()
	r.notarize(domain.UpdateMoveRecorded, map[string]any{
		"player": domain.WireID(c.PlayerID), "x": x, "y": y,
	})

	if res.MineHit {
		r.finish(domain.OutcomeMineHit)
		return
	}

	r.broadcastSnapshot()
	if res.LockPhase {
		r.armTimer(r.hub.timeouts.Lock, (*Room).lockTimerFired)
	} else {
		r.armTimer(r.hub.timeouts.Move, (*Room).moveTimerFired)
	}
}

func (r *Room) lock(c *Client, x, y int) {
	res, err := r.session.LockCell(c.PlayerID, x, y)
	if err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}

	r.notarize(domain.UpdateLockRecorded, map[string]any{
		"player": domain.WireID(c.PlayerID), "x": x, "y": y,
	})

	r.broadcastSnapshot()
	if res.PhaseComplete {
		r.armTimer(r.hub.timeouts.Move, (*Room).moveTimerFired)
	} else {
		// locking resets the lock clock
		r.armTimer(r.hub.timeouts.Lock, (*Room).lockTimerFired)
	}
}

func (r *Room) lockComplete(c *Client) {
	if err := r.session.LockComplete(c.PlayerID); err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}
	r.broadcastSnapshot()
	r.armTimer(r.hub.timeouts.Move, (*Room).moveTimerFired)
}

// stop handles a client-sent Stop. Only seated players may stop a game,
// and an abort is honored only while nothing has been revealed yet; once
// the board is live, quitting always costs the quitter their stake.
func (r *Room) stop(c *Client, abort bool) {
	if !r.session.Seated(c.PlayerID) {
		c.Enqueue(domain.EncodeError(errText(game.ErrNotInGame)))
		return
	}
	if abort && !r.session.HasProgress() {
		r.abort()
		return
	}
	if err := r.session.Forfeit(c.PlayerID); err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}
	log.Printf("Room.stop: room=%s player=%d forfeited (abort=%v)", r.ID, c.PlayerID, abort)
	r.finish(domain.OutcomeForfeiture)
}

func (r *Room) gif(c *Client, p *domain.GifPayload) {
	if !r.session.Seated(c.PlayerID) {
		return
	}
	out := domain.EncodeGif(domain.GifPayload{
		GameID:   r.ID,
		PlayerID: domain.WireID(c.PlayerID),
		GifID:    p.GifID,
	})
	for id, cl := range r.clients {
		if id != c.PlayerID {
			cl.Enqueue(out)
		}
	}
}

func (r *Room) rematchRequest(c *Client) {
	if err := r.session.RequestRematch(c.PlayerID); err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}
	out := domain.EncodeRematchRequest(r.ID, domain.WireID(c.PlayerID))
	for id, cl := range r.clients {
		if id != c.PlayerID {
			cl.Enqueue(out)
		}
	}
}

// rematchResponse applies one answer. An acceptance without the funds to
// cover the bet is downgraded to a decline for the whole group.
func (r *Room) rematchResponse(c *Client, want, hasFunds bool) {
	if want && !hasFunds {
		c.Enqueue(domain.EncodeError("Insufficient funds for rematch"))
		want = false
	}

	out, err := r.session.RespondRematch(c.PlayerID, want)
	if err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}

	if out.Declined {
		// a decline sends everyone back to the lobby, not to a dead game
		if data, err := domain.EncodeGameUpdate(domain.RematchRejectedState{GameID: r.ID}); err == nil {
			r.broadcastRaw(data)
		}
		r.closed = true
		return
	}

	r.broadcastSnapshot()
	if out.AllAccepted {
		if r.settling {
			// hold the new game until the previous pot has moved
			r.pendingRematch = true
			return
		}
		r.startRematch()
	}
}

func (r *Room) startRematch() {
	cfg := r.session.Config()
	board, err := game.NewBoard(cfg.Grid, cfg.Bombs)
	if err != nil {
		log.Printf("Room.startRematch: room=%s board generation failed: %v", r.ID, err)
		r.abort()
		return
	}
	if err := r.session.StartRematch(board); err != nil {
		log.Printf("Room.startRematch: room=%s: %v", r.ID, err)
		return
	}

	log.Printf("Room.startRematch: room=%s new game started", r.ID)
	r.broadcastSnapshot()
	r.notarize(domain.UpdateGameStarted, map[string]any{
		"players": len(r.session.Players()),
		"bet":     cfg.SingleBetSize,
		"rematch": true,
	})
	r.armTimer(r.hub.timeouts.Move, (*Room).moveTimerFired)
}

func (r *Room) moveTimerFired() {
	if r.session.Phase() != game.PhaseRunning {
		return
	}
	if !r.session.HasProgress() {
		// nobody has revealed anything yet; tear down instead of
		// punishing the player on the clock
		log.Printf("Room.moveTimerFired: room=%s timeout with no progress, aborting", r.ID)
		r.abort()
		return
	}
	cur := r.session.CurrentPlayer()
	log.Printf("Room.moveTimerFired: room=%s player=%d timed out", r.ID, cur.ID)
	_ = r.session.Stop(false)
	r.finish(domain.OutcomeForfeiture)
}

func (r *Room) lockTimerFired() {
	if r.session.ForceLockComplete() {
		r.broadcastSnapshot()
		r.armTimer(r.hub.timeouts.Move, (*Room).moveTimerFired)
	}
}

func (r *Room) waitTimerFired() {
	if r.session.Phase() != game.PhaseWaiting {
		return
	}
	log.Printf("Room.waitTimerFired: room=%s no quorum, aborting", r.ID)
	r.abort()
}

// finish closes out a lost game: broadcast, persist, settle the pot.
func (r *Room) finish(outcome domain.GameOutcome) {
	r.stopTimer()
	GamesTotal.WithLabelValues(string(outcome)).Inc()
	r.broadcastSnapshot()

	cfg := r.session.Config()
	players := r.session.Players()
	loserIdx := r.session.LoserIdx()

	r.notarize(domain.UpdateGameFinished, map[string]any{
		"loser":   domain.WireID(players[loserIdx].ID),
		"outcome": string(outcome),
	})
	r.saveGame(outcome)

	if r.hub.settler == nil {
		return
	}
	r.settling = true
	go func() {
		err := r.settleWithRetry(cfg.GameID, players, loserIdx, cfg.SingleBetSize)
		r.post(func(r *Room) {
			r.settling = false
			if err != nil {
				SettlementFailures.Inc()
				log.Printf("Room.finish: room=%s settlement failed permanently: %v", r.ID, err)
				r.broadcastRaw(domain.EncodeError("Settlement failed"))
			}
			if r.pendingRematch {
				r.pendingRematch = false
				if err == nil {
					r.startRematch()
				} else {
					r.abort()
				}
			}
		})
	}()
}

func (r *Room) settleWithRetry(gameID string, players []domain.Player, loserIdx int, bet int64) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = r.hub.settler.Settle(ctx, gameID, players, loserIdx, bet)
		cancel()
		if err == nil {
			return nil
		}
		log.Printf("Room.settleWithRetry: room=%s attempt=%d: %v", r.ID, attempt, err)
		time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
	}
	return err
}

func (r *Room) abort() {
	r.stopTimer()
	GamesTotal.WithLabelValues(string(domain.OutcomeAborted)).Inc()
	_ = r.session.Stop(true)
	r.broadcastSnapshot()
	r.saveGame(domain.OutcomeAborted)
	r.closed = true
}

func (r *Room) saveGame(outcome domain.GameOutcome) {
	if r.hub.games == nil {
		return
	}
	cfg := r.session.Config()
	rec := &domain.GameRecord{
		GameID:        cfg.GameID,
		Players:       r.session.Players(),
		SingleBetSize: cfg.SingleBetSize,
		GridSize:      cfg.Grid,
		Bombs:         cfg.Bombs,
		Outcome:       outcome,
	}
	if outcome != domain.OutcomeAborted {
		idx := r.session.LoserIdx()
		rec.LoserIdx = &idx
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.hub.games.SaveGame(ctx, rec); err != nil {
			log.Printf("Room.saveGame: room=%s store failed: %v", r.ID, err)
		}
	}()
}

// detach drops a connection. The session itself keeps running; timers are
// not paused for a disconnected player.
func (r *Room) detach(c *Client) {
	cur, ok := r.clients[c.PlayerID]
	if !ok || cur != c {
		return
	}
	delete(r.clients, c.PlayerID)
	r.hub.unbindPlayer(c.PlayerID, r.ID)
	log.Printf("Room.detach: room=%s player=%d disconnected (remaining=%d)", r.ID, c.PlayerID, len(r.clients))

	if len(r.clients) > 0 {
		return
	}
	switch r.session.Phase() {
	case game.PhaseWaiting:
		// an empty lobby has nobody left to wait for
		r.abort()
	case game.PhaseFinished, game.PhaseRematch, game.PhaseAborted:
		r.closed = true
	}
}

func (r *Room) notarize(typ domain.BlockchainUpdateType, detail map[string]any) {
	if r.hub.notary != nil {
		r.hub.notary.Record(r.ID, typ, detail)
	}
}

func (r *Room) sendSnapshot(c *Client) {
	data, err := domain.EncodeGameUpdate(r.session.Snapshot())
	if err != nil {
		log.Printf("Room.sendSnapshot: room=%s encode failed: %v", r.ID, err)
		return
	}
	c.Enqueue(data)
}

func (r *Room) broadcastSnapshot() {
	data, err := domain.EncodeGameUpdate(r.session.Snapshot())
	if err != nil {
		log.Printf("Room.broadcastSnapshot: room=%s encode failed: %v", r.ID, err)
		return
	}
	r.broadcastRaw(data)
}

func (r *Room) broadcastRaw(data []byte) {
	for _, c := range r.clients {
		c.Enqueue(data)
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
