package ws

import (
	"fmt"
	"log"
	"math"
	"sync"

	"mines_arena/internal/domain"
	"mines_arena/internal/game"
)

// Criteria is the matchmaking key: players are paired only into games
// with the exact same rules and stake.
type Criteria struct {
	Grid       int
	Bombs      int
	MinPlayers int
	Bet        int64
}

type HubOptions struct {
	MachineID string
	Timeouts  Timeouts
	MinBet    int64
	MaxBet    int64

	Wallets  Wallets
	Settler  Settler
	Games    GameStore
	Notary   Notary
	Registry *Registry
}

// Hub owns the room table and the matchmaking pool. Everything behind mu
// is bookkeeping only; game state lives inside each room's goroutine.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	playerRoom map[int64]string
	waiting    map[Criteria][]*Room
	seq        int64

	machineID string
	timeouts  Timeouts
	minBet    int64
	maxBet    int64

	wallets  Wallets
	settler  Settler
	games    GameStore
	notary   Notary
	registry *Registry
}

func NewHub(opts HubOptions) *Hub {
	if opts.Timeouts == (Timeouts{}) {
		opts.Timeouts = DefaultTimeouts()
	}
	if opts.MachineID == "" {
		opts.MachineID = "local"
	}
	if opts.MaxBet == 0 {
		opts.MaxBet = math.MaxInt64
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		playerRoom: make(map[int64]string),
		waiting:    make(map[Criteria][]*Room),
		machineID:  opts.MachineID,
		timeouts:   opts.Timeouts,
		minBet:     opts.MinBet,
		maxBet:     opts.MaxBet,
		wallets:    opts.Wallets,
		settler:    opts.Settler,
		games:      opts.Games,
		notary:     opts.Notary,
		registry:   opts.Registry,
	}
}

// SetNotary wires the notarization sink after construction: the worker
// wants the hub's confirm callback, so the two are built in sequence.
// Call before serving traffic.
func (h *Hub) SetNotary(n Notary) {
	h.notary = n
}

// Route dispatches one decoded frame. It runs on the client's reader
// goroutine; anything touching a session is posted into the room.
func (h *Hub) Route(c *Client, msg *domain.ClientMessage) {
	switch {
	case msg.Play != nil:
		h.handlePlay(c, msg.Play)
	case msg.Join != nil:
		h.handleJoin(c, msg.Join)
	case msg.MakeMove != nil:
		p := msg.MakeMove
		h.toRoom(c, p.GameID, func(r *Room) { r.move(c, p.X, p.Y) })
	case msg.Lock != nil:
		p := msg.Lock
		h.toRoom(c, p.GameID, func(r *Room) { r.lock(c, p.X, p.Y) })
	case msg.LockComplete != nil:
		h.toRoom(c, msg.LockComplete.GameID, func(r *Room) { r.lockComplete(c) })
	case msg.Stop != nil:
		p := msg.Stop
		h.toRoom(c, p.GameID, func(r *Room) { r.stop(c, p.Abort) })
	case msg.RematchRequest != nil:
		h.toRoom(c, msg.RematchRequest.GameID, func(r *Room) { r.rematchRequest(c) })
	case msg.RematchResponse != nil:
		h.handleRematchResponse(c, msg.RematchResponse)
	case msg.Gif != nil:
		p := msg.Gif
		h.toRoom(c, p.GameID, func(r *Room) { r.gif(c, p) })
	default:
		c.Enqueue(domain.EncodeError("Unsupported message"))
	}
}

func (h *Hub) handlePlay(c *Client, p *domain.PlayPayload) {
	id, ok := domain.ParsePlayerID(p.PlayerID)
	if !ok || !c.bindIdentity(id, p.Name) {
		c.Enqueue(domain.EncodeError("Invalid player id"))
		return
	}
	if p.SingleBetSize < h.minBet || p.SingleBetSize > h.maxBet {
		c.Enqueue(domain.EncodeError("Bet out of range"))
		return
	}

	balance, err := h.balanceOf(c.PlayerID)
	if err != nil {
		c.Enqueue(domain.EncodeError("Account not found"))
		return
	}
	if balance < p.SingleBetSize {
		c.Enqueue(domain.EncodeError("Insufficient funds"))
		return
	}

	crit := Criteria{Grid: p.Grid, Bombs: p.Bombs, MinPlayers: p.MinPlayers, Bet: p.SingleBetSize}

	if !p.IsCreatingRoom {
		if r := h.matchWaiting(crit, c.PlayerID); r != nil {
			log.Printf("Hub.handlePlay: player=%d matched into room=%s", c.PlayerID, r.ID)
			r.post(func(r *Room) { r.seat(c, balance) })
			return
		}
	}

	r, err := h.createRoom(crit, c, balance)
	if err != nil {
		c.Enqueue(domain.EncodeError(errText(err)))
		return
	}
	if !p.IsCreatingRoom {
		h.enterWaiting(crit, r)
	}
	// seat the creator so the room binds this connection and replays the
	// WAITING snapshot
	r.post(func(r *Room) { r.seat(c, balance) })
}

func (h *Hub) handleJoin(c *Client, p *domain.JoinPayload) {
	id, ok := domain.ParsePlayerID(p.PlayerID)
	if !ok || !c.bindIdentity(id, p.Name) {
		c.Enqueue(domain.EncodeError("Invalid player id"))
		return
	}

	r := h.roomByID(p.GameID)
	if r == nil {
		h.redirectOrError(c, p.GameID)
		return
	}

	balance, err := h.balanceOf(c.PlayerID)
	if err != nil {
		c.Enqueue(domain.EncodeError("Account not found"))
		return
	}
	r.post(func(r *Room) { r.seat(c, balance) })
}

func (h *Hub) handleRematchResponse(c *Client, p *domain.RematchResponsePayload) {
	id, ok := domain.ParsePlayerID(p.PlayerID)
	if !ok || !c.bindIdentity(id, "") {
		c.Enqueue(domain.EncodeError("Invalid player id"))
		return
	}

	r := h.roomByID(p.GameID)
	if r == nil {
		h.redirectOrError(c, p.GameID)
		return
	}

	hasFunds := true
	if p.WantRematch {
		// cfg is immutable after room creation, safe to read here
		bet := r.session.Config().SingleBetSize
		balance, err := h.balanceOf(c.PlayerID)
		hasFunds = err == nil && balance >= bet
	}
	want := p.WantRematch
	r.post(func(r *Room) { r.rematchResponse(c, want, hasFunds) })
}

// refreshBinding re-attaches a pinged connection to its seat, replaying
// the current state when the seat was bound to an older connection. A ping
// for a game that lives elsewhere answers with the redirect.
func (h *Hub) refreshBinding(c *Client, gameID string) {
	if c.PlayerID == 0 {
		return
	}
	r := h.roomByID(gameID)
	if r == nil {
		h.redirectOrError(c, gameID)
		return
	}
	r.post(func(r *Room) {
		if !r.session.Seated(c.PlayerID) {
			return
		}
		if r.clients[c.PlayerID] != c {
			r.clients[c.PlayerID] = c
			r.hub.bindPlayer(c.PlayerID, r.ID)
			r.sendSnapshot(c)
			log.Printf("Hub.refreshBinding: game=%s player=%d rebound", gameID, c.PlayerID)
		}
	})
}

// toRoom posts fn into the game's room, or answers with a redirect when
// the game lives on another machine.
func (h *Hub) toRoom(c *Client, gameID string, fn func(*Room)) {
	if gameID == "" {
		c.Enqueue(domain.EncodeError("Missing game id"))
		return
	}
	r := h.roomByID(gameID)
	if r == nil {
		h.redirectOrError(c, gameID)
		return
	}
	if !r.post(fn) {
		c.Enqueue(domain.EncodeError("Game not found"))
	}
}

func (h *Hub) redirectOrError(c *Client, gameID string) {
	if h.registry != nil {
		machine, err := h.registry.Lookup(gameID)
		if err == nil && machine != "" && machine != h.machineID {
			log.Printf("Hub.redirectOrError: game=%s lives on machine=%s, redirecting player=%d", gameID, machine, c.PlayerID)
			c.Enqueue(domain.EncodeRedirect(gameID, machine))
			return
		}
	}
	c.Enqueue(domain.EncodeError("Game not found"))
}

func (h *Hub) createRoom(crit Criteria, c *Client, balance int64) (*Room, error) {
	board, err := game.NewBoard(crit.Grid, crit.Bombs)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.seq++
	id := fmt.Sprintf("%s-%d", h.machineID, h.seq)
	h.mu.Unlock()

	session, err := game.NewSession(game.Config{
		GameID:        id,
		Grid:          crit.Grid,
		Bombs:         crit.Bombs,
		MinPlayers:    crit.MinPlayers,
		SingleBetSize: crit.Bet,
	}, domain.Player{ID: c.PlayerID, Name: c.Name, WalletBalance: balance}, board)
	if err != nil {
		return nil, err
	}

	r := newRoom(id, session, h)
	h.mu.Lock()
	h.rooms[id] = r
	h.mu.Unlock()

	if h.registry != nil {
		if err := h.registry.Claim(id); err != nil {
			log.Printf("Hub.createRoom: registry claim failed for game=%s: %v", id, err)
		}
	}

	log.Printf("Hub.createRoom: room=%s grid=%d bombs=%d bet=%d creator=%d", id, crit.Grid, crit.Bombs, crit.Bet, c.PlayerID)
	ActiveGames.Inc()
	go r.Run()
	return r, nil
}

// matchWaiting pops the oldest compatible room, skipping the player's own.
func (h *Hub) matchWaiting(crit Criteria, playerID int64) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	pool := h.waiting[crit]
	for i, r := range pool {
		if r.creatorID == playerID {
			continue
		}
		h.waiting[crit] = append(pool[:i:i], pool[i+1:]...)
		if len(h.waiting[crit]) == 0 {
			delete(h.waiting, crit)
		}
		return r
	}
	return nil
}

func (h *Hub) enterWaiting(crit Criteria, r *Room) {
	h.mu.Lock()
	h.waiting[crit] = append(h.waiting[crit], r)
	h.mu.Unlock()
}

func (h *Hub) leaveWaiting(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for crit, pool := range h.waiting {
		for i, w := range pool {
			if w == r {
				h.waiting[crit] = append(pool[:i:i], pool[i+1:]...)
				if len(h.waiting[crit]) == 0 {
					delete(h.waiting, crit)
				}
				return
			}
		}
	}
}

func (h *Hub) roomByID(id string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[id]
}

func (h *Hub) bindPlayer(playerID int64, roomID string) {
	h.mu.Lock()
	h.playerRoom[playerID] = roomID
	h.mu.Unlock()
}

func (h *Hub) unbindPlayer(playerID int64, roomID string) {
	h.mu.Lock()
	if h.playerRoom[playerID] == roomID {
		delete(h.playerRoom, playerID)
	}
	h.mu.Unlock()
}

func (h *Hub) removeRoom(r *Room) {
	h.mu.Lock()
	delete(h.rooms, r.ID)
	for pid, rid := range h.playerRoom {
		if rid == r.ID {
			delete(h.playerRoom, pid)
		}
	}
	h.mu.Unlock()

	h.leaveWaiting(r)

	if h.registry != nil {
		if err := h.registry.Release(r.ID); err != nil {
			log.Printf("Hub.removeRoom: registry release failed for game=%s: %v", r.ID, err)
		}
	}
}

// OnDisconnect routes a dropped connection to its room, if any.
func (h *Hub) OnDisconnect(c *Client) {
	if c.PlayerID == 0 {
		return
	}
	h.mu.RLock()
	roomID, ok := h.playerRoom[c.PlayerID]
	var r *Room
	if ok {
		r = h.rooms[roomID]
	}
	h.mu.RUnlock()

	if r != nil {
		r.post(func(r *Room) { r.detach(c) })
	}
}

// OnNotaryConfirm relays a confirmed on-chain record to the game's
// players. Rooms that already closed just drop the update.
func (h *Hub) OnNotaryConfirm(gameID string, typ domain.BlockchainUpdateType, txHash string) {
	r := h.roomByID(gameID)
	if r == nil {
		return
	}
	data := domain.EncodeBlockchainUpdate(domain.BlockchainUpdatePayload{
		GameID:          gameID,
		UpdateType:      typ,
		TransactionHash: txHash,
	})
	r.post(func(r *Room) { r.broadcastRaw(data) })
}

func (h *Hub) balanceOf(playerID int64) (int64, error) {
	if h.wallets == nil {
		return math.MaxInt64, nil
	}
	ctx, cancel := walletCtx()
	defer cancel()
	return h.wallets.GetBalance(ctx, playerID)
}
