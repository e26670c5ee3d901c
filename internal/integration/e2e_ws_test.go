package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mines_arena/internal/domain"
	"mines_arena/internal/service"
	"mines_arena/internal/ws"
)

// End-to-end exercise of the WebSocket surface: real upgrade, real frames,
// in-memory backends. No database or redis required.

type memWallets struct {
	balances map[int64]int64
}

func (m *memWallets) GetBalance(_ context.Context, playerID int64) (int64, error) {
	return m.balances[playerID], nil
}

type memSettler struct {
	calls chan int64 // loser id per settled game
}

func (m *memSettler) Settle(_ context.Context, _ string, players []domain.Player, loserIdx int, _ int64) error {
	m.calls <- players[loserIdx].ID
	return nil
}

type memStore struct {
	saved chan *domain.GameRecord
}

func (m *memStore) SaveGame(_ context.Context, rec *domain.GameRecord) error {
	m.saved <- rec
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memSettler, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	settler := &memSettler{calls: make(chan int64, 4)}
	store := &memStore{saved: make(chan *domain.GameRecord, 4)}
	hub := ws.NewHub(ws.HubOptions{
		MachineID: "itest",
		MinBet:    1,
		Wallets:   &memWallets{balances: map[int64]int64{1: 1000, 2: 1000}},
		Settler:   settler,
		Games:     store,
	})

	router := gin.New()
	router.GET("/ws", ws.HandleWS(hub))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, settler, store
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, tag string, payload any) {
	t.Helper()
	data, err := json.Marshal(map[string]any{tag: payload})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		t.Fatalf("write %s: %v", tag, err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil {
		// unit variants arrive as bare strings
		var unit string
		if json.Unmarshal(raw, &unit) == nil {
			return map[string]json.RawMessage{unit: nil}
		}
		t.Fatalf("bad frame %s: %v", raw, err)
	}
	return frame
}

func readUpdate(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	frame := readFrame(t, conn)
	inner, ok := frame["GameUpdate"]
	if !ok {
		t.Fatalf("expected GameUpdate, got %v", frame)
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(inner, &tagged); err != nil {
		t.Fatal(err)
	}
	for tag, body := range tagged {
		return tag, body
	}
	t.Fatal("empty GameUpdate")
	return "", nil
}

type gameView struct {
	GameID  string `json:"game_id"`
	TurnIdx int    `json:"turn_idx"`
	Board   struct {
		N               int   `json:"n"`
		BombCoordinates []int `json:"bomb_coordinates"`
	} `json:"board"`
	LoserIdx int `json:"loser_idx"`
}

func TestPingPong(t *testing.T) {
	srv, _, _ := newTestServer(t)
	conn := dial(t, srv)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte(`"Ping"`)); err != nil {
		t.Fatal(err)
	}
	frame := readFrame(t, conn)
	if _, ok := frame["Pong"]; !ok {
		t.Fatalf("expected Pong, got %v", frame)
	}
}

func TestMalformedFrameGetsError(t *testing.T) {
	srv, _, _ := newTestServer(t)
	conn := dial(t, srv)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}
	frame := readFrame(t, conn)
	raw, ok := frame["Error"]
	if !ok {
		t.Fatalf("expected Error, got %v", frame)
	}
	var msg string
	_ = json.Unmarshal(raw, &msg)
	if msg != "Malformed message" {
		t.Fatalf("error = %q", msg)
	}
}

func TestFullGameOverSockets(t *testing.T) {
	srv, settler, store := newTestServer(t)
	connA := dial(t, srv)
	connB := dial(t, srv)

	play := func(id, name string) domain.PlayPayload {
		return domain.PlayPayload{
			PlayerID:      id,
			Name:          name,
			SingleBetSize: 100,
			MinPlayers:    2,
			Bombs:         4,
			Grid:          5,
		}
	}

	send(t, connA, "Play", play("1", "alice"))
	if tag, _ := readUpdate(t, connA); tag != "WAITING" {
		t.Fatalf("first update = %s, want WAITING", tag)
	}

	send(t, connB, "Play", play("2", "bob"))
	tag, body := readUpdate(t, connA)
	if tag != "RUNNING" {
		t.Fatalf("update = %s, want RUNNING", tag)
	}
	if tag, _ := readUpdate(t, connB); tag != "RUNNING" {
		t.Fatal("second player missed the start")
	}

	var view gameView
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatal(err)
	}
	if view.GameID == "" || view.Board.N != 5 || len(view.Board.BombCoordinates) != 4 {
		t.Fatalf("bad running view: %+v", view)
	}

	// alice steps on the first mine the layout leaks
	mine := view.Board.BombCoordinates[0]
	send(t, connA, "MakeMove", domain.MakeMovePayload{
		GameID: view.GameID,
		X:      mine % view.Board.N,
		Y:      mine / view.Board.N,
	})

	tag, body = readUpdate(t, connA)
	if tag != "FINISHED" {
		t.Fatalf("update = %s, want FINISHED", tag)
	}
	var fin gameView
	_ = json.Unmarshal(body, &fin)
	if fin.LoserIdx != 0 {
		t.Fatalf("loser_idx = %d, want 0", fin.LoserIdx)
	}
	if tag, _ := readUpdate(t, connB); tag != "FINISHED" {
		t.Fatal("second player missed the finish")
	}

	select {
	case loser := <-settler.calls:
		if loser != 1 {
			t.Fatalf("settled against player %d", loser)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("settlement never ran")
	}

	select {
	case rec := <-store.saved:
		if rec.GameID != view.GameID || rec.Outcome != domain.OutcomeMineHit {
			t.Fatalf("saved record = %+v", rec)
		}
		if rec.LoserIdx == nil || *rec.LoserIdx != 0 {
			t.Fatalf("saved loser = %v", rec.LoserIdx)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("game record never persisted")
	}
}

func TestPingResumesPinnedSeat(t *testing.T) {
	t.Setenv("JWT_SECRET", "e2e-test-secret")
	service.InitJWT()

	srv, _, _ := newTestServer(t)
	connA := dial(t, srv)
	connB := dial(t, srv)

	play := func(id, name string) domain.PlayPayload {
		return domain.PlayPayload{
			PlayerID: id, Name: name, SingleBetSize: 100,
			MinPlayers: 2, Bombs: 4, Grid: 5,
		}
	}
	send(t, connA, "Play", play("1", "alice"))
	readUpdate(t, connA) // WAITING
	send(t, connB, "Play", play("2", "bob"))
	_, body := readUpdate(t, connA)
	readUpdate(t, connB)

	var view gameView
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatal(err)
	}

	// bob drops and comes back on a token-pinned socket, announcing
	// himself with a targeted ping instead of a Join
	connB.Close()
	token, err := service.GenerateJWT(2)
	if err != nil {
		t.Fatal(err)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	connB2, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer connB2.Close()

	send(t, connB2, "Ping", domain.PingPayload{GameID: view.GameID})
	frame := readFrame(t, connB2)
	if _, ok := frame["Pong"]; !ok {
		t.Fatalf("expected Pong, got %v", frame)
	}
	if tag, _ := readUpdate(t, connB2); tag != "RUNNING" {
		t.Fatal("ping did not replay the running state")
	}
}

func TestIdentityCannotBeHijacked(t *testing.T) {
	srv, _, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, "Play", domain.PlayPayload{
		PlayerID: "1", Name: "alice", SingleBetSize: 100,
		MinPlayers: 2, Bombs: 4, Grid: 5,
	})
	if tag, _ := readUpdate(t, conn); tag != "WAITING" {
		t.Fatal("expected WAITING")
	}

	// same socket claiming a different account is rejected
	send(t, conn, "Play", domain.PlayPayload{
		PlayerID: "2", Name: "mallory", SingleBetSize: 100,
		MinPlayers: 2, Bombs: 4, Grid: 5,
	})
	frame := readFrame(t, conn)
	raw, ok := frame["Error"]
	if !ok {
		t.Fatalf("expected Error, got %v", frame)
	}
	var msg string
	_ = json.Unmarshal(raw, &msg)
	if msg != "Invalid player id" {
		t.Fatalf("error = %q", msg)
	}
}
