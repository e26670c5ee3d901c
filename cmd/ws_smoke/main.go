package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"mines_arena/internal/db"
	"mines_arena/internal/domain"
	"mines_arena/internal/repository"
	"mines_arena/internal/service"
)

// Smoke check against a running server: creates two players, opens two
// sockets, matches them into one game and plays the first move.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewPlayerRepository(pool)
	ctx := context.Background()

	pA := &domain.Player{Name: "smokeA"}
	if err := repo.Create(ctx, pA); err != nil {
		log.Fatalf("create player A: %v", err)
	}
	pB := &domain.Player{Name: "smokeB"}
	if err := repo.Create(ctx, pB); err != nil {
		log.Fatalf("create player B: %v", err)
	}

	service.InitJWT()
	tokenA, err := service.GenerateJWT(pA.ID)
	if err != nil {
		log.Fatalf("gen token A: %v", err)
	}
	tokenB, err := service.GenerateJWT(pB.ID)
	if err != nil {
		log.Fatalf("gen token B: %v", err)
	}

	dialer := websocket.DefaultDialer

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	connA, _, err := dialer.Dial(fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, tokenA), nil)
	if err != nil {
		log.Fatalf("dial A: %v", err)
	}
	defer connA.Close()

	connB, _, err := dialer.Dial(fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, tokenB), nil)
	if err != nil {
		log.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	send := func(conn *websocket.Conn, tag string, payload any) {
		data, err := json.Marshal(map[string]any{tag: payload})
		if err != nil {
			log.Fatalf("marshal %s: %v", tag, err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			log.Fatalf("write %s: %v", tag, err)
		}
	}

	// both queue for the same criteria so the hub pairs them
	play := func(id int64, name string) domain.PlayPayload {
		return domain.PlayPayload{
			PlayerID:      domain.WireID(id),
			Name:          name,
			SingleBetSize: 100,
			MinPlayers:    2,
			Bombs:         5,
			Grid:          5,
		}
	}
	send(connA, "Play", play(pA.ID, "smokeA"))
	time.Sleep(200 * time.Millisecond)
	send(connB, "Play", play(pB.ID, "smokeB"))

	read := func(name string, conn *websocket.Conn) []byte {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("%s read: %v", name, err)
		}
		log.Printf("%s <- %s", name, msg)
		return msg
	}

	// A sees WAITING then RUNNING, B sees RUNNING
	read("A", connA)
	runningRaw := read("A", connA)
	read("B", connB)

	// pull the game id out of the RUNNING update
	var update struct {
		GameUpdate map[string]struct {
			GameID string `json:"game_id"`
		} `json:"GameUpdate"`
	}
	if err := json.Unmarshal(runningRaw, &update); err != nil {
		log.Fatalf("decode update: %v", err)
	}
	running, ok := update.GameUpdate["RUNNING"]
	if !ok {
		log.Fatalf("expected RUNNING update, got %s", runningRaw)
	}

	// first player reveals a corner cell
	send(connA, "MakeMove", domain.MakeMovePayload{GameID: running.GameID, X: 0, Y: 0})
	read("A", connA)
	read("B", connB)

	log.Println("smoke ok: game", running.GameID)
}
