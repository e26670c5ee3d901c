package domain

import (
	"encoding/json"
	"testing"
)

func TestDecodeClientMessage(t *testing.T) {
	t.Run("bare ping", func(t *testing.T) {
		msg, err := DecodeClientMessage([]byte(`"Ping"`))
		if err != nil {
			t.Fatal(err)
		}
		if !msg.BarePing {
			t.Fatal("expected bare ping")
		}
	})

	t.Run("tagged ping", func(t *testing.T) {
		msg, err := DecodeClientMessage([]byte(`{"Ping":{"game_id":"g7"}}`))
		if err != nil {
			t.Fatal(err)
		}
		if msg.Ping == nil || msg.Ping.GameID != "g7" {
			t.Fatalf("got %+v", msg.Ping)
		}
		if msg.GameID() != "g7" {
			t.Errorf("GameID() = %q", msg.GameID())
		}
	})

	t.Run("play", func(t *testing.T) {
		raw := `{"Play":{"player_id":"42","name":"alice","single_bet_size":500,"min_players":2,"bombs":11,"grid":6,"is_creating_room":true}}`
		msg, err := DecodeClientMessage([]byte(raw))
		if err != nil {
			t.Fatal(err)
		}
		p := msg.Play
		if p == nil {
			t.Fatal("Play not decoded")
		}
		if p.PlayerID != "42" || p.Name != "alice" || p.SingleBetSize != 500 ||
			p.MinPlayers != 2 || p.Bombs != 11 || p.Grid != 6 || !p.IsCreatingRoom {
			t.Fatalf("got %+v", p)
		}
	})

	t.Run("make move", func(t *testing.T) {
		msg, err := DecodeClientMessage([]byte(`{"MakeMove":{"game_id":"g1","x":3,"y":2}}`))
		if err != nil {
			t.Fatal(err)
		}
		if msg.MakeMove == nil || msg.MakeMove.X != 3 || msg.MakeMove.Y != 2 {
			t.Fatalf("got %+v", msg.MakeMove)
		}
	})

	t.Run("stop with abort", func(t *testing.T) {
		msg, err := DecodeClientMessage([]byte(`{"Stop":{"game_id":"g1","abort":true}}`))
		if err != nil {
			t.Fatal(err)
		}
		if msg.Stop == nil || !msg.Stop.Abort {
			t.Fatalf("got %+v", msg.Stop)
		}
	})

	t.Run("rematch response", func(t *testing.T) {
		msg, err := DecodeClientMessage([]byte(`{"RematchResponse":{"game_id":"g1","player_id":"7","want_rematch":false}}`))
		if err != nil {
			t.Fatal(err)
		}
		if msg.RematchResponse == nil || msg.RematchResponse.WantRematch {
			t.Fatalf("got %+v", msg.RematchResponse)
		}
	})

	bad := []struct {
		name string
		raw  string
	}{
		{"unknown unit", `"Pong"`},
		{"unknown tag", `{"Dance":{}}`},
		{"two tags", `{"Ping":{},"Join":{}}`},
		{"not json", `{{{`},
		{"wrong payload shape", `{"MakeMove":"nope"}`},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeClientMessage([]byte(tc.raw)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEncodeGameUpdate(t *testing.T) {
	state := AbortedState{GameID: "g9"}
	data, err := EncodeGameUpdate(state)
	if err != nil {
		t.Fatal(err)
	}

	var outer map[string]map[string]map[string]string
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	if outer["GameUpdate"]["ABORTED"]["game_id"] != "g9" {
		t.Fatalf("bad envelope: %s", data)
	}
}

func TestEncodeError(t *testing.T) {
	data := EncodeError("Not your turn")
	var outer map[string]string
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	if outer["Error"] != "Not your turn" {
		t.Fatalf("bad error envelope: %s", data)
	}
}

func TestEncodeRedirect(t *testing.T) {
	data := EncodeRedirect("g1", "machine-b")
	var outer map[string]RedirectPayload
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	p := outer["RedirectToServer"]
	if p.GameID != "g1" || p.MachineID != "machine-b" {
		t.Fatalf("got %+v", p)
	}
}

func TestEncodeBlockchainUpdate(t *testing.T) {
	data := EncodeBlockchainUpdate(BlockchainUpdatePayload{
		GameID:          "g1",
		UpdateType:      UpdateMoveRecorded,
		TransactionHash: "abc123",
	})
	var outer map[string]BlockchainUpdatePayload
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatal(err)
	}
	u := outer["BlockchainUpdate"]
	if u.UpdateType != UpdateMoveRecorded || u.TransactionHash != "abc123" {
		t.Fatalf("got %+v", u)
	}
}

func TestEncodePong(t *testing.T) {
	if string(EncodePong()) != `"Pong"` {
		t.Fatalf("pong = %s", EncodePong())
	}
}

func TestParsePlayerID(t *testing.T) {
	if id, ok := ParsePlayerID("42"); !ok || id != 42 {
		t.Fatalf("got %d, %v", id, ok)
	}
	for _, bad := range []string{"", "abc", "-1", "0", "1.5"} {
		if _, ok := ParsePlayerID(bad); ok {
			t.Errorf("ParsePlayerID(%q) accepted", bad)
		}
	}
}
