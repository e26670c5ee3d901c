package notary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mines_arena/internal/domain"
)

func TestClientSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/records" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}

		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			t.Fatal(err)
		}
		if ev.GameID != "g1" || ev.UpdateType != domain.UpdateGameStarted {
			t.Errorf("got event %+v", ev)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Receipt{TransactionHash: "hash-1", Status: "confirmed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	receipt, err := c.Submit(context.Background(), Event{
		GameID:     "g1",
		UpdateType: domain.UpdateGameStarted,
	})
	if err != nil {
		t.Fatal(err)
	}
	if receipt.TransactionHash != "hash-1" {
		t.Fatalf("hash = %q", receipt.TransactionHash)
	}
}

func TestClientSubmitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Submit(context.Background(), Event{GameID: "g1"}); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestClientGetRecordNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	receipt, err := c.GetRecord(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if receipt != nil {
		t.Fatalf("expected nil receipt, got %+v", receipt)
	}
}

func TestWorkerConfirms(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(Receipt{TransactionHash: "hash-9"})
	}))
	defer srv.Close()

	confirmed := make(chan string, 1)
	w := NewWorker(NewClient(srv.URL, ""), 8, func(gameID string, typ domain.BlockchainUpdateType, hash string) {
		if gameID == "g1" && typ == domain.UpdateMoveRecorded {
			confirmed <- hash
		}
	})
	w.Start()
	defer w.Stop()

	w.Record("g1", domain.UpdateMoveRecorded, map[string]any{"x": 1, "y": 2})

	select {
	case hash := <-confirmed:
		if hash != "hash-9" {
			t.Fatalf("hash = %q", hash)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("confirmation never arrived")
	}

	if calls.Load() != 1 {
		t.Fatalf("server calls = %d", calls.Load())
	}
}
