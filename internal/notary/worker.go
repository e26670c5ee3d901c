package notary

import (
	"context"
	"log"
	"time"

	"mines_arena/internal/domain"
)

// ConfirmFunc receives the transaction hash once an event is anchored.
type ConfirmFunc func(gameID string, updateType domain.BlockchainUpdateType, txHash string)

// Worker submits events off the game path. Record never blocks: a full
// queue drops the event, since notarization is best effort and must not
// stall a running game.
type Worker struct {
	client    *Client
	queue     chan Event
	onConfirm ConfirmFunc
	done      chan struct{}
}

func NewWorker(client *Client, queueSize int, onConfirm ConfirmFunc) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Worker{
		client:    client,
		queue:     make(chan Event, queueSize),
		onConfirm: onConfirm,
		done:      make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) Stop() {
	close(w.done)
}

// Record queues one event for submission.
func (w *Worker) Record(gameID string, updateType domain.BlockchainUpdateType, detail map[string]any) {
	ev := Event{GameID: gameID, UpdateType: updateType, Detail: detail}
	select {
	case w.queue <- ev:
	default:
		Dropped.Inc()
		log.Printf("Worker.Record: queue full, dropping %s for game=%s", updateType, gameID)
	}
}

func (w *Worker) run() {
	for {
		select {
		case ev := <-w.queue:
			w.submit(ev)
		case <-w.done:
			return
		}
	}
}

func (w *Worker) submit(ev Event) {
	var receipt *Receipt
	var err error

	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		receipt, err = w.client.Submit(ctx, ev)
		cancel()
		if err == nil {
			break
		}
		Retries.Inc()
		log.Printf("Worker.submit: game=%s type=%s attempt=%d: %v", ev.GameID, ev.UpdateType, attempt, err)

		select {
		case <-time.After(time.Duration(attempt) * time.Second):
		case <-w.done:
			return
		}
	}
	if err != nil {
		Dropped.Inc()
		log.Printf("Worker.submit: game=%s type=%s gave up: %v", ev.GameID, ev.UpdateType, err)
		return
	}

	Submitted.Inc()
	if w.onConfirm != nil {
		w.onConfirm(ev.GameID, ev.UpdateType, receipt.TransactionHash)
	}
}
