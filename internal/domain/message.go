package domain

import (
	"encoding/json"
	"fmt"
)

// Wire messages are externally tagged JSON: either a bare string for unit
// variants ("Ping", "Pong") or a single-key object {"MakeMove":{...}}.
// Frames are UTF-8 JSON carried in binary WebSocket messages.

// client → server payloads

type PingPayload struct {
	GameID string `json:"game_id"`
}

type PlayPayload struct {
	PlayerID       string `json:"player_id"`
	Name           string `json:"name"`
	SingleBetSize  int64  `json:"single_bet_size"`
	MinPlayers     int    `json:"min_players"`
	Bombs          int    `json:"bombs"`
	Grid           int    `json:"grid"`
	IsCreatingRoom bool   `json:"is_creating_room"`
}

type JoinPayload struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
	Name     string `json:"name"`
}

type MakeMovePayload struct {
	GameID string `json:"game_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type LockPayload struct {
	GameID string `json:"game_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type LockCompletePayload struct {
	GameID string `json:"game_id"`
}

type StopPayload struct {
	GameID string `json:"game_id"`
	Abort  bool   `json:"abort"`
}

type RematchRequestPayload struct {
	GameID      string `json:"game_id"`
	RequesterID string `json:"requester_id"`
}

type RematchResponsePayload struct {
	GameID      string `json:"game_id"`
	PlayerID    string `json:"player_id"`
	WantRematch bool   `json:"want_rematch"`
}

type GifPayload struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id,omitempty"`
	GifID    int    `json:"gif_id"`
}

// ClientMessage is the decoded form of one inbound frame. Exactly one
// field is non-nil, except a bare "Ping" which sets BarePing.
type ClientMessage struct {
	BarePing        bool
	Ping            *PingPayload
	Play            *PlayPayload
	Join            *JoinPayload
	MakeMove        *MakeMovePayload
	Lock            *LockPayload
	LockComplete    *LockCompletePayload
	Stop            *StopPayload
	RematchRequest  *RematchRequestPayload
	RematchResponse *RematchResponsePayload
	Gif             *GifPayload
}

// GameID returns the session the message targets, if any.
func (m *ClientMessage) GameID() string {
	switch {
	case m.Ping != nil:
		return m.Ping.GameID
	case m.Join != nil:
		return m.Join.GameID
	case m.MakeMove != nil:
		return m.MakeMove.GameID
	case m.Lock != nil:
		return m.Lock.GameID
	case m.LockComplete != nil:
		return m.LockComplete.GameID
	case m.Stop != nil:
		return m.Stop.GameID
	case m.RematchRequest != nil:
		return m.RematchRequest.GameID
	case m.RematchResponse != nil:
		return m.RematchResponse.GameID
	case m.Gif != nil:
		return m.Gif.GameID
	}
	return ""
}

// DecodeClientMessage parses one inbound frame.
func DecodeClientMessage(raw []byte) (*ClientMessage, error) {
	// unit variant: a bare JSON string
	var unit string
	if err := json.Unmarshal(raw, &unit); err == nil {
		if unit == "Ping" {
			return &ClientMessage{BarePing: true}, nil
		}
		return nil, fmt.Errorf("unknown message %q", unit)
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("expected exactly one message tag, got %d", len(tagged))
	}

	msg := &ClientMessage{}
	for tag, body := range tagged {
		var dst any
		switch tag {
		case "Ping":
			msg.Ping = &PingPayload{}
			dst = msg.Ping
		case "Play":
			msg.Play = &PlayPayload{}
			dst = msg.Play
		case "Join":
			msg.Join = &JoinPayload{}
			dst = msg.Join
		case "MakeMove":
			msg.MakeMove = &MakeMovePayload{}
			dst = msg.MakeMove
		case "Lock":
			msg.Lock = &LockPayload{}
			dst = msg.Lock
		case "LockComplete":
			msg.LockComplete = &LockCompletePayload{}
			dst = msg.LockComplete
		case "Stop":
			msg.Stop = &StopPayload{}
			dst = msg.Stop
		case "RematchRequest":
			msg.RematchRequest = &RematchRequestPayload{}
			dst = msg.RematchRequest
		case "RematchResponse":
			msg.RematchResponse = &RematchResponsePayload{}
			dst = msg.RematchResponse
		case "Gif":
			msg.Gif = &GifPayload{}
			dst = msg.Gif
		default:
			return nil, fmt.Errorf("unknown message tag %q", tag)
		}
		if err := json.Unmarshal(body, dst); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", tag, err)
		}
	}
	return msg, nil
}

// server → client payloads

type RedirectPayload struct {
	GameID    string `json:"game_id"`
	MachineID string `json:"machine_id"`
}

type BlockchainUpdateType string

const (
	UpdateMoveRecorded BlockchainUpdateType = "MoveRecorded"
	UpdateLockRecorded BlockchainUpdateType = "LockRecorded"
	UpdateGameStarted  BlockchainUpdateType = "GameStarted"
	UpdateGameFinished BlockchainUpdateType = "GameFinished"
)

type BlockchainUpdatePayload struct {
	GameID          string               `json:"game_id"`
	UpdateType      BlockchainUpdateType `json:"update_type"`
	TransactionHash string               `json:"transaction_hash"`
}

func encodeTagged(tag string, payload any) []byte {
	data, err := json.Marshal(map[string]any{tag: payload})
	if err != nil {
		// payloads are plain structs; marshalling them cannot fail
		panic(err)
	}
	return data
}

func EncodePong() []byte {
	return []byte(`"Pong"`)
}

func EncodeGameUpdate(s GameState) ([]byte, error) {
	inner, err := EncodeState(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{"GameUpdate": inner})
}

func EncodeError(message string) []byte {
	return encodeTagged("Error", message)
}

func EncodeRedirect(gameID, machineID string) []byte {
	return encodeTagged("RedirectToServer", RedirectPayload{GameID: gameID, MachineID: machineID})
}

func EncodeRematchRequest(gameID, requesterID string) []byte {
	return encodeTagged("RematchRequest", RematchRequestPayload{GameID: gameID, RequesterID: requesterID})
}

func EncodeBlockchainUpdate(u BlockchainUpdatePayload) []byte {
	return encodeTagged("BlockchainUpdate", u)
}

func EncodeGif(g GifPayload) []byte {
	return encodeTagged("Gif", g)
}
