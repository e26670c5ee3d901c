package domain

import "strconv"

// Player is one seat in a session. ID is the stable account id; the wire
// protocol carries it as a decimal string in player_id fields.
type Player struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	WalletBalance int64  `json:"wallet_balance"`
}

// ParsePlayerID converts a wire player_id into an account id.
func ParsePlayerID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// WireID renders an account id the way the protocol expects it.
func WireID(id int64) string {
	return strconv.FormatInt(id, 10)
}
