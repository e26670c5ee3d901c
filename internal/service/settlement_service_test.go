package service

import (
	"testing"

	"mines_arena/internal/domain"
)

func TestComputeDeltas(t *testing.T) {
	players := func(n int) []domain.Player {
		ps := make([]domain.Player, n)
		for i := range ps {
			ps[i] = domain.Player{ID: int64(i + 1)}
		}
		return ps
	}

	cases := []struct {
		name     string
		players  []domain.Player
		loserIdx int
		bet      int64
		want     map[int64]int64
	}{
		{
			name: "two players", players: players(2), loserIdx: 0, bet: 100,
			want: map[int64]int64{1: -100, 2: 100},
		},
		{
			name: "three players even split", players: players(3), loserIdx: 1, bet: 100,
			want: map[int64]int64{1: 50, 2: -100, 3: 50},
		},
		{
			name: "remainder to earliest winners", players: players(4), loserIdx: 3, bet: 100,
			// 100/3 = 33 r1: the first winner gets the extra unit
			want: map[int64]int64{1: 34, 2: 33, 3: 33, 4: -100},
		},
		{
			name: "bet smaller than winner count", players: players(4), loserIdx: 0, bet: 2,
			want: map[int64]int64{1: -2, 2: 1, 3: 1, 4: 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDeltas(tc.players, tc.loserIdx, tc.bet)

			var sum int64
			for id, want := range tc.want {
				if got[id] != want {
					t.Errorf("player %d: delta = %d, want %d", id, got[id], want)
				}
			}
			for _, d := range got {
				sum += d
			}
			if sum != 0 {
				t.Errorf("deltas do not conserve the pot: sum = %d", sum)
			}
		})
	}
}

func TestComputeDeltasSinglePlayer(t *testing.T) {
	got := ComputeDeltas([]domain.Player{{ID: 1}}, 0, 100)
	if len(got) != 0 {
		t.Fatalf("expected no deltas without winners, got %v", got)
	}
}
