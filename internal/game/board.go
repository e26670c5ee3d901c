package game

import (
	"math/rand"

	"mines_arena/internal/domain"
)

// NewBoard generates an n×n board with bombs mines placed uniformly at
// random without replacement. All cells start Hidden.
func NewBoard(n, bombs int) (*domain.Board, error) {
	return NewBoardFromRand(n, bombs, nil)
}

// NewBoardFromRand is NewBoard with an explicit source, used by tests to
// get deterministic layouts.
func NewBoardFromRand(n, bombs int, r *rand.Rand) (*domain.Board, error) {
	if n < 2 || bombs < 1 || bombs >= n*n {
		return nil, ErrInvalidConfig
	}

	var perm []int
	if r != nil {
		perm = r.Perm(n * n)
	} else {
		perm = rand.Perm(n * n)
	}

	coords := make([]int, bombs)
	copy(coords, perm[:bombs])

	grid := make([][]domain.CellState, n)
	for y := range grid {
		grid[y] = make([]domain.CellState, n)
		for x := range grid[y] {
			grid[y][x] = domain.CellHidden
		}
	}

	return &domain.Board{
		N:               n,
		Grid:            grid,
		BombCoordinates: coords,
	}, nil
}
