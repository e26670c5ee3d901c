package domain

// CellState mirrors the wire representation of a single cell.
type CellState string

const (
	CellHidden   CellState = "Hidden"
	CellRevealed CellState = "Revealed"
	CellMined    CellState = "Mined"
)

// Board is the shared grid. BombCoordinates are flattened indices
// (y*n + x), fixed at generation time.
type Board struct {
	N               int           `json:"n"`
	Grid            [][]CellState `json:"grid"`
	BombCoordinates []int         `json:"bomb_coordinates"`
}

// IsBomb reports whether (x, y) holds a mine.
func (b *Board) IsBomb(x, y int) bool {
	idx := y*b.N + x
	for _, c := range b.BombCoordinates {
		if c == idx {
			return true
		}
	}
	return false
}

// InBounds reports whether (x, y) is a valid coordinate.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.N && y >= 0 && y < b.N
}

// HiddenCount returns how many cells are still hidden.
func (b *Board) HiddenCount() int {
	count := 0
	for _, row := range b.Grid {
		for _, cell := range row {
			if cell == CellHidden {
				count++
			}
		}
	}
	return count
}
