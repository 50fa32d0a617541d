// Package grid holds the board and N-in-a-row detector shared by the
// grid games.
package grid

// Coord addresses a cell. X is the row and Y the column.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board is a rows x cols grid of marks. An empty string is an empty cell.
type Board [][]string

// NewBoard returns an empty board.
func NewBoard(rows, cols int) Board {
	b := make(Board, rows)
	for i := range b {
		b[i] = make([]string, cols)
	}
	return b
}

func (b Board) Rows() int { return len(b) }

func (b Board) Cols() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Clone returns a deep copy.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for i, row := range b {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// In reports whether c lies on the board.
func (b Board) In(c Coord) bool {
	return c.X >= 0 && c.X < b.Rows() && c.Y >= 0 && c.Y < b.Cols()
}

func (b Board) At(c Coord) string {
	return b[c.X][c.Y]
}

func (b Board) Full() bool {
	for _, row := range b {
		for _, v := range row {
			if v == "" {
				return false
			}
		}
	}
	return true
}

// Count returns the number of cells holding mark.
func (b Board) Count(mark string) int {
	n := 0
	for _, row := range b {
		for _, v := range row {
			if v == mark {
				n++
			}
		}
	}
	return n
}

// Empty lists the empty cells in row-major order.
func (b Board) Empty() []Coord {
	var out []Coord
	for x, row := range b {
		for y, v := range row {
			if v == "" {
				out = append(out, Coord{X: x, Y: y})
			}
		}
	}
	return out
}

// DropRow returns the lowest empty row of col, or -1 when the column is
// full or out of range.
func (b Board) DropRow(col int) int {
	if col < 0 || col >= b.Cols() {
		return -1
	}
	for x := b.Rows() - 1; x >= 0; x-- {
		if b[x][col] == "" {
			return x
		}
	}
	return -1
}

// Result is the verdict of a detector. Winner holds the winning mark.
type Result struct {
	Winner       string  `json:"winner,omitempty"`
	IsDraw       bool    `json:"isDraw"`
	WinningCells []Coord `json:"winningCells,omitempty"`
}

// right, down, down-right, down-left
var directions = []Coord{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// Scan checks every occupied cell for a run of n equal marks.
func Scan(b Board, n int) Result {
	for x, row := range b {
		for y, mark := range row {
			if mark == "" {
				continue
			}
			for _, d := range directions {
				cells := run(b, Coord{X: x, Y: y}, d, mark, n)
				if len(cells) >= n {
					return Result{Winner: mark, WinningCells: cells}
				}
			}
		}
	}
	return Result{IsDraw: b.Full()}
}

// ScanFrom checks only the lines through last, which must be the most
// recently marked cell.
func ScanFrom(b Board, last Coord, n int) Result {
	if !b.In(last) || b.At(last) == "" {
		return Result{IsDraw: b.Full()}
	}
	mark := b.At(last)
	for _, d := range directions {
		start := last
		for {
			prev := Coord{X: start.X - d.X, Y: start.Y - d.Y}
			if !b.In(prev) || b.At(prev) != mark {
				break
			}
			start = prev
		}
		cells := run(b, start, d, mark, n)
		if len(cells) >= n {
			return Result{Winner: mark, WinningCells: cells}
		}
	}
	return Result{IsDraw: b.Full()}
}

// run walks from c in direction d while cells hold mark, stopping after n.
func run(b Board, c, d Coord, mark string, n int) []Coord {
	var cells []Coord
	for b.In(c) && b.At(c) == mark && len(cells) < n {
		cells = append(cells, c)
		c = Coord{X: c.X + d.X, Y: c.Y + d.Y}
	}
	return cells
}
