// Package battleship implements two-player Battleship on 10x10 boards.
package battleship

import (
	"math/rand"
	"slices"
	"time"

	"lobby/internal/game"
	"lobby/internal/game/grid"
)

const Name = "battleship"

const Size = 10

// Cell is the content of one board square.
type Cell string

const (
	Empty Cell = "empty"
	Ship  Cell = "ship"
	Hit   Cell = "hit"
	Miss  Cell = "miss"
)

type Phase string

const (
	PhasePlacement Phase = "placement"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// ShipSpec names a ship class and its length.
type ShipSpec struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Fleet is placed in this order.
var Fleet = []ShipSpec{
	{"Carrier", 5},
	{"Battleship", 4},
	{"Cruiser", 3},
	{"Submarine", 3},
	{"Destroyer", 2},
}

// FleetCells is the number of cells the whole fleet occupies.
func FleetCells() int {
	n := 0
	for _, s := range Fleet {
		n += s.Size
	}
	return n
}

type Vessel struct {
	Name      string       `json:"name"`
	Size      int          `json:"size"`
	Positions []grid.Coord `json:"positions"`
	Hits      int          `json:"hits"`
}

func (v Vessel) Sunk() bool { return v.Hits == v.Size }

// Side is one player's board and fleet.
type Side struct {
	Board       [][]Cell `json:"board"`
	Ships       []Vessel `json:"ships"`
	PlacingShip int      `json:"placingShip"`
	Horizontal  bool     `json:"placementHorizontal"`
	Remaining   int      `json:"remainingCells"`
}

func (sd Side) placed() bool { return sd.PlacingShip >= len(Fleet) }

func (sd Side) clone() Side {
	out := sd
	out.Board = make([][]Cell, len(sd.Board))
	for i, row := range sd.Board {
		out.Board[i] = slices.Clone(row)
	}
	out.Ships = slices.Clone(sd.Ships)
	return out
}

// Result describes the last shot.
type Result string

const (
	ResultHit  Result = "hit"
	ResultMiss Result = "miss"
	ResultSunk Result = "sunk"
)

type Shot struct {
	PlayerID string     `json:"playerId"`
	At       grid.Coord `json:"at"`
	Result   Result     `json:"result"`
	Ship     string     `json:"ship,omitempty"`
	Time     time.Time  `json:"time"`
}

// State is a battleship match. Sides are indexed by seat.
type State struct {
	Sides       [2]Side         `json:"sides"`
	Players     []game.Player   `json:"players"`
	Phase       Phase           `json:"phase"`
	CurrentTurn string          `json:"currentTurn"`
	Winner      string          `json:"winner,omitempty"`
	LastAction  *Shot           `json:"lastAction,omitempty"`
	Difficulty  game.Difficulty `json:"difficulty"`
}

const (
	ActionPlace  = "place"
	ActionRotate = "rotate"
	ActionAttack = "attack"
)

// Move places the next ship, flips the placement orientation or attacks.
type Move struct {
	Action     string `json:"action"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Horizontal *bool  `json:"horizontal,omitempty"`
}

func Game() game.Game {
	return game.Rules[State, Move]{
		Meta:   game.GameInfo{Name: Name, Title: "Battleship", MinPlayers: 2, MaxPlayers: 2},
		Init:   New,
		Move:   Apply,
		Choose: AIMove,
	}
}

func newBoard() [][]Cell {
	b := make([][]Cell, Size)
	for i := range b {
		b[i] = make([]Cell, Size)
		for j := range b[i] {
			b[i][j] = Empty
		}
	}
	return b
}

func New(cfg game.MatchConfig) State {
	s := State{
		Players:    cfg.Seats(),
		Phase:      PhasePlacement,
		Difficulty: cfg.Difficulty,
	}
	if s.Difficulty == "" {
		s.Difficulty = game.Medium
	}
	for i := range s.Sides {
		s.Sides[i] = Side{Board: newBoard(), Horizontal: true}
	}
	return s
}

func (s State) Awaiting() []string {
	switch s.Phase {
	case PhasePlacement:
		var out []string
		for i, p := range s.Players {
			if !s.Sides[i].placed() {
				out = append(out, p.ID)
			}
		}
		return out
	case PhasePlaying:
		return []string{s.CurrentTurn}
	}
	return nil
}

func (s State) Over() bool { return s.Phase == PhaseFinished }

func (s State) Outcome() game.Outcome {
	return game.Outcome{Winner: s.Winner}
}

// View shows playerID their own side as is. On the other side, unhit ship
// cells read as empty and only sunk ships keep their positions. Everything
// is shown once the game is over.
func (s State) View(playerID string) any {
	if s.Over() {
		return s
	}
	v := s
	for i, p := range s.Players {
		if p.ID == playerID && playerID != "" {
			continue
		}
		v.Sides[i] = s.Sides[i].concealed()
	}
	return v
}

// concealed is the side as seen from across the table.
func (sd Side) concealed() Side {
	out := sd.clone()
	for _, row := range out.Board {
		for y, c := range row {
			if c == Ship {
				row[y] = Empty
			}
		}
	}
	for i, v := range out.Ships {
		if !v.Sunk() {
			out.Ships[i] = Vessel{Name: v.Name, Size: v.Size}
		}
	}
	return out
}

func inBounds(c grid.Coord) bool {
	return c.X >= 0 && c.X < Size && c.Y >= 0 && c.Y < Size
}

// span returns the cells a ship of size at c would cover, or false when it
// leaves the board or overlaps another ship.
func span(b [][]Cell, c grid.Coord, size int, horizontal bool) ([]grid.Coord, bool) {
	cells := make([]grid.Coord, 0, size)
	for i := 0; i < size; i++ {
		n := grid.Coord{X: c.X + i, Y: c.Y}
		if horizontal {
			n = grid.Coord{X: c.X, Y: c.Y + i}
		}
		if !inBounds(n) || b[n.X][n.Y] != Empty {
			return nil, false
		}
		cells = append(cells, n)
	}
	return cells, true
}

func Apply(s State, playerID string, m Move, at time.Time) (State, bool) {
	seat := game.SeatOf(s.Players, playerID)
	if seat < 0 || s.Over() {
		return s, false
	}
	switch m.Action {
	case ActionRotate:
		if s.Phase != PhasePlacement || s.Sides[seat].placed() {
			return s, false
		}
		next := s
		next.Sides[seat].Horizontal = !s.Sides[seat].Horizontal
		return next, true
	case ActionPlace:
		return place(s, seat, m)
	case ActionAttack:
		return attack(s, seat, grid.Coord{X: m.X, Y: m.Y}, at)
	}
	return s, false
}

func place(s State, seat int, m Move) (State, bool) {
	side := s.Sides[seat]
	if s.Phase != PhasePlacement || side.placed() {
		return s, false
	}
	horizontal := side.Horizontal
	if m.Horizontal != nil {
		horizontal = *m.Horizontal
	}
	spec := Fleet[side.PlacingShip]
	cells, ok := span(side.Board, grid.Coord{X: m.X, Y: m.Y}, spec.Size, horizontal)
	if !ok {
		return s, false
	}

	side = side.clone()
	for _, c := range cells {
		side.Board[c.X][c.Y] = Ship
	}
	side.Ships = append(side.Ships, Vessel{Name: spec.Name, Size: spec.Size, Positions: cells})
	side.PlacingShip++
	side.Remaining += spec.Size

	next := s
	next.Sides[seat] = side
	if next.Sides[0].placed() && next.Sides[1].placed() {
		next.Phase = PhasePlaying
		next.CurrentTurn = next.Players[0].ID
	}
	return next, true
}

// attack fires at the opponent's board. A hit keeps the turn.
func attack(s State, seat int, c grid.Coord, at time.Time) (State, bool) {
	if s.Phase != PhasePlaying || s.Players[seat].ID != s.CurrentTurn || !inBounds(c) {
		return s, false
	}
	target := game.Other(seat)
	enemy := s.Sides[target]
	switch enemy.Board[c.X][c.Y] {
	case Hit, Miss:
		return s, false
	}

	next := s
	enemy = enemy.clone()
	shot := &Shot{PlayerID: s.CurrentTurn, At: c, Time: at}

	if enemy.Board[c.X][c.Y] == Ship {
		enemy.Board[c.X][c.Y] = Hit
		enemy.Remaining--
		shot.Result = ResultHit
		for i, v := range enemy.Ships {
			if slices.Contains(v.Positions, c) {
				hit := v
				hit.Hits++
				enemy.Ships[i] = hit
				if hit.Sunk() {
					shot.Result = ResultSunk
					shot.Ship = hit.Name
				}
				break
			}
		}
	} else {
		enemy.Board[c.X][c.Y] = Miss
		shot.Result = ResultMiss
		next.CurrentTurn = next.Players[target].ID
	}

	next.Sides[target] = enemy
	next.LastAction = shot
	if fleetSunk(enemy.Ships) {
		next.Phase = PhaseFinished
		next.Winner = s.Players[seat].ID
	}
	return next, true
}

func fleetSunk(ships []Vessel) bool {
	if len(ships) == 0 {
		return false
	}
	for _, v := range ships {
		if !v.Sunk() {
			return false
		}
	}
	return true
}

// placementTries bounds the random search for a free ship position.
const placementTries = 200

// AIMove places ships at random positions during placement. While playing
// easy fires at random and medium and hard hunt next to earlier hits.
func AIMove(s State, d game.Difficulty, rng *rand.Rand) (Move, bool) {
	awaiting := s.Awaiting()
	if len(awaiting) == 0 {
		return Move{}, false
	}
	seat := game.SeatOf(s.Players, awaiting[0])
	if s.Phase == PhasePlacement {
		for _, id := range awaiting {
			if id == game.AIPlayerID {
				seat = game.SeatOf(s.Players, id)
			}
		}
		return randomPlacement(s.Sides[seat], rng)
	}

	enemy := s.Sides[game.Other(seat)].Board
	if d != game.Easy {
		if c, ok := hunt(enemy); ok {
			return Move{Action: ActionAttack, X: c.X, Y: c.Y}, true
		}
	}
	var open []grid.Coord
	for x, row := range enemy {
		for y, cell := range row {
			if cell != Hit && cell != Miss {
				open = append(open, grid.Coord{X: x, Y: y})
			}
		}
	}
	if len(open) == 0 {
		return Move{}, false
	}
	c := open[rng.Intn(len(open))]
	return Move{Action: ActionAttack, X: c.X, Y: c.Y}, true
}

var huntDirs = []grid.Coord{{X: 0, Y: 1}, {X: 0, Y: -1}, {X: 1, Y: 0}, {X: -1, Y: 0}}

// hunt returns an untried cell next to a previous hit.
func hunt(b [][]Cell) (grid.Coord, bool) {
	for x, row := range b {
		for y, cell := range row {
			if cell != Hit {
				continue
			}
			for _, d := range huntDirs {
				n := grid.Coord{X: x + d.X, Y: y + d.Y}
				if inBounds(n) && b[n.X][n.Y] != Hit && b[n.X][n.Y] != Miss {
					return n, true
				}
			}
		}
	}
	return grid.Coord{}, false
}

func randomPlacement(side Side, rng *rand.Rand) (Move, bool) {
	if side.placed() {
		return Move{}, false
	}
	size := Fleet[side.PlacingShip].Size
	for i := 0; i < placementTries; i++ {
		horizontal := rng.Intn(2) == 0
		c := grid.Coord{X: rng.Intn(Size), Y: rng.Intn(Size)}
		if _, ok := span(side.Board, c, size, horizontal); ok {
			return Move{Action: ActionPlace, X: c.X, Y: c.Y, Horizontal: &horizontal}, true
		}
	}
	// exhaustive fallback
	for _, horizontal := range []bool{true, false} {
		for x := 0; x < Size; x++ {
			for y := 0; y < Size; y++ {
				if _, ok := span(side.Board, grid.Coord{X: x, Y: y}, size, horizontal); ok {
					h := horizontal
					return Move{Action: ActionPlace, X: x, Y: y, Horizontal: &h}, true
				}
			}
		}
	}
	return Move{}, false
}
