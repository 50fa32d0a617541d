package game

import (
	"encoding/json"
	"math/rand"
	"reflect"
	"testing"
	"time"
)

// counterState is a minimal State: players take turns adding to a total
// until it reaches the target.
type counterState struct {
	Players []string `json:"players"`
	Turn    int      `json:"turn"`
	Total   int      `json:"total"`
	Target  int      `json:"target"`
}

func (s counterState) Awaiting() []string {
	if s.Over() {
		return nil
	}
	return []string{s.Players[s.Turn]}
}

func (s counterState) Over() bool { return s.Total >= s.Target }

func (s counterState) Outcome() Outcome {
	if !s.Over() {
		return Outcome{}
	}
	// the player who reached the target moved last
	return Outcome{Winner: s.Players[1-s.Turn]}
}

type counterMove struct {
	Add int `json:"add"`
}

func counterGame(name string) Rules[counterState, counterMove] {
	return Rules[counterState, counterMove]{
		Meta: GameInfo{Name: name, MinPlayers: 2, MaxPlayers: 2},
		Init: func(cfg MatchConfig) counterState {
			seats := cfg.Seats()
			return counterState{Players: []string{seats[0].ID, seats[1].ID}, Target: 3}
		},
		Move: func(s counterState, playerID string, m counterMove, _ time.Time) (counterState, bool) {
			if s.Over() || s.Players[s.Turn] != playerID || m.Add < 1 || m.Add > 2 {
				return s, false
			}
			s.Total += m.Add
			s.Turn = 1 - s.Turn
			return s, true
		},
		Choose: func(s counterState, d Difficulty, rng *rand.Rand) (counterMove, bool) {
			return counterMove{Add: 1}, true
		},
	}
}

func move(t *testing.T, add int) Action {
	t.Helper()
	a, err := NewAction(counterMove{Add: add})
	if err != nil {
		t.Fatalf("new action: %v", err)
	}
	return a
}

func testPlayers() MatchConfig {
	return MatchConfig{Players: []Player{{ID: "alice"}, {ID: AIPlayerID}}}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("test"))

	got, ok := r.Get("test")
	if !ok {
		t.Fatal("expected to find registered game")
	}
	if got.Info().Name != "test" {
		t.Fatalf("expected name test, got %s", got.Info().Name)
	}

	_, ok = r.Get("nonexistent")
	if ok {
		t.Fatal("expected not found for unregistered game")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("b"))
	r.Register(counterGame("a"))

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 games, got %d", len(infos))
	}
	if infos[0].Name != "a" || infos[1].Name != "b" {
		t.Fatalf("expected [a b], got %v", infos)
	}
}

func TestRegistryListEmpty(t *testing.T) {
	r := NewRegistry()
	infos := r.List()
	if len(infos) != 0 {
		t.Fatalf("expected 0 games, got %d", len(infos))
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("test"))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register(counterGame("test")) // should panic
}

func TestApplyMoveFlagsAITurn(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("counter"))
	s, ok := r.NewState("counter", testPlayers())
	if !ok {
		t.Fatal("expected state")
	}

	tr := r.ApplyMove("counter", s, move(t, 1), "alice")
	if !tr.Accepted {
		t.Fatal("expected move to be accepted")
	}
	if !tr.AIToMove {
		t.Fatal("expected AI to move next")
	}

	a, ok := r.AIMove("counter", tr.State, Medium, rand.New(rand.NewSource(1)))
	if !ok {
		t.Fatal("expected an AI move")
	}
	tr = r.ApplyMove("counter", tr.State, a, AIPlayerID)
	if !tr.Accepted || tr.AIToMove {
		t.Fatalf("expected accepted human turn, got %+v", tr)
	}
}

func TestApplyMoveRejections(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("counter"))
	s, _ := r.NewState("counter", testPlayers())

	cases := []struct {
		name     string
		gameType string
		action   Action
		player   string
	}{
		{"unknown game", "nope", move(t, 1), "alice"},
		{"wrong turn", "counter", move(t, 1), AIPlayerID},
		{"illegal amount", "counter", move(t, 5), "alice"},
		{"bad type", "counter", Action{Type: "chat", Payload: json.RawMessage(`{"add":1}`)}, "alice"},
		{"malformed payload", "counter", Action{Type: ActionMove, Payload: json.RawMessage(`{"add":"x"}`)}, "alice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := r.ApplyMove(tc.gameType, s, tc.action, tc.player)
			if tr.Accepted {
				t.Fatal("expected rejection")
			}
			if !reflect.DeepEqual(tr.State, s) {
				t.Fatalf("expected unchanged state, got %+v", tr.State)
			}
		})
	}
}

func TestApplyMoveWrongStateType(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("counter"))
	other := otherState{}
	tr := r.ApplyMove("counter", other, move(t, 1), "alice")
	if tr.Accepted {
		t.Fatal("expected rejection for foreign state")
	}
}

type otherState struct{}

func (otherState) Awaiting() []string { return nil }
func (otherState) Over() bool         { return false }
func (otherState) Outcome() Outcome   { return Outcome{} }

func TestAIMoveUnknownOrFinished(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("counter"))
	if _, ok := r.AIMove("nope", counterState{}, Easy, nil); ok {
		t.Fatal("expected no move for unknown game")
	}
	done := counterState{Players: []string{"a", "b"}, Total: 3, Target: 3}
	if _, ok := r.AIMove("counter", done, Easy, nil); ok {
		t.Fatal("expected no move for finished game")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("counter"))
	s, _ := r.NewState("counter", testPlayers())
	s = r.ApplyMove("counter", s, move(t, 2), "alice").State

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := r.Decode("counter", data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.(counterState).Total != 2 {
		t.Fatalf("expected total 2, got %+v", restored)
	}
	if _, err := r.Decode("nope", data); err == nil {
		t.Fatal("expected error for unknown game")
	}
}

func TestResults(t *testing.T) {
	s := counterState{Players: []string{"a", "b"}, Turn: 1, Total: 3, Target: 3}
	res := Results(s, []string{"a", "b"})
	if len(res) != 2 || res[0].Rank != 1 || res[1].Rank != 2 {
		t.Fatalf("unexpected results %+v", res)
	}
	if Results(counterState{Players: []string{"a", "b"}, Target: 3}, []string{"a", "b"}) != nil {
		t.Fatal("expected nil results for running game")
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := map[string]Difficulty{"easy": Easy, "HARD": Hard, "": Medium, "medium": Medium, "brutal": Medium}
	for in, want := range cases {
		if got := ParseDifficulty(in); got != want {
			t.Errorf("ParseDifficulty(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestStepRandDeterministic(t *testing.T) {
	a := StepRand(42, 3).Intn(1000)
	b := StepRand(42, 3).Intn(1000)
	if a != b {
		t.Fatalf("expected equal draws, got %d and %d", a, b)
	}
}

func TestNextActorPrefersAI(t *testing.T) {
	s := counterState{Players: []string{"alice", AIPlayerID}, Turn: 1, Target: 3}
	if got := NextActor(s); got != AIPlayerID {
		t.Fatalf("expected %s, got %q", AIPlayerID, got)
	}
	s.Total = 3
	if got := NextActor(s); got != "" {
		t.Fatalf("expected no actor after the end, got %q", got)
	}
}

func TestAutoplay(t *testing.T) {
	r := NewRegistry()
	r.Register(counterGame("counter"))
	cfg := MatchConfig{Players: []Player{{ID: "a"}, {ID: "b"}}, Rand: rand.New(rand.NewSource(1))}

	s, steps, err := r.Autoplay("counter", cfg, [2]Difficulty{Easy, Hard}, 10)
	if err != nil {
		t.Fatalf("autoplay: %v", err)
	}
	if !s.Over() || steps != 3 {
		t.Fatalf("expected a finished match after 3 steps, got over=%v steps=%d", s.Over(), steps)
	}
	if s.Outcome().Winner != "a" {
		t.Fatalf("expected a to win, got %+v", s.Outcome())
	}

	if _, _, err := r.Autoplay("counter", cfg, [2]Difficulty{}, 2); err != ErrStepLimit {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if _, _, err := r.Autoplay("nope", cfg, [2]Difficulty{}, 2); err == nil {
		t.Fatal("expected error for unknown game")
	}
}

// sealedState hides its total from everyone but the first player.
type sealedState struct{ counterState }

func (s sealedState) View(playerID string) any {
	if playerID == s.Players[0] {
		return s
	}
	masked := s
	masked.Total = -1
	return masked
}

func TestViewFor(t *testing.T) {
	plain := counterState{Players: []string{"a", "b"}, Total: 2, Target: 3}
	if got := ViewFor(plain, "b"); !reflect.DeepEqual(got, plain) {
		t.Fatalf("states without a Viewer are shown as is, got %+v", got)
	}

	sealed := sealedState{plain}
	if got := ViewFor(sealed, "a").(sealedState); got.Total != 2 {
		t.Fatalf("expected a to see the total, got %d", got.Total)
	}
	if got := ViewFor(sealed, "b").(sealedState); got.Total != -1 {
		t.Fatalf("expected the total hidden from b, got %d", got.Total)
	}
	if sealed.Total != 2 {
		t.Fatal("ViewFor must not modify the state")
	}
}
