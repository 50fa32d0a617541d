package catalog

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobby/internal/config"
	"lobby/internal/game"
)

func TestRegistersEveryGame(t *testing.T) {
	r := NewRegistry(config.Default().Games)
	var names []string
	for _, info := range r.List() {
		names = append(names, info.Name)
		assert.Equal(t, 2, info.MaxPlayers, info.Name)
		assert.NotEmpty(t, info.Title, info.Name)
	}
	assert.Equal(t, []string{
		"battleship", "chess", "connect-4", "go-fish", "gomoku", "rummy",
		"secret-code", "secret-code-letters", "secret-code-numbers", "tic-tac-toe", "war",
	}, names)
}

func TestConfiguredOptions(t *testing.T) {
	opts := config.Default().Games
	opts.Connect.N = 3
	opts.Connect.Rows = 4
	r := NewRegistry(opts)

	s, ok := r.NewState("connect-4", game.MatchConfig{Players: []game.Player{{ID: "a"}, {ID: "b"}}})
	require.True(t, ok)
	data, err := json.Marshal(s)
	require.NoError(t, err)
	var probe struct {
		Board [][]string `json:"board"`
		N     int        `json:"n"`
	}
	require.NoError(t, json.Unmarshal(data, &probe))
	assert.Equal(t, 3, probe.N)
	assert.Len(t, probe.Board, 4)
}

// Every game must reach a terminal state under AI play, and every
// intermediate state must survive a JSON round trip.
func TestAIPlaysEveryGame(t *testing.T) {
	r := NewRegistry(config.Default().Games)
	tiers := []game.Difficulty{game.Easy, game.Medium, game.Hard}
	for _, info := range r.List() {
		for _, d := range tiers {
			t.Run(info.Name+"/"+string(d), func(t *testing.T) {
				rng := rand.New(rand.NewSource(42))
				players := []game.Player{{ID: "alice"}, {ID: game.AIPlayerID}}
				s, ok := r.NewState(info.Name, game.MatchConfig{Players: players, Difficulty: d, Rand: rng})
				require.True(t, ok)

				for steps := 0; !s.Over(); steps++ {
					require.Less(t, steps, 5000)
					actor := game.NextActor(s)
					a, ok := r.AIMove(info.Name, s, d, rng)
					require.True(t, ok, "no move at step %d", steps)
					tr := r.ApplyMove(info.Name, s, a, actor)
					require.True(t, tr.Accepted, "rejected %s for %s", a.Payload, actor)

					data, err := json.Marshal(tr.State)
					require.NoError(t, err)
					restored, err := r.Decode(info.Name, data)
					require.NoError(t, err)
					again, err := json.Marshal(restored)
					require.NoError(t, err)
					require.JSONEq(t, string(data), string(again))

					assert.Equal(t, game.AwaitingAI(tr.State), tr.AIToMove)
					s = restored
				}
				_, ok = r.AIMove(info.Name, s, d, rng)
				assert.False(t, ok, "no move once the game is over")
				assert.NotNil(t, game.Results(s, []string{"alice", game.AIPlayerID}))
			})
		}
	}
}

func TestAutoplayIsDeterministic(t *testing.T) {
	r := NewRegistry(config.Default().Games)
	for _, name := range []string{"war", "rummy", "go-fish", "battleship"} {
		run := func() []byte {
			cfg := game.MatchConfig{
				Players: []game.Player{{ID: "one"}, {ID: "two"}},
				Rand:    rand.New(rand.NewSource(7)),
			}
			s, _, err := r.Autoplay(name, cfg, [2]game.Difficulty{game.Medium, game.Hard}, 10000)
			require.NoError(t, err)
			data, err := json.Marshal(s)
			require.NoError(t, err)
			return data
		}
		assert.JSONEq(t, string(run()), string(run()), name)
	}
}
