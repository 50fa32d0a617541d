// Package catalog registers every game type the lobby offers.
package catalog

import (
	"lobby/internal/config"
	"lobby/internal/game"
	"lobby/internal/game/battleship"
	"lobby/internal/game/chess"
	"lobby/internal/game/connect"
	"lobby/internal/game/gofish"
	"lobby/internal/game/gomoku"
	"lobby/internal/game/rummy"
	"lobby/internal/game/secretcode"
	"lobby/internal/game/tictactoe"
	"lobby/internal/game/war"
)

// Secret-code variants registered next to the configured one.
const (
	SecretCodeNumbers = "secret-code-numbers"
	SecretCodeLetters = "secret-code-letters"
)

// SecretCode is the name of the configured secret-code game.
const SecretCode = "secret-code"

// Games returns the rules of every game type, configured from opts.
func Games(opts config.Games) []game.Game {
	numbers := opts.SecretCode
	numbers.CodeType = secretcode.Numbers
	letters := opts.SecretCode
	letters.CodeType = secretcode.Letters

	return []game.Game{
		tictactoe.Game(),
		connect.Game(connect.Name, "Connect Four", opts.Connect),
		gomoku.Game(),
		chess.Game(),
		secretcode.Game(SecretCode, "Secret Code", opts.SecretCode),
		secretcode.Game(SecretCodeNumbers, "Secret Code (numbers)", numbers),
		secretcode.Game(SecretCodeLetters, "Secret Code (letters)", letters),
		gofish.Game(),
		battleship.Game(),
		war.Game(opts.War),
		rummy.Game(opts.Rummy),
	}
}

// NewRegistry returns a registry holding every game type.
func NewRegistry(opts config.Games) *game.Registry {
	r := game.NewRegistry()
	for _, g := range Games(opts) {
		r.Register(g)
	}
	return r
}
