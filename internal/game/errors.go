// internal/game/errors.go
package game

import "errors"

// Error kinds returned by the core. Callers match them with errors.Is; the wrapped message carries detail.
var (
	// ErrCapacity means too few seated players for the requested operation.
	ErrCapacity = errors.New("not enough players")
	// ErrExhausted means a deck had no card left to draw.
	ErrExhausted = errors.New("deck is empty")
	// ErrInvalidMove covers plays, judgements and discards that are not allowed right now.
	ErrInvalidMove = errors.New("invalid move")
	// ErrNotFound means a label or card could not be resolved.
	ErrNotFound = errors.New("not found")

	// ErrTooManyCards is returned when a slot already holds as many cards as the demand asks for.
	ErrTooManyCards = wrapKind(ErrInvalidMove, "too many cards")
	// ErrNotYourTurn is returned when the wrong player acts.
	ErrNotYourTurn = wrapKind(ErrInvalidMove, "not your turn")
	// ErrWrongPhase is returned when an operation arrives outside its phase.
	ErrWrongPhase = wrapKind(ErrInvalidMove, "wrong phase")
)

// Lobby errors, raised by seating and the room store.
var (
	ErrNoGameInRoom  = errors.New("no game in room")
	ErrAlreadyJoined = errors.New("already joined")
	ErrLobbyClosed   = errors.New("lobby closed")
	ErrGameStarted   = errors.New("game already started")
	ErrGameEnded     = errors.New("game has ended")
	ErrNotSeated     = errors.New("player is not seated")
)

// kindError is a named error that also matches its kind.
type kindError struct {
	kind error
	msg  string
}

func wrapKind(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *kindError) Unwrap() error { return e.kind }
