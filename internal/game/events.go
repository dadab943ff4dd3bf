// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/yellowcard/yellowcard/internal/models"
)

// OnGameEndFunc handles a finished game, e.g. to tell the room about results.
type OnGameEndFunc func(gameID uuid.UUID, reason EndReason, winners []uuid.UUID, scores map[uuid.UUID]int)

// GameEventType is an enum-like type for broadcasting game actions.
type GameEventType string

const (
	EventGameStart         GameEventType = "game_start"
	EventPlayerSeated      GameEventType = "player_seated"
	EventPlayerUnseated    GameEventType = "player_unseated"
	EventDemandPlayed      GameEventType = "demand_played"
	EventResponseSubmitted GameEventType = "response_submitted" // public, never carries the card
	EventRoundReveal       GameEventType = "round_reveal"       // anonymized groups, ordered by label
	EventRoundJudged       GameEventType = "round_judged"       // loser, penalty and the label owners
	EventRoundVoided       GameEventType = "round_voided"
	EventDiscardChosen     GameEventType = "discard_chosen"
	EventCardDiscarded     GameEventType = "card_discarded"
	EventGameTurn          GameEventType = "game_turn"
	EventGameEnd           GameEventType = "game_end"

	EventPrivateHand          GameEventType = "private_hand"
	EventPrivateDemandChoices GameEventType = "private_demand_choices"
	EventPrivateSyncState     GameEventType = "private_sync_state"
)

// EndReason says why a game stopped.
type EndReason string

const (
	EndThreshold         EndReason = "threshold"
	EndResponseExhausted EndReason = "response_exhausted"
	EndDemandExhausted   EndReason = "demand_exhausted"
	EndAborted           EndReason = "aborted"
)

// EventUser identifies a player inside an event.
type EventUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username,omitempty"`
}

// GameEvent holds data about an event that can be broadcast to the clients in a consistent format.
type GameEvent struct {
	Type   GameEventType  `json:"type"`
	GameID uuid.UUID      `json:"gameId"`
	Phase  Phase          `json:"phase"`
	User   *EventUser     `json:"user,omitempty"`
	Card   *models.Card   `json:"card,omitempty"`
	Cards  []*models.Card `json:"cards,omitempty"`
	Groups []Group        `json:"groups,omitempty"`

	Standings []Standing `json:"standings,omitempty"`

	// Payload carries the odd fields that only one event type needs.
	Payload map[string]interface{} `json:"payload,omitempty"`

	State *View `json:"state,omitempty"`
}

// Standing is one row of the score table.
type Standing struct {
	PlayerID uuid.UUID `json:"playerId"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
	Penalty  int       `json:"penalty"` // -Score, the number of penalty cards taken
	HandSize int       `json:"handSize"`
	Asker    bool      `json:"asker,omitempty"`
	Mark     string    `json:"mark,omitempty"` // set in the final settlement: winner, middle or last
}

// Judgement is the outcome of the asker picking a label.
type Judgement struct {
	Label    int          `json:"label"`
	LoserID  uuid.UUID    `json:"loserId"`
	Penalty  int          `json:"penalty"`
	Owners   []LabelOwner `json:"owners"`
	GameOver bool         `json:"gameOver"`
}

func eventUser(p *Player) *EventUser {
	return &EventUser{ID: p.ID, Username: p.User.Username}
}

// fireEvent broadcasts an event to the whole room.
// Assumes lock is held.
func (g *Game) fireEvent(ev GameEvent) {
	ev.GameID = g.ID
	ev.Phase = g.phase
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	} else {
		g.Log.Debugf("BroadcastFn is nil, dropping event %s", ev.Type)
	}
}

// fireEventToPlayer sends an event only to a specific player.
// Assumes lock is held.
func (g *Game) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	ev.GameID = g.ID
	ev.Phase = g.phase
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// sendHand privately tells a player what is in their hand.
// Assumes lock is held.
func (g *Game) sendHand(p *Player) {
	g.fireEventToPlayer(p.ID, GameEvent{
		Type:  EventPrivateHand,
		Cards: append([]*models.Card(nil), p.Hand...),
	})
}

// sendDemandChoices privately offers the asker the demand cards on top of the deck.
// Assumes lock is held.
func (g *Game) sendDemandChoices() {
	g.fireEventToPlayer(g.asker, GameEvent{
		Type:  EventPrivateDemandChoices,
		Cards: g.demandDeck.Peek(g.Rules.DemandDraws),
	})
}
