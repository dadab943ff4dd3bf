// internal/game/actions.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/yellowcard/yellowcard/internal/models"
)

// Action types accepted by HandleAction.
const (
	ActionStart         = "action_start"
	ActionPlay          = "action_play"           // {"card": id}
	ActionJudge         = "action_judge"          // {"label": n}
	ActionDiscardChoose = "action_discard_choose" // {"amount": n}
	ActionDiscardSkip   = "action_discard_skip"
	ActionDiscard       = "action_discard" // {"card": id}
	ActionSync          = "action_sync"
)

// HandleAction routes a client action to the matching game operation. The WS layer passes decoded JSON
// through here so that payload validation stays next to the rules it feeds.
func (g *Game) HandleAction(userID uuid.UUID, action models.GameAction) error {
	switch action.ActionType {
	case ActionStart:
		if g.StarterID != uuid.Nil && userID != g.StarterID {
			return fmt.Errorf("%w: only the room creator can start", ErrNotYourTurn)
		}
		return g.Start()

	case ActionPlay:
		cardID, err := payloadString(action.Payload, "card")
		if err != nil {
			return err
		}
		return g.Play(userID, cardID)

	case ActionJudge:
		label, err := payloadInt(action.Payload, "label")
		if err != nil {
			return err
		}
		_, err = g.Judge(userID, label)
		return err

	case ActionDiscardChoose:
		amount, err := payloadInt(action.Payload, "amount")
		if err != nil {
			return err
		}
		return g.ChooseDiscard(userID, amount)

	case ActionDiscardSkip:
		return g.SkipDiscard(userID)

	case ActionDiscard:
		cardID, err := payloadString(action.Payload, "card")
		if err != nil {
			return err
		}
		return g.Discard(userID, cardID)

	case ActionSync:
		if !g.Seated(userID) {
			return ErrNotSeated
		}
		g.SyncState(userID)
		return nil

	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidMove, action.ActionType)
	}
}
