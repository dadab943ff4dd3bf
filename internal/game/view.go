// internal/game/view.go
package game

import (
	"github.com/google/uuid"
	"github.com/yellowcard/yellowcard/internal/models"
)

// SeatView is one seat as seen by another player. Hands are never shown, only their size.
type SeatView struct {
	PlayerID  uuid.UUID `json:"playerId"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	HandSize  int       `json:"handSize"`
	IsAsker   bool      `json:"isAsker"`
	Submitted int       `json:"submitted"` // cards in the current round's slot
	Label     int       `json:"label,omitempty"`
}

// View is a snapshot of the game from one user's seat, sent on reconnect or on request.
type View struct {
	GameID         uuid.UUID      `json:"gameId"`
	Phase          Phase          `json:"phase"`
	Turn           int            `json:"turn"`
	Threshold      int            `json:"threshold"`
	AskerID        uuid.UUID      `json:"askerId"`
	DemandDeckSize int            `json:"demandDeckSize"`
	ResponseSize   int            `json:"responseDeckSize"`
	Demand         *models.Card   `json:"demand,omitempty"`
	Groups         []Group        `json:"groups,omitempty"`
	Loser          uuid.UUID      `json:"loserId,omitempty"`
	Seats          []SeatView     `json:"seats"`
	EndReason      EndReason      `json:"endReason,omitempty"`
	Winners        []uuid.UUID    `json:"winners,omitempty"`
	Hand           []*models.Card `json:"hand,omitempty"`
	DemandChoices  []*models.Card `json:"demandChoices,omitempty"`
	DiscardPending int            `json:"discardPending,omitempty"`
}

// View builds the snapshot for forUser. Groups are only shown once every response is in, and labels
// are only tied to seats after the round has been judged.
func (g *Game) View(forUser uuid.UUID) View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view(forUser)
}

// Assumes lock is held.
func (g *Game) view(forUser uuid.UUID) View {
	v := View{
		GameID:         g.ID,
		Phase:          g.phase,
		Turn:           g.turn,
		Threshold:      EliminationThreshold(g.ring.Len()),
		AskerID:        g.asker,
		DemandDeckSize: g.demandDeck.Len(),
		ResponseSize:   g.responseDeck.Len(),
		EndReason:      g.endReason,
		Winners:        append([]uuid.UUID(nil), g.winners...),
	}

	rd := g.round
	judged := rd != nil && rd.Loser != uuid.Nil
	if rd != nil && g.phase != PhaseStart {
		v.Demand = rd.Demand
		v.Loser = rd.Loser
		if g.phase == PhaseJudge || g.phase == PhaseDiscard {
			v.Groups = rd.Groups()
		}
	}

	for p := range g.ring.Members(g.asker) {
		seat := SeatView{
			PlayerID: p.ID,
			Username: p.User.Username,
			Score:    p.Score,
			HandSize: len(p.Hand),
			IsAsker:  p.ID == g.asker,
		}
		if rd != nil {
			seat.Submitted = len(rd.submissions[p.ID])
			if judged {
				seat.Label = rd.Label(p.ID)
			}
		}
		v.Seats = append(v.Seats, seat)

		if p.ID != forUser {
			continue
		}
		v.Hand = append([]*models.Card(nil), p.Hand...)
		if g.phase == PhaseDemand && p.ID == g.asker {
			v.DemandChoices = g.demandDeck.Peek(g.Rules.DemandDraws)
		}
		if g.phase == PhaseDiscard && p.ID == rd.Loser && p.discardChosen {
			v.DiscardPending = len(p.Hand) - g.expectedHandAfterDiscard(p)
		}
	}
	return v
}

// sendSyncState privately pushes the full view to one player.
// Assumes lock is held.
func (g *Game) sendSyncState(playerID uuid.UUID) {
	v := g.view(playerID)
	g.fireEventToPlayer(playerID, GameEvent{Type: EventPrivateSyncState, State: &v})
}

// SyncState pushes the player's view over BroadcastToPlayerFn, e.g. after a reconnect.
func (g *Game) SyncState(playerID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendSyncState(playerID)
}
