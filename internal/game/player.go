// internal/game/player.go
package game

import (
	"slices"

	"github.com/google/uuid"
	"github.com/yellowcard/yellowcard/internal/models"
)

// Player is one seat in a game. Players are linked into a Ring by id.
type Player struct {
	ID   uuid.UUID
	User models.User

	Hand  []*models.Card
	Score int // penalty counter, never increases

	// DiscardAmount is the number of cards the round loser chose to swap out (0..MaxDiscard).
	DiscardAmount int
	discardChosen bool

	next uuid.UUID
	prev uuid.UUID
}

// Next returns the id of the player to the right.
func (p *Player) Next() uuid.UUID { return p.next }

// Prev returns the id of the player to the left.
func (p *Player) Prev() uuid.UUID { return p.prev }

// findCard returns the index of the card with the given id in p's hand, or -1.
func (p *Player) findCard(cardID string) int {
	return slices.IndexFunc(p.Hand, func(c *models.Card) bool { return c.ID == cardID })
}

// takeCard removes and returns the card with the given id from p's hand.
func (p *Player) takeCard(cardID string) (*models.Card, bool) {
	idx := p.findCard(cardID)
	if idx < 0 {
		return nil, false
	}
	card := p.Hand[idx]
	p.Hand = slices.Delete(p.Hand, idx, idx+1)
	return card, true
}

func (p *Player) resetDiscard() {
	p.DiscardAmount = 0
	p.discardChosen = false
}
