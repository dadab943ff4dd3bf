// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/yellowcard/yellowcard/internal/models"
)

// Deck is a shuffled stack of cards. The top of the deck is the end of the slice.
type Deck struct {
	cards []*models.Card
}

// Reload replaces the stack with a shuffled copy of cards.
func (d *Deck) Reload(cards []*models.Card, r *rand.Rand) {
	d.cards = make([]*models.Card, len(cards))
	copy(d.cards, cards)
	r.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (*models.Card, error) {
	n := len(d.cards)
	if n == 0 {
		return nil, ErrExhausted
	}
	card := d.cards[n-1]
	d.cards[n-1] = nil
	d.cards = d.cards[:n-1]
	return card, nil
}

// Peek returns up to n cards from the top without removing them, topmost first.
func (d *Deck) Peek(n int) []*models.Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	out := make([]*models.Card, 0, n)
	for i := len(d.cards) - 1; i >= len(d.cards)-n; i-- {
		out = append(out, d.cards[i])
	}
	return out
}

// Len returns the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}
