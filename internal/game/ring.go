// internal/game/ring.go
package game

import (
	"fmt"
	"iter"

	"github.com/google/uuid"
	"github.com/yellowcard/yellowcard/internal/models"
)

// Ring is the circular doubly-linked seating of a game, stored as an arena keyed by player id.
// The ring only knows structure; which seat is the asker is tracked by the Game.
type Ring struct {
	players map[uuid.UUID]*Player
}

// NewRing returns an empty ring.
func NewRing() *Ring {
	return &Ring{players: make(map[uuid.UUID]*Player)}
}

// Insert seats user immediately before the player `before`, i.e. as the last seat before wrapping back
// around to it. On an empty ring the new player links to itself and `before` is ignored.
func (r *Ring) Insert(before uuid.UUID, user models.User) (*Player, error) {
	if _, exists := r.players[user.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyJoined, user)
	}
	p := &Player{ID: user.ID, User: user}

	if len(r.players) == 0 {
		p.next, p.prev = p.ID, p.ID
		r.players[p.ID] = p
		return p, nil
	}

	anchor, ok := r.players[before]
	if !ok {
		return nil, fmt.Errorf("%w: anchor seat %s", ErrNotSeated, before)
	}
	last := r.players[anchor.prev]

	p.next = anchor.ID
	p.prev = last.ID
	last.next = p.ID
	anchor.prev = p.ID
	r.players[p.ID] = p
	return p, nil
}

// Remove splices a player out. The sole remaining player cannot be removed.
func (r *Ring) Remove(id uuid.UUID) error {
	p, ok := r.players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSeated, id)
	}
	if p.next == p.ID {
		return fmt.Errorf("%w: cannot remove the last seated player", ErrCapacity)
	}

	r.players[p.prev].next = p.next
	r.players[p.next].prev = p.prev
	delete(r.players, id)

	p.next, p.prev = uuid.Nil, uuid.Nil
	p.Hand = nil
	p.resetDiscard()
	return nil
}

// Advance returns the seat after id.
func (r *Ring) Advance(id uuid.UUID) uuid.UUID {
	if p, ok := r.players[id]; ok {
		return p.next
	}
	return uuid.Nil
}

// Members yields every seated player once, in turn order, starting at start.
func (r *Ring) Members(start uuid.UUID) iter.Seq[*Player] {
	return func(yield func(*Player) bool) {
		p, ok := r.players[start]
		if !ok {
			return
		}
		for {
			if !yield(p) {
				return
			}
			if p.next == start {
				return
			}
			p = r.players[p.next]
		}
	}
}

// Get returns the player with the given id.
func (r *Ring) Get(id uuid.UUID) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Len returns the number of seated players.
func (r *Ring) Len() int {
	return len(r.players)
}

// DrawTo tops p's hand up to exactly target cards, one draw at a time.
// Cards drawn before the deck runs dry stay in the hand.
func DrawTo(p *Player, target int, deck *Deck) error {
	for len(p.Hand) < target {
		card, err := deck.Draw()
		if err != nil {
			return fmt.Errorf("drawing for %s: %w", p.User, err)
		}
		p.Hand = append(p.Hand, card)
	}
	return nil
}
