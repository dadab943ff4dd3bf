package game

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yellowcard/yellowcard/internal/models"
)

func memberIDs(r *Ring, start uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for p := range r.Members(start) {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestRingInsertBefore(t *testing.T) {
	r := NewRing()
	users := testUsers(4)

	_, err := r.Insert(uuid.Nil, users[0])
	require.NoError(t, err)
	p, _ := r.Get(users[0].ID)
	assert.Equal(t, users[0].ID, p.Next(), "a lone seat links to itself")
	assert.Equal(t, users[0].ID, p.Prev())

	for _, u := range users[1:] {
		_, err := r.Insert(users[0].ID, u)
		require.NoError(t, err)
	}
	assert.Equal(t, []uuid.UUID{users[0].ID, users[1].ID, users[2].ID, users[3].ID}, memberIDs(r, users[0].ID))
	assert.Equal(t, []uuid.UUID{users[2].ID, users[3].ID, users[0].ID, users[1].ID}, memberIDs(r, users[2].ID))
	assert.Equal(t, users[0].ID, r.Advance(users[3].ID))

	_, err = r.Insert(users[0].ID, users[2])
	assert.ErrorIs(t, err, ErrAlreadyJoined)
	_, err = r.Insert(uuid.New(), models.User{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotSeated)
}

func TestRingRemove(t *testing.T) {
	r := NewRing()
	users := testUsers(3)
	for _, u := range users {
		_, err := r.Insert(users[0].ID, u)
		require.NoError(t, err)
	}

	require.NoError(t, r.Remove(users[1].ID))
	assert.Equal(t, []uuid.UUID{users[0].ID, users[2].ID}, memberIDs(r, users[0].ID))
	assert.Equal(t, users[2].ID, r.Advance(users[0].ID))
	assert.Equal(t, uuid.Nil, r.Advance(users[1].ID))
	assert.ErrorIs(t, r.Remove(users[1].ID), ErrNotSeated)

	require.NoError(t, r.Remove(users[0].ID))
	assert.ErrorIs(t, r.Remove(users[2].ID), ErrCapacity)
	assert.Equal(t, 1, r.Len())
}

func TestRingMembersStopsEarly(t *testing.T) {
	r := NewRing()
	users := testUsers(5)
	for _, u := range users {
		_, _ = r.Insert(users[0].ID, u)
	}
	var seen int
	for range r.Members(users[0].ID) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
	assert.Empty(t, memberIDs(r, uuid.New()))
}

func TestDrawTo(t *testing.T) {
	var deck Deck
	deck.Reload(fixedCatalogue(t, 1, 5, 1).ResponseCards(), rand.New(rand.NewSource(1)))
	p := &Player{User: models.User{Username: "p"}}

	require.NoError(t, DrawTo(p, 3, &deck))
	assert.Len(t, p.Hand, 3)
	assert.Equal(t, 2, deck.Len())

	err := DrawTo(p, 6, &deck)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, p.Hand, 5, "cards drawn before running dry are kept")
}

func TestDeck(t *testing.T) {
	cards := fixedCatalogue(t, 1, 10, 1).ResponseCards()
	var deck Deck
	deck.Reload(cards, rand.New(rand.NewSource(7)))
	assert.Equal(t, 10, deck.Len())

	top := deck.Peek(3)
	require.Len(t, top, 3)
	assert.Equal(t, 10, deck.Len(), "peek does not draw")
	assert.Len(t, deck.Peek(50), 10)

	for _, want := range top {
		got, err := deck.Draw()
		require.NoError(t, err)
		assert.Same(t, want, got, "peek is topmost first")
	}

	var drawn []string
	for deck.Len() > 0 {
		c, err := deck.Draw()
		require.NoError(t, err)
		drawn = append(drawn, c.ID)
	}
	assert.Len(t, drawn, 7)
	assert.False(t, slices.ContainsFunc(top, func(c *models.Card) bool { return slices.Contains(drawn, c.ID) }))

	_, err := deck.Draw()
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, deck.Peek(2))
	assert.Len(t, cards, 10, "reload copies its input")
}
