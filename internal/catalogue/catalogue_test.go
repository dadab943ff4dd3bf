package catalogue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yellowcard/yellowcard/internal/models"
)

func TestNewForcesColors(t *testing.T) {
	c, err := New(
		[]*models.Card{{ID: "p1", Space: 2, Color: models.ColorResponse}},
		[]*models.Card{{ID: "y1", Space: 3}},
	)
	require.NoError(t, err)

	d, err := c.Lookup("p1")
	require.NoError(t, err)
	assert.Equal(t, models.ColorDemand, d.Color)
	assert.Equal(t, 2, d.Space)

	r, err := c.Lookup("y1")
	require.NoError(t, err)
	assert.Equal(t, models.ColorResponse, r.Color)
	assert.Zero(t, r.Space, "response cards carry no space")
}

func TestNewRejectsBadPools(t *testing.T) {
	_, err := New(nil, []*models.Card{{ID: "y1"}})
	assert.ErrorIs(t, err, ErrEmptyPool)

	_, err = New([]*models.Card{{ID: "p1", Space: 0}}, []*models.Card{{ID: "y1"}})
	assert.ErrorIs(t, err, ErrInvalidSpace)

	_, err = New([]*models.Card{{ID: "x", Space: 1}}, []*models.Card{{ID: "x"}})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	body := `{
		"demand": [{"id": "1001", "handle": "stk-a", "space": 2}, {"id": "1002", "handle": "stk-b"}],
		"response": [{"id": "2001", "handle": "stk-c"}, {"id": "2002", "handle": "stk-d"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	nd, nr := c.Size()
	assert.Equal(t, 2, nd)
	assert.Equal(t, 2, nr)

	card, err := c.Lookup("1002")
	require.NoError(t, err)
	assert.Equal(t, 1, card.Space, "missing space defaults to 1")
	assert.Equal(t, "stk-b", card.Handle)

	_, err = c.Lookup("nope")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestPoolsAreCopies(t *testing.T) {
	c := Synthetic(4, 10, 3)
	pool := c.ResponseCards()
	pool[0] = nil

	again := c.ResponseCards()
	assert.NotNil(t, again[0])
	assert.Len(t, again, 10)

	for i, card := range c.DemandCards() {
		assert.Equal(t, i%3+1, card.Space)
	}
}
