// Package catalogue holds the two fixed card pools every game draws from.
//
// A Catalogue is built once by the composition root (from a JSON file or synthetically) and handed to
// every game by reference. Nothing mutates it after construction, so it is safe to share between rooms.
package catalogue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/yellowcard/yellowcard/internal/models"
)

var (
	ErrEmptyPool    = errors.New("catalogue: card pool is empty")
	ErrDuplicateID  = errors.New("catalogue: duplicate card id")
	ErrInvalidSpace = errors.New("catalogue: demand card space must be >= 1")
	ErrCardNotFound = errors.New("catalogue: card not found")
)

// Catalogue is the read-only set of demand and response cards.
type Catalogue struct {
	demand   []*models.Card
	response []*models.Card
	byID     map[string]*models.Card
}

// fileCard is one entry of the catalogue file.
type fileCard struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Space  int    `json:"space,omitempty"`
}

type fileLayout struct {
	Demand   []fileCard `json:"demand"`
	Response []fileCard `json:"response"`
}

// New validates the pools and builds a Catalogue. Colors are forced to match the pool a card is in.
func New(demand, response []*models.Card) (*Catalogue, error) {
	if len(demand) == 0 || len(response) == 0 {
		return nil, ErrEmptyPool
	}
	c := &Catalogue{
		demand:   make([]*models.Card, 0, len(demand)),
		response: make([]*models.Card, 0, len(response)),
		byID:     make(map[string]*models.Card, len(demand)+len(response)),
	}
	for _, card := range demand {
		if card.Space < 1 {
			return nil, fmt.Errorf("%w: %s has space %d", ErrInvalidSpace, card.ID, card.Space)
		}
		cp := *card
		cp.Color = models.ColorDemand
		if err := c.add(&cp); err != nil {
			return nil, err
		}
		c.demand = append(c.demand, &cp)
	}
	for _, card := range response {
		cp := *card
		cp.Color = models.ColorResponse
		cp.Space = 0
		if err := c.add(&cp); err != nil {
			return nil, err
		}
		c.response = append(c.response, &cp)
	}
	return c, nil
}

func (c *Catalogue) add(card *models.Card) error {
	if card.ID == "" {
		return fmt.Errorf("catalogue: %s card with empty id", card.Color)
	}
	if _, dup := c.byID[card.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, card.ID)
	}
	c.byID[card.ID] = card
	return nil
}

// Load reads a catalogue file of the form
//
//	{"demand": [{"id": "...", "handle": "...", "space": 2}], "response": [{"id": "...", "handle": "..."}]}
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue file: %w", err)
	}
	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue file %s: %w", path, err)
	}

	demand := make([]*models.Card, 0, len(layout.Demand))
	for _, fc := range layout.Demand {
		space := fc.Space
		if space == 0 {
			space = 1
		}
		demand = append(demand, &models.Card{ID: fc.ID, Handle: fc.Handle, Space: space})
	}
	response := make([]*models.Card, 0, len(layout.Response))
	for _, fc := range layout.Response {
		response = append(response, &models.Card{ID: fc.ID, Handle: fc.Handle})
	}
	return New(demand, response)
}

// Synthetic builds a catalogue of numbered cards. Demand spaces cycle through 1..maxSpace.
// Used by the simulator, tests, and servers started without a catalogue file.
func Synthetic(demandCount, responseCount, maxSpace int) *Catalogue {
	if maxSpace < 1 {
		maxSpace = 1
	}
	demand := make([]*models.Card, demandCount)
	for i := range demand {
		demand[i] = &models.Card{ID: fmt.Sprintf("d%03d", i+1), Space: i%maxSpace + 1}
	}
	response := make([]*models.Card, responseCount)
	for i := range response {
		response[i] = &models.Card{ID: fmt.Sprintf("r%03d", i+1)}
	}
	c, err := New(demand, response)
	if err != nil {
		// ids are generated unique and spaces >= 1, so only empty pools get here
		panic(err)
	}
	return c
}

// DemandCards returns a copy of the demand pool, ready to be shuffled into a deck.
func (c *Catalogue) DemandCards() []*models.Card {
	out := make([]*models.Card, len(c.demand))
	copy(out, c.demand)
	return out
}

// ResponseCards returns a copy of the response pool.
func (c *Catalogue) ResponseCards() []*models.Card {
	out := make([]*models.Card, len(c.response))
	copy(out, c.response)
	return out
}

// Lookup resolves a card id in O(1).
func (c *Catalogue) Lookup(id string) (*models.Card, error) {
	card, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return card, nil
}

// Size returns the number of demand and response cards.
func (c *Catalogue) Size() (demand, response int) {
	return len(c.demand), len(c.response)
}
