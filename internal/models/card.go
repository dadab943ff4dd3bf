// internal/models/card.go
package models

import "fmt"

// Color distinguishes the two card pools.
type Color string

const (
	// ColorDemand cards are played by the asker and carry a Space count.
	ColorDemand Color = "demand"
	// ColorResponse cards make up every player's hand.
	ColorResponse Color = "response"
)

// Card is an immutable value shared by pointer across decks, hands and rounds.
// Two cards are the same card when their IDs match.
type Card struct {
	ID     string `json:"id"`
	Color  Color  `json:"color"`
	Space  int    `json:"space,omitempty"`  // demand cards only, always >= 1
	Handle string `json:"handle,omitempty"` // transport-specific display handle (sticker file id, image url, ...)
}

// Equal reports whether c and o are the same card.
func (c *Card) Equal(o *Card) bool {
	return c != nil && o != nil && c.ID == o.ID
}

// IsDemand reports whether c belongs to the demand pool.
func (c *Card) IsDemand() bool {
	return c.Color == ColorDemand
}

func (c *Card) String() string {
	if c.IsDemand() {
		return fmt.Sprintf("%s[%s x%d]", c.Color, c.ID, c.Space)
	}
	return fmt.Sprintf("%s[%s]", c.Color, c.ID)
}
