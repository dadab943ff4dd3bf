// internal/game/rules.go
package game

import "fmt"

// Rules are the per-room settings a game is created with.
type Rules struct {
	MinPlayers  int  `json:"minPlayers"`  // players needed to start, and to keep a running game alive
	HandSize    int  `json:"handSize"`    // every hand is topped up to this at the start of each round
	DemandDraws int  `json:"demandDraws"` // demand cards offered to the asker, all of which are thrown away after the play
	MaxDiscard  int  `json:"maxDiscard"`  // most cards a round loser may swap out
	OpenLobby   bool `json:"openLobby"`   // allow seating after the game has started
}

// Upper bounds on house rules a room may ask for.
const (
	MaxPlayers     = 64
	MaxHandSize    = 1000
	MaxDemandDraws = 16
)

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		MinPlayers:  2,
		HandSize:    13,
		DemandDraws: 2,
		MaxDiscard:  2,
		OpenLobby:   true,
	}
}

// EliminationThreshold is the penalty size at which a game with `seated` players ends.
func EliminationThreshold(seated int) int {
	switch {
	case seated <= 5:
		return 6
	case seated <= 7:
		return 5
	default:
		return 4
	}
}

// Validate checks that the rules can drive a game.
func (rules Rules) Validate() error {
	if rules.MinPlayers < 2 || rules.MinPlayers > MaxPlayers {
		return fmt.Errorf("minPlayers must be between 2 and %d", MaxPlayers)
	}
	if rules.HandSize < 1 || rules.HandSize > MaxHandSize {
		return fmt.Errorf("handSize must be between 1 and %d", MaxHandSize)
	}
	if rules.DemandDraws < 1 || rules.DemandDraws > MaxDemandDraws {
		return fmt.Errorf("demandDraws must be between 1 and %d", MaxDemandDraws)
	}
	if rules.MaxDiscard < 0 || rules.MaxDiscard >= rules.HandSize {
		return fmt.Errorf("maxDiscard must be between 0 and handSize-1")
	}
	return nil
}

// Update will update the rules with the values provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
func (rules *Rules) Update(newRules map[string]interface{}) error {
	var ok bool

	assignBool := func(field *bool, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			*field, ok = val.(bool)
			if !ok {
				return fmt.Errorf("invalid type for %s", key)
			}
		}
		return nil
	}

	assignInt := func(field *int, key string) error {
		if val, exists := newRules[key]; exists && val != nil {
			// JSON numbers decode as float64
			switch v := val.(type) {
			case float64:
				if v != float64(int(v)) {
					return fmt.Errorf("%s must be a whole number", key)
				}
				*field = int(v)
			case int:
				*field = v
			default:
				return fmt.Errorf("invalid type for %s", key)
			}
		}
		return nil
	}

	if err := assignInt(&rules.MinPlayers, "minPlayers"); err != nil {
		return err
	}
	if err := assignInt(&rules.HandSize, "handSize"); err != nil {
		return err
	}
	if err := assignInt(&rules.DemandDraws, "demandDraws"); err != nil {
		return err
	}
	if err := assignInt(&rules.MaxDiscard, "maxDiscard"); err != nil {
		return err
	}
	if err := assignBool(&rules.OpenLobby, "openLobby"); err != nil {
		return err
	}
	return rules.Validate()
}

// ParseRules applies a map of overrides on top of current. current is left untouched on error.
func ParseRules(overrides map[string]interface{}, current Rules) (Rules, error) {
	rules := current
	err := rules.Update(overrides)
	return rules, err
}
