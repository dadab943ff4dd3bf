// internal/game/round.go
package game

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/google/uuid"
	"github.com/yellowcard/yellowcard/internal/models"
)

// Round is the state of a single demand/response/judge cycle.
//
// Participants are the non-asker players seated when the round opened, in turn order. Each participant
// gets a public label from a permutation of 1..N that is drawn fresh every round; labels[i] belongs to
// participants[i].
type Round struct {
	Demand *models.Card
	Loser  uuid.UUID

	participants []uuid.UUID
	labels       []int
	submissions  map[uuid.UUID][]*models.Card
	departed     map[uuid.UUID]bool
}

// Group is one anonymized submission as shown to the asker.
type Group struct {
	Label int            `json:"label"`
	Cards []*models.Card `json:"cards"`
}

// LabelOwner ties a label back to its player once the round is judged.
type LabelOwner struct {
	Label    int       `json:"label"`
	PlayerID uuid.UUID `json:"playerId"`
}

func newRound(participants []uuid.UUID, r *rand.Rand) *Round {
	rd := &Round{
		participants: participants,
		labels:       make([]int, len(participants)),
		submissions:  make(map[uuid.UUID][]*models.Card, len(participants)),
		departed:     make(map[uuid.UUID]bool),
	}
	for i, id := range participants {
		rd.labels[i] = i + 1
		rd.submissions[id] = []*models.Card{}
	}
	r.Shuffle(len(rd.labels), func(i, j int) {
		rd.labels[i], rd.labels[j] = rd.labels[j], rd.labels[i]
	})
	return rd
}

// Space is the number of response cards each participant owes, or 0 before the demand is played.
func (rd *Round) Space() int {
	if rd.Demand == nil {
		return 0
	}
	return rd.Demand.Space
}

// Participates reports whether id was seated, and not the asker, when the round opened.
func (rd *Round) Participates(id uuid.UUID) bool {
	_, ok := rd.submissions[id]
	return ok
}

// canSubmit checks that id may add one more card to its slot.
func (rd *Round) canSubmit(id uuid.UUID) error {
	if rd.Demand == nil {
		return fmt.Errorf("%w: no demand card on the board", ErrWrongPhase)
	}
	slot, ok := rd.submissions[id]
	if !ok || rd.departed[id] {
		return fmt.Errorf("%w: player %s is not part of this round", ErrInvalidMove, id)
	}
	if len(slot) >= rd.Demand.Space {
		return ErrTooManyCards
	}
	return nil
}

func (rd *Round) record(id uuid.UUID, card *models.Card) {
	rd.submissions[id] = append(rd.submissions[id], card)
}

// Submitted returns the cards id has put in so far.
func (rd *Round) Submitted(id uuid.UUID) []*models.Card {
	return slices.Clone(rd.submissions[id])
}

// Complete reports whether every remaining participant has filled their slot.
func (rd *Round) Complete() bool {
	if rd.Demand == nil {
		return false
	}
	for _, id := range rd.participants {
		if rd.departed[id] {
			continue
		}
		if len(rd.submissions[id]) != rd.Demand.Space {
			return false
		}
	}
	return true
}

// Active counts the participants still seated.
func (rd *Round) Active() int {
	return len(rd.participants) - len(rd.departed)
}

// TotalSubmitted counts every card on the board.
func (rd *Round) TotalSubmitted() int {
	n := 0
	for _, cards := range rd.submissions {
		n += len(cards)
	}
	return n
}

// Label returns the public label of id, or 0 if id is not a participant.
func (rd *Round) Label(id uuid.UUID) int {
	idx := slices.Index(rd.participants, id)
	if idx < 0 {
		return 0
	}
	return rd.labels[idx]
}

// Groups returns the submissions ordered by label. Players who left the round are not shown.
func (rd *Round) Groups() []Group {
	groups := make([]Group, 0, len(rd.participants))
	for i, id := range rd.participants {
		if rd.departed[id] {
			continue
		}
		groups = append(groups, Group{Label: rd.labels[i], Cards: slices.Clone(rd.submissions[id])})
	}
	slices.SortFunc(groups, func(a, b Group) int { return a.Label - b.Label })
	return groups
}

// Owners reveals which player is behind each label, ordered by label.
func (rd *Round) Owners() []LabelOwner {
	owners := make([]LabelOwner, 0, len(rd.participants))
	for i, id := range rd.participants {
		owners = append(owners, LabelOwner{Label: rd.labels[i], PlayerID: id})
	}
	slices.SortFunc(owners, func(a, b LabelOwner) int { return a.Label - b.Label })
	return owners
}

// Resolve maps a public label back to the player who owns it. Labels outside 1..N, and labels whose
// owner has since left, fail with ErrNotFound.
func (rd *Round) Resolve(label int) (uuid.UUID, error) {
	idx := slices.Index(rd.labels, label)
	if idx < 0 {
		return uuid.Nil, fmt.Errorf("%w: label %d", ErrNotFound, label)
	}
	id := rd.participants[idx]
	if rd.departed[id] {
		return uuid.Nil, fmt.Errorf("%w: label %d belongs to a player who left", ErrNotFound, label)
	}
	return id, nil
}

// forfeit drops id from the round. Its slot no longer gates completion and its label stops resolving.
func (rd *Round) forfeit(id uuid.UUID) {
	if rd.Participates(id) {
		rd.departed[id] = true
	}
}

// refund hands every submitted card back to its owner's hand. Used when a round is voided.
func (rd *Round) refund(ring *Ring) {
	for id, cards := range rd.submissions {
		if p, ok := ring.Get(id); ok && len(cards) > 0 {
			p.Hand = append(p.Hand, cards...)
		}
		rd.submissions[id] = []*models.Card{}
	}
}
