// internal/game/game.go
package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/cache"
	"github.com/yellowcard/yellowcard/internal/catalogue"
	"github.com/yellowcard/yellowcard/internal/models"
)

// Game holds the entire state for a single room's game in memory.
//
// Every exported method takes the game lock, so a Game may be driven from several connections at once.
// Callbacks (BroadcastFn, BroadcastToPlayerFn, OnGameEnd, RecordFn) run while the lock is held and must
// not call back into the same Game.
type Game struct {
	ID        uuid.UUID
	RoomID    string
	StarterID uuid.UUID
	Rules     Rules
	CreatedAt time.Time

	// Rand drives every shuffle and label permutation. Replace it before Start for reproducible games.
	Rand *rand.Rand
	Log  *logrus.Entry

	// BroadcastFn is used to send events to all players. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)
	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
	// OnGameEnd is invoked once when the game reaches PhaseEnd.
	OnGameEnd OnGameEndFunc
	// RecordFn receives every action for the historian. If nil, actions are only logged.
	RecordFn func(rec cache.GameActionRecord)

	mu deadlock.Mutex

	catalogue    *catalogue.Catalogue
	phase        Phase
	open         bool // accepting new seats at all
	asker        uuid.UUID
	ring         *Ring
	demandDeck   Deck
	responseDeck Deck
	round        *Round
	roundAsker   uuid.UUID // asker when the current round opened
	turn         int

	endReason   EndReason
	winners     []uuid.UUID
	actionIndex int
}

// NewGame builds an empty game for a room. Nothing is dealt until Start.
func NewGame(roomID string, cat *catalogue.Catalogue, rules Rules) *Game {
	id, _ := uuid.NewRandom()
	return &Game{
		ID:        id,
		RoomID:    roomID,
		Rules:     rules,
		CreatedAt: time.Now(),
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:       logrus.WithFields(logrus.Fields{"game": id, "room": roomID}),
		catalogue: cat,
		phase:     PhaseStart,
		open:      true,
		ring:      NewRing(),
	}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Asker returns the id of the player whose turn it is.
func (g *Game) Asker() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.asker
}

// Started reports whether Start has succeeded.
func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase > PhaseStart
}

// Ended reports whether the game is over.
func (g *Game) Ended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase == PhaseEnd
}

// PlayerCount returns the number of seated players.
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ring.Len()
}

// Seated reports whether userID has a seat.
func (g *Game) Seated(userID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.ring.Get(userID)
	return ok
}

// Players returns the seated player ids in turn order, starting with the asker.
func (g *Game) Players() []uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []uuid.UUID
	for p := range g.ring.Members(g.asker) {
		ids = append(ids, p.ID)
	}
	return ids
}

// Hand returns a copy of a player's hand.
func (g *Game) Hand(userID uuid.UUID) ([]*models.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.ring.Get(userID)
	if !ok {
		return nil, ErrNotSeated
	}
	return append([]*models.Card(nil), p.Hand...), nil
}

// Threshold returns the penalty size that currently ends the game.
func (g *Game) Threshold() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return EliminationThreshold(g.ring.Len())
}

// Standings returns every seated player's score in turn order, starting with the asker.
func (g *Game) Standings() []Standing {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.standings()
}

// Settlement returns the standings marked winner, middle or last.
func (g *Game) Settlement() []Standing {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settlement()
}

// Winners returns the players tied at the best score once the game has ended.
func (g *Game) Winners() ([]uuid.UUID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseEnd {
		return nil, fmt.Errorf("%w: game is not over", ErrInvalidMove)
	}
	return append([]uuid.UUID(nil), g.winners...), nil
}

// EndReason returns why the game ended, or "" while it is running.
func (g *Game) EndReason() EndReason {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.endReason
}

// Round returns the current round. The caller must not mutate it.
func (g *Game) Round() *Round {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

// SetOpen opens or closes the lobby. A closed lobby refuses every new seat.
func (g *Game) SetOpen(open bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = open
}

// Seat adds a user to the ring, immediately before the asker. Users seated after Start are dealt a full
// hand straight away and take part from the next round on. A late seat that drops the threshold to an
// existing penalty ends the game.
func (g *Game) Seat(user models.User) (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseEnd {
		return nil, ErrGameEnded
	}
	started := g.phase > PhaseStart
	if !g.open || (started && !g.Rules.OpenLobby) {
		return nil, ErrLobbyClosed
	}
	if _, ok := g.ring.Get(user.ID); ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyJoined, user)
	}
	if started && g.responseDeck.Len() < g.Rules.HandSize {
		return nil, fmt.Errorf("%w: cannot deal a hand to %s", ErrExhausted, user)
	}

	p, err := g.ring.Insert(g.asker, user)
	if err != nil {
		return nil, err
	}
	if g.ring.Len() == 1 {
		g.asker = p.ID
	}
	if started {
		// checked above, cannot run dry
		_ = DrawTo(p, g.Rules.HandSize, &g.responseDeck)
		g.sendHand(p)
	}

	g.Log.Infof("Player %s seated (%d seated).", user, g.ring.Len())
	g.fireEvent(GameEvent{Type: EventPlayerSeated, User: eventUser(p)})
	g.logAction(p.ID, string(EventPlayerSeated), map[string]interface{}{"lateJoin": started})

	// a larger table lowers the threshold
	if started && g.thresholdReached() {
		g.endGame(EndThreshold, TriggerEnd)
	}
	return p, nil
}

// Unseat removes a user from the game. While the game is running it refuses to drop below MinPlayers;
// the caller decides whether to end the game instead.
func (g *Game) Unseat(userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == PhaseEnd {
		return ErrGameEnded
	}
	p, ok := g.ring.Get(userID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSeated, userID)
	}
	if g.ring.Len() <= g.Rules.MinPlayers {
		return fmt.Errorf("%w: %d seated, %d required", ErrCapacity, g.ring.Len(), g.Rules.MinPlayers)
	}

	wasAsker := userID == g.asker
	if wasAsker {
		g.asker = p.next
	}

	voided := false
	closeAfter := false
	switch g.phase {
	case PhaseDemand, PhaseResponse, PhaseJudge:
		if userID == g.roundAsker {
			g.round.refund(g.ring)
			voided = true
		} else {
			g.round.forfeit(userID)
		}
	case PhaseDiscard:
		closeAfter = userID == g.round.Loser
	}

	if err := g.ring.Remove(userID); err != nil {
		return err
	}
	g.Log.Infof("Player %s left (%d seated).", p.User, g.ring.Len())
	g.fireEvent(GameEvent{Type: EventPlayerUnseated, User: eventUser(p)})
	g.logAction(userID, string(EventPlayerUnseated), map[string]interface{}{"phase": g.phase.String()})

	if g.phase == PhaseStart {
		return nil
	}
	switch {
	case voided:
		g.voidRound()
	case closeAfter:
		g.closeRound()
	case g.phase < PhaseDiscard && g.round.Active() == 0:
		// only late joiners are left to respond
		g.voidRound()
	case g.phase == PhaseResponse && g.round.Complete():
		g.enterJudge()
	}
	return nil
}

// Start deals the first hands and opens the first round.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseStart {
		return ErrGameStarted
	}
	seated := g.ring.Len()
	if seated < g.Rules.MinPlayers {
		return fmt.Errorf("%w: %d seated, %d required", ErrCapacity, seated, g.Rules.MinPlayers)
	}
	if _, nResponse := g.catalogue.Size(); nResponse < seated*g.Rules.HandSize {
		return fmt.Errorf("%w: %d response cards cannot deal %d hands of %d", ErrExhausted, nResponse, seated, g.Rules.HandSize)
	}
	for _, card := range g.catalogue.DemandCards() {
		if card.Space > g.Rules.HandSize {
			return fmt.Errorf("%w: demand card %s asks for %d cards, hands hold %d", ErrInvalidMove, card.ID, card.Space, g.Rules.HandSize)
		}
	}

	next, err := Transition(g.phase, TriggerStart)
	if err != nil {
		return err
	}

	g.demandDeck.Reload(g.catalogue.DemandCards(), g.Rand)
	g.responseDeck.Reload(g.catalogue.ResponseCards(), g.Rand)
	for p := range g.ring.Members(g.asker) {
		p.Hand = make([]*models.Card, 0, g.Rules.HandSize)
		p.Score = 0
		p.resetDiscard()
		// capacity checked above
		_ = DrawTo(p, g.Rules.HandSize, &g.responseDeck)
	}
	g.phase = next
	g.openRound()

	g.Log.Infof("Game started with %d players, threshold %d.", seated, EliminationThreshold(seated))
	g.fireEvent(GameEvent{Type: EventGameStart, Standings: g.standings()})
	g.logAction(uuid.Nil, string(EventGameStart), map[string]interface{}{"players": seated})
	for p := range g.ring.Members(g.asker) {
		g.sendHand(p)
	}
	g.broadcastTurn()
	return nil
}

// DemandChoices returns the demand cards the asker may pick from.
func (g *Game) DemandChoices(userID uuid.UUID) ([]*models.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseDemand {
		return nil, ErrWrongPhase
	}
	if userID != g.asker {
		return nil, ErrNotYourTurn
	}
	return g.demandDeck.Peek(g.Rules.DemandDraws), nil
}

// Play puts a card on the board. During Demand only the asker may play, and only an offered demand card;
// during Response every other player plays response cards from their hand.
func (g *Game) Play(userID uuid.UUID, cardID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.ring.Get(userID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSeated, userID)
	}
	switch g.phase {
	case PhaseDemand:
		return g.playDemand(p, cardID)
	case PhaseResponse:
		return g.playResponse(p, cardID)
	default:
		return fmt.Errorf("%w: cannot play a card during %s", ErrWrongPhase, g.phase)
	}
}

// playDemand commits the round's demand card and thins the demand deck.
// Assumes lock is held.
func (g *Game) playDemand(p *Player, cardID string) error {
	if p.ID != g.asker {
		return ErrNotYourTurn
	}
	var card *models.Card
	for _, c := range g.demandDeck.Peek(g.Rules.DemandDraws) {
		if c.ID == cardID {
			card = c
			break
		}
	}
	if card == nil {
		return fmt.Errorf("%w: demand card %s is not on offer", ErrInvalidMove, cardID)
	}
	next, err := Transition(g.phase, TriggerDemandPlayed)
	if err != nil {
		return err
	}

	g.round.Demand = card
	for i := 0; i < g.Rules.DemandDraws; i++ {
		if _, err := g.demandDeck.Draw(); err != nil {
			g.Log.Debugf("Demand deck ran out while thinning: %v", err)
			break
		}
	}
	g.phase = next

	g.Log.Infof("Asker %s played demand %s (space %d).", p.User, card.ID, card.Space)
	g.fireEvent(GameEvent{
		Type: EventDemandPlayed,
		User: eventUser(p),
		Card: card,
		Payload: map[string]interface{}{
			"space":          card.Space,
			"demandDeckSize": g.demandDeck.Len(),
		},
	})
	g.logAction(p.ID, string(EventDemandPlayed), map[string]interface{}{"cardId": card.ID, "space": card.Space})
	return nil
}

// playResponse moves one response card from a hand into the player's slot.
// Assumes lock is held.
func (g *Game) playResponse(p *Player, cardID string) error {
	if p.ID == g.asker {
		return fmt.Errorf("%w: the asker does not respond", ErrInvalidMove)
	}
	if err := g.round.canSubmit(p.ID); err != nil {
		return err
	}
	if p.findCard(cardID) < 0 {
		return fmt.Errorf("%w: card %s is not in hand", ErrInvalidMove, cardID)
	}

	card, _ := p.takeCard(cardID)
	g.round.record(p.ID, card)
	submitted := len(g.round.submissions[p.ID])

	g.fireEvent(GameEvent{
		Type: EventResponseSubmitted,
		User: eventUser(p),
		Payload: map[string]interface{}{
			"submitted": submitted,
			"space":     g.round.Space(),
		},
	})
	g.sendHand(p)
	g.logAction(p.ID, string(EventResponseSubmitted), map[string]interface{}{"cardId": card.ID, "submitted": submitted})

	if g.round.Complete() {
		g.enterJudge()
	}
	return nil
}

// enterJudge moves to Judge and reveals the anonymized groups.
// Assumes lock is held.
func (g *Game) enterJudge() {
	next, err := Transition(g.phase, TriggerResponsesComplete)
	if err != nil {
		g.Log.Warnf("Cannot enter judge: %v", err)
		return
	}
	g.phase = next
	g.Log.Infof("All responses in (%d cards), waiting for judgement.", g.round.TotalSubmitted())
	g.fireEvent(GameEvent{
		Type:   EventRoundReveal,
		Card:   g.round.Demand,
		Groups: g.round.Groups(),
		User:   g.askerEventUser(),
	})
	g.logAction(uuid.Nil, string(EventRoundReveal), map[string]interface{}{"groups": len(g.round.participants)})
}

// Judge resolves the asker's pick to a player and charges them the demand's space.
func (g *Game) Judge(userID uuid.UUID, label int) (Judgement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseJudge {
		return Judgement{}, fmt.Errorf("%w: cannot judge during %s", ErrWrongPhase, g.phase)
	}
	if userID != g.asker {
		return Judgement{}, ErrNotYourTurn
	}
	if g.round.Loser != uuid.Nil {
		return Judgement{}, fmt.Errorf("%w: this round is already judged", ErrInvalidMove)
	}
	loserID, err := g.round.Resolve(label)
	if err != nil {
		return Judgement{}, err
	}
	loser, ok := g.ring.Get(loserID)
	if !ok {
		return Judgement{}, fmt.Errorf("%w: label %d", ErrNotFound, label)
	}

	penalty := g.round.Space()
	loser.Score -= penalty
	g.round.Loser = loserID

	j := Judgement{
		Label:   label,
		LoserID: loserID,
		Penalty: penalty,
		Owners:  g.round.Owners(),
	}
	g.Log.Infof("Label %d picked, %s takes %d.", label, loser.User, penalty)
	g.fireEvent(GameEvent{
		Type:      EventRoundJudged,
		User:      eventUser(loser),
		Standings: g.standings(),
		Payload: map[string]interface{}{
			"label":   label,
			"penalty": penalty,
			"owners":  j.Owners,
		},
	})
	g.logAction(userID, string(EventRoundJudged), map[string]interface{}{"label": label, "loser": loserID, "penalty": penalty})

	if g.thresholdReached() {
		g.endGame(EndThreshold, TriggerThresholdReached)
		j.GameOver = true
		return j, nil
	}

	next, err := Transition(g.phase, TriggerJudged)
	if err != nil {
		return j, err
	}
	g.phase = next
	return j, nil
}

// ChooseDiscard records how many cards the round loser wants to swap out. The choice is made once.
func (g *Game) ChooseDiscard(userID uuid.UUID, amount int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chooseDiscard(userID, amount, false)
}

// SkipDiscard is ChooseDiscard with an amount of 0.
func (g *Game) SkipDiscard(userID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.chooseDiscard(userID, 0, true)
}

// Assumes lock is held.
func (g *Game) chooseDiscard(userID uuid.UUID, amount int, skipped bool) error {
	if g.phase != PhaseDiscard {
		return fmt.Errorf("%w: cannot discard during %s", ErrWrongPhase, g.phase)
	}
	if userID != g.round.Loser {
		return ErrNotYourTurn
	}
	p, ok := g.ring.Get(userID)
	if !ok {
		return ErrNotSeated
	}
	if p.discardChosen {
		return fmt.Errorf("%w: already chose to discard %d", ErrInvalidMove, p.DiscardAmount)
	}
	if amount < 0 || amount > g.Rules.MaxDiscard || amount > len(p.Hand) {
		return fmt.Errorf("%w: cannot discard %d cards", ErrInvalidMove, amount)
	}

	p.DiscardAmount = amount
	p.discardChosen = true

	g.fireEvent(GameEvent{
		Type:    EventDiscardChosen,
		User:    eventUser(p),
		Payload: map[string]interface{}{"amount": amount, "skipped": skipped},
	})
	g.logAction(userID, string(EventDiscardChosen), map[string]interface{}{"amount": amount, "skipped": skipped})

	if g.reconciled(p) {
		g.closeRound()
	}
	return nil
}

// Discard throws one card from the loser's hand after they chose an amount.
func (g *Game) Discard(userID uuid.UUID, cardID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDiscard {
		return fmt.Errorf("%w: cannot discard during %s", ErrWrongPhase, g.phase)
	}
	if userID != g.round.Loser {
		return ErrNotYourTurn
	}
	p, ok := g.ring.Get(userID)
	if !ok {
		return ErrNotSeated
	}
	if !p.discardChosen || p.DiscardAmount == 0 {
		return fmt.Errorf("%w: no discard pending", ErrInvalidMove)
	}
	if len(p.Hand) <= g.expectedHandAfterDiscard(p) {
		return fmt.Errorf("%w: already discarded %d", ErrInvalidMove, p.DiscardAmount)
	}
	card, ok := p.takeCard(cardID)
	if !ok {
		return fmt.Errorf("%w: card %s is not in hand", ErrInvalidMove, cardID)
	}

	g.fireEvent(GameEvent{
		Type:    EventCardDiscarded,
		User:    eventUser(p),
		Payload: map[string]interface{}{"remaining": len(p.Hand) - g.expectedHandAfterDiscard(p)},
	})
	g.sendHand(p)
	g.logAction(userID, string(EventCardDiscarded), map[string]interface{}{"cardId": card.ID})

	if g.reconciled(p) {
		g.closeRound()
	}
	return nil
}

// expectedHandAfterDiscard is the hand size the loser must reach before the round can close.
// Assumes lock is held.
func (g *Game) expectedHandAfterDiscard(p *Player) int {
	return g.Rules.HandSize - g.round.Space() - p.DiscardAmount
}

// reconciled reports whether the loser's hand is ready for the next deal.
// Assumes lock is held.
func (g *Game) reconciled(p *Player) bool {
	return p.discardChosen && len(p.Hand) == g.expectedHandAfterDiscard(p)
}

// closeRound advances the turn, refills every hand and opens the next round.
// Assumes lock is held.
func (g *Game) closeRound() {
	if _, ok := g.ring.Get(g.roundAsker); ok {
		g.asker = g.ring.Advance(g.roundAsker)
	}
	if loser, ok := g.ring.Get(g.round.Loser); ok {
		loser.resetDiscard()
	}

	for p := range g.ring.Members(g.asker) {
		if err := DrawTo(p, g.Rules.HandSize, &g.responseDeck); err != nil {
			g.Log.Warnf("Response deck exhausted while refilling: %v", err)
			g.endGame(EndResponseExhausted, TriggerEnd)
			return
		}
	}
	if g.demandDeck.Len() == 0 {
		g.endGame(EndDemandExhausted, TriggerEnd)
		return
	}

	next, err := Transition(g.phase, TriggerRoundClosed)
	if err != nil {
		g.Log.Warnf("Cannot close round: %v", err)
		return
	}
	g.phase = next
	g.turn++
	g.openRound()

	for p := range g.ring.Members(g.asker) {
		g.sendHand(p)
	}
	g.broadcastTurn()
}

// voidRound restarts the round with the current asker after the previous asker left.
// Assumes lock is held.
func (g *Game) voidRound() {
	next, err := Transition(g.phase, TriggerRoundVoided)
	if err != nil {
		g.Log.Warnf("Cannot void round: %v", err)
		return
	}
	if g.demandDeck.Len() == 0 {
		g.endGame(EndDemandExhausted, TriggerEnd)
		return
	}
	g.phase = next
	g.turn++
	g.openRound()

	g.fireEvent(GameEvent{Type: EventRoundVoided, User: g.askerEventUser()})
	g.logAction(uuid.Nil, string(EventRoundVoided), nil)
	for p := range g.ring.Members(g.asker) {
		g.sendHand(p)
	}
	g.broadcastTurn()
}

// openRound snapshots the participants and draws a fresh label permutation.
// Assumes lock is held.
func (g *Game) openRound() {
	participants := make([]uuid.UUID, 0, g.ring.Len()-1)
	for p := range g.ring.Members(g.asker) {
		if p.ID != g.asker {
			participants = append(participants, p.ID)
		}
	}
	g.round = newRound(participants, g.Rand)
	g.roundAsker = g.asker
}

// broadcastTurn announces the asker and privately offers the demand choices.
// Assumes lock is held.
func (g *Game) broadcastTurn() {
	g.fireEvent(GameEvent{
		Type:      EventGameTurn,
		User:      g.askerEventUser(),
		Standings: g.standings(),
		Payload: map[string]interface{}{
			"turn":      g.turn,
			"threshold": EliminationThreshold(g.ring.Len()),
		},
	})
	g.logAction(g.asker, string(EventGameTurn), map[string]interface{}{"turn": g.turn})
	g.sendDemandChoices()
}

// Abort ends the game early, e.g. when an admin kills the room or too few players remain.
func (g *Game) Abort() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseEnd {
		return ErrGameEnded
	}
	g.endGame(EndAborted, TriggerEnd)
	return nil
}

// endGame computes winners and fires the end notifications.
// Assumes lock is held.
func (g *Game) endGame(reason EndReason, t Trigger) {
	next, err := Transition(g.phase, t)
	if err != nil {
		g.Log.Warnf("Cannot end game: %v", err)
		return
	}
	g.phase = next
	g.endReason = reason

	scores := make(map[uuid.UUID]int, g.ring.Len())
	best := 0
	first := true
	for p := range g.ring.Members(g.asker) {
		scores[p.ID] = p.Score
		if first || p.Score > best {
			best = p.Score
			first = false
		}
	}
	g.winners = g.winners[:0]
	for p := range g.ring.Members(g.asker) {
		if p.Score == best {
			g.winners = append(g.winners, p.ID)
		}
	}

	g.Log.Infof("Game ended (%s). Winner(s): %v", reason, g.winners)
	g.fireEvent(GameEvent{
		Type:      EventGameEnd,
		Standings: g.settlement(),
		Payload: map[string]interface{}{
			"reason":  reason,
			"winners": g.winners,
		},
	})
	g.logAction(uuid.Nil, string(EventGameEnd), map[string]interface{}{"reason": reason, "winners": g.winners, "scores": scores})

	if g.OnGameEnd != nil {
		g.OnGameEnd(g.ID, reason, append([]uuid.UUID(nil), g.winners...), scores)
	}
}

// thresholdReached reports whether any player's penalty meets the current threshold.
// Assumes lock is held.
func (g *Game) thresholdReached() bool {
	limit := EliminationThreshold(g.ring.Len())
	for p := range g.ring.Members(g.asker) {
		if -p.Score >= limit {
			return true
		}
	}
	return false
}

// standings builds the score table in turn order.
// Assumes lock is held.
func (g *Game) standings() []Standing {
	rows := make([]Standing, 0, g.ring.Len())
	for p := range g.ring.Members(g.asker) {
		rows = append(rows, Standing{
			PlayerID: p.ID,
			Username: p.User.Username,
			Score:    p.Score,
			Penalty:  -p.Score,
			HandSize: len(p.Hand),
			Asker:    p.ID == g.asker,
		})
	}
	return rows
}

// settlement is the final table: the best score is marked winner, the worst last, everyone else middle.
// Assumes lock is held.
func (g *Game) settlement() []Standing {
	rows := g.standings()
	if len(rows) == 0 {
		return rows
	}
	highest, lowest := rows[0].Score, rows[0].Score
	for _, r := range rows {
		highest = max(highest, r.Score)
		lowest = min(lowest, r.Score)
	}
	for i := range rows {
		switch rows[i].Score {
		case highest:
			rows[i].Mark = "winner"
		case lowest:
			rows[i].Mark = "last"
		default:
			rows[i].Mark = "middle"
		}
	}
	return rows
}

// askerEventUser describes the asker for an event.
// Assumes lock is held.
func (g *Game) askerEventUser() *EventUser {
	if p, ok := g.ring.Get(g.asker); ok {
		return eventUser(p)
	}
	return nil
}

// logAction sends the action details to the historian via RecordFn.
// Assumes lock is held.
func (g *Game) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	g.Log.WithFields(logrus.Fields{"action": actionType, "index": g.actionIndex}).Debug("game action")
	if g.RecordFn == nil {
		return
	}
	g.RecordFn(cache.GameActionRecord{
		GameID:        g.ID,
		RoomID:        g.RoomID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	})
}
