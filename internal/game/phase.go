// internal/game/phase.go
package game

import "fmt"

// Phase is where a game is in its round cycle.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseDemand
	PhaseResponse
	PhaseJudge
	PhaseDiscard
	PhaseEnd
)

var phaseNames = [...]string{
	PhaseStart:    "start",
	PhaseDemand:   "demand",
	PhaseResponse: "response",
	PhaseJudge:    "judge",
	PhaseDiscard:  "discard",
	PhaseEnd:      "end",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText lets phases show up by name in JSON events.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText reads a phase back from its name.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Trigger is something that happened which may move the phase.
type Trigger int

const (
	TriggerStart             Trigger = iota // enough players, hands dealt
	TriggerDemandPlayed                     // asker committed a demand card
	TriggerResponsesComplete                // every participant filled their slot
	TriggerJudged                           // a loser was picked and nobody crossed the threshold
	TriggerThresholdReached                 // a loser was picked and someone crossed the threshold
	TriggerRoundClosed                      // discard reconciled and turn advanced
	TriggerRoundVoided                      // the asker left mid-round
	TriggerEnd                              // abort, or a deck ran out
)

var triggerNames = [...]string{
	TriggerStart:             "start",
	TriggerDemandPlayed:      "demand_played",
	TriggerResponsesComplete: "responses_complete",
	TriggerJudged:            "judged",
	TriggerThresholdReached:  "threshold_reached",
	TriggerRoundClosed:       "round_closed",
	TriggerRoundVoided:       "round_voided",
	TriggerEnd:               "end",
}

func (t Trigger) String() string {
	if t < 0 || int(t) >= len(triggerNames) {
		return fmt.Sprintf("trigger(%d)", int(t))
	}
	return triggerNames[t]
}

// transitions is the whole phase graph. Anything missing from it is rejected.
var transitions = map[Phase]map[Trigger]Phase{
	PhaseStart: {
		TriggerStart: PhaseDemand,
		TriggerEnd:   PhaseEnd,
	},
	PhaseDemand: {
		TriggerDemandPlayed: PhaseResponse,
		TriggerRoundVoided:  PhaseDemand,
		TriggerEnd:          PhaseEnd,
	},
	PhaseResponse: {
		TriggerResponsesComplete: PhaseJudge,
		TriggerRoundVoided:       PhaseDemand,
		TriggerEnd:               PhaseEnd,
	},
	PhaseJudge: {
		TriggerJudged:           PhaseDiscard,
		TriggerThresholdReached: PhaseEnd,
		TriggerRoundVoided:      PhaseDemand,
		TriggerEnd:              PhaseEnd,
	},
	PhaseDiscard: {
		TriggerRoundClosed: PhaseDemand,
		TriggerEnd:         PhaseEnd,
	},
	PhaseEnd: {},
}

// Transition returns the phase that follows from on t.
func Transition(from Phase, t Trigger) (Phase, error) {
	next, ok := transitions[from][t]
	if !ok {
		return from, fmt.Errorf("%w: no transition from %s on %s", ErrInvalidMove, from, t)
	}
	return next, nil
}
