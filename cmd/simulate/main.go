// cmd/simulate plays a whole game between random bots and prints the table.
package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/yellowcard/yellowcard/internal/catalogue"
	"github.com/yellowcard/yellowcard/internal/game"
	"github.com/yellowcard/yellowcard/internal/models"
)

var CLI struct {
	Players   int    `help:"Number of bots." default:"4"`
	Seed      int64  `help:"Random seed; 0 picks one from the clock."`
	Catalogue string `help:"Catalogue JSON file. Empty uses a synthetic deck." type:"existingfile"`
	MaxSpace  int    `help:"Largest demand space in the synthetic deck." default:"3"`
	MaxRounds int    `help:"Stop after this many rounds." default:"500"`
	Verbose   bool   `help:"Print every round." short:"v"`
	Debug     bool   `help:"Whether to enable debug logging."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("simulate"),
		kong.Description("play a game between random bots"),
		kong.UsageOnError())

	logrus.SetLevel(logrus.WarnLevel)
	if CLI.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if err := run(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	seed := CLI.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	cat := catalogue.Synthetic(200, 800, CLI.MaxSpace)
	if CLI.Catalogue != "" {
		var err error
		if cat, err = catalogue.Load(CLI.Catalogue); err != nil {
			return err
		}
	}

	g := game.NewGame("simulation", cat, game.DefaultRules())
	g.Rand = rand.New(rand.NewSource(seed + 1))
	for i := 0; i < CLI.Players; i++ {
		user := models.User{ID: uuid.New(), Username: fmt.Sprintf("bot-%d", i+1)}
		if _, err := g.Seat(user); err != nil {
			return err
		}
	}
	if err := g.Start(); err != nil {
		return err
	}
	pterm.DefaultHeader.WithFullWidth().Printfln("%d bots, seed %d, threshold %d", CLI.Players, seed, g.Threshold())

	for round := 1; !g.Ended(); round++ {
		if round > CLI.MaxRounds {
			pterm.Warning.Printfln("stopping after %d rounds", CLI.MaxRounds)
			if err := g.Abort(); err != nil {
				return err
			}
			break
		}
		summary, err := playRound(g, rng)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		if CLI.Verbose {
			printRound(round, summary, g.Standings())
		}
	}

	winners, err := g.Winners()
	if err != nil {
		return err
	}
	printSettlement(g, winners)
	return nil
}

// roundSummary is what a round looked like from the table.
type roundSummary struct {
	Asker   string
	Demand  *models.Card
	Groups  []game.Group
	Label   int
	Loser   string
	Penalty int
	Discard int
}

// playRound drives one full round with random choices.
func playRound(g *game.Game, rng *rand.Rand) (roundSummary, error) {
	var sum roundSummary
	asker := g.Asker()
	sum.Asker = username(g, asker)

	choices, err := g.DemandChoices(asker)
	if err != nil {
		return sum, err
	}
	if len(choices) == 0 {
		return sum, errors.New("no demand choices")
	}
	sum.Demand = choices[rng.Intn(len(choices))]
	if err := g.Play(asker, sum.Demand.ID); err != nil {
		return sum, err
	}

	for _, id := range g.Players() {
		if id == asker || g.Phase() != game.PhaseResponse {
			continue
		}
		hand, err := g.Hand(id)
		if err != nil {
			return sum, err
		}
		rng.Shuffle(len(hand), func(i, j int) { hand[i], hand[j] = hand[j], hand[i] })
		for _, card := range hand[:sum.Demand.Space] {
			if err := g.Play(id, card.ID); err != nil {
				return sum, err
			}
		}
	}

	view := g.View(asker)
	sum.Groups = view.Groups
	sum.Label = sum.Groups[rng.Intn(len(sum.Groups))].Label
	j, err := g.Judge(asker, sum.Label)
	if err != nil {
		return sum, err
	}
	sum.Loser = username(g, j.LoserID)
	sum.Penalty = j.Penalty
	if j.GameOver {
		return sum, nil
	}

	sum.Discard = rng.Intn(g.Rules.MaxDiscard + 1)
	if sum.Discard == 0 {
		return sum, g.SkipDiscard(j.LoserID)
	}
	if err := g.ChooseDiscard(j.LoserID, sum.Discard); err != nil {
		return sum, err
	}
	hand, err := g.Hand(j.LoserID)
	if err != nil {
		return sum, err
	}
	for _, card := range hand[:sum.Discard] {
		if err := g.Discard(j.LoserID, card.ID); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func username(g *game.Game, id uuid.UUID) string {
	for _, s := range g.Standings() {
		if s.PlayerID == id {
			return s.Username
		}
	}
	return id.String()
}
