package main

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/yellowcard/yellowcard/internal/game"
)

// getRoundPanel shows the demand, the anonymized groups and who took the penalty.
func getRoundPanel(round int, sum roundSummary) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var b strings.Builder
	b.WriteString(pterm.Sprintfln("%s asks %s (space %d)", pterm.LightCyan(sum.Asker), sum.Demand.ID, sum.Demand.Space))
	for _, grp := range sum.Groups {
		ids := make([]string, 0, len(grp.Cards))
		for _, c := range grp.Cards {
			ids = append(ids, c.ID)
		}
		line := pterm.Sprintf("  [%d] %s", grp.Label, strings.Join(ids, " "))
		if grp.Label == sum.Label {
			line = pterm.LightRed(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(pterm.Sprintfln("%s takes %d", pterm.LightRed(sum.Loser), sum.Penalty))
	if sum.Discard > 0 {
		b.WriteString(pterm.Sprintfln("%s swaps %d", sum.Loser, sum.Discard))
	}
	title := pterm.LightYellow(pterm.Sprintf("|ROUND %d|", round))
	return pterm.Panel{Data: pbox.WithTitle(title).WithTitleTopCenter().Sprint(b.String())}
}

// getStandingsPanel renders the score table.
func getStandingsPanel(title string, rows []game.Standing) pterm.Panel {
	data := pterm.TableData{{"Player", "Score", "Hand", ""}}
	for _, r := range rows {
		tag := r.Mark
		if r.Asker && tag == "" {
			tag = "asker"
		}
		data = append(data, []string{r.Username, pterm.Sprint(r.Score), pterm.Sprint(r.HandSize), tag})
	}
	table, _ := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	pbox := pterm.DefaultBox.WithHorizontalPadding(2)
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen(title)).WithTitleTopCenter().Sprint(table)}
}

func printRound(round int, sum roundSummary, rows []game.Standing) {
	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{getRoundPanel(round, sum), getStandingsPanel("|STANDINGS|", rows)},
	}).Render()
}

func printSettlement(g *game.Game, winners []uuid.UUID) {
	names := make([]string, 0, len(winners))
	for _, id := range winners {
		names = append(names, username(g, id))
	}
	pterm.DefaultSection.Printfln("Game over: %s", g.EndReason())
	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{getStandingsPanel("|SETTLEMENT|", g.Settlement())},
	}).Render()
	pterm.Success.Printfln("Winner(s): %s", strings.Join(names, ", "))
}
