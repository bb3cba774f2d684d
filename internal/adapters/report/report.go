// Package report renders run tables as plain text.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/types"
)

const rule = "--------------------------------------------------"

// Meta is printed in the report header.
type Meta struct {
	Source    string
	Generated time.Time
}

// Summary writes the standings table.
func Summary(w io.Writer, t types.Tables) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTEAM\tTOTAL\tADV\tBONUS\tPLACEMENT\tWRESTLERS")
	for _, team := range t.Teams {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			team.Rank, team.Owner,
			pts(team.Total),
			pts(team.ChampAdvancement+team.ConsAdvancement+team.PlaceAdvancement),
			pts(team.ChampBonus+team.ConsBonus+team.PlaceBonus),
			pts(team.PlacementPoints),
			team.Wrestlers,
		)
	}
	return tw.Flush()
}

// Detailed writes standings, each team's wrestlers, analytics and diagnostics.
func Detailed(w io.Writer, t types.Tables, diags []model.Diagnostic, meta Meta) error {
	var b strings.Builder
	b.WriteString("NCAA WRESTLING TOURNAMENT DRAFT RESULTS\n")
	if !meta.Generated.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", meta.Generated.Format("2006-01-02 15:04:05"))
	}
	if meta.Source != "" {
		fmt.Fprintf(&b, "Source File: %s\n", meta.Source)
	}
	b.WriteString(strings.Repeat("=", len(rule)) + "\n\n")

	b.WriteString("TEAM STANDINGS\n" + rule + "\n")
	for _, team := range t.Teams {
		fmt.Fprintf(&b, "%d. %s - %s points\n", team.Rank, team.Owner, pts(team.Total))
		fmt.Fprintf(&b, "   Advancement: %s (%s)\n",
			pts(team.ChampAdvancement+team.ConsAdvancement+team.PlaceAdvancement),
			advSplit(team.ChampAdvancement, team.ConsAdvancement, team.PlaceAdvancement))
		fmt.Fprintf(&b, "   Bonus: %s (Champ: %s, Cons: %s, Place: %s)\n",
			pts(team.ChampBonus+team.ConsBonus+team.PlaceBonus), pts(team.ChampBonus), pts(team.ConsBonus), pts(team.PlaceBonus))
		fmt.Fprintf(&b, "   Placement: %s\n", pts(team.PlacementPoints))
		fmt.Fprintf(&b, "   Wrestlers: %d\n\n", team.Wrestlers)
	}

	rounds := make(map[string][]types.RoundRow)
	for _, r := range t.Rounds {
		rounds[r.WrestlerID] = append(rounds[r.WrestlerID], r)
	}
	for _, team := range t.Teams {
		fmt.Fprintf(&b, "\n%s WRESTLERS\n%s\n", team.Owner, rule)
		var mine []types.ResultRow
		for _, r := range t.Results {
			if r.Owner == team.Owner {
				mine = append(mine, r)
			}
		}
		sort.SliceStable(mine, func(i, j int) bool { return mine[i].Total > mine[j].Total })
		for _, r := range mine {
			writeWrestler(&b, r, rounds[r.WrestlerID])
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if err := writeAnalytics(w, t); err != nil {
		return err
	}
	return writeDiagnostics(w, diags)
}

func writeWrestler(b *strings.Builder, r types.ResultRow, rounds []types.RoundRow) {
	seed := "unseeded"
	if r.Seed > 0 {
		seed = "#" + strconv.Itoa(r.Seed)
	}
	fmt.Fprintf(b, "%s - %s (%s): %s points\n", r.Weight, r.Wrestler, seed, pts(r.Total))
	fmt.Fprintf(b, "   Advancement: %s (%s)\n",
		pts(r.Advancement), advSplit(r.ChampAdvancement, r.ConsAdvancement, r.PlaceAdvancement))
	fmt.Fprintf(b, "   Bonus: %s\n", pts(r.Bonus))
	if r.Placement > 0 {
		fmt.Fprintf(b, "   Placement: %s place (%s points)\n", ordinal(r.Placement), pts(r.PlacementPoints))
	}
	for _, rr := range rounds {
		if strings.HasPrefix(rr.Outcome, model.ResultWin) {
			fmt.Fprintf(b, "   %s - %s over %s (%s pts = %s adv + %s bonus)\n",
				rr.Round, rr.WinType, rr.Opponent, pts(rr.Advancement+rr.Bonus), pts(rr.Advancement), pts(rr.Bonus))
			continue
		}
		fmt.Fprintf(b, "   %s - %s to %s\n", rr.Round, rr.Outcome, rr.Opponent)
	}
	b.WriteString("\n")
}

func writeAnalytics(w io.Writer, t types.Tables) error {
	if _, err := fmt.Fprintf(w, "\nWIN TYPES\n%s\n", rule); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tFALL\tTF\tMD\tDEC\tSV\tTB\tOTHER\tWINS\tBONUS %")
	for _, m := range WinMixes(t) {
		other := m.Total
		cols := []string{"Fall", "TF", "MD", "Dec", "SV", "TB"}
		counts := make([]string, len(cols))
		for i, c := range cols {
			counts[i] = strconv.Itoa(m.ByType[c])
			other -= m.ByType[c]
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\n", m.Owner, strings.Join(counts, "\t"), other, m.Total, m.BonusPct())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nALL-AMERICANS\n%s\n", rule); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\t1\t2\t3\t4\t5\t6\t7\t8\tAAS\tPOINTS")
	for _, p := range Podiums(t) {
		fmt.Fprintf(tw, "%s", p.Owner)
		for rank := 1; rank <= 8; rank++ {
			fmt.Fprintf(tw, "\t%d", p.ByRank[rank])
		}
		fmt.Fprintf(tw, "\t%d\t%s\n", p.AllAmericans, pts(p.Points))
	}
	return tw.Flush()
}

func writeDiagnostics(w io.Writer, diags []model.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nDIAGNOSTICS (%d)\n%s\n", len(diags), rule); err != nil {
		return err
	}
	for _, d := range diags {
		if _, err := fmt.Fprintf(w, "%-7s %s\n", d.Severity, d); err != nil {
			return err
		}
	}
	return nil
}

// advSplit lists the bracket parts; placement-match advancement only when configured.
func advSplit(champ, cons, place float64) string {
	out := "Champ: " + pts(champ) + ", Cons: " + pts(cons)
	if place != 0 {
		out += ", Place: " + pts(place)
	}
	return out
}

func pts(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
