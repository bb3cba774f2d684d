package scoring_test

import (
	"errors"
	"testing"

	"github.com/okian/takedown/internal/domain/model"
	scoring "github.com/okian/takedown/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func resolved(round, winType string) model.ResolvedMatch {
	return model.ResolvedMatch{
		MatchRecord: model.MatchRecord{
			Round:      round,
			WinType:    winType,
			WinTypeRaw: winType,
			Recognised: true,
		},
		WinnerID: "smith",
		LoserID:  "jones",
	}
}

func TestTableScorer_ScoreMatch(t *testing.T) {
	Convey("Given a scorer with a fall rule for R32", t, func() {
		scorer := scoring.NewTableScorer(scoring.WithRules(scoring.Rules{
			Rounds: model.Rounds{{Tag: "R32", Bracket: model.BracketChamp, Order: 1, Advancement: 1}},
			WinTypes: map[string]scoring.WinRule{
				model.WinFall: {Bonus: 1, Advancement: map[string]float64{"R32": 2}},
			},
		}))

		Convey("When the winner wins by fall", func() {
			delta, err := scorer.ScoreMatch(resolved("R32", model.WinFall))

			Convey("Then the winner gets advancement 2 and bonus 1", func() {
				So(err, ShouldBeNil)
				adv, bonus := delta.For("smith")
				So(adv, ShouldEqual, 2)
				So(bonus, ShouldEqual, 1)
			})

			Convey("And the loser gets nothing", func() {
				adv, bonus := delta.For("jones")
				So(adv, ShouldEqual, 0)
				So(bonus, ShouldEqual, 0)
			})
		})

		Convey("When the win type is not configured", func() {
			m := resolved("R32", "Slam")
			m.Recognised = false
			_, err := scorer.ScoreMatch(m)

			Convey("Then it fails with UnscorableOutcome", func() {
				So(errors.Is(err, scoring.ErrUnscorableOutcome), ShouldBeTrue)
			})
		})

		Convey("When the round is not configured", func() {
			_, err := scorer.ScoreMatch(resolved("R64", model.WinFall))

			Convey("Then it fails with UnscorableOutcome", func() {
				So(errors.Is(err, scoring.ErrUnscorableOutcome), ShouldBeTrue)
			})
		})
	})

	Convey("Given the default NCAA rules", t, func() {
		scorer := scoring.NewTableScorer()

		Convey("When scoring each bracket", func() {
			champ, err1 := scorer.ScoreMatch(resolved("QF", model.WinTechFall))
			cons, err2 := scorer.ScoreMatch(resolved("C3", model.WinMajorDecision))
			final, err3 := scorer.ScoreMatch(resolved("F", model.WinDecision))
			place, err4 := scorer.ScoreMatch(resolved("P3", model.WinFall))

			Convey("Then advancement follows the round and bonus the win type", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(err3, ShouldBeNil)
				So(err4, ShouldBeNil)
				So(champ.Advancement, ShouldEqual, 1)
				So(champ.Bonus, ShouldEqual, 1.5)
				So(cons.Advancement, ShouldEqual, 0.5)
				So(cons.Bonus, ShouldEqual, 1)
				So(final.Advancement, ShouldEqual, 0)
				So(final.Bonus, ShouldEqual, 0)
				So(place.Advancement, ShouldEqual, 0)
				So(place.Bonus, ShouldEqual, 2)
			})
		})

		Convey("When scoring decision-class wins", func() {
			Convey("Then decision, SV and TB award no bonus", func() {
				for _, wt := range []string{model.WinDecision, model.WinSuddenVictory, model.WinTieBreak} {
					d, err := scorer.ScoreMatch(resolved("R16", wt))
					So(err, ShouldBeNil)
					So(d.Bonus, ShouldEqual, 0)
					So(d.Advancement, ShouldEqual, 1)
				}
			})

			Convey("And forfeit-class wins award two", func() {
				for _, wt := range []string{model.WinDefault, model.WinForfeit, model.WinMedicalForfeit, model.WinDisqualification} {
					d, err := scorer.ScoreMatch(resolved("R16", wt))
					So(err, ShouldBeNil)
					So(d.Bonus, ShouldEqual, 2)
				}
			})
		})
	})
}

func TestTableScorer_ScorePlacement(t *testing.T) {
	Convey("Given a scorer with rank table {1: 16}", t, func() {
		scorer := scoring.NewTableScorer(scoring.WithRules(scoring.Rules{
			Placement: map[int]float64{1: 16},
		}))

		Convey("When first place is scored", func() {
			d, err := scorer.ScorePlacement(model.ResolvedPlacement{
				PlacementRecord: model.PlacementRecord{Rank: 1},
				WrestlerID:      "smith",
			})

			Convey("Then it is worth 16", func() {
				So(err, ShouldBeNil)
				So(d.Placement, ShouldEqual, 16)
				So(d.WrestlerID, ShouldEqual, "smith")
			})
		})

		Convey("When a rank outside the table is scored", func() {
			d, err := scorer.ScorePlacement(model.ResolvedPlacement{
				PlacementRecord: model.PlacementRecord{Rank: 9},
			})

			Convey("Then it is worth zero", func() {
				So(err, ShouldBeNil)
				So(d.Placement, ShouldEqual, 0)
			})
		})

		Convey("When an unplaced rank is scored", func() {
			d, err := scorer.ScorePlacement(model.ResolvedPlacement{})

			Convey("Then it is worth zero", func() {
				So(err, ShouldBeNil)
				So(d.Placement, ShouldEqual, 0)
			})
		})
	})

	Convey("Given the default placement table", t, func() {
		scorer := scoring.NewTableScorer()

		Convey("Then ranks 1 through 8 follow 16/12/10/9/7/6/4/3", func() {
			want := []float64{16, 12, 10, 9, 7, 6, 4, 3}
			for i, w := range want {
				d, err := scorer.ScorePlacement(model.ResolvedPlacement{PlacementRecord: model.PlacementRecord{Rank: i + 1}})
				So(err, ShouldBeNil)
				So(d.Placement, ShouldEqual, w)
			}
		})
	})
}
