package model_test

import (
	"errors"
	"testing"

	model "github.com/okian/takedown/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestWrestlerID(t *testing.T) {
	convey.Convey("Given wrestler identity inputs", t, func() {
		convey.Convey("When the same wrestler is built twice", func() {
			a := model.NewWrestler("Spencer Lee", "Iowa", "125", 1, "Team A")
			b := model.NewWrestler(" Spencer Lee ", "Iowa", "125", 1, "Team A")

			convey.Convey("Then the IDs are identical", func() {
				convey.So(a.ID, convey.ShouldEqual, b.ID)
				convey.So(a.ID, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When weight differs", func() {
			a := model.NewWrestler("Caleb Smith", "Nebraska", "125", 0, "")
			b := model.NewWrestler("Caleb Smith", "Nebraska", "133", 0, "")

			convey.Convey("Then the IDs differ", func() {
				convey.So(a.ID, convey.ShouldNotEqual, b.ID)
			})
		})

		convey.Convey("When the wrestler has no owner", func() {
			w := model.NewWrestler("Jones", "State B", "125", 0, "")

			convey.Convey("Then it is not drafted", func() {
				convey.So(w.Drafted(), convey.ShouldBeFalse)
				convey.So(w.Label(), convey.ShouldEqual, "Jones (State B)")
			})
		})
	})
}

func TestRosterValidate(t *testing.T) {
	convey.Convey("Given a roster", t, func() {
		convey.Convey("When (name, school) repeats without a collision entry", func() {
			r := model.Roster{
				model.NewWrestler("Caleb Smith", "Nebraska", "125", 0, "A"),
				model.NewWrestler("Caleb Smith", "Nebraska", "133", 0, "B"),
			}
			err := r.Validate(nil)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, model.ErrInvalidRoster), convey.ShouldBeTrue)
			})

			convey.Convey("And listing the name as a collision allows it", func() {
				convey.So(r.Validate([]string{"caleb smith"}), convey.ShouldBeNil)
			})

			convey.Convey("And listing only the last name allows it too", func() {
				convey.So(r.Validate([]string{"smith"}), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the same wrestler is listed twice", func() {
			w := model.NewWrestler("Smith", "State A", "125", 0, "A")
			err := model.Roster{w, w}.Validate([]string{"smith"})

			convey.Convey("Then the duplicate ID is rejected", func() {
				convey.So(errors.Is(err, model.ErrInvalidRoster), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When owners are requested", func() {
			r := model.Roster{
				model.NewWrestler("A", "X", "125", 0, "Zed"),
				model.NewWrestler("B", "X", "133", 0, "Amy"),
				model.NewWrestler("C", "X", "141", 0, "Zed"),
				model.NewWrestler("D", "X", "149", 0, ""),
			}

			convey.Convey("Then they are distinct and in roster order", func() {
				convey.So(r.Owners(), convey.ShouldResemble, []string{"Zed", "Amy"})
			})
		})
	})
}

func TestRounds(t *testing.T) {
	convey.Convey("Given a round table", t, func() {
		rounds := model.Rounds{
			{Tag: "Semis", Order: 4, Labels: []string{"Semifinal"}},
			{Tag: "Cons. Semis", Order: 11, Labels: []string{"Cons. Semi"}},
			{Tag: "R32", Order: 1, Labels: []string{"Champ. Round 1"}},
		}

		convey.Convey("When finding a label inside text", func() {
			r, ok := rounds.Find("Cons. Semi - Smith (A) won by fall over Jones (B)")

			convey.Convey("Then the longest label wins", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(r.Tag, convey.ShouldEqual, "Cons. Semis")
			})
		})

		convey.Convey("When looking up by tag or label", func() {
			a, okA := rounds.Lookup("r32")
			b, okB := rounds.Lookup("Champ. Round 1")
			_, okC := rounds.Lookup("Round 9")

			convey.Convey("Then both resolve to the same round", func() {
				convey.So(okA && okB, convey.ShouldBeTrue)
				convey.So(a.Tag, convey.ShouldEqual, b.Tag)
				convey.So(okC, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When sorting", func() {
			sorted := rounds.Sorted()

			convey.Convey("Then rounds follow tournament order", func() {
				convey.So(sorted[0].Tag, convey.ShouldEqual, "R32")
				convey.So(sorted[2].Tag, convey.ShouldEqual, "Cons. Semis")
				convey.So(rounds[0].Tag, convey.ShouldEqual, "Semis")
			})
		})
	})
}

func TestScoredEntry(t *testing.T) {
	convey.Convey("Given a scored entry", t, func() {
		w := model.NewWrestler("Smith", "State A", "125", 1, "Team A")
		e := model.NewScoredEntry(w)

		convey.Convey("When wins land in each bracket", func() {
			e.ApplyWin(model.BracketChamp, model.RoundOutcome{Round: "R32", Result: model.ResultWin, WinType: model.WinFall, Advancement: 1, Bonus: 2})
			e.ApplyWin(model.BracketCons, model.RoundOutcome{Round: "Cons. R3", Result: model.ResultWin, WinType: model.WinDecision, Advancement: 0.5})
			e.ApplyLoss(model.RoundOutcome{Round: "R16", Result: model.ResultLoss, WinType: model.WinSuddenVictory})
			e.PlacementPoints = 7

			convey.Convey("Then categories split by bracket", func() {
				convey.So(e.ChampWins, convey.ShouldEqual, 1)
				convey.So(e.ConsWins, convey.ShouldEqual, 1)
				convey.So(e.Advancement(), convey.ShouldEqual, 1.5)
				convey.So(e.Bonus(), convey.ShouldEqual, 2)
				convey.So(e.Total(), convey.ShouldEqual, 10.5)
				convey.So(e.Wins, convey.ShouldEqual, 2)
				convey.So(e.Losses, convey.ShouldEqual, 1)
			})

			convey.Convey("And cells follow the round summary format", func() {
				convey.So(e.Outcomes[0].Cell(), convey.ShouldEqual, "W-Fall")
				convey.So(e.Outcomes[1].Cell(), convey.ShouldEqual, "W-Dec")
				convey.So(e.Outcomes[2].Cell(), convey.ShouldEqual, "L-SV")
			})

			convey.Convey("And the team aggregate sums the entry", func() {
				teams := model.Aggregate([]string{"Team A", "Team B"}, []*model.ScoredEntry{e})
				convey.So(teams, convey.ShouldHaveLength, 2)
				convey.So(teams[0].Total, convey.ShouldEqual, 10.5)
				convey.So(teams[0].WinTypes[model.WinFall], convey.ShouldEqual, 1)
				convey.So(teams[1].Total, convey.ShouldEqual, 0)
				convey.So(teams[1].Wrestlers, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When a placement match carries configured advancement", func() {
			e.ApplyWin(model.BracketPlace, model.RoundOutcome{Round: "F", Result: model.ResultWin, WinType: model.WinDecision, Advancement: 3, Bonus: 1})

			convey.Convey("Then advancement and bonus stay in their own columns", func() {
				convey.So(e.PlaceAdvancement, convey.ShouldEqual, 3)
				convey.So(e.PlaceBonus, convey.ShouldEqual, 1)
				convey.So(e.Advancement(), convey.ShouldEqual, 3)
				convey.So(e.Bonus(), convey.ShouldEqual, 1)
				convey.So(e.Total(), convey.ShouldEqual, 4)
			})

			convey.Convey("And the team aggregate keeps the split", func() {
				teams := model.Aggregate([]string{"Team A"}, []*model.ScoredEntry{e})
				convey.So(teams[0].PlaceAdvancement, convey.ShouldEqual, 3)
				convey.So(teams[0].PlaceBonus, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestMatchDelta(t *testing.T) {
	convey.Convey("Given a match delta", t, func() {
		d := model.MatchDelta{WinnerID: "w", LoserID: "l", Advancement: 1, Bonus: 2}

		convey.Convey("Then only the winner receives points", func() {
			a, b := d.For("w")
			convey.So(a+b, convey.ShouldEqual, 3)
			a, b = d.For("l")
			convey.So(a, convey.ShouldEqual, 0)
			convey.So(b, convey.ShouldEqual, 0)
		})
	})
}
