package parser_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/parser"
	"github.com/okian/takedown/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func newParser(opts ...parser.Option) *parser.Parser {
	opts = append([]parser.Option{parser.WithVocabulary(parser.DefaultVocabulary(scoring.DefaultRounds()))}, opts...)
	return parser.New(opts...)
}

func lines(ls ...string) string { return strings.Join(ls, "\n") }

func kinds(ds []model.Diagnostic, k model.DiagnosticKind) []model.Diagnostic {
	var out []model.Diagnostic
	for _, d := range ds {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// goroutineExecutor runs every unit on its own goroutine.
type goroutineExecutor struct{}

func (goroutineExecutor) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fn(ctx, i)
		}(i)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func TestParse_DefShape(t *testing.T) {
	Convey("Given a def. line with a round prefix", t, func() {
		p := newParser()

		Convey("When it is parsed", func() {
			doc, err := p.Parse(context.Background(), "R32: Smith (State A) def. Jones (State B) by Fall 3:12")

			Convey("Then one recognised match is extracted", func() {
				So(err, ShouldBeNil)
				So(doc.Matches, ShouldHaveLength, 1)
				m := doc.Matches[0]
				So(m.Round, ShouldEqual, "R32")
				So(m.RoundLabel, ShouldEqual, "R32")
				So(m.Winner, ShouldResemble, model.Mention{Name: "Smith", School: "State A"})
				So(m.Loser, ShouldResemble, model.Mention{Name: "Jones", School: "State B"})
				So(m.WinType, ShouldEqual, model.WinFall)
				So(m.Recognised, ShouldBeTrue)
				So(m.Score, ShouldNotBeNil)
				So(*m.Score, ShouldEqual, "3:12")
				So(m.Conflict, ShouldBeFalse)
				So(doc.Diagnostics, ShouldBeEmpty)
			})
		})

		Convey("When the line uses dec. with only a score", func() {
			doc, err := p.Parse(context.Background(), "R16: Smith (State A) dec. Jones (State B) 5-3")

			Convey("Then the verb implies a decision", func() {
				So(err, ShouldBeNil)
				So(doc.Matches[0].WinType, ShouldEqual, model.WinDecision)
				So(*doc.Matches[0].Score, ShouldEqual, "5-3")
			})
		})
	})
}

func TestParse_WonByShape(t *testing.T) {
	Convey("Given tracker-style lines under weight and round headers", t, func() {
		text := lines(
			"125",
			"Champ. Round 1",
			"Champ. Round 1 - Spencer Lee (Iowa) 31-0 won by fall over Jakob Camacho (NC State) 20-10 (Fall 1:23)",
			"Quarterfinal - Spencer Lee (Iowa) 32-0 won by major decision over Pat Glory (Princeton) 25-3 (MD 12-2)",
		)

		Convey("When parsed", func() {
			doc, err := newParser().Parse(context.Background(), text)

			Convey("Then both lines yield matches with weight and round", func() {
				So(err, ShouldBeNil)
				So(doc.Matches, ShouldHaveLength, 2)

				first := doc.Matches[0]
				So(first.Weight, ShouldEqual, "125")
				So(first.Round, ShouldEqual, "R32")
				So(first.Winner.Name, ShouldEqual, "Spencer Lee")
				So(first.Winner.Weight, ShouldEqual, "125")
				So(first.Loser.School, ShouldEqual, "NC State")
				So(first.WinType, ShouldEqual, model.WinFall)
				So(*first.Score, ShouldEqual, "1:23")

				second := doc.Matches[1]
				So(second.Round, ShouldEqual, "QF")
				So(second.WinType, ShouldEqual, model.WinMajorDecision)
				So(*second.Score, ShouldEqual, "12-2")
			})

			Convey("And the stats count lines by kind", func() {
				So(doc.Stats.Lines, ShouldEqual, 4)
				So(doc.Stats.ByKind[parser.KindWeight], ShouldEqual, 1)
				So(doc.Stats.ByKind[parser.KindRound], ShouldEqual, 1)
				So(doc.Stats.ByKind[parser.KindMatch], ShouldEqual, 2)
			})
		})
	})
}

func TestParse_SeededLines(t *testing.T) {
	Convey("Given lines that carry a record and seed after the school", t, func() {
		text := lines(
			"125",
			"Champ. Round 1 - Smith (State A) 20-1 (#3) won by fall over Jones (State B) 10-5 (Fall 1:23)",
			"R32: Brown (State C) 18-4 (#6) def. Green (State D) by Fall 3:12",
		)

		Convey("When parsed", func() {
			doc, err := newParser().Parse(context.Background(), text)

			Convey("Then the seed stays out of the names and schools", func() {
				So(err, ShouldBeNil)
				So(kinds(doc.Diagnostics, model.DiagUnparsedLine), ShouldBeEmpty)
				So(doc.Matches, ShouldHaveLength, 2)

				won := doc.Matches[0]
				So(won.Round, ShouldEqual, "R32")
				So(won.Winner.Name, ShouldEqual, "Smith")
				So(won.Winner.School, ShouldEqual, "State A")
				So(won.Loser.Name, ShouldEqual, "Jones")
				So(won.Loser.School, ShouldEqual, "State B")
				So(won.WinType, ShouldEqual, model.WinFall)
				So(*won.Score, ShouldEqual, "1:23")

				def := doc.Matches[1]
				So(def.Round, ShouldEqual, "R32")
				So(def.Winner.Name, ShouldEqual, "Brown")
				So(def.Winner.School, ShouldEqual, "State C")
				So(def.Loser.Name, ShouldEqual, "Green")
				So(def.WinType, ShouldEqual, model.WinFall)
			})
		})
	})
}

func TestParse_Rounds(t *testing.T) {
	Convey("Given a Prelim line under a consolation header", t, func() {
		text := lines(
			"Cons. Pig Tails",
			"Prelim - Smith (State A) def. Jones (State B) by Fall 1:00",
		)
		doc, err := newParser().Parse(context.Background(), text)

		Convey("Then the prefix resolves inside the section's bracket", func() {
			So(err, ShouldBeNil)
			So(doc.Matches[0].Round, ShouldEqual, "CPT")
			So(doc.Matches[0].RoundLabel, ShouldEqual, "Prelim")
		})
	})

	Convey("Given a Prelim line with no header", t, func() {
		doc, err := newParser().Parse(context.Background(), "Prelim - Smith (State A) def. Jones (State B) by Fall 1:00")

		Convey("Then it maps to the championship pig tails", func() {
			So(err, ShouldBeNil)
			So(doc.Matches[0].Round, ShouldEqual, "PR")
		})
	})

	Convey("Given a match with no round anywhere", t, func() {
		doc, err := newParser().Parse(context.Background(), "Smith (State A) def. Jones (State B) by Fall 1:00")

		Convey("Then it is reported as unparsed with no round", func() {
			So(err, ShouldBeNil)
			So(doc.Matches, ShouldBeEmpty)
			ds := kinds(doc.Diagnostics, model.DiagUnparsedLine)
			So(ds, ShouldHaveLength, 1)
			So(ds[0].Detail, ShouldEqual, "no round")
			So(ds[0].Line, ShouldEqual, 1)
		})
	})
}

func TestParse_WinTypes(t *testing.T) {
	Convey("Given a line with an unknown win type", t, func() {
		doc, err := newParser().Parse(context.Background(), "R32: Smith (State A) def. Jones (State B) by Slam 3:12")

		Convey("Then the record is kept but not recognised", func() {
			So(err, ShouldBeNil)
			So(doc.Matches, ShouldHaveLength, 1)
			So(doc.Matches[0].Recognised, ShouldBeFalse)
			So(doc.Matches[0].WinType, ShouldEqual, "Slam")
			So(doc.Diagnostics, ShouldBeEmpty)
		})
	})

	Convey("Given a decision with an SV-1 score", t, func() {
		doc, err := newParser().Parse(context.Background(), "R16: Smith (State A) def. Jones (State B) by decision (SV-1 5-3)")

		Convey("Then it becomes sudden victory", func() {
			So(err, ShouldBeNil)
			So(doc.Matches[0].WinType, ShouldEqual, model.WinSuddenVictory)
			So(*doc.Matches[0].Score, ShouldEqual, "SV-1 5-3")
		})
	})

	Convey("Given a decision with a TB-1 score in the tracker shape", t, func() {
		doc, err := newParser().Parse(context.Background(),
			"Champ. Round 2 - Smith (State A) 10-2 won by decision over Jones (State B) 9-3 (TB-1 2-1)")

		Convey("Then it becomes a tie-break", func() {
			So(err, ShouldBeNil)
			So(doc.Matches[0].WinType, ShouldEqual, model.WinTieBreak)
			So(doc.Matches[0].Round, ShouldEqual, "R16")
		})
	})

	Convey("Given tech fall spelled out", t, func() {
		doc, err := newParser().Parse(context.Background(), "QF: Smith (State A) def. Jones (State B) by tech fall 18-2")

		Convey("Then the longer token wins over fall", func() {
			So(err, ShouldBeNil)
			So(doc.Matches[0].WinType, ShouldEqual, model.WinTechFall)
			So(*doc.Matches[0].Score, ShouldEqual, "18-2")
		})
	})
}

func TestParse_Placements(t *testing.T) {
	Convey("Given a placement block", t, func() {
		text := lines(
			"125",
			"Placements",
			"1st: Smith (State A)",
			"2nd - Jones (State B)",
			"9th: Brown (State C)",
			"Unplaced: Green (State D)",
		)
		doc, err := newParser().Parse(context.Background(), text)

		Convey("Then every line becomes a block placement", func() {
			So(err, ShouldBeNil)
			So(doc.Placements, ShouldHaveLength, 4)
			So(doc.Placements[0].Rank, ShouldEqual, 1)
			So(doc.Placements[0].Mention, ShouldResemble, model.Mention{Name: "Smith", School: "State A", Weight: "125"})
			So(doc.Placements[0].Source, ShouldEqual, model.PlacementFromBlock)
			So(doc.Placements[1].Rank, ShouldEqual, 2)
			So(doc.Placements[2].Rank, ShouldEqual, 9)
			So(doc.Placements[2].Scorable(), ShouldBeFalse)
			So(doc.Placements[3].Rank, ShouldEqual, 0)
			So(doc.Placements[3].Mention.Name, ShouldEqual, "Green")
		})
	})

	Convey("Given a placement match", t, func() {
		text := lines(
			"125",
			"1st Place Match",
			"Spencer Lee (Iowa) dec. Pat Glory (Princeton) 5-3",
		)
		doc, err := newParser().Parse(context.Background(), text)

		Convey("Then the match also places both wrestlers", func() {
			So(err, ShouldBeNil)
			So(doc.Matches, ShouldHaveLength, 1)
			So(doc.Matches[0].Round, ShouldEqual, "F")
			So(doc.Placements, ShouldHaveLength, 2)
			So(doc.Placements[0].Rank, ShouldEqual, 1)
			So(doc.Placements[0].Mention.Name, ShouldEqual, "Spencer Lee")
			So(doc.Placements[0].Source, ShouldEqual, model.PlacementFromMatch)
			So(doc.Placements[1].Rank, ShouldEqual, 2)
			So(doc.Placements[1].Mention.Name, ShouldEqual, "Pat Glory")
		})
	})
}

func TestParse_Recovery(t *testing.T) {
	Convey("Given a noise line among matches", t, func() {
		text := lines(
			"R32: Smith (State A) def. Jones (State B) by Fall 3:12",
			"Session I results posted at 10:00",
			"Doe (State C) received a bye",
		)
		doc, err := newParser().Parse(context.Background(), text)

		Convey("Then noise is unparsed and the bye is silent", func() {
			So(err, ShouldBeNil)
			So(doc.Matches, ShouldHaveLength, 1)
			ds := kinds(doc.Diagnostics, model.DiagUnparsedLine)
			So(ds, ShouldHaveLength, 1)
			So(ds[0].Line, ShouldEqual, 2)
			So(doc.Stats.ByKind[parser.KindBye], ShouldEqual, 1)
		})
	})

	Convey("Given the same pairing twice in a round", t, func() {
		text := lines(
			"R32: Smith (State A) def. Jones (State B) by Fall 3:12",
			"R32: Jones (State B) def. Smith (State A) by Dec 3-2",
		)
		doc, err := newParser().Parse(context.Background(), text)

		Convey("Then the second is flagged, not dropped", func() {
			So(err, ShouldBeNil)
			So(doc.Matches, ShouldHaveLength, 2)
			So(doc.Matches[0].Conflict, ShouldBeFalse)
			So(doc.Matches[1].Conflict, ShouldBeTrue)
			So(doc.Stats.Conflicts, ShouldEqual, 1)
			ds := kinds(doc.Diagnostics, model.DiagDuplicateMatch)
			So(ds, ShouldHaveLength, 1)
			So(ds[0].Line, ShouldEqual, 2)
		})
	})

	Convey("Given a mention with empty school parens", t, func() {
		text := lines(
			"R32: Smith (State A) def. Jones (State B) by Fall 3:12",
			"R16: Smith () def. Brown (State C) by Dec 3-2",
		)
		doc, err := newParser().Parse(context.Background(), text)

		Convey("Then the catalogue supplies the only school seen", func() {
			So(err, ShouldBeNil)
			So(doc.Matches[1].Winner.School, ShouldEqual, "State A")
			So(doc.Catalogue.Schools("smith"), ShouldResemble, []string{"State A"})
		})
	})

	Convey("Given blank text", t, func() {
		_, err := newParser().Parse(context.Background(), " \n\t\n")

		Convey("Then parsing fails with ErrEmptyInput", func() {
			So(errors.Is(err, parser.ErrEmptyInput), ShouldBeTrue)
		})
	})

	Convey("Given text with nothing recognisable", t, func() {
		_, err := newParser().Parse(context.Background(), "hello\nworld")

		Convey("Then parsing fails with ErrNoContent", func() {
			So(errors.Is(err, parser.ErrNoContent), ShouldBeTrue)
		})
	})
}

func TestParse_Executor(t *testing.T) {
	Convey("Given a multi-section document", t, func() {
		text := lines(
			"125",
			"Champ. Round 1",
			"Smith (State A) def. Jones (State B) by Fall 3:12",
			"Lee (Iowa) def. Glory (Princeton) by MD 12-2",
			"133",
			"Champ. Round 1",
			"Doe (State C) def. Roe (State D) by Dec 4-1",
			"Quarterfinal",
			"Doe (State C) def. Poe (State E) by TF 19-3",
		)

		Convey("When parsed sequentially and concurrently", func() {
			seq, err1 := newParser().Parse(context.Background(), text)
			par, err2 := newParser(parser.WithExecutor(goroutineExecutor{})).Parse(context.Background(), text)

			Convey("Then the records are identical and in source order", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(cmp.Diff(seq.Matches, par.Matches), ShouldBeEmpty)
				So(cmp.Diff(seq.Diagnostics, par.Diagnostics), ShouldBeEmpty)
				So(seq.Stats.Sections, ShouldEqual, 3)
				So(seq.Matches[3].Round, ShouldEqual, "QF")
				So(seq.Matches[3].Weight, ShouldEqual, "133")
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := newParser().Parse(ctx, text)

			Convey("Then the sequential executor stops", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
