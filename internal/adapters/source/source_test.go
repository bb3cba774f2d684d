package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/okian/takedown/internal/adapters/source"
	. "github.com/smartystreets/goconvey/convey"
)

const rosterCSV = `Weight,Wrestler,School,Seed,Team Name
125,Luke Lilledahl,Penn State,#1,Ty
133,Lucas Byrd,Illinois,2,Sam
141,Unseeded Guy,Nowhere,,Ty
,,,,
`

func writeXLSX(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cellRef, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestReadRosterCSV(t *testing.T) {
	Convey("Given a draft CSV", t, func() {
		roster, err := source.ReadRosterCSV(strings.NewReader(rosterCSV))

		Convey("Then every named row becomes a wrestler", func() {
			So(err, ShouldBeNil)
			So(roster, ShouldHaveLength, 3)
			So(roster[0].Name, ShouldEqual, "Luke Lilledahl")
			So(roster[0].Weight, ShouldEqual, "125")
			So(roster[0].Seed, ShouldEqual, 1)
			So(roster[0].Owner, ShouldEqual, "Ty")
			So(roster[1].Seed, ShouldEqual, 2)
			So(roster[2].Seed, ShouldEqual, 0)
			So(roster[0].ID, ShouldNotBeEmpty)
		})
	})

	Convey("Given a CSV without a school column", t, func() {
		_, err := source.ReadRosterCSV(strings.NewReader("Weight,Wrestler\n125,Someone\n"))

		Convey("Then it is rejected", func() {
			So(errors.Is(err, source.ErrMissingColumn), ShouldBeTrue)
		})
	})

	Convey("Given a CSV with only a header", t, func() {
		_, err := source.ReadRosterCSV(strings.NewReader("Weight,Wrestler,School\n"))

		Convey("Then it has no rows", func() {
			So(errors.Is(err, source.ErrNoRows), ShouldBeTrue)
		})
	})
}

func TestLoadRoster(t *testing.T) {
	Convey("Given roster files on disk", t, func() {
		dir := t.TempDir()
		ctx := context.Background()

		Convey("When the file is XLSX", func() {
			path := filepath.Join(dir, "draft.xlsx")
			writeXLSX(t, path, [][]any{
				{"Team Name", "Weight", "Wrestler", "School", "Seed"},
				{"Ty", 125, "Luke Lilledahl", "Penn State", "#1"},
				{"Sam", 133, "Lucas Byrd", "Illinois", 2},
			})
			roster, err := source.LoadRoster(ctx, path)

			Convey("Then the columns are found by header", func() {
				So(err, ShouldBeNil)
				So(roster, ShouldHaveLength, 2)
				So(roster[1].Name, ShouldEqual, "Lucas Byrd")
				So(roster[1].Weight, ShouldEqual, "133")
				So(roster[1].Owner, ShouldEqual, "Sam")
				So(roster[1].Seed, ShouldEqual, 2)
			})
		})

		Convey("When the file is CSV", func() {
			path := filepath.Join(dir, "draft.csv")
			So(os.WriteFile(path, []byte(rosterCSV), 0o600), ShouldBeNil)
			roster, err := source.LoadRoster(ctx, path)

			Convey("Then it matches the reader output", func() {
				So(err, ShouldBeNil)
				So(roster, ShouldHaveLength, 3)
			})
		})

		Convey("When the extension is unknown", func() {
			path := filepath.Join(dir, "draft.json")
			So(os.WriteFile(path, []byte("{}"), 0o600), ShouldBeNil)
			_, err := source.LoadRoster(ctx, path)

			Convey("Then the format is unsupported", func() {
				So(errors.Is(err, source.ErrUnsupportedFormat), ShouldBeTrue)
			})
		})

		Convey("When both inputs are read through Files", func() {
			roster := filepath.Join(dir, "draft.csv")
			results := filepath.Join(dir, "results.txt")
			So(os.WriteFile(roster, []byte(rosterCSV), 0o600), ShouldBeNil)
			So(os.WriteFile(results, []byte("125\nChamp. Round 1\n"), 0o600), ShouldBeNil)
			files := source.Files{RosterPath: roster, ResultsPath: results}

			r, errR := files.Roster(ctx)
			text, errT := files.Text(ctx)

			Convey("Then both load", func() {
				So(errR, ShouldBeNil)
				So(errT, ShouldBeNil)
				So(r, ShouldHaveLength, 3)
				So(text, ShouldStartWith, "125")
			})
		})
	})
}
