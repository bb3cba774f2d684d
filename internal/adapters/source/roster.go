// Package source loads the roster and results text from files.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/takedown/internal/domain/model"
)

// Header spellings accepted per column, lower-cased.
var (
	weightHeaders = []string{"weight", "weight class", "wt"}
	nameHeaders   = []string{"wrestler", "name", "wrestler name"}
	schoolHeaders = []string{"school", "college"}
	seedHeaders   = []string{"seed"}
	ownerHeaders  = []string{"team name", "owner", "drafted by", "team"}
)

// LoadRoster reads a roster file, choosing the reader by extension.
func LoadRoster(ctx context.Context, path string) (model.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadRosterCSV(f)
	case ".xlsx":
		return ReadRosterXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadRosterCSV reads a header row and one wrestler per line.
func ReadRosterCSV(r io.Reader) (model.Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return fromRows(rows)
}

// ReadRosterXLSX reads the first sheet the same way as CSV.
func ReadRosterXLSX(r io.Reader) (model.Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrNoRows)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (model.Roster, error) {
	if len(rows) < 2 {
		return nil, ErrNoRows
	}
	header := rows[0]
	cols := map[string]int{
		"weight": findColumn(header, weightHeaders),
		"name":   findColumn(header, nameHeaders),
		"school": findColumn(header, schoolHeaders),
		"seed":   findColumn(header, seedHeaders),
		"owner":  findColumn(header, ownerHeaders),
	}
	for _, required := range []string{"weight", "name", "school"} {
		if cols[required] < 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var out model.Roster
	for _, row := range rows[1:] {
		name := cell(row, cols["name"])
		if name == "" {
			continue
		}
		out = append(out, model.NewWrestler(
			name,
			cell(row, cols["school"]),
			cell(row, cols["weight"]),
			seedNumber(cell(row, cols["seed"])),
			cell(row, cols["owner"]),
		))
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// seedNumber reads "#4", "4" or "4th"; anything else is unseeded.
func seedNumber(s string) int {
	s = strings.TrimLeft(strings.TrimSpace(s), "#")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
