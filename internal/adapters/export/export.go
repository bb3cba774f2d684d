// Package export writes run tables to CSV, XLSX and JSON files.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/types"
)

// Formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Bundle is what a run exports.
type Bundle struct {
	Tables      types.Tables       `json:"tables"`
	Diagnostics []model.Diagnostic `json:"diagnostics"`
}

// sheet is one table with its file stem and sheet name.
type sheet struct {
	stem string
	name string
	rows any
}

func (b Bundle) sheets() []sheet {
	return []sheet{
		{stem: "results", name: "Results", rows: b.Tables.Results},
		{stem: "rounds", name: "Rounds", rows: b.Tables.Rounds},
		{stem: "placements", name: "Placements", rows: b.Tables.Placements},
		{stem: "teams", name: "Teams", rows: b.Tables.Teams},
		{stem: "diagnostics", name: "Diagnostics", rows: b.Diagnostics},
	}
}

// Write exports b into dir once per format and returns the files written.
func Write(ctx context.Context, dir string, formats []string, b Bundle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		var (
			files []string
			err   error
		)
		switch strings.ToLower(strings.TrimSpace(f)) {
		case FormatCSV:
			files, err = writeCSVFiles(dir, b)
		case FormatXLSX:
			path := filepath.Join(dir, "takedown.xlsx")
			files, err = []string{path}, WriteXLSX(path, b)
		case FormatJSON:
			path := filepath.Join(dir, "takedown.json")
			files, err = []string{path}, writeFile(path, func(w io.Writer) error { return WriteJSON(w, b) })
		default:
			return written, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
		if err != nil {
			return written, fmt.Errorf("export %s: %w", f, err)
		}
		written = append(written, files...)
	}
	return written, nil
}

func writeCSVFiles(dir string, b Bundle) ([]string, error) {
	var out []string
	for _, s := range b.sheets() {
		path := filepath.Join(dir, s.stem+".csv")
		if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, s.rows) }); err != nil {
			return out, err
		}
		out = append(out, path)
	}
	return out, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteJSON writes the bundle as indented JSON.
func WriteJSON(w io.Writer, b Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// WriteCSV writes a slice of structs with a header row taken from json tags.
func WriteCSV(w io.Writer, rows any) error {
	header, records := flatten(rows)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		row := make([]string, len(rec))
		for i, v := range rec {
			row[i] = format(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// flatten reads exported fields of a struct slice. Header names come from
// json tags without options.
func flatten(rows any) (header []string, records [][]any) {
	v := reflect.ValueOf(rows)
	t := v.Type().Elem()

	var idx []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		header = append(header, name)
		idx = append(idx, i)
	}

	for r := 0; r < v.Len(); r++ {
		row := v.Index(r)
		rec := make([]any, len(idx))
		for j, i := range idx {
			rec[j] = row.Field(i).Interface()
		}
		records = append(records, rec)
	}
	return header, records
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
