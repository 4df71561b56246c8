// Package tabular loads classification tables from spreadsheet exports.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"phylotree/pkg/taxonomy"
)

var (
	// ErrMissingColumns is returned when the header lacks required level columns.
	ErrMissingColumns = errors.New("tabular: missing required columns")
	// ErrUnsupportedFormat is returned for file extensions Load cannot read.
	ErrUnsupportedFormat = errors.New("tabular: unsupported file format")
	// ErrNoHeader is returned when the input has no header row.
	ErrNoHeader = errors.New("tabular: no header row")
)

// Options tune how Load reads a file.
type Options struct {
	// Sheet selects the workbook sheet for .xlsx input. Empty means the first sheet.
	Sheet string
}

// Load reads a table from path, choosing the parser from the file extension.
func Load(path string, opts Options) (*taxonomy.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f, ',')
	case ".tsv", ".tab":
		return LoadCSV(f, '\t')
	case ".xlsx", ".xlsm":
		return LoadXLSX(f, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadCSV reads delimited text with a header row.
func LoadCSV(r io.Reader, comma rune) (*taxonomy.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read delimited input: %w", err)
	}
	return fromRows(rows)
}

// LoadXLSX reads the named sheet (or the first one) of a workbook.
func LoadXLSX(r io.Reader, sheet string) (*taxonomy.Table, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		sheet = sheets[0]
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*taxonomy.Table, error) {
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	columns, err := locateColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]taxonomy.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := taxonomy.Record{}
		for _, lvl := range taxonomy.Levels() {
			value := cell(row, columns[lvl])
			if value == "" {
				// header is spreadsheet row 1
				return nil, fmt.Errorf("%w: row %d has no %s", taxonomy.ErrEmptyValue, i+2, lvl)
			}
			assign(&rec, lvl, value)
		}
		records = append(records, rec)
	}
	return taxonomy.NewTable(records)
}

func locateColumns(header []string) (map[taxonomy.Level]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	columns := make(map[taxonomy.Level]int, 6)
	var missing []string
	for _, lvl := range taxonomy.Levels() {
		pos, ok := index[string(lvl)]
		if !ok {
			missing = append(missing, string(lvl))
			continue
		}
		columns[lvl] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return columns, nil
}

func cell(row []string, pos int) string {
	if pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func assign(rec *taxonomy.Record, lvl taxonomy.Level, value string) {
	switch lvl {
	case taxonomy.LevelClass:
		rec.Class = value
	case taxonomy.LevelSubclass:
		rec.Subclass = value
	case taxonomy.LevelOrder:
		rec.Order = value
	case taxonomy.LevelFamily:
		rec.Family = value
	case taxonomy.LevelGenus:
		rec.Genus = value
	case taxonomy.LevelSpecies:
		rec.Species = value
	}
}
