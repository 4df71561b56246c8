package taxonomy

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyValue is returned when a record lacks a value for a required level.
var ErrEmptyValue = errors.New("taxonomy: empty value")

// Record is one row of the classification table.
type Record struct {
	Class    string `json:"class"`
	Subclass string `json:"subclass"`
	Order    string `json:"order"`
	Family   string `json:"family"`
	Genus    string `json:"genus"`
	Species  string `json:"species"`
}

// Value returns the raw column value for level.
func (r Record) Value(level Level) string {
	switch level {
	case LevelClass:
		return r.Class
	case LevelSubclass:
		return r.Subclass
	case LevelOrder:
		return r.Order
	case LevelFamily:
		return r.Family
	case LevelGenus:
		return r.Genus
	case LevelSpecies:
		return r.Species
	default:
		return ""
	}
}

// FullSpecies is the binomial display name "Genus species".
func (r Record) FullSpecies() string {
	return r.Genus + " " + r.Species
}

// Label returns the display value at level. Species are shown with their genus.
func (r Record) Label(level Level) string {
	if level == LevelSpecies {
		return r.FullSpecies()
	}
	return r.Value(level)
}

// Path returns the labels of r across levels, in the order given.
func (r Record) Path(levels []Level) []string {
	path := make([]string, len(levels))
	for i, lvl := range levels {
		path[i] = r.Label(lvl)
	}
	return path
}

// Table is an ordered, read-only collection of records.
type Table struct {
	records []Record
}

// NewTable validates and copies records into a table.
func NewTable(records []Record) (*Table, error) {
	for i, rec := range records {
		for _, lvl := range canonical {
			if rec.Value(lvl) == "" {
				return nil, fmt.Errorf("%w: record %d has no %s", ErrEmptyValue, i, lvl)
			}
		}
	}
	return &Table{records: append([]Record(nil), records...)}, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Empty reports whether the table has no records.
func (t *Table) Empty() bool { return t.Len() == 0 }

// At returns the record at index i.
func (t *Table) At(i int) Record { return t.records[i] }

// Records returns a copy of all records in table order.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	return append([]Record(nil), t.records...)
}

// Distinct returns the sorted distinct labels present at level.
func (t *Table) Distinct(level Level) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range t.records {
		label := rec.Label(level)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Species returns the sorted distinct "Genus species" names.
func (t *Table) Species() []string { return t.Distinct(LevelSpecies) }

// Where keeps the records whose label at level is one of values. An empty
// values list leaves the table unchanged.
func (t *Table) Where(level Level, values []string) *Table {
	if t == nil {
		return &Table{}
	}
	if len(values) == 0 {
		return t
	}
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	kept := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		if _, ok := allowed[rec.Label(level)]; ok {
			kept = append(kept, rec)
		}
	}
	return &Table{records: kept}
}
