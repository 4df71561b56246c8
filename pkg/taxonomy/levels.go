// Package taxonomy defines the classification levels, taxon records and the
// read-only table that the rest of phylotree filters and renders.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// Level identifies one rank of the classification hierarchy.
type Level string

// Canonical hierarchy levels, broadest first.
const (
	LevelClass    Level = "Class"
	LevelSubclass Level = "Subclass"
	LevelOrder    Level = "Order"
	LevelFamily   Level = "Family"
	LevelGenus    Level = "Genus"
	LevelSpecies  Level = "Species"
)

var canonical = []Level{LevelClass, LevelSubclass, LevelOrder, LevelFamily, LevelGenus, LevelSpecies}

var levelColors = map[Level]string{
	LevelClass:    "#f6c1cc",
	LevelSubclass: "#f8d7b0",
	LevelOrder:    "#fff3b0",
	LevelFamily:   "#ccebdc",
	LevelGenus:    "#cdd9f2",
	LevelSpecies:  "#e6c9ef",
}

var (
	// ErrUnknownLevel is returned for names outside the canonical hierarchy.
	ErrUnknownLevel = errors.New("taxonomy: unknown level")
	// ErrNoLevels is returned when no level is active.
	ErrNoLevels = errors.New("taxonomy: at least one level must be selected")
	// ErrDuplicateLevel is returned when a level is listed twice.
	ErrDuplicateLevel = errors.New("taxonomy: duplicate level")
	// ErrNonContiguous is returned when active levels skip a rank.
	ErrNonContiguous = errors.New("taxonomy: levels must be contiguous")
)

// Levels returns the canonical hierarchy order. The slice is a fresh copy.
func Levels() []Level {
	return append([]Level(nil), canonical...)
}

// ParseLevel resolves a level name case-insensitively.
func ParseLevel(name string) (Level, error) {
	trimmed := strings.TrimSpace(name)
	for _, lvl := range canonical {
		if strings.EqualFold(string(lvl), trimmed) {
			return lvl, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, name)
}

// Index returns the position of the level in canonical order, or -1.
func (l Level) Index() int {
	for i, lvl := range canonical {
		if lvl == l {
			return i
		}
	}
	return -1
}

// UnmarshalText accepts level names in any case, so JSON and YAML keys such
// as "genus" decode to LevelGenus. Unknown names are rejected.
func (l *Level) UnmarshalText(text []byte) error {
	lvl, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// Valid reports whether l is one of the canonical levels.
func (l Level) Valid() bool { return l.Index() >= 0 }

// Key is the lower-case form used in preset documents and query strings.
func (l Level) Key() string { return strings.ToLower(string(l)) }

// Color returns the fill colour used for nodes of this level.
func (l Level) Color() string { return levelColors[l] }

// ValidateLevels checks that levels name a contiguous run of the canonical
// hierarchy and returns them in canonical order.
func ValidateLevels(levels []Level) ([]Level, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	seen := make(map[Level]struct{}, len(levels))
	for _, lvl := range levels {
		if !lvl.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, string(lvl))
		}
		if _, dup := seen[lvl]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLevel, lvl)
		}
		seen[lvl] = struct{}{}
	}
	ordered := make([]Level, 0, len(levels))
	for _, lvl := range canonical {
		if _, ok := seen[lvl]; ok {
			ordered = append(ordered, lvl)
		}
	}
	first := ordered[0].Index()
	for i, lvl := range ordered {
		if lvl.Index() != first+i {
			return nil, fmt.Errorf("%w: %s", ErrNonContiguous, joinLevels(ordered))
		}
	}
	return ordered, nil
}

// ParseLevels parses and validates a list of level names.
func ParseLevels(names []string) ([]Level, error) {
	levels := make([]Level, 0, len(names))
	for _, name := range names {
		lvl, err := ParseLevel(name)
		if err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return ValidateLevels(levels)
}

func joinLevels(levels []Level) string {
	names := make([]string, len(levels))
	for i, lvl := range levels {
		names[i] = string(lvl)
	}
	return strings.Join(names, ", ")
}
