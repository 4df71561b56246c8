// Package preset defines saved filter presets, their JSON document form and
// the storage contract implemented by the preset backends.
package preset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"phylotree/pkg/taxonomy"
)

// DefaultTitle is applied when a document carries no chart title.
const DefaultTitle = "Shark Phylogeny"

// MaxNameLength bounds preset names.
const MaxNameLength = 128

var (
	// ErrNotFound is returned when a named preset does not exist.
	ErrNotFound = errors.New("preset: not found")
	// ErrInvalidName is returned for names that cannot be stored safely.
	ErrInvalidName = errors.New("preset: invalid name")
)

// Selection mirrors one level's saved choice.
type Selection struct {
	Values []string
	All    bool
}

// Preset is a named snapshot of filter choices.
type Preset struct {
	Name        string
	Title       string
	Levels      []taxonomy.Level
	Selections  map[taxonomy.Level]Selection
	Highlighted []string
}

// Store persists presets by name.
type Store interface {
	// Save writes p, replacing any preset with the same name.
	Save(ctx context.Context, p Preset) error
	// Load returns ErrNotFound when name is absent.
	Load(ctx context.Context, name string) (Preset, error)
	// Delete reports whether the preset existed.
	Delete(ctx context.Context, name string) (bool, error)
	// List returns preset names in ascending order.
	List(ctx context.Context) ([]string, error)
}

// ValidateName trims name and rejects anything unsafe as a storage key.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	case len(trimmed) > MaxNameLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLength)
	case strings.ContainsAny(trimmed, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, trimmed)
	case strings.HasPrefix(trimmed, "."):
		return "", fmt.Errorf("%w: %q starts with a dot", ErrInvalidName, trimmed)
	case strings.Contains(trimmed, ".."):
		return "", fmt.Errorf("%w: %q contains ..", ErrInvalidName, trimmed)
	case strings.ContainsFunc(trimmed, func(r rune) bool { return r < 0x20 || r == 0x7f }):
		return "", fmt.Errorf("%w: %q contains control characters", ErrInvalidName, trimmed)
	}
	return trimmed, nil
}

// Normalize fills defaults and validates the name and levels.
func (p Preset) Normalize() (Preset, error) {
	name, err := ValidateName(p.Name)
	if err != nil {
		return Preset{}, err
	}
	out := p.clone()
	out.Name = name
	if strings.TrimSpace(out.Title) == "" {
		out.Title = DefaultTitle
	}
	if len(out.Levels) == 0 {
		out.Levels = taxonomy.Levels()
	}
	levels, err := taxonomy.ValidateLevels(out.Levels)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %s: %w", name, err)
	}
	out.Levels = levels
	return out, nil
}

func (p Preset) clone() Preset {
	out := Preset{
		Name:        p.Name,
		Title:       p.Title,
		Levels:      append([]taxonomy.Level(nil), p.Levels...),
		Highlighted: append([]string(nil), p.Highlighted...),
		Selections:  make(map[taxonomy.Level]Selection, len(p.Selections)),
	}
	for lvl, sel := range p.Selections {
		out.Selections[lvl] = Selection{Values: append([]string(nil), sel.Values...), All: sel.All}
	}
	return out
}

// MarshalJSON writes the flat key/value document: chart_title,
// active_levels, sel_<level>, all_<level> and highlighted_species.
// Name is not part of the document; it is the storage key.
func (p Preset) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, 2+2*len(taxonomy.Levels())+1)
	title := p.Title
	if title == "" {
		title = DefaultTitle
	}
	doc["chart_title"] = title
	levels := p.Levels
	if len(levels) == 0 {
		levels = taxonomy.Levels()
	}
	names := make([]string, len(levels))
	for i, lvl := range levels {
		names[i] = string(lvl)
	}
	doc["active_levels"] = names
	for _, lvl := range taxonomy.Levels() {
		sel := p.Selections[lvl]
		values := sel.Values
		if values == nil {
			values = []string{}
		}
		doc["sel_"+lvl.Key()] = values
		doc["all_"+lvl.Key()] = sel.All
	}
	if len(p.Highlighted) > 0 {
		doc["highlighted_species"] = p.Highlighted
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads the flat document. Missing keys take defaults.
func (p *Preset) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode preset: %w", err)
	}
	out := Preset{
		Name:       p.Name,
		Title:      DefaultTitle,
		Levels:     taxonomy.Levels(),
		Selections: make(map[taxonomy.Level]Selection),
	}
	if raw, ok := doc["chart_title"]; ok {
		if err := json.Unmarshal(raw, &out.Title); err != nil {
			return fmt.Errorf("decode chart_title: %w", err)
		}
	}
	if raw, ok := doc["active_levels"]; ok {
		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			return fmt.Errorf("decode active_levels: %w", err)
		}
		levels := make([]taxonomy.Level, 0, len(names))
		for _, name := range names {
			lvl, err := taxonomy.ParseLevel(name)
			if err != nil {
				return fmt.Errorf("decode active_levels: %w", err)
			}
			levels = append(levels, lvl)
		}
		out.Levels = levels
	}
	for _, lvl := range taxonomy.Levels() {
		var sel Selection
		if raw, ok := doc["sel_"+lvl.Key()]; ok {
			if err := json.Unmarshal(raw, &sel.Values); err != nil {
				return fmt.Errorf("decode sel_%s: %w", lvl.Key(), err)
			}
		}
		if raw, ok := doc["all_"+lvl.Key()]; ok {
			if err := json.Unmarshal(raw, &sel.All); err != nil {
				return fmt.Errorf("decode all_%s: %w", lvl.Key(), err)
			}
		}
		if len(sel.Values) > 0 || sel.All {
			out.Selections[lvl] = sel
		}
	}
	if raw, ok := doc["highlighted_species"]; ok {
		if err := json.Unmarshal(raw, &out.Highlighted); err != nil {
			return fmt.Errorf("decode highlighted_species: %w", err)
		}
	}
	*p = out
	return nil
}

// Encode renders the document indented with two spaces.
func Encode(p Preset) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses a stored document and attaches name.
func Decode(name string, data []byte) (Preset, error) {
	p := Preset{Name: name}
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, err
	}
	return p, nil
}
