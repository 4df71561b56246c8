// Package render turns a built tree into DOT, SVG, PNG or JSON output.
package render

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Format identifies an output encoding.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("render: unsupported format")

// Formats lists every supported output format.
func Formats() []Format {
	return []Format{FormatDOT, FormatSVG, FormatPNG, FormatJSON}
}

// ParseFormat resolves a format name case-insensitively. An empty name is svg.
func ParseFormat(name string) (Format, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return FormatSVG, nil
	}
	for _, f := range Formats() {
		if string(f) == trimmed {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type served for format.
func ContentType(format Format) string {
	switch format {
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Filename derives a download name from the chart title.
func Filename(title string, format Format) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	name := strings.Trim(b.String(), "_.")
	if name == "" {
		name = "tree"
	}
	return name + "." + string(format)
}
