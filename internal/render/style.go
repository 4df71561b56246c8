package render

import (
	"image/color"
	"strconv"
	"strings"

	"phylotree/internal/tree"
)

type nodeStyle struct {
	fill, border, font string
	pen                int
}

func styleFor(n tree.Node) nodeStyle {
	if n.Highlight {
		return nodeStyle{fill: HighlightFill, border: HighlightBorder, font: HighlightFont, pen: 3}
	}
	return nodeStyle{fill: n.Level.Color(), border: "#000000", font: "#000000", pen: 1}
}

// parseHex converts "#rrggbb" to an opaque colour. Malformed input is black.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{A: 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
