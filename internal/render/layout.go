package render

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"phylotree/internal/tree"
	"phylotree/pkg/taxonomy"
)

const (
	marginX      = 24
	marginY      = 16
	titleHeight  = 40
	headerHeight = 28
	nodeHeight   = 30
	nodePadX     = 18
	rowGap       = 12
	columnGap    = 64
)

var labelFace = basicfont.Face7x13

// Box is a positioned node in a layout. X and Y are the centre.
type Box struct {
	Node tree.Node
	X, Y int
	W, H int
}

// Header is a positioned column header.
type Header struct {
	Level taxonomy.Level
	X, Y  int
}

// Layout is the in-process placement of a tree: one column per level,
// leaves stacked top to bottom and every parent centred on its children.
type Layout struct {
	Title   string
	Width   int
	Height  int
	TitleY  int
	Headers []Header
	Boxes   []Box
	Edges   []tree.Edge

	index map[string]int
}

// Box returns the placed box for a node ID.
func (l *Layout) Box(id string) (Box, bool) {
	i, ok := l.index[id]
	if !ok {
		return Box{}, false
	}
	return l.Boxes[i], true
}

// Arrange computes the layered layout of t.
func Arrange(t *tree.Tree) *Layout {
	l := &Layout{Title: t.Title, Edges: t.Edges, index: make(map[string]int, len(t.Nodes))}

	widths := make([]int, len(t.Levels))
	for i, lvl := range t.Levels {
		widths[i] = textWidth(string(lvl))
		for _, n := range t.Column(lvl) {
			if w := textWidth(n.Label) + 2*nodePadX; w > widths[i] {
				widths[i] = w
			}
		}
	}
	centres := make([]int, len(t.Levels))
	x := marginX
	for i, w := range widths {
		centres[i] = x + w/2
		x += w + columnGap
	}
	contentWidth := x - columnGap + marginX
	if tw := textWidth(t.Title) + 2*marginX; tw > contentWidth {
		contentWidth = tw
	}
	l.Width = contentWidth

	l.TitleY = marginY + titleHeight/2
	headerY := marginY + titleHeight + headerHeight/2
	for i, lvl := range t.Levels {
		l.Headers = append(l.Headers, Header{Level: lvl, X: centres[i], Y: headerY})
	}

	top := marginY + titleHeight + headerHeight + rowGap
	slot := 0
	ys := make(map[string]int, len(t.Nodes))
	var place func(n tree.Node) int
	place = func(n tree.Node) int {
		children := t.Children(n.ID)
		var y int
		if len(children) == 0 {
			y = top + slot*(nodeHeight+rowGap) + nodeHeight/2
			slot++
		} else {
			first := place(children[0])
			last := first
			for _, c := range children[1:] {
				last = place(c)
			}
			y = (first + last) / 2
		}
		ys[n.ID] = y
		return y
	}
	for _, root := range t.Roots() {
		place(root)
	}

	for _, n := range t.Nodes {
		l.index[n.ID] = len(l.Boxes)
		l.Boxes = append(l.Boxes, Box{
			Node: n,
			X:    centres[n.Depth],
			Y:    ys[n.ID],
			W:    textWidth(n.Label) + 2*nodePadX,
			H:    nodeHeight,
		})
	}
	rows := slot
	if rows == 0 {
		rows = 1
	}
	l.Height = top + rows*(nodeHeight+rowGap) + marginY
	return l
}

func textWidth(s string) int {
	return font.MeasureString(labelFace, s).Ceil()
}
