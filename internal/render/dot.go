package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"phylotree/internal/tree"
	"phylotree/pkg/taxonomy"
)

// Highlight styling for selected species.
const (
	HighlightFill   = "#FFD1DC"
	HighlightBorder = "#FF69B4"
	HighlightFont   = "#880E4F"
)

// WriteDOT writes the graphviz description of t.
func WriteDOT(w io.Writer, t *tree.Tree) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph {")
	fmt.Fprintf(bw, "\tgraph [fontname=Arial fontsize=30 label=%s labeljust=c labelloc=t nodesep=0.7 rankdir=LR ranksep=1.2]\n", quote(t.Title))

	for _, lvl := range t.Levels {
		fmt.Fprintf(bw, "\t%s [label=%s fontname=Arial fontsize=16 shape=plaintext]\n", quote(headerID(lvl)), quote(string(lvl)))
	}
	for _, n := range t.Nodes {
		fill, border, font, pen := n.Level.Color(), "black", "black", 1
		if n.Highlight {
			fill, border, font, pen = HighlightFill, HighlightBorder, HighlightFont, 3
		}
		fmt.Fprintf(bw, "\t%s [label=%s color=%s fillcolor=%s fontcolor=%s fontname=Helvetica fontsize=12 penwidth=%d shape=ellipse style=filled]\n",
			quote(n.ID), quote(n.Label), quote(border), quote(fill), quote(font), pen)
	}
	for _, lvl := range t.Levels {
		column := t.Column(lvl)
		fmt.Fprintln(bw, "\t{")
		fmt.Fprintln(bw, "\t\trank=same")
		fmt.Fprintf(bw, "\t\t%s\n", quote(headerID(lvl)))
		for _, n := range column {
			fmt.Fprintf(bw, "\t\t%s\n", quote(n.ID))
		}
		fmt.Fprintln(bw, "\t}")
		for _, n := range column {
			fmt.Fprintf(bw, "\t%s -> %s [style=invis]\n", quote(headerID(lvl)), quote(n.ID))
		}
	}
	for _, e := range t.Edges {
		fmt.Fprintf(bw, "\t%s -> %s\n", quote(e.From), quote(e.To))
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// DOT returns the graphviz description of t.
func DOT(t *tree.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDOT(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func headerID(lvl taxonomy.Level) string { return "header_" + string(lvl) }

var dotEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
)

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
