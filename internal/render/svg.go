package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
)

// WriteSVG writes the layout as a standalone SVG document.
func WriteSVG(w io.Writer, l *Layout) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, l.Width, l.Height, l.Width, l.Height)
	bw.WriteString("\n")
	bw.WriteString(`<style>
  .title { font-family: Arial, sans-serif; font-size: 30px; fill: #000; }
  .header { font-family: Arial, sans-serif; font-size: 16px; fill: #000; }
  .label { font-family: Helvetica, Arial, sans-serif; font-size: 12px; }
  .link { stroke: #000; stroke-width: 1; fill: none; }
</style>
`)
	fmt.Fprintf(bw, `<rect width="%d" height="%d" fill="#ffffff"/>`+"\n", l.Width, l.Height)
	fmt.Fprintf(bw, `<text class="title" x="%d" y="%d" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		l.Width/2, l.TitleY, html.EscapeString(l.Title))

	for _, h := range l.Headers {
		fmt.Fprintf(bw, `<text class="header" x="%d" y="%d" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			h.X, h.Y, html.EscapeString(string(h.Level)))
	}
	for _, e := range l.Edges {
		from, ok := l.Box(e.From)
		if !ok {
			continue
		}
		to, ok := l.Box(e.To)
		if !ok {
			continue
		}
		x1, x2 := from.X+from.W/2, to.X-to.W/2
		mid := (x1 + x2) / 2
		fmt.Fprintf(bw, `<path class="link" d="M%d,%d C%d,%d %d,%d %d,%d"/>`+"\n",
			x1, from.Y, mid, from.Y, mid, to.Y, x2, to.Y)
	}
	for _, b := range l.Boxes {
		st := styleFor(b.Node)
		fmt.Fprintf(bw, `<ellipse cx="%d" cy="%d" rx="%d" ry="%d" fill="%s" stroke="%s" stroke-width="%d"/>`+"\n",
			b.X, b.Y, b.W/2, b.H/2, st.fill, st.border, st.pen)
		fmt.Fprintf(bw, `<text class="label" x="%d" y="%d" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			b.X, b.Y, st.font, html.EscapeString(b.Node.Label))
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}
