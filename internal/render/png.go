package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const titleScale = 2

// WritePNG rasterises the layout and encodes it as PNG.
func WritePNG(w io.Writer, l *Layout) error {
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	drawScaledText(img, l.Title, l.Width/2, l.TitleY, titleScale, color.Black)
	for _, h := range l.Headers {
		drawText(img, string(h.Level), h.X, h.Y, color.Black)
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
		drawCurve(img, from.X+from.W/2, from.Y, to.X-to.W/2, to.Y, color.Black)
	}
	for _, b := range l.Boxes {
		st := styleFor(b.Node)
		fillEllipse(img, b.X, b.Y, b.W/2, b.H/2, parseHex(st.fill), parseHex(st.border), st.pen)
		drawText(img, b.Node.Label, b.X, b.Y, parseHex(st.font))
	}
	return png.Encode(w, img)
}

func pngBytes(l *Layout) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := WritePNG(buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawText centres s on (cx, cy).
func drawText(dst draw.Image, s string, cx, cy int, c color.Color) {
	dr := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: labelFace}
	tw := dr.MeasureString(s).Ceil()
	m := labelFace.Metrics()
	baseline := cy + (m.Ascent.Ceil()-m.Descent.Ceil())/2
	dr.Dot = fixed.Point26_6{X: fixed.I(cx - tw/2), Y: fixed.I(baseline)}
	dr.DrawString(s)
}

// drawScaledText renders s into a scratch image and scales it up with
// nearest-neighbour sampling, since the bitmap face has a single size.
func drawScaledText(dst draw.Image, s string, cx, cy, scale int, c color.Color) {
	if s == "" {
		return
	}
	m := labelFace.Metrics()
	tw := font.MeasureString(labelFace, s).Ceil()
	th := m.Height.Ceil()
	scratch := image.NewRGBA(image.Rect(0, 0, tw, th))
	dr := &font.Drawer{Dst: scratch, Src: image.NewUniform(c), Face: labelFace, Dot: fixed.P(0, m.Ascent.Ceil())}
	dr.DrawString(s)
	w, h := tw*scale, th*scale
	target := image.Rect(cx-w/2, cy-h/2, cx-w/2+w, cy-h/2+h)
	xdraw.NearestNeighbor.Scale(dst, target, scratch, scratch.Bounds(), xdraw.Over, nil)
}

func fillEllipse(img *image.RGBA, cx, cy, rx, ry int, fill, border color.RGBA, pen int) {
	if rx <= 0 || ry <= 0 {
		return
	}
	outer := float64(rx*rx) * float64(ry*ry)
	irx, iry := rx-pen, ry-pen
	for y := -ry; y <= ry; y++ {
		for x := -rx; x <= rx; x++ {
			fx, fy := float64(x), float64(y)
			if fx*fx*float64(ry*ry)+fy*fy*float64(rx*rx) > outer {
				continue
			}
			c := border
			if irx > 0 && iry > 0 && fx*fx/float64(irx*irx)+fy*fy/float64(iry*iry) <= 1 {
				c = fill
			}
			img.SetRGBA(cx+x, cy+y, c)
		}
	}
}

// drawCurve samples the same cubic used by the SVG writer.
func drawCurve(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	const steps = 48
	mid := float64(x1+x2) / 2
	px, py := float64(x1), float64(y1)
	for i := 1; i <= steps; i++ {
		t := float64(i) / steps
		u := 1 - t
		x := u*u*u*float64(x1) + 3*u*u*t*mid + 3*u*t*t*mid + t*t*t*float64(x2)
		y := u*u*u*float64(y1) + 3*u*u*t*float64(y1) + 3*u*t*t*float64(y2) + t*t*t*float64(y2)
		drawLine(img, int(px+0.5), int(py+0.5), int(x+0.5), int(y+0.5), c)
		px, py = x, y
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
