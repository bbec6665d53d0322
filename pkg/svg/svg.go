// Package svg writes rectangle decompositions as SVG documents.
//
// Each rectangle becomes one <rect> inside a single <g> container. Coordinates
// are multiplied by an integer scale, and every rect is then grown by a fixed
// half unit and given a matching 0.5-wide stroke, which closes the hairline
// seams renderers leave between abutting shapes. The root carries
// shape-rendering="crispEdges" so scaled output stays pixel-sharp.
//
//	rects := raster.Decompose(g)
//	data := svg.Render(rects, g.Width, g.Height, svg.WithScale(4))
//
// Output is deterministic: the same rectangles and scale always produce the
// same bytes.
package svg

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/pxsvg/pkg/raster"
)

const (
	// Namespace is the SVG XML namespace declared on the root element.
	Namespace = "http://www.w3.org/2000/svg"

	// Overlap is added to every scaled rect width and height.
	Overlap = 0.5

	// StrokeWidth is the fixed stroke width of every rect.
	StrokeWidth = "0.5"

	indent = "  "
)

// Option configures document rendering.
type Option func(*Document)

// WithScale sets the uniform integer scale factor. Values below 1 are ignored.
func WithScale(s int) Option {
	return func(d *Document) {
		if s >= 1 {
			d.Scale = s
		}
	}
}

// Document is a vector rendition of one bitmap.
type Document struct {
	// Width and Height are the source dimensions in pixels.
	Width, Height int
	// Scale multiplies every coordinate before the overlap is added.
	Scale int
	// Rects are emitted in order.
	Rects []raster.Rect
}

// New builds a document for rects over a width×height source.
func New(rects []raster.Rect, width, height int, opts ...Option) *Document {
	d := &Document{Width: width, Height: height, Scale: 1, Rects: rects}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CanvasWidth returns the scaled canvas width.
func (d *Document) CanvasWidth() int { return d.Width * d.Scale }

// CanvasHeight returns the scaled canvas height.
func (d *Document) CanvasHeight() int { return d.Height * d.Scale }

// Render is shorthand for New(rects, width, height, opts...).Bytes().
func Render(rects []raster.Rect, width, height int, opts ...Option) []byte {
	return New(rects, width, height, opts...).Bytes()
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	d.write(&buf)
	return buf.Bytes()
}

// WriteTo writes the serialized document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	d.write(&buf)
	return buf.WriteTo(w)
}

func (d *Document) write(buf *bytes.Buffer) {
	cw, ch := d.CanvasWidth(), d.CanvasHeight()
	fmt.Fprintf(buf, `<svg width="%d" height="%d" xmlns="%s" version="1.1" viewBox="0 0 %d %d" shape-rendering="crispEdges">`+"\n",
		cw, ch, Namespace, cw, ch)

	if len(d.Rects) == 0 {
		buf.WriteString(indent + "<g/>\n")
	} else {
		buf.WriteString(indent + "<g>\n")
		for _, r := range d.Rects {
			writeRect(buf, r, d.Scale)
		}
		buf.WriteString(indent + "</g>\n")
	}

	buf.WriteString("</svg>\n")
}

func writeRect(buf *bytes.Buffer, r raster.Rect, scale int) {
	color := r.Color.String()
	fmt.Fprintf(buf, `%s%s<rect x="%d" y="%d" width="%s" height="%s" fill="%s" stroke="%s" stroke-width="%s"`,
		indent, indent,
		r.X*scale, r.Y*scale,
		formatFloat(float64(r.W*scale)+Overlap), formatFloat(float64(r.H*scale)+Overlap),
		color, color, StrokeWidth)
	if !r.Color.Opaque() {
		op := formatFloat(r.Color.Opacity())
		fmt.Fprintf(buf, ` fill-opacity="%s" stroke-opacity="%s"`, op, op)
	}
	buf.WriteString("/>\n")
}

// formatFloat prints v in its shortest round-trip decimal form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
