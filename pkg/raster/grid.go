package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/pxsvg/pkg/errors"
)

// Pixel is a non-premultiplied 8-bit RGBA sample. A zero alpha marks a
// transparent pixel; two pixels are identical iff all four channels match.
type Pixel struct {
	R, G, B, A uint8
}

// Transparent reports whether p has zero opacity.
func (p Pixel) Transparent() bool { return p.A == 0 }

// Opacity returns the alpha channel as a fraction in [0, 1].
func (p Pixel) Opacity() float64 { return float64(p.A) / 255.0 }

// Opaque reports whether p is fully opaque.
func (p Pixel) Opaque() bool { return p.A == 0xff }

// String formats the color as "rgb(r,g,b)".
func (p Pixel) String() string { return fmt.Sprintf("rgb(%d,%d,%d)", p.R, p.G, p.B) }

// Grid is a row-major array of pixels with the exact dimensions of its source.
type Grid struct {
	Width  int
	Height int
	Pix    []Pixel
}

// NewGrid returns a fully transparent grid of the given size.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Pix: make([]Pixel, width*height)}
}

// At returns the pixel at column x, row y.
func (g *Grid) At(x, y int) Pixel { return g.Pix[y*g.Width+x] }

// Set stores p at column x, row y.
func (g *Grid) Set(x, y int, p Pixel) { g.Pix[y*g.Width+x] = p }

// Row returns the pixels of row y. The slice aliases the grid.
func (g *Grid) Row(y int) []Pixel { return g.Pix[y*g.Width : (y+1)*g.Width] }

// Opaque returns the number of non-transparent pixels.
func (g *Grid) Opaque() int {
	n := 0
	for _, p := range g.Pix {
		if !p.Transparent() {
			n++
		}
	}
	return n
}

// Load reads and decodes the bitmap file at path.
func Load(path string) (*Grid, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// DecodeBytes decodes a bitmap held in memory.
func DecodeBytes(data []byte) (*Grid, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeDecode, "empty image data")
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes a bitmap in any registered format into a Grid.
// Corrupt data, unknown formats and empty images fail with DECODE_ERROR.
func Decode(r io.Reader) (*Grid, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode image")
	}
	g, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	return g, nil
}

// FromImage normalizes img to 8 bits per channel, non-premultiplied.
// Images without an alpha channel come out fully opaque.
func FromImage(img image.Image) (*Grid, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New(errors.ErrCodeDecode, "image has zero dimensions (%dx%d)", b.Dx(), b.Dy())
	}
	g := NewGrid(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < g.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < g.Width; x++ {
				i := x * 4
				g.Set(x, y, Pixel{row[i], row[i+1], row[i+2], row[i+3]})
			}
		}
	case *image.NRGBA64:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				g.Set(x, y, pixel64(src.NRGBA64At(b.Min.X+x, b.Min.Y+y)))
			}
		}
	case *image.RGBA64, *image.Gray16:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				g.Set(x, y, pixel64(color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)))
			}
		}
	default:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				g.Set(x, y, Pixel{c.R, c.G, c.B, c.A})
			}
		}
	}
	return g, nil
}

// pixel64 reduces a 16-bit color to 8 bits per channel, rounding to the
// nearest value (v/257).
func pixel64(c color.NRGBA64) Pixel {
	return Pixel{to8(c.R), to8(c.G), to8(c.B), to8(c.A)}
}

func to8(v uint16) uint8 { return uint8((uint32(v)*255 + 32767) / 65535) }

// Image returns g as an *image.NRGBA with origin (0, 0).
func (g *Grid) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			p := g.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A})
		}
	}
	return img
}
