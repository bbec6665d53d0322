// Package preview rasterizes generated documents back into bitmaps.
//
// It is used to eyeball conversions (pxsvg preview) and to check that a
// document reproduces its source: Mismatches renders the document and
// compares the center of every source pixel's block with the source grid.
package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"github.com/matzehuels/pxsvg/pkg/errors"
	"github.com/matzehuels/pxsvg/pkg/fsutil"
	"github.com/matzehuels/pxsvg/pkg/raster"
)

// MaxSize bounds the edge length of rendered previews.
const MaxSize = 8192

// verifyFactor is the oversampling used by Mismatches. At four render pixels
// per canvas unit a neighbor's overlap and stroke stay clear of the center
// pixel of every block for documents of scale 2 and up.
const verifyFactor = 4

// Tolerance is the largest per-channel difference Mismatches accepts.
// Compositing semi-transparent colors loses a little precision.
const Tolerance = 2

func parse(data []byte) (*oksvg.SvgIcon, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "parse svg")
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, errors.New(errors.ErrCodeDecode, "svg has no usable viewBox")
	}
	return icon, nil
}

// Size returns the canvas size declared by the document's viewBox.
func Size(data []byte) (w, h int, err error) {
	icon, err := parse(data)
	if err != nil {
		return 0, 0, err
	}
	return int(math.Round(icon.ViewBox.W)), int(math.Round(icon.ViewBox.H)), nil
}

// Rasterize renders the document onto a w×h transparent canvas, stretching
// the viewBox to fill it.
func Rasterize(data []byte, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 || w > MaxSize || h > MaxSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "preview size %dx%d out of range (1..%d)", w, h, MaxSize)
	}
	icon, err := parse(data)
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}

// Fit returns the largest size with the document's aspect ratio whose longer
// edge is size.
func Fit(data []byte, size int) (w, h int, err error) {
	cw, ch, err := Size(data)
	if err != nil {
		return 0, 0, err
	}
	if size <= 0 {
		return cw, ch, nil
	}
	f := float64(size) / float64(max(cw, ch))
	return max(1, int(math.Round(float64(cw)*f))), max(1, int(math.Round(float64(ch)*f))), nil
}

// Upscale resizes img to w×h with nearest-neighbor sampling, keeping hard
// pixel edges.
func Upscale(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Rect, img, img.Bounds(), draw.Src, nil)
	return dst
}

// Mismatches renders the document and counts source pixels whose rendered
// block center differs from g by more than Tolerance in any channel.
//
// The document canvas must be an integer multiple (at least 2) of the grid
// size. At scale 1 the overlap covers half a pixel, so no sample point is
// free of neighbor paint and the check is unsupported.
func Mismatches(data []byte, g *raster.Grid) (int, error) {
	cw, ch, err := Size(data)
	if err != nil {
		return 0, err
	}
	if cw%g.Width != 0 || ch%g.Height != 0 || cw/g.Width != ch/g.Height {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"canvas %dx%d is not a uniform multiple of %dx%d", cw, ch, g.Width, g.Height)
	}
	scale := cw / g.Width
	if scale < 2 {
		return 0, errors.New(errors.ErrCodeUnsupported, "cannot verify documents rendered at scale %d", scale)
	}

	block := scale * verifyFactor
	img, err := Rasterize(data, cw*verifyFactor, ch*verifyFactor)
	if err != nil {
		return 0, err
	}

	n := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			got := color.NRGBAModel.Convert(img.At(x*block+block/2, y*block+block/2)).(color.NRGBA)
			if !matches(got, g.At(x, y)) {
				n++
			}
		}
	}
	return n, nil
}

func matches(c color.NRGBA, p raster.Pixel) bool {
	if p.Transparent() || c.A == 0 {
		return p.A <= Tolerance && c.A <= Tolerance
	}
	return near(c.R, p.R) && near(c.G, p.G) && near(c.B, p.B) && near(c.A, p.A)
}

func near(a, b uint8) bool {
	if a > b {
		return a-b <= Tolerance
	}
	return b-a <= Tolerance
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(errors.ErrCodeEncode, err, "encode png")
	}
	return nil
}

// WritePNG writes img as PNG to path atomically.
func WritePNG(path string, img image.Image) error {
	return fsutil.WriteAtomic(path, 0644, func(w io.Writer) error {
		return EncodePNG(w, img)
	})
}
