package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pxsvg/pkg/errors"
	"github.com/matzehuels/pxsvg/pkg/raster"
	"github.com/matzehuels/pxsvg/pkg/svg"
)

var (
	red   = raster.Pixel{R: 255, A: 255}
	blue  = raster.Pixel{B: 255, A: 255}
	ghost = raster.Pixel{G: 200, A: 128}
)

func grid(w, h int, pix ...raster.Pixel) *raster.Grid {
	g := raster.NewGrid(w, h)
	copy(g.Pix, pix)
	return g
}

func render(g *raster.Grid, scale int) []byte {
	return svg.Render(raster.Decompose(g), g.Width, g.Height, svg.WithScale(scale))
}

func TestRasterizeSinglePixel(t *testing.T) {
	img, err := Rasterize(render(grid(1, 1, red), 1), 8, 8)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if got := img.RGBAAt(4, 4); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("center = %v, want opaque red", got)
	}
}

func TestRasterizeErrors(t *testing.T) {
	doc := render(grid(1, 1, red), 1)
	tests := []struct {
		name string
		data []byte
		w, h int
		code errors.Code
	}{
		{"zero size", doc, 0, 4, errors.ErrCodeInvalidInput},
		{"too large", doc, MaxSize + 1, 4, errors.ErrCodeInvalidInput},
		{"not svg", []byte("hello"), 4, 4, errors.ErrCodeDecode},
		{"no viewBox", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 4, 4, errors.ErrCodeDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rasterize(tt.data, tt.w, tt.h)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSizeAndFit(t *testing.T) {
	doc := render(grid(4, 2, red), 3)
	w, h, err := Size(doc)
	if err != nil {
		t.Fatal(err)
	}
	if w != 12 || h != 6 {
		t.Errorf("Size = %dx%d, want 12x6", w, h)
	}

	tests := []struct {
		size, w, h int
	}{
		{0, 12, 6},
		{100, 100, 50},
		{3, 3, 2},
	}
	for _, tt := range tests {
		w, h, err := Fit(doc, tt.size)
		if err != nil {
			t.Fatal(err)
		}
		if w != tt.w || h != tt.h {
			t.Errorf("Fit(%d) = %dx%d, want %dx%d", tt.size, w, h, tt.w, tt.h)
		}
	}
}

func TestUpscale(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	src.SetNRGBA(1, 0, color.NRGBA{0, 0, 255, 80})

	dst := Upscale(src, 4, 2)
	if dst.Bounds().Dx() != 4 || dst.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", dst.Bounds())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			want := src.NRGBAAt(x/2, 0)
			if got := dst.NRGBAAt(x, y); got != want {
				t.Errorf("(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestMismatchesExactReproduction(t *testing.T) {
	none := raster.Pixel{}
	tests := []struct {
		name string
		g    *raster.Grid
	}{
		{"uniform", grid(2, 2, red, red, red, red)},
		{"checkerboard", grid(2, 2, red, blue, blue, red)},
		{"transparent gaps", grid(3, 2, red, none, red, none, ghost, none)},
		{"translucent block", grid(2, 2, ghost, ghost, ghost, blue)},
		{"empty", grid(2, 1, none, none)},
	}
	for _, tt := range tests {
		for _, scale := range []int{2, 3, 5} {
			n, err := Mismatches(render(tt.g, scale), tt.g)
			if err != nil {
				t.Fatalf("%s@%d: %v", tt.name, scale, err)
			}
			if n != 0 {
				t.Errorf("%s@%d: %d mismatched pixels", tt.name, scale, n)
			}
		}
	}
}

func TestMismatchesDetectsDifference(t *testing.T) {
	g := grid(2, 1, red, blue)
	other := grid(2, 1, red, red)
	n, err := Mismatches(render(other, 2), g)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("mismatches = %d, want 1", n)
	}
}

func TestMismatchesRejects(t *testing.T) {
	g := grid(2, 2, red, red, red, red)
	if _, err := Mismatches(render(g, 1), g); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("scale 1: error = %v, want UNSUPPORTED", err)
	}
	if _, err := Mismatches(render(grid(3, 2, red, red, red, red, red, red), 2), g); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("size mismatch: error = %v, want INVALID_INPUT", err)
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "previews", "dot.png")
	img, err := Rasterize(render(grid(1, 1, blue), 4), 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := WritePNG(path, img); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 4 {
		t.Errorf("width = %d, want 4", decoded.Bounds().Dx())
	}
}
