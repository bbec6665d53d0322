package raster

import (
	"math/rand"
	"reflect"
	"testing"
)

var (
	red   = Pixel{255, 0, 0, 255}
	blue  = Pixel{0, 0, 255, 255}
	green = Pixel{0, 255, 0, 255}
	ghost = Pixel{255, 0, 0, 128}
	none  = Pixel{}
)

func gridOf(rows ...[]Pixel) *Grid {
	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, p := range row {
			g.Set(x, y, p)
		}
	}
	return g
}

func TestExtractRuns(t *testing.T) {
	tests := []struct {
		name string
		grid *Grid
		want []Run
	}{
		{
			name: "single pixel",
			grid: gridOf([]Pixel{red}),
			want: []Run{{Row: 0, Start: 0, End: 1, Color: red}},
		},
		{
			name: "transparent splits run",
			grid: gridOf([]Pixel{red, red, none, red}),
			want: []Run{
				{Row: 0, Start: 0, End: 2, Color: red},
				{Row: 0, Start: 3, End: 4, Color: red},
			},
		},
		{
			name: "opacity splits run",
			grid: gridOf([]Pixel{red, ghost, ghost}),
			want: []Run{
				{Row: 0, Start: 0, End: 1, Color: red},
				{Row: 0, Start: 1, End: 3, Color: ghost},
			},
		},
		{
			name: "transparent color channels are ignored",
			grid: gridOf([]Pixel{{10, 20, 30, 0}, none}),
			want: nil,
		},
		{
			name: "row then column order",
			grid: gridOf(
				[]Pixel{none, blue, blue},
				[]Pixel{green, none, red},
			),
			want: []Run{
				{Row: 0, Start: 1, End: 3, Color: blue},
				{Row: 1, Start: 0, End: 1, Color: green},
				{Row: 1, Start: 2, End: 3, Color: red},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRuns(tt.grid)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractRuns() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name string
		grid *Grid
		want []Rect
	}{
		{
			name: "single pixel",
			grid: gridOf([]Pixel{red}),
			want: []Rect{{X: 0, Y: 0, W: 1, H: 1, Color: red}},
		},
		{
			name: "fully transparent",
			grid: gridOf([]Pixel{none, none}, []Pixel{none, none}),
			want: nil,
		},
		{
			name: "uniform block",
			grid: gridOf([]Pixel{red, red}, []Pixel{red, red}),
			want: []Rect{{X: 0, Y: 0, W: 2, H: 2, Color: red}},
		},
		{
			name: "checkerboard",
			grid: gridOf([]Pixel{red, blue}, []Pixel{blue, red}),
			want: []Rect{
				{X: 0, Y: 0, W: 1, H: 1, Color: red},
				{X: 1, Y: 0, W: 1, H: 1, Color: blue},
				{X: 0, Y: 1, W: 1, H: 1, Color: blue},
				{X: 1, Y: 1, W: 1, H: 1, Color: red},
			},
		},
		{
			name: "gap row stops extension",
			grid: gridOf([]Pixel{red}, []Pixel{none}, []Pixel{red}),
			want: []Rect{
				{X: 0, Y: 0, W: 1, H: 1, Color: red},
				{X: 0, Y: 2, W: 1, H: 1, Color: red},
			},
		},
		{
			name: "different span stops extension",
			grid: gridOf(
				[]Pixel{red, red},
				[]Pixel{red, red},
				[]Pixel{red, none},
				[]Pixel{red, none},
			),
			want: []Rect{
				{X: 0, Y: 0, W: 2, H: 2, Color: red},
				{X: 0, Y: 2, W: 1, H: 2, Color: red},
			},
		},
		{
			name: "different opacity stops extension",
			grid: gridOf([]Pixel{red}, []Pixel{ghost}, []Pixel{ghost}),
			want: []Rect{
				{X: 0, Y: 0, W: 1, H: 1, Color: red},
				{X: 0, Y: 1, W: 1, H: 2, Color: ghost},
			},
		},
		{
			name: "seeds are emitted in scan order",
			grid: gridOf(
				[]Pixel{none, blue},
				[]Pixel{red, blue},
				[]Pixel{red, none},
			),
			want: []Rect{
				{X: 1, Y: 0, W: 1, H: 2, Color: blue},
				{X: 0, Y: 1, W: 1, H: 2, Color: red},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decompose(tt.grid)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decompose() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// linearMerge is the list-scanning formulation of the merge: pop the head,
// then walk the remaining runs removing each one that extends the rectangle.
func linearMerge(runs []Run) []Rect {
	pending := append([]Run(nil), runs...)
	var rects []Rect
	for len(pending) > 0 {
		seed := pending[0]
		pending = pending[1:]
		h := 1
		for i := 0; i < len(pending); {
			r := pending[i]
			if r.Row == seed.Row+h && r.Start == seed.Start && r.End == seed.End && r.Color == seed.Color {
				h++
				pending = append(pending[:i], pending[i+1:]...)
				continue
			}
			i++
		}
		rects = append(rects, Rect{X: seed.Start, Y: seed.Row, W: seed.Len(), H: h, Color: seed.Color})
	}
	return rects
}

func randomGrid(rng *rand.Rand, w, h int) *Grid {
	palette := []Pixel{none, red, blue, ghost}
	g := NewGrid(w, h)
	for i := range g.Pix {
		// Bias toward repeating the left or upper neighbor so runs and stacks form.
		switch n := rng.Intn(10); {
		case n < 4 && i%w > 0:
			g.Pix[i] = g.Pix[i-1]
		case n < 7 && i >= w:
			g.Pix[i] = g.Pix[i-w]
		default:
			g.Pix[i] = palette[rng.Intn(len(palette))]
		}
	}
	return g
}

func TestMergeRunsMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		g := randomGrid(rng, 1+rng.Intn(12), 1+rng.Intn(12))
		runs := ExtractRuns(g)
		got := MergeRuns(runs)
		want := linearMerge(runs)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("grid %d: MergeRuns() = %+v, linear scan = %+v", i, got, want)
		}
	}
}

func TestDecomposeCoversExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		g := randomGrid(rng, 1+rng.Intn(16), 1+rng.Intn(16))
		cover := make([]int, len(g.Pix))
		for _, r := range Decompose(g) {
			for y := r.Y; y < r.Y+r.H; y++ {
				for x := r.X; x < r.X+r.W; x++ {
					cover[y*g.Width+x]++
					if p := g.At(x, y); p != r.Color {
						t.Fatalf("grid %d: rect %+v covers (%d,%d) with color %+v", i, r, x, y, p)
					}
				}
			}
		}
		for j, p := range g.Pix {
			want := 1
			if p.Transparent() {
				want = 0
			}
			if cover[j] != want {
				t.Fatalf("grid %d: pixel %d covered %d times, want %d", i, j, cover[j], want)
			}
		}
	}
}

func TestDecomposeDeterministic(t *testing.T) {
	g := randomGrid(rand.New(rand.NewSource(1)), 32, 32)
	first := Decompose(g)
	for i := 0; i < 5; i++ {
		if got := Decompose(g); !reflect.DeepEqual(got, first) {
			t.Fatal("Decompose() is not deterministic")
		}
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 1, Y: 2, W: 3, H: 2}
	if !r.Contains(1, 2) || !r.Contains(3, 3) {
		t.Error("Contains() should include the corners")
	}
	if r.Contains(4, 2) || r.Contains(1, 4) || r.Contains(0, 2) {
		t.Error("Contains() should exclude pixels outside the rect")
	}
	if r.Area() != 6 {
		t.Errorf("Area() = %d, want 6", r.Area())
	}
}
