package raster

// Rect is an axis-aligned block of identical pixels in grid coordinates.
type Rect struct {
	X, Y  int
	W, H  int
	Color Pixel
}

// Area returns the number of pixels covered by r.
func (r Rect) Area() int { return r.W * r.H }

// Contains reports whether pixel (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// runKey identifies a run by row, span and color. Runs within a row are
// disjoint, so a key matches at most one run.
type runKey struct {
	row, start, end int
	color           Pixel
}

// MergeRuns greedily stacks runs into rectangles.
//
// Runs are taken as seeds in input order. A seed grows downward while the
// next row holds an unconsumed run with the same span and color; the first
// row without one ends the rectangle for good. Rectangles are returned in
// seed order. runs must be in the order produced by [ExtractRuns].
func MergeRuns(runs []Run) []Rect {
	index := make(map[runKey]int, len(runs))
	for i, r := range runs {
		index[runKey{r.Row, r.Start, r.End, r.Color}] = i
	}
	consumed := make([]bool, len(runs))

	var rects []Rect
	for i, seed := range runs {
		if consumed[i] {
			continue
		}
		consumed[i] = true
		height := 1
		for {
			j, ok := index[runKey{seed.Row + height, seed.Start, seed.End, seed.Color}]
			if !ok || consumed[j] {
				break
			}
			consumed[j] = true
			height++
		}
		rects = append(rects, Rect{
			X:     seed.Start,
			Y:     seed.Row,
			W:     seed.Len(),
			H:     height,
			Color: seed.Color,
		})
	}
	return rects
}

// Decompose extracts the runs of g and merges them into rectangles.
func Decompose(g *Grid) []Rect {
	return MergeRuns(ExtractRuns(g))
}
