package raster

// Run is a maximal horizontal span of identical, non-transparent pixels.
// End is exclusive.
type Run struct {
	Row   int
	Start int
	End   int
	Color Pixel
}

// Len returns the number of pixels in the run.
func (r Run) Len() int { return r.End - r.Start }

// ExtractRuns scans g row by row, top to bottom, and each row left to right.
// Transparent pixels never join a run; the first differing or transparent
// pixel closes the current one. Runs are ordered by row, then start column.
func ExtractRuns(g *Grid) []Run {
	var runs []Run
	for y := 0; y < g.Height; y++ {
		row := g.Row(y)
		for x := 0; x < len(row); {
			p := row[x]
			if p.Transparent() {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] == p {
				x++
			}
			runs = append(runs, Run{Row: y, Start: start, End: x, Color: p})
		}
	}
	return runs
}
