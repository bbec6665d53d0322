// Package raster decomposes bitmaps into axis-aligned, single-color rectangles.
//
// # Overview
//
// The decomposition runs in three strictly sequential stages:
//
//  1. [Decode] / [FromImage]: normalize a bitmap into a [Grid] of 8-bit
//     non-premultiplied RGBA [Pixel] values.
//  2. [ExtractRuns]: scan each row left to right and collect maximal
//     horizontal [Run]s of identical pixels, skipping fully transparent ones.
//  3. [MergeRuns]: greedily stack vertically adjacent runs with the same span
//     and color into [Rect]s.
//
// [Decompose] chains stages 2 and 3.
//
// # Guarantees
//
// The rectangles produced for one grid are pairwise disjoint, each covers
// pixels of a single color, and together they cover exactly the
// non-transparent pixels. The output is a deterministic function of the grid.
//
// The merge is a heuristic: it stops extending a rectangle at the first row
// without an identical run and never retries from another seed. It does not
// compute a minimum rectangle cover.
//
//	g, err := raster.Load("pointer.png")
//	if err != nil {
//	    return err
//	}
//	rects := raster.Decompose(g)
package raster
