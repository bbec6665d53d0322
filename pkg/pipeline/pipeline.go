// Package pipeline provides the conversion pipeline for pxsvg.
//
// This package implements the complete decode → runs → merge → emit pipeline
// used by the CLI, the batch mirror and the HTTP server. By centralizing this
// logic, every entry point produces byte-identical documents for the same input.
//
// # Architecture
//
// The pipeline consists of four strictly sequential stages:
//
//  1. Decode: normalize the bitmap into a raster.Grid
//  2. Runs: extract maximal horizontal runs per row
//  3. Merge: stack identical runs into rectangles
//  4. Emit: serialize the rectangles as an SVG document
//
// Each stage consumes its predecessor's full output. Stages of one image are
// never parallelized, since merge decisions depend on run order; different
// images share nothing and may be converted concurrently.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Convert(ctx, pngBytes, pipeline.Options{Scale: 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.SVG)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pxsvg/pkg/cache"
	"github.com/matzehuels/pxsvg/pkg/errors"
)

// DefaultScale is the default uniform scale factor.
const DefaultScale = 1

// Options configures a single conversion.
type Options struct {
	// Scale multiplies all coordinates and sizes. Zero means DefaultScale.
	Scale int `json:"scale,omitempty"`

	// Refresh bypasses cache reads; the result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Source labels the input in logs and hooks (path or request ID).
	Source string `json:"-"`

	// Logger overrides the runner's logger for this conversion.
	Logger *log.Logger `json:"-"`
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return errors.ValidateScale(o.Scale)
}

// ArtifactKeyOpts returns cache key options for the rendered document.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Scale: o.Scale}
}

// Result contains the outputs of one conversion.
type Result struct {
	// SVG is the complete serialized document.
	SVG []byte `json:"svg"`

	// Width and Height are the source dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Runs is the number of horizontal runs extracted.
	Runs int `json:"runs"`

	// Rects is the number of rectangles emitted.
	Rects int `json:"rects"`

	// SourceHash is the SHA-256 of the source bytes.
	SourceHash string `json:"source_hash"`

	// Stats contains timing information. Zero on cache hits.
	Stats Stats `json:"-"`

	// CacheHit reports whether the document came from the cache.
	CacheHit bool `json:"-"`
}

// Stats contains per-stage timings.
type Stats struct {
	DecodeTime time.Duration
	RunsTime   time.Duration
	MergeTime  time.Duration
	EmitTime   time.Duration
}

// Total returns the sum of all stage timings.
func (s Stats) Total() time.Duration {
	return s.DecodeTime + s.RunsTime + s.MergeTime + s.EmitTime
}
