package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pxsvg/pkg/cache"
	"github.com/matzehuels/pxsvg/pkg/errors"
	"github.com/matzehuels/pxsvg/pkg/fsutil"
	"github.com/matzehuels/pxsvg/pkg/observability"
	"github.com/matzehuels/pxsvg/pkg/raster"
	"github.com/matzehuels/pxsvg/pkg/svg"
)

const cacheKeyType = "svg"

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store conversion results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long stored documents stay valid. NewRunner sets it to
	// cache.TTLArtifact; zero means no expiry.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLArtifact,
	}
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Convert turns bitmap bytes into an SVG document. It either returns a
// complete result or an error; no partial state is exposed.
func (r *Runner) Convert(ctx context.Context, data []byte, opts Options) (res *Result, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	hooks := observability.Convert()
	hooks.OnConvertStart(ctx, opts.Source)
	start := time.Now()
	defer func() {
		var stats observability.ConvertStats
		if res != nil {
			stats = observability.ConvertStats{
				Width: res.Width, Height: res.Height,
				Runs: res.Runs, Rects: res.Rects, Bytes: len(res.SVG),
			}
		}
		hooks.OnConvertComplete(ctx, opts.Source, stats, time.Since(start), err)
	}()

	sourceHash := cache.Hash(data)
	cacheKey := r.Keyer.ArtifactKey(sourceHash, opts.ArtifactKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, cacheKey); ok {
			logger.Debug("cache hit", "source", opts.Source, "rects", cached.Rects)
			return cached, nil
		}
	}

	res, err = convert(data, opts.Scale)
	if err != nil {
		return nil, err
	}
	res.SourceHash = sourceHash

	logger.Debug("converted",
		"source", opts.Source,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"runs", res.Runs,
		"rects", res.Rects,
		"duration", res.Stats.Total())

	r.store(ctx, cacheKey, res)
	return res, nil
}

// convert runs the four stages without caching.
func convert(data []byte, scale int) (*Result, error) {
	var stats Stats

	t := time.Now()
	g, err := raster.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	stats.DecodeTime = time.Since(t)

	t = time.Now()
	runs := raster.ExtractRuns(g)
	stats.RunsTime = time.Since(t)

	t = time.Now()
	rects := raster.MergeRuns(runs)
	stats.MergeTime = time.Since(t)

	t = time.Now()
	doc := svg.New(rects, g.Width, g.Height, svg.WithScale(scale)).Bytes()
	stats.EmitTime = time.Since(t)

	return &Result{
		SVG:    doc,
		Width:  g.Width,
		Height: g.Height,
		Runs:   len(runs),
		Rects:  len(rects),
		Stats:  stats,
	}, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil || len(res.SVG) == 0 {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	res.CacheHit = true
	return &res, true
}

func (r *Runner) store(ctx context.Context, key string, res *Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Debug("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
}

// ConvertFile converts the bitmap at src and writes the document to dst.
// dst is written atomically: on failure no file (and no partial file) is
// left at dst.
func (r *Runner) ConvertFile(ctx context.Context, src, dst string, opts Options) (*Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", src)
	}
	if opts.Source == "" {
		opts.Source = src
	}

	res, err := r.Convert(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	if err := fsutil.WriteFileAtomic(dst, res.SVG, 0644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "write %s", dst)
	}
	return res, nil
}
