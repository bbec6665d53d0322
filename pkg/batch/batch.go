// Package batch mirrors a directory tree, converting bitmaps to SVG.
//
// Mirror walks an input directory, recreates its structure under an output
// directory, converts every file whose extension matches one of the
// configured image extensions and copies every other file unchanged
// (content, permission bits and modification time).
//
// Files are processed on a bounded worker pool. A file that fails to
// convert or copy is recorded in the Report and logged; it never aborts
// the rest of the batch. Cancelling the context stops scheduling new files.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	report, err := batch.Mirror(ctx, runner, batch.Options{
//	    In:  "themes/src",
//	    Out: "themes/svg",
//	})
package batch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pxsvg/pkg/errors"
	"github.com/matzehuels/pxsvg/pkg/fsutil"
	"github.com/matzehuels/pxsvg/pkg/pipeline"
)

// DefaultExtensions lists the image extensions converted when none are set.
var DefaultExtensions = []string{".png"}

// Converter converts a single file. *pipeline.Runner implements it.
type Converter interface {
	ConvertFile(ctx context.Context, src, dst string, opts pipeline.Options) (*pipeline.Result, error)
}

// Options configures a batch run.
type Options struct {
	// In is the source directory tree.
	In string

	// Out is the destination directory. It must not be In or lie inside In.
	Out string

	// Extensions selects the files to convert, matched case-insensitively
	// against the end of the file name. Defaults to DefaultExtensions.
	Extensions []string

	// Workers bounds concurrent conversions. Defaults to runtime.NumCPU().
	Workers int

	// Scale and Refresh are passed through to every conversion.
	Scale   int
	Refresh bool

	Logger *log.Logger

	// Progress, if set, is called after each file with the number of files
	// processed so far and the total. Calls are serialized.
	Progress func(done, total int)
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	if err := errors.ValidateDir(o.In); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := errors.ValidateDir(o.Out); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	for _, ext := range o.Extensions {
		if err := errors.ValidateExtension(ext); err != nil {
			return err
		}
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Scale == 0 {
		o.Scale = pipeline.DefaultScale
	}
	return errors.ValidateScale(o.Scale)
}

// FileError records a per-file failure. Path is relative to Options.In.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e FileError) Unwrap() error { return e.Err }

// Report summarizes a batch run. All paths are relative to Options.In and
// sorted.
type Report struct {
	Converted []string
	Copied    []string
	// Skipped lists files whose destination collides with a converted
	// document: a non-image file such as a.svg next to a.png, or a second
	// image mapping to the same document (a.bmp and a.png). The first image
	// in walk order wins.
	Skipped []string
	Failed  []FileError

	Rects     int
	CacheHits int
	Duration  time.Duration
}

// OK reports whether every file was processed successfully.
func (r *Report) OK() bool { return len(r.Failed) == 0 }

type jobKind int

const (
	jobConvert jobKind = iota
	jobCopy
)

type job struct {
	kind jobKind
	rel  string
	src  string
	dst  string
}

// Mirror converts the tree at opts.In into opts.Out.
//
// The returned error is non-nil only when the batch could not run at all
// (invalid options, unreadable input root) or when ctx was cancelled;
// per-file failures are reported in Report.Failed.
func Mirror(ctx context.Context, conv Converter, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	in, err := filepath.Abs(opts.In)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", opts.In)
	}
	out, err := filepath.Abs(opts.Out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", opts.Out)
	}
	if err := errors.ValidateNested(in, out); err != nil {
		return nil, err
	}
	info, err := os.Stat(in)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input directory %s", opts.In)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "input %s is not a directory", opts.In)
	}

	start := time.Now()
	logger := opts.Logger

	jobs, skipped, err := plan(in, out, opts.Extensions, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("planned batch", "files", len(jobs), "workers", opts.Workers)

	report := &Report{Skipped: skipped}
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := run(gctx, conv, j, opts)

			mu.Lock()
			defer mu.Unlock()
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(jobs))
			}
			if err != nil {
				logger.Warn("failed", "file", j.rel, "err", err)
				report.Failed = append(report.Failed, FileError{Path: j.rel, Err: err})
				return nil
			}
			switch j.kind {
			case jobConvert:
				report.Converted = append(report.Converted, j.rel)
				report.Rects += res.Rects
				if res.CacheHit {
					report.CacheHits++
				}
				logger.Debug("converted", "file", j.rel, "rects", res.Rects, "cached", res.CacheHit)
			case jobCopy:
				report.Copied = append(report.Copied, j.rel)
				logger.Debug("copied", "file", j.rel)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Converted)
	sort.Strings(report.Copied)
	sort.Slice(report.Failed, func(i, k int) bool { return report.Failed[i].Path < report.Failed[k].Path })
	report.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func run(ctx context.Context, conv Converter, j job, opts Options) (*pipeline.Result, error) {
	if j.kind == jobCopy {
		if err := fsutil.CopyFile(j.src, j.dst); err != nil {
			return nil, errors.Wrap(errors.ErrCodeEncode, err, "copy")
		}
		return nil, nil
	}
	return conv.ConvertFile(ctx, j.src, j.dst, pipeline.Options{
		Scale:   opts.Scale,
		Refresh: opts.Refresh,
		Source:  j.rel,
		Logger:  opts.Logger,
	})
}

// plan walks in, creates the mirrored directories under out and returns
// the file jobs in walk order along with the files skipped for colliding
// with a converted document. Symlinks to directories are not followed.
func plan(in, out string, exts []string, logger *log.Logger) ([]job, []string, error) {
	var (
		jobs    []job
		skipped []string
	)
	converted := make(map[string]bool)

	err := filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == in {
				return err
			}
			logger.Warn("skipping unreadable entry", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(in, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if err := os.MkdirAll(filepath.Join(out, rel), 0755); err != nil {
				return errors.Wrap(errors.ErrCodeEncode, err, "create %s", rel)
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// Directory links are not followed.
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				logger.Debug("skipping directory symlink", "path", rel)
				return nil
			}
		} else if !d.Type().IsRegular() {
			logger.Debug("skipping special file", "path", rel)
			return nil
		}

		if base, ok := trimImageExt(rel, exts); ok {
			dstRel := base + ".svg"
			if converted[dstRel] {
				logger.Warn("skipping image converted to the same document as another", "file", rel, "document", dstRel)
				skipped = append(skipped, rel)
				return nil
			}
			converted[dstRel] = true
			jobs = append(jobs, job{kind: jobConvert, rel: rel, src: path, dst: filepath.Join(out, dstRel)})
			return nil
		}
		jobs = append(jobs, job{kind: jobCopy, rel: rel, src: path, dst: filepath.Join(out, rel)})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	kept := jobs[:0]
	for _, j := range jobs {
		if j.kind == jobCopy && converted[j.rel] {
			logger.Warn("skipping file shadowed by a converted image", "file", j.rel)
			skipped = append(skipped, j.rel)
			continue
		}
		kept = append(kept, j)
	}
	sort.Strings(skipped)
	return kept, skipped, nil
}

// trimImageExt reports whether name ends with one of exts (ignoring case)
// and returns name without it. A bare extension such as ".png" is not an
// image name.
func trimImageExt(name string, exts []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if strings.HasSuffix(lower, ext) && len(filepath.Base(name)) > len(ext) {
			return name[:len(name)-len(ext)], true
		}
	}
	return "", false
}
