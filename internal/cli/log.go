// Package cli implements the pxsvg command-line interface: convert, batch,
// preview, serve, cache and completion.
//
// Commands log through a charmbracelet/log logger carried in the command
// context; --verbose lowers its level to debug. Settings come from the
// TOML file loaded by pkg/config, and flags given on the command line
// override it.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pxsvg/pkg/batch"
	"github.com/matzehuels/pxsvg/pkg/pipeline"
)

// newLogger returns a logger writing to w with "15:04:05.00" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command-level operation on subject (a file or a
// directory) and logs a structured summary when it finishes.
type progress struct {
	logger  *log.Logger
	subject string
	start   time.Time
}

func newProgress(l *log.Logger, subject string) *progress {
	return &progress{logger: l, subject: subject, start: time.Now()}
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

// converted logs a finished conversion. Fresh conversions carry the time
// spent in each stage; cached ones only the lookup.
//
//	14:32:01.45 INFO converted file=arrow.png took=3ms rects=12 decode=410µs runs=22µs merge=9µs emit=31µs
func (p *progress) converted(res *pipeline.Result) {
	if res.CacheHit {
		p.logger.Info("converted", "file", p.subject, "took", p.elapsed(), "rects", res.Rects, "cached", true)
		return
	}
	st := res.Stats
	p.logger.Info("converted",
		"file", p.subject,
		"took", p.elapsed(),
		"rects", res.Rects,
		"decode", stage(st.DecodeTime),
		"runs", stage(st.RunsTime),
		"merge", stage(st.MergeTime),
		"emit", stage(st.EmitTime))
}

// mirrored logs a finished batch.
func (p *progress) mirrored(r *batch.Report) {
	p.logger.Info("mirrored",
		"dir", p.subject,
		"took", p.elapsed(),
		"converted", len(r.Converted),
		"copied", len(r.Copied),
		"skipped", len(r.Skipped),
		"failed", len(r.Failed),
		"cache_hits", r.CacheHits)
}

// stage rounds a stage timing; stages of small images take microseconds.
func stage(d time.Duration) time.Duration { return d.Round(time.Microsecond) }

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() for contexts that never went through the root command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
