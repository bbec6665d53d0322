package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pxsvg/pkg/batch"
	"github.com/matzehuels/pxsvg/pkg/errors"
	"github.com/matzehuels/pxsvg/pkg/pipeline"
)

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	scale      int
	workers    int
	extensions string // comma-separated, e.g. ".png,.bmp"
	noCache    bool
	refresh    bool
}

// batchCommand creates the batch command that mirrors a directory tree.
func (c *CLI) batchCommand() *cobra.Command {
	var opts batchOpts

	cmd := &cobra.Command{
		Use:   "batch [input-dir] [output-dir]",
		Short: "Convert a directory tree of bitmaps to SVG",
		Long: `Mirror input-dir into output-dir.

Files whose extension matches --ext (case-insensitive, default .png) are
converted to <name>.svg. Every other file is copied unchanged, keeping its
permissions and modification time. Files that fail to convert are reported
at the end; they do not stop the rest of the batch.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: dirArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			exts := cfg.Extensions
			if cmd.Flags().Changed("ext") {
				exts = parseExtensions(opts.extensions)
			}
			return c.runBatch(cmd.Context(), batch.Options{
				In:         args[0],
				Out:        args[1],
				Extensions: exts,
				Workers:    pick(cmd, "workers", opts.workers, cfg.Workers),
				Scale:      pick(cmd, "scale", opts.scale, cfg.Scale),
				Refresh:    opts.refresh,
				Logger:     c.Logger,
			}, opts.noCache)
		},
	}

	cmd.Flags().IntVarP(&opts.scale, "scale", "s", pipeline.DefaultScale, "scale factor applied to every coordinate")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "concurrent conversions (default: number of CPUs)")
	cmd.Flags().StringVar(&opts.extensions, "ext", ".png", "image extensions to convert (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached documents")
	registerFlagCompletion(cmd, "ext", completeExtensions)

	return cmd
}

// runBatch runs the mirror and prints a summary.
func (c *CLI) runBatch(ctx context.Context, opts batch.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx), opts.In)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", opts.In))
	spinner.Start()
	opts.Progress = func(done, total int) {
		spinner.SetMessage(fmt.Sprintf("Converting %s... %d/%d", opts.In, done, total))
	}

	report, err := batch.Mirror(ctx, runner, opts)
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}
	spinner.Stop()
	prog.mirrored(report)

	printBatchReport(report, opts.Out)

	if !report.OK() {
		return fmt.Errorf("%d of %d files failed", len(report.Failed),
			len(report.Failed)+len(report.Converted)+len(report.Copied))
	}
	return nil
}

// printBatchReport prints the summary table and every failure.
func printBatchReport(r *batch.Report, out string) {
	printSuccess("Mirrored into %s (%s)", out, r.Duration.Round(time.Millisecond))
	fmt.Fprintln(stdout, renderBatchTable(r))

	for _, s := range r.Skipped {
		printWarning("%s skipped: a converted image writes the same file", s)
	}
	for _, f := range r.Failed {
		printError("%s: %s", f.Path, errors.UserMessage(f.Err))
	}
}

// renderBatchTable renders the per-kind counts as a table.
func renderBatchTable(r *batch.Report) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := [][]string{
		{"Converted", strconv.Itoa(len(r.Converted))},
		{"Copied", strconv.Itoa(len(r.Copied))},
		{"Skipped", strconv.Itoa(len(r.Skipped))},
		{"Failed", strconv.Itoa(len(r.Failed))},
		{"Rectangles", strconv.Itoa(r.Rects)},
		{"Cache hits", strconv.Itoa(r.CacheHits)},
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Files", "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1 && rows[row][0] == "Failed" && len(r.Failed) > 0:
				return lipgloss.NewStyle().Foreground(colorRed).Padding(0, 1)
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			default:
				return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
			}
		})
	return t.String()
}
