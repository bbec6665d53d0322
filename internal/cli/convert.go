package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pxsvg/pkg/pipeline"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output  string // output file, "-" for stdout
	scale   int    // uniform scale factor
	noCache bool   // bypass the artifact cache entirely
	refresh bool   // recompute and overwrite cached documents
}

// convertCommand creates the convert command for single images.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [image]",
		Short: "Convert a bitmap to SVG",
		Long: `Convert a bitmap (PNG, GIF, JPEG, BMP, TIFF or WebP) to an SVG document.

Every non-transparent pixel is covered by exactly one rectangle: runs of
identical pixels are found per row and stacked vertically into rectangles.
The document is written next to the input with an .svg extension unless
--output is given. Use --output - to write to stdout.

Results are cached locally for faster subsequent runs.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: fileArgs(1, imageExtensions...),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.scale = pick(cmd, "scale", opts.scale, c.config().Scale)
			return c.runConvert(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input with .svg extension, - for stdout)")
	cmd.Flags().IntVarP(&opts.scale, "scale", "s", pipeline.DefaultScale, "scale factor applied to every coordinate")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached documents")
	registerFlagCompletion(cmd, "output", fileFlag("svg"))

	return cmd
}

// runConvert converts one file and reports the result.
func (c *CLI) runConvert(ctx context.Context, input string, opts convertOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := pipeline.Options{
		Scale:   opts.scale,
		Refresh: opts.refresh,
		Source:  input,
		Logger:  c.Logger,
	}

	if opts.output == "-" {
		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("read %s: %w", input, err)
		}
		res, err := runner.Convert(ctx, data, popts)
		if err != nil {
			return fmt.Errorf("convert %s: %w", input, err)
		}
		_, err = stdout.Write(res.SVG)
		return err
	}

	output := opts.output
	if output == "" {
		output = svgPath(input)
	}

	prog := newProgress(loggerFromContext(ctx), input)
	res, err := runner.ConvertFile(ctx, input, output, popts)
	if err != nil {
		return err
	}
	prog.converted(res)

	printSuccess("Converted %s", input)
	printFile(output)
	printStats(res)
	printNextStep("Preview it", fmt.Sprintf("%s preview %s -o preview.png --size 256", appName, output))
	return nil
}
