package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pxsvg/pkg/errors"
	"github.com/matzehuels/pxsvg/pkg/preview"
	"github.com/matzehuels/pxsvg/pkg/raster"
)

// previewOpts holds the command-line flags for the preview command.
type previewOpts struct {
	output string // PNG output path
	size   int    // longer edge in pixels, 0 keeps the canvas size
	source string // optional source bitmap for comparison
}

// previewCommand creates the preview command that rasterizes an SVG.
func (c *CLI) previewCommand() *cobra.Command {
	var opts previewOpts

	cmd := &cobra.Command{
		Use:   "preview [document.svg]",
		Short: "Render an SVG document to PNG",
		Long: `Render an SVG document to PNG for a quick visual check.

With --source, the original bitmap is also upscaled (nearest-neighbor) to
the same size and written next to the preview as <output>-source.png, and
every source pixel is compared against the rendered document. The check
needs a document converted with --scale 2 or more.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: fileArgs(1, "svg"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output == "" {
				opts.output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
			}
			return c.runPreview(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output PNG (default: input with .png extension)")
	cmd.Flags().IntVar(&opts.size, "size", 0, "longer edge of the preview in pixels (default: canvas size)")
	cmd.Flags().StringVar(&opts.source, "source", "", "source bitmap to compare against")
	registerFlagCompletion(cmd, "output", fileFlag("png"))
	registerFlagCompletion(cmd, "source", fileFlag(imageExtensions...))

	return cmd
}

func (c *CLI) runPreview(input string, opts previewOpts) error {
	doc, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	w, h, err := preview.Fit(doc, opts.size)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	img, err := preview.Rasterize(doc, w, h)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	if err := preview.WritePNG(opts.output, img); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	c.Logger.Debug("rendered preview", "size", fmt.Sprintf("%dx%d", w, h))

	printSuccess("Rendered %s", input)
	printFile(opts.output)

	if opts.source == "" {
		return nil
	}

	g, err := raster.Load(opts.source)
	if err != nil {
		return err
	}
	sourceOut := strings.TrimSuffix(opts.output, filepath.Ext(opts.output)) + "-source.png"
	if err := preview.WritePNG(sourceOut, preview.Upscale(g.Image(), w, h)); err != nil {
		return fmt.Errorf("write %s: %w", sourceOut, err)
	}
	printFile(sourceOut)

	n, err := preview.Mismatches(doc, g)
	switch {
	case errors.Is(err, errors.ErrCodeUnsupported):
		printWarning("Skipped pixel check: %s", errors.UserMessage(err))
	case err != nil:
		return err
	case n == 0:
		printKeyValue("Pixel check", statusSuccess.style.Render(fmt.Sprintf("all %d pixels match", g.Width*g.Height)))
	default:
		printKeyValue("Pixel check", StyleWarning.Render(fmt.Sprintf("%d of %d pixels differ", n, g.Width*g.Height)))
	}
	return nil
}
