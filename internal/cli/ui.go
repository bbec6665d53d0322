package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pxsvg/pkg/pipeline"
)

// stdout receives all user-facing output. Documents written with
// `convert -o -` go here too, so status lines must stay off it in that mode.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // numbers, spinner
	colorGreen  = lipgloss.Color("35")  // success, cache hits
	colorYellow = lipgloss.Color("220") // warnings, skipped files
	colorRed    = lipgloss.Color("167") // errors, failed files
	colorBlue   = lipgloss.Color("75")  // links, suggested commands
	colorWhite  = lipgloss.Color("255") // paths and values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // separators, muted text
)

var (
	// StyleLink renders URLs such as the serve address.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim renders muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders paths and values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleNumber renders counts and sizes.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)
	// StyleWarning renders warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

// status is a leading icon with its color.
type status struct {
	icon  string
	style lipgloss.Style
}

var (
	statusSuccess = status{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	statusError   = status{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	statusWarning = status{"!", lipgloss.NewStyle().Foreground(colorYellow)}
	statusInfo    = status{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

const (
	arrow     = "→"
	separator = " · "
)

func (s status) print(msg string) {
	fmt.Fprintln(stdout, s.style.Render(s.icon)+" "+msg)
}

// =============================================================================
// Status Lines
// =============================================================================

func printSuccess(format string, args ...any) { statusSuccess.print(fmt.Sprintf(format, args...)) }

func printError(format string, args ...any) { statusError.print(fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	statusWarning.print(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) { statusInfo.print(fmt.Sprintf(format, args...)) }

// printDetail prints an indented, muted line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(arrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a value under a fixed-width label.
func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Conversion Summary
// =============================================================================

// formatStats summarizes a conversion on one line:
//
//	32x32 px · 118 runs · 41 rects · fresh
func formatStats(res *pipeline.Result) string {
	origin := lipgloss.NewStyle().Foreground(colorGray).Render("fresh")
	if res.CacheHit {
		origin = lipgloss.NewStyle().Foreground(colorGreen).Render("cached")
	}
	return strings.Join([]string{
		StyleNumber.Render(fmt.Sprintf("%dx%d", res.Width, res.Height)) + StyleDim.Render(" px"),
		StyleNumber.Render(fmt.Sprint(res.Runs)) + StyleDim.Render(" runs"),
		StyleNumber.Render(fmt.Sprint(res.Rects)) + StyleDim.Render(" rects"),
		origin,
	}, StyleDim.Render(separator))
}

func printStats(res *pipeline.Result) {
	fmt.Fprintln(stdout, "  "+formatStats(res))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
