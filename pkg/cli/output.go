package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/labcitrus/avagen-runner/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printSetupStep(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s⏳%s %s\n", color(colorCyan), color(colorReset), msg)
}

func printSetupSuccess(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s✓%s %s\n", color(colorGreen), color(colorReset), msg)
}

func statusSymbol(s core.StepStatus) (string, string) {
	switch s {
	case core.StatusPassed:
		return "✓", colorGreen
	case core.StatusFailed:
		return "✗", colorRed
	case core.StatusSkipped:
		return "-", colorYellow
	case core.StatusWarned:
		return "⚠", colorYellow
	}
	return "•", colorGray
}

// printStep prints one finished step. Used as the executor's live callback.
func printStep(w io.Writer, sr core.StepResult) {
	sym, c := statusSymbol(sr.Status)
	fmt.Fprintf(w, "  %s%s%s %2d %-10s %s(%s)%s",
		color(c), sym, color(colorReset),
		sr.Index+1, sr.Action,
		color(colorDim), formatDuration(sr.Duration), color(colorReset))
	if sr.Node != "" {
		fmt.Fprintf(w, " %s%s%s", color(colorGray), sr.Node, color(colorReset))
	}
	fmt.Fprintln(w)
	if sr.Error != "" {
		fmt.Fprintf(w, "       %s%s: %s%s\n", color(colorRed), sr.Code, sr.Error, color(colorReset))
	}
}

func printSummary(w io.Writer, r *core.RunResult) {
	fmt.Fprintln(w)
	if r.State == core.RunAborted {
		fmt.Fprintf(w, "%s%sAborted%s %s: %s\n", color(colorBold), color(colorRed), color(colorReset), r.Method, r.Error)
		return
	}
	status, c := "Passed", colorGreen
	if r.FailedSteps > 0 {
		status, c = "Failed", colorRed
	}
	fmt.Fprintf(w, "%s%s%s%s %s: %d steps, %d passed, %d failed, %d skipped in %s\n",
		color(colorBold), color(c), status, color(colorReset),
		r.Method, r.TotalSteps, r.PassedSteps, r.FailedSteps, r.SkippedSteps,
		formatDuration(r.Duration))
	if r.Interrupted {
		fmt.Fprintf(w, "%sinterrupted: remaining waits were cut short%s\n", color(colorYellow), color(colorReset))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
