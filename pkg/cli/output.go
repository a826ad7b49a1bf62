package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/devicelab-dev/automation-gateway/pkg/device"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stderr is a terminal
	if fileInfo, err := os.Stderr.Stat(); err == nil {
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

// Setup progress goes to stderr so that dump output on stdout stays clean.

// printSetupStep prints a setup step with spinner-style prefix
func printSetupStep(msg string) {
	fmt.Fprintf(os.Stderr, "  %s⏳%s %s\n", color(colorCyan), color(colorReset), msg)
}

// printSetupSuccess prints a success message for setup
func printSetupSuccess(msg string) {
	fmt.Fprintf(os.Stderr, "  %s✓%s %s\n", color(colorGreen), color(colorReset), msg)
}

func printSetupWarning(msg string) {
	fmt.Fprintf(os.Stderr, "  %s⚠%s %s\n", color(colorYellow), color(colorReset), msg)
}

func printSetupFailure(msg string) {
	fmt.Fprintf(os.Stderr, "  %s✗%s %s\n", color(colorRed), color(colorReset), msg)
}

func printBanner(listen string) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "  %sautomation-gateway %s%s\n", color(colorBold), Version, color(colorReset))
	fmt.Fprintf(os.Stderr, "  listening on %s%s%s\n", color(colorCyan), listen, color(colorReset))
	fmt.Fprintln(os.Stderr)
}

// printDevices lists adb devices, marking the one selected by serial.
func printDevices(w io.Writer, entries []device.DeviceEntry, selected string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "  no devices attached")
		return
	}
	for _, e := range entries {
		mark := " "
		if e.Serial == selected {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %s\t%s\n", mark, e.Serial, e.State)
	}
}
