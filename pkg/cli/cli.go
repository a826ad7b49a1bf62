// Package cli provides the command-line interface for automation-gateway.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Config file (default: config.yaml in the gateway home)",
		EnvVars: []string{"AUTOMATION_GATEWAY_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"s"},
		Usage:   "ADB serial of the device to drive (default: first attached)",
		EnvVars: []string{"AUTOMATION_GATEWAY_DEVICE", "ANDROID_SERIAL"},
	},
	&cli.StringFlag{
		Name:    "uia2-url",
		Usage:   "UIAutomator2 server URL, skips adb forwarding",
		EnvVars: []string{"AUTOMATION_GATEWAY_UIA2_URL"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{"AUTOMATION_GATEWAY_LOG_LEVEL"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write logs to this file instead of stderr",
		EnvVars: []string{"AUTOMATION_GATEWAY_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
		EnvVars: []string{"AUTOMATION_GATEWAY_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "automation-gateway",
		Usage:   "Remote UI automation gateway for Android devices",
		Version: Version,
		Description: `automation-gateway exposes a WebDriver-style REST API and a JSON-RPC API
over HTTP and performs each command against the screen of an Android device.

Examples:
  automation-gateway serve
  automation-gateway serve --listen 127.0.0.1:4723 --webdriver-prefix /wd/hub
  automation-gateway --device emulator-5554 status
  automation-gateway dump > hierarchy.json`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand,
			statusCommand,
			dumpCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
