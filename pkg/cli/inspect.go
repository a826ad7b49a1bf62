package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/device"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
	"github.com/devicelab-dev/automation-gateway/pkg/uiautomator2"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Check that the device and its UIAutomator2 server are reachable",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "uia2-socket",
			Usage: "Forward UIAutomator2 to this Unix socket instead of a TCP port",
		},
		&cli.IntFlag{
			Name:  "uia2-port",
			Usage: "Local TCP port the UIAutomator2 server is forwarded to",
		},
	},
	Action: runStatus,
}

func runStatus(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logger.Close()

	var client *uiautomator2.Client
	if cfg.UIAutomator2.URL != "" {
		client = uiautomator2.NewClientURL(cfg.UIAutomator2.URL)
	} else {
		entries, err := device.ListDevices()
		if err != nil {
			printSetupWarning(fmt.Sprintf("list devices: %v", err))
		} else {
			printDevices(os.Stderr, entries, cfg.Device)
		}

		dev, err := connectDevice(cfg.Device)
		if err != nil {
			printSetupFailure(err.Error())
			return err
		}
		if err := dev.ConnectUIAutomator2(uia2Settings(cfg)); err != nil {
			printSetupFailure(err.Error())
			return fmt.Errorf("connect UIAutomator2: %w", err)
		}
		defer dev.Disconnect()

		if dev.SocketPath() != "" {
			client = uiautomator2.NewClient(dev.SocketPath())
		} else {
			client = uiautomator2.NewClientTCP(dev.LocalPort())
		}
	}

	ready, err := client.Status()
	if err != nil {
		printSetupFailure(fmt.Sprintf("UIAutomator2 status: %v", err))
		return err
	}
	if !ready {
		printSetupFailure("UIAutomator2 server is not ready")
		return fmt.Errorf("UIAutomator2 server is not ready")
	}
	printSetupSuccess("UIAutomator2 server ready")
	return nil
}

var dumpCommand = &cli.Command{
	Name:  "dump",
	Usage: "Print the on-screen UI hierarchy as JSON",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "uia2-socket",
			Usage: "Forward UIAutomator2 to this Unix socket instead of a TCP port",
		},
		&cli.IntFlag{
			Name:  "uia2-port",
			Usage: "Local TCP port the UIAutomator2 server is forwarded to",
		},
	},
	Action: runDump,
}

func runDump(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logger.Close()

	be, err := connectBackend(cfg)
	if err != nil {
		printSetupFailure(err.Error())
		return err
	}
	defer be.Close()

	var bridge core.ShellRunner
	if be.device != nil {
		bridge = be.device
	}
	ctrl, err := newController(cfg, be.driver, bridge)
	if err != nil {
		return err
	}

	return writeNodes(os.Stdout, ctrl.DumpUI())
}

func writeNodes(w io.Writer, nodes []core.Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(nodes)
}
