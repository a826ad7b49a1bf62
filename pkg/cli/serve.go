package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/automation-gateway/pkg/config"
	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/jsonrpc"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
	"github.com/devicelab-dev/automation-gateway/pkg/server"
	"github.com/devicelab-dev/automation-gateway/pkg/webdriver"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Serve the WebDriver and JSON-RPC APIs",
	Description: `Connects to the device's UIAutomator2 server and serves both protocol
adapters on one listener until interrupted.

WebDriver routes live under the --webdriver-prefix; the JSON-RPC endpoint
accepts POST requests at --jsonrpc-path.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "Address to listen on (default: " + config.DefaultListen + ")",
			EnvVars: []string{"AUTOMATION_GATEWAY_LISTEN"},
		},
		&cli.StringFlag{
			Name:  "webdriver-prefix",
			Usage: "Path prefix of the WebDriver routes, e.g. /wd/hub",
		},
		&cli.StringFlag{
			Name:  "jsonrpc-path",
			Usage: "Path of the JSON-RPC endpoint (default: " + config.DefaultJSONRPCPath + ")",
		},
		&cli.StringFlag{
			Name:  "uia2-socket",
			Usage: "Forward UIAutomator2 to this Unix socket instead of a TCP port",
		},
		&cli.IntFlag{
			Name:  "uia2-port",
			Usage: "Local TCP port the UIAutomator2 server is forwarded to",
		},
		&cli.BoolFlag{
			Name:  "no-bridge",
			Usage: "Do not retry failed shell commands through adb",
		},
		&cli.BoolFlag{
			Name:  "no-direct-shell",
			Usage: "Do not run shell commands with the local shell",
		},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if ttl := cfg.Registry.ElementTTL; ttl > 0 {
		go sweepElements(ctx, ctrl, ttl)
	}

	wd := webdriver.NewHandler(ctrl, webdriver.Options{Prefix: cfg.WebDriverPrefix})
	rpc := jsonrpc.NewHandler(ctrl)

	srv, err := server.New(server.Config{
		Listen:      cfg.Listen,
		JSONRPCPath: cfg.JSONRPCPath,
	}, wd, rpc)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info("serving WebDriver at %s%s and JSON-RPC at %s", srv.Addr(), cfg.WebDriverPrefix, cfg.JSONRPCPath)
	logger.Info("JSON-RPC methods: %s", strings.Join(rpc.Methods(), ", "))
	printBanner(srv.Addr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	signal.Stop(sig)

	fmt.Fprintln(os.Stderr)
	printSetupStep(fmt.Sprintf("Received %s, shutting down...", received))
	logger.Info("shutting down on %s with %d open session(s)", received, wd.SessionCount())
	if err := srv.Stop(); err != nil {
		logger.Warn("server shutdown: %v", err)
	}
	return nil
}
