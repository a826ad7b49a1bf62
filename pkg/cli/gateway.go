package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/automation-gateway/pkg/config"
	"github.com/devicelab-dev/automation-gateway/pkg/controller"
	"github.com/devicelab-dev/automation-gateway/pkg/core"
	"github.com/devicelab-dev/automation-gateway/pkg/device"
	uia2driver "github.com/devicelab-dev/automation-gateway/pkg/driver/uiautomator2"
	"github.com/devicelab-dev/automation-gateway/pkg/logger"
	"github.com/devicelab-dev/automation-gateway/pkg/registry"
	"github.com/devicelab-dev/automation-gateway/pkg/uiautomator2"
)

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	path := c.String("config")
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	applyFlags(cfg, c)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides config values with flags the user set explicitly.
// Flags a command does not define are ignored.
func applyFlags(cfg *config.Config, c *cli.Context) {
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"device", &cfg.Device},
		{"uia2-url", &cfg.UIAutomator2.URL},
		{"uia2-socket", &cfg.UIAutomator2.Socket},
		{"log-level", &cfg.LogLevel},
		{"log-file", &cfg.LogFile},
		{"listen", &cfg.Listen},
		{"webdriver-prefix", &cfg.WebDriverPrefix},
		{"jsonrpc-path", &cfg.JSONRPCPath},
	}
	for _, s := range overrides {
		if c.IsSet(s.flag) {
			*s.dst = c.String(s.flag)
		}
	}

	if c.IsSet("uia2-port") {
		cfg.UIAutomator2.Port = c.Int("uia2-port")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}
	if c.Bool("no-direct-shell") {
		cfg.ShellDirect = boolPtr(false)
	}
	if c.Bool("no-bridge") {
		cfg.ShellBridge = boolPtr(false)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func initLogging(cfg *config.Config) error {
	return logger.InitWithOptions(logger.Options{
		Path:  cfg.LogFile,
		Level: cfg.LogLevel,
	})
}

// backend is a connected UIAutomator2 action backend.
type backend struct {
	driver *uia2driver.Driver
	client *uiautomator2.Client
	device *device.AndroidDevice // nil when the server is reached by URL with no device
}

// Close ends the UIAutomator2 session and removes the adb forward.
// The server keeps running for the next client.
func (b *backend) Close() {
	if err := b.client.Close(); err != nil {
		logger.Warn("close UIAutomator2 session: %v", err)
	}
	if b.device != nil {
		b.device.Disconnect()
	}
}

// connectDevice attaches to the configured device, or the first one attached.
func connectDevice(serial string) (*device.AndroidDevice, error) {
	if serial != "" {
		printSetupStep(fmt.Sprintf("Connecting to device %s...", serial))
		logger.Info("Connecting to Android device: %s", serial)
	} else {
		printSetupStep("Connecting to device...")
		logger.Info("Auto-detecting Android device...")
	}

	dev, err := device.New(serial)
	if err != nil {
		var noDev *device.NoDevicesError
		if errors.As(err, &noDev) {
			return nil, noDev
		}
		return nil, fmt.Errorf("connect to device: %w", err)
	}

	info, err := dev.Info()
	if err != nil {
		return nil, fmt.Errorf("get device info: %w", err)
	}
	logger.Info("Device info: %s %s, SDK %s, Serial %s, Emulator: %v",
		info.Brand, info.Model, info.SDK, info.Serial, info.IsEmulator)
	printSetupSuccess(fmt.Sprintf("Connected to %s %s (SDK %s)", info.Brand, info.Model, info.SDK))
	return dev, nil
}

// uia2Settings maps the config onto the forwarding setup.
func uia2Settings(cfg *config.Config) device.UIAutomator2Config {
	uia2Cfg := device.DefaultUIAutomator2Config()
	if cfg.UIAutomator2.Socket != "" {
		uia2Cfg.SocketPath = cfg.UIAutomator2.Socket
	} else {
		uia2Cfg.UseTCP = true
		uia2Cfg.LocalPort = cfg.UIAutomator2.Port
	}
	return uia2Cfg
}

// connectBackend reaches the UIAutomator2 server, opens a session and wraps
// it in the action backend.
func connectBackend(cfg *config.Config) (*backend, error) {
	b := &backend{}

	if cfg.UIAutomator2.URL != "" {
		// Intents and the adb bridge still need a device when one is named
		if cfg.Device != "" {
			dev, err := connectDevice(cfg.Device)
			if err != nil {
				return nil, err
			}
			b.device = dev
		}
		b.client = uiautomator2.NewClientURL(cfg.UIAutomator2.URL)
	} else {
		dev, err := connectDevice(cfg.Device)
		if err != nil {
			return nil, err
		}

		uia2Cfg := uia2Settings(cfg)
		if uia2Cfg.SocketPath != "" && isSocketInUse(uia2Cfg.SocketPath) {
			return nil, fmt.Errorf("device %s is already in use\n"+
				"Another gateway may be serving this device.\n"+
				"Socket: %s", dev.Serial(), uia2Cfg.SocketPath)
		}

		printSetupStep("Connecting to UIAutomator2 server...")
		if err := dev.ConnectUIAutomator2(uia2Cfg); err != nil {
			logger.Error("Failed to connect to UIAutomator2: %v", err)
			return nil, fmt.Errorf("connect UIAutomator2: %w", err)
		}
		b.device = dev

		if dev.SocketPath() != "" {
			b.client = uiautomator2.NewClient(dev.SocketPath())
		} else {
			b.client = uiautomator2.NewClientTCP(dev.LocalPort())
		}
	}
	printSetupSuccess("UIAutomator2 server ready")

	printSetupStep("Creating session...")
	if err := b.client.CreateSession(uiautomator2.Capabilities{PlatformName: "Android"}); err != nil {
		logger.Error("Failed to create session: %v", err)
		if b.device != nil {
			b.device.Disconnect()
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("UIAutomator2 session created: %s", b.client.SessionID())

	// Lookups answer for the current screen immediately
	if err := b.client.SetImplicitWait(0); err != nil {
		printSetupWarning(fmt.Sprintf("failed to disable implicit wait: %v", err))
	}
	printSetupSuccess("Session created")

	if b.device != nil {
		b.driver = uia2driver.New(b.client, b.device)
	} else {
		b.driver = uia2driver.New(b.client, nil)
	}
	return b, nil
}

// onDevice is swapped in tests.
var onDevice = device.OnDevice

// actionBackend is what the controller needs from a backend.
type actionBackend interface {
	core.Backend
	core.KeyInjector
	core.TaskSwitcher
	core.AppLauncher
}

// newController wires a backend into a controller according to cfg.
// bridge may be nil when no adb device is available.
func newController(cfg *config.Config, be actionBackend, bridge core.ShellRunner) (*controller.Controller, error) {
	deps := controller.Deps{
		Backend:      be,
		KeyInjector:  be,
		TaskSwitcher: be,
		AppLauncher:  be,
		Launchers:    cfg.Launchers,
	}

	// The local shell is the device's shell only when running on it
	direct := bridge == nil && onDevice()
	if cfg.ShellDirect != nil {
		direct = *cfg.ShellDirect
	}
	if direct {
		deps.Shell = device.LocalShell{}
	}
	if bridge != nil && (cfg.ShellBridge == nil || *cfg.ShellBridge) {
		deps.Bridge = bridge
	}

	// Raw input events need a shell on the device
	switch kb, ok := be.(core.KeyBroadcaster); {
	case ok:
		deps.KeyBroadcaster = kb
	case bridge != nil:
		deps.KeyBroadcaster = device.NewEventKeyboard(bridge)
	case direct && onDevice():
		deps.KeyBroadcaster = device.NewEventKeyboard(device.LocalShell{})
	}

	maxElements := cfg.Registry.MaxElements
	if maxElements < 0 {
		maxElements = 0
	}
	deps.Elements = registry.New[core.Locator](registry.Options{
		MaxEntries: maxElements,
		TTL:        cfg.Registry.ElementTTL,
	})

	return controller.New(deps)
}

// sweepElements purges expired element handles every interval until ctx ends.
func sweepElements(ctx context.Context, ctrl *controller.Controller, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ctrl.PurgeElements(); n > 0 {
				logger.Debug("purged %d expired element handle(s)", n)
			}
		}
	}
}

// isSocketInUse checks if a Unix socket is in use by attempting to connect to it.
// A socket file nobody listens on is stale and removed.
func isSocketInUse(socketPath string) bool {
	if socketPath == "" {
		return false
	}

	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return false
	}

	conn, err := net.DialTimeout("unix", socketPath, 500*time.Millisecond)
	if err != nil {
		os.Remove(socketPath)
		return false
	}
	conn.Close()
	return true
}
