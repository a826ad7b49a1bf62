package device

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/devicelab-dev/automation-gateway/pkg/logger"
)

// UIAutomator2 package names
const (
	UIAutomator2Server = "io.appium.uiautomator2.server"
	UIAutomator2Test   = "io.appium.uiautomator2.server.test"
)

// Port range scanned for TCP forwarding when no port is configured.
const (
	portRangeStart = 6001
	portRangeEnd   = 7001
)

// UIAutomator2Config holds configuration for reaching the UIAutomator2 server.
type UIAutomator2Config struct {
	SocketPath string        // Unix socket path, takes precedence over LocalPort
	LocalPort  int           // Local TCP port (0 = pick a free one)
	DevicePort int           // Port on device (default: 6790)
	UseTCP     bool          // Forward over TCP even where Unix sockets are available
	Timeout    time.Duration // Startup timeout (default: 30s)
}

// DefaultUIAutomator2Config returns default configuration.
func DefaultUIAutomator2Config() UIAutomator2Config {
	return UIAutomator2Config{
		DevicePort: 6790,
		Timeout:    30 * time.Second,
	}
}

// ConnectUIAutomator2 forwards the UIAutomator2 port and makes sure the server
// answers. A server that is already running is reused; otherwise the
// instrumentation is started and awaited.
func (d *AndroidDevice) ConnectUIAutomator2(cfg UIAutomator2Config) error {
	if cfg.DevicePort == 0 {
		cfg.DevicePort = DefaultUIAutomator2Config().DevicePort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultUIAutomator2Config().Timeout
	}

	if cfg.UseTCP || runtime.GOOS == "windows" {
		if err := d.setupTCPForward(cfg); err != nil {
			return err
		}
	} else {
		if err := d.setupSocketForward(cfg); err != nil {
			return err
		}
	}

	if d.checkHealth() {
		logger.Info("UIAutomator2 server already running on %s", d.serial)
		return nil
	}

	if !d.IsInstalled(UIAutomator2Server) || !d.IsInstalled(UIAutomator2Test) {
		d.releaseForward()
		return fmt.Errorf("UIAutomator2 server not installed on %s (%s, %s)", d.serial, UIAutomator2Server, UIAutomator2Test)
	}

	logger.Info("starting UIAutomator2 instrumentation on %s", d.serial)
	instrumentCmd := fmt.Sprintf(
		"nohup am instrument -w -e disableAnalytics true "+
			"%s/androidx.test.runner.AndroidJUnitRunner "+
			"> /dev/null 2>&1 &",
		UIAutomator2Test,
	)
	if _, err := d.Shell(instrumentCmd); err != nil {
		d.releaseForward()
		return fmt.Errorf("failed to start instrumentation: %w", err)
	}

	if err := d.waitForUIAutomator2Ready(cfg.Timeout); err != nil {
		d.StopUIAutomator2()
		return err
	}

	return nil
}

func (d *AndroidDevice) setupSocketForward(cfg UIAutomator2Config) error {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = d.DefaultSocketPath()
	}

	// Stale socket file from a previous run blocks the forward
	os.Remove(socketPath)

	if err := d.ForwardSocket(socketPath, cfg.DevicePort); err != nil {
		return fmt.Errorf("socket forward failed: %w", err)
	}
	d.socketPath = socketPath
	return nil
}

func (d *AndroidDevice) setupTCPForward(cfg UIAutomator2Config) error {
	localPort := cfg.LocalPort
	if localPort == 0 {
		port, err := findFreePort(portRangeStart, portRangeEnd)
		if err != nil {
			return err
		}
		localPort = port
	}

	if err := d.Forward(localPort, cfg.DevicePort); err != nil {
		return fmt.Errorf("port forward failed: %w", err)
	}
	d.localPort = localPort
	return nil
}

func findFreePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			ln.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free port found in range %d-%d", start, end)
}

// StopUIAutomator2 stops the UIAutomator2 server and removes the forward.
func (d *AndroidDevice) StopUIAutomator2() error {
	d.Shell("am force-stop " + UIAutomator2Server)
	d.Shell("am force-stop " + UIAutomator2Test)
	d.releaseForward()
	return nil
}

// Disconnect removes the forward but leaves the server running for the next client.
func (d *AndroidDevice) Disconnect() {
	d.releaseForward()
}

func (d *AndroidDevice) releaseForward() {
	if d.socketPath != "" {
		d.RemoveSocketForward(d.socketPath)
		os.Remove(d.socketPath)
		d.socketPath = ""
	}
	if d.localPort != 0 {
		d.RemoveForward(d.localPort)
		d.localPort = 0
	}
}

// IsUIAutomator2Running checks if the UIAutomator2 server is responding.
func (d *AndroidDevice) IsUIAutomator2Running() bool {
	return d.checkHealth()
}

func (d *AndroidDevice) waitForUIAutomator2Ready(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if d.checkHealth() {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("UIAutomator2 server not ready after %v", timeout)
}

func (d *AndroidDevice) checkHealth() bool {
	if d.socketPath != "" {
		return checkHealthViaSocket(d.socketPath)
	}
	if d.localPort != 0 {
		return checkHealthViaTCP(d.localPort)
	}
	return false
}

func checkHealthViaSocket(socketPath string) bool {
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var dialer net.Dialer
				return dialer.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 2 * time.Second,
	}
	return checkHealthWithClient(client, "http://localhost/wd/hub/status")
}

func checkHealthViaTCP(port int) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	return checkHealthWithClient(client, fmt.Sprintf("http://127.0.0.1:%d/wd/hub/status", port))
}

func checkHealthWithClient(client *http.Client, url string) bool {
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
