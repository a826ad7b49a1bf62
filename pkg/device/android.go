// Package device provides Android device access via ADB.
package device

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// AndroidDevice manages an Android device connection via ADB.
type AndroidDevice struct {
	serial     string
	adbPath    string
	socketPath string // Unix socket forwarded to the UIAutomator2 server
	localPort  int    // TCP port forwarded to the UIAutomator2 server
}

// DeviceInfo contains basic device information.
type DeviceInfo struct {
	Serial     string
	Model      string
	SDK        string
	Brand      string
	IsEmulator bool
}

// DeviceEntry is one line of `adb devices`.
type DeviceEntry struct {
	Serial string
	State  string
}

// NoDevicesError is returned when no usable device is attached.
type NoDevicesError struct {
	Message     string
	Suggestions []string
}

func (e *NoDevicesError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if len(e.Suggestions) > 0 {
		sb.WriteString("\n\nOptions:\n")
		for i, s := range e.Suggestions {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, s)
		}
	}
	return sb.String()
}

func newNoDevicesError() *NoDevicesError {
	return &NoDevicesError{
		Message: "No Android devices or emulators found",
		Suggestions: []string{
			"Connect a physical device via USB and accept the debugging prompt",
			"Start an emulator: emulator -avd <name>",
			"Pass --device <serial> if the device is listed as unauthorized",
		},
	}
}

// New creates an AndroidDevice for the given serial.
// If serial is empty, it auto-detects the connected device.
func New(serial string) (*AndroidDevice, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}

	if serial == "" {
		serial, err = detectDeviceSerial(adbPath)
		if err != nil {
			return nil, err
		}
	}

	d := &AndroidDevice{
		serial:  serial,
		adbPath: adbPath,
	}

	if err := d.waitForDevice(5 * time.Second); err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}

	return d, nil
}

// ListDevices returns every device adb knows about, in any state.
func ListDevices() ([]DeviceEntry, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}
	out, err := exec.Command(adbPath, "devices").Output()
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}
	return parseDeviceList(string(out)), nil
}

func detectDeviceSerial(adbPath string) (string, error) {
	out, err := exec.Command(adbPath, "devices").Output()
	if err != nil {
		return "", fmt.Errorf("adb devices: %w", err)
	}
	for _, d := range parseDeviceList(string(out)) {
		if d.State == "device" {
			return d.Serial, nil
		}
	}
	return "", newNoDevicesError()
}

func parseDeviceList(out string) []DeviceEntry {
	var devices []DeviceEntry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			devices = append(devices, DeviceEntry{Serial: parts[0], State: parts[1]})
		}
	}
	return devices
}

// Serial returns the device serial number.
func (d *AndroidDevice) Serial() string {
	return d.serial
}

// Shell executes a shell command on the device.
func (d *AndroidDevice) Shell(cmd string) (string, error) {
	return d.adb("shell", cmd)
}

// Run executes a shell command on the device and reports its exit status.
// This is the ADB bridge used when a command cannot run locally.
func (d *AndroidDevice) Run(cmd string) core.ShellResult {
	args := make([]string, 0, 4)
	if d.serial != "" {
		args = append(args, "-s", d.serial)
	}
	args = append(args, "shell", cmd)
	return runCommand(d.adbPath, args...)
}

// IsInstalled checks if a package is installed.
func (d *AndroidDevice) IsInstalled(pkg string) bool {
	out, err := d.Shell("pm list packages " + pkg)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "package:"+pkg {
			return true
		}
	}
	return false
}

// Forward creates a port forward from local to device.
func (d *AndroidDevice) Forward(localPort, remotePort int) error {
	_, err := d.adb("forward", fmt.Sprintf("tcp:%d", localPort), fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveForward removes a port forward.
func (d *AndroidDevice) RemoveForward(localPort int) error {
	_, err := d.adb("forward", "--remove", fmt.Sprintf("tcp:%d", localPort))
	return err
}

// ForwardSocket forwards a Unix socket to a device TCP port.
func (d *AndroidDevice) ForwardSocket(socketPath string, remotePort int) error {
	_, err := d.adb("forward", fmt.Sprintf("localfilesystem:%s", socketPath), fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveSocketForward removes a Unix socket forward.
func (d *AndroidDevice) RemoveSocketForward(socketPath string) error {
	_, err := d.adb("forward", "--remove", fmt.Sprintf("localfilesystem:%s", socketPath))
	return err
}

// DefaultSocketPath returns the default Unix socket path for this device.
func (d *AndroidDevice) DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("gateway-uia2-%s.sock", d.serial))
}

// SocketPath returns the forwarded UIAutomator2 socket (empty when using TCP or not connected).
func (d *AndroidDevice) SocketPath() string {
	return d.socketPath
}

// LocalPort returns the forwarded UIAutomator2 TCP port (0 when using a socket or not connected).
func (d *AndroidDevice) LocalPort() int {
	return d.localPort
}

// Info returns device information.
func (d *AndroidDevice) Info() (DeviceInfo, error) {
	info := DeviceInfo{Serial: d.serial}

	model, err := d.Shell("getprop ro.product.model")
	if err != nil {
		return info, err
	}
	info.Model = strings.TrimSpace(model)

	if sdk, err := d.Shell("getprop ro.build.version.sdk"); err == nil {
		info.SDK = strings.TrimSpace(sdk)
	}
	if brand, err := d.Shell("getprop ro.product.brand"); err == nil {
		info.Brand = strings.TrimSpace(brand)
	}

	qemu, _ := d.Shell("getprop ro.kernel.qemu")
	info.IsEmulator = strings.TrimSpace(qemu) == "1" || strings.HasPrefix(d.serial, "emulator-")

	return info, nil
}

// adb executes an ADB command.
func (d *AndroidDevice) adb(args ...string) (string, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if d.serial != "" {
		cmdArgs = append(cmdArgs, "-s", d.serial)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command(d.adbPath, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = stdout.String()
		}
		return "", fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(errMsg))
	}

	return stdout.String(), nil
}

func (d *AndroidDevice) waitForDevice(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if d.isConnected() {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for device %s", d.serial)
}

func (d *AndroidDevice) isConnected() bool {
	out, err := d.adb("get-state")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "device"
}

// findADB locates the ADB binary on PATH or under the Android SDK.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}

	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		root := os.Getenv(env)
		if root == "" {
			continue
		}
		candidate := filepath.Join(root, "platform-tools", "adb")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("adb not found in PATH, ANDROID_HOME or ANDROID_SDK_ROOT")
}
