// Package config handles configuration for automation-gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is left empty.
const (
	DefaultListen          = "127.0.0.1:9008"
	DefaultWebDriverPrefix = ""
	DefaultJSONRPCPath     = "/jsonrpc/0"
	DefaultLogLevel        = "info"
	DefaultUIA2Port        = 6790
	DefaultMaxElements     = 10000
)

// DefaultLaunchers are tried in order when HOME has to be reached by launching a launcher app.
var DefaultLaunchers = []string{
	"com.google.android.apps.nexuslauncher",
	"com.android.launcher3",
	"com.sec.android.app.launcher",
	"com.miui.home",
	"com.huawei.android.launcher",
}

// Config represents the gateway configuration (config.yaml).
type Config struct {
	// HTTP surface
	Listen          string `yaml:"listen"`          // Address to listen on
	WebDriverPrefix string `yaml:"webdriverPrefix"` // Route prefix, e.g. /wd/hub
	JSONRPCPath     string `yaml:"jsonrpcPath"`     // JSON-RPC endpoint path

	// Logging
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"` // Empty logs to stderr

	// Device settings
	Device       string     `yaml:"device"` // ADB serial, empty auto-detects
	UIAutomator2 UIA2Config `yaml:"uiautomator2"`

	// Registry bounds
	Registry RegistryConfig `yaml:"registry"`

	// Launcher packages tried for HOME fallback
	Launchers []string `yaml:"launchers"`

	// ShellDirect runs shell commands with the local sh. Unset means only
	// when the gateway runs on the device itself with no adb bridge.
	ShellDirect *bool `yaml:"shellDirect"`

	// ShellBridge enables retrying failed shell commands through adb
	ShellBridge *bool `yaml:"shellBridge"`
}

// UIA2Config locates the UIAutomator2 server.
type UIA2Config struct {
	URL    string `yaml:"url"`    // Server reachable directly, no adb forward
	Socket string `yaml:"socket"` // Unix socket path (takes precedence over port)
	Port   int    `yaml:"port"`   // Local forwarded TCP port
}

// RegistryConfig bounds the element handle registry.
type RegistryConfig struct {
	MaxElements int           `yaml:"maxElements"` // 0 = default, <0 = unbounded
	ElementTTL  time.Duration `yaml:"elementTTL"`  // 0 = never expire
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.JSONRPCPath == "" {
		c.JSONRPCPath = DefaultJSONRPCPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.UIAutomator2.Port == 0 {
		c.UIAutomator2.Port = DefaultUIA2Port
	}
	if c.Registry.MaxElements == 0 {
		c.Registry.MaxElements = DefaultMaxElements
	}
	if len(c.Launchers) == 0 {
		c.Launchers = append([]string(nil), DefaultLaunchers...)
	}
	if c.ShellBridge == nil {
		c.ShellBridge = boolPtr(true)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.JSONRPCPath == "" || c.JSONRPCPath[0] != '/' {
		return fmt.Errorf("jsonrpcPath must start with '/': %q", c.JSONRPCPath)
	}
	if c.WebDriverPrefix != "" && c.WebDriverPrefix[0] != '/' {
		return fmt.Errorf("webdriverPrefix must start with '/': %q", c.WebDriverPrefix)
	}
	if c.UIAutomator2.Port < 0 || c.UIAutomator2.Port > 65535 {
		return fmt.Errorf("uiautomator2.port out of range: %d", c.UIAutomator2.Port)
	}
	if c.UIAutomator2.URL != "" && !strings.HasPrefix(c.UIAutomator2.URL, "http://") && !strings.HasPrefix(c.UIAutomator2.URL, "https://") {
		return fmt.Errorf("uiautomator2.url must be an http(s) URL: %q", c.UIAutomator2.URL)
	}
	if c.Registry.ElementTTL < 0 {
		return fmt.Errorf("registry.elementTTL must not be negative")
	}
	return nil
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// EnvHome names the directory holding config.yaml, overriding the search.
const EnvHome = "AUTOMATION_GATEWAY_HOME"

// DeviceDir is where the gateway keeps its files when pushed onto a device.
const DeviceDir = "/data/local/tmp/automation-gateway"

// SearchDirs returns the directories searched for a config file, in order:
// $AUTOMATION_GATEWAY_HOME alone when set, otherwise the working directory,
// the user config directory and DeviceDir.
func SearchDirs() []string {
	if env := os.Getenv(EnvHome); env != "" {
		return []string{env}
	}

	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "automation-gateway"))
	}
	return append(dirs, DeviceDir)
}

// findConfig returns config.yaml or config.yml in dir, preferring .yaml.
func findConfig(dir string) (string, bool) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	if path, ok := findConfig(dir); ok {
		return Load(path)
	}
	return Default(), nil
}

// LoadDefault loads the first config file found in SearchDirs and returns
// its path. With no file anywhere it returns defaults and an empty path.
func LoadDefault() (*Config, string, error) {
	for _, dir := range SearchDirs() {
		if path, ok := findConfig(dir); ok {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	return Default(), "", nil
}
