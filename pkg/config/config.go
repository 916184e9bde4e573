// Package config handles configuration for avagen-runner.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/labcitrus/avagen-runner/pkg/core"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Directories
	Plans  string `yaml:"plans"`  // Directory of <appId>_actionplan.json files
	Output string `yaml:"output"` // Report directory

	Pacing Pacing `yaml:"pacing"`
	Device Device `yaml:"device"`
	Screen Screen `yaml:"screen"`
	Log    Log    `yaml:"log"`
}

// Pacing holds inter-step delays in milliseconds.
type Pacing struct {
	StepDelayMs    int64 `yaml:"stepDelayMs"`
	ScrollSettleMs int64 `yaml:"scrollSettleMs"`
	SleepDefaultMs int64 `yaml:"sleepDefaultMs"`
}

// Device selects the Android device and the automation backend.
type Device struct {
	Driver     string `yaml:"driver"`     // uiautomator2 (default) or appium
	Serial     string `yaml:"serial"`     // empty = first connected device
	SocketPath string `yaml:"socketPath"` // empty = /tmp/uia2-<serial>.sock
	Port       int    `yaml:"port"`       // device-side server port
	ADB        string `yaml:"adb"`        // empty = adb from PATH
	AppiumURL  string `yaml:"appiumUrl"`  // Appium server for the appium driver
}

// Supported drivers.
const (
	DriverUIAutomator2 = "uiautomator2"
	DriverAppium       = "appium"
)

// Screen overrides the screen size of dry runs.
type Screen struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Log configures the log file.
type Log struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Plans:  GetPlansDir(),
		Output: GetReportsDir(),
		Pacing: Pacing{
			StepDelayMs:    1000,
			ScrollSettleMs: 2000,
			SleepDefaultMs: 1000,
		},
		Device: Device{
			Driver:    DriverUIAutomator2,
			Port:      6790,
			AppiumURL: "http://127.0.0.1:4723",
		},
		Screen: Screen{Width: 1080, Height: 1920},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load loads configuration from a file. Unset fields keep their defaults,
// paths have ~ expanded, and relative plans, output and log paths are
// taken relative to the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.expand(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return Default(), nil
}

func (c *Config) expand(base string) error {
	for _, p := range []*string{&c.Plans, &c.Output, &c.Log.File, &c.Device.SocketPath, &c.Device.ADB} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	// adb and the socket path keep their meaning outside the workspace.
	for _, p := range []*string{&c.Plans, &c.Output, &c.Log.File} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Plans == "" {
		return core.ErrMissingRequired.WithMessage("plans directory is required")
	}
	if c.Pacing.StepDelayMs < 0 || c.Pacing.ScrollSettleMs < 0 || c.Pacing.SleepDefaultMs < 0 {
		return core.ErrInvalidConfig.WithMessage("pacing delays must not be negative")
	}
	if c.Screen.Width < 0 || c.Screen.Height < 0 {
		return core.ErrInvalidConfig.WithMessage("screen size must not be negative")
	}
	switch c.Device.Driver {
	case "", DriverUIAutomator2, DriverAppium:
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported driver %q (use uiautomator2 or appium)", c.Device.Driver))
	}
	if c.Device.Port < 0 || c.Device.Port > 65535 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("invalid device port %d", c.Device.Port))
	}
	return nil
}

// Durations returns the pacing delays.
func (p Pacing) Durations() (step, scrollSettle, sleep time.Duration) {
	return time.Duration(p.StepDelayMs) * time.Millisecond,
		time.Duration(p.ScrollSettleMs) * time.Millisecond,
		time.Duration(p.SleepDefaultMs) * time.Millisecond
}
