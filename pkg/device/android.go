// Package device provides Android device management via ADB.
package device

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/labcitrus/avagen-runner/pkg/logger"
)

// Runner executes an adb invocation and returns its stdout.
type Runner func(ctx context.Context, adbPath string, args ...string) (string, error)

// execRunner runs adb as a subprocess.
func execRunner(ctx context.Context, adbPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, adbPath, args...)
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

// AndroidDevice manages an Android device connection via ADB.
type AndroidDevice struct {
	serial     string
	adbPath    string
	run        Runner
	log        zerolog.Logger
	socketPath string // Unix socket path for UIAutomator2 (Linux/Mac)
	localPort  int    // TCP port for UIAutomator2 (Windows)
}

// Options configures New.
type Options struct {
	Serial  string        // empty = first connected device
	ADBPath string        // empty = look up adb in PATH
	Wait    time.Duration // how long to wait for the device (default 5s)
	Runner  Runner        // nil = run adb as a subprocess
}

// New connects to an Android device.
func New(ctx context.Context, opts Options) (*AndroidDevice, error) {
	adbPath := opts.ADBPath
	if adbPath == "" {
		p, err := findADB()
		if err != nil {
			return nil, err
		}
		adbPath = p
	}
	run := opts.Runner
	if run == nil {
		run = execRunner
	}

	d := &AndroidDevice{
		serial:  opts.Serial,
		adbPath: adbPath,
		run:     run,
		log:     logger.Component("device"),
	}

	if d.serial == "" {
		serials, err := d.ListDevices(ctx)
		if err != nil {
			return nil, fmt.Errorf("no device specified and auto-detect failed: %w", err)
		}
		if len(serials) == 0 {
			return nil, fmt.Errorf("no device specified and auto-detect failed: no connected devices found")
		}
		d.serial = serials[0]
	}
	d.log = d.log.With().Str("serial", d.serial).Logger()

	wait := opts.Wait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	if err := d.waitForDevice(ctx, wait); err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}

	d.log.Info().Msg("device connected")
	return d, nil
}

// ListDevices returns the serials of devices in the "device" state.
func (d *AndroidDevice) ListDevices(ctx context.Context) ([]string, error) {
	out, err := d.run(ctx, d.adbPath, "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

func parseDevices(out string) []string {
	var serials []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[1] == "device" {
			serials = append(serials, parts[0])
		}
	}
	return serials
}

// Serial returns the device serial number.
func (d *AndroidDevice) Serial() string {
	return d.serial
}

// Shell executes a shell command on the device.
func (d *AndroidDevice) Shell(cmd string) (string, error) {
	return d.adb(context.Background(), "shell", cmd)
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
	_, err := d.adb(context.Background(), "forward", fmt.Sprintf("tcp:%d", localPort), fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveForward removes a port forward.
func (d *AndroidDevice) RemoveForward(localPort int) error {
	_, err := d.adb(context.Background(), "forward", "--remove", fmt.Sprintf("tcp:%d", localPort))
	return err
}

// ForwardSocket forwards a Unix socket to a device TCP port.
func (d *AndroidDevice) ForwardSocket(socketPath string, remotePort int) error {
	_, err := d.adb(context.Background(), "forward", "localfilesystem:"+socketPath, fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveSocketForward removes a Unix socket forward.
func (d *AndroidDevice) RemoveSocketForward(socketPath string) error {
	_, err := d.adb(context.Background(), "forward", "--remove", "localfilesystem:"+socketPath)
	return err
}

// DefaultSocketPath returns the default Unix socket path for this device.
func (d *AndroidDevice) DefaultSocketPath() string {
	return fmt.Sprintf("/tmp/uia2-%s.sock", d.serial)
}

// SocketPath returns the current UIAutomator2 socket path (empty if not started or on Windows).
func (d *AndroidDevice) SocketPath() string {
	return d.socketPath
}

// LocalPort returns the current UIAutomator2 TCP port (0 if not started or on Linux/Mac).
func (d *AndroidDevice) LocalPort() int {
	return d.localPort
}

// ScreenSize reads the physical display size with `wm size`. An override
// size takes precedence when one is set.
func (d *AndroidDevice) ScreenSize() (int, int, error) {
	out, err := d.Shell("wm size")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get screen size: %w", err)
	}
	return ParseWMSize(out)
}

// ParseWMSize parses `wm size` output such as
//
//	Physical size: 1080x2400
//	Override size: 720x1600
func ParseWMSize(out string) (int, int, error) {
	var physical, override string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(line[idx+1:])
		switch {
		case strings.HasPrefix(line, "Override"):
			override = value
		case strings.HasPrefix(line, "Physical"):
			physical = value
		}
	}
	size := override
	if size == "" {
		size = physical
	}

	parts := strings.Split(size, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected wm size output: %q", strings.TrimSpace(out))
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("failed to parse screen size: %q", size)
	}
	return w, h, nil
}

// adb executes an ADB command against this device.
func (d *AndroidDevice) adb(ctx context.Context, args ...string) (string, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if d.serial != "" {
		cmdArgs = append(cmdArgs, "-s", d.serial)
	}
	cmdArgs = append(cmdArgs, args...)

	out, err := d.run(ctx, d.adbPath, cmdArgs...)
	if err != nil {
		d.log.Debug().Strs("args", args).Err(err).Msg("adb failed")
	}
	return out, err
}

// waitForDevice polls until the device reports the "device" state.
func (d *AndroidDevice) waitForDevice(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if d.isConnected(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for device %s", d.serial)
		case <-ticker.C:
		}
	}
}

func (d *AndroidDevice) isConnected(ctx context.Context) bool {
	out, err := d.adb(ctx, "get-state")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "device"
}

// findADB locates the ADB binary.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("adb not found in PATH; ensure Android SDK is installed")
}
