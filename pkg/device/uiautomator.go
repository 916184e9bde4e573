package device

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"
)

// UIAutomator2 package names
const (
	UIAutomator2Server = "io.appium.uiautomator2.server"
	UIAutomator2Test   = "io.appium.uiautomator2.server.test"
)

// Port range for TCP forwarding (Windows)
const (
	portRangeStart = 6001
	portRangeEnd   = 7001
)

// UIAutomator2Config holds configuration for the UIAutomator2 server.
type UIAutomator2Config struct {
	SocketPath string        // Unix socket path (Linux/Mac only, default: /tmp/uia2-<serial>.sock)
	LocalPort  int           // TCP port (Windows only, default: auto-find free port)
	DevicePort int           // Port on device (default: 6790)
	Timeout    time.Duration // Startup timeout (default: 30s)
}

// DefaultUIAutomator2Config returns default configuration.
func DefaultUIAutomator2Config() UIAutomator2Config {
	return UIAutomator2Config{
		DevicePort: 6790,
		Timeout:    30 * time.Second,
	}
}

// StartUIAutomator2 starts the UIAutomator2 server on the device and waits
// until it answers its status endpoint.
func (d *AndroidDevice) StartUIAutomator2(ctx context.Context, cfg UIAutomator2Config) error {
	if cfg.DevicePort == 0 {
		cfg.DevicePort = DefaultUIAutomator2Config().DevicePort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultUIAutomator2Config().Timeout
	}

	for _, pkg := range []string{UIAutomator2Server, UIAutomator2Test} {
		if !d.IsInstalled(pkg) {
			return fmt.Errorf("UIAutomator2 package not installed: %s", pkg)
		}
	}

	d.StopUIAutomator2()

	var err error
	if runtime.GOOS == "windows" {
		err = d.setupTCPForward(cfg)
	} else {
		err = d.setupSocketForward(cfg)
	}
	if err != nil {
		return err
	}

	instrumentCmd := fmt.Sprintf(
		"nohup am instrument -w -e disableAnalytics true "+
			"%s/androidx.test.runner.AndroidJUnitRunner "+
			"> /dev/null 2>&1 &",
		UIAutomator2Test,
	)
	if _, err := d.Shell(instrumentCmd); err != nil {
		return fmt.Errorf("failed to start instrumentation: %w", err)
	}

	d.log.Info().Int("port", cfg.DevicePort).Msg("waiting for UIAutomator2 server")
	if err := d.waitForUIAutomator2Ready(ctx, cfg.Timeout); err != nil {
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

// StopUIAutomator2 stops the server and removes its forwards.
func (d *AndroidDevice) StopUIAutomator2() {
	d.Shell("am force-stop " + UIAutomator2Server)
	d.Shell("am force-stop " + UIAutomator2Test)

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

func (d *AndroidDevice) waitForUIAutomator2Ready(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if d.checkHealth(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("UIAutomator2 server not ready after %v", timeout)
		case <-ticker.C:
		}
	}
}

func (d *AndroidDevice) checkHealth(ctx context.Context) bool {
	switch {
	case d.socketPath != "":
		socketPath := d.socketPath
		client := &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var dialer net.Dialer
					return dialer.DialContext(ctx, "unix", socketPath)
				},
			},
			Timeout: 2 * time.Second,
		}
		return checkHealthWithClient(ctx, client, "http://localhost/wd/hub/status")
	case d.localPort != 0:
		client := &http.Client{Timeout: 2 * time.Second}
		return checkHealthWithClient(ctx, client, fmt.Sprintf("http://127.0.0.1:%d/wd/hub/status", d.localPort))
	}
	return false
}

func checkHealthWithClient(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
