package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/device"
	"github.com/labcitrus/avagen-runner/pkg/driver/appium"
	uia2driver "github.com/labcitrus/avagen-runner/pkg/driver/uiautomator2"
	"github.com/labcitrus/avagen-runner/pkg/logger"
	"github.com/labcitrus/avagen-runner/pkg/uiautomator2"
)

// createAndroidPlatform connects to the device, starts the UIAutomator2
// server and opens a session.
func createAndroidPlatform(ctx context.Context, w io.Writer, rc *RunConfig) (core.Platform, func(), error) {
	if rc.Serial != "" {
		printSetupStep(w, fmt.Sprintf("Connecting to device %s...", rc.Serial))
		logger.Info("Connecting to Android device: %s", rc.Serial)
	} else {
		printSetupStep(w, "Connecting to device...")
		logger.Info("Auto-detecting Android device...")
	}
	dev, err := device.New(ctx, device.Options{
		Serial:  rc.Serial,
		ADBPath: rc.Config.Device.ADB,
	})
	if err != nil {
		logger.Error("Failed to connect to device: %v", err)
		return nil, nil, fmt.Errorf("connect to device: %w", err)
	}
	printSetupSuccess(w, fmt.Sprintf("Connected to %s", dev.Serial()))

	// Fail fast when another runner holds the device.
	socketPath := rc.Config.Device.SocketPath
	if socketPath == "" {
		socketPath = dev.DefaultSocketPath()
	}
	if isSocketInUse(socketPath) {
		return nil, nil, fmt.Errorf("device %s is already in use\n"+
			"Another avagen-runner instance may be using this device.\n"+
			"Socket: %s", dev.Serial(), socketPath)
	}

	printSetupStep(w, "Starting UIAutomator2 server...")
	logger.Info("Starting UIAutomator2 server on device %s", dev.Serial())
	uia2Cfg := device.DefaultUIAutomator2Config()
	uia2Cfg.SocketPath = rc.Config.Device.SocketPath
	if rc.Config.Device.Port > 0 {
		uia2Cfg.DevicePort = rc.Config.Device.Port
	}
	if err := dev.StartUIAutomator2(ctx, uia2Cfg); err != nil {
		logger.Error("Failed to start UIAutomator2: %v", err)
		return nil, nil, fmt.Errorf("start UIAutomator2: %w", err)
	}
	printSetupSuccess(w, "UIAutomator2 server started")

	var client *uiautomator2.Client
	if dev.SocketPath() != "" {
		client = uiautomator2.NewClient(dev.SocketPath())
	} else {
		client = uiautomator2.NewClientTCP(dev.LocalPort())
	}

	printSetupStep(w, "Creating session...")
	caps := uiautomator2.Capabilities{
		PlatformName: "Android",
		DeviceName:   dev.Serial(),
	}
	if err := client.CreateSession(caps); err != nil {
		logger.Error("Failed to create session: %v", err)
		dev.StopUIAutomator2()
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("Session created successfully: %s", client.SessionID())
	printSetupSuccess(w, "Session created")

	driver := uia2driver.New(client, dev)
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close session: %v", err)
		}
		dev.StopUIAutomator2()
	}
	return driver, cleanup, nil
}

// isSocketInUse reports whether a live server listens on socketPath.
// A stale socket file is removed.
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

// createAppiumPlatform opens a session on an Appium server.
func createAppiumPlatform(w io.Writer, rc *RunConfig) (core.Platform, func(), error) {
	printSetupStep(w, fmt.Sprintf("Connecting to Appium server: %s", rc.AppiumURL))
	logger.Info("Creating Appium driver, server URL: %s", rc.AppiumURL)

	caps := map[string]interface{}{
		"platformName":          "Android",
		"appium:automationName": "UiAutomator2",
		"appium:noReset":        true,
	}
	if rc.Serial != "" {
		caps["appium:udid"] = rc.Serial
	}

	client := appium.NewClient(rc.AppiumURL)
	if err := client.Connect(caps); err != nil {
		logger.Error("Failed to create Appium session: %v", err)
		return nil, nil, fmt.Errorf("create appium session: %w", err)
	}
	logger.Info("Appium session created: %s", client.SessionID())
	printSetupSuccess(w, "Session created")

	cleanup := func() {
		if err := client.Disconnect(); err != nil {
			logger.Warn("Failed to close Appium session: %v", err)
		}
	}
	return appium.NewDriver(client), cleanup, nil
}
