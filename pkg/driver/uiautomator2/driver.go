// Package uiautomator2 implements core.Platform on top of a UIAutomator2
// server and adb.
package uiautomator2

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/labcitrus/avagen-runner/pkg/device"
	"github.com/labcitrus/avagen-runner/pkg/logger"
	"github.com/labcitrus/avagen-runner/pkg/uiautomator2"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// Fallback screen size when neither the server nor adb can report one.
const (
	FallbackWidth  = 1080
	FallbackHeight = 1920
)

// ShellExecutor runs shell commands on a device.
// Implemented by device.AndroidDevice.
type ShellExecutor interface {
	Shell(cmd string) (string, error)
}

// UIA2Client defines the UIAutomator2 operations the driver needs.
// Implemented by uiautomator2.Client. Allows mocking in tests.
type UIA2Client interface {
	FindElement(strategy, selector string) (*uiautomator2.Element, error)
	ActiveElement() (*uiautomator2.Element, error)
	Click(x, y int) error
	Back() error
	Source() (string, error)
	GetDeviceInfo() (*uiautomator2.DeviceInfo, error)
}

// Driver implements core.Platform using UIAutomator2.
type Driver struct {
	client UIA2Client
	device ShellExecutor // for adb input swipe and wm size
	log    zerolog.Logger

	sizeOnce      sync.Once
	width, height int
}

// New creates a new UIAutomator2 driver. device may be nil, in which case
// swipes are unavailable.
func New(client UIA2Client, device ShellExecutor) *Driver {
	return &Driver{
		client: client,
		device: device,
		log:    logger.Component("uia2-driver"),
	}
}

// Root fetches and parses the current page source.
func (d *Driver) Root() uitree.Node {
	src, err := d.client.Source()
	if err != nil {
		d.log.Warn().Err(err).Msg("failed to fetch page source")
		return nil
	}
	root, err := uitree.ParsePageSource(src)
	if err != nil {
		d.log.Warn().Err(err).Msg("failed to parse page source")
		return nil
	}
	return root
}

// Click taps the centre of the node's bounds. Nodes without bounds are
// clicked through a server-side lookup by resource id.
func (d *Driver) Click(node uitree.Node) bool {
	b := node.Bounds()
	if !b.IsEmpty() {
		x, y := b.Center()
		return d.Tap(x, y)
	}

	id := node.ResourceID()
	if id == "" {
		d.log.Warn().Str("node", uitree.Describe(node)).Msg("cannot click node without bounds or id")
		return false
	}
	elem, err := d.client.FindElement(uiautomator2.StrategyID, id)
	if err != nil {
		d.log.Warn().Err(err).Str("id", id).Msg("element lookup failed")
		return false
	}
	if err := elem.Click(); err != nil {
		d.log.Warn().Err(err).Str("id", id).Msg("element click failed")
		return false
	}
	return true
}

// SetText replaces the text of the node. The element is looked up by
// resource id; nodes without one receive the text through the focused
// element.
func (d *Driver) SetText(node uitree.Node, text string) bool {
	var (
		elem *uiautomator2.Element
		err  error
	)
	if id := node.ResourceID(); id != "" {
		elem, err = d.client.FindElement(uiautomator2.StrategyID, id)
	} else {
		elem, err = d.client.ActiveElement()
	}
	if err != nil {
		d.log.Warn().Err(err).Str("node", uitree.Describe(node)).Msg("no element to type into")
		return false
	}
	if err := elem.SendKeys(text); err != nil {
		d.log.Warn().Err(err).Msg("failed to input text")
		return false
	}
	return true
}

// Swipe performs a coordinate swipe with `adb shell input swipe`.
func (d *Driver) Swipe(x1, y1, x2, y2, durationMs int) bool {
	if d.device == nil {
		d.log.Warn().Msg("swipe requires device access")
		return false
	}
	if durationMs <= 0 {
		durationMs = 300
	}
	cmd := fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs)
	if _, err := d.device.Shell(cmd); err != nil {
		d.log.Warn().Err(err).Msg("failed to swipe")
		return false
	}
	return true
}

// Tap performs a gesture click at screen coordinates.
func (d *Driver) Tap(x, y int) bool {
	if err := d.client.Click(x, y); err != nil {
		d.log.Warn().Err(err).Int("x", x).Int("y", y).Msg("tap failed")
		return false
	}
	return true
}

// PressBack presses the global back button.
func (d *Driver) PressBack() bool {
	if err := d.client.Back(); err != nil {
		d.log.Warn().Err(err).Msg("failed to press back")
		return false
	}
	return true
}

// ScreenSize returns the display size, resolved once per driver.
func (d *Driver) ScreenSize() (int, int) {
	d.sizeOnce.Do(func() {
		w, h, err := d.screenSize()
		if err != nil {
			d.log.Warn().Err(err).Int("width", FallbackWidth).Int("height", FallbackHeight).Msg("using fallback screen size")
			w, h = FallbackWidth, FallbackHeight
		}
		d.width, d.height = w, h
	})
	return d.width, d.height
}

func (d *Driver) screenSize() (int, int, error) {
	if info, err := d.client.GetDeviceInfo(); err == nil && info.RealDisplaySize != "" {
		if w, h, err := uiautomator2.ParseDisplaySize(info.RealDisplaySize); err == nil {
			return w, h, nil
		}
	}

	if d.device == nil {
		return 0, 0, fmt.Errorf("no device connection available to get screen size")
	}
	out, err := d.device.Shell("wm size")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get screen size: %w", err)
	}
	return device.ParseWMSize(out)
}
