package appium

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/labcitrus/avagen-runner/pkg/logger"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// Fallback screen size when the server cannot report one.
const (
	FallbackWidth  = 1080
	FallbackHeight = 1920
)

// AppiumClient defines the Appium operations the driver needs.
// Implemented by Client. Allows mocking in tests.
type AppiumClient interface {
	Source() (string, error)
	FindElement(strategy, value string) (string, error)
	GetActiveElement() (string, error)
	ClickElement(elementID string) error
	ClearElement(elementID string) error
	SendElementKeys(elementID, text string) error
	Tap(x, y int) error
	Swipe(startX, startY, endX, endY, durationMs int) error
	Back() error
	WindowSize() (int, int, error)
}

// Driver implements core.Platform using an Appium session.
type Driver struct {
	client AppiumClient
	log    zerolog.Logger

	sizeOnce      sync.Once
	width, height int
}

// NewDriver creates a driver on an open session.
func NewDriver(client AppiumClient) *Driver {
	return &Driver{
		client: client,
		log:    logger.Component("appium-driver"),
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

// Click taps the centre of the node's bounds, or clicks it by resource id
// when it has none.
func (d *Driver) Click(node uitree.Node) bool {
	if b := node.Bounds(); !b.IsEmpty() {
		x, y := b.Center()
		return d.ok(d.client.Tap(x, y), "click")
	}
	id, err := d.elementFor(node, false)
	if err != nil {
		d.log.Warn().Err(err).Str("node", uitree.Describe(node)).Msg("click: element lookup failed")
		return false
	}
	return d.ok(d.client.ClickElement(id), "click")
}

// SetText replaces the text of the node's element. Nodes without a
// resource id fall back to the focused element.
func (d *Driver) SetText(node uitree.Node, text string) bool {
	id, err := d.elementFor(node, true)
	if err != nil {
		d.log.Warn().Err(err).Str("node", uitree.Describe(node)).Msg("set text: element lookup failed")
		return false
	}
	if err := d.client.ClearElement(id); err != nil {
		d.log.Debug().Err(err).Msg("clear before set text failed")
	}
	return d.ok(d.client.SendElementKeys(id, text), "set text")
}

// Swipe drags between two points.
func (d *Driver) Swipe(x1, y1, x2, y2, durationMs int) bool {
	return d.ok(d.client.Swipe(x1, y1, x2, y2, durationMs), "swipe")
}

// Tap taps at screen coordinates.
func (d *Driver) Tap(x, y int) bool {
	return d.ok(d.client.Tap(x, y), "tap")
}

// PressBack presses the back key.
func (d *Driver) PressBack() bool {
	return d.ok(d.client.Back(), "back")
}

// ScreenSize returns the window size, resolved once per driver.
func (d *Driver) ScreenSize() (int, int) {
	d.sizeOnce.Do(func() {
		w, h, err := d.client.WindowSize()
		if err != nil {
			d.log.Warn().Err(err).Int("width", FallbackWidth).Int("height", FallbackHeight).Msg("using fallback screen size")
			w, h = FallbackWidth, FallbackHeight
		}
		d.width, d.height = w, h
	})
	return d.width, d.height
}

func (d *Driver) elementFor(node uitree.Node, allowActive bool) (string, error) {
	if rid := node.ResourceID(); rid != "" {
		id, err := d.client.FindElement("id", rid)
		if err == nil || !allowActive {
			return id, err
		}
	}
	if allowActive {
		return d.client.GetActiveElement()
	}
	return "", errNoResourceID
}

func (d *Driver) ok(err error, op string) bool {
	if err != nil {
		d.log.Warn().Err(err).Str("op", op).Msg("appium action failed")
		return false
	}
	return true
}
