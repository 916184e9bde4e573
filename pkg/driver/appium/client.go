// Package appium implements core.Platform on an Appium server via the W3C
// WebDriver protocol.
package appium

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/labcitrus/avagen-runner/pkg/logger"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Android KEYCODE_BACK
const keyCodeBack = 4

// Client handles HTTP communication with an Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	platform  string
	log       zerolog.Logger
}

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		log: logger.Component("appium"),
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	c.sessionID = resp.Get("value.sessionId").String()
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}
	c.platform = strings.ToLower(resp.Get("value.capabilities.platformName").String())

	// Element lookups must not add their own waits; pacing is the executor's job.
	if err := c.SetSettings(map[string]interface{}{
		"waitForIdleTimeout":     0,
		"waitForSelectorTimeout": 0,
	}); err != nil {
		c.log.Warn().Err(err).Msg("failed to apply session settings")
	}
	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the current session id.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Platform returns the platform reported by the server (lowercase).
func (c *Client) Platform() string {
	return c.platform
}

// WindowSize returns the window dimensions.
func (c *Client) WindowSize() (int, int, error) {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return 0, 0, err
	}
	w, h := int(resp.Get("value.width").Int()), int(resp.Get("value.height").Int())
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid window size %dx%d", w, h)
	}
	return w, h, nil
}

// FindElement finds a single element and returns its id.
func (c *Client) FindElement(strategy, value string) (string, error) {
	resp, err := c.post(c.sessionPath()+"/element", map[string]interface{}{
		"using": strategy,
		"value": value,
	})
	if err != nil {
		return "", err
	}
	id := extractElementID(resp.Get("value"))
	if id == "" {
		return "", fmt.Errorf("element not found")
	}
	return id, nil
}

// GetActiveElement returns the focused element.
func (c *Client) GetActiveElement() (string, error) {
	resp, err := c.get(c.sessionPath() + "/element/active")
	if err != nil {
		return "", err
	}
	id := extractElementID(resp.Get("value"))
	if id == "" {
		return "", fmt.Errorf("no active element")
	}
	return id, nil
}

// ClickElement clicks an element.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", nil)
	return err
}

// ClearElement clears an input element.
func (c *Client) ClearElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", nil)
	return err
}

// SendElementKeys types text into an element.
func (c *Client) SendElementKeys(elementID, text string) error {
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// performTouchAction sends a single-finger W3C pointer sequence.
func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap taps at screen coordinates.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Swipe drags from (startX, startY) to (endX, endY).
func (c *Client) Swipe(startX, startY, endX, endY, durationMs int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": startX, "y": startY, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pointerMove", "duration": durationMs, "x": endX, "y": endY, "origin": "viewport"},
		{"type": "pointerUp", "button": 0},
	})
}

// Back presses the Android back key.
func (c *Client) Back() error {
	return c.PressKeyCode(keyCodeBack)
}

// PressKeyCode presses an Android key code.
func (c *Client) PressKeyCode(keycode int) error {
	_, err := c.post(c.sessionPath()+"/appium/device/press_keycode", map[string]interface{}{
		"keycode": keycode,
	})
	return err
}

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	return resp.Get("value").String(), nil
}

// SetSettings updates Appium session settings.
func (c *Client) SetSettings(settings map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/appium/settings", map[string]interface{}{
		"settings": settings,
	})
	return err
}

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (gjson.Result, error) {
	return c.request(http.MethodGet, path, nil)
}

func (c *Client) post(path string, body interface{}) (gjson.Result, error) {
	return c.request(http.MethodPost, path, body)
}

func (c *Client) delete(path string) (gjson.Result, error) {
	return c.request(http.MethodDelete, path, nil)
}

func (c *Client) request(method, path string, body interface{}) (gjson.Result, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("appium request")

	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("failed to parse response (status %d)", resp.StatusCode)
	}
	result := gjson.ParseBytes(respBody)

	// WebDriver errors carry value.error and value.message.
	if errType := result.Get("value.error"); errType.Exists() {
		return result, fmt.Errorf("%s: %s", errType.String(), result.Get("value.message").String())
	}
	if resp.StatusCode >= 400 {
		return result, fmt.Errorf("server error %d", resp.StatusCode)
	}
	return result, nil
}

func extractElementID(value gjson.Result) string {
	if id := value.Get(w3cElementKey); id.Exists() {
		return id.String()
	}
	// Legacy format
	return value.Get("ELEMENT").String()
}

var errNoResourceID = errors.New("node has no bounds or resource id")
