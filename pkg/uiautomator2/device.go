package uiautomator2

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
)

// Back presses the back button.
func (c *Client) Back() error {
	_, err := c.request("POST", c.sessionPath("/back"), nil)
	return err
}

// PressKeyCode presses a key by key code.
func (c *Client) PressKeyCode(keyCode int) error {
	req := KeyCodeRequest{KeyCode: keyCode}
	_, err := c.request("POST", c.sessionPath("/appium/device/press_keycode"), req)
	return err
}

// GetDeviceInfo returns device information.
func (c *Client) GetDeviceInfo() (*DeviceInfo, error) {
	data, err := c.request("GET", c.sessionPath("/appium/device/info"), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Value DeviceInfo `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &resp.Value, nil
}

// Source returns the UI hierarchy XML.
func (c *Client) Source() (string, error) {
	data, err := c.request("GET", c.sessionPath("/source"), nil)
	if err != nil {
		return "", err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}

	source, _ := resp.Value.(string)
	return source, nil
}

// ParseDisplaySize parses a "1080x2400" size string.
func ParseDisplaySize(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected display size: %q", s)
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("unexpected display size: %q", s)
	}
	return w, h, nil
}
