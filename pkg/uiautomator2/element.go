package uiautomator2

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// Element is a server-side element reference.
type Element struct {
	id     string
	client *Client
}

// ID returns the element ID.
func (e *Element) ID() string {
	return e.id
}

// FindElement finds a single element.
func (c *Client) FindElement(strategy, selector string) (*Element, error) {
	req := FindElementRequest{
		Strategy: strategy,
		Selector: selector,
	}

	data, err := c.request("POST", c.sessionPath("/element"), req)
	if err != nil {
		return nil, err
	}

	id, err := parseElementID(data)
	if err != nil {
		return nil, fmt.Errorf("parse element response: %w", err)
	}
	if id == "" {
		return nil, fmt.Errorf("element not found: %s=%s", strategy, selector)
	}
	return &Element{id: id, client: c}, nil
}

// ActiveElement returns the currently focused element.
func (c *Client) ActiveElement() (*Element, error) {
	data, err := c.request("GET", c.sessionPath("/element/active"), nil)
	if err != nil {
		return nil, err
	}

	id, err := parseElementID(data)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("no active element")
	}
	return &Element{id: id, client: c}, nil
}

func parseElementID(data []byte) (string, error) {
	var resp struct {
		Value ElementModel `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	return resp.Value.ELEMENT, nil
}

// Click taps the element.
func (e *Element) Click() error {
	_, err := e.client.request("POST", e.client.sessionPath("/element/"+e.id+"/click"), nil)
	return err
}

// Clear clears the element's text.
func (e *Element) Clear() error {
	_, err := e.client.request("POST", e.client.sessionPath("/element/"+e.id+"/clear"), nil)
	return err
}

// SendKeys replaces the element's text.
func (e *Element) SendKeys(text string) error {
	req := InputTextRequest{Text: text}
	_, err := e.client.request("POST", e.client.sessionPath("/element/"+e.id+"/value"), req)
	return err
}

// Text returns the element's text content.
func (e *Element) Text() (string, error) {
	data, err := e.client.request("GET", e.client.sessionPath("/element/"+e.id+"/text"), nil)
	if err != nil {
		return "", err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}

	text, _ := resp.Value.(string)
	return text, nil
}
