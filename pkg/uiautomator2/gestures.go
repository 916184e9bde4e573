package uiautomator2

// Click performs a tap at screen coordinates.
func (c *Client) Click(x, y int) error {
	req := ClickRequest{
		Offset: &PointModel{X: x, Y: y},
	}
	_, err := c.request("POST", c.sessionPath("/appium/gestures/click"), req)
	return err
}

// ClickElement performs a tap on an element.
func (c *Client) ClickElement(elementID string) error {
	req := ClickRequest{
		Origin: &ElementModel{ELEMENT: elementID},
	}
	_, err := c.request("POST", c.sessionPath("/appium/gestures/click"), req)
	return err
}
