package uitree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HierarchyClass is the class name given to the synthetic root created when
// a page source holds more than one top-level window.
const HierarchyClass = "hierarchy"

// ParsePageSource parses Android UI hierarchy XML into a tree.
// Supports both formats:
// - UIAutomator dump: uses class name as element tag (e.g., <android.widget.FrameLayout>)
// - Appium format: uses <node> elements
//
// A single top-level element is returned as the root. Several top-level
// elements are wrapped in a synthetic root of class HierarchyClass.
func ParsePageSource(xmlData string) (*Element, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var roots []*Element
	foundHierarchy := false
	var parseElement func() (*Element, error)

	parseElement = func() (*Element, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == "hierarchy" {
					foundHierarchy = true
					continue
				}

				elem := NewElement(parseAttributes(t))
				for {
					child, err := parseElement()
					if err != nil {
						return nil, err
					}
					if child == nil {
						break
					}
					elem.Append(child)
				}
				return elem, nil

			case xml.EndElement:
				return nil, nil
			}
		}
	}

	var parseErr error
	for {
		elem, err := parseElement()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				parseErr = err
			}
			break
		}
		if elem != nil {
			roots = append(roots, elem)
		}
	}

	if parseErr != nil {
		return nil, fmt.Errorf("invalid page source: %w", parseErr)
	}
	if !foundHierarchy {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}

	switch len(roots) {
	case 0:
		return nil, fmt.Errorf("invalid page source: hierarchy is empty")
	case 1:
		return roots[0], nil
	default:
		return NewElement(Attributes{ClassName: HierarchyClass}).Append(roots...), nil
	}
}

func parseAttributes(t xml.StartElement) Attributes {
	attrs := Attributes{
		ClassName: t.Name.Local, // Class name is the element tag
	}
	editableSet := false

	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "text":
			attrs.Text = attr.Value
		case "resource-id":
			attrs.ResourceID = attr.Value
		case "content-desc":
			attrs.ContentDesc = attr.Value
		case "hint":
			attrs.HintText = attr.Value
		case "class":
			attrs.ClassName = attr.Value
		case "package":
			attrs.Package = attr.Value
		case "bounds":
			attrs.Bounds = parseBounds(attr.Value)
		case "checked":
			attrs.Checked = attr.Value == "true"
		case "clickable":
			attrs.Clickable = attr.Value == "true"
		case "enabled":
			attrs.Enabled = attr.Value == "true"
		case "focused":
			attrs.Focused = attr.Value == "true"
		case "scrollable":
			attrs.Scrollable = attr.Value == "true"
		case "editable":
			attrs.Editable = attr.Value == "true"
			editableSet = true
		}
	}

	// Plain dumps carry no editable flag; infer it from the widget class.
	if !editableSet {
		attrs.Editable = strings.HasSuffix(attrs.ClassName, "EditText") ||
			strings.HasSuffix(attrs.ClassName, "AutoCompleteTextView")
	}
	return attrs
}

// parseBounds parses Android bounds string "[x1,y1][x2,y2]" to Bounds.
func parseBounds(s string) Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}
	}

	x1, _ := strconv.Atoi(parts[0])
	y1, _ := strconv.Atoi(parts[1])
	x2, _ := strconv.Atoi(parts[2])
	y2, _ := strconv.Atoi(parts[3])

	return Bounds{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}
