package uiautomator2

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devicelab-dev/automation-gateway/pkg/core"
)

// ParsedElement represents an element from page source XML.
type ParsedElement struct {
	Text        string
	ResourceID  string
	ContentDesc string
	ClassName   string
	Package     string
	Bounds      core.Bounds
	Enabled     bool
	Focused     bool
	Clickable   bool
	Children    []*ParsedElement
	Depth       int // 0 for top-level nodes under <hierarchy>
}

// ParsePageSource parses Android UI hierarchy XML into a pre-order element list.
// Supports both formats:
// - UIAutomator dump: uses class name as element tag (e.g., <android.widget.FrameLayout>)
// - Appium format: uses <node> elements
func ParsePageSource(xmlData string) ([]*ParsedElement, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var elements []*ParsedElement
	foundHierarchy := false
	var parseElement func() (*ParsedElement, error)

	parseElement = func() (*ParsedElement, error) {
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

				elem := &ParsedElement{ClassName: t.Name.Local}
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "text":
						elem.Text = attr.Value
					case "resource-id":
						elem.ResourceID = attr.Value
					case "content-desc":
						elem.ContentDesc = attr.Value
					case "class":
						elem.ClassName = attr.Value
					case "package":
						elem.Package = attr.Value
					case "bounds":
						elem.Bounds = parseBounds(attr.Value)
					case "enabled":
						elem.Enabled = attr.Value == "true"
					case "focused":
						elem.Focused = attr.Value == "true"
					case "clickable":
						elem.Clickable = attr.Value == "true"
					}
				}

				for {
					child, err := parseElement()
					if err != nil || child == nil {
						break
					}
					elem.Children = append(elem.Children, child)
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
			elements = append(elements, flattenElement(elem, 0)...)
		}
	}

	if parseErr != nil && len(elements) == 0 {
		return nil, parseErr
	}
	if !foundHierarchy {
		return nil, fmt.Errorf("invalid page source: no hierarchy element found")
	}

	return elements, nil
}

// flattenElement flattens a tree of elements into a pre-order list, setting depth.
func flattenElement(elem *ParsedElement, depth int) []*ParsedElement {
	elem.Depth = depth
	result := []*ParsedElement{elem}
	for _, child := range elem.Children {
		result = append(result, flattenElement(child, depth+1)...)
	}
	return result
}

// ToNodes converts parsed elements to node descriptors, dropping anything
// deeper than maxDepth. Order is preserved.
func ToNodes(elements []*ParsedElement, maxDepth int) []core.Node {
	nodes := make([]core.Node, 0, len(elements))
	for _, e := range elements {
		if e.Depth > maxDepth {
			continue
		}
		nodes = append(nodes, core.Node{
			ClassName:   e.ClassName,
			Text:        e.Text,
			Description: e.ContentDesc,
			ResourceID:  e.ResourceID,
			Package:     e.Package,
			Clickable:   e.Clickable,
			Enabled:     e.Enabled,
			Focused:     e.Focused,
			Bounds:      e.Bounds,
			Depth:       e.Depth,
		})
	}
	return nodes
}

// parseBounds parses Android bounds string "[x1,y1][x2,y2]" to Bounds.
func parseBounds(s string) core.Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.Bounds{}
	}

	x1, _ := strconv.Atoi(parts[0])
	y1, _ := strconv.Atoi(parts[1])
	x2, _ := strconv.Atoi(parts[2])
	y2, _ := strconv.Atoi(parts[3])

	return core.Bounds{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}
