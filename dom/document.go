// Package dom holds the server-side copy of the dashboard's content region as
// an HTML node tree that views write into by element id.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RootID is the id of the content region element.
const RootID = "dashboard-content"

// CanvasAttr marks an element as a chart drawing surface.
const CanvasAttr = "data-canvas"

var ErrNotFound = errors.New("dom: element not found")

// Document is not safe for concurrent use; callers serialize access.
type Document struct {
	root *html.Node
}

func New() *Document {
	d := &Document{}
	d.Clear()
	return d
}

// Clear removes everything below the root.
func (d *Document) Clear() {
	d.root = &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "id", Val: RootID},
			{Key: "class", Val: "dashboard-content"},
		},
	}
}

// Mount replaces the root's children with the parsed fragment.
func (d *Document) Mount(fragment string) error {
	return d.replaceChildren(d.root, fragment)
}

// SetInner replaces the children of the element with the given id.
func (d *Document) SetInner(id, fragment string) error {
	n := d.find(id)
	if n == nil {
		return fmt.Errorf("%w: #%s", ErrNotFound, id)
	}
	return d.replaceChildren(n, fragment)
}

// Inner renders the children of the element with the given id.
func (d *Document) Inner(id string) (string, error) {
	n := d.find(id)
	if n == nil {
		return "", fmt.Errorf("%w: #%s", ErrNotFound, id)
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (d *Document) Has(id string) bool { return d.find(id) != nil }

// Tag returns the element name of id, or "" when it is missing.
func (d *Document) Tag(id string) string {
	if n := d.find(id); n != nil {
		return n.Data
	}
	return ""
}

// IsCanvas reports whether id names an element carrying the canvas marker.
func (d *Document) IsCanvas(id string) bool {
	n := d.find(id)
	if n == nil {
		return false
	}
	_, ok := attr(n, CanvasAttr)
	return ok
}

func (d *Document) AddClass(id, class string) error {
	n := d.find(id)
	if n == nil {
		return fmt.Errorf("%w: #%s", ErrNotFound, id)
	}
	classes := strings.Fields(getAttr(n, "class"))
	for _, c := range classes {
		if c == class {
			return nil
		}
	}
	setAttr(n, "class", strings.Join(append(classes, class), " "))
	return nil
}

func (d *Document) RemoveClass(id, class string) error {
	n := d.find(id)
	if n == nil {
		return fmt.Errorf("%w: #%s", ErrNotFound, id)
	}
	classes := strings.Fields(getAttr(n, "class"))
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	setAttr(n, "class", strings.Join(kept, " "))
	return nil
}

func (d *Document) HasClass(id, class string) bool {
	n := d.find(id)
	if n == nil {
		return false
	}
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// IDs lists every element id below the root in document order.
func (d *Document) IDs() []string {
	var ids []string
	walk(d.root, func(n *html.Node) bool {
		if n != d.root {
			if id, ok := attr(n, "id"); ok && id != "" {
				ids = append(ids, id)
			}
		}
		return false
	})
	return ids
}

// Render writes the whole region, root element included.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	d.Render(&buf)
	return buf.String()
}

func (d *Document) find(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if v, ok := attr(n, "id"); ok && v == id {
			found = n
			return true
		}
		return false
	})
	return found
}

func (d *Document) replaceChildren(n *html.Node, fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     n.Data,
		DataAtom: n.DataAtom,
	})
	if err != nil {
		return fmt.Errorf("dom: parse fragment: %w", err)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// walk visits nodes depth first until fn returns true.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && fn(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, fn) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func getAttr(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
