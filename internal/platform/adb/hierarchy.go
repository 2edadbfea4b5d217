package adb

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/mj1618/device-bridge/internal/model"
)

// Node is one element of a uiautomator dump.
type Node struct {
	class    string
	text     string
	desc     string
	flags    model.Flag
	bounds   model.Rect
	children []*Node
}

func (n *Node) ClassName() string          { return n.class }
func (n *Node) Text() string               { return n.text }
func (n *Node) ContentDescription() string { return n.desc }
func (n *Node) Flags() model.Flag          { return n.flags }
func (n *Node) BoundsInScreen() model.Rect { return n.bounds }
func (n *Node) ChildCount() int            { return len(n.children) }

func (n *Node) Child(i int) model.Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Bounds format: "[x1,y1][x2,y2]"
var boundsRe = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

func parseBounds(s string) (model.Rect, bool) {
	m := boundsRe.FindStringSubmatch(s)
	if len(m) < 5 {
		return model.Rect{}, false
	}
	v := make([]int, 4)
	for i := range v {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return model.Rect{}, false
		}
		v[i] = n
	}
	return model.Rect{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}, true
}

var boolAttrs = []struct {
	name string
	flag model.Flag
}{
	{"clickable", model.Clickable},
	{"focusable", model.Focusable},
	{"checkable", model.Checkable},
	{"long-clickable", model.LongClickable},
	{"scrollable", model.Scrollable},
}

// uiautomator reports no editable attribute; text fields are recognised
// by class.
func isEditable(class string) bool {
	return strings.HasSuffix(class, "EditText") || strings.HasSuffix(class, "AutoCompleteTextView")
}

// ParseHierarchy parses the output of `uiautomator dump`. Banner lines
// around the document are ignored. A dump with several top-level nodes is
// wrapped in a synthetic container. A dump with none returns nil.
func ParseHierarchy(data []byte) (*Node, error) {
	start := bytes.Index(data, []byte("<?xml"))
	if start < 0 {
		start = bytes.Index(data, []byte("<hierarchy"))
	}
	if start < 0 {
		return nil, fmt.Errorf("no ui hierarchy in dump output (%d bytes)", len(data))
	}
	data = data[start:]
	if end := bytes.LastIndex(data, []byte("</hierarchy>")); end >= 0 {
		data = data[:end+len("</hierarchy>")]
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse UI XML (length: %d): %w", len(data), err)
	}
	root := doc.SelectElement("hierarchy")
	if root == nil {
		return nil, fmt.Errorf("ui dump has no <hierarchy> element")
	}

	tops := root.SelectElements("node")
	switch len(tops) {
	case 0:
		return nil, nil
	case 1:
		return convert(tops[0]), nil
	}
	container := &Node{class: "android.view.View"}
	for _, el := range tops {
		container.children = append(container.children, convert(el))
	}
	return container, nil
}

// convert copies el and its descendants without recursing.
func convert(el *etree.Element) *Node {
	type item struct {
		el   *etree.Element
		node *Node
	}
	root := newNode(el)
	stack := []item{{el, root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, childEl := range top.el.SelectElements("node") {
			child := newNode(childEl)
			top.node.children = append(top.node.children, child)
			stack = append(stack, item{childEl, child})
		}
	}
	return root
}

func newNode(el *etree.Element) *Node {
	n := &Node{
		class: el.SelectAttrValue("class", ""),
		text:  el.SelectAttrValue("text", ""),
		desc:  el.SelectAttrValue("content-desc", ""),
	}
	for _, a := range boolAttrs {
		if el.SelectAttrValue(a.name, "false") == "true" {
			n.flags |= a.flag
		}
	}
	if isEditable(n.class) {
		n.flags |= model.Editable
	}
	if r, ok := parseBounds(el.SelectAttrValue("bounds", "")); ok {
		n.bounds = r
	}
	return n
}
