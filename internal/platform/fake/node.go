package fake

import "github.com/mj1618/device-bridge/internal/model"

// Node is an in-memory UI tree node.
type Node struct {
	Class       string
	Label       string
	Description string
	Caps        model.Flag
	Rect        model.Rect
	Children    []*Node
}

func (n *Node) ClassName() string          { return n.Class }
func (n *Node) Text() string               { return n.Label }
func (n *Node) ContentDescription() string { return n.Description }
func (n *Node) Flags() model.Flag          { return n.Caps }
func (n *Node) BoundsInScreen() model.Rect { return n.Rect }
func (n *Node) ChildCount() int            { return len(n.Children) }

func (n *Node) Child(i int) model.Node {
	if i < 0 || i >= len(n.Children) || n.Children[i] == nil {
		return nil
	}
	return n.Children[i]
}

// XYWH builds a Rect from x, y, width and height.
func XYWH(x, y, w, h int) model.Rect {
	return model.Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// DemoTree returns a small login screen used by the demo backend.
func DemoTree() *Node {
	return &Node{
		Class: "android.widget.FrameLayout",
		Rect:  XYWH(0, 0, 1080, 2400),
		Children: []*Node{
			{Class: "android.widget.TextView", Label: "Sign in", Rect: XYWH(80, 300, 920, 120)},
			{Class: "android.widget.EditText", Description: "Email", Caps: model.Focusable | model.Editable | model.Clickable, Rect: XYWH(80, 500, 920, 140)},
			{Class: "android.widget.EditText", Description: "Password", Caps: model.Focusable | model.Editable | model.Clickable, Rect: XYWH(80, 680, 920, 140)},
			{Class: "android.widget.CheckBox", Label: "Remember me", Caps: model.Checkable | model.Clickable, Rect: XYWH(80, 860, 500, 100)},
			{Class: "android.widget.Button", Label: "OK", Caps: model.Clickable | model.Focusable, Rect: XYWH(80, 1020, 920, 160)},
		},
	}
}
