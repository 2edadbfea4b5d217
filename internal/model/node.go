// Package model reduces a live UI tree to the actionable elements a
// controller can target.
package model

import (
	"fmt"
	"strings"
)

// Node is a read-only view of one node in the platform's live UI tree.
// The tree can change while it is being walked, so Child may return nil
// for an index that was valid when ChildCount was read.
type Node interface {
	ClassName() string
	Text() string
	ContentDescription() string
	Flags() Flag
	BoundsInScreen() Rect
	ChildCount() int
	Child(i int) Node
}

// Rect is a screen-space rectangle in pixels, edges inclusive-exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// XYWH returns the rectangle as [x, y, width, height].
func (r Rect) XYWH() [4]int {
	return [4]int{r.Left, r.Top, r.Width(), r.Height()}
}

// Flag is a capability bit exposed by the platform for a node.
type Flag uint16

const (
	Clickable Flag = 1 << iota
	Focusable
	Editable
	Checkable
	LongClickable
	Scrollable
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Clickable, "clickable"},
	{Focusable, "focusable"},
	{Editable, "editable"},
	{Checkable, "checkable"},
	{LongClickable, "long-clickable"},
	{Scrollable, "scrollable"},
}

// Has reports whether any bit of other is set in f.
func (f Flag) Has(other Flag) bool {
	return f&other != 0
}

func (f Flag) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseFlags converts capability names (as used in configuration) into a
// flag set. Names are case-insensitive; "long_clickable" and
// "long-clickable" are both accepted.
func ParseFlags(names []string) (Flag, error) {
	var out Flag
	for _, n := range names {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(n)), "_", "-")
		found := false
		for _, fn := range flagNames {
			if fn.name == key {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown capability flag %q", n)
		}
	}
	return out, nil
}
