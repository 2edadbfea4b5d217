package model

import "strings"

// DefaultTriggers is the capability set that makes a node actionable when
// no explicit set is configured. Platform versions disagree on which flag
// marks an input field, so editable and checkable are included alongside
// clickable and focusable.
const DefaultTriggers = Clickable | Focusable | Editable | Checkable

// ElementFilter decides which nodes are emitted into a snapshot and how
// their label and bounds are derived.
type ElementFilter struct {
	Triggers Flag
}

// NewElementFilter returns a filter for the given trigger set. A zero set
// falls back to DefaultTriggers.
func NewElementFilter(triggers Flag) ElementFilter {
	if triggers == 0 {
		triggers = DefaultTriggers
	}
	return ElementFilter{Triggers: triggers}
}

// Actionable reports whether the node carries any trigger capability.
func (f ElementFilter) Actionable(n Node) bool {
	return n.Flags().Has(f.Triggers)
}

// Extract applies the filter to one node. It returns false when the node
// is not actionable or its on-screen rectangle has no area.
func (f ElementFilter) Extract(n Node) (class, label string, bounds [4]int, ok bool) {
	if !f.Actionable(n) {
		return "", "", bounds, false
	}
	r := n.BoundsInScreen()
	if r.Empty() {
		return "", "", bounds, false
	}
	return n.ClassName(), Label(n), r.XYWH(), true
}

// Label returns the node's text when it is not blank, else its
// accessibility description, else "".
func Label(n Node) string {
	if t := n.Text(); strings.TrimSpace(t) != "" {
		return t
	}
	return n.ContentDescription()
}
