package model

// Default traversal bounds. The platform tree is assumed acyclic and
// shallow, but nothing enforces that, so the walk is capped.
const (
	DefaultMaxDepth = 128
	DefaultMaxNodes = 20000
)

// BuildOptions configures a TreeSnapshotBuilder.
type BuildOptions struct {
	Filter   ElementFilter
	MaxDepth int // deepest level visited, root is 0 (0 = DefaultMaxDepth)
	MaxNodes int // visit budget (0 = DefaultMaxNodes)
}

// BuildStats describes one traversal.
type BuildStats struct {
	Visited     int  // nodes handed to the filter
	Emitted     int  // elements in the output
	SkippedDeep int  // children not visited because of MaxDepth
	Truncated   bool // MaxNodes was reached before the walk finished
}

// TreeSnapshotBuilder reduces a live UI tree to the ordered list of its
// actionable elements.
type TreeSnapshotBuilder struct {
	opts BuildOptions
}

// NewTreeSnapshotBuilder returns a builder with defaults applied.
func NewTreeSnapshotBuilder(opts BuildOptions) *TreeSnapshotBuilder {
	if opts.Filter.Triggers == 0 {
		opts.Filter = NewElementFilter(0)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	return &TreeSnapshotBuilder{opts: opts}
}

type frame struct {
	node  Node
	depth int
}

// Build walks the tree rooted at root depth-first in pre-order and returns
// the actionable elements in visitation order, numbered from 1. A nil root
// yields an empty, non-nil slice. Children are always visited, whether or
// not their parent was emitted.
func (b *TreeSnapshotBuilder) Build(root Node) ([]UiElement, BuildStats) {
	elements := []UiElement{}
	var stats BuildStats
	if root == nil {
		return elements, stats
	}

	nextID := 1
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if stats.Visited >= b.opts.MaxNodes {
			stats.Truncated = true
			break
		}
		stats.Visited++

		if class, label, bounds, ok := b.opts.Filter.Extract(top.node); ok {
			elements = append(elements, UiElement{
				ID:     nextID,
				Class:  class,
				Text:   label,
				Bounds: bounds,
			})
			nextID++
		}

		n := top.node.ChildCount()
		if n == 0 {
			continue
		}
		if top.depth >= b.opts.MaxDepth {
			stats.SkippedDeep += n
			continue
		}
		// Push in reverse so child 0 is visited first.
		for i := n - 1; i >= 0; i-- {
			child := top.node.Child(i)
			if child == nil {
				continue
			}
			stack = append(stack, frame{node: child, depth: top.depth + 1})
		}
	}

	stats.Emitted = len(elements)
	return elements, stats
}
