package model

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuild_SingleClickableNode(t *testing.T) {
	root := &testNode{
		class: "android.widget.FrameLayout",
		rect:  xywh(0, 0, 1080, 1920),
		children: []*testNode{
			{class: "android.widget.Button", text: "OK", flags: Clickable, rect: xywh(10, 20, 30, 40)},
		},
	}
	got, stats := NewTreeSnapshotBuilder(BuildOptions{}).Build(root)
	want := []UiElement{{ID: 1, Class: "android.widget.Button", Text: "OK", Bounds: [4]int{10, 20, 30, 40}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements mismatch (-want +got):\n%s", diff)
	}
	if stats.Visited != 2 || stats.Emitted != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestBuild_NilRoot(t *testing.T) {
	got, stats := NewTreeSnapshotBuilder(BuildOptions{}).Build(nil)
	if got == nil {
		t.Fatal("nil root must yield an empty, non-nil slice")
	}
	if len(got) != 0 || stats.Visited != 0 {
		t.Errorf("got %d elements, stats %+v", len(got), stats)
	}
}

func TestBuild_PreOrderAndParentDoesNotPrune(t *testing.T) {
	//	a (clickable)
	//	├── b (clickable)
	//	│   └── c (editable)
	//	└── d (not actionable)
	//	    └── e (checkable)
	root := &testNode{class: "a", flags: Clickable, rect: xywh(0, 0, 100, 100), children: []*testNode{
		{class: "b", flags: Clickable, rect: xywh(0, 0, 50, 50), children: []*testNode{
			{class: "c", flags: Editable, rect: xywh(0, 0, 10, 10)},
		}},
		{class: "d", rect: xywh(50, 50, 50, 50), children: []*testNode{
			{class: "e", flags: Checkable, rect: xywh(60, 60, 10, 10)},
		}},
	}}
	got, _ := NewTreeSnapshotBuilder(BuildOptions{}).Build(root)
	var classes []string
	for i, el := range got {
		if el.ID != i+1 {
			t.Errorf("element %d has ID %d, want %d", i, el.ID, i+1)
		}
		classes = append(classes, el.Class)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "e"}, classes); diff != "" {
		t.Errorf("visitation order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SkipsVanishedChildren(t *testing.T) {
	root := &testNode{rect: xywh(0, 0, 10, 10), children: []*testNode{
		nil,
		{class: "btn", flags: Clickable, rect: xywh(0, 0, 5, 5)},
	}}
	got, stats := NewTreeSnapshotBuilder(BuildOptions{}).Build(root)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("got %+v", got)
	}
	if stats.Visited != 2 {
		t.Errorf("visited = %d, want 2", stats.Visited)
	}
}

func TestBuild_CycleIsBoundedByDepth(t *testing.T) {
	loop := &testNode{class: "loop", flags: Clickable, rect: xywh(0, 0, 10, 10)}
	loop.children = []*testNode{loop}

	got, stats := NewTreeSnapshotBuilder(BuildOptions{MaxDepth: 8}).Build(loop)
	if stats.Visited != 9 {
		t.Errorf("visited = %d, want 9", stats.Visited)
	}
	if stats.SkippedDeep != 1 {
		t.Errorf("skippedDeep = %d, want 1", stats.SkippedDeep)
	}
	if len(got) != 9 {
		t.Errorf("emitted = %d, want 9", len(got))
	}
}

func TestBuild_NodeBudget(t *testing.T) {
	root := &testNode{rect: xywh(0, 0, 10, 10)}
	for i := 0; i < 10; i++ {
		root.children = append(root.children, &testNode{flags: Clickable, rect: xywh(i, 0, 1, 1)})
	}
	got, stats := NewTreeSnapshotBuilder(BuildOptions{MaxNodes: 4}).Build(root)
	if !stats.Truncated {
		t.Error("expected truncated walk")
	}
	if stats.Visited != 4 || len(got) != 3 {
		t.Errorf("visited=%d emitted=%d, want 4 and 3", stats.Visited, len(got))
	}
}

// randomTree builds a tree of n nodes with random flags and bounds.
func randomTree(r *rand.Rand, n int) (*testNode, int) {
	nodes := []*testNode{{rect: xywh(0, 0, 100, 100)}}
	for len(nodes) < n {
		parent := nodes[r.Intn(len(nodes))]
		child := &testNode{
			flags: Flag(r.Intn(64)),
			rect:  xywh(r.Intn(100), r.Intn(100), r.Intn(3)*10, r.Intn(3)*10),
		}
		parent.children = append(parent.children, child)
		nodes = append(nodes, child)
	}
	return nodes[0], len(nodes)
}

func TestBuild_RandomTreeInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	b := NewTreeSnapshotBuilder(BuildOptions{})
	for iter := 0; iter < 200; iter++ {
		root, total := randomTree(r, 1+r.Intn(80))
		got, stats := b.Build(root)

		if stats.Visited != total {
			t.Fatalf("iter %d: visited %d of %d nodes", iter, stats.Visited, total)
		}
		if len(got) > total {
			t.Fatalf("iter %d: %d elements from %d nodes", iter, len(got), total)
		}
		for i, el := range got {
			if el.Bounds[2] <= 0 || el.Bounds[3] <= 0 {
				t.Fatalf("iter %d: zero-area element %+v", iter, el)
			}
			if el.ID != i+1 {
				t.Fatalf("iter %d: element %d has ID %d", iter, i, el.ID)
			}
		}
	}
}
