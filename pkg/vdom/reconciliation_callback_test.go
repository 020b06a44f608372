package vdom_test

import (
	"sync"
	"testing"

	"github.com/erwinkn/pulse-ui-sub000/pkg/callback"
	"github.com/erwinkn/pulse-ui-sub000/pkg/vdom"
)

// TestReconciliationDuplicateSourceReportsDistinctPaths exercises spec §9's
// flagged edge case end to end, against the real callback.Registry rather
// than a path-keyed test double: a reconciliation op reuses one source at
// two destinations (ReuseDest=[0,1], ReuseSource=[0,0]). Each destination's
// bound callback must report its own path when invoked — the bug this
// guards against is both destinations sharing one registry entry, so
// invoking either one reports whichever path was retargeted last.
func TestReconciliationDuplicateSourceReportsDistinctPaths(t *testing.T) {
	var mu sync.Mutex
	var gotPaths []string
	reg := callback.NewRegistry(func(path, propKey string, args []any) error {
		mu.Lock()
		defer mu.Unlock()
		gotPaths = append(gotPaths, path)
		return nil
	})
	r := vdom.NewRenderer(vdom.NewEvaluator(), reg)

	props := vdom.NewPropMap()
	props.Set("onClick", "$cb")
	root, err := r.RenderNode(&vdom.Element{Tag: "ul", Children: []any{
		&vdom.Element{Tag: "li", Props: props, Eval: map[string]bool{"onClick": true}, Children: []any{"a"}},
	}}, "")
	if err != nil {
		t.Fatalf("RenderNode: %v", err)
	}

	ops := []vdom.PatchOp{{
		Kind:        vdom.OpReconciliation,
		Path:        "",
		N:           2,
		ReuseDest:   []int{0, 1},
		ReuseSource: []int{0, 0},
	}}
	next, err := r.ApplyUpdates(root, ops)
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}

	fn0, ok := mustAttr(t, next.Children[0]).(vdom.BoundCallback)
	if !ok {
		t.Fatal("expected destination 0's onClick to be a BoundCallback")
	}
	fn1, ok := mustAttr(t, next.Children[1]).(vdom.BoundCallback)
	if !ok {
		t.Fatal("expected destination 1's onClick to be a BoundCallback")
	}

	if err := fn1([]any{}); err != nil {
		t.Fatalf("invoke destination 1: %v", err)
	}
	if err := fn0([]any{}); err != nil {
		t.Fatalf("invoke destination 0: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(gotPaths) != 2 {
		t.Fatalf("expected 2 dispatches, got %v", gotPaths)
	}
	if gotPaths[0] == gotPaths[1] {
		t.Fatalf("expected distinct paths for the two destinations, both reported %q", gotPaths[0])
	}
}

func mustAttr(t *testing.T, node *vdom.LiveNode) any {
	t.Helper()
	val, ok := node.Attrs.Get("onClick")
	if !ok {
		t.Fatal("expected onClick attr present")
	}
	return val
}
