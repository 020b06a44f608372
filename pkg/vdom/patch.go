package vdom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// PatchOpKind discriminates the three update operations spec §4.2 defines.
type PatchOpKind string

const (
	OpReplace       PatchOpKind = "replace"
	OpUpdateProps   PatchOpKind = "update_props"
	OpReconciliation PatchOpKind = "reconciliation"
)

// EvalPatch replaces the eval set of the targeted element. A nil *EvalPatch
// on a PatchOp leaves the element's eval set untouched; a non-nil one with
// an empty Keys clears it.
type EvalPatch struct {
	Keys []string
}

// PatchOp is one update instruction from a vdom_update message (spec §4.2).
// Path is dot-separated: numeric segments index into Children, non-numeric
// segments index into a render-prop subtree stored in Attrs.
type PatchOp struct {
	Kind PatchOpKind
	Path string

	// OpReplace
	Data any // a Node, to be rendered fresh at Path

	// OpUpdateProps
	Set       *PropMap
	Remove    []string
	EvalPatch *EvalPatch

	// OpReconciliation
	N            int
	NewDest      []int
	NewContents  []any // Node per NewDest entry
	ReuseDest    []int
	ReuseSource  []int
}

// PatchOpsFromWire converts a vdom_update message's decoded "ops" payload
// (a *wire.Array of *wire.Object, one per spec §4.2 patch op) into typed
// PatchOp values ready for ApplyUpdates. The wasm hydration entrypoint calls
// this on the raw payload a session.ViewHandlers.OnVDOMUpdate receives.
func PatchOpsFromWire(v any) ([]PatchOp, error) {
	arr, ok := v.(*wire.Array)
	if !ok {
		return nil, fmt.Errorf("vdom: ops payload is not an array")
	}
	ops := make([]PatchOp, len(arr.Items))
	for i, item := range arr.Items {
		obj, ok := item.(*wire.Object)
		if !ok {
			return nil, fmt.Errorf("vdom: op %d is not an object", i)
		}
		op, err := patchOpFromWire(obj)
		if err != nil {
			return nil, fmt.Errorf("vdom: op %d: %w", i, err)
		}
		ops[i] = op
	}
	return ops, nil
}

func patchOpFromWire(o *wire.Object) (PatchOp, error) {
	kind, _ := o.Get("kind")
	kindStr, _ := kind.(string)
	path, _ := o.Get("path")
	pathStr, _ := path.(string)
	op := PatchOp{Kind: PatchOpKind(kindStr), Path: pathStr}

	switch op.Kind {
	case OpReplace:
		data, _ := o.Get("data")
		node, err := FromWire(data)
		if err != nil {
			return op, err
		}
		op.Data = node
	case OpUpdateProps:
		if setVal, ok := o.Get("set"); ok && setVal != nil {
			setObj, ok := setVal.(*wire.Object)
			if !ok {
				return op, fmt.Errorf("update_props: set is not an object")
			}
			props := NewPropMap()
			for _, key := range setObj.Keys() {
				val, _ := setObj.Get(key)
				parsed, err := FromWire(val)
				if err != nil {
					return op, err
				}
				props.Set(key, parsed)
			}
			op.Set = props
		}
		if removeVal, ok := o.Get("remove"); ok && removeVal != nil {
			op.Remove = stringSliceFromWire(removeVal)
		}
		if evalVal, ok := o.Get("eval"); ok && evalVal != nil {
			keys := stringSliceFromWire(evalVal)
			op.EvalPatch = &EvalPatch{Keys: keys}
		}
	case OpReconciliation:
		n, _ := o.Get("n")
		op.N = intFromWire(n)
		newDest, _ := o.Get("newDest")
		op.NewDest = intSliceFromWire(newDest)
		reuseDest, _ := o.Get("reuseDest")
		op.ReuseDest = intSliceFromWire(reuseDest)
		reuseSource, _ := o.Get("reuseSource")
		op.ReuseSource = intSliceFromWire(reuseSource)
		if contentsVal, ok := o.Get("newContents"); ok && contentsVal != nil {
			arr, ok := contentsVal.(*wire.Array)
			if !ok {
				return op, fmt.Errorf("reconciliation: newContents is not an array")
			}
			contents := make([]any, len(arr.Items))
			for i, item := range arr.Items {
				parsed, err := FromWire(item)
				if err != nil {
					return op, err
				}
				contents[i] = parsed
			}
			op.NewContents = contents
		}
	default:
		return op, fmt.Errorf("unknown patch op kind %q", kindStr)
	}
	return op, nil
}

func stringSliceFromWire(v any) []string {
	arr, ok := v.(*wire.Array)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr.Items))
	for _, item := range arr.Items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intFromWire(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func intSliceFromWire(v any) []int {
	arr, ok := v.(*wire.Array)
	if !ok {
		return nil
	}
	out := make([]int, len(arr.Items))
	for i, item := range arr.Items {
		out[i] = intFromWire(item)
	}
	return out
}

// ApplyUpdates applies ops in order to root and returns the resulting tree.
// root is never mutated in place; every touched ancestor is shallow-cloned
// so that any alias of an earlier tree snapshot stays valid.
func (r *Renderer) ApplyUpdates(root *LiveNode, ops []PatchOp) (*LiveNode, error) {
	cur := root
	for _, op := range ops {
		next, err := r.applyOp(cur, op)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func (r *Renderer) applyOp(root *LiveNode, op PatchOp) (*LiveNode, error) {
	segments := splitPath(op.Path)
	return r.descend(root, segments, op)
}

// descend walks segments from node, applying op at the terminal position and
// cloning every node on the path from root down to (and including) the
// target so earlier references to the tree remain untouched.
func (r *Renderer) descend(node *LiveNode, segments []string, op PatchOp) (*LiveNode, error) {
	if len(segments) == 0 {
		return r.applyAtTarget(node, op)
	}
	if node == nil {
		return nil, fmt.Errorf("vdom: patch %s: path descends through a nil node", op.Path)
	}
	seg := segments[0]
	rest := segments[1:]

	if idx, err := strconv.Atoi(seg); err == nil {
		if idx < 0 || idx >= len(node.Children) {
			return nil, fmt.Errorf("vdom: patch %s: child index %d out of range", op.Path, idx)
		}
		clone := node.shallowClone()
		child, err := r.descend(node.Children[idx], rest, op)
		if err != nil {
			return nil, err
		}
		clone.Children[idx] = child
		return clone, nil
	}

	if node.Attrs == nil {
		return nil, fmt.Errorf("vdom: patch %s: no render-prop %q on this element", op.Path, seg)
	}
	val, ok := node.Attrs.Get(seg)
	if !ok {
		return nil, fmt.Errorf("vdom: patch %s: no render-prop %q on this element", op.Path, seg)
	}
	childLive, ok := val.(*LiveNode)
	if !ok {
		return nil, fmt.Errorf("vdom: patch %s: prop %q is not a render-prop subtree", op.Path, seg)
	}
	clone := node.shallowClone()
	newChild, err := r.descend(childLive, rest, op)
	if err != nil {
		return nil, err
	}
	clone.Attrs.Set(seg, newChild)
	return clone, nil
}

func (r *Renderer) applyAtTarget(node *LiveNode, op PatchOp) (*LiveNode, error) {
	switch op.Kind {
	case OpReplace:
		r.teardownSubtree(node)
		return r.RenderNode(op.Data, op.Path)
	case OpUpdateProps:
		return r.applyUpdateProps(node, op)
	case OpReconciliation:
		return r.applyReconciliation(node, op)
	default:
		return nil, fmt.Errorf("vdom: patch %s: unknown op kind %q", op.Path, op.Kind)
	}
}

// teardownSubtree unbinds every callback reachable from node, including
// those inside render-prop subtrees, before the subtree is discarded.
func (r *Renderer) teardownSubtree(node *LiveNode) {
	if node == nil || node.Meta == nil {
		return
	}
	for _, handle := range node.Meta.CBKeys {
		r.Callbacks.Unbind(handle)
	}
	if node.Attrs != nil {
		for _, key := range node.Attrs.Keys() {
			val, _ := node.Attrs.Get(key)
			if child, ok := val.(*LiveNode); ok {
				r.teardownSubtree(child)
			}
		}
	}
	for _, child := range node.Children {
		r.teardownSubtree(child)
	}
}

func (r *Renderer) applyUpdateProps(node *LiveNode, op PatchOp) (*LiveNode, error) {
	if node == nil || node.Kind != LiveElement {
		return nil, fmt.Errorf("vdom: patch %s: update_props targets a non-element node", op.Path)
	}
	clone := node.shallowClone()
	if clone.Attrs == nil {
		clone.Attrs = NewPropMap()
	}
	if clone.Meta == nil {
		clone.Meta = &NodeMeta{Eval: make(map[string]bool), CBKeys: make(map[string]CallbackHandle), Path: op.Path}
	}

	var nextEval map[string]bool
	if op.EvalPatch == nil {
		nextEval = clone.Meta.Eval
	} else {
		nextEval = make(map[string]bool, len(op.EvalPatch.Keys))
		for _, k := range op.EvalPatch.Keys {
			nextEval[k] = true
		}
	}

	// Tear down callbacks whose key dropped out of the eval set.
	for key, handle := range clone.Meta.CBKeys {
		if !nextEval[key] {
			r.Callbacks.Unbind(handle)
			delete(clone.Meta.CBKeys, key)
		}
	}

	for _, key := range op.Remove {
		if val, ok := clone.Attrs.Get(key); ok {
			if child, ok := val.(*LiveNode); ok {
				r.teardownSubtree(child)
			}
			if handle, ok := clone.Meta.CBKeys[key]; ok {
				r.Callbacks.Unbind(handle)
				delete(clone.Meta.CBKeys, key)
			}
			clone.Attrs.Delete(key)
		}
	}

	if op.Set != nil {
		for _, key := range op.Set.Keys() {
			val, _ := op.Set.Get(key)
			if nextEval[key] {
				transformed, handle, isCallback, err := r.transformEvalProp(val, op.Path, key)
				if err != nil {
					return nil, err
				}
				clone.Attrs.Set(key, transformed)
				if isCallback {
					clone.Meta.CBKeys[key] = handle
				}
			} else {
				clone.Attrs.Set(key, val)
			}
		}
	}

	clone.Meta.Eval = nextEval
	return clone, nil
}

func (r *Renderer) applyReconciliation(node *LiveNode, op PatchOp) (*LiveNode, error) {
	if node == nil || (node.Kind != LiveElement && node.Kind != LiveFragment) {
		return nil, fmt.Errorf("vdom: patch %s: reconciliation targets a non-container node", op.Path)
	}
	if len(op.NewDest) != len(op.NewContents) {
		return nil, fmt.Errorf("vdom: patch %s: reconciliation new_dest/new_contents length mismatch", op.Path)
	}
	if len(op.ReuseDest) != len(op.ReuseSource) {
		return nil, fmt.Errorf("vdom: patch %s: reconciliation reuse_dest/reuse_source length mismatch", op.Path)
	}

	prev := node.Children
	newChildren := make([]*LiveNode, op.N)
	destSet := make(map[int]bool, len(op.NewDest)+len(op.ReuseDest))

	for i, d := range op.NewDest {
		if d < 0 || d >= op.N {
			return nil, fmt.Errorf("vdom: patch %s: new_dest %d out of range", op.Path, d)
		}
		destSet[d] = true
		childPath := strconv.Itoa(d)
		if op.Path != "" {
			childPath = op.Path + "." + childPath
		}
		live, err := r.RenderNode(op.NewContents[i], childPath)
		if err != nil {
			return nil, err
		}
		newChildren[d] = live
	}

	keptSources := make(map[int]bool, len(op.ReuseSource))
	// movedHandles tracks, across every destination in this op, which
	// callback handles have already been retargeted in place. A source
	// reused at more than one destination clones the same handle into every
	// destination's subtree (cloneLiveTree carries Meta, including CBKeys,
	// unchanged); only the first destination to claim a handle may retarget
	// the existing binding, every later one must get its own independent
	// binding (Clone) so each destination reports its own path.
	movedHandles := make(map[CallbackHandle]bool)
	for i, d := range op.ReuseDest {
		if d < 0 || d >= op.N {
			return nil, fmt.Errorf("vdom: patch %s: reuse_dest %d out of range", op.Path, d)
		}
		src := op.ReuseSource[i]
		if src < 0 || src >= len(prev) {
			return nil, fmt.Errorf("vdom: patch %s: reuse_source %d out of range", op.Path, src)
		}
		destSet[d] = true
		keptSources[src] = true
		childPath := strconv.Itoa(d)
		if op.Path != "" {
			childPath = op.Path + "." + childPath
		}
		// Clone metadata per destination (a source reused at two
		// destinations must not alias the same Meta/path between them).
		moved := cloneLiveTree(prev[src])
		if err := r.retargetPaths(moved, childPath, movedHandles); err != nil {
			return nil, err
		}
		newChildren[d] = moved
	}

	// Positions left uncovered by either set, within [0, N), keep whatever
	// previously sat at the same index.
	for i := 0; i < op.N; i++ {
		if destSet[i] {
			continue
		}
		if i >= len(prev) {
			return nil, fmt.Errorf("vdom: patch %s: no source for retained destination %d", op.Path, i)
		}
		newChildren[i] = prev[i]
		keptSources[i] = true
	}

	for i, child := range prev {
		if !keptSources[i] {
			r.teardownSubtree(child)
		}
	}

	clone := node.shallowClone()
	clone.Children = newChildren
	return clone, nil
}

// cloneLiveTree deep-clones a LiveNode subtree's Go-level structure (Meta,
// Attrs, Children) while carrying Handle across unchanged, so a reused
// subtree moved to a new destination doesn't alias the old one's metadata.
func cloneLiveTree(node *LiveNode) *LiveNode {
	if node == nil {
		return nil
	}
	clone := node.shallowClone()
	if clone.Attrs != nil {
		for _, key := range clone.Attrs.Keys() {
			val, _ := clone.Attrs.Get(key)
			if child, ok := val.(*LiveNode); ok {
				clone.Attrs.Set(key, cloneLiveTree(child))
			}
		}
	}
	for i, child := range clone.Children {
		clone.Children[i] = cloneLiveTree(child)
	}
	return clone
}

// retargetPaths rewrites node's path (and its descendants') to reflect a
// reconciliation move. A callback handle's first move in this op retargets
// its existing binding in place (same timer/debounce state); if moved
// already marks the handle as claimed, this node is a later clone of a
// duplicated reuse source and gets its own independent binding instead, so
// the two destinations never share one entry's path field.
func (r *Renderer) retargetPaths(node *LiveNode, newPath string, moved map[CallbackHandle]bool) error {
	if node == nil || node.Meta == nil {
		return nil
	}
	node.Meta.Path = newPath
	for key, handle := range node.Meta.CBKeys {
		if !moved[handle] {
			r.Callbacks.Retarget(handle, newPath, key)
			moved[handle] = true
			continue
		}
		fn, newHandle, err := r.Callbacks.Clone(handle, newPath, key)
		if err != nil {
			return fmt.Errorf("vdom: patch %s: clone duplicated callback %q: %w", newPath, key, err)
		}
		node.Meta.CBKeys[key] = newHandle
		if node.Attrs != nil {
			node.Attrs.Set(key, fn)
		}
		moved[newHandle] = true
	}
	if node.Attrs != nil {
		for _, key := range node.Attrs.Keys() {
			val, _ := node.Attrs.Get(key)
			if child, ok := val.(*LiveNode); ok {
				if err := r.retargetPaths(child, newPath+"."+key, moved); err != nil {
					return err
				}
			}
		}
	}
	for i, child := range node.Children {
		if err := r.retargetPaths(child, newPath+"."+strconv.Itoa(i), moved); err != nil {
			return err
		}
	}
	return nil
}
