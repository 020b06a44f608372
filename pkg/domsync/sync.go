//go:build js && wasm
// +build js,wasm

package domsync

import (
	"syscall/js"

	"github.com/erwinkn/pulse-ui-sub000/pkg/vdom"
)

// Sync reconciles a previously-committed tree (prev) against a freshly
// rendered one (next), mutating the real DOM in place and returning next
// for the caller to keep as its new "previous" root. Spec §8's identity
// preservation: the same DOM node is reused whenever kind/tag/key are
// unchanged, exactly mirroring React keeping a fiber for matching type+key.
func (t *Tree) Sync(prev, next *vdom.LiveNode, parent js.Value) *vdom.LiveNode {
	if prev == nil {
		t.Mount(next, parent)
		return next
	}
	if !sameIdentity(prev, next) {
		prevHandle, _ := prev.Handle.(js.Value)
		t.teardown(prev)
		nextHandle := t.build(next)
		if !prevHandle.IsUndefined() && !prevHandle.IsNull() {
			if p := prevHandle.Get("parentNode"); !p.IsNull() && !p.IsUndefined() {
				p.Call("replaceChild", nextHandle, prevHandle)
			}
		}
		return next
	}

	handle, _ := prev.Handle.(js.Value)
	next.Handle = handle
	switch next.Kind {
	case vdom.LiveText:
		if next.Text != prev.Text {
			handle.Set("textContent", next.Text)
		}
	case vdom.LiveElement:
		t.syncAttrs(handle, prev, next)
		t.syncChildren(handle, prev, next)
		t.listeners[next] = t.listeners[prev]
		delete(t.listeners, prev)
	case vdom.LiveFragment:
		t.syncChildren(handle, prev, next)
	}
	return next
}

func sameIdentity(a, b *vdom.LiveNode) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == vdom.LiveElement && a.Tag != b.Tag {
		return false
	}
	if a.HasKey != b.HasKey {
		return false
	}
	return !a.HasKey || a.Key == b.Key
}

// propEqual compares two prop values for the purpose of skipping a
// redundant DOM write. Only primitives are directly comparable; anything
// else (maps, slices, nested LiveNodes) is treated as always-changed rather
// than risking a panic on an uncomparable `==`.
func propEqual(a, b any) bool {
	switch a.(type) {
	case string, float64, bool, int, nil:
		return a == b
	default:
		return false
	}
}

func (t *Tree) syncAttrs(el js.Value, prev, next *vdom.LiveNode) {
	prevAttrs, nextAttrs := prev.Attrs, next.Attrs
	seen := make(map[string]bool)
	if nextAttrs != nil {
		for _, key := range nextAttrs.Keys() {
			seen[key] = true
			nextVal, _ := nextAttrs.Get(key)
			var prevVal any
			hadPrev := false
			if prevAttrs != nil {
				prevVal, hadPrev = prevAttrs.Get(key)
			}
			if key == "ref" {
				if !hadPrev || !refTargetEqual(prevVal, nextVal) {
					t.unmountRefVal(prevVal)
					t.mountRef(next, el)
				}
				continue
			}
			isCB := isBoundCallbackKey(next.Meta, key)
			if isCB {
				if hadPrev && isBoundCallbackKey(prev.Meta, key) {
					// Same binding identity carries across a retarget; the
					// listener closure already closes over the live
					// vdom.BoundCallback value, so nothing to rewire here.
					continue
				}
				if cb, ok := nextVal.(vdom.BoundCallback); ok {
					t.attachListener(el, next, key, cb)
				}
				continue
			}
			if hadPrev && propEqual(prevVal, nextVal) {
				continue
			}
			setDOMAttr(el, key, nextVal)
		}
	}
	if prevAttrs != nil {
		for _, key := range prevAttrs.Keys() {
			if seen[key] {
				continue
			}
			if key == "ref" {
				val, _ := prevAttrs.Get(key)
				t.unmountRefVal(val)
				continue
			}
			if isBoundCallbackKey(prev.Meta, key) {
				continue
			}
			el.Call("removeAttribute", key)
		}
	}
}

func (t *Tree) syncChildren(parent js.Value, prev, next *vdom.LiveNode) {
	n, m := len(next.Children), len(prev.Children)
	min := n
	if m < min {
		min = m
	}
	for i := 0; i < min; i++ {
		t.Sync(prev.Children[i], next.Children[i], parent)
	}
	if n > m {
		for i := m; i < n; i++ {
			t.Mount(next.Children[i], parent)
		}
	} else {
		for i := n; i < m; i++ {
			t.teardown(prev.Children[i])
		}
	}
}

// teardown removes node's DOM handle (if attached) and releases its
// listeners, recursing into children.
func (t *Tree) teardown(node *vdom.LiveNode) {
	for _, c := range node.Children {
		t.teardown(c)
	}
	t.releaseListeners(node)
	t.unmountRef(node)
	handle, ok := node.Handle.(js.Value)
	if !ok || handle.IsUndefined() || handle.IsNull() {
		return
	}
	if p := handle.Get("parentNode"); !p.IsNull() && !p.IsUndefined() {
		p.Call("removeChild", handle)
	}
}
