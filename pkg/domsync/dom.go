//go:build js && wasm
// +build js,wasm

// Package domsync commits a pkg/vdom LiveNode tree to the real browser DOM,
// the wasm-only counterpart to a React-DOM commit pass. Grounded on the
// teacher's pkg/renderer/dom/applier.go: same attribute special-casing
// (className/value/checked) and the same create-tree-then-insert mounting
// shape, adapted to walk LiveNode directly instead of a node-ID patch list.
package domsync

import (
	"syscall/js"

	"github.com/erwinkn/pulse-ui-sub000/internal/pulselog"
	"github.com/erwinkn/pulse-ui-sub000/pkg/domevent"
	"github.com/erwinkn/pulse-ui-sub000/pkg/ref"
	"github.com/erwinkn/pulse-ui-sub000/pkg/vdom"
	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// Tree owns the mapping from LiveNode to live DOM handle and the event
// listener funcs registered against it (so they can be released on unmount;
// js.Func values must be explicitly released or they leak).
type Tree struct {
	document  js.Value
	listeners map[*vdom.LiveNode]map[string]js.Func
	refs      *ref.Registry
}

// New returns a Tree bound to the current document. refs may be nil, in
// which case a "ref" prop (spec §4.7) is ignored: it is neither registered
// with a ref registry nor set as a DOM attribute.
func New(refs *ref.Registry) *Tree {
	return &Tree{
		document:  js.Global().Get("document"),
		listeners: make(map[*vdom.LiveNode]map[string]js.Func),
		refs:      refs,
	}
}

// refTarget extracts the (channelId, refId) pair from a decoded "ref" prop
// value, following elementFromWire's convention of leaving non-eval props
// as raw *wire.Object.
func refTarget(val any) (channelID, refID string, ok bool) {
	obj, isObj := val.(*wire.Object)
	if !isObj {
		return "", "", false
	}
	cid, _ := obj.Get("channelId")
	rid, _ := obj.Get("refId")
	cidStr, cidOK := cid.(string)
	ridStr, ridOK := rid.(string)
	if !cidOK || !ridOK {
		return "", "", false
	}
	return cidStr, ridStr, true
}

// Mount builds a fresh DOM subtree for node and appends it to parent.
func (t *Tree) Mount(node *vdom.LiveNode, parent js.Value) js.Value {
	dn := t.build(node)
	if !parent.IsUndefined() && !parent.IsNull() {
		parent.Call("appendChild", dn)
	}
	return dn
}

func (t *Tree) build(node *vdom.LiveNode) js.Value {
	switch node.Kind {
	case vdom.LiveEmpty:
		dn := t.document.Call("createComment", "")
		node.Handle = dn
		return dn
	case vdom.LiveText:
		dn := t.document.Call("createTextNode", node.Text)
		node.Handle = dn
		return dn
	case vdom.LiveFragment:
		frag := t.document.Call("createDocumentFragment")
		for _, c := range node.Children {
			frag.Call("appendChild", t.build(c))
		}
		node.Handle = frag
		return frag
	case vdom.LiveElement:
		el := t.document.Call("createElement", node.Tag)
		if node.Attrs != nil {
			for _, key := range node.Attrs.Keys() {
				val, _ := node.Attrs.Get(key)
				t.applyProp(el, node, key, val)
			}
		}
		for _, c := range node.Children {
			el.Call("appendChild", t.build(c))
		}
		node.Handle = el
		t.mountRef(node, el)
		return el
	default:
		dn := t.document.Call("createComment", "")
		node.Handle = dn
		return dn
	}
}

// isBoundCallbackKey reports whether key is tracked as a bound callback on
// meta (nil-safe: an element with no Meta, or no callbacks, answers false).
func isBoundCallbackKey(meta *vdom.NodeMeta, key string) bool {
	if meta == nil {
		return false
	}
	_, ok := meta.CBKeys[key]
	return ok
}

// applyProp commits a single rendered prop, wiring an event listener when
// the renderer marked the key a bound callback and setting a DOM
// attribute/property otherwise.
func (t *Tree) applyProp(el js.Value, node *vdom.LiveNode, key string, val any) {
	if key == "ref" {
		return // handled by mountRef once the element is fully built
	}
	if isBoundCallbackKey(node.Meta, key) {
		cb, ok := val.(vdom.BoundCallback)
		if !ok {
			return
		}
		t.attachListener(el, node, key, cb)
		return
	}
	setDOMAttr(el, key, val)
}

// mountRef registers el with the ref registry if node carries a "ref" prop
// (spec §4.7); a no-op when refs is nil or the prop is absent.
func (t *Tree) mountRef(node *vdom.LiveNode, el js.Value) {
	if t.refs == nil || node.Attrs == nil {
		return
	}
	val, ok := node.Attrs.Get("ref")
	if !ok {
		return
	}
	channelID, refID, ok := refTarget(val)
	if !ok {
		return
	}
	t.refs.Mount(channelID, refID, ref.NewJSNode(el))
}

// unmountRef mirrors mountRef for teardown.
func (t *Tree) unmountRef(node *vdom.LiveNode) {
	if node.Attrs == nil {
		return
	}
	val, _ := node.Attrs.Get("ref")
	t.unmountRefVal(val)
}

func (t *Tree) unmountRefVal(val any) {
	if t.refs == nil {
		return
	}
	channelID, refID, ok := refTarget(val)
	if !ok {
		return
	}
	t.refs.Unmount(channelID, refID)
}

func refTargetEqual(a, b any) bool {
	aCid, aRid, aOK := refTarget(a)
	bCid, bRid, bOK := refTarget(b)
	if !aOK || !bOK {
		return aOK == bOK
	}
	return aCid == bCid && aRid == bRid
}

func (t *Tree) attachListener(el js.Value, node *vdom.LiveNode, propKey string, cb vdom.BoundCallback) {
	eventName, ok := nativeEventName[propKey]
	if !ok {
		return
	}
	kind := kindForProp(propKey)
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		var extracted any
		if len(args) > 0 {
			extracted = domevent.Extract(kind, jsSource{args[0]}, projectElement)
		}
		if err := cb([]any{extracted}); err != nil {
			pulselog.Errorf("domsync: callback %s on %s: %v", propKey, node.Meta.Path, err)
		}
		return nil
	})
	el.Call("addEventListener", eventName, fn)
	if t.listeners[node] == nil {
		t.listeners[node] = make(map[string]js.Func)
	}
	t.listeners[node][propKey] = fn
}

// setDOMAttr mirrors applier.go's special-casing, adapted for React-style
// prop names that already match their DOM IDL property (className, htmlFor)
// rather than the teacher's raw HTML attribute names.
func setDOMAttr(el js.Value, key string, val any) {
	switch key {
	case "className", "htmlFor", "value":
		el.Set(key, toJS(val))
	case "checked", "selected", "disabled", "readOnly", "required":
		b, _ := val.(bool)
		el.Set(key, b)
	case "dangerouslySetInnerHTML":
		if m, ok := val.(map[string]any); ok {
			el.Set("innerHTML", m["__html"])
		}
	default:
		if val == nil {
			el.Call("removeAttribute", key)
			return
		}
		el.Call("setAttribute", key, toJS(val))
	}
}

func toJS(val any) any {
	switch t := val.(type) {
	case nil:
		return js.Null()
	default:
		return t
	}
}

// releaseListeners frees every js.Func registered for node, to be called
// once node leaves the tree for good.
func (t *Tree) releaseListeners(node *vdom.LiveNode) {
	fns, ok := t.listeners[node]
	if !ok {
		return
	}
	for _, fn := range fns {
		fn.Release()
	}
	delete(t.listeners, node)
}
