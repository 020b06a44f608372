//go:build js && wasm
// +build js,wasm

package ref

import "syscall/js"

// JSNode backs Node with a real browser element, following the teacher's
// applier.go convention of calling straight through to the DOM API rather
// than caching derived state.
type JSNode struct {
	El js.Value
}

// NewJSNode wraps el as a Node.
func NewJSNode(el js.Value) *JSNode { return &JSNode{El: el} }

func (n *JSNode) Focus(preventScroll bool) {
	opts := js.Global().Get("Object").New()
	opts.Set("preventScroll", preventScroll)
	n.El.Call("focus", opts)
}

func (n *JSNode) Blur() { n.El.Call("blur") }

func (n *JSNode) Click() { n.El.Call("click") }

func (n *JSNode) Select() { n.El.Call("select") }

func (n *JSNode) ScrollIntoView() { n.El.Call("scrollIntoView") }

func (n *JSNode) ScrollTo(x, y float64) { n.El.Call("scrollTo", x, y) }

func (n *JSNode) ScrollBy(x, y float64) { n.El.Call("scrollBy", x, y) }

func (n *JSNode) Submit() error {
	form := n.El
	if form.Get("tagName").String() != "FORM" {
		form = form.Get("form")
	}
	if form.IsUndefined() || form.IsNull() {
		return ErrNodeMissing
	}
	form.Call("requestSubmit")
	return nil
}

func (n *JSNode) Reset() error {
	form := n.El
	if form.Get("tagName").String() != "FORM" {
		form = form.Get("form")
	}
	if form.IsUndefined() || form.IsNull() {
		return ErrNodeMissing
	}
	form.Call("reset")
	return nil
}

func (n *JSNode) SetSelectionRange(start, end int, direction string) {
	if direction == "" {
		n.El.Call("setSelectionRange", start, end)
		return
	}
	n.El.Call("setSelectionRange", start, end, direction)
}

func (n *JSNode) Measure() map[string]float64 {
	rect := n.El.Call("getBoundingClientRect")
	return map[string]float64{
		"x":      rect.Get("x").Float(),
		"y":      rect.Get("y").Float(),
		"width":  rect.Get("width").Float(),
		"height": rect.Get("height").Float(),
		"top":    rect.Get("top").Float(),
		"left":   rect.Get("left").Float(),
	}
}

func (n *JSNode) GetValue() any {
	v := n.El.Get("value")
	switch v.Type() {
	case js.TypeNumber:
		return v.Float()
	case js.TypeBoolean:
		return v.Bool()
	default:
		return v.String()
	}
}

func (n *JSNode) SetValue(v any) { n.El.Set("value", v) }

func (n *JSNode) GetText() string { return n.El.Get("textContent").String() }

func (n *JSNode) SetText(s string) { n.El.Set("textContent", s) }

func (n *JSNode) GetAttr(name string) (string, bool) {
	if !n.El.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return n.El.Call("getAttribute", name).String(), true
}

func (n *JSNode) SetAttr(name, value string) { n.El.Call("setAttribute", name, value) }

func (n *JSNode) RemoveAttr(name string) { n.El.Call("removeAttribute", name) }

func (n *JSNode) GetProp(name string) any {
	v := n.El.Get(name)
	switch v.Type() {
	case js.TypeNumber:
		return v.Float()
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeUndefined, js.TypeNull:
		return nil
	default:
		return v.String()
	}
}

func (n *JSNode) SetProp(name string, v any) { n.El.Set(name, v) }

func (n *JSNode) SetStyle(key string, value any) {
	style := n.El.Get("style")
	if value == nil {
		style.Call("removeProperty", key)
		return
	}
	switch v := value.(type) {
	case string:
		style.Call("setProperty", key, v)
	case float64:
		style.Call("setProperty", key, v)
	default:
		style.Call("setProperty", key, value)
	}
}
