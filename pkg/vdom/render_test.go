package vdom

import (
	"fmt"
	"testing"
)

// fakeRecord is the live path/propKey behind one fakeBinder handle.
type fakeRecord struct {
	path    string
	propKey string
}

// fakeBinder is a minimal CallbackBinder double for exercising render/patch
// without pkg/callback's debounce machinery. Like the real registry, it
// addresses bindings by handle, not by path, so it can tell apart two
// clones of the same reused reconciliation source.
type fakeBinder struct {
	bound    map[string]bool // bindKey(path, propKey) -> exists, for assertions
	byHandle map[CallbackHandle]*fakeRecord
	nextID   CallbackHandle
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{bound: make(map[string]bool), byHandle: make(map[CallbackHandle]*fakeRecord)}
}

func bindKey(path, propKey string) string { return path + "#" + propKey }

func (f *fakeBinder) Bind(path, propKey string, delayMs int, debounced bool) (BoundCallback, CallbackHandle, error) {
	f.nextID++
	h := f.nextID
	f.byHandle[h] = &fakeRecord{path: path, propKey: propKey}
	f.bound[bindKey(path, propKey)] = true
	return func(args []any) error { return nil }, h, nil
}

func (f *fakeBinder) Unbind(h CallbackHandle) {
	rec, ok := f.byHandle[h]
	if !ok {
		return
	}
	delete(f.bound, bindKey(rec.path, rec.propKey))
	delete(f.byHandle, h)
}

func (f *fakeBinder) Retarget(h CallbackHandle, newPath, propKey string) {
	rec, ok := f.byHandle[h]
	if !ok {
		return
	}
	delete(f.bound, bindKey(rec.path, rec.propKey))
	rec.path, rec.propKey = newPath, propKey
	f.bound[bindKey(newPath, propKey)] = true
}

func (f *fakeBinder) Clone(h CallbackHandle, newPath, propKey string) (BoundCallback, CallbackHandle, error) {
	if _, ok := f.byHandle[h]; !ok {
		return nil, 0, fmt.Errorf("fakeBinder: no binding for handle %d", h)
	}
	f.nextID++
	nh := f.nextID
	f.byHandle[nh] = &fakeRecord{path: newPath, propKey: propKey}
	f.bound[bindKey(newPath, propKey)] = true
	return func(args []any) error { return nil }, nh, nil
}

func TestRenderSimpleElement(t *testing.T) {
	el := &Element{Tag: "div", Children: []any{"Hello"}}
	r := NewRenderer(NewEvaluator(), newFakeBinder())
	live, err := r.RenderNode(el, "0")
	if err != nil {
		t.Fatalf("RenderNode: %v", err)
	}
	if live.Kind != LiveElement || live.Tag != "div" {
		t.Fatalf("got kind=%v tag=%q", live.Kind, live.Tag)
	}
	if live.TextContent() != "Hello" {
		t.Fatalf("text content = %q", live.TextContent())
	}
}

func TestRenderFragment(t *testing.T) {
	el := &Element{Tag: "", Children: []any{"a", "b"}}
	r := NewRenderer(NewEvaluator(), newFakeBinder())
	live, err := r.RenderNode(el, "0")
	if err != nil {
		t.Fatalf("RenderNode: %v", err)
	}
	if live.Kind != LiveFragment {
		t.Fatalf("got kind=%v, want fragment", live.Kind)
	}
	if live.TextContent() != "ab" {
		t.Fatalf("text content = %q", live.TextContent())
	}
}

func TestRenderMissingComponentErrors(t *testing.T) {
	el := &Element{Tag: "$$Missing"}
	r := NewRenderer(NewEvaluator(), newFakeBinder())
	if _, err := r.RenderNode(el, "0"); err == nil {
		t.Fatal("expected error for unregistered component")
	}
}

func TestRenderComponentExpansion(t *testing.T) {
	r := NewRenderer(NewEvaluator(), newFakeBinder())
	r.Components["Greeting"] = func(props *PropMap, children []any) (any, error) {
		name, _ := props.Get("name")
		return &Element{Tag: "span", Children: []any{name}}, nil
	}
	props := NewPropMap()
	props.Set("name", "Ada")
	el := &Element{Tag: "$$Greeting", Props: props}
	live, err := r.RenderNode(el, "0")
	if err != nil {
		t.Fatalf("RenderNode: %v", err)
	}
	if live.Tag != "span" || live.TextContent() != "Ada" {
		t.Fatalf("got tag=%q text=%q", live.Tag, live.TextContent())
	}
}

func TestRenderBindsCallback(t *testing.T) {
	binder := newFakeBinder()
	r := NewRenderer(NewEvaluator(), binder)
	props := NewPropMap()
	props.Set("onClick", "$cb")
	el := &Element{Tag: "button", Props: props, Eval: map[string]bool{"onClick": true}}
	live, err := r.RenderNode(el, "0")
	if err != nil {
		t.Fatalf("RenderNode: %v", err)
	}
	if _, ok := live.Meta.CBKeys["onClick"]; !ok {
		t.Fatal("expected onClick tracked as a bound callback")
	}
	if !binder.bound[bindKey("0", "onClick")] {
		t.Fatal("expected callback registered at path 0")
	}
	val, _ := live.Attrs.Get("onClick")
	if _, ok := val.(BoundCallback); !ok {
		t.Fatalf("expected stored value to be a BoundCallback, got %T", val)
	}
}

func TestRenderMalformedCallbackPlaceholderErrors(t *testing.T) {
	r := NewRenderer(NewEvaluator(), newFakeBinder())
	props := NewPropMap()
	props.Set("onClick", "$cbnope")
	el := &Element{Tag: "button", Props: props, Eval: map[string]bool{"onClick": true}}
	if _, err := r.RenderNode(el, "0"); err == nil {
		t.Fatal("expected error for malformed callback placeholder")
	}
}

func TestRenderNestedRenderProp(t *testing.T) {
	r := NewRenderer(NewEvaluator(), newFakeBinder())
	props := NewPropMap()
	props.Set("header", &Element{Tag: "h1", Children: []any{"Title"}})
	el := &Element{Tag: "section", Props: props, Eval: map[string]bool{"header": true}}
	live, err := r.RenderNode(el, "0")
	if err != nil {
		t.Fatalf("RenderNode: %v", err)
	}
	val, _ := live.Attrs.Get("header")
	header, ok := val.(*LiveNode)
	if !ok {
		t.Fatalf("expected render-prop to be a *LiveNode, got %T", val)
	}
	if header.Tag != "h1" || header.TextContent() != "Title" {
		t.Fatalf("got tag=%q text=%q", header.Tag, header.TextContent())
	}
}
