package domevent

import "testing"

type fakeSource struct {
	fields map[string]any
}

func (f fakeSource) Get(field string) (any, bool) {
	v, ok := f.fields[field]
	return v, ok
}

func projectFake(target any) map[string]any {
	src, _ := target.(fakeSource)
	tag, _ := src.Get("tag")
	return map[string]any{"tag": tag}
}

func TestExtractKeyboardAllowlist(t *testing.T) {
	ev := fakeSource{fields: map[string]any{
		"type": "keydown", "key": "Enter", "code": "Enter", "shiftKey": false,
		"secretInternal": "should not leak",
	}}
	out := Extract(KindKeyboard, ev, projectFake)
	if out["key"] != "Enter" {
		t.Fatalf("key = %v", out["key"])
	}
	if _, ok := out["secretInternal"]; ok {
		t.Fatal("expected non-allowlisted field to be dropped")
	}
}

func TestExtractProjectsTarget(t *testing.T) {
	ev := fakeSource{fields: map[string]any{
		"type":   "click",
		"target": fakeSource{fields: map[string]any{"tag": "BUTTON"}},
	}}
	out := Extract(KindMouse, ev, projectFake)
	target, ok := out["target"].(map[string]any)
	if !ok {
		t.Fatalf("expected target to be projected, got %T", out["target"])
	}
	if target["tag"] != "BUTTON" {
		t.Fatalf("tag = %v", target["tag"])
	}
}

func TestExtractUnknownKindUsesCoreAllowlist(t *testing.T) {
	ev := fakeSource{fields: map[string]any{"type": "weird", "isTrusted": true, "custom": 1}}
	out := Extract(KindUnknown, ev, projectFake)
	if out["type"] != "weird" || out["isTrusted"] != true {
		t.Fatalf("got %v", out)
	}
	if _, ok := out["custom"]; ok {
		t.Fatal("expected custom field dropped for unknown event kind")
	}
}

func TestIsEventDuckTyping(t *testing.T) {
	if _, ok := IsEvent("not an event"); ok {
		t.Fatal("expected plain string to not be event-like")
	}
	if _, ok := IsEvent(fakeEvent{}); !ok {
		t.Fatal("expected fakeEvent to be event-like")
	}
}

type fakeEvent struct{}

func (fakeEvent) NativeEvent() any         { return nil }
func (fakeEvent) IsDefaultPrevented() bool { return false }
