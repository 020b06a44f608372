// Package domevent implements the event extractor of spec §4.4: projecting
// a native/synthetic DOM event into a plain, wire-codec-friendly value
// before it is handed to a callback binding.
//
// Grounded on the teacher's pkg/renderer/dom/applier.go, which dispatches on
// event kind by prop-name prefix when wiring addEventListener; this package
// plays the reciprocal role of narrowing an event object down to its
// allowlisted fields before it crosses back to the server.
package domevent

// Kind names the event category whose field allowlist applies.
type Kind string

const (
	KindPointer     Kind = "pointer"
	KindMouse       Kind = "mouse"
	KindKeyboard    Kind = "keyboard"
	KindFocus       Kind = "focus"
	KindTouch       Kind = "touch"
	KindClipboard   Kind = "clipboard"
	KindComposition Kind = "composition"
	KindDrag        Kind = "drag"
	KindWheel       Kind = "wheel"
	KindAnimation   Kind = "animation"
	KindTransition  Kind = "transition"
	KindToggle      Kind = "toggle"
	KindChange      Kind = "change"
	KindForm        Kind = "form"
	KindUI          Kind = "ui"
	KindUnknown     Kind = "unknown"
)

var coreFields = []string{
	"target", "bubbles", "cancelable", "defaultPrevented", "eventPhase", "isTrusted", "timeStamp", "type",
}

var allowlists = map[Kind][]string{
	KindPointer: append(append([]string{}, coreFields...),
		"pointerId", "pointerType", "clientX", "clientY", "screenX", "screenY", "pageX", "pageY",
		"button", "buttons", "pressure", "width", "height", "tiltX", "tiltY", "isPrimary",
		"altKey", "ctrlKey", "metaKey", "shiftKey", "relatedTarget"),
	KindMouse: append(append([]string{}, coreFields...),
		"clientX", "clientY", "screenX", "screenY", "pageX", "pageY", "button", "buttons",
		"altKey", "ctrlKey", "metaKey", "shiftKey", "relatedTarget", "detail"),
	KindKeyboard: append(append([]string{}, coreFields...),
		"key", "code", "location", "repeat", "altKey", "ctrlKey", "metaKey", "shiftKey", "isComposing"),
	KindFocus:     append(append([]string{}, coreFields...), "relatedTarget"),
	KindTouch:     append(append([]string{}, coreFields...), "touches", "targetTouches", "changedTouches", "altKey", "ctrlKey", "metaKey", "shiftKey"),
	KindClipboard: append(append([]string{}, coreFields...), "clipboardData"),
	KindComposition: append(append([]string{}, coreFields...), "data"),
	KindDrag:      append(append([]string{}, coreFields...), "dataTransfer", "clientX", "clientY", "relatedTarget"),
	KindWheel:     append(append([]string{}, coreFields...), "deltaX", "deltaY", "deltaZ", "deltaMode"),
	KindAnimation: append(append([]string{}, coreFields...), "animationName", "elapsedTime", "pseudoElement"),
	KindTransition: append(append([]string{}, coreFields...), "propertyName", "elapsedTime", "pseudoElement"),
	KindToggle:    append(append([]string{}, coreFields...), "oldState", "newState"),
	KindChange:    append(append([]string{}, coreFields...)),
	KindForm:      append(append([]string{}, coreFields...)),
	KindUI:        append(append([]string{}, coreFields...), "detail"),
	KindUnknown:   coreFields,
}

// EventLike is anything that duck-types as an event per spec §4.4: it has a
// nativeEvent field and an isDefaultPrevented method.
type EventLike interface {
	NativeEvent() any
	IsDefaultPrevented() bool
}

// Source is a generic accessor over a native event object, satisfied by a
// syscall/js.Value wrapper in the wasm build or a test double in others.
type Source interface {
	Get(field string) (any, bool)
}

// elementSummary is the compact projection of an Element target/relatedTarget.
type elementSummary struct {
	Tag       string
	ID        string
	ClassName string
	Name      string
	Value     any
	Checked   any
	Dataset   map[string]string
}

func toMap(s elementSummary) map[string]any {
	m := map[string]any{
		"tag":       s.Tag,
		"id":        s.ID,
		"className": s.ClassName,
	}
	if s.Name != "" {
		m["name"] = s.Name
	}
	if s.Value != nil {
		m["value"] = s.Value
	}
	if s.Checked != nil {
		m["checked"] = s.Checked
	}
	if len(s.Dataset) > 0 {
		m["dataset"] = s.Dataset
	}
	return m
}

// ElementProjector projects a raw target/relatedTarget value (an opaque
// native element handle) into an elementSummary. The wasm build supplies one
// backed by syscall/js; tests supply a fake.
type ElementProjector func(target any) map[string]any

// Extract projects ev (a Source over a native/synthetic event) into a plain
// map using kind's field allowlist, running target/relatedTarget through
// project. Non-events (ev == nil) pass through unchanged by the caller; this
// function is only invoked once duck-typing has confirmed ev is event-like.
func Extract(kind Kind, ev Source, project ElementProjector) map[string]any {
	fields, ok := allowlists[kind]
	if !ok {
		fields = allowlists[KindUnknown]
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		val, present := ev.Get(f)
		if !present {
			continue
		}
		switch f {
		case "target", "relatedTarget":
			if val == nil {
				out[f] = nil
				continue
			}
			out[f] = project(val)
		case "dataTransfer":
			out[f] = projectDataTransfer(val)
		case "touches", "targetTouches", "changedTouches":
			out[f] = projectTouchList(val, project)
		default:
			out[f] = val
		}
	}
	return out
}

// DataTransferItem is the item-wise projection of a DataTransfer entry.
type DataTransferItem struct {
	Kind string
	Type string
}

func projectDataTransfer(val any) any {
	dt, ok := val.(Source)
	if !ok {
		return nil
	}
	itemsRaw, _ := dt.Get("items")
	items, _ := itemsRaw.([]DataTransferItem)
	files, _ := dt.Get("files")
	types, _ := dt.Get("types")
	return map[string]any{"items": items, "files": files, "types": types}
}

func projectTouchList(val any, project ElementProjector) any {
	touches, ok := val.([]Source)
	if !ok {
		return val
	}
	out := make([]map[string]any, len(touches))
	for i, t := range touches {
		item := make(map[string]any)
		for _, f := range []string{"identifier", "clientX", "clientY", "pageX", "pageY", "screenX", "screenY"} {
			if v, ok := t.Get(f); ok {
				item[f] = v
			}
		}
		if tgt, ok := t.Get("target"); ok && tgt != nil {
			item["target"] = project(tgt)
		}
		out[i] = item
	}
	return out
}
