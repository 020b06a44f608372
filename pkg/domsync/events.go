//go:build js && wasm
// +build js,wasm

package domsync

import (
	"syscall/js"

	"github.com/erwinkn/pulse-ui-sub000/pkg/domevent"
)

// jsSource adapts a syscall/js.Value to domevent.Source, converting
// primitive fields to plain Go values and leaving target/dataTransfer/touch
// fields as native handles for their dedicated projections.
type jsSource struct{ v js.Value }

func (s jsSource) Get(field string) (any, bool) {
	v := s.v.Get(field)
	if v.IsUndefined() {
		return nil, false
	}
	switch field {
	case "target", "relatedTarget":
		if v.IsNull() {
			return nil, true
		}
		return v, true
	case "dataTransfer":
		if v.IsNull() {
			return nil, true
		}
		return jsDataTransferSource{v}, true
	case "touches", "targetTouches", "changedTouches":
		if v.IsNull() {
			return nil, true
		}
		n := v.Length()
		out := make([]domevent.Source, n)
		for i := 0; i < n; i++ {
			out[i] = jsSource{v.Index(i)}
		}
		return out, true
	default:
		return jsPrimitive(v), true
	}
}

type jsDataTransferSource struct{ v js.Value }

func (s jsDataTransferSource) Get(field string) (any, bool) {
	switch field {
	case "items":
		items := s.v.Get("items")
		if items.IsUndefined() || items.IsNull() {
			return nil, false
		}
		n := items.Length()
		out := make([]domevent.DataTransferItem, n)
		for i := 0; i < n; i++ {
			item := items.Index(i)
			out[i] = domevent.DataTransferItem{
				Kind: item.Get("kind").String(),
				Type: item.Get("type").String(),
			}
		}
		return out, true
	case "files":
		files := s.v.Get("files")
		if files.IsUndefined() {
			return nil, false
		}
		return files.Length(), true
	case "types":
		types := s.v.Get("types")
		if types.IsUndefined() {
			return nil, false
		}
		n := types.Length()
		out := make([]string, n)
		for i := 0; i < n; i++ {
			out[i] = types.Index(i).String()
		}
		return out, true
	default:
		return nil, false
	}
}

func jsPrimitive(v js.Value) any {
	switch v.Type() {
	case js.TypeUndefined, js.TypeNull:
		return nil
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Float()
	case js.TypeString:
		return v.String()
	default:
		return v
	}
}

// projectElement is the domevent.ElementProjector backing real DOM nodes.
func projectElement(target any) map[string]any {
	v, ok := target.(js.Value)
	if !ok || v.IsUndefined() || v.IsNull() {
		return nil
	}
	out := map[string]any{
		"tag":       v.Get("tagName").String(),
		"id":        v.Get("id").String(),
		"className": v.Get("className").String(),
	}
	if name := v.Get("name"); !name.IsUndefined() {
		out["name"] = name.String()
	}
	if value := v.Get("value"); !value.IsUndefined() {
		out["value"] = jsPrimitive(value)
	}
	if checked := v.Get("checked"); !checked.IsUndefined() {
		out["checked"] = jsPrimitive(checked)
	}
	dataset := v.Get("dataset")
	if !dataset.IsUndefined() {
		keys := js.Global().Get("Object").Call("keys", dataset)
		n := keys.Length()
		if n > 0 {
			ds := make(map[string]string, n)
			for i := 0; i < n; i++ {
				k := keys.Index(i).String()
				ds[k] = dataset.Get(k).String()
			}
			out["dataset"] = ds
		}
	}
	return out
}

// eventKindByProp maps a React-style event prop name to the field allowlist
// kind spec §4.4 defines. Unmapped props fall back to domevent.KindUnknown.
var eventKindByProp = map[string]domevent.Kind{
	"onClick": domevent.KindMouse, "onDoubleClick": domevent.KindMouse,
	"onMouseDown": domevent.KindMouse, "onMouseUp": domevent.KindMouse,
	"onMouseEnter": domevent.KindMouse, "onMouseLeave": domevent.KindMouse,
	"onMouseMove": domevent.KindMouse, "onMouseOver": domevent.KindMouse, "onMouseOut": domevent.KindMouse,
	"onContextMenu": domevent.KindMouse,
	"onPointerDown":  domevent.KindPointer, "onPointerUp": domevent.KindPointer,
	"onPointerMove": domevent.KindPointer, "onPointerEnter": domevent.KindPointer, "onPointerLeave": domevent.KindPointer,
	"onPointerCancel": domevent.KindPointer,
	"onKeyDown": domevent.KindKeyboard, "onKeyUp": domevent.KindKeyboard, "onKeyPress": domevent.KindKeyboard,
	"onFocus": domevent.KindFocus, "onBlur": domevent.KindFocus,
	"onTouchStart": domevent.KindTouch, "onTouchMove": domevent.KindTouch,
	"onTouchEnd": domevent.KindTouch, "onTouchCancel": domevent.KindTouch,
	"onCopy": domevent.KindClipboard, "onCut": domevent.KindClipboard, "onPaste": domevent.KindClipboard,
	"onCompositionStart": domevent.KindComposition, "onCompositionUpdate": domevent.KindComposition, "onCompositionEnd": domevent.KindComposition,
	"onDrag": domevent.KindDrag, "onDragStart": domevent.KindDrag, "onDragEnd": domevent.KindDrag,
	"onDragEnter": domevent.KindDrag, "onDragLeave": domevent.KindDrag, "onDragOver": domevent.KindDrag, "onDrop": domevent.KindDrag,
	"onWheel": domevent.KindWheel,
	"onAnimationStart": domevent.KindAnimation, "onAnimationEnd": domevent.KindAnimation, "onAnimationIteration": domevent.KindAnimation,
	"onTransitionEnd": domevent.KindTransition,
	"onToggle":        domevent.KindToggle,
	"onChange":        domevent.KindChange, "onInput": domevent.KindChange,
	"onSubmit": domevent.KindForm, "onReset": domevent.KindForm, "onInvalid": domevent.KindForm,
	"onScroll": domevent.KindUI, "onLoad": domevent.KindUI, "onError": domevent.KindUI,
}

func kindForProp(prop string) domevent.Kind {
	if k, ok := eventKindByProp[prop]; ok {
		return k
	}
	return domevent.KindUnknown
}

// nativeEventName maps a React-style prop name to the browser's
// addEventListener event name (e.g. "onDoubleClick" -> "dblclick").
var nativeEventName = map[string]string{
	"onClick": "click", "onDoubleClick": "dblclick",
	"onMouseDown": "mousedown", "onMouseUp": "mouseup",
	"onMouseEnter": "mouseenter", "onMouseLeave": "mouseleave",
	"onMouseMove": "mousemove", "onMouseOver": "mouseover", "onMouseOut": "mouseout",
	"onContextMenu": "contextmenu",
	"onPointerDown":   "pointerdown", "onPointerUp": "pointerup",
	"onPointerMove": "pointermove", "onPointerEnter": "pointerenter", "onPointerLeave": "pointerleave",
	"onPointerCancel": "pointercancel",
	"onKeyDown": "keydown", "onKeyUp": "keyup", "onKeyPress": "keypress",
	"onFocus": "focus", "onBlur": "blur",
	"onTouchStart": "touchstart", "onTouchMove": "touchmove",
	"onTouchEnd": "touchend", "onTouchCancel": "touchcancel",
	"onCopy": "copy", "onCut": "cut", "onPaste": "paste",
	"onCompositionStart": "compositionstart", "onCompositionUpdate": "compositionupdate", "onCompositionEnd": "compositionend",
	"onDrag": "drag", "onDragStart": "dragstart", "onDragEnd": "dragend",
	"onDragEnter": "dragenter", "onDragLeave": "dragleave", "onDragOver": "dragover", "onDrop": "drop",
	"onWheel": "wheel",
	"onAnimationStart": "animationstart", "onAnimationEnd": "animationend", "onAnimationIteration": "animationiteration",
	"onTransitionEnd": "transitionend",
	"onToggle":        "toggle",
	"onChange":        "input", "onInput": "input",
	"onSubmit": "submit", "onReset": "reset", "onInvalid": "invalid",
	"onScroll": "scroll", "onLoad": "load", "onError": "error",
}
