// Package ref implements the ref registry of spec §4.7: targeting DOM
// elements by (channelId, refId), notifying mount/unmount over the channel
// bridge, and dispatching an allowlisted set of imperative DOM operations.
//
// Grounded on the teacher's pkg/renderer/dom/applier.go, which special-cases
// attribute/property mutation paths (setAttribute/removeAttribute, node
// move) this package exposes as explicit Ops instead of diff-driven patches.
package ref

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrUnknownOp is returned when Dispatch is asked to perform an op outside
// the allowlist.
var ErrUnknownOp = errors.New("ref: unknown op")

// ErrNodeMissing is returned when an op targets a (channelId, refId) pair
// with no currently-mounted node.
var ErrNodeMissing = errors.New("ref: no node mounted for this ref")

var attrNameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_:\-.]*$`)

var attrAliases = map[string]string{
	"className": "class",
	"htmlFor":   "for",
}

// propGettable/propSettable are the fixed allowlists for getProp/setProp,
// mirroring the small set of DOM properties (as opposed to attributes) the
// applier already knows how to special-case.
var propGettable = map[string]bool{
	"value": true, "checked": true, "disabled": true, "selected": true,
	"scrollTop": true, "scrollLeft": true, "scrollWidth": true, "scrollHeight": true,
	"clientWidth": true, "clientHeight": true, "innerHTML": true, "textContent": true,
}

var propSettable = map[string]bool{
	"value": true, "checked": true, "disabled": true, "selected": true,
	"scrollTop": true, "scrollLeft": true, "innerHTML": true, "textContent": true,
}

// Node is the imperative operation surface a native element must implement.
// The wasm build backs this with syscall/js.Value; tests use a fake.
type Node interface {
	Focus(preventScroll bool)
	Blur()
	Click()
	Select()
	ScrollIntoView()
	ScrollTo(x, y float64)
	ScrollBy(x, y float64)
	Submit() error
	Reset() error
	SetSelectionRange(start, end int, direction string)
	Measure() map[string]float64
	GetValue() any
	SetValue(v any)
	GetText() string
	SetText(s string)
	GetAttr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	GetProp(name string) any
	SetProp(name string, v any)
	SetStyle(key string, value any) // value == nil removes the property
}

type entry struct {
	node Node
}

// EventFunc delivers a fire-and-forget ref lifecycle event (ref:mounted /
// ref:unmounted) through the channel bridge.
type EventFunc func(channelID, event string, payload any)

// Registry owns every live (channelId, refId) -> Node binding.
type Registry struct {
	entries map[string]*entry
	emit    EventFunc
}

// NewRegistry returns a Registry that reports lifecycle events via emit.
func NewRegistry(emit EventFunc) *Registry {
	return &Registry{entries: make(map[string]*entry), emit: emit}
}

func key(channelID, refID string) string { return channelID + "\x00" + refID }

// Mount attaches node to (channelID, refID), emitting ref:mounted. If a
// different node was previously mounted, it is treated as unmounted first.
func (r *Registry) Mount(channelID, refID string, node Node) {
	k := key(channelID, refID)
	if _, ok := r.entries[k]; ok {
		r.Unmount(channelID, refID)
	}
	r.entries[k] = &entry{node: node}
	if r.emit != nil {
		r.emit(channelID, "ref:mounted", map[string]any{"refId": refID})
	}
}

// Unmount detaches whatever node is mounted at (channelID, refID), emitting
// ref:unmounted.
func (r *Registry) Unmount(channelID, refID string) {
	k := key(channelID, refID)
	if _, ok := r.entries[k]; !ok {
		return
	}
	delete(r.entries, k)
	if r.emit != nil {
		r.emit(channelID, "ref:unmounted", map[string]any{"refId": refID})
	}
}

func (r *Registry) lookup(channelID, refID string) (Node, error) {
	e, ok := r.entries[key(channelID, refID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNodeMissing, channelID, refID)
	}
	return e.node, nil
}

// argInt coerces an Op.Args numeric value decoded off the wire (always
// float64) or supplied directly as int by a test double.
func argInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	default:
		return 0
	}
}

func normalizeAttrName(name string) (string, error) {
	canonical := name
	if alias, ok := attrAliases[name]; ok {
		canonical = alias
	}
	if !attrNameRE.MatchString(canonical) {
		return "", fmt.Errorf("ref: invalid attribute name %q", name)
	}
	if len(canonical) >= 2 && canonical[0:2] == "on" {
		return "", fmt.Errorf("ref: attribute name %q is not allowed", name)
	}
	return canonical, nil
}

// Op is a single requested imperative DOM operation (spec §4.7's allowlist).
type Op struct {
	Kind string
	Args map[string]any
}

// Dispatch performs op against the node mounted at (channelID, refID).
// Fire-and-forget ops return (nil, err) where the caller is expected to log
// and swallow err; request ops return a result payload.
func (r *Registry) Dispatch(channelID, refID string, op Op) (any, error) {
	node, err := r.lookup(channelID, refID)
	if err != nil {
		return nil, err
	}
	switch op.Kind {
	case "focus":
		preventScroll, _ := op.Args["preventScroll"].(bool)
		node.Focus(preventScroll)
		return nil, nil
	case "blur":
		node.Blur()
		return nil, nil
	case "click":
		node.Click()
		return nil, nil
	case "select":
		node.Select()
		return nil, nil
	case "scrollIntoView":
		node.ScrollIntoView()
		return nil, nil
	case "scrollTo":
		x, _ := op.Args["x"].(float64)
		y, _ := op.Args["y"].(float64)
		node.ScrollTo(x, y)
		return nil, nil
	case "scrollBy":
		x, _ := op.Args["x"].(float64)
		y, _ := op.Args["y"].(float64)
		node.ScrollBy(x, y)
		return nil, nil
	case "submit":
		return nil, node.Submit()
	case "reset":
		return nil, node.Reset()
	case "setSelectionRange":
		start := argInt(op.Args["start"])
		end := argInt(op.Args["end"])
		direction, _ := op.Args["direction"].(string)
		node.SetSelectionRange(start, end, direction)
		return nil, nil
	case "measure":
		return node.Measure(), nil
	case "getValue":
		return node.GetValue(), nil
	case "setValue":
		node.SetValue(op.Args["value"])
		return nil, nil
	case "getText":
		return node.GetText(), nil
	case "setText":
		s, _ := op.Args["text"].(string)
		node.SetText(s)
		return nil, nil
	case "getAttr":
		name, _ := op.Args["name"].(string)
		canonical, err := normalizeAttrName(name)
		if err != nil {
			return nil, err
		}
		val, ok := node.GetAttr(canonical)
		if !ok {
			return nil, nil
		}
		return val, nil
	case "setAttr":
		name, _ := op.Args["name"].(string)
		value, _ := op.Args["value"].(string)
		canonical, err := normalizeAttrName(name)
		if err != nil {
			return nil, err
		}
		node.SetAttr(canonical, value)
		return nil, nil
	case "removeAttr":
		name, _ := op.Args["name"].(string)
		canonical, err := normalizeAttrName(name)
		if err != nil {
			return nil, err
		}
		node.RemoveAttr(canonical)
		return nil, nil
	case "getProp":
		name, _ := op.Args["name"].(string)
		if !propGettable[name] {
			return nil, fmt.Errorf("ref: property %q is not gettable", name)
		}
		return node.GetProp(name), nil
	case "setProp":
		name, _ := op.Args["name"].(string)
		if !propSettable[name] {
			return nil, fmt.Errorf("ref: property %q is not settable", name)
		}
		node.SetProp(name, op.Args["value"])
		return nil, nil
	case "setStyle":
		styles, _ := op.Args["styles"].(map[string]any)
		for k, v := range styles {
			node.SetStyle(k, v)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOp, op.Kind)
	}
}
