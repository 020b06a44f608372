package vdom

import (
	"fmt"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// PropMap is an ordered string-keyed collection of prop values (spec §3:
// "props is an ordered mapping from string keys to prop values").
type PropMap struct {
	keys []string
	vals map[string]any
}

// NewPropMap returns an empty PropMap.
func NewPropMap() *PropMap {
	return &PropMap{vals: make(map[string]any)}
}

// Set inserts or updates key, appending to iteration order on first use.
func (p *PropMap) Set(key string, val any) {
	if _, ok := p.vals[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = val
}

// Get returns the value for key and whether it is present.
func (p *PropMap) Get(key string) (any, bool) {
	v, ok := p.vals[key]
	return v, ok
}

// Delete removes key, preserving order of what remains.
func (p *PropMap) Delete(key string) {
	if _, ok := p.vals[key]; !ok {
		return
	}
	delete(p.vals, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (p *PropMap) Keys() []string { return p.keys }

// Clone returns a shallow copy sharing no backing slice/map with p.
func (p *PropMap) Clone() *PropMap {
	c := NewPropMap()
	for _, k := range p.keys {
		c.Set(k, p.vals[k])
	}
	return c
}

// Element is a VDOM element node (spec §3): { tag, key?, props?, children?, eval? }.
type Element struct {
	// Tag is a string (HTML tag, "" for fragment, or "$$Name" for a
	// registered component) or an *Expr when the tag itself is computed.
	Tag      any
	Key      string
	HasKey   bool
	Props    *PropMap
	Children []any // Node: nil | bool | float64 | string | *Element | *Expr
	Eval     map[string]bool
}

// IsComponentTag reports whether Tag names a registered component ("$$Name").
func (e *Element) IsComponentTag() (name string, ok bool) {
	s, isStr := e.Tag.(string)
	if !isStr || len(s) < 2 || s[0] != '$' || s[1] != '$' {
		return "", false
	}
	return s[2:], true
}

// IsFragment reports whether Tag is the empty-string fragment marker.
func (e *Element) IsFragment() bool {
	s, isStr := e.Tag.(string)
	return isStr && s == ""
}

// FromWire converts a generic value decoded by pkg/wire into the typed VDOM
// node representation. Values that are not recognizable node shapes pass
// through unchanged (spec §3: "unmarked props are opaque JSON passed through").
func FromWire(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, float64, string:
		return t, nil
	case *wire.Object:
		if _, ok := t.Get("t"); ok {
			return exprFromWire(t)
		}
		if _, ok := t.Get("tag"); ok {
			return elementFromWire(t)
		}
		return t, nil
	default:
		return v, nil
	}
}

func stringsFromEval(v any) map[string]bool {
	out := make(map[string]bool)
	switch t := v.(type) {
	case *wire.Array:
		for _, item := range t.Items {
			if s, ok := item.(string); ok {
				out[s] = true
			}
		}
	case *wire.Set:
		for _, item := range t.Items {
			if s, ok := item.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}

func elementFromWire(o *wire.Object) (*Element, error) {
	el := &Element{}

	tagRaw, _ := o.Get("tag")
	tag, err := FromWire(tagRaw)
	if err != nil {
		return nil, err
	}
	el.Tag = tag

	if keyRaw, ok := o.Get("key"); ok {
		s, isStr := keyRaw.(string)
		if !isStr {
			return nil, fmt.Errorf("vdom: element key must be a string, got %T", keyRaw)
		}
		el.Key = s
		el.HasKey = true
	}

	if evalRaw, ok := o.Get("eval"); ok {
		el.Eval = stringsFromEval(evalRaw)
	} else {
		el.Eval = make(map[string]bool)
	}

	if propsRaw, ok := o.Get("props"); ok {
		propsObj, isObj := propsRaw.(*wire.Object)
		if !isObj {
			return nil, fmt.Errorf("vdom: props must be an object, got %T", propsRaw)
		}
		el.Props = NewPropMap()
		for _, k := range propsObj.Keys() {
			val, _ := propsObj.Get(k)
			if el.Eval[k] {
				parsed, err := FromWire(val)
				if err != nil {
					return nil, err
				}
				el.Props.Set(k, parsed)
			} else {
				el.Props.Set(k, val)
			}
		}
	}

	if childrenRaw, ok := o.Get("children"); ok {
		arr, isArr := childrenRaw.(*wire.Array)
		if !isArr {
			return nil, fmt.Errorf("vdom: children must be an array, got %T", childrenRaw)
		}
		el.Children = make([]any, len(arr.Items))
		for i, c := range arr.Items {
			parsed, err := FromWire(c)
			if err != nil {
				return nil, err
			}
			el.Children[i] = parsed
		}
	}

	return el, nil
}
