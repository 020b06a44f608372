package vdom

import (
	"fmt"
	"math"
	"strconv"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		if wire.IsUndefined(v) {
			return false
		}
		return true
	}
}

func typeOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case Callable:
		return "function"
	default:
		if wire.IsUndefined(t) {
			return "undefined"
		}
		return "object"
	}
}

func toNumber(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return math.NaN(), nil
		}
		return f, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("vdom: cannot convert %T to a number", v)
	}
}

func toStringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		if wire.IsUndefined(v) {
			return "undefined"
		}
		return fmt.Sprintf("%v", v)
	}
}

func mod(a, b float64) float64 {
	return math.Mod(a, b)
}

func pow(a, b float64) float64 {
	return math.Pow(a, b)
}

func strictEquals(a, b any) bool {
	if wire.IsUndefined(a) || wire.IsUndefined(b) {
		return wire.IsUndefined(a) && wire.IsUndefined(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return a == b
	}
}

// getMember resolves a named member access (spec §3: "member ... access").
func getMember(base any, key string) (any, error) {
	switch t := base.(type) {
	case *wire.Object:
		if v, ok := t.Get(key); ok {
			return v, nil
		}
		return wire.Undefined, nil
	case *wire.Map:
		if v, ok := t.Get(key); ok {
			return v, nil
		}
		return wire.Undefined, nil
	case *PropMap:
		if v, ok := t.Get(key); ok {
			return v, nil
		}
		return wire.Undefined, nil
	case *wire.Array:
		if key == "length" {
			return float64(len(t.Items)), nil
		}
		return wire.Undefined, nil
	case *wire.Set:
		if key == "size" {
			return float64(len(t.Items)), nil
		}
		return wire.Undefined, nil
	case string:
		if key == "length" {
			return float64(len([]rune(t))), nil
		}
		return wire.Undefined, nil
	case nil:
		return nil, fmt.Errorf("vdom: cannot read member %q of null", key)
	default:
		if wire.IsUndefined(base) {
			return nil, fmt.Errorf("vdom: cannot read member %q of undefined", key)
		}
		return wire.Undefined, nil
	}
}

// getSubscript resolves a computed member access (spec §3: "... and
// subscript access").
func getSubscript(base any, key any) (any, error) {
	switch t := base.(type) {
	case *wire.Array:
		idx, err := toNumber(key)
		if err != nil {
			return nil, err
		}
		i := int(idx)
		if i < 0 || i >= len(t.Items) {
			return wire.Undefined, nil
		}
		return t.Items[i], nil
	default:
		if ks, ok := key.(string); ok {
			return getMember(base, ks)
		}
		return wire.Undefined, nil
	}
}

func hasMember(base any, key string) bool {
	switch t := base.(type) {
	case *wire.Object:
		_, ok := t.Get(key)
		return ok
	case *wire.Map:
		_, ok := t.Get(key)
		return ok
	case *PropMap:
		_, ok := t.Get(key)
		return ok
	default:
		return false
	}
}
