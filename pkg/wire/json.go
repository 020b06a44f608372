package wire

// FromJSON converts a value decoded by encoding/json (map[string]any,
// []any, and JSON primitives) into this package's graph node types so it
// can be passed through Encode, or handed to pkg/vdom's FromWire as if it
// had arrived over the wire. Used for the hydration payload embedded in
// the page (spec §6's "Hydration contract"), which is plain JSON rather
// than the binary wire codec.
func FromJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		obj := NewObject()
		for k, val := range t {
			obj.Set(k, FromJSON(val))
		}
		return obj
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = FromJSON(item)
		}
		return NewArray(items...)
	default:
		return t
	}
}

// ToJSON converts this package's graph node types back into encoding/json
// compatible values (map[string]any, []any), the inverse of FromJSON.
func ToJSON(v any) any {
	switch t := v.(type) {
	case *Object:
		out := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out[k] = ToJSON(val)
		}
		return out
	case *Array:
		out := make([]any, len(t.Items))
		for i, item := range t.Items {
			out[i] = ToJSON(item)
		}
		return out
	default:
		return t
	}
}
