package wire

// Array is an ordered, reference-tracked JSON array node. Two positions in
// a graph that point at the same *Array are encoded as a back-reference
// pair and decoded back to the same pointer.
type Array struct {
	Items []any
}

// NewArray builds an Array from a plain Go slice.
func NewArray(items ...any) *Array {
	return &Array{Items: items}
}

// Object is an ordered string-keyed mapping, used both for the decoded form
// of plain JSON objects and for the wire body of a Map (§4.1: "Maps become
// objects"). Order is preserved because VDOM props (§3) are an ordered
// mapping and downstream consumers rely on iteration order.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// Set inserts or updates a key, appending it to the key order on first use.
func (o *Object) Set(key string, val any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = val
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Delete removes key, preserving the order of what remains.
func (o *Object) Delete(key string) {
	if _, ok := o.vals[key]; !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of entries.
func (o *Object) Len() int {
	return len(o.keys)
}

// Set is an unordered collection of values, reference-tracked like Array.
// It round-trips through the wire format as a tagged JSON array (§4.1).
type Set struct {
	Items []any
}

// NewSet builds a Set from the given items.
func NewSet(items ...any) *Set {
	return &Set{Items: items}
}

// Map is an insertion-ordered key/value collection distinct from Object only
// in that it is tagged for reconstruction as a Map on decode (§4.1).
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]any)}
}

// Set inserts or updates a key, appending it to key order on first use.
func (m *Map) Set(key string, val any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// undefinedType is the sentinel returned in place of JSON null when decoding
// with CoerceNullToUndefined set, for primitive positions only.
type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined is the sentinel value for the JS "undefined" primitive.
var Undefined = undefinedType{}

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}
