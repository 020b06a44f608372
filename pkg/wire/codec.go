package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInfinite is returned when encoding a non-finite float other than NaN.
var ErrInfinite = errors.New("wire: cannot encode +/-Inf")

const dateOnlyLayout = "2006-01-02"

// Encode serializes v to the wire envelope [[refs, dates, sets, maps], body]
// described in package doc.go. v may be built from Go primitives (nil, bool,
// string, any numeric type, *time.Time) and the graph node types Array,
// Object, Set, and Map; the same pointer reused at multiple positions is
// encoded once and back-referenced thereafter, tolerating cycles.
func Encode(v any) ([]byte, error) {
	e := &encoder{seen: make(map[any]int)}
	body, err := e.encodeValue(v)
	if err != nil {
		return nil, err
	}
	envelope := []any{
		[]any{intsOrEmpty(e.refs), intsOrEmpty(e.dates), intsOrEmpty(e.sets), intsOrEmpty(e.maps)},
		body,
	}
	return json.Marshal(envelope)
}

func intsOrEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

type encoder struct {
	seen  map[any]int
	next  int
	refs  []int
	dates []int
	sets  []int
	maps  []int
}

// visit handles the shared seen/backref bookkeeping for any reference-typed
// (pointer) value. first is invoked only on the first visit and must return
// the JSON-marshalable body for that value.
func (e *encoder) visit(ptr any, tag *[]int, first func() (any, error)) (any, error) {
	if earlier, ok := e.seen[ptr]; ok {
		idx := e.next
		e.next++
		e.refs = append(e.refs, idx)
		return float64(earlier), nil
	}
	idx := e.next
	e.next++
	e.seen[ptr] = idx
	if tag != nil {
		*tag = append(*tag, idx)
	}
	return first()
}

func (e *encoder) encodeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		return t, nil
	case float64:
		return encodeFloat(t)
	case float32:
		return encodeFloat(float64(t))
	case int:
		return float64(t), nil
	case int8:
		return float64(t), nil
	case int16:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint:
		return float64(t), nil
	case uint8:
		return float64(t), nil
	case uint16:
		return float64(t), nil
	case uint32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case *time.Time:
		return e.visit(t, &e.dates, func() (any, error) {
			return t.UTC().Format(time.RFC3339Nano), nil
		})
	case *Array:
		return e.visit(t, nil, func() (any, error) {
			out := make([]any, len(t.Items))
			for i, item := range t.Items {
				enc, err := e.encodeValue(item)
				if err != nil {
					return nil, err
				}
				out[i] = enc
			}
			return out, nil
		})
	case *Set:
		return e.visit(t, &e.sets, func() (any, error) {
			out := make([]any, len(t.Items))
			for i, item := range t.Items {
				enc, err := e.encodeValue(item)
				if err != nil {
					return nil, err
				}
				out[i] = enc
			}
			return out, nil
		})
	case *Object:
		return e.visit(t, nil, func() (any, error) {
			keys := t.Keys()
			vals := make([]any, len(keys))
			for i, k := range keys {
				val, _ := t.Get(k)
				enc, err := e.encodeValue(val)
				if err != nil {
					return nil, err
				}
				vals[i] = enc
			}
			return &orderedJSONObject{keys: keys, vals: vals}, nil
		})
	case *Map:
		return e.visit(t, &e.maps, func() (any, error) {
			keys := t.Keys()
			vals := make([]any, len(keys))
			for i, k := range keys {
				val, _ := t.Get(k)
				enc, err := e.encodeValue(val)
				if err != nil {
					return nil, err
				}
				vals[i] = enc
			}
			return &orderedJSONObject{keys: keys, vals: vals}, nil
		})
	default:
		return nil, fmt.Errorf("wire: unsupported value of type %T", v)
	}
}

func encodeFloat(f float64) (any, error) {
	if math.IsNaN(f) {
		return nil, nil
	}
	if math.IsInf(f, 0) {
		return nil, ErrInfinite
	}
	return f, nil
}

// orderedJSONObject renders its keys in a fixed order instead of the sorted
// order encoding/json would otherwise impose on a map.
type orderedJSONObject struct {
	keys []string
	vals []any
}

func (o *orderedJSONObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a wire envelope produced by Encode (or an equivalent peer
// implementation) back into the graph node types. When coerceNullToUndefined
// is true, a JSON null found at a primitive (non-container, non-backref,
// non-date) position decodes to the Undefined sentinel instead of nil.
func Decode(data []byte, coerceNullToUndefined bool) (any, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("wire: invalid envelope: %w", err)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("wire: envelope must have 2 elements, got %d", len(parts))
	}

	var tags [4][]int
	if err := json.Unmarshal(parts[0], &tags); err != nil {
		return nil, fmt.Errorf("wire: invalid tag lists: %w", err)
	}

	body, err := parseOrdered(bytes.NewReader(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("wire: invalid body: %w", err)
	}

	d := &decoder{
		refs:       toSet(tags[0]),
		dates:      toSet(tags[1]),
		sets:       toSet(tags[2]),
		maps:       toSet(tags[3]),
		coerceNull: coerceNullToUndefined,
	}
	return d.decodeNode(body)
}

func toSet(idx []int) map[int]bool {
	out := make(map[int]bool, len(idx))
	for _, i := range idx {
		out[i] = true
	}
	return out
}

type decoder struct {
	refs, dates, sets, maps map[int]bool
	coerceNull              bool
	counter                 int
	objects                 []any
}

func (d *decoder) ensureLen(n int) {
	for len(d.objects) < n {
		d.objects = append(d.objects, nil)
	}
}

func (d *decoder) decodeNode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		if d.coerceNull {
			return Undefined, nil
		}
		return nil, nil
	case bool:
		return v, nil
	case string:
		idx := d.counter
		if d.dates[idx] {
			d.counter++
			t, err := parseDate(v)
			if err != nil {
				return nil, err
			}
			d.ensureLen(idx + 1)
			d.objects[idx] = &t
			return &t, nil
		}
		return v, nil
	case float64:
		idx := d.counter
		if d.refs[idx] {
			d.counter++
			d.ensureLen(idx + 1)
			d.objects[idx] = nil
			earlier := int(v)
			if earlier < 0 || earlier >= len(d.objects) {
				return nil, fmt.Errorf("wire: back-reference %d out of range", earlier)
			}
			return d.objects[earlier], nil
		}
		return v, nil
	case []any:
		idx := d.counter
		d.counter++
		d.ensureLen(idx + 1)
		if d.sets[idx] {
			s := &Set{Items: make([]any, len(v))}
			d.objects[idx] = s
			for i, item := range v {
				dv, err := d.decodeNode(item)
				if err != nil {
					return nil, err
				}
				s.Items[i] = dv
			}
			return s, nil
		}
		arr := &Array{Items: make([]any, len(v))}
		d.objects[idx] = arr
		for i, item := range v {
			dv, err := d.decodeNode(item)
			if err != nil {
				return nil, err
			}
			arr.Items[i] = dv
		}
		return arr, nil
	case *Object:
		idx := d.counter
		d.counter++
		d.ensureLen(idx + 1)
		if d.maps[idx] {
			m := NewMap()
			d.objects[idx] = m
			for _, k := range v.Keys() {
				val, _ := v.Get(k)
				dv, err := d.decodeNode(val)
				if err != nil {
					return nil, err
				}
				m.Set(k, dv)
			}
			return m, nil
		}
		obj := NewObject()
		d.objects[idx] = obj
		for _, k := range v.Keys() {
			val, _ := v.Get(k)
			dv, err := d.decodeNode(val)
			if err != nil {
				return nil, err
			}
			obj.Set(k, dv)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("wire: unexpected decoded node type %T", raw)
	}
}

func parseDate(s string) (time.Time, error) {
	if len(s) == len(dateOnlyLayout) {
		if t, err := time.ParseInLocation(dateOnlyLayout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("wire: invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}
