package wire

import (
	"testing"
	"time"
)

func decodeAs[T any](t *testing.T, v any) T {
	t.Helper()
	out, ok := v.(T)
	if !ok {
		t.Fatalf("expected %T, got %T (%v)", out, v, v)
	}
	return out
}

func TestRoundTripPrimitives(t *testing.T) {
	data, err := Encode(NewArray("hi", 3.5, true, nil))
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	arr := decodeAs[*Array](t, got)
	if arr.Items[0] != "hi" || arr.Items[1] != 3.5 || arr.Items[2] != true || arr.Items[3] != nil {
		t.Fatalf("unexpected items: %+v", arr.Items)
	}
}

func TestRoundTripSharedIdentity(t *testing.T) {
	shared := NewObject()
	shared.Set("x", 1.0)
	root := NewArray(shared, shared)

	data, err := Encode(root)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	arr := decodeAs[*Array](t, got)
	a := decodeAs[*Object](t, arr.Items[0])
	b := decodeAs[*Object](t, arr.Items[1])
	if a != b {
		t.Fatalf("expected shared identity to be preserved, got distinct pointers")
	}
	v, _ := a.Get("x")
	if v != 1.0 {
		t.Fatalf("expected x=1, got %v", v)
	}
}

func TestRoundTripCycle(t *testing.T) {
	obj := NewObject()
	obj.Set("self", obj)

	data, err := Encode(obj)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	decoded := decodeAs[*Object](t, got)
	self, _ := decoded.Get("self")
	if self != decoded {
		t.Fatalf("expected cyclic self-reference to resolve to the same pointer")
	}
}

func TestRoundTripDate(t *testing.T) {
	d := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := Encode(&d)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	decoded := decodeAs[*time.Time](t, got)
	if !decoded.Equal(d) {
		t.Fatalf("expected %v, got %v", d, decoded)
	}
}

func TestRoundTripDateOnly(t *testing.T) {
	got, err := Decode([]byte(`[[[],[0],[],[]],"2024-01-02"]`), false)
	if err != nil {
		t.Fatal(err)
	}
	decoded := decodeAs[*time.Time](t, got)
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !decoded.Equal(want) {
		t.Fatalf("expected %v, got %v", want, decoded)
	}
}

func TestRoundTripSet(t *testing.T) {
	s := NewSet("a", "b", "c")
	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	decoded := decodeAs[*Set](t, got)
	if len(decoded.Items) != 3 || decoded.Items[1] != "b" {
		t.Fatalf("unexpected set contents: %+v", decoded.Items)
	}
}

func TestRoundTripMapPreservesOrder(t *testing.T) {
	m := NewMap()
	m.Set("z", 1.0)
	m.Set("a", 2.0)
	data, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	decoded := decodeAs[*Map](t, got)
	if keys := decoded.Keys(); len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("expected insertion order preserved, got %v", keys)
	}
}

func TestObjectKeyOrderPreserved(t *testing.T) {
	o := NewObject()
	o.Set("b", 1.0)
	o.Set("a", 2.0)
	o.Set("c", 3.0)

	data, err := Encode(o)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	decoded := decodeAs[*Object](t, got)
	want := []string{"b", "a", "c"}
	gotKeys := decoded.Keys()
	if len(gotKeys) != len(want) {
		t.Fatalf("expected %v, got %v", want, gotKeys)
	}
	for i := range want {
		if gotKeys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, gotKeys)
		}
	}
}

func TestNaNEncodesNull(t *testing.T) {
	data, err := Encode(NewArray(nanFloat()))
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	arr := decodeAs[*Array](t, got)
	if arr.Items[0] != nil {
		t.Fatalf("expected NaN to decode as nil, got %v", arr.Items[0])
	}
}

func TestInfiniteIsError(t *testing.T) {
	if _, err := Encode(infFloat()); err == nil {
		t.Fatalf("expected an error encoding +Inf")
	}
}

func TestCoerceNullToUndefined(t *testing.T) {
	data, err := Encode(NewArray(nil, "x"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data, true)
	if err != nil {
		t.Fatal(err)
	}
	arr := decodeAs[*Array](t, got)
	if !IsUndefined(arr.Items[0]) {
		t.Fatalf("expected Undefined sentinel, got %v", arr.Items[0])
	}
	if arr.Items[1] != "x" {
		t.Fatalf("expected x, got %v", arr.Items[1])
	}
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}

func infFloat() float64 {
	var zero float64
	return 1 / zero
}
