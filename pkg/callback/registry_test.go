package callback

import (
	"sync"
	"testing"
	"time"
)

func TestBindInvokeImmediate(t *testing.T) {
	var mu sync.Mutex
	var got []any
	reg := NewRegistry(func(path, propKey string, args []any) error {
		mu.Lock()
		defer mu.Unlock()
		got = args
		return nil
	})
	fn, _, err := reg.Bind("0", "onClick", 0, false)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := fn([]any{"x"}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("got %v", got)
	}
}

func TestDebounceCoalescesToOneCall(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	var lastArgs []any
	reg := NewRegistry(func(path, propKey string, args []any) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastArgs = args
		return nil
	})
	fn, _, err := reg.Bind("0", "onInput", 20, true)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := fn([]any{i}); err != nil {
			t.Fatalf("invoke: %v", err)
		}
	}
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly 1 dispatch, got %d", calls)
	}
	if len(lastArgs) != 1 || lastArgs[0] != 4 {
		t.Fatalf("expected trailing-edge args [4], got %v", lastArgs)
	}
}

func TestUnbindStopsPendingTimer(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	reg := NewRegistry(func(path, propKey string, args []any) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil
	})
	fn, handle, err := reg.Bind("0", "onInput", 20, true)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := fn([]any{1}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	reg.Unbind(handle)
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected no dispatch after unbind, got %d", calls)
	}
}

func TestRetargetPreservesBinding(t *testing.T) {
	var mu sync.Mutex
	var gotPath string
	reg := NewRegistry(func(path, propKey string, args []any) error {
		mu.Lock()
		defer mu.Unlock()
		gotPath = path
		return nil
	})
	fn, handle, err := reg.Bind("0.0", "onClick", 0, false)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	reg.Retarget(handle, "0.1", "onClick")
	if err := fn([]any{}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotPath != "0.1" {
		t.Fatalf("expected dispatch at retargeted path 0.1, got %q", gotPath)
	}
	if reg.Count() != 1 {
		t.Fatalf("expected a single binding after retarget, got %d", reg.Count())
	}
}

// TestCloneGivesDuplicateDestinationsIndependentIdentity exercises the
// exact reconciliation edge case spec §9 flags: a reused source index
// appearing more than once (ReuseDest=[0,1], ReuseSource=[5,5]). pkg/vdom
// retargets the first destination in place and Clones the second; both
// must report their own path, not the last one written.
func TestCloneGivesDuplicateDestinationsIndependentIdentity(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	reg := NewRegistry(func(path, propKey string, args []any) error {
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, path)
		return nil
	})
	fn1, handle, err := reg.Bind("0.5", "onClick", 0, false)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	reg.Retarget(handle, "0.0", "onClick")
	fn2, handle2, err := reg.Clone(handle, "0.1", "onClick")
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if handle2 == handle {
		t.Fatal("expected Clone to allocate a distinct handle")
	}
	if err := fn1([]any{}); err != nil {
		t.Fatalf("invoke fn1: %v", err)
	}
	if err := fn2([]any{}); err != nil {
		t.Fatalf("invoke fn2: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 2 || paths[0] != "0.0" || paths[1] != "0.1" {
		t.Fatalf("expected dispatches at [0.0 0.1], got %v", paths)
	}
	if reg.Count() != 2 {
		t.Fatalf("expected two independent bindings after clone, got %d", reg.Count())
	}
}
