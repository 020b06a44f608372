// Package callback implements the callback registry of spec §4.3: resolving
// "$cb"/"$cb:N" prop placeholders into bound functions, debouncing rapid
// invocations, and rebinding bindings when pkg/vdom reconciliation moves an
// element to a new path.
//
// The mutex-guarded-map-by-key and per-binding timer bookkeeping here
// mirrors the teacher's pkg/scheduler.Scheduler and pkg/live.SchedulerBridge.
package callback

import (
	"errors"
	"sync"
	"time"

	"github.com/erwinkn/pulse-ui-sub000/internal/pulselog"
	"github.com/erwinkn/pulse-ui-sub000/pkg/vdom"
)

// ErrNotBound is returned by Clone when no binding exists for the given
// handle. Unbind and Retarget return nothing and do nothing in that case.
var ErrNotBound = errors.New("callback: no binding for this handle")

// SendFunc delivers a resolved callback invocation to the server. Exactly
// one SendFunc call happens per invocation that survives debouncing (spec
// §8 scenario 3: "exactly one client-to-server message").
type SendFunc func(path, propKey string, args []any) error

type entry struct {
	mu        sync.Mutex
	id        vdom.CallbackHandle
	path      string
	propKey   string
	delayMs   int
	debounced bool
	timer     *time.Timer
	lastArgs  []any
}

// Registry binds, invokes, debounces, retargets and tears down callbacks.
// It implements vdom.CallbackBinder. Every binding is addressed by the
// vdom.CallbackHandle handed out at Bind time, not by its current path: a
// path string is transiently shared by more than one clone of the same
// reused-reconciliation source, so it cannot double as a stable key.
type Registry struct {
	mu     sync.Mutex
	byKey  map[string]*entry
	byID   map[vdom.CallbackHandle]*entry
	nextID vdom.CallbackHandle
	send   SendFunc
}

// NewRegistry returns a Registry that delivers invocations via send.
func NewRegistry(send SendFunc) *Registry {
	return &Registry{
		byKey: make(map[string]*entry),
		byID:  make(map[vdom.CallbackHandle]*entry),
		send:  send,
	}
}

func entryKey(path, propKey string) string {
	return path + "\x00" + propKey
}

// Bind registers (or re-registers, at the same path/propKey) a callback and
// returns the function pkg/vdom stores as the prop value, plus the handle
// identifying this binding for Unbind/Retarget/Clone. debounced requests
// trailing-edge debounce with the given delay (spec §4.3).
func (r *Registry) Bind(path, propKey string, delayMs int, debounced bool) (vdom.BoundCallback, vdom.CallbackHandle, error) {
	r.mu.Lock()
	k := entryKey(path, propKey)
	e, ok := r.byKey[k]
	if !ok {
		r.nextID++
		e = &entry{id: r.nextID, path: path, propKey: propKey}
		r.byKey[k] = e
		r.byID[e.id] = e
	}
	e.mu.Lock()
	e.delayMs = delayMs
	e.debounced = debounced
	e.mu.Unlock()
	id := e.id
	r.mu.Unlock()

	return func(args []any) error {
		return r.invoke(e, args)
	}, id, nil
}

func (r *Registry) invoke(e *entry, args []any) error {
	e.mu.Lock()
	if !e.debounced {
		path, propKey := e.path, e.propKey
		e.mu.Unlock()
		return r.dispatch(path, propKey, args)
	}
	e.lastArgs = args
	if e.timer != nil {
		e.timer.Stop()
	}
	delay := time.Duration(e.delayMs) * time.Millisecond
	e.timer = time.AfterFunc(delay, func() {
		e.mu.Lock()
		path, propKey, finalArgs := e.path, e.propKey, e.lastArgs
		e.mu.Unlock()
		if err := r.dispatch(path, propKey, finalArgs); err != nil {
			pulselog.Errorf("callback: debounced dispatch for %s/%s failed: %v", path, propKey, err)
		}
	})
	e.mu.Unlock()
	return nil
}

func (r *Registry) dispatch(path, propKey string, args []any) error {
	if r.send == nil {
		return nil
	}
	return r.send(path, propKey, args)
}

// Unbind tears down the binding identified by handle, stopping any pending
// debounce timer. It is a no-op if no binding exists for handle.
func (r *Registry) Unbind(handle vdom.CallbackHandle) {
	r.mu.Lock()
	e, ok := r.byID[handle]
	if ok {
		delete(r.byID, handle)
		delete(r.byKey, entryKey(e.path, e.propKey))
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.mu.Unlock()
}

// Retarget moves the binding identified by handle to newPath/propKey in
// place, preserving its timer and debounce state (DESIGN.md: "retarget"
// strategy chosen over clear-and-recreate for a reconciliation move). It is
// a no-op if no binding exists for handle.
func (r *Registry) Retarget(handle vdom.CallbackHandle, newPath, propKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[handle]
	if !ok {
		return
	}
	e.mu.Lock()
	oldPath, oldPropKey := e.path, e.propKey
	e.path = newPath
	e.propKey = propKey
	e.mu.Unlock()
	delete(r.byKey, entryKey(oldPath, oldPropKey))
	r.byKey[entryKey(newPath, propKey)] = e
}

// Clone creates a brand new, independent binding starting from handle's
// current delay/debounce configuration, registered at newPath/propKey.
// pkg/vdom calls this instead of Retarget when a reconciliation op reuses
// one source at more than one destination: only the first destination may
// move the existing binding, every later one needs its own identity so
// invoking it reports its own path rather than clobbering (or being
// clobbered by) a sibling destination sharing the same handle.
func (r *Registry) Clone(handle vdom.CallbackHandle, newPath, propKey string) (vdom.BoundCallback, vdom.CallbackHandle, error) {
	r.mu.Lock()
	src, ok := r.byID[handle]
	if !ok {
		r.mu.Unlock()
		return nil, 0, ErrNotBound
	}
	src.mu.Lock()
	delayMs, debounced := src.delayMs, src.debounced
	src.mu.Unlock()

	r.nextID++
	e := &entry{id: r.nextID, path: newPath, propKey: propKey, delayMs: delayMs, debounced: debounced}
	r.byID[e.id] = e
	r.byKey[entryKey(newPath, propKey)] = e
	id := e.id
	r.mu.Unlock()

	return func(args []any) error {
		return r.invoke(e, args)
	}, id, nil
}

// Count returns the number of live bindings, for tests and diagnostics.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}
