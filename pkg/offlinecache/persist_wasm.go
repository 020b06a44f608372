//go:build js && wasm
// +build js,wasm

package offlinecache

import (
	"encoding/json"
	"syscall/js"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// storageKeyPrefix namespaces this cache's entries within localStorage, in
// case the host page uses it for other purposes.
const storageKeyPrefix = "pulse:cache:"

// wireEntry is Entry's on-disk shape: VDOM/RouteInfo round-tripped through
// wire.ToJSON/FromJSON since they may hold *wire.Object/*wire.Array nodes
// encoding/json cannot marshal directly.
type wireEntry struct {
	Path      string `json:"path"`
	VDOM      any    `json:"vdom"`
	RouteInfo any    `json:"routeInfo"`
}

// LocalStoragePersister mirrors the cache into window.localStorage, keyed
// by path, following the teacher's convention of a thin syscall/js wrapper
// per browser API rather than a generic storage abstraction.
type LocalStoragePersister struct {
	storage js.Value
}

// NewLocalStoragePersister returns a Persister backed by window.localStorage.
func NewLocalStoragePersister() *LocalStoragePersister {
	return &LocalStoragePersister{storage: js.Global().Get("localStorage")}
}

func (p *LocalStoragePersister) Save(path string, e Entry) {
	data, err := json.Marshal(wireEntry{Path: e.Path, VDOM: wire.ToJSON(e.VDOM), RouteInfo: wire.ToJSON(e.RouteInfo)})
	if err != nil {
		return
	}
	p.storage.Call("setItem", storageKeyPrefix+path, string(data))
}

func (p *LocalStoragePersister) Delete(path string) {
	p.storage.Call("removeItem", storageKeyPrefix+path)
}

func (p *LocalStoragePersister) Load() []Entry {
	length := p.storage.Get("length").Int()
	entries := make([]Entry, 0, length)
	for i := 0; i < length; i++ {
		key := p.storage.Call("key", i)
		if key.IsNull() {
			continue
		}
		keyStr := key.String()
		if len(keyStr) <= len(storageKeyPrefix) || keyStr[:len(storageKeyPrefix)] != storageKeyPrefix {
			continue
		}
		raw := p.storage.Call("getItem", keyStr)
		if raw.IsNull() {
			continue
		}
		var we wireEntry
		if err := json.Unmarshal([]byte(raw.String()), &we); err != nil {
			continue
		}
		entries = append(entries, Entry{
			Path:      we.Path,
			VDOM:      wire.FromJSON(we.VDOM),
			RouteInfo: wire.FromJSON(we.RouteInfo),
		})
	}
	return entries
}
