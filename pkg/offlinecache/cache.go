// Package offlinecache implements C9: an LRU cache of per-path rendered
// VDOM/routeInfo, and the offline-navigation helper that surfaces a cached
// entry when the browser reports itself offline (spec §4.9).
package offlinecache

import "container/list"

// DefaultCapacity is the default number of path entries retained (spec
// §4.8: "LRU (size 50 default)").
const DefaultCapacity = 50

// Entry is what gets cached per path.
type Entry struct {
	Path      string
	VDOM      any
	RouteInfo any
}

type node struct {
	entry Entry
}

// Persister optionally mirrors the cache to durable storage (e.g.
// localStorage in the wasm build).
type Persister interface {
	Save(path string, e Entry)
	Delete(path string)
	Load() []Entry
}

// Cache is an LRU cache of Entry keyed by path.
type Cache struct {
	capacity  int
	list      *list.List
	index     map[string]*list.Element
	persister Persister
}

// NewCache returns a Cache with the given capacity (DefaultCapacity if <= 0)
// and an optional persister.
func NewCache(capacity int, persister Persister) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		capacity:  capacity,
		list:      list.New(),
		index:     make(map[string]*list.Element),
		persister: persister,
	}
	if persister != nil {
		for _, e := range persister.Load() {
			c.put(e, false)
		}
	}
	return c
}

// Put inserts or refreshes the entry for e.Path as most-recently-used,
// evicting the least-recently-used entry if over capacity.
func (c *Cache) Put(e Entry) {
	c.put(e, true)
}

func (c *Cache) put(e Entry, persist bool) {
	if el, ok := c.index[e.Path]; ok {
		el.Value = &node{entry: e}
		c.list.MoveToFront(el)
	} else {
		el := c.list.PushFront(&node{entry: e})
		c.index[e.Path] = el
	}
	if persist && c.persister != nil {
		c.persister.Save(e.Path, e)
	}
	for c.list.Len() > c.capacity {
		back := c.list.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(*node).entry
		c.list.Remove(back)
		delete(c.index, evicted.Path)
		if c.persister != nil {
			c.persister.Delete(evicted.Path)
		}
	}
}

// Get returns the entry for path, marking it most-recently-used.
func (c *Cache) Get(path string) (Entry, bool) {
	el, ok := c.index[path]
	if !ok {
		return Entry{}, false
	}
	c.list.MoveToFront(el)
	return el.Value.(*node).entry, true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.list.Len() }

// OnlineChecker reports navigator.onLine (wasm-only in the real build; a
// test double otherwise).
type OnlineChecker func() bool

// Navigator surfaces cached entries when the browser is offline, and
// tracks the pending navigation/last-online-path state needed to
// reestablish a session on reconnect (spec §4.9).
type Navigator struct {
	cache           *Cache
	online          OnlineChecker
	lastOnlinePath  string
	pendingPath     string
	hasPendingPath  bool
}

// NewNavigator returns a Navigator backed by cache, using online to check
// connectivity.
func NewNavigator(cache *Cache, online OnlineChecker) *Navigator {
	return &Navigator{cache: cache, online: online}
}

// Resolve attempts to navigate to path. If the browser is online, it records
// path as the last-known-online path and reports that the caller should
// proceed with a normal (server-backed) navigation. If offline and a cache
// entry exists, it returns the cached entry and records path as pending so a
// reconnect can resume there.
func (n *Navigator) Resolve(path string) (entry Entry, fromCache bool) {
	if n.online == nil || n.online() {
		n.lastOnlinePath = path
		n.hasPendingPath = false
		return Entry{}, false
	}
	n.pendingPath = path
	n.hasPendingPath = true
	e, ok := n.cache.Get(path)
	if !ok {
		return Entry{}, false
	}
	return e, true
}

// PendingPath returns the path that was navigated to while offline and has
// not yet been reconciled with the server, if any.
func (n *Navigator) PendingPath() (path string, ok bool) {
	return n.pendingPath, n.hasPendingPath
}

// LastOnlinePath returns the last path successfully navigated while online.
func (n *Navigator) LastOnlinePath() string { return n.lastOnlinePath }

// ClearPending clears the pending-navigation marker once reconnect has
// resumed at that path.
func (n *Navigator) ClearPending() {
	n.hasPendingPath = false
	n.pendingPath = ""
}
