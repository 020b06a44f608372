package router

import (
	"net/url"
	"strings"
)

// DestinationKind classifies a navigation target (spec §4.5/§4.8).
type DestinationKind int

const (
	DestSPA  DestinationKind = iota // navigate via the SPA router
	DestHard                        // full-document load
)

// ClassifyDestination decides whether to should be handled by the SPA router
// or a full-document load. A protocol-relative to gets current's scheme, a
// same-origin absolute URL is reduced to its request URI, and a relative to
// is returned unchanged (it is not resolved against current). hard
// forces a full-document load regardless of origin (spec §4.5's navigate_to
// message carries its own "hard" flag from the server).
func ClassifyDestination(current *url.URL, to string, hard bool) (resolved string, kind DestinationKind) {
	if hard {
		return normalizeProtocolRelative(current, to), DestHard
	}
	if strings.HasPrefix(to, "//") {
		to = current.Scheme + ":" + to
	}
	u, err := url.Parse(to)
	if err != nil {
		return to, DestHard
	}
	if !u.IsAbs() {
		return to, DestSPA
	}
	if u.Scheme != current.Scheme || u.Host != current.Host {
		return to, DestHard
	}
	return u.RequestURI(), DestSPA
}

func normalizeProtocolRelative(current *url.URL, to string) string {
	if strings.HasPrefix(to, "//") {
		return current.Scheme + ":" + to
	}
	return to
}

// NavOptions mirrors navigate(to, {replace?, state?}) from spec §4.8.
type NavOptions struct {
	Replace bool
	State   any
}

// History abstracts window.history (wasm) or an in-memory stack (tests).
type History interface {
	Push(path string, state any)
	Replace(path string, state any)
}

// ScrollStore remembers scroll offsets per pathname, for restoring on
// return (spec §4.8).
type ScrollStore struct {
	positions map[string][2]float64
}

// NewScrollStore returns an empty ScrollStore.
func NewScrollStore() *ScrollStore {
	return &ScrollStore{positions: make(map[string][2]float64)}
}

// Save records the current scroll offset for pathname.
func (s *ScrollStore) Save(pathname string, x, y float64) {
	s.positions[pathname] = [2]float64{x, y}
}

// Restore returns the remembered offset for pathname, or (0, 0, false) if
// none was recorded.
func (s *ScrollStore) Restore(pathname string) (x, y float64, ok bool) {
	v, found := s.positions[pathname]
	if !found {
		return 0, 0, false
	}
	return v[0], v[1], true
}

// Prefetcher loads a route's lazy bundle ahead of navigation, driven by
// hover ("intent"), viewport visibility, or render-time eagerness.
type Prefetcher struct {
	loaded map[string]bool
	load   func(path string) error
}

// NewPrefetcher returns a Prefetcher backed by load, which is expected to be
// idempotent-safe to call more than once (the Prefetcher still dedupes).
func NewPrefetcher(load func(path string) error) *Prefetcher {
	return &Prefetcher{loaded: make(map[string]bool), load: load}
}

// Prefetch triggers the lazy bundle load for path if not already loaded.
func (p *Prefetcher) Prefetch(path string) error {
	if p.loaded[path] {
		return nil
	}
	if err := p.load(path); err != nil {
		return err
	}
	p.loaded[path] = true
	return nil
}
