//go:build js && wasm
// +build js,wasm

// Command pulsewasm is the browser entrypoint: it reads the hydration
// payload the server embedded in the page, stands up the session client
// (C5), channel bridge (C6), ref registry (C7), router (C8) and offline
// cache (C9), and starts committing vdom_init/vdom_update messages to real
// DOM nodes through pkg/domsync.
//
// Grounded on the teacher's app/client/main.go: global document/window/
// console js.Value vars set once in main, an initApp/onReady DOM-ready
// gate, and a closing select{} to keep the wasm runtime alive.
package main

import (
	"encoding/json"
	"net/url"
	"strings"
	"syscall/js"

	"github.com/erwinkn/pulse-ui-sub000/internal/pulselog"
	"github.com/erwinkn/pulse-ui-sub000/pkg/callback"
	"github.com/erwinkn/pulse-ui-sub000/pkg/channel"
	"github.com/erwinkn/pulse-ui-sub000/pkg/config"
	"github.com/erwinkn/pulse-ui-sub000/pkg/domsync"
	"github.com/erwinkn/pulse-ui-sub000/pkg/offlinecache"
	"github.com/erwinkn/pulse-ui-sub000/pkg/ref"
	"github.com/erwinkn/pulse-ui-sub000/pkg/router"
	"github.com/erwinkn/pulse-ui-sub000/pkg/session"
	"github.com/erwinkn/pulse-ui-sub000/pkg/vdom"
	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

var (
	document js.Value
	window   js.Value
	location js.Value
)

// app bundles every piece of runtime state the hydrated page needs. There
// is exactly one per page load; hydrate() constructs it and wires the
// session's ViewHandlers to its methods.
type app struct {
	path string

	cfg         config.Config
	sess        *session.Session
	rend        *vdom.Renderer
	cbs         *callback.Registry
	refs        *ref.Registry
	refChannels map[string]*channel.Bridge
	tree        *domsync.Tree
	cache       *offlinecache.Cache
	nav         *offlinecache.Navigator

	root    js.Value
	live    *vdom.LiveNode
	history *router.ScrollStore
}

func main() {
	document = js.Global().Get("document")
	window = js.Global().Get("window")
	location = window.Get("location")

	pulselog.Logf("pulsewasm: starting")

	if document.Get("readyState").String() != "loading" {
		onReady()
	} else {
		document.Call("addEventListener", "DOMContentLoaded", js.FuncOf(func(this js.Value, args []js.Value) any {
			onReady()
			return nil
		}))
	}

	select {}
}

func onReady() {
	a := &app{
		cfg:         config.Default(),
		path:        location.Get("pathname").String(),
		history:     router.NewScrollStore(),
		refChannels: make(map[string]*channel.Bridge),
	}

	root := document.Call("getElementById", "app")
	if root.IsNull() || root.IsUndefined() {
		pulselog.Errorf("pulsewasm: no #app element found")
		return
	}
	a.root = root

	origin, err := url.Parse(location.Get("href").String())
	if err != nil {
		pulselog.Errorf("pulsewasm: parse location: %v", err)
		return
	}

	transport := session.NewWasmTransport()
	navHost := &browserNav{app: a}
	a.sess = session.New(transport, a.cfg.Timers, navHost, origin, nil)

	a.cbs = callback.NewRegistry(a.sess.SendCallback)
	a.rend = vdom.NewRenderer(vdom.NewEvaluator(), a.cbs)

	var persister offlinecache.Persister
	if a.cfg.Cache.Persisted {
		persister = offlinecache.NewLocalStoragePersister()
	}
	a.cache = offlinecache.NewCache(a.cfg.Cache.Capacity, persister)
	a.nav = offlinecache.NewNavigator(a.cache, func() bool {
		return window.Get("navigator").Get("onLine").Bool()
	})

	a.refs = ref.NewRegistry(a.emitRefEvent)
	a.tree = domsync.New(a.refs)

	window.Call("addEventListener", "popstate", js.FuncOf(func(this js.Value, args []js.Value) any {
		a.switchView(location.Get("pathname").String())
		return nil
	}))

	a.hydrate()

	wsURL := buildWebsocketURL(a.cfg.Websocket.URLTemplate, origin)
	a.sess.Connect(wsURL)

	pulselog.Logf("pulsewasm: initialized at %s", a.path)
}

// buildWebsocketURL substitutes {scheme}/{host}/{path} in tmpl, switching
// http(s) to ws(s) per spec §4.5's websocket URL construction.
func buildWebsocketURL(tmpl string, origin *url.URL) string {
	scheme := "ws"
	if origin.Scheme == "https" {
		scheme = "wss"
	}
	out := strings.ReplaceAll(tmpl, "{scheme}", scheme)
	out = strings.ReplaceAll(out, "{host}", origin.Host)
	out = strings.ReplaceAll(out, "{path}", origin.Path)
	return out
}

// hydrationPayload is the shape of the #__PULSE_DATA__ script's JSON text
// (spec §6: "{ vdom, routeInfo }").
type hydrationPayload struct {
	VDOM      any `json:"vdom"`
	RouteInfo any `json:"routeInfo"`
}

// hydrate reads the embedded hydration payload (if present), renders it
// into #app, and attaches the current path as a mounted view.
func (a *app) hydrate() {
	var routeInfo *wire.Object
	var initialLive *vdom.LiveNode

	script := document.Call("getElementById", "__PULSE_DATA__")
	if !script.IsNull() && !script.IsUndefined() {
		text := script.Get("textContent").String()
		var payload hydrationPayload
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			pulselog.Errorf("pulsewasm: parse hydration payload: %v", err)
		} else {
			wireRouteInfo := wire.FromJSON(payload.RouteInfo)
			if obj, ok := wireRouteInfo.(*wire.Object); ok {
				routeInfo = obj
			}
			wireNode := wire.FromJSON(payload.VDOM)
			node, err := vdom.FromWire(wireNode)
			if err != nil {
				pulselog.Errorf("pulsewasm: decode hydration vdom: %v", err)
			} else if live, err := a.rend.RenderNode(node, a.path); err != nil {
				pulselog.Errorf("pulsewasm: render hydration vdom: %v", err)
			} else {
				initialLive = live
				a.cache.Put(offlinecache.Entry{Path: a.path, VDOM: wireNode, RouteInfo: wireRouteInfo})
			}
		}
	}
	if routeInfo == nil {
		routeInfo = wire.NewObject()
	}

	if initialLive != nil {
		a.root.Set("innerHTML", "")
		a.tree.Mount(initialLive, a.root)
		a.live = initialLive
	}

	handlers := session.ViewHandlers{
		OnVDOMInit:    a.onVDOMInit,
		OnVDOMUpdate:  a.onVDOMUpdate,
		OnServerError: a.onServerError,
		OnJsExec:      a.onJSExec,
	}
	if err := a.sess.Attach(a.path, routeInfo, handlers); err != nil {
		pulselog.Errorf("pulsewasm: attach %s: %v", a.path, err)
	}
}

// switchView detaches the view at a's current path and attaches path,
// rendering a cached entry immediately if the browser is offline (spec
// §4.9's offline-navigation fallback) while the new attach is in flight.
func (a *app) switchView(path string) {
	if a.path != "" && a.path != path {
		a.sess.Detach(a.path)
	}
	a.path = path

	routeInfo := wire.NewObject()
	if entry, fromCache := a.nav.Resolve(path); fromCache {
		if obj, ok := entry.RouteInfo.(*wire.Object); ok {
			routeInfo = obj
		}
		if node, err := vdom.FromWire(entry.VDOM); err == nil {
			if live, err := a.rend.RenderNode(node, path); err == nil {
				a.root.Set("innerHTML", "")
				a.tree.Mount(live, a.root)
				a.live = live
			}
		}
	}

	handlers := session.ViewHandlers{
		OnVDOMInit:    a.onVDOMInit,
		OnVDOMUpdate:  a.onVDOMUpdate,
		OnServerError: a.onServerError,
		OnJsExec:      a.onJSExec,
	}
	if err := a.sess.Attach(path, routeInfo, handlers); err != nil {
		pulselog.Errorf("pulsewasm: attach %s: %v", path, err)
	}
}

func (a *app) onVDOMInit(vdomTree any) {
	node, err := vdom.FromWire(vdomTree)
	if err != nil {
		pulselog.Errorf("pulsewasm: decode vdom_init: %v", err)
		return
	}
	live, err := a.rend.RenderNode(node, a.path)
	if err != nil {
		pulselog.Errorf("pulsewasm: render vdom_init: %v", err)
		return
	}
	if a.live != nil {
		a.tree.Sync(a.live, live, a.root)
	} else {
		a.root.Set("innerHTML", "")
		a.tree.Mount(live, a.root)
	}
	a.live = live
	a.cache.Put(offlinecache.Entry{Path: a.path, VDOM: vdomTree})
}

func (a *app) onVDOMUpdate(opsPayload any) {
	ops, err := vdom.PatchOpsFromWire(opsPayload)
	if err != nil {
		pulselog.Errorf("pulsewasm: decode vdom_update: %v", err)
		return
	}
	next, err := a.rend.ApplyUpdates(a.live, ops)
	if err != nil {
		pulselog.Errorf("pulsewasm: apply vdom_update: %v", err)
		return
	}
	a.tree.Sync(a.live, next, a.root)
	a.live = next
}

func (a *app) onServerError(errInfo any) {
	msg := "server error"
	if obj, ok := errInfo.(*wire.Object); ok {
		if m, ok := obj.Get("message"); ok {
			if s, ok := m.(string); ok {
				msg = s
			}
		}
	}
	pulselog.Errorf("pulsewasm: %s", msg)
}

func (a *app) onJSExec(id string, expr any) {
	node, err := vdom.FromWire(expr)
	if err != nil {
		_ = a.sess.SendJSResult(id, nil, err.Error())
		return
	}
	result, err := a.rend.Eval.Evaluate(node, vdom.NewEnv(nil))
	if err != nil {
		_ = a.sess.SendJSResult(id, nil, err.Error())
		return
	}
	_ = a.sess.SendJSResult(id, result, "")
}

// emitRefEvent delivers ref:mounted/ref:unmounted over the channel bridge
// for channelID, wiring up ref:call/ref:request dispatch the first time
// this channel is used.
func (a *app) emitRefEvent(channelID, event string, payload any) {
	bridge := a.ensureRefChannel(channelID)
	if err := bridge.Emit(event, payload); err != nil {
		pulselog.Errorf("pulsewasm: emit %s on %s: %v", event, channelID, err)
	}
}

// ensureRefChannel acquires channelID's bridge and registers the ref
// dispatch handlers (ref:call fire-and-forget, ref:request response-
// returning) exactly once per channel, caching the bridge on a. A ref
// channel is held open for the page's lifetime rather than refcounted down
// to zero, since a ref may remount under the same channelId.
func (a *app) ensureRefChannel(channelID string) *channel.Bridge {
	if bridge, ok := a.refChannels[channelID]; ok {
		return bridge
	}
	bridge := a.sess.Channels.AcquireChannel(channelID)
	a.refChannels[channelID] = bridge
	bridge.On("ref:call", func(payload any) {
		op, refID := refOpFromPayload(payload)
		if refID == "" {
			return
		}
		if _, err := a.refs.Dispatch(channelID, refID, op); err != nil {
			pulselog.Errorf("pulsewasm: ref:call %s/%s: %v", channelID, refID, err)
		}
	})
	bridge.OnRequest("ref:request", func(payload any) (any, error) {
		op, refID := refOpFromPayload(payload)
		return a.refs.Dispatch(channelID, refID, op)
	})
	return bridge
}

func refOpFromPayload(payload any) (ref.Op, string) {
	obj, ok := payload.(*wire.Object)
	if !ok {
		return ref.Op{}, ""
	}
	kind, _ := objStr(obj, "op")
	refID, _ := objStr(obj, "refId")
	args := map[string]any{}
	if argsVal, ok := obj.Get("args"); ok {
		if argsObj, ok := argsVal.(*wire.Object); ok {
			for _, k := range argsObj.Keys() {
				v, _ := argsObj.Get(k)
				args[k] = v
			}
		}
	}
	return ref.Op{Kind: kind, Args: args}, refID
}

func objStr(o *wire.Object, key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// browserNav implements session.NavigationHost over window.history and
// window.location (spec §4.5/§4.8's navigate_to/reload handling).
type browserNav struct {
	app *app
}

func (n *browserNav) Navigate(path string, opts router.NavOptions) {
	if opts.Replace {
		window.Get("history").Call("replaceState", nil, "", path)
	} else {
		window.Get("history").Call("pushState", nil, "", path)
	}
	n.app.switchView(path)
}

func (n *browserNav) HardNavigate(dest string, replace bool) {
	if replace {
		location.Call("replace", dest)
		return
	}
	location.Set("href", dest)
}

func (n *browserNav) Reload() {
	location.Call("reload")
}
