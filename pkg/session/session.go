// Package session implements the client-side websocket session (spec §4.5):
// connection state machine, outbound message queue with reconnect replay,
// and dispatch of inbound messages by their "type" tag. It owns the view
// map, the channel bridge registry (spec §4.6), and the api_call/navigate_to/
// reload/js_exec handling spec §6's wire protocol describes.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/erwinkn/pulse-ui-sub000/internal/pulselog"
	"github.com/erwinkn/pulse-ui-sub000/pkg/channel"
	"github.com/erwinkn/pulse-ui-sub000/pkg/config"
	"github.com/erwinkn/pulse-ui-sub000/pkg/router"
	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// ErrAlreadyAttached is returned by Attach when path is already mounted.
var ErrAlreadyAttached = errors.New("session: view already attached")

// ErrNotAttached is returned by UpdateRoute for a path with no active view.
var ErrNotAttached = errors.New("session: view not attached")

// ViewHandlers are the callbacks a Session dispatches a mounted view's
// incoming messages to. The caller (the wasm hydration entrypoint) is
// responsible for actually applying vdom updates through a Renderer and
// for replying to js_exec through SendJSResult.
type ViewHandlers struct {
	OnVDOMInit    func(vdomTree any)
	OnVDOMUpdate  func(ops any)
	OnServerError func(errInfo any)
	OnJsExec      func(id string, expr any)
}

// MountedView is a client-side attachment of a server-owned path.
type MountedView struct {
	Path      string
	RouteInfo *wire.Object
	Handlers  ViewHandlers
}

// NavigationHost performs the actual browser navigation a navigate_to/reload
// message requests. The wasm entrypoint supplies the real implementation
// (SPA router push vs. window.location); tests may supply a recording fake.
type NavigationHost interface {
	Navigate(path string, opts router.NavOptions)
	HardNavigate(url string, replace bool)
	Reload()
}

// HTTPDoer is satisfied by *http.Client; injectable for tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type queuedKind int

const (
	queuedAttach queuedKind = iota
	queuedUpdate
	queuedOther
)

type queuedMessage struct {
	kind queuedKind
	path string
	obj  *wire.Object
}

// Session owns one websocket connection's lifecycle and message routing.
type Session struct {
	transport Transport
	cfg       config.TimersConfig
	state     *stateMachine
	nav       NavigationHost
	http      HTTPDoer
	origin    *url.URL

	Channels *channel.Registry

	mu               sync.Mutex
	views            map[string]*MountedView
	viewOrder        []string
	outbound         []queuedMessage
	transportReady   bool
	hasConnectedOnce bool
	connectingTimer  *time.Timer
	errorTimer       *time.Timer
}

// New returns a Session bound to transport, using cfg's timer delays and nav
// for navigate_to/reload handling. httpDoer defaults to http.DefaultClient
// when nil.
func New(transport Transport, cfg config.TimersConfig, nav NavigationHost, origin *url.URL, httpDoer HTTPDoer) *Session {
	if httpDoer == nil {
		httpDoer = http.DefaultClient
	}
	s := &Session{
		transport: transport,
		cfg:       cfg,
		state:     newStateMachine(),
		nav:       nav,
		http:      httpDoer,
		origin:    origin,
		views:     make(map[string]*MountedView),
	}
	s.Channels = channel.NewRegistry(s.sendChannelMessage, s.replyChannelRequest, s.sendChannelClose)
	return s
}

// OnConnectionChange registers l, notified synchronously with the current
// status and on every subsequent transition. Returns an unsubscribe func.
func (s *Session) OnConnectionChange(l Listener) func() {
	return s.state.onChange(l)
}

// Status returns the current connection state.
func (s *Session) Status() ConnectionState {
	return s.state.current()
}

// Connect opens the transport and starts the two-stage connecting/error
// timer (spec §4.5).
func (s *Session) Connect(wsURL string) {
	s.state.set(StateOK)
	s.armInitialTimers()
	if err := s.transport.Connect(wsURL, s.handleOpen, s.handleMessage, s.handleClose, s.handleError); err != nil {
		pulselog.Errorf("session: connect %s: %v", wsURL, err)
	}
}

func (s *Session) armInitialTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimersLocked()
	s.connectingTimer = time.AfterFunc(time.Duration(s.cfg.InitialConnectingDelayMs)*time.Millisecond, func() {
		s.state.set(StateConnecting)
		s.mu.Lock()
		s.errorTimer = time.AfterFunc(time.Duration(s.cfg.InitialErrorDelayMs)*time.Millisecond, func() {
			s.state.set(StateError)
		})
		s.mu.Unlock()
	})
}

func (s *Session) cancelTimersLocked() {
	if s.connectingTimer != nil {
		s.connectingTimer.Stop()
		s.connectingTimer = nil
	}
	if s.errorTimer != nil {
		s.errorTimer.Stop()
		s.errorTimer = nil
	}
}

func (s *Session) handleOpen() {
	s.mu.Lock()
	s.cancelTimersLocked()
	s.transportReady = true
	s.hasConnectedOnce = true
	s.mu.Unlock()
	s.state.set(StateOK)
	s.replayAfterReconnect()
}

func (s *Session) handleClose() {
	s.mu.Lock()
	s.transportReady = false
	wasConnectedOnce := s.hasConnectedOnce
	s.cancelTimersLocked()
	s.mu.Unlock()

	s.Channels.NotifyDisconnect()

	if wasConnectedOnce {
		s.state.set(StateReconnecting)
		s.mu.Lock()
		s.errorTimer = time.AfterFunc(time.Duration(s.cfg.ReconnectErrorDelayMs)*time.Millisecond, func() {
			s.state.set(StateError)
		})
		s.mu.Unlock()
	}
}

func (s *Session) handleError(err error) {
	pulselog.Errorf("session: transport error: %v", err)
}

// Disconnect cancels all timers, disposes channels, clears listeners, drops
// every view and queued message, and resets to ok with hasConnectedOnce
// cleared (spec §4.5/§5).
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.cancelTimersLocked()
	s.views = make(map[string]*MountedView)
	s.viewOrder = nil
	s.outbound = nil
	s.hasConnectedOnce = false
	s.transportReady = false
	s.mu.Unlock()

	s.Channels.DisposeAll()
	s.transport.Close()
	s.state.reset()
}

// replayAfterReconnect re-issues attach for every active view (in
// attach-order), then drains the outbound queue, skipping attach duplicates
// and any stale update (routes are reattached, not updated).
func (s *Session) replayAfterReconnect() {
	s.mu.Lock()
	order := append([]string(nil), s.viewOrder...)
	views := make([]*MountedView, 0, len(order))
	for _, p := range order {
		views = append(views, s.views[p])
	}
	queue := s.outbound
	s.outbound = nil
	s.mu.Unlock()

	for _, v := range views {
		s.sendAttachWire(v)
	}
	for _, m := range queue {
		if m.kind == queuedAttach || m.kind == queuedUpdate {
			continue
		}
		s.writeOrQueue(m.kind, m.path, m.obj)
	}
}

// Attach records path as mounted and sends an attach message. Errors if path
// is already attached.
func (s *Session) Attach(path string, routeInfo *wire.Object, handlers ViewHandlers) error {
	s.mu.Lock()
	if _, ok := s.views[path]; ok {
		s.mu.Unlock()
		return ErrAlreadyAttached
	}
	v := &MountedView{Path: path, RouteInfo: routeInfo, Handlers: handlers}
	s.views[path] = v
	s.viewOrder = append(s.viewOrder, path)
	s.mu.Unlock()
	return s.sendAttachWire(v)
}

func (s *Session) sendAttachWire(v *MountedView) error {
	obj := wire.NewObject()
	obj.Set("type", "attach")
	obj.Set("path", v.Path)
	obj.Set("routeInfo", v.RouteInfo)
	return s.writeOrQueue(queuedAttach, v.Path, obj)
}

// UpdateRoute mutates the view's routeInfo and sends an update message.
func (s *Session) UpdateRoute(path string, routeInfo *wire.Object) error {
	s.mu.Lock()
	v, ok := s.views[path]
	if !ok {
		s.mu.Unlock()
		return ErrNotAttached
	}
	v.RouteInfo = routeInfo
	s.mu.Unlock()

	obj := wire.NewObject()
	obj.Set("type", "update")
	obj.Set("path", path)
	obj.Set("routeInfo", routeInfo)
	return s.writeOrQueue(queuedUpdate, path, obj)
}

// Detach sends a detach message and forgets path.
func (s *Session) Detach(path string) {
	s.mu.Lock()
	if _, ok := s.views[path]; ok {
		delete(s.views, path)
		for i, p := range s.viewOrder {
			if p == path {
				s.viewOrder = append(s.viewOrder[:i], s.viewOrder[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	obj := wire.NewObject()
	obj.Set("type", "detach")
	obj.Set("path", path)
	_ = s.writeOrQueue(queuedOther, path, obj)
}

// writeOrQueue sends obj through the transport if it is open, or appends it
// to the outbound queue otherwise (spec §4.5's sendMessage).
func (s *Session) writeOrQueue(kind queuedKind, path string, obj *wire.Object) error {
	s.mu.Lock()
	ready := s.transportReady
	s.mu.Unlock()
	if !ready {
		s.mu.Lock()
		s.outbound = append(s.outbound, queuedMessage{kind: kind, path: path, obj: obj})
		s.mu.Unlock()
		return nil
	}
	data, err := wire.Encode(obj)
	if err != nil {
		return err
	}
	return s.transport.Send(data)
}

func (s *Session) handleMessage(data []byte) {
	decoded, err := wire.Decode(data, true)
	if err != nil {
		pulselog.Errorf("session: dropping malformed message: %v", err)
		return
	}
	obj, ok := decoded.(*wire.Object)
	if !ok {
		pulselog.Errorf("session: dropping non-object message")
		return
	}
	msgType, _ := objString(obj, "type")
	switch msgType {
	case "vdom_init":
		s.dispatchToView(obj, func(v *MountedView, vdomTree any) {
			if v.Handlers.OnVDOMInit != nil {
				v.Handlers.OnVDOMInit(vdomTree)
			}
		}, "vdom")
	case "vdom_update":
		s.dispatchToView(obj, func(v *MountedView, ops any) {
			if v.Handlers.OnVDOMUpdate != nil {
				v.Handlers.OnVDOMUpdate(ops)
			}
		}, "ops")
	case "server_error":
		s.dispatchToView(obj, func(v *MountedView, errInfo any) {
			if v.Handlers.OnServerError != nil {
				v.Handlers.OnServerError(errInfo)
			}
		}, "error")
	case "api_call":
		go s.handleAPICall(obj)
	case "navigate_to":
		s.handleNavigateTo(obj)
	case "reload":
		if s.nav != nil {
			s.nav.Reload()
		}
	case "channel_message":
		s.handleChannelMessage(obj)
	case "js_exec":
		s.handleJSExec(obj)
	default:
		pulselog.Warnf("session: unknown message type %q", msgType)
	}
}

func (s *Session) dispatchToView(obj *wire.Object, apply func(v *MountedView, payload any), payloadField string) {
	path, _ := objString(obj, "path")
	s.mu.Lock()
	v, ok := s.views[path]
	s.mu.Unlock()
	if !ok {
		return
	}
	payload, _ := obj.Get(payloadField)
	apply(v, payload)
}

func (s *Session) handleNavigateTo(obj *wire.Object) {
	path, _ := objString(obj, "path")
	replace, _ := objBool(obj, "replace")
	hard, _ := objBool(obj, "hard")
	if s.nav == nil {
		return
	}
	resolved, kind := router.ClassifyDestination(s.origin, path, hard)
	if kind == router.DestHard {
		s.nav.HardNavigate(resolved, replace)
		return
	}
	s.nav.Navigate(resolved, router.NavOptions{Replace: replace})
}

func (s *Session) handleChannelMessage(obj *wire.Object) {
	channelID, _ := objString(obj, "channel")
	event, _ := objString(obj, "event")
	responseTo, _ := objString(obj, "responseTo")
	requestID, _ := objString(obj, "requestId")
	payload, _ := obj.Get("payload")
	var deliveryErr error
	if errVal, ok := obj.Get("error"); ok && errVal != nil {
		deliveryErr = fmt.Errorf("%v", errVal)
	}
	s.Channels.Deliver(channelID, event, responseTo, requestID, payload, deliveryErr)
}

func (s *Session) handleJSExec(obj *wire.Object) {
	path, _ := objString(obj, "path")
	id, _ := objString(obj, "id")
	expr, _ := obj.Get("expr")

	s.mu.Lock()
	v, ok := s.views[path]
	s.mu.Unlock()
	if !ok || v.Handlers.OnJsExec == nil {
		_ = s.SendJSResult(id, nil, "")
		return
	}
	v.Handlers.OnJsExec(id, expr)
}

// SendJSResult posts back a js_result for a prior js_exec (spec §4.5/§6).
func (s *Session) SendJSResult(id string, result any, errMsg string) error {
	obj := wire.NewObject()
	obj.Set("type", "js_result")
	obj.Set("id", id)
	obj.Set("result", result)
	if errMsg != "" {
		obj.Set("error", errMsg)
	} else {
		obj.Set("error", nil)
	}
	return s.writeOrQueue(queuedOther, "", obj)
}

// SendCallback posts a callback invocation (spec §6); wired as the
// callback.Registry's SendFunc by the hydration entrypoint.
func (s *Session) SendCallback(path, callbackKey string, args []any) error {
	obj := wire.NewObject()
	obj.Set("type", "callback")
	obj.Set("path", path)
	obj.Set("callback", callbackKey)
	arr := wire.NewArray(args...)
	obj.Set("args", arr)
	return s.writeOrQueue(queuedOther, path, obj)
}

func (s *Session) sendChannelMessage(channelID, event string, payload any, requestID string) error {
	obj := wire.NewObject()
	obj.Set("type", "channel_message")
	obj.Set("channel", channelID)
	obj.Set("event", event)
	obj.Set("payload", payload)
	if requestID != "" {
		obj.Set("requestId", requestID)
	}
	return s.writeOrQueue(queuedOther, "", obj)
}

func (s *Session) sendChannelClose(channelID string) error {
	return s.sendChannelMessage(channelID, "__close__", nil, "")
}

// replyChannelRequest answers a server-initiated request (e.g. ref:request)
// by sending a channel_message with responseTo set to the inbound
// requestId, per the channel.ReplyFunc contract.
func (s *Session) replyChannelRequest(channelID, responseTo string, payload any, deliveryErr error) error {
	obj := wire.NewObject()
	obj.Set("type", "channel_message")
	obj.Set("channel", channelID)
	obj.Set("responseTo", responseTo)
	obj.Set("payload", payload)
	if deliveryErr != nil {
		obj.Set("error", deliveryErr.Error())
	}
	return s.writeOrQueue(queuedOther, "", obj)
}

func objString(obj *wire.Object, key string) (string, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func objBool(obj *wire.Object, key string) (bool, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
