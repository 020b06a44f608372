// Package channel implements the channel bridge of spec §4.6: named,
// refcounted bidirectional subchannels layered on top of the session
// transport, with request/response correlation via uuid request ids.
//
// The refcount-create-on-acquire / dispose-on-zero lifecycle mirrors the
// teacher's pkg/live.Server session map (sessions are created on first use
// and torn down once nothing references them); request/response
// correlation borrows the pending-deferred-by-id pattern common across the
// pack's channel/bridge implementations.
package channel

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// PulseChannelResetError is the error every pending request on a bridge is
// rejected with when its refcount drops to zero and it is disposed.
type PulseChannelResetError struct {
	ChannelID string
}

func (e *PulseChannelResetError) Error() string {
	return "pulse: channel " + e.ChannelID + " was reset"
}

// ErrChannelClosed is returned by Emit/Request on a bridge that has
// already been disposed.
var ErrChannelClosed = errors.New("channel: bridge is closed")

// SendFunc delivers a channel_message to the server (spec §6's
// channel_message union member).
type SendFunc func(channelID string, event string, payload any, requestID string) error

// ReplyFunc answers a server-initiated request (spec §4.7's "ref:request"
// is the response-returning event a bridge handler answers) by sending a
// channel_message with responseTo set to the original requestId.
type ReplyFunc func(channelID, responseTo string, payload any, deliveryErr error) error

type handlerEntry struct {
	id int
	fn func(payload any)
}

type requestHandlerEntry struct {
	id int
	fn func(payload any) (any, error)
}

type pendingRequest struct {
	resolve func(payload any)
	reject  func(err error)
}

// Bridge is one named channel's client-side half.
type Bridge struct {
	id       string
	refCount int
	send     SendFunc
	reply    ReplyFunc

	mu              sync.Mutex
	nextHandle      int
	handlers        map[string][]handlerEntry
	requestHandlers map[string][]requestHandlerEntry
	pending         map[string]pendingRequest
	closed          bool
}

// Unsubscribe removes a handler previously registered with On.
type Unsubscribe func()

// On registers a fire-and-forget event handler, returning an unsubscribe
// function.
func (b *Bridge) On(event string, handler func(payload any)) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextHandle++
	id := b.nextHandle
	b.handlers[event] = append(b.handlers[event], handlerEntry{id: id, fn: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.handlers[event]
		for i, h := range list {
			if h.id == id {
				b.handlers[event] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// Emit sends a fire-and-forget message.
func (b *Bridge) Emit(event string, payload any) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	return b.send(b.id, event, payload, "")
}

// Request sends a message and returns a channel that resolves with the
// response (or an error, including PulseChannelResetError on disposal).
func (b *Bridge) Request(event string, payload any) (<-chan any, <-chan error) {
	resultCh := make(chan any, 1)
	errCh := make(chan error, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		errCh <- ErrChannelClosed
		return resultCh, errCh
	}
	reqID := uuid.NewString()
	b.pending[reqID] = pendingRequest{
		resolve: func(v any) { resultCh <- v },
		reject:  func(err error) { errCh <- err },
	}
	b.mu.Unlock()

	if err := b.send(b.id, event, payload, reqID); err != nil {
		b.mu.Lock()
		delete(b.pending, reqID)
		b.mu.Unlock()
		errCh <- err
	}
	return resultCh, errCh
}

// OnRequest registers a response-returning handler for a server-initiated
// request event (spec §4.7's "ref:request"), replying with responseTo set
// to the inbound requestId once handler returns.
func (b *Bridge) OnRequest(event string, handler func(payload any) (any, error)) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextHandle++
	id := b.nextHandle
	b.requestHandlers[event] = append(b.requestHandlers[event], requestHandlerEntry{id: id, fn: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.requestHandlers[event]
		for i, h := range list {
			if h.id == id {
				b.requestHandlers[event] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// deliver routes an inbound channel_message to a pending request, a
// request handler, or a fire-and-forget handler (in that priority order,
// matching whether responseTo/requestId is set on the wire message).
func (b *Bridge) deliver(event string, responseTo string, requestID string, payload any, deliveryErr error) {
	if responseTo != "" {
		b.mu.Lock()
		pend, ok := b.pending[responseTo]
		if ok {
			delete(b.pending, responseTo)
		}
		b.mu.Unlock()
		if !ok {
			return
		}
		if deliveryErr != nil {
			pend.reject(deliveryErr)
		} else {
			pend.resolve(payload)
		}
		return
	}
	if requestID != "" {
		b.mu.Lock()
		handlers := append([]requestHandlerEntry(nil), b.requestHandlers[event]...)
		send := b.reply
		id := b.id
		b.mu.Unlock()
		for _, h := range handlers {
			result, err := h.fn(payload)
			if send != nil {
				_ = send(id, requestID, result, err)
			}
		}
		return
	}
	b.mu.Lock()
	handlers := append([]handlerEntry(nil), b.handlers[event]...)
	b.mu.Unlock()
	for _, h := range handlers {
		h.fn(payload)
	}
}

// notifyDisconnect surfaces a transport disconnect to every live handler of
// the "disconnect" event without disposing the bridge (subscriptions survive
// reconnect, per spec §4.6).
func (b *Bridge) notifyDisconnect() {
	b.deliver("disconnect", "", "", nil, nil)
}

func (b *Bridge) dispose() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	pending := b.pending
	b.pending = make(map[string]pendingRequest)
	b.mu.Unlock()

	resetErr := &PulseChannelResetError{ChannelID: b.id}
	for _, p := range pending {
		p.reject(resetErr)
	}
}

// Registry owns all live bridges, keyed by channel id, with refcounting.
type Registry struct {
	mu       sync.Mutex
	bridges  map[string]*Bridge
	send     SendFunc
	reply    ReplyFunc
	closeMsg func(channelID string) error
}

// NewRegistry returns a Registry delivering messages via send, answering
// inbound server requests via reply, and issuing a "__close__" control
// message via closeMsg when a bridge's refcount hits 0.
func NewRegistry(send SendFunc, reply ReplyFunc, closeMsg func(channelID string) error) *Registry {
	return &Registry{bridges: make(map[string]*Bridge), send: send, reply: reply, closeMsg: closeMsg}
}

// AcquireChannel returns the bridge for id, creating it on demand, and
// increments its refcount.
func (r *Registry) AcquireChannel(id string) *Bridge {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bridges[id]
	if !ok {
		b = &Bridge{
			id:              id,
			send:            r.send,
			reply:           r.reply,
			handlers:        make(map[string][]handlerEntry),
			requestHandlers: make(map[string][]requestHandlerEntry),
			pending:         make(map[string]pendingRequest),
		}
		r.bridges[id] = b
	}
	b.refCount++
	return b
}

// ReleaseChannel decrements id's refcount, disposing the bridge and sending
// a "__close__" control message once it reaches zero.
func (r *Registry) ReleaseChannel(id string) {
	r.mu.Lock()
	b, ok := r.bridges[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	b.refCount--
	dispose := b.refCount <= 0
	if dispose {
		delete(r.bridges, id)
	}
	r.mu.Unlock()

	if dispose {
		b.dispose()
		if r.closeMsg != nil {
			_ = r.closeMsg(id)
		}
	}
}

// Deliver routes an inbound channel_message to the named bridge, if live.
func (r *Registry) Deliver(channelID, event, responseTo, requestID string, payload any, deliveryErr error) {
	r.mu.Lock()
	b, ok := r.bridges[channelID]
	r.mu.Unlock()
	if !ok {
		return
	}
	b.deliver(event, responseTo, requestID, payload, deliveryErr)
}

// NotifyDisconnect surfaces a transport disconnect to every live bridge.
func (r *Registry) NotifyDisconnect() {
	r.mu.Lock()
	bridges := make([]*Bridge, 0, len(r.bridges))
	for _, b := range r.bridges {
		bridges = append(bridges, b)
	}
	r.mu.Unlock()
	for _, b := range bridges {
		b.notifyDisconnect()
	}
}

// DisposeAll tears down every live bridge, rejecting pending requests with a
// reset error (used by session disconnect, spec §5 cancellation rules).
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	bridges := make([]*Bridge, 0, len(r.bridges))
	for _, b := range r.bridges {
		bridges = append(bridges, b)
	}
	r.bridges = make(map[string]*Bridge)
	r.mu.Unlock()
	for _, b := range bridges {
		b.dispose()
	}
}
