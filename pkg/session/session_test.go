package session

import (
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/erwinkn/pulse-ui-sub000/pkg/config"
	"github.com/erwinkn/pulse-ui-sub000/pkg/router"
	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// fakeTransport is a recording, manually-driven Transport double: tests call
// open()/deliver()/close() themselves instead of a real socket firing them.
type fakeTransport struct {
	mu        sync.Mutex
	sent      [][]byte
	onOpen    func()
	onMessage func([]byte)
	onClose   func()
	onError   func(error)
	closed    bool
}

func (t *fakeTransport) Connect(url string, onOpen func(), onMessage func([]byte), onClose func(), onError func(error)) error {
	t.onOpen = onOpen
	t.onMessage = onMessage
	t.onClose = onClose
	t.onError = onError
	return nil
}

func (t *fakeTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, data)
	return nil
}

func (t *fakeTransport) Close() {
	t.closed = true
}

func (t *fakeTransport) open() {
	t.onOpen()
}

func (t *fakeTransport) deliverObj(obj *wire.Object) {
	data, err := wire.Encode(obj)
	if err != nil {
		panic(err)
	}
	t.onMessage(data)
}

func (t *fakeTransport) sentMessages() []*wire.Object {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*wire.Object, 0, len(t.sent))
	for _, data := range t.sent {
		decoded, err := wire.Decode(data, false)
		if err != nil {
			panic(err)
		}
		out = append(out, decoded.(*wire.Object))
	}
	return out
}

type fakeNav struct {
	navigated    []string
	hardLoaded   []string
	reloadCalled bool
}

func (n *fakeNav) Navigate(path string, opts router.NavOptions) { n.navigated = append(n.navigated, path) }
func (n *fakeNav) HardNavigate(url string, replace bool)        { n.hardLoaded = append(n.hardLoaded, url) }
func (n *fakeNav) Reload()                                      { n.reloadCalled = true }

func testOrigin(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func newTestSession(t *testing.T) (*Session, *fakeTransport, *fakeNav) {
	t.Helper()
	tr := &fakeTransport{}
	nav := &fakeNav{}
	cfg := config.Default().Timers
	s := New(tr, cfg, nav, testOrigin(t), http.DefaultClient)
	return s, tr, nav
}

func TestAttachSendsImmediatelyWhenConnected(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	if err := s.Attach("/home", wire.NewObject(), ViewHandlers{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	msgs := tr.sentMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(msgs))
	}
	typ, _ := objString(msgs[0], "type")
	if typ != "attach" {
		t.Fatalf("type = %q", typ)
	}
}

func TestAttachDuplicateErrors(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()
	if err := s.Attach("/home", wire.NewObject(), ViewHandlers{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := s.Attach("/home", wire.NewObject(), ViewHandlers{}); err != ErrAlreadyAttached {
		t.Fatalf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestMessagesQueueWhileDisconnected(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	// Not yet open: Attach should queue, not send.
	if err := s.Attach("/home", wire.NewObject(), ViewHandlers{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if len(tr.sentMessages()) != 0 {
		t.Fatalf("expected nothing sent before open")
	}
	tr.open()
	msgs := tr.sentMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected the queued attach to be replayed, got %d", len(msgs))
	}
}

func TestReconnectReplaysAttachesFirstThenFiltersQueue(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	if err := s.Attach("/a", wire.NewObject(), ViewHandlers{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Attach("/b", wire.NewObject(), ViewHandlers{}); err != nil {
		t.Fatal(err)
	}

	// Simulate a drop: further sends queue up, including a stale update.
	tr.onClose()
	if err := s.UpdateRoute("/a", wire.NewObject()); err != nil {
		t.Fatal(err)
	}
	s.Detach("/b")

	tr.mu.Lock()
	tr.sent = nil
	tr.mu.Unlock()

	tr.open()
	msgs := tr.sentMessages()
	// /b was detached before reconnect, so only /a is replayed as attach,
	// followed by the queued detach for /b (update for /a is dropped as stale).
	if len(msgs) != 2 {
		t.Fatalf("expected 2 replayed messages, got %d: %+v", len(msgs), msgs)
	}
	typ0, _ := objString(msgs[0], "type")
	path0, _ := objString(msgs[0], "path")
	if typ0 != "attach" || path0 != "/a" {
		t.Fatalf("first replayed message = %s %s", typ0, path0)
	}
	typ1, _ := objString(msgs[1], "type")
	if typ1 != "detach" {
		t.Fatalf("second replayed message type = %q, want detach", typ1)
	}
}

func TestVDOMInitDispatchesToAttachedView(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	var received any
	handlers := ViewHandlers{OnVDOMInit: func(v any) { received = v }}
	if err := s.Attach("/home", wire.NewObject(), handlers); err != nil {
		t.Fatal(err)
	}

	msg := wire.NewObject()
	msg.Set("type", "vdom_init")
	msg.Set("path", "/home")
	msg.Set("vdom", "tree-payload")
	tr.deliverObj(msg)

	if received != "tree-payload" {
		t.Fatalf("received = %v", received)
	}
}

func TestVDOMMessageForUnknownPathIsDropped(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	msg := wire.NewObject()
	msg.Set("type", "vdom_init")
	msg.Set("path", "/missing")
	msg.Set("vdom", "tree")
	tr.deliverObj(msg) // must not panic
}

func TestNavigateToSameOriginUsesSPARouter(t *testing.T) {
	s, tr, nav := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	msg := wire.NewObject()
	msg.Set("type", "navigate_to")
	msg.Set("path", "https://example.com/next")
	msg.Set("replace", false)
	msg.Set("hard", false)
	tr.deliverObj(msg)

	if len(nav.navigated) != 1 || len(nav.hardLoaded) != 0 {
		t.Fatalf("nav = %+v", nav)
	}
}

func TestNavigateToCrossOriginHardLoads(t *testing.T) {
	s, tr, nav := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	msg := wire.NewObject()
	msg.Set("type", "navigate_to")
	msg.Set("path", "https://other.example/next")
	msg.Set("replace", false)
	msg.Set("hard", false)
	tr.deliverObj(msg)

	if len(nav.hardLoaded) != 1 {
		t.Fatalf("nav = %+v", nav)
	}
}

func TestReloadInvokesNavHost(t *testing.T) {
	s, tr, nav := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	msg := wire.NewObject()
	msg.Set("type", "reload")
	tr.deliverObj(msg)

	if !nav.reloadCalled {
		t.Fatal("expected Reload to be called")
	}
}

func TestJsExecForUnknownViewRepliesEmpty(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	msg := wire.NewObject()
	msg.Set("type", "js_exec")
	msg.Set("path", "/missing")
	msg.Set("id", "req-1")
	msg.Set("expr", "1+1")
	tr.deliverObj(msg)

	msgs := tr.sentMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(msgs))
	}
	typ, _ := objString(msgs[0], "type")
	id, _ := objString(msgs[0], "id")
	if typ != "js_result" || id != "req-1" {
		t.Fatalf("msg = %s %s", typ, id)
	}
}

func TestConnectionListenerNotifiedOnRegistrationAndTransition(t *testing.T) {
	s, tr, _ := newTestSession(t)
	var seen []ConnectionState
	s.OnConnectionChange(func(st ConnectionState) { seen = append(seen, st) })
	s.Connect("wss://example.com/pulse/ws")
	tr.open()
	tr.onClose()

	if len(seen) < 2 {
		t.Fatalf("expected at least 2 notifications, got %d: %v", len(seen), seen)
	}
	if seen[0] != StateOK {
		t.Fatalf("first notification = %v, want ok", seen[0])
	}
}

func TestDisconnectTransitionsToReconnectingAfterFirstConnect(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()

	tr.onClose()
	if s.Status() != StateReconnecting {
		t.Fatalf("status = %v, want reconnecting", s.Status())
	}
}

func TestSessionDisconnectResetsState(t *testing.T) {
	s, tr, _ := newTestSession(t)
	s.Connect("wss://example.com/pulse/ws")
	tr.open()
	if err := s.Attach("/home", wire.NewObject(), ViewHandlers{}); err != nil {
		t.Fatal(err)
	}

	s.Disconnect()
	if !tr.closed {
		t.Fatal("expected transport.Close to be called")
	}
	if s.Status() != StateOK {
		t.Fatalf("status = %v, want ok", s.Status())
	}
	// A fresh attach after disconnect must succeed (view map was cleared).
	if err := s.Attach("/home", wire.NewObject(), ViewHandlers{}); err != nil {
		t.Fatalf("Attach after disconnect: %v", err)
	}
}

func TestInitialConnectingTimerFiresWhenTransportNeverOpens(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.cfg.InitialConnectingDelayMs = 5
	s.cfg.InitialErrorDelayMs = 10
	s.Connect("wss://example.com/pulse/ws")

	time.Sleep(50 * time.Millisecond)
	if s.Status() != StateError {
		t.Fatalf("status = %v, want error", s.Status())
	}
}
