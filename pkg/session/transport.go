package session

import "errors"

// errNotConnected is returned by a Transport's Send before Connect has
// established the underlying socket.
var errNotConnected = errors.New("session: transport not connected")

// Transport is the websocket abstraction the Session drives: the wasm build
// backs it with syscall/js (transport_wasm.go); any other build backs it
// with gorilla/websocket (transport_conn.go).
type Transport interface {
	// Connect opens the connection. onOpen/onMessage/onClose/onError are
	// invoked from whatever goroutine/event-loop task the transport uses;
	// the Session only ever touches its own state from within those calls.
	Connect(url string, onOpen func(), onMessage func([]byte), onClose func(), onError func(error)) error
	Send(data []byte) error
	Close()
}
