//go:build !(js && wasm)
// +build !js !wasm

package session

import (
	"sync"

	"github.com/gorilla/websocket"
)

// ConnTransport backs Transport with gorilla/websocket for any non-wasm
// build (native Go processes outside the browser).
type ConnTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewConnTransport returns an unconnected ConnTransport.
func NewConnTransport() *ConnTransport {
	return &ConnTransport{}
}

// Connect dials url and starts a read loop delivering frames to onMessage.
func (t *ConnTransport) Connect(url string, onOpen func(), onMessage func([]byte), onClose func(), onError func(error)) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return err
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	if onOpen != nil {
		onOpen()
	}

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if onClose != nil {
					onClose()
				}
				return
			}
			if onMessage != nil {
				onMessage(data)
			}
		}
	}()
	return nil
}

// Send writes data as a binary frame.
func (t *ConnTransport) Send(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close closes the underlying connection.
func (t *ConnTransport) Close() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}
