//go:build js && wasm
// +build js,wasm

package session

import (
	"errors"
	"syscall/js"
)

// WasmTransport backs Transport with the browser's native WebSocket,
// following the teacher's pkg/live.Client wiring of onopen/onmessage/
// onerror/onclose to js.FuncOf callbacks.
type WasmTransport struct {
	ws js.Value
}

// NewWasmTransport returns an unconnected WasmTransport.
func NewWasmTransport() *WasmTransport {
	return &WasmTransport{}
}

// Connect opens a browser WebSocket to url.
func (t *WasmTransport) Connect(url string, onOpen func(), onMessage func([]byte), onClose func(), onError func(error)) error {
	t.ws = js.Global().Get("WebSocket").New(url)
	t.ws.Set("binaryType", "arraybuffer")

	t.ws.Set("onopen", js.FuncOf(func(this js.Value, args []js.Value) any {
		if onOpen != nil {
			onOpen()
		}
		return nil
	}))

	t.ws.Set("onmessage", js.FuncOf(func(this js.Value, args []js.Value) any {
		data := args[0].Get("data")
		buffer := js.Global().Get("Uint8Array").New(data)
		length := buffer.Get("length").Int()
		bytes := make([]byte, length)
		js.CopyBytesToGo(bytes, buffer)
		if onMessage != nil {
			onMessage(bytes)
		}
		return nil
	}))

	t.ws.Set("onerror", js.FuncOf(func(this js.Value, args []js.Value) any {
		if onError != nil {
			onError(errors.New("websocket error"))
		}
		return nil
	}))

	t.ws.Set("onclose", js.FuncOf(func(this js.Value, args []js.Value) any {
		if onClose != nil {
			onClose()
		}
		return nil
	}))

	return nil
}

// Send writes data as a binary WebSocket frame.
func (t *WasmTransport) Send(data []byte) error {
	if t.ws.IsNull() || t.ws.IsUndefined() {
		return errors.New("session: transport not connected")
	}
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	t.ws.Call("send", arr)
	return nil
}

// Close closes the WebSocket.
func (t *WasmTransport) Close() {
	if !t.ws.IsNull() && !t.ws.IsUndefined() {
		t.ws.Call("close")
	}
}
