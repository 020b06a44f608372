//go:build js && wasm
// +build js,wasm

package pulselog

import (
	"fmt"
	"syscall/js"
)

// Log writes args to the browser console, matching what the teacher's
// debug.Log does for its scheduler/reactive packages.
func Log(args ...any) {
	js.Global().Get("console").Call("log", args...)
}

// Logf formats and writes a message to the browser console.
func Logf(format string, args ...any) {
	js.Global().Get("console").Call("log", fmt.Sprintf(format, args...))
}

// Warnf formats and writes a warning to the browser console.
func Warnf(format string, args ...any) {
	js.Global().Get("console").Call("warn", fmt.Sprintf(format, args...))
}

// Errorf formats and writes an error to the browser console.
func Errorf(format string, args ...any) {
	js.Global().Get("console").Call("error", fmt.Sprintf(format, args...))
}
