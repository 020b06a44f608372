//go:build !(js && wasm)
// +build !js !wasm

package pulselog

import "log"

// Log mirrors the wasm build's console bridge using the stdlib logger, so
// pkg/session and pkg/callback can log identically whether compiled for the
// browser or for a non-wasm test binary / the pulsec CLI.
func Log(args ...any) {
	log.Println(args...)
}

// Logf formats and writes a message via the stdlib logger.
func Logf(format string, args ...any) {
	log.Printf(format, args...)
}

// Warnf formats and writes a warning via the stdlib logger.
func Warnf(format string, args ...any) {
	log.Printf("WARN: "+format, args...)
}

// Errorf formats and writes an error via the stdlib logger.
func Errorf(format string, args ...any) {
	log.Printf("ERROR: "+format, args...)
}
