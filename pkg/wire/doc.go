// Package wire implements the codec used to move arbitrary in-memory graphs
// across the websocket session as JSON.
//
// # Wire format
//
// A value encodes to a two-element array: [[refs, dates, sets, maps], body].
// Each of refs/dates/sets/maps is a sorted array of integer visit indices —
// the position, in depth-first visit order, of every non-primitive value the
// encoder walked. refs marks indices that are a second-or-later visit of an
// already-seen value (a back-reference); dates/sets/maps mark which visits
// produced a Date/Set/Map rather than a plain array or object.
//
// Decoding walks the body in the same order, rebuilding a parallel
// objects[index] table so that back-references reconstruct shared identity
// instead of duplicating a value.
package wire
