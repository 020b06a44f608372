// Package vdom implements Pulse's client-side VDOM renderer (spec §4.2):
// translating the wire VDOM format into a live tree of LiveNode values, and
// applying incremental patch ops to that tree while preserving element
// identity across reconciliation.
//
// There is no React host in this Go port — LiveNode plays the role spec.md
// assigns to a React element, and a separate wasm-only package (domsync)
// commits LiveNode trees to real DOM nodes, the same way React-DOM commits
// a fiber tree. See SPEC_FULL.md.
package vdom
