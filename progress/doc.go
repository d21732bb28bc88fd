// Package progress renders live compile progress in an interactive
// terminal. It is driven by dispatch.Progress callbacks and has no
// knowledge of codegen, emit, or module decoding itself.
package progress
