// Package codegen translates a single decoded function body into a C
// function: a typed operand stack, a label stack for block/loop/if, and
// a monotonic temporary counter drive a single forward pass over the
// function's instructions, emitting declarations then statements with
// no gotos beyond those needed for br/br_if/br_table/return.
//
// A FunctionEmitter is reset between functions and used by one
// goroutine at a time; it is never used concurrently.
package codegen
