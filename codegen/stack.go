package codegen

import (
	"fmt"

	"github.com/wasm2c/wasm2c/module"
)

// stackEntry is one value on the emission-time operand stack: either a
// literal, a reference to a param/local/temporary, or a short
// parenthesised C expression that is still safe to duplicate or defer.
type stackEntry struct {
	Type module.ValType
	Expr string
}

func (e *FunctionEmitter) push(t module.ValType, expr string) {
	e.stack = append(e.stack, stackEntry{Type: t, Expr: expr})
}

func (e *FunctionEmitter) pop() stackEntry {
	n := len(e.stack)
	if n == 0 {
		// Only reachable in unreachable/polymorphic code following a
		// type error elsewhere; codegen assumes a validated module, so
		// this indicates a bug in the emitter rather than bad input.
		return stackEntry{Type: module.ValI32, Expr: "0"}
	}
	top := e.stack[n-1]
	e.stack = e.stack[:n-1]
	return top
}

func (e *FunctionEmitter) popN(n int) []stackEntry {
	out := make([]stackEntry, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = e.pop()
	}
	return out
}

func (e *FunctionEmitter) height() int {
	return len(e.stack)
}

func (e *FunctionEmitter) truncateTo(h int) {
	if h < len(e.stack) {
		e.stack = e.stack[:h]
	}
}

// spillAll materialises every stack entry above floor into a named
// temporary, per the spilling rule: anything not already a bare
// local/param/temp reference is assigned to a fresh v_t{n} so it can be
// safely re-read or duplicated across a control-flow fork.
func (e *FunctionEmitter) spillAll(floor int) {
	for i := floor; i < len(e.stack); i++ {
		ent := &e.stack[i]
		if isSpilled(ent.Expr) {
			continue
		}
		name := e.newTemp(ent.Type, ent.Expr)
		ent.Expr = name
	}
}

// newTemp allocates a fresh v_t{n}, declares it with the given
// initialiser, and returns its name.
func (e *FunctionEmitter) newTemp(t module.ValType, init string) string {
	name := tempName(e.tmp)
	e.tmp++
	e.emitf("%s %s = %s;\n", ctype(t), name, init)
	return name
}

// isSpilled reports whether expr is a single alphanumeric/underscore
// token (a param, local or temporary name, or a literal such as 5U)
// rather than a compound expression, and so needs no further
// materialisation.
func isSpilled(expr string) bool {
	if expr == "" {
		return false
	}
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		alnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
		if !alnum {
			return false
		}
	}
	return true
}

// assign emits an assignment copying ent's expression into an existing
// destination; it does not spill ent first.
func (e *FunctionEmitter) assign(dst string, ent stackEntry) {
	e.emitf("%s = %s;\n", dst, ent.Expr)
}

func (e *FunctionEmitter) emitf(format string, args ...interface{}) {
	fmt.Fprintf(e.buf, format, args...)
}
