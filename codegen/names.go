package codegen

import (
	"fmt"
	"strings"

	"github.com/wasm2c/wasm2c/module"
)

// paramName returns the fixed C name for the n'th function parameter.
func paramName(n int) string {
	return fmt.Sprintf("v_p%d", n)
}

// localName returns the fixed C name for the n'th declared local (not
// counting parameters, which have their own v_p namespace).
func localName(n int) string {
	return fmt.Sprintf("v_l%d", n)
}

// tempName returns the name of the k'th spill temporary allocated
// during translation of one function. Temporaries share one counter
// across the whole function body, so they never collide with each
// other or with params/locals.
func tempName(k int) string {
	return fmt.Sprintf("v_t%d", k)
}

// retName returns the name of the function's n'th return-value slot.
func retName(n int) string {
	return fmt.Sprintf("__ret%d", n)
}

// labelName returns the C label emitted for the end of the label-stack
// frame with the given id.
func labelName(id int) string {
	return fmt.Sprintf("L%d_end", id)
}

// continueLabelName returns the C label a loop's br targets to restart
// the loop body, as opposed to labelName which exits it.
func continueLabelName(id int) string {
	return fmt.Sprintf("L%d_cont", id)
}

// epilogueLabel is the single label every function's return path
// (explicit return or fallthrough) jumps to.
const epilogueLabel = "epilogue"

// funcSymbol returns the C symbol used for function funcIdx in module
// modName, used both at definition sites and in call expressions.
func funcSymbol(modName string, funcIdx uint32) string {
	return fmt.Sprintf("%s_f%d", sanitizeIdent(modName), funcIdx)
}

// instanceTypeName returns the struct tag used for modName's instance type.
func instanceTypeName(modName string) string {
	return fmt.Sprintf("%sInstance", sanitizeIdent(modName))
}

// FuncSymbol exposes funcSymbol for emit/, which needs to reference the
// exact C symbol a given function was generated under when writing the
// header's extern declarations.
func FuncSymbol(modName string, funcIdx uint32) string { return funcSymbol(modName, funcIdx) }

// InstanceTypeName exposes instanceTypeName for emit/'s header generation.
func InstanceTypeName(modName string) string { return instanceTypeName(modName) }

// SanitizeIdent exposes sanitizeIdent for emit/'s header generation.
func SanitizeIdent(s string) string { return sanitizeIdent(s) }

// ctype returns the C storage type for a Wasm value type. All storage
// is unsigned; signed operations cast at point of use.
func ctype(vt module.ValType) string {
	switch vt {
	case module.ValI32:
		return "uint32_t"
	case module.ValI64:
		return "uint64_t"
	case module.ValF32:
		return "float"
	case module.ValF64:
		return "double"
	case module.ValFuncRef, module.ValExtern:
		return "uint32_t"
	default:
		return "uint32_t"
	}
}

// sanitizeIdent replaces every byte that isn't a valid C identifier
// character with '_', and prefixes with '_' if the result would
// otherwise start with a digit.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			b.WriteByte(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
