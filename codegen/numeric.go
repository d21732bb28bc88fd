package codegen

import (
	"fmt"

	werrors "github.com/wasm2c/wasm2c/errors"
	"github.com/wasm2c/wasm2c/module"
)

// StackEffect describes the static arity of an instruction whose
// operand/result counts don't depend on the enclosing function's
// signature or label stack (constants, conversions, comparisons,
// simple arithmetic). Control flow, calls, and block/loop/if are
// handled separately in control.go and always return nil here.
type StackEffect struct {
	Pops   int
	Pushes []module.ValType
}

// stackEffect returns the static arity for op, or nil if op's arity is
// dynamic (control flow, call, call_indirect) or op is itself a
// binary/unary/compare numeric op, which this package generates
// directly via emitBinary/emitCompare/emitUnary. No emitter in this
// package consults this table.
func stackEffect(op byte) *StackEffect {
	switch op {
	case module.OpI32Const:
		return &StackEffect{Pushes: []module.ValType{module.ValI32}}
	case module.OpI64Const:
		return &StackEffect{Pushes: []module.ValType{module.ValI64}}
	case module.OpF32Const:
		return &StackEffect{Pushes: []module.ValType{module.ValF32}}
	case module.OpF64Const:
		return &StackEffect{Pushes: []module.ValType{module.ValF64}}
	case module.OpDrop:
		return &StackEffect{Pops: 1}
	case module.OpMemorySize:
		return &StackEffect{Pushes: []module.ValType{module.ValI32}}
	case module.OpMemoryGrow:
		return &StackEffect{Pops: 1, Pushes: []module.ValType{module.ValI32}}
	case module.OpRefIsNull:
		return &StackEffect{Pops: 1, Pushes: []module.ValType{module.ValI32}}
	case module.OpRefFunc:
		return &StackEffect{Pushes: []module.ValType{module.ValFuncRef}}
	}
	return nil
}

// binOp describes one binary numeric opcode: the C expression template
// (with %s placeholders for the two operand expressions, already cast
// as needed) and the pushed result type.
type binOp struct {
	Result module.ValType
	Build  func(e *FunctionEmitter, a, b string) (string, error)
}

var binOps map[byte]binOp

func init() {
	binOps = map[byte]binOp{
		module.OpI32Add: {module.ValI32, simple("(uint32_t)(%s + %s)")},
		module.OpI32Sub: {module.ValI32, simple("(uint32_t)(%s - %s)")},
		module.OpI32Mul: {module.ValI32, simple("(uint32_t)(%s * %s)")},
		module.OpI32DivS: {module.ValI32, tpl(func(a, b string) string {
			return fmt.Sprintf("i32_div_s(%s, %s)", a, b)
		})},
		module.OpI32DivU: {module.ValI32, tpl(func(a, b string) string {
			return fmt.Sprintf("i32_div_u(%s, %s)", a, b)
		})},
		module.OpI32RemS: {module.ValI32, tpl(func(a, b string) string {
			return fmt.Sprintf("i32_rem_s(%s, %s)", a, b)
		})},
		module.OpI32RemU: {module.ValI32, tpl(func(a, b string) string {
			return fmt.Sprintf("i32_rem_u(%s, %s)", a, b)
		})},
		module.OpI32And:  {module.ValI32, simple("(uint32_t)(%s & %s)")},
		module.OpI32Or:   {module.ValI32, simple("(uint32_t)(%s | %s)")},
		module.OpI32Xor:  {module.ValI32, simple("(uint32_t)(%s ^ %s)")},
		module.OpI32Shl:  {module.ValI32, simple("(uint32_t)(%s << (%s & 31))")},
		module.OpI32ShrS: {module.ValI32, tpl(func(a, b string) string {
			return fmt.Sprintf("(uint32_t)((int32_t)%s >> (%s & 31))", a, b)
		})},
		module.OpI32ShrU: {module.ValI32, simple("(uint32_t)(%s >> (%s & 31))")},
		module.OpI32Rotl: {module.ValI32, tpl(func(a, b string) string {
			return fmt.Sprintf("i32_rotl(%s, %s)", a, b)
		})},
		module.OpI32Rotr: {module.ValI32, tpl(func(a, b string) string {
			return fmt.Sprintf("i32_rotr(%s, %s)", a, b)
		})},

		module.OpI64Add: {module.ValI64, simple("(uint64_t)(%s + %s)")},
		module.OpI64Sub: {module.ValI64, simple("(uint64_t)(%s - %s)")},
		module.OpI64Mul: {module.ValI64, simple("(uint64_t)(%s * %s)")},
		module.OpI64DivS: {module.ValI64, tpl(func(a, b string) string {
			return fmt.Sprintf("i64_div_s(%s, %s)", a, b)
		})},
		module.OpI64DivU: {module.ValI64, tpl(func(a, b string) string {
			return fmt.Sprintf("i64_div_u(%s, %s)", a, b)
		})},
		module.OpI64RemS: {module.ValI64, tpl(func(a, b string) string {
			return fmt.Sprintf("i64_rem_s(%s, %s)", a, b)
		})},
		module.OpI64RemU: {module.ValI64, tpl(func(a, b string) string {
			return fmt.Sprintf("i64_rem_u(%s, %s)", a, b)
		})},
		module.OpI64And:  {module.ValI64, simple("(uint64_t)(%s & %s)")},
		module.OpI64Or:   {module.ValI64, simple("(uint64_t)(%s | %s)")},
		module.OpI64Xor:  {module.ValI64, simple("(uint64_t)(%s ^ %s)")},
		module.OpI64Shl:  {module.ValI64, simple("(uint64_t)(%s << (%s & 63))")},
		module.OpI64ShrS: {module.ValI64, tpl(func(a, b string) string {
			return fmt.Sprintf("(uint64_t)((int64_t)%s >> (%s & 63))", a, b)
		})},
		module.OpI64ShrU: {module.ValI64, simple("(uint64_t)(%s >> (%s & 63))")},
		module.OpI64Rotl: {module.ValI64, tpl(func(a, b string) string {
			return fmt.Sprintf("i64_rotl(%s, %s)", a, b)
		})},
		module.OpI64Rotr: {module.ValI64, tpl(func(a, b string) string {
			return fmt.Sprintf("i64_rotr(%s, %s)", a, b)
		})},

		module.OpF32Add: {module.ValF32, simple("(float)(%s + %s)")},
		module.OpF32Sub: {module.ValF32, simple("(float)(%s - %s)")},
		module.OpF32Mul: {module.ValF32, simple("(float)(%s * %s)")},
		module.OpF32Div: {module.ValF32, simple("(float)(%s / %s)")},
		module.OpF32Min: {module.ValF32, tpl(func(a, b string) string { return fmt.Sprintf("f32_min(%s, %s)", a, b) })},
		module.OpF32Max: {module.ValF32, tpl(func(a, b string) string { return fmt.Sprintf("f32_max(%s, %s)", a, b) })},
		module.OpF32Copysign: {module.ValF32, tpl(func(a, b string) string {
			return fmt.Sprintf("copysignf(%s, %s)", a, b)
		})},

		module.OpF64Add: {module.ValF64, simple("(double)(%s + %s)")},
		module.OpF64Sub: {module.ValF64, simple("(double)(%s - %s)")},
		module.OpF64Mul: {module.ValF64, simple("(double)(%s * %s)")},
		module.OpF64Div: {module.ValF64, simple("(double)(%s / %s)")},
		module.OpF64Min: {module.ValF64, tpl(func(a, b string) string { return fmt.Sprintf("f64_min(%s, %s)", a, b) })},
		module.OpF64Max: {module.ValF64, tpl(func(a, b string) string { return fmt.Sprintf("f64_max(%s, %s)", a, b) })},
		module.OpF64Copysign: {module.ValF64, tpl(func(a, b string) string {
			return fmt.Sprintf("copysign(%s, %s)", a, b)
		})},
	}
}

func simple(format string) func(e *FunctionEmitter, a, b string) (string, error) {
	return func(e *FunctionEmitter, a, b string) (string, error) {
		return fmt.Sprintf(format, a, b), nil
	}
}

func tpl(f func(a, b string) string) func(e *FunctionEmitter, a, b string) (string, error) {
	return func(e *FunctionEmitter, a, b string) (string, error) {
		return f(a, b), nil
	}
}

var cmpOps = map[byte]struct {
	Build func(a, b string) string
}{
	module.OpI32Eq:  {func(a, b string) string { return fmt.Sprintf("(%s == %s)", a, b) }},
	module.OpI32Ne:  {func(a, b string) string { return fmt.Sprintf("(%s != %s)", a, b) }},
	module.OpI32LtS: {func(a, b string) string { return fmt.Sprintf("((int32_t)%s < (int32_t)%s)", a, b) }},
	module.OpI32LtU: {func(a, b string) string { return fmt.Sprintf("(%s < %s)", a, b) }},
	module.OpI32GtS: {func(a, b string) string { return fmt.Sprintf("((int32_t)%s > (int32_t)%s)", a, b) }},
	module.OpI32GtU: {func(a, b string) string { return fmt.Sprintf("(%s > %s)", a, b) }},
	module.OpI32LeS: {func(a, b string) string { return fmt.Sprintf("((int32_t)%s <= (int32_t)%s)", a, b) }},
	module.OpI32LeU: {func(a, b string) string { return fmt.Sprintf("(%s <= %s)", a, b) }},
	module.OpI32GeS: {func(a, b string) string { return fmt.Sprintf("((int32_t)%s >= (int32_t)%s)", a, b) }},
	module.OpI32GeU: {func(a, b string) string { return fmt.Sprintf("(%s >= %s)", a, b) }},

	module.OpI64Eq:  {func(a, b string) string { return fmt.Sprintf("(%s == %s)", a, b) }},
	module.OpI64Ne:  {func(a, b string) string { return fmt.Sprintf("(%s != %s)", a, b) }},
	module.OpI64LtS: {func(a, b string) string { return fmt.Sprintf("((int64_t)%s < (int64_t)%s)", a, b) }},
	module.OpI64LtU: {func(a, b string) string { return fmt.Sprintf("(%s < %s)", a, b) }},
	module.OpI64GtS: {func(a, b string) string { return fmt.Sprintf("((int64_t)%s > (int64_t)%s)", a, b) }},
	module.OpI64GtU: {func(a, b string) string { return fmt.Sprintf("(%s > %s)", a, b) }},
	module.OpI64LeS: {func(a, b string) string { return fmt.Sprintf("((int64_t)%s <= (int64_t)%s)", a, b) }},
	module.OpI64LeU: {func(a, b string) string { return fmt.Sprintf("(%s <= %s)", a, b) }},
	module.OpI64GeS: {func(a, b string) string { return fmt.Sprintf("((int64_t)%s >= (int64_t)%s)", a, b) }},
	module.OpI64GeU: {func(a, b string) string { return fmt.Sprintf("(%s >= %s)", a, b) }},

	module.OpF32Eq: {func(a, b string) string { return fmt.Sprintf("(%s == %s)", a, b) }},
	module.OpF32Ne: {func(a, b string) string { return fmt.Sprintf("(%s != %s)", a, b) }},
	module.OpF32Lt: {func(a, b string) string { return fmt.Sprintf("(%s < %s)", a, b) }},
	module.OpF32Gt: {func(a, b string) string { return fmt.Sprintf("(%s > %s)", a, b) }},
	module.OpF32Le: {func(a, b string) string { return fmt.Sprintf("(%s <= %s)", a, b) }},
	module.OpF32Ge: {func(a, b string) string { return fmt.Sprintf("(%s >= %s)", a, b) }},

	module.OpF64Eq: {func(a, b string) string { return fmt.Sprintf("(%s == %s)", a, b) }},
	module.OpF64Ne: {func(a, b string) string { return fmt.Sprintf("(%s != %s)", a, b) }},
	module.OpF64Lt: {func(a, b string) string { return fmt.Sprintf("(%s < %s)", a, b) }},
	module.OpF64Gt: {func(a, b string) string { return fmt.Sprintf("(%s > %s)", a, b) }},
	module.OpF64Le: {func(a, b string) string { return fmt.Sprintf("(%s <= %s)", a, b) }},
	module.OpF64Ge: {func(a, b string) string { return fmt.Sprintf("(%s >= %s)", a, b) }},
}

var unaryOps = map[byte]struct {
	Result module.ValType
	Build  func(a string) string
}{
	module.OpI32Clz:    {module.ValI32, func(a string) string { return fmt.Sprintf("((%s) == 0 ? 32 : (uint32_t)__builtin_clz(%s))", a, a) }},
	module.OpI32Ctz:    {module.ValI32, func(a string) string { return fmt.Sprintf("((%s) == 0 ? 32 : (uint32_t)__builtin_ctz(%s))", a, a) }},
	module.OpI32Popcnt: {module.ValI32, func(a string) string { return fmt.Sprintf("(uint32_t)__builtin_popcount(%s)", a) }},
	module.OpI32Eqz:    {module.ValI32, func(a string) string { return fmt.Sprintf("(%s == 0)", a) }},

	module.OpI64Clz:    {module.ValI64, func(a string) string { return fmt.Sprintf("((%s) == 0 ? 64 : (uint64_t)__builtin_clzll(%s))", a, a) }},
	module.OpI64Ctz:    {module.ValI64, func(a string) string { return fmt.Sprintf("((%s) == 0 ? 64 : (uint64_t)__builtin_ctzll(%s))", a, a) }},
	module.OpI64Popcnt: {module.ValI64, func(a string) string { return fmt.Sprintf("(uint64_t)__builtin_popcountll(%s)", a) }},
	module.OpI64Eqz:    {module.ValI32, func(a string) string { return fmt.Sprintf("(%s == 0)", a) }},

	module.OpF32Abs:     {module.ValF32, func(a string) string { return fmt.Sprintf("fabsf(%s)", a) }},
	module.OpF32Neg:     {module.ValF32, func(a string) string { return fmt.Sprintf("(-(%s))", a) }},
	module.OpF32Ceil:    {module.ValF32, func(a string) string { return fmt.Sprintf("ceilf(%s)", a) }},
	module.OpF32Floor:   {module.ValF32, func(a string) string { return fmt.Sprintf("floorf(%s)", a) }},
	module.OpF32Trunc:   {module.ValF32, func(a string) string { return fmt.Sprintf("truncf(%s)", a) }},
	module.OpF32Nearest: {module.ValF32, func(a string) string { return fmt.Sprintf("nearbyintf(%s)", a) }},
	module.OpF32Sqrt:    {module.ValF32, func(a string) string { return fmt.Sprintf("sqrtf(%s)", a) }},

	module.OpF64Abs:     {module.ValF64, func(a string) string { return fmt.Sprintf("fabs(%s)", a) }},
	module.OpF64Neg:     {module.ValF64, func(a string) string { return fmt.Sprintf("(-(%s))", a) }},
	module.OpF64Ceil:    {module.ValF64, func(a string) string { return fmt.Sprintf("ceil(%s)", a) }},
	module.OpF64Floor:   {module.ValF64, func(a string) string { return fmt.Sprintf("floor(%s)", a) }},
	module.OpF64Trunc:   {module.ValF64, func(a string) string { return fmt.Sprintf("trunc(%s)", a) }},
	module.OpF64Nearest: {module.ValF64, func(a string) string { return fmt.Sprintf("nearbyint(%s)", a) }},
	module.OpF64Sqrt:    {module.ValF64, func(a string) string { return fmt.Sprintf("sqrt(%s)", a) }},

	module.OpI32WrapI64:        {module.ValI32, func(a string) string { return fmt.Sprintf("(uint32_t)%s", a) }},
	module.OpI64ExtendI32S:     {module.ValI64, func(a string) string { return fmt.Sprintf("(uint64_t)(int64_t)(int32_t)%s", a) }},
	module.OpI64ExtendI32U:     {module.ValI64, func(a string) string { return fmt.Sprintf("(uint64_t)%s", a) }},
	module.OpF32DemoteF64:      {module.ValF32, func(a string) string { return fmt.Sprintf("(float)%s", a) }},
	module.OpF64PromoteF32:     {module.ValF64, func(a string) string { return fmt.Sprintf("(double)%s", a) }},
	module.OpF32ConvertI32S:    {module.ValF32, func(a string) string { return fmt.Sprintf("(float)(int32_t)%s", a) }},
	module.OpF32ConvertI32U:    {module.ValF32, func(a string) string { return fmt.Sprintf("(float)%s", a) }},
	module.OpF32ConvertI64S:    {module.ValF32, func(a string) string { return fmt.Sprintf("(float)(int64_t)%s", a) }},
	module.OpF32ConvertI64U:    {module.ValF32, func(a string) string { return fmt.Sprintf("(float)%s", a) }},
	module.OpF64ConvertI32S:    {module.ValF64, func(a string) string { return fmt.Sprintf("(double)(int32_t)%s", a) }},
	module.OpF64ConvertI32U:    {module.ValF64, func(a string) string { return fmt.Sprintf("(double)%s", a) }},
	module.OpF64ConvertI64S:    {module.ValF64, func(a string) string { return fmt.Sprintf("(double)(int64_t)%s", a) }},
	module.OpF64ConvertI64U:    {module.ValF64, func(a string) string { return fmt.Sprintf("(double)%s", a) }},
	module.OpI32ReinterpretF32: {module.ValI32, func(a string) string { return fmt.Sprintf("i32_reinterpret_f32(%s)", a) }},
	module.OpI64ReinterpretF64: {module.ValI64, func(a string) string { return fmt.Sprintf("i64_reinterpret_f64(%s)", a) }},
	module.OpF32ReinterpretI32: {module.ValF32, func(a string) string { return fmt.Sprintf("f32_reinterpret_i32(%s)", a) }},
	module.OpF64ReinterpretI64: {module.ValF64, func(a string) string { return fmt.Sprintf("f64_reinterpret_i64(%s)", a) }},

	module.OpI32Extend8S:  {module.ValI32, func(a string) string { return fmt.Sprintf("(uint32_t)(int32_t)(int8_t)%s", a) }},
	module.OpI32Extend16S: {module.ValI32, func(a string) string { return fmt.Sprintf("(uint32_t)(int32_t)(int16_t)%s", a) }},
	module.OpI64Extend8S:  {module.ValI64, func(a string) string { return fmt.Sprintf("(uint64_t)(int64_t)(int8_t)%s", a) }},
	module.OpI64Extend16S: {module.ValI64, func(a string) string { return fmt.Sprintf("(uint64_t)(int64_t)(int16_t)%s", a) }},
	module.OpI64Extend32S: {module.ValI64, func(a string) string { return fmt.Sprintf("(uint64_t)(int64_t)(int32_t)%s", a) }},
}

// truncOps are the trapping float-to-int conversions: out-of-range or
// NaN operands must TRAP rather than invoke C's undefined behaviour.
var truncOps = map[byte]struct {
	Result module.ValType
	Fn     string
}{
	module.OpI32TruncF32S: {module.ValI32, "i32_trunc_f32_s"},
	module.OpI32TruncF32U: {module.ValI32, "i32_trunc_f32_u"},
	module.OpI32TruncF64S: {module.ValI32, "i32_trunc_f64_s"},
	module.OpI32TruncF64U: {module.ValI32, "i32_trunc_f64_u"},
	module.OpI64TruncF32S: {module.ValI64, "i64_trunc_f32_s"},
	module.OpI64TruncF32U: {module.ValI64, "i64_trunc_f32_u"},
	module.OpI64TruncF64S: {module.ValI64, "i64_trunc_f64_s"},
	module.OpI64TruncF64U: {module.ValI64, "i64_trunc_f64_u"},
}

// truncSatOps are the misc-prefixed (0xFC) saturating variants: they
// never trap, clamping out-of-range operands to the type's min/max.
var truncSatOps = map[uint32]struct {
	Result module.ValType
	Fn     string
}{
	module.MiscI32TruncSatF32S: {module.ValI32, "i32_trunc_sat_f32_s"},
	module.MiscI32TruncSatF32U: {module.ValI32, "i32_trunc_sat_f32_u"},
	module.MiscI32TruncSatF64S: {module.ValI32, "i32_trunc_sat_f64_s"},
	module.MiscI32TruncSatF64U: {module.ValI32, "i32_trunc_sat_f64_u"},
	module.MiscI64TruncSatF32S: {module.ValI64, "i64_trunc_sat_f32_s"},
	module.MiscI64TruncSatF32U: {module.ValI64, "i64_trunc_sat_f32_u"},
	module.MiscI64TruncSatF64S: {module.ValI64, "i64_trunc_sat_f64_s"},
	module.MiscI64TruncSatF64U: {module.ValI64, "i64_trunc_sat_f64_u"},
}

func (e *FunctionEmitter) emitBinary(op byte) error {
	def, ok := binOps[op]
	if !ok {
		return e.unsupported(fmt.Sprintf("binary opcode 0x%02x", op))
	}
	b := e.pop()
	a := e.pop()
	expr, err := def.Build(e, a.Expr, b.Expr)
	if err != nil {
		return err
	}
	e.push(def.Result, e.newTemp(def.Result, expr))
	return nil
}

func (e *FunctionEmitter) emitCompare(op byte) error {
	def, ok := cmpOps[op]
	if !ok {
		return e.unsupported(fmt.Sprintf("comparison opcode 0x%02x", op))
	}
	b := e.pop()
	a := e.pop()
	expr := fmt.Sprintf("(%s ? 1 : 0)", def.Build(a.Expr, b.Expr))
	e.push(module.ValI32, e.newTemp(module.ValI32, expr))
	return nil
}

func (e *FunctionEmitter) emitUnary(op byte) error {
	def, ok := unaryOps[op]
	if !ok {
		return e.unsupported(fmt.Sprintf("unary opcode 0x%02x", op))
	}
	a := e.pop()
	e.push(def.Result, e.newTemp(def.Result, def.Build(a.Expr)))
	return nil
}

func (e *FunctionEmitter) emitTrunc(op byte) error {
	def, ok := truncOps[op]
	if !ok {
		return e.unsupported(fmt.Sprintf("trunc opcode 0x%02x", op))
	}
	a := e.pop()
	expr := fmt.Sprintf("%s(%s)", def.Fn, a.Expr)
	e.push(def.Result, e.newTemp(def.Result, expr))
	return nil
}

func (e *FunctionEmitter) emitTruncSat(sub uint32) error {
	def, ok := truncSatOps[sub]
	if !ok {
		return e.unsupported(fmt.Sprintf("misc sub-opcode 0x%02x", sub))
	}
	a := e.pop()
	expr := fmt.Sprintf("%s(%s)", def.Fn, a.Expr)
	e.push(def.Result, e.newTemp(def.Result, expr))
	return nil
}
