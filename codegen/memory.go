package codegen

import (
	"fmt"

	"github.com/wasm2c/wasm2c/module"
)

// memLoad describes one load opcode: the runtime helper that performs
// the bounds check and the byte-precise read, and the C type it leaves
// on the stack after any sign/zero extension the helper already does.
var memLoads = map[byte]struct {
	Fn     string
	Result module.ValType
}{
	module.OpI32Load:    {"mem_load_u32", module.ValI32},
	module.OpI32Load8S:  {"mem_load_i8_sext32", module.ValI32},
	module.OpI32Load8U:  {"mem_load_u8_zext32", module.ValI32},
	module.OpI32Load16S: {"mem_load_i16_sext32", module.ValI32},
	module.OpI32Load16U: {"mem_load_u16_zext32", module.ValI32},
	module.OpI64Load:    {"mem_load_u64", module.ValI64},
	module.OpI64Load8S:  {"mem_load_i8_sext64", module.ValI64},
	module.OpI64Load8U:  {"mem_load_u8_zext64", module.ValI64},
	module.OpI64Load16S: {"mem_load_i16_sext64", module.ValI64},
	module.OpI64Load16U: {"mem_load_u16_zext64", module.ValI64},
	module.OpI64Load32S: {"mem_load_i32_sext64", module.ValI64},
	module.OpI64Load32U: {"mem_load_u32_zext64", module.ValI64},
	module.OpF32Load:    {"mem_load_f32", module.ValF32},
	module.OpF64Load:    {"mem_load_f64", module.ValF64},
}

var memStores = map[byte]string{
	module.OpI32Store:   "mem_store_u32",
	module.OpI32Store8:  "mem_store_u8",
	module.OpI32Store16: "mem_store_u16",
	module.OpI64Store:   "mem_store_u64",
	module.OpI64Store8:  "mem_store_u8",
	module.OpI64Store16: "mem_store_u16",
	module.OpI64Store32: "mem_store_u32",
	module.OpF32Store:   "mem_store_f32",
	module.OpF64Store:   "mem_store_f64",
}

// memRef returns the C expression for the instance's memory at memIdx.
// Alignment hints are ignored per the documented lowering; only the
// effective address (base + offset, with wraparound left to the
// runtime helper's bounds check) matters.
func memRef(memIdx uint32) string {
	if memIdx == 0 {
		return "inst->mem0"
	}
	return fmt.Sprintf("inst->mem%d", memIdx)
}

func (e *FunctionEmitter) emitLoad(op byte, imm module.MemoryImm) error {
	def, ok := memLoads[op]
	if !ok {
		return e.unsupported(fmt.Sprintf("load opcode 0x%02x", op))
	}
	addr := e.pop()
	expr := fmt.Sprintf("%s(%s, (uint64_t)%s + %dULL)", def.Fn, memRef(imm.MemIdx), addr.Expr, imm.Offset)
	e.push(def.Result, e.newTemp(def.Result, expr))
	return nil
}

func (e *FunctionEmitter) emitStore(op byte, imm module.MemoryImm) error {
	fn, ok := memStores[op]
	if !ok {
		return e.unsupported(fmt.Sprintf("store opcode 0x%02x", op))
	}
	val := e.pop()
	addr := e.pop()
	e.emitf("%s(%s, (uint64_t)%s + %dULL, %s);\n", fn, memRef(imm.MemIdx), addr.Expr, imm.Offset, val.Expr)
	return nil
}

func (e *FunctionEmitter) emitMemorySize(imm module.MemoryIdxImm) {
	expr := fmt.Sprintf("mem_size(%s)", memRef(imm.MemIdx))
	e.push(module.ValI32, e.newTemp(module.ValI32, expr))
}

func (e *FunctionEmitter) emitMemoryGrow(imm module.MemoryIdxImm) {
	delta := e.pop()
	expr := fmt.Sprintf("mem_grow(%s, %s)", memRef(imm.MemIdx), delta.Expr)
	e.push(module.ValI32, e.newTemp(module.ValI32, expr))
}
