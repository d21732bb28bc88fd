package module_test

import (
	"testing"

	"github.com/wasm2c/wasm2c/module"
)

func decodeOne(t *testing.T, code []byte) module.Instruction {
	t.Helper()
	instrs, err := module.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(instrs) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(instrs))
	}
	return instrs[0]
}

func TestDecodeControlInstructions(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want module.Instruction
	}{
		{"unreachable", []byte{module.OpUnreachable}, module.Instruction{Opcode: module.OpUnreachable}},
		{"nop", []byte{module.OpNop}, module.Instruction{Opcode: module.OpNop}},
		{"block void", []byte{module.OpBlock, 0x40}, module.Instruction{Opcode: module.OpBlock, Imm: module.BlockImm{Type: -64}}},
		{"loop i32", []byte{module.OpLoop, 0x7F}, module.Instruction{Opcode: module.OpLoop, Imm: module.BlockImm{Type: -1}}},
		{"if i64", []byte{module.OpIf, 0x7E}, module.Instruction{Opcode: module.OpIf, Imm: module.BlockImm{Type: -2}}},
		{"else", []byte{module.OpElse}, module.Instruction{Opcode: module.OpElse}},
		{"end", []byte{module.OpEnd}, module.Instruction{Opcode: module.OpEnd}},
		{"br", []byte{module.OpBr, 0x00}, module.Instruction{Opcode: module.OpBr, Imm: module.BranchImm{LabelIdx: 0}}},
		{"br_if", []byte{module.OpBrIf, 0x01}, module.Instruction{Opcode: module.OpBrIf, Imm: module.BranchImm{LabelIdx: 1}}},
		{"return", []byte{module.OpReturn}, module.Instruction{Opcode: module.OpReturn}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeOne(t, tt.code)
			if got.Opcode != tt.want.Opcode {
				t.Errorf("opcode = 0x%02x, want 0x%02x", got.Opcode, tt.want.Opcode)
			}
			if got.Imm != tt.want.Imm {
				t.Errorf("imm = %#v, want %#v", got.Imm, tt.want.Imm)
			}
		})
	}
}

func TestDecodeBrTable(t *testing.T) {
	// br_table with labels [0,1,2] and default 3
	code := []byte{module.OpBrTable, 0x03, 0x00, 0x01, 0x02, 0x03}
	got := decodeOne(t, code)

	imm, ok := got.Imm.(module.BrTableImm)
	if !ok {
		t.Fatalf("imm type = %T, want BrTableImm", got.Imm)
	}
	want := []uint32{0, 1, 2}
	if len(imm.Labels) != len(want) {
		t.Fatalf("labels = %v, want %v", imm.Labels, want)
	}
	for i := range want {
		if imm.Labels[i] != want[i] {
			t.Errorf("labels[%d] = %d, want %d", i, imm.Labels[i], want[i])
		}
	}
	if imm.Default != 3 {
		t.Errorf("default = %d, want 3", imm.Default)
	}
}

func TestDecodeCallInstructions(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"call", []byte{module.OpCall, 42}},
		{"call_indirect", []byte{module.OpCallIndirect, 1, 0}},
		{"return_call", []byte{module.OpReturnCall, 10}},
		{"return_call_indirect", []byte{module.OpReturnCallIndirect, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decodeOne(t, tt.code)
		})
	}
}

func TestDecodeLocalGlobalInstructions(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"local.get", []byte{module.OpLocalGet, 0}},
		{"local.set", []byte{module.OpLocalSet, 1}},
		{"local.tee", []byte{module.OpLocalTee, 2}},
		{"global.get", []byte{module.OpGlobalGet, 0}},
		{"global.set", []byte{module.OpGlobalSet, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decodeOne(t, tt.code)
		})
	}
}

func TestDecodeMemoryInstructions(t *testing.T) {
	// i32.load align=2 offset=0
	got := decodeOne(t, []byte{module.OpI32Load, 2, 0})
	imm, ok := got.Imm.(module.MemoryImm)
	if !ok {
		t.Fatalf("imm type = %T, want MemoryImm", got.Imm)
	}
	if imm.Align != 2 || imm.Offset != 0 {
		t.Errorf("memarg = %+v, want align=2 offset=0", imm)
	}

	// memory.grow memidx=0
	got = decodeOne(t, []byte{module.OpMemoryGrow, 0})
	midx, ok := got.Imm.(module.MemoryIdxImm)
	if !ok {
		t.Fatalf("imm type = %T, want MemoryIdxImm", got.Imm)
	}
	if midx.MemIdx != 0 {
		t.Errorf("memidx = %d, want 0", midx.MemIdx)
	}
}

func TestDecodeMemArgMultiMemory(t *testing.T) {
	// i32.load with bit 6 of align set: align=2, memidx=1, offset=4
	code := []byte{module.OpI32Load, 2 | 0x40, 1, 4}
	got := decodeOne(t, code)
	imm := got.Imm.(module.MemoryImm)
	if imm.Align != 2 {
		t.Errorf("align = %d, want 2", imm.Align)
	}
	if imm.MemIdx != 1 {
		t.Errorf("memidx = %d, want 1", imm.MemIdx)
	}
	if imm.Offset != 4 {
		t.Errorf("offset = %d, want 4", imm.Offset)
	}
}

func TestDecodeConstInstructions(t *testing.T) {
	t.Run("i32.const positive", func(t *testing.T) {
		got := decodeOne(t, []byte{module.OpI32Const, 0x2A}) // 42
		imm := got.Imm.(module.I32Imm)
		if imm.Value != 42 {
			t.Errorf("value = %d, want 42", imm.Value)
		}
	})

	t.Run("i32.const negative", func(t *testing.T) {
		// -1 encoded as single byte 0x7F
		got := decodeOne(t, []byte{module.OpI32Const, 0x7F})
		imm := got.Imm.(module.I32Imm)
		if imm.Value != -1 {
			t.Errorf("value = %d, want -1", imm.Value)
		}
	})

	t.Run("i64.const", func(t *testing.T) {
		got := decodeOne(t, []byte{module.OpI64Const, 0x7F}) // -1
		imm := got.Imm.(module.I64Imm)
		if imm.Value != -1 {
			t.Errorf("value = %d, want -1", imm.Value)
		}
	})

	t.Run("f32.const", func(t *testing.T) {
		// 1.0f = 0x3F800000 little endian
		got := decodeOne(t, []byte{module.OpF32Const, 0x00, 0x00, 0x80, 0x3F})
		imm := got.Imm.(module.F32Imm)
		if imm.Value != 1.0 {
			t.Errorf("value = %v, want 1.0", imm.Value)
		}
	})

	t.Run("f64.const", func(t *testing.T) {
		// 1.0 = 0x3FF0000000000000 little endian
		got := decodeOne(t, []byte{module.OpF64Const, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F})
		imm := got.Imm.(module.F64Imm)
		if imm.Value != 1.0 {
			t.Errorf("value = %v, want 1.0", imm.Value)
		}
	})
}

func TestDecodeNumericInstructionsNoImmediate(t *testing.T) {
	tests := []byte{
		module.OpI32Add, module.OpI32Sub, module.OpI32Mul,
		module.OpI32DivS, module.OpI32DivU,
		module.OpI64Add, module.OpF32Add, module.OpF64Add,
		module.OpI32Eqz, module.OpDrop, module.OpSelect,
	}

	for _, op := range tests {
		instrs, err := module.DecodeInstructions([]byte{op})
		if err != nil {
			t.Fatalf("opcode 0x%02x: decode error: %v", op, err)
		}
		if len(instrs) != 1 || instrs[0].Opcode != op {
			t.Fatalf("opcode 0x%02x: got %+v", op, instrs)
		}
	}
}

func TestDecodeRefInstructions(t *testing.T) {
	t.Run("ref.null funcref", func(t *testing.T) {
		got := decodeOne(t, []byte{module.OpRefNull, 0x70})
		imm := got.Imm.(module.RefNullImm)
		if imm.HeapType != module.HeapTypeFunc {
			t.Errorf("heaptype = %d, want HeapTypeFunc (0x70 as s33 = -16)", imm.HeapType)
		}
	})

	t.Run("ref.func", func(t *testing.T) {
		got := decodeOne(t, []byte{module.OpRefFunc, 5})
		imm := got.Imm.(module.RefFuncImm)
		if imm.FuncIdx != 5 {
			t.Errorf("funcidx = %d, want 5", imm.FuncIdx)
		}
	})
}

func TestDecodeMiscPrefixInstructions(t *testing.T) {
	t.Run("memory.copy", func(t *testing.T) {
		code := []byte{module.OpPrefixMisc, byte(module.MiscMemoryCopy), 0, 0}
		got := decodeOne(t, code)
		imm := got.Imm.(module.MiscImm)
		if imm.SubOpcode != module.MiscMemoryCopy {
			t.Errorf("subopcode = %d, want MiscMemoryCopy", imm.SubOpcode)
		}
		if len(imm.Operands) != 2 {
			t.Errorf("operands = %v, want 2 entries", imm.Operands)
		}
	})

	t.Run("i32.trunc_sat_f32_s", func(t *testing.T) {
		code := []byte{module.OpPrefixMisc, byte(module.MiscI32TruncSatF32S)}
		got := decodeOne(t, code)
		imm := got.Imm.(module.MiscImm)
		if imm.SubOpcode != module.MiscI32TruncSatF32S {
			t.Errorf("subopcode = %d, want MiscI32TruncSatF32S", imm.SubOpcode)
		}
	})

	t.Run("unknown sub-opcode errors", func(t *testing.T) {
		code := []byte{module.OpPrefixMisc, 0x7F}
		if _, err := module.DecodeInstructions(code); err == nil {
			t.Error("expected error for unknown 0xFC sub-opcode")
		}
	})
}

func TestDecodeSequence(t *testing.T) {
	// local.get 0, local.get 1, i32.add, end
	code := []byte{
		module.OpLocalGet, 0,
		module.OpLocalGet, 1,
		module.OpI32Add,
		module.OpEnd,
	}
	instrs, err := module.DecodeInstructions(code)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(instrs) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(instrs))
	}
	if instrs[2].Opcode != module.OpI32Add {
		t.Errorf("instrs[2].Opcode = 0x%02x, want OpI32Add", instrs[2].Opcode)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	if _, err := module.DecodeInstructions([]byte{0xFF}); err == nil {
		t.Error("expected error for unknown opcode")
	}
}
