package module_test

import (
	"strings"
	"testing"

	"github.com/wasm2c/wasm2c/module"
)

func TestValidateValid(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{
			{Params: []module.ValType{module.ValI32}, Results: []module.ValType{module.ValI32}},
			{Params: nil, Results: nil},
		},
		Funcs:    []uint32{0, 1},
		Memories: []module.MemoryType{{Limits: module.Limits{Min: 1}}},
		Exports: []module.Export{
			{Name: "add", Kind: module.KindFunc, Idx: 0},
			{Name: "memory", Kind: module.KindMemory, Idx: 0},
		},
	}

	if err := m.Validate(); err != nil {
		t.Errorf("valid module failed validation: %v", err)
	}
}

func TestValidateInvalidTypeIndex(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{
			{Params: nil, Results: nil},
		},
		Funcs: []uint32{5},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid type index")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidFunctionExport(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{
			{Params: nil, Results: nil},
		},
		Funcs: []uint32{0},
		Exports: []module.Export{
			{Name: "foo", Kind: module.KindFunc, Idx: 10},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid function export")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateDuplicateExportName(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{
			{Params: nil, Results: nil},
		},
		Funcs:    []uint32{0, 0},
		Memories: []module.MemoryType{{Limits: module.Limits{Min: 1}}},
		Exports: []module.Export{
			{Name: "foo", Kind: module.KindFunc, Idx: 0},
			{Name: "foo", Kind: module.KindMemory, Idx: 0},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate export name")
	}
	if !strings.Contains(err.Error(), "duplicate export") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidStartSignature(t *testing.T) {
	startIdx := uint32(0)
	m := &module.Module{
		Types: []module.FuncType{
			{Params: []module.ValType{module.ValI32}, Results: nil},
		},
		Funcs: []uint32{0},
		Start: &startIdx,
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid start function signature")
	}
	if !strings.Contains(err.Error(), "signature") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidMemoryIndex(t *testing.T) {
	m := &module.Module{
		Data: []module.DataSegment{
			{MemIdx: 5, Init: []byte{1}},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid memory index")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateValidWithImports(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{
			{Params: []module.ValType{module.ValI32}, Results: []module.ValType{module.ValI32}},
		},
		Imports: []module.Import{
			{Module: "env", Name: "add", Desc: module.ImportDesc{Kind: module.KindFunc, TypeIdx: 0}},
		},
		Exports: []module.Export{
			{Name: "add", Kind: module.KindFunc, Idx: 0},
		},
	}

	if err := m.Validate(); err != nil {
		t.Errorf("valid module with imports failed validation: %v", err)
	}
}

func TestValidateInvalidTableIndex(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0},
		Elements: []module.Element{
			{Flags: 0, TableIdx: 5, FuncIdxs: []uint32{0}},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid table index")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidGlobalExport(t *testing.T) {
	m := &module.Module{
		Exports: []module.Export{
			{Name: "g", Kind: module.KindGlobal, Idx: 10},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid global export")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidTagExport(t *testing.T) {
	m := &module.Module{
		Exports: []module.Export{
			{Name: "t", Kind: module.KindTag, Idx: 5},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid tag export")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidTableExport(t *testing.T) {
	m := &module.Module{
		Exports: []module.Export{
			{Name: "t", Kind: module.KindTable, Idx: 3},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid table export")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateCodeCountMismatch(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0, 0, 0},
		Code: []module.FuncBody{
			{Code: []byte{module.OpEnd}},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for code count mismatch")
	}
	if !strings.Contains(err.Error(), "code section count") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateSharedMemoryNoMax(t *testing.T) {
	m := &module.Module{
		Memories: []module.MemoryType{
			{Limits: module.Limits{Min: 1, Shared: true}},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for shared memory without max")
	}
	if !strings.Contains(err.Error(), "shared memory must have maximum") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateSharedMemoryWithMax(t *testing.T) {
	max := uint64(10)
	m := &module.Module{
		Memories: []module.MemoryType{
			{Limits: module.Limits{Min: 1, Max: &max, Shared: true}},
		},
	}

	if err := m.Validate(); err != nil {
		t.Errorf("valid shared memory failed: %v", err)
	}
}

func TestValidateMemoryMinExceedsMax32(t *testing.T) {
	max := module.MemoryMaxPages32 + 1
	m := &module.Module{
		Memories: []module.MemoryType{
			{Limits: module.Limits{Min: max}},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for memory min exceeding max pages")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateImportedMemorySharedNoMax(t *testing.T) {
	m := &module.Module{
		Imports: []module.Import{
			{
				Module: "env",
				Name:   "mem",
				Desc: module.ImportDesc{
					Kind:   module.KindMemory,
					Memory: &module.MemoryType{Limits: module.Limits{Min: 1, Shared: true}},
				},
			},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for imported shared memory without max")
	}
	if !strings.Contains(err.Error(), "shared memory must have maximum") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidImportTypeIndex(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Imports: []module.Import{
			{Module: "env", Name: "f", Desc: module.ImportDesc{Kind: module.KindFunc, TypeIdx: 99}},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid import type index")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateInvalidTagTypeIndex(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Tags:  []module.TagType{{TypeIdx: 10}},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid tag type index")
	}
	if !strings.Contains(err.Error(), "tag.0") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidatePassiveElementNoTableCheck(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0},
		Elements: []module.Element{
			{Flags: 1, FuncIdxs: []uint32{0}},
		},
	}

	if err := m.Validate(); err != nil {
		t.Errorf("passive element validation failed: %v", err)
	}
}

func TestValidateNoTypesWithFuncs(t *testing.T) {
	m := &module.Module{
		Funcs: []uint32{0},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for funcs without types")
	}
	if !strings.Contains(err.Error(), "no types defined") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateValidStartFunction(t *testing.T) {
	startIdx := uint32(0)
	m := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0},
		Start: &startIdx,
	}

	if err := m.Validate(); err != nil {
		t.Errorf("valid start function failed: %v", err)
	}
}

func TestValidateInvalidElementFuncIndex(t *testing.T) {
	m := &module.Module{
		Types:  []module.FuncType{{Params: nil, Results: nil}},
		Funcs:  []uint32{0},
		Tables: []module.TableType{{ElemType: byte(module.ValFuncRef), Limits: module.Limits{Min: 1}}},
		Elements: []module.Element{
			{Flags: 0, TableIdx: 0, FuncIdxs: []uint32{100}},
		},
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("expected error for invalid element func index")
	}
	if !strings.Contains(err.Error(), "out_of_bounds") {
		t.Errorf("unexpected error: %v", err)
	}
}
