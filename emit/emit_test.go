package emit_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/wasm2c/wasm2c/codegen"
	"github.com/wasm2c/wasm2c/dispatch"
	"github.com/wasm2c/wasm2c/emit"
	"github.com/wasm2c/wasm2c/module"
)

func gen(idx uint32) codegen.GeneratedFunction {
	return codegen.GeneratedFunction{
		FuncIdx: idx,
		Name:    fmt.Sprintf("f%d", idx),
		Source:  "void f() {}\n",
	}
}

func TestModuleSingleFileWhenOneDynamicGroupAndNoStatic(t *testing.T) {
	m := &module.Module{
		Types: []module.FuncType{{Results: []module.ValType{module.ValI32}}},
		Funcs: []uint32{0},
		Exports: []module.Export{
			{Name: "answer", Kind: module.KindFunc, Idx: 0},
		},
	}
	dynamic := dispatch.Results{Files: []dispatch.FileResult{
		{Index: 0, Functions: []codegen.GeneratedFunction{gen(0)}},
	}}

	out, err := emit.Module(m, "my-module.wasm", dispatch.Results{}, dynamic, emit.Options{})
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	if len(out.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(out.Files))
	}
	if out.Files[0].Name != "mymodulewasm.c" {
		t.Errorf("file name = %q, want single unprefixed name", out.Files[0].Name)
	}
	if !strings.Contains(out.Header, "mymodulewasm_f0") {
		t.Errorf("header missing exported function symbol:\n%s", out.Header)
	}
	if out.DataName != "" {
		t.Errorf("arrays mode should not produce a sidecar, got %q", out.DataName)
	}
}

func TestModulePartitionedNaming(t *testing.T) {
	m := &module.Module{Types: []module.FuncType{{}}}
	static := dispatch.Results{Files: []dispatch.FileResult{
		{Index: 0, Functions: []codegen.GeneratedFunction{gen(0)}},
	}}
	dynamic := dispatch.Results{Files: []dispatch.FileResult{
		{Index: 0, Functions: []codegen.GeneratedFunction{gen(1)}},
		{Index: 1, Functions: []codegen.GeneratedFunction{gen(2)}},
	}}

	out, err := emit.Module(m, "mod", static, dynamic, emit.Options{})
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	want := []string{"s0001.c", "d0001.c", "d0002.c"}
	if len(out.Files) != len(want) {
		t.Fatalf("file count = %d, want %d", len(out.Files), len(want))
	}
	for i, name := range want {
		if out.Files[i].Name != name {
			t.Errorf("file[%d].Name = %q, want %q", i, out.Files[i].Name, name)
		}
	}
}

func TestModuleGNULDModeProducesSidecar(t *testing.T) {
	m := &module.Module{
		Data: []module.DataSegment{
			{Init: []byte{1, 2, 3}},
			{Init: []byte{4, 5}},
		},
	}
	dynamic := dispatch.Results{Files: []dispatch.FileResult{{Index: 0}}}

	out, err := emit.Module(m, "mod", dispatch.Results{}, dynamic, emit.Options{DataMode: emit.DataGNULD})
	if err != nil {
		t.Fatalf("Module: %v", err)
	}
	if out.DataName != "mod.dat" {
		t.Errorf("data name = %q, want mod.dat", out.DataName)
	}
	if string(out.Data) != "\x01\x02\x03\x04\x05" {
		t.Errorf("data = %v, want concatenated segments in order", out.Data)
	}
}

func TestParseDataModeRejectsUnknown(t *testing.T) {
	if _, err := emit.ParseDataMode("bogus"); err == nil {
		t.Fatal("expected error for unknown data segment mode")
	}
	for _, s := range []string{"arrays", "gnu-ld", "sectcreate1", "sectcreate2"} {
		if _, err := emit.ParseDataMode(s); err != nil {
			t.Errorf("ParseDataMode(%q): %v", s, err)
		}
	}
}
