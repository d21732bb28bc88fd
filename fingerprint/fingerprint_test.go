package fingerprint_test

import (
	"crypto/sha1"
	"testing"

	"github.com/wasm2c/wasm2c/fingerprint"
	"github.com/wasm2c/wasm2c/module"
)

func body(code []byte) module.FuncBody {
	return module.FuncBody{Code: code, Hash: sha1.Sum(code)}
}

func i32Func() module.FuncType {
	return module.FuncType{Params: []module.ValType{module.ValI32}, Results: []module.ValType{module.ValI32}}
}

func TestClassifyPartitionsAllFunctions(t *testing.T) {
	shared := []byte{module.OpLocalGet, 0, module.OpEnd}
	onlyCurrent := []byte{module.OpI32Const, 0x2A, module.OpEnd}

	current := &module.Module{
		Types: []module.FuncType{i32Func()},
		Funcs: []uint32{0, 0},
		Code:  []module.FuncBody{body(shared), body(onlyCurrent)},
	}
	reference := &module.Module{
		Types: []module.FuncType{i32Func()},
		Funcs: []uint32{0},
		Code:  []module.FuncBody{body(shared)},
	}

	part, err := fingerprint.Classify(current, reference)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if len(part.Static)+len(part.Dynamic) != len(current.Code) {
		t.Fatalf("partition does not cover all functions: static=%d dynamic=%d total=%d",
			len(part.Static), len(part.Dynamic), len(current.Code))
	}
	if len(part.Static) != 1 {
		t.Fatalf("expected 1 static function, got %d", len(part.Static))
	}
	if part.Static[0].Index != 0 {
		t.Errorf("static function index = %d, want 0", part.Static[0].Index)
	}
	if len(part.Dynamic) != 1 || part.Dynamic[0].Index != 1 {
		t.Errorf("dynamic set = %+v, want index 1", part.Dynamic)
	}
}

func TestClassifyNoReferenceIsAllDynamic(t *testing.T) {
	code := []byte{module.OpNop, module.OpEnd}
	current := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0},
		Code:  []module.FuncBody{body(code)},
	}

	part, err := fingerprint.Classify(current, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(part.Static) != 0 {
		t.Errorf("expected no static functions without a reference, got %d", len(part.Static))
	}
	if len(part.Dynamic) != 1 {
		t.Errorf("expected 1 dynamic function, got %d", len(part.Dynamic))
	}
}

func TestClassifySignatureMismatchTreatedAsDynamic(t *testing.T) {
	shared := []byte{module.OpNop, module.OpEnd}

	current := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0},
		Code:  []module.FuncBody{body(shared)},
	}
	// Reference has an identical body but an incompatible signature.
	reference := &module.Module{
		Types: []module.FuncType{i32Func()},
		Funcs: []uint32{0},
		Code:  []module.FuncBody{body(shared)},
	}

	part, err := fingerprint.Classify(current, reference)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(part.Static) != 0 {
		t.Fatalf("expected signature-mismatched alias to be dynamic, got %d static", len(part.Static))
	}
	if len(part.Dynamic) != 1 {
		t.Fatalf("expected 1 dynamic function, got %d", len(part.Dynamic))
	}
}

func TestClassifyDuplicateBodiesTieBreakByIndex(t *testing.T) {
	code := []byte{module.OpNop, module.OpEnd}
	current := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0, 0, 0},
		Code:  []module.FuncBody{body(code), body(code), body(code)},
	}

	part, err := fingerprint.Classify(current, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(part.Dynamic) != 3 {
		t.Fatalf("expected 3 dynamic functions, got %d", len(part.Dynamic))
	}
	for i, id := range part.Dynamic {
		if int(id.Index) != i {
			t.Errorf("dynamic[%d].Index = %d, want %d (index tie-break order)", i, id.Index, i)
		}
	}
}

func TestClassifyReferenceOnlyFunctionsIgnored(t *testing.T) {
	onlyRef := []byte{module.OpI32Const, 0x01, module.OpEnd}
	current := &module.Module{
		Types: []module.FuncType{{Params: nil, Results: nil}},
	}
	reference := &module.Module{
		Types: []module.FuncType{i32Func()},
		Funcs: []uint32{0},
		Code:  []module.FuncBody{body(onlyRef)},
	}

	part, err := fingerprint.Classify(current, reference)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(part.Static) != 0 || len(part.Dynamic) != 0 {
		t.Errorf("expected empty partition for an empty current module, got %+v", part)
	}
}
