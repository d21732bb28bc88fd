package codegen

import (
	"fmt"
	"strconv"
	"strings"

	werrors "github.com/wasm2c/wasm2c/errors"
	"github.com/wasm2c/wasm2c/module"
)

// GeneratedFunction is the output of emitting one function: its C
// symbol, originating index, and the complete function definition text
// (ready to paste into a translation unit after the shared prologue).
type GeneratedFunction struct {
	FuncIdx uint32
	Name    string
	Source  string
}

// FunctionEmitter translates one function body into C. It is Reset
// between functions and used by one goroutine at a time (the CLI keeps
// emitters in a sync.Pool); its internal *strings.Builder is grown once
// and cleared (not reallocated) for each function it emits.
type FunctionEmitter struct {
	Mod     *module.Module
	ModName string
	FuncIdx uint32
	Sig     *module.FuncType

	params []module.ValType
	locals []module.ValType // declared locals, not counting params

	stack       []stackEntry
	labels      []labelFrame
	tmp         int
	labelID     int
	unreachable bool // true once we're past br/br_table/return/unreachable until matching end

	buf *strings.Builder
}

// NewFunctionEmitter constructs an emitter bound to one worker. Callers
// call Reset before each function and Emit to produce its C text.
func NewFunctionEmitter(mod *module.Module, modName string) *FunctionEmitter {
	return &FunctionEmitter{Mod: mod, ModName: modName, buf: &strings.Builder{}}
}

// Reset prepares the emitter to translate funcIdx (a local, i.e.
// non-imported, function index), clearing all per-function state while
// reusing the backing buffer and slices.
func (e *FunctionEmitter) Reset(funcIdx uint32) error {
	e.FuncIdx = funcIdx
	e.stack = e.stack[:0]
	e.labels = e.labels[:0]
	e.tmp = 0
	e.labelID = 0
	e.unreachable = false
	e.buf.Reset()

	numImported := uint32(e.Mod.NumImportedFuncs())
	sig := e.Mod.GetFuncType(numImported + funcIdx)
	if sig == nil {
		return werrors.New(werrors.PhaseCodegen, werrors.KindNotFound).
			Path("func", strconv.Itoa(int(funcIdx))).Detail("no signature").Build()
	}
	e.Sig = sig
	e.params = sig.Params

	if int(funcIdx) >= len(e.Mod.Code) {
		return werrors.New(werrors.PhaseCodegen, werrors.KindOutOfBounds).
			Path("func", strconv.Itoa(int(funcIdx))).Detail("no code entry").Build()
	}
	body := e.Mod.Code[funcIdx]
	e.locals = e.locals[:0]
	for _, le := range body.Locals {
		for i := uint32(0); i < le.Count; i++ {
			e.locals = append(e.locals, le.ValType)
		}
	}
	return nil
}

func (e *FunctionEmitter) path() []string {
	return []string{"func", strconv.Itoa(int(e.FuncIdx))}
}

func (e *FunctionEmitter) unsupported(what string) error {
	return werrors.New(werrors.PhaseCodegen, werrors.KindUnsupportedProp).
		Path(e.path()...).Detail(what).Build()
}

// localExpr returns the C lvalue for local index idx, where idx follows
// Wasm's convention of parameters first, then declared locals.
func (e *FunctionEmitter) localExpr(idx uint32) (string, module.ValType, error) {
	if int(idx) < len(e.params) {
		return paramName(int(idx)), e.params[idx], nil
	}
	li := int(idx) - len(e.params)
	if li < 0 || li >= len(e.locals) {
		return "", 0, e.unsupported(fmt.Sprintf("local index %d out of range", idx))
	}
	return localName(li), e.locals[li], nil
}

// Emit decodes and translates the function's body, returning the full C
// function definition (signature, locals, body, epilogue).
func (e *FunctionEmitter) Emit() (GeneratedFunction, error) {
	instrs, err := module.DecodeInstructions(e.Mod.Code[e.FuncIdx].Code)
	if err != nil {
		return GeneratedFunction{}, werrors.Wrap(werrors.PhaseCodegen, werrors.KindInvalidData, err, "decoding function body")
	}

	name := funcSymbol(e.ModName, uint32(e.Mod.NumImportedFuncs())+e.FuncIdx)

	e.emitSignature(name)
	e.emitLocalDecls()

	for i := 0; i < len(instrs); i++ {
		if err := e.emitInstruction(instrs[i]); err != nil {
			return GeneratedFunction{}, err
		}
	}

	e.emitf("%s:;\n", epilogueLabel)
	e.emitReturn()
	e.buf.WriteString("}\n")

	return GeneratedFunction{
		FuncIdx: e.FuncIdx,
		Name:    name,
		Source:  e.buf.String(),
	}, nil
}

func (e *FunctionEmitter) emitSignature(name string) {
	params := []string{fmt.Sprintf("struct %s *inst", instanceTypeName(e.ModName))}
	for i, t := range e.params {
		params = append(params, fmt.Sprintf("%s %s", ctype(t), paramName(i)))
	}
	ret := "void"
	if len(e.Sig.Results) > 0 {
		ret = ctype(e.Sig.Results[0]) // first result returned; rest via out-params below
	}
	e.emitf("%s %s(%s", ret, name, strings.Join(params, ", "))
	for i := 1; i < len(e.Sig.Results); i++ {
		e.emitf(", %s *%s", ctype(e.Sig.Results[i]), retName(i))
	}
	e.buf.WriteString(") {\n")
}

func (e *FunctionEmitter) emitLocalDecls() {
	for i, t := range e.locals {
		e.emitf("%s %s = 0;\n", ctype(t), localName(i))
	}
	for i, t := range e.Sig.Results {
		if i == 0 {
			e.emitf("%s %s = 0;\n", ctype(t), retName(0))
		}
	}
}

func (e *FunctionEmitter) emitReturn() {
	if len(e.Sig.Results) == 0 {
		e.buf.WriteString("return;\n")
		return
	}
	e.emitf("return %s;\n", retName(0))
}
