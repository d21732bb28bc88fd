package codegen

import (
	"fmt"
	"math"
	"strings"

	werrors "github.com/wasm2c/wasm2c/errors"
	"github.com/wasm2c/wasm2c/module"
)

// emitInstruction dispatches one already-decoded instruction. When the
// emitter is in polymorphic-unreachable mode (after br/br_table/return/
// unreachable, before the matching end) nothing is emitted; block/loop/
// if/else/end still have to be tracked to keep the label stack correct.
func (e *FunctionEmitter) emitInstruction(instr module.Instruction) error {
	op := instr.Opcode

	switch op {
	case module.OpBlock, module.OpLoop, module.OpIf:
		return e.emitBlockStart(instr)
	case module.OpElse:
		return e.emitElse()
	case module.OpEnd:
		if len(e.labels) == 0 {
			// The body's closing end: its results leave like a return.
			return e.emitReturnInstr()
		}
		return e.emitEnd()
	case module.OpBr:
		return e.emitBr(instr.Imm.(module.BranchImm).LabelIdx, false)
	case module.OpBrIf:
		return e.emitBr(instr.Imm.(module.BranchImm).LabelIdx, true)
	case module.OpBrTable:
		return e.emitBrTable(instr.Imm.(module.BrTableImm))
	case module.OpReturn:
		return e.emitReturnInstr()
	case module.OpUnreachable:
		return e.emitUnreachable()
	case module.OpNop:
		return nil
	}

	if e.unreachable {
		return nil
	}

	switch op {
	case module.OpCall:
		return e.emitCall(instr.Imm.(module.CallImm).FuncIdx)
	case module.OpCallIndirect:
		imm := instr.Imm.(module.CallIndirectImm)
		return e.emitCallIndirect(imm)
	case module.OpReturnCall:
		// Lowered as an ordinary call followed by return: real C tail-
		// call elimination isn't attempted, a documented limitation.
		if err := e.emitCall(instr.Imm.(module.CallImm).FuncIdx); err != nil {
			return err
		}
		return e.emitReturnInstr()
	case module.OpReturnCallIndirect:
		imm := instr.Imm.(module.CallIndirectImm)
		if err := e.emitCallIndirect(imm); err != nil {
			return err
		}
		return e.emitReturnInstr()

	case module.OpDrop:
		e.pop()
		return nil
	case module.OpSelect:
		return e.emitSelect()
	case module.OpSelectType:
		return e.emitSelect()

	case module.OpLocalGet:
		return e.emitLocalGet(instr.Imm.(module.LocalImm).LocalIdx)
	case module.OpLocalSet:
		return e.emitLocalSet(instr.Imm.(module.LocalImm).LocalIdx, false)
	case module.OpLocalTee:
		return e.emitLocalSet(instr.Imm.(module.LocalImm).LocalIdx, true)
	case module.OpGlobalGet:
		return e.emitGlobalGet(instr.Imm.(module.GlobalImm).GlobalIdx)
	case module.OpGlobalSet:
		return e.emitGlobalSet(instr.Imm.(module.GlobalImm).GlobalIdx)

	case module.OpI32Const:
		e.push(module.ValI32, fmt.Sprintf("%dU", uint32(instr.Imm.(module.I32Imm).Value)))
		return nil
	case module.OpI64Const:
		e.push(module.ValI64, fmt.Sprintf("%dULL", uint64(instr.Imm.(module.I64Imm).Value)))
		return nil
	case module.OpF32Const:
		e.push(module.ValF32, formatFloat32(instr.Imm.(module.F32Imm).Value))
		return nil
	case module.OpF64Const:
		e.push(module.ValF64, formatFloat64(instr.Imm.(module.F64Imm).Value))
		return nil

	case module.OpI32Load, module.OpI32Load8S, module.OpI32Load8U, module.OpI32Load16S, module.OpI32Load16U,
		module.OpI64Load, module.OpI64Load8S, module.OpI64Load8U, module.OpI64Load16S, module.OpI64Load16U,
		module.OpI64Load32S, module.OpI64Load32U, module.OpF32Load, module.OpF64Load:
		return e.emitLoad(op, instr.Imm.(module.MemoryImm))
	case module.OpI32Store, module.OpI32Store8, module.OpI32Store16,
		module.OpI64Store, module.OpI64Store8, module.OpI64Store16, module.OpI64Store32,
		module.OpF32Store, module.OpF64Store:
		return e.emitStore(op, instr.Imm.(module.MemoryImm))
	case module.OpMemorySize:
		e.emitMemorySize(instr.Imm.(module.MemoryIdxImm))
		return nil
	case module.OpMemoryGrow:
		e.emitMemoryGrow(instr.Imm.(module.MemoryIdxImm))
		return nil

	case module.OpRefNull:
		e.push(refTypeFor(instr.Imm.(module.RefNullImm).HeapType), "0U")
		return nil
	case module.OpRefIsNull:
		a := e.pop()
		e.push(module.ValI32, e.newTemp(module.ValI32, fmt.Sprintf("(%s == 0)", a.Expr)))
		return nil
	case module.OpRefFunc:
		idx := instr.Imm.(module.RefFuncImm).FuncIdx
		e.push(module.ValFuncRef, fmt.Sprintf("%dU", idx))
		return nil

	case module.OpPrefixMisc:
		return e.emitMisc(instr.Imm.(module.MiscImm))

	case module.OpPrefixGC, module.OpPrefixSIMD, module.OpPrefixAtomic:
		return e.unsupported(fmt.Sprintf("prefixed opcode 0x%02x", op))
	case module.OpThrow, module.OpRethrow, module.OpTry, module.OpCatch, module.OpCatchAll,
		module.OpDelegate, module.OpThrowRef, module.OpTryTable:
		return e.unsupported("exception handling")
	case module.OpCallRef, module.OpReturnCallRef:
		return e.unsupported("typed function references")
	case module.OpRefAsNonNull, module.OpBrOnNull, module.OpBrOnNonNull:
		return e.unsupported("typed function references")
	case module.OpTableGet, module.OpTableSet:
		return e.unsupported("table.get/table.set")
	}

	// Plain binary/unary/comparison numeric ops, the bulk of the opcode
	// space, fall through to the static tables.
	if _, ok := binOps[op]; ok {
		return e.emitBinary(op)
	}
	if _, ok := cmpOps[op]; ok {
		return e.emitCompare(op)
	}
	if _, ok := unaryOps[op]; ok {
		return e.emitUnary(op)
	}
	if _, ok := truncOps[op]; ok {
		return e.emitTrunc(op)
	}

	return e.unsupported(fmt.Sprintf("opcode 0x%02x", op))
}

func refTypeFor(heapType int64) module.ValType {
	if heapType == module.HeapTypeExtern {
		return module.ValExtern
	}
	return module.ValFuncRef
}

// formatFloat32 and formatFloat64 emit the exact bit pattern via a
// reinterpret cast rather than a decimal literal, so NaN payloads and
// signed zero survive unchanged through the C compiler.
func formatFloat32(v float32) string {
	return fmt.Sprintf("f32_reinterpret_i32(%dU)", math.Float32bits(v))
}

func formatFloat64(v float64) string {
	return fmt.Sprintf("f64_reinterpret_i64(%dULL)", math.Float64bits(v))
}

func (e *FunctionEmitter) emitUnreachable() error {
	e.emitf("TRAP(Unreachable);\n")
	e.unreachable = true
	return nil
}

func (e *FunctionEmitter) emitSelect() error {
	cond := e.pop()
	b := e.pop()
	a := e.pop()
	expr := fmt.Sprintf("(%s ? %s : %s)", cond.Expr, a.Expr, b.Expr)
	e.push(a.Type, e.newTemp(a.Type, expr))
	return nil
}

func (e *FunctionEmitter) emitLocalGet(idx uint32) error {
	name, t, err := e.localExpr(idx)
	if err != nil {
		return err
	}
	e.push(t, name)
	return nil
}

func (e *FunctionEmitter) emitLocalSet(idx uint32, tee bool) error {
	name, t, err := e.localExpr(idx)
	if err != nil {
		return err
	}
	v := e.pop()
	e.emitf("%s = %s;\n", name, v.Expr)
	if tee {
		e.push(t, name)
	}
	return nil
}

func (e *FunctionEmitter) emitGlobalGet(idx uint32) error {
	t := e.globalType(idx)
	e.push(t, fmt.Sprintf("inst->globals.g%d", idx))
	return nil
}

func (e *FunctionEmitter) emitGlobalSet(idx uint32) error {
	v := e.pop()
	e.emitf("inst->globals.g%d = %s;\n", idx, v.Expr)
	return nil
}

func (e *FunctionEmitter) globalType(idx uint32) module.ValType {
	numImported := uint32(e.Mod.NumImportedGlobals())
	if idx < numImported {
		n := idx
		for _, imp := range e.Mod.Imports {
			if imp.Desc.Kind != module.KindGlobal {
				continue
			}
			if n == 0 {
				return imp.Desc.Global.ValType
			}
			n--
		}
		return module.ValI32
	}
	li := idx - numImported
	if int(li) >= len(e.Mod.Globals) {
		return module.ValI32
	}
	return e.Mod.Globals[li].Type.ValType
}

func (e *FunctionEmitter) emitMisc(imm module.MiscImm) error {
	if _, ok := truncSatOps[imm.SubOpcode]; ok {
		return e.emitTruncSat(imm.SubOpcode)
	}
	return e.unsupported(fmt.Sprintf("bulk-memory/table sub-opcode 0x%02x", imm.SubOpcode))
}

// emitBlockStart handles block/loop/if. Results of a multi-value block
// that are live across the boundary are spilled to temporaries so that
// br targeting this frame, or the fallthrough end, sees a stable set of
// SSA names regardless of which path reached it.
func (e *FunctionEmitter) emitBlockStart(instr module.Instruction) error {
	bt := instr.Imm.(module.BlockImm).Type
	params, results := blockTypes(e.Mod, bt)

	if e.unreachable {
		// Still track frame nesting so `end`/`else` balance, but don't
		// touch the (meaningless) operand stack.
		e.pushLabel(instr.Opcode, params, results)
		return nil
	}

	var cond stackEntry
	if instr.Opcode == module.OpIf {
		cond = e.pop()
	}

	if len(params) > e.height() {
		return werrors.New(werrors.PhaseCodegen, werrors.KindTypeMismatch).
			Path(e.path()...).Detail("block expects %d params, stack has %d", len(params), e.height()).Build()
	}
	e.spillAll(e.height() - len(params))
	entryHeight := e.height() - len(params)
	frame := e.pushLabel(instr.Opcode, params, results)
	frame.Height = entryHeight
	if instr.Opcode == module.OpIf && len(params) > 0 {
		frame.ParamVals = make([]string, len(params))
		for i, ent := range e.stack[entryHeight:] {
			frame.ParamVals[i] = ent.Expr
		}
	}

	// Declare the fixed temporaries this frame's branch target writes
	// into: a loop's is its continue label (arity = Params), a
	// block/if's is its end label (arity = Results).
	for i, t := range frame.branchArity() {
		e.emitf("%s %s;\n", ctype(t), branchResultName(frame, i))
	}

	switch instr.Opcode {
	case module.OpLoop:
		vals := e.popN(len(params))
		for i, v := range vals {
			e.emitf("%s = %s;\n", branchResultName(frame, i), v.Expr)
		}
		e.emitf("%s:;\n", continueLabelName(frame.ID))
		for i, t := range params {
			e.push(t, branchResultName(frame, i))
		}
	case module.OpIf:
		e.emitf("if (%s) {\n", cond.Expr)
	}
	return nil
}

func (e *FunctionEmitter) emitElse() error {
	f := e.currentLabel()
	if e.unreachable {
		e.unreachable = false
	} else {
		// The then-branch's final values merge at the same fixed
		// end-label temporaries the else-branch (and any br 0 from
		// within the then-branch) will also write into.
		e.spillAll(f.Height)
		vals := e.stack[f.Height:]
		for i := range f.Results {
			e.emitf("%s = %s;\n", branchResultName(f, i), vals[i].Expr)
		}
		e.truncateTo(f.Height)
	}
	e.buf.WriteString("} else {\n")
	f.HasElse = true
	return nil
}

func (e *FunctionEmitter) emitEnd() error {
	f := e.popLabel()

	wasUnreachable := e.unreachable
	e.unreachable = false

	if f.Kind == module.OpLoop {
		// Nothing branches to a loop's own end (a br targeting a loop's
		// labelidx always means its continue label, emitted at push
		// time), so fallthrough here needs no fixed names.
		if !wasUnreachable {
			e.spillAll(f.Height)
			vals := e.popN(len(f.Results))
			e.truncateTo(f.Height)
			for _, v := range vals {
				e.push(v.Type, v.Expr)
			}
		} else {
			for _, t := range f.Results {
				e.push(t, "0")
			}
		}
		return nil
	}

	// block / if: `end` doubles as this frame's own branch target, so
	// both fallthrough and any br that jumped here must leave values in
	// the same fixed branchResultName temporaries.
	if !wasUnreachable {
		e.spillAll(f.Height)
		vals := e.stack[f.Height:]
		for i := range f.Results {
			e.emitf("%s = %s;\n", branchResultName(&f, i), vals[i].Expr)
		}
		e.truncateTo(f.Height)
	}
	for i, t := range f.Results {
		e.push(t, branchResultName(&f, i))
	}

	if f.Kind == module.OpIf && !f.HasElse && len(f.Results) > 0 {
		// No else but the block has results: the then-branch result
		// temporaries still need a defined value on the implicit
		// empty else path, which the validator guarantees matches
		// f.Params (if/else without else requires params==results).
		e.buf.WriteString("} else {\n")
		for i := range f.Params {
			e.emitf("%s = %s;\n", branchResultName(&f, i), f.ParamVals[i])
		}
		e.buf.WriteString("}\n")
	} else if f.Kind == module.OpIf {
		e.buf.WriteString("}\n")
	}

	e.emitf("%s:;\n", labelName(f.ID))
	return nil
}

// emitBr implements br (conditional=false) and br_if (conditional=true).
func (e *FunctionEmitter) emitBr(depth uint32, conditional bool) error {
	if e.unreachable {
		return nil
	}
	f := e.labelAt(depth)
	arity := f.branchArity()

	var cond stackEntry
	if conditional {
		cond = e.pop()
	}

	e.spillAll(f.Height)
	vals := e.stack[e.height()-len(arity):]
	copies := make([]string, 0, len(arity))
	for i, t := range arity {
		_ = t
		copies = append(copies, vals[i].Expr)
	}
	label := f.branchLabel()

	jump := func() {
		// Re-seat the branch's live values into the target frame's result
		// temporaries immediately before the jump, so the target sees a
		// fixed name regardless of which br reached it.
		for i := range copies {
			e.emitf("%s = %s;\n", branchResultName(f, i), copies[i])
		}
		e.emitf("goto %s;\n", label)
	}

	if conditional {
		e.emitf("if (%s) {\n", cond.Expr)
		jump()
		e.buf.WriteString("}\n")
	} else {
		jump()
		e.unreachable = true
	}
	return nil
}

func branchResultName(f *labelFrame, i int) string {
	return fmt.Sprintf("L%d_r%d", f.ID, i)
}

func (e *FunctionEmitter) emitBrTable(imm module.BrTableImm) error {
	if e.unreachable {
		return nil
	}
	idx := e.pop()
	e.spillAll(0)

	e.emitf("switch (%s) {\n", idx.Expr)
	for i, label := range imm.Labels {
		f := e.labelAt(label)
		e.emitf("case %d: ", i)
		e.emitBrTableCase(f)
	}
	e.buf.WriteString("default: ")
	e.emitBrTableCase(e.labelAt(imm.Default))
	e.buf.WriteString("}\n")
	e.unreachable = true
	return nil
}

func (e *FunctionEmitter) emitBrTableCase(f *labelFrame) {
	arity := f.branchArity()
	if len(arity) > 0 {
		vals := e.stack[e.height()-len(arity):]
		for i := range arity {
			e.emitf("%s = %s; ", branchResultName(f, i), vals[i].Expr)
		}
	}
	e.emitf("goto %s;\n", f.branchLabel())
}

func (e *FunctionEmitter) emitReturnInstr() error {
	if e.unreachable {
		return nil
	}
	results := e.Sig.Results
	e.spillAll(e.height() - len(results))
	vals := e.stack[e.height()-len(results):]
	for i := range results {
		if i == 0 {
			e.emitf("%s = %s;\n", retName(i), vals[i].Expr)
		} else {
			// Results after the first are out-param pointers.
			e.emitf("*%s = %s;\n", retName(i), vals[i].Expr)
		}
	}
	e.emitf("goto %s;\n", epilogueLabel)
	e.unreachable = true
	return nil
}

func (e *FunctionEmitter) emitCall(funcIdx uint32) error {
	sig := e.Mod.GetFuncType(funcIdx)
	if sig == nil {
		return werrors.New(werrors.PhaseCodegen, werrors.KindNotFound).
			Path(e.path()...).Detail("call target %d has no signature", funcIdx).Build()
	}
	args := e.popN(len(sig.Params))
	e.spillAll(e.height())

	var parts []string
	parts = append(parts, "inst")
	for _, a := range args {
		parts = append(parts, a.Expr)
	}
	callExpr := fmt.Sprintf("%s(%s)", funcSymbol(e.ModName, funcIdx), strings.Join(parts, ", "))

	if len(sig.Results) == 0 {
		e.emitf("%s;\n", callExpr)
		return nil
	}
	e.push(sig.Results[0], e.newTemp(sig.Results[0], callExpr))
	return nil
}

func (e *FunctionEmitter) emitCallIndirect(imm module.CallIndirectImm) error {
	if int(imm.TypeIdx) >= len(e.Mod.Types) {
		return werrors.New(werrors.PhaseCodegen, werrors.KindOutOfBounds).
			Path(e.path()...).Detail("call_indirect typeidx %d", imm.TypeIdx).Build()
	}
	sig := e.Mod.Types[imm.TypeIdx]

	slot := e.pop()
	args := e.popN(len(sig.Params))
	e.spillAll(e.height())

	var parts []string
	parts = append(parts, "inst")
	for _, a := range args {
		parts = append(parts, a.Expr)
	}
	tableRef := fmt.Sprintf("inst->table%d", imm.TableIdx)
	callExpr := fmt.Sprintf("table_call_%d(%s, %s, %s)", imm.TypeIdx, tableRef, slot.Expr, strings.Join(parts, ", "))

	if len(sig.Results) == 0 {
		e.emitf("%s;\n", callExpr)
		return nil
	}
	e.push(sig.Results[0], e.newTemp(sig.Results[0], callExpr))
	return nil
}
