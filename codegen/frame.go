package codegen

import "github.com/wasm2c/wasm2c/module"

// labelFrame is one entry in the label stack built by block/loop/if.
// br targets a frame by relative depth from the top of this stack.
type labelFrame struct {
	Kind    byte // module.OpBlock, module.OpLoop, or module.OpIf
	ID      int
	Params  []module.ValType
	Results []module.ValType
	Height  int // operand stack height at frame entry, after popping Params
	HasElse bool

	// ParamVals holds the spilled param expressions still live on the
	// stack at frame entry (stack[Height:Height+len(Params)]), kept
	// around so an if-without-else's implicit empty else path can pass
	// them through as its results.
	ParamVals []string
}

// branchArity returns the value types a br targeting this frame must
// carry: loop's target is the top of the loop body, so branching there
// supplies the loop's parameters again; every other frame's target is
// past the end, so branching there supplies the frame's results.
func (f *labelFrame) branchArity() []module.ValType {
	if f.Kind == module.OpLoop {
		return f.Params
	}
	return f.Results
}

// branchLabel returns the C label a br to this frame jumps to.
func (f *labelFrame) branchLabel() string {
	if f.Kind == module.OpLoop {
		return continueLabelName(f.ID)
	}
	return labelName(f.ID)
}

func (e *FunctionEmitter) pushLabel(kind byte, params, results []module.ValType) *labelFrame {
	f := labelFrame{
		Kind:    kind,
		ID:      e.nextLabelID(),
		Params:  params,
		Results: results,
		Height:  e.height(),
	}
	e.labels = append(e.labels, f)
	return &e.labels[len(e.labels)-1]
}

func (e *FunctionEmitter) popLabel() labelFrame {
	n := len(e.labels)
	f := e.labels[n-1]
	e.labels = e.labels[:n-1]
	return f
}

func (e *FunctionEmitter) currentLabel() *labelFrame {
	return &e.labels[len(e.labels)-1]
}

// labelAt returns the frame `depth` levels from the top (0 = innermost),
// matching br/br_if/br_table's labelidx semantics.
func (e *FunctionEmitter) labelAt(depth uint32) *labelFrame {
	idx := len(e.labels) - 1 - int(depth)
	return &e.labels[idx]
}

func (e *FunctionEmitter) nextLabelID() int {
	id := e.labelID
	e.labelID++
	return id
}

// blockTypes resolves a BlockImm's encoded type into concrete parameter
// and result type lists: negative values are the single-result
// shorthand encodings (or void), non-negative values index the
// module's type section for full multi-value signatures.
func blockTypes(mod *module.Module, bt int32) (params, results []module.ValType) {
	switch bt {
	case module.BlockTypeVoid:
		return nil, nil
	case module.BlockTypeI32:
		return nil, []module.ValType{module.ValI32}
	case module.BlockTypeI64:
		return nil, []module.ValType{module.ValI64}
	case module.BlockTypeF32:
		return nil, []module.ValType{module.ValF32}
	case module.BlockTypeF64:
		return nil, []module.ValType{module.ValF64}
	case module.BlockTypeV128:
		return nil, []module.ValType{module.ValV128}
	}
	if bt < 0 {
		// Reference-type shorthand (funcref/externref void blocktype
		// variants) or an unrecognised negative encoding: treat as an
		// opaque single i32-width result, codegen never inspects the
		// value itself for these forms.
		return nil, []module.ValType{module.ValI32}
	}
	idx := uint32(bt)
	if int(idx) >= len(mod.Types) {
		return nil, nil
	}
	ft := mod.Types[idx]
	return ft.Params, ft.Results
}
