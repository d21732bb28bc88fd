package module

import (
	"strconv"

	werrors "github.com/wasm2c/wasm2c/errors"
)

// Validate checks the decoded module for index-space and structural
// validity beyond what Decode itself enforces (magic/version/section
// framing). Codegen assumes a validated module and does not re-check
// index bounds.
func (m *Module) Validate() error {
	if err := m.validateTypeIndices(); err != nil {
		return err
	}
	if err := m.validateFunctionIndices(); err != nil {
		return err
	}
	if err := m.validateTableIndices(); err != nil {
		return err
	}
	if err := m.validateMemoryIndices(); err != nil {
		return err
	}
	if err := m.validateGlobalIndices(); err != nil {
		return err
	}
	if err := m.validateTagIndices(); err != nil {
		return err
	}
	if err := m.validateExports(); err != nil {
		return err
	}
	if err := m.validateStart(); err != nil {
		return err
	}
	if err := m.validateCodeCount(); err != nil {
		return err
	}
	if err := m.validateMemoryLimits(); err != nil {
		return err
	}
	return nil
}

// DecodeValidate decodes a module and validates it, the entry point the
// CLI uses for every input module.
func DecodeValidate(data []byte, opts DecodeOptions) (*Module, error) {
	m, err := Decode(data, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(m.NumTypes())
	if numTypes == 0 {
		if len(m.Funcs) > 0 {
			return werrors.InvalidData(werrors.PhaseValidate, []string{"function"}, "function references type but no types defined")
		}
		return nil
	}

	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"func", strconv.Itoa(i), "typeidx"}, int(typeIdx), int(numTypes))
		}
	}

	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			if imp.Desc.TypeIdx >= numTypes {
				return werrors.OutOfBounds(werrors.PhaseValidate, []string{"import", strconv.Itoa(i), imp.Module, imp.Name}, int(imp.Desc.TypeIdx), int(numTypes))
			}
		}
		if imp.Desc.Kind == KindTag && imp.Desc.Tag != nil {
			if imp.Desc.Tag.TypeIdx >= numTypes {
				return werrors.OutOfBounds(werrors.PhaseValidate, []string{"import", strconv.Itoa(i), "tag"}, int(imp.Desc.Tag.TypeIdx), int(numTypes))
			}
		}
	}

	for i, tag := range m.Tags {
		if tag.TypeIdx >= numTypes {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"tag", strconv.Itoa(i)}, int(tag.TypeIdx), int(numTypes))
		}
	}

	return nil
}

func (m *Module) validateFunctionIndices() error {
	numFuncs := uint32(m.NumImportedFuncs() + len(m.Funcs))

	if m.Start != nil && *m.Start >= numFuncs {
		return werrors.OutOfBounds(werrors.PhaseValidate, []string{"start"}, int(*m.Start), int(numFuncs))
	}

	for i, elem := range m.Elements {
		for j, funcIdx := range elem.FuncIdxs {
			if funcIdx >= numFuncs {
				return werrors.OutOfBounds(werrors.PhaseValidate, []string{"element", strconv.Itoa(i), strconv.Itoa(j)}, int(funcIdx), int(numFuncs))
			}
		}
	}

	for i, exp := range m.Exports {
		if exp.Kind == KindFunc && exp.Idx >= numFuncs {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"export", strconv.Itoa(i), exp.Name}, int(exp.Idx), int(numFuncs))
		}
	}

	return nil
}

func (m *Module) validateTableIndices() error {
	numTables := uint32(m.NumImportedTables() + len(m.Tables))

	for i, elem := range m.Elements {
		isPassive := elem.Flags&0x01 != 0
		if !isPassive && elem.TableIdx >= numTables {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"element", strconv.Itoa(i), "tableidx"}, int(elem.TableIdx), int(numTables))
		}
	}

	for i, exp := range m.Exports {
		if exp.Kind == KindTable && exp.Idx >= numTables {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"export", strconv.Itoa(i), exp.Name}, int(exp.Idx), int(numTables))
		}
	}

	return nil
}

func (m *Module) validateMemoryIndices() error {
	numMemories := uint32(m.NumImportedMemories() + len(m.Memories))

	for i, data := range m.Data {
		if data.Flags != 1 && data.MemIdx >= numMemories {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"data", strconv.Itoa(i), "memidx"}, int(data.MemIdx), int(numMemories))
		}
	}

	for i, exp := range m.Exports {
		if exp.Kind == KindMemory && exp.Idx >= numMemories {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"export", strconv.Itoa(i), exp.Name}, int(exp.Idx), int(numMemories))
		}
	}

	return nil
}

func (m *Module) validateGlobalIndices() error {
	numGlobals := uint32(m.NumImportedGlobals() + len(m.Globals))

	for i, exp := range m.Exports {
		if exp.Kind == KindGlobal && exp.Idx >= numGlobals {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"export", strconv.Itoa(i), exp.Name}, int(exp.Idx), int(numGlobals))
		}
	}

	return nil
}

func (m *Module) validateTagIndices() error {
	numTags := uint32(m.NumImportedTags() + len(m.Tags))

	for i, exp := range m.Exports {
		if exp.Kind == KindTag && exp.Idx >= numTags {
			return werrors.OutOfBounds(werrors.PhaseValidate, []string{"export", strconv.Itoa(i), exp.Name}, int(exp.Idx), int(numTags))
		}
	}

	return nil
}

func (m *Module) validateExports() error {
	seen := make(map[string]bool)
	for i, exp := range m.Exports {
		if seen[exp.Name] {
			return werrors.InvalidData(werrors.PhaseValidate, []string{"export", strconv.Itoa(i)}, "duplicate export name "+exp.Name)
		}
		seen[exp.Name] = true
	}
	return nil
}

func (m *Module) validateStart() error {
	if m.Start == nil {
		return nil
	}

	funcType := m.GetFuncType(*m.Start)
	if funcType == nil {
		return werrors.InvalidData(werrors.PhaseValidate, []string{"start"}, "start function has no type")
	}

	if len(funcType.Params) != 0 || len(funcType.Results) != 0 {
		return werrors.InvalidData(werrors.PhaseValidate, []string{"start"}, "start function must have signature [] -> []")
	}

	return nil
}

func (m *Module) validateCodeCount() error {
	if len(m.Code) > 0 && len(m.Code) != len(m.Funcs) {
		return werrors.InvalidData(werrors.PhaseValidate, []string{"code"}, "code section count does not match function section count")
	}
	return nil
}

func (m *Module) validateMemoryLimits() error {
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory && imp.Desc.Memory != nil {
			if err := validateMemoryType(imp.Desc.Memory, i, true); err != nil {
				return err
			}
		}
	}
	for i := range m.Memories {
		if err := validateMemoryType(&m.Memories[i], i, false); err != nil {
			return err
		}
	}
	return nil
}

func validateMemoryType(mem *MemoryType, idx int, isImport bool) error {
	var maxPages uint64
	if mem.Limits.Memory64 {
		maxPages = MemoryMaxPages64
	} else {
		maxPages = MemoryMaxPages32
	}

	prefix := "memory"
	if isImport {
		prefix = "imported_memory"
	}

	if mem.Limits.Shared && mem.Limits.Max == nil {
		return werrors.InvalidData(werrors.PhaseValidate, []string{prefix, strconv.Itoa(idx)}, "shared memory must have maximum limit")
	}

	if mem.Limits.Min > maxPages {
		return werrors.OutOfBounds(werrors.PhaseValidate, []string{prefix, strconv.Itoa(idx), "min"}, int(mem.Limits.Min), int(maxPages))
	}
	if mem.Limits.Max != nil && *mem.Limits.Max > maxPages {
		return werrors.OutOfBounds(werrors.PhaseValidate, []string{prefix, strconv.Itoa(idx), "max"}, int(*mem.Limits.Max), int(maxPages))
	}
	return nil
}

