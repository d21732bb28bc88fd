package fingerprint

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wasm2c/wasm2c/module"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger. No-op by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs a non-default logger (the CLI does this under -g).
func SetLogger(l *zap.Logger) {
	logger = l
}

// FunctionID identifies a function by the SHA-1 digest of its body bytes
// and its originating index within its module.
type FunctionID struct {
	Hash  [20]byte
	Index uint32
}

// Partition is the result of classifying a module's functions against a
// reference module.
type Partition struct {
	Static  []FunctionID // digest present in both current and reference
	Dynamic []FunctionID // digest present only in current
}

// Classify builds the FunctionID arrays for current and reference,
// sorts each by digest, and performs a linear sorted-merge: a digest
// found in both modules is static (current may alias the reference's
// emitted symbol); a digest found only in current is dynamic. Digests
// present only in the reference are ignored. Ties within one array are
// broken by function index, so a duplicate body within current always
// emits in index order.
//
// current and reference must both have been decoded with
// DecodeOptions.Fingerprint set; Classify does not compute hashes
// itself, matching spec.md's "If requested, the decoder computes
// SHA-1 ... at read time."
func Classify(current, reference *module.Module) (Partition, error) {
	curIDs := collectIDs(current)
	var refIDs []FunctionID
	if reference != nil {
		refIDs = collectIDs(reference)
	}

	sortIDs(curIDs)
	sortIDs(refIDs)

	part := Partition{}
	i, j := 0, 0
	for i < len(curIDs) {
		c := curIDs[i]
		// Advance by digest only, so a matching reference entry is found
		// whatever its function index.
		for j < len(refIDs) && less(refIDs[j], FunctionID{Hash: c.Hash}) {
			j++
		}
		if j < len(refIDs) && refIDs[j].Hash == c.Hash {
			if signatureCompatible(current, c.Index, reference, refIDs[j].Index) {
				part.Static = append(part.Static, c)
			} else {
				// Same body bytes, incompatible signature: treat as
				// dynamic rather than risk aliasing a mismatched symbol.
				part.Dynamic = append(part.Dynamic, c)
			}
		} else {
			part.Dynamic = append(part.Dynamic, c)
		}
		i++
	}

	Logger().Sugar().Debugf("partitioned %d functions: %d static, %d dynamic",
		len(curIDs), len(part.Static), len(part.Dynamic))

	return part, nil
}

func collectIDs(m *module.Module) []FunctionID {
	ids := make([]FunctionID, len(m.Code))
	for i := range m.Code {
		ids[i] = FunctionID{Hash: m.Code[i].Hash, Index: uint32(i)}
	}
	return ids
}

func sortIDs(ids []FunctionID) {
	sort.Slice(ids, func(i, j int) bool { return less(ids[i], ids[j]) })
}

func less(a, b FunctionID) bool {
	for k := 0; k < len(a.Hash); k++ {
		if a.Hash[k] != b.Hash[k] {
			return a.Hash[k] < b.Hash[k]
		}
	}
	return a.Index < b.Index
}

// signatureCompatible reports whether current's function curIdx and
// reference's function refIdx share the same parameter/result types,
// the condition under which an identical body may safely alias the
// reference's emitted symbol.
func signatureCompatible(current *module.Module, curIdx uint32, reference *module.Module, refIdx uint32) bool {
	if reference == nil {
		return false
	}
	numImportedCur := uint32(current.NumImportedFuncs())
	numImportedRef := uint32(reference.NumImportedFuncs())
	a := current.GetFuncType(numImportedCur + curIdx)
	b := reference.GetFuncType(numImportedRef + refIdx)
	if a == nil || b == nil {
		return false
	}
	return sameTypes(a.Params, b.Params) && sameTypes(a.Results, b.Results)
}

func sameTypes(a, b []module.ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
