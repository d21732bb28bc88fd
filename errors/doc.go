// Package errors provides the structured error type shared across wasm2c's
// pipeline stages.
//
// Errors are categorized by Phase (where in the pipeline the error
// occurred: decode, validate, codegen, emit, dispatch, cli) and Kind (the
// category of failure). The Error type carries a field path and, where
// known, the byte offset into the module buffer.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindBadSectionOrder).
//		Path("section", "6").
//		Offset(pos).
//		Detail("global section before function section").
//		Build()
//
// Or use the convenience constructors for common patterns:
//
//	err := errors.BadMagic(magic)
//	err := errors.OutOfBounds(errors.PhaseValidate, path, idx, n)
//
// All errors implement the standard error interface and support
// errors.Is/As.
package errors
