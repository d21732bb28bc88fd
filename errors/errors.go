package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which stage of the pipeline raised the error.
type Phase string

const (
	PhaseDecode   Phase = "decode"   // binary section/instruction parsing
	PhaseValidate Phase = "validate" // index-space and structural checks
	PhaseCodegen  Phase = "codegen"  // per-function C code generation
	PhaseEmit     Phase = "emit"     // module skeleton / header / data segment emission
	PhaseDispatch Phase = "dispatch" // parallel worker scheduling
	PhaseCLI      Phase = "cli"      // flag parsing and file I/O
)

// Kind categorizes the error within its phase.
type Kind string

const (
	KindBadMagic          Kind = "bad_magic"
	KindBadVersion        Kind = "bad_version"
	KindBadSectionOrder   Kind = "bad_section_order"
	KindBadSectionFraming Kind = "bad_section_framing"
	KindUnknownSection    Kind = "unknown_section"
	KindReadShort         Kind = "read_short"
	KindLEBOverflow       Kind = "leb_overflow"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindTypeMismatch      Kind = "type_mismatch"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidData       Kind = "invalid_data"
	KindUnsupported       Kind = "unsupported"
	KindUnsupportedProp   Kind = "unsupported_proposal"
	KindLabelOutOfRange   Kind = "label_out_of_range"
	KindOverflow          Kind = "overflow"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindIO                Kind = "io"
)

// Error is the structured error type used throughout wasm2c.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Offset int // byte offset into the module buffer, -1 if not applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (byte %d)", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error's phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder for the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the field path (e.g. section name, function index).
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the byte offset the error occurred at.
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value.
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the most common decode-path errors.

// BadMagic reports a module that does not start with \0asm.
func BadMagic(got uint32) *Error {
	return New(PhaseDecode, KindBadMagic).Detail("got 0x%08x", got).Build()
}

// BadVersion reports an unsupported binary format version.
func BadVersion(got uint32) *Error {
	return New(PhaseDecode, KindBadVersion).Detail("got %d, want 1", got).Build()
}

// BadSectionOrder reports a known section id appearing out of canonical order.
func BadSectionOrder(id byte) *Error {
	return New(PhaseDecode, KindBadSectionOrder).Detail("section id %d", id).Build()
}

// BadSectionFraming reports a section whose body was not fully consumed
// (or was over-consumed) by its declared length.
func BadSectionFraming(id byte, declared, consumed int) *Error {
	return New(PhaseDecode, KindBadSectionFraming).
		Detail("section id %d: declared %d bytes, consumed %d", id, declared, consumed).
		Build()
}

// UnknownSection reports a non-zero section id the decoder does not recognise.
func UnknownSection(id byte) *Error {
	return New(PhaseDecode, KindUnknownSection).Detail("section id %d", id).Build()
}

// OutOfBounds creates an index-out-of-range error.
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidData creates a generic structural-validity error.
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Offset: -1,
		Detail: detail,
	}
}

// Unsupported creates an unsupported-feature error (e.g. a GC/SIMD/exception
// construct recognised by the decoder but rejected by the code generator).
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedProp,
		Offset: -1,
		Detail: what,
	}
}

// Overflow creates an arithmetic-overflow error.
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Offset: -1,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// NotFound creates a not-found error.
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Offset: -1,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid CLI/config input error.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Offset: -1,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional phase/kind context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}

// IO wraps a filesystem error encountered while reading or writing
// generated output.
func IO(phase Phase, path string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Offset: -1,
		Detail: path,
		Cause:  cause,
	}
}
