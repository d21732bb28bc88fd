package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseCodegen,
				Kind:   KindTypeMismatch,
				Path:   []string{"func", "3", "local", "2"},
				Offset: 120,
				Detail: "expected i32, got i64",
			},
			contains: []string{"[codegen]", "type_mismatch", "func.3.local.2", "byte 120", "expected i32, got i64"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindOutOfBounds,
				Offset: -1,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseEmit,
				Kind:   KindIO,
				Offset: -1,
				Detail: "s0001.c",
				Cause:  errors.New("disk full"),
			},
			contains: []string{"[emit]", "io", "s0001.c", "caused by", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindTypeMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseValidate, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseDecode, Kind: KindTypeMismatch}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseValidate, KindTypeMismatch).
		Path("func", "7").
		Offset(512).
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "i32", "i64").
		Build()

	if err.Phase != PhaseValidate {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseValidate)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "func" || err.Path[1] != "7" {
		t.Errorf("Path = %v, want [func 7]", err.Path)
	}
	if err.Offset != 512 {
		t.Errorf("Offset = %v, want 512", err.Offset)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected i32, got i64" {
		t.Errorf("Detail = %v, want 'expected i32, got i64'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("BadMagic", func(t *testing.T) {
		err := BadMagic(0xdeadbeef)
		if err.Kind != KindBadMagic {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBadMagic)
		}
		if err.Phase != PhaseDecode {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
		}
	})

	t.Run("BadVersion", func(t *testing.T) {
		err := BadVersion(2)
		if err.Kind != KindBadVersion {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBadVersion)
		}
	})

	t.Run("BadSectionOrder", func(t *testing.T) {
		err := BadSectionOrder(3)
		if err.Kind != KindBadSectionOrder {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBadSectionOrder)
		}
	})

	t.Run("BadSectionFraming", func(t *testing.T) {
		err := BadSectionFraming(10, 20, 18)
		if err.Kind != KindBadSectionFraming {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBadSectionFraming)
		}
		if !containsSubstring(err.Detail, "20") || !containsSubstring(err.Detail, "18") {
			t.Errorf("Detail = %v, should mention declared and consumed lengths", err.Detail)
		}
	})

	t.Run("UnknownSection", func(t *testing.T) {
		err := UnknownSection(42)
		if err.Kind != KindUnknownSection {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnknownSection)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCodegen, "exception handling (tag section)")
		if err.Kind != KindUnsupportedProp {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupportedProp)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseValidate, []string{"call", "funcidx"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseDecode, []string{"val"}, 300, "u8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseDispatch, "reference module", "libc.wasm")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput(PhaseCLI, "-t must be positive")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
		}
	})

	t.Run("IO", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := IO(PhaseEmit, "out/s0001.c", cause)
		if err.Kind != KindIO {
			t.Errorf("Kind = %v, want %v", err.Kind, KindIO)
		}
		if !errors.Is(err.Cause, cause) {
			t.Errorf("Cause = %v, want %v", err.Cause, cause)
		}
	})
}

func containsSubstring(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
