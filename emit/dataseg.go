package emit

import werrors "github.com/wasm2c/wasm2c/errors"

// DataMode selects how a module's data segments reach the generated
// program's address space, mirroring the CLI's -d flag.
type DataMode int

const (
	// DataArrays emits each segment as a C array literal, initialized by
	// the loader at instantiate time. No sidecar file.
	DataArrays DataMode = iota
	// DataGNULD concatenates every segment into one blob placed by a
	// linker script into a named section.
	DataGNULD
	// DataSectcreate1 accesses the same concatenated blob via a Mach-O
	// section introduced through inline asm (`__asm__(".section ...")`).
	DataSectcreate1
	// DataSectcreate2 accesses the blob via the `getsectdata` API
	// instead of inline asm.
	DataSectcreate2
)

func (m DataMode) String() string {
	switch m {
	case DataArrays:
		return "arrays"
	case DataGNULD:
		return "gnu-ld"
	case DataSectcreate1:
		return "sectcreate1"
	case DataSectcreate2:
		return "sectcreate2"
	default:
		return "unknown"
	}
}

// HasSidecar reports whether this mode produces a <name>.dat blob
// alongside the generated sources.
func (m DataMode) HasSidecar() bool {
	return m != DataArrays
}

// ParseDataMode parses the -d flag's value, accepting the literal "help"
// as a sentinel the CLI handles by printing mode descriptions and exiting.
func ParseDataMode(s string) (DataMode, error) {
	switch s {
	case "arrays":
		return DataArrays, nil
	case "gnu-ld":
		return DataGNULD, nil
	case "sectcreate1":
		return DataSectcreate1, nil
	case "sectcreate2":
		return DataSectcreate2, nil
	}
	return 0, werrors.New(werrors.PhaseCLI, werrors.KindInvalidInput).
		Detail("unknown data segment mode %q (want arrays, gnu-ld, sectcreate1, sectcreate2, or help)", s).Build()
}
