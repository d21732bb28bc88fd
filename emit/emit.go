package emit

import (
	"fmt"
	"strings"

	"github.com/wasm2c/wasm2c/codegen"
	"github.com/wasm2c/wasm2c/dispatch"
	"github.com/wasm2c/wasm2c/fingerprint"
	"github.com/wasm2c/wasm2c/module"
)

// Options configures one emit.Module call, mirroring the CLI flags that
// affect generated output (-d, -g, -p, -m).
type Options struct {
	DataMode    DataMode
	Debug       bool // -g: an asm .global alias line per function; no #line directives are emitted
	Pretty      bool // -p: recorded only; the emitter does not read it and output is unchanged
	MultiModule bool // -m: prefix exported symbols with the module name
}

// File is one generated C implementation file.
type File struct {
	Name   string
	Source string
}

// Output is everything emit.Module produces for one module.
type Output struct {
	HeaderName string
	Header     string
	Files      []File
	DataName   string // empty unless Options.DataMode.HasSidecar()
	Data       []byte
}

// Module assembles the header, implementation files, and (when the data
// mode calls for one) sidecar blob for m, given its name and the already
// codegen'd function bodies partitioned into static.Files/dynamic.Files
// by dispatch.Run. Static and dynamic functions are written to
// separately numbered, separately prefixed files (s0001.c, d0001.c, ...)
// so a module re-emitted against the same reference always places the
// same function in the same file. When there is exactly one dynamic
// file and no static files (the common case when no reference module
// was supplied), the module is emitted in single-file mode instead: one
// unprefixed <name>.c holding every function, per spec.md §4.5.
func Module(m *module.Module, modName string, static, dynamic dispatch.Results, opts Options) (Output, error) {
	base := sanitizeName(modName)

	files := make([]File, 0, len(static.Files)+len(dynamic.Files))
	if len(static.Files) == 0 && len(dynamic.Files) == 1 {
		files = append(files, File{
			Name:   base + ".c",
			Source: renderFile(dynamic.Files[0], base, opts),
		})
	} else {
		for _, fr := range static.Files {
			files = append(files, File{Name: fileName("s", fr.Index), Source: renderFile(fr, base, opts)})
		}
		for _, fr := range dynamic.Files {
			files = append(files, File{Name: fileName("d", fr.Index), Source: renderFile(fr, base, opts)})
		}
	}

	header := renderHeader(m, base, opts)

	out := Output{
		HeaderName: base + ".h",
		Header:     header,
		Files:      files,
	}
	if opts.DataMode.HasSidecar() {
		out.DataName = base + ".dat"
		out.Data = concatDataSegments(m)
	}
	return out, nil
}

// renderFile concatenates one file group's already-generated function
// bodies under a shared `#include "<base>.h"` preamble.
func renderFile(fr dispatch.FileResult, base string, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#include \"%s.h\"\n\n", base)
	for _, fn := range fr.Functions {
		if opts.Debug {
			fmt.Fprintf(&b, "__asm__(\".global %s\");\n", fn.Name)
		}
		b.WriteString(fn.Source)
		b.WriteByte('\n')
	}
	return b.String()
}

// renderHeader produces the extern declarations, instance struct, and
// instantiate/free prototypes every generated file shares, per spec.md
// §6's "Generated code ABI".
func renderHeader(m *module.Module, base string, opts Options) string {
	inst := codegen.InstanceTypeName(base)

	var b strings.Builder
	guard := strings.ToUpper(base) + "_H"
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	b.WriteString("#include <stdint.h>\n\n")

	fmt.Fprintf(&b, "struct %s {\n", inst)
	b.WriteString("\tuint8_t *mem0;\n\tuint32_t mem0_pages;\n")
	for i := range m.Tables {
		fmt.Fprintf(&b, "\tuint32_t *table%d;\n\tuint32_t table%d_len;\n", i, i)
	}
	for i, g := range m.Globals {
		fmt.Fprintf(&b, "\t%s global%d;\n", globalCType(g.Type.ValType), i)
	}
	fmt.Fprintf(&b, "\tvoid *host_data;\n};\n\n")

	fmt.Fprintf(&b, "typedef uint32_t (*%sResolveImport)(const char *module, const char *name, void *out);\n\n", inst)
	fmt.Fprintf(&b, "int %sInstantiate(struct %s *inst, %sResolveImport resolveImport);\n", base, inst, inst)
	fmt.Fprintf(&b, "void %sFreeInstance(struct %s *inst);\n", base, inst)
	fmt.Fprintf(&b, "uint8_t *%s_memory(struct %s *inst);\n\n", base, inst)

	for _, exp := range m.Exports {
		if exp.Kind != module.KindFunc {
			continue
		}
		ft := m.GetFuncType(exp.Idx)
		if ft == nil {
			continue
		}
		sym := codegen.FuncSymbol(base, exp.Idx)
		name := sym
		if opts.MultiModule {
			name = base + "_" + sanitizeName(exp.Name)
		}
		fmt.Fprintf(&b, "%s %s(struct %s *inst%s);\n",
			returnCType(ft.Results), name, inst, paramCTypes(ft.Params))
	}

	b.WriteString("\n#endif\n")
	return b.String()
}

func globalCType(vt module.ValType) string {
	switch vt {
	case module.ValI32:
		return "uint32_t"
	case module.ValI64:
		return "uint64_t"
	case module.ValF32:
		return "float"
	case module.ValF64:
		return "double"
	default:
		return "uint32_t"
	}
}

func returnCType(results []module.ValType) string {
	if len(results) == 0 {
		return "void"
	}
	return globalCType(results[0])
}

func paramCTypes(params []module.ValType) string {
	var b strings.Builder
	for i, p := range params {
		fmt.Fprintf(&b, ", %s v_p%d", globalCType(p), i)
	}
	return b.String()
}

// concatDataSegments builds the single blob the gnu-ld/sectcreate1/
// sectcreate2 modes place into a linker-provided section, in data
// segment index order, so the blob's layout is stable across runs.
func concatDataSegments(m *module.Module) []byte {
	var out []byte
	for _, seg := range m.Data {
		out = append(out, seg.Init...)
	}
	return out
}

// FuncUnits converts one side of a fingerprint.Partition into the
// dispatch.FuncUnit slice dispatch.Run expects, so callers build one
// FuncUnit list per partition before invoking dispatch.Run twice (once
// for Static, once for Dynamic) ahead of a Module call.
func FuncUnits(ids []fingerprint.FunctionID) []dispatch.FuncUnit {
	out := make([]dispatch.FuncUnit, len(ids))
	for i, id := range ids {
		out[i] = dispatch.FuncUnit{Index: id.Index}
	}
	return out
}
