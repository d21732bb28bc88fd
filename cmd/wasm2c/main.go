// Command wasm2c translates a WebAssembly module into C source, the way
// a static build would compile it, rather than running it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wasm2c/wasm2c/codegen"
	"github.com/wasm2c/wasm2c/dispatch"
	"github.com/wasm2c/wasm2c/emit"
	werrors "github.com/wasm2c/wasm2c/errors"
	"github.com/wasm2c/wasm2c/fingerprint"
	"github.com/wasm2c/wasm2c/module"
	"github.com/wasm2c/wasm2c/progress"
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

func main() {
	var (
		threads   = flag.Int("t", runtime.NumCPU(), "number of worker goroutines")
		perFile   = flag.Int("f", 0, "functions per generated file (0: one file)")
		dataFlag  = flag.String("d", "arrays", "data segment mode: arrays, gnu-ld, sectcreate1, sectcreate2, or help")
		debug     = flag.Bool("g", false, "emit debug aliases and verbose logging")
		pretty    = flag.Bool("p", false, "accepted; generated C is not reformatted")
		multi     = flag.Bool("m", false, "prefix exported symbols with the module name")
		clean     = flag.Bool("c", false, "remove matching output files before writing")
		reference = flag.String("r", "", "reference module for incremental static/dynamic partitioning")
		help      = flag.Bool("h", false, "print usage and exit")
	)
	flag.Parse()

	if *help {
		usage()
		return
	}
	if *dataFlag == "help" {
		printDataModeHelp()
		return
	}

	args := flag.Args()
	if len(args) != 2 {
		usage()
		os.Exit(1)
	}

	if *debug {
		l, err := zap.NewDevelopment()
		if err == nil {
			SetLogger(l)
			codegen.SetLogger(l)
			fingerprint.SetLogger(l)
			emit.SetLogger(l)
		}
	}

	dataMode, err := emit.ParseDataMode(*dataFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wasm2c: %v\n", err)
		os.Exit(1)
	}

	cfg := config{
		inPath:    args[0],
		outPath:   args[1],
		threads:   *threads,
		perFile:   *perFile,
		dataMode:  dataMode,
		debug:     *debug,
		pretty:    *pretty,
		multi:     *multi,
		clean:     *clean,
		reference: *reference,
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "wasm2c: %v\n", err)
		os.Exit(1)
	}
}

// SetLogger installs the logger used by this package's own log lines
// (as opposed to the per-package loggers wired via the other SetLogger
// calls in main).
func SetLogger(l *zap.Logger) {
	logger = l
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: wasm2c [flags] MODULE OUT")
	fmt.Fprintln(os.Stderr, "  MODULE is a .wasm input file; OUT is the output base path (without extension).")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func printDataModeHelp() {
	fmt.Println("Data segment modes (-d):")
	fmt.Println("  arrays       C array literals, initialized at instantiate time (default)")
	fmt.Println("  gnu-ld       concatenated blob placed by a linker script into a named section")
	fmt.Println("  sectcreate1  Mach-O section accessed via inline asm")
	fmt.Println("  sectcreate2  Mach-O section accessed via getsectdata")
}

type config struct {
	inPath, outPath string
	threads         int
	perFile         int
	dataMode        emit.DataMode
	debug, pretty   bool
	multi           bool
	clean           bool
	reference       string
}

func run(cfg config) error {
	data, err := os.ReadFile(cfg.inPath)
	if err != nil {
		return werrors.New(werrors.PhaseCLI, werrors.KindIO).
			Path(cfg.inPath).Detail("reading module: %v", err).Build()
	}

	m, err := module.DecodeValidate(data, module.DecodeOptions{Fingerprint: cfg.reference != ""})
	if err != nil {
		return err
	}

	var part fingerprint.Partition
	if cfg.reference != "" {
		refData, err := os.ReadFile(cfg.reference)
		if err != nil {
			return werrors.New(werrors.PhaseCLI, werrors.KindIO).
				Path(cfg.reference).Detail("reading reference module: %v", err).Build()
		}
		ref, err := module.DecodeValidate(refData, module.DecodeOptions{Fingerprint: true})
		if err != nil {
			return err
		}
		part, err = fingerprint.Classify(m, ref)
		if err != nil {
			return err
		}
	} else {
		part = fingerprint.Partition{Dynamic: allFunctionIDs(m)}
	}

	modName := strings.TrimSuffix(filepath.Base(cfg.outPath), filepath.Ext(cfg.outPath))

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	var runner *progress.Runner
	if interactive {
		runner = progress.Start(modName)
	}

	static, err := runPartition(m, modName, part.Static, "static", cfg, runner)
	if err != nil {
		if runner != nil {
			runner.Fail(err)
			runner.Wait()
		}
		return err
	}
	dynamic, err := runPartition(m, modName, part.Dynamic, "dynamic", cfg, runner)
	if err != nil {
		if runner != nil {
			runner.Fail(err)
			runner.Wait()
		}
		return err
	}

	out, err := emit.Module(m, modName, static, dynamic, emit.Options{
		DataMode:    cfg.dataMode,
		Debug:       cfg.debug,
		Pretty:      cfg.pretty,
		MultiModule: cfg.multi,
	})
	if err != nil {
		if runner != nil {
			runner.Fail(err)
			runner.Wait()
		}
		return err
	}

	if runner != nil {
		runner.Finish()
		runner.Wait()
	}

	return write(cfg.outPath, out, cfg.clean)
}

func runPartition(m *module.Module, modName string, ids []fingerprint.FunctionID, phase string, cfg config, runner *progress.Runner) (dispatch.Results, error) {
	units := emit.FuncUnits(ids)
	if len(units) == 0 {
		return dispatch.Results{}, nil
	}

	var pool sync.Pool
	pool.New = func() any { return codegen.NewFunctionEmitter(m, modName) }

	work := func(u dispatch.FuncUnit) (codegen.GeneratedFunction, error) {
		e := pool.Get().(*codegen.FunctionEmitter)
		defer pool.Put(e)
		if err := e.Reset(u.Index); err != nil {
			return codegen.GeneratedFunction{}, err
		}
		return e.Emit()
	}

	var prog dispatch.Progress
	if runner != nil {
		prog = runner.Callback(phase)
	} else {
		prog = func(fileIndex, fileCount int) {
			Logger().Info("compiled file", zap.String("phase", phase), zap.Int("file", fileIndex+1), zap.Int("of", fileCount))
		}
	}

	return dispatch.Run(context.Background(), units, cfg.threads, cfg.perFile, work, prog)
}

func allFunctionIDs(m *module.Module) []fingerprint.FunctionID {
	ids := make([]fingerprint.FunctionID, len(m.Code))
	for i := range m.Code {
		ids[i] = fingerprint.FunctionID{Index: uint32(i)}
	}
	return ids
}

func write(outPath string, out emit.Output, clean bool) error {
	dir := filepath.Dir(outPath)
	base := strings.TrimSuffix(out.HeaderName, ".h")

	if clean {
		matches, _ := filepath.Glob(filepath.Join(dir, base+"*.c"))
		for _, f := range matches {
			os.Remove(f)
		}
		os.Remove(filepath.Join(dir, base+".h"))
		os.Remove(filepath.Join(dir, base+".dat"))
	}

	if err := os.WriteFile(filepath.Join(dir, out.HeaderName), []byte(out.Header), 0o644); err != nil {
		return werrors.New(werrors.PhaseCLI, werrors.KindIO).
			Path(out.HeaderName).Detail("writing header: %v", err).Build()
	}
	for _, f := range out.Files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), []byte(f.Source), 0o644); err != nil {
			return werrors.New(werrors.PhaseCLI, werrors.KindIO).
				Path(f.Name).Detail("writing source: %v", err).Build()
		}
	}
	if out.DataName != "" {
		if err := os.WriteFile(filepath.Join(dir, out.DataName), out.Data, 0o644); err != nil {
			return werrors.New(werrors.PhaseCLI, werrors.KindIO).
				Path(out.DataName).Detail("writing data segment blob: %v", err).Build()
		}
	}
	return nil
}
