package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/wasm2c/wasm2c/codegen"
	"github.com/wasm2c/wasm2c/dispatch"
)

func concat(t *testing.T, res dispatch.Results) string {
	t.Helper()
	var b strings.Builder
	for _, file := range res.Files {
		for _, fn := range file.Functions {
			b.WriteString(fn.Source)
		}
	}
	return b.String()
}

func syntheticWork(u dispatch.FuncUnit) (codegen.GeneratedFunction, error) {
	return codegen.GeneratedFunction{
		FuncIdx: u.Index,
		Name:    fmt.Sprintf("mod_f%d", u.Index),
		Source:  fmt.Sprintf("void mod_f%d(void) {}\n", u.Index),
	}, nil
}

func units(n int) []dispatch.FuncUnit {
	out := make([]dispatch.FuncUnit, n)
	for i := range out {
		out[i] = dispatch.FuncUnit{Index: uint32(i)}
	}
	return out
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	funcs := units(1000)

	res1, err := dispatch.Run(context.Background(), funcs, 1, 10, syntheticWork, nil)
	if err != nil {
		t.Fatalf("t=1: %v", err)
	}
	res8, err := dispatch.Run(context.Background(), funcs, 8, 10, syntheticWork, nil)
	if err != nil {
		t.Fatalf("t=8: %v", err)
	}

	out1, out8 := concat(t, res1), concat(t, res8)
	if out1 != out8 {
		t.Fatalf("output differs between worker counts:\nt=1: %q\nt=8: %q", out1, out8)
	}
	if len(res1.Files) != len(res8.Files) {
		t.Fatalf("file count differs: t=1 has %d, t=8 has %d", len(res1.Files), len(res8.Files))
	}
}

func TestRunChunksByFunctionsPerFile(t *testing.T) {
	funcs := units(25)
	res, err := dispatch.Run(context.Background(), funcs, 4, 10, syntheticWork, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Files) != 3 { // ceil(25/10)
		t.Fatalf("file count = %d, want 3", len(res.Files))
	}
	total := 0
	for i, file := range res.Files {
		if file.Index != i {
			t.Errorf("file %d has Index %d", i, file.Index)
		}
		total += len(file.Functions)
	}
	if total != 25 {
		t.Errorf("total functions across files = %d, want 25", total)
	}
}

func TestRunZeroFunctionsPerFileIsOneFile(t *testing.T) {
	funcs := units(50)
	res, err := dispatch.Run(context.Background(), funcs, 4, 0, syntheticWork, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("file count = %d, want 1", len(res.Files))
	}
	if len(res.Files[0].Functions) != 50 {
		t.Errorf("function count = %d, want 50", len(res.Files[0].Functions))
	}
}

func TestRunReportsFirstFailingGroupDeterministically(t *testing.T) {
	funcs := units(40)
	boom := errors.New("boom")
	work := func(u dispatch.FuncUnit) (codegen.GeneratedFunction, error) {
		if u.Index == 35 {
			return codegen.GeneratedFunction{}, boom
		}
		return syntheticWork(u)
	}

	for _, workers := range []int{1, 2, 8} {
		_, err := dispatch.Run(context.Background(), funcs, workers, 10, work, nil)
		if err == nil {
			t.Fatalf("workers=%d: expected error, got nil", workers)
		}
		if !strings.Contains(err.Error(), "file group 3") {
			t.Errorf("workers=%d: error = %v, want mention of file group 3", workers, err)
		}
	}
}

func TestRunProgressCallbackFiresOncePerFile(t *testing.T) {
	funcs := units(30)
	seen := make(map[int]bool)
	var mu sync.Mutex
	_, err := dispatch.Run(context.Background(), funcs, 4, 5, syntheticWork, func(idx, total int) {
		mu.Lock()
		seen[idx] = true
		mu.Unlock()
		if total != 6 {
			t.Errorf("total = %d, want 6", total)
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(seen) != 6 {
		t.Errorf("progress fired for %d distinct files, want 6", len(seen))
	}
}
