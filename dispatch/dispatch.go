package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wasm2c/wasm2c/codegen"
	werrors "github.com/wasm2c/wasm2c/errors"
)

// FuncUnit identifies one function body to translate, by its local
// (non-imported) function index.
type FuncUnit struct {
	Index uint32
}

// Progress is invoked once a file group finishes, with its index and the
// total file count. Invocation order follows group completion, not group
// index, so callers that need an ordered report should key off fileIndex.
type Progress func(fileIndex, fileCount int)

// FileResult holds one output file's worth of generated functions, kept
// in ascending function-index order within the file.
type FileResult struct {
	Index     int
	Functions []codegen.GeneratedFunction
}

// Results is the dispatcher's complete output: one FileResult per file
// group, always returned sorted by Index regardless of which worker
// produced it or when it finished.
type Results struct {
	Files []FileResult
}

// Run partitions funcs into ceil(len(funcs)/f) file groups (f<=0 means a
// single group holding everything, matching the CLI's "-f 0 = one file"),
// then drains those groups across a fixed pool of t worker goroutines
// pulling from a shared atomic counter — contention is O(number of
// files), not O(number of functions), since the counter is only touched
// once per group, never once per function. Workers are independent: each
// owns the groups it claims and reads funcs (and whatever work closes
// over) without synchronization beyond that counter.
//
// If any worker's work call fails, a shared failed flag is set; other
// workers finish the group they are already generating, then stop
// claiming new groups. The error returned is the one attached to the
// lowest-indexed failing group, so the reported error is the same across
// runs and across worker counts even though completion order is not.
func Run(ctx context.Context, funcs []FuncUnit, t, f int, work func(FuncUnit) (codegen.GeneratedFunction, error), progress Progress) (Results, error) {
	groups := chunk(funcs, f)
	if len(groups) == 0 {
		return Results{}, nil
	}

	workers := t
	if workers < 1 {
		workers = 1
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	results := make([]FileResult, len(groups))
	errs := make([]error, len(groups))

	var next atomic.Int64
	var failed atomic.Bool
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			if failed.Load() {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}

			idx := int(next.Add(1)) - 1
			if idx >= len(groups) {
				return
			}

			group := groups[idx]
			fns := make([]codegen.GeneratedFunction, 0, len(group))
			for _, u := range group {
				gf, err := work(u)
				if err != nil {
					errs[idx] = err
					failed.Store(true)
					break
				}
				fns = append(fns, gf)
			}
			results[idx] = FileResult{Index: idx, Functions: fns}
			if progress != nil {
				progress(idx, len(groups))
			}
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}
	wg.Wait()

	for idx, err := range errs {
		if err != nil {
			return Results{}, werrors.Wrap(werrors.PhaseDispatch, werrors.KindInvalidData, err,
				fmt.Sprintf("file group %d", idx))
		}
	}

	return Results{Files: results}, nil
}

// chunk splits funcs into groups of at most f functions each, in index
// order. f<=0 yields one group containing every function.
func chunk(funcs []FuncUnit, f int) [][]FuncUnit {
	if len(funcs) == 0 {
		return nil
	}
	if f <= 0 {
		return [][]FuncUnit{append([]FuncUnit(nil), funcs...)}
	}
	n := len(funcs)
	groups := make([][]FuncUnit, 0, (n+f-1)/f)
	for i := 0; i < n; i += f {
		end := i + f
		if end > n {
			end = n
		}
		groups = append(groups, append([]FuncUnit(nil), funcs[i:end]...))
	}
	return groups
}
