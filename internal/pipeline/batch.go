package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/unwind/internal/store"
)

// FileResult is one file's outcome in a batch.
type FileResult struct {
	Path   string
	Result Result
	Err    error
}

// BatchResult holds per-file outcomes in input order.
type BatchResult struct {
	Files []FileResult

	// Run is the recorded run when a store is configured.
	Run *store.Run
}

// Failed returns how many files failed to lower.
func (b BatchResult) Failed() int {
	n := 0
	for _, f := range b.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Batch lowers paths concurrently, at most jobs at a time (GOMAXPROCS when
// jobs <= 0). A failing file does not stop the others; only cancellation
// of ctx aborts the batch. With a store configured, the run is recorded.
func (p *Pipeline) Batch(ctx context.Context, paths []string, jobs int) (BatchResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine writes only its own index, so no mutex is needed.
	files := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.LowerFile(gctx, path)
			files[i] = FileResult{Path: path, Result: res, Err: err}
			if err != nil {
				p.logger.Debug("file failed", "path", path, "error", err)
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{Files: files}
	if p.store == nil {
		return out, nil
	}

	dialect, err := p.Dialect(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	run, err := p.store.RecordRun(ctx, dialect, runFiles(files))
	if err != nil {
		return BatchResult{}, err
	}
	p.logger.Info("recorded run", "run_id", run.ID, "files", len(files), "failed", out.Failed())
	out.Run = &run
	return out, nil
}

func runFiles(files []FileResult) []store.RunFile {
	out := make([]store.RunFile, len(files))
	for i, f := range files {
		rf := store.RunFile{Path: f.Path, SourceHash: f.Result.SourceHash, IRHash: f.Result.IRHash}
		if f.Err != nil {
			rf.Error = f.Err.Error()
			rf.IRHash = ""
		}
		out[i] = rf
	}
	return out
}
