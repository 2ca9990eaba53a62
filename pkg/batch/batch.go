// Package batch drives decode -> pipeline -> encode across a set of
// files. Each file's lifecycle is independent: workers share nothing, a
// corrupt input only fails its own file, and cancellation is honored at
// file granularity.
package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/decode"
	"github.com/imgforge/imgforge/pkg/encode"
	"github.com/imgforge/imgforge/pkg/logging"
	"github.com/imgforge/imgforge/pkg/ops"
)

// Options configures a batch run.
type Options struct {
	OutDir    string
	Suffix    string
	Recursive bool
	Backup    bool
	// Threads bounds worker parallelism; 0 means one worker per CPU.
	Threads int
}

// Result is the outcome for one input file.
type Result struct {
	Input       string
	Output      string
	BytesBefore int64
	BytesAfter  int64
	Err         error
}

// Run processes every file, returning one Result per input in input
// order. Per-file errors are recorded and reported, never propagated:
// the rest of the batch keeps going. Cancelling ctx skips files not yet
// started; a file mid-flight runs to completion.
func Run(ctx context.Context, files []string, cfg config.EncoderConfig, pipe *ops.Pipeline, opts Options) []Result {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	ctx = logging.AppendCtx(ctx, slog.String("batch", uuid.NewString()))
	jobs := Jobs(files, opts.OutDir, opts.Suffix, cfg.Codec().Extension(), opts.Recursive)

	results := make([]Result, len(jobs))
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(threads)

	for i, job := range jobs {
		g.Go(func() error {
			res := Result{Input: job.Input, Output: job.Output}
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else {
				res = processFile(ctx, job, cfg, pipe, opts.Backup)
			}

			if res.Err != nil {
				slog.ErrorContext(ctx, "file failed", "file", job.Input, "error", res.Err)
			} else {
				slog.InfoContext(ctx, "file completed",
					"file", job.Input,
					"output", res.Output,
					"bytes_before", res.BytesBefore,
					"bytes_after", res.BytesAfter,
				)
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return results
}

// processFile runs one complete image lifecycle. The worker owns the
// image exclusively; operations in the pipeline execute strictly in
// order.
func processFile(ctx context.Context, job Job, cfg config.EncoderConfig, pipe *ops.Pipeline, makeBackup bool) Result {
	res := Result{Input: job.Input, Output: job.Output}

	info, err := os.Stat(job.Input)
	if err != nil {
		res.Err = errors.Wrap(err, "stat input")
		return res
	}
	res.BytesBefore = info.Size()

	if makeBackup {
		if err := backup(job.Input); err != nil {
			res.Err = err
			return res
		}
	}

	img, err := decode.File(job.Input)
	if err != nil {
		res.Err = err
		return res
	}

	if pipe != nil {
		if err := pipe.Run(ctx, img); err != nil {
			res.Err = err
			return res
		}
	}

	out, err := encode.Encode(img, cfg)
	if err != nil {
		res.Err = err
		return res
	}

	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		res.Err = errors.Wrap(err, "create output directory")
		return res
	}
	if err := os.WriteFile(job.Output, out, 0o644); err != nil {
		res.Err = errors.Wrap(err, "write output")
		return res
	}

	res.BytesAfter = int64(len(out))
	return res
}
