package converter

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/DMarby/additive-mask/internal/queue"
	"golang.org/x/sync/errgroup"
)

// Options controls a batch run
type Options struct {
	// Workers is the amount of images converted in parallel, 1 or less converts sequentially
	Workers int
	// KeepGoing continues past failed paths instead of stopping at the first one
	KeepGoing bool
}

// Summary is the outcome of a batch run
type Summary struct {
	Results   []*Result // In input order, unprocessed paths are left out
	Failures  []error
	Converted int
	Skipped   int
}

func (s *Summary) add(result *Result) {
	s.Results = append(s.Results, result)
	if result.Skipped {
		s.Skipped++
	} else {
		s.Converted++
	}
}

func (s *Summary) err() error {
	return errors.Join(s.Failures...)
}

// Run converts paths in order. Unless KeepGoing is set it stops at the first failure and returns it,
// leaving outputs written before the failure in place and later paths unprocessed.
func (c *Converter) Run(ctx context.Context, paths []string, opts Options) (*Summary, error) {
	if opts.Workers > 1 {
		return c.runParallel(ctx, paths, opts)
	}

	summary := &Summary{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := c.Convert(ctx, path)
		if err != nil {
			summary.Failures = append(summary.Failures, err)
			if !opts.KeepGoing {
				return summary, err
			}

			c.Log.Errorw("conversion failed, continuing", "path", path, "error", err)
			continue
		}

		summary.add(result)
	}

	return summary, summary.err()
}

func (c *Converter) runParallel(ctx context.Context, paths []string, opts Options) (*Summary, error) {
	queueCtx, queueCancel := context.WithCancel(ctx)
	defer queueCancel()

	workerQueue := queue.New(queueCtx, opts.Workers, func(ctx context.Context, data interface{}) (interface{}, error) {
		return c.Convert(ctx, data.(string))
	})
	go workerQueue.Run()

	results := make([]*Result, len(paths))
	failures := make([]error, len(paths))

	// The first failure cancels groupCtx, which stops paths that haven't started yet
	group, groupCtx := errgroup.WithContext(ctx)

	// Paths sharing an output would race writing it, and converting them once gives the same file
	outputs := make(map[string]bool)
	for i, path := range paths {
		output := filepath.Clean(OutputPath(path))
		if outputs[output] {
			continue
		}
		outputs[output] = true

		i, path := i, path
		group.Go(func() error {
			result, err := workerQueue.Process(groupCtx, path)
			if err != nil {
				if groupCtx.Err() != nil && !isConversionError(err) {
					return nil
				}

				failures[i] = err
				if opts.KeepGoing {
					c.Log.Errorw("conversion failed, continuing", "path", path, "error", err)
					return nil
				}

				return err
			}

			results[i] = result.(*Result)
			return nil
		})
	}

	err := group.Wait()

	summary := &Summary{}
	for i := range paths {
		if results[i] != nil {
			summary.add(results[i])
		}
		if failures[i] != nil {
			summary.Failures = append(summary.Failures, failures[i])
		}
	}

	if err != nil {
		return summary, err
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	return summary, summary.err()
}

func isConversionError(err error) bool {
	var convertErr *Error
	return errors.As(err, &convertErr)
}
