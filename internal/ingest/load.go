package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

// LoadRuns ingests every input in parallel and returns the results in input
// order, followed by the inputs whose files were missing. Missing files are
// logged and skipped; if every input is missing the error wraps
// model.ErrMissingInput. Any other failure cancels the rest.
func LoadRuns(ctx context.Context, inputs []Input, opts Options) ([]*Result, []Input, error) {
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("%w: no inputs", model.ErrUsage)
	}

	results := make([]*Result, len(inputs))
	missing := make([]error, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := ProcessFile(in.Path, in.Label, opts)
			if errors.Is(err, model.ErrMissingInput) {
				missing[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]*Result, 0, len(inputs))
	var skipped []Input
	var errs []error
	for i, res := range results {
		if missing[i] != nil {
			log.Printf("ingest: skipping %q: %v", inputs[i].Label, missing[i])
			skipped = append(skipped, inputs[i])
			errs = append(errs, missing[i])
			continue
		}
		out = append(out, res)
	}
	if len(out) == 0 {
		return nil, skipped, errors.Join(errs...)
	}
	return out, skipped, nil
}
