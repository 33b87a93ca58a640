package core

import (
	"context"
	"errors"

	"github.com/aimarketingflow/pawprint/schema"
	"golang.org/x/sync/errgroup"
)

// CompareBatch compares every target against the baseline. Pairs are
// independent: a failing pair is recorded in its entry and does not stop
// the others. Only context cancellation aborts the batch.
func (e *Engine) CompareBatch(ctx context.Context, baseline *schema.Fingerprint, targets []*schema.Fingerprint) (*schema.BatchResult, error) {
	if baseline == nil {
		return nil, errors.New("baseline fingerprint is required")
	}
	result := &schema.BatchResult{
		Baseline: baseline.SourceID,
		Entries:  make([]schema.BatchEntry, len(targets)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := schema.BatchEntry{Target: target.SourceID}
			report, err := e.Compare(baseline, target)
			if err != nil {
				entry.Error = err.Error()
			} else {
				entry.Report = report
			}
			result.Entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
