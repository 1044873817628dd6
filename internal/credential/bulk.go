package credential

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxBatchSize = 500
	DefaultBulkWorkers  = 8
)

// BatchPolicy applies to every item of one batch. ExpiryMinutes is used for
// items that do not set their own. Sequential issues items one after another,
// which keeps IssuedAt non-decreasing in input order.
type BatchPolicy struct {
	ExpiryMinutes *int
	Sequential    bool
}

// BulkResult is the outcome for one batch item, in the position of its request.
type BulkResult struct {
	SessionID  string
	Credential *Credential
	Err        error
}

// BulkIssuer issues a credential per request. Items are independent: one
// failing item does not affect the others.
type BulkIssuer struct {
	issuer   *Issuer
	maxBatch int
	workers  int
}

// NewBulkIssuer returns a BulkIssuer; non-positive limits fall back to the defaults.
func NewBulkIssuer(issuer *Issuer, maxBatch, workers int) *BulkIssuer {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}
	if workers <= 0 {
		workers = DefaultBulkWorkers
	}
	return &BulkIssuer{issuer: issuer, maxBatch: maxBatch, workers: workers}
}

// MaxBatch is the largest accepted batch.
func (b *BulkIssuer) MaxBatch() int {
	return b.maxBatch
}

// Issue issues every request and returns one result per request in input
// order. A batch over the size cap is refused before any work is done.
// If ctx is cancelled, items not yet started carry ctx.Err() and the same
// error is returned alongside the partial results.
func (b *BulkIssuer) Issue(ctx context.Context, reqs []Request, policy BatchPolicy) ([]BulkResult, error) {
	if len(reqs) > b.maxBatch {
		return nil, fmt.Errorf("%w: %d requests, limit %d", ErrBatchTooLarge, len(reqs), b.maxBatch)
	}

	results := make([]BulkResult, len(reqs))

	workers := b.workers
	if policy.Sequential {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, req := range reqs {
		if req.ExpiryMinutes == nil {
			req.ExpiryMinutes = policy.ExpiryMinutes
		}

		results[i].SessionID = req.SessionID

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		g.Go(func() error {
			results[i].Credential, results[i].Err = b.issuer.Issue(req)
			return nil
		})
	}

	_ = g.Wait()

	return results, ctx.Err()
}
