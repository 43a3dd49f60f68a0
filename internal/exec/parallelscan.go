package exec

import (
	"context"
	"sync"

	"github.com/yachtsql/yachtsql"
	"github.com/yachtsql/yachtsql/internal/breaker"
)

// ParallelScanOperator is the execution-side counterpart of a NodeScan node
// internal/physicalplan annotated with ScanStrategyParallel: a background
// goroutine keeps fetching batches from the underlying RowIterator (never
// called from more than one goroutine at a time, since a RowIterator is not
// guaranteed concurrency-safe) up to workers batches ahead of the consumer,
// overlapping storage-backend I/O with whatever the rest of the operator
// tree is doing with the previous batch.
//
// Grounded on the internal.CircuitBreaker-guarded federated-tier
// dispatch (internal/federated_routing.go's EvaluateRoutingPolicy falling
// back to a simpler path when the guarded call misbehaves): repeated fetch
// errors trip the shared breaker, and once open the operator stops
// prefetching and falls back to calling the iterator directly from Next,
// the same single-worker degradation the breaker produced for
// its own guarded calls.
type ParallelScanOperator struct {
	schema yachtsql.Schema
	it     yachtsql.RowIterator
	br     *breaker.Breaker

	startOnce sync.Once
	ch        chan scanResult
}

type scanResult struct {
	batch yachtsql.RowBatch
	err   error
}

// NewParallelScan opens a scan against backend and wraps it with a
// workers-deep prefetch pipeline guarded by br. workers is clamped to at
// least 1; br may be nil, in which case the breaker is treated as always
// closed (pure prefetching, never falls back).
func NewParallelScan(ctx context.Context, backend yachtsql.StorageBackend, opts yachtsql.ScanOptions, workers int, br *breaker.Breaker) (*ParallelScanOperator, error) {
	it, err := backend.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	schema := backend.TableSchema()
	if len(opts.Columns) > 0 {
		schema = projectSchema(schema, opts.Columns)
	}
	if workers < 1 {
		workers = 1
	}
	return &ParallelScanOperator{schema: schema, it: it, br: br, ch: make(chan scanResult, workers)}, nil
}

func (p *ParallelScanOperator) Schema() yachtsql.Schema { return p.schema }

func (p *ParallelScanOperator) Next(ctx context.Context) (yachtsql.RowBatch, error) {
	if p.br.IsOpen() {
		return p.it.Next(ctx)
	}

	p.startOnce.Do(func() { go p.fetchLoop(ctx) })

	select {
	case res, ok := <-p.ch:
		if !ok {
			return yachtsql.RowBatch{}, yachtsql.ErrIteratorDone
		}
		return res.batch, res.err
	case <-ctx.Done():
		return yachtsql.RowBatch{}, ctx.Err()
	}
}

// fetchLoop is the single goroutine ever allowed to call p.it.Next,
// pushing each result onto the bounded channel so Next's caller can overlap
// its own work with the next fetch.
func (p *ParallelScanOperator) fetchLoop(ctx context.Context) {
	defer close(p.ch)
	for {
		batch, err := p.it.Next(ctx)
		if err != nil {
			if err != yachtsql.ErrIteratorDone {
				p.br.RecordFailure()
			}
			if err != yachtsql.ErrIteratorDone {
				p.ch <- scanResult{err: err}
			}
			return
		}
		p.br.RecordSuccess()
		p.ch <- scanResult{batch: batch}
	}
}

func (p *ParallelScanOperator) Close() error { return p.it.Close() }
