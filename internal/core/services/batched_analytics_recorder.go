package services

import (
	"context"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/pkg/batch"
)

// BatchedAnalyticsRecorder wraps an analytics repository with write
// batching. High-frequency ingestion is buffered and flushed in batches;
// reads flush first so a caller always sees its own writes.
type BatchedAnalyticsRecorder struct {
	base    ports.AnalyticsRepository
	batcher *batch.Batcher
}

// recordOperation is a single buffered metric event write
type recordOperation struct {
	event domain.MetricEvent
	base  ports.AnalyticsRepository
}

// Execute writes the buffered event through to the base repository
func (op *recordOperation) Execute(ctx context.Context) error {
	return op.base.Record(ctx, op.event)
}

// recordBatchProcessor processes batches of record operations
type recordBatchProcessor struct{}

// ProcessBatch processes a batch of operations
func (p *recordBatchProcessor) ProcessBatch(ctx context.Context, operations []batch.Operation) error {
	for _, op := range operations {
		_ = op.Execute(ctx)
	}
	return nil
}

// NewBatchedAnalyticsRecorder creates a new batched analytics recorder
func NewBatchedAnalyticsRecorder(base ports.AnalyticsRepository, batchSize int, batchInterval time.Duration) *BatchedAnalyticsRecorder {
	batcher := batch.NewBatcher(batchSize, batchInterval, &recordBatchProcessor{})

	return &BatchedAnalyticsRecorder{
		base:    base,
		batcher: batcher,
	}
}

// Record buffers the event for the next batch flush
func (b *BatchedAnalyticsRecorder) Record(ctx context.Context, event domain.MetricEvent) error {
	return b.batcher.Add(&recordOperation{event: event, base: b.base})
}

// ListVisible flushes pending writes, then queries the base repository
func (b *BatchedAnalyticsRecorder) ListVisible(ctx context.Context, filter domain.OwnershipFilter, opts ports.MetricQueryOptions) ([]domain.MetricEvent, error) {
	if err := b.batcher.Flush(ctx); err != nil {
		return nil, err
	}
	return b.base.ListVisible(ctx, filter, opts)
}

// Flush flushes all pending writes
func (b *BatchedAnalyticsRecorder) Flush(ctx context.Context) error {
	return b.batcher.Flush(ctx)
}

// PendingCount returns the number of buffered writes
func (b *BatchedAnalyticsRecorder) PendingCount() int {
	return b.batcher.PendingCount()
}

// Stop stops the batcher and flushes remaining writes
func (b *BatchedAnalyticsRecorder) Stop() {
	b.batcher.Stop()
}
