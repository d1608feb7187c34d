package pipeline

import "context"

// Batch is a group of items moved through a queue together. Read counts the
// items the producer emitted into the batch before any were discarded.
type Batch[T any] struct {
	Items []T
	Read  int
}

// EmitFn hands a single item to the pipeline. It blocks while the queue is
// full and returns an error once the pipeline stops accepting input.
type EmitFn[T any] func(T) error

// SourceFn produces items in order until exhausted.
type SourceFn[T any] func(ctx context.Context, emit EmitFn[T]) error

// DataFunc processes a single item in place. Returning false discards it.
type DataFunc[T any] func(*T) (bool, error)

// SinkFn consumes a Batch of processed items. Returning false asks the
// source to stop; batches already in flight are still delivered.
type SinkFn[T any] func(Batch[T]) (bool, error)

// NoopData performs no actions on the given data.
func NoopData[T any](*T) (bool, error) {
	return true, nil
}
