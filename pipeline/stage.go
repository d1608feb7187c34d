package pipeline

import (
	"context"
	"sync"

	"github.com/jbvmio/tckedit/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Stage represents a pool of workers applying a DataFunc to every Batch
// received on its input. Batches leave the Stage in completion order.
type Stage[T any] struct {
	Workers int
	Process DataFunc[T]

	in  <-chan Batch[T]
	out chan Batch[T]
	l   log.Logger
}

// NewStage returns a new Stage.
func NewStage[T any](workers int, process DataFunc[T], l log.Logger) *Stage[T] {
	if l == nil {
		l = log.NewNoop()
	}
	if process == nil {
		process = NoopData[T]
	}
	if workers < 1 {
		workers = 1
	}
	return &Stage[T]{
		Workers: workers,
		Process: process,
		l:       l,
	}
}

// run starts the workers in g. The output channel is closed once every
// worker has returned, which only happens after the input is closed and
// drained or the context is done.
func (s *Stage[T]) run(ctx context.Context, g *errgroup.Group, in <-chan Batch[T], queueDepth int) <-chan Batch[T] {
	s.in = in
	s.out = make(chan Batch[T], queueDepth)
	var wg sync.WaitGroup
	for i := 0; i < s.Workers; i++ {
		wg.Add(1)
		id := i
		g.Go(func() error {
			defer wg.Done()
			return s.work(ctx, id)
		})
	}
	go func() {
		wg.Wait()
		s.l.Debugf("all %d worker(s) stopped, closing output queue", s.Workers)
		close(s.out)
	}()
	return s.out
}

func (s *Stage[T]) work(ctx context.Context, id int) error {
	var batches int
	for b := range s.in {
		kept := b.Items[:0]
		for i := range b.Items {
			pass, err := s.Process(&b.Items[i])
			if err != nil {
				s.l.Errorf("worker %d error processing data: %v", id, err)
				return errors.Wrapf(err, "worker %d", id)
			}
			if pass {
				kept = append(kept, b.Items[i])
			}
		}
		clear(b.Items[len(kept):])
		b.Items = kept
		select {
		case s.out <- b:
			batches++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.l.Debugf("worker %d processed %d batch(es)", id, batches)
	return nil
}
