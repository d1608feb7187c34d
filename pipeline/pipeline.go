package pipeline

import (
	"context"
	"runtime"

	"github.com/jbvmio/tckedit/log"
	"golang.org/x/sync/errgroup"
)

// Default settings.
const (
	DefaultBatchSize  = 128
	DefaultQueueDepth = 16
)

// Settings tune a Pipeline. None of them change what the pipeline produces.
type Settings struct {
	Workers    int
	BatchSize  int
	QueueDepth int
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Settings)

// WithWorkers sets the number of parallel workers. Values below 1 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Settings) {
		s.Workers = n
	}
}

// WithBatchSize sets the number of items moved through the queues together.
func WithBatchSize(n int) Option {
	return func(s *Settings) {
		if n > 0 {
			s.BatchSize = n
		}
	}
}

// WithQueueDepth sets the number of batches each queue holds before blocking.
func WithQueueDepth(n int) Option {
	return func(s *Settings) {
		if n > 0 {
			s.QueueDepth = n
		}
	}
}

// Pipeline connects a single producer, a pool of workers and a single
// consumer through two bounded queues of batches.
type Pipeline[T any] struct {
	Settings
	l log.Logger
}

// NewPipeline returns a new Pipeline.
func NewPipeline[T any](l log.Logger, opts ...Option) *Pipeline[T] {
	if l == nil {
		l = log.NewNoop()
	}
	s := Settings{
		BatchSize:  DefaultBatchSize,
		QueueDepth: DefaultQueueDepth,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.Workers < 1 {
		s.Workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline[T]{
		Settings: s,
		l:        l,
	}
}

// Run streams every item from src through process into sink and returns
// once all three have finished. The first error from any of them stops the
// run and is returned. Items are delivered to sink in no particular order
// when more than one worker is used.
func (p *Pipeline[T]) Run(ctx context.Context, src SourceFn[T], process DataFunc[T], sink SinkFn[T]) error {
	p.l.Infof("pipeline starting: %d worker(s), batch size %d, queue depth %d", p.Workers, p.BatchSize, p.QueueDepth)
	g, gctx := errgroup.WithContext(ctx)
	srcCtx, stop := context.WithCancel(gctx)
	defer stop()

	in := make(chan Batch[T], p.QueueDepth)
	g.Go(func() error {
		defer close(in)
		return p.produce(srcCtx, gctx, src, in)
	})
	out := NewStage(p.Workers, process, p.l).run(gctx, g, in, p.QueueDepth)
	g.Go(func() error {
		return p.consume(sink, out, stop)
	})

	err := g.Wait()
	if err != nil {
		p.l.Errorf("pipeline stopped: %v", err)
		return err
	}
	p.l.Infof("pipeline finished")
	return nil
}

func (p *Pipeline[T]) produce(ctx, gctx context.Context, src SourceFn[T], in chan<- Batch[T]) error {
	batch := make([]T, 0, p.BatchSize)
	send := func() error {
		select {
		case in <- Batch[T]{Items: batch, Read: len(batch)}:
			batch = make([]T, 0, p.BatchSize)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	emit := func(item T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, item)
		if len(batch) >= p.BatchSize {
			return send()
		}
		return nil
	}
	err := src(ctx, emit)
	if err == nil && len(batch) > 0 {
		err = send()
	}
	if err != nil && ctx.Err() != nil && gctx.Err() == nil {
		p.l.Debugf("source stopped early by consumer")
		return nil
	}
	return err
}

// consume hands every batch to sink, including those that arrive after sink
// asked to stop, so that nothing in flight is lost.
func (p *Pipeline[T]) consume(sink SinkFn[T], out <-chan Batch[T], stop context.CancelFunc) error {
	stopped := false
	for b := range out {
		more, err := sink(b)
		if err != nil {
			return err
		}
		if !more && !stopped {
			stopped = true
			p.l.Debugf("consumer requested stop, draining in-flight batches")
			stop()
		}
	}
	return nil
}
