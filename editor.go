package tckedit

import (
	"context"

	"github.com/jbvmio/tckedit/internal/drivers"
	"github.com/jbvmio/tckedit/internal/plugins"
	"github.com/jbvmio/tckedit/log"
	"github.com/jbvmio/tckedit/pipeline"
	"github.com/jbvmio/tckedit/plugin"
	"github.com/jbvmio/tckedit/plugin/osio"
	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
)

// Stats are the counters of an edit run.
type Stats = plugin.Stats

// Edit merges the headers of cfg.Inputs, streams every streamline through
// the configured edits and writes the survivors to cfg.Output.
//
// Configuration errors wrap ErrConfig and are returned before the output is
// created. Any other error leaves the output without its end marker and
// header count, so it does not read back as a complete track file.
func Edit(ctx context.Context, cfg Config, l log.Logger) (Stats, error) {
	if l == nil {
		l = log.NewNoop()
	}
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}

	consensus, err := BuildConsensus(cfg.Inputs)
	if err != nil {
		return Stats{}, err
	}
	l.Debugf("merged %d header(s), estimated number of input streamlines: %d", consensus.Inputs, consensus.Count)
	props := &consensus.Properties
	ApplyEditOptions(props, cfg)

	// the worker derives its point thresholds from the input step size, so it
	// is built before output_step_size is rewritten for the output header
	process, _, err := drivers.MakeWorkerFunc(props, cfg.EditOptions(), l)
	if err != nil {
		return Stats{}, errors.Wrapf(ErrConfig, "%v", err)
	}
	UpdateOutputStepSize(props, cfg.Upsample, cfg.Downsample)

	expected := -1
	if consensus.CountKnown {
		expected = consensus.Count
	}
	in, err := plugins.LoadInput(osio.FileInputConfig{Paths: cfg.Inputs, Weights: cfg.WeightsIn}, expected, l)
	if err != nil {
		if errors.Is(err, osio.ErrWeightCount) {
			return Stats{}, errors.Wrapf(ErrConfig, "%v", err)
		}
		return Stats{}, err
	}
	defer in.Close()

	out, err := plugins.LoadOutput(osio.FileOutputConfig{
		Path:     cfg.Output,
		Weights:  cfg.WeightsOut,
		Skip:     cfg.Skip,
		Number:   cfg.Number,
		Estimate: consensus.Count,
	}, *props, l)
	if err != nil {
		return Stats{}, err
	}

	p := pipeline.NewPipeline[tck.Streamline](l,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithBatchSize(cfg.BatchSize),
		pipeline.WithQueueDepth(cfg.QueueDepth),
	)
	if err := p.Run(ctx, in.Source, process, out.Receive); err != nil {
		if aerr := out.Abort(); aerr != nil {
			l.Errorf("could not close %s: %v", cfg.Output, aerr)
		}
		return out.Stats(), err
	}
	if err := out.Close(); err != nil {
		return out.Stats(), err
	}
	return out.Stats(), nil
}
