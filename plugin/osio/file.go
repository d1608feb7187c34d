package osio

import (
	"context"
	"io"

	"github.com/jbvmio/tckedit/log"
	"github.com/jbvmio/tckedit/pipeline"
	"github.com/jbvmio/tckedit/plugin"
	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
)

// DefaultProgressEvery is the number of batches between progress reports.
const DefaultProgressEvery = 64

// FileInputConfig contains configuration details when using the FileInput Plugin.
type FileInputConfig struct {
	Paths   []string `yaml:"paths" json:"paths"`
	Weights string   `yaml:"weights" json:"weights"`
}

// CreateInput creates an Input based on the Config.
func (c *FileInputConfig) CreateInput(l log.Logger) (*FileInput, error) {
	if len(c.Paths) < 1 {
		return nil, errors.New("no paths defined for file input")
	}
	if c.Weights != "" && len(c.Paths) != 1 {
		return nil, errors.Errorf("weights can only be used with a single input, got %d", len(c.Paths))
	}
	if l == nil {
		l = log.NewNoop()
	}
	return &FileInput{
		Paths:   c.Paths,
		Weights: c.Weights,
		l:       l,
	}, nil
}

// FileInput works with track files as Input. Files are read one at a time
// in the order given.
type FileInput struct {
	Paths   []string `yaml:"paths" json:"paths"`
	Weights string   `yaml:"weights" json:"weights"`
	l       log.Logger
	read    int
}

// Type returns TypeInputFile.
func (in *FileInput) Type() plugin.TypeID {
	return plugin.TypeInputFile
}

// Source emits every streamline of every file. Streamlines carry a weight
// when a weights file is configured.
func (in *FileInput) Source(ctx context.Context, emit pipeline.EmitFn[tck.Streamline]) error {
	var weights *WeightReader
	if in.Weights != "" {
		var err error
		weights, err = OpenWeights(in.Weights)
		if err != nil {
			return err
		}
		defer weights.Close()
	}
	for _, path := range in.Paths {
		if err := in.readFile(ctx, path, weights, emit); err != nil {
			return err
		}
	}
	if weights != nil {
		if _, err := weights.Next(); err != io.EOF {
			if err != nil {
				return err
			}
			return errors.Wrapf(ErrWeightCount, "%s holds more than %d weights", in.Weights, weights.Count()-1)
		}
	}
	in.l.Debugf("file input finished: %d streamline(s) from %d file(s)", in.read, len(in.Paths))
	return nil
}

func (in *FileInput) readFile(ctx context.Context, path string, weights *WeightReader, emit pipeline.EmitFn[tck.Streamline]) error {
	r, err := tck.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	in.l.Debugf("file input reading %s", path)
	for {
		s, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if weights != nil {
			w, err := weights.Next()
			if err == io.EOF {
				return errors.Wrapf(ErrWeightCount, "%s ran out of weights after %d streamlines", in.Weights, weights.Count())
			}
			if err != nil {
				return err
			}
			s.Weight, s.HasWeight = w, true
		}
		if err := emit(s); err != nil {
			return err
		}
		in.read++
	}
	in.l.Debugf("file input read %d streamline(s) from %s", r.Count(), path)
	return nil
}

// Close is a no-op; files are closed as soon as they are exhausted.
func (in *FileInput) Close() error {
	return nil
}

// FileOutputConfig contains configuration details when using the FileOutput Plugin.
type FileOutputConfig struct {
	Path          string `yaml:"path" json:"path"`
	Weights       string `yaml:"weights" json:"weights"`
	Skip          int    `yaml:"skip" json:"skip"`
	Number        int    `yaml:"number" json:"number"`
	Estimate      int    `yaml:"estimate" json:"estimate"`
	ProgressEvery int    `yaml:"progressEvery" json:"progressEvery"`
}

// CreateOutput creates the track file, and the weights file when configured,
// with the header taken from props.
func (c *FileOutputConfig) CreateOutput(props tck.Properties, l log.Logger) (*FileOutput, error) {
	if c.Path == "" {
		return nil, errors.New("no path defined for file output")
	}
	if c.Skip < 0 || c.Number < 0 {
		return nil, errors.Errorf("skip and number must not be negative, got %d and %d", c.Skip, c.Number)
	}
	if c.ProgressEvery < 1 {
		c.ProgressEvery = DefaultProgressEvery
	}
	if l == nil {
		l = log.NewNoop()
	}
	w, err := tck.Create(c.Path, props)
	if err != nil {
		return nil, err
	}
	out := &FileOutput{
		Path:          c.Path,
		Weights:       c.Weights,
		Skip:          c.Skip,
		Number:        c.Number,
		estimate:      c.Estimate,
		progressEvery: c.ProgressEvery,
		w:             w,
		l:             l,
	}
	if c.Weights != "" {
		out.weights, err = CreateWeights(c.Weights)
		if err != nil {
			w.Close()
			return nil, err
		}
	}
	return out, nil
}

// FileOutput works with track files as Output. It is the only consumer of
// the pipeline, so its counters need no locking.
type FileOutput struct {
	Path    string `yaml:"path" json:"path"`
	Weights string `yaml:"weights" json:"weights"`
	Skip    int    `yaml:"skip" json:"skip"`
	Number  int    `yaml:"number" json:"number"`

	w             *tck.Writer
	weights       *WeightWriter
	stats         plugin.Stats
	estimate      int
	progressEvery int
	batches       int
	l             log.Logger
}

// Type returns TypeOutputFile.
func (out *FileOutput) Type() plugin.TypeID {
	return plugin.TypeOutputFile
}

// Receive writes the streamlines of b that fall after the first Skip accepted
// streamlines and within the first Number written. Accepted streamlines that
// are not written are counted as skipped.
func (out *FileOutput) Receive(b pipeline.Batch[tck.Streamline]) (bool, error) {
	out.stats.Read += b.Read
	for i := range b.Items {
		out.stats.Accepted++
		if out.stats.Accepted <= out.Skip || out.full() {
			out.stats.Skipped++
			continue
		}
		s := &b.Items[i]
		if err := out.w.Write(s); err != nil {
			return false, err
		}
		if out.weights != nil {
			weight := 1.0
			if s.HasWeight {
				weight = s.Weight
			}
			if err := out.weights.Write(weight); err != nil {
				return false, err
			}
		}
		out.stats.Written++
	}
	out.batches++
	if out.batches%out.progressEvery == 0 {
		out.l.Debugf("progress: read %d of ~%d, written %d", out.stats.Read, out.estimate, out.stats.Written)
	}
	return !out.full(), nil
}

func (out *FileOutput) full() bool {
	return out.Number > 0 && out.stats.Written >= out.Number
}

// Stats returns the running counters.
func (out *FileOutput) Stats() plugin.Stats {
	return out.stats
}

// Close finalizes the header count and closes the output files.
func (out *FileOutput) Close() error {
	err := out.w.Close()
	if out.weights != nil {
		if werr := out.weights.Close(); err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}
	out.l.Infof("wrote %d streamline(s) to %s: read %d, rejected %d, skipped %d",
		out.w.Count(), out.Path, out.stats.Read, out.stats.Rejected(), out.stats.Skipped)
	return nil
}

// Abort closes the output files without finalizing the track file header.
func (out *FileOutput) Abort() error {
	err := out.w.Abort()
	if out.weights != nil {
		if werr := out.weights.Close(); err == nil {
			err = werr
		}
	}
	out.l.Warnf("aborted %s after writing %d streamline(s)", out.Path, out.w.Count())
	return err
}
