package tckedit

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/jbvmio/tckedit/driver"
	"github.com/jbvmio/tckedit/driver/config"
	"github.com/jbvmio/tckedit/pipeline"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ErrConfig is returned for configurations rejected before any streamline is read.
var ErrConfig = errors.New("invalid configuration")

// Config details for tckedit.
type Config struct {
	Inputs []string `yaml:"inputs"`
	Output string   `yaml:"output"`

	Include        []string `yaml:"include"`
	Exclude        []string `yaml:"exclude"`
	OrderedInclude bool     `yaml:"orderedInclude"`
	MinLength      float64  `yaml:"minLength"`
	MaxLength      float64  `yaml:"maxLength"`
	Upsample       int      `yaml:"upsample"`
	Downsample     int      `yaml:"downsample"`
	MaxPoints      int      `yaml:"maxPoints"`
	TruncatePolicy string   `yaml:"truncatePolicy"`

	Number     int    `yaml:"number"`
	Skip       int    `yaml:"skip"`
	WeightsIn  string `yaml:"weightsIn"`
	WeightsOut string `yaml:"weightsOut"`

	Workers    int `yaml:"workers"`
	BatchSize  int `yaml:"batchSize"`
	QueueDepth int `yaml:"queueDepth"`
}

// DefaultConfig returns a Config with no edits and default pipeline settings.
func DefaultConfig() Config {
	return Config{
		Upsample:       1,
		Downsample:     1,
		TruncatePolicy: string(driver.PolicyHead),
		Workers:        runtime.GOMAXPROCS(0),
		BatchSize:      pipeline.DefaultBatchSize,
		QueueDepth:     pipeline.DefaultQueueDepth,
	}
}

// ConfigFromFile loads a Config from a local yaml file. Fields missing from
// the file keep their DefaultConfig values.
func ConfigFromFile(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not read config")
	}
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return Config{}, errors.Wrapf(ErrConfig, "%s: %v", path, err)
	}
	return cfg, nil
}

// Validate checks c without touching the filesystem. Every error wraps ErrConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrConfig, format, args...)
	}
	switch {
	case len(c.Inputs) < 1:
		return invalid("at least one input is required")
	case c.Output == "":
		return invalid("an output is required")
	case c.WeightsIn != "" && len(c.Inputs) > 1:
		return invalid("per-streamline weights cannot be used with %d inputs", len(c.Inputs))
	case c.Upsample < 1:
		return invalid("upsample ratio must be at least 1, got %d", c.Upsample)
	case c.Downsample < 1:
		return invalid("downsample ratio must be at least 1, got %d", c.Downsample)
	case c.MinLength < 0 || c.MaxLength < 0:
		return invalid("length bounds must not be negative")
	case c.MaxLength > 0 && c.MinLength > c.MaxLength:
		return invalid("minimum length %g exceeds maximum length %g", c.MinLength, c.MaxLength)
	case c.MaxPoints < 0:
		return invalid("maximum points must not be negative, got %d", c.MaxPoints)
	case c.Number < 0:
		return invalid("number must not be negative, got %d", c.Number)
	case c.Skip < 0:
		return invalid("skip must not be negative, got %d", c.Skip)
	case c.Workers < 0 || c.BatchSize < 0 || c.QueueDepth < 0:
		return invalid("workers, batch size and queue depth must not be negative")
	}
	if _, err := driver.ParsePolicy(c.TruncatePolicy); err != nil {
		return errors.Wrap(ErrConfig, err.Error())
	}
	out := filepath.Clean(c.Output)
	for _, in := range c.Inputs {
		if filepath.Clean(in) == out {
			return invalid("output %s would overwrite an input", c.Output)
		}
	}
	for _, w := range []string{c.WeightsIn, c.WeightsOut} {
		if w != "" && filepath.Clean(w) == out {
			return invalid("weights file %s would overwrite the output", w)
		}
	}
	return nil
}

// EditOptions returns the settings used to build the edit Worker.
func (c *Config) EditOptions() config.Options {
	return config.Options{
		MinLength:  c.MinLength,
		MaxLength:  c.MaxLength,
		Include:    c.Include,
		Exclude:    c.Exclude,
		Ordered:    c.OrderedInclude,
		Upsample:   c.Upsample,
		Downsample: c.Downsample,
		MaxPoints:  c.MaxPoints,
		Policy:     c.TruncatePolicy,
	}
}
