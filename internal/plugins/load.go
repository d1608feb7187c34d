package plugins

import (
	"github.com/jbvmio/tckedit/log"
	"github.com/jbvmio/tckedit/plugin"
	"github.com/jbvmio/tckedit/plugin/osio"
	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
)

// LoadInput loads the Input Plugin. When c names a weights file and expected
// is not negative, the number of weights must equal expected.
func LoadInput(c osio.FileInputConfig, expected int, l log.Logger) (plugin.Input, error) {
	if l == nil {
		l = log.NewNoop()
	}
	if c.Weights != "" && expected >= 0 {
		n, err := osio.CountWeights(c.Weights)
		if err != nil {
			return nil, err
		}
		if n != expected {
			return nil, errors.Wrapf(osio.ErrWeightCount, "%s holds %d weights for %d streamlines", c.Weights, n, expected)
		}
		l.Debugf("loaded %d weights from %s", n, c.Weights)
	}
	in, err := c.CreateInput(l)
	if err != nil {
		return nil, errors.Wrap(err, "error loading input")
	}
	l.Debugf("loaded %s with %d file(s)", in.Type(), len(c.Paths))
	return in, nil
}

// LoadOutput loads the Output Plugin, creating its files with the header props.
func LoadOutput(c osio.FileOutputConfig, props tck.Properties, l log.Logger) (plugin.Output, error) {
	if l == nil {
		l = log.NewNoop()
	}
	out, err := c.CreateOutput(props, l)
	if err != nil {
		return nil, errors.Wrap(err, "error loading output")
	}
	l.Debugf("loaded %s writing to %s", out.Type(), c.Path)
	return out, nil
}
