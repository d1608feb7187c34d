package drivers

import (
	"github.com/jbvmio/tckedit/driver"
	"github.com/jbvmio/tckedit/driver/config"
	"github.com/jbvmio/tckedit/log"
	"github.com/jbvmio/tckedit/pipeline"
	"github.com/jbvmio/tckedit/tck"
)

// MakeWorkerFunc builds the Worker described by o and returns it as a
// pipeline.DataFunc. props must still carry the step size of the inputs.
func MakeWorkerFunc(props *tck.Properties, o config.Options, l log.Logger) (pipeline.DataFunc[tck.Streamline], *driver.Worker, error) {
	if l == nil {
		l = log.NewNoop()
	}
	w, err := config.FromOptions(props, o)
	if err != nil {
		return nil, nil, err
	}
	if !o.Active() {
		l.Infof("no edits configured, streamlines are copied unchanged")
		return pipeline.NoopData[tck.Streamline], w, nil
	}
	l.Infof("edit worker: %s", w)
	if t := w.Thresholds(); t.StepSize > 0 {
		l.Debugf("step size %g: expecting %d to %d points per streamline", t.StepSize, t.MinPoints, t.MaxPoints)
	}
	return w.Process, w, nil
}
