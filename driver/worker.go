package driver

import (
	"math"
	"strings"

	"github.com/jbvmio/tckedit/tck"
)

// Thresholds are point counts derived from length bounds and the step size
// declared by the inputs. Zero means unknown or unbounded.
type Thresholds struct {
	StepSize  float64
	MinPoints int
	MaxPoints int
}

// DeriveThresholds reads the step size from props and converts the length
// bounds into point counts. It must see the step size of the inputs, before
// any resampling adjustment is written back to props.
func DeriveThresholds(props *tck.Properties, minLength, maxLength float64) Thresholds {
	var t Thresholds
	if v, ok, err := props.Float(tck.KeyOutputStepSize); ok && err == nil {
		t.StepSize = v
	} else if v, ok, err := props.Float(tck.KeyStepSize); ok && err == nil {
		t.StepSize = v
	}
	if t.StepSize <= 0 || math.IsNaN(t.StepSize) || math.IsInf(t.StepSize, 0) {
		t.StepSize = 0
		return t
	}
	if minLength > 0 {
		t.MinPoints = int(math.Round(minLength/t.StepSize)) + 1
	}
	if maxLength > 0 {
		t.MaxPoints = int(math.Round(maxLength/t.StepSize)) + 1
	}
	return t
}

// ResampledCapacity returns the expected point count of a streamline at the
// upper length bound after resampling by up and down.
func (t Thresholds) ResampledCapacity(up, down int) int {
	if t.MaxPoints < 2 {
		return 0
	}
	if up < 1 {
		up = 1
	}
	if down < 1 {
		down = 1
	}
	return (t.MaxPoints-1)*up/down + 2
}

// Worker applies an ordered list of Drivers to streamlines. It carries no
// mutable state and is safe to call from any number of goroutines.
type Worker struct {
	drivers    []Driver
	thresholds Thresholds
}

// NewWorker returns a Worker running drivers in the given order.
func NewWorker(t Thresholds, drivers ...Driver) *Worker {
	return &Worker{
		drivers:    drivers,
		thresholds: t,
	}
}

// Process runs every Driver until one discards s. It matches pipeline.DataFunc.
func (w *Worker) Process(s *tck.Streamline) (bool, error) {
	for _, d := range w.drivers {
		if !d.Process(s) {
			return false, nil
		}
	}
	return true, nil
}

// Thresholds returns the derived point count thresholds.
func (w *Worker) Thresholds() Thresholds {
	return w.thresholds
}

// Drivers returns the number of configured Drivers.
func (w *Worker) Drivers() int {
	return len(w.drivers)
}

func (w *Worker) String() string {
	names := make([]string, len(w.drivers))
	for i, d := range w.drivers {
		names[i] = d.String()
	}
	return strings.Join(names, " -> ")
}
