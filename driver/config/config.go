package config

import (
	"github.com/jbvmio/tckedit/driver"
	"github.com/jbvmio/tckedit/roi"
	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
)

// Options represents the edit settings used to build Drivers.
type Options struct {
	MinLength  float64
	MaxLength  float64
	Include    []string
	Exclude    []string
	Ordered    bool
	Upsample   int
	Downsample int
	MaxPoints  int
	Policy     string
}

// Active reports whether o would build at least one Driver.
func (o Options) Active() bool {
	return o.MinLength > 0 || o.MaxLength > 0 ||
		len(o.Include) > 0 || len(o.Exclude) > 0 ||
		o.Upsample > 1 || o.Downsample > 1 || o.MaxPoints > 0
}

// FromOptions builds a Worker whose Drivers run in the fixed order
// length, roi, resample, truncate. Stages with nothing to do are omitted.
// props must still carry the step size of the inputs.
func FromOptions(props *tck.Properties, o Options) (*driver.Worker, error) {
	policy, err := driver.ParsePolicy(o.Policy)
	if err != nil {
		return nil, err
	}
	include, err := Regions(o.Include)
	if err != nil {
		return nil, errors.Wrap(err, "invalid include roi")
	}
	exclude, err := Regions(o.Exclude)
	if err != nil {
		return nil, errors.Wrap(err, "invalid exclude roi")
	}

	t := driver.DeriveThresholds(props, o.MinLength, o.MaxLength)
	var drivers []driver.Driver
	if o.MinLength > 0 || o.MaxLength > 0 {
		drivers = append(drivers, driver.LengthFilter{Min: o.MinLength, Max: o.MaxLength})
	}
	if len(include) > 0 || len(exclude) > 0 {
		drivers = append(drivers, driver.ROIFilter{Include: include, Exclude: exclude, Ordered: o.Ordered})
	}
	if o.Upsample > 1 || o.Downsample > 1 {
		drivers = append(drivers, driver.Resampler{
			Up:       o.Upsample,
			Down:     o.Downsample,
			Capacity: t.ResampledCapacity(o.Upsample, o.Downsample),
		})
	}
	if o.MaxPoints > 0 {
		drivers = append(drivers, driver.Truncator{Max: o.MaxPoints, Policy: policy})
	}
	return driver.NewWorker(t, drivers...), nil
}

// Regions parses each spec into a Region.
func Regions(specs []string) ([]roi.Region, error) {
	regions := make([]roi.Region, 0, len(specs))
	for _, s := range specs {
		r, err := roi.Parse(s)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}
