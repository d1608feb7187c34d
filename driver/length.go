package driver

import (
	"fmt"

	"github.com/jbvmio/tckedit/tck"
)

// LengthFilter discards streamlines whose path length lies outside [Min, Max].
// A zero Max means no upper bound.
type LengthFilter struct {
	Min float64
	Max float64
}

// Process implements Driver.
func (f LengthFilter) Process(s *tck.Streamline) bool {
	l := s.Length()
	if l < f.Min {
		return false
	}
	if f.Max > 0 && l > f.Max {
		return false
	}
	return true
}

func (f LengthFilter) String() string {
	return fmt.Sprintf("length[%g,%g]", f.Min, f.Max)
}
