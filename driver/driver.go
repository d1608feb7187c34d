package driver

import (
	"github.com/jbvmio/tckedit/tck"
)

// Driver represents a single edit stage applied to a streamline.
// Process edits s in place and returns false when s is to be discarded.
// Drivers hold no mutable state and may be shared between workers.
type Driver interface {
	Process(s *tck.Streamline) bool
	String() string
}

// Func adapts an ordinary function into a Driver.
type Func struct {
	Name string
	Fn   func(s *tck.Streamline) bool
}

// Process calls Fn.
func (f Func) Process(s *tck.Streamline) bool {
	return f.Fn(s)
}

func (f Func) String() string {
	return f.Name
}
