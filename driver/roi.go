package driver

import (
	"fmt"

	"github.com/jbvmio/tckedit/roi"
	"github.com/jbvmio/tckedit/tck"
)

// ROIFilter keeps streamlines that visit every Include region and no Exclude region.
//
// With Ordered set the Include regions must be entered in the configured
// order along the streamline; a single point may satisfy several consecutive
// regions when they overlap.
type ROIFilter struct {
	Include []roi.Region
	Exclude []roi.Region
	Ordered bool
}

// Process implements Driver.
func (f ROIFilter) Process(s *tck.Streamline) bool {
	for _, p := range s.Points {
		for _, r := range f.Exclude {
			if r.Contains(p) {
				return false
			}
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	if f.Ordered {
		return f.visitsInOrder(s)
	}
	return f.visitsAll(s)
}

func (f ROIFilter) visitsInOrder(s *tck.Streamline) bool {
	next := 0
	for _, p := range s.Points {
		for next < len(f.Include) && f.Include[next].Contains(p) {
			next++
		}
		if next == len(f.Include) {
			return true
		}
	}
	return false
}

func (f ROIFilter) visitsAll(s *tck.Streamline) bool {
	visited := make([]bool, len(f.Include))
	remaining := len(f.Include)
	for _, p := range s.Points {
		for i, r := range f.Include {
			if !visited[i] && r.Contains(p) {
				visited[i] = true
				remaining--
			}
		}
		if remaining == 0 {
			return true
		}
	}
	return false
}

func (f ROIFilter) String() string {
	mode := "unordered"
	if f.Ordered {
		mode = "ordered"
	}
	return fmt.Sprintf("roi[include=%d,exclude=%d,%s]", len(f.Include), len(f.Exclude), mode)
}
