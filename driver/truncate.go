package driver

import (
	"fmt"
	"math"

	"github.com/jbvmio/tckedit/tck"
	"github.com/pkg/errors"
)

// Policy selects which points Truncator drops.
type Policy string

// Available Policies:
const (
	// PolicyHead keeps the first Max points.
	PolicyHead Policy = `head`
	// PolicyDecimate keeps Max points spread uniformly along the streamline, endpoints included.
	PolicyDecimate Policy = `decimate`
)

// ParsePolicy validates a policy name. An empty name selects PolicyHead.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyHead:
		return PolicyHead, nil
	case PolicyDecimate:
		return PolicyDecimate, nil
	default:
		return "", errors.Errorf("invalid truncate policy %q (use '%s' or '%s')", s, PolicyHead, PolicyDecimate)
	}
}

// Truncator limits the number of points in a streamline to Max.
type Truncator struct {
	Max    int
	Policy Policy
}

// Process implements Driver.
func (t Truncator) Process(s *tck.Streamline) bool {
	if t.Max <= 0 || len(s.Points) <= t.Max {
		return true
	}
	switch t.Policy {
	case PolicyDecimate:
		s.Points = decimate(s.Points, t.Max)
	default:
		s.Points = s.Points[:t.Max]
	}
	return true
}

func (t Truncator) String() string {
	return fmt.Sprintf("truncate[%d,%s]", t.Max, t.Policy)
}

// decimate keeps m uniformly spaced points of pts in place, including both endpoints.
func decimate(pts []tck.Point, m int) []tck.Point {
	if m < 2 {
		return pts[:m]
	}
	step := float64(len(pts)-1) / float64(m-1)
	for i := 0; i < m; i++ {
		pts[i] = pts[int(math.Round(float64(i)*step))]
	}
	return pts[:m]
}
