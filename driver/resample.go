package driver

import (
	"fmt"

	"github.com/jbvmio/tckedit/tck"
	"gonum.org/v1/gonum/spatial/r3"
)

// Resampler changes point density. Up inserts Up-1 linearly interpolated
// points between each original pair; Down then keeps every Down-th point.
// The first and last points are never altered.
type Resampler struct {
	Up   int
	Down int

	// Capacity, when set, is the expected output point count used to size buffers.
	Capacity int
}

// Process implements Driver.
func (r Resampler) Process(s *tck.Streamline) bool {
	if r.Up > 1 {
		s.Points = Upsample(s.Points, r.Up, r.Capacity)
	}
	if r.Down > 1 {
		s.Points = Downsample(s.Points, r.Down)
	}
	return true
}

func (r Resampler) String() string {
	return fmt.Sprintf("resample[up=%d,down=%d]", r.Up, r.Down)
}

// Upsample returns a new slice with ratio-1 points inserted between each
// consecutive pair of pts by piecewise-linear interpolation.
func Upsample(pts []tck.Point, ratio, capacity int) []tck.Point {
	if ratio <= 1 || len(pts) < 2 {
		return pts
	}
	n := (len(pts)-1)*ratio + 1
	if capacity < n {
		capacity = n
	}
	out := make([]tck.Point, 0, capacity)
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		d := r3.Sub(b, a)
		out = append(out, a)
		for k := 1; k < ratio; k++ {
			out = append(out, r3.Add(a, r3.Scale(float64(k)/float64(ratio), d)))
		}
	}
	return append(out, pts[len(pts)-1])
}

// Downsample keeps every ratio-th point of pts, always retaining the last
// point. pts is modified in place.
func Downsample(pts []tck.Point, ratio int) []tck.Point {
	if ratio <= 1 || len(pts) < 3 {
		return pts
	}
	last := len(pts) - 1
	w := 0
	for i := 0; i < len(pts); i += ratio {
		pts[w] = pts[i]
		w++
	}
	if last%ratio != 0 {
		pts[w] = pts[last]
		w++
	}
	return pts[:w]
}
