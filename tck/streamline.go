// Package tck reads and writes streamline track files and their header properties.
package tck

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a single streamline vertex in scanner space (mm).
type Point = r3.Vec

// Streamline is an ordered polyline. Weight is only meaningful when HasWeight is set.
type Streamline struct {
	Points    []Point
	Weight    float64
	HasWeight bool
}

// Len returns the number of vertices.
func (s *Streamline) Len() int {
	return len(s.Points)
}

// Length returns the path length, the sum of consecutive point-to-point distances.
func (s *Streamline) Length() float64 {
	var total float64
	for i := 1; i < len(s.Points); i++ {
		total += r3.Norm(r3.Sub(s.Points[i], s.Points[i-1]))
	}
	return total
}
