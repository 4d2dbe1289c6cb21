// Package geometry provides pure helpers over 2D landmark points: extremes,
// vertical/horizontal ranking and normalization into a unit rectangle.
//
// A point whose X or Y is NaN means "not detected this frame". Every helper
// that looks for an extreme skips such points rather than propagating NaN.
package geometry

import (
	"math"
	"sort"
)

// Point is a 2D landmark position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Invalid returns a point that is not detected.
func Invalid() Point {
	return Point{X: math.NaN(), Y: math.NaN()}
}

// Axis selects the coordinate used for ranking.
type Axis int

const (
	// Horizontal ranks by X.
	Horizontal Axis = iota
	// Vertical ranks by Y.
	Vertical
)

func (a Axis) value(p Point) float64 {
	if a == Horizontal {
		return p.X
	}
	return p.Y
}

// IsInvalid reports whether either coordinate of p is NaN.
func IsInvalid(p Point) bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

// Valid returns the points that are not invalid, preserving order.
func Valid(points []Point) []Point {
	valid := make([]Point, 0, len(points))
	for _, p := range points {
		if !IsInvalid(p) {
			valid = append(valid, p)
		}
	}
	return valid
}

// Highest returns the point with the largest Y. On ties the last one wins.
func Highest(points []Point) (Point, bool) {
	return extreme(points, Vertical, true)
}

// Lowest returns the point with the smallest Y. On ties the first one wins.
func Lowest(points []Point) (Point, bool) {
	return extreme(points, Vertical, false)
}

// Innermost returns the point with the smallest X. On ties the first one wins.
func Innermost(points []Point) (Point, bool) {
	return extreme(points, Horizontal, false)
}

// Outermost returns the point with the largest X. On ties the last one wins.
func Outermost(points []Point) (Point, bool) {
	return extreme(points, Horizontal, true)
}

func extreme(points []Point, axis Axis, max bool) (Point, bool) {
	var best Point
	found := false

	for _, p := range points {
		if IsInvalid(p) {
			continue
		}
		if !found {
			best = p
			found = true
			continue
		}

		v, b := axis.value(p), axis.value(best)
		if max && v >= b {
			best = p
		} else if !max && v < b {
			best = p
		}
	}

	return best, found
}

// RankIndices returns the indices of the valid points ordered from the
// highest to the lowest value on axis. The order is a stable ascending sort,
// reversed, so equal values come out with the later index first.
func RankIndices(points []Point, axis Axis) []int {
	indices := make([]int, 0, len(points))
	for i, p := range points {
		if !IsInvalid(p) {
			indices = append(indices, i)
		}
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return axis.value(points[indices[a]]) < axis.value(points[indices[b]])
	})

	for i, j := 0, len(indices)-1; i < j; i, j = i+1, j-1 {
		indices[i], indices[j] = indices[j], indices[i]
	}

	return indices
}

// RankDescending returns the valid points ordered highest first on axis.
func RankDescending(points []Point, axis Axis) []Point {
	indices := RankIndices(points, axis)
	ranked := make([]Point, len(indices))
	for i, idx := range indices {
		ranked[i] = points[idx]
	}
	return ranked
}
