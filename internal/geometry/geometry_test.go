package geometry

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"valid", Point{X: 0.3, Y: 0.7}, false},
		{"nan x", Point{X: math.NaN(), Y: 0.7}, true},
		{"nan y", Point{X: 0.3, Y: math.NaN()}, true},
		{"both nan", Invalid(), true},
		{"infinite is still a number", Point{X: math.Inf(1), Y: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInvalid(tt.p); got != tt.want {
				t.Errorf("IsInvalid(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestExtremes(t *testing.T) {
	points := []Point{
		{X: 0.5, Y: 0.9},
		{X: 0.1, Y: 0.4},
		Invalid(),
		{X: 0.8, Y: 0.1},
		{X: 0.4, Y: 0.5},
	}

	t.Run("highest", func(t *testing.T) {
		got, ok := Highest(points)
		if !ok || got != points[0] {
			t.Errorf("Highest() = %v, %v; want %v", got, ok, points[0])
		}
	})

	t.Run("lowest", func(t *testing.T) {
		got, ok := Lowest(points)
		if !ok || got != points[3] {
			t.Errorf("Lowest() = %v, %v; want %v", got, ok, points[3])
		}
	})

	t.Run("innermost", func(t *testing.T) {
		got, ok := Innermost(points)
		if !ok || got != points[1] {
			t.Errorf("Innermost() = %v, %v; want %v", got, ok, points[1])
		}
	})

	t.Run("outermost", func(t *testing.T) {
		got, ok := Outermost(points)
		if !ok || got != points[3] {
			t.Errorf("Outermost() = %v, %v; want %v", got, ok, points[3])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, ok := Highest(nil); ok {
			t.Error("Highest(nil) should report no point")
		}
		if _, ok := Innermost([]Point{}); ok {
			t.Error("Innermost(empty) should report no point")
		}
	})

	t.Run("all invalid", func(t *testing.T) {
		if _, ok := Lowest([]Point{Invalid(), Invalid()}); ok {
			t.Error("Lowest() of invalid points should report no point")
		}
	})
}

func TestExtremes_Ties(t *testing.T) {
	points := []Point{
		{X: 0.2, Y: 0.5},
		{X: 0.4, Y: 0.5},
		{X: 0.2, Y: 0.1},
	}

	// Max-style extremes keep the last of equal values, min-style the first.
	if got, _ := Highest(points); got != points[1] {
		t.Errorf("Highest() = %v, want last tied point %v", got, points[1])
	}
	if got, _ := Innermost(points); got != points[0] {
		t.Errorf("Innermost() = %v, want first tied point %v", got, points[0])
	}
}

func TestRankDescending(t *testing.T) {
	points := []Point{
		{X: 0.1, Y: 0.2},
		{X: 0.2, Y: 0.9},
		Invalid(),
		{X: 0.3, Y: 0.5},
	}

	t.Run("vertical", func(t *testing.T) {
		got := RankDescending(points, Vertical)
		want := []Point{points[1], points[3], points[0]}
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("rank[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("horizontal indices", func(t *testing.T) {
		got := RankIndices(points, Horizontal)
		want := []int{3, 1, 0}
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("index[%d] = %d, want %d", i, got[i], want[i])
			}
		}
	})

	t.Run("ties put later index first", func(t *testing.T) {
		tied := []Point{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 0}}
		got := RankIndices(tied, Vertical)
		if got[0] != 1 || got[1] != 0 || got[2] != 2 {
			t.Errorf("RankIndices() = %v, want [1 0 2]", got)
		}
	})
}

func TestNormalize(t *testing.T) {
	bounds := Bounds{
		Inner:   Point{X: 0.2, Y: 0.5},
		Outer:   Point{X: 0.6, Y: 0.5},
		Lowest:  Point{X: 0.4, Y: 0.1},
		Highest: Point{X: 0.4, Y: 0.9},
	}

	tests := []struct {
		name  string
		p     Point
		wantX float64
		wantY float64
	}{
		{"inner lowest corner", Point{X: 0.2, Y: 0.1}, 0, 0},
		{"outer highest corner", Point{X: 0.6, Y: 0.9}, 1, 1},
		{"center", Point{X: 0.4, Y: 0.5}, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.p, bounds)
			if !ok {
				t.Fatal("Normalize() reported failure")
			}
			if !approxEqual(got.X, tt.wantX) || !approxEqual(got.Y, tt.wantY) {
				t.Errorf("Normalize(%v) = %v, want (%f, %f)", tt.p, got, tt.wantX, tt.wantY)
			}
		})
	}

	t.Run("zero width", func(t *testing.T) {
		flat := bounds
		flat.Outer = flat.Inner
		if _, ok := Normalize(Point{X: 0.2, Y: 0.5}, flat); ok {
			t.Error("expected failure for zero width bounds")
		}
	})

	t.Run("zero height", func(t *testing.T) {
		flat := bounds
		flat.Highest = flat.Lowest
		if _, ok := Normalize(Point{X: 0.2, Y: 0.1}, flat); ok {
			t.Error("expected failure for zero height bounds")
		}
	})

	t.Run("invalid point", func(t *testing.T) {
		if _, ok := Normalize(Invalid(), bounds); ok {
			t.Error("expected failure for invalid point")
		}
	})
}

func TestBoundsOf(t *testing.T) {
	points := []Point{{X: 0.3, Y: 0.2}, Invalid(), {X: 0.7, Y: 0.8}}

	b, ok := BoundsOf(points)
	if !ok {
		t.Fatal("BoundsOf() reported no bounds")
	}
	if !approxEqual(b.Width(), 0.4) || !approxEqual(b.Height(), 0.6) {
		t.Errorf("bounds = %vx%v, want 0.4x0.6", b.Width(), b.Height())
	}

	if _, ok := BoundsOf([]Point{Invalid()}); ok {
		t.Error("BoundsOf() of invalid points should fail")
	}
}

func TestAffine_Apply(t *testing.T) {
	p := Point{X: 0.25, Y: 0.5}

	if got := Identity().Apply(p); got != p {
		t.Errorf("Identity().Apply() = %v, want %v", got, p)
	}

	got := Scale(80, 24).Apply(p)
	if !approxEqual(got.X, 20) || !approxEqual(got.Y, 12) {
		t.Errorf("Scale().Apply() = %v, want (20, 12)", got)
	}

	if !IsInvalid(Scale(2, 2).Apply(Invalid())) {
		t.Error("Apply() should keep invalid points invalid")
	}
}
