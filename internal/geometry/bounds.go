package geometry

// Bounds holds the four extreme points of a frame.
type Bounds struct {
	Inner   Point `json:"inner"`
	Outer   Point `json:"outer"`
	Lowest  Point `json:"lowest"`
	Highest Point `json:"highest"`
}

// BoundsOf collects the extremes of the valid points.
// It returns false when no point is valid.
func BoundsOf(points []Point) (Bounds, bool) {
	inner, ok := Innermost(points)
	if !ok {
		return Bounds{}, false
	}
	outer, _ := Outermost(points)
	lowest, _ := Lowest(points)
	highest, _ := Highest(points)

	return Bounds{
		Inner:   inner,
		Outer:   outer,
		Lowest:  lowest,
		Highest: highest,
	}, true
}

// Width is the horizontal span between the inner and outer points.
func (b Bounds) Width() float64 {
	return b.Outer.X - b.Inner.X
}

// Height is the vertical span between the lowest and highest points.
func (b Bounds) Height() float64 {
	return b.Highest.Y - b.Lowest.Y
}

// Degenerate reports whether either span is zero, in which case no point can
// be normalized against these bounds.
func (b Bounds) Degenerate() bool {
	return b.Width() == 0 || b.Height() == 0
}

// Normalize maps p into the unit square spanned by b.
// It returns false for degenerate bounds or an invalid point.
func Normalize(p Point, b Bounds) (Point, bool) {
	if IsInvalid(p) || b.Degenerate() {
		return Point{}, false
	}

	return Point{
		X: (p.X - b.Inner.X) / b.Width(),
		Y: (p.Y - b.Lowest.Y) / b.Height(),
	}, true
}

// Affine is a 2D affine transform mapping (x, y) to
// (a*x + c*y + tx, b*x + d*y + ty).
type Affine struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	C  float64 `json:"c"`
	D  float64 `json:"d"`
	Tx float64 `json:"tx"`
	Ty float64 `json:"ty"`
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Scale returns a transform scaling x by sx and y by sy.
func Scale(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// Apply transforms p. Invalid points stay invalid.
func (t Affine) Apply(p Point) Point {
	if IsInvalid(p) {
		return p
	}
	return Point{
		X: t.A*p.X + t.C*p.Y + t.Tx,
		Y: t.B*p.X + t.D*p.Y + t.Ty,
	}
}

// IsZero reports whether t is the zero value, which callers treat as identity.
func (t Affine) IsZero() bool {
	return t == Affine{}
}
