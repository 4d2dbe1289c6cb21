package catcher

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/catchball/internal/detector"
	"github.com/ayusman/catchball/internal/geometry"
)

// Marker is the catcher-side indicator bound to one joint slot.
type Marker struct {
	Index       int                `json:"index"`
	Role        detector.JointRole `json:"role"`
	Visible     bool               `json:"visible"`
	Highlighted bool               `json:"highlighted"`
	Position    mgl64.Vec3         `json:"position"`
	Radius      float64            `json:"radius"`
}

// Result is the outcome of one tracking update.
type Result struct {
	Markers         []Marker `json:"markers"`
	BothHandsRaised bool     `json:"both_hands_raised"`

	// Repositioned is false when the frame's bounds were degenerate and no
	// marker moved.
	Repositioned bool `json:"repositioned"`
}

// Calibration holds the real-person scale factors measured on the last
// frame: catcher size divided by the on-screen joint span.
type Calibration struct {
	HeightScale float64 `json:"height_scale"`
	WidthScale  float64 `json:"width_scale"`
}

// Tracker owns the marker pool and the lateral follow of the player.
// It is not safe for concurrent use; the owner serializes calls.
type Tracker struct {
	config      Config
	markers     []Marker
	allocated   bool
	offset      float64
	origin      mgl64.Vec3
	hasOrigin   bool
	calibration Calibration
}

// NewTracker creates a tracker with no markers allocated.
func NewTracker(config Config) *Tracker {
	return &Tracker{config: config}
}

// Allocate creates one marker per joint. Only the first call has an effect;
// it returns false for every later call.
func (t *Tracker) Allocate(jointCount int) bool {
	if t.allocated {
		return false
	}

	t.markers = make([]Marker, jointCount)
	for i := range t.markers {
		t.markers[i] = Marker{
			Index:  i,
			Role:   detector.RoleForJoint(i),
			Radius: MarkerRadius,
		}
	}
	t.allocated = true
	return true
}

// Allocated reports whether the marker pool exists.
func (t *Tracker) Allocated() bool {
	return t.allocated
}

// Config returns the catcher configuration.
func (t *Tracker) Config() Config {
	return t.config
}

// VisualSize returns the width and height markers are spread over.
func (t *Tracker) VisualSize() (float64, float64) {
	return t.config.Box.Width(), t.config.Box.Height() - t.config.HeightInset
}

// UpdateOffset recomputes the lateral offset from the player's displacement
// in meters. Small displacements follow proportionally, larger ones clamp to
// the catcher's half width.
func (t *Tracker) UpdateOffset(deltaMeters float64) {
	minX := t.config.Box.Min.X()

	switch {
	case deltaMeters > -1 && deltaMeters < 1:
		t.offset = math.Abs(minX) * deltaMeters
	case deltaMeters > 1:
		t.offset = minX
	default:
		t.offset = -minX
	}
}

// Offset returns the current lateral offset.
func (t *Tracker) Offset() float64 {
	return t.offset
}

// SetOrigin stores the body position the lateral offset is measured from.
func (t *Tracker) SetOrigin(root mgl64.Vec3) {
	t.origin = root
	t.hasOrigin = true
}

// Origin returns the stored body reference position.
func (t *Tracker) Origin() (mgl64.Vec3, bool) {
	return t.origin, t.hasOrigin
}

// TrackBody updates the lateral offset from the current body position.
// It does nothing until an origin has been set.
func (t *Tracker) TrackBody(root mgl64.Vec3) bool {
	if !t.hasOrigin {
		return false
	}
	t.UpdateOffset(t.origin.X() - root.X())
	return true
}

// Calibration returns the scale factors from the last update.
func (t *Tracker) Calibration() Calibration {
	return t.calibration
}

// Markers returns a copy of the marker pool.
func (t *Tracker) Markers() []Marker {
	markers := make([]Marker, len(t.markers))
	copy(markers, t.markers)
	return markers
}

// WorldPosition returns a marker's position in the scene.
func (t *Tracker) WorldPosition(m Marker) mgl64.Vec3 {
	return t.config.Anchor.Add(m.Position)
}

// Update re-projects the frame's joints onto the markers. Before Allocate it
// does nothing and returns an empty result.
func (t *Tracker) Update(frame detector.SkeletonFrame) Result {
	if !t.allocated {
		return Result{}
	}

	points := frame.Points()
	width, height := t.VisualSize()

	bounds, ok := geometry.BoundsOf(points)
	if ok {
		t.calibrate(width, height, bounds)
	}

	repositioned := false
	for i := range t.markers {
		m := &t.markers[i]

		if i >= len(frame.Joints) {
			m.Visible = false
			continue
		}

		sample := frame.Joints[i]
		m.Role = sample.Role

		if geometry.IsInvalid(sample.Position) {
			m.Visible = false
			continue
		}

		m.Visible = true
		m.Highlighted = sample.Role.Key()
		if m.Highlighted {
			m.Radius = KeyMarkerRadius
		} else {
			m.Radius = MarkerRadius
		}

		normalized, ok := geometry.Normalize(sample.Position, bounds)
		if !ok {
			continue
		}

		m.Position = t.project(normalized, width, height)
		repositioned = true
	}

	return Result{
		Markers:         t.Markers(),
		BothHandsRaised: BothHandsRaised(frame),
		Repositioned:    repositioned,
	}
}

// project maps a normalized y-up point into catcher-local space. The x axis
// is mirrored so the catcher faces the player.
func (t *Tracker) project(n geometry.Point, width, height float64) mgl64.Vec3 {
	boxMin := t.config.Box.Min

	cx := n.X * width
	cy := (1 - n.Y) * height

	return mgl64.Vec3{
		-(cx+boxMin.X())/2 + t.offset,
		-(cy + boxMin.Y()),
		0,
	}
}

func (t *Tracker) calibrate(width, height float64, b geometry.Bounds) {
	vertical := math.Abs(b.Highest.Y-b.Lowest.Y) * t.config.Viewport.Height
	horizontal := (math.Abs(b.Outer.X) - math.Abs(b.Inner.X)) * t.config.Viewport.Width

	if vertical != 0 {
		t.calibration.HeightScale = height / vertical
	}
	if horizontal != 0 {
		t.calibration.WidthScale = width / horizontal
	}
}

// BothHandsRaised reports whether the left and right hand are exactly the two
// highest valid joints of the frame. A missing or undetected hand is false.
func BothHandsRaised(frame detector.SkeletonFrame) bool {
	left, leftPos, ok := frame.Landmark(detector.RoleLeftHand)
	if !ok || geometry.IsInvalid(leftPos) {
		return false
	}
	right, rightPos, ok := frame.Landmark(detector.RoleRightHand)
	if !ok || geometry.IsInvalid(rightPos) {
		return false
	}

	ranked := geometry.RankIndices(frame.Points(), geometry.Vertical)
	if len(ranked) < 2 {
		return false
	}

	top := ranked[:2]
	return (top[0] == left && top[1] == right) || (top[0] == right && top[1] == left)
}
