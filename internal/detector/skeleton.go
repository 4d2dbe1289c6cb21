// Package detector provides body pose detection interfaces and the skeleton
// frame types consumed by the catcher.
package detector

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/catchball/internal/geometry"
)

// Body joint indices of a SkeletonFrame. The order is stable across frames so
// a joint index always maps to the same marker.
const (
	Head          = 0
	Neck          = 1
	RightShoulder = 2
	RightElbow    = 3
	RightHand     = 4
	LeftShoulder  = 5
	LeftElbow     = 6
	LeftHand      = 7
	RightHip      = 8
	RightKnee     = 9
	RightFoot     = 10
	LeftHip       = 11
	LeftKnee      = 12
	LeftFoot      = 13
	RightEye      = 14
	LeftEye       = 15
	Root          = 16
	NumJoints     = 17
)

// JointRole classifies a joint for highlighting and the raised-hands test.
type JointRole int

const (
	RoleOther JointRole = iota
	RoleHead
	RoleLeftHand
	RoleRightHand
	RoleLeftFoot
	RoleRightFoot
)

var roleNames = map[JointRole]string{
	RoleOther:     "other",
	RoleHead:      "head",
	RoleLeftHand:  "left-hand",
	RoleRightHand: "right-hand",
	RoleLeftFoot:  "left-foot",
	RoleRightFoot: "right-foot",
}

// String returns the role name used in JSON and logs.
func (r JointRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "other"
}

// MarshalText implements encoding.TextMarshaler.
func (r JointRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Key reports whether the role is one of the five highlighted joints:
// both hands, both feet and the head.
func (r JointRole) Key() bool {
	return r != RoleOther
}

// RoleForJoint returns the role of the joint at index i.
func RoleForJoint(i int) JointRole {
	switch i {
	case Head:
		return RoleHead
	case LeftHand:
		return RoleLeftHand
	case RightHand:
		return RoleRightHand
	case LeftFoot:
		return RoleLeftFoot
	case RightFoot:
		return RoleRightFoot
	default:
		return RoleOther
	}
}

// JointSample is one joint of a frame. Position is invalid (NaN) when the
// joint was not detected.
type JointSample struct {
	Role     JointRole      `json:"role"`
	Position geometry.Point `json:"position"`
}

// SkeletonFrame is a single body tracking result. Positions use a y-up
// convention: a larger Y is higher on screen.
type SkeletonFrame struct {
	Joints    []JointSample   `json:"joints"`
	Transform geometry.Affine `json:"transform"`

	// Root is the body anchor in world space (meters). RootTracked is false
	// when the detector could not place the body.
	Root        mgl64.Vec3 `json:"root"`
	RootTracked bool       `json:"root_tracked"`

	Timestamp time.Time `json:"timestamp"`
}

// NewSkeletonFrame builds a frame from positions indexed by joint, assigning
// each joint its role.
func NewSkeletonFrame(points []geometry.Point) SkeletonFrame {
	joints := make([]JointSample, len(points))
	for i, p := range points {
		joints[i] = JointSample{Role: RoleForJoint(i), Position: p}
	}
	return SkeletonFrame{
		Joints:    joints,
		Transform: geometry.Identity(),
		Timestamp: time.Now(),
	}
}

// Points returns the joint positions in index order.
func (f SkeletonFrame) Points() []geometry.Point {
	points := make([]geometry.Point, len(f.Joints))
	for i, j := range f.Joints {
		points[i] = j.Position
	}
	return points
}

// Landmark returns the index and position of the first joint with the given
// role. It returns false when no joint carries that role.
func (f SkeletonFrame) Landmark(role JointRole) (int, geometry.Point, bool) {
	for i, j := range f.Joints {
		if j.Role == role {
			return i, j.Position, true
		}
	}
	return -1, geometry.Point{}, false
}

// ScreenPoints maps the joint positions through the frame transform.
// A zero transform is treated as identity.
func (f SkeletonFrame) ScreenPoints() []geometry.Point {
	transform := f.Transform
	if transform.IsZero() {
		transform = geometry.Identity()
	}
	points := make([]geometry.Point, len(f.Joints))
	for i, j := range f.Joints {
		points[i] = transform.Apply(j.Position)
	}
	return points
}
