package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/catchball/internal/geometry"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results. When a script is set,
// each Detect call returns the next scripted frame and the last one repeats.
type MockDetector struct {
	mu     sync.Mutex
	frame  *SkeletonFrame
	script []SkeletonFrame
	pos    int
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFrame sets the skeleton that will be returned by Detect.
// A nil frame makes Detect report ErrNoBody.
func (m *MockDetector) SetFrame(frame *SkeletonFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frame = frame
	m.script = nil
}

// SetScript sets a sequence of frames returned one per Detect call.
func (m *MockDetector) SetScript(frames []SkeletonFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = frames
	m.pos = 0
	m.frame = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured frame or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*SkeletonFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	if len(m.script) > 0 {
		next := m.script[m.pos]
		if m.pos < len(m.script)-1 {
			m.pos++
		}
		return &next, nil
	}

	if m.frame == nil {
		return nil, ErrNoBody
	}
	result := *m.frame
	return &result, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// StandingSkeleton returns a person standing upright with arms down.
// Coordinates are normalized and y-up.
func StandingSkeleton() SkeletonFrame {
	points := make([]geometry.Point, NumJoints)

	points[Head] = geometry.Point{X: 0.50, Y: 0.90}
	points[LeftEye] = geometry.Point{X: 0.52, Y: 0.92}
	points[RightEye] = geometry.Point{X: 0.48, Y: 0.92}
	points[Neck] = geometry.Point{X: 0.50, Y: 0.80}

	points[LeftShoulder] = geometry.Point{X: 0.60, Y: 0.78}
	points[LeftElbow] = geometry.Point{X: 0.63, Y: 0.62}
	points[LeftHand] = geometry.Point{X: 0.65, Y: 0.48}
	points[RightShoulder] = geometry.Point{X: 0.40, Y: 0.78}
	points[RightElbow] = geometry.Point{X: 0.37, Y: 0.62}
	points[RightHand] = geometry.Point{X: 0.35, Y: 0.48}

	points[Root] = geometry.Point{X: 0.50, Y: 0.50}
	points[LeftHip] = geometry.Point{X: 0.56, Y: 0.50}
	points[LeftKnee] = geometry.Point{X: 0.57, Y: 0.28}
	points[LeftFoot] = geometry.Point{X: 0.58, Y: 0.06}
	points[RightHip] = geometry.Point{X: 0.44, Y: 0.50}
	points[RightKnee] = geometry.Point{X: 0.43, Y: 0.28}
	points[RightFoot] = geometry.Point{X: 0.42, Y: 0.06}

	frame := NewSkeletonFrame(points)
	frame.RootTracked = true
	return frame
}

// HandsUpSkeleton returns the standing person with both hands raised above
// the head, making the hands the two highest joints.
func HandsUpSkeleton() SkeletonFrame {
	frame := StandingSkeleton()
	frame.Joints[LeftElbow].Position = geometry.Point{X: 0.64, Y: 0.90}
	frame.Joints[LeftHand].Position = geometry.Point{X: 0.66, Y: 0.99}
	frame.Joints[RightElbow].Position = geometry.Point{X: 0.36, Y: 0.90}
	frame.Joints[RightHand].Position = geometry.Point{X: 0.34, Y: 0.98}
	return frame
}

// PartialSkeleton returns the standing person with the lower body out of
// view: hips, knees and feet are not detected.
func PartialSkeleton() SkeletonFrame {
	frame := StandingSkeleton()
	for _, i := range []int{LeftHip, LeftKnee, LeftFoot, RightHip, RightKnee, RightFoot, Root} {
		frame.Joints[i].Position = geometry.Invalid()
	}
	frame.RootTracked = false
	return frame
}

// ShiftedSkeleton returns frame moved sideways by dx in normalized image
// units. The root moves by the same amount scaled to sceneWidth meters.
func ShiftedSkeleton(frame SkeletonFrame, dx, sceneWidth float64) SkeletonFrame {
	shifted := frame
	shifted.Joints = make([]JointSample, len(frame.Joints))
	copy(shifted.Joints, frame.Joints)

	for i := range shifted.Joints {
		p := shifted.Joints[i].Position
		if geometry.IsInvalid(p) {
			continue
		}
		shifted.Joints[i].Position = geometry.Point{X: p.X + dx, Y: p.Y}
	}
	shifted.Root[0] += dx * sceneWidth
	return shifted
}

// SimulationScript returns a scripted player for running without a camera:
// standing for a second, hands raised long enough for the countdown, then
// swaying from side to side with the hands up. Frame counts assume fps
// frames per second.
func SimulationScript(fps int, sceneWidth float64) []SkeletonFrame {
	var script []SkeletonFrame
	for i := 0; i < fps; i++ {
		script = append(script, StandingSkeleton())
	}
	for i := 0; i < 4*fps; i++ {
		script = append(script, HandsUpSkeleton())
	}

	sway := 8 * fps
	for i := 0; i < sway; i++ {
		dx := 0.1 * math.Sin(2*math.Pi*float64(i)/float64(2*fps))
		script = append(script, ShiftedSkeleton(HandsUpSkeleton(), dx, sceneWidth))
	}
	return script
}
