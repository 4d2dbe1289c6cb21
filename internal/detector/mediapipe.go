package detector

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gocv.io/x/gocv"

	"github.com/ayusman/catchball/internal/geometry"
)

// MediaPipe Pose landmark indices used to build a SkeletonFrame.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	poseNose          = 0
	poseLeftEye       = 2
	poseRightEye      = 5
	poseLeftShoulder  = 11
	poseRightShoulder = 12
	poseLeftElbow     = 13
	poseRightElbow    = 14
	poseLeftWrist     = 15
	poseRightWrist    = 16
	poseLeftHip       = 23
	poseRightHip      = 24
	poseLeftKnee      = 25
	poseRightKnee     = 26
	poseLeftAnkle     = 27
	poseRightAnkle    = 28
	poseNumLandmarks  = 33
)

// MediaPipeDetector implements Detector on top of a MediaPipe Pose service
// process. The process starts on the first Detect and exits after
// Config.ServiceIdleTimeout without frames.
type MediaPipeDetector struct {
	config Config
	script string

	mu      sync.Mutex
	service *poseService
	idle    *time.Timer
}

// NewMediaPipeDetector locates the pose service script. It fails when the
// script is not installed, so callers can fall back to another detector.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := locate(scriptCandidates())
	if script == "" {
		return nil, fmt.Errorf("%s not found", serviceScript)
	}
	return &MediaPipeDetector{config: config, script: script}, nil
}

// Detect sends the frame to the pose service and maps the first person it
// reports onto a SkeletonFrame.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*SkeletonFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.service == nil {
		svc, err := startPoseService(d.script, d.config)
		if err != nil {
			return nil, err
		}
		d.service = svc
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	poses, err := d.service.roundTrip(buf.GetBytes())
	if err != nil {
		d.stopLocked()
		return nil, err
	}
	d.armIdle()

	if len(poses) == 0 {
		return nil, ErrNoBody
	}
	skeleton := poses[0].toSkeletonFrame(d.config)
	return &skeleton, nil
}

// Close stops the pose service if it is running.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

func (d *MediaPipeDetector) stopLocked() error {
	if d.idle != nil {
		d.idle.Stop()
		d.idle = nil
	}
	if d.service == nil {
		return nil
	}
	err := d.service.stop()
	d.service = nil
	return err
}

func (d *MediaPipeDetector) armIdle() {
	if d.config.ServiceIdleTimeout <= 0 {
		return
	}
	if d.idle != nil {
		d.idle.Reset(d.config.ServiceIdleTimeout)
		return
	}
	d.idle = time.AfterFunc(d.config.ServiceIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.idle = nil
		if err := d.stopLocked(); err != nil {
			log.Printf("pose service exited: %v", err)
		}
	})
}

// jsonPose represents one detected person from the Python service.
type jsonPose struct {
	Landmarks []jsonLandmark `json:"landmarks"`
}

// jsonLandmark is a MediaPipe pose landmark in normalized image coordinates
// (origin top-left, y pointing down).
type jsonLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// toSkeletonFrame maps the 33 MediaPipe landmarks onto the body joint layout.
// Image y is flipped so the frame is y-up. Joints below the visibility
// threshold come out invalid.
func (p jsonPose) toSkeletonFrame(config Config) SkeletonFrame {
	point := func(i int) geometry.Point {
		if i >= len(p.Landmarks) || p.Landmarks[i].Visibility < config.MinVisibility {
			return geometry.Invalid()
		}
		l := p.Landmarks[i]
		return geometry.Point{X: l.X, Y: 1 - l.Y}
	}
	mid := func(a, b int) geometry.Point {
		pa, pb := point(a), point(b)
		if geometry.IsInvalid(pa) || geometry.IsInvalid(pb) {
			return geometry.Invalid()
		}
		return geometry.Point{X: (pa.X + pb.X) / 2, Y: (pa.Y + pb.Y) / 2}
	}

	points := make([]geometry.Point, NumJoints)
	points[Head] = point(poseNose)
	points[Neck] = mid(poseLeftShoulder, poseRightShoulder)
	points[RightShoulder] = point(poseRightShoulder)
	points[RightElbow] = point(poseRightElbow)
	points[RightHand] = point(poseRightWrist)
	points[LeftShoulder] = point(poseLeftShoulder)
	points[LeftElbow] = point(poseLeftElbow)
	points[LeftHand] = point(poseLeftWrist)
	points[RightHip] = point(poseRightHip)
	points[RightKnee] = point(poseRightKnee)
	points[RightFoot] = point(poseRightAnkle)
	points[LeftHip] = point(poseLeftHip)
	points[LeftKnee] = point(poseLeftKnee)
	points[LeftFoot] = point(poseLeftAnkle)
	points[RightEye] = point(poseRightEye)
	points[LeftEye] = point(poseLeftEye)
	points[Root] = mid(poseLeftHip, poseRightHip)

	frame := NewSkeletonFrame(points)
	if root := points[Root]; !geometry.IsInvalid(root) {
		frame.Root = mgl64.Vec3{(root.X - 0.5) * config.SceneWidth, 0, 0}
		frame.RootTracked = true
	}
	return frame
}
