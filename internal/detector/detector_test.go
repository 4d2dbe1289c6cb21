package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/catchball/internal/geometry"
)

const epsilon = 1e-9

func TestRoleForJoint(t *testing.T) {
	tests := []struct {
		index int
		want  JointRole
	}{
		{Head, RoleHead},
		{LeftHand, RoleLeftHand},
		{RightHand, RoleRightHand},
		{LeftFoot, RoleLeftFoot},
		{RightFoot, RoleRightFoot},
		{Neck, RoleOther},
		{LeftElbow, RoleOther},
		{Root, RoleOther},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			if got := RoleForJoint(tt.index); got != tt.want {
				t.Errorf("RoleForJoint(%d) = %v, want %v", tt.index, got, tt.want)
			}
		})
	}

	t.Run("exactly five key joints", func(t *testing.T) {
		keys := 0
		for i := 0; i < NumJoints; i++ {
			if RoleForJoint(i).Key() {
				keys++
			}
		}
		if keys != 5 {
			t.Errorf("key joints = %d, want 5", keys)
		}
	})
}

func TestSkeletonFrame(t *testing.T) {
	frame := StandingSkeleton()

	t.Run("has a sample per joint", func(t *testing.T) {
		if len(frame.Joints) != NumJoints {
			t.Fatalf("len(Joints) = %d, want %d", len(frame.Joints), NumJoints)
		}
		if len(frame.Points()) != NumJoints {
			t.Errorf("len(Points()) = %d, want %d", len(frame.Points()), NumJoints)
		}
	})

	t.Run("finds landmarks by role", func(t *testing.T) {
		idx, p, ok := frame.Landmark(RoleLeftHand)
		if !ok || idx != LeftHand {
			t.Fatalf("Landmark(left-hand) = %d, %v", idx, ok)
		}
		if p != frame.Joints[LeftHand].Position {
			t.Errorf("position = %v, want %v", p, frame.Joints[LeftHand].Position)
		}
	})

	t.Run("missing role", func(t *testing.T) {
		empty := NewSkeletonFrame([]geometry.Point{{X: 0, Y: 0}})
		if _, _, ok := empty.Landmark(RoleRightFoot); ok {
			t.Error("expected no right foot in a single joint frame")
		}
	})

	t.Run("screen points use the transform", func(t *testing.T) {
		f := StandingSkeleton()
		f.Transform = geometry.Scale(100, 50)
		head := f.ScreenPoints()[Head]
		if math.Abs(head.X-50) > epsilon || math.Abs(head.Y-45) > epsilon {
			t.Errorf("head on screen = %v, want (50, 45)", head)
		}
	})

	t.Run("zero transform is identity", func(t *testing.T) {
		f := StandingSkeleton()
		f.Transform = geometry.Affine{}
		if got := f.ScreenPoints()[Head]; got != f.Joints[Head].Position {
			t.Errorf("head = %v, want %v", got, f.Joints[Head].Position)
		}
	})
}

func TestPoseMapping(t *testing.T) {
	landmarks := make([]jsonLandmark, poseNumLandmarks)
	for i := range landmarks {
		landmarks[i] = jsonLandmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	landmarks[poseNose] = jsonLandmark{X: 0.5, Y: 0.1, Visibility: 0.99}
	landmarks[poseLeftWrist] = jsonLandmark{X: 0.7, Y: 0.05, Visibility: 0.9}
	landmarks[poseRightWrist] = jsonLandmark{X: 0.3, Y: 0.4, Visibility: 0.1}
	landmarks[poseLeftHip] = jsonLandmark{X: 0.6, Y: 0.6, Visibility: 0.9}
	landmarks[poseRightHip] = jsonLandmark{X: 0.4, Y: 0.6, Visibility: 0.9}

	config := DefaultConfig()
	frame := jsonPose{Landmarks: landmarks}.toSkeletonFrame(config)

	t.Run("flips image y", func(t *testing.T) {
		head := frame.Joints[Head].Position
		if math.Abs(head.Y-0.9) > epsilon {
			t.Errorf("head.Y = %f, want 0.9", head.Y)
		}
		if frame.Joints[LeftHand].Position.Y <= head.Y {
			t.Error("left hand above the nose in the image must be above it in the frame")
		}
	})

	t.Run("low visibility is invalid", func(t *testing.T) {
		if !geometry.IsInvalid(frame.Joints[RightHand].Position) {
			t.Errorf("right hand = %v, want invalid", frame.Joints[RightHand].Position)
		}
	})

	t.Run("root from hip center", func(t *testing.T) {
		if !frame.RootTracked {
			t.Fatal("expected root to be tracked")
		}
		if math.Abs(frame.Root.X()) > epsilon {
			t.Errorf("root x = %f, want 0 for a centered body", frame.Root.X())
		}
	})

	t.Run("short landmark list", func(t *testing.T) {
		short := jsonPose{Landmarks: landmarks[:3]}.toSkeletonFrame(config)
		if len(short.Joints) != NumJoints {
			t.Fatalf("len(Joints) = %d, want %d", len(short.Joints), NumJoints)
		}
		if !geometry.IsInvalid(short.Joints[LeftFoot].Position) {
			t.Error("missing landmarks should map to invalid joints")
		}
		if short.RootTracked {
			t.Error("root should not be tracked without hips")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("reports no body by default", func(t *testing.T) {
		m := NewMockDetector()
		frame, err := m.Detect(nil)
		if !errors.Is(err, ErrNoBody) {
			t.Errorf("Detect() error = %v, want ErrNoBody", err)
		}
		if frame != nil {
			t.Errorf("Detect() frame = %v, want nil", frame)
		}
	})

	t.Run("returns configured frame", func(t *testing.T) {
		m := NewMockDetector()
		want := HandsUpSkeleton()
		m.SetFrame(&want)

		got, err := m.Detect(nil)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if got.Joints[LeftHand] != want.Joints[LeftHand] {
			t.Errorf("left hand = %v, want %v", got.Joints[LeftHand], want.Joints[LeftHand])
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		m := NewMockDetector()
		wantErr := errors.New("detection failed")
		m.SetError(wantErr)

		if _, err := m.Detect(nil); !errors.Is(err, wantErr) {
			t.Errorf("Detect() error = %v, want %v", err, wantErr)
		}
	})

	t.Run("script advances and repeats the last frame", func(t *testing.T) {
		m := NewMockDetector()
		m.SetScript([]SkeletonFrame{StandingSkeleton(), HandsUpSkeleton()})

		first, _ := m.Detect(nil)
		second, _ := m.Detect(nil)
		third, _ := m.Detect(nil)

		if first.Joints[LeftHand] == second.Joints[LeftHand] {
			t.Error("expected the script to advance")
		}
		if second.Joints[LeftHand] != third.Joints[LeftHand] {
			t.Error("expected the last scripted frame to repeat")
		}
		if m.Calls() != 3 {
			t.Errorf("Calls() = %d, want 3", m.Calls())
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = NewMockDetector()
	})
}

func TestFixtures(t *testing.T) {
	t.Run("hands up makes the hands the two highest joints", func(t *testing.T) {
		frame := HandsUpSkeleton()
		ranked := geometry.RankIndices(frame.Points(), geometry.Vertical)
		top := map[int]bool{ranked[0]: true, ranked[1]: true}
		if !top[LeftHand] || !top[RightHand] {
			t.Errorf("top two joints = %v, want both hands", ranked[:2])
		}
	})

	t.Run("partial skeleton hides the legs", func(t *testing.T) {
		frame := PartialSkeleton()
		if !geometry.IsInvalid(frame.Joints[LeftFoot].Position) {
			t.Error("left foot should be invalid")
		}
		if geometry.IsInvalid(frame.Joints[Head].Position) {
			t.Error("head should be valid")
		}
	})
}

func TestShiftedSkeleton(t *testing.T) {
	base := StandingSkeleton()
	shifted := ShiftedSkeleton(base, 0.1, 3)

	if math.Abs(shifted.Joints[Head].Position.X-(base.Joints[Head].Position.X+0.1)) > epsilon {
		t.Errorf("head x = %f", shifted.Joints[Head].Position.X)
	}
	if math.Abs(shifted.Root.X()-0.3) > epsilon {
		t.Errorf("root x = %f, want 0.3", shifted.Root.X())
	}
	if base.Joints[Head].Position.X != 0.50 {
		t.Error("ShiftedSkeleton must not modify its input")
	}

	partial := ShiftedSkeleton(PartialSkeleton(), 0.1, 3)
	if !geometry.IsInvalid(partial.Joints[LeftFoot].Position) {
		t.Error("invalid joints must stay invalid")
	}
}

func TestSimulationScript(t *testing.T) {
	script := SimulationScript(10, 3)
	if len(script) != 10+40+80 {
		t.Fatalf("len(script) = %d, want 130", len(script))
	}

	raised := 0
	for _, frame := range script {
		ranked := geometry.RankIndices(frame.Points(), geometry.Vertical)
		top := map[int]bool{ranked[0]: true, ranked[1]: true}
		if top[LeftHand] && top[RightHand] {
			raised++
		}
	}
	if raised != 120 {
		t.Errorf("frames with both hands up = %d, want 120", raised)
	}
}

func TestPoseServiceProtocol(t *testing.T) {
	t.Run("frame is length prefixed", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeFrame(&buf, []byte("jpeg")); err != nil {
			t.Fatalf("writeFrame() error = %v", err)
		}
		got := buf.Bytes()
		if n := binary.BigEndian.Uint32(got[:4]); n != 4 {
			t.Errorf("length = %d, want 4", n)
		}
		if string(got[4:]) != "jpeg" {
			t.Errorf("payload = %q, want %q", got[4:], "jpeg")
		}
	})

	t.Run("reads one reply per line", func(t *testing.T) {
		input := `{"poses":[{"landmarks":[{"x":0.5,"y":0.1,"visibility":0.9}]}]}` + "\n" + `{"poses":[]}` + "\n"
		r := bufio.NewReader(strings.NewReader(input))

		poses, err := readPoses(r)
		if err != nil {
			t.Fatalf("readPoses() error = %v", err)
		}
		if len(poses) != 1 || len(poses[0].Landmarks) != 1 {
			t.Fatalf("poses = %+v, want one pose with one landmark", poses)
		}
		if poses[0].Landmarks[0].Visibility != 0.9 {
			t.Errorf("visibility = %v, want 0.9", poses[0].Landmarks[0].Visibility)
		}

		poses, err = readPoses(r)
		if err != nil || len(poses) != 0 {
			t.Errorf("second readPoses() = %v, %v, want no poses", poses, err)
		}
	})

	t.Run("malformed reply", func(t *testing.T) {
		if _, err := readPoses(bufio.NewReader(strings.NewReader("not json\n"))); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("closed stream", func(t *testing.T) {
		if _, err := readPoses(bufio.NewReader(strings.NewReader(""))); err == nil {
			t.Error("expected a read error")
		}
	})
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "pose_service.py")
	if err := os.WriteFile(present, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := locate([]string{filepath.Join(dir, "missing.py"), present}); got != present {
		t.Errorf("locate() = %q, want %q", got, present)
	}
	if got := locate([]string{filepath.Join(dir, "missing.py")}); got != "" {
		t.Errorf("locate() = %q, want empty", got)
	}
}
