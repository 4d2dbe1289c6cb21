package capture

import (
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNewDevice(t *testing.T) {
	d := NewDevice(DefaultConfig())

	if d.IsOpen() {
		t.Error("device should not be open initially")
	}
	if got := d.FPS(); got != IdleFPS {
		t.Errorf("FPS() = %d, want %d", got, IdleFPS)
	}
	if _, err := d.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() on a closed device = %v", err)
	}
}

func TestDevice_SetFPS(t *testing.T) {
	tests := []struct {
		name string
		fps  int
		want int
	}{
		{"set to 30", 30, 30},
		{"set to 1", 1, 1},
		{"zero keeps previous", 0, 1},
		{"negative keeps previous", -5, 1},
	}

	d := NewDevice(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d.SetFPS(tt.fps)
			if got := d.FPS(); got != tt.want {
				t.Errorf("FPS() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRateGovernor(t *testing.T) {
	start := time.Unix(0, 0)
	g := NewRateGovernor(DefaultRateConfig())

	if g.Active() || g.FPS() != IdleFPS {
		t.Fatalf("new governor active=%v fps=%d, want idle", g.Active(), g.FPS())
	}
	if g.Interval() != 200*time.Millisecond {
		t.Errorf("Interval() = %v, want 200ms", g.Interval())
	}

	t.Run("motion switches to active", func(t *testing.T) {
		fps, changed := g.Observe(start, true, false)
		if fps != ActiveFPS || !changed {
			t.Errorf("Observe() = %d, %v, want %d, true", fps, changed, ActiveFPS)
		}
		fps, changed = g.Observe(start.Add(time.Second), true, false)
		if fps != ActiveFPS || changed {
			t.Errorf("second Observe() = %d, %v, want %d, false", fps, changed, ActiveFPS)
		}
	})

	t.Run("stays active within the timeout", func(t *testing.T) {
		fps, changed := g.Observe(start.Add(2*time.Second), false, false)
		if fps != ActiveFPS || changed {
			t.Errorf("Observe() = %d, %v, want active", fps, changed)
		}
	})

	t.Run("drops to idle after the timeout", func(t *testing.T) {
		fps, changed := g.Observe(start.Add(3500*time.Millisecond), false, false)
		if fps != IdleFPS || !changed {
			t.Errorf("Observe() = %d, %v, want %d, true", fps, changed, IdleFPS)
		}
	})

	t.Run("a running game keeps it active", func(t *testing.T) {
		g := NewRateGovernor(DefaultRateConfig())
		g.Observe(start, false, true)
		fps, _ := g.Observe(start.Add(time.Minute), false, true)
		if fps != ActiveFPS {
			t.Errorf("FPS while playing = %d, want %d", fps, ActiveFPS)
		}
	})
}

func TestSyntheticCamera(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	cam := NewSyntheticCamera(320, 240)
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Fatalf("ReadFrame() before Open = %v", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	frame, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer frame.Close()

	if frame.Cols() != 320 || frame.Rows() != 240 {
		t.Errorf("frame size = %dx%d, want 320x240", frame.Cols(), frame.Rows())
	}

	var _ Camera = cam
	var _ Camera = NewDevice(DefaultConfig())
}

func TestMotionDetector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	t.Run("first frame is the baseline", func(t *testing.T) {
		md := NewMotionDetector(1.0)
		defer md.Close()

		frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
		defer frame.Close()

		if moved, pct := md.Detect(&frame); moved || pct != 0 {
			t.Errorf("Detect() = %v, %f on the first frame", moved, pct)
		}
		if moved, _ := md.Detect(&frame); moved {
			t.Error("identical frames reported motion")
		}
	})

	t.Run("synthetic camera produces motion", func(t *testing.T) {
		md := NewMotionDetector(1.0)
		defer md.Close()

		cam := NewSyntheticCamera(320, 240)
		cam.Open()
		defer cam.Close()

		moved := false
		for i := 0; i < 5; i++ {
			frame, err := cam.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame() error = %v", err)
			}
			if m, _ := md.Detect(frame); m {
				moved = true
			}
			frame.Close()
		}
		if !moved {
			t.Error("sweeping block should be detected as motion")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		md := NewMotionDetector(1.0)
		defer md.Close()
		if moved, _ := md.Detect(nil); moved {
			t.Error("nil frame reported motion")
		}
	})
}
