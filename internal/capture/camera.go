// Package capture reads camera frames with GoCV and decides how often the
// tracking pipeline should look at them.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCameraNotOpen is returned when reading from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Config holds the capture settings.
type Config struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`

	// Mirror flips frames horizontally so the player sees a mirror image.
	Mirror bool `yaml:"mirror"`
}

// DefaultConfig returns a 1280x720 mirrored capture from device 0.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    1280,
		Height:   720,
		Mirror:   true,
	}
}

// Camera is a source of video frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Device captures from a local camera through OpenCV.
type Device struct {
	config  Config
	mu      sync.Mutex
	capture *gocv.VideoCapture
	fps     int
}

// NewDevice creates a closed camera for the configured device.
func NewDevice(config Config) *Device {
	return &Device{config: config, fps: IdleFPS}
}

// Open starts capturing. Opening an open device is a no-op.
func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(d.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", d.config.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(d.config.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(d.config.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(d.fps))

	d.capture = capture
	return nil
}

// Close releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

// ReadFrame reads one frame, mirrored when configured.
func (d *Device) ReadFrame() (*gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := d.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d: empty frame", d.config.DeviceID)
	}

	if d.config.Mirror {
		gocv.Flip(mat, &mat, 1)
	}
	return &mat, nil
}

// SetFPS changes the capture rate. Non-positive values are ignored.
func (d *Device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.fps = fps
	if d.capture != nil {
		d.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (d *Device) FPS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fps
}

func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capture != nil
}
