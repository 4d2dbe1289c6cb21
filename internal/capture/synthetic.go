package capture

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// SyntheticCamera renders frames instead of reading a device: a dark
// background with a bright block that sweeps across it, so motion gating
// sees activity. It drives the pipeline when no camera is attached.
type SyntheticCamera struct {
	width  int
	height int

	mu    sync.Mutex
	open  bool
	frame int
	fps   int
}

// NewSyntheticCamera creates a closed synthetic camera.
func NewSyntheticCamera(width, height int) *SyntheticCamera {
	return &SyntheticCamera{width: width, height: height, fps: IdleFPS}
}

func (c *SyntheticCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.frame = 0
	return nil
}

func (c *SyntheticCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// ReadFrame renders the next frame.
func (c *SyntheticCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
	size := c.height / 4
	span := c.width - size
	if span < 1 {
		span = 1
	}
	x := (c.frame * size / 2) % span
	block := image.Rect(x, c.height/2-size/2, x+size, c.height/2+size/2)
	gocv.Rectangle(&mat, block, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	c.frame++
	return &mat, nil
}

func (c *SyntheticCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *SyntheticCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *SyntheticCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
