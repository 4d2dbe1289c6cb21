package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrNoBody is returned by Detect when the frame contains no person.
var ErrNoBody = errors.New("no body detected")

// Detector defines the interface for body pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the skeleton of the most
	// prominent person. Returns ErrNoBody if nobody is in the frame.
	Detect(frame *gocv.Mat) (*SkeletonFrame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// MinVisibility is the landmark visibility below which a joint is
	// reported as not detected (0.0-1.0).
	MinVisibility float64 `yaml:"min_visibility"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// SceneWidth is the real-world width in meters covered by the camera at
	// the player's distance. It converts the image-space body position into
	// the world-space root.
	SceneWidth float64 `yaml:"scene_width"`

	// ServiceIdleTimeout stops the pose service after this long without
	// frames. Zero keeps it running until Close.
	ServiceIdleTimeout time.Duration `yaml:"service_idle_timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinVisibility:   0.5,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		SceneWidth:      3.0,

		ServiceIdleTimeout: 30 * time.Second,
	}
}
