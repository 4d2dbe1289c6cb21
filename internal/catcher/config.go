// Package catcher maps body skeleton frames onto the catcher: a fixed pool of
// per-joint markers positioned in catcher-local space.
package catcher

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Marker radii in scene units.
const (
	MarkerRadius    = 2.0
	KeyMarkerRadius = 5.0
)

// Box is an axis-aligned bounding box in scene units.
type Box struct {
	Min mgl64.Vec3 `yaml:"min"`
	Max mgl64.Vec3 `yaml:"max"`
}

// Width is |max.x| + |min.x|.
func (b Box) Width() float64 {
	return math.Abs(b.Max.X()) + math.Abs(b.Min.X())
}

// Height is |max.y| + |min.y|.
func (b Box) Height() float64 {
	return math.Abs(b.Max.Y()) + math.Abs(b.Min.Y())
}

// Viewport is the screen size used for calibration bookkeeping.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config holds the catcher geometry.
type Config struct {
	// Box is the catcher's own bounding box, sized to the gate opening.
	Box Box `yaml:"box"`

	// HeightInset is subtracted from the box height to get the visual height
	// markers are spread over.
	HeightInset float64 `yaml:"height_inset"`

	// Anchor is the catcher's position in the scene. Marker positions are
	// relative to it.
	Anchor mgl64.Vec3 `yaml:"anchor"`

	Viewport Viewport `yaml:"viewport"`
}

// DefaultConfig returns a catcher matching a 300x200 gate, placed 160 units
// in front of it.
func DefaultConfig() Config {
	return Config{
		Box: Box{
			Min: mgl64.Vec3{-150, -100, -10},
			Max: mgl64.Vec3{150, 100, 10},
		},
		HeightInset: 20,
		Anchor:      mgl64.Vec3{0, 90, -160},
		Viewport:    Viewport{Width: 1280, Height: 720},
	}
}
