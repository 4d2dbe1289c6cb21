// Package ball routes physics contacts to catches and misses and owns the
// ball's respawn cycle.
package ball

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind names a scene participant.
type Kind int

const (
	KindUnknown Kind = iota
	KindBall
	KindNet
	KindMarker
	KindWall
	KindField
	KindGate
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindBall:    "ball",
	KindNet:     "net",
	KindMarker:  "marker",
	KindWall:    "wall",
	KindField:   "field",
	KindGate:    "gate",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind returns the Kind for a participant name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name && k != KindUnknown {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown participant %q", name)
}

// Participant is one side of a contact. Index is the joint slot for markers.
type Participant struct {
	Kind        Kind `json:"kind"`
	Index       int  `json:"index"`
	Highlighted bool `json:"highlighted,omitempty"`
}

// Contact is a begin-contact event between two participants.
type Contact struct {
	A Participant `json:"a"`
	B Participant `json:"b"`
}

// Other returns the participant touching the ball, if one side is the ball.
func (c Contact) Other() (Participant, bool) {
	switch {
	case c.A.Kind == KindBall:
		return c.B, true
	case c.B.Kind == KindBall:
		return c.A, true
	}
	return Participant{}, false
}

func (c Contact) String() string {
	return c.A.Kind.String() + "x" + c.B.Kind.String()
}

// Color is the ball tint. Only an active ball produces outcomes.
type Color int

const (
	ColorActive Color = iota
	ColorMissed
	ColorCaught
)

func (c Color) String() string {
	switch c {
	case ColorActive:
		return "active"
	case ColorMissed:
		return "missed"
	case ColorCaught:
		return "caught"
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// Scene is the handle to the physics scene holding the ball.
type Scene interface {
	// Spawn places the ball at rest with the given tint.
	Spawn(origin mgl64.Vec3, color Color)
	Reposition(origin mgl64.Vec3)
	// ApplyImpulse pushes the ball. With instant set, v replaces the
	// velocity instead of being added as an impulse.
	ApplyImpulse(v mgl64.Vec3, instant bool)
	Recolor(color Color)
}
