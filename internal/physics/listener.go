package physics

import (
	"github.com/ByteArena/box2d"

	"github.com/ayusman/catchball/internal/ball"
)

// bodyTag is stored as the user data of every body in the world.
type bodyTag struct {
	Kind  ball.Kind
	Index int
}

// collisionListener buffers begin-contact events until the world drains
// them after a step. It implements box2d.B2ContactListenerInterface.
type collisionListener struct {
	buffer []box2d.B2ContactInterface
}

func (l *collisionListener) PopCollisions() []box2d.B2ContactInterface {
	defer func() { l.buffer = nil }()
	return l.buffer
}

// BeginContact is called when two fixtures begin to touch.
func (l *collisionListener) BeginContact(contact box2d.B2ContactInterface) {
	l.buffer = append(l.buffer, contact)
}

func (l *collisionListener) EndContact(contact box2d.B2ContactInterface) {}

func (l *collisionListener) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {}

func (l *collisionListener) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {
}

func tagOf(fixture *box2d.B2Fixture) (bodyTag, bool) {
	if fixture == nil {
		return bodyTag{}, false
	}
	tag, ok := fixture.GetBody().GetUserData().(bodyTag)
	return tag, ok
}
