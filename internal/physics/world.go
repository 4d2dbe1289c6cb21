// Package physics simulates the ball flight and reports contacts.
//
// The scene is seen from the side: box2d's x axis is the throw depth (the
// scene's z) and its y axis is the height. Lateral motion along the scene's
// x axis has no obstacles except the side walls, so it is integrated
// alongside the box2d step and checked when a marker contact is drained.
package physics

import (
	"errors"
	"math"
	"time"

	"github.com/ByteArena/box2d"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/catchball/internal/ball"
	"github.com/ayusman/catchball/internal/catcher"
)

const (
	velocityIterations = 8
	positionIterations = 3

	// parkedHeight is where hidden markers wait, far below the floor.
	parkedHeight = -1e4
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid physics config")

// Config describes the scene in scene units.
type Config struct {
	// Scale converts scene units into box2d meters.
	Scale float64 `yaml:"scale"`

	Gravity    mgl64.Vec3 `yaml:"gravity"`
	BallRadius float64    `yaml:"ball_radius"`
	BallMass   float64    `yaml:"ball_mass"`

	// NetDepth is where the net stands; the gate bar sits on top of it at
	// NetHeight.
	NetDepth  float64 `yaml:"net_depth"`
	NetHeight float64 `yaml:"net_height"`

	FloorY float64 `yaml:"floor_y"`
	WallX  float64 `yaml:"wall_x"`
}

// DefaultConfig returns the reference scene.
func DefaultConfig() Config {
	return Config{
		Scale:      0.01,
		Gravity:    mgl64.Vec3{0, -98, 150},
		BallRadius: 10,
		BallMass:   1,
		NetDepth:   0,
		NetHeight:  300,
		FloorY:     -250,
		WallX:      250,
	}
}

// Validate reports whether the scene can be built.
func (c Config) Validate() error {
	switch {
	case c.Scale <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("scale must be positive"))
	case c.BallRadius <= 0 || c.BallMass <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("ball radius and mass must be positive"))
	case c.NetHeight <= c.FloorY:
		return errors.Join(ErrInvalidConfig, errors.New("net must stand above the floor"))
	case c.WallX <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("wall_x must be positive"))
	}
	return nil
}

// BallState is the ball as seen by the display sinks.
type BallState struct {
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Color    ball.Color `json:"color"`
	Frozen   bool       `json:"frozen"`
}

// MarkerState is a marker's collision body.
type MarkerState struct {
	Index       int        `json:"index"`
	Position    mgl64.Vec3 `json:"position"`
	Radius      float64    `json:"radius"`
	Visible     bool       `json:"visible"`
	Highlighted bool       `json:"highlighted"`
}

// Snapshot is a copy of the scene state.
type Snapshot struct {
	Spawned bool          `json:"spawned"`
	Ball    BallState     `json:"ball"`
	Markers []MarkerState `json:"markers"`
}

type markerBody struct {
	body  *box2d.B2Body
	shape *box2d.B2CircleShape
	state MarkerState
}

// World is the box2d scene. It implements ball.Scene. It is not safe for
// concurrent use.
type World struct {
	config   Config
	world    *box2d.B2World
	listener *collisionListener

	ball      *box2d.B2Body
	ballX     float64
	ballVX    float64
	ballColor ball.Color
	origin    mgl64.Vec3
	frozen    bool

	markers []*markerBody
}

// NewWorld builds the static scene: floor, net and gate bar.
func NewWorld(config Config) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	gravity := box2d.MakeB2Vec2(config.Gravity.Z()*config.Scale, config.Gravity.Y()*config.Scale)
	world := box2d.MakeB2World(gravity)

	w := &World{
		config:   config,
		world:    &world,
		listener: &collisionListener{},
	}
	w.world.SetContactListener(w.listener)

	c := config
	w.addStatic(ball.KindField, c.NetDepth-1000, c.FloorY-20, c.NetDepth+200, c.FloorY)
	w.addStatic(ball.KindNet, c.NetDepth, c.FloorY, c.NetDepth+10, c.NetHeight)
	w.addStatic(ball.KindGate, c.NetDepth-10, c.NetHeight, c.NetDepth+20, c.NetHeight+10)

	return w, nil
}

// addStatic adds a static rectangle spanning depth [d0, d1] and height
// [y0, y1].
func (w *World) addStatic(kind ball.Kind, d0, y0, d1, y1 float64) {
	bodydef := box2d.MakeB2BodyDef()
	bodydef.Type = box2d.B2BodyType.B2_staticBody
	body := w.world.CreateBody(&bodydef)

	s := w.config.Scale
	vertices := make([]box2d.B2Vec2, 4)
	vertices[0].Set(d0*s, y0*s)
	vertices[1].Set(d1*s, y0*s)
	vertices[2].Set(d1*s, y1*s)
	vertices[3].Set(d0*s, y1*s)

	shape := box2d.MakeB2ChainShape()
	shape.CreateLoop(vertices, len(vertices))
	body.CreateFixture(&shape, 0.0)
	body.SetUserData(bodyTag{Kind: kind})
}

func (w *World) toB2(p mgl64.Vec3) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(p.Z()*w.config.Scale, p.Y()*w.config.Scale)
}

// Spawn places the ball at origin, at rest, creating its body on first use.
func (w *World) Spawn(origin mgl64.Vec3, color ball.Color) {
	if w.ball == nil {
		bodydef := box2d.MakeB2BodyDef()
		bodydef.Type = box2d.B2BodyType.B2_dynamicBody
		bodydef.FixedRotation = true
		bodydef.Position = w.toB2(origin)

		body := w.world.CreateBody(&bodydef)

		shape := box2d.MakeB2CircleShape()
		shape.SetRadius(w.config.BallRadius * w.config.Scale)

		fixturedef := box2d.MakeB2FixtureDef()
		fixturedef.Shape = &shape
		fixturedef.Density = 1.0
		fixturedef.Restitution = 0.3
		body.CreateFixtureFromDef(&fixturedef)
		body.SetUserData(bodyTag{Kind: ball.KindBall})
		body.SetBullet(true)

		w.ball = body
	}

	w.ballColor = color
	w.Reposition(origin)
}

// Reposition moves the ball back to origin and holds it there until the
// next impulse.
func (w *World) Reposition(origin mgl64.Vec3) {
	if w.ball == nil {
		return
	}
	w.origin = origin
	w.frozen = true
	w.hold()
}

func (w *World) hold() {
	w.ball.SetTransform(w.toB2(w.origin), 0)
	w.ball.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
	w.ballX = w.origin.X()
	w.ballVX = 0
}

// ApplyImpulse adds v/mass to the ball velocity, or with instant set
// replaces the velocity with v. It releases a held ball.
func (w *World) ApplyImpulse(v mgl64.Vec3, instant bool) {
	if w.ball == nil {
		return
	}
	w.frozen = false

	s := w.config.Scale
	if instant {
		w.ballVX = v.X()
		w.ball.SetLinearVelocity(box2d.MakeB2Vec2(v.Z()*s, v.Y()*s))
		return
	}

	dv := v.Mul(1 / w.config.BallMass)
	cur := w.ball.GetLinearVelocity()
	w.ballVX += dv.X()
	w.ball.SetLinearVelocity(box2d.MakeB2Vec2(cur.X+dv.Z()*s, cur.Y+dv.Y()*s))
}

// Recolor sets the ball tint.
func (w *World) Recolor(color ball.Color) {
	w.ballColor = color
}

// SetMarkers moves the marker sensors to the tracked markers. anchor is the
// catcher position; its z is the depth the markers sit at.
func (w *World) SetMarkers(markers []catcher.Marker, anchor mgl64.Vec3) {
	for len(w.markers) < len(markers) {
		w.markers = append(w.markers, w.newMarker(len(w.markers)))
	}

	for i, mb := range w.markers {
		if i >= len(markers) {
			w.park(mb)
			continue
		}

		m := markers[i]
		pos := anchor.Add(m.Position)
		mb.state = MarkerState{
			Index:       i,
			Position:    pos,
			Radius:      m.Radius,
			Visible:     m.Visible,
			Highlighted: m.Highlighted,
		}

		if !m.Visible {
			w.park(mb)
			continue
		}
		mb.shape.SetRadius(m.Radius * w.config.Scale)
		mb.body.SetTransform(w.toB2(pos), 0)
	}
}

func (w *World) newMarker(index int) *markerBody {
	bodydef := box2d.MakeB2BodyDef()
	bodydef.Type = box2d.B2BodyType.B2_kinematicBody
	bodydef.Position.Set(0, parkedHeight)
	body := w.world.CreateBody(&bodydef)

	shape := box2d.MakeB2CircleShape()
	shape.SetRadius(catcher.MarkerRadius * w.config.Scale)

	fixturedef := box2d.MakeB2FixtureDef()
	fixturedef.Shape = &shape
	fixturedef.IsSensor = true
	fixture := body.CreateFixtureFromDef(&fixturedef)
	body.SetUserData(bodyTag{Kind: ball.KindMarker, Index: index})

	circle, _ := fixture.GetShape().(*box2d.B2CircleShape)
	if circle == nil {
		circle = &shape
	}
	return &markerBody{body: body, shape: circle, state: MarkerState{Index: index}}
}

func (w *World) park(mb *markerBody) {
	mb.state.Visible = false
	mb.body.SetTransform(box2d.MakeB2Vec2(0, parkedHeight), 0)
}

// Step advances the simulation by dt and returns the contacts that began
// during the step.
func (w *World) Step(dt time.Duration) []ball.Contact {
	if w.ball == nil {
		return nil
	}
	if w.frozen {
		w.hold()
	}

	seconds := dt.Seconds()
	w.world.Step(seconds, velocityIterations, positionIterations)

	var contacts []ball.Contact

	if !w.frozen {
		w.ballVX += w.config.Gravity.X() * seconds
		w.ballX += w.ballVX * seconds
		if limit := w.config.WallX - w.config.BallRadius; math.Abs(w.ballX) > limit {
			w.ballX = math.Copysign(limit, w.ballX)
			w.ballVX = -w.ballVX
			contacts = append(contacts, ball.Contact{
				A: ball.Participant{Kind: ball.KindBall},
				B: ball.Participant{Kind: ball.KindWall},
			})
		}
	}

	for _, collision := range w.listener.PopCollisions() {
		a, ok := tagOf(collision.GetFixtureA())
		if !ok {
			continue
		}
		b, ok := tagOf(collision.GetFixtureB())
		if !ok {
			continue
		}
		if contact, ok := w.contact(a, b); ok {
			contacts = append(contacts, contact)
		}
	}

	return contacts
}

// contact converts a box2d contact into a ball contact. Marker contacts
// only count when the ball overlaps the marker laterally too.
func (w *World) contact(a, b bodyTag) (ball.Contact, bool) {
	pa, ok := w.participant(a)
	if !ok {
		return ball.Contact{}, false
	}
	pb, ok := w.participant(b)
	if !ok {
		return ball.Contact{}, false
	}
	return ball.Contact{A: pa, B: pb}, true
}

func (w *World) participant(tag bodyTag) (ball.Participant, bool) {
	p := ball.Participant{Kind: tag.Kind, Index: tag.Index}
	if tag.Kind != ball.KindMarker {
		return p, true
	}

	if tag.Index < 0 || tag.Index >= len(w.markers) {
		return p, false
	}
	state := w.markers[tag.Index].state
	if !state.Visible {
		return p, false
	}
	if math.Abs(state.Position.X()-w.ballX) > w.config.BallRadius+state.Radius {
		return p, false
	}
	p.Highlighted = state.Highlighted
	return p, true
}

// Snapshot returns the ball and marker state.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{Markers: make([]MarkerState, 0, len(w.markers))}
	for _, mb := range w.markers {
		snap.Markers = append(snap.Markers, mb.state)
	}
	if w.ball == nil {
		return snap
	}

	pos := w.ball.GetPosition()
	vel := w.ball.GetLinearVelocity()
	s := w.config.Scale

	snap.Spawned = true
	snap.Ball = BallState{
		Position: mgl64.Vec3{w.ballX, pos.Y / s, pos.X / s},
		Velocity: mgl64.Vec3{w.ballVX, vel.Y / s, vel.X / s},
		Color:    w.ballColor,
		Frozen:   w.frozen,
	}
	return snap
}
