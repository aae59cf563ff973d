package models

import (
	"math"
	"sync"

	"github.com/aukilabs/octree/geometry"
	"github.com/aukilabs/octree/octree"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyOptions describes a body to create.
type BodyOptions struct {
	Category octree.Category
	Position mgl64.Vec3
	Velocity mgl64.Vec3

	// The half size of the box along each axis. Ignored when Radius is set.
	HalfExtents mgl64.Vec3

	// Makes the body a sphere when greater than zero.
	Radius float64

	// Bodies are collidable unless this is set.
	Disabled bool
}

// Body is a box or a sphere moving in a world. It is indexed by the world
// octree with its bounding box.
type Body struct {
	id       uint32
	category octree.Category

	mutex       sync.RWMutex
	position    mgl64.Vec3
	velocity    mgl64.Vec3
	halfExtents mgl64.Vec3
	radius      float64
	collidable  bool

	// Only touched by the octree, under the world lock.
	saved       geometry.AABB
	collisionID uint32
}

func NewBody(id uint32, opts BodyOptions) *Body {
	halfExtents := opts.HalfExtents
	if opts.Radius > 0 {
		halfExtents = mgl64.Vec3{opts.Radius, opts.Radius, opts.Radius}
	}

	return &Body{
		id:          id,
		category:    opts.Category,
		position:    opts.Position,
		velocity:    opts.Velocity,
		halfExtents: halfExtents,
		radius:      opts.Radius,
		collidable:  !opts.Disabled,
		saved:       geometry.EmptyAABB(),
	}
}

func (b *Body) ID() uint32 {
	return b.id
}

func (b *Body) Category() octree.Category {
	return b.category
}

func (b *Body) IsSphere() bool {
	return b.radius > 0
}

func (b *Body) Position() mgl64.Vec3 {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return b.position
}

// SetPosition moves the body. The index catches up on the next frame.
func (b *Body) SetPosition(v mgl64.Vec3) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.position = v
}

func (b *Body) Velocity() mgl64.Vec3 {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return b.velocity
}

func (b *Body) SetVelocity(v mgl64.Vec3) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.velocity = v
}

func (b *Body) SetCollidable(v bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.collidable = v
}

func (b *Body) AABB() geometry.AABB {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return geometry.CenteredAABB(b.position, b.halfExtents)
}

func (b *Body) SavedAABB() geometry.AABB {
	return b.saved
}

func (b *Body) SaveAABB() {
	b.saved = b.AABB()
}

func (b *Body) Collidable() bool {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return b.collidable
}

func (b *Body) CollisionUpdateID() uint32 {
	return b.collisionID
}

func (b *Body) SetCollisionUpdateID(id uint32) {
	b.collisionID = id
}

// HasCollided runs the exact test between two bodies once their bounding
// boxes are known to overlap. Objects that are not bodies are tested with
// their bounding box.
func (b *Body) HasCollided(other octree.Object) bool {
	o, ok := other.(*Body)
	if !ok {
		return b.AABB().Intersects(other.AABB())
	}

	switch {
	case b.IsSphere() && o.IsSphere():
		r := b.radius + o.radius
		return b.Position().Sub(o.Position()).LenSqr() <= r*r

	case b.IsSphere():
		return sphereIntersectsBox(b.Position(), b.radius, o.AABB())

	case o.IsSphere():
		return sphereIntersectsBox(o.Position(), o.radius, b.AABB())

	default:
		return b.AABB().Intersects(o.AABB())
	}
}

// ContainsPoint reports whether p is inside the body, surface included.
func (b *Body) ContainsPoint(p mgl64.Vec3) bool {
	if b.IsSphere() {
		return b.Position().Sub(p).LenSqr() <= b.radius*b.radius
	}
	return b.AABB().Contains(p)
}

// step integrates the velocity over dt seconds and bounces the body off the
// faces of bounds.
func (b *Body) step(dt float64, bounds geometry.AABB) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.velocity == (mgl64.Vec3{}) {
		return false
	}

	b.position = b.position.Add(b.velocity.Mul(dt))

	for axis := 0; axis < 3; axis++ {
		lo := bounds.Min[axis] + b.halfExtents[axis]
		hi := bounds.Max[axis] - b.halfExtents[axis]
		if lo > hi {
			continue
		}

		switch {
		case b.position[axis] < lo:
			b.position[axis] = lo
			b.velocity[axis] = math.Abs(b.velocity[axis])

		case b.position[axis] > hi:
			b.position[axis] = hi
			b.velocity[axis] = -math.Abs(b.velocity[axis])
		}
	}
	return true
}

// BodyInfo is a snapshot of a body.
type BodyInfo struct {
	ID         uint32        `json:"id"`
	Category   string        `json:"category"`
	Position   mgl64.Vec3    `json:"position"`
	Velocity   mgl64.Vec3    `json:"velocity"`
	Radius     float64       `json:"radius,omitempty"`
	AABB       geometry.AABB `json:"aabb"`
	Collidable bool          `json:"collidable"`
}

func (b *Body) Info() BodyInfo {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return BodyInfo{
		ID:         b.id,
		Category:   b.category.String(),
		Position:   b.position,
		Velocity:   b.velocity,
		Radius:     b.radius,
		AABB:       geometry.CenteredAABB(b.position, b.halfExtents),
		Collidable: b.collidable,
	}
}

func BodiesToInfo(bodies []*Body) []BodyInfo {
	infos := make([]BodyInfo, len(bodies))
	for i, b := range bodies {
		infos[i] = b.Info()
	}
	return infos
}

func sphereIntersectsBox(center mgl64.Vec3, radius float64, box geometry.AABB) bool {
	var closest mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		closest[axis] = math.Max(box.Min[axis], math.Min(center[axis], box.Max[axis]))
	}
	return closest.Sub(center).LenSqr() <= radius*radius
}
