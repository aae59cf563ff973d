package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Category splits a batch of objects into entities, which take part in the
// index, and trailing shapes, which do not.
type Category uint8

const (
	CategoryEntity Category = iota
	CategoryShape
)

func (c Category) String() string {
	switch c {
	case CategoryEntity:
		return "entity"
	case CategoryShape:
		return "shape"
	default:
		return "unknown"
	}
}

// Object is the capability set an indexed object must provide. The tree keeps
// references to objects and never copies them: implementations are expected
// to be pointer types owned by the caller.
type Object interface {
	// Returns the current bounding box.
	AABB() geometry.AABB

	// Returns the bounding box as of the last SaveAABB call.
	SavedAABB() geometry.AABB

	// Commits AABB as the saved bounding box.
	SaveAABB()

	// Reports whether the object takes part in queries and collisions.
	Collidable() bool

	// Tag used by a collision sweep to report each pair once.
	CollisionUpdateID() uint32
	SetCollisionUpdateID(id uint32)

	// Narrow-phase test, called only when both bounding boxes overlap.
	HasCollided(other Object) bool

	// Identity used to order collision pairs. It must be unique among the
	// objects of a tree.
	ID() uint32

	Category() Category
}

// Visitor is called for each object found by a traversal.
type Visitor func(obj Object)

// CollisionAction is called for each colliding pair found by a sweep.
type CollisionAction func(a, b Object)

// PickPredicate filters the objects found by Pick. A nil predicate accepts
// everything.
type PickPredicate func(obj Object, p mgl64.Vec3) bool

// PickPredicate2D filters the objects found by Pick2D.
type PickPredicate2D func(obj Object, p mgl64.Vec2) bool

// Partition returns the index of the first shape in objects, or len(objects)
// when there is none. Batch operations only process objects[:Partition].
func Partition(objects []Object) int {
	for i, obj := range objects {
		if obj.Category() == CategoryShape {
			return i
		}
	}
	return len(objects)
}

// ValidatePartition returns an error when an entity follows a shape in
// objects, which would hide it from batch operations.
func ValidatePartition(objects []Object) error {
	end := Partition(objects)
	for i := end; i < len(objects); i++ {
		if objects[i].Category() != CategoryShape {
			return errors.New("entity found after the first shape").
				WithType(ErrTypeUnpartitionedObjects).
				WithTag("partition_index", end).
				WithTag("entity_index", i).
				WithTag("entity_id", objects[i].ID())
		}
	}
	return nil
}
