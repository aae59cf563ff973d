package octree

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	id          uint32
	category    Category
	box         geometry.AABB
	saved       geometry.AABB
	collidable  bool
	collisionID uint32
	hit         func(other Object) bool
}

func newTestObject(id uint32, min, max mgl64.Vec3) *testObject {
	return &testObject{
		id:         id,
		box:        geometry.NewAABB(min, max),
		saved:      geometry.EmptyAABB(),
		collidable: true,
	}
}

func newTestCube(id uint32, center mgl64.Vec3, halfSize float64) *testObject {
	h := mgl64.Vec3{halfSize, halfSize, halfSize}
	return newTestObject(id, center.Sub(h), center.Add(h))
}

func (o *testObject) AABB() geometry.AABB {
	return o.box
}

func (o *testObject) SavedAABB() geometry.AABB {
	return o.saved
}

func (o *testObject) SaveAABB() {
	o.saved = o.box
}

func (o *testObject) Collidable() bool {
	return o.collidable
}

func (o *testObject) CollisionUpdateID() uint32 {
	return o.collisionID
}

func (o *testObject) SetCollisionUpdateID(id uint32) {
	o.collisionID = id
}

func (o *testObject) HasCollided(other Object) bool {
	if o.hit != nil {
		return o.hit(other)
	}
	return o.box.Intersects(other.AABB())
}

func (o *testObject) ID() uint32 {
	return o.id
}

func (o *testObject) Category() Category {
	return o.category
}

func (o *testObject) translate(offset mgl64.Vec3) {
	o.box = geometry.AABB{
		Min: o.box.Min.Add(offset),
		Max: o.box.Max.Add(offset),
	}
}

func toObjects(objs ...*testObject) []Object {
	objects := make([]Object, len(objs))
	for i, o := range objs {
		objects[i] = o
	}
	return objects
}

func TestPartition(t *testing.T) {
	a := newTestCube(1, mgl64.Vec3{}, 1)
	b := newTestCube(2, mgl64.Vec3{}, 1)
	shape := newTestCube(3, mgl64.Vec3{}, 1)
	shape.category = CategoryShape

	t.Run("partition index is the first shape", func(t *testing.T) {
		require.Equal(t, 2, Partition(toObjects(a, b, shape)))
		require.Equal(t, 0, Partition(toObjects(shape, a)))
	})

	t.Run("partition index is the length without shapes", func(t *testing.T) {
		require.Equal(t, 2, Partition(toObjects(a, b)))
		require.Equal(t, 0, Partition(nil))
	})

	t.Run("partitioned objects are valid", func(t *testing.T) {
		require.NoError(t, ValidatePartition(toObjects(a, b, shape)))
	})

	t.Run("entity after a shape is reported", func(t *testing.T) {
		err := ValidatePartition(toObjects(a, shape, b))
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeUnpartitionedObjects))
	})
}

func TestCategoryString(t *testing.T) {
	require.Equal(t, "entity", CategoryEntity.String())
	require.Equal(t, "shape", CategoryShape.String())
	require.Equal(t, "unknown", Category(42).String())
}
