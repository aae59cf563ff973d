package models

import (
	"testing"

	"github.com/aukilabs/octree/geometry"
	"github.com/aukilabs/octree/octree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestBodyAABB(t *testing.T) {
	box := NewBody(1, BodyOptions{
		Position:    mgl64.Vec3{1, 2, 3},
		HalfExtents: mgl64.Vec3{1, 2, 3},
	})
	require.Equal(t, geometry.AABB{Max: mgl64.Vec3{2, 4, 6}}, box.AABB())
	require.True(t, box.SavedAABB().IsEmpty())
	require.True(t, box.Collidable())
	require.Equal(t, octree.CategoryEntity, box.Category())

	box.SaveAABB()
	require.Equal(t, box.AABB(), box.SavedAABB())

	sphere := NewBody(2, BodyOptions{
		Position: mgl64.Vec3{},
		Radius:   2,
		Disabled: true,
	})
	require.True(t, sphere.IsSphere())
	require.False(t, sphere.Collidable())
	require.Equal(t, geometry.NewAABB(mgl64.Vec3{-2, -2, -2}, mgl64.Vec3{2, 2, 2}), sphere.AABB())
}

func TestBodyHasCollided(t *testing.T) {
	tests := []struct {
		name     string
		a        BodyOptions
		b        BodyOptions
		collided bool
	}{
		{
			name:     "touching boxes",
			a:        BodyOptions{Position: mgl64.Vec3{0, 0, 0}, HalfExtents: mgl64.Vec3{1, 1, 1}},
			b:        BodyOptions{Position: mgl64.Vec3{2, 0, 0}, HalfExtents: mgl64.Vec3{1, 1, 1}},
			collided: true,
		},
		{
			name:     "overlapping spheres",
			a:        BodyOptions{Position: mgl64.Vec3{0, 0, 0}, Radius: 1},
			b:        BodyOptions{Position: mgl64.Vec3{1.5, 0, 0}, Radius: 1},
			collided: true,
		},
		{
			name:     "spheres with overlapping bounding boxes",
			a:        BodyOptions{Position: mgl64.Vec3{0, 0, 0}, Radius: 1},
			b:        BodyOptions{Position: mgl64.Vec3{1.9, 1.9, 0}, Radius: 1},
			collided: false,
		},
		{
			name:     "sphere touching a box face",
			a:        BodyOptions{Position: mgl64.Vec3{0, 0, 0}, Radius: 1},
			b:        BodyOptions{Position: mgl64.Vec3{2, 0, 0}, HalfExtents: mgl64.Vec3{1, 1, 1}},
			collided: true,
		},
		{
			name:     "sphere next to a box corner",
			a:        BodyOptions{Position: mgl64.Vec3{2, 2, 2}, HalfExtents: mgl64.Vec3{1, 1, 1}},
			b:        BodyOptions{Position: mgl64.Vec3{0, 0, 0}, Radius: 1},
			collided: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a := NewBody(1, test.a)
			b := NewBody(2, test.b)
			require.True(t, a.AABB().Intersects(b.AABB()))
			require.Equal(t, test.collided, a.HasCollided(b))
			require.Equal(t, test.collided, b.HasCollided(a))
		})
	}
}

func TestBodyContainsPoint(t *testing.T) {
	sphere := NewBody(1, BodyOptions{Radius: 1})
	require.True(t, sphere.ContainsPoint(mgl64.Vec3{0, 1, 0}))
	require.False(t, sphere.ContainsPoint(mgl64.Vec3{0.9, 0.9, 0.9}))

	box := NewBody(2, BodyOptions{HalfExtents: mgl64.Vec3{1, 1, 1}})
	require.True(t, box.ContainsPoint(mgl64.Vec3{0.9, 0.9, 0.9}))
	require.False(t, box.ContainsPoint(mgl64.Vec3{0, 1.1, 0}))
}

func TestBodyStep(t *testing.T) {
	bounds := geometry.NewAABB(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{10, 10, 10})

	t.Run("static body does not move", func(t *testing.T) {
		b := NewBody(1, BodyOptions{HalfExtents: mgl64.Vec3{1, 1, 1}})
		require.False(t, b.step(1, bounds))
		require.Equal(t, mgl64.Vec3{}, b.Position())
	})

	t.Run("body moves along its velocity", func(t *testing.T) {
		b := NewBody(1, BodyOptions{
			HalfExtents: mgl64.Vec3{1, 1, 1},
			Velocity:    mgl64.Vec3{2, -4, 0},
		})
		require.True(t, b.step(0.5, bounds))
		require.Equal(t, mgl64.Vec3{1, -2, 0}, b.Position())
	})

	t.Run("body bounces off the bounds", func(t *testing.T) {
		b := NewBody(1, BodyOptions{
			Position:    mgl64.Vec3{8, -8, 0},
			HalfExtents: mgl64.Vec3{1, 1, 1},
			Velocity:    mgl64.Vec3{10, -10, 0},
		})
		b.step(0.5, bounds)
		require.Equal(t, mgl64.Vec3{9, -9, 0}, b.Position())
		require.Equal(t, mgl64.Vec3{-10, 10, 0}, b.Velocity())
		require.True(t, bounds.ContainsAABB(b.AABB()))
	})
}

func TestBodyInfo(t *testing.T) {
	b := NewBody(7, BodyOptions{
		Category: octree.CategoryShape,
		Position: mgl64.Vec3{1, 1, 1},
		Radius:   0.5,
	})

	info := b.Info()
	require.Equal(t, uint32(7), info.ID)
	require.Equal(t, "shape", info.Category)
	require.Equal(t, 0.5, info.Radius)
	require.Equal(t, b.AABB(), info.AABB)
	require.Len(t, BodiesToInfo([]*Body{b, b}), 2)
}
