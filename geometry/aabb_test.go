package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestNewAABB(t *testing.T) {
	a := NewAABB(mgl64.Vec3{1, -1, 3}, mgl64.Vec3{-1, 1, 2})
	require.Equal(t, mgl64.Vec3{-1, -1, 2}, a.Min)
	require.Equal(t, mgl64.Vec3{1, 1, 3}, a.Max)
}

func TestAABBIntersects(t *testing.T) {
	unit := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name   string
		other  AABB
		expect bool
	}{
		{
			name:   "overlapping",
			other:  AABB{Min: mgl64.Vec3{0.5, 0.5, 0.5}, Max: mgl64.Vec3{2, 2, 2}},
			expect: true,
		},
		{
			name:   "touching face",
			other:  AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}},
			expect: true,
		},
		{
			name:   "contained",
			other:  AABB{Min: mgl64.Vec3{0.2, 0.2, 0.2}, Max: mgl64.Vec3{0.4, 0.4, 0.4}},
			expect: true,
		},
		{
			name:   "separated on x",
			other:  AABB{Min: mgl64.Vec3{2, 0, 0}, Max: mgl64.Vec3{3, 1, 1}},
			expect: false,
		},
		{
			name:   "separated on y",
			other:  AABB{Min: mgl64.Vec3{0, -3, 0}, Max: mgl64.Vec3{1, -2, 1}},
			expect: false,
		},
		{
			name:   "separated on z",
			other:  AABB{Min: mgl64.Vec3{0, 0, 1.5}, Max: mgl64.Vec3{1, 1, 2}},
			expect: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expect, unit.Intersects(test.other))
			require.Equal(t, test.expect, test.other.Intersects(unit))
		})
	}
}

func TestAABBContains(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	require.True(t, a.Contains(mgl64.Vec3{0, 0, 0}))
	require.True(t, a.Contains(mgl64.Vec3{1, 1, 1}))
	require.False(t, a.Contains(mgl64.Vec3{1.01, 0, 0}))

	require.True(t, a.ContainsAABB(PointAABB(mgl64.Vec3{0.5, 0.5, 0.5})))
	require.False(t, a.ContainsAABB(AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}))
}

func TestAABBUnion(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
	b := AABB{Min: mgl64.Vec3{-2, 0.5, 0}, Max: mgl64.Vec3{0, 3, 0.5}}

	u := a.Union(b)
	require.Equal(t, mgl64.Vec3{-2, 0, 0}, u.Min)
	require.Equal(t, mgl64.Vec3{1, 3, 1}, u.Max)
	require.True(t, u.ContainsAABB(a))
	require.True(t, u.ContainsAABB(b))
}

func TestAABBMinExtent(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{4, 2, 8}}
	require.Equal(t, 2.0, a.MinExtent())
	require.Equal(t, mgl64.Vec3{2, 1, 4}, a.Center())
}

func TestAABBOctants(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{-2, -2, -2}, Max: mgl64.Vec3{2, 2, 2}}
	octants := a.Octants()

	require.Equal(t, AABB{Min: mgl64.Vec3{-2, -2, -2}, Max: mgl64.Vec3{0, 0, 0}}, octants[0])
	require.Equal(t, AABB{Min: mgl64.Vec3{0, -2, -2}, Max: mgl64.Vec3{2, 0, 0}}, octants[1])
	require.Equal(t, AABB{Min: mgl64.Vec3{-2, 0, -2}, Max: mgl64.Vec3{0, 2, 0}}, octants[2])
	require.Equal(t, AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{2, 2, 2}}, octants[7])

	for _, o := range octants {
		require.True(t, a.ContainsAABB(o))
		require.Equal(t, 2.0, o.MinExtent())
	}
}

func TestAABB2(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, -5}, Max: mgl64.Vec3{2, 2, 5}}.Project2D()
	require.Equal(t, mgl64.Vec2{0, 0}, a.Min)
	require.Equal(t, mgl64.Vec2{2, 2}, a.Max)

	require.True(t, a.Contains(mgl64.Vec2{1, 1}))
	require.False(t, a.Contains(mgl64.Vec2{3, 1}))
	require.True(t, a.Intersects(PointAABB2(mgl64.Vec2{2, 2})))
	require.False(t, a.Intersects(NewAABB2(mgl64.Vec2{3, 3}, mgl64.Vec2{2.5, 4})))
}

func TestEmptyAABB(t *testing.T) {
	empty := EmptyAABB()
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	require.True(t, empty.IsEmpty())
	require.False(t, a.IsEmpty())
	require.False(t, PointAABB(mgl64.Vec3{1, 2, 3}).IsEmpty())
	require.False(t, empty.Intersects(a))
	require.False(t, a.Intersects(empty))
	require.Equal(t, a, a.Union(empty))
}
