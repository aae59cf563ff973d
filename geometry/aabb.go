package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box. It is a value type: two boxes are the
// same box when their corners are equal.
type AABB struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// NewAABB returns the box spanned by the two given corners, whatever their
// order.
func NewAABB(a, b mgl64.Vec3) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// EmptyAABB returns an inverted box that intersects nothing and is the
// identity element of Union.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box is inverted on at least one axis.
func (a AABB) IsEmpty() bool {
	return a.Min[0] > a.Max[0] || a.Min[1] > a.Max[1] || a.Min[2] > a.Max[2]
}

// PointAABB returns a zero-volume box located at p.
func PointAABB(p mgl64.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// CenteredAABB returns the box centered on c with the given half extents.
func CenteredAABB(c mgl64.Vec3, halfExtents mgl64.Vec3) AABB {
	return NewAABB(c.Sub(halfExtents), c.Add(halfExtents))
}

// Intersects reports whether both boxes share at least one point. Touching
// faces count as an intersection.
func (a AABB) Intersects(b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

// Contains reports whether p is inside the box, faces included.
func (a AABB) Contains(p mgl64.Vec3) bool {
	return p[0] >= a.Min[0] && p[0] <= a.Max[0] &&
		p[1] >= a.Min[1] && p[1] <= a.Max[1] &&
		p[2] >= a.Min[2] && p[2] <= a.Max[2]
}

// ContainsAABB reports whether b lies entirely inside a.
func (a AABB) ContainsAABB(b AABB) bool {
	return a.Contains(b.Min) && a.Contains(b.Max)
}

// Union returns the smallest box enclosing both boxes.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], b.Min[0]), math.Min(a.Min[1], b.Min[1]), math.Min(a.Min[2], b.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], b.Max[0]), math.Max(a.Max[1], b.Max[1]), math.Max(a.Max[2], b.Max[2])},
	}
}

func (a AABB) Size() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// MinExtent returns the size of the box along its smallest axis.
func (a AABB) MinExtent() float64 {
	s := a.Size()
	return math.Min(s[0], math.Min(s[1], s[2]))
}

// Octants returns the 8 boxes obtained by bisecting a at its center. The
// octant at index i covers the upper half of the X axis when bit 0 of i is
// set, Y for bit 1 and Z for bit 2.
func (a AABB) Octants() [8]AABB {
	c := a.Center()

	var octants [8]AABB
	for i := range octants {
		var lo, hi mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) == 0 {
				lo[axis] = a.Min[axis]
				hi[axis] = c[axis]
			} else {
				lo[axis] = c[axis]
				hi[axis] = a.Max[axis]
			}
		}
		octants[i] = AABB{Min: lo, Max: hi}
	}
	return octants
}

// Project2D drops the Z axis.
func (a AABB) Project2D() AABB2 {
	return AABB2{
		Min: a.Min.Vec2(),
		Max: a.Max.Vec2(),
	}
}

// AABB2 is the projection of an AABB on the XY plane, used to query a 3D
// index with screen-space rectangles.
type AABB2 struct {
	Min mgl64.Vec2 `json:"min"`
	Max mgl64.Vec2 `json:"max"`
}

func NewAABB2(a, b mgl64.Vec2) AABB2 {
	return AABB2{
		Min: mgl64.Vec2{math.Min(a[0], b[0]), math.Min(a[1], b[1])},
		Max: mgl64.Vec2{math.Max(a[0], b[0]), math.Max(a[1], b[1])},
	}
}

func PointAABB2(p mgl64.Vec2) AABB2 {
	return AABB2{Min: p, Max: p}
}

func (a AABB2) Intersects(b AABB2) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1]
}

func (a AABB2) Contains(p mgl64.Vec2) bool {
	return p[0] >= a.Min[0] && p[0] <= a.Max[0] &&
		p[1] >= a.Min[1] && p[1] <= a.Max[1]
}
