package chunkwin

import "github.com/go-gl/mathgl/mgl32"

const (
	planeLeft = iota
	planeRight
	planeBottom
	planeTop
	planeNear
	planeFar
)

// Frustum is six planes (a, b, c, d) with ax+by+cz+d >= 0 on the inside.
type Frustum struct {
	Planes [6]mgl32.Vec4
}

// FrustumFromMatrix extracts the planes of a view-projection matrix with
// OpenGL clip conventions (-w <= z <= w).
func FrustumFromMatrix(mat mgl32.Mat4) Frustum {
	r1, r2, r3, r4 := mat.Rows()
	f := Frustum{Planes: [6]mgl32.Vec4{
		planeLeft:   r4.Add(r1),
		planeRight:  r4.Sub(r1),
		planeBottom: r4.Add(r2),
		planeTop:    r4.Sub(r2),
		planeNear:   r4.Add(r3),
		planeFar:    r4.Sub(r3),
	}}
	for i, p := range f.Planes {
		n := p.Vec3().Len()
		if n > 0 {
			f.Planes[i] = p.Mul(1 / n)
		}
	}
	return f
}

type AABB struct {
	Min, Max mgl32.Vec3
}

// ChunkBox is the world space box of chunk c.
func ChunkBox(c Coord, edge float32) AABB {
	lo := mgl32.Vec3{float32(c.X) * edge, float32(c.Y) * edge, float32(c.Z) * edge}
	return AABB{Min: lo, Max: lo.Add(mgl32.Vec3{edge, edge, edge})}
}

// IntersectsAABB tests the box against every plane using the corner that
// lies furthest along the plane normal. Boxes touching a plane count as
// intersecting. near and far select whether those planes participate.
func (f *Frustum) IntersectsAABB(b AABB, near, far bool) bool {
	for i, p := range f.Planes {
		if (i == planeNear && !near) || (i == planeFar && !far) {
			continue
		}
		x, y, z := b.Max.X(), b.Max.Y(), b.Max.Z()
		if p.X() < 0 {
			x = b.Min.X()
		}
		if p.Y() < 0 {
			y = b.Min.Y()
		}
		if p.Z() < 0 {
			z = b.Min.Z()
		}
		if p.X()*x+p.Y()*y+p.Z()*z+p.W() < 0 {
			return false
		}
	}
	return true
}
