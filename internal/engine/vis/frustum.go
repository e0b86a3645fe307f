// Package vis selects visible chunks by flood traversal from the viewer,
// constrained by frustum, view direction and chunk face connectivity.
package vis

import "github.com/go-gl/mathgl/mgl32"

// Plane is a half-space N.x + D >= 0.
type Plane struct {
	N mgl32.Vec3
	D float32
}

// Frustum is six inward-facing half-planes.
type Frustum [6]Plane

// FrustumFromMatrix extracts the clip planes of a combined
// projection*view matrix (Gribb/Hartmann rows method).
func FrustumFromMatrix(m mgl32.Mat4) Frustum {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{m.At(i, 0), m.At(i, 1), m.At(i, 2), m.At(i, 3)}
	}
	r3 := row(3)
	planes := [6]mgl32.Vec4{
		r3.Add(row(0)), // left
		r3.Sub(row(0)), // right
		r3.Add(row(1)), // bottom
		r3.Sub(row(1)), // top
		r3.Add(row(2)), // near
		r3.Sub(row(2)), // far
	}
	var f Frustum
	for i, p := range planes {
		n := mgl32.Vec3{p.X(), p.Y(), p.Z()}
		l := n.Len()
		if l > 0 {
			f[i] = Plane{N: n.Mul(1 / l), D: p.W() / l}
		}
	}
	return f
}

// IntersectsAABB reports whether the box [min, max] touches the frustum.
// The test is conservative: the positive vertex of each plane decides.
func (f Frustum) IntersectsAABB(min, max mgl32.Vec3) bool {
	for _, p := range f {
		if p.N == (mgl32.Vec3{}) {
			continue
		}
		v := min
		for i := 0; i < 3; i++ {
			if p.N[i] >= 0 {
				v[i] = max[i]
			}
		}
		if p.N.Dot(v)+p.D < 0 {
			return false
		}
	}
	return true
}
