package math3d

import (
	"math"
	"testing"
)

const eps = 1e-9

func vecNear(a, b Vec3) bool {
	return math.Abs(a.X-b.X) < eps &&
		math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.Z-b.Z) < eps
}

func matNear(a, b Mat4) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func TestVec3Ops(t *testing.T) {
	tests := []struct {
		name string
		got  Vec3
		want Vec3
	}{
		{"add", V3(1, 2, 3).Add(V3(4, 5, 6)), V3(5, 7, 9)},
		{"sub", V3(4, 5, 6).Sub(V3(1, 2, 3)), V3(3, 3, 3)},
		{"mul", V3(1, 2, 3).Mul(V3(2, 3, 4)), V3(2, 6, 12)},
		{"scale", V3(1, 2, 3).Scale(2), V3(2, 4, 6)},
		{"negate", V3(1, -2, 3).Negate(), V3(-1, 2, -3)},
		{"cross x", V3(0, 1, 0).Cross(V3(0, 0, 1)), V3(1, 0, 0)},
		{"cross anticommutes", V3(0, 0, 1).Cross(V3(0, 1, 0)), V3(-1, 0, 0)},
		{"normalize", V3(3, 0, 4).Normalize(), V3(0.6, 0, 0.8)},
		{"normalize zero", Zero3().Normalize(), Zero3()},
		{"min", V3(1, 5, 3).Min(V3(2, 4, 3)), V3(1, 4, 3)},
		{"max", V3(1, 5, 3).Max(V3(2, 4, 3)), V3(2, 5, 3)},
		{"clamp01", V3(-1, 0.5, 2).Clamp01(), V3(0, 0.5, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !vecNear(tc.got, tc.want) {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestVec3DotLen(t *testing.T) {
	if got := V3(1, 2, 3).Dot(V3(4, 5, 6)); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := V3(3, 0, 4).Len(); got != 5 {
		t.Errorf("Len = %v, want 5", got)
	}
	if got := V3(3, 0, 4).LenSq(); got != 25 {
		t.Errorf("LenSq = %v, want 25", got)
	}
}

func TestPerspectiveDivide(t *testing.T) {
	tests := []struct {
		name string
		v    Vec4
		want Vec3
	}{
		{"w=1", V4(2, 4, 6, 1), V3(2, 4, 6)},
		{"w=2", V4(2, 4, 6, 2), V3(1, 2, 3)},
		// w=0 must not divide; the point stays in pre-divide form.
		{"w=0", V4(2, 4, 6, 0), V3(2, 4, 6)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.PerspectiveDivide(); !vecNear(got, tc.want) {
				t.Errorf("PerspectiveDivide(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestMat4Identity(t *testing.T) {
	v := V3(1, 2, 3)
	if got := Identity().MulVec3(v); !vecNear(got, v) {
		t.Errorf("Identity * %v = %v", v, got)
	}
}

func TestMat4TranslateScale(t *testing.T) {
	if got := Translate(V3(1, 2, 3)).MulVec3(V3(1, 1, 1)); !vecNear(got, V3(2, 3, 4)) {
		t.Errorf("Translate = %v", got)
	}
	if got := Scale(V3(2, 3, 4)).MulVec3(V3(1, 1, 1)); !vecNear(got, V3(2, 3, 4)) {
		t.Errorf("Scale = %v", got)
	}
	// Directions ignore translation.
	if got := Translate(V3(5, 5, 5)).MulVec3Dir(V3(1, 0, 0)); !vecNear(got, V3(1, 0, 0)) {
		t.Errorf("MulVec3Dir through translation = %v", got)
	}
}

func TestMat4Rotate(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"rotX 90", RotateX(math.Pi / 2), V3(0, 1, 0), V3(0, 0, 1)},
		{"rotY 90", RotateY(math.Pi / 2), V3(0, 0, 1), V3(1, 0, 0)},
		{"rotZ 90", RotateZ(math.Pi / 2), V3(1, 0, 0), V3(0, 1, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.m.MulVec3(tc.in); !vecNear(got, tc.want) {
				t.Errorf("%s * %v = %v, want %v", tc.name, tc.in, got, tc.want)
			}
		})
	}
}

func TestMat4Inverse(t *testing.T) {
	ms := []Mat4{
		Translate(V3(1, -2, 3)),
		Scale(V3(2, 3, 4)),
		RotateY(0.7).Mul(Translate(V3(1, 2, 3))),
		Perspective(math.Pi/3, 16.0/9.0, 0.1, 100),
	}
	for i, m := range ms {
		if got := m.Mul(m.Inverse()); !matNear(got, Identity()) {
			t.Errorf("case %d: M * M^-1 != I, got %v", i, got)
		}
	}
}

func TestInverseTransposeNormals(t *testing.T) {
	// Under non-uniform scale, a plain transform bends normals; the
	// inverse transpose keeps them perpendicular to the surface.
	m := Scale(V3(2, 1, 1))
	n := m.InverseTranspose().MulVec3Dir(V3(1, 1, 0)).Normalize()
	tangent := m.MulVec3Dir(V3(-1, 1, 0)) // surface direction
	if got := n.Dot(tangent); math.Abs(got) > eps {
		t.Errorf("transformed normal not perpendicular: dot = %v", got)
	}
}

func TestLookAt(t *testing.T) {
	// Camera at +Z looking at the origin: the origin maps in front of
	// the camera on the -Z axis.
	view := LookAt(V3(0, 0, 5), Zero3(), V3(0, 1, 0))
	got := view.MulVec3(Zero3())
	if !vecNear(got, V3(0, 0, -5)) {
		t.Errorf("LookAt origin = %v, want (0,0,-5)", got)
	}
}

func TestPerspective(t *testing.T) {
	proj := Perspective(math.Pi/2, 1, 1, 100)

	// A point on the near plane maps to NDC z = -1.
	near := proj.MulVec4(V4(0, 0, -1, 1)).PerspectiveDivide()
	if math.Abs(near.Z-(-1)) > 1e-6 {
		t.Errorf("near plane z = %v, want -1", near.Z)
	}

	// With a 90 degree FOV, a point at 45 degrees maps to NDC x = 1.
	edge := proj.MulVec4(V4(10, 0, -10, 1)).PerspectiveDivide()
	if math.Abs(edge.X-1) > 1e-6 {
		t.Errorf("frustum edge x = %v, want 1", edge.X)
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := RotateY(0.5)
	m2 := Translate(V3(1, 2, 3))
	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec4(b *testing.B) {
	m := Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	v := V4(1, 2, 3, 1)
	for b.Loop() {
		_ = m.MulVec4(v)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := RotateY(0.7).Mul(Translate(V3(1, 2, 3)))
	for b.Loop() {
		_ = m.Inverse()
	}
}

func BenchmarkVec3Normalize(b *testing.B) {
	v := V3(1, 2, 3)
	for b.Loop() {
		_ = v.Normalize()
	}
}
