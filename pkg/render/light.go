package render

import "github.com/sanchitgarg/gorasterizer/pkg/math3d"

// Light is a point light with a world-space position. Shading uses the
// direction toward the light and ignores distance falloff.
type Light struct {
	Position math3d.Vec3
	Color    math3d.Vec3
}

// DefaultLights returns the standard two-light setup: one light above
// and in front of the scene, one below and behind, both white.
func DefaultLights() []Light {
	return []Light{
		{Position: math3d.V3(10, 10, 10), Color: math3d.V3(1, 1, 1)},
		{Position: math3d.V3(-10, -10, -10), Color: math3d.V3(1, 1, 1)},
	}
}
