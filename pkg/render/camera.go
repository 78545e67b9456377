package render

import (
	"math"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
)

// Camera holds the transforms that carry vertices from object space to
// clip space: a model matrix for the mesh, a look-at view matrix, and a
// perspective projection.
type Camera struct {
	// View parameters
	Eye    math3d.Vec3 // Camera position in world space
	Center math3d.Vec3 // Point the camera looks at
	Up     math3d.Vec3 // World up direction

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	modelMatrix  math3d.Mat4
	viewMatrix   math3d.Mat4
	projMatrix   math3d.Mat4
	mvpMatrix    math3d.Mat4
	normalMatrix math3d.Mat4
	viewDirty    bool
	projDirty    bool
	modelDirty   bool
	mvpDirty     bool
}

// NewCamera creates a camera with default settings: positioned on the
// +Z axis looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Eye:         math3d.V3(0, 0, 5),
		Center:      math3d.Zero3(),
		Up:          math3d.V3(0, 1, 0),
		FOV:         math.Pi / 3, // 60 degrees
		AspectRatio: 1,
		Near:        0.1,
		Far:         1000,
		modelMatrix: math3d.Identity(),
		viewDirty:   true,
		projDirty:   true,
		modelDirty:  true,
		mvpDirty:    true,
	}
}

// LookAt positions the camera at eye, looking toward center.
func (c *Camera) LookAt(eye, center, up math3d.Vec3) {
	c.Eye = eye
	c.Center = center
	c.Up = up
	c.viewDirty = true
	c.mvpDirty = true
}

// SetModel sets the model transform applied before the view transform.
func (c *Camera) SetModel(m math3d.Mat4) {
	c.modelMatrix = m
	c.modelDirty = true
	c.mvpDirty = true
}

// SetFOV sets the vertical field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.projDirty = true
	c.mvpDirty = true
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
	c.mvpDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
	c.mvpDirty = true
}

// ViewDirection returns the normalized direction the camera faces.
func (c *Camera) ViewDirection() math3d.Vec3 {
	return c.Center.Sub(c.Eye).Normalize()
}

// ModelMatrix returns the model transform.
func (c *Camera) ModelMatrix() math3d.Mat4 {
	return c.modelMatrix
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Eye, c.Center, c.Up)
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// MVPMatrix returns the combined projection * view * model matrix.
func (c *Camera) MVPMatrix() math3d.Mat4 {
	if c.mvpDirty {
		c.mvpMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix()).Mul(c.modelMatrix)
		c.mvpDirty = false
	}
	return c.mvpMatrix
}

// NormalMatrix returns the inverse transpose of the model matrix, used
// to transform normals so they stay perpendicular under non-uniform
// scaling.
func (c *Camera) NormalMatrix() math3d.Mat4 {
	if c.modelDirty {
		c.normalMatrix = c.modelMatrix.InverseTranspose()
		c.modelDirty = false
	}
	return c.normalMatrix
}
