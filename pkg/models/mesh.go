// Package models provides the mesh data model and glTF loading for
// gorasterizer. Meshes are stored as flat attribute arrays, the layout the
// pipeline consumes directly.
package models

import (
	"fmt"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
)

// Mesh is an indexed triangle mesh stored as flat per-vertex attribute
// arrays. Positions, Normals and Colors run parallel to each other;
// Indices references them in triples, one triple per triangle.
//
// The arrays are read-only to the render pipeline; the loader owns them.
type Mesh struct {
	Name string

	Positions []math3d.Vec3
	Normals   []math3d.Vec3
	Colors    []math3d.Vec3
	Indices   []int

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Validate checks the index buffer against the attribute arrays.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return fmt.Errorf("mesh %q has no vertices", m.Name)
	}
	if len(m.Normals) != len(m.Positions) || len(m.Colors) != len(m.Positions) {
		return fmt.Errorf("mesh %q attribute arrays disagree: %d positions, %d normals, %d colors",
			m.Name, len(m.Positions), len(m.Normals), len(m.Colors))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q index count %d is not a multiple of 3", m.Name, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Positions) {
			return fmt.Errorf("mesh %q index %d out of range at offset %d", m.Name, idx, i)
		}
	}
	return nil
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		return
	}

	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]

	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// FitTransform returns a model matrix that centers the mesh at the origin
// and scales its largest dimension to extent. Useful for framing an
// arbitrary model in front of the camera.
func (m *Mesh) FitTransform(extent float64) math3d.Mat4 {
	size := m.Size()
	maxDim := size.X
	if size.Y > maxDim {
		maxDim = size.Y
	}
	if size.Z > maxDim {
		maxDim = size.Z
	}
	if maxDim == 0 {
		return math3d.Identity()
	}
	return math3d.ScaleUniform(extent / maxDim).Mul(math3d.Translate(m.Center().Negate()))
}

// CalculateSmoothNormals computes averaged per-vertex normals from the
// face geometry. Called by the loader when a file carries no normals.
func (m *Mesh) CalculateSmoothNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Positions))

	// Accumulate area-weighted face normals per vertex.
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		edge1 := m.Positions[i1].Sub(m.Positions[i0])
		edge2 := m.Positions[i2].Sub(m.Positions[i0])
		normal := edge1.Cross(edge2) // Don't normalize yet

		m.Normals[i0] = m.Normals[i0].Add(normal)
		m.Normals[i1] = m.Normals[i1].Add(normal)
		m.Normals[i2] = m.Normals[i2].Add(normal)
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}

// FillColor sets every vertex color to c. Used when a file carries no
// COLOR_0 attribute.
func (m *Mesh) FillColor(c math3d.Vec3) {
	m.Colors = make([]math3d.Vec3, len(m.Positions))
	for i := range m.Colors {
		m.Colors[i] = c
	}
}
