package render

import "github.com/sanchitgarg/gorasterizer/pkg/math3d"

// Triangle is one assembled primitive: the three shaded vertices plus
// copies of the three input vertices, so rasterization never chases the
// index buffer. Keep marks the triangle as surviving the cull test.
type Triangle struct {
	Shaded [3]ShadedVertex
	In     [3]InputVertex
	Keep   bool
}

// Edge is one device-space triangle side for line mode. Edges live in a
// per-vertex-index slot array; a slot not written this frame has
// Set=false.
type Edge struct {
	A   math3d.Vec3
	B   math3d.Vec3
	Set bool
}

// assembleTriangles builds one Triangle per index-buffer triple. The
// face orientation test uses the sum of the three vertex normals as a
// face-normal proxy; with culling enabled, a positive dot product
// against the view direction means the triangle faces away and its
// vertex data is not copied.
func (p *Pipeline) assembleTriangles() {
	viewDir := p.camera.ViewDirection()
	cull := p.backfaceCulling

	p.pool.Run(len(p.indices)/3, triangleGrain, func(start, end int) {
		for t := start; t < end; t++ {
			i0 := p.indices[3*t]
			i1 := p.indices[3*t+1]
			i2 := p.indices[3*t+2]
			tri := &p.triangles[t]

			proxy := p.shaded[i0].Normal.
				Add(p.shaded[i1].Normal).
				Add(p.shaded[i2].Normal)
			if cull && proxy.Dot(viewDir) > 0 {
				tri.Keep = false
				continue
			}

			tri.Keep = true
			tri.Shaded[0] = p.shaded[i0]
			tri.Shaded[1] = p.shaded[i1]
			tri.Shaded[2] = p.shaded[i2]
			tri.In[0] = p.inputs[i0]
			tri.In[1] = p.inputs[i1]
			tri.In[2] = p.inputs[i2]
		}
	})
}

// compactTriangles removes culled triangles from the active set with an
// in-place filter. Order among survivors does not matter: the depth
// test makes rasterization order-independent per pixel. After this the
// raster stage reads only triangles[:activeTriangles].
func (p *Pipeline) compactTriangles() {
	n := 0
	for t := range len(p.indices) / 3 {
		if !p.triangles[t].Keep {
			continue
		}
		if n != t {
			p.triangles[n] = p.triangles[t]
		}
		n++
	}
	p.activeTriangles = n
}

// assembleEdges builds one Edge per triangle side, stored in the slot
// of the side's first vertex index. Triangles sharing a vertex index
// overwrite the same slot; the pass is sequential, so the last triangle
// in index order wins deterministically.
func (p *Pipeline) assembleEdges() {
	for i := range p.edges {
		p.edges[i].Set = false
	}

	for t := 0; t < len(p.indices)/3; t++ {
		i0 := p.indices[3*t]
		i1 := p.indices[3*t+1]
		i2 := p.indices[3*t+2]

		p.edges[i0] = Edge{A: p.shaded[i0].Device, B: p.shaded[i1].Device, Set: true}
		p.edges[i1] = Edge{A: p.shaded[i1].Device, B: p.shaded[i2].Device, Set: true}
		p.edges[i2] = Edge{A: p.shaded[i2].Device, B: p.shaded[i0].Device, Set: true}
	}
}
