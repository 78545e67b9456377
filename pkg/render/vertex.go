package render

import "github.com/sanchitgarg/gorasterizer/pkg/math3d"

// InputVertex is one vertex of the source mesh: object-space position,
// normal, and color. Immutable for the lifetime of the pipeline.
type InputVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	Color    math3d.Vec3
}

// ShadedVertex is the output of the vertex shade stage for one vertex.
type ShadedVertex struct {
	// Device holds pixel-centered device coordinates: x in
	// [-w/2, w/2], y in [-h/2, h/2] with y pointing down, z the
	// normalized depth after perspective divide.
	Device math3d.Vec3

	// World is the position after the model transform.
	World math3d.Vec3

	// Normal is the unit normal after the inverse-transpose model
	// transform.
	Normal math3d.Vec3
}

// vertexShadeStage transforms every input vertex into device and world
// space. Each vertex is independent, so the work splits freely across
// the pool; returning means all vertices are shaded.
func (p *Pipeline) vertexShadeStage() {
	model := p.camera.ModelMatrix()
	mvp := p.camera.MVPMatrix()
	normalMat := p.camera.NormalMatrix()
	halfW := float64(p.width) / 2
	halfH := float64(p.height) / 2

	p.pool.Run(len(p.inputs), vertexGrain, func(start, end int) {
		for i := start; i < end; i++ {
			in := &p.inputs[i]

			clip := mvp.MulVec4(math3d.V4FromV3(in.Position, 1))
			ndc := clip.PerspectiveDivide()

			p.shaded[i] = ShadedVertex{
				// NDC y points up, device y points down.
				Device: math3d.V3(ndc.X*halfW, -ndc.Y*halfH, ndc.Z),
				World:  model.MulVec3(in.Position),
				Normal: normalMat.MulVec3Dir(in.Normal).Normalize(),
			}
		}
	})
}
