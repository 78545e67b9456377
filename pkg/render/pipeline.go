package render

import (
	"fmt"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
	"github.com/sanchitgarg/gorasterizer/pkg/models"
	"github.com/sanchitgarg/gorasterizer/pkg/parallel"
)

// RenderMode selects the raster stage variant for a frame.
type RenderMode int

const (
	// ModeTriangles renders filled, lit triangles.
	ModeTriangles RenderMode = iota
	// ModePoints renders each vertex as a white pixel.
	ModePoints
	// ModeLines renders triangle edges as white wireframe lines.
	ModeLines
)

func (m RenderMode) String() string {
	switch m {
	case ModeTriangles:
		return "triangles"
	case ModePoints:
		return "points"
	case ModeLines:
		return "lines"
	}
	return "unknown"
}

// Work split sizes for the pool dispatches. Vertex and pixel work is
// cheap per element, triangle raster is not.
const (
	vertexGrain   = 256
	triangleGrain = 64
	rasterGrain   = 4
)

var white = math3d.V3(1, 1, 1)

// Pipeline is the rasterization pipeline context. It owns every
// per-frame buffer, sized once at construction from the mesh and reused
// each frame, so rendering allocates nothing. A frame runs the stages
// in order, each as one pool dispatch over its index domain; a stage
// does not start until the previous dispatch has fully completed.
//
// A Pipeline is not safe for concurrent use; one goroutine drives it.
type Pipeline struct {
	width  int
	height int

	camera *Camera
	lights []Light

	mode            RenderMode
	backfaceCulling bool
	antialiasing    bool

	inputs  []InputVertex
	indices []int

	shaded          []ShadedVertex
	triangles       []Triangle
	activeTriangles int
	edges           []Edge
	fragments       []Fragment

	fb   *Framebuffer
	pool *parallel.Pool

	dirty bool
}

// NewPipeline creates a pipeline for the given mesh and viewport.
// The mesh's flat attribute arrays are copied into the pipeline's
// vertex buffer; the mesh can be discarded afterward.
func NewPipeline(mesh *models.Mesh, width, height int) (*Pipeline, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mesh: %w", err)
	}

	n := mesh.VertexCount()
	tris := mesh.TriangleCount()

	p := &Pipeline{
		width:     width,
		height:    height,
		camera:    NewCamera(),
		lights:    DefaultLights(),
		mode:      ModeTriangles,
		inputs:    make([]InputVertex, n),
		indices:   make([]int, len(mesh.Indices)),
		shaded:    make([]ShadedVertex, n),
		triangles: make([]Triangle, tris),
		edges:     make([]Edge, n),
		fragments: make([]Fragment, width*height),
		fb:        NewFramebuffer(width, height),
		pool:      parallel.NewPool(0),
		dirty:     true,
	}
	p.camera.SetAspectRatio(float64(width) / float64(height))

	for i := range n {
		p.inputs[i] = InputVertex{
			Position: mesh.Positions[i],
			Normal:   mesh.Normals[i],
			Color:    mesh.Colors[i],
		}
	}
	copy(p.indices, mesh.Indices)

	Logger().Info("pipeline created",
		"vertices", n, "triangles", tris,
		"viewport", fmt.Sprintf("%dx%d", width, height),
		"workers", p.pool.Workers())

	return p, nil
}

// Camera returns the pipeline camera. Callers that mutate it must also
// call Invalidate so the next frame re-runs the geometry stages.
func (p *Pipeline) Camera() *Camera {
	return p.camera
}

// Invalidate marks the scene changed, forcing the next Render to re-run
// all stages instead of re-presenting the previous frame.
func (p *Pipeline) Invalidate() {
	p.dirty = true
}

// SetMode selects the raster variant for subsequent frames.
func (p *Pipeline) SetMode(m RenderMode) {
	if p.mode == m {
		return
	}
	p.mode = m
	p.dirty = true
}

// Mode returns the current raster variant.
func (p *Pipeline) Mode() RenderMode {
	return p.mode
}

// SetBackfaceCulling toggles the back-face cull test.
func (p *Pipeline) SetBackfaceCulling(on bool) {
	if p.backfaceCulling == on {
		return
	}
	p.backfaceCulling = on
	p.dirty = true
}

// BackfaceCulling reports whether back-face culling is enabled.
func (p *Pipeline) BackfaceCulling() bool {
	return p.backfaceCulling
}

// SetAntialiasing toggles 4x supersampling.
func (p *Pipeline) SetAntialiasing(on bool) {
	if p.antialiasing == on {
		return
	}
	p.antialiasing = on
	p.dirty = true
}

// Antialiasing reports whether supersampling is enabled.
func (p *Pipeline) Antialiasing() bool {
	return p.antialiasing
}

// SetLights replaces the light set for subsequent frames.
func (p *Pipeline) SetLights(lights []Light) {
	p.lights = append(p.lights[:0], lights...)
	p.dirty = true
}

// Framebuffer returns the output framebuffer. Valid after Render.
func (p *Pipeline) Framebuffer() *Framebuffer {
	return p.fb
}

// Render produces one frame. When nothing changed since the previous
// frame, only the present stage runs and the prior fragment colors are
// re-presented.
func (p *Pipeline) Render() *Framebuffer {
	if p.dirty {
		p.renderFrame()
		p.dirty = false
	}
	p.present()
	return p.fb
}

// renderFrame runs stages 1-6. Each stage call returns only after its
// whole index domain has completed, which is the barrier between
// stages.
func (p *Pipeline) renderFrame() {
	p.vertexShadeStage()

	switch p.mode {
	case ModeTriangles:
		p.assembleTriangles()
		p.compactTriangles()
	case ModeLines:
		p.assembleEdges()
	}

	p.clearFragments()

	switch p.mode {
	case ModeTriangles:
		p.rasterTriangles()
	case ModePoints:
		p.rasterPoints()
	case ModeLines:
		p.rasterLines()
	}

	p.shadeFragments()

	Logger().Debug("frame rendered",
		"mode", p.mode, "active", p.activeTriangles,
		"aa", p.antialiasing, "cull", p.backfaceCulling)
}

// present copies fragment colors into the framebuffer and refreshes the
// 8-bit presentation surface. Parallel over pixels.
func (p *Pipeline) present() {
	p.pool.Run(len(p.fragments), p.width, func(start, end int) {
		for i := start; i < end; i++ {
			p.fb.Colors[i] = p.fragments[i].Color
		}
		p.fb.Convert8Bit(start, end)
	})
}

// Close releases the worker pool. The pipeline must not be used after.
func (p *Pipeline) Close() {
	p.pool.Close()
}
