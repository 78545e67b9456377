package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
	"github.com/sanchitgarg/gorasterizer/pkg/models"
)

// devicePosition returns the object-space position that lands at the
// given device coordinate under an identity camera.
func devicePosition(w, h int, dx, dy, z float64) math3d.Vec3 {
	return math3d.V3(dx/(float64(w)/2), -dy/(float64(h)/2), z)
}

// deviceTriangleMesh builds a one-triangle mesh from device-space
// corner coordinates, with a uniform normal and color.
func deviceTriangleMesh(w, h int, dev [3][3]float64, normal, clr math3d.Vec3) *models.Mesh {
	m := models.NewMesh("test")
	for _, d := range dev {
		m.Positions = append(m.Positions, devicePosition(w, h, d[0], d[1], d[2]))
		m.Normals = append(m.Normals, normal)
		m.Colors = append(m.Colors, clr)
	}
	m.Indices = []int{0, 1, 2}
	return m
}

// identityCamera overrides the camera matrices so object space maps
// straight to NDC, making device coordinates predictable in tests.
func identityCamera(c *Camera) {
	c.viewMatrix = math3d.Identity()
	c.projMatrix = math3d.Identity()
	c.mvpMatrix = math3d.Identity()
	c.normalMatrix = math3d.Identity()
	c.viewDirty = false
	c.projDirty = false
	c.modelDirty = false
	c.mvpDirty = false
}

func newTestPipeline(t testing.TB, mesh *models.Mesh, w, h int) *Pipeline {
	t.Helper()
	p, err := NewPipeline(mesh, w, h)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	identityCamera(p.camera)
	return p
}

// centerTriangle covers the viewport center pixel with barycentric
// weights (0.25, 0.25, 0.5) at device (0, 0).
var centerTriangle = [3][3]float64{
	{-20, 20, 0},
	{20, 20, 0},
	{0, -20, 0},
}

func TestSingleTriangleLambert(t *testing.T) {
	clr := math3d.V3(1, 0, 0)
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), clr)
	p := newTestPipeline(t, mesh, 100, 100)

	// One light straight above the triangle plane: the unit direction
	// from the interpolated world position (the origin) is (0,0,1), so
	// intensity is exactly 1 and the resolved color equals the vertex
	// color.
	p.SetLights([]Light{{Position: math3d.V3(0, 0, 10), Color: white}})
	p.SetBackfaceCulling(false)

	fb := p.Render()

	got := fb.GetColor(50, 50)
	assert.InDelta(t, clr.X, got.X, 1e-9)
	assert.InDelta(t, clr.Y, got.Y, 1e-9)
	assert.InDelta(t, clr.Z, got.Z, 1e-9)

	// A pixel no triangle touches stays cleared.
	assert.Equal(t, math3d.Zero3(), fb.GetColor(2, 2))
}

func TestBackfaceCullExclusion(t *testing.T) {
	// Normals pointing away from the camera: the face-normal proxy
	// (0,0,-3) dots positive against the view direction (0,0,-1), so
	// the triangle is culled and must touch nothing.
	mesh := deviceTriangleMesh(100, 100, centerTriangle,
		math3d.V3(0, 0, -1), white)
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetBackfaceCulling(true)

	fb := p.Render()

	assert.Equal(t, 0, p.activeTriangles)
	for i := range p.fragments {
		require.Equal(t, depthSentinel, p.fragments[i].Samples[0].key.Load())
	}
	assert.Equal(t, math3d.Zero3(), fb.GetColor(50, 50))
}

func TestBackfaceCullDisabled(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle,
		math3d.V3(0, 0, -1), white)
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetBackfaceCulling(false)

	p.Render()

	assert.Equal(t, 1, p.activeTriangles)
	center := &p.fragments[50*100+50]
	assert.Less(t, center.Samples[0].key.Load(), depthSentinel)
}

func TestDepthNearestWins(t *testing.T) {
	// Two overlapping triangles covering the center: red at depth 0.8,
	// green at depth 0.2. Green is nearer and must determine the
	// shading inputs regardless of submission order.
	m := models.NewMesh("overlap")
	for _, d := range centerTriangle {
		m.Positions = append(m.Positions, devicePosition(100, 100, d[0], d[1], 0.8))
		m.Normals = append(m.Normals, math3d.V3(0, 0, 1))
		m.Colors = append(m.Colors, math3d.V3(1, 0, 0))
	}
	for _, d := range centerTriangle {
		m.Positions = append(m.Positions, devicePosition(100, 100, d[0], d[1], 0.2))
		m.Normals = append(m.Normals, math3d.V3(0, 0, 1))
		m.Colors = append(m.Colors, math3d.V3(0, 1, 0))
	}
	m.Indices = []int{0, 1, 2, 3, 4, 5}

	for _, order := range []string{"far-first", "near-first"} {
		t.Run(order, func(t *testing.T) {
			mesh := m
			if order == "near-first" {
				swapped := *m
				swapped.Indices = []int{3, 4, 5, 0, 1, 2}
				mesh = &swapped
			}

			p := newTestPipeline(t, mesh, 100, 100)
			p.SetBackfaceCulling(false)
			p.SetLights([]Light{{Position: math3d.V3(0, 0, 10), Color: white}})

			fb := p.Render()

			got := fb.GetColor(50, 50)
			assert.Zero(t, got.X, "far red triangle leaked through the depth test")
			assert.Greater(t, got.Y, 0.5)

			// Re-running the raster stage with identical geometry must
			// not change any resolved depth key.
			before := p.fragments[50*100+50].Samples[0].key.Load()
			p.rasterTriangles()
			assert.Equal(t, before, p.fragments[50*100+50].Samples[0].key.Load())
		})
	}
}

func TestAntialiasingRoundTrip(t *testing.T) {
	clr := math3d.V3(0.3, 0.6, 0.9)
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), clr)
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetBackfaceCulling(false)
	// A distant light makes the per-sample world positions irrelevant,
	// so all 4 sub-samples shade identically and their average equals
	// the single center sample.
	p.SetLights([]Light{{Position: math3d.V3(0, 0, 1e6), Color: white}})

	single := p.Render().GetColor(50, 50)

	p.SetAntialiasing(true)
	averaged := p.Render().GetColor(50, 50)

	assert.InDelta(t, single.X, averaged.X, 1e-6)
	assert.InDelta(t, single.Y, averaged.Y, 1e-6)
	assert.InDelta(t, single.Z, averaged.Z, 1e-6)
}

func TestPointMode(t *testing.T) {
	// One vertex aimed at pixel (10, 10) of a 100x100 viewport.
	m := models.NewMesh("point")
	m.Positions = []math3d.Vec3{devicePosition(100, 100, -40, -40, 0)}
	m.Normals = []math3d.Vec3{math3d.V3(0, 0, 1)}
	m.Colors = []math3d.Vec3{white}

	p := newTestPipeline(t, m, 100, 100)
	p.SetMode(ModePoints)

	fb := p.Render()

	for y := range 100 {
		for x := range 100 {
			if x == 10 && y == 10 {
				assert.Equal(t, white, fb.GetColor(x, y))
			} else {
				require.Equal(t, math3d.Zero3(), fb.GetColor(x, y),
					"pixel (%d,%d) touched", x, y)
			}
		}
	}
}

func TestLineModeExactSpan(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), white)
	p := newTestPipeline(t, mesh, 100, 100)

	// Drive the line raster stage with a single edge from device (0,0)
	// to (5,0): exactly the 6 pixels (50,50)..(55,50) must be written.
	p.clearFragments()
	for i := range p.edges {
		p.edges[i].Set = false
	}
	p.edges[0] = Edge{A: math3d.V3(0, 0, 0), B: math3d.V3(5, 0, 0), Set: true}
	p.rasterLines()

	for y := range 100 {
		for x := range 100 {
			got := p.fragments[y*100+x].Color
			if y == 50 && x >= 50 && x <= 55 {
				require.Equal(t, white, got, "pixel (%d,%d) not set", x, y)
			} else {
				require.Equal(t, math3d.Zero3(), got, "pixel (%d,%d) touched", x, y)
			}
		}
	}
}

func TestZeroLengthEdgeNoCoverage(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), white)
	p := newTestPipeline(t, mesh, 100, 100)

	// An edge with coincident endpoints has no major axis to step, so
	// it must not touch any pixel.
	p.clearFragments()
	for i := range p.edges {
		p.edges[i].Set = false
	}
	p.edges[0] = Edge{A: math3d.V3(3, 3, 0), B: math3d.V3(3, 3, 0), Set: true}
	p.rasterLines()

	for y := range 100 {
		for x := range 100 {
			require.Equal(t, math3d.Zero3(), p.fragments[y*100+x].Color,
				"pixel (%d,%d) touched", x, y)
		}
	}
}

func TestLineModeRender(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), white)
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetMode(ModeLines)

	fb := p.Render()

	lit := 0
	for y := range 100 {
		for x := range 100 {
			if fb.GetColor(x, y) == white {
				lit++
			}
		}
	}
	// The triangle outline spans 40 device units per side.
	assert.Greater(t, lit, 40)
}

func TestClearIdempotence(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), white)
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetBackfaceCulling(false)
	p.Render() // pollute the fragment buffer

	checkCleared := func() {
		for i := range p.fragments {
			f := &p.fragments[i]
			require.Equal(t, math3d.Zero3(), f.Color)
			for s := range f.Samples {
				require.Equal(t, depthSentinel, f.Samples[s].key.Load())
				require.Equal(t, math3d.Zero3(), f.Samples[s].Normal)
				require.Equal(t, math3d.Zero3(), f.Samples[s].World)
				require.Equal(t, math3d.Zero3(), f.Samples[s].Color)
			}
		}
	}

	p.clearFragments()
	checkCleared()
	p.clearFragments()
	checkCleared()
}

func TestDegenerateTriangleNoCoverage(t *testing.T) {
	// Collinear vertices: zero area, the coverage test rejects every
	// sample and the frame stays black.
	mesh := deviceTriangleMesh(100, 100, [3][3]float64{
		{-10, 0, 0}, {0, 0, 0}, {10, 0, 0},
	}, math3d.V3(0, 0, 1), white)
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetBackfaceCulling(false)

	fb := p.Render()

	for y := range 100 {
		for x := range 100 {
			require.Equal(t, math3d.Zero3(), fb.GetColor(x, y))
		}
	}
}

func TestCompaction(t *testing.T) {
	// Two front-facing and two back-facing triangles, interleaved.
	m := models.NewMesh("mixed")
	offsets := []float64{-30, -10, 10, 30}
	for i, ox := range offsets {
		normal := math3d.V3(0, 0, 1)
		if i%2 == 1 {
			normal = math3d.V3(0, 0, -1)
		}
		for _, d := range [3][3]float64{{ox - 5, 5, 0}, {ox + 5, 5, 0}, {ox, -5, 0}} {
			m.Positions = append(m.Positions, devicePosition(100, 100, d[0], d[1], d[2]))
			m.Normals = append(m.Normals, normal)
			m.Colors = append(m.Colors, white)
		}
	}
	m.Indices = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

	p := newTestPipeline(t, m, 100, 100)
	p.SetBackfaceCulling(true)
	p.Render()

	assert.Equal(t, 2, p.activeTriangles)
	for i := range p.activeTriangles {
		assert.True(t, p.triangles[i].Keep)
	}
}

func TestRedrawGate(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), white)
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetBackfaceCulling(false)

	first := p.Render().Snapshot()

	// Camera changed but not invalidated: the geometry stages are
	// skipped and the frame is identical.
	p.Camera().SetModel(math3d.Translate(math3d.V3(100, 0, 0)))
	second := p.Render().Snapshot()
	assert.Equal(t, first, second)

	// After Invalidate the moved model leaves the viewport.
	p.Invalidate()
	third := p.Render().Snapshot()
	for i := range third {
		require.Equal(t, math3d.Zero3(), third[i])
	}
}

func TestPresent8Bit(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1),
		math3d.V3(2, 0.5, -1)) // out-of-range channels must clamp
	p := newTestPipeline(t, mesh, 100, 100)
	p.SetBackfaceCulling(false)
	p.SetLights([]Light{{Position: math3d.V3(0, 0, 10), Color: white}})

	fb := p.Render()

	px := fb.GetPixel(50, 50)
	assert.EqualValues(t, 255, px.R)
	assert.EqualValues(t, 127, px.G)
	assert.EqualValues(t, 0, px.B)
	assert.EqualValues(t, 255, px.A)
}

func TestNewPipelineRejectsBadInput(t *testing.T) {
	mesh := deviceTriangleMesh(100, 100, centerTriangle, math3d.V3(0, 0, 1), white)

	_, err := NewPipeline(mesh, 0, 100)
	assert.Error(t, err)

	bad := *mesh
	bad.Indices = []int{0, 1, 7}
	_, err = NewPipeline(&bad, 100, 100)
	assert.Error(t, err)
}
