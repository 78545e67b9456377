package render

import (
	"math"
	"sync/atomic"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
)

const (
	// maxSamples is the per-pixel sample capacity, matching the 4x
	// supersampling factor. Without antialiasing only slot 0 is used.
	maxSamples = 4

	// depthScale converts a normalized depth to fixed point for the
	// packed key. Clipped geometry stays well inside [-2, 2] and scales
	// into 32 bits; anything beyond that range saturates when packed.
	depthScale = 1 << 30

	// depthSentinel is the cleared key value. Every packed key compares
	// below it.
	depthSentinel = int64(math.MaxInt64)
)

// sampleOffsets are the sub-pixel sample positions relative to the
// pixel center. Antialiasing uses all four; otherwise the single center
// sample is used.
var (
	sampleOffsets = [maxSamples][2]float64{
		{-0.25, -0.25},
		{0.25, -0.25},
		{-0.25, 0.25},
		{0.25, 0.25},
	}
	centerOffset = [1][2]float64{{0, 0}}
)

// sampleSlot is one depth sample of a fragment. The key packs the
// fixed-point depth into the high 32 bits and the winning triangle
// index into the low 32, so one atomic minimum decides both the depth
// test and the primitive whose attributes this sample shades with.
// Ties at equal depth resolve to the lower triangle index. The
// interpolated attributes are filled in by the shade stage after
// rasterization, from the stored index.
type sampleSlot struct {
	key    atomic.Int64
	Normal math3d.Vec3
	World  math3d.Vec3
	Color  math3d.Vec3
}

// packKey combines a depth value and a triangle index into one key.
// The fixed-point depth saturates at the 32-bit limits so that depths
// outside the clip range, which can reach here because nothing clips
// against the frustum, still order correctly and stay below the
// sentinel.
func packKey(depth float64, tri int) int64 {
	d := depth * depthScale
	if d > math.MaxInt32-1 {
		d = math.MaxInt32 - 1
	} else if d < math.MinInt32 {
		d = math.MinInt32
	}
	return int64(d)<<32 | int64(uint32(tri))
}

// unpackTriangle extracts the triangle index from a key.
func unpackTriangle(key int64) int {
	return int(uint32(key))
}

// atomicMin replaces the slot key with k if k is smaller. Returns once
// either the swap succeeds or a concurrent writer has stored something
// at least as small.
func (s *sampleSlot) atomicMin(k int64) {
	for {
		cur := s.key.Load()
		if k >= cur {
			return
		}
		if s.key.CompareAndSwap(cur, k) {
			return
		}
	}
}

// Fragment is the per-pixel record: the resolved color plus the fixed
// array of depth sample slots.
type Fragment struct {
	Color   math3d.Vec3
	Samples [maxSamples]sampleSlot
}

// activeOffsets returns the sample positions for the current
// antialiasing setting.
func (p *Pipeline) activeOffsets() [][2]float64 {
	if p.antialiasing {
		return sampleOffsets[:]
	}
	return centerOffset[:]
}

// clearFragments resets every fragment to the cleared state: black
// color, sentinel depth keys, zero attributes. Parallel over pixels.
func (p *Pipeline) clearFragments() {
	p.pool.Run(len(p.fragments), p.width, func(start, end int) {
		for i := start; i < end; i++ {
			f := &p.fragments[i]
			f.Color = math3d.Zero3()
			for s := range f.Samples {
				f.Samples[s].key.Store(depthSentinel)
				f.Samples[s].Normal = math3d.Zero3()
				f.Samples[s].World = math3d.Zero3()
				f.Samples[s].Color = math3d.Zero3()
			}
		}
	})
}

// shadeFragments resolves each covered sample and lights it. For every
// slot whose key dropped below the sentinel, the winning triangle index
// is decoded, barycentric coordinates are recomputed at the sample
// point, and the interpolated normal, world position and color are
// stored in the slot. The sample's shaded value is the two-light
// Lambert sum; the pixel color is the single sample's value, or the
// unweighted mean of all four slots when antialiasing, uncovered slots
// contributing zero. Pixels with no covered sample are left untouched.
//
// Rasterization has fully completed by now, so the slots are read and
// written by exactly one goroutine each.
func (p *Pipeline) shadeFragments() {
	offsets := p.activeOffsets()
	halfW := p.width / 2
	halfH := p.height / 2

	p.pool.Run(len(p.fragments), p.width, func(start, end int) {
		for i := start; i < end; i++ {
			f := &p.fragments[i]
			px := float64(i%p.width - halfW)
			py := float64(i/p.width - halfH)

			covered := 0
			var sum math3d.Vec3
			for s := range offsets {
				slot := &f.Samples[s]
				key := slot.key.Load()
				if key == depthSentinel {
					continue
				}
				covered++

				tri := &p.triangles[unpackTriangle(key)]
				a, b, c, _ := barycentric(tri,
					px+offsets[s][0], py+offsets[s][1])

				slot.Normal = interpolate(a, b, c,
					tri.Shaded[0].Normal, tri.Shaded[1].Normal, tri.Shaded[2].Normal)
				slot.World = interpolate(a, b, c,
					tri.Shaded[0].World, tri.Shaded[1].World, tri.Shaded[2].World)
				slot.Color = interpolate(a, b, c,
					tri.In[0].Color, tri.In[1].Color, tri.In[2].Color)

				sum = sum.Add(p.shadeSample(slot))
			}

			if covered == 0 {
				continue
			}
			if len(offsets) > 1 {
				f.Color = sum.Scale(1.0 / float64(len(offsets)))
			} else {
				f.Color = sum
			}
		}
	})
}

// shadeSample evaluates the Lambert contribution of every light at one
// sample: intensity is the dot of the unit direction toward the light
// with the sample normal, scaled by the sample color, summed over
// lights.
func (p *Pipeline) shadeSample(s *sampleSlot) math3d.Vec3 {
	var out math3d.Vec3
	for l := range p.lights {
		dir := p.lights[l].Position.Sub(s.World).Normalize()
		intensity := dir.Dot(s.Normal)
		out = out.Add(s.Color.Scale(intensity))
	}
	return out
}

// interpolate blends three attribute values with barycentric weights.
func interpolate(a, b, c float64, v0, v1, v2 math3d.Vec3) math3d.Vec3 {
	return v0.Scale(a).Add(v1.Scale(b)).Add(v2.Scale(c))
}
