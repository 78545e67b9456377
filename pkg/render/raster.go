package render

import "math"

// barycentric computes the weights of (px, py) against a triangle's
// device-space vertices. ok is false for a degenerate (zero-area)
// triangle, which therefore covers nothing.
func barycentric(tri *Triangle, px, py float64) (a, b, c float64, ok bool) {
	v0 := tri.Shaded[0].Device
	v1 := tri.Shaded[1].Device
	v2 := tri.Shaded[2].Device

	denom := (v1.Y-v2.Y)*(v0.X-v2.X) + (v2.X-v1.X)*(v0.Y-v2.Y)
	if denom == 0 {
		return 0, 0, 0, false
	}

	a = ((v1.Y-v2.Y)*(px-v2.X) + (v2.X-v1.X)*(py-v2.Y)) / denom
	b = ((v2.Y-v0.Y)*(px-v2.X) + (v0.X-v2.X)*(py-v2.Y)) / denom
	c = 1 - a - b
	return a, b, c, true
}

// inside reports whether barycentric weights describe a point covered
// by the triangle.
func inside(a, b, c float64) bool {
	return a >= 0 && a <= 1 && b >= 0 && b <= 1 && c >= 0 && c <= 1
}

// rasterTriangles rasterizes the active triangles into the fragment
// buffer. Per triangle: the device-space bounding box is clamped to the
// viewport interior with a 1-pixel margin, then every sample point of
// every pixel in the box is coverage-tested. Covered samples run an
// atomic depth-key minimum against the fragment's sample slot; no
// attribute is written here, the shade stage resolves attributes from
// the winning key. Many triangles may contend on one slot, which is why
// the key update is the only write.
func (p *Pipeline) rasterTriangles() {
	offsets := p.activeOffsets()
	halfW := p.width / 2
	halfH := p.height / 2

	p.pool.Run(p.activeTriangles, rasterGrain, func(start, end int) {
		for t := start; t < end; t++ {
			tri := &p.triangles[t]

			lo := tri.Shaded[0].Device.Min(tri.Shaded[1].Device).Min(tri.Shaded[2].Device)
			hi := tri.Shaded[0].Device.Max(tri.Shaded[1].Device).Max(tri.Shaded[2].Device)

			minX := clampInt(int(math.Floor(lo.X))+halfW, 1, p.width-2)
			maxX := clampInt(int(math.Ceil(hi.X))+halfW, 1, p.width-2)
			minY := clampInt(int(math.Floor(lo.Y))+halfH, 1, p.height-2)
			maxY := clampInt(int(math.Ceil(hi.Y))+halfH, 1, p.height-2)

			for iy := minY; iy <= maxY; iy++ {
				py := float64(iy - halfH)
				for ix := minX; ix <= maxX; ix++ {
					px := float64(ix - halfW)
					frag := &p.fragments[iy*p.width+ix]

					for s := range offsets {
						a, b, c, ok := barycentric(tri,
							px+offsets[s][0], py+offsets[s][1])
						if !ok || !inside(a, b, c) {
							continue
						}
						depth := a*tri.Shaded[0].Device.Z +
							b*tri.Shaded[1].Device.Z +
							c*tri.Shaded[2].Device.Z
						frag.Samples[s].atomicMin(packKey(depth, t))
					}
				}
			}
		}
	})
}

// rasterPoints writes a white fragment at the nearest pixel of every
// shaded vertex inside the viewport. No depth test, no lighting, no
// antialiasing.
func (p *Pipeline) rasterPoints() {
	halfW := p.width / 2
	halfH := p.height / 2

	p.pool.Run(len(p.shaded), vertexGrain, func(start, end int) {
		for i := start; i < end; i++ {
			d := p.shaded[i].Device
			ix := int(math.Round(d.X)) + halfW
			iy := int(math.Round(d.Y)) + halfH
			if ix < 0 || ix >= p.width || iy < 0 || iy >= p.height {
				continue
			}
			p.fragments[iy*p.width+ix].Color = white
		}
	})
}

// rasterLines steps each assembled edge pixel-by-pixel along its major
// axis and writes white fragments. Endpoints are clamped into the
// viewport first, so every stepped pixel is in bounds. A zero-length
// edge has no major axis to step and covers nothing.
func (p *Pipeline) rasterLines() {
	halfW := float64(p.width) / 2
	halfH := float64(p.height) / 2

	p.pool.Run(len(p.edges), vertexGrain, func(start, end int) {
		for i := start; i < end; i++ {
			e := &p.edges[i]
			if !e.Set {
				continue
			}

			x0 := clampFloat(e.A.X, -halfW, halfW-1)
			y0 := clampFloat(e.A.Y, -halfH, halfH-1)
			x1 := clampFloat(e.B.X, -halfW, halfW-1)
			y1 := clampFloat(e.B.Y, -halfH, halfH-1)

			dx := x1 - x0
			dy := y1 - y0
			if dx == 0 && dy == 0 {
				continue
			}

			if math.Abs(dy) > math.Abs(dx) {
				// Vertical major axis.
				if y1 < y0 {
					x0, y0, x1, y1 = x1, y1, x0, y0
				}
				slope := (x1 - x0) / (y1 - y0)
				for y := math.Round(y0); y <= math.Round(y1); y++ {
					x := x0 + slope*(y-y0)
					p.setLinePixel(x, y)
				}
			} else {
				if x1 < x0 {
					x0, y0, x1, y1 = x1, y1, x0, y0
				}
				var slope float64
				if dx != 0 {
					slope = (y1 - y0) / (x1 - x0)
				}
				for x := math.Round(x0); x <= math.Round(x1); x++ {
					y := y0 + slope*(x-x0)
					p.setLinePixel(x, y)
				}
			}
		}
	})
}

// setLinePixel writes a white fragment at the pixel nearest the device
// coordinate, ignoring out-of-bounds hits.
func (p *Pipeline) setLinePixel(x, y float64) {
	ix := int(math.Round(x)) + p.width/2
	iy := int(math.Round(y)) + p.height/2
	if ix < 0 || ix >= p.width || iy < 0 || iy >= p.height {
		return
	}
	p.fragments[iy*p.width+ix].Color = white
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
