// Package render implements a CPU-parallel software rasterization
// pipeline: indexed triangle meshes are transformed, culled, rasterized
// with per-sample depth testing, and shaded into a framebuffer.
package render

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
)

// Framebuffer holds the pipeline's output: a floating-point RGB color
// plane and an 8-bit presentation surface derived from it. The float
// plane is the authoritative result; the 8-bit surface is what display
// and export consumers read.
type Framebuffer struct {
	Width  int
	Height int
	Colors []math3d.Vec3 // Row-major floating-point RGB
	Pixels []color.RGBA  // Row-major 8-bit presentation surface
}

// NewFramebuffer creates a framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Colors: make([]math3d.Vec3, width*height),
		Pixels: make([]color.RGBA, width*height),
	}
}

// SetColor sets the floating-point color at (x, y).
// Bounds checking is performed.
func (fb *Framebuffer) SetColor(x, y int, c math3d.Vec3) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Colors[y*fb.Width+x] = c
}

// GetColor returns the floating-point color at (x, y).
// Returns black if out of bounds.
func (fb *Framebuffer) GetColor(x, y int) math3d.Vec3 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return math3d.Zero3()
	}
	return fb.Colors[y*fb.Width+x]
}

// GetPixel returns the 8-bit color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// Convert8Bit fills the presentation surface from the floating-point
// plane, clamping each channel to [0,1] and scaling to 255.
func (fb *Framebuffer) Convert8Bit(start, end int) {
	for i := start; i < end; i++ {
		c := fb.Colors[i].Clamp01()
		fb.Pixels[i] = color.RGBA{
			R: uint8(c.X * 255),
			G: uint8(c.Y * 255),
			B: uint8(c.Z * 255),
			A: 255,
		}
	}
}

// Snapshot returns a copy of the floating-point color plane, safe to
// hold across subsequent frames.
func (fb *Framebuffer) Snapshot() []math3d.Vec3 {
	out := make([]math3d.Vec3, len(fb.Colors))
	copy(out, fb.Colors)
	return out
}

// ToImage converts the presentation surface to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the presentation surface as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, fb.ToImage())
}
