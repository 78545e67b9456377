// gorasterizer - Terminal 3D model viewer and renderer
// Renders GLB/glTF files with a CPU-parallel rasterization pipeline.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Space       - Apply random impulse
//	R           - Reset rotation
//	M           - Cycle render mode (triangles/points/lines)
//	C           - Toggle back-face culling
//	X           - Toggle antialiasing
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/sanchitgarg/gorasterizer/pkg/math3d"
	"github.com/sanchitgarg/gorasterizer/pkg/models"
	"github.com/sanchitgarg/gorasterizer/pkg/render"
)

var (
	targetFPS = flag.Int("fps", 60, "Target FPS")
	modeFlag  = flag.String("mode", "triangles", "Render mode: triangles, points, lines")
	cullFlag  = flag.Bool("cull", true, "Enable back-face culling")
	aaFlag    = flag.Bool("aa", false, "Enable 4x antialiasing")
	output    = flag.String("o", "", "Render a single frame to a PNG file and exit")
	outWidth  = flag.Int("width", 800, "Output width in pixels (with -o)")
	outHeight = flag.Int("height", 600, "Output height in pixels (with -o)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gorasterizer - Terminal 3D model viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gorasterizer [options] <model.glb>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate model\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  M           - Cycle render mode\n")
		fmt.Fprintf(os.Stderr, "  C           - Toggle culling\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle antialiasing\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseMode maps the -mode flag to a render mode.
func parseMode(s string) (render.RenderMode, error) {
	switch s {
	case "triangles":
		return render.ModeTriangles, nil
	case "points":
		return render.ModePoints, nil
	case "lines":
		return render.ModeLines, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// RotationAxis tracks position and velocity for one rotation axis with
// spring decay.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis with a harmonica spring for smooth
// velocity decay.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds the turntable rotation with spring physics.
type RotationState struct {
	Pitch, Yaw RotationAxis
	fps        int
}

func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
}

func (r *RotationState) ApplyImpulse(pitch, yaw float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
}

func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
}

func run(modelPath string) error {
	mode, err := parseMode(*modeFlag)
	if err != nil {
		return err
	}

	mesh, err := models.LoadGLB(modelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	if *output != "" {
		return renderToFile(mesh, mode)
	}

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fbWidth, fbHeight := termRenderer.FramebufferSize()

	pipeline, err := newPipeline(mesh, mode, fbWidth, fbHeight)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	rotation := NewRotationState(*targetFPS)
	fit := mesh.FitTransform(2.0)

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Input state
	inputTorque := struct{ pitch, yaw float64 }{}
	const torqueStrength = 3.0

	var mouseDown bool
	var lastMouseX, lastMouseY int
	cameraZ := 5.0

	// Event handler
	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				termRenderer = render.NewTerminalRenderer(term, width, height)
				fbWidth, fbHeight = termRenderer.FramebufferSize()

				old := pipeline
				pipeline, err = newPipeline(mesh, old.Mode(), fbWidth, fbHeight)
				if err != nil {
					cancel()
					return
				}
				pipeline.SetBackfaceCulling(old.BackfaceCulling())
				pipeline.SetAntialiasing(old.Antialiasing())
				old.Close()

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"), ev.MatchString("q"):
					cancel()
					return
				case ev.MatchString("r"):
					rotation.Reset()
					cameraZ = 5.0
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("space"):
					rotation.ApplyImpulse(
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
					)
				case ev.MatchString("m"):
					switch pipeline.Mode() {
					case render.ModeTriangles:
						pipeline.SetMode(render.ModePoints)
					case render.ModePoints:
						pipeline.SetMode(render.ModeLines)
					default:
						pipeline.SetMode(render.ModeTriangles)
					}
				case ev.MatchString("c"):
					pipeline.SetBackfaceCulling(!pipeline.BackfaceCulling())
				case ev.MatchString("x"):
					pipeline.SetAntialiasing(!pipeline.Antialiasing())
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					inputTorque.pitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					inputTorque.yaw = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					cameraZ = math.Max(1, cameraZ-0.5)
				case uv.MouseWheelDown:
					cameraZ = math.Min(20, cameraZ+0.5)
				}
			}
		}
	}()

	// Main loop
	targetDuration := time.Second / time.Duration(*targetFPS)
	lastFrame := time.Now()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		if dt > 0.1 {
			dt = 0.1
		}

		// Apply input torque and decay it (key release events unreliable)
		rotation.ApplyImpulse(inputTorque.pitch*dt, inputTorque.yaw*dt)
		inputTorque.pitch *= 0.9
		inputTorque.yaw *= 0.9

		rotation.Update()

		model := math3d.RotateX(rotation.Pitch.Position).
			Mul(math3d.RotateY(rotation.Yaw.Position)).
			Mul(fit)

		pipeline.Camera().SetModel(model)
		pipeline.Camera().LookAt(
			math3d.V3(0, 0, cameraZ), math3d.Zero3(), math3d.V3(0, 1, 0))
		pipeline.Invalidate()

		fb := pipeline.Render()
		termRenderer.Render(fb)
		if err := termRenderer.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// renderToFile renders a single frame offscreen and writes it as PNG.
func renderToFile(mesh *models.Mesh, mode render.RenderMode) error {
	pipeline, err := newPipeline(mesh, mode, *outWidth, *outHeight)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	fb := pipeline.Render()
	if err := fb.SavePNG(*output); err != nil {
		return fmt.Errorf("save png: %w", err)
	}

	fmt.Printf("Rendered %s (%d vertices, %d triangles) to %s\n",
		filepath.Base(mesh.Name), mesh.VertexCount(), mesh.TriangleCount(), *output)
	return nil
}

// newPipeline builds a pipeline with the model framed to fit the view
// and the CLI toggles applied.
func newPipeline(mesh *models.Mesh, mode render.RenderMode, width, height int) (*render.Pipeline, error) {
	pipeline, err := render.NewPipeline(mesh, width, height)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	pipeline.SetMode(mode)
	pipeline.SetBackfaceCulling(*cullFlag)
	pipeline.SetAntialiasing(*aaFlag)
	pipeline.Camera().SetModel(mesh.FitTransform(2.0))
	pipeline.Camera().LookAt(
		math3d.V3(0, 0, 5), math3d.Zero3(), math3d.V3(0, 1, 0))
	pipeline.Camera().SetClipPlanes(0.1, 100)

	return pipeline, nil
}
