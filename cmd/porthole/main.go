// porthole - terminal portal viewer
// Walk a wireframe scene with live portals: each portal surface shows the
// world as seen from its exit anchor, and mouse picks pass through it.
//
// Controls:
//
//	W/S         - Move forward/back
//	A/D         - Strafe left/right
//	Arrows      - Look around
//	Mouse move  - Aim the pick ray
//	Mouse click - Pick (redirected through portals)
//	Scroll      - Move forward/back
//	R           - Reset camera
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/models"
	"github.com/taigrr/porthole/pkg/pick"
	"github.com/taigrr/porthole/pkg/portal"
	"github.com/taigrr/porthole/pkg/render"
	"github.com/taigrr/porthole/pkg/scene"
)

var (
	configPath = flag.String("config", "", "Path to a TOML scene file")
	targetFPS  = flag.Int("fps", 0, "Target FPS (overrides config)")
	bgColor    = flag.String("bg", "", "Background color R,G,B (overrides config)")
)

const devicePointer portal.PointerID = 1

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "porthole - terminal portal viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: porthole [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Move\n")
		fmt.Fprintf(os.Stderr, "  Arrows      - Look around\n")
		fmt.Fprintf(os.Stderr, "  Mouse       - Aim and pick through portals\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset camera\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	conf, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if *targetFPS > 0 {
		conf.FPS = *targetFPS
	}
	if *bgColor != "" {
		conf.Background = *bgColor
	}

	if err := run(conf); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// MoveAxis tracks position and velocity for one movement axis with spring
// decay, same shape for look and strafe axes.
type MoveAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64
}

// NewMoveAxis creates an axis with a critically damped velocity spring.
func NewMoveAxis(fps int) MoveAxis {
	return MoveAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *MoveAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// Viewer is the primary camera's motion state.
type Viewer struct {
	Forward, Strafe, Yaw, Pitch MoveAxis
	Origin                      math3d.Vec3
	fps                         int
}

func NewViewer(fps int, origin math3d.Vec3) *Viewer {
	return &Viewer{
		Forward: NewMoveAxis(fps),
		Strafe:  NewMoveAxis(fps),
		Yaw:     NewMoveAxis(fps),
		Pitch:   NewMoveAxis(fps),
		Origin:  origin,
		fps:     fps,
	}
}

func (v *Viewer) Update() {
	v.Forward.Update()
	v.Strafe.Update()
	v.Yaw.Update()
	v.Pitch.Update()
}

func (v *Viewer) Reset() {
	*v = *NewViewer(v.fps, v.Origin)
}

// Pose converts the motion state to a camera transform. Forward and strafe
// positions accumulate along the current yaw heading; pitch only tilts the
// view, the viewer stays at eye height.
func (v *Viewer) Pose() math3d.Transform {
	t := math3d.TransformIdentity()
	t.Rotation = math3d.QuatFromEuler(v.Pitch.Position, v.Yaw.Position, 0)

	heading := math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), v.Yaw.Position)
	fwd := heading.Rotate(math3d.Forward()).Scale(v.Forward.Position)
	side := heading.Rotate(math3d.Right()).Scale(v.Strafe.Position)
	t.Translation = v.Origin.Add(fwd).Add(side)
	return t
}

// HUD renders the overlay line with frame and picking info.
type HUD struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	lastPick  string
	show      bool
}

func NewHUD() *HUD {
	return &HUD{fpsTime: time.Now(), show: true}
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// Render draws the HUD row with raw ANSI positioning.
func (h *HUD) Render(width int, portals int) {
	const (
		reset  = "\x1b[0m"
		bgBlk  = "\x1b[40m"
		fgGrn  = "\x1b[92m"
		fgCyn  = "\x1b[96m"
		clrLn  = "\x1b[2K"
		moveTo = "\x1b[1;1H"
	)

	fmt.Print(moveTo + clrLn)
	if !h.show {
		return
	}

	line := fmt.Sprintf("%s%s %.0f FPS %s%s %d portal(s) %s", bgBlk, fgGrn, h.fps, bgBlk, fgCyn, portals, reset)
	fmt.Print(moveTo + line)
	if h.lastPick != "" {
		col := max(width-len(h.lastPick)-1, 1)
		fmt.Printf("\x1b[1;%dH%s%s %s %s", col, bgBlk, fgCyn, h.lastPick, reset)
	}
}

// sceneEntity pairs an entity with its drawable mesh and color.
type sceneEntity struct {
	entity scene.Entity
	mesh   *models.Mesh
	color  render.Color
}

func run(conf config) error {
	var bgR, bgG, bgB uint8 = 16, 16, 24
	fmt.Sscanf(conf.Background, "%d,%d,%d", &bgR, &bgG, &bgB)
	bg := render.RGB(bgR, bgG, bgB)

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

	// any-event mouse tracking + SGR extended coordinates
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")

	// half-block cells double the vertical pixel resolution
	fbWidth, fbHeight := width, height*2
	surface := render.NewTarget(fbWidth, fbHeight)

	world := scene.NewWorld()
	manager := portal.NewManager(world, fbWidth, fbHeight)
	pipeline := portal.NewPipeline(world, manager)
	backend := pick.NewBackend(world)

	// primary viewer
	viewer := NewViewer(conf.FPS, math3d.V3(0, 1.5, 6))
	primary := world.Spawn("viewer")
	primaryCam := render.NewCamera()
	primaryCam.Projection.Aspect = float64(fbWidth) / float64(fbHeight)
	world.AttachCamera(primary, primaryCam)
	world.SetTransform(primary, viewer.Pose())

	// landmarks
	var drawables []sceneEntity
	for i, b := range conf.Boxes {
		e := world.Spawn(fmt.Sprintf("box-%d", i))
		world.SetTransform(e, math3d.TransformAt(math3d.V3(b.Position[0], b.Position[1], b.Position[2])))
		size := b.Size
		if size <= 0 {
			size = 1
		}
		mesh := models.NewBox(fmt.Sprintf("box-%d", i), size, size, size)
		backend.Register(e, mesh)

		var r, g, bb uint8 = 200, 200, 200
		fmt.Sscanf(b.Color, "%d,%d,%d", &r, &g, &bb)
		drawables = append(drawables, sceneEntity{entity: e, mesh: mesh, color: render.RGB(r, g, bb)})
	}

	for i, mc := range conf.Models {
		mesh, err := models.LoadGLB(mc.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: model %s: %v\n", mc.Path, err)
			continue
		}
		if mc.Scale > 0 && mc.Scale != 1 {
			mesh.Transform(math3d.ScaleUniform(mc.Scale))
			mesh.CalculateBounds()
		}

		e := world.Spawn(fmt.Sprintf("model-%d", i))
		world.SetTransform(e, math3d.TransformAt(math3d.V3(mc.Position[0], mc.Position[1], mc.Position[2])))
		backend.Register(e, mesh)

		var r, g, bb uint8 = 120, 220, 255
		fmt.Sscanf(mc.Color, "%d,%d,%d", &r, &g, &bb)
		drawables = append(drawables, sceneEntity{entity: e, mesh: mesh, color: render.RGB(r, g, bb)})
	}

	// portals: a quad surface entity plus an exit anchor entity
	type portalSurface struct {
		sceneEntity
		record *portal.Portal
	}
	var portals []portalSurface
	world.PropagateTransforms()
	for i, pc := range conf.Portals {
		anchor := world.Spawn(fmt.Sprintf("anchor-%d", i))
		at := math3d.TransformAt(math3d.V3(pc.Anchor[0], pc.Anchor[1], pc.Anchor[2]))
		at.Rotation = math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), pc.AnchorYaw*math.Pi/180)
		world.SetTransform(anchor, at)

		e := world.Spawn(fmt.Sprintf("portal-%d", i))
		st := math3d.TransformAt(math3d.V3(pc.Surface[0], pc.Surface[1], pc.Surface[2]))
		st.Rotation = math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), pc.SurfaceYaw*math.Pi/180)
		world.SetTransform(e, st)

		w, h := pc.Width, pc.Height
		if w <= 0 || h <= 0 {
			w, h = 3, 2
		}
		mesh := models.NewQuad(fmt.Sprintf("portal-%d", i), w, h)
		backend.Register(e, mesh)
		world.PropagateTransforms()

		rec := portal.New(primary, anchor)
		manager.Attach(e, rec)
		portals = append(portals, portalSurface{
			sceneEntity: sceneEntity{entity: e, mesh: mesh, color: render.ColorMagenta},
			record:      rec,
		})
	}

	hud := NewHUD()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// input state shared with the event goroutine; the frame loop only reads
	// mouse coordinates and drains pointer actions
	type frameInput struct {
		mouseX, mouseY int
		actions        []portal.Action
		resized        bool
		newW, newH     int
	}
	inputCh := make(chan func(*frameInput), 64)
	push := func(f func(*frameInput)) {
		select {
		case inputCh <- f:
		default:
		}
	}

	const thrust = 0.6
	go func() {
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				w, h := ev.Width, ev.Height
				push(func(in *frameInput) {
					in.resized = true
					in.newW, in.newH = w, h
				})

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
					return
				case ev.MatchString("w"):
					viewer.Forward.Velocity += thrust
				case ev.MatchString("s"):
					viewer.Forward.Velocity -= thrust
				case ev.MatchString("a"):
					viewer.Strafe.Velocity -= thrust
				case ev.MatchString("d"):
					viewer.Strafe.Velocity += thrust
				case ev.MatchString("left"):
					viewer.Yaw.Velocity += 0.15
				case ev.MatchString("right"):
					viewer.Yaw.Velocity -= 0.15
				case ev.MatchString("up"):
					viewer.Pitch.Velocity += 0.1
				case ev.MatchString("down"):
					viewer.Pitch.Velocity -= 0.1
				case ev.MatchString("r"):
					viewer.Reset()
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					hud.show = !hud.show
				}

			case uv.MouseClickEvent:
				x, y := ev.X, ev.Y
				push(func(in *frameInput) {
					in.mouseX, in.mouseY = x, y
					in.actions = append(in.actions, portal.Action{Kind: portal.ActionPress, Button: 1})
				})

			case uv.MouseReleaseEvent:
				push(func(in *frameInput) {
					in.actions = append(in.actions, portal.Action{Kind: portal.ActionRelease, Button: 1})
				})

			case uv.MouseMotionEvent:
				x, y := ev.X, ev.Y
				push(func(in *frameInput) {
					in.mouseX, in.mouseY = x, y
					in.actions = append(in.actions, portal.Action{Kind: portal.ActionMove})
				})

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					viewer.Forward.Velocity += thrust
				case uv.MouseWheelDown:
					viewer.Forward.Velocity -= thrust
				}
			}
		}
	}()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	targetDuration := time.Second / time.Duration(conf.FPS)
	in := frameInput{mouseX: width / 2, mouseY: height / 2}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		frameStart := time.Now()

		// drain queued input mutations
		in.actions = in.actions[:0]
		in.resized = false
		for {
			select {
			case f := <-inputCh:
				f(&in)
				continue
			default:
			}
			break
		}

		if in.resized {
			width, height = in.newW, in.newH
			term.Erase()
			term.Resize(width, height)
			fbWidth, fbHeight = width, height*2
			surface.Resize(fbWidth, fbHeight)
			primaryCam.Projection.Aspect = float64(fbWidth) / float64(fbHeight)
			manager.HandleResize(fbWidth, fbHeight)
		}

		viewer.Update()
		world.SetTransform(primary, viewer.Pose())

		// pose and frustum stages
		pipeline.Step("propagate-transforms")
		pipeline.Step("sync-portals")
		pipeline.Step("update-frusta")
		pipeline.Step("clip-frusta")

		// render every camera in order; secondary viewpoints draw into
		// their portal targets first, the primary draws last
		for _, camEntity := range world.Cameras() {
			cam, _ := world.Camera(camEntity)
			pose, ok := world.WorldTransform(camEntity)
			if !ok {
				continue
			}
			frustum, ok := world.Frustum(camEntity)
			if !ok {
				frustum = cam.FrustumForPose(pose)
			}

			var target *render.Target
			primaryPass := cam.Output.Kind == render.OutputSurface
			if primaryPass {
				target = surface
			} else {
				target, ok = manager.Targets().Get(cam.Output.Target)
				if !ok {
					continue
				}
			}

			target.Clear(bg)
			wf := render.NewWireframe(cam, pose, frustum, target)
			wf.DrawGrid(conf.GridSize, conf.GridStep, render.RGB(60, 60, 80))
			wf.DrawAxes(1)
			for _, d := range drawables {
				if dt, ok := world.WorldTransform(d.entity); ok {
					wf.DrawMesh(d.mesh, dt.Mat4(), d.color)
				}
			}
			// portal surfaces only exist in the primary view; a secondary
			// view drawing its own surface would show a hole in a hole
			if primaryPass {
				for _, ps := range portals {
					if pt, ok := world.WorldTransform(ps.entity); ok {
						wf.DrawMesh(ps.mesh, pt.Mat4(), ps.color)
					}
				}
			}
		}

		// cast the pick ray at the current mouse cell and feed the portal
		// propagator; redirected events surface on the HUD next frame
		primaryPose, _ := world.WorldTransform(primary)
		px := math3d.V2(float64(in.mouseX), float64(in.mouseY*2))
		if ray, ok := pick.ScreenPointToRay(primaryCam, primaryPose, px, fbWidth, fbHeight); ok {
			for _, a := range in.actions {
				manager.FeedInput(portal.Input{Pointer: devicePointer, Position: px, Action: a})
			}
			var hits []portal.Hit
			for _, h := range backend.Cast(ray) {
				hits = append(hits, portal.Hit{Entity: h.Entity, Position: h.Position, Pointer: devicePointer})
			}
			manager.FeedHits(hits)
		}
		pipeline.Step("propagate-picking")
		for _, ev := range pipeline.Redirected {
			if ev.Action.Kind == portal.ActionPress {
				hud.lastPick = fmt.Sprintf("pick @ %.0f,%.0f via pointer %d", ev.Position.X, ev.Position.Y, ev.Pointer)
			}
		}

		surface.Draw(term, uv.Rect(0, 0, width, height))
		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		hud.UpdateFPS()
		hud.Render(width, manager.PortalCount())

		elapsed := time.Since(frameStart)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
