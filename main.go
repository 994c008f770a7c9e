package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"net/http"
	_ "net/http/pprof"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.2/glfw"

	"github.com/icexin/gputerrain/internal/chunkwin"
	"github.com/icexin/gputerrain/internal/gpu/glgpu"
	"github.com/icexin/gputerrain/internal/terrain"
	"github.com/icexin/gputerrain/internal/voxelgen"
)

var (
	pprofPort = flag.String("pprof", "", "http pprof port")
	winWidth  = flag.Int("w", 1280, "window width")
	winHeight = flag.Int("h", 720, "window height")
	maxFPS    = flag.Int("fps", 0, "frame rate cap, 0 for none")
)

type Game struct {
	win *glfw.Window

	cfg      Config
	Camera   *Camera
	lx, ly   float64
	prevtime float64

	store   *Store
	dev     *glgpu.Device
	target  *glgpu.WindowTarget
	terrain *terrain.Pipeline
	stats   terrain.FrameStats
	fps     FPS

	exclusiveMouse bool
	closed         bool
}

func initGL(w, h int) (*glfw.Window, error) {
	err := glfw.Init()
	if err != nil {
		return nil, err
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, gl.TRUE)

	win, err := glfw.CreateWindow(w, h, "gputerrain", nil, nil)
	if err != nil {
		return nil, err
	}
	win.MakeContextCurrent()
	if err := glgpu.Init(); err != nil {
		return nil, err
	}
	log.Printf("opengl %s", gl.GoStr(gl.GetString(gl.VERSION)))
	glfw.SwapInterval(0) // present immediately
	gl.Enable(gl.DEPTH_TEST)
	return win, nil
}

func NewGame(cfg Config, store *Store) (*Game, error) {
	var (
		err  error
		game *Game
	)
	game = &Game{cfg: cfg, store: store}
	game.Camera = NewCamera(cfg.Camera)
	if store != nil {
		if state, ok := store.GetCameraState(); ok {
			game.Camera.Restore(state)
		}
	}

	mainthread.Call(func() {
		var win *glfw.Window
		win, err = initGL(*winWidth, *winHeight)
		if err != nil {
			return
		}
		win.SetMouseButtonCallback(game.onMouseButtonCallback)
		win.SetCursorPosCallback(game.onCursorPosCallback)
		win.SetKeyCallback(game.onKeyCallback)
		game.win = win

		w, h := win.GetFramebufferSize()
		game.target = glgpu.NewWindowTarget(w, h)
		game.dev = glgpu.New(voxelgen.Load, game.target)
		game.terrain, err = terrain.New(game.dev, cfg.Layout, nil)
	})
	if err != nil {
		return nil, err
	}
	game.setExclusiveMouse(true)
	return game, nil
}

func (g *Game) setExclusiveMouse(exclusive bool) {
	mainthread.Call(func() {
		if exclusive {
			g.win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		} else {
			g.win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})
	g.exclusiveMouse = exclusive
}

func (g *Game) onMouseButtonCallback(win *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if !g.exclusiveMouse && action == glfw.Press {
		win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		g.exclusiveMouse = true
	}
}

func (g *Game) onCursorPosCallback(win *glfw.Window, xpos float64, ypos float64) {
	if !g.exclusiveMouse {
		return
	}
	if g.lx == 0 && g.ly == 0 {
		g.lx, g.ly = xpos, ypos
		return
	}
	dx, dy := xpos-g.lx, g.ly-ypos
	g.lx, g.ly = xpos, ypos
	g.Camera.OnAngleChange(float32(dx), float32(dy))
}

func (g *Game) onKeyCallback(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyEscape:
		win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		g.exclusiveMouse = false
	case glfw.KeyK:
		g.saveCamera()
	}
}

func (g *Game) saveCamera() {
	if g.store == nil {
		return
	}
	if err := g.store.UpdateCameraState(g.Camera.State()); err != nil {
		log.Printf("save camera: %v", err)
		return
	}
	log.Printf("camera saved at %v", g.Camera.Pos())
}

func (g *Game) handleKeyInput(dt float64) {
	speed := g.cfg.Camera.Speed * float32(dt)
	if g.win.GetKey(glfw.KeyLeftShift) == glfw.Press {
		speed *= g.cfg.Camera.Boost
	}
	moves := []struct {
		key glfw.Key
		dir CameraMovement
	}{
		{glfw.KeyW, MoveForward},
		{glfw.KeyS, MoveBackward},
		{glfw.KeyA, MoveLeft},
		{glfw.KeyD, MoveRight},
		{glfw.KeySpace, MoveUp},
		{glfw.KeyLeftControl, MoveDown},
	}
	for _, m := range moves {
		if g.win.GetKey(m.key) == glfw.Press {
			g.Camera.OnMoveChange(m.dir, speed)
		}
	}
}

func (g *Game) ShouldClose() bool {
	return g.closed
}

func (g *Game) renderStat() {
	g.fps.Update()
	p := g.Camera.Pos()
	cid := chunkwin.ChunkOf(p, g.cfg.Layout.ChunkEdge())
	title := fmt.Sprintf("[%.2f %.2f %.2f] %v [%d/%d %d] %d", p.X(), p.Y(), p.Z(),
		cid, g.stats.Visible, g.cfg.Layout.Capacity(), g.stats.Drawn, g.fps.Fps())
	g.win.SetTitle(title)
}

func (g *Game) Update() {
	mainthread.Call(func() {
		var dt float64
		now := glfw.GetTime()
		if g.prevtime != 0 {
			dt = now - g.prevtime
		}
		g.prevtime = now
		if dt > 0.1 {
			dt = 0.1
		}

		g.handleKeyInput(dt)

		w, h := g.win.GetFramebufferSize()
		g.Camera.SetViewport(w, h)
		g.target.SetView(g.Camera.ViewProj(), w, h)
		g.target.Clear()

		g.stats = g.terrain.Frame(g.Camera)

		g.renderStat()

		g.win.SwapBuffers()
		glfw.PollEvents()
		g.closed = g.win.ShouldClose()
	})
}

func (g *Game) Close() {
	g.saveCamera()
	mainthread.Call(func() {
		g.terrain.Release()
		g.dev.Release()
		g.win.Destroy()
		glfw.Terminate()
	})
}

type FPS struct {
	lastUpdate time.Time
	cnt        int
	fps        int
}

func (f *FPS) Update() {
	f.cnt++
	now := time.Now()
	p := now.Sub(f.lastUpdate)
	if p >= time.Second {
		f.fps = int(float64(f.cnt) / p.Seconds())
		f.cnt = 0
		f.lastUpdate = now
	}
}

func (f *FPS) Fps() int {
	return f.fps
}

func run() {
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	var store *Store
	if *dbpath != "" {
		store, err = NewStore(*dbpath)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
	}

	game, err := NewGame(cfg, store)
	if err != nil {
		log.Fatal(err)
	}
	var tick <-chan time.Time
	if *maxFPS > 0 {
		tick = time.Tick(time.Second / time.Duration(*maxFPS))
	}
	for !game.ShouldClose() {
		if tick != nil {
			<-tick
		}
		game.Update()
	}
	game.Close()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	flag.Parse()
	go func() {
		if *pprofPort != "" {
			log.Fatal(http.ListenAndServe(*pprofPort, nil))
		}
	}()
	mainthread.Run(run)
}
