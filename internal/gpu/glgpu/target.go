package glgpu

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/icexin/gputerrain/internal/gpu"
)

// WindowTarget is the default framebuffer of the window.
type WindowTarget struct {
	Width, Height int
	ClearColor    mgl32.Vec4

	viewProj mgl32.Mat4
}

func NewWindowTarget(width, height int) *WindowTarget {
	return &WindowTarget{
		Width:      width,
		Height:     height,
		ClearColor: mgl32.Vec4{0.57, 0.71, 0.77, 1},
		viewProj:   mgl32.Ident4(),
	}
}

func (t *WindowTarget) Name() string {
	return "window"
}

func (t *WindowTarget) ViewProj() mgl32.Mat4 {
	return t.viewProj
}

// SetView updates the view the next passes render with.
func (t *WindowTarget) SetView(viewProj mgl32.Mat4, width, height int) {
	t.viewProj = viewProj
	t.Width, t.Height = width, height
}

func (t *WindowTarget) begin(load gpu.LoadOp) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(t.Width), int32(t.Height))
	if load == gpu.LoadOpClear {
		c := t.ClearColor
		gl.ClearColor(c[0], c[1], c[2], c[3])
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	}
}

// Clear clears color and depth ahead of the frame's passes.
func (t *WindowTarget) Clear() {
	t.begin(gpu.LoadOpClear)
}
