package main

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/icexin/gputerrain/internal/chunkwin"
)

type CameraMovement int

const (
	MoveForward CameraMovement = iota
	MoveBackward
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
)

// CameraState is the persisted part of the camera.
type CameraState struct {
	X, Y, Z float32
	Rx, Ry  float32
}

// Camera is a free-flying camera. Angles are in degrees; rotatex is yaw,
// rotatey is pitch.
type Camera struct {
	pos   mgl32.Vec3
	up    mgl32.Vec3
	right mgl32.Vec3
	front mgl32.Vec3

	rotatex, rotatey float32

	cfg    CameraConfig
	aspect float32
	active bool
}

func NewCamera(cfg CameraConfig) *Camera {
	c := &Camera{
		pos:     mgl32.Vec3{cfg.Start[0], cfg.Start[1], cfg.Start[2]},
		front:   mgl32.Vec3{0, 0, -1},
		rotatey: 0,
		rotatex: -90,
		cfg:     cfg,
		aspect:  1,
	}
	c.updateAngles()
	return c
}

func (c *Camera) Restore(state CameraState) {
	c.pos = mgl32.Vec3{state.X, state.Y, state.Z}
	c.rotatex = state.Rx
	c.rotatey = clamp(state.Ry, -c.cfg.PitchLimit, c.cfg.PitchLimit)
	c.updateAngles()
}

func (c *Camera) State() CameraState {
	return CameraState{
		X:  c.pos.X(),
		Y:  c.pos.Y(),
		Z:  c.pos.Z(),
		Rx: c.rotatex,
		Ry: c.rotatey,
	}
}

func (c *Camera) Matrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.pos, c.pos.Add(c.front), c.up)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(radian(c.cfg.Fov), c.aspect, c.cfg.Near, c.cfg.Far)
}

func (c *Camera) ViewProj() mgl32.Mat4 {
	return c.Projection().Mul4(c.Matrix())
}

// SetViewport updates the aspect ratio. A zero-sized viewport, as reported
// for a minimized window, deactivates the camera.
func (c *Camera) SetViewport(width, height int) {
	c.active = width > 0 && height > 0
	if c.active {
		c.aspect = float32(width) / float32(height)
	}
}

// ActiveCamera implements chunkwin.CameraSource.
func (c *Camera) ActiveCamera() (chunkwin.Pose, bool) {
	if !c.active {
		return chunkwin.Pose{}, false
	}
	return chunkwin.Pose{
		Position: c.pos,
		Frustum:  chunkwin.FrustumFromMatrix(c.ViewProj()),
	}, true
}

func (c *Camera) Pos() mgl32.Vec3 {
	return c.pos
}

func (c *Camera) Front() mgl32.Vec3 {
	return c.front
}

func (c *Camera) OnAngleChange(dx, dy float32) {
	if mgl32.Abs(dx) > 200 || mgl32.Abs(dy) > 200 {
		return
	}
	c.rotatex += dx * c.cfg.Sensitivity
	c.rotatey = clamp(c.rotatey+dy*c.cfg.Sensitivity, -c.cfg.PitchLimit, c.cfg.PitchLimit)
	c.updateAngles()
}

// OnMoveChange moves the camera along dir by delta world units. Forward and
// backward follow the view direction, up and down the world axis.
func (c *Camera) OnMoveChange(dir CameraMovement, delta float32) {
	switch dir {
	case MoveForward:
		c.pos = c.pos.Add(c.front.Mul(delta))
	case MoveBackward:
		c.pos = c.pos.Sub(c.front.Mul(delta))
	case MoveLeft:
		c.pos = c.pos.Sub(c.right.Mul(delta))
	case MoveRight:
		c.pos = c.pos.Add(c.right.Mul(delta))
	case MoveUp:
		c.pos = c.pos.Add(mgl32.Vec3{0, delta, 0})
	case MoveDown:
		c.pos = c.pos.Sub(mgl32.Vec3{0, delta, 0})
	}
}

func (c *Camera) updateAngles() {
	front := mgl32.Vec3{
		cos(radian(c.rotatey)) * cos(radian(c.rotatex)),
		sin(radian(c.rotatey)),
		cos(radian(c.rotatey)) * sin(radian(c.rotatex)),
	}
	c.front = front.Normalize()
	c.right = c.front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}
