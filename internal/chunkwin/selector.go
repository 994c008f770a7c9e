package chunkwin

import "github.com/go-gl/mathgl/mgl32"

// Pose is what the selector needs to know about the active camera.
type Pose struct {
	Position mgl32.Vec3
	Frustum  Frustum
}

// CameraSource reports the active camera, if there is one this frame.
type CameraSource interface {
	ActiveCamera() (Pose, bool)
}

// Selector owns the visible list. It is the list's only writer.
type Selector struct {
	layout Layout
	list   VisibleList
	origin Coord
}

func NewSelector(l Layout) *Selector {
	s := &Selector{layout: l}
	s.list.reset(l.Capacity())
	return s
}

// Update recomputes the visible list. Without an active camera the previous
// list is kept and Update returns false.
//
// Candidates are visited with dx outermost, then dy, then dz, so the output
// is a pure function of the camera chunk and the frustum.
func (s *Selector) Update(cam CameraSource) bool {
	pose, ok := cam.ActiveCamera()
	if !ok {
		return false
	}
	l := s.layout
	s.list.reset(l.Capacity())

	edge := l.ChunkEdge()
	origin := ChunkOf(pose.Position, edge)
	s.origin = origin

	ext, ey := int32(l.ExtentXZ), int32(l.ExtentY)
	idx := 0
	for dx := -ext; dx <= ext; dx++ {
		for dy := -ey; dy <= ey; dy++ {
			for dz := -ext; dz <= ext; dz++ {
				c := origin.Add(Coord{dx, dy, dz})
				if !pose.Frustum.IntersectsAABB(ChunkBox(c, edge), true, true) {
					continue
				}
				s.list.Entries[idx] = Entry{Coord: c, Slot: l.Index(c, origin)}
				idx++
			}
		}
	}
	return true
}

// List returns the current list. Callers must not modify it; use Extract to
// take a copy.
func (s *Selector) List() *VisibleList {
	return &s.list
}

// Origin is the camera chunk of the last successful update.
func (s *Selector) Origin() Coord {
	return s.origin
}

func (s *Selector) Layout() Layout {
	return s.layout
}
