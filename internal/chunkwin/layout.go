// Package chunkwin selects the chunks of a fixed window around the camera
// that intersect its frustum, and maps every window position to a dense
// slot index used to address GPU buffer regions.
package chunkwin

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Coord identifies a chunk in world grid space.
type Coord struct {
	X, Y, Z int32
}

func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

func (c Coord) Sub(o Coord) Coord {
	return Coord{c.X - o.X, c.Y - o.Y, c.Z - o.Z}
}

// ChunkOf returns the chunk containing the world position pos.
func ChunkOf(pos mgl32.Vec3, edge float32) Coord {
	return Coord{
		int32(math.Floor(float64(pos.X() / edge))),
		int32(math.Floor(float64(pos.Y() / edge))),
		int32(math.Floor(float64(pos.Z() / edge))),
	}
}

// Layout holds the constants shared by the selector, the GPU buffers and the
// dispatch grids. Every component is built from the same Layout value so the
// window capacity can never disagree between them.
type Layout struct {
	// ChunkSize is both the number of voxels along a chunk edge and the
	// chunk edge length in world units.
	ChunkSize int `yaml:"chunk_size"`
	ExtentXZ  int `yaml:"extent_xz"`
	ExtentY   int `yaml:"extent_y"`

	VerticesPerVoxel int `yaml:"vertices_per_voxel"`
	HeightWorkgroup  int `yaml:"height_workgroup"`
	VertexWorkgroup  int `yaml:"vertex_workgroup"`
}

var DefaultLayout = Layout{
	ChunkSize:        16,
	ExtentXZ:         6,
	ExtentY:          4,
	VerticesPerVoxel: 3,
	HeightWorkgroup:  4,
	VertexWorkgroup:  8,
}

func (l Layout) Validate() error {
	if l.ChunkSize < 2 {
		return errors.Errorf("chunk size %d too small", l.ChunkSize)
	}
	if l.ExtentXZ < 0 || l.ExtentY < 0 {
		return errors.Errorf("negative window extent %d/%d", l.ExtentXZ, l.ExtentY)
	}
	if l.VerticesPerVoxel < 3 {
		return errors.Errorf("vertices per voxel %d cannot hold a triangle", l.VerticesPerVoxel)
	}
	if l.HeightWorkgroup < 1 || l.ChunkSize%l.HeightWorkgroup != 0 {
		return errors.Errorf("height workgroup %d does not divide chunk size %d", l.HeightWorkgroup, l.ChunkSize)
	}
	if l.VertexWorkgroup < 1 {
		return errors.Errorf("vertex workgroup %d", l.VertexWorkgroup)
	}
	if uint64(l.Capacity())*uint64(l.VoxelsPerChunk())*uint64(l.VerticesPerVoxel) > math.MaxInt32 {
		return errors.Errorf("vertex capacity of %+v overflows a draw call", l)
	}
	return nil
}

func (l Layout) SideXZ() int {
	return 2*l.ExtentXZ + 1
}

func (l Layout) SideY() int {
	return 2*l.ExtentY + 1
}

// Capacity is the number of addressable window slots.
func (l Layout) Capacity() int {
	return l.SideXZ() * l.SideXZ() * l.SideY()
}

func (l Layout) VoxelsPerChunk() int {
	return l.ChunkSize * l.ChunkSize * l.ChunkSize
}

// VertexCapacity is the number of vertex records the whole window can emit.
func (l Layout) VertexCapacity() int {
	return l.Capacity() * l.VoxelsPerChunk() * l.VerticesPerVoxel
}

func (l Layout) ChunkEdge() float32 {
	return float32(l.ChunkSize)
}

// Contains reports whether c lies within the window centred on origin.
func (l Layout) Contains(c, origin Coord) bool {
	d := c.Sub(origin)
	ext, ey := int32(l.ExtentXZ), int32(l.ExtentY)
	return d.X >= -ext && d.X <= ext &&
		d.Y >= -ey && d.Y <= ey &&
		d.Z >= -ext && d.Z <= ext
}

// Index maps a coordinate of the window centred on origin to its slot,
// composed row-major as x + y*W + z*W*H with W the horizontal side and H the
// vertical side. The slot identifies a position relative to origin, not a
// world chunk.
func (l Layout) Index(c, origin Coord) uint32 {
	if !l.Contains(c, origin) {
		log.Panicf("chunk %v outside window at %v", c, origin)
	}
	x := uint32(c.X - origin.X + int32(l.ExtentXZ))
	y := uint32(c.Y - origin.Y + int32(l.ExtentY))
	z := uint32(c.Z - origin.Z + int32(l.ExtentXZ))
	w, h := uint32(l.SideXZ()), uint32(l.SideY())
	return x + y*w + z*w*h
}

// CoordAt is the inverse of Index.
func (l Layout) CoordAt(slot uint32, origin Coord) Coord {
	w, h := uint32(l.SideXZ()), uint32(l.SideY())
	x := slot % w
	y := (slot / w) % h
	z := slot / (w * h)
	return Coord{
		int32(x) - int32(l.ExtentXZ) + origin.X,
		int32(y) - int32(l.ExtentY) + origin.Y,
		int32(z) - int32(l.ExtentXZ) + origin.Z,
	}
}
