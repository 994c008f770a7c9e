// Package terrain wires the chunk window to the GPU: it owns the buffers the
// compute programs write, prepares their bind group, records the two compute
// stages and the draw, and drives all of it once per frame.
package terrain

import (
	"log"

	"github.com/icexin/gputerrain/internal/chunkwin"
	"github.com/icexin/gputerrain/internal/gpu"
	"github.com/icexin/gputerrain/internal/voxelgen"
)

// Buffers are the realized buffers of a BufferManager.
type Buffers struct {
	Globals  gpu.Buffer
	Chunks   gpu.Buffer
	Voxels   gpu.Buffer
	Vertices gpu.Buffer
}

func (b Buffers) bindings() []gpu.Buffer {
	return []gpu.Buffer{
		voxelgen.BindingGlobals:  b.Globals,
		voxelgen.BindingChunks:   b.Chunks,
		voxelgen.BindingVoxels:   b.Voxels,
		voxelgen.BindingVertices: b.Vertices,
	}
}

// BufferManager allocates the window buffers once, sized from a single
// Layout, and uploads the visible list into the chunk buffer each frame.
type BufferManager struct {
	dev    gpu.Device
	layout chunkwin.Layout

	globals  gpu.Handle
	chunks   gpu.Handle
	voxels   gpu.Handle
	vertices gpu.Handle

	staging  []byte
	released bool
}

func NewBufferManager(dev gpu.Device, l chunkwin.Layout) *BufferManager {
	voxels := l.Capacity() * l.VoxelsPerChunk()
	m := &BufferManager{
		dev:     dev,
		layout:  l,
		staging: make([]byte, l.Capacity()*voxelgen.ChunkRecordSize),
	}
	assets := dev.Assets()
	m.globals = assets.Add(gpu.BufferDesc{
		Label: "voxel_globals",
		Size:  voxelgen.GlobalsSize,
		Usage: gpu.BufferUniform | gpu.BufferCopyDst,
	})
	m.chunks = assets.Add(gpu.BufferDesc{
		Label: "voxel_chunks",
		Size:  len(m.staging),
		Usage: gpu.BufferStorage | gpu.BufferCopyDst,
	})
	m.voxels = assets.Add(gpu.BufferDesc{
		Label: "voxel_density",
		Size:  voxels * voxelgen.DensitySize,
		Usage: gpu.BufferStorage | gpu.BufferCopyDst,
	})
	m.vertices = assets.Add(gpu.BufferDesc{
		Label: "voxel_vertices",
		Size:  l.VertexCapacity() * voxelgen.VertexSize,
		Usage: gpu.BufferStorage | gpu.BufferCopyDst | gpu.BufferVertex,
	})
	log.Printf("terrain: requested buffers for %d slots, %d vertices", l.Capacity(), l.VertexCapacity())
	return m
}

// Buffers reports the buffers once all of them are realized.
func (m *BufferManager) Buffers() (Buffers, bool) {
	if m.released {
		return Buffers{}, false
	}
	var (
		b  Buffers
		ok bool
	)
	assets := m.dev.Assets()
	if b.Globals, ok = assets.Get(m.globals); !ok {
		return Buffers{}, false
	}
	if b.Chunks, ok = assets.Get(m.chunks); !ok {
		return Buffers{}, false
	}
	if b.Voxels, ok = assets.Get(m.voxels); !ok {
		return Buffers{}, false
	}
	if b.Vertices, ok = assets.Get(m.vertices); !ok {
		return Buffers{}, false
	}
	return b, true
}

// Upload queues the whole list into the chunk buffer. It never blocks and
// reports false when the chunk buffer is not realized yet.
func (m *BufferManager) Upload(list *chunkwin.VisibleList) bool {
	if len(list.Entries) != m.layout.Capacity() {
		log.Panicf("terrain: visible list of %d entries for capacity %d", len(list.Entries), m.layout.Capacity())
	}
	if m.released {
		return false
	}
	buf, ok := m.dev.Assets().Get(m.chunks)
	if !ok {
		return false
	}
	encodeList(m.staging, list)
	m.dev.Queue().WriteBuffer(buf, 0, m.staging)
	return true
}

func encodeList(dst []byte, list *chunkwin.VisibleList) {
	for i, e := range list.Entries {
		voxelgen.PutChunkRecord(dst, i, voxelgen.ChunkRecord{
			Coord: [3]int32{e.Coord.X, e.Coord.Y, e.Coord.Z},
			Slot:  e.Slot,
		})
	}
}

func (m *BufferManager) Release() {
	if m.released {
		return
	}
	assets := m.dev.Assets()
	for _, h := range []gpu.Handle{m.globals, m.chunks, m.voxels, m.vertices} {
		assets.Remove(h)
	}
	m.released = true
}
