package terrain

import (
	"log"

	"github.com/icexin/gputerrain/internal/chunkwin"
	"github.com/icexin/gputerrain/internal/gpu"
	"github.com/icexin/gputerrain/internal/voxelgen"
)

var computeLayout = &gpu.BindGroupLayout{
	Label: "voxel_compute",
	Entries: []gpu.BindingType{
		voxelgen.BindingGlobals:  gpu.BindUniform,
		voxelgen.BindingChunks:   gpu.BindStorageReadOnly,
		voxelgen.BindingVoxels:   gpu.BindStorage,
		voxelgen.BindingVertices: gpu.BindStorage,
	},
}

// ComputeBindGroupLayout is the layout both compute programs are built with.
func ComputeBindGroupLayout() *gpu.BindGroupLayout {
	return computeLayout
}

// BindGroupPreparer binds the window buffers for the compute stages. The
// group is rebuilt only when the realized buffers change.
type BindGroupPreparer struct {
	buffers *BufferManager
	layout  chunkwin.Layout

	group   gpu.BindGroup
	bound   Buffers
	lastErr string
}

func NewBindGroupPreparer(buffers *BufferManager, l chunkwin.Layout) *BindGroupPreparer {
	return &BindGroupPreparer{buffers: buffers, layout: l}
}

// Prepare yields the frame's bind group, or nil when any buffer is not
// realized. The globals record is written whenever the group is built.
func (p *BindGroupPreparer) Prepare(dev gpu.Device) gpu.BindGroup {
	bufs, ok := p.buffers.Buffers()
	if !ok {
		p.group = nil
		p.bound = Buffers{}
		return nil
	}
	if p.group != nil && bufs == p.bound {
		return p.group
	}
	g, err := dev.CreateBindGroup("voxel_compute", computeLayout, bufs.bindings())
	if err != nil {
		if msg := err.Error(); msg != p.lastErr {
			log.Printf("terrain: %v", err)
			p.lastErr = msg
		}
		p.group = nil
		return nil
	}
	globals := voxelgen.Globals{ChunkSize: uint32(p.layout.ChunkSize)}
	dev.Queue().WriteBuffer(bufs.Globals, 0, globals.Bytes())
	p.group = g
	p.bound = bufs
	p.lastErr = ""
	return g
}

// Group returns the bind group of the last Prepare.
func (p *BindGroupPreparer) Group() gpu.BindGroup {
	return p.group
}
