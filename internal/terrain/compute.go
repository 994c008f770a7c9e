package terrain

import (
	"log"

	"github.com/icexin/gputerrain/internal/chunkwin"
	"github.com/icexin/gputerrain/internal/gpu"
	"github.com/icexin/gputerrain/internal/voxelgen"
)

const ComputeNodeName = "voxel_compute"

// ComputeNode clears the density and vertex buffers, then records the density
// stage followed by the vertex stage in one compute pass. Both stages cover
// every slot of the window, so the grids never depend on how many chunks are
// visible.
type ComputeNode struct {
	layout chunkwin.Layout
	bind   *BindGroupPreparer

	heightID gpu.PipelineID
	vertexID gpu.PipelineID
	ready    bool
}

func NewComputeNode(dev gpu.Device, l chunkwin.Layout, bind *BindGroupPreparer) *ComputeNode {
	defines := map[string]int{"VERTICES_PER_VOXEL": l.VerticesPerVoxel}
	hw, vw := uint32(l.HeightWorkgroup), uint32(l.VertexWorkgroup)
	n := &ComputeNode{layout: l, bind: bind}
	n.heightID = dev.Programs().QueueCompute(gpu.ComputePipelineDesc{
		Label:     "voxel_height_map",
		Layout:    computeLayout,
		Shader:    gpu.ShaderSource{Path: voxelgen.ComputeShaderPath, EntryPoint: voxelgen.EntryHeightMap},
		Workgroup: [3]uint32{hw, hw, hw},
		Defines:   defines,
	})
	n.vertexID = dev.Programs().QueueCompute(gpu.ComputePipelineDesc{
		Label:     "voxel_vertices",
		Layout:    computeLayout,
		Shader:    gpu.ShaderSource{Path: voxelgen.ComputeShaderPath, EntryPoint: voxelgen.EntryVertices},
		Workgroup: [3]uint32{vw, vw, 1},
		Defines:   defines,
	})
	return n
}

func (n *ComputeNode) Name() string {
	return ComputeNodeName
}

// HeightGrid has one invocation per voxel of every slot: x and y are voxel
// coordinates, z packs slot-local z and the list position.
func (n *ComputeNode) HeightGrid() [3]uint32 {
	e, w := uint32(n.layout.ChunkSize), uint32(n.layout.HeightWorkgroup)
	return [3]uint32{e / w, e / w, uint32(n.layout.Capacity()) * e / w}
}

// VertexGrid has one invocation per cell column (x, z) in [0, E-1)^2 of
// every slot.
func (n *ComputeNode) VertexGrid() [3]uint32 {
	cells, w := uint32(n.layout.ChunkSize-1), uint32(n.layout.VertexWorkgroup)
	g := (cells + w - 1) / w
	return [3]uint32{g, g, uint32(n.layout.Capacity())}
}

func (n *ComputeNode) Run(ctx *FrameContext) {
	height, ok1 := ctx.Device.Programs().Compute(n.heightID)
	vertex, ok2 := ctx.Device.Programs().Compute(n.vertexID)
	if !ok1 || !ok2 {
		ctx.Stats.Skipped |= SkipComputePipelines
		return
	}
	if !n.ready {
		log.Printf("terrain: compute pipelines ready")
		n.ready = true
	}
	group := n.bind.Group()
	if group == nil {
		ctx.Stats.Skipped |= SkipBindGroup
		return
	}

	// Slots without a list entry are not written by either stage; clearing
	// leaves them with zero density and degenerate vertices.
	bufs := group.Buffers()
	ctx.Encoder.ClearBuffer(bufs[voxelgen.BindingVoxels])
	ctx.Encoder.ClearBuffer(bufs[voxelgen.BindingVertices])

	pass := ctx.Encoder.BeginComputePass("voxel_compute")
	pass.SetBindGroup(0, group)

	hg := n.HeightGrid()
	pass.SetPipeline(height)
	pass.Dispatch(hg[0], hg[1], hg[2])

	vg := n.VertexGrid()
	pass.SetPipeline(vertex)
	pass.Dispatch(vg[0], vg[1], vg[2])

	pass.End()
	ctx.Stats.Dispatched = true
}
