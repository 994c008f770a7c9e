package terrain

import (
	"github.com/icexin/gputerrain/internal/chunkwin"
	"github.com/icexin/gputerrain/internal/gpu"
	"github.com/icexin/gputerrain/internal/voxelgen"
)

const DrawNodeName = "voxel_draw"

// DrawNode draws the whole vertex buffer into the first target. Degenerate
// vertices are discarded by the program, so every slot is drawn whether it
// holds a visible chunk or not.
type DrawNode struct {
	layout   chunkwin.Layout
	buffers  *BufferManager
	pipeline gpu.PipelineID
}

func NewDrawNode(dev gpu.Device, l chunkwin.Layout, buffers *BufferManager) *DrawNode {
	id := dev.Programs().QueueRender(gpu.RenderPipelineDesc{
		Label:    "voxel_render",
		Vertex:   gpu.ShaderSource{Path: voxelgen.RenderShaderPath, EntryPoint: voxelgen.EntryVertex},
		Fragment: gpu.ShaderSource{Path: voxelgen.RenderShaderPath, EntryPoint: voxelgen.EntryFragment},
		Buffers: gpu.VertexLayout{
			Stride: voxelgen.VertexSize,
			Attributes: []gpu.VertexAttribute{
				{Name: "coord", Components: 4, Offset: 0},
			},
		},
	})
	return &DrawNode{layout: l, buffers: buffers, pipeline: id}
}

func (n *DrawNode) Name() string {
	return DrawNodeName
}

// VertexCount is the number of vertices drawn per frame.
func (n *DrawNode) VertexCount() uint32 {
	return uint32(n.layout.VertexCapacity())
}

func (n *DrawNode) Run(ctx *FrameContext) {
	targets := ctx.Device.Targets()
	if len(targets) == 0 {
		ctx.Stats.Skipped |= SkipNoTarget
		return
	}
	pipeline, ok := ctx.Device.Programs().Render(n.pipeline)
	if !ok {
		ctx.Stats.Skipped |= SkipRenderPipeline
		return
	}
	bufs, ok := n.buffers.Buffers()
	if !ok {
		ctx.Stats.Skipped |= SkipBuffers
		return
	}

	pass := ctx.Encoder.BeginRenderPass(gpu.RenderPassDesc{
		Label:  "voxel_draw",
		Target: targets[0],
		Load:   gpu.LoadOpLoad,
	})
	pass.SetPipeline(pipeline)
	pass.SetVertexBuffer(0, bufs.Vertices)
	pass.Draw(n.VertexCount(), 1)
	pass.End()
	ctx.Stats.Drawn = int(n.VertexCount())
}
