// Package gpu is the small device model the terrain pipeline is written
// against: an asset facility that realizes buffers, a pipeline cache that
// compiles programs addressed by shader path and entry point, a queue, and
// command encoders. Backends live in glgpu (OpenGL 4.3) and softgpu (CPU).
package gpu

import "github.com/go-gl/mathgl/mgl32"

type BufferUsage uint32

const (
	BufferStorage BufferUsage = 1 << iota
	BufferUniform
	BufferCopyDst
	BufferVertex
)

func (u BufferUsage) Has(f BufferUsage) bool {
	return u&f == f
}

type BufferDesc struct {
	Label string
	Size  int
	Usage BufferUsage
}

// Buffer is a realized GPU buffer.
type Buffer interface {
	Desc() BufferDesc
}

// Handle names a buffer requested from Assets. It stays valid before the
// buffer is realized.
type Handle uint32

// Assets is the buffer allocation facility. Buffers added are realized by a
// later Device.Maintain; until then Get reports false.
type Assets interface {
	Add(desc BufferDesc) Handle
	Get(h Handle) (Buffer, bool)
	Remove(h Handle)
}

type BindingType int

const (
	BindUniform BindingType = iota
	BindStorageReadOnly
	BindStorage
)

// BindGroupLayout lists the binding types in binding-index order.
type BindGroupLayout struct {
	Label   string
	Entries []BindingType
}

type BindGroup interface {
	Layout() *BindGroupLayout
	Buffers() []Buffer
}

// ShaderSource addresses a program by asset path and entry point.
type ShaderSource struct {
	Path       string
	EntryPoint string
}

// ShaderLoader returns the complete program text of src's entry point,
// compiled with defines.
type ShaderLoader func(src ShaderSource, defines map[string]int) (string, error)

type ComputePipelineDesc struct {
	Label     string
	Layout    *BindGroupLayout
	Shader    ShaderSource
	Workgroup [3]uint32
	// Defines are compile-time integer constants handed to the program.
	Defines map[string]int
}

type VertexAttribute struct {
	Name       string
	Components int
	Offset     int
}

type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

type RenderPipelineDesc struct {
	Label    string
	Vertex   ShaderSource
	Fragment ShaderSource
	Buffers  VertexLayout
}

type PipelineID int

type ComputePipeline interface {
	Desc() ComputePipelineDesc
}

type RenderPipeline interface {
	Desc() RenderPipelineDesc
}

// PipelineCache compiles queued pipelines in the background of
// Device.Maintain. Lookups report false until compilation finished; a
// pipeline that failed to compile is never ready.
type PipelineCache interface {
	QueueCompute(desc ComputePipelineDesc) PipelineID
	QueueRender(desc RenderPipelineDesc) PipelineID
	Compute(id PipelineID) (ComputePipeline, bool)
	Render(id PipelineID) (RenderPipeline, bool)
}

// RenderTarget is a color target with the view that renders into it.
type RenderTarget interface {
	Name() string
	ViewProj() mgl32.Mat4
}

type LoadOp int

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
)

type RenderPassDesc struct {
	Label  string
	Target RenderTarget
	Load   LoadOp
}

// Queue orders buffer writes and submissions. WriteBuffer copies data before
// returning and takes effect before any command buffer submitted after it.
type Queue interface {
	WriteBuffer(b Buffer, offset int, data []byte)
	Submit(cmds ...*CommandList)
}

type Device interface {
	Assets() Assets
	Programs() PipelineCache
	Queue() Queue
	CreateBindGroup(label string, layout *BindGroupLayout, buffers []Buffer) (BindGroup, error)
	CreateEncoder(label string) *Encoder
	// Targets lists the color targets available this frame.
	Targets() []RenderTarget
	// Maintain realizes pending assets and advances pipeline compilation.
	Maintain()
}
