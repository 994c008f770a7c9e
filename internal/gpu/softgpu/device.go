// Package softgpu executes the gpu command model on the CPU. Compute
// programs are Go kernels registered per shader path and entry point; draws
// are recorded on the target instead of rasterized. It lets the terrain
// pipeline run headless in tests.
package softgpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/icexin/gputerrain/internal/gpu"
)

// Invocation is one compute work item.
type Invocation struct {
	ID       [3]uint32
	Bindings []*Buffer
}

type Kernel func(inv Invocation)

type Buffer struct {
	desc gpu.BufferDesc
	data []byte
}

func (b *Buffer) Desc() gpu.BufferDesc {
	return b.desc
}

// Bytes exposes the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

type DrawRecord struct {
	Pass         string
	Pipeline     string
	VertexBuffer string
	Vertices     uint32
	Instances    uint32
	Load         gpu.LoadOp
}

type Target struct {
	name  string
	VP    mgl32.Mat4
	Draws []DrawRecord
}

func NewTarget(name string) *Target {
	return &Target{name: name, VP: mgl32.Ident4()}
}

func (t *Target) Name() string {
	return t.name
}

func (t *Target) ViewProj() mgl32.Mat4 {
	return t.VP
}

type Device struct {
	// HoldAssets keeps added buffers unrealized across Maintain.
	HoldAssets bool
	// HoldPipelines keeps queued pipelines compiling across Maintain.
	HoldPipelines bool

	kernels map[gpu.ShaderSource]Kernel
	assets  *assets
	cache   *cache
	queue   *queue
	targets []gpu.RenderTarget

	// Submitted keeps every command list in submission order.
	Submitted []*gpu.CommandList
	// Invocations counts kernel calls per entry point.
	Invocations map[string]int
}

func New(kernels map[gpu.ShaderSource]Kernel) *Device {
	d := &Device{
		kernels:     kernels,
		assets:      newAssets(),
		Invocations: make(map[string]int),
	}
	d.cache = newCache(d)
	d.queue = &queue{dev: d}
	return d
}

func (d *Device) Assets() gpu.Assets {
	return d.assets
}

func (d *Device) Programs() gpu.PipelineCache {
	return d.cache
}

func (d *Device) Queue() gpu.Queue {
	return d.queue
}

func (d *Device) CreateBindGroup(label string, layout *gpu.BindGroupLayout, buffers []gpu.Buffer) (gpu.BindGroup, error) {
	for _, b := range buffers {
		if _, ok := b.(*Buffer); !ok && b != nil {
			return nil, errForeignBuffer(label, b)
		}
	}
	return gpu.NewBindGroup(layout, buffers)
}

func (d *Device) CreateEncoder(label string) *gpu.Encoder {
	return gpu.NewEncoder(label)
}

func (d *Device) SetTargets(targets ...gpu.RenderTarget) {
	d.targets = targets
}

func (d *Device) Targets() []gpu.RenderTarget {
	return d.targets
}

func (d *Device) Maintain() {
	if !d.HoldAssets {
		d.assets.realize()
	}
	if !d.HoldPipelines {
		d.cache.compile()
	}
}

// Pending reports how many buffer writes wait for the next submission.
func (d *Device) Pending() int {
	return len(d.queue.writes)
}
