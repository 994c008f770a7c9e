package softgpu

import (
	"log"

	"github.com/pkg/errors"

	"github.com/icexin/gputerrain/internal/gpu"
)

func errForeignBuffer(label string, b gpu.Buffer) error {
	return errors.Errorf("bind group %q: buffer %q belongs to another device", label, b.Desc().Label)
}

type assets struct {
	next    gpu.Handle
	pending map[gpu.Handle]gpu.BufferDesc
	ready   map[gpu.Handle]*Buffer
}

func newAssets() *assets {
	return &assets{
		pending: make(map[gpu.Handle]gpu.BufferDesc),
		ready:   make(map[gpu.Handle]*Buffer),
	}
}

func (a *assets) Add(desc gpu.BufferDesc) gpu.Handle {
	a.next++
	a.pending[a.next] = desc
	return a.next
}

func (a *assets) Get(h gpu.Handle) (gpu.Buffer, bool) {
	b, ok := a.ready[h]
	if !ok {
		return nil, false
	}
	return b, true
}

func (a *assets) Remove(h gpu.Handle) {
	delete(a.pending, h)
	delete(a.ready, h)
}

func (a *assets) realize() {
	for h, desc := range a.pending {
		a.ready[h] = &Buffer{desc: desc, data: make([]byte, desc.Size)}
		delete(a.pending, h)
	}
}

type computePipeline struct {
	desc   gpu.ComputePipelineDesc
	kernel Kernel
}

func (p *computePipeline) Desc() gpu.ComputePipelineDesc {
	return p.desc
}

type renderPipeline struct {
	desc gpu.RenderPipelineDesc
}

func (p *renderPipeline) Desc() gpu.RenderPipelineDesc {
	return p.desc
}

type cache struct {
	dev *Device

	computeDescs []gpu.ComputePipelineDesc
	renderDescs  []gpu.RenderPipelineDesc
	compute      map[gpu.PipelineID]*computePipeline
	render       map[gpu.PipelineID]*renderPipeline
	nextCompute  int
	nextRender   int
}

func newCache(d *Device) *cache {
	return &cache{
		dev:     d,
		compute: make(map[gpu.PipelineID]*computePipeline),
		render:  make(map[gpu.PipelineID]*renderPipeline),
	}
}

// Compute and render pipelines share one id space: compute ids are even,
// render ids odd.
func (c *cache) QueueCompute(desc gpu.ComputePipelineDesc) gpu.PipelineID {
	c.computeDescs = append(c.computeDescs, desc)
	return gpu.PipelineID(2 * (len(c.computeDescs) - 1))
}

func (c *cache) QueueRender(desc gpu.RenderPipelineDesc) gpu.PipelineID {
	c.renderDescs = append(c.renderDescs, desc)
	return gpu.PipelineID(2*(len(c.renderDescs)-1) + 1)
}

func (c *cache) Compute(id gpu.PipelineID) (gpu.ComputePipeline, bool) {
	p, ok := c.compute[id]
	if !ok {
		return nil, false
	}
	return p, true
}

func (c *cache) Render(id gpu.PipelineID) (gpu.RenderPipeline, bool) {
	p, ok := c.render[id]
	if !ok {
		return nil, false
	}
	return p, true
}

func (c *cache) compile() {
	for ; c.nextCompute < len(c.computeDescs); c.nextCompute++ {
		id := gpu.PipelineID(2 * c.nextCompute)
		desc := c.computeDescs[c.nextCompute]
		k, ok := c.dev.kernels[desc.Shader]
		if !ok {
			log.Printf("softgpu: no kernel for %s#%s", desc.Shader.Path, desc.Shader.EntryPoint)
			continue
		}
		c.compute[id] = &computePipeline{desc: desc, kernel: k}
	}
	for ; c.nextRender < len(c.renderDescs); c.nextRender++ {
		id := gpu.PipelineID(2*c.nextRender + 1)
		c.render[id] = &renderPipeline{desc: c.renderDescs[c.nextRender]}
	}
}
