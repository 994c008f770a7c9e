package softgpu

import (
	"log"

	"github.com/icexin/gputerrain/internal/gpu"
)

type write struct {
	buf    *Buffer
	offset int
	data   []byte
}

type queue struct {
	dev    *Device
	writes []write
}

func (q *queue) WriteBuffer(b gpu.Buffer, offset int, data []byte) {
	buf, ok := b.(*Buffer)
	if !ok {
		log.Panicf("softgpu: write to foreign buffer %q", b.Desc().Label)
	}
	if !buf.desc.Usage.Has(gpu.BufferCopyDst) {
		log.Panicf("softgpu: buffer %q is not a copy destination", buf.desc.Label)
	}
	if offset < 0 || offset+len(data) > len(buf.data) {
		log.Panicf("softgpu: write [%d, %d) outside buffer %q of %d bytes",
			offset, offset+len(data), buf.desc.Label, len(buf.data))
	}
	q.writes = append(q.writes, write{buf: buf, offset: offset, data: append([]byte(nil), data...)})
}

func (q *queue) flush() {
	for _, w := range q.writes {
		copy(w.buf.data[w.offset:], w.data)
	}
	q.writes = q.writes[:0]
}

func (q *queue) Submit(cmds ...*gpu.CommandList) {
	q.flush()
	for _, cl := range cmds {
		q.dev.Submitted = append(q.dev.Submitted, cl)
		q.run(cl)
	}
}

type state struct {
	pass     string
	compute  *computePipeline
	render   *renderPipeline
	bindings []*Buffer
	target   *Target
	load     gpu.LoadOp
	vertex   *Buffer
}

func (q *queue) run(cl *gpu.CommandList) {
	var st state
	for _, op := range cl.Ops {
		switch op.Kind {
		case gpu.OpBeginCompute:
			st = state{pass: op.Label}
		case gpu.OpSetComputePipeline:
			st.compute = op.Compute.(*computePipeline)
		case gpu.OpSetBindGroup:
			st.bindings = st.bindings[:0]
			for _, b := range op.BindGroup.Buffers() {
				st.bindings = append(st.bindings, b.(*Buffer))
			}
		case gpu.OpDispatch:
			q.dispatch(&st, op.Grid)
		case gpu.OpBeginRender:
			t, ok := op.Target.(*Target)
			if !ok {
				log.Panicf("softgpu: render pass %q on foreign target", op.Label)
			}
			st = state{pass: op.Label, target: t, load: op.Load}
		case gpu.OpSetRenderPipeline:
			st.render = op.Render.(*renderPipeline)
		case gpu.OpSetVertexBuffer:
			st.vertex = op.Buffer.(*Buffer)
		case gpu.OpDraw:
			q.draw(&st, op)
		case gpu.OpEndCompute, gpu.OpEndRender:
			st = state{}
		case gpu.OpClearBuffer:
			buf := op.Buffer.(*Buffer)
			for i := range buf.data {
				buf.data[i] = 0
			}
		}
	}
}

// dispatch runs every invocation of the grid in workgroup order. Kernels run
// one after another, so writes of one dispatch are visible to the next.
func (q *queue) dispatch(st *state, grid [3]uint32) {
	if st.compute == nil {
		log.Panicf("softgpu: dispatch in %q without pipeline", st.pass)
	}
	size := st.compute.desc.Workgroup
	for i := range size {
		if size[i] == 0 {
			size[i] = 1
		}
	}
	entry := st.compute.desc.Shader.EntryPoint
	inv := Invocation{Bindings: st.bindings}
	for gz := uint32(0); gz < grid[2]; gz++ {
		for gy := uint32(0); gy < grid[1]; gy++ {
			for gx := uint32(0); gx < grid[0]; gx++ {
				for lz := uint32(0); lz < size[2]; lz++ {
					for ly := uint32(0); ly < size[1]; ly++ {
						for lx := uint32(0); lx < size[0]; lx++ {
							inv.ID = [3]uint32{gx*size[0] + lx, gy*size[1] + ly, gz*size[2] + lz}
							st.compute.kernel(inv)
							q.dev.Invocations[entry]++
						}
					}
				}
			}
		}
	}
}

func (q *queue) draw(st *state, op gpu.Op) {
	if st.render == nil || st.target == nil {
		log.Panicf("softgpu: draw in %q without pipeline or target", st.pass)
	}
	rec := DrawRecord{
		Pass:      st.pass,
		Pipeline:  st.render.desc.Label,
		Vertices:  op.Vertices,
		Instances: op.Instances,
		Load:      st.load,
	}
	if st.vertex != nil {
		rec.VertexBuffer = st.vertex.desc.Label
		stride := st.render.desc.Buffers.Stride
		if need := int(op.Vertices) * stride; need > len(st.vertex.data) {
			log.Panicf("softgpu: draw of %d vertices reads %d bytes from %q of %d",
				op.Vertices, need, rec.VertexBuffer, len(st.vertex.data))
		}
	}
	st.target.Draws = append(st.target.Draws, rec)
}
