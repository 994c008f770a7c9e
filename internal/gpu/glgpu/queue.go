package glgpu

import (
	"log"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/icexin/gputerrain/internal/gpu"
)

// queue issues writes immediately; GL orders them ahead of every command
// issued later on the same context.
type queue struct{}

func (q *queue) WriteBuffer(b gpu.Buffer, offset int, data []byte) {
	buf, ok := b.(*Buffer)
	if !ok {
		log.Panicf("glgpu: write to foreign buffer %q", b.Desc().Label)
	}
	if offset < 0 || offset+len(data) > buf.desc.Size {
		log.Panicf("glgpu: write [%d, %d) outside buffer %q of %d bytes",
			offset, offset+len(data), buf.desc.Label, buf.desc.Size)
	}
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, buf.id)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, offset, len(data), gl.Ptr(&data[0]))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
}

func (q *queue) Submit(cmds ...*gpu.CommandList) {
	for _, cl := range cmds {
		run(cl)
	}
}

type state struct {
	compute *computePipeline
	render  *renderPipeline
	target  *WindowTarget
}

func run(cl *gpu.CommandList) {
	var st state
	for _, op := range cl.Ops {
		switch op.Kind {
		case gpu.OpBeginCompute:
			st = state{}
		case gpu.OpSetComputePipeline:
			st.compute = op.Compute.(*computePipeline)
			gl.UseProgram(st.compute.program)
		case gpu.OpSetBindGroup:
			bindGroup(op.BindGroup)
		case gpu.OpDispatch:
			if st.compute == nil {
				log.Panicf("glgpu: dispatch in %q without pipeline", cl.Label)
			}
			gl.DispatchCompute(op.Grid[0], op.Grid[1], op.Grid[2])
			gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT)
		case gpu.OpEndCompute:
			gl.MemoryBarrier(gl.VERTEX_ATTRIB_ARRAY_BARRIER_BIT)
			gl.UseProgram(0)
			st = state{}
		case gpu.OpBeginRender:
			t, ok := op.Target.(*WindowTarget)
			if !ok {
				log.Panicf("glgpu: render pass %q on foreign target", op.Label)
			}
			st = state{target: t}
			t.begin(op.Load)
		case gpu.OpSetRenderPipeline:
			st.render = op.Render.(*renderPipeline)
			st.render.shader.Begin()
			st.render.shader.SetUniformAttr(0, st.target.ViewProj())
		case gpu.OpSetVertexBuffer:
			if st.render == nil {
				log.Panicf("glgpu: vertex buffer in %q without pipeline", op.Label)
			}
			gl.BindVertexArray(st.render.vertexArray(op.Buffer.(*Buffer)))
		case gpu.OpDraw:
			gl.DrawArraysInstanced(gl.TRIANGLES, 0, int32(op.Vertices), int32(op.Instances))
		case gpu.OpEndRender:
			gl.BindVertexArray(0)
			if st.render != nil {
				st.render.shader.End()
			}
			st = state{}
		case gpu.OpClearBuffer:
			gl.MemoryBarrier(gl.BUFFER_UPDATE_BARRIER_BIT)
			op.Buffer.(*Buffer).clear()
		}
	}
}

func bindGroup(g gpu.BindGroup) {
	layout := g.Layout()
	for i, b := range g.Buffers() {
		id := b.(*Buffer).id
		switch layout.Entries[i] {
		case gpu.BindUniform:
			gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(i), id)
		default:
			gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(i), id)
		}
	}
}
