package glgpu

import (
	"log"
	"strings"

	"github.com/faiface/glhf"
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/pkg/errors"

	"github.com/icexin/gputerrain/internal/gpu"
)

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		info := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(info))
		gl.DeleteShader(shader)
		return 0, errors.Errorf("compile: %s", strings.TrimRight(info, "\x00"))
	}
	return shader, nil
}

func compileComputeProgram(source string) (uint32, error) {
	shader, err := compileShader(gl.COMPUTE_SHADER, source)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(shader)

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		info := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(info))
		gl.DeleteProgram(program)
		return 0, errors.Errorf("link: %s", strings.TrimRight(info, "\x00"))
	}
	return program, nil
}

type computePipeline struct {
	desc    gpu.ComputePipelineDesc
	program uint32
}

func (p *computePipeline) Desc() gpu.ComputePipelineDesc {
	return p.desc
}

type renderPipeline struct {
	desc   gpu.RenderPipelineDesc
	shader *glhf.Shader
	// vertex arrays by vertex buffer
	vaos map[uint32]uint32
}

func (p *renderPipeline) Desc() gpu.RenderPipelineDesc {
	return p.desc
}

// vertexArray binds b as the only vertex stream of the pipeline, laid out
// per desc.Buffers.
func (p *renderPipeline) vertexArray(b *Buffer) uint32 {
	if vao, ok := p.vaos[b.id]; ok {
		return vao
	}
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	layout := p.desc.Buffers
	for _, attr := range layout.Attributes {
		loc := gl.GetAttribLocation(p.shader.ID(), gl.Str(attr.Name+"\x00"))
		if loc < 0 {
			log.Printf("glgpu: %s has no attribute %s", p.desc.Label, attr.Name)
			continue
		}
		gl.VertexAttribPointer(
			uint32(loc),
			int32(attr.Components),
			gl.FLOAT,
			false,
			int32(layout.Stride),
			gl.PtrOffset(attr.Offset),
		)
		gl.EnableVertexAttribArray(uint32(loc))
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	p.vaos[b.id] = vao
	return vao
}

func (p *renderPipeline) release() {
	for _, vao := range p.vaos {
		gl.DeleteVertexArrays(1, &vao)
	}
	p.vaos = nil
}

func vertexFormat(layout gpu.VertexLayout) glhf.AttrFormat {
	var format glhf.AttrFormat
	for _, attr := range layout.Attributes {
		var typ glhf.AttrType
		switch attr.Components {
		case 1:
			typ = glhf.Float
		case 2:
			typ = glhf.Vec2
		case 3:
			typ = glhf.Vec3
		default:
			typ = glhf.Vec4
		}
		format = append(format, glhf.Attr{Name: attr.Name, Type: typ})
	}
	return format
}

// cache compiles queued pipelines one per compileNext call. A pipeline whose
// program fails to build is logged once and never becomes ready.
type cache struct {
	load gpu.ShaderLoader

	computeDescs []gpu.ComputePipelineDesc
	renderDescs  []gpu.RenderPipelineDesc
	compute      map[gpu.PipelineID]*computePipeline
	render       map[gpu.PipelineID]*renderPipeline
	nextCompute  int
	nextRender   int
}

func newCache(load gpu.ShaderLoader) *cache {
	return &cache{
		load:    load,
		compute: make(map[gpu.PipelineID]*computePipeline),
		render:  make(map[gpu.PipelineID]*renderPipeline),
	}
}

// Compute ids are even, render ids odd.
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

func (c *cache) compileNext() {
	switch {
	case c.nextCompute < len(c.computeDescs):
		id := gpu.PipelineID(2 * c.nextCompute)
		desc := c.computeDescs[c.nextCompute]
		c.nextCompute++
		p, err := c.buildCompute(desc)
		if err != nil {
			log.Printf("glgpu: pipeline %s: %v", desc.Label, err)
			return
		}
		c.compute[id] = p
		log.Printf("glgpu: pipeline %s ready", desc.Label)
	case c.nextRender < len(c.renderDescs):
		id := gpu.PipelineID(2*c.nextRender + 1)
		desc := c.renderDescs[c.nextRender]
		c.nextRender++
		p, err := c.buildRender(desc)
		if err != nil {
			log.Printf("glgpu: pipeline %s: %v", desc.Label, err)
			return
		}
		c.render[id] = p
		log.Printf("glgpu: pipeline %s ready", desc.Label)
	}
}

func (c *cache) buildCompute(desc gpu.ComputePipelineDesc) (*computePipeline, error) {
	defines := map[string]int{
		"WORKGROUP_X": int(desc.Workgroup[0]),
		"WORKGROUP_Y": int(desc.Workgroup[1]),
		"WORKGROUP_Z": int(desc.Workgroup[2]),
	}
	for k, v := range desc.Defines {
		defines[k] = v
	}
	source, err := c.load(desc.Shader, defines)
	if err != nil {
		return nil, err
	}
	program, err := compileComputeProgram(source)
	if err != nil {
		return nil, errors.Wrapf(err, "%s#%s", desc.Shader.Path, desc.Shader.EntryPoint)
	}
	return &computePipeline{desc: desc, program: program}, nil
}

func (c *cache) buildRender(desc gpu.RenderPipelineDesc) (*renderPipeline, error) {
	vs, err := c.load(desc.Vertex, nil)
	if err != nil {
		return nil, err
	}
	fs, err := c.load(desc.Fragment, nil)
	if err != nil {
		return nil, err
	}
	shader, err := glhf.NewShader(vertexFormat(desc.Buffers), glhf.AttrFormat{
		glhf.Attr{Name: "matrix", Type: glhf.Mat4},
	}, vs, fs)
	if err != nil {
		return nil, errors.Wrapf(err, "%s#%s", desc.Vertex.Path, desc.Vertex.EntryPoint)
	}
	return &renderPipeline{desc: desc, shader: shader, vaos: make(map[uint32]uint32)}, nil
}

func (c *cache) release() {
	for _, p := range c.compute {
		gl.DeleteProgram(p.program)
	}
	for _, p := range c.render {
		p.release()
	}
	c.compute = make(map[gpu.PipelineID]*computePipeline)
	c.render = make(map[gpu.PipelineID]*renderPipeline)
}
