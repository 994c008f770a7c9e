package gpu

type OpKind int

const (
	OpBeginCompute OpKind = iota
	OpSetComputePipeline
	OpSetBindGroup
	OpDispatch
	OpEndCompute
	OpBeginRender
	OpSetRenderPipeline
	OpSetVertexBuffer
	OpDraw
	OpEndRender
	OpClearBuffer
)

var opNames = [...]string{
	OpBeginCompute:       "begin_compute",
	OpSetComputePipeline: "set_compute_pipeline",
	OpSetBindGroup:       "set_bind_group",
	OpDispatch:           "dispatch",
	OpEndCompute:         "end_compute",
	OpBeginRender:        "begin_render",
	OpSetRenderPipeline:  "set_render_pipeline",
	OpSetVertexBuffer:    "set_vertex_buffer",
	OpDraw:               "draw",
	OpEndRender:          "end_render",
	OpClearBuffer:        "clear_buffer",
}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return "unknown"
}

// Op is one recorded command. Only the fields relevant to Kind are set.
type Op struct {
	Kind  OpKind
	Label string

	Compute   ComputePipeline
	Render    RenderPipeline
	BindGroup BindGroup
	Buffer    Buffer
	Index     int

	Grid      [3]uint32
	Vertices  uint32
	Instances uint32

	Target RenderTarget
	Load   LoadOp
}

// CommandList is a finished recording, executed in order by Queue.Submit.
type CommandList struct {
	Label string
	Ops   []Op
}

// Encoder records passes into a CommandList. Backends share it and only
// differ in how they execute the ops.
type Encoder struct {
	label string
	ops   []Op
	open  bool
}

func NewEncoder(label string) *Encoder {
	return &Encoder{label: label}
}

func (e *Encoder) push(op Op) {
	e.ops = append(e.ops, op)
}

func (e *Encoder) begin(op Op) {
	if e.open {
		panic("gpu: pass begun while another pass is open")
	}
	e.open = true
	e.push(op)
}

func (e *Encoder) BeginComputePass(label string) *ComputePass {
	e.begin(Op{Kind: OpBeginCompute, Label: label})
	return &ComputePass{enc: e}
}

func (e *Encoder) BeginRenderPass(desc RenderPassDesc) *RenderPass {
	e.begin(Op{Kind: OpBeginRender, Label: desc.Label, Target: desc.Target, Load: desc.Load})
	return &RenderPass{enc: e}
}

// ClearBuffer zero-fills b. It is recorded between passes and orders ahead
// of every pass begun after it.
func (e *Encoder) ClearBuffer(b Buffer) {
	if e.open {
		panic("gpu: clear inside a pass")
	}
	if !b.Desc().Usage.Has(BufferCopyDst) {
		panic("gpu: clear of " + b.Desc().Label + ", not a copy destination")
	}
	e.push(Op{Kind: OpClearBuffer, Buffer: b})
}

func (e *Encoder) Finish() *CommandList {
	if e.open {
		panic("gpu: finish with an open pass")
	}
	cl := &CommandList{Label: e.label, Ops: e.ops}
	e.ops = nil
	return cl
}

type ComputePass struct {
	enc *Encoder
}

func (p *ComputePass) SetPipeline(pl ComputePipeline) {
	p.enc.push(Op{Kind: OpSetComputePipeline, Compute: pl})
}

func (p *ComputePass) SetBindGroup(index int, g BindGroup) {
	p.enc.push(Op{Kind: OpSetBindGroup, Index: index, BindGroup: g})
}

func (p *ComputePass) Dispatch(x, y, z uint32) {
	p.enc.push(Op{Kind: OpDispatch, Grid: [3]uint32{x, y, z}})
}

func (p *ComputePass) End() {
	p.enc.push(Op{Kind: OpEndCompute})
	p.enc.open = false
}

type RenderPass struct {
	enc *Encoder
}

func (p *RenderPass) SetPipeline(pl RenderPipeline) {
	p.enc.push(Op{Kind: OpSetRenderPipeline, Render: pl})
}

func (p *RenderPass) SetVertexBuffer(slot int, b Buffer) {
	p.enc.push(Op{Kind: OpSetVertexBuffer, Index: slot, Buffer: b})
}

func (p *RenderPass) Draw(vertices, instances uint32) {
	p.enc.push(Op{Kind: OpDraw, Vertices: vertices, Instances: instances})
}

func (p *RenderPass) End() {
	p.enc.push(Op{Kind: OpEndRender})
	p.enc.open = false
}
