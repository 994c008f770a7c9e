package terrain

import (
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/icexin/gputerrain/internal/chunkwin"
	"github.com/icexin/gputerrain/internal/gpu"
)

const CameraDriverName = "camera_driver"

// Skip records why parts of a frame did not run.
type Skip uint32

const (
	SkipNoCamera Skip = 1 << iota
	SkipBuffers
	SkipBindGroup
	SkipComputePipelines
	SkipRenderPipeline
	SkipNoTarget
)

var skipNames = []string{
	"no camera",
	"buffers pending",
	"no bind group",
	"compute pipelines pending",
	"render pipeline pending",
	"no target",
}

func (s Skip) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	for i, name := range skipNames {
		if s&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

type FrameStats struct {
	Visible    int
	Dispatched bool
	Drawn      int
	Skipped    Skip
}

// FrameContext is what graph nodes record into.
type FrameContext struct {
	Device  gpu.Device
	Encoder *gpu.Encoder
	Stats   *FrameStats
}

// Pipeline owns every component of the terrain window, all built from one
// Layout, and runs them in frame order.
type Pipeline struct {
	dev    gpu.Device
	layout chunkwin.Layout

	selector *chunkwin.Selector
	snapshot chunkwin.VisibleList
	buffers  *BufferManager
	bind     *BindGroupPreparer
	compute  *ComputeNode
	draw     *DrawNode
	graph    *Graph

	frames   int
	lastSkip Skip
}

// New builds the pipeline on dev. driver runs after the terrain draw; nil
// uses a node that does nothing.
func New(dev gpu.Device, l chunkwin.Layout, driver Node) (*Pipeline, error) {
	if err := l.Validate(); err != nil {
		return nil, errors.Wrap(err, "terrain layout")
	}
	if driver == nil {
		driver = NodeFunc(CameraDriverName, func(*FrameContext) {})
	}
	p := &Pipeline{
		dev:      dev,
		layout:   l,
		selector: chunkwin.NewSelector(l),
		buffers:  NewBufferManager(dev, l),
	}
	p.bind = NewBindGroupPreparer(p.buffers, l)
	p.compute = NewComputeNode(dev, l, p.bind)
	p.draw = NewDrawNode(dev, l, p.buffers)

	g := NewGraph()
	for _, n := range []Node{p.compute, p.draw, driver} {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	if err := g.AddEdge(ComputeNodeName, DrawNodeName); err != nil {
		return nil, err
	}
	if err := g.AddEdge(DrawNodeName, driver.Name()); err != nil {
		return nil, err
	}
	if _, err := g.Order(); err != nil {
		return nil, err
	}
	p.graph = g
	return p, nil
}

// Frame runs selection, extraction, upload, bind group preparation and the
// graph, then submits everything recorded as one command list.
func (p *Pipeline) Frame(cam chunkwin.CameraSource) FrameStats {
	var st FrameStats
	p.frames++

	if !p.selector.Update(cam) {
		st.Skipped |= SkipNoCamera
	}
	chunkwin.Extract(&p.snapshot, p.selector.List())
	st.Visible = p.snapshot.Count()

	p.dev.Maintain()
	if !p.buffers.Upload(&p.snapshot) {
		st.Skipped |= SkipBuffers
	}
	p.bind.Prepare(p.dev)

	enc := p.dev.CreateEncoder("frame")
	ctx := &FrameContext{Device: p.dev, Encoder: enc, Stats: &st}
	if err := p.graph.Run(ctx); err != nil {
		log.Panicf("terrain: %v", err)
	}
	p.dev.Queue().Submit(enc.Finish())

	if st.Skipped != p.lastSkip {
		log.Printf("terrain: frame %d skipped: %v", p.frames, st.Skipped)
		p.lastSkip = st.Skipped
	}
	return st
}

func (p *Pipeline) Layout() chunkwin.Layout {
	return p.layout
}

func (p *Pipeline) Selector() *chunkwin.Selector {
	return p.selector
}

// Snapshot is the list uploaded by the last frame.
func (p *Pipeline) Snapshot() *chunkwin.VisibleList {
	return &p.snapshot
}

func (p *Pipeline) Buffers() *BufferManager {
	return p.buffers
}

func (p *Pipeline) Compute() *ComputeNode {
	return p.compute
}

func (p *Pipeline) Draw() *DrawNode {
	return p.draw
}

func (p *Pipeline) Release() {
	p.buffers.Release()
}
