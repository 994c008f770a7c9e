package glgpu

import (
	"log"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/icexin/gputerrain/internal/gpu"
)

type Buffer struct {
	id   uint32
	desc gpu.BufferDesc
}

func (b *Buffer) Desc() gpu.BufferDesc {
	return b.desc
}

func (b *Buffer) ID() uint32 {
	return b.id
}

// clear zero-fills the whole buffer store.
func (b *Buffer) clear() {
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.ClearBufferData(gl.COPY_WRITE_BUFFER, gl.R8UI, gl.RED_INTEGER, gl.UNSIGNED_BYTE, nil)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
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
	if b, ok := a.ready[h]; ok {
		gl.DeleteBuffers(1, &b.id)
		delete(a.ready, h)
	}
}

// realize allocates zero-filled storage for every pending buffer.
func (a *assets) realize() {
	for h, desc := range a.pending {
		b := &Buffer{desc: desc}
		gl.GenBuffers(1, &b.id)
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
		gl.BufferData(gl.COPY_WRITE_BUFFER, desc.Size, nil, gl.DYNAMIC_COPY)
		gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
		b.clear()
		a.ready[h] = b
		delete(a.pending, h)
		log.Printf("glgpu: buffer %s: %d bytes", desc.Label, desc.Size)
	}
}

func (a *assets) release() {
	for h := range a.ready {
		a.Remove(h)
	}
	for h := range a.pending {
		delete(a.pending, h)
	}
}
