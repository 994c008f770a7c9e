// Package glgpu runs the gpu command model on OpenGL 4.3: buffers are GL
// buffer objects, compute programs run through DispatchCompute and the draw
// program is a glhf shader. Every call must be made on the thread owning the
// GL context, which for the application is mainthread.
package glgpu

import (
	gl33 "github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/pkg/errors"

	"github.com/icexin/gputerrain/internal/gpu"
)

// Init loads GL entry points for this package and for glhf. Call it once
// the context is current.
func Init() error {
	if err := gl.Init(); err != nil {
		return errors.Wrap(err, "init gl 4.3")
	}
	if err := gl33.Init(); err != nil {
		return errors.Wrap(err, "init gl 3.3")
	}
	return nil
}

type Device struct {
	assets *assets
	cache  *cache
	queue  *queue
	window *WindowTarget
}

// New returns a device drawing into window, loading programs with load.
func New(load gpu.ShaderLoader, window *WindowTarget) *Device {
	return &Device{
		assets: newAssets(),
		cache:  newCache(load),
		queue:  &queue{},
		window: window,
	}
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
			return nil, errors.Errorf("bind group %q: buffer %q is not a gl buffer", label, b.Desc().Label)
		}
	}
	return gpu.NewBindGroup(layout, buffers)
}

func (d *Device) CreateEncoder(label string) *gpu.Encoder {
	return gpu.NewEncoder(label)
}

func (d *Device) Targets() []gpu.RenderTarget {
	if d.window == nil {
		return nil
	}
	return []gpu.RenderTarget{d.window}
}

// Maintain realizes every pending buffer and compiles at most one queued
// pipeline, so programs become ready over several frames.
func (d *Device) Maintain() {
	d.assets.realize()
	d.cache.compileNext()
}

func (d *Device) Release() {
	d.assets.release()
	d.cache.release()
}
