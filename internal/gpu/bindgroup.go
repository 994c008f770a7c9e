package gpu

import "github.com/pkg/errors"

// CheckBindGroup verifies that buffers fit layout entry by entry. Backends
// call it from CreateBindGroup.
func CheckBindGroup(layout *BindGroupLayout, buffers []Buffer) error {
	if len(buffers) != len(layout.Entries) {
		return errors.Errorf("bind group for %q: %d buffers, layout has %d entries",
			layout.Label, len(buffers), len(layout.Entries))
	}
	for i, b := range buffers {
		if b == nil {
			return errors.Errorf("bind group for %q: binding %d is nil", layout.Label, i)
		}
		usage := b.Desc().Usage
		switch layout.Entries[i] {
		case BindUniform:
			if !usage.Has(BufferUniform) {
				return errors.Errorf("binding %d (%s) is not a uniform buffer", i, b.Desc().Label)
			}
		case BindStorage, BindStorageReadOnly:
			if !usage.Has(BufferStorage) {
				return errors.Errorf("binding %d (%s) is not a storage buffer", i, b.Desc().Label)
			}
		}
	}
	return nil
}

type bindGroup struct {
	layout  *BindGroupLayout
	buffers []Buffer
}

// NewBindGroup checks buffers against layout and returns a plain bind group
// holding them.
func NewBindGroup(layout *BindGroupLayout, buffers []Buffer) (BindGroup, error) {
	if err := CheckBindGroup(layout, buffers); err != nil {
		return nil, err
	}
	return &bindGroup{layout: layout, buffers: append([]Buffer(nil), buffers...)}, nil
}

func (g *bindGroup) Layout() *BindGroupLayout {
	return g.layout
}

func (g *bindGroup) Buffers() []Buffer {
	return g.buffers
}
