package gpu

import "testing"

type testBuffer BufferDesc

func (b testBuffer) Desc() BufferDesc {
	return BufferDesc(b)
}

func TestEncoderRecordsInOrder(t *testing.T) {
	enc := NewEncoder("frame")
	cp := enc.BeginComputePass("compute")
	cp.Dispatch(1, 2, 3)
	cp.Dispatch(4, 5, 6)
	cp.End()
	rp := enc.BeginRenderPass(RenderPassDesc{Label: "draw", Load: LoadOpLoad})
	rp.Draw(9, 1)
	rp.End()
	cl := enc.Finish()

	want := []OpKind{OpBeginCompute, OpDispatch, OpDispatch, OpEndCompute, OpBeginRender, OpDraw, OpEndRender}
	if len(cl.Ops) != len(want) {
		t.Fatalf("got %d ops, want %d", len(cl.Ops), len(want))
	}
	for i, k := range want {
		if cl.Ops[i].Kind != k {
			t.Errorf("op %d = %v, want %v", i, cl.Ops[i].Kind, k)
		}
	}
	if cl.Ops[2].Grid != [3]uint32{4, 5, 6} {
		t.Errorf("grid %v", cl.Ops[2].Grid)
	}
	if len(enc.Finish().Ops) != 0 {
		t.Error("finish did not reset the encoder")
	}
}

func TestEncoderNestedPassPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	enc := NewEncoder("frame")
	enc.BeginComputePass("a")
	enc.BeginRenderPass(RenderPassDesc{Label: "b"})
}

func TestCheckBindGroup(t *testing.T) {
	layout := &BindGroupLayout{Label: "l", Entries: []BindingType{BindUniform, BindStorageReadOnly, BindStorage}}
	uniform := testBuffer{Label: "u", Size: 16, Usage: BufferUniform | BufferCopyDst}
	storage := testBuffer{Label: "s", Size: 64, Usage: BufferStorage}

	tests := []struct {
		name    string
		buffers []Buffer
		ok      bool
	}{
		{"match", []Buffer{uniform, storage, storage}, true},
		{"short", []Buffer{uniform, storage}, false},
		{"uniform as storage", []Buffer{uniform, uniform, storage}, false},
		{"storage as uniform", []Buffer{storage, storage, storage}, false},
		{"nil", []Buffer{uniform, nil, storage}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBindGroup(layout, tt.buffers)
			if (err == nil) != tt.ok {
				t.Errorf("NewBindGroup err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestClearBuffer(t *testing.T) {
	b := testBuffer{Label: "v", Size: 64, Usage: BufferStorage | BufferCopyDst}
	enc := NewEncoder("frame")
	enc.ClearBuffer(b)
	cp := enc.BeginComputePass("compute")
	cp.Dispatch(1, 1, 1)
	cp.End()
	cl := enc.Finish()
	if cl.Ops[0].Kind != OpClearBuffer || cl.Ops[0].Buffer != Buffer(b) {
		t.Fatalf("first op %v", cl.Ops[0].Kind)
	}

	tests := []struct {
		name string
		fn   func(enc *Encoder)
	}{
		{"inside pass", func(enc *Encoder) {
			enc.BeginComputePass("compute")
			enc.ClearBuffer(b)
		}},
		{"not copy destination", func(enc *Encoder) {
			enc.ClearBuffer(testBuffer{Label: "u", Size: 16, Usage: BufferUniform})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.fn(NewEncoder("frame"))
		})
	}
}
