package terrain

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/icexin/gputerrain/internal/chunkwin"
	"github.com/icexin/gputerrain/internal/gpu"
	"github.com/icexin/gputerrain/internal/gpu/softgpu"
	"github.com/icexin/gputerrain/internal/voxelgen"
)

type fixedCamera struct {
	pose chunkwin.Pose
	ok   bool
}

func (c fixedCamera) ActiveCamera() (chunkwin.Pose, bool) {
	return c.pose, c.ok
}

func lookAt(eye, center mgl32.Vec3) fixedCamera {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 1000)
	view := mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0})
	return fixedCamera{
		pose: chunkwin.Pose{Position: eye, Frustum: chunkwin.FrustumFromMatrix(proj.Mul4(view))},
		ok:   true,
	}
}

// The window spans world y 8..20 around this camera, which holds the
// terrain surface everywhere.
var (
	frontCamera = lookAt(mgl32.Vec3{2, 14, 2}, mgl32.Vec3{2, 12, -10})
	sideCamera  = lookAt(mgl32.Vec3{2, 14, 2}, mgl32.Vec3{14, 12, 2})
)

func testLayout() chunkwin.Layout {
	return chunkwin.Layout{
		ChunkSize:        4,
		ExtentXZ:         1,
		ExtentY:          1,
		VerticesPerVoxel: 3,
		HeightWorkgroup:  2,
		VertexWorkgroup:  8,
	}
}

// flakyDevice can make ready compute pipelines unavailable again.
type flakyDevice struct {
	*softgpu.Device
	lost bool
}

func (d *flakyDevice) Programs() gpu.PipelineCache {
	return flakyCache{PipelineCache: d.Device.Programs(), dev: d}
}

type flakyCache struct {
	gpu.PipelineCache
	dev *flakyDevice
}

func (c flakyCache) Compute(id gpu.PipelineID) (gpu.ComputePipeline, bool) {
	if c.dev.lost {
		return nil, false
	}
	return c.PipelineCache.Compute(id)
}

func newTestPipeline(t *testing.T, dev gpu.Device) *Pipeline {
	p, err := New(dev, testLayout(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newSoftDevice(l chunkwin.Layout) *softgpu.Device {
	d := softgpu.New(voxelgen.Kernels(l.VerticesPerVoxel))
	d.SetTargets(softgpu.NewTarget("main"))
	return d
}

func softBuffers(t *testing.T, p *Pipeline) (chunks, voxels, vertices []byte) {
	bufs, ok := p.Buffers().Buffers()
	if !ok {
		t.Fatal("buffers not realized")
	}
	return bufs.Chunks.(*softgpu.Buffer).Bytes(),
		bufs.Voxels.(*softgpu.Buffer).Bytes(),
		bufs.Vertices.(*softgpu.Buffer).Bytes()
}

func TestDefaultGridsCoverCapacity(t *testing.T) {
	dev := newSoftDevice(chunkwin.DefaultLayout)
	p, err := New(dev, chunkwin.DefaultLayout, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.Compute().HeightGrid(), [3]uint32{4, 4, 1521 * 16 / 4}; got != want {
		t.Errorf("height grid %v, want %v", got, want)
	}
	if got, want := p.Compute().VertexGrid(), [3]uint32{2, 2, 1521}; got != want {
		t.Errorf("vertex grid %v, want %v", got, want)
	}
	if got, want := p.Draw().VertexCount(), uint32(1521*16*16*16*3); got != want {
		t.Errorf("draw count %d, want %d", got, want)
	}
}

func TestFrameRunsBothStagesThenDraws(t *testing.T) {
	dev := newSoftDevice(testLayout())
	p := newTestPipeline(t, dev)

	st := p.Frame(frontCamera)
	if st.Skipped != 0 {
		t.Fatalf("skipped: %v", st.Skipped)
	}
	if !st.Dispatched || st.Drawn != testLayout().VertexCapacity() {
		t.Fatalf("stats %+v", st)
	}
	if len(dev.Submitted) != 1 {
		t.Fatalf("%d submissions, want 1", len(dev.Submitted))
	}

	var kinds []gpu.OpKind
	var grids [][3]uint32
	for _, op := range dev.Submitted[0].Ops {
		switch op.Kind {
		case gpu.OpSetComputePipeline:
			kinds = append(kinds, op.Kind)
			if op.Compute.Desc().Shader.EntryPoint == voxelgen.EntryHeightMap && len(grids) != 0 {
				t.Fatal("height stage after vertex stage")
			}
		case gpu.OpDispatch:
			kinds = append(kinds, op.Kind)
			grids = append(grids, op.Grid)
		case gpu.OpDraw:
			kinds = append(kinds, op.Kind)
		}
	}
	want := []gpu.OpKind{gpu.OpSetComputePipeline, gpu.OpDispatch, gpu.OpSetComputePipeline, gpu.OpDispatch, gpu.OpDraw}
	if len(kinds) != len(want) {
		t.Fatalf("ops %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("ops %v, want %v", kinds, want)
		}
	}
	if grids[0] != p.Compute().HeightGrid() || grids[1] != p.Compute().VertexGrid() {
		t.Fatalf("grids %v", grids)
	}

	l := testLayout()
	perSlot := l.VoxelsPerChunk()
	if n := dev.Invocations[voxelgen.EntryHeightMap]; n != l.Capacity()*perSlot {
		t.Errorf("%d height invocations, want %d", n, l.Capacity()*perSlot)
	}
	if n := dev.Invocations[voxelgen.EntryVertices]; n != l.Capacity()*8*8 {
		t.Errorf("%d vertex invocations, want %d", n, l.Capacity()*8*8)
	}
}

func TestCrossStageConsistency(t *testing.T) {
	l := testLayout()
	dev := newSoftDevice(l)
	p := newTestPipeline(t, dev)
	p.Frame(frontCamera)

	if n := p.Snapshot().Count(); n == 0 || n == l.Capacity() {
		t.Fatalf("%d visible chunks, want some but not all", n)
	}
	if live := checkSlots(t, p); live == 0 {
		t.Fatal("no surface generated")
	}
}

// checkSlots verifies every slot of the last frame: listed slots hold the
// density of their chunk and one live vertex per surface cell, unlisted slots
// hold zero density and no live vertex. It returns the live vertex count.
func checkSlots(t *testing.T, p *Pipeline) int {
	t.Helper()
	l := p.Layout()
	_, voxels, vertices := softBuffers(t, p)

	e := l.ChunkSize
	perSlot := l.VoxelsPerChunk()
	listed := make(map[uint32]chunkwin.Coord)
	for _, entry := range p.Snapshot().Entries {
		if !entry.Empty() {
			listed[entry.Slot] = entry.Coord
		}
	}

	live := 0
	for slot := 0; slot < l.Capacity(); slot++ {
		coord, ok := listed[uint32(slot)]
		for z := 0; z < e; z++ {
			for y := 0; y < e; y++ {
				for x := 0; x < e; x++ {
					cell := slot*perSlot + x + y*e + z*e*e
					d := voxelgen.DensityAt(voxels, cell)
					for k := 0; k < l.VerticesPerVoxel; k++ {
						v := voxelgen.VertexAt(vertices, cell*l.VerticesPerVoxel+k)
						if !ok && v.Live() {
							t.Fatalf("unlisted slot %d has a live vertex at (%d,%d,%d)", slot, x, y, z)
						}
					}
					if !ok {
						if d != 0 {
							t.Fatalf("unlisted slot %d density %v at (%d,%d,%d)", slot, d, x, y, z)
						}
						continue
					}
					v := voxelgen.VertexAt(vertices, cell*l.VerticesPerVoxel)
					wx := float32(int(coord.X)*e + x)
					wy := float32(int(coord.Y)*e + y)
					wz := float32(int(coord.Z)*e + z)
					if want := voxelgen.Height(wx, wz) - wy; d != want {
						t.Fatalf("slot %d density (%d,%d,%d) = %v, want %v", slot, x, y, z, d, want)
					}
					surface := d >= 0 && d < 1 && x < e-1 && z < e-1
					if v.Live() != surface {
						t.Fatalf("slot %d cell (%d,%d,%d): live %v, density %v", slot, x, y, z, v.Live(), d)
					}
					if surface {
						live++
						want := voxelgen.Vertex{wx, wy + d, wz, 1}
						if v != want {
							t.Fatalf("slot %d cell (%d,%d,%d) vertex %v, want %v", slot, x, y, z, v, want)
						}
					}
				}
			}
		}
	}
	return live
}

// awayCamera sits at pos but sees only space far outside any window.
func awayCamera(pos mgl32.Vec3) fixedCamera {
	c := lookAt(mgl32.Vec3{10000, 0, 0}, mgl32.Vec3{10001, 0, 0})
	c.pose.Position = pos
	return c
}

func TestStaleSlotsInertAcrossFrames(t *testing.T) {
	tests := []struct {
		name   string
		second fixedCamera
	}{
		{"nothing visible", awayCamera(mgl32.Vec3{2, 14, 2})},
		{"camera turned", sideCamera},
		{"camera moved a chunk", lookAt(mgl32.Vec3{2, 14, 14}, mgl32.Vec3{-10, 12, 14})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newSoftDevice(testLayout())
			p := newTestPipeline(t, dev)
			p.Frame(frontCamera)
			if checkSlots(t, p) == 0 {
				t.Fatal("first frame generated no surface")
			}

			st := p.Frame(tt.second)
			if !st.Dispatched {
				t.Fatalf("stats %+v", st)
			}
			live := checkSlots(t, p)
			if st.Visible == 0 && live != 0 {
				t.Fatalf("%d live vertices without visible chunks", live)
			}

			ops := dev.Submitted[1].Ops
			if len(ops) < 3 || ops[0].Kind != gpu.OpClearBuffer || ops[1].Kind != gpu.OpClearBuffer ||
				ops[2].Kind != gpu.OpBeginCompute {
				t.Fatalf("frame does not clear ahead of the compute pass: %v", ops[0].Kind)
			}
		})
	}
}

func TestSkippedFrameKeepsBuffers(t *testing.T) {
	l := testLayout()
	dev := &flakyDevice{Device: newSoftDevice(l)}
	p := newTestPipeline(t, dev)
	p.Frame(frontCamera)

	_, voxels, vertices := softBuffers(t, p)
	voxelsBefore := append([]byte(nil), voxels...)
	verticesBefore := append([]byte(nil), vertices...)

	dev.lost = true
	st := p.Frame(sideCamera)
	if st.Dispatched || st.Skipped&SkipComputePipelines == 0 {
		t.Fatalf("stats %+v", st)
	}
	if !bytes.Equal(voxels, voxelsBefore) {
		t.Fatal("density changed on a skipped frame")
	}
	if !bytes.Equal(vertices, verticesBefore) {
		t.Fatal("vertices changed on a skipped frame")
	}

	dev.lost = false
	if st := p.Frame(sideCamera); !st.Dispatched {
		t.Fatalf("stats %+v", st)
	}
	if bytes.Equal(voxels, voxelsBefore) {
		t.Fatal("density unchanged after the camera turned")
	}
}

func TestUploadSerializesWholeList(t *testing.T) {
	l := testLayout()
	dev := newSoftDevice(l)
	dev.HoldPipelines = true
	p := newTestPipeline(t, dev)
	p.Frame(frontCamera)

	chunks, _, _ := softBuffers(t, p)
	if len(chunks) != l.Capacity()*voxelgen.ChunkRecordSize {
		t.Fatalf("chunk buffer of %d bytes", len(chunks))
	}
	list := p.Snapshot()
	for i, entry := range list.Entries {
		rec := voxelgen.ChunkRecordAt(chunks, i)
		want := voxelgen.ChunkRecord{Coord: [3]int32{entry.Coord.X, entry.Coord.Y, entry.Coord.Z}, Slot: entry.Slot}
		if rec != want {
			t.Fatalf("record %d = %+v, want %+v", i, rec, want)
		}
	}
	last := voxelgen.ChunkRecordAt(chunks, l.Capacity()-1)
	if last.Slot != voxelgen.NoSlot || last.Coord != [3]int32{} {
		t.Fatalf("tail record %+v", last)
	}

	// the next list overwrites every record, including a shorter tail
	p.Frame(sideCamera)
	for i, entry := range p.Snapshot().Entries {
		if rec := voxelgen.ChunkRecordAt(chunks, i); rec.Slot != entry.Slot {
			t.Fatalf("record %d slot %d, want %d", i, rec.Slot, entry.Slot)
		}
	}
}

func TestFrameWithoutCamera(t *testing.T) {
	dev := newSoftDevice(testLayout())
	p := newTestPipeline(t, dev)
	st := p.Frame(fixedCamera{})
	if st.Skipped&SkipNoCamera == 0 || st.Visible != 0 {
		t.Fatalf("stats %+v", st)
	}
	if !st.Dispatched {
		t.Fatal("compute skipped for an empty list")
	}
	_, voxels, _ := softBuffers(t, p)
	for _, b := range voxels {
		if b != 0 {
			t.Fatal("density written without visible chunks")
		}
	}

	visible := p.Frame(frontCamera).Visible
	if st := p.Frame(fixedCamera{}); st.Visible != visible {
		t.Fatalf("lost camera changed the list: %d visible, want %d", st.Visible, visible)
	}
}

func TestUnrealizedBuffersSkipFrame(t *testing.T) {
	dev := newSoftDevice(testLayout())
	dev.HoldAssets = true
	p := newTestPipeline(t, dev)

	st := p.Frame(frontCamera)
	for _, s := range []Skip{SkipBuffers, SkipBindGroup} {
		if st.Skipped&s == 0 {
			t.Errorf("skipped %v, want %v", st.Skipped, s)
		}
	}
	if st.Dispatched || st.Drawn != 0 {
		t.Fatalf("stats %+v", st)
	}
	if dev.Pending() != 0 || len(dev.Submitted[0].Ops) != 0 {
		t.Fatal("work recorded against unrealized buffers")
	}

	dev.HoldAssets = false
	if st := p.Frame(frontCamera); st.Skipped != 0 || !st.Dispatched {
		t.Fatalf("stats %+v", st)
	}
}

func TestDrawUsesFirstTarget(t *testing.T) {
	l := testLayout()
	dev := newSoftDevice(l)
	first, second := softgpu.NewTarget("first"), softgpu.NewTarget("second")
	dev.SetTargets(first, second)
	p := newTestPipeline(t, dev)
	p.Frame(frontCamera)

	if len(first.Draws) != 1 || len(second.Draws) != 0 {
		t.Fatalf("draws %d/%d, want 1/0", len(first.Draws), len(second.Draws))
	}
	d := first.Draws[0]
	if d.Load != gpu.LoadOpLoad {
		t.Error("draw clears the target")
	}
	if d.Vertices != uint32(l.VertexCapacity()) || d.Instances != 1 {
		t.Errorf("draw %d vertices x %d", d.Vertices, d.Instances)
	}
	if d.VertexBuffer != "voxel_vertices" {
		t.Errorf("vertex buffer %q", d.VertexBuffer)
	}
}

func TestDrawWithoutTarget(t *testing.T) {
	dev := newSoftDevice(testLayout())
	dev.SetTargets()
	p := newTestPipeline(t, dev)
	st := p.Frame(frontCamera)
	if st.Skipped != SkipNoTarget || !st.Dispatched || st.Drawn != 0 {
		t.Fatalf("stats %+v", st)
	}
}

func TestNewRejectsBadLayout(t *testing.T) {
	l := testLayout()
	l.HeightWorkgroup = 3
	if _, err := New(newSoftDevice(l), l, nil); err == nil {
		t.Fatal("bad layout accepted")
	}
}

func TestDriverRunsAfterDraw(t *testing.T) {
	dev := newSoftDevice(testLayout())
	var drawn int
	driver := NodeFunc(CameraDriverName, func(ctx *FrameContext) {
		drawn = ctx.Stats.Drawn
	})
	p, err := New(dev, testLayout(), driver)
	if err != nil {
		t.Fatal(err)
	}
	p.Frame(frontCamera)
	if drawn != testLayout().VertexCapacity() {
		t.Fatalf("driver saw %d drawn vertices", drawn)
	}
}

func TestSkipString(t *testing.T) {
	tests := []struct {
		s    Skip
		want string
	}{
		{0, "none"},
		{SkipNoCamera, "no camera"},
		{SkipBuffers | SkipNoTarget, "buffers pending|no target"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("%d: got %q, want %q", tt.s, got, tt.want)
		}
	}
}
