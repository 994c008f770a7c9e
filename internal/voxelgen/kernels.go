package voxelgen

import (
	"github.com/icexin/gputerrain/internal/gpu"
	"github.com/icexin/gputerrain/internal/gpu/softgpu"
)

// Binding indexes shared by both compute programs.
const (
	BindingGlobals = iota
	BindingChunks
	BindingVoxels
	BindingVertices
)

// Kernels returns the CPU versions of the compute programs, keyed the way
// the pipeline cache addresses them.
func Kernels(verticesPerVoxel int) map[gpu.ShaderSource]softgpu.Kernel {
	return map[gpu.ShaderSource]softgpu.Kernel{
		{Path: ComputeShaderPath, EntryPoint: EntryHeightMap}: HeightMap,
		{Path: ComputeShaderPath, EntryPoint: EntryVertices}:  vertexKernel(verticesPerVoxel),
	}
}

func voxelIndex(e, x, y, z uint32) uint32 {
	return x + y*e + z*e*e
}

func chunkAt(inv softgpu.Invocation, i uint32) (ChunkRecord, bool) {
	chunks := inv.Bindings[BindingChunks].Bytes()
	if int(i) >= len(chunks)/ChunkRecordSize {
		return ChunkRecord{}, false
	}
	rec := ChunkRecordAt(chunks, int(i))
	if rec.Slot == NoSlot {
		return rec, false
	}
	return rec, true
}

// HeightMap writes one density sample: id.x and id.y are the voxel x and y,
// id.z packs the list position (id.z / E) and the voxel z (id.z % E).
func HeightMap(inv softgpu.Invocation) {
	e := GlobalsFrom(inv.Bindings[BindingGlobals].Bytes()).ChunkSize
	id := inv.ID
	if id[0] >= e || id[1] >= e {
		return
	}
	rec, ok := chunkAt(inv, id[2]/e)
	if !ok {
		return
	}
	x, y, z := id[0], id[1], id[2]%e
	wx := float32(rec.Coord[0]*int32(e) + int32(x))
	wy := float32(rec.Coord[1]*int32(e) + int32(y))
	wz := float32(rec.Coord[2]*int32(e) + int32(z))

	i := rec.Slot*e*e*e + voxelIndex(e, x, y, z)
	PutDensity(inv.Bindings[BindingVoxels].Bytes(), int(i), Height(wx, wz)-wy)
}

// vertexKernel walks one column (id.x, id.y) of list position id.z and
// writes a triangle per surface cell, degenerate vertices elsewhere.
func vertexKernel(verticesPerVoxel int) softgpu.Kernel {
	vpv := uint32(verticesPerVoxel)
	return func(inv softgpu.Invocation) {
		e := GlobalsFrom(inv.Bindings[BindingGlobals].Bytes()).ChunkSize
		x, z := inv.ID[0], inv.ID[1]
		if x >= e-1 || z >= e-1 {
			return
		}
		rec, ok := chunkAt(inv, inv.ID[2])
		if !ok {
			return
		}
		voxels := inv.Bindings[BindingVoxels].Bytes()
		vertices := inv.Bindings[BindingVertices].Bytes()
		base := rec.Slot * e * e * e
		ox := float32(rec.Coord[0] * int32(e))
		oy := float32(rec.Coord[1] * int32(e))
		oz := float32(rec.Coord[2] * int32(e))
		density := func(x, y, z uint32) float32 {
			return DensityAt(voxels, int(base+voxelIndex(e, x, y, z)))
		}

		for y := uint32(0); y < e; y++ {
			var tri [3]Vertex
			if d := density(x, y, z); d >= 0 && d < 1 {
				fx, fy, fz := float32(x), float32(y), float32(z)
				tri[0] = Vertex{ox + fx, oy + fy + d, oz + fz, 1}
				tri[1] = Vertex{ox + fx, oy + fy + density(x, y, z+1), oz + fz + 1, 1}
				tri[2] = Vertex{ox + fx + 1, oy + fy + density(x+1, y, z), oz + fz, 1}
			}
			v := (base + voxelIndex(e, x, y, z)) * vpv
			for k := uint32(0); k < vpv; k++ {
				var out Vertex
				if k < 3 {
					out = tri[k]
				}
				PutVertex(vertices, int(v+k), out)
			}
		}
	}
}
