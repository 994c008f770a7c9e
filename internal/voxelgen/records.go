// Package voxelgen holds the terrain programs: the GLSL sources run by the
// OpenGL backend, CPU kernels with the same contract for the software
// backend, and the byte layout of every record shared with them.
package voxelgen

import (
	"encoding/binary"
	"math"
)

// Record sizes in bytes, std140/std430 compatible.
const (
	GlobalsSize     = 16
	ChunkRecordSize = 16
	DensitySize     = 4
	VertexSize      = 16
)

// NoSlot marks a chunk record that carries no chunk.
const NoSlot = math.MaxUint32

// Globals is the uniform record shared by both compute programs.
type Globals struct {
	ChunkSize uint32
}

func (g Globals) Bytes() []byte {
	b := make([]byte, GlobalsSize)
	binary.LittleEndian.PutUint32(b, g.ChunkSize)
	return b
}

func GlobalsFrom(b []byte) Globals {
	return Globals{ChunkSize: binary.LittleEndian.Uint32(b)}
}

// ChunkRecord is one entry of the chunk identity buffer: ivec3 + uint.
type ChunkRecord struct {
	Coord [3]int32
	Slot  uint32
}

func PutChunkRecord(b []byte, i int, r ChunkRecord) {
	b = b[i*ChunkRecordSize:]
	binary.LittleEndian.PutUint32(b[0:], uint32(r.Coord[0]))
	binary.LittleEndian.PutUint32(b[4:], uint32(r.Coord[1]))
	binary.LittleEndian.PutUint32(b[8:], uint32(r.Coord[2]))
	binary.LittleEndian.PutUint32(b[12:], r.Slot)
}

func ChunkRecordAt(b []byte, i int) ChunkRecord {
	b = b[i*ChunkRecordSize:]
	return ChunkRecord{
		Coord: [3]int32{
			int32(binary.LittleEndian.Uint32(b[0:])),
			int32(binary.LittleEndian.Uint32(b[4:])),
			int32(binary.LittleEndian.Uint32(b[8:])),
		},
		Slot: binary.LittleEndian.Uint32(b[12:]),
	}
}

func DensityAt(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*DensitySize:]))
}

func PutDensity(b []byte, i int, d float32) {
	binary.LittleEndian.PutUint32(b[i*DensitySize:], math.Float32bits(d))
}

// Vertex is a vec4 position; W == 0 marks a degenerate vertex.
type Vertex [4]float32

func (v Vertex) Live() bool {
	return v[3] != 0
}

func VertexAt(b []byte, i int) Vertex {
	b = b[i*VertexSize:]
	var v Vertex
	for k := range v {
		v[k] = math.Float32frombits(binary.LittleEndian.Uint32(b[k*4:]))
	}
	return v
}

func PutVertex(b []byte, i int, v Vertex) {
	b = b[i*VertexSize:]
	for k := range v {
		binary.LittleEndian.PutUint32(b[k*4:], math.Float32bits(v[k]))
	}
}
