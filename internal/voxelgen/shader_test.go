package voxelgen

import (
	"strings"
	"testing"

	"github.com/icexin/gputerrain/internal/gpu"
)

func TestLoad(t *testing.T) {
	src, err := Load(gpu.ShaderSource{Path: ComputeShaderPath, EntryPoint: EntryVertices},
		map[string]int{"WORKGROUP_Y": 8, "WORKGROUP_X": 8, "WORKGROUP_Z": 1, "VERTICES_PER_VOXEL": 3})
	if err != nil {
		t.Fatal(err)
	}
	want := "#version 430 core\n" +
		"#define VERTICES_PER_VOXEL 3\n" +
		"#define WORKGROUP_X 8\n" +
		"#define WORKGROUP_Y 8\n" +
		"#define WORKGROUP_Z 1\n" +
		"#define ENTRY_generate_vertices 1\n" +
		"#define generate_vertices main\n"
	if !strings.HasPrefix(src, want) {
		t.Fatalf("preamble:\n%s", src[:len(want)])
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []gpu.ShaderSource{
		{Path: "shaders/missing.glsl", EntryPoint: EntryVertex},
		{Path: RenderShaderPath, EntryPoint: EntryHeightMap},
	}
	for _, src := range tests {
		if _, err := Load(src, nil); err == nil {
			t.Errorf("%s#%s loaded", src.Path, src.EntryPoint)
		}
	}
}

func TestEveryEntryPointLoads(t *testing.T) {
	for _, src := range []gpu.ShaderSource{
		{Path: ComputeShaderPath, EntryPoint: EntryHeightMap},
		{Path: ComputeShaderPath, EntryPoint: EntryVertices},
		{Path: RenderShaderPath, EntryPoint: EntryVertex},
		{Path: RenderShaderPath, EntryPoint: EntryFragment},
	} {
		if _, err := Load(src, nil); err != nil {
			t.Error(err)
		}
	}
}
