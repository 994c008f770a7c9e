package voxelgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/icexin/gputerrain/internal/gpu"
)

const (
	ComputeShaderPath = "shaders/voxel_gen.glsl"
	RenderShaderPath  = "shaders/voxel.glsl"

	EntryHeightMap = "generate_height_map"
	EntryVertices  = "generate_vertices"
	EntryVertex    = "vs_main"
	EntryFragment  = "fs_main"
)

// Sources maps shader asset paths to GLSL bodies. The loader prepends the
// version line, WORKGROUP_X/Y/Z, VERTICES_PER_VOXEL, ENTRY_<name> and a
// define renaming the entry point to main.
var Sources = map[string]string{
	ComputeShaderPath: voxelGenSource,
	RenderShaderPath:  voxelSource,
}

var (
	voxelGenSource = `
layout(local_size_x = WORKGROUP_X, local_size_y = WORKGROUP_Y, local_size_z = WORKGROUP_Z) in;

layout(std140, binding = 0) uniform Globals {
    uint chunk_size;
};

struct ChunkCoord {
    ivec3 coord;
    uint global_index;
};

layout(std430, binding = 1) readonly buffer Chunks {
    ChunkCoord chunks[];
};

layout(std430, binding = 2) buffer Voxels {
    float voxels[];
};

layout(std430, binding = 3) buffer Vertices {
    vec4 vertices[];
};

const uint NO_SLOT = 0xFFFFFFFFu;

float hash2(vec2 p) {
    p = fract(p * vec2(123.34, 456.21));
    p += dot(p, p + 45.32);
    return fract(p.x * p.y);
}

float value_noise(vec2 p) {
    vec2 i = floor(p);
    vec2 f = fract(p);
    vec2 u = f * f * (3.0 - 2.0 * f);
    float a = hash2(i);
    float b = hash2(i + vec2(1.0, 0.0));
    float c = hash2(i + vec2(0.0, 1.0));
    float d = hash2(i + vec2(1.0, 1.0));
    return mix(mix(a, b, u.x), mix(c, d, u.x), u.y);
}

float noise2(vec2 p, int octaves, float persistence, float lacunarity) {
    float freq = 1.0;
    float amp = 1.0;
    float total = value_noise(p);
    float maxv = 1.0;
    for (int i = 0; i < octaves; i++) {
        freq *= lacunarity;
        amp *= persistence;
        maxv += amp;
        total += value_noise(p * freq) * amp;
    }
    return total / maxv;
}

float terrain_height(vec2 xz) {
    float f = noise2(xz * 0.01, 4, 0.5, 2.0);
    float g = noise2(-xz * 0.01, 2, 0.9, 2.0);
    float mh = g * 32.0 + 16.0;
    return max(f * mh, 12.0);
}

uint voxel_index(uint e, uint x, uint y, uint z) {
    return x + y * e + z * e * e;
}

#ifdef ENTRY_generate_height_map
void generate_height_map() {
    uint e = chunk_size;
    uvec3 id = gl_GlobalInvocationID;
    uint i = id.z / e;
    if (id.x >= e || id.y >= e || i >= uint(chunks.length())) {
        return;
    }
    ChunkCoord c = chunks[i];
    if (c.global_index == NO_SLOT) {
        return;
    }
    uint z = id.z % e;
    vec3 world = vec3(c.coord * int(e) + ivec3(id.x, id.y, z));
    voxels[c.global_index * e * e * e + voxel_index(e, id.x, id.y, z)] = terrain_height(world.xz) - world.y;
}
#endif

#ifdef ENTRY_generate_vertices
void generate_vertices() {
    uint e = chunk_size;
    uvec3 id = gl_GlobalInvocationID;
    uint x = id.x;
    uint z = id.y;
    uint i = id.z;
    if (x >= e - 1u || z >= e - 1u || i >= uint(chunks.length())) {
        return;
    }
    ChunkCoord c = chunks[i];
    if (c.global_index == NO_SLOT) {
        return;
    }
    uint base = c.global_index * e * e * e;
    vec3 origin = vec3(c.coord * int(e));
    for (uint y = 0u; y < e; y++) {
        float d = voxels[base + voxel_index(e, x, y, z)];
        vec4 tri[3] = vec4[3](vec4(0.0), vec4(0.0), vec4(0.0));
        if (d >= 0.0 && d < 1.0) {
            float fy = float(y);
            float dz = voxels[base + voxel_index(e, x, y, z + 1u)];
            float dx = voxels[base + voxel_index(e, x + 1u, y, z)];
            tri[0] = vec4(origin + vec3(float(x), fy + d, float(z)), 1.0);
            tri[1] = vec4(origin + vec3(float(x), fy + dz, float(z + 1u)), 1.0);
            tri[2] = vec4(origin + vec3(float(x + 1u), fy + dx, float(z)), 1.0);
        }
        uint v = (base + voxel_index(e, x, y, z)) * VERTICES_PER_VOXEL;
        for (uint k = 0u; k < VERTICES_PER_VOXEL; k++) {
            vertices[v + k] = k < 3u ? tri[k] : vec4(0.0);
        }
    }
}
#endif
`

	voxelSource = `
#ifdef ENTRY_vs_main
in vec4 coord;

uniform mat4 matrix;

out float height;
out float live;

void vs_main() {
    live = coord.w;
    height = coord.y;
    if (coord.w == 0.0) {
        gl_Position = vec4(2.0, 2.0, 2.0, 1.0);
        return;
    }
    gl_Position = matrix * vec4(coord.xyz, 1.0);
}
#endif

#ifdef ENTRY_fs_main
in float height;
in float live;

out vec4 FragColor;

const vec3 sand_color = vec3(0.76, 0.70, 0.50);
const vec3 grass_color = vec3(0.33, 0.62, 0.25);

void fs_main() {
    if (live == 0.0) {
        discard;
    }
    float t = clamp((height - 12.0) / 36.0, 0.0, 1.0);
    FragColor = vec4(mix(sand_color, grass_color, t), 1.0);
}
#endif
`
)

// Load assembles the program text of src's entry point: the version line,
// one #define per entry of defines, ENTRY_<name>, and <name> renamed to main.
func Load(src gpu.ShaderSource, defines map[string]int) (string, error) {
	body, ok := Sources[src.Path]
	if !ok {
		return "", errors.Errorf("shader %s not found", src.Path)
	}
	if !strings.Contains(body, "void "+src.EntryPoint+"()") {
		return "", errors.Errorf("shader %s has no entry point %s", src.Path, src.EntryPoint)
	}
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("#version 430 core\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "#define %s %d\n", k, defines[k])
	}
	fmt.Fprintf(&b, "#define ENTRY_%s 1\n", src.EntryPoint)
	fmt.Fprintf(&b, "#define %s main\n", src.EntryPoint)
	b.WriteString(body)
	return b.String(), nil
}
