package voxelgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

var (
	sim opensimplex.Noise = opensimplex.New(0)
)

// Base height terrain never falls under.
const SeaLevel = 12

func noise2(x, y float32, octaves int, persistence, lacunarity float32) float32 {
	var (
		freq  float32 = 1
		amp   float32 = 1
		max   float32 = 1
		total         = sim.Eval2(float64(x), float64(y))
	)
	for i := 0; i < octaves; i++ {
		freq *= lacunarity
		amp *= persistence
		max += amp
		total += sim.Eval2(float64(x*freq), float64(y*freq)) * float64(amp)
	}
	return (1 + float32(total)/max) / 2
}

// Height is the terrain surface height over world column (x, z).
func Height(x, z float32) float32 {
	f := noise2(x*0.01, z*0.01, 4, 0.5, 2)
	g := noise2(-x*0.01, -z*0.01, 2, 0.9, 2)
	mh := g*32 + 16
	h := f * mh
	if h < SeaLevel {
		h = SeaLevel
	}
	return h
}
