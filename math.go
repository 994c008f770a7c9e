package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func sin(x float32) float32 {
	return float32(math.Sin(float64(x)))
}

func cos(x float32) float32 {
	return float32(math.Cos(float64(x)))
}

func radian(angle float32) float32 {
	return mgl32.DegToRad(angle)
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
