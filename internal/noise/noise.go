// Package noise provides seeded Perlin noise and a few fractal patterns built
// on top of it for sketches.
package noise

import (
	"math"
	"time"

	"github.com/aquilax/go-perlin"
)

const (
	alpha   = 2.0
	beta    = 2.0
	octaves = 3
)

// Perlin is a seeded noise source. The raw Noise1D/2D/3D values lie roughly in
// [-1, 1]; Value remaps them into 0..1.
type Perlin struct {
	seed int64
	gen  *perlin.Perlin
}

// New returns a noise source for seed. The same seed always yields the same field.
func New(seed int64) *Perlin {
	return &Perlin{seed: seed, gen: perlin.NewPerlin(alpha, beta, octaves, seed)}
}

// Default seeds from the clock.
func Default() *Perlin {
	return New(time.Now().UnixNano())
}

// Seed reports the seed this source was built with.
func (p *Perlin) Seed() int64 { return p.seed }

// Reseed rebuilds the permutation tables.
func (p *Perlin) Reseed(seed int64) {
	p.seed = seed
	p.gen = perlin.NewPerlin(alpha, beta, octaves, seed)
}

func (p *Perlin) Noise1D(x float64) float64       { return p.gen.Noise1D(x) }
func (p *Perlin) Noise2D(x, y float64) float64    { return p.gen.Noise2D(x, y) }
func (p *Perlin) Noise3D(x, y, z float64) float64 { return p.gen.Noise3D(x, y, z) }

// Value samples 1, 2 or 3 dimensions (extra coordinates are ignored) and maps
// the result into 0..1. No coordinates samples the origin.
func (p *Perlin) Value(coords ...float64) float64 {
	var n float64
	switch len(coords) {
	case 0:
		n = p.Noise1D(0)
	case 1:
		n = p.Noise1D(coords[0])
	case 2:
		n = p.Noise2D(coords[0], coords[1])
	default:
		n = p.Noise3D(coords[0], coords[1], coords[2])
	}
	return clamp01(n*0.5 + 0.5)
}

// Turbulence sums octaves of 3D noise with the given persistence and
// normalizes the sum back into [-1, 1].
func (p *Perlin) Turbulence(x, y, z float64, octaves int, persistence float64) float64 {
	value, amplitude, frequency, total := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		value += p.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		total += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if total == 0 {
		return 0
	}
	return value / total
}

// Ridge is ridged multifractal noise: inverted, squared octaves. Never negative.
func (p *Perlin) Ridge(x, y, z float64, octaves int, persistence float64) float64 {
	value, amplitude, frequency := 0.0, 1.0, 1.0
	for i := 0; i < octaves; i++ {
		n := 1 - math.Abs(p.Noise3D(x*frequency, y*frequency, z*frequency))
		value += n * n * amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return value
}

// Marble distorts a sine band with turbulence.
func (p *Perlin) Marble(x, y, z, frequency float64) float64 {
	s := math.Sin((x + p.Turbulence(x, y, z, 3, 0.5)*2) * frequency)
	return s*s - 0.5
}

// Wood returns concentric rings around the Y axis in 0..1.
func (p *Perlin) Wood(x, y, z, rings float64) float64 {
	d := math.Sqrt(x*x+z*z) + p.Turbulence(x, y, z, 2, 0.3)*0.5
	return (math.Sin(d*rings) + 1) * 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
