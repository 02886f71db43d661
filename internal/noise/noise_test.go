package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var samples = [][3]float64{
	{0.13, 0.71, 0.4}, {1.5, 2.25, 3.75}, {10.1, -3.3, 0.9}, {-7.6, 4.2, 12.8}, {0.5, 0.5, 0.5},
}

func TestSameSeedSameField(t *testing.T) {
	a, b := New(42), New(42)
	for _, s := range samples {
		assert.Equal(t, a.Noise1D(s[0]), b.Noise1D(s[0]))
		assert.Equal(t, a.Noise2D(s[0], s[1]), b.Noise2D(s[0], s[1]))
		assert.Equal(t, a.Noise3D(s[0], s[1], s[2]), b.Noise3D(s[0], s[1], s[2]))
	}
}

func TestReseed(t *testing.T) {
	p := New(1)
	before := p.Noise3D(1.5, 2.25, 3.75)
	p.Reseed(7)
	assert.Equal(t, int64(7), p.Seed())
	assert.Equal(t, New(7).Noise3D(1.5, 2.25, 3.75), p.Noise3D(1.5, 2.25, 3.75))

	p.Reseed(1)
	assert.Equal(t, before, p.Noise3D(1.5, 2.25, 3.75))
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a, b := New(1), New(2)
	differ := false
	for _, s := range samples {
		if a.Noise3D(s[0], s[1], s[2]) != b.Noise3D(s[0], s[1], s[2]) {
			differ = true
		}
	}
	assert.True(t, differ)
}

func TestValueInUnitRange(t *testing.T) {
	p := New(99)
	for _, s := range samples {
		for _, v := range []float64{p.Value(), p.Value(s[0]), p.Value(s[0], s[1]), p.Value(s[0], s[1], s[2], 8)} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestFractals(t *testing.T) {
	p := New(5)
	assert.Equal(t, 0.0, p.Turbulence(1, 2, 3, 0, 0.5))
	for _, s := range samples {
		turb := p.Turbulence(s[0], s[1], s[2], 4, 0.5)
		assert.GreaterOrEqual(t, turb, -2.0)
		assert.LessOrEqual(t, turb, 2.0)
		assert.GreaterOrEqual(t, p.Ridge(s[0], s[1], s[2], 3, 0.5), 0.0)

		wood := p.Wood(s[0], s[1], s[2], 6)
		assert.GreaterOrEqual(t, wood, 0.0)
		assert.LessOrEqual(t, wood, 1.0)

		marble := p.Marble(s[0], s[1], s[2], 4)
		assert.GreaterOrEqual(t, marble, -0.5)
		assert.LessOrEqual(t, marble, 0.5)
	}
}
