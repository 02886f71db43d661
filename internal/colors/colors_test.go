package colors

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec(t *testing.T, want, got mgl32.Vec4) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-3, "channel %d of %v", i, got)
	}
}

func TestParse(t *testing.T) {
	cases := map[string]mgl32.Vec4{
		"#f00":                    {1, 0, 0, 1},
		"#00ff00":                 {0, 1, 0, 1},
		"#0000FF80":               {0, 0, 1, 128.0 / 255},
		"rgb(255, 128, 0)":        {1, 128.0 / 255, 0, 1},
		"rgba(0,0,0,0.5)":         {0, 0, 0, 0.5},
		"rgb(100%, 50%, 0%)":      {1, 0.5, 0, 1},
		"hsl(120, 100%, 50%)":     {0, 1, 0, 1},
		"  White ":                {1, 1, 1, 1},
		"cornflowerblue":          {100.0 / 255, 149.0 / 255, 237.0 / 255, 1},
		"rgba(255, 0, 0, 2)":      {1, 0, 0, 1},
		"hsl(240deg, 100%, 50%)":  {0, 0, 1, 1},
		"hsl(0, 0%, 100%, 0.25)":  {1, 1, 1, 0.25},
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assertVec(t, want, got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "#12", "#zzzzzz", "rgb(1,2)", "rgb(a,b,c)", "hsl(x, 1, 1)", "notacolor"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
	assert.Panics(t, func() { MustParse("nope") })
}

func TestBlend(t *testing.T) {
	red, blue := MustParse("red"), MustParse("blue")
	assertVec(t, red, Blend(red, blue, 0))
	assertVec(t, blue, Blend(red, blue, 1))

	mid := Blend(mgl32.Vec4{0, 0, 0, 0}, mgl32.Vec4{1, 1, 1, 1}, 0.5)
	assert.InDelta(t, 0.5, mid[3], 1e-6)
	assert.Greater(t, mid[0], float32(0.3))
	assert.Less(t, mid[0], float32(0.7))
}

func TestPaletteAndHex(t *testing.T) {
	p := Palette(5)
	assert.Len(t, p, 5)
	for _, c := range p {
		assert.Equal(t, float32(1), c[3])
	}
	assert.Equal(t, "#ff8000", Hex(mgl32.Vec4{1, 128.0 / 255, 0, 1}))
}
