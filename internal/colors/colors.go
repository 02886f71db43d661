// Package colors parses CSS-style color strings into shader-ready vectors and
// blends them in a perceptual space.
package colors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Parse accepts "#rgb", "#rrggbb", "#rrggbbaa", "rgb(r, g, b)", "rgba(r, g, b, a)",
// "hsl(h, s%, l%)" and SVG color names. Channels come back in 0..1.
func Parse(s string) (mgl32.Vec4, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgba(") || strings.HasPrefix(s, "rgb("):
		return parseRGB(s)
	case strings.HasPrefix(s, "hsl("):
		return parseHSL(s)
	}
	if c, ok := colornames.Map[s]; ok {
		return mgl32.Vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}, nil
	}
	return mgl32.Vec4{}, fmt.Errorf("unknown color %q", s)
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) mgl32.Vec4 {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(s string) (mgl32.Vec4, error) {
	alpha := float32(1)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return mgl32.Vec4{}, fmt.Errorf("color %q: %w", s, err)
		}
		alpha = float32(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("color %q: %w", s, err)
	}
	return vec(c, alpha), nil
}

func args(s string) []string {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return nil
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	return parts
}

func number(s string, scale float64) (float64, error) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		return v / 100, err
	}
	v, err := strconv.ParseFloat(s, 64)
	return v / scale, err
}

func parseRGB(s string) (mgl32.Vec4, error) {
	a := args(s)
	if len(a) != 3 && len(a) != 4 {
		return mgl32.Vec4{}, fmt.Errorf("color %q: want 3 or 4 channels", s)
	}
	var out mgl32.Vec4
	out[3] = 1
	for i, p := range a {
		scale := 255.0
		if i == 3 {
			scale = 1
		}
		v, err := number(p, scale)
		if err != nil {
			return mgl32.Vec4{}, fmt.Errorf("color %q: %w", s, err)
		}
		out[i] = float32(clamp(v))
	}
	return out, nil
}

func parseHSL(s string) (mgl32.Vec4, error) {
	a := args(s)
	if len(a) != 3 && len(a) != 4 {
		return mgl32.Vec4{}, fmt.Errorf("color %q: want 3 or 4 channels", s)
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(a[0], "deg"), 64)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("color %q: %w", s, err)
	}
	sat, err := number(a[1], 100)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("color %q: %w", s, err)
	}
	l, err := number(a[2], 100)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("color %q: %w", s, err)
	}
	alpha := 1.0
	if len(a) == 4 {
		if alpha, err = number(a[3], 1); err != nil {
			return mgl32.Vec4{}, fmt.Errorf("color %q: %w", s, err)
		}
	}
	return HSL(float32(h), float32(sat), float32(l), float32(clamp(alpha))), nil
}

// HSL builds a color from hue in degrees and saturation/lightness in 0..1.
func HSL(h, s, l, alpha float32) mgl32.Vec4 {
	return vec(colorful.Hsl(float64(h), float64(s), float64(l)).Clamped(), alpha)
}

// Blend mixes a and b in CIE L*a*b* space; alpha is mixed linearly.
func Blend(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	ca := colorful.Color{R: float64(a[0]), G: float64(a[1]), B: float64(a[2])}
	cb := colorful.Color{R: float64(b[0]), G: float64(b[1]), B: float64(b[2])}
	return vec(ca.BlendLab(cb, float64(t)).Clamped(), a[3]+(b[3]-a[3])*t)
}

// Palette returns n random, pleasant colors.
func Palette(n int) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, 0, n)
	for _, c := range colorful.FastHappyPalette(n) {
		out = append(out, vec(c, 1))
	}
	return out
}

// Hex formats c as "#rrggbb".
func Hex(c mgl32.Vec4) string {
	return colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}.Clamped().Hex()
}

func vec(c colorful.Color, alpha float32) mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), alpha}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
