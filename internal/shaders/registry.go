// Package shaders holds the built-in GLSL passes.
//
// Sources carry no #version line: the renderer prepends the header of the
// backend it runs on, so the same text compiles as GLSL 330 core on desktop
// and GLSL ES 300 in a browser.
package shaders

import "sort"

// Source is a vertex/fragment pair.
type Source struct {
	Vert string
	Frag string
}

// FullscreenVert is shared by every post effect. It passes positions straight
// through the (identity) matrices so the quad covers the viewport.
const FullscreenVert = `
in vec3 aPosition;
in vec2 aTexCoord;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec2 vTexCoord;

void main() {
    vTexCoord = aTexCoord;
    gl_Position = uProjection * uView * uModel * vec4(aPosition, 1.0);
}
`

const sceneVert = `
in vec3 aPosition;
in vec3 aNormal;
in vec2 aTexCoord;
in vec4 aColor;
in float aSurfaceId;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;
uniform mat3 uNormalMatrix;

out vec3 vPosition;
out vec3 vNormal;
out vec2 vTexCoord;
out vec4 vColor;
out float vSurfaceId;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vPosition = world.xyz;
    vNormal = normalize(uNormalMatrix * aNormal);
    vTexCoord = aTexCoord;
    vColor = aColor;
    vSurfaceId = aSurfaceId;
    gl_Position = uProjection * uView * world;
}
`

var registry = map[string]Source{
	"default": {Vert: sceneVert, Frag: `
in vec3 vNormal;
in vec4 vColor;

uniform vec4 uColor;

out vec4 fragColor;

void main() {
    vec3 n = normalize(vNormal);
    float shade = 0.55 + 0.45 * max(dot(n, normalize(vec3(0.4, 1.0, 0.6))), 0.0);
    vec4 base = vColor.a > 0.0 ? vColor : uColor;
    fragColor = vec4(base.rgb * shade, base.a);
}
`},
	"unlit": {Vert: sceneVert, Frag: `
in vec2 vTexCoord;
in vec4 vColor;

uniform vec4 uColor;
uniform sampler2D uTexture;
uniform bool uUseTexture;

out vec4 fragColor;

void main() {
    vec4 base = vColor.a > 0.0 ? vColor : uColor;
    if (uUseTexture) {
        base *= texture(uTexture, vTexCoord);
    }
    fragColor = base;
}
`},
	"lit": {Vert: sceneVert, Frag: `
in vec3 vPosition;
in vec3 vNormal;
in vec2 vTexCoord;
in vec4 vColor;

uniform vec4 uColor;
uniform vec3 uEye;
uniform vec3 uLightPos;
uniform vec3 uLightColor;
uniform float uAmbient;
uniform float uShininess;

out vec4 fragColor;

void main() {
    vec4 base = vColor.a > 0.0 ? vColor : uColor;
    vec3 n = normalize(vNormal);
    vec3 l = normalize(uLightPos - vPosition);
    vec3 v = normalize(uEye - vPosition);
    vec3 h = normalize(l + v);
    float diff = max(dot(n, l), 0.0);
    float spec = pow(max(dot(n, h), 0.0), uShininess);
    vec3 rgb = base.rgb * (uAmbient + diff * uLightColor) + spec * uLightColor;
    fragColor = vec4(rgb, base.a);
}
`},
	"geo": {Vert: sceneVert, Frag: `
in vec3 vPosition;
in vec3 vNormal;
in float vSurfaceId;

uniform float uObjectId;
uniform float uNear;
uniform float uFar;
uniform vec3 uEye;

out vec4 fragColor;

void main() {
    float depth = (length(uEye - vPosition) - uNear) / (uFar - uNear);
    fragColor = vec4(normalize(vNormal) * 0.5 + 0.5, clamp(depth, 0.0, 1.0));
    fragColor.rgb *= 1.0 - 0.02 * mod(vSurfaceId + uObjectId, 8.0);
}
`},
	"copy": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uMainTex;
out vec4 fragColor;

void main() {
    fragColor = texture(uMainTex, vTexCoord);
}
`},
	"invert": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uMainTex;
out vec4 fragColor;

void main() {
    vec4 c = texture(uMainTex, vTexCoord);
    fragColor = vec4(1.0 - c.rgb, c.a);
}
`},
	"grayscale": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uMainTex;
uniform float uAmount;
out vec4 fragColor;

void main() {
    vec4 c = texture(uMainTex, vTexCoord);
    float g = dot(c.rgb, vec3(0.299, 0.587, 0.114));
    fragColor = vec4(mix(c.rgb, vec3(g), uAmount), c.a);
}
`},
	"blur": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uMainTex;
uniform vec2 uTexSize;
uniform float uRadius;
out vec4 fragColor;

void main() {
    vec2 px = uRadius / uTexSize;
    vec4 sum = vec4(0.0);
    for (int x = -2; x <= 2; x++) {
        for (int y = -2; y <= 2; y++) {
            sum += texture(uMainTex, vTexCoord + vec2(float(x), float(y)) * px);
        }
    }
    fragColor = sum / 25.0;
}
`},
	"depth": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uDepthTex;
uniform float uNear;
uniform float uFar;
out vec4 fragColor;

void main() {
    float z = texture(uDepthTex, vTexCoord).r * 2.0 - 1.0;
    float linear = (2.0 * uNear * uFar) / (uFar + uNear - z * (uFar - uNear));
    float d = linear / uFar;
    fragColor = vec4(vec3(d), 1.0);
}
`},
	"fog": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uMainTex;
uniform sampler2D uDepthTex;
uniform vec4 uFogColor;
uniform float uDensity;
out vec4 fragColor;

void main() {
    vec4 c = texture(uMainTex, vTexCoord);
    float d = texture(uDepthTex, vTexCoord).r;
    float f = clamp(pow(d, uDensity), 0.0, 1.0);
    fragColor = vec4(mix(c.rgb, uFogColor.rgb, f), c.a);
}
`},
	"vignette": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uMainTex;
uniform float uStrength;
out vec4 fragColor;

void main() {
    vec4 c = texture(uMainTex, vTexCoord);
    float r = distance(vTexCoord, vec2(0.5));
    fragColor = vec4(c.rgb * (1.0 - uStrength * r * r * 2.0), c.a);
}
`},
	"feedback": {Vert: FullscreenVert, Frag: `
in vec2 vTexCoord;
uniform sampler2D uMainTex;
uniform float uDecay;
out vec4 fragColor;

void main() {
    vec4 c = texture(uMainTex, vTexCoord);
    fragColor = vec4(c.rgb * uDecay, 1.0);
}
`},
}

// Default uniform values applied to every program that declares them.
var Defaults = map[string]any{
	"uColor":      [4]float32{1, 1, 1, 1},
	"uAmount":     float32(1),
	"uRadius":     float32(1),
	"uStrength":   float32(0.6),
	"uDecay":      float32(0.92),
	"uDensity":    float32(8),
	"uFogColor":   [4]float32{0.8, 0.85, 0.9, 1},
	"uLightPos":   [3]float32{4, 8, 6},
	"uLightColor": [3]float32{1, 1, 1},
	"uAmbient":    float32(0.15),
	"uShininess":  float32(32),
	"uNear":       float32(0.1),
	"uFar":        float32(100),
}

// Lookup returns the built-in pass called name.
func Lookup(name string) (Source, bool) {
	s, ok := registry[name]
	return s, ok
}

// Register adds or replaces a pass.
func Register(name string, src Source) {
	registry[name] = src
}

// Names lists the registered passes in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Effects lists the registered passes that use the full-screen vertex shader.
func Effects() []string {
	var names []string
	for _, n := range Names() {
		if registry[n].Vert == FullscreenVert {
			names = append(names, n)
		}
	}
	return names
}
