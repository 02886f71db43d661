package renderer

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"Sketch3D/internal/gpu"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"go.uber.org/zap"
)

// TextureSettings describe how pixels are uploaded and sampled.
type TextureSettings struct {
	Width, Height int
	Filter        gpu.Filter
	Wrap          gpu.Wrap
	// MaxSize, when positive, downscales loaded images so neither side exceeds it.
	MaxSize int
}

// Texture is a GPU texture permanently bound to its own texture unit.
type Texture struct {
	Name          string
	Handle        uint32
	Unit          int
	Width, Height int
	Format        gpu.TextureFormat
	Settings      TextureSettings
}

// unitAllocator hands out texture units in increasing order and never reuses one.
type unitAllocator struct {
	next, max int
}

func newUnitAllocator(max int) *unitAllocator {
	return &unitAllocator{max: max}
}

func (a *unitAllocator) alloc() (int, bool) {
	if a.next >= a.max {
		return -1, false
	}
	a.next++
	return a.next - 1, true
}

func (a *unitAllocator) used() int      { return a.next }
func (a *unitAllocator) remaining() int { return a.max - a.next }

// newTexture allocates a unit and texture object; callers check units first.
func (r *Renderer) newTexture(name string, format gpu.TextureFormat, width, height int, pixels []byte, s TextureSettings) *Texture {
	unit, _ := r.units.alloc()
	t := &Texture{
		Name:     name,
		Handle:   r.ctx.CreateTexture(),
		Unit:     unit,
		Width:    width,
		Height:   height,
		Format:   format,
		Settings: s,
	}
	r.ctx.ActiveTexture(unit)
	r.ctx.BindTexture(t.Handle)
	r.ctx.TexImage2D(width, height, format, pixels)
	r.ctx.TexParameters(s.Filter, s.Wrap)
	r.textures[name] = t
	return t
}

// AddTexture uploads RGBA8 pixels under name and returns its texture unit.
// An existing name keeps its unit and texture object and is re-uploaded.
// Once every unit is taken it returns -1 and ErrTextureUnitsExhausted without
// creating a texture.
func (r *Renderer) AddTexture(name string, pixels []byte, s TextureSettings) (int, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return -1, fmt.Errorf("texture %q: invalid size %dx%d", name, s.Width, s.Height)
	}
	if want := s.Width * s.Height * 4; pixels != nil && len(pixels) < want {
		return -1, fmt.Errorf("texture %q: %d bytes for %dx%d", name, len(pixels), s.Width, s.Height)
	}
	if t, ok := r.textures[name]; ok {
		t.Width, t.Height, t.Settings = s.Width, s.Height, s
		r.ctx.ActiveTexture(t.Unit)
		r.ctx.BindTexture(t.Handle)
		r.ctx.TexImage2D(s.Width, s.Height, t.Format, pixels)
		r.ctx.TexParameters(s.Filter, s.Wrap)
		return t.Unit, nil
	}
	if r.units.remaining() == 0 {
		r.log.Warn("Texture units exhausted",
			zap.String("texture", name),
			zap.Int("max", r.units.max))
		return -1, fmt.Errorf("texture %q: %w", name, ErrTextureUnitsExhausted)
	}
	t := r.newTexture(name, gpu.FormatRGBA8, s.Width, s.Height, pixels, s)
	r.log.Debug("Texture added",
		zap.String("texture", name),
		zap.Int("unit", t.Unit),
		zap.Int("width", s.Width),
		zap.Int("height", s.Height))
	return t.Unit, nil
}

// AddImage uploads img under name, flipped so row 0 is the bottom of the
// texture as GL expects. Width and Height of s are taken from the image.
func (r *Renderer) AddImage(name string, img image.Image, s TextureSettings) (int, error) {
	img = fit(img, s.MaxSize)
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	s.Width, s.Height = b.Dx(), b.Dy()
	return r.AddTexture(name, flipRows(nrgba.Pix, nrgba.Stride, b.Dy()), s)
}

// LoadTexture decodes the image file at path (png, jpeg, bmp, tiff, webp or tga)
// and uploads it under name.
func (r *Renderer) LoadTexture(name, path string, s TextureSettings) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return -1, fmt.Errorf("load texture %q: %w", name, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		r.log.Error("Texture decode failed", zap.String("path", path), zap.Error(err))
		return -1, fmt.Errorf("load texture %q: %w", name, err)
	}
	r.log.Debug("Texture decoded", zap.String("path", path), zap.String("format", format))
	return r.AddImage(name, img, s)
}

// Texture returns the registered texture called name.
func (r *Renderer) Texture(name string) (*Texture, bool) {
	t, ok := r.textures[name]
	return t, ok
}

// ReadPixels reads back the bound target as an image with row 0 at the top.
func (r *Renderer) ReadPixels() *image.NRGBA {
	_, w, h := r.framebuffer(r.target)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	px := r.ctx.ReadPixels(w, h)
	copy(img.Pix, flipRows(px, w*4, h))
	return img
}

func fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func flipRows(px []byte, stride, rows int) []byte {
	out := make([]byte, len(px))
	for y := 0; y < rows; y++ {
		src := px[y*stride : (y+1)*stride]
		copy(out[(rows-1-y)*stride:], src)
	}
	return out
}
