// Package soft implements gpu.Context in memory. It is useful for headless
// tools and for inspecting what a real context would have received.
package soft

import (
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/edaniels/mediatex/gpu"
)

// Sampler holds the sampler parameters of a texture.
type Sampler struct {
	WrapS     int32
	WrapT     int32
	MinFilter int32
	MagFilter int32
}

// OpenGL defaults.
var defaultSampler = Sampler{
	WrapS:     gpu.Repeat,
	WrapT:     gpu.Repeat,
	MinFilter: 0x2702, // NEAREST_MIPMAP_LINEAR
	MagFilter: gpu.Linear,
}

type texture struct {
	img     *image.NRGBA
	sampler Sampler
	uploads int
}

// Context is a software gpu.Context. Like GL, misuse is recorded rather than
// returned and can be retrieved with Err.
type Context struct {
	mu       sync.Mutex
	unit     uint32
	bindings map[uint32]gpu.Texture
	textures map[gpu.Texture]*texture
	next     gpu.Texture
	err      error
}

// New returns an empty software context with unit 0 active.
func New() *Context {
	return &Context{
		bindings: map[uint32]gpu.Texture{},
		textures: map[gpu.Texture]*texture{},
	}
}

// CreateTexture allocates a texture name.
func (c *Context) CreateTexture() gpu.Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.textures[c.next] = &texture{sampler: defaultSampler}
	return c.next
}

// Err returns and clears the first error recorded since the last call.
func (c *Context) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.err
	c.err = nil
	return err
}

func (c *Context) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}

// ActiveTexture implements gpu.Context.
func (c *Context) ActiveTexture(unit uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if unit < gpu.Texture0 {
		c.setErr(errors.Errorf("invalid texture unit %#x", unit))
		return
	}
	c.unit = unit - gpu.Texture0
}

// BindTexture implements gpu.Context.
func (c *Context) BindTexture(target uint32, tex gpu.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if target != gpu.Texture2D {
		c.setErr(errors.Errorf("unsupported texture target %#x", target))
		return
	}
	if tex != 0 {
		if _, ok := c.textures[tex]; !ok {
			c.setErr(errors.Errorf("unknown texture %d", tex))
			return
		}
	}
	c.bindings[c.unit] = tex
}

func (c *Context) bound(target uint32) (*texture, bool) {
	if target != gpu.Texture2D {
		c.setErr(errors.Errorf("unsupported texture target %#x", target))
		return nil, false
	}
	tex, ok := c.textures[c.bindings[c.unit]]
	if !ok {
		c.setErr(errors.Errorf("no texture bound to unit %d", c.unit))
		return nil, false
	}
	return tex, true
}

// TexImage2D implements gpu.Context. Only level 0 RGBA/UNSIGNED_BYTE data is
// kept; other levels are accepted and dropped.
func (c *Context) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tex, ok := c.bound(target)
	if !ok {
		return
	}
	if uint32(internalFormat) != gpu.RGBA || format != gpu.RGBA || xtype != gpu.UnsignedByte {
		c.setErr(errors.Errorf("unsupported format %#x/%#x/%#x", internalFormat, format, xtype))
		return
	}
	if width < 0 || height < 0 {
		c.setErr(errors.Errorf("invalid size %dx%d", width, height))
		return
	}
	need := int(width) * int(height) * 4
	if len(pixels) < need {
		c.setErr(errors.Errorf("expected at least %d bytes but got %d", need, len(pixels)))
		return
	}
	if level != 0 {
		return
	}
	if tex.img == nil || tex.img.Rect.Dx() != int(width) || tex.img.Rect.Dy() != int(height) {
		tex.img = image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	}
	copy(tex.img.Pix, pixels[:need])
	tex.uploads++
}

// TexParameteri implements gpu.Context.
func (c *Context) TexParameteri(target, pname uint32, param int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tex, ok := c.bound(target)
	if !ok {
		return
	}
	switch pname {
	case gpu.TextureWrapS:
		tex.sampler.WrapS = param
	case gpu.TextureWrapT:
		tex.sampler.WrapT = param
	case gpu.TextureMinFilter:
		tex.sampler.MinFilter = param
	case gpu.TextureMagFilter:
		tex.sampler.MagFilter = param
	default:
		c.setErr(errors.Errorf("unsupported parameter %#x", pname))
	}
}

// Bound returns the texture bound to the given unit index.
func (c *Context) Bound(unit int) gpu.Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindings[uint32(unit)]
}

// ActiveUnit returns the active unit index.
func (c *Context) ActiveUnit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.unit)
}

// Image returns a copy of the level 0 image of tex, or nil if nothing has
// been uploaded yet.
func (c *Context) Image(tex gpu.Texture) *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[tex]
	if !ok || t.img == nil {
		return nil
	}
	cp := image.NewNRGBA(t.img.Rect)
	copy(cp.Pix, t.img.Pix)
	return cp
}

// Sampler returns the sampler parameters of tex.
func (c *Context) Sampler(tex gpu.Texture) Sampler {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.textures[tex]; ok {
		return t.sampler
	}
	return Sampler{}
}

// Uploads returns how many level 0 uploads tex has received.
func (c *Context) Uploads(tex gpu.Texture) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.textures[tex]; ok {
		return t.uploads
	}
	return 0
}
