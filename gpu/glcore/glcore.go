// Package glcore adapts a desktop OpenGL 4.1 core context to gpu.Context.
package glcore

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"

	"github.com/edaniels/mediatex/gpu"
)

// Context forwards texture calls to the current OpenGL context. The GL
// context must be current on the calling OS thread.
type Context struct{}

// New loads the GL function pointers for the current context.
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize OpenGL")
	}
	return &Context{}, nil
}

// CreateTexture allocates a texture name. This is the only call here that
// allocates GPU resources and is meant to be done once per target.
func (c *Context) CreateTexture() gpu.Texture {
	var tex uint32
	gl.GenTextures(1, &tex)
	return gpu.Texture(tex)
}

// DeleteTexture frees a texture created with CreateTexture.
func (c *Context) DeleteTexture(tex gpu.Texture) {
	name := uint32(tex)
	gl.DeleteTextures(1, &name)
}

// ActiveTexture implements gpu.Context.
func (c *Context) ActiveTexture(unit uint32) {
	gl.ActiveTexture(unit)
}

// BindTexture implements gpu.Context.
func (c *Context) BindTexture(target uint32, tex gpu.Texture) {
	gl.BindTexture(target, uint32(tex))
}

// TexImage2D implements gpu.Context.
func (c *Context) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	if len(pixels) == 0 {
		gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, nil)
		return
	}
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, gl.Ptr(pixels))
}

// TexParameteri implements gpu.Context.
func (c *Context) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}
