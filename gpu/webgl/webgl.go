//go:build js && wasm

// Package webgl adapts a browser WebGL rendering context to gpu.Context.
package webgl

import (
	"syscall/js"

	"github.com/pkg/errors"

	"github.com/edaniels/mediatex/gpu"
)

// Context wraps a WebGLRenderingContext (or WebGL2RenderingContext). WebGL
// textures are JS objects, so they are kept in a table keyed by gpu.Texture.
type Context struct {
	gl       js.Value
	textures map[gpu.Texture]js.Value
	next     gpu.Texture

	// staging is reused between uploads and only grows.
	staging js.Value
	capBuf  int
}

// New gets a WebGL context from the given canvas element, preferring WebGL 2.
func New(canvas js.Value) (*Context, error) {
	if canvas.IsUndefined() || canvas.IsNull() {
		return nil, errors.New("no canvas given")
	}
	ctx := canvas.Call("getContext", "webgl2")
	if ctx.IsNull() || ctx.IsUndefined() {
		ctx = canvas.Call("getContext", "webgl")
	}
	if ctx.IsNull() || ctx.IsUndefined() {
		return nil, errors.New("canvas does not support WebGL")
	}
	return &Context{gl: ctx, textures: map[gpu.Texture]js.Value{}}, nil
}

// CreateTexture allocates a WebGL texture.
func (c *Context) CreateTexture() gpu.Texture {
	c.next++
	c.textures[c.next] = c.gl.Call("createTexture")
	return c.next
}

// DeleteTexture frees a texture created with CreateTexture.
func (c *Context) DeleteTexture(tex gpu.Texture) {
	if v, ok := c.textures[tex]; ok {
		c.gl.Call("deleteTexture", v)
		delete(c.textures, tex)
	}
}

// ActiveTexture implements gpu.Context.
func (c *Context) ActiveTexture(unit uint32) {
	c.gl.Call("activeTexture", unit)
}

// BindTexture implements gpu.Context.
func (c *Context) BindTexture(target uint32, tex gpu.Texture) {
	v, ok := c.textures[tex]
	if !ok {
		v = js.Null()
	}
	c.gl.Call("bindTexture", target, v)
}

// TexImage2D implements gpu.Context.
func (c *Context) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	if len(pixels) > c.capBuf {
		c.staging = js.Global().Get("Uint8Array").New(len(pixels))
		c.capBuf = len(pixels)
	}
	view := c.staging.Call("subarray", 0, len(pixels))
	js.CopyBytesToJS(view, pixels)
	c.gl.Call("texImage2D", target, level, internalFormat, width, height, 0, format, xtype, view)
}

// TexParameteri implements gpu.Context.
func (c *Context) TexParameteri(target, pname uint32, param int32) {
	c.gl.Call("texParameteri", target, pname, param)
}
