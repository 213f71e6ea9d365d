// Package gpu describes the small slice of a GL-style context that media
// textures are uploaded through. Backends live in subpackages.
package gpu

// A Texture is a backend specific texture object name.
type Texture uint32

// GL enum values used by texture uploads. They match the OpenGL ES 2.0 / WebGL
// numeric values so backends can pass them through unchanged.
const (
	Texture0         uint32 = 0x84C0
	Texture2D        uint32 = 0x0DE1
	TextureWrapS     uint32 = 0x2802
	TextureWrapT     uint32 = 0x2803
	TextureMinFilter uint32 = 0x2801
	TextureMagFilter uint32 = 0x2800
	UnsignedByte     uint32 = 0x1401
	RGBA             uint32 = 0x1908

	ClampToEdge int32 = 0x812F
	Linear      int32 = 0x2601
	Nearest     int32 = 0x2600
	Repeat      int32 = 0x2901
)

// A Context is the subset of a GL context that is needed to stream frames
// into textures. All calls are expected to be made from the goroutine (or
// thread) that owns the context.
type Context interface {
	// ActiveTexture selects the texture unit, given as Texture0+n.
	ActiveTexture(unit uint32)
	// BindTexture binds tex to target on the active unit.
	BindTexture(target uint32, tex Texture)
	// TexImage2D uploads tightly packed pixel rows into the bound texture.
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte)
	// TexParameteri sets an integer sampler parameter on the bound texture.
	TexParameteri(target, pname uint32, param int32)
}
