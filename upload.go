package mediatex

import "github.com/edaniels/mediatex/gpu"

// Upload copies the latest frame of src into tex on the given texture unit
// and sets clamp-to-edge wrapping and linear minification. If src is not
// ready it returns without touching gl at all, so it is safe to call every
// frame from the render loop. No other sampler or binding state is changed
// and no GPU resources are allocated.
func Upload(gl gpu.Context, unit int, tex gpu.Texture, src Source) {
	if !src.IsReady() {
		return
	}
	img := src.Frame()
	if img == nil {
		return
	}
	gl.ActiveTexture(gpu.Texture0 + uint32(unit))
	gl.BindTexture(gpu.Texture2D, tex)
	gl.TexImage2D(
		gpu.Texture2D, 0, int32(gpu.RGBA),
		int32(img.Rect.Dx()), int32(img.Rect.Dy()),
		gpu.RGBA, gpu.UnsignedByte, img.Pix,
	)
	gl.TexParameteri(gpu.Texture2D, gpu.TextureWrapS, gpu.ClampToEdge)
	gl.TexParameteri(gpu.Texture2D, gpu.TextureWrapT, gpu.ClampToEdge)
	gl.TexParameteri(gpu.Texture2D, gpu.TextureMinFilter, gpu.Linear)
}
