package mediatex

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// newFrame copies img into a new tightly packed, zero-origin NRGBA image,
// applying the texture related options of cfg. img is not retained, so the
// caller may release it afterwards.
func newFrame(img image.Image, cfg SourceConfig) *frame {
	bounds := img.Bounds()
	f := &frame{width: bounds.Dx(), height: bounds.Dy()}

	src := img
	if limit := cfg.MaxTextureSize; limit > 0 && (f.width > limit || f.height > limit) {
		src = resize.Thumbnail(uint(limit), uint(limit), src, resize.Bilinear)
	}
	if cfg.FlipY {
		f.img = imaging.FlipV(src)
	} else {
		f.img = imaging.Clone(src)
	}
	return f
}
