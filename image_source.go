package mediatex

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	// register additional decoders.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// An Image is a static image that is fetched and decoded in the background.
// It becomes ready once decoding completes and never otherwise changes. A
// failed fetch or decode leaves it not ready forever; callers that need a
// bounded wait should select on Ready with their own timeout.
type Image struct {
	url     string
	cfg     SourceConfig
	ready   *readiness
	current atomic.Pointer[frame]

	activeBackgroundWorkers sync.WaitGroup
}

// NewImage starts loading the image at url and returns immediately.
func NewImage(url string, config SourceConfig) *Image {
	img := &Image{
		url:   url,
		cfg:   config.withDefaults(),
		ready: newReadiness(),
	}
	img.activeBackgroundWorkers.Add(1)
	utils.PanicCapturingGo(func() {
		defer img.activeBackgroundWorkers.Done()
		img.load(context.Background())
	})
	return img
}

func (i *Image) load(ctx context.Context) {
	decoded, err := decodeImage(ctx, i.url, i.cfg)
	if err != nil {
		i.cfg.Logger.Debugw("failed to load image; it will not become ready", "url", i.url, "error", err)
		return
	}
	f := newFrame(decoded, i.cfg)
	i.current.Store(f)
	if i.ready.set() {
		i.cfg.Logger.Debugw("image loaded", "url", i.url, "width", f.width, "height", f.height)
	}
}

func decodeImage(ctx context.Context, url string, cfg SourceConfig) (img image.Image, err error) {
	body, _, err := openURL(ctx, url, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, body.Close())
	}()
	img, err = imaging.Decode(body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %q", url)
	}
	return img, nil
}

// IsReady reports whether the image has been decoded.
func (i *Image) IsReady() bool {
	return i.ready.isSet()
}

// Ready is closed once the image has been decoded.
func (i *Image) Ready() <-chan struct{} {
	return i.ready.done()
}

// AspectRatio returns width/height once decoded and 1 before that.
func (i *Image) AspectRatio() float64 {
	if !i.ready.isSet() {
		return 1
	}
	f := i.current.Load()
	return aspectRatio(true, f.width, f.height)
}

// Frame returns the decoded image, or nil if not ready.
func (i *Image) Frame() *image.NRGBA {
	if !i.ready.isSet() {
		return nil
	}
	return i.current.Load().img
}
