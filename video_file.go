package mediatex

import (
	"bufio"
	"context"
	"image"
	"image/gif"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"golang.org/x/image/draw"
)

// defaultGIFDelay is used for frames with no delay, as browsers do.
const defaultGIFDelay = 100 * time.Millisecond

// NewVideo starts playing the video at url. Playback starts on its own, has
// no sound and loops forever. Animated GIFs and multipart Motion-JPEG
// streams are supported; anything else leaves the source not ready.
func NewVideo(url string, config SourceConfig) *Playable {
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return NewPlayable(&videoAcquirer{url: url, client: client}, config)
}

type videoAcquirer struct {
	url    string
	client *http.Client
}

func (va *videoAcquirer) Acquire(ctx context.Context) (Stream, error) {
	body, mediaType, params, err := va.open(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return nil, multierr.Combine(errors.Errorf("no multipart boundary for %q", va.url), body.Close())
		}
		return &mjpegStream{va: va, body: body, mr: multipart.NewReader(body, boundary)}, nil
	case mediaType == "image/gif":
		g, err := gif.DecodeAll(body)
		err = multierr.Combine(err, body.Close())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode %q", va.url)
		}
		return newGIFStream(g)
	default:
		return nil, multierr.Combine(errors.Errorf("unsupported video type %q for %q", mediaType, va.url), body.Close())
	}
}

// open opens the url and figures out its media type from the content type,
// sniffing the body or falling back to the extension when it is missing.
func (va *videoAcquirer) open(ctx context.Context) (io.ReadCloser, string, map[string]string, error) {
	body, contentType, err := openURL(ctx, va.url, va.client)
	if err != nil {
		return nil, "", nil, err
	}
	br := bufio.NewReader(body)
	buffered := struct {
		io.Reader
		io.Closer
	}{br, body}
	if contentType == "" || contentType == "application/octet-stream" {
		// short bodies return what they have along with io.EOF
		head, _ := br.Peek(512)
		contentType = http.DetectContentType(head)
		if ext := strings.ToLower(path.Ext(va.url)); ext == ".gif" {
			contentType = "image/gif"
		}
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, "", nil, multierr.Combine(errors.Wrapf(err, "bad content type %q", contentType), body.Close())
	}
	return buffered, mediaType, params, nil
}

// gifStream plays an animated GIF forever, honoring frame delays and
// disposal methods.
type gifStream struct {
	g        *gif.GIF
	canvas   *image.NRGBA
	previous *image.NRGBA
	idx      int
	due      time.Time
}

func newGIFStream(g *gif.GIF) (*gifStream, error) {
	if len(g.Image) == 0 {
		return nil, errors.New("gif has no frames")
	}
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	return &gifStream{g: g, canvas: image.NewNRGBA(bounds)}, nil
}

func (gs *gifStream) Tracks() []Track {
	return nil
}

func (gs *gifStream) Read(ctx context.Context) (image.Image, func(), error) {
	if wait := time.Until(gs.due); wait > 0 {
		if !utils.SelectContextOrWait(ctx, wait) {
			return nil, nil, ctx.Err()
		}
	}
	if gs.idx == len(gs.g.Image) {
		gs.idx = 0
		draw.Draw(gs.canvas, gs.canvas.Rect, image.Transparent, image.Point{}, draw.Src)
	}
	if gs.idx > 0 {
		gs.dispose(gs.idx - 1)
	}
	img := gs.g.Image[gs.idx]
	if gs.disposal(gs.idx) == gif.DisposalPrevious {
		if gs.previous == nil {
			gs.previous = image.NewNRGBA(gs.canvas.Rect)
		}
		copy(gs.previous.Pix, gs.canvas.Pix)
	}
	draw.Draw(gs.canvas, img.Bounds(), img, img.Bounds().Min, draw.Over)

	delay := defaultGIFDelay
	if gs.idx < len(gs.g.Delay) && gs.g.Delay[gs.idx] > 0 {
		delay = time.Duration(gs.g.Delay[gs.idx]) * 10 * time.Millisecond
	}
	gs.due = time.Now().Add(delay)
	gs.idx++
	return gs.canvas, func() {}, nil
}

func (gs *gifStream) disposal(idx int) byte {
	if idx < len(gs.g.Disposal) {
		return gs.g.Disposal[idx]
	}
	return gif.DisposalNone
}

// dispose undoes frame idx according to its disposal method.
func (gs *gifStream) dispose(idx int) {
	switch gs.disposal(idx) {
	case gif.DisposalBackground:
		draw.Draw(gs.canvas, gs.g.Image[idx].Bounds(), image.Transparent, image.Point{}, draw.Src)
	case gif.DisposalPrevious:
		if gs.previous != nil {
			copy(gs.canvas.Pix, gs.previous.Pix)
		}
	}
}

// mjpegStream reads JPEG parts from a multipart stream. When the stream ends
// it is reopened on the next Read, which loops finite streams.
type mjpegStream struct {
	va   *videoAcquirer
	body io.Closer
	mr   *multipart.Reader
}

func (ms *mjpegStream) Tracks() []Track {
	return nil
}

func (ms *mjpegStream) Read(ctx context.Context) (image.Image, func(), error) {
	if ms.mr == nil {
		if err := ms.reopen(ctx); err != nil {
			return nil, nil, err
		}
	}
	part, err := ms.mr.NextPart()
	if err != nil {
		closeErr := ms.body.Close()
		ms.mr, ms.body = nil, nil
		if errors.Is(err, io.EOF) {
			return nil, nil, multierr.Combine(errors.New("end of stream; reopening"), closeErr)
		}
		return nil, nil, multierr.Combine(errors.Wrap(err, "failed to read part"), closeErr)
	}
	img, err := jpeg.Decode(part)
	err = multierr.Combine(err, part.Close())
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to decode part")
	}
	return img, func() {}, nil
}

// close releases the response body still being read, if any.
func (ms *mjpegStream) close() error {
	if ms.body == nil {
		return nil
	}
	err := ms.body.Close()
	ms.mr, ms.body = nil, nil
	return err
}

func (ms *mjpegStream) reopen(ctx context.Context) error {
	body, mediaType, params, err := ms.va.open(ctx)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return multierr.Combine(errors.Errorf("stream changed to %q", mediaType), body.Close())
	}
	ms.body = body
	ms.mr = multipart.NewReader(body, params["boundary"])
	return nil
}
