package mediatex

import (
	"context"
	"image"
)

// A Source is anything whose latest frame can be uploaded into a texture.
// All methods are safe to call at any time, including before the source
// has produced a frame.
type Source interface {
	// IsReady reports whether the source has produced at least one frame.
	IsReady() bool
	// AspectRatio is width/height of the current frame, or 1 until ready.
	AspectRatio() float64
	// Frame returns the latest frame as tightly packed RGBA rows, or nil
	// until ready.
	Frame() *image.NRGBA
}

// A Reader is anything that can read and recycle frames. The release
// function is called once the frame has been copied.
type Reader interface {
	Read(ctx context.Context) (img image.Image, release func(), err error)
}

// A Track is one stoppable data track of a Stream.
type Track interface {
	Stop() error
}

// A Stream is an attached source of frames along with the tracks that back it.
// Streams that are not backed by capture devices have no tracks.
type Stream interface {
	Reader
	Tracks() []Track
}

// An Acquirer produces the Stream for a Playable. Acquire may block; it is
// always called off of the caller's goroutine.
type Acquirer interface {
	Acquire(ctx context.Context) (Stream, error)
}

// AcquirerFunc is a helper to turn a function into an Acquirer.
type AcquirerFunc func(ctx context.Context) (Stream, error)

// Acquire calls f.
func (f AcquirerFunc) Acquire(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// readerFuncNoCtx adapts readers, like those of mediadevices, that do not
// take a context.
type readerFuncNoCtx func() (image.Image, func(), error)

func (f readerFuncNoCtx) Read(_ context.Context) (image.Image, func(), error) {
	return f()
}

// frame is what a source publishes. width and height are the native
// dimensions which may differ from img's if it was downscaled.
type frame struct {
	img           *image.NRGBA
	width, height int
}
