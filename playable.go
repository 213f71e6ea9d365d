package mediatex

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// A Playable is a continuously updating source such as a camera, a display
// capture or a looping video. Its stream is acquired in the background at
// creation; it becomes ready when the first frame plays and stays ready.
// If acquisition fails it never becomes ready.
type Playable struct {
	cfg      SourceConfig
	acquirer Acquirer
	ready    *readiness
	current  atomic.Pointer[frame]

	mu      sync.Mutex
	stream  Stream
	stopped bool

	cancelCtx               context.Context
	cancel                  func()
	activeBackgroundWorkers sync.WaitGroup
}

// NewPlayable starts acquiring a stream from acq and returns immediately.
func NewPlayable(acq Acquirer, config SourceConfig) *Playable {
	cancelCtx, cancel := context.WithCancel(context.Background())
	p := &Playable{
		cfg:       config.withDefaults(),
		acquirer:  acq,
		ready:     newReadiness(),
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}
	p.start(cancelCtx)
	return p
}

func (p *Playable) start(ctx context.Context) {
	p.activeBackgroundWorkers.Add(1)
	utils.PanicCapturingGoWithCallback(func() {
		defer p.activeBackgroundWorkers.Done()
		stream, err := p.acquirer.Acquire(ctx)
		if err != nil {
			p.cfg.Logger.Debugw("failed to acquire stream; source will not become ready", "error", err)
			return
		}
		if !p.attach(stream) {
			p.cfg.Logger.Debug("stopped while acquiring; stopping late stream")
			if err := multierr.Combine(stopTracks(stream), closeStream(stream)); err != nil {
				p.cfg.Logger.Errorw("error stopping tracks", "error", err)
			}
			return
		}
		p.play(ctx, stream)
		if err := closeStream(stream); err != nil {
			p.cfg.Logger.Debugw("error closing stream", "error", err)
		}
	}, func(err interface{}) {
		p.cfg.Logger.Errorw("frame worker panicked", "error", err)
	})
}

// attach reports false if the Playable was stopped before stream arrived.
func (p *Playable) attach(stream Stream) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.stream = stream
	return true
}

// play reads frames until ctx is done.
func (p *Playable) play(ctx context.Context, stream Stream) {
	errCount := 0
	for {
		if ctx.Err() != nil {
			return
		}
		img, release, err := stream.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			errCount++
			p.cfg.Logger.Debugw("error reading frame", "error", err, "count", errCount)
			if !utils.SelectContextOrWait(ctx, sleepTimeFromErrorCount(errCount)) {
				return
			}
			continue
		}
		errCount = 0
		f := newFrame(img, p.cfg)
		if release != nil {
			release()
		}
		p.current.Store(f)
		p.onPlaying()
	}
}

// onPlaying handles the playback started signal. Only the first call has
// an effect.
func (p *Playable) onPlaying() {
	if p.ready.set() {
		f := p.current.Load()
		p.cfg.Logger.Debugw("playing", "width", f.width, "height", f.height)
	}
}

// IsReady reports whether the first frame has played.
func (p *Playable) IsReady() bool {
	return p.ready.isSet()
}

// Ready is closed once the first frame has played.
func (p *Playable) Ready() <-chan struct{} {
	return p.ready.done()
}

// AspectRatio returns width/height of the latest frame once playing and 1
// before that. The value can change between frames, e.g. when a captured
// window is resized.
func (p *Playable) AspectRatio() float64 {
	if !p.ready.isSet() {
		return 1
	}
	f := p.current.Load()
	return aspectRatio(true, f.width, f.height)
}

// Frame returns the latest frame, or nil if not ready.
func (p *Playable) Frame() *image.NRGBA {
	if !p.ready.isSet() {
		return nil
	}
	return p.current.Load().img
}

// Stop stops every track of the attached stream and halts frame updates.
// A stream that is still being acquired is stopped as soon as it arrives.
// The Playable must not be uploaded after Stop.
func (p *Playable) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	stream := p.stream
	p.cancel()
	p.mu.Unlock()

	if stream == nil {
		return nil
	}
	err := stopTracks(stream)
	p.activeBackgroundWorkers.Wait()
	return err
}

// streamCloser is implemented by streams holding resources other than
// their tracks. close is only called from the frame worker.
type streamCloser interface {
	close() error
}

func closeStream(stream Stream) error {
	if c, ok := stream.(streamCloser); ok {
		return c.close()
	}
	return nil
}

func stopTracks(stream Stream) error {
	var errs error
	for _, track := range stream.Tracks() {
		errs = multierr.Combine(errs, track.Stop())
	}
	return errs
}
