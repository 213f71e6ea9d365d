// Package main opens a media source, waits for it to become ready and
// streams its frames into a software texture, logging what it sees.
package main

import (
	"context"
	"time"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/edaniels/mediatex"
	"github.com/edaniels/mediatex/gpu/soft"
)

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

var (
	defaultSource      = "screen"
	defaultFrames      = 30
	defaultWaitSeconds = 10
	defaultUnit        = 3
	logger             = golog.Global().Named("probe")
)

// Arguments for the command.
type Arguments struct {
	Source      string `flag:"source,usage=camera, screen (default), image or video"`
	URL         string `flag:"url,usage=location of the image or video"`
	Label       string `flag:"label,usage=device label"`
	Unit        int    `flag:"unit,usage=texture unit to upload into"`
	Frames      int    `flag:"frames,usage=number of frames to upload"`
	WaitSeconds int    `flag:"wait_seconds,usage=how long to wait for the source to become ready"`
	MaxSize     int    `flag:"max_size,usage=maximum texture width or height"`
	FlipY       bool   `flag:"flip_y,usage=flip frames for GL texture coordinates"`
	Out         string `flag:"out,usage=save the final texture to this file"`
	Dump        bool   `flag:"dump,usage=list devices and exit"`
}

// probeSource is what the probe needs from a source.
type probeSource interface {
	mediatex.Source
	Ready() <-chan struct{}
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Dump {
		dumpDevices(logger)
		return nil
	}
	if argsParsed.Source == "" {
		argsParsed.Source = defaultSource
	}
	if argsParsed.Frames == 0 {
		argsParsed.Frames = defaultFrames
	}
	if argsParsed.WaitSeconds == 0 {
		argsParsed.WaitSeconds = defaultWaitSeconds
	}
	if argsParsed.Unit == 0 {
		argsParsed.Unit = defaultUnit
	}
	return runProbe(ctx, argsParsed, logger)
}

func dumpDevices(logger golog.Logger) {
	for kind, all := range map[string][]mediatex.DeviceInfo{
		"camera": mediatex.QueryVideoDevices(),
		"screen": mediatex.QueryScreenDevices(),
	} {
		for _, info := range all {
			logger.Infof("%s %s", kind, info.ID)
			logger.Infof("\t labels: %v", info.Labels)
			logger.Infof("\t priority: %v", info.Priority)
			if info.Error != nil {
				logger.Infof("\t error: %v", info.Error)
			}
			for _, p := range info.Properties {
				logger.Infof("\t %+v", p.Video)
			}
		}
	}
}

func runProbe(ctx context.Context, args Arguments, logger golog.Logger) (err error) {
	cfg := mediatex.SourceConfig{
		Name:           args.Source,
		Logger:         logger,
		MaxTextureSize: args.MaxSize,
		FlipY:          args.FlipY,
	}
	dev := mediatex.DeviceConfig{Label: args.Label}

	var src probeSource
	switch args.Source {
	case "camera":
		p := mediatex.NewWebcam(dev, cfg)
		defer func() { err = multierr.Combine(err, p.Stop()) }()
		src = p
	case "screen":
		p := mediatex.NewDisplayCapture(dev, cfg)
		defer func() { err = multierr.Combine(err, p.Stop()) }()
		src = p
	case "video":
		if args.URL == "" {
			return errors.New("--url is required for video")
		}
		p := mediatex.NewVideo(args.URL, cfg)
		defer func() { err = multierr.Combine(err, p.Stop()) }()
		src = p
	case "image":
		if args.URL == "" {
			return errors.New("--url is required for image")
		}
		src = mediatex.NewImage(args.URL, cfg)
	default:
		return errors.Errorf("unknown source %q", args.Source)
	}

	gl := soft.New()
	tex := gl.CreateTexture()

	// uploads before ready are no-ops
	mediatex.Upload(gl, args.Unit, tex, src)
	logger.Infow("waiting for source", "aspect_ratio", src.AspectRatio())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(args.WaitSeconds) * time.Second):
		return errors.Errorf("%s did not become ready within %ds", args.Source, args.WaitSeconds)
	case <-src.Ready():
	}

	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()
	for i := 0; i < args.Frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		mediatex.Upload(gl, args.Unit, tex, src)
		if err := gl.Err(); err != nil {
			return err
		}
		img := gl.Image(tex)
		logger.Debugw("uploaded", "frame", i, "aspect_ratio", src.AspectRatio(), "texture_size", img.Rect.Size())
	}
	logger.Infow("done", "uploads", gl.Uploads(tex), "aspect_ratio", src.AspectRatio())

	if args.Out == "" {
		return nil
	}
	return imaging.Save(gl.Image(tex), args.Out)
}
