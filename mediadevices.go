package mediatex

import (
	"context"
	"fmt"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/driver"
	mdframe "github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	// register
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/screen"
)

// DefaultConstraints are suitable for finding any available device.
var DefaultConstraints = mediadevices.MediaStreamConstraints{
	Video: func(constraint *mediadevices.MediaTrackConstraints) {
		constraint.Width = prop.IntRanged{Min: 640, Max: 4096, Ideal: 1920}
		constraint.Height = prop.IntRanged{Min: 400, Max: 2160, Ideal: 1080}
		constraint.FrameRate = prop.FloatRanged{Min: 0, Max: 200, Ideal: 60}
		constraint.FrameFormat = prop.FrameFormatOneOf{
			mdframe.FormatI420,
			mdframe.FormatI444,
			mdframe.FormatYUY2,
			mdframe.FormatUYVY,
			mdframe.FormatRGBA,
			mdframe.FormatMJPEG,
			mdframe.FormatNV12,
			mdframe.FormatNV21,
		}
	},
}

// NewWebcam starts capturing from a camera (not a screen).
func NewWebcam(dev DeviceConfig, config SourceConfig) *Playable {
	return NewPlayable(&deviceAcquirer{dev: dev.withDefaults(), baseFilter: getVideoFilterBase, useSep: true}, config)
}

// NewDisplayCapture starts capturing a screen.
func NewDisplayCapture(dev DeviceConfig, config SourceConfig) *Playable {
	return NewPlayable(&deviceAcquirer{dev: dev.withDefaults(), baseFilter: getScreenFilterBase, useSep: false}, config)
}

// DriverInUseError is returned when a device is already streaming into
// another source.
type DriverInUseError struct {
	label string
}

func (err *DriverInUseError) Error() string {
	return fmt.Sprintf("driver is still in use by another source: %s", err.label)
}

// claimed drivers by label; a driver streams into at most one source.
var driverClaims = struct {
	mu     sync.Mutex
	labels map[string]struct{}
}{labels: map[string]struct{}{}}

func claimDriver(label string) bool {
	driverClaims.mu.Lock()
	defer driverClaims.mu.Unlock()
	if _, ok := driverClaims.labels[label]; ok {
		return false
	}
	driverClaims.labels[label] = struct{}{}
	return true
}

func driverClaimed(label string) bool {
	driverClaims.mu.Lock()
	defer driverClaims.mu.Unlock()
	_, ok := driverClaims.labels[label]
	return ok
}

// unclaimedFilter skips drivers already streaming into another source.
func unclaimedFilter() driver.FilterFn {
	return driver.FilterFn(func(d driver.Driver) bool {
		return !driverClaimed(d.Info().Label)
	})
}

func releaseDriver(label string) {
	driverClaims.mu.Lock()
	delete(driverClaims.labels, label)
	driverClaims.mu.Unlock()
}

type deviceAcquirer struct {
	dev        DeviceConfig
	baseFilter func() driver.FilterFn
	// useSep splits driver labels the same way the matching Query function
	// reports them.
	useSep bool
}

func (a *deviceAcquirer) Acquire(ctx context.Context) (Stream, error) {
	filter := driver.FilterAnd(a.baseFilter(), unclaimedFilter())
	if a.dev.Label != "" {
		filter = driver.FilterAnd(filter, labelFilter(a.dev.Label, a.useSep))
	}
	if a.dev.LabelPattern != nil {
		filter = driver.FilterAnd(filter, labelFilterPattern(a.dev.LabelPattern, a.useSep))
	}
	var videoConstraints mediadevices.MediaTrackConstraints
	a.dev.Constraints.Video(&videoConstraints)

	d, selectedMedia, err := selectBestDriver(filter, videoConstraints)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return openDriverStream(d, selectedMedia)
}

// openDriverStream opens d for recording. The returned stream has a single
// track which closes the driver.
func openDriverStream(d driver.Driver, mediaProp prop.Media) (Stream, error) {
	recorder, ok := d.(driver.VideoRecorder)
	if !ok {
		return nil, errors.New("driver not a driver.VideoRecorder")
	}
	label := d.Info().Label
	if !claimDriver(label) {
		return nil, &DriverInUseError{label}
	}

	if driverStatus := d.Status(); driverStatus != driver.StateClosed {
		Logger.Warnw("video driver is not closed, attempting to close and reopen", "status", driverStatus)
		if err := d.Close(); err != nil {
			Logger.Errorw("error closing driver", "error", err)
		}
	}
	if err := d.Open(); err != nil {
		releaseDriver(label)
		return nil, errors.Wrapf(err, "failed to open driver %q", label)
	}
	reader, err := recorder.VideoRecord(mediaProp)
	if err != nil {
		releaseDriver(label)
		return nil, multierr.Combine(errors.Wrapf(err, "failed to record from %q", label), d.Close())
	}
	return &driverStream{
		Reader: readerFuncNoCtx(reader.Read),
		tracks: []Track{&driverTrack{driver: d, label: label}},
	}, nil
}

type driverStream struct {
	Reader
	tracks []Track
}

func (ds *driverStream) Tracks() []Track {
	return ds.tracks
}

// driverTrack closes its driver once.
type driverTrack struct {
	once   sync.Once
	driver driver.Driver
	label  string
}

func (dt *driverTrack) Stop() error {
	var err error
	dt.once.Do(func() {
		defer releaseDriver(dt.label)
		err = dt.driver.Close()
	})
	return err
}
