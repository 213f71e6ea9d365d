package mediatex

import (
	"context"
	"errors"
	"image"
	"regexp"
	"testing"
	"time"

	"github.com/pion/mediadevices/pkg/driver"
	"github.com/pion/mediadevices/pkg/driver/camera"
	mdframe "github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"
	"go.viam.com/test"

	"github.com/edaniels/mediatex/gpu"
	"github.com/edaniels/mediatex/gpu/gputest"
)

// MOCKS

// fakeDriver is a driver that has a label, produces frames of a fixed size
// and keeps track of how many times it is opened and closed.
type fakeDriver struct {
	label         string
	width, height int
	status        driver.State
	openedCount   int
	closedCount   int
	recordErr     error
}

func (d *fakeDriver) Open() error {
	d.openedCount++
	d.status = driver.StateOpened
	return nil
}

func (d *fakeDriver) Close() error {
	d.closedCount++
	d.status = driver.StateClosed
	return nil
}

func (d *fakeDriver) Properties() []prop.Media {
	return []prop.Media{{
		Video: prop.Video{
			Width:       d.width,
			Height:      d.height,
			FrameRate:   30,
			FrameFormat: mdframe.FormatRGBA,
		},
	}}
}

func (d *fakeDriver) ID() string           { return d.label }
func (d *fakeDriver) Info() driver.Info    { return driver.Info{Label: d.label} }
func (d *fakeDriver) Status() driver.State { return d.status }

func (d *fakeDriver) VideoRecord(p prop.Media) (video.Reader, error) {
	if d.recordErr != nil {
		return nil, d.recordErr
	}
	img := image.NewNRGBA(image.Rect(0, 0, d.width, d.height))
	return video.ReaderFunc(func() (image.Image, func(), error) {
		time.Sleep(10 * time.Millisecond)
		return img, func() {}, nil
	}), nil
}

func newFakeDriver(label string) *fakeDriver {
	return newSizedFakeDriver(label, 1, 1)
}

func newSizedFakeDriver(label string, width, height int) *fakeDriver {
	return &fakeDriver{label: label, width: width, height: height, status: driver.StateClosed}
}

// registerFakeDriver makes d discoverable by device queries for the rest of
// the test.
func registerFakeDriver(t *testing.T, d *fakeDriver, deviceType driver.DeviceType) {
	t.Helper()
	info := driver.Info{Label: d.label, DeviceType: deviceType}
	test.That(t, driver.GetManager().Register(d, info), test.ShouldBeNil)
	t.Cleanup(func() {
		for _, registered := range driver.GetManager().Query(labelFilter(d.label, false)) {
			driver.GetManager().Delete(registered.ID())
		}
	})
}

// notRecorder only satisfies driver.Driver.
type notRecorder struct {
	driver.Driver
}

// TESTS

func TestOpenDriverStream(t *testing.T) {
	d := newFakeDriver("/dev/fake0")

	stream, err := openDriverStream(d, prop.Media{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.openedCount, test.ShouldEqual, 1)
	test.That(t, stream.Tracks(), test.ShouldHaveLength, 1)

	img, release, err := stream.Read(context.Background())
	test.That(t, err, test.ShouldBeNil)
	release()
	test.That(t, img.Bounds(), test.ShouldResemble, image.Rect(0, 0, 1, 1))

	// a second source cannot take over the device
	_, err = openDriverStream(d, prop.Media{})
	var inUse *DriverInUseError
	test.That(t, errors.As(err, &inUse), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "/dev/fake0")
	test.That(t, d.openedCount, test.ShouldEqual, 1)

	// stopping the track closes the driver once
	track := stream.Tracks()[0]
	test.That(t, track.Stop(), test.ShouldBeNil)
	test.That(t, track.Stop(), test.ShouldBeNil)
	test.That(t, d.closedCount, test.ShouldEqual, 1)

	// and frees it up again
	stream, err = openDriverStream(d, prop.Media{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stopTracks(stream), test.ShouldBeNil)
	test.That(t, d.closedCount, test.ShouldEqual, 2)
}

func TestOpenDriverStreamReopensStaleDriver(t *testing.T) {
	d := newFakeDriver("/dev/fake1")
	d.status = driver.StateOpened

	stream, err := openDriverStream(d, prop.Media{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.closedCount, test.ShouldEqual, 1)
	test.That(t, d.openedCount, test.ShouldEqual, 1)
	test.That(t, stopTracks(stream), test.ShouldBeNil)
}

func TestOpenDriverStreamErrors(t *testing.T) {
	_, err := openDriverStream(notRecorder{newFakeDriver("/dev/fake2")}, prop.Media{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "driver.VideoRecorder")

	d := newFakeDriver("/dev/fake3")
	d.recordErr = errors.New("unsupported format")
	_, err = openDriverStream(d, prop.Media{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported format")
	test.That(t, d.closedCount, test.ShouldEqual, 1)

	// the failed attempt does not keep the device claimed
	d.recordErr = nil
	stream, err := openDriverStream(d, prop.Media{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stopTracks(stream), test.ShouldBeNil)
}

func TestDeviceConfigDefaults(t *testing.T) {
	cfg := DeviceConfig{}.withDefaults()
	test.That(t, cfg.Constraints.Video, test.ShouldNotBeNil)
}

func TestDisplayCaptureScenario(t *testing.T) {
	d := newSizedFakeDriver("fake-display-scenario", 1920, 1080)
	registerFakeDriver(t, d, driver.Screen)

	p := NewDisplayCapture(DeviceConfig{Label: "fake-display-scenario"}, testConfig(t))
	waitReady(t, p.Ready())
	test.That(t, p.AspectRatio(), test.ShouldEqual, 16.0/9.0)

	var rec gputest.Recorder
	Upload(&rec, 3, 9, p)
	test.That(t, rec.Ops(), test.ShouldResemble, []string{
		"ActiveTexture(0x84c3)",
		"BindTexture(0xde1, 9)",
		"TexImage2D(0xde1, 0, 1920x1080, 0x1908, 0x1401, 8294400 bytes)",
		"TexParameteri(0xde1, 0x2802, 0x812f)",
		"TexParameteri(0xde1, 0x2803, 0x812f)",
		"TexParameteri(0xde1, 0x2801, 0x2601)",
	})
	test.That(t, rec.Calls()[0].Unit, test.ShouldEqual, gpu.Texture0+3)

	test.That(t, p.Stop(), test.ShouldBeNil)
	test.That(t, d.status, test.ShouldEqual, driver.StateClosed)
	test.That(t, d.closedCount, test.ShouldEqual, d.openedCount)
	test.That(t, driverClaimed("fake-display-scenario"), test.ShouldBeFalse)
}

func TestWebcamLabelPart(t *testing.T) {
	d := newSizedFakeDriver("fake-video0"+camera.LabelSeparator+"fake-usb-front", 640, 480)
	registerFakeDriver(t, d, driver.Camera)

	// camera labels match on any of their parts
	p := NewWebcam(DeviceConfig{Label: "fake-usb-front"}, testConfig(t))
	waitReady(t, p.Ready())
	test.That(t, p.AspectRatio(), test.ShouldEqual, 4.0/3.0)
	test.That(t, p.Stop(), test.ShouldBeNil)

	// cameras are never picked for display capture
	screen := NewDisplayCapture(DeviceConfig{Label: d.label}, testConfig(t))
	screen.activeBackgroundWorkers.Wait()
	test.That(t, screen.IsReady(), test.ShouldBeFalse)
	test.That(t, screen.Stop(), test.ShouldBeNil)
}

func TestDisplayCaptureSkipsClaimedDevice(t *testing.T) {
	first := newSizedFakeDriver("fake-claim-screen-a", 1920, 1080)
	second := newSizedFakeDriver("fake-claim-screen-b", 1024, 768)
	registerFakeDriver(t, first, driver.Screen)
	registerFakeDriver(t, second, driver.Screen)

	a := NewDisplayCapture(DeviceConfig{Label: first.label}, testConfig(t))
	waitReady(t, a.Ready())
	test.That(t, a.AspectRatio(), test.ShouldEqual, 16.0/9.0)

	anyScreen := DeviceConfig{LabelPattern: regexp.MustCompile("^fake-claim-screen-")}
	b := NewDisplayCapture(anyScreen, testConfig(t))
	waitReady(t, b.Ready())
	test.That(t, b.AspectRatio(), test.ShouldEqual, 4.0/3.0)

	// nothing left to pick
	c := NewDisplayCapture(anyScreen, testConfig(t))
	c.activeBackgroundWorkers.Wait()
	test.That(t, c.IsReady(), test.ShouldBeFalse)

	test.That(t, StopAll(a, b, c), test.ShouldBeNil)
	test.That(t, driverClaimed(first.label), test.ShouldBeFalse)
	test.That(t, driverClaimed(second.label), test.ShouldBeFalse)
}
