package mediatex

import (
	"regexp"
	"testing"

	"github.com/pion/mediadevices/pkg/driver"
	"github.com/pion/mediadevices/pkg/driver/camera"
	"go.viam.com/test"
)

func TestLabelFilter(t *testing.T) {
	d := newFakeDriver("video0" + camera.LabelSeparator + "usb-cam-1")

	test.That(t, labelFilter("video0", true)(d), test.ShouldBeTrue)
	test.That(t, labelFilter("usb-cam-1", true)(d), test.ShouldBeTrue)
	test.That(t, labelFilter("video0", false)(d), test.ShouldBeFalse)
	test.That(t, labelFilter("video1", true)(d), test.ShouldBeFalse)

	pattern := regexp.MustCompile("^usb-cam-")
	test.That(t, labelFilterPattern(pattern, true)(d), test.ShouldBeTrue)
	test.That(t, labelFilterPattern(pattern, false)(d), test.ShouldBeFalse)
}

func TestGetDriverInfo(t *testing.T) {
	drivers := []driver.Driver{
		newFakeDriver("video0" + camera.LabelSeparator + "front"),
		newFakeDriver("screen0"),
	}
	infos := getDriverInfo(drivers, true)
	test.That(t, infos, test.ShouldHaveLength, 2)
	test.That(t, infos[0].Labels, test.ShouldResemble, []string{"video0", "front"})
	test.That(t, infos[1].Labels, test.ShouldResemble, []string{"screen0"})
}
