package onboard

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CodedInternet/hexastat/onboard/hardware"
)

func TestAverageReading(t *testing.T) {
	Convey("consecutive samples are averaged with truncation", t, func() {
		driver := newTestDriver()
		driver.reads[1] = []int{10, 20, 30, 40}
		actuator := &hardware.LinearActuator{Driver: driver, Index: 1}

		val, err := averageReading(actuator)
		So(err, ShouldBeNil)
		So(val, ShouldEqual, 25)

		Convey("the mean truncates rather than rounds", func() {
			driver.reads[1] = []int{0, 1, 1, 1}
			val, err := averageReading(actuator)
			So(err, ShouldBeNil)
			So(val, ShouldEqual, 0)
		})
	})
}

func TestMapPosition(t *testing.T) {
	bounds := CalibrationBounds{RawMin: 100, RawMax: 900}

	Convey("raw readings map linearly onto the position range", t, func() {
		So(mapPosition(100, bounds), ShouldEqual, POS_MIN)
		So(mapPosition(900, bounds), ShouldEqual, POS_MAX)
		So(mapPosition(500, bounds), ShouldEqual, 500)

		Convey("readings beyond the calibrated bounds clamp", func() {
			So(mapPosition(950, bounds), ShouldEqual, POS_MAX)
			So(mapPosition(50, bounds), ShouldEqual, POS_MIN)
		})
	})
}
