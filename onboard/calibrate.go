package onboard

import (
	"fmt"
	"io"
	"time"

	"github.com/CodedInternet/hexastat/onboard/hardware"
)

// SETTLE_DELAY bounds how long an actuator is given to reach a hard stop
// during calibration. Calibration is the only place the process ever waits
// on hardware; the steady-state control cycle never does.
const SETTLE_DELAY = 3 * time.Second

// BoundsStore persists calibration results between runs.
type BoundsStore interface {
	Save(index int, b CalibrationBounds) error
}

// Calibrator drives each actuator to both travel extremes and records the
// averaged raw readings there. It reuses the cycle's sensing primitive but
// contains no feedback control.
type Calibrator struct {
	Driver hardware.ActuatorDriver
	Out    io.Writer
	Store  BoundsStore   // optional
	Settle time.Duration // defaults to SETTLE_DELAY
}

func (c *Calibrator) settle() time.Duration {
	if c.Settle <= 0 {
		return SETTLE_DELAY
	}
	return c.Settle
}

// Calibrate measures one actuator, emits a "<min> <max>" line and returns
// the bounds. index is zero based.
func (c *Calibrator) Calibrate(index int) (b CalibrationBounds, err error) {
	actuator := &hardware.LinearActuator{
		Driver: c.Driver,
		Index:  uint8(index + 1),
	}

	if b.RawMin, err = c.measure(actuator, hardware.DIRECTION_RETRACT); err != nil {
		return
	}
	if b.RawMax, err = c.measure(actuator, hardware.DIRECTION_EXTEND); err != nil {
		return
	}

	if c.Out != nil {
		fmt.Fprintf(c.Out, "%d %d\n", b.RawMin, b.RawMax)
	}

	if c.Store != nil {
		err = c.Store.Save(index, b)
	}
	return
}

// CalibrateAll measures every actuator in ascending order.
func (c *Calibrator) CalibrateAll() (bounds [NUM_ACTUATORS]CalibrationBounds, err error) {
	for i := range bounds {
		if bounds[i], err = c.Calibrate(i); err != nil {
			return
		}
	}
	return
}

func (c *Calibrator) measure(actuator *hardware.LinearActuator, dir hardware.Direction) (val int, err error) {
	if err = actuator.Apply(dir, OUTPUT_MAX); err != nil {
		return
	}

	time.Sleep(c.settle())

	if err = actuator.Apply(dir, OUTPUT_MIN); err != nil {
		return
	}

	return averageReading(actuator)
}
