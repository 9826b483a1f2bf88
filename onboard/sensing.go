package onboard

import "github.com/CodedInternet/hexastat/onboard/hardware"

// NUM_READINGS is how many consecutive sensor samples are averaged into one
// position estimate.
const NUM_READINGS = 4

// CalibrationBounds holds the raw sensor readings recorded at an actuator's
// travel extremes. Produced by calibration, consumed read-only by the
// position mapping.
type CalibrationBounds struct {
	RawMin int `yaml:"raw_min" json:"raw_min"`
	RawMax int `yaml:"raw_max" json:"raw_max"`
}

// averageReading takes NUM_READINGS consecutive samples from the actuator's
// position sensor and returns the truncated mean. The sensor is assumed
// continuously readable; no range validation happens here.
func averageReading(actuator *hardware.LinearActuator) (val int, err error) {
	var sum int
	for i := 0; i < NUM_READINGS; i++ {
		var raw int
		raw, err = actuator.RawPosition()
		if err != nil {
			return
		}
		sum += raw
	}
	return sum / NUM_READINGS, nil
}

// translateValue maps val from one range onto another.
func translateValue(val, leftMin, leftMax, rightMin, rightMax int) int {
	leftSpan := float64(leftMax - leftMin)
	rightSpan := float64(rightMax - rightMin)

	valueScaled := float64(val-leftMin) / leftSpan

	return rightMin + int(valueScaled*rightSpan)
}

// mapPosition converts a raw averaged reading into the normalized position
// range. Readings outside the calibrated bounds are clamped first; sensor
// noise and calibration drift land here silently rather than being signaled.
func mapPosition(raw int, b CalibrationBounds) int {
	if raw < b.RawMin {
		raw = b.RawMin
	} else if raw > b.RawMax {
		raw = b.RawMax
	}

	return translateValue(raw, b.RawMin, b.RawMax, POS_MIN, POS_MAX)
}
