package onboard

import (
	"math"

	"github.com/CodedInternet/hexastat/onboard/hardware"
)

// Control constants. Positions are normalized to [POS_MIN, POS_MAX]; outputs
// are PWM duty values.
const (
	NUM_ACTUATORS = 6

	POS_MIN       = 0
	POS_MAX       = 1000
	POS_THRESHOLD = 10

	OUTPUT_MIN = 0
	OUTPUT_MAX = 255
)

// Gains holds the PID tuning shared by all six actuators.
type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

// ActuatorState carries one actuator's control history between cycles. It is
// mutated only on the control goroutine; the command ingestor touches the
// target fields within the same goroutine during the ingest phase.
type ActuatorState struct {
	Current   int
	Target    int
	Output    uint8
	Direction hardware.Direction

	prevError  int
	totalError int
	ageCur     int // cycles the current error value has been held
	agePrev    int // cycles the previous error value was held

	actuator *hardware.LinearActuator
}

func newActuatorState(actuator *hardware.LinearActuator) *ActuatorState {
	return &ActuatorState{
		Direction: hardware.DIRECTION_EXTEND,
		ageCur:    1, // keeps ageCur+agePrev >= 1 ahead of the first derivative
		actuator:  actuator,
	}
}

// setTarget stages a new commanded position and clears the integral
// accumulator so windup from the old target cannot leak across a retarget.
func (s *ActuatorState) setTarget(target int) {
	s.Target = target
	s.totalError = 0
}

// Step runs one iteration of the control law and applies the result to the
// actuator. The derivative term is divided by the number of cycles the error
// value has been static rather than a fixed timestep, so it averages over
// however long the error actually took to change.
func (s *ActuatorState) Step(g Gains) error {
	posErr := s.Current - s.Target

	if posErr != s.prevError {
		s.agePrev = s.ageCur
		s.ageCur = 1
	}

	proportional := posErr
	if abs(posErr) <= POS_THRESHOLD {
		// close enough to call arrived; suppress the push and any windup
		proportional = 0
		s.totalError = 0
	} else {
		s.totalError += posErr
	}

	correction := g.Kp*float64(proportional) +
		g.Ki*float64(s.totalError) +
		g.Kd*float64(posErr-s.prevError)/float64(s.ageCur+s.agePrev)

	// positive error means the actuator sits beyond the target
	if correction > 0 {
		s.Direction = hardware.DIRECTION_RETRACT
	} else {
		s.Direction = hardware.DIRECTION_EXTEND
	}
	s.Output = clampOutput(math.Abs(correction))

	err := s.actuator.Apply(s.Direction, s.Output)

	s.ageCur++
	s.prevError = posErr

	return err
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampOutput(v float64) uint8 {
	if v < OUTPUT_MIN {
		return OUTPUT_MIN
	}
	if v > OUTPUT_MAX {
		return OUTPUT_MAX
	}
	return uint8(v)
}
