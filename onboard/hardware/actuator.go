package hardware

// Direction selects the sense of actuator travel.
type Direction uint8

const (
	DIRECTION_EXTEND Direction = iota
	DIRECTION_RETRACT
)

func (d Direction) String() string {
	if d == DIRECTION_RETRACT {
		return "retract"
	}
	return "extend"
}

// ActuatorDriver is the boundary to the motor driver hardware: two write-only
// outputs and one read-only input per actuator. Nothing above this interface
// knows about buses or pin numbering.
type ActuatorDriver interface {
	SetDirection(index uint8, dir Direction) error
	SetMagnitude(index uint8, duty uint8) error
	ReadSensor(index uint8) (raw int, err error)
}

// LinearActuator binds a single slot on a driver board.
type LinearActuator struct {
	Driver ActuatorDriver
	Index  uint8 // driver boards use 1 based indexing
}

// Apply pushes a direction and duty pair to the hardware.
func (a *LinearActuator) Apply(dir Direction, duty uint8) error {
	if err := a.Driver.SetDirection(a.Index, dir); err != nil {
		return err
	}
	return a.Driver.SetMagnitude(a.Index, duty)
}

// RawPosition samples the position sensor once.
func (a *LinearActuator) RawPosition() (int, error) {
	return a.Driver.ReadSensor(a.Index)
}
