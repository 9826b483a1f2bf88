package errors

import "fmt"

type ActuatorIndexError struct {
	Index int
}

func (err ActuatorIndexError) Error() string {
	return fmt.Sprintf("no such actuator %d", err.Index)
}

type CalibrationMissingError struct {
	Index int
}

func (err CalibrationMissingError) Error() string {
	return fmt.Sprintf("no calibration recorded for actuator %d", err.Index)
}
