package calstore

import (
	"time"

	"github.com/asdine/storm/v3"

	"github.com/CodedInternet/hexastat/onboard"
	deverrors "github.com/CodedInternet/hexastat/onboard/errors"
)

// CalibrationRecord is the persisted form of an actuator's calibration.
// Slot is the 1 based actuator index; storm refuses zero ids.
type CalibrationRecord struct {
	Slot    int `storm:"id"`
	RawMin  int
	RawMax  int
	Updated time.Time
}

// Store keeps calibration bounds in the device database so a recalibration
// survives restarts.
type Store struct {
	db *storm.DB
}

func NewStore(db *storm.DB) *Store {
	return &Store{db: db}
}

// Save upserts the bounds for one actuator. index is zero based.
func (s *Store) Save(index int, b onboard.CalibrationBounds) error {
	return s.db.Save(&CalibrationRecord{
		Slot:    index + 1,
		RawMin:  b.RawMin,
		RawMax:  b.RawMax,
		Updated: time.Now(),
	})
}

// Load fetches the bounds for one actuator. index is zero based.
func (s *Store) Load(index int) (b onboard.CalibrationBounds, err error) {
	var rec CalibrationRecord
	if err = s.db.One("Slot", index+1, &rec); err != nil {
		if err == storm.ErrNotFound {
			err = deverrors.CalibrationMissingError{Index: index}
		}
		return
	}

	return onboard.CalibrationBounds{RawMin: rec.RawMin, RawMax: rec.RawMax}, nil
}

// Overlay replaces config default bounds with any stored ones. Actuators
// without a stored record keep their defaults.
func (s *Store) Overlay(config *onboard.HexastatConfig) error {
	for i := range config.Actuators {
		b, err := s.Load(i)
		if err != nil {
			if _, ok := err.(deverrors.CalibrationMissingError); ok {
				continue
			}
			return err
		}
		config.Actuators[i] = b
	}
	return nil
}
