package onboard

import (
	"math/rand"
	"sync"
	"time"

	deverrors "github.com/CodedInternet/hexastat/onboard/errors"
	"github.com/CodedInternet/hexastat/onboard/hardware"
)

// Simulator tuning. Raw travel mimics a 10 bit ADC.
const (
	SIM_RAW_MIN  = 0
	SIM_RAW_MAX  = 1023
	SENSOR_DELTA = 3
	SIM_INTERVAL = time.Second / 100
	SIM_GAIN     = 0.02 // raw counts per duty unit per tick
)

// SimulatedNode stands in for the motor driver board: first order actuator
// motion plus bounded sensor noise, updated on a background ticker.
type SimulatedNode struct {
	mu        sync.Mutex
	positions [NUM_ACTUATORS]float64
	duty      [NUM_ACTUATORS]uint8
	dirs      [NUM_ACTUATORS]hardware.Direction
}

func NewSimulatedNode() (n *SimulatedNode) {
	n = new(SimulatedNode)
	for i := range n.positions {
		n.positions[i] = SIM_RAW_MAX / 2
	}
	go n.update()
	return
}

func (n *SimulatedNode) update() {
	for {
		n.mu.Lock()
		for i := range n.positions {
			delta := float64(n.duty[i]) * SIM_GAIN
			if n.dirs[i] == hardware.DIRECTION_RETRACT {
				delta = -delta
			}
			n.positions[i] += delta
			if n.positions[i] < SIM_RAW_MIN {
				n.positions[i] = SIM_RAW_MIN
			} else if n.positions[i] > SIM_RAW_MAX {
				n.positions[i] = SIM_RAW_MAX
			}
		}
		n.mu.Unlock()
		time.Sleep(SIM_INTERVAL)
	}
}

func (n *SimulatedNode) SetDirection(index uint8, dir hardware.Direction) error {
	i, err := n.slot(index)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.dirs[i] = dir
	n.mu.Unlock()
	return nil
}

func (n *SimulatedNode) SetMagnitude(index uint8, duty uint8) error {
	i, err := n.slot(index)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.duty[i] = duty
	n.mu.Unlock()
	return nil
}

func (n *SimulatedNode) ReadSensor(index uint8) (int, error) {
	i, err := n.slot(index)
	if err != nil {
		return 0, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	noise := rand.Intn(SENSOR_DELTA*2+1) - SENSOR_DELTA
	return int(n.positions[i]) + noise, nil
}

func (n *SimulatedNode) slot(index uint8) (int, error) {
	if index < 1 || index > NUM_ACTUATORS {
		return 0, deverrors.ActuatorIndexError{Index: int(index)}
	}
	return int(index) - 1, nil
}
