package onboard

import (
	"io"
	"log"
	"sync"
	"time"

	deverrors "github.com/CodedInternet/hexastat/onboard/errors"
	"github.com/CodedInternet/hexastat/onboard/hardware"
)

// HexastatInterface is the device surface exposed to the comms bridge and
// the dev shell.
type HexastatInterface interface {
	Snapshot() Snapshot
	Feed(cmd []byte)
	Subscribe() <-chan Snapshot
	Unsubscribe(ch <-chan Snapshot)
}

// Hexastat owns the six actuator states and runs the control cycle. Control
// state is mutated exclusively on the goroutine running Run (or Cycle in
// tests); the all-or-nothing target commit is structural, not locked.
type Hexastat struct {
	states   [NUM_ACTUATORS]*ActuatorState
	bounds   [NUM_ACTUATORS]CalibrationBounds
	gains    Gains
	commands *CommandReader
	reporter *Reporter
	interval time.Duration

	// runMu serializes control cycles against holders of the driver
	runMu sync.Mutex

	snapMu   sync.Mutex
	lastSnap Snapshot
}

// NewHexastat wires a device against a driver, a command stream and a
// telemetry sink.
func NewHexastat(config *HexastatConfig, driver hardware.ActuatorDriver, input io.Reader, telemetry io.Writer) (d *Hexastat, err error) {
	if err = config.Validate(); err != nil {
		return nil, err
	}

	d = &Hexastat{
		gains:    config.Gains,
		commands: NewCommandReader(input),
		reporter: NewReporter(telemetry, config.Telemetry),
		interval: config.CycleInterval(),
	}

	for i := range d.states {
		d.bounds[i] = config.Actuators[i]
		d.states[i] = newActuatorState(&hardware.LinearActuator{
			Driver: driver,
			Index:  uint8(i + 1), // driver boards use 1 based indexing
		})
	}

	return
}

// SetBounds replaces one actuator's calibration, e.g. after a recalibration
// from the dev shell.
func (d *Hexastat) SetBounds(index int, b CalibrationBounds) error {
	if index < 0 || index >= NUM_ACTUATORS {
		return deverrors.ActuatorIndexError{Index: index}
	}
	d.bounds[index] = b
	return nil
}

// Cycle performs one control iteration, always in ascending actuator order:
// sense everything, ingest any pending command, report, then run the
// controller and apply outputs. Blocks while the device is held.
func (d *Hexastat) Cycle() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	for i, s := range d.states {
		raw, err := averageReading(s.actuator)
		if err != nil {
			return err
		}
		s.Current = mapPosition(raw, d.bounds[i])
	}

	d.ingest()

	d.reporter.Report(d.capture())

	for _, s := range d.states {
		if err := s.Step(d.gains); err != nil {
			return err
		}
	}

	d.publish()
	return nil
}

// ingest applies a pending command if enough input has arrived. The commit
// is all six targets within this one call or nothing at all; no actuator can
// ever observe a partial update.
func (d *Hexastat) ingest() {
	if d.commands.Available() < INPUT_TRIGGER {
		return
	}

	targets, ok := d.commands.ReadCommand()
	if !ok {
		return
	}

	for i, s := range d.states {
		s.setTarget(targets[i])
	}
}

// Hold pauses the control loop between cycles so another owner, such as the
// calibrator, can drive the hardware without the controller fighting it. The
// returned func releases the hold.
func (d *Hexastat) Hold() (release func()) {
	d.runMu.Lock()
	return d.runMu.Unlock
}

// Run executes control cycles for the lifetime of the process. Cycle errors
// are logged and the loop keeps going; there is no supervisor above this.
func (d *Hexastat) Run() {
	for {
		if err := d.Cycle(); err != nil {
			log.Printf("control cycle: %v", err)
		}
		if d.interval > 0 {
			time.Sleep(d.interval)
		}
	}
}

func (d *Hexastat) capture() (snap Snapshot) {
	for i, s := range d.states {
		snap.Targets[i] = s.Target
		snap.Currents[i] = s.Current
		snap.Outputs[i] = s.Output
	}
	return
}

func (d *Hexastat) publish() {
	snap := d.capture()
	d.snapMu.Lock()
	d.lastSnap = snap
	d.snapMu.Unlock()
}

// Snapshot returns the state published at the end of the latest cycle. Safe
// to call from any goroutine.
func (d *Hexastat) Snapshot() Snapshot {
	d.snapMu.Lock()
	defer d.snapMu.Unlock()
	return d.lastSnap
}

// Feed injects command bytes as if they had arrived on the input stream.
func (d *Hexastat) Feed(cmd []byte) {
	d.commands.Feed(cmd)
}

// Subscribe follows the telemetry reporter's emitted snapshots. Pair with
// Unsubscribe when the consumer goes away.
func (d *Hexastat) Subscribe() <-chan Snapshot {
	return d.reporter.Subscribe()
}

// Unsubscribe releases a telemetry subscription.
func (d *Hexastat) Unsubscribe(ch <-chan Snapshot) {
	d.reporter.Unsubscribe(ch)
}
