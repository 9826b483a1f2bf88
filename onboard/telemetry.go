package onboard

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PRINT_INTERVAL is the default wall-clock spacing between telemetry
// reports.
const PRINT_INTERVAL = 500 * time.Millisecond

// TelemetryConfig selects which per-actuator metrics are emitted and how
// often. Each metric toggles independently.
type TelemetryConfig struct {
	IntervalMS int  `yaml:"interval_ms"`
	Headers    bool `yaml:"headers"`
	Target     bool `yaml:"target"`
	Current    bool `yaml:"current"`
	Output     bool `yaml:"output"`
}

func (t TelemetryConfig) interval() time.Duration {
	if t.IntervalMS <= 0 {
		return PRINT_INTERVAL
	}
	return time.Duration(t.IntervalMS) * time.Millisecond
}

// Snapshot is a copy of the observable per-actuator state for one cycle.
type Snapshot struct {
	Targets  [NUM_ACTUATORS]int   `json:"targets"`
	Currents [NUM_ACTUATORS]int   `json:"currents"`
	Outputs  [NUM_ACTUATORS]uint8 `json:"outputs"`
}

// Reporter emits telemetry lines at most once per interval and fans each
// emitted snapshot out to subscribers. It only ever sees copies of control
// state and never blocks the cycle beyond writing to its sink.
type Reporter struct {
	w    io.Writer
	conf TelemetryConfig
	last time.Time
	now  func() time.Time

	mu        sync.Mutex
	listeners []chan Snapshot
}

func NewReporter(w io.Writer, conf TelemetryConfig) *Reporter {
	return &Reporter{
		w:    w,
		conf: conf,
		now:  time.Now,
	}
}

// Subscribe returns a channel receiving every emitted snapshot. Slow
// subscribers miss snapshots rather than stalling the control cycle. Callers
// must Unsubscribe when done or the listener is retained forever.
func (r *Reporter) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	r.mu.Lock()
	r.listeners = append(r.listeners, ch)
	r.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener registered by Subscribe.
func (r *Reporter) Unsubscribe(ch <-chan Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.listeners {
		if (<-chan Snapshot)(l) == ch {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Report writes the enabled metric lines if the interval has elapsed since
// the previous report, then fans the snapshot out.
func (r *Reporter) Report(snap Snapshot) {
	now := r.now()
	if now.Sub(r.last) < r.conf.interval() {
		return
	}
	r.last = now

	if r.conf.Target {
		r.emit("target", intLine(snap.Targets[:]))
	}
	if r.conf.Current {
		r.emit("current", intLine(snap.Currents[:]))
	}
	if r.conf.Output {
		vals := make([]int, len(snap.Outputs))
		for i, o := range snap.Outputs {
			vals[i] = int(o)
		}
		r.emit("output", intLine(vals))
	}

	r.mu.Lock()
	for _, ch := range r.listeners {
		select {
		case ch <- snap:
		default:
		}
	}
	r.mu.Unlock()
}

func (r *Reporter) emit(name, line string) {
	if r.conf.Headers {
		fmt.Fprintln(r.w, name)
	}
	fmt.Fprintln(r.w, line)
}

func intLine(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
