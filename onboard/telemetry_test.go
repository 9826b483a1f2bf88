package onboard

import (
	"bytes"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReporter(t *testing.T) {
	snap := Snapshot{
		Targets:  [NUM_ACTUATORS]int{1, 2, 3, 4, 5, 6},
		Currents: [NUM_ACTUATORS]int{10, 20, 30, 40, 50, 60},
		Outputs:  [NUM_ACTUATORS]uint8{7, 7, 7, 7, 7, 7},
	}

	Convey("with a controllable clock", t, func() {
		var buf bytes.Buffer
		r := NewReporter(&buf, TelemetryConfig{
			IntervalMS: 100,
			Headers:    true,
			Target:     true,
			Current:    true,
		})

		now := time.Unix(1000, 0)
		r.now = func() time.Time { return now }

		Convey("the first report emits immediately", func() {
			r.Report(snap)
			So(buf.String(), ShouldEqual, "target\n1 2 3 4 5 6\ncurrent\n10 20 30 40 50 60\n")

			Convey("reports inside the interval are suppressed", func() {
				buf.Reset()
				now = now.Add(50 * time.Millisecond)
				r.Report(snap)
				So(buf.String(), ShouldBeEmpty)
			})

			Convey("the next report after the interval emits again", func() {
				buf.Reset()
				now = now.Add(150 * time.Millisecond)
				r.Report(snap)
				So(buf.String(), ShouldStartWith, "target\n")
			})
		})

		Convey("disabled metrics and headers stay silent", func() {
			plain := NewReporter(&buf, TelemetryConfig{Output: true})
			plain.now = func() time.Time { return now }

			plain.Report(snap)
			So(buf.String(), ShouldEqual, "7 7 7 7 7 7\n")
		})

		Convey("an unsubscribed listener receives nothing further", func() {
			kept := r.Subscribe()
			dropped := r.Subscribe()
			r.Unsubscribe(dropped)

			r.Report(snap)

			select {
			case <-kept:
			default:
				t.Fatal("expected a snapshot on the kept listener")
			}
			select {
			case <-dropped:
				t.Fatal("unsubscribed listener still received a snapshot")
			default:
			}
		})

		Convey("subscribers receive emitted snapshots without blocking", func() {
			ch := r.Subscribe()
			r.Report(snap)

			select {
			case got := <-ch:
				So(got, ShouldResemble, snap)
			default:
				t.Fatal("expected a snapshot on the listener channel")
			}

			// a full listener is skipped, not waited on
			now = now.Add(time.Second)
			r.Report(snap)
			now = now.Add(time.Second)
			r.Report(snap)
		})
	})
}

func TestReporterListenerChurn(t *testing.T) {
	Convey("repeated subscribe and unsubscribe leaves no listeners behind", t, func() {
		r := NewReporter(&bytes.Buffer{}, TelemetryConfig{})

		for i := 0; i < 1000; i++ {
			r.Unsubscribe(r.Subscribe())
		}

		So(r.listeners, ShouldBeEmpty)
	})
}
