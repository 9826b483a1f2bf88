package hardware

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fakePort scripts the driver board side of the line protocol.
type fakePort struct {
	rx bytes.Buffer // responses the node will read
	tx bytes.Buffer // requests the node wrote
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.rx.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.tx.Write(b) }
func (p *fakePort) Close() error                { return nil }

func TestControlNodeHandshake(t *testing.T) {
	Convey("matching firmware is accepted", t, func() {
		port := &fakePort{}
		port.rx.WriteString("1.0.2\n")

		node, err := NewControlNode(port)
		So(err, ShouldBeNil)
		So(node, ShouldNotBeNil)
		So(port.tx.String(), ShouldEqual, "V\n")
	})

	Convey("a DEV build is accepted", t, func() {
		port := &fakePort{}
		port.rx.WriteString("DEV\n")

		_, err := NewControlNode(port)
		So(err, ShouldBeNil)
	})

	Convey("old firmware is rejected", t, func() {
		port := &fakePort{}
		port.rx.WriteString("0.9.0\n")

		_, err := NewControlNode(port)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "0.9.0")
	})

	Convey("garbage versions are rejected", t, func() {
		port := &fakePort{}
		port.rx.WriteString("ab34f9c\n")

		_, err := NewControlNode(port)
		So(err, ShouldNotBeNil)
	})
}

func TestControlNodeCommands(t *testing.T) {
	createNode := func(responses string) (*fakePort, *SerialControlNode) {
		port := &fakePort{}
		port.rx.WriteString("1.0.0\n")
		port.rx.WriteString(responses)

		node, err := NewControlNode(port)
		So(err, ShouldBeNil)
		port.tx.Reset()
		return port, node
	}

	Convey("commands follow the wire protocol", t, func() {
		Convey("direction", func() {
			port, node := createNode("OK\n")
			So(node.SetDirection(3, DIRECTION_RETRACT), ShouldBeNil)
			So(port.tx.String(), ShouldEqual, "D 3 1\n")
		})

		Convey("magnitude", func() {
			port, node := createNode("OK\n")
			So(node.SetMagnitude(2, 128), ShouldBeNil)
			So(port.tx.String(), ShouldEqual, "M 2 128\n")
		})

		Convey("sensor reads parse the reply", func() {
			port, node := createNode("542\n")
			raw, err := node.ReadSensor(6)
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, 542)
			So(port.tx.String(), ShouldEqual, "S 6\n")
		})

		Convey("a missing reply surfaces as an error", func() {
			_, node := createNode("")
			_, err := node.ReadSensor(1)
			So(err, ShouldNotBeNil)
		})
	})
}
