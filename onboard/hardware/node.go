package hardware

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver"
	"github.com/tarm/serial"
)

const (
	NODE_VERSION = "~1.0"
	NODE_BAUD    = 115200

	NODE_READ_TIMEOUT = 500 * time.Millisecond
)

// SerialControlNode drives the actuator bank over the driver board's line
// protocol. Every request line is answered with a single response line:
//
//	V           -> firmware version string
//	D <i> <0|1> -> set travel direction for actuator i
//	M <i> <n>   -> set duty magnitude for actuator i
//	S <i>       -> read raw sensor, replies "<n>"
type SerialControlNode struct {
	port io.ReadWriteCloser
	rd   *bufio.Reader
	lock sync.Mutex
}

// NewSerialControlNode opens the named serial device and performs the
// firmware handshake.
func NewSerialControlNode(ttyName string, baud int) (n *SerialControlNode, err error) {
	if baud == 0 {
		baud = NODE_BAUD
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        ttyName,
		Baud:        baud,
		ReadTimeout: NODE_READ_TIMEOUT,
	})
	if err != nil {
		return
	}

	return NewControlNode(port)
}

// NewControlNode wraps an open transport and checks the firmware version is
// one this build can talk to.
func NewControlNode(port io.ReadWriteCloser) (n *SerialControlNode, err error) {
	n = &SerialControlNode{
		port: port,
		rd:   bufio.NewReader(port),
	}

	versionString, err := n.cmd("V")
	if err != nil {
		return nil, err
	}

	if versionString == "DEV" {
		// running a direct dev build, consider it safe for now
		return n, nil
	}

	semVer, err := semver.NewVersion(versionString)
	if err != nil {
		return nil, fmt.Errorf("node reports unusable version %q: %v", versionString, err)
	}

	semVerConstraint, err := semver.NewConstraint(NODE_VERSION)
	if err != nil {
		return nil, err
	}

	if !semVerConstraint.Check(semVer) {
		return nil, fmt.Errorf("unable to use node: recieved version %s - require %s", versionString, NODE_VERSION)
	}

	return n, nil
}

func (n *SerialControlNode) SetDirection(index uint8, dir Direction) error {
	_, err := n.cmd(fmt.Sprintf("D %d %d", index, uint8(dir)))
	return err
}

func (n *SerialControlNode) SetMagnitude(index uint8, duty uint8) error {
	_, err := n.cmd(fmt.Sprintf("M %d %d", index, duty))
	return err
}

func (n *SerialControlNode) ReadSensor(index uint8) (raw int, err error) {
	resp, err := n.cmd(fmt.Sprintf("S %d", index))
	if err != nil {
		return
	}

	_, err = fmt.Sscanf(resp, "%d", &raw)
	return
}

func (n *SerialControlNode) Close() error {
	return n.port.Close()
}

// cmd performs one request/response exchange. Keep processing outside the
// critical section to a minimum so the control cycle never waits on the port
// longer than a single exchange.
func (n *SerialControlNode) cmd(line string) (resp string, err error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if _, err = fmt.Fprintf(n.port, "%s\n", line); err != nil {
		return
	}

	resp, err = n.rd.ReadString('\n')
	if err != nil {
		return
	}

	return strings.TrimSpace(resp), nil
}
