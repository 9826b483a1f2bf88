package onboard

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// INPUT_TRIGGER is the minimum number of buffered bytes before a command
// parse is attempted, a guard against chewing on a half-arrived command. The
// shortest complete command ("0 0 0 0 0 0\n") is exactly this long.
const INPUT_TRIGGER = 12

// CommandReader accumulates bytes from the command stream on a pump
// goroutine and hands complete six-value commands to the control cycle.
// Parsing, validation and the commit all happen on the caller's goroutine;
// the byte buffer is the only shared state.
type CommandReader struct {
	src io.Reader

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCommandReader starts pumping src into the internal buffer. A nil src is
// valid; the reader is then fed exclusively through Feed.
func NewCommandReader(src io.Reader) (c *CommandReader) {
	c = &CommandReader{src: src}
	if src != nil {
		go c.pump()
	}
	return
}

func (c *CommandReader) pump() {
	chunk := make([]byte, 64)
	for {
		n, err := c.src.Read(chunk)
		if n > 0 {
			c.mu.Lock()
			c.buf.Write(chunk[:n])
			c.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// Feed injects raw command bytes, bypassing the pump. The remote bridge uses
// this so its commands take the exact same validation path as the serial
// stream.
func (c *CommandReader) Feed(p []byte) {
	c.mu.Lock()
	c.buf.Write(p)
	c.mu.Unlock()
}

// Available reports how many bytes are waiting to be parsed.
func (c *CommandReader) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// ReadCommand parses exactly six whitespace-separated integers. Every value
// must fall inside [POS_MIN, POS_MAX]; a malformed or out-of-range command is
// discarded whole and reports !ok without touching anything else. All or
// nothing, never per actuator. A valid command buffered behind a bad one
// survives for the next read.
func (c *CommandReader) ReadCommand() (targets [NUM_ACTUATORS]int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range targets {
		if _, err := fmt.Fscan(&c.buf, &targets[i]); err != nil {
			c.discardLine()
			return targets, false
		}
		if targets[i] < POS_MIN || targets[i] > POS_MAX {
			c.discardLine()
			return targets, false
		}
	}

	return targets, true
}

// discardLine drops the remainder of the offending command, up to and
// including the next newline, leaving anything buffered behind it intact.
func (c *CommandReader) discardLine() {
	c.buf.ReadString('\n')
}
