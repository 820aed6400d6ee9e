// Package regmap provides fixed-width big-endian register access for
// register-addressed sensors behind a slow serial control bus.
//
// The codec does not retry: a failed bus transaction is reported to the
// caller verbatim. Serialization of concurrent access is the caller's
// responsibility.
package regmap

import (
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3"
)

// Reg is a single register assignment in a payload table.
type Reg struct {
	Addr uint16
	Val  uint8
}

// SeqError reports the first failing entry of a register sequence.
type SeqError struct {
	Index int
	Addr  uint16
	Err   error
}

func (e *SeqError) Error() string {
	return fmt.Sprintf("sequence entry %d (reg 0x%04x): %v", e.Index, e.Addr, e.Err)
}

func (e *SeqError) Unwrap() error { return e.Err }

// Conn reads and writes 16-bit addressed registers over a bus connection,
// typically an i2c.Dev.
type Conn struct {
	c    conn.Conn
	name string
}

// New wraps an addressed bus connection. The name labels transaction
// metrics and error messages.
func New(c conn.Conn, name string) *Conn {
	return &Conn{c: c, name: name}
}

// Read reads a register value of width 1 to 4 bytes, big-endian.
func (c *Conn) Read(addr uint16, width int) (uint32, error) {
	if width < 1 || width > 4 {
		return 0, fmt.Errorf("regmap %s: invalid read width %d", c.name, width)
	}
	var a [2]byte
	binary.BigEndian.PutUint16(a[:], addr)
	var data [4]byte
	if err := c.c.Tx(a[:], data[4-width:]); err != nil {
		busFailures.WithLabelValues(c.name, "read").Inc()
		return 0, fmt.Errorf("regmap %s: read reg 0x%04x: %w", c.name, addr, err)
	}
	busTransactions.WithLabelValues(c.name, "read").Inc()
	return binary.BigEndian.Uint32(data[:]), nil
}

// Write writes a register value of width 1 to 4 bytes, big-endian.
func (c *Conn) Write(addr uint16, width int, val uint32) error {
	if width < 1 || width > 4 {
		return fmt.Errorf("regmap %s: invalid write width %d", c.name, width)
	}
	var buf [6]byte
	binary.BigEndian.PutUint16(buf[:2], addr)
	binary.BigEndian.PutUint32(buf[2:], val<<(8*(4-width)))
	if err := c.c.Tx(buf[:2+width], nil); err != nil {
		busFailures.WithLabelValues(c.name, "write").Inc()
		return fmt.Errorf("regmap %s: write reg 0x%04x: %w", c.name, addr, err)
	}
	busTransactions.WithLabelValues(c.name, "write").Inc()
	return nil
}

// WriteSequence applies a payload table strictly in order, one byte per
// register, stopping at the first failed transaction. The returned error
// is a *SeqError identifying the failing entry.
func (c *Conn) WriteSequence(regs []Reg) error {
	for i, r := range regs {
		if err := c.Write(r.Addr, 1, uint32(r.Val)); err != nil {
			return &SeqError{Index: i, Addr: r.Addr, Err: err}
		}
	}
	return nil
}
