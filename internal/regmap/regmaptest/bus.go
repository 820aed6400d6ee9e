// Package regmaptest provides a scriptable in-memory I²C bus for driver
// tests. Registers are independent bytes at 16-bit addresses and
// multi-byte transfers auto-increment, matching the sensor's CCI behavior.
package regmaptest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
)

// ErrScripted is the failure injected by FailWriteAt/FailReadAt.
var ErrScripted = errors.New("regmaptest: scripted bus failure")

// Tx records a single transaction seen by the bus.
type Tx struct {
	Addr  uint16
	Reg   uint16
	Write []byte // payload after the register address, nil for reads
	Read  int    // bytes read, 0 for writes
}

// Bus is an in-memory i2c.Bus.
type Bus struct {
	mu   sync.Mutex
	regs map[uint16]byte
	log  []Tx

	writes int
	reads  int

	// FailWriteAt makes the Nth write transaction fail (1-based).
	// FailReadAt does the same for reads. Zero disables injection.
	FailWriteAt int
	FailReadAt  int
}

// New returns an empty bus. Seed preloads register values.
func New(seed map[uint16]byte) *Bus {
	regs := make(map[uint16]byte, len(seed))
	for a, v := range seed {
		regs[a] = v
	}
	return &Bus{regs: regs}
}

func (b *Bus) String() string { return "regmaptest" }

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(physic.Frequency) error { return nil }

// Tx implements i2c.Bus. The first two written bytes select the register
// address; remaining written bytes are stored, or r is filled, from
// consecutive addresses.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(w) < 2 {
		return fmt.Errorf("regmaptest: short register address (%d bytes)", len(w))
	}
	reg := binary.BigEndian.Uint16(w[:2])

	if len(r) == 0 {
		b.writes++
		b.log = append(b.log, Tx{Addr: addr, Reg: reg, Write: append([]byte(nil), w[2:]...)})
		if b.FailWriteAt > 0 && b.writes == b.FailWriteAt {
			return ErrScripted
		}
		for i, v := range w[2:] {
			b.regs[reg+uint16(i)] = v
		}
		return nil
	}

	b.reads++
	b.log = append(b.log, Tx{Addr: addr, Reg: reg, Read: len(r)})
	if b.FailReadAt > 0 && b.reads == b.FailReadAt {
		return ErrScripted
	}
	for i := range r {
		r[i] = b.regs[reg+uint16(i)]
	}
	return nil
}

// Reg returns the current value of a register byte.
func (b *Bus) Reg(addr uint16) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[addr]
}

// Reg16 returns two consecutive register bytes as a big-endian value.
func (b *Bus) Reg16(addr uint16) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint16(b.regs[addr])<<8 | uint16(b.regs[addr+1])
}

// SetReg sets a register byte directly, bypassing the transaction log.
func (b *Bus) SetReg(addr uint16, val byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs[addr] = val
}

// Writes returns the number of write transactions performed.
func (b *Bus) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// History returns a copy of the transaction log.
func (b *Bus) History() []Tx {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Tx(nil), b.log...)
}

// ResetLog clears the transaction log and counters without touching
// register contents or failure scripting.
func (b *Bus) ResetLog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = nil
	b.writes = 0
	b.reads = 0
}
