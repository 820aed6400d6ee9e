package regmap

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c"

	"github.com/smazurov/sensornode/internal/regmap/regmaptest"
)

func newConn(bus *regmaptest.Bus) *Conn {
	return New(&i2c.Dev{Bus: bus, Addr: 0x1a}, "test")
}

func TestReadWidths(t *testing.T) {
	bus := regmaptest.New(map[uint16]byte{
		0x0340: 0x12, 0x0341: 0x34, 0x0342: 0x56, 0x0343: 0x78,
	})
	c := newConn(bus)

	tests := []struct {
		name  string
		width int
		want  uint32
	}{
		{"one byte", 1, 0x12},
		{"two bytes", 2, 0x1234},
		{"three bytes", 3, 0x123456},
		{"four bytes", 4, 0x12345678},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Read(0x0340, tt.width)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Read() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestReadInvalidWidth(t *testing.T) {
	c := newConn(regmaptest.New(nil))
	for _, width := range []int{0, 5, -1} {
		if _, err := c.Read(0x0100, width); err == nil {
			t.Errorf("Read(width=%d) expected error", width)
		}
	}
}

func TestWriteBigEndian(t *testing.T) {
	bus := regmaptest.New(nil)
	c := newConn(bus)

	if err := c.Write(0x0202, 2, 0x03e8); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if got := bus.Reg(0x0202); got != 0x03 {
		t.Errorf("high byte = %#x, want 0x03", got)
	}
	if got := bus.Reg(0x0203); got != 0xe8 {
		t.Errorf("low byte = %#x, want 0xe8", got)
	}

	if err := c.Write(0x0100, 1, 0x01); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if got := bus.Reg(0x0100); got != 0x01 {
		t.Errorf("reg 0x0100 = %#x, want 0x01", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	bus := regmaptest.New(nil)
	c := newConn(bus)

	if err := c.Write(0x0340, 4, 0xdeadbeef); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	got, err := c.Read(0x0340, 4)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != 0xdeadbeef {
		t.Errorf("round trip = %#x, want 0xdeadbeef", got)
	}
}

func TestWriteSequenceAppliesInOrder(t *testing.T) {
	bus := regmaptest.New(nil)
	c := newConn(bus)

	regs := []Reg{
		{Addr: 0x0100, Val: 0x00},
		{Addr: 0x0136, Val: 0x18},
		{Addr: 0x0137, Val: 0x00},
	}
	if err := c.WriteSequence(regs); err != nil {
		t.Fatalf("WriteSequence() error: %v", err)
	}

	hist := bus.History()
	if len(hist) != len(regs) {
		t.Fatalf("transaction count = %d, want %d", len(hist), len(regs))
	}
	for i, r := range regs {
		if hist[i].Reg != r.Addr {
			t.Errorf("entry %d wrote reg %#x, want %#x", i, hist[i].Reg, r.Addr)
		}
		if got := bus.Reg(r.Addr); got != r.Val {
			t.Errorf("reg %#x = %#x, want %#x", r.Addr, got, r.Val)
		}
	}
}

func TestWriteSequenceStopsAtFirstFailure(t *testing.T) {
	bus := regmaptest.New(nil)
	bus.FailWriteAt = 5
	c := newConn(bus)

	regs := make([]Reg, 20)
	for i := range regs {
		regs[i] = Reg{Addr: 0x3000 + uint16(i), Val: uint8(i)}
	}

	err := c.WriteSequence(regs)
	if err == nil {
		t.Fatal("WriteSequence() expected error")
	}
	var seqErr *SeqError
	if !errors.As(err, &seqErr) {
		t.Fatalf("error type = %T, want *SeqError", err)
	}
	if seqErr.Index != 4 {
		t.Errorf("failing index = %d, want 4", seqErr.Index)
	}
	if seqErr.Addr != regs[4].Addr {
		t.Errorf("failing addr = %#x, want %#x", seqErr.Addr, regs[4].Addr)
	}
	if !errors.Is(err, regmaptest.ErrScripted) {
		t.Error("expected wrapped bus error")
	}
	// Nothing past the failing entry may have been written.
	if bus.Writes() != 5 {
		t.Errorf("write transactions = %d, want 5", bus.Writes())
	}
}
